// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/meshintel/newsgraph/pkg/types"
)

// HasOutgoingEdges reports whether the article already has similarity
// edges, which lets the graph builder skip it on incremental runs.
func (s *Store) HasOutgoingEdges(ctx context.Context, articleID int64) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT count(*) FROM similarities WHERE src_id = ?`, articleID,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("checking edges for article %d: %w", articleID, err)
	}
	return n > 0, nil
}

// DeleteEdgesForArticle removes every edge touching the article, in both
// directions. Edges are never updated in place; a forced rebuild deletes
// and recreates.
func (s *Store) DeleteEdgesForArticle(ctx context.Context, articleID int64) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM similarities WHERE src_id = ? OR dst_id = ?`, articleID, articleID)
	if err != nil {
		return fmt.Errorf("deleting edges for article %d: %w", articleID, err)
	}
	return nil
}

// SaveEdges persists a batch of edges in one transaction, using
// INSERT OR IGNORE so the symmetric counterpart written by an earlier
// article's pass is a no-op rather than an error. Returns the number of
// rows actually created.
func (s *Store) SaveEdges(ctx context.Context, edges []types.SimilarityEdge) (int, error) {
	if len(edges) == 0 {
		return 0, nil
	}

	tx, err := s.begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR IGNORE INTO similarities (src_id, dst_id, cosine, shared_terms, shared_entities)
		 VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("preparing edge insert: %w", err)
	}
	defer stmt.Close()

	created := 0
	for _, e := range edges {
		termsJSON, _ := json.Marshal(e.SharedTerms)
		entitiesJSON, _ := json.Marshal(e.SharedEntityIDs)
		res, err := stmt.ExecContext(ctx, e.SrcID, e.DstID, e.Cosine, string(termsJSON), string(entitiesJSON))
		if err != nil {
			return 0, fmt.Errorf("inserting edge %d->%d: %w", e.SrcID, e.DstID, err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return 0, err
		}
		if affected > 0 {
			created++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing edges: %w", err)
	}
	return created, nil
}

// EdgeCount returns the number of stored similarity edges (directed rows).
func (s *Store) EdgeCount(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM similarities`).Scan(&n)
	return n, err
}

// Edge is a similarity row as read back for threading: shared entities
// decoded from JSON, malformed evidence degraded to none.
type Edge struct {
	SrcID           int64
	DstID           int64
	Cosine          float64
	SharedEntityIDs []int64
}

// EdgesInOrder returns all edges in their natural storage order. The
// threader depends on this order being stable; no sort is applied.
func (s *Store) EdgesInOrder(ctx context.Context) ([]Edge, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT src_id, dst_id, cosine, shared_entities FROM similarities`)
	if err != nil {
		return nil, fmt.Errorf("querying edges: %w", err)
	}
	defer rows.Close()

	var edges []Edge
	for rows.Next() {
		var e Edge
		var entitiesJSON sql.NullString
		if err := rows.Scan(&e.SrcID, &e.DstID, &e.Cosine, &entitiesJSON); err != nil {
			return nil, err
		}
		if entitiesJSON.Valid && entitiesJSON.String != "" {
			// Malformed JSON is a per-item failure: the edge keeps zero
			// shared entities and simply cannot qualify for tier3.
			if err := json.Unmarshal([]byte(entitiesJSON.String), &e.SharedEntityIDs); err != nil {
				e.SharedEntityIDs = nil
			}
		}
		edges = append(edges, e)
	}
	return edges, rows.Err()
}

// EdgeBySrcDst reads one directed edge; used in tests and the status
// command to verify symmetry.
func (s *Store) EdgeBySrcDst(ctx context.Context, src, dst int64) (types.SimilarityEdge, error) {
	var e types.SimilarityEdge
	var termsJSON, entitiesJSON, tier sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT src_id, dst_id, cosine, shared_terms, shared_entities, tier
		 FROM similarities WHERE src_id = ? AND dst_id = ?`, src, dst,
	).Scan(&e.SrcID, &e.DstID, &e.Cosine, &termsJSON, &entitiesJSON, &tier)
	if err != nil {
		return types.SimilarityEdge{}, err
	}
	if termsJSON.Valid {
		json.Unmarshal([]byte(termsJSON.String), &e.SharedTerms)
	}
	if entitiesJSON.Valid {
		json.Unmarshal([]byte(entitiesJSON.String), &e.SharedEntityIDs)
	}
	if tier.Valid {
		e.Tier = types.Tier(tier.String)
	}
	return e, nil
}

// UpdateEdgeTiers writes tier classifications back onto edges, both
// directions per pair, in a single transaction.
func (s *Store) UpdateEdgeTiers(ctx context.Context, tiers map[[2]int64]types.Tier) error {
	if len(tiers) == 0 {
		return nil
	}

	tx, err := s.begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`UPDATE similarities SET tier = ? WHERE src_id = ? AND dst_id = ?`)
	if err != nil {
		return fmt.Errorf("preparing tier update: %w", err)
	}
	defer stmt.Close()

	for pair, tier := range tiers {
		if _, err := stmt.ExecContext(ctx, string(tier), pair[0], pair[1]); err != nil {
			return fmt.Errorf("updating tier for edge %d->%d: %w", pair[0], pair[1], err)
		}
		if _, err := stmt.ExecContext(ctx, string(tier), pair[1], pair[0]); err != nil {
			return fmt.Errorf("updating tier for edge %d->%d: %w", pair[1], pair[0], err)
		}
	}

	return tx.Commit()
}
