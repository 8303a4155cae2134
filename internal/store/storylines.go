// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/meshintel/newsgraph/pkg/types"
)

// StorylineCount returns the number of storylines currently stored.
func (s *Store) StorylineCount(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM storylines`).Scan(&n)
	return n, err
}

// ResetStorylines clears all threading state so a forced run starts from
// scratch: storylines, memberships, article backlinks, and edge tiers.
func (s *Store) ResetStorylines(ctx context.Context) error {
	tx, err := s.begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, q := range []string{
		`DELETE FROM storyline_articles`,
		`DELETE FROM storylines`,
		`UPDATE articles SET storyline_id = NULL`,
		`UPDATE similarities SET tier = NULL`,
	} {
		if _, err := tx.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("resetting storylines: %w", err)
		}
	}
	return tx.Commit()
}

// NewStoryline is a storyline plus its ordered memberships, as handed to
// CreateStoryline by the threader.
type NewStoryline struct {
	Label      string
	FirstDate  types.Date
	LastDate   types.Date
	Members    []types.StorylineMembership // SequenceOrder set, StorylineID ignored
	MemberTier types.Tier
}

// CreateStoryline inserts the storyline, its memberships, and the
// articles' backlinks in one transaction, returning the new id.
func (s *Store) CreateStoryline(ctx context.Context, ns NewStoryline) (int64, error) {
	tx, err := s.begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO storylines (label, status, momentum_score, first_date, last_date, article_count)
		 VALUES (?, ?, 0, ?, ?, ?)`,
		ns.Label, string(types.StatusActive), ns.FirstDate.String(), ns.LastDate.String(), len(ns.Members))
	if err != nil {
		return 0, fmt.Errorf("inserting storyline: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	memberStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO storyline_articles (storyline_id, article_id, tier, sequence_order)
		 VALUES (?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("preparing membership insert: %w", err)
	}
	defer memberStmt.Close()

	backStmt, err := tx.PrepareContext(ctx,
		`UPDATE articles SET storyline_id = ? WHERE id = ?`)
	if err != nil {
		return 0, fmt.Errorf("preparing article backlink: %w", err)
	}
	defer backStmt.Close()

	for _, m := range ns.Members {
		tier := m.Tier
		if tier == "" {
			tier = ns.MemberTier
		}
		if _, err := memberStmt.ExecContext(ctx, id, m.ArticleID, string(tier), m.SequenceOrder); err != nil {
			return 0, fmt.Errorf("inserting membership for article %d: %w", m.ArticleID, err)
		}
		if _, err := backStmt.ExecContext(ctx, id, m.ArticleID); err != nil {
			return 0, fmt.Errorf("backlinking article %d: %w", m.ArticleID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing storyline: %w", err)
	}
	return id, nil
}

// Storylines returns every storyline, newest first by last activity.
func (s *Store) Storylines(ctx context.Context) ([]types.Storyline, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, label, status, momentum_score, first_date, last_date, article_count
		 FROM storylines ORDER BY last_date DESC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("querying storylines: %w", err)
	}
	defer rows.Close()
	return scanStorylines(rows)
}

func scanStorylines(rows *sql.Rows) ([]types.Storyline, error) {
	var out []types.Storyline
	for rows.Next() {
		var st types.Storyline
		var status, first, last string
		if err := rows.Scan(&st.ID, &st.Label, &status, &st.MomentumScore, &first, &last, &st.ArticleCount); err != nil {
			return nil, err
		}
		st.Status = types.StorylineStatus(status)
		var err error
		if st.FirstDate, err = types.ParseDate(first); err != nil {
			return nil, fmt.Errorf("storyline %d: bad first_date %q: %w", st.ID, first, err)
		}
		if st.LastDate, err = types.ParseDate(last); err != nil {
			return nil, fmt.Errorf("storyline %d: bad last_date %q: %w", st.ID, last, err)
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

// Storyline reads a single storyline by id.
func (s *Store) Storyline(ctx context.Context, id int64) (types.Storyline, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, label, status, momentum_score, first_date, last_date, article_count
		 FROM storylines WHERE id = ?`, id)
	if err != nil {
		return types.Storyline{}, err
	}
	defer rows.Close()
	all, err := scanStorylines(rows)
	if err != nil {
		return types.Storyline{}, err
	}
	if len(all) == 0 {
		return types.Storyline{}, sql.ErrNoRows
	}
	return all[0], nil
}

// UpdateMomentum writes a recomputed momentum score and status.
func (s *Store) UpdateMomentum(ctx context.Context, id int64, score float64, status types.StorylineStatus) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE storylines SET momentum_score = ?, status = ? WHERE id = ?`,
		score, string(status), id)
	if err != nil {
		return fmt.Errorf("updating momentum for storyline %d: %w", id, err)
	}
	return nil
}

// MemberDates returns the publication dates of a storyline's member
// articles, oldest first.
func (s *Store) MemberDates(ctx context.Context, storylineID int64) ([]types.Date, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT a.date FROM storyline_articles sa
		 JOIN articles a ON a.id = sa.article_id
		 WHERE sa.storyline_id = ?
		 ORDER BY a.date ASC, a.id ASC`, storylineID)
	if err != nil {
		return nil, fmt.Errorf("querying member dates for storyline %d: %w", storylineID, err)
	}
	defer rows.Close()

	var dates []types.Date
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		d, err := types.ParseDate(raw)
		if err != nil {
			return nil, fmt.Errorf("storyline %d: bad member date %q: %w", storylineID, raw, err)
		}
		dates = append(dates, d)
	}
	return dates, rows.Err()
}

// DormantStoryline is a dormant storyline that has attracted new
// articles, as surfaced by the reactivation detector.
type DormantStoryline struct {
	ID          int64
	Label       string
	LastDate    types.Date
	NewArticles int
}

// DormantWithRecent returns dormant storylines whose members include
// articles dated on or after from.
func (s *Store) DormantWithRecent(ctx context.Context, from types.Date) ([]DormantStoryline, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT st.id, st.label, st.last_date, count(a.id)
		 FROM storylines st
		 JOIN storyline_articles sa ON sa.storyline_id = st.id
		 JOIN articles a ON a.id = sa.article_id
		 WHERE st.status = ? AND a.date >= ?
		 GROUP BY st.id, st.label, st.last_date`,
		string(types.StatusDormant), from.String())
	if err != nil {
		return nil, fmt.Errorf("querying dormant storylines: %w", err)
	}
	defer rows.Close()

	var out []DormantStoryline
	for rows.Next() {
		var ds DormantStoryline
		var last string
		if err := rows.Scan(&ds.ID, &ds.Label, &last, &ds.NewArticles); err != nil {
			return nil, err
		}
		if ds.LastDate, err = types.ParseDate(last); err != nil {
			return nil, fmt.Errorf("storyline %d: bad last_date %q: %w", ds.ID, last, err)
		}
		out = append(out, ds)
	}
	return out, rows.Err()
}

// StorylineMember is a membership row joined with its article, for export.
type StorylineMember struct {
	ArticleID     int64
	Title         string
	URL           string
	Outlet        string
	Date          types.Date
	Tier          types.Tier
	SequenceOrder int
}

// Members returns a storyline's articles in sequence order.
func (s *Store) Members(ctx context.Context, storylineID int64) ([]StorylineMember, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT sa.article_id, a.title, a.url, a.outlet, a.date, sa.tier, sa.sequence_order
		 FROM storyline_articles sa
		 JOIN articles a ON a.id = sa.article_id
		 WHERE sa.storyline_id = ?
		 ORDER BY sa.sequence_order ASC`, storylineID)
	if err != nil {
		return nil, fmt.Errorf("querying members for storyline %d: %w", storylineID, err)
	}
	defer rows.Close()

	var out []StorylineMember
	for rows.Next() {
		var m StorylineMember
		var outlet sql.NullString
		var rawDate, tier string
		if err := rows.Scan(&m.ArticleID, &m.Title, &m.URL, &outlet, &rawDate, &tier, &m.SequenceOrder); err != nil {
			return nil, err
		}
		m.Outlet = outlet.String
		if m.Date, err = types.ParseDate(rawDate); err != nil {
			return nil, fmt.Errorf("article %d: bad date %q: %w", m.ArticleID, rawDate, err)
		}
		m.Tier = types.Tier(tier)
		out = append(out, m)
	}
	return out, rows.Err()
}
