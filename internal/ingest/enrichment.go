// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ingest

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/meshintel/newsgraph/internal/store"
	"github.com/meshintel/newsgraph/pkg/types"
)

// vectorLine is one JSONL record from the embedding batch.
type vectorLine struct {
	ArticleID int64     `json:"article_id"`
	Vector    []float32 `json:"vector"`
}

// Vectors reads embedding vectors as JSONL and stores one per article.
// Lines that fail to parse or reference unknown articles are counted and
// skipped.
func Vectors(ctx context.Context, st *store.Store, r io.Reader, w io.Writer) (Stats, error) {
	return eachLine(ctx, r, w, "vectors", func(line []byte) error {
		var v vectorLine
		if err := json.Unmarshal(line, &v); err != nil {
			return fmt.Errorf("parsing vector record: %w", err)
		}
		if len(v.Vector) == 0 {
			return fmt.Errorf("article %d: empty vector", v.ArticleID)
		}
		return st.SaveEmbedding(ctx, v.ArticleID, v.Vector)
	})
}

// entityLine is one JSONL record from the NER batch.
type entityLine struct {
	ArticleID int64   `json:"article_id"`
	Name      string  `json:"name"`
	Type      string  `json:"type"`
	Weight    float64 `json:"weight"`
}

// Entities reads entity mentions as JSONL, upserting entities by
// (name, type) and linking them to articles.
func Entities(ctx context.Context, st *store.Store, r io.Reader, w io.Writer) (Stats, error) {
	return eachLine(ctx, r, w, "entities", func(line []byte) error {
		var e entityLine
		if err := json.Unmarshal(line, &e); err != nil {
			return fmt.Errorf("parsing entity record: %w", err)
		}
		if e.Name == "" {
			return fmt.Errorf("article %d: entity with empty name", e.ArticleID)
		}
		typ := types.EntityType(e.Type)
		switch typ {
		case types.EntityPerson, types.EntityOrg, types.EntityGPE, types.EntityLoc:
		default:
			typ = types.EntityOther
		}
		id, err := st.UpsertEntity(ctx, e.Name, typ)
		if err != nil {
			return err
		}
		return st.LinkEntity(ctx, types.EntityMention{
			ArticleID: e.ArticleID,
			EntityID:  id,
			Weight:    e.Weight,
		})
	})
}

// clusterLine is one JSONL record from the clustering batch.
type clusterLine struct {
	ArticleID int64     `json:"article_id"`
	ClusterID int64     `json:"cluster_id"`
	Label     string    `json:"label,omitempty"`
	UMAP      []float64 `json:"umap,omitempty"`
}

// Clusters reads cluster assignments as JSONL, upserting clusters and
// tagging each article with its cluster and optional UMAP projection.
func Clusters(ctx context.Context, st *store.Store, r io.Reader, w io.Writer) (Stats, error) {
	return eachLine(ctx, r, w, "clusters", func(line []byte) error {
		var c clusterLine
		if err := json.Unmarshal(line, &c); err != nil {
			return fmt.Errorf("parsing cluster record: %w", err)
		}
		if err := st.UpsertCluster(ctx, types.Cluster{ID: c.ClusterID, Label: c.Label}); err != nil {
			return err
		}
		if err := st.SetArticleCluster(ctx, c.ArticleID, c.ClusterID); err != nil {
			return err
		}
		if len(c.UMAP) == 2 {
			return st.SetArticleUMAP(ctx, c.ArticleID, c.UMAP[0], c.UMAP[1])
		}
		return nil
	})
}

// eachLine runs fn over every non-empty JSONL line, counting successes as
// inserts and failures as errors. The scanner buffer is sized for long
// embedding lines.
func eachLine(ctx context.Context, r io.Reader, w io.Writer, what string, fn func(line []byte) error) (Stats, error) {
	var stats Stats

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 8*1024*1024)

	line := 0
	for sc.Scan() {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		line++
		text := sc.Bytes()
		if len(text) == 0 {
			continue
		}
		if err := fn(text); err != nil {
			stats.Errors++
			fmt.Fprintf(w, "line %d: %v\n", line, err)
			continue
		}
		stats.Inserted++
	}
	if err := sc.Err(); err != nil {
		return stats, fmt.Errorf("reading %s: %w", what, err)
	}

	fmt.Fprintf(w, "%s: %d loaded, %d errors\n", what, stats.Inserted, stats.Errors)
	return stats, nil
}
