// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package graph builds the article similarity graph: k-NN queries against
// the vector index, thresholded into stored edges with shared-term and
// shared-entity evidence.
package graph

import (
	"context"
	"fmt"
	"io"

	"github.com/meshintel/newsgraph/internal/store"
	"github.com/meshintel/newsgraph/pkg/types"
)

// VectorIndex is the slice of the index API the builder needs.
type VectorIndex interface {
	Ready() bool
	NearestNeighbors(vec []float32, k int) ([]types.Neighbor, error)
}

// BuildStats holds counts from a graph build run.
type BuildStats struct {
	EdgesCreated int
	Skipped      int
	Errors       int
}

// Total returns the number of articles processed.
func (s BuildStats) Total() int {
	return s.EdgesCreated + s.Skipped + s.Errors
}

// Builder derives similarity edges for every article with an embedding.
type Builder struct {
	store *store.Store
	index VectorIndex
	cfg   types.GraphConfig
}

// NewBuilder wires a builder to its store and vector index.
func NewBuilder(st *store.Store, ix VectorIndex, cfg types.GraphConfig) *Builder {
	return &Builder{store: st, index: ix, cfg: cfg}
}

// Build runs k-NN for each embedded article and stores edges for every
// neighbor at or above the similarity threshold, in both directions.
// Articles that already have edges are skipped unless force is set, in
// which case their edges are deleted and rebuilt. An unusable index stops
// the run before any article is touched; per-article failures are counted
// and the run continues.
//
// w receives progress lines; the returned stats count articles, not edges,
// except EdgesCreated which counts directed edge rows actually inserted.
func (b *Builder) Build(ctx context.Context, force bool, w io.Writer) (BuildStats, error) {
	var stats BuildStats

	arts, err := b.store.ArticlesWithVectors(ctx)
	if err != nil {
		return stats, fmt.Errorf("loading articles: %w", err)
	}
	if len(arts) == 0 {
		fmt.Fprintln(w, "no embedded articles; nothing to build")
		return stats, nil
	}

	if b.index == nil || !b.index.Ready() {
		// Without an index every article would fail identically, so stop
		// up front and report the whole batch as errored.
		stats.Errors = len(arts)
		fmt.Fprintln(w, "vector index is empty or unavailable; graph build aborted")
		return stats, nil
	}

	texts := make(map[int64]string, len(arts))
	for _, a := range arts {
		texts[a.ID] = a.Title + " " + a.Summary
	}

	for _, a := range arts {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		if !force {
			has, err := b.store.HasOutgoingEdges(ctx, a.ID)
			if err != nil {
				return stats, err
			}
			if has {
				stats.Skipped++
				continue
			}
		} else {
			if err := b.store.DeleteEdgesForArticle(ctx, a.ID); err != nil {
				stats.Errors++
				fmt.Fprintf(w, "article %d: %v\n", a.ID, err)
				continue
			}
		}

		edges, err := b.edgesFor(ctx, a, texts)
		if err != nil {
			stats.Errors++
			fmt.Fprintf(w, "article %d: %v\n", a.ID, err)
			continue
		}

		created, err := b.store.SaveEdges(ctx, edges)
		if err != nil {
			stats.Errors++
			fmt.Fprintf(w, "article %d: %v\n", a.ID, err)
			continue
		}
		stats.EdgesCreated += created
	}

	fmt.Fprintf(w, "graph build: %d edges created, %d articles skipped, %d errors\n",
		stats.EdgesCreated, stats.Skipped, stats.Errors)
	return stats, nil
}

// edgesFor queries neighbors for one article and assembles its edge rows,
// each paired with its reverse so the graph stays symmetric.
func (b *Builder) edgesFor(ctx context.Context, a store.ArticleVector, texts map[int64]string) ([]types.SimilarityEdge, error) {
	// Ask for one extra neighbor since the article itself usually comes
	// back as its own best match.
	neighbors, err := b.index.NearestNeighbors(a.Vector, b.cfg.KNNK+1)
	if err != nil {
		return nil, fmt.Errorf("querying neighbors: %w", err)
	}

	var edges []types.SimilarityEdge
	for _, n := range neighbors {
		if n.ArticleID == a.ID {
			continue
		}
		if n.Score < b.cfg.SimilarityThreshold {
			continue
		}

		sharedEntities, err := b.store.SharedEntityIDs(ctx, a.ID, n.ArticleID)
		if err != nil {
			return nil, fmt.Errorf("shared entities with %d: %w", n.ArticleID, err)
		}

		e := types.SimilarityEdge{
			SrcID:           a.ID,
			DstID:           n.ArticleID,
			Cosine:          n.Score,
			SharedTerms:     SharedTerms(texts[a.ID], texts[n.ArticleID], b.cfg.SharedTermsTopN),
			SharedEntityIDs: sharedEntities,
		}
		edges = append(edges, e, e.Reverse())
	}
	return edges, nil
}
