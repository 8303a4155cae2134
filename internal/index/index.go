// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package index provides nearest-neighbor lookup over article embedding
// vectors. The local implementation keeps an in-memory HNSW graph loaded
// from the store; a remote implementation delegates to a vector search
// service over HTTP.
package index

import (
	"context"
	"fmt"

	"github.com/coder/hnsw"

	"github.com/meshintel/newsgraph/internal/store"
	"github.com/meshintel/newsgraph/pkg/types"
)

// VectorIndex answers approximate nearest-neighbor queries by article id.
type VectorIndex interface {
	// Ready reports whether the index holds any vectors.
	Ready() bool
	// NearestNeighbors returns up to k articles most similar to the query
	// vector, scored by cosine similarity, best first. The query article
	// itself may appear in the results; callers filter it out.
	NearestNeighbors(vec []float32, k int) ([]types.Neighbor, error)
}

// Index is an in-memory HNSW graph over article vectors.
type Index struct {
	graph *hnsw.Graph[int64]
}

// New returns an empty index.
func New() *Index {
	g := hnsw.NewGraph[int64]()
	g.Distance = hnsw.CosineDistance
	g.M = 16
	g.EfSearch = 32
	return &Index{graph: g}
}

// Load populates the index from every stored embedding.
func (ix *Index) Load(ctx context.Context, st *store.Store) (int, error) {
	arts, err := st.ArticlesWithVectors(ctx)
	if err != nil {
		return 0, fmt.Errorf("loading vectors: %w", err)
	}
	for _, a := range arts {
		ix.graph.Add(hnsw.MakeNode(a.ID, a.Vector))
	}
	return len(arts), nil
}

// Add inserts a single vector keyed by article id.
func (ix *Index) Add(id int64, vec []float32) {
	ix.graph.Add(hnsw.MakeNode(id, vec))
}

// Len returns the number of indexed vectors.
func (ix *Index) Len() int {
	return ix.graph.Len()
}

// Ready reports whether the index can serve queries.
func (ix *Index) Ready() bool {
	return ix.graph.Len() > 0
}

// Vector returns the stored vector for an article, if indexed.
func (ix *Index) Vector(id int64) ([]float32, bool) {
	return ix.graph.Lookup(id)
}

// NearestNeighbors runs a k-NN search. HNSW returns distances; scores are
// converted to cosine similarity as 1 - distance.
func (ix *Index) NearestNeighbors(vec []float32, k int) ([]types.Neighbor, error) {
	if !ix.Ready() {
		return nil, fmt.Errorf("index is empty")
	}
	nodes := ix.graph.Search(vec, k)
	out := make([]types.Neighbor, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, types.Neighbor{
			ArticleID: n.Key,
			Score:     float64(1 - hnsw.CosineDistance(vec, n.Value)),
		})
	}
	return out, nil
}
