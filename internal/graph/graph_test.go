// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package graph

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meshintel/newsgraph/internal/store"
	"github.com/meshintel/newsgraph/pkg/types"
)

// fakeIndex returns canned neighbors per article vector. Vectors are keyed
// by their first component so tests can route queries.
type fakeIndex struct {
	ready     bool
	neighbors map[float32][]types.Neighbor
}

func (f *fakeIndex) Ready() bool { return f.ready }

func (f *fakeIndex) NearestNeighbors(vec []float32, k int) ([]types.Neighbor, error) {
	ns := f.neighbors[vec[0]]
	if len(ns) > k {
		ns = ns[:k]
	}
	return ns, nil
}

func openTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func seedEmbedded(t *testing.T, s *store.Store, title, url, date string, vec []float32) int64 {
	t.Helper()
	d, err := types.ParseDate(date)
	require.NoError(t, err)
	id, inserted, err := s.InsertArticle(context.Background(), types.Article{
		Title: title, URL: url, Date: d,
	})
	require.NoError(t, err)
	require.True(t, inserted)
	require.NoError(t, s.SaveEmbedding(context.Background(), id, vec))
	return id
}

func TestBuildCreatesSymmetricEdgesAboveThreshold(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	a := seedEmbedded(t, s, "Port strike begins", "https://example.com/a", "2026-08-01", []float32{1})
	b := seedEmbedded(t, s, "Port strike continues", "https://example.com/b", "2026-08-02", []float32{2})
	c := seedEmbedded(t, s, "Unrelated bake sale", "https://example.com/c", "2026-08-02", []float32{3})

	ix := &fakeIndex{ready: true, neighbors: map[float32][]types.Neighbor{
		// Each article sees itself first, then the others.
		1: {{ArticleID: a, Score: 1}, {ArticleID: b, Score: 0.9}, {ArticleID: c, Score: 0.2}},
		2: {{ArticleID: b, Score: 1}, {ArticleID: a, Score: 0.9}, {ArticleID: c, Score: 0.25}},
		3: {{ArticleID: c, Score: 1}, {ArticleID: a, Score: 0.2}, {ArticleID: b, Score: 0.25}},
	}}

	var out bytes.Buffer
	stats, err := NewBuilder(s, ix, types.DefaultGraphConfig()).Build(ctx, false, &out)
	require.NoError(t, err)
	assert.Zero(t, stats.Errors)

	// Only the a-b pair clears the 0.60 threshold; both directions stored.
	n, err := s.EdgeCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	ab, err := s.EdgeBySrcDst(ctx, a, b)
	require.NoError(t, err)
	assert.InDelta(t, 0.9, ab.Cosine, 1e-9)
	ba, err := s.EdgeBySrcDst(ctx, b, a)
	require.NoError(t, err)
	assert.InDelta(t, 0.9, ba.Cosine, 1e-9)

	// The query article never links to itself.
	_, err = s.EdgeBySrcDst(ctx, a, a)
	assert.Error(t, err)
}

func TestBuildSkipsArticlesWithEdgesUnlessForced(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	a := seedEmbedded(t, s, "A", "https://example.com/a", "2026-08-01", []float32{1})
	b := seedEmbedded(t, s, "B", "https://example.com/b", "2026-08-02", []float32{2})

	ix := &fakeIndex{ready: true, neighbors: map[float32][]types.Neighbor{
		1: {{ArticleID: a, Score: 1}, {ArticleID: b, Score: 0.8}},
		2: {{ArticleID: b, Score: 1}, {ArticleID: a, Score: 0.8}},
	}}
	cfg := types.DefaultGraphConfig()

	var out bytes.Buffer
	stats, err := NewBuilder(s, ix, cfg).Build(ctx, false, &out)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.EdgesCreated)

	// Second run touches nothing.
	stats, err = NewBuilder(s, ix, cfg).Build(ctx, false, &out)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Skipped)
	assert.Zero(t, stats.EdgesCreated)

	// Forced run rebuilds with the index's current answers.
	ix.neighbors[1] = []types.Neighbor{{ArticleID: a, Score: 1}, {ArticleID: b, Score: 0.95}}
	ix.neighbors[2] = []types.Neighbor{{ArticleID: b, Score: 1}, {ArticleID: a, Score: 0.95}}
	stats, err = NewBuilder(s, ix, cfg).Build(ctx, true, &out)
	require.NoError(t, err)
	assert.Zero(t, stats.Skipped)

	ab, err := s.EdgeBySrcDst(ctx, a, b)
	require.NoError(t, err)
	assert.InDelta(t, 0.95, ab.Cosine, 1e-9)
}

func TestBuildWithoutIndexCountsAllAsErrors(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	seedEmbedded(t, s, "A", "https://example.com/a", "2026-08-01", []float32{1})
	seedEmbedded(t, s, "B", "https://example.com/b", "2026-08-02", []float32{2})

	var out bytes.Buffer
	stats, err := NewBuilder(s, &fakeIndex{ready: false}, types.DefaultGraphConfig()).Build(ctx, false, &out)
	require.NoError(t, err, "an unusable index is reported through stats, not an error")
	assert.Zero(t, stats.EdgesCreated)
	assert.Equal(t, 2, stats.Errors)

	n, err := s.EdgeCount(ctx)
	require.NoError(t, err)
	assert.Zero(t, n, "no partial writes when the index is down")
}

func TestBuildStoresSharedEntityEvidence(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	a := seedEmbedded(t, s, "Port strike begins", "https://example.com/a", "2026-08-01", []float32{1})
	b := seedEmbedded(t, s, "Port strike continues", "https://example.com/b", "2026-08-02", []float32{2})

	port, err := s.UpsertEntity(ctx, "Port Authority", types.EntityOrg)
	require.NoError(t, err)
	require.NoError(t, s.LinkEntity(ctx, types.EntityMention{ArticleID: a, EntityID: port, Weight: 1}))
	require.NoError(t, s.LinkEntity(ctx, types.EntityMention{ArticleID: b, EntityID: port, Weight: 1}))

	ix := &fakeIndex{ready: true, neighbors: map[float32][]types.Neighbor{
		1: {{ArticleID: a, Score: 1}, {ArticleID: b, Score: 0.9}},
		2: {{ArticleID: b, Score: 1}, {ArticleID: a, Score: 0.9}},
	}}

	var out bytes.Buffer
	_, err = NewBuilder(s, ix, types.DefaultGraphConfig()).Build(ctx, false, &out)
	require.NoError(t, err)

	ab, err := s.EdgeBySrcDst(ctx, a, b)
	require.NoError(t, err)
	assert.Equal(t, []int64{port}, ab.SharedEntityIDs)
	assert.Contains(t, ab.SharedTerms, "port strike")
}
