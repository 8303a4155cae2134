// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ingest

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meshintel/newsgraph/internal/store"
	"github.com/meshintel/newsgraph/pkg/types"
)

func seedArticles(t *testing.T, s *store.Store, n int) []int64 {
	t.Helper()
	ids := make([]int64, 0, n)
	for i := 0; i < n; i++ {
		d, err := types.ParseDate("2026-08-01")
		require.NoError(t, err)
		id, _, err := s.InsertArticle(context.Background(), types.Article{
			Title: "article",
			URL:   "https://example.com/" + string(rune('a'+i)),
			Date:  d,
		})
		require.NoError(t, err)
		ids = append(ids, id)
	}
	return ids
}

func TestVectorsIngestsJSONL(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	ids := seedArticles(t, s, 2)

	input := strings.Join([]string{
		`{"article_id":1,"vector":[0.1,0.2]}`,
		``,
		`{"article_id":2,"vector":[0.3,0.4]}`,
		`{"article_id":2,"vector":[]}`,
		`not json`,
	}, "\n")

	var out bytes.Buffer
	stats, err := Vectors(ctx, s, strings.NewReader(input), &out)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Inserted)
	assert.Equal(t, 2, stats.Errors)

	n, err := s.EmbeddingCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	_ = ids
}

func TestEntitiesIngestsJSONL(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	seedArticles(t, s, 2)

	input := strings.Join([]string{
		`{"article_id":1,"name":"Port Authority","type":"ORG","weight":0.9}`,
		`{"article_id":2,"name":"Port Authority","type":"ORG","weight":0.7}`,
		`{"article_id":1,"name":"Jordan Ellis","type":"ALIEN","weight":0.5}`,
		`{"article_id":1,"name":"","type":"ORG"}`,
	}, "\n")

	var out bytes.Buffer
	stats, err := Entities(ctx, s, strings.NewReader(input), &out)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Inserted)
	assert.Equal(t, 1, stats.Errors)

	// Both articles share the one Port Authority entity.
	shared, err := s.SharedEntityIDs(ctx, 1, 2)
	require.NoError(t, err)
	assert.Len(t, shared, 1)

	// Unknown entity types are coerced to OTHER, not rejected.
	ents, err := s.EntitiesMentionedSince(ctx, mustDate(t, "2026-07-01"))
	require.NoError(t, err)
	byName := map[string]types.EntityType{}
	for _, e := range ents {
		byName[e.Name] = e.Type
	}
	assert.Equal(t, types.EntityOther, byName["Jordan Ellis"])
}

func TestClustersIngestsJSONL(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	seedArticles(t, s, 2)

	input := strings.Join([]string{
		`{"article_id":1,"cluster_id":7,"label":"ports","umap":[0.5,-1.25]}`,
		`{"article_id":2,"cluster_id":7}`,
	}, "\n")

	var out bytes.Buffer
	stats, err := Clusters(ctx, s, strings.NewReader(input), &out)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Inserted)
	assert.Zero(t, stats.Errors)

	ids, err := s.ClusterIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{7}, ids)

	n, err := s.ClusterArticleCount(ctx, 7, mustDate(t, "2026-07-01"), types.Date{})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func mustDate(t *testing.T, s string) types.Date {
	t.Helper()
	d, err := types.ParseDate(s)
	require.NoError(t, err)
	return d
}
