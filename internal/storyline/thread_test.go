// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package storyline

import (
	"bytes"
	"context"
	"database/sql"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meshintel/newsgraph/internal/store"
	"github.com/meshintel/newsgraph/pkg/types"
)

func openTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func seedArticle(t *testing.T, s *store.Store, title, url, date string) int64 {
	t.Helper()
	d, err := types.ParseDate(date)
	require.NoError(t, err)
	id, inserted, err := s.InsertArticle(context.Background(), types.Article{
		Title: title, URL: url, Date: d,
	})
	require.NoError(t, err)
	require.True(t, inserted)
	return id
}

func seedEdge(t *testing.T, s *store.Store, src, dst int64, cosine float64, entities ...int64) {
	t.Helper()
	e := types.SimilarityEdge{SrcID: src, DstID: dst, Cosine: cosine, SharedEntityIDs: entities}
	_, err := s.SaveEdges(context.Background(), []types.SimilarityEdge{e, e.Reverse()})
	require.NoError(t, err)
}

func thread(t *testing.T, s *store.Store, force bool) ThreadStats {
	t.Helper()
	var out bytes.Buffer
	stats, err := NewThreader(s, types.DefaultStorylineConfig()).Thread(context.Background(), force, &out)
	require.NoError(t, err)
	return stats
}

func TestThreadGroupsTier1Edges(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	a := seedArticle(t, s, "Port strike begins", "https://example.com/a", "2026-08-01")
	b := seedArticle(t, s, "Port strike, day two", "https://example.com/b", "2026-08-02")
	c := seedArticle(t, s, "Unrelated election story", "https://example.com/c", "2026-08-02")
	seedEdge(t, s, a, b, 0.90)

	stats := thread(t, s, false)
	assert.Equal(t, 1, stats.StorylinesCreated)
	assert.Equal(t, 2, stats.ArticlesGrouped)

	storylines, err := s.Storylines(ctx)
	require.NoError(t, err)
	require.Len(t, storylines, 1)
	st := storylines[0]
	assert.Equal(t, "Port strike begins", st.Label, "label comes from the earliest article")
	assert.Equal(t, "2026-08-01", st.FirstDate.String())
	assert.Equal(t, "2026-08-02", st.LastDate.String())

	members, err := s.Members(ctx, st.ID)
	require.NoError(t, err)
	require.Len(t, members, 2)
	assert.Equal(t, a, members[0].ArticleID)
	assert.Equal(t, types.Tier1, members[0].Tier)

	// c stays unthreaded.
	_ = c
	edge, err := s.EdgeBySrcDst(ctx, a, b)
	require.NoError(t, err)
	assert.Equal(t, types.Tier1, edge.Tier, "classified tier is written back to the edge")
}

func TestThreadTierClassification(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	// tier1 needs >=0.85 within 3 days; 4 days apart demotes this pair.
	a := seedArticle(t, s, "A", "https://example.com/a", "2026-08-01")
	b := seedArticle(t, s, "B", "https://example.com/b", "2026-08-05")
	seedEdge(t, s, a, b, 0.90)

	// tier2: mid similarity within a week.
	c := seedArticle(t, s, "C", "https://example.com/c", "2026-08-10")
	d := seedArticle(t, s, "D", "https://example.com/d", "2026-08-14")
	seedEdge(t, s, c, d, 0.70)

	// tier3: low similarity, no day window, two shared entities required.
	e := seedArticle(t, s, "E", "https://example.com/e", "2026-05-01")
	f := seedArticle(t, s, "F", "https://example.com/f", "2026-08-20")
	seedEdge(t, s, e, f, 0.55, 11, 12)

	// Below every band: no storyline.
	g := seedArticle(t, s, "G", "https://example.com/g", "2026-08-01")
	h := seedArticle(t, s, "H", "https://example.com/h", "2026-08-01")
	seedEdge(t, s, g, h, 0.40)

	// tier3 similarity but only one shared entity: rejected.
	i := seedArticle(t, s, "I", "https://example.com/i", "2026-08-01")
	j := seedArticle(t, s, "J", "https://example.com/j", "2026-08-01")
	seedEdge(t, s, i, j, 0.55, 11)

	stats := thread(t, s, false)
	assert.Equal(t, 2, stats.StorylinesCreated)
	assert.Equal(t, 4, stats.ArticlesGrouped)

	// The 0.90 pair fell out of tier1's window and its cosine is above
	// tier2's band, so it threads nowhere.
	cd, err := s.EdgeBySrcDst(ctx, c, d)
	require.NoError(t, err)
	assert.Equal(t, types.Tier2, cd.Tier)
	ef, err := s.EdgeBySrcDst(ctx, e, f)
	require.NoError(t, err)
	assert.Equal(t, types.Tier3, ef.Tier)
	ab, err := s.EdgeBySrcDst(ctx, a, b)
	require.NoError(t, err)
	assert.Empty(t, ab.Tier)
}

func TestThreadNeverMergesStorylines(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	// Two separate tier1 pairs, then a tier2 bridge between them.
	a := seedArticle(t, s, "A", "https://example.com/a", "2026-08-01")
	b := seedArticle(t, s, "B", "https://example.com/b", "2026-08-02")
	c := seedArticle(t, s, "C", "https://example.com/c", "2026-08-03")
	d := seedArticle(t, s, "D", "https://example.com/d", "2026-08-04")
	seedEdge(t, s, a, b, 0.90)
	seedEdge(t, s, c, d, 0.90)
	seedEdge(t, s, b, c, 0.70)

	stats := thread(t, s, false)
	assert.Equal(t, 2, stats.StorylinesCreated, "a bridging edge must not merge established storylines")

	storylines, err := s.Storylines(ctx)
	require.NoError(t, err)
	counts := map[string]int{}
	for _, st := range storylines {
		counts[st.Label] = st.ArticleCount
	}
	assert.Equal(t, map[string]int{"A": 2, "C": 2}, counts)
}

func TestThreadExtendsStorylineAcrossTiers(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	a := seedArticle(t, s, "A", "https://example.com/a", "2026-08-01")
	b := seedArticle(t, s, "B", "https://example.com/b", "2026-08-02")
	c := seedArticle(t, s, "C", "https://example.com/c", "2026-08-06")
	seedEdge(t, s, a, b, 0.90)
	seedEdge(t, s, b, c, 0.70)

	stats := thread(t, s, false)
	assert.Equal(t, 1, stats.StorylinesCreated)
	assert.Equal(t, 3, stats.ArticlesGrouped)

	storylines, err := s.Storylines(ctx)
	require.NoError(t, err)
	members, err := s.Members(ctx, storylines[0].ID)
	require.NoError(t, err)
	require.Len(t, members, 3)

	// Sequence order is dense and date-ordered; the tier records how each
	// article joined.
	for i, m := range members {
		assert.Equal(t, i, m.SequenceOrder)
	}
	assert.Equal(t, types.Tier1, members[0].Tier)
	assert.Equal(t, types.Tier1, members[1].Tier)
	assert.Equal(t, types.Tier2, members[2].Tier)
}

func TestThreadSkipsWhenStorylinesExist(t *testing.T) {
	s := openTestStore(t)

	a := seedArticle(t, s, "A", "https://example.com/a", "2026-08-01")
	b := seedArticle(t, s, "B", "https://example.com/b", "2026-08-02")
	seedEdge(t, s, a, b, 0.90)

	first := thread(t, s, false)
	require.Equal(t, 1, first.StorylinesCreated)

	second := thread(t, s, false)
	assert.True(t, second.Skipped)
	assert.Zero(t, second.StorylinesCreated)

	forced := thread(t, s, true)
	assert.False(t, forced.Skipped)
	assert.Equal(t, 1, forced.StorylinesCreated)
}

func TestThreadLabelTruncation(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	long := strings.Repeat("Budget hearings continue ", 4) // 100 chars
	a := seedArticle(t, s, long, "https://example.com/a", "2026-08-01")
	b := seedArticle(t, s, "Short follow-up", "https://example.com/b", "2026-08-02")
	seedEdge(t, s, a, b, 0.90)

	thread(t, s, false)

	storylines, err := s.Storylines(ctx)
	require.NoError(t, err)
	require.Len(t, storylines, 1)
	label := storylines[0].Label
	assert.Len(t, label, 60)
	assert.True(t, strings.HasSuffix(label, "..."))
	assert.Equal(t, long[:57], label[:57])
}

func TestTruncateLabelBoundary(t *testing.T) {
	exact := strings.Repeat("x", 60)
	assert.Equal(t, exact, truncateLabel(exact))
	over := strings.Repeat("x", 61)
	assert.Equal(t, strings.Repeat("x", 57)+"...", truncateLabel(over))
}

func TestThreadSkipsUnparseableDates(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := store.Open(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	a := seedArticle(t, s, "Port strike begins", "https://example.com/a", "2026-08-01")
	b := seedArticle(t, s, "Port strike, day two", "https://example.com/b", "2026-08-02")
	c := seedArticle(t, s, "Imported wire story", "https://example.com/c", "2026-08-02")
	seedEdge(t, s, a, b, 0.90)
	seedEdge(t, s, a, c, 0.92)

	// External writers are not bound to the canonical date format.
	db, err := sql.Open("sqlite3", dbPath)
	require.NoError(t, err)
	_, err = db.Exec(`UPDATE articles SET date = '08/15/2026' WHERE id = ?`, c)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	var out bytes.Buffer
	stats, err := NewThreader(s, types.DefaultStorylineConfig()).Thread(context.Background(), false, &out)
	require.NoError(t, err, "a malformed date must not abort the run")
	assert.Equal(t, 1, stats.StorylinesCreated)
	assert.Equal(t, 2, stats.ArticlesGrouped, "edges touching the bad-date article are dropped")
	assert.Contains(t, out.String(), "bad date")
}

func TestThreadIgnoresSelfLoops(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	a := seedArticle(t, s, "Port strike begins", "https://example.com/a", "2026-08-01")
	b := seedArticle(t, s, "Port strike, day two", "https://example.com/b", "2026-08-02")
	c := seedArticle(t, s, "Unrelated market wrap", "https://example.com/c", "2026-08-02")
	seedEdge(t, s, a, b, 0.90)

	// A self-referential row written by an external tool.
	_, err := s.SaveEdges(ctx, []types.SimilarityEdge{{SrcID: c, DstID: c, Cosine: 0.99}})
	require.NoError(t, err)

	stats := thread(t, s, false)
	assert.Equal(t, 1, stats.StorylinesCreated, "a self-loop never forms a storyline of one")
	assert.Equal(t, 2, stats.ArticlesGrouped)

	storylines, err := s.Storylines(ctx)
	require.NoError(t, err)
	require.Len(t, storylines, 1)
	members, err := s.Members(ctx, storylines[0].ID)
	require.NoError(t, err)
	for _, m := range members {
		assert.NotEqual(t, c, m.ArticleID)
	}
}
