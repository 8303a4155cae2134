// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package detect

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meshintel/newsgraph/internal/store"
	"github.com/meshintel/newsgraph/pkg/types"
)

// testNow pins the detectors to 2026-08-29 noon UTC.
func testNow() time.Time {
	return time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
}

func openTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func seedArticle(t *testing.T, s *store.Store, url, dateStr string) int64 {
	t.Helper()
	d, err := types.ParseDate(dateStr)
	require.NoError(t, err)
	id, inserted, err := s.InsertArticle(context.Background(), types.Article{
		Title: "article", URL: url, Date: d,
	})
	require.NoError(t, err)
	require.True(t, inserted)
	return id
}

// seedCluster puts current articles in the last week and previous
// articles in the week before.
func seedCluster(t *testing.T, s *store.Store, clusterID int64, current, previous int) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, s.UpsertCluster(ctx, types.Cluster{ID: clusterID}))
	for i := 0; i < current; i++ {
		id := seedArticle(t, s, fmt.Sprintf("https://example.com/c%d-cur-%d", clusterID, i), "2026-08-27")
		require.NoError(t, s.SetArticleCluster(ctx, id, clusterID))
	}
	for i := 0; i < previous; i++ {
		id := seedArticle(t, s, fmt.Sprintf("https://example.com/c%d-prev-%d", clusterID, i), "2026-08-18")
		require.NoError(t, s.SetArticleCluster(ctx, id, clusterID))
	}
}

func run(t *testing.T, s *store.Store) RunStats {
	t.Helper()
	var out bytes.Buffer
	stats, err := NewAt(s, types.DefaultDetectConfig(), testNow).Run(context.Background(), &out)
	require.NoError(t, err)
	return stats
}

func TestSurgeSeverityByRatio(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	seedCluster(t, s, 1, 8, 5)  // 1.6x: medium
	seedCluster(t, s, 2, 11, 5) // 2.2x: high
	seedCluster(t, s, 3, 7, 5)  // 1.4x: below threshold
	seedCluster(t, s, 4, 6, 0)  // no previous coverage: skipped

	stats := run(t, s)
	assert.Equal(t, 2, stats.Surges)

	alerts, err := s.ListAlerts(ctx, store.AlertFilter{Type: types.AlertTopicSurge})
	require.NoError(t, err)
	require.Len(t, alerts, 2)

	bySeverity := map[types.Severity]types.Alert{}
	for _, a := range alerts {
		bySeverity[a.Severity] = a
	}
	medium, ok := bySeverity[types.SeverityMedium]
	require.True(t, ok)
	assert.Equal(t, "Cluster 1: 8 articles in last 7 days vs 5 in previous week (1.6x growth)", medium.Description)

	high, ok := bySeverity[types.SeverityHigh]
	require.True(t, ok)
	var payload types.SurgePayload
	require.NoError(t, json.Unmarshal([]byte(high.Payload), &payload))
	assert.Equal(t, int64(2), payload.ClusterID)
	assert.Equal(t, 11, payload.CurrentCount)
	assert.Equal(t, 5, payload.PreviousCount)
	assert.InDelta(t, 2.2, payload.GrowthRatio, 1e-9)
}

func TestSurgeAtExactThresholdDoesNotFire(t *testing.T) {
	s := openTestStore(t)

	// Exactly 1.5x stays quiet; the ratio must exceed the threshold.
	seedCluster(t, s, 1, 6, 4)

	stats := run(t, s)
	assert.Zero(t, stats.Surges)
}

func TestReactivationAlert(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	a := seedArticle(t, s, "https://example.com/old", "2026-07-01")
	b := seedArticle(t, s, "https://example.com/new", "2026-08-27")
	id, err := s.CreateStoryline(ctx, store.NewStoryline{
		Label:     "Mine closure fallout",
		FirstDate: mustDate(t, "2026-07-01"),
		LastDate:  mustDate(t, "2026-07-01"),
		Members: []types.StorylineMembership{
			{ArticleID: a, Tier: types.Tier2, SequenceOrder: 0},
			{ArticleID: b, Tier: types.Tier2, SequenceOrder: 1},
		},
	})
	require.NoError(t, err)
	require.NoError(t, s.UpdateMomentum(ctx, id, 0, types.StatusDormant))

	stats := run(t, s)
	assert.Equal(t, 1, stats.Reactivations)

	alerts, err := s.ListAlerts(ctx, store.AlertFilter{Type: types.AlertStoryReactivation})
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, "Storyline 'Mine closure fallout' (dormant since 2026-07-01) has 1 new article(s)",
		alerts[0].Description)
	assert.Equal(t, types.SeverityMedium, alerts[0].Severity)
}

func TestNewActorSeverity(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	// Six recent articles mention the new entity: medium.
	busy, err := s.UpsertEntity(ctx, "Nimbus Logistics", types.EntityOrg)
	require.NoError(t, err)
	for i := 0; i < 6; i++ {
		id := seedArticle(t, s, fmt.Sprintf("https://example.com/busy-%d", i), "2026-08-26")
		require.NoError(t, s.LinkEntity(ctx, types.EntityMention{ArticleID: id, EntityID: busy, Weight: 1}))
	}

	// One mention: low.
	quiet, err := s.UpsertEntity(ctx, "Dana Petrov", types.EntityPerson)
	require.NoError(t, err)
	id := seedArticle(t, s, "https://example.com/quiet", "2026-08-26")
	require.NoError(t, s.LinkEntity(ctx, types.EntityMention{ArticleID: id, EntityID: quiet, Weight: 1}))

	// Known entity with history: no alert.
	known, err := s.UpsertEntity(ctx, "City Council", types.EntityOrg)
	require.NoError(t, err)
	oldID := seedArticle(t, s, "https://example.com/known-old", "2026-07-01")
	require.NoError(t, s.LinkEntity(ctx, types.EntityMention{ArticleID: oldID, EntityID: known, Weight: 1}))
	newID := seedArticle(t, s, "https://example.com/known-new", "2026-08-26")
	require.NoError(t, s.LinkEntity(ctx, types.EntityMention{ArticleID: newID, EntityID: known, Weight: 1}))

	stats := run(t, s)
	assert.Equal(t, 2, stats.NewActors)

	alerts, err := s.ListAlerts(ctx, store.AlertFilter{Type: types.AlertNewActor})
	require.NoError(t, err)
	require.Len(t, alerts, 2)
	byName := map[string]types.Alert{}
	for _, a := range alerts {
		var p types.NewActorPayload
		require.NoError(t, json.Unmarshal([]byte(a.Payload), &p))
		byName[p.EntityName] = a
	}
	assert.Equal(t, types.SeverityMedium, byName["Nimbus Logistics"].Severity)
	assert.Equal(t, types.SeverityLow, byName["Dana Petrov"].Severity)
	assert.Equal(t, "New actor: Dana Petrov (PERSON) appeared in 1 article(s) this week",
		byName["Dana Petrov"].Description)
}

func TestRunDeduplicatesWithinWindow(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	seedCluster(t, s, 1, 8, 5)

	first := run(t, s)
	assert.Equal(t, 1, first.AlertsCreated)

	// An identical run inside the dedup window raises nothing new.
	second := run(t, s)
	assert.Zero(t, second.AlertsCreated)

	alerts, err := s.ListAlerts(ctx, store.AlertFilter{})
	require.NoError(t, err)
	assert.Len(t, alerts, 1)

	// Past the window the same condition alerts again.
	later := func() time.Time { return testNow().Add(25 * time.Hour) }
	var out bytes.Buffer
	stats, err := NewAt(s, types.DefaultDetectConfig(), later).Run(ctx, &out)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.AlertsCreated)
}

func mustDate(t *testing.T, s string) types.Date {
	t.Helper()
	d, err := types.ParseDate(s)
	require.NoError(t, err)
	return d
}
