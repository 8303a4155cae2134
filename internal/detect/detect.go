// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package detect runs the anomaly detectors: topic surges, storyline
// reactivations, and new actors. Each detector reads the current store
// state and raises alerts, deduplicated within a rolling window.
package detect

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/meshintel/newsgraph/internal/store"
	"github.com/meshintel/newsgraph/pkg/types"
)

// highGrowthRatio is the week-over-week growth above which a surge is
// graded high instead of medium.
const highGrowthRatio = 2.0

// RunStats holds counts from a detector run.
type RunStats struct {
	AlertsCreated int
	Surges        int
	Reactivations int
	NewActors     int
}

// Detector runs all anomaly checks against the store. The clock is
// injected so tests can pin "today".
type Detector struct {
	store *store.Store
	cfg   types.DetectConfig
	now   func() time.Time
}

// New wires a detector to its store using the wall clock.
func New(st *store.Store, cfg types.DetectConfig) *Detector {
	return &Detector{store: st, cfg: cfg, now: time.Now}
}

// NewAt is New with a fixed clock, for tests.
func NewAt(st *store.Store, cfg types.DetectConfig, now func() time.Time) *Detector {
	return &Detector{store: st, cfg: cfg, now: now}
}

// Run executes every detector. A failing detector aborts the run; alerts
// already raised stay raised.
func (d *Detector) Run(ctx context.Context, w io.Writer) (RunStats, error) {
	var stats RunStats

	if err := d.detectSurges(ctx, &stats); err != nil {
		return stats, fmt.Errorf("surge detection: %w", err)
	}
	if err := d.detectReactivations(ctx, &stats); err != nil {
		return stats, fmt.Errorf("reactivation detection: %w", err)
	}
	if err := d.detectNewActors(ctx, &stats); err != nil {
		return stats, fmt.Errorf("new actor detection: %w", err)
	}

	fmt.Fprintf(w, "detect: %d alerts created (%d surges, %d reactivations, %d new actors)\n",
		stats.AlertsCreated, stats.Surges, stats.Reactivations, stats.NewActors)
	return stats, nil
}

// detectSurges compares each cluster's article count in the current
// window against the previous window. Clusters with no previous coverage
// are skipped; a ratio cannot be formed against zero.
func (d *Detector) detectSurges(ctx context.Context, stats *RunStats) error {
	today := types.DateOf(d.now())
	windowStart := today.AddDays(-d.cfg.WindowDays)
	prevStart := today.AddDays(-2 * d.cfg.WindowDays)

	clusterIDs, err := d.store.ClusterIDs(ctx)
	if err != nil {
		return err
	}

	for _, cid := range clusterIDs {
		current, err := d.store.ClusterArticleCount(ctx, cid, windowStart, types.Date{})
		if err != nil {
			return err
		}
		previous, err := d.store.ClusterArticleCount(ctx, cid, prevStart, windowStart)
		if err != nil {
			return err
		}
		if previous == 0 {
			continue
		}

		ratio := float64(current) / float64(previous)
		if ratio <= d.cfg.SurgeThreshold {
			continue
		}

		severity := types.SeverityMedium
		if ratio > highGrowthRatio {
			severity = types.SeverityHigh
		}

		payload, _ := json.Marshal(types.SurgePayload{
			ClusterID:     cid,
			CurrentCount:  current,
			PreviousCount: previous,
			GrowthRatio:   ratio,
		})
		created, err := d.createAlert(ctx, types.Alert{
			Type:    types.AlertTopicSurge,
			Payload: string(payload),
			Description: fmt.Sprintf("Cluster %d: %d articles in last 7 days vs %d in previous week (%.1fx growth)",
				cid, current, previous, ratio),
			Severity: severity,
		})
		if err != nil {
			return err
		}
		if created {
			stats.AlertsCreated++
			stats.Surges++
		}
	}
	return nil
}

// detectReactivations raises an alert for every dormant storyline that
// picked up articles inside the current window.
func (d *Detector) detectReactivations(ctx context.Context, stats *RunStats) error {
	today := types.DateOf(d.now())
	windowStart := today.AddDays(-d.cfg.WindowDays)

	dormant, err := d.store.DormantWithRecent(ctx, windowStart)
	if err != nil {
		return err
	}

	for _, ds := range dormant {
		payload, _ := json.Marshal(types.ReactivationPayload{
			StorylineID:    ds.ID,
			StorylineLabel: ds.Label,
			LastActivity:   ds.LastDate.String(),
			NewArticles:    ds.NewArticles,
		})
		created, err := d.createAlert(ctx, types.Alert{
			Type:    types.AlertStoryReactivation,
			Payload: string(payload),
			Description: fmt.Sprintf("Storyline '%s' (dormant since %s) has %d new article(s)",
				ds.Label, ds.LastDate, ds.NewArticles),
			Severity: types.SeverityMedium,
		})
		if err != nil {
			return err
		}
		if created {
			stats.AlertsCreated++
			stats.Reactivations++
		}
	}
	return nil
}

// detectNewActors raises an alert for every entity mentioned this window
// that has no mentions at all before it. Heavily mentioned newcomers are
// graded medium, the rest low.
func (d *Detector) detectNewActors(ctx context.Context, stats *RunStats) error {
	today := types.DateOf(d.now())
	windowStart := today.AddDays(-d.cfg.WindowDays)

	mentioned, err := d.store.EntitiesMentionedSince(ctx, windowStart)
	if err != nil {
		return err
	}

	for _, me := range mentioned {
		prior, err := d.store.EntityMentionsBefore(ctx, me.ID, windowStart)
		if err != nil {
			return err
		}
		if prior > 0 {
			continue
		}

		severity := types.SeverityLow
		if me.Mentions > 5 {
			severity = types.SeverityMedium
		}

		payload, _ := json.Marshal(types.NewActorPayload{
			EntityID:       me.ID,
			EntityName:     me.Name,
			EntityType:     me.Type,
			MentionCount7d: me.Mentions,
		})
		created, err := d.createAlert(ctx, types.Alert{
			Type:    types.AlertNewActor,
			Payload: string(payload),
			Description: fmt.Sprintf("New actor: %s (%s) appeared in %d article(s) this week",
				me.Name, me.Type, me.Mentions),
			Severity: severity,
		})
		if err != nil {
			return err
		}
		if created {
			stats.AlertsCreated++
			stats.NewActors++
		}
	}
	return nil
}

// createAlert inserts the alert unless an identical one (same type and
// description) was already raised inside the dedup window. Returns
// whether a new row was created.
func (d *Detector) createAlert(ctx context.Context, a types.Alert) (bool, error) {
	now := d.now()
	existing, err := d.store.FindRecentAlert(ctx, a.Type, a.Description, now.Add(-d.cfg.DedupWindow))
	if err != nil {
		return false, err
	}
	if existing != 0 {
		return false, nil
	}

	a.TriggeredAt = now
	if _, err := d.store.InsertAlert(ctx, a); err != nil {
		return false, err
	}
	return true, nil
}
