// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package storyline

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/meshintel/newsgraph/internal/store"
	"github.com/meshintel/newsgraph/pkg/types"
)

// MomentumStats holds counts from a momentum recompute.
type MomentumStats struct {
	Updated   int
	Active    int
	Dormant   int
	Concluded int
}

// Momentum recomputes storyline momentum scores and lifecycle status.
// The clock is injected so tests can pin "today".
type Momentum struct {
	store *store.Store
	now   func() time.Time
}

// NewMomentum wires a momentum engine to its store using the wall clock.
func NewMomentum(st *store.Store) *Momentum {
	return &Momentum{store: st, now: time.Now}
}

// NewMomentumAt is NewMomentum with a fixed clock, for tests.
func NewMomentumAt(st *store.Store, now func() time.Time) *Momentum {
	return &Momentum{store: st, now: now}
}

// Recompute scores every storyline and persists the new momentum and
// status.
func (m *Momentum) Recompute(ctx context.Context, w io.Writer) (MomentumStats, error) {
	var stats MomentumStats

	storylines, err := m.store.Storylines(ctx)
	if err != nil {
		return stats, err
	}
	today := types.DateOf(m.now())

	for _, st := range storylines {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		memberDates, err := m.store.MemberDates(ctx, st.ID)
		if err != nil {
			return stats, err
		}

		score := momentumScore(memberDates, today)
		status := lifecycleStatus(score, today.DaysSince(st.LastDate))

		if err := m.store.UpdateMomentum(ctx, st.ID, score, status); err != nil {
			return stats, err
		}
		stats.Updated++
		switch status {
		case types.StatusActive:
			stats.Active++
		case types.StatusDormant:
			stats.Dormant++
		case types.StatusConcluded:
			stats.Concluded++
		}
	}

	fmt.Fprintf(w, "momentum: %d storylines updated (%d active, %d dormant, %d concluded)\n",
		stats.Updated, stats.Active, stats.Dormant, stats.Concluded)
	return stats, nil
}

// momentumScore sums recency weights over member articles and divides by
// the storyline's coverage span in days. Articles published within the
// last week count 1.0, within two weeks 0.5, within thirty days 0.25,
// older ones nothing. A single-day storyline has zero span and scores 0.
func momentumScore(memberDates []types.Date, today types.Date) float64 {
	if len(memberDates) == 0 {
		return 0
	}

	first, last := memberDates[0], memberDates[0]
	var sum float64
	for _, d := range memberDates {
		if d.Before(first) {
			first = d
		}
		if last.Before(d) {
			last = d
		}
		switch age := today.DaysSince(d); {
		case age <= 7:
			sum += 1.0
		case age <= 14:
			sum += 0.5
		case age <= 30:
			sum += 0.25
		}
	}

	duration := last.DaysSince(first)
	if duration == 0 {
		return 0
	}
	return sum / float64(duration)
}

// lifecycleStatus derives a storyline's status from its momentum and days
// since last activity.
func lifecycleStatus(momentum float64, daysSinceLast int) types.StorylineStatus {
	switch {
	case momentum > 0.5 && daysSinceLast <= 7:
		return types.StatusActive
	case momentum > 0 && daysSinceLast <= 14:
		return types.StatusActive
	case daysSinceLast > 14:
		return types.StatusDormant
	default:
		return types.StatusConcluded
	}
}
