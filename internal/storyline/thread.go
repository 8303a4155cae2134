// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package storyline threads the similarity graph into storylines and
// maintains their momentum and lifecycle status.
package storyline

import (
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/meshintel/newsgraph/internal/store"
	"github.com/meshintel/newsgraph/pkg/types"
)

const labelMaxLen = 60

// ThreadStats holds counts from a threading run.
type ThreadStats struct {
	StorylinesCreated int
	ArticlesGrouped   int
	Skipped           bool
}

// Threader groups articles into storylines by walking the similarity
// graph tier by tier.
type Threader struct {
	store *store.Store
	cfg   types.StorylineConfig
}

// NewThreader wires a threader to its store.
func NewThreader(st *store.Store, cfg types.StorylineConfig) *Threader {
	return &Threader{store: st, cfg: cfg}
}

// pair is an undirected edge key with the smaller id first.
func pairKey(a, b int64) [2]int64 {
	if a > b {
		a, b = b, a
	}
	return [2]int64{a, b}
}

// Thread classifies edges into tiers and greedily grows storylines, one
// tier at a time, strongest tier first. Articles already claimed by a
// storyline are never moved; an edge whose endpoints both belong to
// storylines does nothing, even when those storylines differ. If
// storylines already exist the run is skipped unless force is set, which
// clears all threading state first.
func (t *Threader) Thread(ctx context.Context, force bool, w io.Writer) (ThreadStats, error) {
	var stats ThreadStats

	n, err := t.store.StorylineCount(ctx)
	if err != nil {
		return stats, fmt.Errorf("counting storylines: %w", err)
	}
	if n > 0 {
		if !force {
			stats.Skipped = true
			fmt.Fprintf(w, "%d storylines already exist; use force to rebuild\n", n)
			return stats, nil
		}
		if err := t.store.ResetStorylines(ctx); err != nil {
			return stats, err
		}
	}

	edges, err := t.store.EdgesInOrder(ctx)
	if err != nil {
		return stats, err
	}
	if len(edges) == 0 {
		fmt.Fprintln(w, "no similarity edges; nothing to thread")
		return stats, nil
	}

	rawDates, err := t.store.ArticleDates(ctx)
	if err != nil {
		return stats, err
	}
	// Articles with unparseable dates are left out of the map; classify
	// then drops any edge touching them.
	dates := make(map[int64]types.Date, len(rawDates))
	for id, raw := range rawDates {
		d, err := types.ParseDate(raw)
		if err != nil {
			fmt.Fprintf(w, "skipping article %d: bad date %q\n", id, raw)
			continue
		}
		dates[id] = d
	}

	titles, err := t.store.ArticleTitles(ctx)
	if err != nil {
		return stats, err
	}

	tiered, edgeTiers := t.classify(edges, dates)

	assigned := make(map[int64]int)          // article -> group index
	assignTier := make(map[int64]types.Tier) // tier that pulled the article in
	var groups [][]int64

	for _, tier := range []types.Tier{types.Tier1, types.Tier2, types.Tier3} {
		for _, e := range tiered[tier] {
			gSrc, srcOK := assigned[e.SrcID]
			gDst, dstOK := assigned[e.DstID]
			switch {
			case srcOK && dstOK:
				// Both endpoints are already claimed. Storylines never
				// merge, so a cross-group edge is a no-op.
			case srcOK:
				groups[gSrc] = append(groups[gSrc], e.DstID)
				assigned[e.DstID] = gSrc
				assignTier[e.DstID] = tier
			case dstOK:
				groups[gDst] = append(groups[gDst], e.SrcID)
				assigned[e.SrcID] = gDst
				assignTier[e.SrcID] = tier
			default:
				groups = append(groups, []int64{e.SrcID, e.DstID})
				assigned[e.SrcID] = len(groups) - 1
				assigned[e.DstID] = len(groups) - 1
				assignTier[e.SrcID] = tier
				assignTier[e.DstID] = tier
			}
		}
	}

	for _, members := range groups {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		ns := buildStoryline(members, dates, titles, assignTier)
		if _, err := t.store.CreateStoryline(ctx, ns); err != nil {
			return stats, fmt.Errorf("creating storyline %q: %w", ns.Label, err)
		}
		stats.StorylinesCreated++
		stats.ArticlesGrouped += len(members)
	}

	if err := t.store.UpdateEdgeTiers(ctx, edgeTiers); err != nil {
		return stats, err
	}

	fmt.Fprintf(w, "threading: %d storylines created covering %d articles\n",
		stats.StorylinesCreated, stats.ArticlesGrouped)
	return stats, nil
}

// classify buckets edges into tiers, deduplicating by undirected pair.
// The first direction encountered decides the pair's position within its
// tier's bucket. Self-loops and edges whose endpoints lack a usable date
// are skipped.
func (t *Threader) classify(edges []store.Edge, dates map[int64]types.Date) (map[types.Tier][]store.Edge, map[[2]int64]types.Tier) {
	tiered := map[types.Tier][]store.Edge{}
	edgeTiers := make(map[[2]int64]types.Tier)

	for _, e := range edges {
		if e.SrcID == e.DstID {
			continue
		}
		key := pairKey(e.SrcID, e.DstID)
		if _, done := edgeTiers[key]; done {
			continue
		}

		dSrc, okSrc := dates[e.SrcID]
		dDst, okDst := dates[e.DstID]
		if !okSrc || !okDst {
			continue
		}
		apart := dSrc.DaysApart(dDst)

		var tier types.Tier
		switch {
		case e.Cosine >= t.cfg.Tier1Threshold && apart <= t.cfg.Tier1WindowDays:
			tier = types.Tier1
		case e.Cosine >= t.cfg.Tier2ThresholdLow && e.Cosine < t.cfg.Tier2ThresholdHigh && apart <= t.cfg.Tier2WindowDays:
			tier = types.Tier2
		case e.Cosine >= t.cfg.Tier3ThresholdLow && e.Cosine < t.cfg.Tier3ThresholdHigh && len(e.SharedEntityIDs) >= t.cfg.MinSharedEntities:
			tier = types.Tier3
		default:
			continue
		}

		tiered[tier] = append(tiered[tier], e)
		edgeTiers[key] = tier
	}
	return tiered, edgeTiers
}

// buildStoryline orders a group's members by date then id, assigns dense
// sequence numbers, and labels the storyline after its earliest article.
func buildStoryline(members []int64, dates map[int64]types.Date, titles map[int64]string, assignTier map[int64]types.Tier) store.NewStoryline {
	sorted := make([]int64, len(members))
	copy(sorted, members)
	sort.Slice(sorted, func(i, j int) bool {
		di, dj := dates[sorted[i]], dates[sorted[j]]
		if di.Before(dj) {
			return true
		}
		if dj.Before(di) {
			return false
		}
		return sorted[i] < sorted[j]
	})

	ms := make([]types.StorylineMembership, len(sorted))
	for i, id := range sorted {
		ms[i] = types.StorylineMembership{
			ArticleID:     id,
			Tier:          assignTier[id],
			SequenceOrder: i,
		}
	}

	return store.NewStoryline{
		Label:     truncateLabel(titles[sorted[0]]),
		FirstDate: dates[sorted[0]],
		LastDate:  dates[sorted[len(sorted)-1]],
		Members:   ms,
	}
}

// truncateLabel caps a label at labelMaxLen characters, ellipsis included.
func truncateLabel(s string) string {
	if len(s) <= labelMaxLen {
		return s
	}
	return s[:labelMaxLen-3] + "..."
}
