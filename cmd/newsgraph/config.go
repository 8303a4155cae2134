// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/meshintel/newsgraph/internal/index"
	"github.com/meshintel/newsgraph/internal/store"
	"github.com/meshintel/newsgraph/pkg/types"
)

const (
	defaultDBPath    = "instance/newsgraph.db"
	defaultUserAgent = "newsgraph/0.1"
)

// dbPath resolves the database path: flag, then config file, then default.
func dbPath(cmd *cobra.Command) string {
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		return p
	}
	if p := viper.GetString("store.db_path"); p != "" {
		return p
	}
	return defaultDBPath
}

// openStore opens the SQLite store for a command.
func openStore(cmd *cobra.Command) (*store.Store, error) {
	return store.Open(dbPath(cmd))
}

// graphConfig builds the graph builder settings from config-file overrides
// on top of the defaults.
func graphConfig() types.GraphConfig {
	cfg := types.DefaultGraphConfig()
	if v := viper.GetFloat64("graph.similarity_threshold"); v > 0 {
		cfg.SimilarityThreshold = v
	}
	if v := viper.GetInt("graph.knn_k"); v > 0 {
		cfg.KNNK = v
	}
	if v := viper.GetInt("graph.shared_terms_top_n"); v > 0 {
		cfg.SharedTermsTopN = v
	}
	return cfg
}

// storylineConfig builds the tier band settings.
func storylineConfig() types.StorylineConfig {
	cfg := types.DefaultStorylineConfig()
	if v := viper.GetFloat64("storylines.tier1_threshold"); v > 0 {
		cfg.Tier1Threshold = v
	}
	if v := viper.GetInt("storylines.tier1_window_days"); v > 0 {
		cfg.Tier1WindowDays = v
	}
	if v := viper.GetFloat64("storylines.tier2_threshold_low"); v > 0 {
		cfg.Tier2ThresholdLow = v
	}
	if v := viper.GetFloat64("storylines.tier2_threshold_high"); v > 0 {
		cfg.Tier2ThresholdHigh = v
	}
	if v := viper.GetInt("storylines.tier2_window_days"); v > 0 {
		cfg.Tier2WindowDays = v
	}
	if v := viper.GetFloat64("storylines.tier3_threshold_low"); v > 0 {
		cfg.Tier3ThresholdLow = v
	}
	if v := viper.GetFloat64("storylines.tier3_threshold_high"); v > 0 {
		cfg.Tier3ThresholdHigh = v
	}
	if v := viper.GetInt("storylines.min_shared_entities"); v > 0 {
		cfg.MinSharedEntities = v
	}
	return cfg
}

// detectConfig builds the detector settings.
func detectConfig() types.DetectConfig {
	cfg := types.DefaultDetectConfig()
	if v := viper.GetFloat64("detect.surge_threshold"); v > 0 {
		cfg.SurgeThreshold = v
	}
	if v := viper.GetInt("detect.window_days"); v > 0 {
		cfg.WindowDays = v
	}
	if v := viper.GetDuration("detect.dedup_window"); v > 0 {
		cfg.DedupWindow = v
	}
	return cfg
}

// buildIndex returns the vector index for a graph build: the remote
// service when index.base_url is configured, otherwise an in-process
// HNSW graph loaded from the store.
func buildIndex(ctx context.Context, st *store.Store) (interface {
	Ready() bool
	NearestNeighbors(vec []float32, k int) ([]types.Neighbor, error)
}, error) {
	if baseURL := viper.GetString("index.base_url"); baseURL != "" {
		cfg := types.IndexConfig{
			HTTPConfig: types.HTTPConfig{
				Timeout:   30 * time.Second,
				UserAgent: defaultUserAgent,
			},
			BaseURL: baseURL,
			APIKey:  loadedSecrets["vector-index-api-key"],
		}
		if v := viper.GetDuration("index.timeout"); v > 0 {
			cfg.Timeout = v
		}
		return index.NewRemote(ctx, cfg), nil
	}

	ix := index.New()
	if _, err := ix.Load(ctx, st); err != nil {
		return nil, err
	}
	return ix, nil
}
