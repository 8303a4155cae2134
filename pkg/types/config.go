// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// StoreConfig holds settings for the SQLite store.
type StoreConfig struct {
	// DBPath is the path to the SQLite database file (default "instance/newsgraph.db").
	DBPath string `json:"db_path" yaml:"db_path"`
}

// HTTPConfig holds shared HTTP settings for components that talk to a
// remote collaborator service.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "newsgraph/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// IndexConfig holds settings for the nearest-neighbor vector index.
// With an empty BaseURL the in-process index is used; otherwise queries go
// to a remote vector-search service.
type IndexConfig struct {
	HTTPConfig `yaml:",inline"`

	// BaseURL is the base URL of a remote vector-search service.
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty"`

	// APIKey authenticates against the remote service.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`
}

// GraphConfig holds settings for the similarity graph builder.
type GraphConfig struct {
	// SimilarityThreshold is the minimum cosine similarity for an edge
	// (default 0.60).
	SimilarityThreshold float64 `json:"similarity_threshold" yaml:"similarity_threshold"`

	// KNNK is the number of nearest neighbors requested per article
	// (default 20).
	KNNK int `json:"knn_k" yaml:"knn_k"`

	// SharedTermsTopN caps the shared-term evidence stored per edge
	// (default 10).
	SharedTermsTopN int `json:"shared_terms_top_n" yaml:"shared_terms_top_n"`
}

// StorylineConfig holds the tier bands for the storyline threader.
type StorylineConfig struct {
	// Tier1Threshold is the minimum cosine for a near-duplicate edge
	// (default 0.85).
	Tier1Threshold float64 `json:"tier1_threshold" yaml:"tier1_threshold"`

	// Tier1WindowDays is the maximum days apart for tier1 (default 3).
	Tier1WindowDays int `json:"tier1_window_days" yaml:"tier1_window_days"`

	// Tier2ThresholdLow/High bound the continuation band (default 0.65-0.85).
	Tier2ThresholdLow  float64 `json:"tier2_threshold_low" yaml:"tier2_threshold_low"`
	Tier2ThresholdHigh float64 `json:"tier2_threshold_high" yaml:"tier2_threshold_high"`

	// Tier2WindowDays is the maximum days apart for tier2 (default 7).
	Tier2WindowDays int `json:"tier2_window_days" yaml:"tier2_window_days"`

	// Tier3ThresholdLow/High bound the related band (default 0.50-0.65).
	// Tier3 has no day window; it requires MinSharedEntities instead.
	Tier3ThresholdLow  float64 `json:"tier3_threshold_low" yaml:"tier3_threshold_low"`
	Tier3ThresholdHigh float64 `json:"tier3_threshold_high" yaml:"tier3_threshold_high"`

	// MinSharedEntities is the shared-entity count required for tier3
	// (default 2).
	MinSharedEntities int `json:"min_shared_entities" yaml:"min_shared_entities"`
}

// DetectConfig holds settings for the anomaly detectors.
type DetectConfig struct {
	// SurgeThreshold is the week-over-week growth ratio above which a
	// cluster counts as surging (default 1.5).
	SurgeThreshold float64 `json:"surge_threshold" yaml:"surge_threshold"`

	// WindowDays is the rolling-window size for all detectors (default 7).
	WindowDays int `json:"window_days" yaml:"window_days"`

	// DedupWindow suppresses alerts that repeat an identical type and
	// description within this duration (default 24h).
	DedupWindow time.Duration `json:"dedup_window" yaml:"dedup_window"`
}

// PipelineConfig groups all stage configurations.
type PipelineConfig struct {
	Store      StoreConfig     `json:"store" yaml:"store"`
	Index      IndexConfig     `json:"index" yaml:"index"`
	Graph      GraphConfig     `json:"graph" yaml:"graph"`
	Storylines StorylineConfig `json:"storylines" yaml:"storylines"`
	Detect     DetectConfig    `json:"detect" yaml:"detect"`
}

// DefaultGraphConfig returns the graph builder defaults.
func DefaultGraphConfig() GraphConfig {
	return GraphConfig{
		SimilarityThreshold: 0.60,
		KNNK:                20,
		SharedTermsTopN:     10,
	}
}

// DefaultStorylineConfig returns the tier band defaults.
func DefaultStorylineConfig() StorylineConfig {
	return StorylineConfig{
		Tier1Threshold:     0.85,
		Tier1WindowDays:    3,
		Tier2ThresholdLow:  0.65,
		Tier2ThresholdHigh: 0.85,
		Tier2WindowDays:    7,
		Tier3ThresholdLow:  0.50,
		Tier3ThresholdHigh: 0.65,
		MinSharedEntities:  2,
	}
}

// DefaultDetectConfig returns the detector defaults.
func DefaultDetectConfig() DetectConfig {
	return DetectConfig{
		SurgeThreshold: 1.5,
		WindowDays:     7,
		DedupWindow:    24 * time.Hour,
	}
}
