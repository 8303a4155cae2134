// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// AlertType identifies which detector produced an alert.
type AlertType string

const (
	AlertTopicSurge        AlertType = "topic_surge"
	AlertStoryReactivation AlertType = "story_reactivation"
	AlertNewActor          AlertType = "new_actor"

	// AlertDivergence is reserved for a coverage-divergence detector that
	// has not shipped. No code path emits it.
	AlertDivergence AlertType = "divergence"
)

// Severity grades an alert.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Alert is an anomaly raised by a detector run. Payload is a JSON evidence
// document whose shape depends on Type; Description doubles as the dedup
// key within a 24-hour window. Alerts are never deleted; the acknowledge
// operation is the only mutation after creation.
type Alert struct {
	ID           int64     `json:"id" yaml:"id"`
	Type         AlertType `json:"type" yaml:"type"`
	Payload      string    `json:"payload" yaml:"payload"`
	TriggeredAt  time.Time `json:"triggered_at" yaml:"triggered_at"`
	Description  string    `json:"description" yaml:"description"`
	Severity     Severity  `json:"severity" yaml:"severity"`
	Acknowledged bool      `json:"acknowledged" yaml:"acknowledged"`
}

// SurgePayload is the evidence attached to a topic_surge alert.
type SurgePayload struct {
	ClusterID     int64   `json:"cluster_id"`
	CurrentCount  int     `json:"current_count"`
	PreviousCount int     `json:"previous_count"`
	GrowthRatio   float64 `json:"growth_ratio"`
}

// ReactivationPayload is the evidence attached to a story_reactivation alert.
type ReactivationPayload struct {
	StorylineID    int64  `json:"storyline_id"`
	StorylineLabel string `json:"storyline_label"`
	LastActivity   string `json:"last_activity"`
	NewArticles    int    `json:"new_articles"`
}

// NewActorPayload is the evidence attached to a new_actor alert.
type NewActorPayload struct {
	EntityID       int64      `json:"entity_id"`
	EntityName     string     `json:"entity_name"`
	EntityType     EntityType `json:"entity_type"`
	MentionCount7d int        `json:"mention_count_7d"`
}
