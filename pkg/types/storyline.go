// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// StorylineStatus is the lifecycle state of a storyline.
type StorylineStatus string

const (
	// StatusActive marks a storyline with current narrative momentum.
	StatusActive StorylineStatus = "active"

	// StatusDormant marks a storyline with no publishing activity for more
	// than two weeks.
	StatusDormant StorylineStatus = "dormant"

	// StatusConcluded marks a storyline that wound down recently without
	// residual momentum.
	StatusConcluded StorylineStatus = "concluded"
)

// Storyline is a thread of related coverage: articles grouped by the
// tier-ordered threading pass. Membership is immutable once assigned;
// Status and MomentumScore are maintained by the momentum engine.
type Storyline struct {
	ID            int64           `json:"id" yaml:"id"`
	Label         string          `json:"label" yaml:"label"`
	Status        StorylineStatus `json:"status" yaml:"status"`
	MomentumScore float64         `json:"momentum_score" yaml:"momentum_score"`
	FirstDate     Date            `json:"first_date" yaml:"first_date"`
	LastDate      Date            `json:"last_date" yaml:"last_date"`
	ArticleCount  int             `json:"article_count" yaml:"article_count"`
}

// StorylineMembership records one article's place in a storyline.
// SequenceOrder is a dense 0..n-1 rank by ascending publish date (ties
// broken by article id); Tier is the tier of the edge that first pulled
// the article into the storyline.
type StorylineMembership struct {
	StorylineID   int64 `json:"storyline_id" yaml:"storyline_id"`
	ArticleID     int64 `json:"article_id" yaml:"article_id"`
	Tier          Tier  `json:"tier" yaml:"tier"`
	SequenceOrder int   `json:"sequence_order" yaml:"sequence_order"`
}
