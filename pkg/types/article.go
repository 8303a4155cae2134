// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines the shared data model and configuration for the
// newsgraph relationship-inference engine.
package types

// Article is an ingested news article. Identity, date, and text are owned
// by ingestion; cluster assignments and 2D coordinates are written by the
// upstream clustering pipeline; storyline_id is written by the threader.
type Article struct {
	ID          int64    `json:"id" yaml:"id"`
	Title       string   `json:"title" yaml:"title"`
	Summary     string   `json:"summary,omitempty" yaml:"summary,omitempty"`
	URL         string   `json:"url" yaml:"url"`
	Outlet      string   `json:"outlet,omitempty" yaml:"outlet,omitempty"`
	Date        Date     `json:"date" yaml:"date"`
	ClusterID   *int64   `json:"cluster_id,omitempty" yaml:"cluster_id,omitempty"`
	StorylineID *int64   `json:"storyline_id,omitempty" yaml:"storyline_id,omitempty"`
	UMAPX       *float64 `json:"umap_x,omitempty" yaml:"umap_x,omitempty"`
	UMAPY       *float64 `json:"umap_y,omitempty" yaml:"umap_y,omitempty"`
}

// Tier is a similarity/temporal band classifying a relationship edge's
// strength. Tier1 is the strongest (near-duplicate coverage), tier3 the
// weakest (related by shared actors or topic).
type Tier string

const (
	Tier1 Tier = "tier1" // near-duplicate: high cosine, days apart ≤ 3
	Tier2 Tier = "tier2" // continuation: mid cosine, days apart ≤ 7
	Tier3 Tier = "tier3" // related: low cosine, ≥ 2 shared entities
)

// SimilarityEdge is one direction of a symmetric similarity relationship
// between two articles. Edges are stored per-direction: if A→B exists with
// cosine c, B→A exists with the same cosine and the same shared evidence.
// Tier is empty until a threading pass classifies the edge.
type SimilarityEdge struct {
	SrcID           int64    `json:"src_id" yaml:"src_id"`
	DstID           int64    `json:"dst_id" yaml:"dst_id"`
	Cosine          float64  `json:"cosine" yaml:"cosine"`
	SharedTerms     []string `json:"shared_terms,omitempty" yaml:"shared_terms,omitempty"`
	SharedEntityIDs []int64  `json:"shared_entity_ids,omitempty" yaml:"shared_entity_ids,omitempty"`
	Tier            Tier     `json:"tier,omitempty" yaml:"tier,omitempty"`
}

// Reverse returns the mirror edge with source and destination swapped.
func (e SimilarityEdge) Reverse() SimilarityEdge {
	e.SrcID, e.DstID = e.DstID, e.SrcID
	return e
}

// Neighbor is one result of a nearest-neighbor query against a vector
// index: a candidate article and its cosine similarity to the query vector.
type Neighbor struct {
	ArticleID int64
	Score     float64
}

// EntityType categorizes a named entity extracted upstream.
type EntityType string

const (
	EntityPerson EntityType = "PERSON"
	EntityOrg    EntityType = "ORG"
	EntityGPE    EntityType = "GPE"
	EntityLoc    EntityType = "LOC"
	EntityOther  EntityType = "OTHER"
)

// Entity is a named actor (person, organization, place) produced by the
// upstream NER step. Read-only to this engine.
type Entity struct {
	ID   int64      `json:"id" yaml:"id"`
	Name string     `json:"name" yaml:"name"`
	Type EntityType `json:"type" yaml:"type"`
}

// EntityMention links an article to an entity it mentions, with a
// relevance weight assigned upstream.
type EntityMention struct {
	ArticleID int64   `json:"article_id" yaml:"article_id"`
	EntityID  int64   `json:"entity_id" yaml:"entity_id"`
	Weight    float64 `json:"weight" yaml:"weight"`
}

// Cluster is a topic cluster produced by the upstream clustering pipeline.
// Read-only to this engine; surge detection compares its article volume
// across rolling windows.
type Cluster struct {
	ID    int64   `json:"id" yaml:"id"`
	Label string  `json:"label,omitempty" yaml:"label,omitempty"`
	Size  int     `json:"size" yaml:"size"`
	Score float64 `json:"score" yaml:"score"`
}
