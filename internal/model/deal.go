// Package model defines the plain record types shared across the rollup
// engine: raw inputs (Deal, Quota, RepEntry), derived facts and groups, and
// the KPI/score rows handed to presentation.
package model

import "time"

// Bucket is the canonical forecast classification of a deal.
type Bucket string

const (
	BucketWon      Bucket = "won"
	BucketLost     Bucket = "lost"
	BucketCommit   Bucket = "commit"
	BucketBest     Bucket = "best"
	BucketPipeline Bucket = "pipeline"
	BucketOther    Bucket = "other"
)

// Buckets lists all buckets in display order.
var Buckets = []Bucket{BucketWon, BucketLost, BucketCommit, BucketBest, BucketPipeline, BucketOther}

// Closed reports whether the bucket is a terminal outcome.
func (b Bucket) Closed() bool {
	return b == BucketWon || b == BucketLost
}

// Active reports whether the bucket counts toward open pipeline.
func (b Bucket) Active() bool {
	return b == BucketCommit || b == BucketBest || b == BucketPipeline
}

// Deal is one sales opportunity as supplied by the record provider.
// Amounts are plain currency units; Stage is free text as entered by reps.
// A nil ClosedAt means the deal is still open. HealthScore is on a 0-30
// scale where 0 means "not scored".
type Deal struct {
	ID          string     `json:"id"`
	RepID       string     `json:"rep_id"`
	Amount      float64    `json:"amount"`
	Stage       string     `json:"stage"`
	Partner     string     `json:"partner,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	ClosedAt    *time.Time `json:"closed_at,omitempty"`
	HealthScore float64    `json:"health_score,omitempty"`
}

// Quota is one target row for an entity and fiscal period. Multiple rows may
// exist per (entity, period); the calculator sums them. A non-zero Adjusted
// replaces Amount for that row; CarryForward adds on top.
type Quota struct {
	EntityID     string  `json:"entity_id"`
	PeriodKey    string  `json:"period_key"`
	Amount       float64 `json:"amount"`
	CarryForward float64 `json:"carry_forward,omitempty"`
	Adjusted     float64 `json:"adjusted,omitempty"`
}

// RepEntry is one row of the flat rep directory. ParentID points at the
// rep's manager; empty means top of a tree. The directory forms a forest and
// is not guaranteed acyclic by the upstream system.
type RepEntry struct {
	ID       string `json:"id"`
	Name     string `json:"name,omitempty"`
	ParentID string `json:"parent_id,omitempty"`
	Active   bool   `json:"active"`
}

// Fact is the normalized, classified view of one Deal within one period.
// Never mutated after creation.
type Fact struct {
	DealID    string
	RepID     string
	Bucket    Bucket
	Amount    float64
	AgeDays   *int     // close - create in whole days; nil for open deals
	Partner   string   // empty for direct deals
	IsPartner bool
	Health    *float64 // 0..1; nil when unscored
}
