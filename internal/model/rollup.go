package model

import "time"

// Level identifies the hierarchy depth of a rollup group.
type Level string

const (
	LevelRep     Level = "rep"
	LevelManager Level = "manager"
	LevelVP      Level = "vp"
	LevelCompany Level = "company"
)

// UnassignedEntity is the synthetic group that absorbs facts whose rep
// cannot be resolved to a hierarchy entry.
const UnassignedEntity = "(unassigned)"

// CompanyEntity keys the single company-level group.
const CompanyEntity = "company"

// RollupGroup holds the accumulated per-bucket totals for one
// (period, level, entity) key. All fields are commutative sums so that
// aggregation is order-independent.
type RollupGroup struct {
	PeriodKey string `json:"period_key"`
	Level     Level  `json:"level"`
	EntityID  string `json:"entity_id"`

	Amounts map[Bucket]float64 `json:"amounts"`
	Counts  map[Bucket]int     `json:"counts"`

	// Partner-sourced slices of the closed business.
	PartnerWonAmount    float64 `json:"partner_won_amount"`
	PartnerClosedAmount float64 `json:"partner_closed_amount"`
	PartnerWonCount     int     `json:"partner_won_count"`
	PartnerClosedCount  int     `json:"partner_closed_count"`

	// Cycle-time accumulators per outcome bucket. Means derived from these
	// are count-weighted by construction.
	CycleDaySum   map[Bucket]float64 `json:"cycle_day_sum"`
	CycleDayCount map[Bucket]int     `json:"cycle_day_count"`
}

// NewRollupGroup returns an empty group for the given key.
func NewRollupGroup(periodKey string, level Level, entityID string) *RollupGroup {
	return &RollupGroup{
		PeriodKey:     periodKey,
		Level:         level,
		EntityID:      entityID,
		Amounts:       make(map[Bucket]float64),
		Counts:        make(map[Bucket]int),
		CycleDaySum:   make(map[Bucket]float64),
		CycleDayCount: make(map[Bucket]int),
	}
}

// ActiveAmount is the open pipeline total (commit + best + pipeline).
func (g *RollupGroup) ActiveAmount() float64 {
	return g.Amounts[BucketCommit] + g.Amounts[BucketBest] + g.Amounts[BucketPipeline]
}

// ClosedAmount is the decided total (won + lost).
func (g *RollupGroup) ClosedAmount() float64 {
	return g.Amounts[BucketWon] + g.Amounts[BucketLost]
}

// TotalCount is the number of facts folded into the group.
func (g *RollupGroup) TotalCount() int {
	n := 0
	for _, c := range g.Counts {
		n += c
	}
	return n
}

// KPIRow is one rollup group with its derived ratios. Every ratio is nil
// whenever its denominator is zero or undefined.
type KPIRow struct {
	PeriodKey string `json:"period_key"`
	Level     Level  `json:"level"`
	EntityID  string `json:"entity_id"`

	QuotaAmount    float64 `json:"quota_amount"`
	WonAmount      float64 `json:"won_amount"`
	LostAmount     float64 `json:"lost_amount"`
	CommitAmount   float64 `json:"commit_amount"`
	BestAmount     float64 `json:"best_amount"`
	PipelineAmount float64 `json:"pipeline_amount"`
	WonCount       int     `json:"won_count"`
	LostCount      int     `json:"lost_count"`
	TotalCount     int     `json:"total_count"`

	Attainment          *float64 `json:"attainment,omitempty"`
	WinRate             *float64 `json:"win_rate,omitempty"`
	OppToWin            *float64 `json:"opp_to_win,omitempty"`
	CommitCoverage      *float64 `json:"commit_coverage,omitempty"`
	BestCoverage        *float64 `json:"best_coverage,omitempty"`
	AOV                 *float64 `json:"aov,omitempty"`
	MixPipeline         *float64 `json:"mix_pipeline,omitempty"`
	MixBest             *float64 `json:"mix_best,omitempty"`
	MixCommit           *float64 `json:"mix_commit,omitempty"`
	MixWon              *float64 `json:"mix_won,omitempty"`
	PartnerContribution *float64 `json:"partner_contribution,omitempty"`
	PartnerWinRate      *float64 `json:"partner_win_rate,omitempty"`
	AvgCycleDaysWon     *float64 `json:"avg_cycle_days_won,omitempty"`
	AvgCycleDaysLost    *float64 `json:"avg_cycle_days_lost,omitempty"`
}

// MotionInput carries the per-motion aggregates consumed by the channel
// scoring model. A motion is either Direct or one named partner.
type MotionInput struct {
	Name         string   `json:"name"`
	Direct       bool     `json:"direct"`
	OpenPipeline float64  `json:"open_pipeline"`
	WonAmount    float64  `json:"won_amount"`
	WinRate      *float64 `json:"win_rate,omitempty"`
	Health       *float64 `json:"health,omitempty"`
	AvgCycleDays *float64 `json:"avg_cycle_days,omitempty"`
	AOV          *float64 `json:"aov,omitempty"`
	DealCount    int      `json:"deal_count"` // closed deals
}

// ScoreRow is one motion's composite scores within one period.
// PQS is partner-only; CEI is nil when no baseline exists.
type ScoreRow struct {
	PeriodKey string      `json:"period_key"`
	Motion    string      `json:"motion"`
	Direct    bool        `json:"direct"`
	WIC       float64     `json:"wic"`
	WICBand   string      `json:"wic_band"`
	PQS       *float64    `json:"pqs,omitempty"`
	CEI       *float64    `json:"cei,omitempty"`
	CEIStatus string      `json:"cei_status,omitempty"`
	Inputs    MotionInput `json:"inputs"`
}

// ReportRun records one engine invocation for the run history.
type ReportRun struct {
	ID         string    `json:"id"`
	PeriodKey  string    `json:"period_key"`
	Scope      string    `json:"scope"`
	WindowMode string    `json:"window_mode"`
	FactCount  int       `json:"fact_count"`
	GroupCount int       `json:"group_count"`
	DurationMS int64     `json:"duration_ms"`
	CreatedAt  time.Time `json:"created_at"`
}
