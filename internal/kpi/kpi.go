// Package kpi derives attainment, win-rate, coverage, mix, velocity and
// partner-contribution metrics from rollup totals. Every ratio is "safe":
// absent (nil) whenever its denominator is zero or either operand is
// non-finite. The same formula set applies at every hierarchy level; parent
// rows are computed from summed totals, never by averaging child ratios.
package kpi

import (
	"math"

	"github.com/sells-group/revops-cli/internal/model"
)

// SafeDiv returns n/d, or nil when d is zero or either operand is NaN/Inf.
func SafeDiv(n, d float64) *float64 {
	if d == 0 || math.IsNaN(n) || math.IsInf(n, 0) || math.IsNaN(d) || math.IsInf(d, 0) {
		return nil
	}
	v := n / d
	return &v
}

// QuotaTotal sums quota rows for one entity/period. Per row, a non-zero
// adjusted amount replaces the base amount; carry-forward adds on top.
func QuotaTotal(quotas []model.Quota) float64 {
	var total float64
	for _, q := range quotas {
		amount := q.Amount
		if q.Adjusted != 0 {
			amount = q.Adjusted
		}
		total += amount + q.CarryForward
	}
	return total
}

// Compute derives the KPI row for one rollup group against its quota total.
// An empty group with zero quota yields an all-zero/all-nil row, which is a
// valid "no data" result.
func Compute(g model.RollupGroup, quotaAmount float64) model.KPIRow {
	won := g.Amounts[model.BucketWon]
	lost := g.Amounts[model.BucketLost]
	commit := g.Amounts[model.BucketCommit]
	best := g.Amounts[model.BucketBest]
	pipeline := g.Amounts[model.BucketPipeline]
	wonCount := g.Counts[model.BucketWon]
	lostCount := g.Counts[model.BucketLost]

	// Lost business is excluded from the mix denominator: mix describes the
	// composition of pipeline that is, or became, winnable.
	mixDenom := pipeline + best + commit + won

	row := model.KPIRow{
		PeriodKey: g.PeriodKey,
		Level:     g.Level,
		EntityID:  g.EntityID,

		QuotaAmount:    quotaAmount,
		WonAmount:      won,
		LostAmount:     lost,
		CommitAmount:   commit,
		BestAmount:     best,
		PipelineAmount: pipeline,
		WonCount:       wonCount,
		LostCount:      lostCount,
		TotalCount:     g.TotalCount(),

		Attainment:     SafeDiv(won, quotaAmount),
		WinRate:        SafeDiv(float64(wonCount), float64(wonCount+lostCount)),
		OppToWin:       SafeDiv(float64(wonCount), float64(g.TotalCount())),
		CommitCoverage: SafeDiv(commit, quotaAmount),
		BestCoverage:   SafeDiv(best, quotaAmount),
		AOV:            SafeDiv(won, float64(wonCount)),

		MixPipeline: SafeDiv(pipeline, mixDenom),
		MixBest:     SafeDiv(best, mixDenom),
		MixCommit:   SafeDiv(commit, mixDenom),
		MixWon:      SafeDiv(won, mixDenom),

		PartnerContribution: SafeDiv(g.PartnerClosedAmount, g.ClosedAmount()),
		PartnerWinRate:      SafeDiv(float64(g.PartnerWonCount), float64(g.PartnerClosedCount)),

		AvgCycleDaysWon:  avgCycleDays(g, model.BucketWon),
		AvgCycleDaysLost: avgCycleDays(g, model.BucketLost),
	}
	return row
}

// ComputeAll pairs each group with its quota total and derives its row.
// quotasByEntity is keyed by entity id; groups without quota rows compute
// against zero (attainment and coverage come out absent).
func ComputeAll(groups []model.RollupGroup, quotasByEntity map[string][]model.Quota) []model.KPIRow {
	rows := make([]model.KPIRow, 0, len(groups))
	for _, g := range groups {
		rows = append(rows, Compute(g, QuotaTotal(quotasByEntity[g.EntityID])))
	}
	return rows
}

// avgCycleDays is the count-weighted mean cycle time for an outcome: the
// group carries per-fact day sums and counts, so dividing once here weights
// each underlying deal equally no matter which rep it rolled up from.
func avgCycleDays(g model.RollupGroup, b model.Bucket) *float64 {
	return SafeDiv(g.CycleDaySum[b], float64(g.CycleDayCount[b]))
}
