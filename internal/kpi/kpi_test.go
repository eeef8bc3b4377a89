package kpi

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/revops-cli/internal/model"
)

func TestSafeDiv(t *testing.T) {
	v := SafeDiv(10, 4)
	require.NotNil(t, v)
	assert.Equal(t, 2.5, *v)

	assert.Nil(t, SafeDiv(10, 0))
	assert.Nil(t, SafeDiv(math.NaN(), 4))
	assert.Nil(t, SafeDiv(10, math.NaN()))
	assert.Nil(t, SafeDiv(math.Inf(1), 4))
	assert.Nil(t, SafeDiv(10, math.Inf(-1)))
}

func TestQuotaTotal(t *testing.T) {
	quotas := []model.Quota{
		{EntityID: "rep1", PeriodKey: "2026Q1", Amount: 80_000},
		{EntityID: "rep1", PeriodKey: "2026Q1", Amount: 50_000, Adjusted: 15_000}, // correction row
		{EntityID: "rep1", PeriodKey: "2026Q1", Amount: 0, CarryForward: 5_000},
	}
	assert.Equal(t, 100_000.0, QuotaTotal(quotas))
	assert.Zero(t, QuotaTotal(nil))
}

// Scenario from the product sign-off: quota 100k, one 60k won, one 20k lost,
// one 15k commit.
func TestCompute_Scenario(t *testing.T) {
	g := model.NewRollupGroup("2026Q1", model.LevelRep, "rep1")
	g.Amounts[model.BucketWon] = 60_000
	g.Counts[model.BucketWon] = 1
	g.Amounts[model.BucketLost] = 20_000
	g.Counts[model.BucketLost] = 1
	g.Amounts[model.BucketCommit] = 15_000
	g.Counts[model.BucketCommit] = 1

	row := Compute(*g, 100_000)

	require.NotNil(t, row.Attainment)
	assert.InDelta(t, 0.6, *row.Attainment, 1e-9)
	require.NotNil(t, row.WinRate)
	assert.InDelta(t, 0.5, *row.WinRate, 1e-9)
	require.NotNil(t, row.CommitCoverage)
	assert.InDelta(t, 0.15, *row.CommitCoverage, 1e-9)

	// Lost amounts are excluded from the mix denominator (75k, not 95k).
	require.NotNil(t, row.MixWon)
	assert.InDelta(t, 60_000.0/75_000.0, *row.MixWon, 1e-9)
	require.NotNil(t, row.MixCommit)
	assert.InDelta(t, 0.2, *row.MixCommit, 1e-9)

	require.NotNil(t, row.OppToWin)
	assert.InDelta(t, 1.0/3.0, *row.OppToWin, 1e-9)
	require.NotNil(t, row.AOV)
	assert.Equal(t, 60_000.0, *row.AOV)
}

func TestCompute_AbsentRatios(t *testing.T) {
	// No won, no lost: win rate is absent, not zero and not an error.
	g := model.NewRollupGroup("2026Q1", model.LevelRep, "rep1")
	g.Amounts[model.BucketPipeline] = 10_000
	g.Counts[model.BucketPipeline] = 2

	row := Compute(*g, 0)
	assert.Nil(t, row.WinRate)
	assert.Nil(t, row.Attainment) // zero quota
	assert.Nil(t, row.AOV)
	assert.Nil(t, row.PartnerContribution)
	assert.Nil(t, row.AvgCycleDaysWon)

	require.NotNil(t, row.MixPipeline)
	assert.Equal(t, 1.0, *row.MixPipeline)
}

func TestCompute_EmptyGroup(t *testing.T) {
	row := Compute(*model.NewRollupGroup("2026Q1", model.LevelRep, "rep1"), 0)
	assert.Zero(t, row.WonAmount)
	assert.Zero(t, row.TotalCount)
	assert.Nil(t, row.Attainment)
	assert.Nil(t, row.MixWon)
	assert.Nil(t, row.WinRate)
}

func TestCompute_PartnerMetrics(t *testing.T) {
	g := model.NewRollupGroup("2026Q1", model.LevelManager, "mgr1")
	g.Amounts[model.BucketWon] = 80_000
	g.Counts[model.BucketWon] = 2
	g.Amounts[model.BucketLost] = 20_000
	g.Counts[model.BucketLost] = 1
	g.PartnerClosedAmount = 50_000
	g.PartnerClosedCount = 2
	g.PartnerWonAmount = 40_000
	g.PartnerWonCount = 1

	row := Compute(*g, 0)
	require.NotNil(t, row.PartnerContribution)
	assert.InDelta(t, 0.5, *row.PartnerContribution, 1e-9)
	require.NotNil(t, row.PartnerWinRate)
	assert.InDelta(t, 0.5, *row.PartnerWinRate, 1e-9)
}

func TestCompute_CountWeightedCycleMean(t *testing.T) {
	// rep A: one 100-day won deal; rep B: four 10-day won deals. A manager
	// mean must weight by deal count: (100 + 4*10) / 5 = 28, not 55.
	g := model.NewRollupGroup("2026Q1", model.LevelManager, "mgr1")
	g.CycleDaySum[model.BucketWon] = 140
	g.CycleDayCount[model.BucketWon] = 5

	row := Compute(*g, 0)
	require.NotNil(t, row.AvgCycleDaysWon)
	assert.InDelta(t, 28.0, *row.AvgCycleDaysWon, 1e-9)
}

func TestComputeAll_QuotaLookup(t *testing.T) {
	g1 := model.NewRollupGroup("2026Q1", model.LevelRep, "rep1")
	g1.Amounts[model.BucketWon] = 50_000
	g1.Counts[model.BucketWon] = 1
	g2 := model.NewRollupGroup("2026Q1", model.LevelRep, "rep2")

	rows := ComputeAll(
		[]model.RollupGroup{*g1, *g2},
		map[string][]model.Quota{
			"rep1": {{EntityID: "rep1", PeriodKey: "2026Q1", Amount: 100_000}},
		},
	)
	require.Len(t, rows, 2)
	require.NotNil(t, rows[0].Attainment)
	assert.InDelta(t, 0.5, *rows[0].Attainment, 1e-9)
	assert.Nil(t, rows[1].Attainment) // no quota rows for rep2
}
