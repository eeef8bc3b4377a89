package fact

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/revops-cli/internal/model"
)

func q1() model.Period {
	p, err := model.ParsePeriod("2026Q1")
	if err != nil {
		panic(err)
	}
	return p
}

func ts(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t
}

func tsp(s string) *time.Time {
	t := ts(s)
	return &t
}

func TestNormalize_ClosedInWindow(t *testing.T) {
	d := model.Deal{
		ID:        "d1",
		RepID:     "r1",
		Amount:    60_000,
		Stage:     "Closed Won",
		CreatedAt: ts("2026-01-05T00:00:00Z"),
		ClosedAt:  tsp("2026-02-04T00:00:00Z"),
	}

	f, ok := Normalize(d, q1(), WindowClosedIn)
	require.True(t, ok)
	assert.Equal(t, model.BucketWon, f.Bucket)
	assert.Equal(t, 60_000.0, f.Amount)
	require.NotNil(t, f.AgeDays)
	assert.Equal(t, 30, *f.AgeDays)
	assert.False(t, f.IsPartner)
	assert.Nil(t, f.Health)
}

func TestNormalize_OpenDealExcludedFromClosedView(t *testing.T) {
	d := model.Deal{ID: "d1", Stage: "Commit", CreatedAt: ts("2026-01-05T00:00:00Z")}
	_, ok := Normalize(d, q1(), WindowClosedIn)
	assert.False(t, ok)
}

func TestNormalize_CloseOutsidePeriodExcluded(t *testing.T) {
	d := model.Deal{
		ID:        "d1",
		Stage:     "Closed Won",
		CreatedAt: ts("2026-01-05T00:00:00Z"),
		ClosedAt:  tsp("2026-04-01T00:00:00Z"),
	}
	_, ok := Normalize(d, q1(), WindowClosedIn)
	assert.False(t, ok)
}

func TestNormalize_CreatedInWindow_Reclassifies(t *testing.T) {
	p := q1()

	// Created and closed this quarter: keeps its outcome bucket.
	closed := model.Deal{
		ID: "a", Stage: "Closed Won",
		CreatedAt: ts("2026-01-10T00:00:00Z"),
		ClosedAt:  tsp("2026-03-01T00:00:00Z"),
	}
	f, ok := Normalize(closed, p, WindowCreatedIn)
	require.True(t, ok)
	assert.Equal(t, model.BucketWon, f.Bucket)

	// Created this quarter, won next quarter: not a Q1 outcome, demoted to
	// pipeline for the created-in view.
	laterClose := closed
	laterClose.ClosedAt = tsp("2026-04-15T00:00:00Z")
	f, ok = Normalize(laterClose, p, WindowCreatedIn)
	require.True(t, ok)
	assert.Equal(t, model.BucketPipeline, f.Bucket)

	// Created this quarter, still open: scored by forecast bucket.
	open := model.Deal{ID: "b", Stage: "Best Case", CreatedAt: ts("2026-02-01T00:00:00Z")}
	f, ok = Normalize(open, p, WindowCreatedIn)
	require.True(t, ok)
	assert.Equal(t, model.BucketBest, f.Bucket)

	// Created last quarter: excluded regardless of stage.
	stale := model.Deal{ID: "c", Stage: "Commit", CreatedAt: ts("2025-11-01T00:00:00Z")}
	_, ok = Normalize(stale, p, WindowCreatedIn)
	assert.False(t, ok)
}

func TestNormalize_DefensiveAmount(t *testing.T) {
	d := model.Deal{
		ID: "d1", Stage: "Closed Won", Amount: math.NaN(),
		CreatedAt: ts("2026-01-05T00:00:00Z"),
		ClosedAt:  tsp("2026-01-06T00:00:00Z"),
	}
	f, ok := Normalize(d, q1(), WindowClosedIn)
	require.True(t, ok)
	assert.Zero(t, f.Amount)

	d.Amount = math.Inf(1)
	f, _ = Normalize(d, q1(), WindowClosedIn)
	assert.Zero(t, f.Amount)
}

func TestNormalize_AgeClampedNonNegative(t *testing.T) {
	// Close before create happens with hand-edited CRM data.
	d := model.Deal{
		ID: "d1", Stage: "Closed Lost",
		CreatedAt: ts("2026-02-10T00:00:00Z"),
		ClosedAt:  tsp("2026-02-01T00:00:00Z"),
	}
	f, ok := Normalize(d, q1(), WindowClosedIn)
	require.True(t, ok)
	require.NotNil(t, f.AgeDays)
	assert.Equal(t, 0, *f.AgeDays)
}

func TestNormalize_HealthFraction(t *testing.T) {
	base := model.Deal{
		ID: "d1", Stage: "Closed Won",
		CreatedAt: ts("2026-01-05T00:00:00Z"),
		ClosedAt:  tsp("2026-01-20T00:00:00Z"),
	}

	// 0 is the "not scored" sentinel.
	f, _ := Normalize(base, q1(), WindowClosedIn)
	assert.Nil(t, f.Health)

	scored := base
	scored.HealthScore = 15
	f, _ = Normalize(scored, q1(), WindowClosedIn)
	require.NotNil(t, f.Health)
	assert.InDelta(t, 0.5, *f.Health, 1e-9)

	// Out-of-range scores clamp to 1.
	scored.HealthScore = 45
	f, _ = Normalize(scored, q1(), WindowClosedIn)
	require.NotNil(t, f.Health)
	assert.Equal(t, 1.0, *f.Health)
}

func TestNormalize_PartnerFlag(t *testing.T) {
	d := model.Deal{
		ID: "d1", Stage: "Closed Won", Partner: "Acme Resellers",
		CreatedAt: ts("2026-01-05T00:00:00Z"),
		ClosedAt:  tsp("2026-01-20T00:00:00Z"),
	}
	f, ok := Normalize(d, q1(), WindowClosedIn)
	require.True(t, ok)
	assert.True(t, f.IsPartner)
	assert.Equal(t, "Acme Resellers", f.Partner)
}

func TestNormalizeAll(t *testing.T) {
	deals := []model.Deal{
		{ID: "a", Stage: "Closed Won", CreatedAt: ts("2026-01-05T00:00:00Z"), ClosedAt: tsp("2026-01-20T00:00:00Z")},
		{ID: "b", Stage: "Commit", CreatedAt: ts("2026-01-05T00:00:00Z")}, // open, excluded
	}
	facts := NormalizeAll(deals, q1(), WindowClosedIn)
	require.Len(t, facts, 1)
	assert.Equal(t, "a", facts[0].DealID)
}
