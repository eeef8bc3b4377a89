// Package fact converts raw deal records into normalized, immutable facts
// for one fiscal period. Bad records are coerced, never fatal: a single
// garbled deal must not abort a whole-period rollup.
package fact

import (
	"math"
	"time"

	"github.com/sells-group/revops-cli/internal/classify"
	"github.com/sells-group/revops-cli/internal/model"
)

// WindowMode selects how deals are admitted to a period's fact set.
type WindowMode string

const (
	// WindowClosedIn admits deals whose close date falls inside the period.
	// This is the attainment view: everything in it is a decided outcome.
	WindowClosedIn WindowMode = "closed_in"

	// WindowCreatedIn admits deals created inside the period. Bucket
	// membership is re-derived against the close date: a deal created and
	// closed in-window scores Won/Lost; one created in-window but still open
	// (or closing outside it) scores by its forecast bucket.
	WindowCreatedIn WindowMode = "created_in"
)

// Valid reports whether m is a known window mode.
func (m WindowMode) Valid() bool {
	return m == WindowClosedIn || m == WindowCreatedIn
}

const healthScale = 30.0

// Normalize converts a deal into a Fact for the given period, or reports
// exclusion. Amounts that are NaN/Inf coerce to 0; unparseable date pairs
// drop the age field rather than erroring.
func Normalize(d model.Deal, p model.Period, mode WindowMode) (model.Fact, bool) {
	bucket := classify.Classify(d.Stage)

	switch mode {
	case WindowCreatedIn:
		if !p.Contains(d.CreatedAt) {
			return model.Fact{}, false
		}
		// Re-derive against the close date: only a close inside this same
		// window counts as a decided outcome for this view.
		closedInWindow := d.ClosedAt != nil && p.Contains(*d.ClosedAt)
		if bucket.Closed() && !closedInWindow {
			bucket = model.BucketPipeline
		}
	default: // WindowClosedIn
		if d.ClosedAt == nil || !p.Contains(*d.ClosedAt) {
			return model.Fact{}, false
		}
	}

	f := model.Fact{
		DealID:    d.ID,
		RepID:     d.RepID,
		Bucket:    bucket,
		Amount:    safeAmount(d.Amount),
		Partner:   d.Partner,
		IsPartner: d.Partner != "",
	}

	if age, ok := ageDays(d.CreatedAt, d.ClosedAt); ok {
		f.AgeDays = &age
	}
	if h, ok := healthFraction(d.HealthScore); ok {
		f.Health = &h
	}
	return f, true
}

// NormalizeAll maps a deal slice into the period's fact set.
func NormalizeAll(deals []model.Deal, p model.Period, mode WindowMode) []model.Fact {
	facts := make([]model.Fact, 0, len(deals))
	for _, d := range deals {
		if f, ok := Normalize(d, p, mode); ok {
			facts = append(facts, f)
		}
	}
	return facts
}

func safeAmount(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// ageDays returns round((close-create)/86400s) clamped to >= 0.
func ageDays(created time.Time, closed *time.Time) (int, bool) {
	if closed == nil || created.IsZero() || closed.IsZero() {
		return 0, false
	}
	days := int(math.Round(closed.Sub(created).Seconds() / 86400))
	if days < 0 {
		days = 0
	}
	return days, true
}

// healthFraction maps the 0-30 health score to [0,1]. A score <= 0 is the
// "not scored" sentinel, not a real zero.
func healthFraction(score float64) (float64, bool) {
	if score <= 0 || math.IsNaN(score) || math.IsInf(score, 0) {
		return 0, false
	}
	h := score / healthScale
	if h > 1 {
		h = 1
	}
	return h, true
}
