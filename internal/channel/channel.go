// Package channel computes the composite channel-health scores used for
// invest/deprioritize recommendations: Weighted Investment Coverage (WIC),
// Partner Quality Score (PQS) and the Channel Efficiency Index (CEI).
//
// Scoring is cross-sectional: normalization ranges come from the full set
// of motions in one period, so the model is a two-pass batch computation
// (collect extrema, then score) and never scores a motion in isolation.
// Inputs are never mutated and nothing is memoized across periods.
package channel

import (
	"math"
	"sort"

	"github.com/sells-group/revops-cli/internal/kpi"
	"github.com/sells-group/revops-cli/internal/model"
)

// WIC bands.
const (
	BandInvest       = "Invest Aggressively"
	BandScale        = "Scale Selectively"
	BandMaintain     = "Maintain"
	BandDeprioritize = "Deprioritize"
)

// CEI status bands on the Direct-indexed score.
const (
	CEIHigh     = "High"
	CEIMedium   = "Medium"
	CEILow      = "Low"
	CEICritical = "Critical"
)

// DirectMotion names the house (non-partner) motion.
const DirectMotion = "Direct"

// Normalize maps v into [0,1] against [min,max], returning 0.5 when the
// range is degenerate or any input is non-finite: a flat comparison is
// safer than an exploding one.
func Normalize(v, min, max float64) float64 {
	if !finite(v) || !finite(min) || !finite(max) || min == max {
		return 0.5
	}
	return clamp01((v - min) / (max - min))
}

// BuildMotions groups one scope's facts into motion inputs: one Direct
// motion plus one per distinct partner name. DealCount counts closed deals;
// health is the mean fraction across scored facts.
func BuildMotions(facts []model.Fact) []model.MotionInput {
	type acc struct {
		open, won, lost     float64
		wonCount, lostCount int
		healthSum           float64
		healthCount         int
		cycleSum            float64
		cycleCount          int
	}
	byName := map[string]*acc{}

	name := func(f *model.Fact) string {
		if f.IsPartner {
			return f.Partner
		}
		return DirectMotion
	}

	for i := range facts {
		f := &facts[i]
		a := byName[name(f)]
		if a == nil {
			a = &acc{}
			byName[name(f)] = a
		}
		switch {
		case f.Bucket.Active():
			a.open += f.Amount
		case f.Bucket == model.BucketWon:
			a.won += f.Amount
			a.wonCount++
		case f.Bucket == model.BucketLost:
			a.lost += f.Amount
			a.lostCount++
		}
		if f.Health != nil {
			a.healthSum += *f.Health
			a.healthCount++
		}
		if f.Bucket.Closed() && f.AgeDays != nil {
			a.cycleSum += float64(*f.AgeDays)
			a.cycleCount++
		}
	}

	motions := make([]model.MotionInput, 0, len(byName))
	for n, a := range byName {
		m := model.MotionInput{
			Name:         n,
			Direct:       n == DirectMotion,
			OpenPipeline: a.open,
			WonAmount:    a.won,
			WinRate:      kpi.SafeDiv(float64(a.wonCount), float64(a.wonCount+a.lostCount)),
			Health:       kpi.SafeDiv(a.healthSum, float64(a.healthCount)),
			AvgCycleDays: kpi.SafeDiv(a.cycleSum, float64(a.cycleCount)),
			AOV:          kpi.SafeDiv(a.won, float64(a.wonCount)),
			DealCount:    a.wonCount + a.lostCount,
		}
		motions = append(motions, m)
	}
	sort.Slice(motions, func(i, j int) bool {
		// Direct first, then partners by name.
		if motions[i].Direct != motions[j].Direct {
			return motions[i].Direct
		}
		return motions[i].Name < motions[j].Name
	})
	return motions
}

// extrema holds min/max pairs collected in the first pass.
type extrema struct {
	min, max float64
	seen     bool
}

func (e *extrema) add(v float64) {
	if !finite(v) {
		return
	}
	if !e.seen {
		e.min, e.max, e.seen = v, v, true
		return
	}
	if v < e.min {
		e.min = v
	}
	if v > e.max {
		e.max = v
	}
}

// norm scores v against the collected range; unseen ranges are degenerate.
func (e *extrema) norm(v float64) float64 {
	if !e.seen {
		return 0.5
	}
	return Normalize(v, e.min, e.max)
}

// Score computes WIC for every motion, PQS for partner motions, and CEI
// indexed so Direct = 100. The motion set is the full comparison universe
// for one period and scope.
func Score(periodKey string, motions []model.MotionInput, w Weights) []model.ScoreRow {
	// Pass one: extrema. WIC ranges span all motions including Direct; PQS
	// ranges are partner-only so Direct's economics don't skew partner
	// comparisons.
	var allPipe, allDays, allAOV, pDays, pAOV extrema
	for i := range motions {
		m := &motions[i]
		allPipe.add(m.OpenPipeline)
		if m.AvgCycleDays != nil {
			allDays.add(*m.AvgCycleDays)
		}
		if m.AOV != nil {
			allAOV.add(*m.AOV)
		}
		if !m.Direct {
			if m.AvgCycleDays != nil {
				pDays.add(*m.AvgCycleDays)
			}
			if m.AOV != nil {
				pAOV.add(*m.AOV)
			}
		}
	}

	directRaw := 0.0
	for i := range motions {
		if motions[i].Direct {
			directRaw = ceiRaw(&motions[i])
		}
	}

	rows := make([]model.ScoreRow, 0, len(motions))
	for i := range motions {
		m := &motions[i]
		wic := wicScore(m, w, &allPipe, &allDays, &allAOV)

		row := model.ScoreRow{
			PeriodKey: periodKey,
			Motion:    m.Name,
			Direct:    m.Direct,
			WIC:       wic,
			WICBand:   wicBand(wic),
			Inputs:    *m,
		}

		if !m.Direct {
			pqs := pqsScore(m, w, &pDays, &pAOV)
			row.PQS = &pqs
		}

		if m.Direct {
			// Direct is its own baseline by definition.
			cei := 100.0
			row.CEI = &cei
			row.CEIStatus = ceiStatus(cei)
		} else if directRaw > 0 {
			cei := ceiRaw(m) / directRaw * 100
			row.CEI = &cei
			row.CEIStatus = ceiStatus(cei)
		}
		// Partner CEI stays absent when the Direct baseline is zero: an
		// index against a zero baseline is meaningless, not infinite.

		rows = append(rows, row)
	}
	return rows
}

// wicScore is the weighted sum of four normalized components, scaled x100.
func wicScore(m *model.MotionInput, w Weights, pipe, days, aov *extrema) float64 {
	growth := pipe.norm(m.OpenPipeline)

	// Win quality: win rate damped by health; absent health falls back to
	// win rate alone, never to zero.
	winQuality := 0.0
	if m.WinRate != nil {
		winQuality = *m.WinRate
		if m.Health != nil {
			winQuality *= *m.Health
		}
	}

	velocity := 0.5
	if m.AvgCycleDays != nil {
		velocity = 1 - days.norm(*m.AvgCycleDays)
	}

	economics := 0.5
	if m.AOV != nil {
		economics = aov.norm(*m.AOV)
	}

	raw := w.WIC.GrowthCapacity*growth +
		w.WIC.WinQuality*winQuality +
		w.WIC.VelocityEfficiency*velocity +
		w.WIC.DealEconomics*economics
	return clamp(raw*100, 0, 100)
}

// pqsScore uses partner-only ranges for deal size and velocity so the house
// motion's economics never skew partner-to-partner comparison.
func pqsScore(m *model.MotionInput, w Weights, pDays, pAOV *extrema) float64 {
	winRate := 0.0
	if m.WinRate != nil {
		winRate = *m.WinRate
	}

	dealSize := 0.5
	if m.AOV != nil {
		dealSize = pAOV.norm(*m.AOV)
	}

	velocityPenalty := 0.5
	if m.AvgCycleDays != nil {
		velocityPenalty = pDays.norm(*m.AvgCycleDays)
	}

	confidence := confidenceFactor(m.DealCount)

	raw := w.PQS.WinRate*winRate +
		w.PQS.DealSize*dealSize +
		w.PQS.Confidence*confidence -
		w.PQS.VelocityPenalty*velocityPenalty
	return clamp(raw*100, 0, 100)
}

// confidenceFactor saturates at 1.0 around nine closed deals: ln(n+1)/ln(10).
func confidenceFactor(dealCount int) float64 {
	if dealCount <= 0 {
		return 0
	}
	return math.Min(1, math.Log(float64(dealCount)+1)/math.Log(10))
}

// ceiRaw = revenue velocity x quality multiplier.
func ceiRaw(m *model.MotionInput) float64 {
	velocity := 0.0
	if m.AvgCycleDays != nil && *m.AvgCycleDays > 0 {
		velocity = m.WonAmount / *m.AvgCycleDays
	}

	quality := 0.0
	if m.WinRate != nil {
		quality = *m.WinRate
		if m.Health != nil {
			quality *= *m.Health
		}
	}
	return velocity * quality
}

func wicBand(score float64) string {
	switch {
	case score >= 80:
		return BandInvest
	case score >= 60:
		return BandScale
	case score >= 40:
		return BandMaintain
	default:
		return BandDeprioritize
	}
}

func ceiStatus(indexed float64) string {
	switch {
	case indexed >= 120:
		return CEIHigh
	case indexed >= 90:
		return CEIMedium
	case indexed >= 70:
		return CEILow
	default:
		return CEICritical
	}
}

func clamp01(v float64) float64 { return clamp(v, 0, 1) }

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
