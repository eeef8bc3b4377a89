// Package compare produces quarter-over-quarter deltas between two computed
// snapshots. Deltas are raw signed differences; which sign counts as an
// improvement is the caller's concern. Nullable inputs propagate: if either
// side of a ratio is absent its delta is absent, never zero.
package compare

import "github.com/sells-group/revops-cli/internal/model"

// KPIDelta holds signed differences for every numeric KPI field.
type KPIDelta struct {
	PeriodKey     string      `json:"period_key"`
	PrevPeriodKey string      `json:"prev_period_key"`
	Level         model.Level `json:"level"`
	EntityID      string      `json:"entity_id"`

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

// ScoreDelta holds signed differences for one motion's composite scores.
type ScoreDelta struct {
	PeriodKey     string `json:"period_key"`
	PrevPeriodKey string `json:"prev_period_key"`
	Motion        string `json:"motion"`

	WIC float64  `json:"wic"`
	PQS *float64 `json:"pqs,omitempty"`
	CEI *float64 `json:"cei,omitempty"`
}

// KPI returns curr - prev per field.
func KPI(curr, prev model.KPIRow) KPIDelta {
	return KPIDelta{
		PeriodKey:     curr.PeriodKey,
		PrevPeriodKey: prev.PeriodKey,
		Level:         curr.Level,
		EntityID:      curr.EntityID,

		QuotaAmount:    curr.QuotaAmount - prev.QuotaAmount,
		WonAmount:      curr.WonAmount - prev.WonAmount,
		LostAmount:     curr.LostAmount - prev.LostAmount,
		CommitAmount:   curr.CommitAmount - prev.CommitAmount,
		BestAmount:     curr.BestAmount - prev.BestAmount,
		PipelineAmount: curr.PipelineAmount - prev.PipelineAmount,
		WonCount:       curr.WonCount - prev.WonCount,
		LostCount:      curr.LostCount - prev.LostCount,
		TotalCount:     curr.TotalCount - prev.TotalCount,

		Attainment:          diff(curr.Attainment, prev.Attainment),
		WinRate:             diff(curr.WinRate, prev.WinRate),
		OppToWin:            diff(curr.OppToWin, prev.OppToWin),
		CommitCoverage:      diff(curr.CommitCoverage, prev.CommitCoverage),
		BestCoverage:        diff(curr.BestCoverage, prev.BestCoverage),
		AOV:                 diff(curr.AOV, prev.AOV),
		MixPipeline:         diff(curr.MixPipeline, prev.MixPipeline),
		MixBest:             diff(curr.MixBest, prev.MixBest),
		MixCommit:           diff(curr.MixCommit, prev.MixCommit),
		MixWon:              diff(curr.MixWon, prev.MixWon),
		PartnerContribution: diff(curr.PartnerContribution, prev.PartnerContribution),
		PartnerWinRate:      diff(curr.PartnerWinRate, prev.PartnerWinRate),
		AvgCycleDaysWon:     diff(curr.AvgCycleDaysWon, prev.AvgCycleDaysWon),
		AvgCycleDaysLost:    diff(curr.AvgCycleDaysLost, prev.AvgCycleDaysLost),
	}
}

// Score returns curr - prev per score field for one motion.
func Score(curr, prev model.ScoreRow) ScoreDelta {
	return ScoreDelta{
		PeriodKey:     curr.PeriodKey,
		PrevPeriodKey: prev.PeriodKey,
		Motion:        curr.Motion,
		WIC:           curr.WIC - prev.WIC,
		PQS:           diff(curr.PQS, prev.PQS),
		CEI:           diff(curr.CEI, prev.CEI),
	}
}

// KPIRows matches current rows to prior rows by (level, entity) and returns
// deltas for the pairs present on both sides.
func KPIRows(curr, prev []model.KPIRow) []KPIDelta {
	type key struct {
		level  model.Level
		entity string
	}
	prevByKey := make(map[key]model.KPIRow, len(prev))
	for _, r := range prev {
		prevByKey[key{r.Level, r.EntityID}] = r
	}

	var deltas []KPIDelta
	for _, r := range curr {
		if p, ok := prevByKey[key{r.Level, r.EntityID}]; ok {
			deltas = append(deltas, KPI(r, p))
		}
	}
	return deltas
}

// ScoreRows matches current score rows to prior rows by motion name.
func ScoreRows(curr, prev []model.ScoreRow) []ScoreDelta {
	prevByMotion := make(map[string]model.ScoreRow, len(prev))
	for _, r := range prev {
		prevByMotion[r.Motion] = r
	}

	var deltas []ScoreDelta
	for _, r := range curr {
		if p, ok := prevByMotion[r.Motion]; ok {
			deltas = append(deltas, Score(r, p))
		}
	}
	return deltas
}

// diff is the null-propagating signed difference.
func diff(curr, prev *float64) *float64 {
	if curr == nil || prev == nil {
		return nil
	}
	d := *curr - *prev
	return &d
}
