// Package report orchestrates a rollup run: load records, normalize deals
// into facts, aggregate through the hierarchy, then compute KPIs and channel
// scores. It is the only layer that touches both the store and the engine
// packages.
package report

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/revops-cli/internal/channel"
	"github.com/sells-group/revops-cli/internal/compare"
	"github.com/sells-group/revops-cli/internal/fact"
	"github.com/sells-group/revops-cli/internal/hierarchy"
	"github.com/sells-group/revops-cli/internal/kpi"
	"github.com/sells-group/revops-cli/internal/model"
	"github.com/sells-group/revops-cli/internal/rollup"
	"github.com/sells-group/revops-cli/internal/store"
)

// Engine wires the store to the computation pipeline.
type Engine struct {
	store   store.Store
	mode    fact.WindowMode
	weights channel.Weights
}

// NewEngine constructs an Engine. The window mode and score weights are fixed
// for the engine's lifetime; build a new one to change them.
func NewEngine(st store.Store, mode fact.WindowMode, w channel.Weights) *Engine {
	return &Engine{store: st, mode: mode, weights: w}
}

// Result is the output of one rollup run.
type Result struct {
	RunID      string           `json:"run_id"`
	Period     model.Period     `json:"period"`
	WindowMode fact.WindowMode  `json:"window_mode"`
	KPIs       []model.KPIRow   `json:"kpis"`
	Scores     []model.ScoreRow `json:"scores"`
	FactCount  int              `json:"fact_count"`
	CyclicReps []string         `json:"cyclic_reps,omitempty"`
}

// Comparison pairs two runs a quarter apart with their deltas.
type Comparison struct {
	Current     *Result              `json:"current"`
	Previous    *Result              `json:"previous"`
	KPIDeltas   []compare.KPIDelta   `json:"kpi_deltas"`
	ScoreDeltas []compare.ScoreDelta `json:"score_deltas"`
}

// Run executes a full rollup for one quarter and records it in run history.
func (e *Engine) Run(ctx context.Context, periodKey string, scope rollup.Scope) (*Result, error) {
	started := time.Now()

	res, err := e.run(ctx, periodKey, scope)
	if err != nil {
		return nil, err
	}
	res.RunID = uuid.NewString()

	run := model.ReportRun{
		ID:         res.RunID,
		PeriodKey:  res.Period.Key,
		Scope:      scope.String(),
		WindowMode: string(e.mode),
		FactCount:  res.FactCount,
		GroupCount: len(res.KPIs),
		DurationMS: time.Since(started).Milliseconds(),
		CreatedAt:  time.Now().UTC(),
	}
	if err := e.store.SaveRun(ctx, run); err != nil {
		return nil, eris.Wrap(err, "report: save run")
	}

	zap.L().Info("rollup run complete",
		zap.String("run_id", res.RunID),
		zap.String("period", res.Period.Key),
		zap.Int("facts", res.FactCount),
		zap.Int("groups", len(res.KPIs)),
		zap.Duration("took", time.Since(started)),
	)
	return res, nil
}

// Compare runs the given quarter and its predecessor, then computes
// quarter-over-quarter deltas. Neither run is recorded in history.
func (e *Engine) Compare(ctx context.Context, periodKey string, scope rollup.Scope) (*Comparison, error) {
	p, err := model.ParsePeriod(periodKey)
	if err != nil {
		return nil, eris.Wrap(err, "report: compare")
	}
	prev := p.Prev()

	var curr, last *Result
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		curr, err = e.run(gctx, p.Key, scope)
		return err
	})
	g.Go(func() error {
		var err error
		last, err = e.run(gctx, prev.Key, scope)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &Comparison{
		Current:     curr,
		Previous:    last,
		KPIDeltas:   compare.KPIRows(curr.KPIs, last.KPIs),
		ScoreDeltas: compare.ScoreRows(curr.Scores, last.Scores),
	}, nil
}

// run performs the computation without touching run history.
func (e *Engine) run(ctx context.Context, periodKey string, scope rollup.Scope) (*Result, error) {
	p, err := model.ParsePeriod(periodKey)
	if err != nil {
		return nil, eris.Wrap(err, "report: run")
	}

	var (
		deals  []model.Deal
		quotas []model.Quota
		reps   []model.RepEntry
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		deals, err = e.store.Deals(gctx, p.Start, p.End)
		return err
	})
	g.Go(func() error {
		var err error
		quotas, err = e.store.Quotas(gctx, p.Key)
		return err
	})
	g.Go(func() error {
		var err error
		reps, err = e.store.Reps(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, eris.Wrap(err, "report: load records")
	}

	idx, err := hierarchy.BuildIndex(reps)
	var cyclic []string
	if err != nil {
		var ce *hierarchy.CycleError
		if !errors.As(err, &ce) {
			return nil, eris.Wrap(err, "report: build hierarchy")
		}
		// Cyclic reps roll up as unassigned; the run proceeds.
		cyclic = ce.RepIDs
		zap.L().Warn("hierarchy contains cycles",
			zap.Strings("rep_ids", cyclic),
			zap.String("period", p.Key),
		)
	}

	// Scope applies to everything downstream: aggregation, channel scoring,
	// and the fact count recorded in run history.
	facts := scope.Filter(fact.NormalizeAll(deals, p, e.mode))
	groups := rollup.Aggregate(facts, idx, p.Key, scope)
	kpis := kpi.ComputeAll(groups, quotasByEntity(quotas))

	motions := channel.BuildMotions(facts)
	scores := channel.Score(p.Key, motions, e.weights)

	return &Result{
		Period:     p,
		WindowMode: e.mode,
		KPIs:       kpis,
		Scores:     scores,
		FactCount:  len(facts),
		CyclicReps: cyclic,
	}, nil
}

func quotasByEntity(quotas []model.Quota) map[string][]model.Quota {
	m := make(map[string][]model.Quota, len(quotas))
	for _, q := range quotas {
		m[q.EntityID] = append(m[q.EntityID], q)
	}
	return m
}
