// Package store implements the upstream record provider: persistence for
// deal, quota and rep-directory records plus a run history. The engine
// itself never touches a database; it consumes the slices these providers
// return.
package store

import (
	"context"
	"time"

	"github.com/sells-group/revops-cli/internal/model"
)

// Store defines the persistence interface for the rollup engine's inputs.
// Read methods assume org scoping was applied upstream.
type Store interface {
	// Records
	UpsertDeals(ctx context.Context, deals []model.Deal) (int64, error)
	UpsertQuotas(ctx context.Context, quotas []model.Quota) (int64, error)
	UpsertReps(ctx context.Context, reps []model.RepEntry) (int64, error)

	// Deals returns deals whose create or close date falls in [start, end].
	// Both windowing modes draw from this superset; the fact normalizer
	// applies the precise admission rule.
	Deals(ctx context.Context, start, end time.Time) ([]model.Deal, error)
	Quotas(ctx context.Context, periodKey string) ([]model.Quota, error)
	Reps(ctx context.Context) ([]model.RepEntry, error)

	// Run history
	SaveRun(ctx context.Context, run model.ReportRun) error
	ListRuns(ctx context.Context, limit int) ([]model.ReportRun, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
