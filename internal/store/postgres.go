package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/revops-cli/internal/db"
	"github.com/sells-group/revops-cli/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool db.Pool
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, maxConns int32) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	if maxConns > 0 {
		pgxCfg.MaxConns = maxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}

	return &PostgresStore{pool: pool}, nil
}

// NewPostgresWithPool wraps an existing pool; used by tests with pgxmock.
func NewPostgresWithPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS deals (
	id           TEXT PRIMARY KEY,
	rep_id       TEXT NOT NULL DEFAULT '',
	amount       DOUBLE PRECISION NOT NULL DEFAULT 0,
	stage        TEXT NOT NULL DEFAULT '',
	partner      TEXT NOT NULL DEFAULT '',
	created_at   TIMESTAMPTZ NOT NULL,
	closed_at    TIMESTAMPTZ,
	health_score DOUBLE PRECISION NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS quotas (
	entity_id     TEXT NOT NULL,
	period_key    TEXT NOT NULL,
	seq           INTEGER NOT NULL DEFAULT 0,
	amount        DOUBLE PRECISION NOT NULL DEFAULT 0,
	carry_forward DOUBLE PRECISION NOT NULL DEFAULT 0,
	adjusted      DOUBLE PRECISION NOT NULL DEFAULT 0,
	PRIMARY KEY (entity_id, period_key, seq)
);

CREATE TABLE IF NOT EXISTS reps (
	id        TEXT PRIMARY KEY,
	name      TEXT NOT NULL DEFAULT '',
	parent_id TEXT NOT NULL DEFAULT '',
	active    BOOLEAN NOT NULL DEFAULT true
);

CREATE TABLE IF NOT EXISTS report_runs (
	id          TEXT PRIMARY KEY,
	period_key  TEXT NOT NULL,
	scope       TEXT NOT NULL DEFAULT '',
	window_mode TEXT NOT NULL DEFAULT '',
	fact_count  INTEGER NOT NULL DEFAULT 0,
	group_count INTEGER NOT NULL DEFAULT 0,
	duration_ms BIGINT NOT NULL DEFAULT 0,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_deals_created_at ON deals(created_at);
CREATE INDEX IF NOT EXISTS idx_deals_closed_at ON deals(closed_at);
CREATE INDEX IF NOT EXISTS idx_quotas_period ON quotas(period_key);
CREATE INDEX IF NOT EXISTS idx_report_runs_period ON report_runs(period_key);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) UpsertDeals(ctx context.Context, deals []model.Deal) (int64, error) {
	rows := make([][]any, 0, len(deals))
	for _, d := range deals {
		rows = append(rows, []any{d.ID, d.RepID, d.Amount, d.Stage, d.Partner, d.CreatedAt, d.ClosedAt, d.HealthScore})
	}
	n, err := db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table:        "deals",
		Columns:      []string{"id", "rep_id", "amount", "stage", "partner", "created_at", "closed_at", "health_score"},
		ConflictKeys: []string{"id"},
	}, rows)
	return n, eris.Wrap(err, "postgres: upsert deals")
}

func (s *PostgresStore) UpsertQuotas(ctx context.Context, quotas []model.Quota) (int64, error) {
	// A batch is authoritative for every (entity, period) it carries: stored
	// rows for those pairs are replaced, and same-pair rows within the batch
	// get sequence numbers so corrections accumulate. Pairs absent from the
	// batch are untouched, and re-importing a workbook is idempotent.
	if len(quotas) == 0 {
		return 0, nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: upsert quotas: begin tx")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	seq := map[string]int{}
	rows := make([][]any, 0, len(quotas))
	for _, q := range quotas {
		k := q.EntityID + "\x00" + q.PeriodKey
		if _, seen := seq[k]; !seen {
			if _, err := tx.Exec(ctx, `DELETE FROM quotas WHERE entity_id = $1 AND period_key = $2`, q.EntityID, q.PeriodKey); err != nil {
				return 0, eris.Wrap(err, "postgres: upsert quotas: clear pair")
			}
		}
		rows = append(rows, []any{q.EntityID, q.PeriodKey, seq[k], q.Amount, q.CarryForward, q.Adjusted})
		seq[k]++
	}

	n, err := tx.CopyFrom(ctx, pgx.Identifier{"quotas"},
		[]string{"entity_id", "period_key", "seq", "amount", "carry_forward", "adjusted"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: upsert quotas: copy")
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, eris.Wrap(err, "postgres: upsert quotas: commit")
	}
	return n, nil
}

func (s *PostgresStore) UpsertReps(ctx context.Context, reps []model.RepEntry) (int64, error) {
	rows := make([][]any, 0, len(reps))
	for _, r := range reps {
		rows = append(rows, []any{r.ID, r.Name, r.ParentID, r.Active})
	}
	n, err := db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table:        "reps",
		Columns:      []string{"id", "name", "parent_id", "active"},
		ConflictKeys: []string{"id"},
	}, rows)
	return n, eris.Wrap(err, "postgres: upsert reps")
}

func (s *PostgresStore) Deals(ctx context.Context, start, end time.Time) ([]model.Deal, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, rep_id, amount, stage, partner, created_at, closed_at, health_score
		FROM deals
		WHERE (created_at BETWEEN $1 AND $2)
		   OR (closed_at IS NOT NULL AND closed_at BETWEEN $1 AND $2)
		ORDER BY created_at`,
		start, end,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: query deals")
	}
	defer rows.Close()

	var deals []model.Deal
	for rows.Next() {
		var d model.Deal
		if err := rows.Scan(&d.ID, &d.RepID, &d.Amount, &d.Stage, &d.Partner, &d.CreatedAt, &d.ClosedAt, &d.HealthScore); err != nil {
			return nil, eris.Wrap(err, "postgres: scan deal")
		}
		deals = append(deals, d)
	}
	return deals, eris.Wrap(rows.Err(), "postgres: iterate deals")
}

func (s *PostgresStore) Quotas(ctx context.Context, periodKey string) ([]model.Quota, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT entity_id, period_key, amount, carry_forward, adjusted
		FROM quotas
		WHERE period_key = $1
		ORDER BY entity_id, seq`,
		periodKey,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: query quotas")
	}
	defer rows.Close()

	var quotas []model.Quota
	for rows.Next() {
		var q model.Quota
		if err := rows.Scan(&q.EntityID, &q.PeriodKey, &q.Amount, &q.CarryForward, &q.Adjusted); err != nil {
			return nil, eris.Wrap(err, "postgres: scan quota")
		}
		quotas = append(quotas, q)
	}
	return quotas, eris.Wrap(rows.Err(), "postgres: iterate quotas")
}

func (s *PostgresStore) Reps(ctx context.Context) ([]model.RepEntry, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, name, parent_id, active FROM reps ORDER BY id`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: query reps")
	}
	defer rows.Close()

	var reps []model.RepEntry
	for rows.Next() {
		var r model.RepEntry
		if err := rows.Scan(&r.ID, &r.Name, &r.ParentID, &r.Active); err != nil {
			return nil, eris.Wrap(err, "postgres: scan rep")
		}
		reps = append(reps, r)
	}
	return reps, eris.Wrap(rows.Err(), "postgres: iterate reps")
}

func (s *PostgresStore) SaveRun(ctx context.Context, run model.ReportRun) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO report_runs (id, period_key, scope, window_mode, fact_count, group_count, duration_ms, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		run.ID, run.PeriodKey, run.Scope, run.WindowMode, run.FactCount, run.GroupCount, run.DurationMS, run.CreatedAt,
	)
	return eris.Wrap(err, "postgres: save run")
}

func (s *PostgresStore) ListRuns(ctx context.Context, limit int) ([]model.ReportRun, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx, `
		SELECT id, period_key, scope, window_mode, fact_count, group_count, duration_ms, created_at
		FROM report_runs
		ORDER BY created_at DESC
		LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list runs")
	}
	defer rows.Close()

	var runs []model.ReportRun
	for rows.Next() {
		var r model.ReportRun
		if err := rows.Scan(&r.ID, &r.PeriodKey, &r.Scope, &r.WindowMode, &r.FactCount, &r.GroupCount, &r.DurationMS, &r.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan run")
		}
		runs = append(runs, r)
	}
	return runs, eris.Wrap(rows.Err(), "postgres: iterate runs")
}
