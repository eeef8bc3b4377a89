package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/revops-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite. It backs the local
// single-user mode where records arrive via workbook import.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS deals (
	id           TEXT PRIMARY KEY,
	rep_id       TEXT NOT NULL DEFAULT '',
	amount       REAL NOT NULL DEFAULT 0,
	stage        TEXT NOT NULL DEFAULT '',
	partner      TEXT NOT NULL DEFAULT '',
	created_at   DATETIME NOT NULL,
	closed_at    DATETIME,
	health_score REAL NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS quotas (
	entity_id     TEXT NOT NULL,
	period_key    TEXT NOT NULL,
	seq           INTEGER NOT NULL DEFAULT 0,
	amount        REAL NOT NULL DEFAULT 0,
	carry_forward REAL NOT NULL DEFAULT 0,
	adjusted      REAL NOT NULL DEFAULT 0,
	PRIMARY KEY (entity_id, period_key, seq)
);

CREATE TABLE IF NOT EXISTS reps (
	id        TEXT PRIMARY KEY,
	name      TEXT NOT NULL DEFAULT '',
	parent_id TEXT NOT NULL DEFAULT '',
	active    INTEGER NOT NULL DEFAULT 1
);

CREATE TABLE IF NOT EXISTS report_runs (
	id          TEXT PRIMARY KEY,
	period_key  TEXT NOT NULL,
	scope       TEXT NOT NULL DEFAULT '',
	window_mode TEXT NOT NULL DEFAULT '',
	fact_count  INTEGER NOT NULL DEFAULT 0,
	group_count INTEGER NOT NULL DEFAULT 0,
	duration_ms INTEGER NOT NULL DEFAULT 0,
	created_at  DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_deals_created_at ON deals(created_at);
CREATE INDEX IF NOT EXISTS idx_deals_closed_at ON deals(closed_at);
CREATE INDEX IF NOT EXISTS idx_quotas_period ON quotas(period_key);
CREATE INDEX IF NOT EXISTS idx_report_runs_period ON report_runs(period_key);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) UpsertDeals(ctx context.Context, deals []model.Deal) (int64, error) {
	return s.inTx(ctx, "sqlite: upsert deals", func(tx *sql.Tx) (int64, error) {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO deals (id, rep_id, amount, stage, partner, created_at, closed_at, health_score)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				rep_id = excluded.rep_id,
				amount = excluded.amount,
				stage = excluded.stage,
				partner = excluded.partner,
				created_at = excluded.created_at,
				closed_at = excluded.closed_at,
				health_score = excluded.health_score`)
		if err != nil {
			return 0, err
		}
		defer stmt.Close()

		var n int64
		for _, d := range deals {
			if _, err := stmt.ExecContext(ctx, d.ID, d.RepID, d.Amount, d.Stage, d.Partner, d.CreatedAt, d.ClosedAt, d.HealthScore); err != nil {
				return n, err
			}
			n++
		}
		return n, nil
	})
}

func (s *SQLiteStore) UpsertQuotas(ctx context.Context, quotas []model.Quota) (int64, error) {
	// A batch is authoritative for every (entity, period) it carries: stored
	// rows for those pairs are replaced, and same-pair rows within the batch
	// get sequence numbers so corrections accumulate. Pairs absent from the
	// batch are untouched, and re-importing a workbook is idempotent.
	return s.inTx(ctx, "sqlite: upsert quotas", func(tx *sql.Tx) (int64, error) {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO quotas (entity_id, period_key, seq, amount, carry_forward, adjusted)
			VALUES (?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return 0, err
		}
		defer stmt.Close()

		seq := map[string]int{}
		var n int64
		for _, q := range quotas {
			k := q.EntityID + "\x00" + q.PeriodKey
			if _, seen := seq[k]; !seen {
				if _, err := tx.ExecContext(ctx, `DELETE FROM quotas WHERE entity_id = ? AND period_key = ?`, q.EntityID, q.PeriodKey); err != nil {
					return n, err
				}
			}
			if _, err := stmt.ExecContext(ctx, q.EntityID, q.PeriodKey, seq[k], q.Amount, q.CarryForward, q.Adjusted); err != nil {
				return n, err
			}
			seq[k]++
			n++
		}
		return n, nil
	})
}

func (s *SQLiteStore) UpsertReps(ctx context.Context, reps []model.RepEntry) (int64, error) {
	return s.inTx(ctx, "sqlite: upsert reps", func(tx *sql.Tx) (int64, error) {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO reps (id, name, parent_id, active)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				name = excluded.name,
				parent_id = excluded.parent_id,
				active = excluded.active`)
		if err != nil {
			return 0, err
		}
		defer stmt.Close()

		var n int64
		for _, r := range reps {
			if _, err := stmt.ExecContext(ctx, r.ID, r.Name, r.ParentID, r.Active); err != nil {
				return n, err
			}
			n++
		}
		return n, nil
	})
}

func (s *SQLiteStore) Deals(ctx context.Context, start, end time.Time) ([]model.Deal, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, rep_id, amount, stage, partner, created_at, closed_at, health_score
		FROM deals
		WHERE (created_at BETWEEN ? AND ?)
		   OR (closed_at IS NOT NULL AND closed_at BETWEEN ? AND ?)
		ORDER BY created_at`,
		start, end, start, end,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: query deals")
	}
	defer rows.Close()

	var deals []model.Deal
	for rows.Next() {
		var d model.Deal
		var closedAt sql.NullTime
		if err := rows.Scan(&d.ID, &d.RepID, &d.Amount, &d.Stage, &d.Partner, &d.CreatedAt, &closedAt, &d.HealthScore); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan deal")
		}
		if closedAt.Valid {
			t := closedAt.Time
			d.ClosedAt = &t
		}
		deals = append(deals, d)
	}
	return deals, eris.Wrap(rows.Err(), "sqlite: iterate deals")
}

func (s *SQLiteStore) Quotas(ctx context.Context, periodKey string) ([]model.Quota, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT entity_id, period_key, amount, carry_forward, adjusted
		FROM quotas
		WHERE period_key = ?
		ORDER BY entity_id, seq`,
		periodKey,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: query quotas")
	}
	defer rows.Close()

	var quotas []model.Quota
	for rows.Next() {
		var q model.Quota
		if err := rows.Scan(&q.EntityID, &q.PeriodKey, &q.Amount, &q.CarryForward, &q.Adjusted); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan quota")
		}
		quotas = append(quotas, q)
	}
	return quotas, eris.Wrap(rows.Err(), "sqlite: iterate quotas")
}

func (s *SQLiteStore) Reps(ctx context.Context) ([]model.RepEntry, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, parent_id, active FROM reps ORDER BY id`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: query reps")
	}
	defer rows.Close()

	var reps []model.RepEntry
	for rows.Next() {
		var r model.RepEntry
		if err := rows.Scan(&r.ID, &r.Name, &r.ParentID, &r.Active); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan rep")
		}
		reps = append(reps, r)
	}
	return reps, eris.Wrap(rows.Err(), "sqlite: iterate reps")
}

func (s *SQLiteStore) SaveRun(ctx context.Context, run model.ReportRun) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO report_runs (id, period_key, scope, window_mode, fact_count, group_count, duration_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.PeriodKey, run.Scope, run.WindowMode, run.FactCount, run.GroupCount, run.DurationMS, run.CreatedAt,
	)
	return eris.Wrap(err, "sqlite: save run")
}

func (s *SQLiteStore) ListRuns(ctx context.Context, limit int) ([]model.ReportRun, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, period_key, scope, window_mode, fact_count, group_count, duration_ms, created_at
		FROM report_runs
		ORDER BY created_at DESC
		LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close()

	var runs []model.ReportRun
	for rows.Next() {
		var r model.ReportRun
		if err := rows.Scan(&r.ID, &r.PeriodKey, &r.Scope, &r.WindowMode, &r.FactCount, &r.GroupCount, &r.DurationMS, &r.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan run")
		}
		runs = append(runs, r)
	}
	return runs, eris.Wrap(rows.Err(), "sqlite: iterate runs")
}

// inTx runs fn inside a transaction, rolling back on error.
func (s *SQLiteStore) inTx(ctx context.Context, label string, fn func(tx *sql.Tx) (int64, error)) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrapf(err, "%s: begin tx", label)
	}

	n, err := fn(tx)
	if err != nil {
		_ = tx.Rollback()
		return 0, eris.Wrap(err, label)
	}
	if err := tx.Commit(); err != nil {
		return 0, eris.Wrapf(err, "%s: commit", label)
	}
	return n, nil
}
