package store

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/revops-cli/internal/model"
)

func TestPostgresDeals(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	start := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 6, 30, 23, 59, 59, 0, time.UTC)
	closed := time.Date(2025, 5, 15, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery("SELECT id, rep_id, amount, stage, partner, created_at, closed_at, health_score").
		WithArgs(start, end).
		WillReturnRows(pgxmock.NewRows([]string{"id", "rep_id", "amount", "stage", "partner", "created_at", "closed_at", "health_score"}).
			AddRow("d1", "rep-1", 50000.0, "Closed Won", "", start, &closed, 22.0).
			AddRow("d2", "rep-2", 12000.0, "Commit - Q2", "Acme Partners", start, (*time.Time)(nil), 0.0))

	s := NewPostgresWithPool(mock)
	deals, err := s.Deals(context.Background(), start, end)
	require.NoError(t, err)
	require.Len(t, deals, 2)

	assert.Equal(t, "d1", deals[0].ID)
	require.NotNil(t, deals[0].ClosedAt)
	assert.Equal(t, closed, *deals[0].ClosedAt)
	assert.Nil(t, deals[1].ClosedAt)
	assert.Equal(t, "Acme Partners", deals[1].Partner)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresQuotas(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("SELECT entity_id, period_key, amount, carry_forward, adjusted").
		WithArgs("2025Q2").
		WillReturnRows(pgxmock.NewRows([]string{"entity_id", "period_key", "amount", "carry_forward", "adjusted"}).
			AddRow("rep-1", "2025Q2", 100000.0, 0.0, 0.0).
			AddRow("rep-1", "2025Q2", 0.0, 5000.0, 0.0))

	s := NewPostgresWithPool(mock)
	quotas, err := s.Quotas(context.Background(), "2025Q2")
	require.NoError(t, err)
	require.Len(t, quotas, 2)
	assert.Equal(t, 100000.0, quotas[0].Amount)
	assert.Equal(t, 5000.0, quotas[1].CarryForward)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresUpsertQuotasReplacesBatchPairs(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	// One DELETE per distinct (entity, period) pair, then a single COPY of
	// the sequence-numbered batch.
	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM quotas").
		WithArgs("rep-1", "2025Q2").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectExec("DELETE FROM quotas").
		WithArgs("rep-2", "2025Q2").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectCopyFrom(pgx.Identifier{"quotas"},
		[]string{"entity_id", "period_key", "seq", "amount", "carry_forward", "adjusted"}).
		WillReturnResult(3)
	mock.ExpectCommit()
	mock.ExpectRollback()

	s := NewPostgresWithPool(mock)
	n, err := s.UpsertQuotas(context.Background(), []model.Quota{
		{EntityID: "rep-1", PeriodKey: "2025Q2", Amount: 100000},
		{EntityID: "rep-1", PeriodKey: "2025Q2", CarryForward: 5000},
		{EntityID: "rep-2", PeriodKey: "2025Q2", Amount: 80000},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresReps(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("SELECT id, name, parent_id, active FROM reps").
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "parent_id", "active"}).
			AddRow("rep-1", "Dana", "mgr-1", true).
			AddRow("mgr-1", "Morgan", "", true))

	s := NewPostgresWithPool(mock)
	reps, err := s.Reps(context.Background())
	require.NoError(t, err)
	require.Len(t, reps, 2)
	assert.Equal(t, "mgr-1", reps[0].ParentID)
	assert.Empty(t, reps[1].ParentID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSaveAndListRuns(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	now := time.Now().UTC().Truncate(time.Second)

	mock.ExpectExec("INSERT INTO report_runs").
		WithArgs("run-1", "2025Q2", "all", "closed_in", int(42), int(12), int64(87), now).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	mock.ExpectQuery("SELECT id, period_key, scope, window_mode, fact_count, group_count, duration_ms, created_at").
		WithArgs(50).
		WillReturnRows(pgxmock.NewRows([]string{"id", "period_key", "scope", "window_mode", "fact_count", "group_count", "duration_ms", "created_at"}).
			AddRow("run-1", "2025Q2", "all", "closed_in", 42, 12, int64(87), now))

	s := NewPostgresWithPool(mock)
	err = s.SaveRun(context.Background(), runFixture("run-1", now))
	require.NoError(t, err)

	runs, err := s.ListRuns(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "run-1", runs[0].ID)
	assert.Equal(t, 42, runs[0].FactCount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresMigrate(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS deals").
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	s := NewPostgresWithPool(mock)
	require.NoError(t, s.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
