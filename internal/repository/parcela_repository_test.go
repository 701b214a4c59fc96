package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/escola-hub/escola-admin-api/internal/models"
)

func newParcelaRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func parcelaRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "matricula_id", "ordinal", "amount", "due_date", "status", "paid_at",
		"created_at", "updated_at", "student_name", "school_id", "curso_name",
	})
}

func TestParcelaRepositoryLedgerFiltersBySchool(t *testing.T) {
	db, mock, cleanup := newParcelaRepoMock(t)
	defer cleanup()
	repo := NewParcelaRepository(db)

	now := time.Now()
	rows := parcelaRows().
		AddRow("par-1", "mat-1", 1, 100.0, now, models.ParcelaStatusAVencer, nil, now, now, "Maria Silva", "esc-1", "Inglês Básico").
		AddRow("par-2", "mat-1", 2, 100.0, now.AddDate(0, 1, 0), models.ParcelaStatusPago, &now, now, now, "Maria Silva", "esc-1", "Inglês Básico")

	mock.ExpectQuery(`SELECT .+ FROM parcelas p\s+JOIN matriculas m`).
		WithArgs("esc-1").
		WillReturnRows(rows)
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM parcelas p`).
		WithArgs("esc-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	parcelas, total, err := repo.Ledger(context.Background(), models.ParcelaFilter{SchoolID: "esc-1"})
	require.NoError(t, err)
	require.Equal(t, 2, total)
	require.Len(t, parcelas, 2)
	require.Equal(t, "Maria Silva", parcelas[0].StudentName)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestParcelaRepositoryLedgerDateRange(t *testing.T) {
	db, mock, cleanup := newParcelaRepoMock(t)
	defer cleanup()
	repo := NewParcelaRepository(db)

	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT .+ FROM parcelas p`).
		WithArgs(from, to).
		WillReturnRows(parcelaRows())
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM parcelas p`).
		WithArgs(from, to).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	parcelas, total, err := repo.Ledger(context.Background(), models.ParcelaFilter{DueFrom: &from, DueTo: &to})
	require.NoError(t, err)
	require.Zero(t, total)
	require.Empty(t, parcelas)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestParcelaRepositoryUpdateStatus(t *testing.T) {
	db, mock, cleanup := newParcelaRepoMock(t)
	defer cleanup()
	repo := NewParcelaRepository(db)

	paidAt := time.Now()
	mock.ExpectExec(`UPDATE parcelas SET status = \$2, paid_at = \$3, updated_at = \$4 WHERE id = \$1`).
		WithArgs("par-1", models.ParcelaStatusPago, &paidAt, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdateStatus(context.Background(), "par-1", models.ParcelaStatusPago, &paidAt)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}
