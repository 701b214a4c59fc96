package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/escola-hub/escola-admin-api/internal/models"
)

func newMatriculaRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestMatriculaRepositoryCreateWithParcelasIsTransactional(t *testing.T) {
	db, mock, cleanup := newMatriculaRepoMock(t)
	defer cleanup()
	repo := NewMatriculaRepository(db)

	amount := decimal.NewFromInt(100)
	matricula := &models.Matricula{
		StudentID:         "stu-1",
		SchoolID:          "esc-1",
		CursoID:           "cur-1",
		Price:             decimal.NewFromInt(1200),
		BillingType:       models.BillingParcelado,
		InstallmentCount:  12,
		InstallmentAmount: &amount,
		FirstPaymentDate:  time.Date(2026, 9, 5, 0, 0, 0, 0, time.UTC),
		Status:            models.MatriculaStatusAtiva,
	}
	parcelas := []models.Parcela{
		{Ordinal: 1, Amount: decimal.NewFromInt(100), DueDate: matricula.FirstPaymentDate},
		{Ordinal: 2, Amount: decimal.NewFromInt(100), DueDate: matricula.FirstPaymentDate.AddDate(0, 1, 0)},
	}

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO matriculas`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO parcelas`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO parcelas`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.CreateWithParcelas(context.Background(), matricula, parcelas)
	require.NoError(t, err)
	require.NotEmpty(t, matricula.ID)
	require.Equal(t, matricula.ID, parcelas[0].MatriculaID)
	require.Equal(t, models.ParcelaStatusAVencer, parcelas[0].Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMatriculaRepositoryCreateRollsBackOnParcelaFailure(t *testing.T) {
	db, mock, cleanup := newMatriculaRepoMock(t)
	defer cleanup()
	repo := NewMatriculaRepository(db)

	matricula := &models.Matricula{
		StudentID:        "stu-1",
		SchoolID:         "esc-1",
		CursoID:          "cur-1",
		Price:            decimal.NewFromInt(600),
		BillingType:      models.BillingParcelado,
		InstallmentCount: 1,
		FirstPaymentDate: time.Now(),
		Status:           models.MatriculaStatusAtiva,
	}

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO matriculas`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO parcelas`).WillReturnError(context.DeadlineExceeded)
	mock.ExpectRollback()

	err := repo.CreateWithParcelas(context.Background(), matricula, []models.Parcela{{Ordinal: 1, Amount: decimal.NewFromInt(600), DueDate: time.Now()}})
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMatriculaRepositoryUpdateRegeneratesUnpaidParcelas(t *testing.T) {
	db, mock, cleanup := newMatriculaRepoMock(t)
	defer cleanup()
	repo := NewMatriculaRepository(db)

	matricula := &models.Matricula{
		ID:               "mat-1",
		Price:            decimal.NewFromInt(900),
		BillingType:      models.BillingParcelado,
		InstallmentCount: 3,
		FirstPaymentDate: time.Now(),
	}

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE matriculas SET`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM parcelas WHERE matricula_id = \$1 AND status <> \$2`).
		WithArgs("mat-1", models.ParcelaStatusPago).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(`INSERT INTO parcelas`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.Update(context.Background(), matricula, true, []models.Parcela{{Ordinal: 1, Amount: decimal.NewFromInt(300), DueDate: time.Now()}})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMatriculaRepositoryUpdateStatus(t *testing.T) {
	db, mock, cleanup := newMatriculaRepoMock(t)
	defer cleanup()
	repo := NewMatriculaRepository(db)

	mock.ExpectExec(`UPDATE matriculas SET status = \$2, updated_at = \$3 WHERE id = \$1`).
		WithArgs("mat-1", models.MatriculaStatusCancelada, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdateStatus(context.Background(), "mat-1", models.MatriculaStatusCancelada)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}
