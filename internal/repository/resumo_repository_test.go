package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
)

func newResumoRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestResumoRepositoryListByTurmaOrdersByDateDesc(t *testing.T) {
	db, mock, cleanup := newResumoRepoMock(t)
	defer cleanup()
	repo := NewResumoRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "turma_id", "date", "text", "link", "video_link", "file_path", "created_at", "updated_at"}).
		AddRow("res-2", "tur-1", now, "Aula de revisão", nil, nil, nil, now, now).
		AddRow("res-1", "tur-1", now.AddDate(0, 0, -7), "Present perfect", nil, nil, nil, now, now)

	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY date DESC, created_at ASC")).
		WithArgs("tur-1").
		WillReturnRows(rows)

	resumos, err := repo.ListByTurma(context.Background(), "tur-1")
	require.NoError(t, err)
	require.Len(t, resumos, 2)
	require.Equal(t, "res-2", resumos[0].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}
