package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/escola-hub/escola-admin-api/internal/models"
	appErrors "github.com/escola-hub/escola-admin-api/pkg/errors"
)

type mockChamadaRepo struct {
	chamadas map[string]*models.Chamada
	created  []models.Chamada
	deleted  []string
}

func (m *mockChamadaRepo) ListByTurma(_ context.Context, filter models.ChamadaFilter) ([]models.ChamadaDetail, int, error) {
	var out []models.ChamadaDetail
	for _, c := range m.chamadas {
		if c.TurmaID != filter.TurmaID {
			continue
		}
		if filter.Status != nil && c.Status != *filter.Status {
			continue
		}
		out = append(out, models.ChamadaDetail{Chamada: *c})
	}
	return out, len(out), nil
}

func (m *mockChamadaRepo) FindByID(_ context.Context, id string) (*models.Chamada, error) {
	c, ok := m.chamadas[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *c
	return &cp, nil
}

func (m *mockChamadaRepo) CreateBatch(_ context.Context, chamadas []models.Chamada) error {
	m.created = append(m.created, chamadas...)
	return nil
}

func (m *mockChamadaRepo) Update(_ context.Context, chamada *models.Chamada) error {
	m.chamadas[chamada.ID] = chamada
	return nil
}

func (m *mockChamadaRepo) Delete(_ context.Context, id string) error {
	m.deleted = append(m.deleted, id)
	return nil
}

type mockChamadaTurmaReader struct {
	turmas map[string]*models.Turma
}

func (m *mockChamadaTurmaReader) FindByID(_ context.Context, id string) (*models.Turma, error) {
	t, ok := m.turmas[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return t, nil
}

func chamadaFixtures() (*mockChamadaRepo, *mockChamadaTurmaReader) {
	repo := &mockChamadaRepo{chamadas: map[string]*models.Chamada{
		"cha-1": {
			ID:        "cha-1",
			TurmaID:   "tur-1",
			StudentID: "alu-1",
			Date:      time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
			Time:      "19:00",
			Status:    models.ChamadaStatusPresente,
		},
	}}
	turmas := &mockChamadaTurmaReader{turmas: map[string]*models.Turma{
		"tur-1": {ID: "tur-1", SchoolID: "esc-1", CursoID: "cur-1", Name: "Turma A"},
	}}
	return repo, turmas
}

func TestCreateChamadaBatchesAllEntries(t *testing.T) {
	repo, turmas := chamadaFixtures()
	svc := NewChamadaService(repo, turmas, nil, nil)

	notes := "chegou atrasado"
	err := svc.Create(context.Background(), CreateChamadaRequest{
		TurmaID: "tur-1",
		Date:    time.Date(2026, 3, 12, 0, 0, 0, 0, time.UTC),
		Time:    "19:00",
		Entries: []ChamadaEntry{
			{StudentID: "alu-1", Status: models.ChamadaStatusPresente},
			{StudentID: "alu-2", Status: models.ChamadaStatusAusente, Notes: &notes},
			{StudentID: "alu-3", Status: models.ChamadaStatusJustificado},
		},
	}, "esc-1")
	require.NoError(t, err)

	require.Len(t, repo.created, 3)
	assert.Equal(t, "tur-1", repo.created[0].TurmaID)
	assert.Equal(t, models.ChamadaStatusAusente, repo.created[1].Status)
	require.NotNil(t, repo.created[1].Notes)
	assert.Equal(t, notes, *repo.created[1].Notes)
}

func TestCreateChamadaRejectsUnknownStatus(t *testing.T) {
	repo, turmas := chamadaFixtures()
	svc := NewChamadaService(repo, turmas, nil, nil)

	err := svc.Create(context.Background(), CreateChamadaRequest{
		TurmaID: "tur-1",
		Date:    time.Date(2026, 3, 12, 0, 0, 0, 0, time.UTC),
		Entries: []ChamadaEntry{{StudentID: "alu-1", Status: "ATRASADO"}},
	}, "esc-1")

	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.created)
}

func TestCreateChamadaRejectsEmptyEntries(t *testing.T) {
	repo, turmas := chamadaFixtures()
	svc := NewChamadaService(repo, turmas, nil, nil)

	err := svc.Create(context.Background(), CreateChamadaRequest{
		TurmaID: "tur-1",
		Date:    time.Date(2026, 3, 12, 0, 0, 0, 0, time.UTC),
		Entries: nil,
	}, "esc-1")

	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestCreateChamadaEnforcesSchoolScope(t *testing.T) {
	repo, turmas := chamadaFixtures()
	svc := NewChamadaService(repo, turmas, nil, nil)

	err := svc.Create(context.Background(), CreateChamadaRequest{
		TurmaID: "tur-1",
		Date:    time.Date(2026, 3, 12, 0, 0, 0, 0, time.UTC),
		Entries: []ChamadaEntry{{StudentID: "alu-1", Status: models.ChamadaStatusPresente}},
	}, "esc-2")

	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.created)
}

func TestUpdateChamada(t *testing.T) {
	repo, turmas := chamadaFixtures()
	svc := NewChamadaService(repo, turmas, nil, nil)

	updated, err := svc.Update(context.Background(), "cha-1", UpdateChamadaRequest{
		Date:   time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
		Time:   "19:30",
		Status: models.ChamadaStatusJustificado,
	}, "esc-1")
	require.NoError(t, err)

	assert.Equal(t, models.ChamadaStatusJustificado, updated.Status)
	assert.Equal(t, "19:30", updated.Time)
	assert.Equal(t, models.ChamadaStatusJustificado, repo.chamadas["cha-1"].Status)
}

func TestUpdateChamadaNotFound(t *testing.T) {
	repo, turmas := chamadaFixtures()
	svc := NewChamadaService(repo, turmas, nil, nil)

	_, err := svc.Update(context.Background(), "cha-999", UpdateChamadaRequest{
		Date:   time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
		Status: models.ChamadaStatusPresente,
	}, "esc-1")

	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestDeleteChamadaEnforcesSchoolScope(t *testing.T) {
	repo, turmas := chamadaFixtures()
	svc := NewChamadaService(repo, turmas, nil, nil)

	err := svc.Delete(context.Background(), "cha-1", "esc-2")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.deleted)

	require.NoError(t, svc.Delete(context.Background(), "cha-1", "esc-1"))
	assert.Equal(t, []string{"cha-1"}, repo.deleted)
}

func TestListChamadasByTurmaRequiresTurma(t *testing.T) {
	repo, turmas := chamadaFixtures()
	svc := NewChamadaService(repo, turmas, nil, nil)

	_, _, err := svc.ListByTurma(context.Background(), models.ChamadaFilter{}, "")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestListChamadasByTurma(t *testing.T) {
	repo, turmas := chamadaFixtures()
	svc := NewChamadaService(repo, turmas, nil, nil)

	list, pagination, err := svc.ListByTurma(context.Background(), models.ChamadaFilter{TurmaID: "tur-1"}, "esc-1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "alu-1", list[0].StudentID)
	assert.Equal(t, 1, pagination.TotalCount)
	assert.Equal(t, 1, pagination.Page)
	assert.Equal(t, 20, pagination.PageSize)
}
