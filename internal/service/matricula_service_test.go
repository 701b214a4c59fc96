package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/escola-hub/escola-admin-api/internal/models"
	appErrors "github.com/escola-hub/escola-admin-api/pkg/errors"
)

type mockMatriculaRepo struct {
	matriculas      map[string]*models.Matricula
	created         *models.Matricula
	createdParcelas []models.Parcela
	updated         *models.Matricula
	regenerated     bool
	statusUpdates   map[string]models.MatriculaStatus
}

func newMockMatriculaRepo() *mockMatriculaRepo {
	return &mockMatriculaRepo{
		matriculas:    make(map[string]*models.Matricula),
		statusUpdates: make(map[string]models.MatriculaStatus),
	}
}

func (m *mockMatriculaRepo) List(ctx context.Context, filter models.MatriculaFilter) ([]models.MatriculaDetail, int, error) {
	return nil, 0, nil
}

func (m *mockMatriculaRepo) FindByID(ctx context.Context, id string) (*models.Matricula, error) {
	if mat, ok := m.matriculas[id]; ok {
		found := *mat
		return &found, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockMatriculaRepo) FindDetailByID(ctx context.Context, id string) (*models.MatriculaDetail, error) {
	mat, err := m.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &models.MatriculaDetail{Matricula: *mat}, nil
}

func (m *mockMatriculaRepo) CreateWithParcelas(ctx context.Context, matricula *models.Matricula, parcelas []models.Parcela) error {
	matricula.ID = "mat-new"
	m.created = matricula
	m.createdParcelas = parcelas
	return nil
}

func (m *mockMatriculaRepo) Update(ctx context.Context, matricula *models.Matricula, regenerate bool, parcelas []models.Parcela) error {
	m.updated = matricula
	m.regenerated = regenerate
	m.createdParcelas = parcelas
	return nil
}

func (m *mockMatriculaRepo) UpdateStatus(ctx context.Context, id string, status models.MatriculaStatus) error {
	m.statusUpdates[id] = status
	return nil
}

type mockMatriculaUserRepo struct {
	users   map[string]*models.User
	updated *models.User
}

func (m *mockMatriculaUserRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := m.users[id]; ok {
		found := *u
		return &found, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockMatriculaUserRepo) Update(ctx context.Context, user *models.User) error {
	m.updated = user
	return nil
}

type mockMatriculaCursoRepo struct {
	cursos map[string]*models.Curso
}

func (m *mockMatriculaCursoRepo) FindByID(ctx context.Context, id string) (*models.Curso, error) {
	if c, ok := m.cursos[id]; ok {
		found := *c
		return &found, nil
	}
	return nil, sql.ErrNoRows
}

type mockMatriculaTurmaRepo struct {
	turmas map[string]*models.Turma
}

func (m *mockMatriculaTurmaRepo) FindByID(ctx context.Context, id string) (*models.Turma, error) {
	if tu, ok := m.turmas[id]; ok {
		found := *tu
		return &found, nil
	}
	return nil, sql.ErrNoRows
}

type mockPaidParcelaReader struct {
	paid int
}

func (m *mockPaidParcelaReader) Ledger(ctx context.Context, filter models.ParcelaFilter) ([]models.ParcelaDetail, int, error) {
	if filter.Status == models.ParcelaStatusPago {
		return nil, m.paid, nil
	}
	return nil, 0, nil
}

func matriculaFixtures() (*mockMatriculaRepo, *mockMatriculaUserRepo, *mockMatriculaCursoRepo, *mockMatriculaTurmaRepo) {
	repo := newMockMatriculaRepo()
	birth := time.Date(2010, 5, 20, 0, 0, 0, 0, time.UTC)
	schoolID := "esc-1"
	users := &mockMatriculaUserRepo{users: map[string]*models.User{
		"alu-1": {
			ID:        "alu-1",
			Name:      "Maria Silva",
			Type:      models.UserTypeAluno,
			CPF:       "123.456.789-00",
			Email:     "maria@example.com",
			BirthDate: &birth,
			SchoolID:  &schoolID,
			City:      "São Paulo",
			Street:    "Rua das Flores",
			Number:    "42",
		},
		"prof-1": {ID: "prof-1", Name: "Carlos", Type: models.UserTypeProfessor},
	}}
	cursos := &mockMatriculaCursoRepo{cursos: map[string]*models.Curso{
		"cur-1": {ID: "cur-1", SchoolID: "esc-1", Name: "Inglês Básico", Price: decimal.NewFromInt(1000), MaxInstallments: 12},
	}}
	turmas := &mockMatriculaTurmaRepo{turmas: map[string]*models.Turma{
		"tur-1": {ID: "tur-1", SchoolID: "esc-1", CursoID: "cur-1", Name: "Turma A"},
	}}
	return repo, users, cursos, turmas
}

func TestDraftComposesAddress(t *testing.T) {
	repo, users, cursos, turmas := matriculaFixtures()
	svc := NewMatriculaService(repo, nil, users, cursos, turmas, nil, nil, nil)

	draft, err := svc.Draft(context.Background(), "alu-1", "cur-1")
	require.NoError(t, err)

	assert.Equal(t, "São Paulo, Rua das Flores, 42", draft.Student.Address)
	assert.False(t, draft.Student.HasGuardian)
	assert.True(t, draft.Curso.Price.Equal(decimal.NewFromInt(1000)))
	assert.Equal(t, 12, draft.Curso.MaxInstallments)
}

func TestDraftCarriesStudentIdentity(t *testing.T) {
	repo, users, cursos, turmas := matriculaFixtures()
	svc := NewMatriculaService(repo, nil, users, cursos, turmas, nil, nil, nil)

	draft, err := svc.Draft(context.Background(), "alu-1", "cur-1")
	require.NoError(t, err)

	assert.Equal(t, "maria@example.com", draft.Student.Email)
	require.NotNil(t, draft.Student.BirthDate)
	assert.Equal(t, time.Date(2010, 5, 20, 0, 0, 0, 0, time.UTC), *draft.Student.BirthDate)
	require.NotNil(t, draft.Student.SchoolID)
	assert.Equal(t, "esc-1", *draft.Student.SchoolID)

	// The pre-fill payload must always expose the identity keys.
	raw, err := json.Marshal(draft.Student)
	require.NoError(t, err)
	var payload map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &payload))
	for _, key := range []string{"email", "birth_date", "school_id"} {
		assert.Contains(t, payload, key)
	}
}

func TestDraftRejectsNonStudent(t *testing.T) {
	repo, users, cursos, turmas := matriculaFixtures()
	svc := NewMatriculaService(repo, nil, users, cursos, turmas, nil, nil, nil)

	_, err := svc.Draft(context.Background(), "prof-1", "cur-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestCreateGeneratesInstallmentSeries(t *testing.T) {
	repo, users, cursos, turmas := matriculaFixtures()
	svc := NewMatriculaService(repo, nil, users, cursos, turmas, nil, nil, nil)

	first := time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC)
	matricula, err := svc.Create(context.Background(), CreateMatriculaRequest{
		StudentID:        "alu-1",
		CursoID:          "cur-1",
		BillingType:      models.BillingParcelado,
		InstallmentCount: 3,
		FirstPaymentDate: first,
	}, "")
	require.NoError(t, err)

	assert.True(t, matricula.Price.Equal(decimal.NewFromInt(1000)))
	assert.Equal(t, "esc-1", matricula.SchoolID)
	assert.Equal(t, models.MatriculaStatusAtiva, matricula.Status)
	require.NotNil(t, matricula.InstallmentAmount)
	assert.Equal(t, "333.33", matricula.InstallmentAmount.StringFixed(2))

	require.Len(t, repo.createdParcelas, 3)
	sum := decimal.Zero
	for _, p := range repo.createdParcelas {
		sum = sum.Add(p.Amount)
	}
	assert.True(t, sum.Equal(decimal.NewFromInt(1000)))
	assert.Equal(t, "333.34", repo.createdParcelas[2].Amount.StringFixed(2))
}

func TestCreateMensalHasNoParcelas(t *testing.T) {
	repo, users, cursos, turmas := matriculaFixtures()
	svc := NewMatriculaService(repo, nil, users, cursos, turmas, nil, nil, nil)

	matricula, err := svc.Create(context.Background(), CreateMatriculaRequest{
		StudentID:        "alu-1",
		CursoID:          "cur-1",
		BillingType:      models.BillingMensal,
		FirstPaymentDate: time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC),
	}, "")
	require.NoError(t, err)

	assert.Zero(t, matricula.InstallmentCount)
	assert.Nil(t, matricula.InstallmentAmount)
	assert.Empty(t, repo.createdParcelas)
}

func TestCreateRejectsInstallmentCountAboveMax(t *testing.T) {
	repo, users, cursos, turmas := matriculaFixtures()
	svc := NewMatriculaService(repo, nil, users, cursos, turmas, nil, nil, nil)

	_, err := svc.Create(context.Background(), CreateMatriculaRequest{
		StudentID:        "alu-1",
		CursoID:          "cur-1",
		BillingType:      models.BillingParcelado,
		InstallmentCount: 13,
		FirstPaymentDate: time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC),
	}, "")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestCreateRejectsClosedSectionWithData(t *testing.T) {
	repo, users, cursos, turmas := matriculaFixtures()
	svc := NewMatriculaService(repo, nil, users, cursos, turmas, nil, nil, nil)

	_, err := svc.Create(context.Background(), CreateMatriculaRequest{
		StudentID:        "alu-1",
		CursoID:          "cur-1",
		BillingType:      models.BillingMensal,
		FirstPaymentDate: time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC),
		HasGuardian:      false,
		Guardian:         GuardianSection{Name: "José Silva"},
	}, "")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrSectionNotEmpty.Code, appErrors.FromError(err).Code)
	assert.Nil(t, repo.created)
}

func TestCreateCopiesGuardianOntoStudent(t *testing.T) {
	repo, users, cursos, turmas := matriculaFixtures()
	svc := NewMatriculaService(repo, nil, users, cursos, turmas, nil, nil, nil)

	_, err := svc.Create(context.Background(), CreateMatriculaRequest{
		StudentID:        "alu-1",
		CursoID:          "cur-1",
		BillingType:      models.BillingMensal,
		FirstPaymentDate: time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC),
		HasGuardian:      true,
		Guardian:         GuardianSection{Name: "José Silva", CPF: "987.654.321-00", Phone: "11 99999-0000"},
	}, "")
	require.NoError(t, err)

	require.NotNil(t, users.updated)
	assert.Equal(t, "José Silva", users.updated.ParentName)
	assert.Equal(t, "987.654.321-00", users.updated.ParentCPF)
}

func TestCreateRejectsTurmaFromAnotherCourse(t *testing.T) {
	repo, users, cursos, turmas := matriculaFixtures()
	turmas.turmas["tur-2"] = &models.Turma{ID: "tur-2", SchoolID: "esc-1", CursoID: "cur-9", Name: "Turma B"}
	svc := NewMatriculaService(repo, nil, users, cursos, turmas, nil, nil, nil)

	turmaID := "tur-2"
	_, err := svc.Create(context.Background(), CreateMatriculaRequest{
		StudentID:        "alu-1",
		CursoID:          "cur-1",
		TurmaID:          &turmaID,
		BillingType:      models.BillingMensal,
		FirstPaymentDate: time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC),
	}, "")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestUpdateRejectsBillingChangeWithPaidParcelas(t *testing.T) {
	repo, users, cursos, turmas := matriculaFixtures()
	amount := decimal.RequireFromString("333.33")
	repo.matriculas["mat-1"] = &models.Matricula{
		ID:                "mat-1",
		StudentID:         "alu-1",
		SchoolID:          "esc-1",
		CursoID:           "cur-1",
		Price:             decimal.NewFromInt(1000),
		BillingType:       models.BillingParcelado,
		InstallmentCount:  3,
		InstallmentAmount: &amount,
		FirstPaymentDate:  time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC),
		Status:            models.MatriculaStatusAtiva,
	}
	svc := NewMatriculaService(repo, &mockPaidParcelaReader{paid: 1}, users, cursos, turmas, nil, nil, nil)

	_, err := svc.Update(context.Background(), "mat-1", UpdateMatriculaRequest{
		BillingType:      models.BillingParcelado,
		InstallmentCount: 6,
		FirstPaymentDate: time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC),
	}, "")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)
	assert.Nil(t, repo.updated)
}

func TestUpdateRegeneratesUnpaidSeries(t *testing.T) {
	repo, users, cursos, turmas := matriculaFixtures()
	amount := decimal.RequireFromString("333.33")
	repo.matriculas["mat-1"] = &models.Matricula{
		ID:                "mat-1",
		StudentID:         "alu-1",
		SchoolID:          "esc-1",
		CursoID:           "cur-1",
		Price:             decimal.NewFromInt(1000),
		BillingType:       models.BillingParcelado,
		InstallmentCount:  3,
		InstallmentAmount: &amount,
		FirstPaymentDate:  time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC),
		Status:            models.MatriculaStatusAtiva,
	}
	svc := NewMatriculaService(repo, &mockPaidParcelaReader{paid: 0}, users, cursos, turmas, nil, nil, nil)

	matricula, err := svc.Update(context.Background(), "mat-1", UpdateMatriculaRequest{
		BillingType:      models.BillingParcelado,
		InstallmentCount: 4,
		FirstPaymentDate: time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
	}, "")
	require.NoError(t, err)

	assert.True(t, repo.regenerated)
	assert.Equal(t, 4, matricula.InstallmentCount)
	require.Len(t, repo.createdParcelas, 4)
	assert.Equal(t, "250.00", repo.createdParcelas[0].Amount.StringFixed(2))
}

func TestUpdateWithoutBillingChangeSkipsRegeneration(t *testing.T) {
	repo, users, cursos, turmas := matriculaFixtures()
	amount := decimal.RequireFromString("333.33")
	repo.matriculas["mat-1"] = &models.Matricula{
		ID:                "mat-1",
		StudentID:         "alu-1",
		SchoolID:          "esc-1",
		CursoID:           "cur-1",
		Price:             decimal.NewFromInt(1000),
		BillingType:       models.BillingParcelado,
		InstallmentCount:  3,
		InstallmentAmount: &amount,
		FirstPaymentDate:  time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC),
		Status:            models.MatriculaStatusAtiva,
	}
	svc := NewMatriculaService(repo, &mockPaidParcelaReader{paid: 2}, users, cursos, turmas, nil, nil, nil)

	// Same billing plan, only the level changes: paid parcelas are fine.
	_, err := svc.Update(context.Background(), "mat-1", UpdateMatriculaRequest{
		BillingType:      models.BillingParcelado,
		InstallmentCount: 3,
		FirstPaymentDate: time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC),
		Level:            "Intermediário",
	}, "")
	require.NoError(t, err)
	assert.False(t, repo.regenerated)
	assert.Empty(t, repo.createdParcelas)
}

func TestUpdateStatusTransitions(t *testing.T) {
	tests := []struct {
		name    string
		from    models.MatriculaStatus
		to      models.MatriculaStatus
		allowed bool
	}{
		{"ativa to cancelada", models.MatriculaStatusAtiva, models.MatriculaStatusCancelada, true},
		{"ativa to trancada", models.MatriculaStatusAtiva, models.MatriculaStatusTrancada, true},
		{"ativa to concluida", models.MatriculaStatusAtiva, models.MatriculaStatusConcluida, true},
		{"cancelada to ativa", models.MatriculaStatusCancelada, models.MatriculaStatusAtiva, false},
		{"concluida to trancada", models.MatriculaStatusConcluida, models.MatriculaStatusTrancada, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, users, cursos, turmas := matriculaFixtures()
			repo.matriculas["mat-1"] = &models.Matricula{
				ID: "mat-1", SchoolID: "esc-1", Status: tt.from,
			}
			svc := NewMatriculaService(repo, nil, users, cursos, turmas, nil, nil, nil)

			err := svc.UpdateStatus(context.Background(), "mat-1", tt.to, "")
			if tt.allowed {
				require.NoError(t, err)
				assert.Equal(t, tt.to, repo.statusUpdates["mat-1"])
			} else {
				require.Error(t, err)
				assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)
			}
		})
	}
}

func TestGetEnforcesSchoolScope(t *testing.T) {
	repo, users, cursos, turmas := matriculaFixtures()
	repo.matriculas["mat-1"] = &models.Matricula{ID: "mat-1", SchoolID: "esc-1", Status: models.MatriculaStatusAtiva}
	svc := NewMatriculaService(repo, nil, users, cursos, turmas, nil, nil, nil)

	_, err := svc.Get(context.Background(), "mat-1", "esc-2")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	detail, err := svc.Get(context.Background(), "mat-1", "esc-1")
	require.NoError(t, err)
	assert.Equal(t, "mat-1", detail.ID)
}
