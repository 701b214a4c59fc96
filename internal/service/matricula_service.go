package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/escola-hub/escola-admin-api/internal/dto"
	"github.com/escola-hub/escola-admin-api/internal/models"
	appErrors "github.com/escola-hub/escola-admin-api/pkg/errors"
)

type matriculaRepository interface {
	List(ctx context.Context, filter models.MatriculaFilter) ([]models.MatriculaDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.Matricula, error)
	FindDetailByID(ctx context.Context, id string) (*models.MatriculaDetail, error)
	CreateWithParcelas(ctx context.Context, matricula *models.Matricula, parcelas []models.Parcela) error
	Update(ctx context.Context, matricula *models.Matricula, regenerate bool, parcelas []models.Parcela) error
	UpdateStatus(ctx context.Context, id string, status models.MatriculaStatus) error
}

type matriculaParcelaReader interface {
	Ledger(ctx context.Context, filter models.ParcelaFilter) ([]models.ParcelaDetail, int, error)
}

type matriculaUserRepository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
}

type matriculaCursoRepository interface {
	FindByID(ctx context.Context, id string) (*models.Curso, error)
}

type matriculaTurmaRepository interface {
	FindByID(ctx context.Context, id string) (*models.Turma, error)
}

// GuardianSection carries the responsible-party fields of the enrollment
// form. The section may be closed only when every field is blank.
type GuardianSection struct {
	Name  string `json:"name"`
	CPF   string `json:"cpf"`
	Phone string `json:"phone"`
}

// Empty reports whether every guardian field is blank.
func (g GuardianSection) Empty() bool {
	return g.Name == "" && g.CPF == "" && g.Phone == ""
}

// ExtraDataSection carries the optional profile fields of the enrollment
// form, guarded the same way as the guardian section.
type ExtraDataSection struct {
	Profession   string `json:"profession"`
	MaritalState string `json:"marital_state"`
	City         string `json:"city"`
	Street       string `json:"street"`
	Number       string `json:"number"`
}

// Empty reports whether every extra-data field is blank.
func (e ExtraDataSection) Empty() bool {
	return e.Profession == "" && e.MaritalState == "" && e.City == "" && e.Street == "" && e.Number == ""
}

// CreateMatriculaRequest holds the enrollment payload. The price always
// comes from the course record, never from the client.
type CreateMatriculaRequest struct {
	StudentID        string             `json:"student_id" validate:"required"`
	CursoID          string             `json:"curso_id" validate:"required"`
	TurmaID          *string            `json:"turma_id"`
	BillingType      models.BillingType `json:"billing_type" validate:"required"`
	InstallmentCount int                `json:"installment_count"`
	FirstPaymentDate time.Time          `json:"first_payment_date" validate:"required"`
	Level            string             `json:"level"`
	Schedule         string             `json:"schedule"`
	HasGuardian      bool               `json:"has_guardian"`
	Guardian         GuardianSection    `json:"guardian"`
	HasExtraData     bool               `json:"has_extra_data"`
	ExtraData        ExtraDataSection   `json:"extra_data"`
}

// UpdateMatriculaRequest holds the editable enrollment fields.
type UpdateMatriculaRequest struct {
	TurmaID          *string            `json:"turma_id"`
	BillingType      models.BillingType `json:"billing_type" validate:"required"`
	InstallmentCount int                `json:"installment_count"`
	FirstPaymentDate time.Time          `json:"first_payment_date" validate:"required"`
	Level            string             `json:"level"`
	Schedule         string             `json:"schedule"`
	HasGuardian      bool               `json:"has_guardian"`
	Guardian         GuardianSection    `json:"guardian"`
	HasExtraData     bool               `json:"has_extra_data"`
	ExtraData        ExtraDataSection   `json:"extra_data"`
}

// MatriculaService implements the enrollment use-cases: form hydration,
// billing plan generation and the enrollment lifecycle.
type MatriculaService struct {
	repo      matriculaRepository
	parcelas  matriculaParcelaReader
	users     matriculaUserRepository
	cursos    matriculaCursoRepository
	turmas    matriculaTurmaRepository
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewMatriculaService constructs the enrollment service.
func NewMatriculaService(
	repo matriculaRepository,
	parcelas matriculaParcelaReader,
	users matriculaUserRepository,
	cursos matriculaCursoRepository,
	turmas matriculaTurmaRepository,
	cache *CacheService,
	validate *validator.Validate,
	logger *zap.Logger,
) *MatriculaService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MatriculaService{
		repo:      repo,
		parcelas:  parcelas,
		users:     users,
		cursos:    cursos,
		turmas:    turmas,
		cache:     cache,
		validator: validate,
		logger:    logger,
	}
}

// Draft hydrates the enrollment form for a student and course pair: profile
// with composed address, guardian prefill and course pricing bounds.
func (s *MatriculaService) Draft(ctx context.Context, studentID, cursoID string) (*dto.EnrollmentDraft, error) {
	student, err := s.users.FindByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "aluno não encontrado")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if student.Type != models.UserTypeAluno {
		return nil, appErrors.Clone(appErrors.ErrValidation, "usuário não é um aluno")
	}

	// The course block stays empty until the form has a course selected.
	var cursoBlock dto.EnrollmentCurso
	if cursoID != "" {
		curso, err := s.cursos.FindByID(ctx, cursoID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "curso não encontrado")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
		}
		cursoBlock = dto.EnrollmentCurso{
			ID:              curso.ID,
			Name:            curso.Name,
			Price:           curso.Price,
			MaxInstallments: curso.MaxInstallments,
		}
	}

	return &dto.EnrollmentDraft{
		Student: dto.EnrollmentStudent{
			ID:           student.ID,
			Name:         student.Name,
			CPF:          student.CPF,
			Email:        student.Email,
			BirthDate:    student.BirthDate,
			SchoolID:     student.SchoolID,
			Address:      student.Address(),
			Phone:        student.Phone,
			CellPhone:    student.CellPhone,
			Profession:   student.Profession,
			MaritalState: student.MaritalState,
			HasGuardian:  student.HasGuardianData(),
			Guardian: dto.EnrollmentParent{
				Name:  student.ParentName,
				CPF:   student.ParentCPF,
				Phone: student.ParentPhone,
			},
			Type: student.Type,
		},
		Curso: cursoBlock,
	}, nil
}

// List returns enrollments and pagination metadata. A non-empty schoolScope
// restricts results to that school regardless of client filters.
func (s *MatriculaService) List(ctx context.Context, filter models.MatriculaFilter, schoolScope string) ([]models.MatriculaDetail, *models.Pagination, error) {
	if schoolScope != "" {
		filter.SchoolID = schoolScope
	}
	matriculas, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list matriculas")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return matriculas, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns one enrollment with related names.
func (s *MatriculaService) Get(ctx context.Context, id, schoolScope string) (*models.MatriculaDetail, error) {
	detail, err := s.repo.FindDetailByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "matrícula não encontrada")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load matricula")
	}
	if schoolScope != "" && detail.SchoolID != schoolScope {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "matrícula fora do escopo da escola")
	}
	return detail, nil
}

// Create registers an enrollment and generates its billing plan in one
// transaction. The parcel series always sums exactly to the course price.
func (s *MatriculaService) Create(ctx context.Context, req CreateMatriculaRequest, schoolScope string) (*models.Matricula, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid matricula payload")
	}
	if !req.BillingType.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "tipo de cobrança inválido")
	}
	if err := checkSections(req.HasGuardian, req.Guardian, req.HasExtraData, req.ExtraData); err != nil {
		return nil, err
	}

	student, err := s.users.FindByID(ctx, req.StudentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "aluno não encontrado")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if student.Type != models.UserTypeAluno {
		return nil, appErrors.Clone(appErrors.ErrValidation, "usuário não é um aluno")
	}

	curso, err := s.cursos.FindByID(ctx, req.CursoID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "curso não encontrado")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	if schoolScope != "" && curso.SchoolID != schoolScope {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "curso fora do escopo da escola")
	}

	if req.TurmaID != nil {
		turma, err := s.turmas.FindByID(ctx, *req.TurmaID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "turma não encontrada")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
		}
		if turma.CursoID != curso.ID {
			return nil, appErrors.Clone(appErrors.ErrValidation, "turma não pertence ao curso selecionado")
		}
	}

	matricula := &models.Matricula{
		StudentID:        student.ID,
		SchoolID:         curso.SchoolID,
		CursoID:          curso.ID,
		TurmaID:          req.TurmaID,
		Price:            curso.Price,
		BillingType:      req.BillingType,
		FirstPaymentDate: req.FirstPaymentDate,
		Level:            req.Level,
		Schedule:         req.Schedule,
		Status:           models.MatriculaStatusAtiva,
		HasGuardian:      req.HasGuardian,
		HasExtraData:     req.HasExtraData,
	}

	var parcelas []models.Parcela
	if req.BillingType == models.BillingParcelado {
		if req.InstallmentCount < 1 || (curso.MaxInstallments > 0 && req.InstallmentCount > curso.MaxInstallments) {
			return nil, appErrors.Clone(appErrors.ErrValidation,
				fmt.Sprintf("número de parcelas deve estar entre 1 e %d", curso.MaxInstallments))
		}
		amount := InstallmentAmount(curso.Price, req.InstallmentCount)
		matricula.InstallmentCount = req.InstallmentCount
		matricula.InstallmentAmount = &amount
		parcelas = InstallmentSeries(curso.Price, req.InstallmentCount, req.FirstPaymentDate)
	}

	if err := s.repo.CreateWithParcelas(ctx, matricula, parcelas); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create matricula")
	}

	s.applyStudentSections(ctx, student, req.HasGuardian, req.Guardian, req.HasExtraData, req.ExtraData)
	s.invalidateCaches(ctx)
	return matricula, nil
}

// Update modifies an enrollment. Billing changes regenerate the unpaid
// installment series; a plan with paid parcels cannot change billing.
func (s *MatriculaService) Update(ctx context.Context, id string, req UpdateMatriculaRequest, schoolScope string) (*models.Matricula, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid matricula payload")
	}
	if !req.BillingType.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "tipo de cobrança inválido")
	}
	if err := checkSections(req.HasGuardian, req.Guardian, req.HasExtraData, req.ExtraData); err != nil {
		return nil, err
	}

	matricula, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "matrícula não encontrada")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load matricula")
	}
	if schoolScope != "" && matricula.SchoolID != schoolScope {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "matrícula fora do escopo da escola")
	}

	billingChanged := matricula.BillingType != req.BillingType ||
		matricula.InstallmentCount != req.InstallmentCount ||
		!matricula.FirstPaymentDate.Equal(req.FirstPaymentDate)

	var parcelas []models.Parcela
	regenerate := false
	if billingChanged {
		paid, err := s.countPaidParcelas(ctx, matricula.ID)
		if err != nil {
			return nil, err
		}
		if paid > 0 {
			return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "plano de pagamento já possui parcelas pagas")
		}
		regenerate = true
	}

	matricula.TurmaID = req.TurmaID
	matricula.BillingType = req.BillingType
	matricula.FirstPaymentDate = req.FirstPaymentDate
	matricula.Level = req.Level
	matricula.Schedule = req.Schedule
	matricula.HasGuardian = req.HasGuardian
	matricula.HasExtraData = req.HasExtraData
	matricula.InstallmentCount = 0
	matricula.InstallmentAmount = nil
	if req.BillingType == models.BillingParcelado {
		if req.InstallmentCount < 1 {
			return nil, appErrors.Clone(appErrors.ErrValidation, "número de parcelas deve ser maior que zero")
		}
		amount := InstallmentAmount(matricula.Price, req.InstallmentCount)
		matricula.InstallmentCount = req.InstallmentCount
		matricula.InstallmentAmount = &amount
		if regenerate {
			parcelas = InstallmentSeries(matricula.Price, req.InstallmentCount, req.FirstPaymentDate)
		}
	}

	if err := s.repo.Update(ctx, matricula, regenerate, parcelas); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update matricula")
	}

	if student, err := s.users.FindByID(ctx, matricula.StudentID); err == nil {
		s.applyStudentSections(ctx, student, req.HasGuardian, req.Guardian, req.HasExtraData, req.ExtraData)
	}
	s.invalidateCaches(ctx)
	return matricula, nil
}

// UpdateStatus moves the enrollment through its lifecycle. Transitions are
// only allowed out of ATIVA.
func (s *MatriculaService) UpdateStatus(ctx context.Context, id string, status models.MatriculaStatus, schoolScope string) error {
	if !status.Valid() {
		return appErrors.Clone(appErrors.ErrValidation, "status de matrícula inválido")
	}

	matricula, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "matrícula não encontrada")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load matricula")
	}
	if schoolScope != "" && matricula.SchoolID != schoolScope {
		return appErrors.Clone(appErrors.ErrForbidden, "matrícula fora do escopo da escola")
	}

	if !matricula.Status.CanTransitionTo(status) {
		return appErrors.Clone(appErrors.ErrPreconditionFailed,
			fmt.Sprintf("transição de %s para %s não permitida", matricula.Status, status))
	}

	if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update matricula status")
	}
	s.invalidateCaches(ctx)
	return nil
}

func (s *MatriculaService) countPaidParcelas(ctx context.Context, matriculaID string) (int, error) {
	if s.parcelas == nil {
		return 0, nil
	}
	_, total, err := s.parcelas.Ledger(ctx, models.ParcelaFilter{
		MatriculaID: matriculaID,
		Status:      models.ParcelaStatusPago,
		Page:        1,
		PageSize:    1,
	})
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to inspect parcelas")
	}
	return total, nil
}

// checkSections refuses to close a form section that still has data, so a
// collapsed section can never hide filled-in fields.
func checkSections(hasGuardian bool, guardian GuardianSection, hasExtra bool, extra ExtraDataSection) error {
	if !hasGuardian && !guardian.Empty() {
		return appErrors.Clone(appErrors.ErrSectionNotEmpty, "preencha ou limpe os campos antes de fechar")
	}
	if !hasExtra && !extra.Empty() {
		return appErrors.Clone(appErrors.ErrSectionNotEmpty, "preencha ou limpe os campos antes de fechar")
	}
	return nil
}

// applyStudentSections copies the open form sections onto the student
// profile. Failures are logged and do not fail the enrollment itself.
func (s *MatriculaService) applyStudentSections(ctx context.Context, student *models.User, hasGuardian bool, guardian GuardianSection, hasExtra bool, extra ExtraDataSection) {
	changed := false
	if hasGuardian {
		student.ParentName = guardian.Name
		student.ParentCPF = guardian.CPF
		student.ParentPhone = guardian.Phone
		changed = true
	}
	if hasExtra {
		student.Profession = extra.Profession
		student.MaritalState = extra.MaritalState
		student.City = extra.City
		student.Street = extra.Street
		student.Number = extra.Number
		changed = true
	}
	if !changed {
		return
	}
	if err := s.users.Update(ctx, student); err != nil {
		s.logger.Warn("failed to update student profile from enrollment form",
			zap.String("student_id", student.ID), zap.Error(err))
	}
}

func (s *MatriculaService) invalidateCaches(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, "matriculas:*"); err != nil {
		s.logger.Warn("failed to invalidate matricula cache", zap.Error(err))
	}
	if err := s.cache.Invalidate(ctx, "financeiro:*"); err != nil {
		s.logger.Warn("failed to invalidate financeiro cache", zap.Error(err))
	}
	// Enrollment can write guardian/extra-data back onto the student profile.
	if err := s.cache.Invalidate(ctx, "ref:user:*"); err != nil {
		s.logger.Warn("failed to invalidate user cache", zap.Error(err))
	}
}
