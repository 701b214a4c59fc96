package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/escola-hub/escola-admin-api/internal/models"
	appErrors "github.com/escola-hub/escola-admin-api/pkg/errors"
)

type chamadaRepository interface {
	ListByTurma(ctx context.Context, filter models.ChamadaFilter) ([]models.ChamadaDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.Chamada, error)
	CreateBatch(ctx context.Context, chamadas []models.Chamada) error
	Update(ctx context.Context, chamada *models.Chamada) error
	Delete(ctx context.Context, id string) error
}

type chamadaTurmaReader interface {
	FindByID(ctx context.Context, id string) (*models.Turma, error)
}

// ChamadaEntry is one student row of a roll call submission.
type ChamadaEntry struct {
	StudentID string               `json:"student_id" validate:"required"`
	Status    models.ChamadaStatus `json:"status" validate:"required"`
	Notes     *string              `json:"notes"`
}

// CreateChamadaRequest registers a full class-session roll call.
type CreateChamadaRequest struct {
	TurmaID string         `json:"turma_id" validate:"required"`
	Date    time.Time      `json:"date" validate:"required"`
	Time    string         `json:"time"`
	Entries []ChamadaEntry `json:"entries" validate:"required,min=1,dive"`
}

// UpdateChamadaRequest edits one attendance record.
type UpdateChamadaRequest struct {
	Date   time.Time            `json:"date" validate:"required"`
	Time   string               `json:"time"`
	Status models.ChamadaStatus `json:"status" validate:"required"`
	Notes  *string              `json:"notes"`
}

// ChamadaService implements the attendance use-cases.
type ChamadaService struct {
	repo      chamadaRepository
	turmas    chamadaTurmaReader
	validator *validator.Validate
	logger    *zap.Logger
}

// NewChamadaService constructs the attendance service.
func NewChamadaService(repo chamadaRepository, turmas chamadaTurmaReader, validate *validator.Validate, logger *zap.Logger) *ChamadaService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChamadaService{repo: repo, turmas: turmas, validator: validate, logger: logger}
}

// ListByTurma returns the attendance history of a class, scoped to the
// caller's school when a scope is set.
func (s *ChamadaService) ListByTurma(ctx context.Context, filter models.ChamadaFilter, schoolScope string) ([]models.ChamadaDetail, *models.Pagination, error) {
	if filter.TurmaID == "" {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "turma é obrigatória")
	}
	if err := s.checkTurmaScope(ctx, filter.TurmaID, schoolScope); err != nil {
		return nil, nil, err
	}
	chamadas, total, err := s.repo.ListByTurma(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list chamadas")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return chamadas, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Create registers a roll call for a class session. All rows land in one
// transaction so a session is never half recorded.
func (s *ChamadaService) Create(ctx context.Context, req CreateChamadaRequest, schoolScope string) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid chamada payload")
	}
	if err := s.checkTurmaScope(ctx, req.TurmaID, schoolScope); err != nil {
		return err
	}

	chamadas := make([]models.Chamada, 0, len(req.Entries))
	for _, entry := range req.Entries {
		if !entry.Status.Valid() {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("status de chamada inválido: %s", entry.Status))
		}
		chamadas = append(chamadas, models.Chamada{
			TurmaID:   req.TurmaID,
			StudentID: entry.StudentID,
			Date:      req.Date,
			Time:      req.Time,
			Status:    entry.Status,
			Notes:     entry.Notes,
		})
	}

	if err := s.repo.CreateBatch(ctx, chamadas); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create chamadas")
	}
	return nil
}

// Update edits one attendance record.
func (s *ChamadaService) Update(ctx context.Context, id string, req UpdateChamadaRequest, schoolScope string) (*models.Chamada, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid chamada payload")
	}
	if !req.Status.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("status de chamada inválido: %s", req.Status))
	}

	chamada, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "chamada não encontrada")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load chamada")
	}
	if err := s.checkTurmaScope(ctx, chamada.TurmaID, schoolScope); err != nil {
		return nil, err
	}

	chamada.Date = req.Date
	chamada.Time = req.Time
	chamada.Status = req.Status
	chamada.Notes = req.Notes
	if err := s.repo.Update(ctx, chamada); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update chamada")
	}
	return chamada, nil
}

// Delete removes one attendance record.
func (s *ChamadaService) Delete(ctx context.Context, id, schoolScope string) error {
	chamada, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "chamada não encontrada")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load chamada")
	}
	if err := s.checkTurmaScope(ctx, chamada.TurmaID, schoolScope); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete chamada")
	}
	return nil
}

func (s *ChamadaService) checkTurmaScope(ctx context.Context, turmaID, schoolScope string) error {
	turma, err := s.turmas.FindByID(ctx, turmaID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "turma não encontrada")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load turma")
	}
	if schoolScope != "" && turma.SchoolID != schoolScope {
		return appErrors.Clone(appErrors.ErrForbidden, "turma fora do escopo da escola")
	}
	return nil
}
