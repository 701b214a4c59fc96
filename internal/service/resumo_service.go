package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/escola-hub/escola-admin-api/internal/models"
	appErrors "github.com/escola-hub/escola-admin-api/pkg/errors"
)

type resumoRepository interface {
	ListByTurma(ctx context.Context, turmaID string) ([]models.Resumo, error)
	FindByID(ctx context.Context, id string) (*models.Resumo, error)
	Create(ctx context.Context, resumo *models.Resumo) error
	Update(ctx context.Context, resumo *models.Resumo) error
	Delete(ctx context.Context, id string) error
}

type resumoTurmaReader interface {
	FindByID(ctx context.Context, id string) (*models.Turma, error)
}

// ResumoRequest holds the payload for creating or updating lesson summaries.
type ResumoRequest struct {
	TurmaID   string    `json:"turma_id" validate:"required"`
	Date      time.Time `json:"date" validate:"required"`
	Text      string    `json:"text" validate:"required"`
	Link      *string   `json:"link"`
	VideoLink *string   `json:"video_link"`
	FilePath  *string   `json:"file_path"`
}

// ResumoService implements lesson summary use-cases, including the
// date-grouped listing the class timeline screen consumes.
type ResumoService struct {
	repo      resumoRepository
	turmas    resumoTurmaReader
	validator *validator.Validate
	logger    *zap.Logger
}

// NewResumoService constructs the lesson summary service.
func NewResumoService(repo resumoRepository, turmas resumoTurmaReader, validate *validator.Validate, logger *zap.Logger) *ResumoService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ResumoService{repo: repo, turmas: turmas, validator: validate, logger: logger}
}

// ListByTurma returns the class's summaries grouped by calendar date, newest
// date first. Within a date summaries keep creation order. Date labels use
// the day/month/year format.
func (s *ResumoService) ListByTurma(ctx context.Context, turmaID, schoolScope string) ([]models.ResumoGroup, error) {
	if err := s.checkTurmaScope(ctx, turmaID, schoolScope); err != nil {
		return nil, err
	}
	resumos, err := s.repo.ListByTurma(ctx, turmaID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list resumos")
	}
	return GroupResumosByDate(resumos), nil
}

// GroupResumosByDate buckets an already ordered summary list into per-date
// groups, preserving the incoming order.
func GroupResumosByDate(resumos []models.Resumo) []models.ResumoGroup {
	groups := make([]models.ResumoGroup, 0)
	index := make(map[string]int)
	for _, resumo := range resumos {
		label := resumo.Date.Format(ptBRDate)
		i, ok := index[label]
		if !ok {
			i = len(groups)
			index[label] = i
			groups = append(groups, models.ResumoGroup{Date: label})
		}
		groups[i].Resumos = append(groups[i].Resumos, resumo)
	}
	return groups
}

// Create registers a new lesson summary.
func (s *ResumoService) Create(ctx context.Context, req ResumoRequest, schoolScope string) (*models.Resumo, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid resumo payload")
	}
	if err := s.checkTurmaScope(ctx, req.TurmaID, schoolScope); err != nil {
		return nil, err
	}
	resumo := &models.Resumo{
		TurmaID:   req.TurmaID,
		Date:      req.Date,
		Text:      req.Text,
		Link:      req.Link,
		VideoLink: req.VideoLink,
		FilePath:  req.FilePath,
	}
	if err := s.repo.Create(ctx, resumo); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create resumo")
	}
	return resumo, nil
}

// Update modifies an existing lesson summary.
func (s *ResumoService) Update(ctx context.Context, id string, req ResumoRequest, schoolScope string) (*models.Resumo, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid resumo payload")
	}
	resumo, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "resumo não encontrado")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load resumo")
	}
	if err := s.checkTurmaScope(ctx, resumo.TurmaID, schoolScope); err != nil {
		return nil, err
	}
	resumo.Date = req.Date
	resumo.Text = req.Text
	resumo.Link = req.Link
	resumo.VideoLink = req.VideoLink
	resumo.FilePath = req.FilePath
	if err := s.repo.Update(ctx, resumo); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update resumo")
	}
	return resumo, nil
}

// Delete removes a lesson summary.
func (s *ResumoService) Delete(ctx context.Context, id, schoolScope string) error {
	resumo, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "resumo não encontrado")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load resumo")
	}
	if err := s.checkTurmaScope(ctx, resumo.TurmaID, schoolScope); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete resumo")
	}
	return nil
}

func (s *ResumoService) checkTurmaScope(ctx context.Context, turmaID, schoolScope string) error {
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
