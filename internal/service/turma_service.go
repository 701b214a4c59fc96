package service

import (
	"context"
	"database/sql"
	"errors"
	"strconv"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/escola-hub/escola-admin-api/internal/models"
	appErrors "github.com/escola-hub/escola-admin-api/pkg/errors"
)

type turmaRepository interface {
	List(ctx context.Context, filter models.TurmaFilter) ([]models.TurmaDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.Turma, error)
	Create(ctx context.Context, turma *models.Turma) error
	Update(ctx context.Context, turma *models.Turma) error
	Deactivate(ctx context.Context, id string) error
}

type turmaCursoReader interface {
	FindByID(ctx context.Context, id string) (*models.Curso, error)
}

type turmaUserReader interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// TurmaRequest holds the payload for creating or updating classes.
type TurmaRequest struct {
	SchoolID  string `json:"school_id" validate:"required"`
	CursoID   string `json:"curso_id" validate:"required"`
	TeacherID string `json:"teacher_id" validate:"required"`
	Name      string `json:"name" validate:"required"`
	Level     string `json:"level"`
	Weekday   string `json:"weekday"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Active    *bool  `json:"active"`
}

// TurmaService handles class management use-cases.
type TurmaService struct {
	repo      turmaRepository
	cursos    turmaCursoReader
	users     turmaUserReader
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTurmaService constructs the class service.
func NewTurmaService(repo turmaRepository, cursos turmaCursoReader, users turmaUserReader, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *TurmaService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TurmaService{repo: repo, cursos: cursos, users: users, cache: cache, validator: validate, logger: logger}
}

type turmaListPage struct {
	Turmas []models.TurmaDetail `json:"turmas"`
	Total  int                  `json:"total"`
}

// List returns classes and pagination metadata. A non-empty schoolScope
// restricts results to that school. Listings are served from the shared
// reference-data cache when warm.
func (s *TurmaService) List(ctx context.Context, filter models.TurmaFilter, schoolScope string) ([]models.TurmaDetail, *models.Pagination, error) {
	if schoolScope != "" {
		filter.SchoolID = schoolScope
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}

	key := turmaListCacheKey(filter)
	var cached turmaListPage
	if s.cache != nil {
		if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
			return cached.Turmas, &models.Pagination{Page: page, PageSize: size, TotalCount: cached.Total}, nil
		}
	}

	turmas, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list turmas")
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, key, turmaListPage{Turmas: turmas, Total: total}, 0); err != nil {
			s.logger.Warn("failed to cache turma list", zap.Error(err))
		}
	}
	return turmas, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns a class by ID, consulting the reference-data cache first.
func (s *TurmaService) Get(ctx context.Context, id string) (*models.Turma, error) {
	key := cacheKey("ref:turma", id)
	if s.cache != nil {
		var cached models.Turma
		if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
			return &cached, nil
		}
	}
	turma, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "turma não encontrada")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load turma")
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, key, turma, 0); err != nil {
			s.logger.Warn("failed to cache turma", zap.Error(err))
		}
	}
	return turma, nil
}

func turmaListCacheKey(filter models.TurmaFilter) string {
	active := ""
	if filter.Active != nil {
		active = strconv.FormatBool(*filter.Active)
	}
	return cacheKey("ref:turma:list",
		filter.SchoolID, filter.CursoID, filter.TeacherID, filter.Search, active,
		strconv.Itoa(filter.Page), strconv.Itoa(filter.PageSize),
		filter.SortBy, filter.SortOrder,
	)
}

// Create registers a new class after checking the course and teacher exist.
func (s *TurmaService) Create(ctx context.Context, req TurmaRequest) (*models.Turma, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid turma payload")
	}
	if err := s.checkRefs(ctx, req); err != nil {
		return nil, err
	}
	turma := &models.Turma{
		SchoolID:  req.SchoolID,
		CursoID:   req.CursoID,
		TeacherID: req.TeacherID,
		Name:      req.Name,
		Level:     req.Level,
		Weekday:   req.Weekday,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Active:    true,
	}
	if err := s.repo.Create(ctx, turma); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create turma")
	}
	s.invalidate(ctx)
	return turma, nil
}

// Update modifies an existing class.
func (s *TurmaService) Update(ctx context.Context, id string, req TurmaRequest) (*models.Turma, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid turma payload")
	}
	turma, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.checkRefs(ctx, req); err != nil {
		return nil, err
	}
	turma.CursoID = req.CursoID
	turma.TeacherID = req.TeacherID
	turma.Name = req.Name
	turma.Level = req.Level
	turma.Weekday = req.Weekday
	turma.StartTime = req.StartTime
	turma.EndTime = req.EndTime
	if req.Active != nil {
		turma.Active = *req.Active
	}
	if err := s.repo.Update(ctx, turma); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update turma")
	}
	s.invalidate(ctx)
	return turma, nil
}

// Deactivate soft-deletes a class.
func (s *TurmaService) Deactivate(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Deactivate(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to deactivate turma")
	}
	s.invalidate(ctx)
	return nil
}

func (s *TurmaService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, "ref:turma:*"); err != nil {
		s.logger.Warn("failed to invalidate turma cache", zap.Error(err))
	}
}

func (s *TurmaService) checkRefs(ctx context.Context, req TurmaRequest) error {
	if _, err := s.cursos.FindByID(ctx, req.CursoID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "curso não encontrado")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load curso")
	}
	teacher, err := s.users.FindByID(ctx, req.TeacherID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "professor não encontrado")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}
	if teacher.Type != models.UserTypeProfessor {
		return appErrors.Clone(appErrors.ErrValidation, "usuário não é um professor")
	}
	return nil
}
