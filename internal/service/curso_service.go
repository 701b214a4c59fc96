package service

import (
	"context"
	"database/sql"
	"errors"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/escola-hub/escola-admin-api/internal/models"
	appErrors "github.com/escola-hub/escola-admin-api/pkg/errors"
)

type cursoRepository interface {
	List(ctx context.Context, filter models.CursoFilter) ([]models.Curso, int, error)
	FindByID(ctx context.Context, id string) (*models.Curso, error)
	Create(ctx context.Context, curso *models.Curso) error
	Update(ctx context.Context, curso *models.Curso) error
	Deactivate(ctx context.Context, id string) error
}

// CursoRequest holds the payload for creating or updating courses. Price and
// installment bounds feed the enrollment billing widget.
type CursoRequest struct {
	SchoolID        string          `json:"school_id" validate:"required"`
	Name            string          `json:"name" validate:"required"`
	Language        string          `json:"language"`
	Price           decimal.Decimal `json:"price"`
	MaxInstallments int             `json:"max_installments" validate:"gte=0"`
	Active          *bool           `json:"active"`
}

// CursoService handles course management use-cases.
type CursoService struct {
	repo      cursoRepository
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCursoService constructs the course service.
func NewCursoService(repo cursoRepository, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *CursoService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CursoService{repo: repo, cache: cache, validator: validate, logger: logger}
}

type cursoListPage struct {
	Cursos []models.Curso `json:"cursos"`
	Total  int            `json:"total"`
}

// List returns courses and pagination metadata. A non-empty schoolScope
// restricts results to that school. Listings are served from the shared
// reference-data cache when warm.
func (s *CursoService) List(ctx context.Context, filter models.CursoFilter, schoolScope string) ([]models.Curso, *models.Pagination, error) {
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

	key := cursoListCacheKey(filter)
	var cached cursoListPage
	if s.cache != nil {
		if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
			return cached.Cursos, &models.Pagination{Page: page, PageSize: size, TotalCount: cached.Total}, nil
		}
	}

	cursos, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list cursos")
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, key, cursoListPage{Cursos: cursos, Total: total}, 0); err != nil {
			s.logger.Warn("failed to cache curso list", zap.Error(err))
		}
	}
	return cursos, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns a course by ID, consulting the reference-data cache first.
func (s *CursoService) Get(ctx context.Context, id string) (*models.Curso, error) {
	key := cacheKey("ref:curso", id)
	if s.cache != nil {
		var cached models.Curso
		if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
			return &cached, nil
		}
	}
	curso, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "curso não encontrado")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load curso")
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, key, curso, 0); err != nil {
			s.logger.Warn("failed to cache curso", zap.Error(err))
		}
	}
	return curso, nil
}

func cursoListCacheKey(filter models.CursoFilter) string {
	active := ""
	if filter.Active != nil {
		active = strconv.FormatBool(*filter.Active)
	}
	return cacheKey("ref:curso:list",
		filter.SchoolID, filter.Search, active,
		strconv.Itoa(filter.Page), strconv.Itoa(filter.PageSize),
		filter.SortBy, filter.SortOrder,
	)
}

// Create registers a new course.
func (s *CursoService) Create(ctx context.Context, req CursoRequest) (*models.Curso, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid curso payload")
	}
	if req.Price.IsNegative() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "preço não pode ser negativo")
	}
	curso := &models.Curso{
		SchoolID:        req.SchoolID,
		Name:            req.Name,
		Language:        req.Language,
		Price:           req.Price.Round(2),
		MaxInstallments: req.MaxInstallments,
		Active:          true,
	}
	if err := s.repo.Create(ctx, curso); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create curso")
	}
	s.invalidate(ctx)
	return curso, nil
}

// Update modifies an existing course. Price changes never touch billing
// plans already generated.
func (s *CursoService) Update(ctx context.Context, id string, req CursoRequest) (*models.Curso, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid curso payload")
	}
	if req.Price.IsNegative() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "preço não pode ser negativo")
	}
	curso, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	curso.Name = req.Name
	curso.Language = req.Language
	curso.Price = req.Price.Round(2)
	curso.MaxInstallments = req.MaxInstallments
	if req.Active != nil {
		curso.Active = *req.Active
	}
	if err := s.repo.Update(ctx, curso); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update curso")
	}
	s.invalidate(ctx)
	return curso, nil
}

// Deactivate soft-deletes a course.
func (s *CursoService) Deactivate(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Deactivate(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to deactivate curso")
	}
	s.invalidate(ctx)
	return nil
}

func (s *CursoService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, "ref:curso:*"); err != nil {
		s.logger.Warn("failed to invalidate curso cache", zap.Error(err))
	}
}
