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

type escolaRepository interface {
	List(ctx context.Context, filter models.EscolaFilter) ([]models.Escola, int, error)
	FindByID(ctx context.Context, id string) (*models.Escola, error)
	Create(ctx context.Context, escola *models.Escola) error
	Update(ctx context.Context, escola *models.Escola) error
	Deactivate(ctx context.Context, id string) error
}

// EscolaRequest holds the payload for creating or updating schools.
type EscolaRequest struct {
	Name   string `json:"name" validate:"required"`
	CNPJ   string `json:"cnpj"`
	City   string `json:"city"`
	Street string `json:"street"`
	Number string `json:"number"`
	Phone  string `json:"phone"`
	Email  string `json:"email" validate:"omitempty,email"`
	Active *bool  `json:"active"`
}

// EscolaService handles school management use-cases.
type EscolaService struct {
	repo      escolaRepository
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewEscolaService constructs the school service.
func NewEscolaService(repo escolaRepository, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *EscolaService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EscolaService{repo: repo, cache: cache, validator: validate, logger: logger}
}

type escolaListPage struct {
	Escolas []models.Escola `json:"escolas"`
	Total   int             `json:"total"`
}

// List returns schools and pagination metadata. Listings are served from the
// shared reference-data cache when warm.
func (s *EscolaService) List(ctx context.Context, filter models.EscolaFilter) ([]models.Escola, *models.Pagination, error) {
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}

	key := escolaListCacheKey(filter)
	var cached escolaListPage
	if s.cache != nil {
		if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
			return cached.Escolas, &models.Pagination{Page: page, PageSize: size, TotalCount: cached.Total}, nil
		}
	}

	escolas, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list escolas")
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, key, escolaListPage{Escolas: escolas, Total: total}, 0); err != nil {
			s.logger.Warn("failed to cache escola list", zap.Error(err))
		}
	}
	return escolas, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns a school by ID, consulting the reference-data cache first.
func (s *EscolaService) Get(ctx context.Context, id string) (*models.Escola, error) {
	key := cacheKey("ref:escola", id)
	if s.cache != nil {
		var cached models.Escola
		if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
			return &cached, nil
		}
	}
	escola, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "escola não encontrada")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load escola")
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, key, escola, 0); err != nil {
			s.logger.Warn("failed to cache escola", zap.Error(err))
		}
	}
	return escola, nil
}

func escolaListCacheKey(filter models.EscolaFilter) string {
	active := ""
	if filter.Active != nil {
		active = strconv.FormatBool(*filter.Active)
	}
	return cacheKey("ref:escola:list",
		filter.Search, active,
		strconv.Itoa(filter.Page), strconv.Itoa(filter.PageSize),
		filter.SortBy, filter.SortOrder,
	)
}

// Create registers a new school.
func (s *EscolaService) Create(ctx context.Context, req EscolaRequest) (*models.Escola, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid escola payload")
	}
	escola := &models.Escola{
		Name:   req.Name,
		CNPJ:   req.CNPJ,
		City:   req.City,
		Street: req.Street,
		Number: req.Number,
		Phone:  req.Phone,
		Email:  req.Email,
		Active: true,
	}
	if err := s.repo.Create(ctx, escola); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create escola")
	}
	s.invalidate(ctx)
	return escola, nil
}

// Update modifies an existing school.
func (s *EscolaService) Update(ctx context.Context, id string, req EscolaRequest) (*models.Escola, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid escola payload")
	}
	escola, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	escola.Name = req.Name
	escola.CNPJ = req.CNPJ
	escola.City = req.City
	escola.Street = req.Street
	escola.Number = req.Number
	escola.Phone = req.Phone
	escola.Email = req.Email
	if req.Active != nil {
		escola.Active = *req.Active
	}
	if err := s.repo.Update(ctx, escola); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update escola")
	}
	s.invalidate(ctx)
	return escola, nil
}

// Deactivate soft-deletes a school.
func (s *EscolaService) Deactivate(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Deactivate(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to deactivate escola")
	}
	s.invalidate(ctx)
	return nil
}

func (s *EscolaService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, "ref:escola:*"); err != nil {
		s.logger.Warn("failed to invalidate escola cache", zap.Error(err))
	}
}
