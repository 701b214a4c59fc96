package service

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/escola-hub/escola-admin-api/internal/models"
	appErrors "github.com/escola-hub/escola-admin-api/pkg/errors"
)

type userRepository interface {
	List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	ExistsByEmail(ctx context.Context, email, excludeID string) (bool, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	Deactivate(ctx context.Context, id string) error
}

// CreateUserRequest holds the payload for creating users. The numeric type
// is the role code gating feature visibility.
type CreateUserRequest struct {
	Email        string          `json:"email" validate:"required,email"`
	Password     string          `json:"password" validate:"required,min=6"`
	Name         string          `json:"name" validate:"required"`
	Type         models.UserType `json:"type" validate:"required"`
	SchoolID     *string         `json:"school_id"`
	CPF          string          `json:"cpf"`
	BirthDate    *time.Time      `json:"birth_date"`
	Profession   string          `json:"profession"`
	MaritalState string          `json:"marital_state"`
	City         string          `json:"city"`
	Street       string          `json:"street"`
	Number       string          `json:"number"`
	Phone        string          `json:"phone"`
	CellPhone    string          `json:"cell_phone"`
	ParentName   string          `json:"parent_name"`
	ParentCPF    string          `json:"parent_cpf"`
	ParentPhone  string          `json:"parent_phone"`
}

// UpdateUserRequest holds the payload for updating users.
type UpdateUserRequest struct {
	Email        string          `json:"email" validate:"required,email"`
	Name         string          `json:"name" validate:"required"`
	Type         models.UserType `json:"type" validate:"required"`
	SchoolID     *string         `json:"school_id"`
	CPF          string          `json:"cpf"`
	BirthDate    *time.Time      `json:"birth_date"`
	Profession   string          `json:"profession"`
	MaritalState string          `json:"marital_state"`
	City         string          `json:"city"`
	Street       string          `json:"street"`
	Number       string          `json:"number"`
	Phone        string          `json:"phone"`
	CellPhone    string          `json:"cell_phone"`
	ParentName   string          `json:"parent_name"`
	ParentCPF    string          `json:"parent_cpf"`
	ParentPhone  string          `json:"parent_phone"`
	Active       bool            `json:"active"`
}

// UserService handles user management use-cases.
type UserService struct {
	repo      userRepository
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewUserService constructs the user service.
func NewUserService(repo userRepository, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *UserService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserService{repo: repo, cache: cache, validator: validate, logger: logger}
}

type userListPage struct {
	Users []models.User `json:"users"`
	Total int           `json:"total"`
}

// List returns users and pagination metadata. A non-empty schoolScope
// restricts results to that school. Listings are served from the shared
// reference-data cache when warm.
func (s *UserService) List(ctx context.Context, filter models.UserFilter, schoolScope string) ([]models.User, *models.Pagination, error) {
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

	key := userListCacheKey(filter)
	var cached userListPage
	if s.cache != nil {
		if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
			return cached.Users, &models.Pagination{Page: page, PageSize: size, TotalCount: cached.Total}, nil
		}
	}

	users, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list users")
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, key, userListPage{Users: users, Total: total}, 0); err != nil {
			s.logger.Warn("failed to cache user list", zap.Error(err))
		}
	}
	return users, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns a user by ID, consulting the reference-data cache first.
func (s *UserService) Get(ctx context.Context, id string) (*models.User, error) {
	key := cacheKey("ref:user", id)
	if s.cache != nil {
		var cached models.User
		if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
			return &cached, nil
		}
	}
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "usuário não encontrado")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, key, user, 0); err != nil {
			s.logger.Warn("failed to cache user", zap.Error(err))
		}
	}
	return user, nil
}

func userListCacheKey(filter models.UserFilter) string {
	userType := ""
	if filter.Type != nil {
		userType = strconv.Itoa(int(*filter.Type))
	}
	active := ""
	if filter.Active != nil {
		active = strconv.FormatBool(*filter.Active)
	}
	return cacheKey("ref:user:list",
		userType, filter.SchoolID, filter.Search, active,
		strconv.Itoa(filter.Page), strconv.Itoa(filter.PageSize),
		filter.SortBy, filter.SortOrder,
	)
}

// Create registers a new user with a hashed password.
func (s *UserService) Create(ctx context.Context, req CreateUserRequest) (*models.User, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid user payload")
	}
	if !req.Type.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "tipo de usuário inválido")
	}

	exists, err := s.repo.ExistsByEmail(ctx, req.Email, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate email")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "email já cadastrado")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	user := &models.User{
		Email:        req.Email,
		PasswordHash: string(hash),
		Name:         req.Name,
		Type:         req.Type,
		SchoolID:     req.SchoolID,
		CPF:          req.CPF,
		BirthDate:    req.BirthDate,
		Profession:   req.Profession,
		MaritalState: req.MaritalState,
		City:         req.City,
		Street:       req.Street,
		Number:       req.Number,
		Phone:        req.Phone,
		CellPhone:    req.CellPhone,
		ParentName:   req.ParentName,
		ParentCPF:    req.ParentCPF,
		ParentPhone:  req.ParentPhone,
		Active:       true,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create user")
	}
	s.invalidate(ctx)
	return user, nil
}

// Update modifies an existing user.
func (s *UserService) Update(ctx context.Context, id string, req UpdateUserRequest) (*models.User, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid user payload")
	}
	if !req.Type.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "tipo de usuário inválido")
	}

	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "usuário não encontrado")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}

	exists, err := s.repo.ExistsByEmail(ctx, req.Email, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate email")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "email já cadastrado")
	}

	user.Email = req.Email
	user.Name = req.Name
	user.Type = req.Type
	user.SchoolID = req.SchoolID
	user.CPF = req.CPF
	user.BirthDate = req.BirthDate
	user.Profession = req.Profession
	user.MaritalState = req.MaritalState
	user.City = req.City
	user.Street = req.Street
	user.Number = req.Number
	user.Phone = req.Phone
	user.CellPhone = req.CellPhone
	user.ParentName = req.ParentName
	user.ParentCPF = req.ParentCPF
	user.ParentPhone = req.ParentPhone
	user.Active = req.Active

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update user")
	}
	s.invalidate(ctx)
	return user, nil
}

// Deactivate soft-deletes a user.
func (s *UserService) Deactivate(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Deactivate(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to deactivate user")
	}
	s.invalidate(ctx)
	return nil
}

func (s *UserService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, "ref:user:*"); err != nil {
		s.logger.Warn("failed to invalidate user cache", zap.Error(err))
	}
}
