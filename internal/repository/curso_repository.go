package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/escola-hub/escola-admin-api/internal/models"
)

// CursoRepository manages persistence for course records.
type CursoRepository struct {
	db *sqlx.DB
}

// NewCursoRepository constructs a CursoRepository.
func NewCursoRepository(db *sqlx.DB) *CursoRepository {
	return &CursoRepository{db: db}
}

// List returns courses matching the provided filters.
func (r *CursoRepository) List(ctx context.Context, filter models.CursoFilter) ([]models.Curso, int, error) {
	base := "FROM cursos"
	conditions := []string{"1=1"}
	var args []interface{}

	if filter.SchoolID != "" {
		conditions = append(conditions, fmt.Sprintf("school_id = $%d", len(args)+1))
		args = append(args, filter.SchoolID)
	}
	if filter.Active != nil {
		conditions = append(conditions, fmt.Sprintf("active = $%d", len(args)+1))
		args = append(args, *filter.Active)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(name) LIKE $%d OR LOWER(language) LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	base = fmt.Sprintf("%s WHERE %s", base, strings.Join(conditions, " AND "))

	allowedSorts := map[string]string{
		"name":       "name",
		"price":      "price",
		"created_at": "created_at",
	}
	column, ok := allowedSorts[filter.SortBy]
	if !ok {
		column = "name"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "ASC"
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT id, school_id, name, language, price, max_installments, active, created_at, updated_at
        %s ORDER BY %s %s LIMIT %d OFFSET %d`, base, column, order, size, offset)

	var cursos []models.Curso
	if err := r.db.SelectContext(ctx, &cursos, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list cursos: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count cursos: %w", err)
	}
	return cursos, total, nil
}

// FindByID fetches a course by ID.
func (r *CursoRepository) FindByID(ctx context.Context, id string) (*models.Curso, error) {
	const query = `SELECT id, school_id, name, language, price, max_installments, active, created_at, updated_at
        FROM cursos WHERE id = $1`
	var curso models.Curso
	if err := r.db.GetContext(ctx, &curso, query, id); err != nil {
		return nil, err
	}
	return &curso, nil
}

// Create inserts a new course record.
func (r *CursoRepository) Create(ctx context.Context, curso *models.Curso) error {
	if curso.ID == "" {
		curso.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if curso.CreatedAt.IsZero() {
		curso.CreatedAt = now
	}
	curso.UpdatedAt = now
	const query = `INSERT INTO cursos (id, school_id, name, language, price, max_installments, active, created_at, updated_at)
        VALUES (:id, :school_id, :name, :language, :price, :max_installments, :active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, curso); err != nil {
		return fmt.Errorf("create curso: %w", err)
	}
	return nil
}

// Update modifies an existing course.
func (r *CursoRepository) Update(ctx context.Context, curso *models.Curso) error {
	curso.UpdatedAt = time.Now().UTC()
	const query = `UPDATE cursos SET name = :name, language = :language, price = :price, max_installments = :max_installments,
        active = :active, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, curso); err != nil {
		return fmt.Errorf("update curso: %w", err)
	}
	return nil
}

// Deactivate marks a course as inactive.
func (r *CursoRepository) Deactivate(ctx context.Context, id string) error {
	const query = `UPDATE cursos SET active = false, updated_at = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, time.Now().UTC()); err != nil {
		return fmt.Errorf("deactivate curso: %w", err)
	}
	return nil
}
