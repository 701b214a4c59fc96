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

// EscolaRepository manages persistence for school records.
type EscolaRepository struct {
	db *sqlx.DB
}

// NewEscolaRepository constructs an EscolaRepository.
func NewEscolaRepository(db *sqlx.DB) *EscolaRepository {
	return &EscolaRepository{db: db}
}

// List returns schools matching the provided filters.
func (r *EscolaRepository) List(ctx context.Context, filter models.EscolaFilter) ([]models.Escola, int, error) {
	base := "FROM escolas"
	conditions := []string{"1=1"}
	var args []interface{}

	if filter.Active != nil {
		conditions = append(conditions, fmt.Sprintf("active = $%d", len(args)+1))
		args = append(args, *filter.Active)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(name) LIKE $%d OR cnpj LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	base = fmt.Sprintf("%s WHERE %s", base, strings.Join(conditions, " AND "))

	allowedSorts := map[string]string{
		"name":       "name",
		"city":       "city",
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

	query := fmt.Sprintf(`SELECT id, name, cnpj, city, street, number, phone, email, active, created_at, updated_at
        %s ORDER BY %s %s LIMIT %d OFFSET %d`, base, column, order, size, offset)

	var escolas []models.Escola
	if err := r.db.SelectContext(ctx, &escolas, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list escolas: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count escolas: %w", err)
	}
	return escolas, total, nil
}

// FindByID fetches a school by ID.
func (r *EscolaRepository) FindByID(ctx context.Context, id string) (*models.Escola, error) {
	const query = `SELECT id, name, cnpj, city, street, number, phone, email, active, created_at, updated_at
        FROM escolas WHERE id = $1`
	var escola models.Escola
	if err := r.db.GetContext(ctx, &escola, query, id); err != nil {
		return nil, err
	}
	return &escola, nil
}

// Create inserts a new school record.
func (r *EscolaRepository) Create(ctx context.Context, escola *models.Escola) error {
	if escola.ID == "" {
		escola.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if escola.CreatedAt.IsZero() {
		escola.CreatedAt = now
	}
	escola.UpdatedAt = now
	const query = `INSERT INTO escolas (id, name, cnpj, city, street, number, phone, email, active, created_at, updated_at)
        VALUES (:id, :name, :cnpj, :city, :street, :number, :phone, :email, :active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, escola); err != nil {
		return fmt.Errorf("create escola: %w", err)
	}
	return nil
}

// Update modifies an existing school.
func (r *EscolaRepository) Update(ctx context.Context, escola *models.Escola) error {
	escola.UpdatedAt = time.Now().UTC()
	const query = `UPDATE escolas SET name = :name, cnpj = :cnpj, city = :city, street = :street, number = :number,
        phone = :phone, email = :email, active = :active, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, escola); err != nil {
		return fmt.Errorf("update escola: %w", err)
	}
	return nil
}

// Deactivate marks a school as inactive.
func (r *EscolaRepository) Deactivate(ctx context.Context, id string) error {
	const query = `UPDATE escolas SET active = false, updated_at = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, time.Now().UTC()); err != nil {
		return fmt.Errorf("deactivate escola: %w", err)
	}
	return nil
}
