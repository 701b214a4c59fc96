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

// TurmaRepository handles persistence of classes.
type TurmaRepository struct {
	db *sqlx.DB
}

// NewTurmaRepository constructs the repository.
func NewTurmaRepository(db *sqlx.DB) *TurmaRepository {
	return &TurmaRepository{db: db}
}

// List returns classes filtered by the provided criteria.
func (r *TurmaRepository) List(ctx context.Context, filter models.TurmaFilter) ([]models.TurmaDetail, int, error) {
	base := `FROM turmas t
LEFT JOIN cursos c ON c.id = t.curso_id
LEFT JOIN users u ON u.id = t.teacher_id
LEFT JOIN escolas e ON e.id = t.school_id`
	conditions := []string{"1=1"}
	var args []interface{}

	if filter.SchoolID != "" {
		conditions = append(conditions, fmt.Sprintf("t.school_id = $%d", len(args)+1))
		args = append(args, filter.SchoolID)
	}
	if filter.CursoID != "" {
		conditions = append(conditions, fmt.Sprintf("t.curso_id = $%d", len(args)+1))
		args = append(args, filter.CursoID)
	}
	if filter.TeacherID != "" {
		conditions = append(conditions, fmt.Sprintf("t.teacher_id = $%d", len(args)+1))
		args = append(args, filter.TeacherID)
	}
	if filter.Active != nil {
		conditions = append(conditions, fmt.Sprintf("t.active = $%d", len(args)+1))
		args = append(args, *filter.Active)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("LOWER(t.name) LIKE $%d", len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	base = fmt.Sprintf("%s WHERE %s", base, strings.Join(conditions, " AND "))

	allowedSorts := map[string]string{
		"name":       "t.name",
		"weekday":    "t.weekday",
		"created_at": "t.created_at",
	}
	column, ok := allowedSorts[filter.SortBy]
	if !ok {
		column = "t.name"
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

	query := fmt.Sprintf(`SELECT t.id, t.school_id, t.curso_id, t.teacher_id, t.name, t.level, t.weekday, t.start_time, t.end_time,
        t.active, t.created_at, t.updated_at,
        c.name AS curso_name, u.name AS teacher_name, e.name AS school_name
        %s ORDER BY %s %s LIMIT %d OFFSET %d`, base, column, order, size, offset)

	var turmas []models.TurmaDetail
	if err := r.db.SelectContext(ctx, &turmas, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list turmas: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count turmas: %w", err)
	}
	return turmas, total, nil
}

// FindByID returns a class by its ID.
func (r *TurmaRepository) FindByID(ctx context.Context, id string) (*models.Turma, error) {
	const query = `SELECT id, school_id, curso_id, teacher_id, name, level, weekday, start_time, end_time, active, created_at, updated_at
        FROM turmas WHERE id = $1`
	var turma models.Turma
	if err := r.db.GetContext(ctx, &turma, query, id); err != nil {
		return nil, err
	}
	return &turma, nil
}

// Create persists a new class record.
func (r *TurmaRepository) Create(ctx context.Context, turma *models.Turma) error {
	if turma.ID == "" {
		turma.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if turma.CreatedAt.IsZero() {
		turma.CreatedAt = now
	}
	turma.UpdatedAt = now
	const query = `INSERT INTO turmas (id, school_id, curso_id, teacher_id, name, level, weekday, start_time, end_time, active, created_at, updated_at)
        VALUES (:id, :school_id, :curso_id, :teacher_id, :name, :level, :weekday, :start_time, :end_time, :active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, turma); err != nil {
		return fmt.Errorf("create turma: %w", err)
	}
	return nil
}

// Update modifies an existing class.
func (r *TurmaRepository) Update(ctx context.Context, turma *models.Turma) error {
	turma.UpdatedAt = time.Now().UTC()
	const query = `UPDATE turmas SET curso_id = :curso_id, teacher_id = :teacher_id, name = :name, level = :level,
        weekday = :weekday, start_time = :start_time, end_time = :end_time, active = :active, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, turma); err != nil {
		return fmt.Errorf("update turma: %w", err)
	}
	return nil
}

// Deactivate marks a class as inactive.
func (r *TurmaRepository) Deactivate(ctx context.Context, id string) error {
	const query = `UPDATE turmas SET active = false, updated_at = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, time.Now().UTC()); err != nil {
		return fmt.Errorf("deactivate turma: %w", err)
	}
	return nil
}
