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

// ChamadaRepository handles persistence of attendance records.
type ChamadaRepository struct {
	db *sqlx.DB
}

// NewChamadaRepository constructs the repository.
func NewChamadaRepository(db *sqlx.DB) *ChamadaRepository {
	return &ChamadaRepository{db: db}
}

// ListByTurma returns attendance records for a class.
func (r *ChamadaRepository) ListByTurma(ctx context.Context, filter models.ChamadaFilter) ([]models.ChamadaDetail, int, error) {
	base := `FROM chamadas ch
JOIN users u ON u.id = ch.student_id
JOIN turmas t ON t.id = ch.turma_id`
	conditions := []string{"1=1"}
	var args []interface{}

	if filter.TurmaID != "" {
		conditions = append(conditions, fmt.Sprintf("ch.turma_id = $%d", len(args)+1))
		args = append(args, filter.TurmaID)
	}
	if filter.StudentID != "" {
		conditions = append(conditions, fmt.Sprintf("ch.student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("ch.status = $%d", len(args)+1))
		args = append(args, *filter.Status)
	}
	if filter.DateFrom != nil {
		conditions = append(conditions, fmt.Sprintf("ch.date >= $%d", len(args)+1))
		args = append(args, *filter.DateFrom)
	}
	if filter.DateTo != nil {
		conditions = append(conditions, fmt.Sprintf("ch.date <= $%d", len(args)+1))
		args = append(args, *filter.DateTo)
	}

	base = fmt.Sprintf("%s WHERE %s", base, strings.Join(conditions, " AND "))

	allowedSorts := map[string]string{
		"date":         "ch.date",
		"student_name": "u.name",
		"status":       "ch.status",
	}
	column, ok := allowedSorts[filter.SortBy]
	if !ok {
		column = "ch.date"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
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

	query := fmt.Sprintf(`SELECT ch.id, ch.turma_id, ch.student_id, ch.date, ch.time, ch.status, ch.notes,
        ch.created_at, ch.updated_at,
        u.name AS student_name, t.name AS turma_name
        %s ORDER BY %s %s, u.name ASC LIMIT %d OFFSET %d`, base, column, order, size, offset)

	var chamadas []models.ChamadaDetail
	if err := r.db.SelectContext(ctx, &chamadas, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list chamadas: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count chamadas: %w", err)
	}
	return chamadas, total, nil
}

// FindByID returns one attendance record.
func (r *ChamadaRepository) FindByID(ctx context.Context, id string) (*models.Chamada, error) {
	const query = `SELECT id, turma_id, student_id, date, time, status, notes, created_at, updated_at
        FROM chamadas WHERE id = $1`
	var chamada models.Chamada
	if err := r.db.GetContext(ctx, &chamada, query, id); err != nil {
		return nil, err
	}
	return &chamada, nil
}

// CreateBatch inserts a full class-session roll call in one transaction.
func (r *ChamadaRepository) CreateBatch(ctx context.Context, chamadas []models.Chamada) error {
	if len(chamadas) == 0 {
		return nil
	}
	now := time.Now().UTC()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create chamadas: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	const query = `INSERT INTO chamadas (id, turma_id, student_id, date, time, status, notes, created_at, updated_at)
        VALUES (:id, :turma_id, :student_id, :date, :time, :status, :notes, :created_at, :updated_at)`
	for i := range chamadas {
		ch := &chamadas[i]
		if ch.ID == "" {
			ch.ID = uuid.NewString()
		}
		ch.CreatedAt = now
		ch.UpdatedAt = now
		if _, err := tx.NamedExecContext(ctx, query, ch); err != nil {
			return fmt.Errorf("create chamada: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create chamadas: %w", err)
	}
	return nil
}

// Update modifies a single attendance record.
func (r *ChamadaRepository) Update(ctx context.Context, chamada *models.Chamada) error {
	chamada.UpdatedAt = time.Now().UTC()
	const query = `UPDATE chamadas SET date = :date, time = :time, status = :status, notes = :notes, updated_at = :updated_at
        WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, chamada); err != nil {
		return fmt.Errorf("update chamada: %w", err)
	}
	return nil
}

// Delete removes an attendance record.
func (r *ChamadaRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM chamadas WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete chamada: %w", err)
	}
	return nil
}
