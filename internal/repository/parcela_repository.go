package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/escola-hub/escola-admin-api/internal/models"
)

// ParcelaRepository reads and updates installment rows. Parcela creation
// happens through MatriculaRepository so the plan stays transactional with
// its enrollment.
type ParcelaRepository struct {
	db *sqlx.DB
}

// NewParcelaRepository constructs the repository.
func NewParcelaRepository(db *sqlx.DB) *ParcelaRepository {
	return &ParcelaRepository{db: db}
}

// Ledger returns installments joined with student and course context, the
// shape backing the financial ledger screen.
func (r *ParcelaRepository) Ledger(ctx context.Context, filter models.ParcelaFilter) ([]models.ParcelaDetail, int, error) {
	base := `FROM parcelas p
JOIN matriculas m ON m.id = p.matricula_id
JOIN users u ON u.id = m.student_id
JOIN cursos c ON c.id = m.curso_id`
	conditions := []string{"1=1"}
	var args []interface{}

	if filter.MatriculaID != "" {
		conditions = append(conditions, fmt.Sprintf("p.matricula_id = $%d", len(args)+1))
		args = append(args, filter.MatriculaID)
	}
	if filter.SchoolID != "" {
		conditions = append(conditions, fmt.Sprintf("m.school_id = $%d", len(args)+1))
		args = append(args, filter.SchoolID)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("p.status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	if filter.DueFrom != nil {
		conditions = append(conditions, fmt.Sprintf("p.due_date >= $%d", len(args)+1))
		args = append(args, *filter.DueFrom)
	}
	if filter.DueTo != nil {
		conditions = append(conditions, fmt.Sprintf("p.due_date <= $%d", len(args)+1))
		args = append(args, *filter.DueTo)
	}

	base = fmt.Sprintf("%s WHERE %s", base, strings.Join(conditions, " AND "))

	allowedSorts := map[string]string{
		"due_date":     "p.due_date",
		"amount":       "p.amount",
		"student_name": "u.name",
	}
	column, ok := allowedSorts[filter.SortBy]
	if !ok {
		column = "p.due_date"
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

	query := fmt.Sprintf(`SELECT p.id, p.matricula_id, p.ordinal, p.amount, p.due_date, p.status, p.paid_at,
        p.created_at, p.updated_at,
        u.name AS student_name, m.school_id, c.name AS curso_name
        %s ORDER BY %s %s, p.ordinal ASC LIMIT %d OFFSET %d`, base, column, order, size, offset)

	var parcelas []models.ParcelaDetail
	if err := r.db.SelectContext(ctx, &parcelas, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list parcelas: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count parcelas: %w", err)
	}
	return parcelas, total, nil
}

// LedgerAll returns every matching installment without pagination. Used by
// the monthly totals and export paths where the full month is needed.
func (r *ParcelaRepository) LedgerAll(ctx context.Context, filter models.ParcelaFilter) ([]models.ParcelaDetail, error) {
	filter.Page = 1
	filter.PageSize = 100
	var all []models.ParcelaDetail
	for {
		page, total, err := r.Ledger(ctx, filter)
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		if len(all) >= total || len(page) == 0 {
			return all, nil
		}
		filter.Page++
	}
}

// FindByID returns one installment with its ledger context.
func (r *ParcelaRepository) FindByID(ctx context.Context, id string) (*models.ParcelaDetail, error) {
	const query = `SELECT p.id, p.matricula_id, p.ordinal, p.amount, p.due_date, p.status, p.paid_at,
        p.created_at, p.updated_at,
        u.name AS student_name, m.school_id, c.name AS curso_name
        FROM parcelas p
        JOIN matriculas m ON m.id = p.matricula_id
        JOIN users u ON u.id = m.student_id
        JOIN cursos c ON c.id = m.curso_id
        WHERE p.id = $1`
	var parcela models.ParcelaDetail
	if err := r.db.GetContext(ctx, &parcela, query, id); err != nil {
		return nil, err
	}
	return &parcela, nil
}

// UpdateStatus stores a new status for an installment. paidAt is set when
// the installment is marked paid and cleared when it is reopened.
func (r *ParcelaRepository) UpdateStatus(ctx context.Context, id string, status models.ParcelaStatus, paidAt *time.Time) error {
	const query = `UPDATE parcelas SET status = $2, paid_at = $3, updated_at = $4 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, status, paidAt, time.Now().UTC()); err != nil {
		return fmt.Errorf("update parcela status: %w", err)
	}
	return nil
}
