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

// MatriculaRepository handles persistence of enrollments and their
// installment plans.
type MatriculaRepository struct {
	db *sqlx.DB
}

// NewMatriculaRepository constructs the repository.
func NewMatriculaRepository(db *sqlx.DB) *MatriculaRepository {
	return &MatriculaRepository{db: db}
}

// List returns enrollments with student/school/course names joined in.
func (r *MatriculaRepository) List(ctx context.Context, filter models.MatriculaFilter) ([]models.MatriculaDetail, int, error) {
	base := `FROM matriculas m
JOIN users u ON u.id = m.student_id
JOIN escolas e ON e.id = m.school_id
JOIN cursos c ON c.id = m.curso_id`
	conditions := []string{"1=1"}
	var args []interface{}

	if filter.StudentID != "" {
		conditions = append(conditions, fmt.Sprintf("m.student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.SchoolID != "" {
		conditions = append(conditions, fmt.Sprintf("m.school_id = $%d", len(args)+1))
		args = append(args, filter.SchoolID)
	}
	if filter.CursoID != "" {
		conditions = append(conditions, fmt.Sprintf("m.curso_id = $%d", len(args)+1))
		args = append(args, filter.CursoID)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("m.status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("LOWER(u.name) LIKE $%d", len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	base = fmt.Sprintf("%s WHERE %s", base, strings.Join(conditions, " AND "))

	allowedSorts := map[string]string{
		"created_at":   "m.created_at",
		"student_name": "u.name",
		"status":       "m.status",
		"price":        "m.price",
	}
	column, ok := allowedSorts[filter.SortBy]
	if !ok {
		column = "m.created_at"
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

	query := fmt.Sprintf(`SELECT m.id, m.student_id, m.school_id, m.curso_id, m.turma_id, m.price, m.billing_type,
        m.installment_count, m.installment_amount, m.first_payment_date, m.level, m.schedule, m.status,
        m.has_guardian, m.has_extra_data, m.created_at, m.updated_at,
        u.name AS student_name, e.name AS school_name, c.name AS curso_name
        %s ORDER BY %s %s LIMIT %d OFFSET %d`, base, column, order, size, offset)

	var matriculas []models.MatriculaDetail
	if err := r.db.SelectContext(ctx, &matriculas, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list matriculas: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count matriculas: %w", err)
	}
	return matriculas, total, nil
}

// FindByID returns an enrollment by its ID.
func (r *MatriculaRepository) FindByID(ctx context.Context, id string) (*models.Matricula, error) {
	const query = `SELECT id, student_id, school_id, curso_id, turma_id, price, billing_type, installment_count,
        installment_amount, first_payment_date, level, schedule, status, has_guardian, has_extra_data, created_at, updated_at
        FROM matriculas WHERE id = $1`
	var matricula models.Matricula
	if err := r.db.GetContext(ctx, &matricula, query, id); err != nil {
		return nil, err
	}
	return &matricula, nil
}

// FindDetailByID returns an enrollment with related names for display.
func (r *MatriculaRepository) FindDetailByID(ctx context.Context, id string) (*models.MatriculaDetail, error) {
	const query = `SELECT m.id, m.student_id, m.school_id, m.curso_id, m.turma_id, m.price, m.billing_type,
        m.installment_count, m.installment_amount, m.first_payment_date, m.level, m.schedule, m.status,
        m.has_guardian, m.has_extra_data, m.created_at, m.updated_at,
        u.name AS student_name, e.name AS school_name, c.name AS curso_name
        FROM matriculas m
        JOIN users u ON u.id = m.student_id
        JOIN escolas e ON e.id = m.school_id
        JOIN cursos c ON c.id = m.curso_id
        WHERE m.id = $1`
	var detail models.MatriculaDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// CreateWithParcelas inserts the enrollment and its installment series in a
// single transaction so a partial plan is never visible.
func (r *MatriculaRepository) CreateWithParcelas(ctx context.Context, matricula *models.Matricula, parcelas []models.Parcela) error {
	if matricula.ID == "" {
		matricula.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if matricula.CreatedAt.IsZero() {
		matricula.CreatedAt = now
	}
	matricula.UpdatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create matricula: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	const insertMatricula = `INSERT INTO matriculas (id, student_id, school_id, curso_id, turma_id, price, billing_type,
        installment_count, installment_amount, first_payment_date, level, schedule, status, has_guardian, has_extra_data, created_at, updated_at)
        VALUES (:id, :student_id, :school_id, :curso_id, :turma_id, :price, :billing_type, :installment_count,
        :installment_amount, :first_payment_date, :level, :schedule, :status, :has_guardian, :has_extra_data, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, insertMatricula, matricula); err != nil {
		return fmt.Errorf("create matricula: %w", err)
	}

	if err := insertParcelasTx(ctx, tx, matricula.ID, parcelas, now); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create matricula: %w", err)
	}
	return nil
}

// Update modifies the enrollment row. When regenerate is true the existing
// unpaid installment plan is replaced by the provided series in the same
// transaction; paid parcels are never touched.
func (r *MatriculaRepository) Update(ctx context.Context, matricula *models.Matricula, regenerate bool, parcelas []models.Parcela) error {
	now := time.Now().UTC()
	matricula.UpdatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin update matricula: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	const updateMatricula = `UPDATE matriculas SET turma_id = :turma_id, price = :price, billing_type = :billing_type,
        installment_count = :installment_count, installment_amount = :installment_amount, first_payment_date = :first_payment_date,
        level = :level, schedule = :schedule, has_guardian = :has_guardian, has_extra_data = :has_extra_data, updated_at = :updated_at
        WHERE id = :id`
	if _, err := tx.NamedExecContext(ctx, updateMatricula, matricula); err != nil {
		return fmt.Errorf("update matricula: %w", err)
	}

	if regenerate {
		const deleteUnpaid = `DELETE FROM parcelas WHERE matricula_id = $1 AND status <> $2`
		if _, err := tx.ExecContext(ctx, deleteUnpaid, matricula.ID, models.ParcelaStatusPago); err != nil {
			return fmt.Errorf("clear parcelas: %w", err)
		}
		if err := insertParcelasTx(ctx, tx, matricula.ID, parcelas, now); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit update matricula: %w", err)
	}
	return nil
}

// UpdateStatus changes the enrollment lifecycle status.
func (r *MatriculaRepository) UpdateStatus(ctx context.Context, id string, status models.MatriculaStatus) error {
	const query = `UPDATE matriculas SET status = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, status, time.Now().UTC()); err != nil {
		return fmt.Errorf("update matricula status: %w", err)
	}
	return nil
}

func insertParcelasTx(ctx context.Context, tx *sqlx.Tx, matriculaID string, parcelas []models.Parcela, now time.Time) error {
	const insertParcela = `INSERT INTO parcelas (id, matricula_id, ordinal, amount, due_date, status, paid_at, created_at, updated_at)
        VALUES (:id, :matricula_id, :ordinal, :amount, :due_date, :status, :paid_at, :created_at, :updated_at)`
	for i := range parcelas {
		p := &parcelas[i]
		if p.ID == "" {
			p.ID = uuid.NewString()
		}
		p.MatriculaID = matriculaID
		if p.Status == "" {
			p.Status = models.ParcelaStatusAVencer
		}
		p.CreatedAt = now
		p.UpdatedAt = now
		if _, err := tx.NamedExecContext(ctx, insertParcela, p); err != nil {
			return fmt.Errorf("create parcela %d: %w", p.Ordinal, err)
		}
	}
	return nil
}
