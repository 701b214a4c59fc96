package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/escola-hub/escola-admin-api/internal/models"
)

// ResumoRepository handles persistence of lesson summaries.
type ResumoRepository struct {
	db *sqlx.DB
}

// NewResumoRepository constructs the repository.
func NewResumoRepository(db *sqlx.DB) *ResumoRepository {
	return &ResumoRepository{db: db}
}

// ListByTurma returns every summary for a class ordered newest date first,
// and within a date in creation order. The ordering feeds the date grouping
// done by the service.
func (r *ResumoRepository) ListByTurma(ctx context.Context, turmaID string) ([]models.Resumo, error) {
	const query = `SELECT id, turma_id, date, text, link, video_link, file_path, created_at, updated_at
        FROM resumos WHERE turma_id = $1
        ORDER BY date DESC, created_at ASC`
	var resumos []models.Resumo
	if err := r.db.SelectContext(ctx, &resumos, query, turmaID); err != nil {
		return nil, fmt.Errorf("list resumos: %w", err)
	}
	return resumos, nil
}

// FindByID returns one summary.
func (r *ResumoRepository) FindByID(ctx context.Context, id string) (*models.Resumo, error) {
	const query = `SELECT id, turma_id, date, text, link, video_link, file_path, created_at, updated_at
        FROM resumos WHERE id = $1`
	var resumo models.Resumo
	if err := r.db.GetContext(ctx, &resumo, query, id); err != nil {
		return nil, err
	}
	return &resumo, nil
}

// Create persists a new summary.
func (r *ResumoRepository) Create(ctx context.Context, resumo *models.Resumo) error {
	if resumo.ID == "" {
		resumo.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	resumo.CreatedAt = now
	resumo.UpdatedAt = now
	const query = `INSERT INTO resumos (id, turma_id, date, text, link, video_link, file_path, created_at, updated_at)
        VALUES (:id, :turma_id, :date, :text, :link, :video_link, :file_path, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, resumo); err != nil {
		return fmt.Errorf("create resumo: %w", err)
	}
	return nil
}

// Update modifies an existing summary.
func (r *ResumoRepository) Update(ctx context.Context, resumo *models.Resumo) error {
	resumo.UpdatedAt = time.Now().UTC()
	const query = `UPDATE resumos SET date = :date, text = :text, link = :link, video_link = :video_link,
        file_path = :file_path, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, resumo); err != nil {
		return fmt.Errorf("update resumo: %w", err)
	}
	return nil
}

// Delete removes a summary.
func (r *ResumoRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM resumos WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete resumo: %w", err)
	}
	return nil
}
