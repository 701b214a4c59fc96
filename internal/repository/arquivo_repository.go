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

// ArquivoRepository handles persistence of distributed audio files and
// course materials. Both tables share the same column layout.
type ArquivoRepository struct {
	db *sqlx.DB
}

// NewArquivoRepository constructs the repository.
func NewArquivoRepository(db *sqlx.DB) *ArquivoRepository {
	return &ArquivoRepository{db: db}
}

func arquivoConditions(filter models.ArquivoFilter) (string, []interface{}, int, int) {
	conditions := []string{"1=1"}
	var args []interface{}

	if filter.SchoolID != "" {
		conditions = append(conditions, fmt.Sprintf("school_id = $%d", len(args)+1))
		args = append(args, filter.SchoolID)
	}
	if filter.TurmaID != "" {
		conditions = append(conditions, fmt.Sprintf("turma_id = $%d", len(args)+1))
		args = append(args, filter.TurmaID)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("LOWER(name) LIKE $%d", len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	return strings.Join(conditions, " AND "), args, size, (page - 1) * size
}

// ListAudios returns audio files matching the filter.
func (r *ArquivoRepository) ListAudios(ctx context.Context, filter models.ArquivoFilter) ([]models.Audio, int, error) {
	where, args, size, offset := arquivoConditions(filter)

	query := fmt.Sprintf(`SELECT id, school_id, turma_id, name, file_path, mime_type, size_bytes, created_by, created_at
        FROM audios WHERE %s ORDER BY created_at DESC LIMIT %d OFFSET %d`, where, size, offset)
	var audios []models.Audio
	if err := r.db.SelectContext(ctx, &audios, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list audios: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM audios WHERE %s", where)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count audios: %w", err)
	}
	return audios, total, nil
}

// FindAudioByID returns one audio file record.
func (r *ArquivoRepository) FindAudioByID(ctx context.Context, id string) (*models.Audio, error) {
	const query = `SELECT id, school_id, turma_id, name, file_path, mime_type, size_bytes, created_by, created_at
        FROM audios WHERE id = $1`
	var audio models.Audio
	if err := r.db.GetContext(ctx, &audio, query, id); err != nil {
		return nil, err
	}
	return &audio, nil
}

// CreateAudio persists an uploaded audio record.
func (r *ArquivoRepository) CreateAudio(ctx context.Context, audio *models.Audio) error {
	if audio.ID == "" {
		audio.ID = uuid.NewString()
	}
	audio.CreatedAt = time.Now().UTC()
	const query = `INSERT INTO audios (id, school_id, turma_id, name, file_path, mime_type, size_bytes, created_by, created_at)
        VALUES (:id, :school_id, :turma_id, :name, :file_path, :mime_type, :size_bytes, :created_by, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, audio); err != nil {
		return fmt.Errorf("create audio: %w", err)
	}
	return nil
}

// DeleteAudio removes an audio record.
func (r *ArquivoRepository) DeleteAudio(ctx context.Context, id string) error {
	const query = `DELETE FROM audios WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete audio: %w", err)
	}
	return nil
}

// ListMateriais returns course materials matching the filter.
func (r *ArquivoRepository) ListMateriais(ctx context.Context, filter models.ArquivoFilter) ([]models.Material, int, error) {
	where, args, size, offset := arquivoConditions(filter)

	query := fmt.Sprintf(`SELECT id, school_id, turma_id, name, file_path, mime_type, size_bytes, created_by, created_at
        FROM materiais WHERE %s ORDER BY created_at DESC LIMIT %d OFFSET %d`, where, size, offset)
	var materiais []models.Material
	if err := r.db.SelectContext(ctx, &materiais, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list materiais: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM materiais WHERE %s", where)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count materiais: %w", err)
	}
	return materiais, total, nil
}

// FindMaterialByID returns one material record.
func (r *ArquivoRepository) FindMaterialByID(ctx context.Context, id string) (*models.Material, error) {
	const query = `SELECT id, school_id, turma_id, name, file_path, mime_type, size_bytes, created_by, created_at
        FROM materiais WHERE id = $1`
	var material models.Material
	if err := r.db.GetContext(ctx, &material, query, id); err != nil {
		return nil, err
	}
	return &material, nil
}

// CreateMaterial persists an uploaded material record.
func (r *ArquivoRepository) CreateMaterial(ctx context.Context, material *models.Material) error {
	if material.ID == "" {
		material.ID = uuid.NewString()
	}
	material.CreatedAt = time.Now().UTC()
	const query = `INSERT INTO materiais (id, school_id, turma_id, name, file_path, mime_type, size_bytes, created_by, created_at)
        VALUES (:id, :school_id, :turma_id, :name, :file_path, :mime_type, :size_bytes, :created_by, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, material); err != nil {
		return fmt.Errorf("create material: %w", err)
	}
	return nil
}

// DeleteMaterial removes a material record.
func (r *ArquivoRepository) DeleteMaterial(ctx context.Context, id string) error {
	const query = `DELETE FROM materiais WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete material: %w", err)
	}
	return nil
}
