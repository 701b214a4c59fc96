package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/escola-hub/escola-admin-api/internal/models"
	appErrors "github.com/escola-hub/escola-admin-api/pkg/errors"
)

type arquivoRepository interface {
	ListAudios(ctx context.Context, filter models.ArquivoFilter) ([]models.Audio, int, error)
	FindAudioByID(ctx context.Context, id string) (*models.Audio, error)
	CreateAudio(ctx context.Context, audio *models.Audio) error
	DeleteAudio(ctx context.Context, id string) error
	ListMateriais(ctx context.Context, filter models.ArquivoFilter) ([]models.Material, int, error)
	FindMaterialByID(ctx context.Context, id string) (*models.Material, error)
	CreateMaterial(ctx context.Context, material *models.Material) error
	DeleteMaterial(ctx context.Context, id string) error
}

type arquivoFileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
}

// UploadArquivoRequest carries metadata for an uploaded file; the bytes come
// from the multipart body.
type UploadArquivoRequest struct {
	SchoolID string
	TurmaID  *string
	Name     string
	MimeType string
	Data     []byte
}

// ArquivoConfig bounds uploads.
type ArquivoConfig struct {
	MaxFileSizeBytes int64
	AllowedMIMEs     []string
}

// ArquivoService manages distributed audio files and course materials.
type ArquivoService struct {
	repo    arquivoRepository
	storage arquivoFileStorage
	cfg     ArquivoConfig
	logger  *zap.Logger
}

// NewArquivoService constructs the file distribution service.
func NewArquivoService(repo arquivoRepository, store arquivoFileStorage, cfg ArquivoConfig, logger *zap.Logger) *ArquivoService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxFileSizeBytes <= 0 {
		cfg.MaxFileSizeBytes = 25 << 20
	}
	return &ArquivoService{repo: repo, storage: store, cfg: cfg, logger: logger}
}

// ListAudios returns audio files and pagination metadata.
func (s *ArquivoService) ListAudios(ctx context.Context, filter models.ArquivoFilter, schoolScope string) ([]models.Audio, *models.Pagination, error) {
	if schoolScope != "" {
		filter.SchoolID = schoolScope
	}
	audios, total, err := s.repo.ListAudios(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list audios")
	}
	return audios, paginationFor(filter.Page, filter.PageSize, total), nil
}

// UploadAudio stores an audio file and its record.
func (s *ArquivoService) UploadAudio(ctx context.Context, req UploadArquivoRequest, createdBy string) (*models.Audio, error) {
	relPath, err := s.store(req)
	if err != nil {
		return nil, err
	}
	audio := &models.Audio{
		SchoolID:  req.SchoolID,
		TurmaID:   req.TurmaID,
		Name:      req.Name,
		FilePath:  relPath,
		MimeType:  req.MimeType,
		SizeBytes: int64(len(req.Data)),
		CreatedBy: createdBy,
	}
	if err := s.repo.CreateAudio(ctx, audio); err != nil {
		s.discard(relPath)
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create audio")
	}
	return audio, nil
}

// OpenAudio returns the stored audio file for streaming.
func (s *ArquivoService) OpenAudio(ctx context.Context, id, schoolScope string) (*os.File, *models.Audio, error) {
	audio, err := s.repo.FindAudioByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "áudio não encontrado")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load audio")
	}
	if schoolScope != "" && audio.SchoolID != schoolScope {
		return nil, nil, appErrors.Clone(appErrors.ErrForbidden, "áudio fora do escopo da escola")
	}
	file, err := s.storage.Open(audio.FilePath)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open audio file")
	}
	return file, audio, nil
}

// DeleteAudio removes the record and its file.
func (s *ArquivoService) DeleteAudio(ctx context.Context, id, schoolScope string) error {
	audio, err := s.repo.FindAudioByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "áudio não encontrado")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load audio")
	}
	if schoolScope != "" && audio.SchoolID != schoolScope {
		return appErrors.Clone(appErrors.ErrForbidden, "áudio fora do escopo da escola")
	}
	if err := s.repo.DeleteAudio(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete audio")
	}
	s.discard(audio.FilePath)
	return nil
}

// ListMateriais returns course materials and pagination metadata.
func (s *ArquivoService) ListMateriais(ctx context.Context, filter models.ArquivoFilter, schoolScope string) ([]models.Material, *models.Pagination, error) {
	if schoolScope != "" {
		filter.SchoolID = schoolScope
	}
	materiais, total, err := s.repo.ListMateriais(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list materiais")
	}
	return materiais, paginationFor(filter.Page, filter.PageSize, total), nil
}

// UploadMaterial stores a course material and its record.
func (s *ArquivoService) UploadMaterial(ctx context.Context, req UploadArquivoRequest, createdBy string) (*models.Material, error) {
	relPath, err := s.store(req)
	if err != nil {
		return nil, err
	}
	material := &models.Material{
		SchoolID:  req.SchoolID,
		TurmaID:   req.TurmaID,
		Name:      req.Name,
		FilePath:  relPath,
		MimeType:  req.MimeType,
		SizeBytes: int64(len(req.Data)),
		CreatedBy: createdBy,
	}
	if err := s.repo.CreateMaterial(ctx, material); err != nil {
		s.discard(relPath)
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create material")
	}
	return material, nil
}

// OpenMaterial returns the stored material for download.
func (s *ArquivoService) OpenMaterial(ctx context.Context, id, schoolScope string) (*os.File, *models.Material, error) {
	material, err := s.repo.FindMaterialByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "material não encontrado")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load material")
	}
	if schoolScope != "" && material.SchoolID != schoolScope {
		return nil, nil, appErrors.Clone(appErrors.ErrForbidden, "material fora do escopo da escola")
	}
	file, err := s.storage.Open(material.FilePath)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open material file")
	}
	return file, material, nil
}

// DeleteMaterial removes the record and its file.
func (s *ArquivoService) DeleteMaterial(ctx context.Context, id, schoolScope string) error {
	material, err := s.repo.FindMaterialByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "material não encontrado")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load material")
	}
	if schoolScope != "" && material.SchoolID != schoolScope {
		return appErrors.Clone(appErrors.ErrForbidden, "material fora do escopo da escola")
	}
	if err := s.repo.DeleteMaterial(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete material")
	}
	s.discard(material.FilePath)
	return nil
}

func (s *ArquivoService) store(req UploadArquivoRequest) (string, error) {
	if req.Name == "" {
		return "", appErrors.Clone(appErrors.ErrValidation, "nome do arquivo é obrigatório")
	}
	if len(req.Data) == 0 {
		return "", appErrors.Clone(appErrors.ErrValidation, "arquivo vazio")
	}
	if int64(len(req.Data)) > s.cfg.MaxFileSizeBytes {
		return "", appErrors.Clone(appErrors.ErrValidation,
			fmt.Sprintf("arquivo excede o tamanho máximo de %d bytes", s.cfg.MaxFileSizeBytes))
	}
	if len(s.cfg.AllowedMIMEs) > 0 && !s.mimeAllowed(req.MimeType) {
		return "", appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("tipo de arquivo não permitido: %s", req.MimeType))
	}
	relPath, err := s.storage.Save(req.Name, req.Data)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store file")
	}
	return relPath, nil
}

func (s *ArquivoService) mimeAllowed(mime string) bool {
	for _, allowed := range s.cfg.AllowedMIMEs {
		if strings.EqualFold(allowed, mime) {
			return true
		}
	}
	return false
}

func (s *ArquivoService) discard(relPath string) {
	if err := s.storage.Delete(relPath); err != nil {
		s.logger.Warn("failed to delete stored file", zap.String("path", relPath), zap.Error(err))
	}
}

func paginationFor(page, size, total int) *models.Pagination {
	if page < 1 {
		page = 1
	}
	if size <= 0 {
		size = 20
	}
	return &models.Pagination{Page: page, PageSize: size, TotalCount: total}
}
