package handler

import (
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/escola-hub/escola-admin-api/internal/models"
	"github.com/escola-hub/escola-admin-api/internal/service"
	appErrors "github.com/escola-hub/escola-admin-api/pkg/errors"
	"github.com/escola-hub/escola-admin-api/pkg/response"
)

// ArquivoHandler exposes audio and course material endpoints.
type ArquivoHandler struct {
	arquivos *service.ArquivoService
}

// NewArquivoHandler constructs ArquivoHandler.
func NewArquivoHandler(arquivos *service.ArquivoService) *ArquivoHandler {
	return &ArquivoHandler{arquivos: arquivos}
}

func arquivoFilterFromQuery(c *gin.Context) models.ArquivoFilter {
	var filter models.ArquivoFilter
	filter.SchoolID = c.Query("schoolId")
	filter.TurmaID = c.Query("turmaId")
	filter.Search = c.Query("search")
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}
	return filter
}

func (h *ArquivoHandler) uploadRequest(c *gin.Context) (*service.UploadArquivoRequest, error) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "file is required")
	}
	src, err := fileHeader.Open()
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open file")
	}
	defer src.Close()
	data, err := io.ReadAll(src)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read file")
	}

	req := service.UploadArquivoRequest{
		SchoolID: c.PostForm("school_id"),
		Name:     c.DefaultPostForm("name", fileHeader.Filename),
		MimeType: fileHeader.Header.Get("Content-Type"),
		Data:     data,
	}
	if turmaID := c.PostForm("turma_id"); turmaID != "" {
		req.TurmaID = &turmaID
	}
	return &req, nil
}

// ListAudios godoc
// @Summary List audio files
// @Tags Arquivos
// @Produce json
// @Param schoolId query string false "Filter by school"
// @Param turmaId query string false "Filter by class"
// @Param search query string false "Search by name"
// @Success 200 {object} response.Envelope
// @Router /audios [get]
func (h *ArquivoHandler) ListAudios(c *gin.Context) {
	audios, pagination, err := h.arquivos.ListAudios(c.Request.Context(), arquivoFilterFromQuery(c), schoolScopeFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, audios, pagination)
}

// UploadAudio godoc
// @Summary Upload audio file
// @Tags Arquivos
// @Accept multipart/form-data
// @Produce json
// @Param school_id formData string true "School ID"
// @Param turma_id formData string false "Class ID"
// @Param name formData string false "Display name"
// @Param file formData file true "Audio file"
// @Success 201 {object} response.Envelope
// @Router /audios [post]
func (h *ArquivoHandler) UploadAudio(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	req, err := h.uploadRequest(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	audio, err := h.arquivos.UploadAudio(c.Request.Context(), *req, claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, audio)
}

// DownloadAudio godoc
// @Summary Download audio file
// @Tags Arquivos
// @Produce octet-stream
// @Param id path string true "Audio ID"
// @Success 200 {file} binary
// @Router /audios/{id}/download [get]
func (h *ArquivoHandler) DownloadAudio(c *gin.Context) {
	file, audio, err := h.arquivos.OpenAudio(c.Request.Context(), c.Param("id"), schoolScopeFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Close()

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", audio.Name))
	c.Header("Content-Type", audio.MimeType)
	c.File(file.Name())
}

// DeleteAudio godoc
// @Summary Delete audio file
// @Tags Arquivos
// @Produce json
// @Param id path string true "Audio ID"
// @Success 204 {object} response.Envelope
// @Router /audios/{id} [delete]
func (h *ArquivoHandler) DeleteAudio(c *gin.Context) {
	if err := h.arquivos.DeleteAudio(c.Request.Context(), c.Param("id"), schoolScopeFromContext(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListMateriais godoc
// @Summary List course materials
// @Tags Arquivos
// @Produce json
// @Param schoolId query string false "Filter by school"
// @Param turmaId query string false "Filter by class"
// @Param search query string false "Search by name"
// @Success 200 {object} response.Envelope
// @Router /materiais [get]
func (h *ArquivoHandler) ListMateriais(c *gin.Context) {
	materiais, pagination, err := h.arquivos.ListMateriais(c.Request.Context(), arquivoFilterFromQuery(c), schoolScopeFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, materiais, pagination)
}

// UploadMaterial godoc
// @Summary Upload course material
// @Tags Arquivos
// @Accept multipart/form-data
// @Produce json
// @Param school_id formData string true "School ID"
// @Param turma_id formData string false "Class ID"
// @Param name formData string false "Display name"
// @Param file formData file true "Material file"
// @Success 201 {object} response.Envelope
// @Router /materiais [post]
func (h *ArquivoHandler) UploadMaterial(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	req, err := h.uploadRequest(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	material, err := h.arquivos.UploadMaterial(c.Request.Context(), *req, claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, material)
}

// DownloadMaterial godoc
// @Summary Download course material
// @Tags Arquivos
// @Produce octet-stream
// @Param id path string true "Material ID"
// @Success 200 {file} binary
// @Router /materiais/{id}/download [get]
func (h *ArquivoHandler) DownloadMaterial(c *gin.Context) {
	file, material, err := h.arquivos.OpenMaterial(c.Request.Context(), c.Param("id"), schoolScopeFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Close()

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", material.Name))
	c.Header("Content-Type", material.MimeType)
	c.File(file.Name())
}

// DeleteMaterial godoc
// @Summary Delete course material
// @Tags Arquivos
// @Produce json
// @Param id path string true "Material ID"
// @Success 204 {object} response.Envelope
// @Router /materiais/{id} [delete]
func (h *ArquivoHandler) DeleteMaterial(c *gin.Context) {
	if err := h.arquivos.DeleteMaterial(c.Request.Context(), c.Param("id"), schoolScopeFromContext(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
