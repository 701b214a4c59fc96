package handler

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/escola-hub/escola-admin-api/internal/service"
	appErrors "github.com/escola-hub/escola-admin-api/pkg/errors"
	"github.com/escola-hub/escola-admin-api/pkg/response"
)

type resumoFileStorage interface {
	Save(filename string, data []byte) (string, error)
}

// ResumoHandler exposes lesson summary endpoints.
type ResumoHandler struct {
	resumos *service.ResumoService
	storage resumoFileStorage
}

// NewResumoHandler constructs ResumoHandler.
func NewResumoHandler(resumos *service.ResumoService, storage resumoFileStorage) *ResumoHandler {
	return &ResumoHandler{resumos: resumos, storage: storage}
}

// ListByTurma godoc
// @Summary List lesson summaries for a class
// @Description Summaries grouped by calendar date, newest first; records inside a group keep creation order
// @Tags Resumos
// @Produce json
// @Param turmaId path string true "Class ID"
// @Success 200 {object} response.Envelope
// @Router /resumos/{turmaId} [get]
func (h *ResumoHandler) ListByTurma(c *gin.Context) {
	groups, err := h.resumos.ListByTurma(c.Request.Context(), c.Param("turmaId"), schoolScopeFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, groups, nil)
}

// Create godoc
// @Summary Create lesson summary
// @Tags Resumos
// @Accept multipart/form-data
// @Produce json
// @Param turma_id formData string true "Class ID"
// @Param date formData string true "Session date (AAAA-MM-DD)"
// @Param text formData string true "Summary text"
// @Param link formData string false "External link"
// @Param video_link formData string false "Video link"
// @Param file formData file false "Attachment"
// @Success 201 {object} response.Envelope
// @Router /resumos [post]
func (h *ResumoHandler) Create(c *gin.Context) {
	req, err := h.bindForm(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	resumo, err := h.resumos.Create(c.Request.Context(), *req, schoolScopeFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, resumo)
}

// Update godoc
// @Summary Update lesson summary
// @Tags Resumos
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Summary ID"
// @Success 200 {object} response.Envelope
// @Router /resumos/{id} [put]
func (h *ResumoHandler) Update(c *gin.Context) {
	req, err := h.bindForm(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	resumo, err := h.resumos.Update(c.Request.Context(), c.Param("id"), *req, schoolScopeFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, resumo, nil)
}

// Delete godoc
// @Summary Delete lesson summary
// @Tags Resumos
// @Produce json
// @Param id path string true "Summary ID"
// @Success 204 {object} response.Envelope
// @Router /resumos/{id} [delete]
func (h *ResumoHandler) Delete(c *gin.Context) {
	if err := h.resumos.Delete(c.Request.Context(), c.Param("id"), schoolScopeFromContext(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// bindForm reads the multipart summary form. JSON bodies are accepted too so
// updates without attachments stay simple.
func (h *ResumoHandler) bindForm(c *gin.Context) (*service.ResumoRequest, error) {
	var req service.ResumoRequest
	contentType := c.ContentType()
	if contentType == "application/json" {
		if err := c.ShouldBindJSON(&req); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload")
		}
		return &req, nil
	}

	req.TurmaID = c.PostForm("turma_id")
	req.Text = c.PostForm("text")
	if raw := c.PostForm("date"); raw != "" {
		date, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "data inválida, use o formato AAAA-MM-DD")
		}
		req.Date = date
	}
	if link := c.PostForm("link"); link != "" {
		req.Link = &link
	}
	if video := c.PostForm("video_link"); video != "" {
		req.VideoLink = &video
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return &req, nil
	}
	if h.storage == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "file storage not configured")
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
	relPath, err := h.storage.Save(fmt.Sprintf("resumos/%s_%s", uuid.NewString(), fileHeader.Filename), data)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store file")
	}
	req.FilePath = &relPath
	return &req, nil
}
