package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/escola-hub/escola-admin-api/internal/models"
	"github.com/escola-hub/escola-admin-api/internal/service"
	appErrors "github.com/escola-hub/escola-admin-api/pkg/errors"
	"github.com/escola-hub/escola-admin-api/pkg/response"
)

// ChamadaHandler exposes attendance endpoints.
type ChamadaHandler struct {
	chamadas *service.ChamadaService
}

// NewChamadaHandler constructs ChamadaHandler.
func NewChamadaHandler(chamadas *service.ChamadaService) *ChamadaHandler {
	return &ChamadaHandler{chamadas: chamadas}
}

// ListByTurma godoc
// @Summary List attendance for a class
// @Tags Chamadas
// @Produce json
// @Param turmaId path string true "Class ID"
// @Param studentId query string false "Filter by student"
// @Param status query string false "Filter by status"
// @Param from query string false "Date from (AAAA-MM-DD)"
// @Param to query string false "Date to (AAAA-MM-DD)"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /chamadas/turma/{turmaId} [get]
func (h *ChamadaHandler) ListByTurma(c *gin.Context) {
	var filter models.ChamadaFilter
	filter.TurmaID = c.Param("turmaId")
	filter.StudentID = c.Query("studentId")
	if raw := c.Query("status"); raw != "" {
		status := models.ChamadaStatus(strings.ToUpper(raw))
		filter.Status = &status
	}
	if raw := c.Query("from"); raw != "" {
		if from, err := time.Parse("2006-01-02", raw); err == nil {
			filter.DateFrom = &from
		}
	}
	if raw := c.Query("to"); raw != "" {
		if to, err := time.Parse("2006-01-02", raw); err == nil {
			filter.DateTo = &to
		}
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}
	filter.SortBy = c.Query("sort")

	chamadas, pagination, err := h.chamadas.ListByTurma(c.Request.Context(), filter, schoolScopeFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, chamadas, pagination)
}

// Create godoc
// @Summary Register a class-session roll call
// @Tags Chamadas
// @Accept json
// @Produce json
// @Param payload body service.CreateChamadaRequest true "Roll call payload"
// @Success 201 {object} response.Envelope
// @Router /chamadas [post]
func (h *ChamadaHandler) Create(c *gin.Context) {
	var req service.CreateChamadaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if err := h.chamadas.Create(c.Request.Context(), req, schoolScopeFromContext(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, gin.H{"message": "chamada registrada"}, nil)
}

// Update godoc
// @Summary Update one attendance record
// @Tags Chamadas
// @Accept json
// @Produce json
// @Param id path string true "Attendance ID"
// @Param payload body service.UpdateChamadaRequest true "Attendance payload"
// @Success 200 {object} response.Envelope
// @Router /chamadas/{id} [put]
func (h *ChamadaHandler) Update(c *gin.Context) {
	var req service.UpdateChamadaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	chamada, err := h.chamadas.Update(c.Request.Context(), c.Param("id"), req, schoolScopeFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, chamada, nil)
}

// Delete godoc
// @Summary Delete attendance record
// @Tags Chamadas
// @Produce json
// @Param id path string true "Attendance ID"
// @Success 204 {object} response.Envelope
// @Router /chamadas/{id} [delete]
func (h *ChamadaHandler) Delete(c *gin.Context) {
	if err := h.chamadas.Delete(c.Request.Context(), c.Param("id"), schoolScopeFromContext(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
