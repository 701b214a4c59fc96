package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/escola-hub/escola-admin-api/internal/dto"
	"github.com/escola-hub/escola-admin-api/internal/models"
	"github.com/escola-hub/escola-admin-api/internal/service"
	appErrors "github.com/escola-hub/escola-admin-api/pkg/errors"
	"github.com/escola-hub/escola-admin-api/pkg/response"
)

// MatriculaHandler exposes enrollment endpoints.
type MatriculaHandler struct {
	matriculas *service.MatriculaService
}

// NewMatriculaHandler constructs MatriculaHandler.
func NewMatriculaHandler(matriculas *service.MatriculaService) *MatriculaHandler {
	return &MatriculaHandler{matriculas: matriculas}
}

// List godoc
// @Summary List enrollments
// @Tags Matriculas
// @Produce json
// @Param studentId query string false "Filter by student"
// @Param schoolId query string false "Filter by school"
// @Param cursoId query string false "Filter by course"
// @Param status query string false "Filter by status"
// @Param search query string false "Search by student name"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /matriculas [get]
func (h *MatriculaHandler) List(c *gin.Context) {
	var filter models.MatriculaFilter
	filter.StudentID = c.Query("studentId")
	filter.SchoolID = c.Query("schoolId")
	filter.CursoID = c.Query("cursoId")
	filter.Status = models.MatriculaStatus(strings.ToUpper(c.Query("status")))
	filter.Search = c.Query("search")
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}
	filter.SortBy = c.Query("sort")
	filter.SortOrder = c.Query("order")

	matriculas, pagination, err := h.matriculas.List(c.Request.Context(), filter, schoolScopeFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, matriculas, pagination)
}

// Get godoc
// @Summary Get enrollment by ID
// @Tags Matriculas
// @Produce json
// @Param id path string true "Enrollment ID"
// @Success 200 {object} response.Envelope
// @Router /matriculas/{id} [get]
func (h *MatriculaHandler) Get(c *gin.Context) {
	matricula, err := h.matriculas.Get(c.Request.Context(), c.Param("id"), schoolScopeFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, matricula, nil)
}

// Draft godoc
// @Summary Hydrate the enrollment form for a student
// @Description Returns the student profile with composed address and the selected course's pricing bounds
// @Tags Matriculas
// @Produce json
// @Param id path string true "Student ID"
// @Param cursoId query string false "Selected course"
// @Success 200 {object} response.Envelope
// @Router /matriculas/novo/aluno/{id} [get]
func (h *MatriculaHandler) Draft(c *gin.Context) {
	studentID := c.Param("id")
	if studentID == "" {
		// Cleared selection: the form resets to an all-empty draft.
		response.JSON(c, http.StatusOK, &dto.EnrollmentDraft{}, nil)
		return
	}
	draft, err := h.matriculas.Draft(c.Request.Context(), studentID, c.Query("cursoId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, draft, nil)
}

// Create godoc
// @Summary Enroll student
// @Tags Matriculas
// @Accept json
// @Produce json
// @Param payload body service.CreateMatriculaRequest true "Enrollment payload"
// @Success 201 {object} response.Envelope
// @Router /matriculas [post]
func (h *MatriculaHandler) Create(c *gin.Context) {
	var req service.CreateMatriculaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	matricula, err := h.matriculas.Create(c.Request.Context(), req, schoolScopeFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, matricula)
}

// Update godoc
// @Summary Update enrollment
// @Tags Matriculas
// @Accept json
// @Produce json
// @Param id path string true "Enrollment ID"
// @Param payload body service.UpdateMatriculaRequest true "Enrollment payload"
// @Success 200 {object} response.Envelope
// @Router /matriculas/{id} [put]
func (h *MatriculaHandler) Update(c *gin.Context) {
	var req service.UpdateMatriculaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	matricula, err := h.matriculas.Update(c.Request.Context(), c.Param("id"), req, schoolScopeFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, matricula, nil)
}

// UpdateStatus godoc
// @Summary Move enrollment through its lifecycle
// @Tags Matriculas
// @Accept json
// @Produce json
// @Param id path string true "Enrollment ID"
// @Param payload body object true "New status"
// @Success 204 {object} response.Envelope
// @Router /matriculas/{id}/status [put]
func (h *MatriculaHandler) UpdateStatus(c *gin.Context) {
	var payload struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "status required"))
		return
	}
	status := models.MatriculaStatus(strings.ToUpper(payload.Status))
	if err := h.matriculas.UpdateStatus(c.Request.Context(), c.Param("id"), status, schoolScopeFromContext(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
