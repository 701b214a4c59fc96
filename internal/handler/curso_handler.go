package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/escola-hub/escola-admin-api/internal/models"
	"github.com/escola-hub/escola-admin-api/internal/service"
	appErrors "github.com/escola-hub/escola-admin-api/pkg/errors"
	"github.com/escola-hub/escola-admin-api/pkg/response"
)

// CursoHandler exposes course management endpoints.
type CursoHandler struct {
	cursos *service.CursoService
}

// NewCursoHandler constructs CursoHandler.
func NewCursoHandler(cursos *service.CursoService) *CursoHandler {
	return &CursoHandler{cursos: cursos}
}

// List godoc
// @Summary List courses
// @Tags Cursos
// @Produce json
// @Param schoolId query string false "Filter by school"
// @Param search query string false "Search by name"
// @Param active query bool false "Filter by active flag"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /cursos [get]
func (h *CursoHandler) List(c *gin.Context) {
	var filter models.CursoFilter
	filter.SchoolID = c.Query("schoolId")
	filter.Search = c.Query("search")
	if raw := c.Query("active"); raw != "" {
		if active, err := strconv.ParseBool(raw); err == nil {
			filter.Active = &active
		}
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}
	filter.SortBy = c.Query("sort")
	filter.SortOrder = c.Query("order")

	cursos, pagination, err := h.cursos.List(c.Request.Context(), filter, schoolScopeFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, cursos, pagination)
}

// Get godoc
// @Summary Get course by ID
// @Tags Cursos
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Router /cursos/{id} [get]
func (h *CursoHandler) Get(c *gin.Context) {
	curso, err := h.cursos.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, curso, nil)
}

// Create godoc
// @Summary Create course
// @Tags Cursos
// @Accept json
// @Produce json
// @Param payload body service.CursoRequest true "Course payload"
// @Success 201 {object} response.Envelope
// @Router /cursos [post]
func (h *CursoHandler) Create(c *gin.Context) {
	var req service.CursoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	curso, err := h.cursos.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, curso)
}

// Update godoc
// @Summary Update course
// @Tags Cursos
// @Accept json
// @Produce json
// @Param id path string true "Course ID"
// @Param payload body service.CursoRequest true "Course payload"
// @Success 200 {object} response.Envelope
// @Router /cursos/{id} [put]
func (h *CursoHandler) Update(c *gin.Context) {
	var req service.CursoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	curso, err := h.cursos.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, curso, nil)
}

// Delete godoc
// @Summary Deactivate course
// @Tags Cursos
// @Produce json
// @Param id path string true "Course ID"
// @Success 204 {object} response.Envelope
// @Router /cursos/{id} [delete]
func (h *CursoHandler) Delete(c *gin.Context) {
	if err := h.cursos.Deactivate(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
