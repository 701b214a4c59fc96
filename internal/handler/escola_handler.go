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

// EscolaHandler exposes school management endpoints.
type EscolaHandler struct {
	escolas *service.EscolaService
}

// NewEscolaHandler constructs EscolaHandler.
func NewEscolaHandler(escolas *service.EscolaService) *EscolaHandler {
	return &EscolaHandler{escolas: escolas}
}

// List godoc
// @Summary List schools
// @Tags Escolas
// @Produce json
// @Param search query string false "Search by name or city"
// @Param active query bool false "Filter by active flag"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /escolas [get]
func (h *EscolaHandler) List(c *gin.Context) {
	var filter models.EscolaFilter
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

	escolas, pagination, err := h.escolas.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, escolas, pagination)
}

// Get godoc
// @Summary Get school by ID
// @Tags Escolas
// @Produce json
// @Param id path string true "School ID"
// @Success 200 {object} response.Envelope
// @Router /escolas/{id} [get]
func (h *EscolaHandler) Get(c *gin.Context) {
	escola, err := h.escolas.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, escola, nil)
}

// Create godoc
// @Summary Create school
// @Tags Escolas
// @Accept json
// @Produce json
// @Param payload body service.EscolaRequest true "School payload"
// @Success 201 {object} response.Envelope
// @Router /escolas [post]
func (h *EscolaHandler) Create(c *gin.Context) {
	var req service.EscolaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	escola, err := h.escolas.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, escola)
}

// Update godoc
// @Summary Update school
// @Tags Escolas
// @Accept json
// @Produce json
// @Param id path string true "School ID"
// @Param payload body service.EscolaRequest true "School payload"
// @Success 200 {object} response.Envelope
// @Router /escolas/{id} [put]
func (h *EscolaHandler) Update(c *gin.Context) {
	var req service.EscolaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	escola, err := h.escolas.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, escola, nil)
}

// Delete godoc
// @Summary Deactivate school
// @Tags Escolas
// @Produce json
// @Param id path string true "School ID"
// @Success 204 {object} response.Envelope
// @Router /escolas/{id} [delete]
func (h *EscolaHandler) Delete(c *gin.Context) {
	if err := h.escolas.Deactivate(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
