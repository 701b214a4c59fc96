package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/escola-hub/escola-admin-api/internal/models"
	"github.com/escola-hub/escola-admin-api/internal/service"
	appErrors "github.com/escola-hub/escola-admin-api/pkg/errors"
	"github.com/escola-hub/escola-admin-api/pkg/response"
)

// FinanceiroHandler exposes the financial ledger endpoints.
type FinanceiroHandler struct {
	financeiro *service.FinanceiroService
	exports    *service.ExportService
}

// NewFinanceiroHandler constructs FinanceiroHandler.
func NewFinanceiroHandler(financeiro *service.FinanceiroService, exports *service.ExportService) *FinanceiroHandler {
	return &FinanceiroHandler{financeiro: financeiro, exports: exports}
}

// Ledger godoc
// @Summary Financial ledger
// @Description Installments joined with enrollment and student data; statuses are the derived view labels and totals cover the whole filtered period
// @Tags Financeiro
// @Produce json
// @Param matriculaId query string false "Filter by enrollment"
// @Param schoolId query string false "Filter by school"
// @Param status query string false "Filter by status (Pago, à vencer, Vencido)"
// @Param month query string false "Due month (AAAA-MM)"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /financeiroParcelas [get]
func (h *FinanceiroHandler) Ledger(c *gin.Context) {
	var filter models.ParcelaFilter
	filter.MatriculaID = c.Query("matriculaId")
	filter.SchoolID = c.Query("schoolId")
	filter.Status = models.ParcelaStatus(c.Query("status"))
	if month := c.Query("month"); month != "" {
		from, to, err := service.MonthRange(month)
		if err != nil {
			response.Error(c, err)
			return
		}
		filter.DueFrom = &from
		filter.DueTo = &to
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}
	filter.SortBy = c.Query("sort")
	filter.SortOrder = c.Query("order")

	ledger, err := h.financeiro.Ledger(c.Request.Context(), filter, schoolScopeFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, ledger.Entries, ledger.Pagination, map[string]interface{}{"totals": ledger.Totals})
}

// UpdateStatus godoc
// @Summary Update installment status
// @Description Marks an installment paid or reopens it; the derived overdue label normalizes back to the stored due value
// @Tags Financeiro
// @Accept json
// @Produce json
// @Param parcelaId path string true "Installment ID"
// @Param payload body object true "New status"
// @Success 200 {object} response.Envelope
// @Router /update-status/{parcelaId} [put]
func (h *FinanceiroHandler) UpdateStatus(c *gin.Context) {
	var payload struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "status required"))
		return
	}
	entry, err := h.financeiro.UpdateParcelaStatus(c.Request.Context(), c.Param("parcelaId"),
		models.ParcelaStatus(payload.Status), schoolScopeFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entry, nil)
}

// CreateExport godoc
// @Summary Enqueue a ledger export
// @Tags Financeiro
// @Accept json
// @Produce json
// @Param payload body models.ExportJobParams true "Export parameters"
// @Success 202 {object} response.Envelope
// @Router /financeiro/export [post]
func (h *FinanceiroHandler) CreateExport(c *gin.Context) {
	if h.exports == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "exports not configured"))
		return
	}
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var params models.ExportJobParams
	if err := c.ShouldBindJSON(&params); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid export payload"))
		return
	}
	job, err := h.exports.CreateJob(c.Request.Context(), params, claims.UserID, claims.SchoolScope())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusAccepted, job, nil)
}

// ExportStatus godoc
// @Summary Export job status
// @Tags Financeiro
// @Produce json
// @Param id path string true "Export job ID"
// @Success 200 {object} response.Envelope
// @Router /financeiro/export/{id} [get]
func (h *FinanceiroHandler) ExportStatus(c *gin.Context) {
	if h.exports == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "exports not configured"))
		return
	}
	job, err := h.exports.GetStatus(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, job, nil)
}

// DownloadExport godoc
// @Summary Download a finished export
// @Tags Financeiro
// @Produce octet-stream
// @Param token path string true "Signed download token"
// @Success 200 {file} binary
// @Router /financeiroParcelas/export/{token} [get]
func (h *FinanceiroHandler) DownloadExport(c *gin.Context) {
	if h.exports == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "exports not configured"))
		return
	}
	download, err := h.exports.ResolveDownload(c.Request.Context(), c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer download.File.Close()

	contentType := "text/csv"
	if download.Format == models.ExportFormatPDF {
		contentType = "application/pdf"
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", download.Filename))
	c.Header("Content-Type", contentType)
	c.File(download.File.Name())
}
