package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/escola-hub/escola-admin-api/internal/middleware"
	"github.com/escola-hub/escola-admin-api/internal/models"
	"github.com/escola-hub/escola-admin-api/internal/service"
)

type parcelaRepoStub struct {
	parcelas []models.ParcelaDetail
	updated  map[string]models.ParcelaStatus
}

func (m *parcelaRepoStub) Ledger(ctx context.Context, filter models.ParcelaFilter) ([]models.ParcelaDetail, int, error) {
	return m.parcelas, len(m.parcelas), nil
}

func (m *parcelaRepoStub) LedgerAll(ctx context.Context, filter models.ParcelaFilter) ([]models.ParcelaDetail, error) {
	return m.parcelas, nil
}

func (m *parcelaRepoStub) FindByID(ctx context.Context, id string) (*models.ParcelaDetail, error) {
	for _, p := range m.parcelas {
		if p.ID == id {
			found := p
			return &found, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *parcelaRepoStub) UpdateStatus(ctx context.Context, id string, status models.ParcelaStatus, paidAt *time.Time) error {
	if m.updated == nil {
		m.updated = make(map[string]models.ParcelaStatus)
	}
	m.updated[id] = status
	return nil
}

func financeiroTestContext(t *testing.T, method, path string, body []byte) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, err := http.NewRequest(method, path, bytes.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "ges-1", UserType: models.UserTypeGestor})
	return c, w
}

func TestFinanceiroHandlerUpdateStatusMissingBody(t *testing.T) {
	svc := service.NewFinanceiroService(&parcelaRepoStub{}, nil, nil)
	handler := NewFinanceiroHandler(svc, nil)

	c, w := financeiroTestContext(t, http.MethodPut, "/update-status/par-1", []byte(`{}`))
	c.Params = gin.Params{{Key: "parcelaId", Value: "par-1"}}

	handler.UpdateStatus(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestFinanceiroHandlerUpdateStatusUnknownValue(t *testing.T) {
	repo := &parcelaRepoStub{parcelas: []models.ParcelaDetail{{
		Parcela: models.Parcela{ID: "par-1", MatriculaID: "mat-1", Status: models.ParcelaStatusAVencer, DueDate: time.Now()},
	}}}
	handler := NewFinanceiroHandler(service.NewFinanceiroService(repo, nil, nil), nil)

	body, _ := json.Marshal(gin.H{"status": "Quitado"})
	c, w := financeiroTestContext(t, http.MethodPut, "/update-status/par-1", body)
	c.Params = gin.Params{{Key: "parcelaId", Value: "par-1"}}

	handler.UpdateStatus(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, repo.updated)
}

func TestFinanceiroHandlerUpdateStatusPaid(t *testing.T) {
	repo := &parcelaRepoStub{parcelas: []models.ParcelaDetail{{
		Parcela: models.Parcela{ID: "par-1", MatriculaID: "mat-1", Status: models.ParcelaStatusAVencer, DueDate: time.Now()},
	}}}
	handler := NewFinanceiroHandler(service.NewFinanceiroService(repo, nil, nil), nil)

	body, _ := json.Marshal(gin.H{"status": "Pago"})
	c, w := financeiroTestContext(t, http.MethodPut, "/update-status/par-1", body)
	c.Params = gin.Params{{Key: "parcelaId", Value: "par-1"}}

	handler.UpdateStatus(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.ParcelaStatusPago, repo.updated["par-1"])
}

func TestFinanceiroHandlerLedgerInvalidMonth(t *testing.T) {
	handler := NewFinanceiroHandler(service.NewFinanceiroService(&parcelaRepoStub{}, nil, nil), nil)

	c, w := financeiroTestContext(t, http.MethodGet, "/financeiroParcelas?month=2026-13", nil)

	handler.Ledger(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestFinanceiroHandlerLedgerOK(t *testing.T) {
	repo := &parcelaRepoStub{parcelas: []models.ParcelaDetail{{
		Parcela: models.Parcela{
			ID: "par-1", MatriculaID: "mat-1", Ordinal: 1, Amount: decimal.NewFromInt(100),
			DueDate: time.Now().AddDate(0, 1, 0), Status: models.ParcelaStatusAVencer,
		},
		StudentName: "Maria Silva",
		SchoolID:    "esc-1",
		CursoName:   "Inglês Básico",
	}}}
	handler := NewFinanceiroHandler(service.NewFinanceiroService(repo, nil, nil), nil)

	c, w := financeiroTestContext(t, http.MethodGet, "/financeiroParcelas", nil)

	handler.Ledger(c)
	require.Equal(t, http.StatusOK, w.Code)

	var envelope struct {
		Data []struct {
			ID     string `json:"id"`
			Status string `json:"status"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.Len(t, envelope.Data, 1)
	assert.Equal(t, "par-1", envelope.Data[0].ID)
	assert.Equal(t, "à vencer", envelope.Data[0].Status)
}
