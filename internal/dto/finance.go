package dto

import (
	"github.com/shopspring/decimal"

	"github.com/escola-hub/escola-admin-api/internal/models"
)

// LedgerEntry is one row of the financial ledger as presented to clients.
// Status carries the derived overdue label when the stored due status has
// passed its due date.
type LedgerEntry struct {
	ID          string               `json:"id"`
	MatriculaID string               `json:"matricula_id"`
	StudentName string               `json:"student_name"`
	CursoName   string               `json:"curso_name"`
	Ordinal     int                  `json:"ordinal"`
	Amount      decimal.Decimal      `json:"amount"`
	DueDate     string               `json:"due_date"`
	Status      models.ParcelaStatus `json:"status"`
	PaidAt      *string              `json:"paid_at,omitempty"`
}

// LedgerTotals aggregates the ledger view for the requested period.
type LedgerTotals struct {
	TotalPago    decimal.Decimal `json:"total_pago"`
	TotalAVencer decimal.Decimal `json:"total_a_vencer"`
	TotalVencido decimal.Decimal `json:"total_vencido"`
	TotalMensal  decimal.Decimal `json:"total_mensal"`
}

// LedgerResponse bundles entries, totals and pagination.
type LedgerResponse struct {
	Entries    []LedgerEntry      `json:"entries"`
	Totals     LedgerTotals       `json:"totals"`
	Pagination *models.Pagination `json:"pagination,omitempty"`
}
