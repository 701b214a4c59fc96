package service

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/escola-hub/escola-admin-api/internal/models"
)

// InstallmentAmount returns the per-installment value for an installment
// plan, rounded to cents. Zero or negative counts yield zero.
func InstallmentAmount(price decimal.Decimal, count int) decimal.Decimal {
	if count <= 0 {
		return decimal.Zero
	}
	return price.Div(decimal.NewFromInt(int64(count))).Round(2)
}

// InstallmentSeries builds the scheduled payments for an installment plan.
// The first count-1 parcels carry the rounded per-installment value and the
// final parcel absorbs the rounding remainder so the series sums to the
// price exactly. Due dates advance month by month from the first payment.
func InstallmentSeries(price decimal.Decimal, count int, firstPayment time.Time) []models.Parcela {
	if count <= 0 {
		return nil
	}
	amount := InstallmentAmount(price, count)
	parcelas := make([]models.Parcela, 0, count)
	accumulated := decimal.Zero
	for i := 0; i < count; i++ {
		value := amount
		if i == count-1 {
			value = price.Sub(accumulated)
		}
		accumulated = accumulated.Add(value)
		parcelas = append(parcelas, models.Parcela{
			Ordinal: i + 1,
			Amount:  value,
			DueDate: firstPayment.AddDate(0, i, 0),
			Status:  models.ParcelaStatusAVencer,
		})
	}
	return parcelas
}
