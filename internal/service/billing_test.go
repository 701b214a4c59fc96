package service

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInstallmentAmountEvenSplit(t *testing.T) {
	assert.Equal(t, "100.00", InstallmentAmount(decimal.NewFromInt(1200), 12).StringFixed(2))
	assert.Equal(t, "250.00", InstallmentAmount(decimal.NewFromInt(500), 2).StringFixed(2))
}

func TestInstallmentAmountZeroCount(t *testing.T) {
	assert.True(t, InstallmentAmount(decimal.NewFromInt(1200), 0).IsZero())
	assert.True(t, InstallmentAmount(decimal.NewFromInt(1200), -3).IsZero())
}

func TestInstallmentSeriesSumsToPrice(t *testing.T) {
	first := time.Date(2026, 9, 5, 0, 0, 0, 0, time.UTC)

	cases := []struct {
		name  string
		price decimal.Decimal
		count int
	}{
		{"even split", decimal.NewFromInt(1200), 12},
		{"repeating decimal", decimal.NewFromInt(1000), 3},
		{"awkward cents", decimal.RequireFromString("799.99"), 7},
		{"single installment", decimal.RequireFromString("450.50"), 1},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			series := InstallmentSeries(tc.price, tc.count, first)
			require.Len(t, series, tc.count)

			sum := decimal.Zero
			for i, parcela := range series {
				sum = sum.Add(parcela.Amount)
				assert.Equal(t, i+1, parcela.Ordinal)
				assert.Equal(t, first.AddDate(0, i, 0), parcela.DueDate)
			}
			assert.True(t, sum.Equal(tc.price), "series sums to %s, want %s", sum, tc.price)

			// Every parcela except the last carries the rounded value; the
			// last absorbs the remainder and stays within one cent per
			// installment of it.
			base := InstallmentAmount(tc.price, tc.count)
			for _, parcela := range series[:tc.count-1] {
				assert.True(t, base.Equal(parcela.Amount))
			}
			last := series[tc.count-1].Amount
			drift := last.Sub(base).Abs()
			maxDrift := decimal.RequireFromString("0.01").Mul(decimal.NewFromInt(int64(tc.count)))
			assert.True(t, drift.LessThanOrEqual(maxDrift), "last parcela drift %s exceeds %s", drift, maxDrift)
		})
	}
}

func TestInstallmentSeriesEmptyForZeroCount(t *testing.T) {
	assert.Nil(t, InstallmentSeries(decimal.NewFromInt(1200), 0, time.Now()))
}
