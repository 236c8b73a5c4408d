package cleaner

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/salespipe/salespipe/internal/model"
)

func revenues(values ...int64) []model.Transaction {
	out := make([]model.Transaction, len(values))
	for i, v := range values {
		out[i] = model.Transaction{OrderID: string(rune('A' + i)), SourceLine: i + 2, Revenue: decimal.NewFromInt(v)}
	}
	return out
}

func TestQuantile_Linear(t *testing.T) {
	sorted := []decimal.Decimal{decimal.NewFromInt(1), decimal.NewFromInt(2), decimal.NewFromInt(3), decimal.NewFromInt(4)}
	assertDec(t, "1.75", Quantile(sorted, decimal.NewFromFloat(0.25)))
	assertDec(t, "3.25", Quantile(sorted, decimal.NewFromFloat(0.75)))
	assertDec(t, "4", Quantile(sorted, decimal.NewFromInt(1)))
	assertDec(t, "0", Quantile(nil, decimal.NewFromFloat(0.5)))
}

func TestFilterOutliers(t *testing.T) {
	records := revenues(10, 12, 11, 13, 500)
	rep := &Report{RowsOut: 5}

	kept := FilterOutliers(records, 1.5, rep)
	require.Len(t, kept, 4)
	for _, r := range kept {
		assert.NotEqual(t, "E", r.OrderID)
	}
	assert.Equal(t, 1, rep.DroppedBy()[ReasonRevenueOutlier])
	assert.Equal(t, 6, rep.Issues[0].Line)
	assert.Equal(t, 4, rep.RowsOut)
}

func TestFilterOutliers_Disabled(t *testing.T) {
	records := revenues(10, 500)
	assert.Len(t, FilterOutliers(records, 0, nil), 2)
}

func TestFilterOutliers_NilReport(t *testing.T) {
	assert.Len(t, FilterOutliers(revenues(10, 12, 11, 13, 500), 1.5, nil), 4)
}
