package cleaner

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/salespipe/salespipe/internal/model"
)

// FilterOutliers drops rows whose Revenue lies outside [Q1-k*IQR, Q3+k*IQR].
// Revenue must already be derived. k <= 0 returns records unchanged. Drops are
// recorded in rep when it is non-nil.
func FilterOutliers(records []model.Transaction, k float64, rep *Report) []model.Transaction {
	if k <= 0 || len(records) == 0 {
		return records
	}
	revenues := make([]decimal.Decimal, len(records))
	for i, r := range records {
		revenues[i] = r.Revenue
	}
	lo, hi := Fences(revenues, decimal.NewFromFloat(k))

	out := make([]model.Transaction, 0, len(records))
	for _, r := range records {
		if r.Revenue.LessThan(lo) || r.Revenue.GreaterThan(hi) {
			if rep != nil {
				rep.drop(r.SourceLine, r.OrderID, ReasonRevenueOutlier, r.Revenue.String())
			}
			continue
		}
		out = append(out, r)
	}
	if rep != nil {
		rep.RowsOut = len(out)
	}
	return out
}

// Fences returns the IQR fences for values. values must be non-empty.
func Fences(values []decimal.Decimal, k decimal.Decimal) (decimal.Decimal, decimal.Decimal) {
	sorted := make([]decimal.Decimal, len(values))
	copy(sorted, values)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].LessThan(sorted[j]) })

	q1 := Quantile(sorted, decimal.NewFromFloat(0.25))
	q3 := Quantile(sorted, decimal.NewFromFloat(0.75))
	spread := q3.Sub(q1).Mul(k)
	return q1.Sub(spread), q3.Add(spread)
}

// Quantile interpolates linearly between closest ranks of sorted values.
func Quantile(sorted []decimal.Decimal, q decimal.Decimal) decimal.Decimal {
	if len(sorted) == 0 {
		return decimal.Zero
	}
	pos := q.Mul(decimal.NewFromInt(int64(len(sorted) - 1)))
	i := int(pos.IntPart())
	if i >= len(sorted)-1 {
		return sorted[len(sorted)-1]
	}
	frac := pos.Sub(decimal.NewFromInt(int64(i)))
	return sorted[i].Add(sorted[i+1].Sub(sorted[i]).Mul(frac))
}
