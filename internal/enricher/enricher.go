// Package enricher derives revenue, profit and calendar attributes from
// cleaned transactions.
package enricher

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/salespipe/salespipe/internal/model"
)

// Discount tier labels. Bins are right-inclusive; a zero discount falls in the first.
const (
	Tier0to10  = "0-10%"
	Tier10to20 = "10-20%"
	Tier20to30 = "20-30%"
	Tier30to40 = "30-40%"
	Tier40Plus = "40%+"
)

// Tiers lists the discount tiers in ascending order.
var Tiers = []string{Tier0to10, Tier10to20, Tier20to30, Tier30to40, Tier40Plus}

var tierBounds = []struct {
	upper decimal.Decimal
	label string
}{
	{decimal.NewFromInt(10), Tier0to10},
	{decimal.NewFromInt(20), Tier10to20},
	{decimal.NewFromInt(30), Tier20to30},
	{decimal.NewFromInt(40), Tier30to40},
}

// Enrich computes the derived fields of every record in place.
func Enrich(records []model.Transaction) {
	for i := range records {
		EnrichOne(&records[i])
	}
}

// EnrichOne computes the derived fields of a single record.
func EnrichOne(tx *model.Transaction) {
	tx.Revenue = Revenue(tx.UnitsSold, tx.UnitPrice)
	tx.Profit = Profit(tx.UnitsSold, tx.UnitPrice, tx.MRP, tx.DiscountApplied)
	tx.ProfitMargin = Margin(tx.Profit, tx.Revenue)
	tx.LossFlag = tx.Profit.IsNegative()

	d := tx.OrderDate
	tx.Month = int(d.Month())
	tx.MonthName = d.Month().String()
	tx.Quarter = Quarter(d)
	tx.YearMonth = d.Format("2006-01")
	tx.DayOfWeek = d.Weekday().String()
	tx.DiscountTier = DiscountTier(tx.DiscountApplied)
}

// Revenue is units × unit price.
func Revenue(units int, unitPrice decimal.Decimal) decimal.Decimal {
	return unitPrice.Mul(decimal.NewFromInt(int64(units)))
}

// Cost is units × MRP × (1 − discount/100).
func Cost(units int, mrp, discount decimal.Decimal) decimal.Decimal {
	return mrp.Mul(decimal.NewFromInt(int64(units))).Mul(decimal.NewFromInt(1).Sub(discount.Shift(-2)))
}

// Profit is revenue minus the discounted MRP cost.
func Profit(units int, unitPrice, mrp, discount decimal.Decimal) decimal.Decimal {
	return Revenue(units, unitPrice).Sub(Cost(units, mrp, discount))
}

// Margin is profit / revenue, or zero when revenue is zero.
func Margin(profit, revenue decimal.Decimal) decimal.Decimal {
	if revenue.IsZero() {
		return decimal.Zero
	}
	return profit.Div(revenue)
}

// Quarter returns "Q1".."Q4" for t.
func Quarter(t time.Time) string {
	return fmt.Sprintf("Q%d", (int(t.Month())-1)/3+1)
}

// DiscountTier buckets a discount percentage.
func DiscountTier(discount decimal.Decimal) string {
	for _, b := range tierBounds {
		if discount.LessThanOrEqual(b.upper) {
			return b.label
		}
	}
	return Tier40Plus
}
