package dataset

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/salespipe/salespipe/internal/enricher"
	"github.com/salespipe/salespipe/internal/model"
)

// ValidationError describes a single invariant violation.
type ValidationError struct {
	Invariant   int
	OrderID     string
	Description string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("invariant %d [%s]: %s", e.Invariant, e.OrderID, e.Description)
}

// RegionChecker tests whether a region is in the reference table.
type RegionChecker interface {
	Exists(region string) bool
}

var hundred = decimal.NewFromInt(100)

// Validate enforces 6 invariants on an enriched table. regions may be nil,
// which skips invariant 6.
func Validate(records []model.Transaction, regions RegionChecker) []ValidationError {
	var errs []ValidationError

	seen := make(map[string]bool, len(records))
	for _, tx := range records {
		fail := func(invariant int, format string, args ...any) {
			errs = append(errs, ValidationError{
				Invariant:   invariant,
				OrderID:     tx.OrderID,
				Description: fmt.Sprintf(format, args...),
			})
		}

		// Invariant 1: Order_IDs are unique.
		if seen[tx.OrderID] {
			fail(1, "duplicate order id")
		}
		seen[tx.OrderID] = true

		// Invariant 2: units are never negative.
		if tx.UnitsSold < 0 {
			fail(2, "units sold %d is negative", tx.UnitsSold)
		}

		// Invariant 3: discount is a percentage.
		if tx.DiscountApplied.IsNegative() || tx.DiscountApplied.GreaterThan(hundred) {
			fail(3, "discount %s outside [0,100]", tx.DiscountApplied)
		}

		// Invariant 4: MRP is present.
		if !tx.MRP.IsPositive() {
			fail(4, "MRP %s is not positive", tx.MRP)
		}

		// Invariant 5: derived money matches the formulas at export precision.
		revenue := enricher.Revenue(tx.UnitsSold, tx.UnitPrice)
		profit := enricher.Profit(tx.UnitsSold, tx.UnitPrice, tx.MRP, tx.DiscountApplied)
		margin := enricher.Margin(profit, revenue)
		if !revenue.Round(moneyPlaces).Equal(tx.Revenue.Round(moneyPlaces)) {
			fail(5, "revenue %s, expected %s", tx.Revenue.StringFixed(moneyPlaces), revenue.StringFixed(moneyPlaces))
		}
		if !profit.Round(moneyPlaces).Equal(tx.Profit.Round(moneyPlaces)) {
			fail(5, "profit %s, expected %s", tx.Profit.StringFixed(moneyPlaces), profit.StringFixed(moneyPlaces))
		}
		if !margin.Round(marginPlaces).Equal(tx.ProfitMargin.Round(marginPlaces)) {
			fail(5, "profit margin %s, expected %s", tx.ProfitMargin.StringFixed(marginPlaces), margin.StringFixed(marginPlaces))
		}

		// Invariant 6: region is in the reference table.
		if regions != nil && !regions.Exists(tx.Region) {
			fail(6, "unknown region %q", tx.Region)
		}
	}
	return errs
}

// Check runs Validate and folds any violations into one error.
func Check(records []model.Transaction, regions RegionChecker) error {
	verrs := Validate(records, regions)
	if len(verrs) == 0 {
		return nil
	}
	msgs := make([]string, len(verrs))
	for i, ve := range verrs {
		msgs[i] = ve.Error()
	}
	return fmt.Errorf("validation failed: %s", strings.Join(msgs, "; "))
}
