// Package aggregator reduces enriched transactions into per-group summaries.
package aggregator

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/salespipe/salespipe/internal/model"
)

// Dimension names a grouping key.
type Dimension string

const (
	Region       Dimension = "region"
	Category     Dimension = "category"
	Channel      Dimension = "channel"
	Month        Dimension = "month"
	Quarter      Dimension = "quarter"
	Gender       Dimension = "gender"
	DiscountTier Dimension = "discount_tier"
	DayOfWeek    Dimension = "day_of_week"
	Product      Dimension = "product"
)

// OverallKey is the Key of the summary returned by Overall.
const OverallKey = "ALL"

// ErrUnknownDimension is returned by ParseDimension.
var ErrUnknownDimension = errors.New("unknown dimension")

// Dimensions lists every supported dimension.
var Dimensions = []Dimension{Region, Category, Channel, Month, Quarter, Gender, DiscountTier, DayOfWeek, Product}

var keyFuncs = map[Dimension]func(model.Transaction) string{
	Region:       func(tx model.Transaction) string { return tx.Region },
	Category:     func(tx model.Transaction) string { return tx.ProductCategory },
	Channel:      func(tx model.Transaction) string { return tx.Channel },
	Month:        func(tx model.Transaction) string { return tx.YearMonth },
	Quarter:      func(tx model.Transaction) string { return tx.Quarter },
	Gender:       func(tx model.Transaction) string { return tx.GenderCategory },
	DiscountTier: func(tx model.Transaction) string { return tx.DiscountTier },
	DayOfWeek:    func(tx model.Transaction) string { return tx.DayOfWeek },
	Product:      func(tx model.Transaction) string { return tx.ProductName },
}

// ParseDimension resolves a dimension name, case-insensitively.
func ParseDimension(s string) (Dimension, error) {
	d := Dimension(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := keyFuncs[d]; !ok {
		return "", fmt.Errorf("%w %q", ErrUnknownDimension, s)
	}
	return d, nil
}

// ParseDimensions resolves a list of names, keeping order and dropping repeats.
func ParseDimensions(names []string) ([]Dimension, error) {
	var out []Dimension
	seen := make(map[Dimension]bool, len(names))
	for _, n := range names {
		d, err := ParseDimension(n)
		if err != nil {
			return nil, err
		}
		if !seen[d] {
			seen[d] = true
			out = append(out, d)
		}
	}
	return out, nil
}

// Key returns the record's group key for the dimension.
func (d Dimension) Key(tx model.Transaction) string {
	if f, ok := keyFuncs[d]; ok {
		return f(tx)
	}
	return ""
}

// GroupBy partitions records by dim and reduces each group. Results are
// sorted by key.
func GroupBy(records []model.Transaction, dim Dimension) []model.Summary {
	groups := make(map[string][]model.Transaction)
	for _, tx := range records {
		k := dim.Key(tx)
		groups[k] = append(groups[k], tx)
	}

	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]model.Summary, 0, len(keys))
	for _, k := range keys {
		out = append(out, reduce(string(dim), k, groups[k]))
	}
	return out
}

// Overall reduces every record into one summary. Empty input yields zero metrics.
func Overall(records []model.Transaction) model.Summary {
	return reduce("overall", OverallKey, records)
}

// Reconcile checks that group revenue, profit and transaction counts add up
// to the overall totals.
func Reconcile(groups []model.Summary, overall model.Summary) error {
	revenue, profit := decimal.Zero, decimal.Zero
	transactions := 0
	for _, g := range groups {
		revenue = revenue.Add(g.Revenue)
		profit = profit.Add(g.Profit)
		transactions += g.Transactions
	}
	if !revenue.Equal(overall.Revenue) {
		return fmt.Errorf("group revenue %s does not match total %s", revenue, overall.Revenue)
	}
	if !profit.Equal(overall.Profit) {
		return fmt.Errorf("group profit %s does not match total %s", profit, overall.Profit)
	}
	if transactions != overall.Transactions {
		return fmt.Errorf("group transactions %d do not match total %d", transactions, overall.Transactions)
	}
	return nil
}

func reduce(dimension, key string, records []model.Transaction) model.Summary {
	s := model.Summary{
		Dimension:       dimension,
		Key:             key,
		Transactions:    len(records),
		Revenue:         decimal.Zero,
		Profit:          decimal.Zero,
		AvgProfitMargin: decimal.Zero,
		AOV:             decimal.Zero,
		AvgDiscount:     decimal.Zero,
	}
	if len(records) == 0 {
		return s
	}

	margins, discounts := decimal.Zero, decimal.Zero
	for _, tx := range records {
		s.UnitsSold += tx.UnitsSold
		s.Revenue = s.Revenue.Add(tx.Revenue)
		s.Profit = s.Profit.Add(tx.Profit)
		margins = margins.Add(tx.ProfitMargin)
		discounts = discounts.Add(tx.DiscountApplied)
		if tx.LossFlag {
			s.LossTransactions++
		}
	}
	n := decimal.NewFromInt(int64(len(records)))
	s.AvgProfitMargin = margins.Div(n)
	s.AOV = s.Revenue.Div(n)
	s.AvgDiscount = discounts.Div(n)
	return s
}
