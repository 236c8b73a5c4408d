package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Stored precision of exported fields. The cleaner rounds base money and
// discounts to these places so derived fields agree with what is written.
const (
	MoneyPlaces    = 2
	DiscountPlaces = 2
	MarginPlaces   = 4
)

// Transaction is one sales row. Base fields are filled by the cleaner,
// derived fields by the enricher.
type Transaction struct {
	SourceLine      int // line in the input file; not exported
	OrderID         string
	ProductName     string
	ProductCategory string
	Region          string
	Channel         string
	GenderCategory  string
	Size            string
	OrderDate       time.Time
	UnitsSold       int
	UnitPrice       decimal.Decimal
	MRP             decimal.Decimal
	DiscountApplied decimal.Decimal // percent, 0..100

	Revenue      decimal.Decimal
	Profit       decimal.Decimal
	ProfitMargin decimal.Decimal // ratio; zero when Revenue is zero
	Month        int
	MonthName    string
	Quarter      string // "Q1".."Q4"
	YearMonth    string // "2006-01"
	DayOfWeek    string
	DiscountTier string
	LossFlag     bool

	UnitsImputed bool
	DateImputed  bool
	MRPImputed   bool
}

// RawRow is one input row keyed by canonical column name, before any parsing.
type RawRow struct {
	Line   int // 1-based line in the source file, header is line 1
	Values map[string]string
}

// Get returns the trimmed value for a column, or "" when absent.
func (r RawRow) Get(col string) string {
	return r.Values[col]
}
