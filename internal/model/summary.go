package model

import "github.com/shopspring/decimal"

// Summary holds the reduced metrics for one group of transactions.
type Summary struct {
	Dimension        string
	Key              string
	Transactions     int
	UnitsSold        int
	Revenue          decimal.Decimal
	Profit           decimal.Decimal
	AvgProfitMargin  decimal.Decimal // mean of row margins
	AOV              decimal.Decimal // Revenue / Transactions
	AvgDiscount      decimal.Decimal
	LossTransactions int
}

// ProfitMargin returns the group's aggregate margin, Profit / Revenue.
func (s Summary) ProfitMargin() decimal.Decimal {
	if s.Revenue.IsZero() {
		return decimal.Zero
	}
	return s.Profit.Div(s.Revenue)
}
