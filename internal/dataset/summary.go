package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/salespipe/salespipe/internal/model"
)

// SummaryColumns follow the dimension column in a summary_by_<dim>.csv header.
const SummaryColumns = "transactions,units_sold,revenue,profit,profit_margin,avg_profit_margin,aov,avg_discount,loss_transactions"

const (
	numSummaryFields = 10
	colSumKey        = 0
	colSumTx         = 1
	colSumUnits      = 2
	colSumRevenue    = 3
	colSumProfit     = 4
	colSumMargin     = 5
	colSumAvgMargin  = 6
	colSumAOV        = 7
	colSumDiscount   = 8
	colSumLoss       = 9
)

// SummaryHeader returns the header row for a dimension's summary table.
func SummaryHeader(dimension string) []string {
	return append([]string{dimension}, strings.Split(SummaryColumns, ",")...)
}

// WriteSummaries writes one dimension's summary table (including header).
func WriteSummaries(w io.Writer, dimension string, rows []model.Summary) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(SummaryHeader(dimension)); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i, s := range rows {
		if err := cw.Write(MarshalSummary(s)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadSummaries reads a summary table. The dimension is taken from the header.
func ReadSummaries(r io.Reader) ([]model.Summary, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numSummaryFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading summary CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	dimension := records[0][colSumKey]
	var out []model.Summary
	for i, rec := range records[1:] {
		s, err := UnmarshalSummary(dimension, rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		out = append(out, s)
	}
	return out, nil
}

// MarshalSummary converts a Summary to a CSV row.
func MarshalSummary(s model.Summary) []string {
	row := make([]string, numSummaryFields)
	row[colSumKey] = s.Key
	row[colSumTx] = strconv.Itoa(s.Transactions)
	row[colSumUnits] = strconv.Itoa(s.UnitsSold)
	row[colSumRevenue] = s.Revenue.StringFixed(moneyPlaces)
	row[colSumProfit] = s.Profit.StringFixed(moneyPlaces)
	row[colSumMargin] = s.ProfitMargin().StringFixed(marginPlaces)
	row[colSumAvgMargin] = s.AvgProfitMargin.StringFixed(marginPlaces)
	row[colSumAOV] = s.AOV.StringFixed(moneyPlaces)
	row[colSumDiscount] = s.AvgDiscount.StringFixed(discountPlaces)
	row[colSumLoss] = strconv.Itoa(s.LossTransactions)
	return row
}

// UnmarshalSummary converts a CSV row to a Summary. The profit_margin column
// is derived and not read back.
func UnmarshalSummary(dimension string, record []string) (model.Summary, error) {
	if len(record) != numSummaryFields {
		return model.Summary{}, fmt.Errorf("expected %d fields, got %d", numSummaryFields, len(record))
	}

	s := model.Summary{Dimension: dimension, Key: record[colSumKey]}
	ints := []struct {
		col  int
		name string
		dst  *int
	}{
		{colSumTx, "transactions", &s.Transactions},
		{colSumUnits, "units_sold", &s.UnitsSold},
		{colSumLoss, "loss_transactions", &s.LossTransactions},
	}
	for _, f := range ints {
		n, err := strconv.Atoi(record[f.col])
		if err != nil {
			return model.Summary{}, fmt.Errorf("parsing %s %q: %w", f.name, record[f.col], err)
		}
		*f.dst = n
	}

	decimals := []struct {
		col  int
		name string
		dst  *decimal.Decimal
	}{
		{colSumRevenue, "revenue", &s.Revenue},
		{colSumProfit, "profit", &s.Profit},
		{colSumAvgMargin, "avg_profit_margin", &s.AvgProfitMargin},
		{colSumAOV, "aov", &s.AOV},
		{colSumDiscount, "avg_discount", &s.AvgDiscount},
	}
	for _, f := range decimals {
		d, err := decimal.NewFromString(record[f.col])
		if err != nil {
			return model.Summary{}, fmt.Errorf("parsing %s %q: %w", f.name, record[f.col], err)
		}
		*f.dst = d
	}
	return s, nil
}
