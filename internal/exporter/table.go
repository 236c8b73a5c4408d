package exporter

import (
	"strconv"
	"strings"

	"github.com/salespipe/salespipe/internal/dataset"
)

type kind int

const (
	kindText kind = iota
	kindInt
	kindReal
)

// columnKinds types the numeric columns of both table shapes. Everything
// else is text.
var columnKinds = map[string]kind{
	"Units_Sold":        kindInt,
	"Month":             kindInt,
	"Unit_Price":        kindReal,
	"MRP":               kindReal,
	"Discount_Applied":  kindReal,
	"Revenue":           kindReal,
	"Profit":            kindReal,
	"Profit_Margin":     kindReal,
	"transactions":      kindInt,
	"units_sold":        kindInt,
	"loss_transactions": kindInt,
	"revenue":           kindReal,
	"profit":            kindReal,
	"profit_margin":     kindReal,
	"avg_profit_margin": kindReal,
	"aov":               kindReal,
	"avg_discount":      kindReal,
}

// table is a bundle table in a format-neutral shape.
type table struct {
	name   string
	header []string
	rows   [][]string
}

func (t table) kinds() []kind {
	out := make([]kind, len(t.header))
	for i, h := range t.header {
		out[i] = columnKinds[h]
	}
	return out
}

// tables flattens a bundle: the cleaned table first, then one per dimension.
func tables(b Bundle) []table {
	cleaned := table{name: cleanedTable, header: strings.Split(dataset.Header, ",")}
	for _, tx := range b.Records {
		cleaned.rows = append(cleaned.rows, dataset.MarshalTransaction(tx))
	}
	out := []table{cleaned}

	for _, sum := range b.Summaries {
		t := table{name: summaryPrefix + sum.Dimension, header: dataset.SummaryHeader(sum.Dimension)}
		for _, s := range sum.Rows {
			t.rows = append(t.rows, dataset.MarshalSummary(s))
		}
		out = append(out, t)
	}
	return out
}

// typed converts a formatted cell back to a number for numeric columns.
func typed(k kind, s string) any {
	switch k {
	case kindInt:
		if n, err := strconv.Atoi(s); err == nil {
			return n
		}
	case kindReal:
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f
		}
	}
	return s
}
