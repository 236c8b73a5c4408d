// Package dataset reads, writes and validates the cleaned sales table.
package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/salespipe/salespipe/internal/model"
)

// Header is the CSV header for cleaned_sales.csv.
const Header = "Order_ID,Product_Name,Product_Category,Region,Sales_Channel,Gender_Category,Size,Order_Date,Units_Sold,Unit_Price,MRP,Discount_Applied,Revenue,Profit,Profit_Margin,Month,Month_Name,Quarter,Year_Month,Day_Of_Week,Discount_Tier,Loss_Flag,Units_Imputed,Date_Imputed,MRP_Imputed"

const (
	numFields      = 25
	dateFormat     = "2006-01-02"
	colOrderID     = 0
	colProduct     = 1
	colCategory    = 2
	colRegion      = 3
	colChannel     = 4
	colGender      = 5
	colSize        = 6
	colDate        = 7
	colUnits       = 8
	colPrice       = 9
	colMRP         = 10
	colDiscount    = 11
	colRevenue     = 12
	colProfit      = 13
	colMargin      = 14
	colMonth       = 15
	colMonthName   = 16
	colQuarter     = 17
	colYearMonth   = 18
	colDayOfWeek   = 19
	colTier        = 20
	colLoss        = 21
	colUnitsImp    = 22
	colDateImp     = 23
	colMRPImp      = 24
	moneyPlaces    = model.MoneyPlaces
	marginPlaces   = model.MarginPlaces
	discountPlaces = model.DiscountPlaces
)

// ReadTransactions reads all rows from a cleaned_sales.csv reader.
func ReadTransactions(r io.Reader) ([]model.Transaction, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading sales CSV: %w", err)
	}

	if len(records) == 0 {
		return nil, nil
	}
	if got := strings.Join(records[0], ","); got != Header {
		return nil, fmt.Errorf("unexpected header %q", got)
	}

	var out []model.Transaction
	for i, rec := range records[1:] {
		tx, err := UnmarshalTransaction(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		tx.SourceLine = i + 2
		out = append(out, tx)
	}
	return out, nil
}

// WriteTransactions writes records to a cleaned_sales.csv writer (including header).
func WriteTransactions(w io.Writer, records []model.Transaction) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(strings.Split(Header, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i, tx := range records {
		if err := cw.Write(MarshalTransaction(tx)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadFile reads a cleaned_sales.csv file.
func ReadFile(path string) ([]model.Transaction, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening sales file: %w", err)
	}
	defer f.Close()

	records, err := ReadTransactions(f)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return records, nil
}

// MarshalTransaction converts a Transaction to a CSV row.
func MarshalTransaction(tx model.Transaction) []string {
	row := make([]string, numFields)
	row[colOrderID] = tx.OrderID
	row[colProduct] = tx.ProductName
	row[colCategory] = tx.ProductCategory
	row[colRegion] = tx.Region
	row[colChannel] = tx.Channel
	row[colGender] = tx.GenderCategory
	row[colSize] = tx.Size
	row[colDate] = tx.OrderDate.Format(dateFormat)
	row[colUnits] = strconv.Itoa(tx.UnitsSold)
	row[colPrice] = tx.UnitPrice.StringFixed(moneyPlaces)
	row[colMRP] = tx.MRP.StringFixed(moneyPlaces)
	row[colDiscount] = tx.DiscountApplied.StringFixed(discountPlaces)
	row[colRevenue] = tx.Revenue.StringFixed(moneyPlaces)
	row[colProfit] = tx.Profit.StringFixed(moneyPlaces)
	row[colMargin] = tx.ProfitMargin.StringFixed(marginPlaces)
	row[colMonth] = strconv.Itoa(tx.Month)
	row[colMonthName] = tx.MonthName
	row[colQuarter] = tx.Quarter
	row[colYearMonth] = tx.YearMonth
	row[colDayOfWeek] = tx.DayOfWeek
	row[colTier] = tx.DiscountTier
	row[colLoss] = strconv.FormatBool(tx.LossFlag)
	row[colUnitsImp] = strconv.FormatBool(tx.UnitsImputed)
	row[colDateImp] = strconv.FormatBool(tx.DateImputed)
	row[colMRPImp] = strconv.FormatBool(tx.MRPImputed)
	return row
}

// UnmarshalTransaction converts a CSV row to a Transaction.
func UnmarshalTransaction(record []string) (model.Transaction, error) {
	if len(record) != numFields {
		return model.Transaction{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	date, err := time.Parse(dateFormat, record[colDate])
	if err != nil {
		return model.Transaction{}, fmt.Errorf("parsing Order_Date %q: %w", record[colDate], err)
	}

	units, err := strconv.Atoi(record[colUnits])
	if err != nil {
		return model.Transaction{}, fmt.Errorf("parsing Units_Sold %q: %w", record[colUnits], err)
	}
	month, err := strconv.Atoi(record[colMonth])
	if err != nil {
		return model.Transaction{}, fmt.Errorf("parsing Month %q: %w", record[colMonth], err)
	}

	tx := model.Transaction{
		OrderID:         record[colOrderID],
		ProductName:     record[colProduct],
		ProductCategory: record[colCategory],
		Region:          record[colRegion],
		Channel:         record[colChannel],
		GenderCategory:  record[colGender],
		Size:            record[colSize],
		OrderDate:       date,
		UnitsSold:       units,
		Month:           month,
		MonthName:       record[colMonthName],
		Quarter:         record[colQuarter],
		YearMonth:       record[colYearMonth],
		DayOfWeek:       record[colDayOfWeek],
		DiscountTier:    record[colTier],
	}

	decimals := []struct {
		col int
		dst *decimal.Decimal
	}{
		{colPrice, &tx.UnitPrice},
		{colMRP, &tx.MRP},
		{colDiscount, &tx.DiscountApplied},
		{colRevenue, &tx.Revenue},
		{colProfit, &tx.Profit},
		{colMargin, &tx.ProfitMargin},
	}
	for _, f := range decimals {
		d, err := decimal.NewFromString(record[f.col])
		if err != nil {
			return model.Transaction{}, fmt.Errorf("parsing %s %q: %w", headerName(f.col), record[f.col], err)
		}
		*f.dst = d
	}

	bools := []struct {
		col int
		dst *bool
	}{
		{colLoss, &tx.LossFlag},
		{colUnitsImp, &tx.UnitsImputed},
		{colDateImp, &tx.DateImputed},
		{colMRPImp, &tx.MRPImputed},
	}
	for _, f := range bools {
		b, err := strconv.ParseBool(record[f.col])
		if err != nil {
			return model.Transaction{}, fmt.Errorf("parsing %s %q: %w", headerName(f.col), record[f.col], err)
		}
		*f.dst = b
	}
	return tx, nil
}

func headerName(col int) string {
	return strings.Split(Header, ",")[col]
}
