package cleaner

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/salespipe/salespipe/internal/config"
	"github.com/salespipe/salespipe/internal/model"
)

// UnknownRegion replaces an empty region.
const UnknownRegion = "Unknown"

// RegionResolver maps region spellings to canonical names.
type RegionResolver interface {
	Canonical(name string) (string, bool)
}

// Options configures a Cleaner.
type Options struct {
	DateFormats    []string
	DiscountPolicy string // config.DiscountClamp or config.DiscountDrop
	MinUnitsSold   int
	Regions        RegionResolver // nil leaves regions title-cased only
	StrictRegions  bool           // drop rows whose region Regions cannot resolve
}

// OptionsFromConfig builds Options from the cleaning section of the config.
func OptionsFromConfig(c config.CleaningConfig, regions RegionResolver) Options {
	return Options{
		DateFormats:    c.DateFormats,
		DiscountPolicy: c.DiscountPolicy,
		MinUnitsSold:   c.MinUnitsSold,
		Regions:        regions,
		StrictRegions:  c.StrictRegions,
	}
}

// Cleaner turns raw rows into typed transactions. Not safe for concurrent use.
type Cleaner struct {
	opts  Options
	title cases.Caser
}

// New creates a Cleaner. Empty DateFormats fall back to the config defaults.
func New(opts Options) *Cleaner {
	if len(opts.DateFormats) == 0 {
		opts.DateFormats = config.DefaultDateFormats
	}
	if opts.DiscountPolicy == "" {
		opts.DiscountPolicy = config.DiscountClamp
	}
	return &Cleaner{opts: opts, title: cases.Title(language.English)}
}

// draft is a row that passed the per-row rules and may still need imputation.
type draft struct {
	tx      model.Transaction
	hasUnit bool
	hasDate bool
	hasMRP  bool
	hasSize bool
}

// Clean applies the cleaning rules in order and returns the surviving rows in
// input order.
func (c *Cleaner) Clean(rows []model.RawRow) ([]model.Transaction, *Report) {
	rep := &Report{RowsIn: len(rows)}

	seen := make(map[string]bool, len(rows))
	drafts := make([]*draft, 0, len(rows))
	for _, row := range rows {
		id := row.Get(model.ColOrderID)
		if id == "" {
			rep.drop(row.Line, "", ReasonMissingOrderID, "")
			continue
		}
		if seen[id] {
			rep.drop(row.Line, id, ReasonDuplicateOrderID, id)
			continue
		}
		seen[id] = true

		d, reason, value := c.parseRow(row, rep)
		if reason != "" {
			rep.drop(row.Line, id, reason, value)
			continue
		}
		drafts = append(drafts, d)
	}

	fill := newImputations(drafts)

	out := make([]model.Transaction, 0, len(drafts))
	for _, d := range drafts {
		tx := d.tx
		if !d.hasUnit {
			if !fill.hasUnits {
				rep.drop(tx.SourceLine, tx.OrderID, ReasonUnitsUnavailable, "")
				continue
			}
			tx.UnitsSold = fill.units
			tx.UnitsImputed = true
			rep.UnitsImputed++
		}
		if !d.hasDate {
			if !fill.hasDate {
				rep.drop(tx.SourceLine, tx.OrderID, ReasonDateUnavailable, "")
				continue
			}
			tx.OrderDate = fill.date
			tx.DateImputed = true
			rep.DatesImputed++
		}
		if !d.hasMRP {
			mrp, ok := fill.mrpFor(tx.ProductCategory)
			if !ok {
				rep.drop(tx.SourceLine, tx.OrderID, ReasonMRPUnavailable, "")
				continue
			}
			tx.MRP = mrp.Round(model.MoneyPlaces)
			tx.MRPImputed = true
			rep.MRPImputed++
		}
		if !d.hasSize && fill.hasSize {
			tx.Size = fill.size
			rep.SizesImputed++
		}
		if tx.UnitsSold < c.opts.MinUnitsSold {
			rep.drop(tx.SourceLine, tx.OrderID, ReasonBelowMinUnits, strconv.Itoa(tx.UnitsSold))
			continue
		}
		out = append(out, tx)
	}

	rep.RowsOut = len(out)
	return out, rep
}

// parseRow applies the per-row rules. A non-empty reason means the row is dropped.
func (c *Cleaner) parseRow(row model.RawRow, rep *Report) (*draft, Reason, string) {
	d := &draft{tx: model.Transaction{
		SourceLine:      row.Line,
		OrderID:         row.Get(model.ColOrderID),
		ProductName:     row.Get(model.ColProductName),
		ProductCategory: c.titled(row.Get(model.ColProductCategory)),
		Channel:         c.titled(row.Get(model.ColChannel)),
		GenderCategory:  c.titled(row.Get(model.ColGenderCategory)),
		Size:            strings.ToUpper(row.Get(model.ColSize)),
	}}
	d.hasSize = d.tx.Size != ""

	raw := row.Get(model.ColUnitsSold)
	if units, err := ParseUnits(raw); err == nil {
		if units < 0 {
			return nil, ReasonNegativeUnits, raw
		}
		d.tx.UnitsSold = units
		d.hasUnit = true
	}

	if date, err := ParseDate(row.Get(model.ColOrderDate), c.opts.DateFormats); err == nil {
		d.tx.OrderDate = date
		d.hasDate = true
	}

	raw = row.Get(model.ColUnitPrice)
	price, err := ParseCurrency(raw)
	if err != nil || price.IsNegative() {
		return nil, ReasonInvalidUnitPrice, raw
	}
	d.tx.UnitPrice = price.Round(model.MoneyPlaces)

	mrp, err := ParseCurrency(row.Get(model.ColMRP))
	if mrp = mrp.Round(model.MoneyPlaces); err == nil && mrp.IsPositive() {
		d.tx.MRP = mrp
		d.hasMRP = true
	}

	raw = row.Get(model.ColDiscount)
	discount, err := ParsePercent(raw)
	switch {
	case errors.Is(err, errEmpty):
		discount = decimal.Zero
		rep.DiscountsDefaulted++
	case err != nil:
		return nil, ReasonInvalidDiscount, raw
	case discount.IsNegative() || discount.GreaterThan(hundred):
		if c.opts.DiscountPolicy == config.DiscountDrop {
			return nil, ReasonDiscountOutOfRange, raw
		}
		discount = clamp(discount, decimal.Zero, hundred)
		rep.DiscountsClamped++
	}
	d.tx.DiscountApplied = discount.Round(model.DiscountPlaces)

	raw = row.Get(model.ColRegion)
	region, known := c.region(raw)
	if !known && c.opts.StrictRegions && c.opts.Regions != nil {
		return nil, ReasonUnknownRegion, raw
	}
	switch {
	case raw == "":
		rep.RegionsUnknown++
	case region != raw:
		rep.RegionsRemapped++
	}
	d.tx.Region = region
	return d, "", ""
}

// region normalizes a region spelling and reports whether the resolver knew it.
func (c *Cleaner) region(raw string) (string, bool) {
	if raw == "" {
		return UnknownRegion, false
	}
	if c.opts.Regions != nil {
		if canonical, ok := c.opts.Regions.Canonical(raw); ok {
			return canonical, true
		}
	}
	return c.titled(raw), false
}

func (c *Cleaner) titled(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if s == "" {
		return ""
	}
	return c.title.String(s)
}

// imputations holds fill values computed from the rows that had them.
type imputations struct {
	units    int
	hasUnits bool
	date     time.Time
	hasDate  bool
	size     string
	hasSize  bool

	mrpByCategory map[string]decimal.Decimal
	mrpGlobal     decimal.Decimal
	hasMRP        bool
}

func newImputations(drafts []*draft) *imputations {
	var (
		units []decimal.Decimal
		dates []time.Time
		sizes []string
		mrps  []decimal.Decimal
	)
	byCategory := make(map[string][]decimal.Decimal)
	for _, d := range drafts {
		if d.hasUnit {
			units = append(units, decimal.NewFromInt(int64(d.tx.UnitsSold)))
		}
		if d.hasDate {
			dates = append(dates, d.tx.OrderDate)
		}
		if d.hasSize {
			sizes = append(sizes, d.tx.Size)
		}
		if d.hasMRP {
			mrps = append(mrps, d.tx.MRP)
			byCategory[d.tx.ProductCategory] = append(byCategory[d.tx.ProductCategory], d.tx.MRP)
		}
	}

	im := &imputations{mrpByCategory: make(map[string]decimal.Decimal, len(byCategory))}
	if m, ok := Median(units); ok {
		// Round is half away from zero; units are never negative here.
		im.units, im.hasUnits = int(m.Round(0).IntPart()), true
	}
	im.date, im.hasDate = modeDate(dates)
	im.size, im.hasSize = modeString(sizes)
	im.mrpGlobal, im.hasMRP = Median(mrps)
	for cat, values := range byCategory {
		m, _ := Median(values)
		im.mrpByCategory[cat] = m
	}
	return im
}

func (im *imputations) mrpFor(category string) (decimal.Decimal, bool) {
	if m, ok := im.mrpByCategory[category]; ok {
		return m, true
	}
	return im.mrpGlobal, im.hasMRP
}

func clamp(d, lo, hi decimal.Decimal) decimal.Decimal {
	if d.LessThan(lo) {
		return lo
	}
	if d.GreaterThan(hi) {
		return hi
	}
	return d
}
