package cleaner

import "sort"

// Reason explains why a row was dropped.
type Reason string

const (
	ReasonMissingOrderID     Reason = "missing_order_id"
	ReasonDuplicateOrderID   Reason = "duplicate_order_id"
	ReasonNegativeUnits      Reason = "negative_units"
	ReasonUnitsUnavailable   Reason = "units_unavailable"
	ReasonDateUnavailable    Reason = "date_unavailable"
	ReasonInvalidUnitPrice   Reason = "invalid_unit_price"
	ReasonInvalidDiscount    Reason = "invalid_discount"
	ReasonDiscountOutOfRange Reason = "discount_out_of_range"
	ReasonMRPUnavailable     Reason = "mrp_unavailable"
	ReasonUnknownRegion      Reason = "unknown_region"
	ReasonBelowMinUnits      Reason = "below_min_units"
	ReasonRevenueOutlier     Reason = "revenue_outlier"
)

// Issue records one dropped row.
type Issue struct {
	Line    int
	OrderID string
	Reason  Reason
	Value   string
}

// Report counts every decision the cleaner made.
type Report struct {
	RowsIn  int
	RowsOut int
	Issues  []Issue

	UnitsImputed       int
	DatesImputed       int
	MRPImputed         int
	SizesImputed       int
	DiscountsDefaulted int
	DiscountsClamped   int
	RegionsRemapped    int
	RegionsUnknown     int
}

func (r *Report) drop(line int, orderID string, reason Reason, value string) {
	r.Issues = append(r.Issues, Issue{Line: line, OrderID: orderID, Reason: reason, Value: value})
}

// Dropped returns the number of dropped rows.
func (r *Report) Dropped() int {
	return len(r.Issues)
}

// DroppedBy returns drop counts keyed by reason.
func (r *Report) DroppedBy() map[Reason]int {
	out := make(map[Reason]int)
	for _, is := range r.Issues {
		out[is.Reason]++
	}
	return out
}

// Reasons returns the reasons present in the report, sorted.
func (r *Report) Reasons() []Reason {
	by := r.DroppedBy()
	out := make([]Reason, 0, len(by))
	for reason := range by {
		out = append(out, reason)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
