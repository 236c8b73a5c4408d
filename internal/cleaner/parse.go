package cleaner

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var errEmpty = errors.New("empty value")

// Stripped before parsing a currency amount. Longer tokens first.
var currencyTokens = []string{"Rs.", "INR", "USD", "EUR", "GBP", "Rs", "₹", "$", "€", "£"}

var hundred = decimal.NewFromInt(100)

// ParseCurrency parses an amount such as "₹1,299.00", "Rs. 450" or "$12".
func ParseCurrency(s string) (decimal.Decimal, error) {
	v := strings.TrimSpace(s)
	if v == "" {
		return decimal.Zero, errEmpty
	}
	for _, tok := range currencyTokens {
		v = strings.ReplaceAll(v, tok, "")
	}
	v = strings.ReplaceAll(v, ",", "")
	v = strings.Join(strings.Fields(v), "")
	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parsing amount %q: %w", s, err)
	}
	return d, nil
}

// ParsePercent parses "25", "25%" or "12.5 %" into a percentage value.
func ParsePercent(s string) (decimal.Decimal, error) {
	v := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "%"))
	if v == "" {
		return decimal.Zero, errEmpty
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parsing percent %q: %w", s, err)
	}
	return d, nil
}

// ParseUnits parses a whole unit count. "3.0" is accepted, "2.5" is not.
func ParseUnits(s string) (int, error) {
	v := strings.TrimSpace(s)
	if v == "" {
		return 0, errEmpty
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return 0, fmt.Errorf("parsing units %q: %w", s, err)
	}
	if !d.Equal(d.Truncate(0)) {
		return 0, fmt.Errorf("units %q is not a whole number", s)
	}
	n, err := strconv.Atoi(d.String())
	if err != nil {
		return 0, fmt.Errorf("parsing units %q: %w", s, err)
	}
	return n, nil
}

// ParseDate tries each layout in order and returns the first match as a UTC
// calendar date.
func ParseDate(s string, layouts []string) (time.Time, error) {
	v := strings.TrimSpace(s)
	if v == "" {
		return time.Time{}, errEmpty
	}
	for _, layout := range layouts {
		t, err := time.Parse(layout, v)
		if err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("date %q matches none of %d layouts", s, len(layouts))
}

// Median returns the median of values, averaging the middle pair for even
// counts. Returns false for an empty slice.
func Median(values []decimal.Decimal) (decimal.Decimal, bool) {
	n := len(values)
	if n == 0 {
		return decimal.Zero, false
	}
	sorted := make([]decimal.Decimal, n)
	copy(sorted, values)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].LessThan(sorted[j]) })
	if n%2 == 1 {
		return sorted[n/2], true
	}
	return sorted[n/2-1].Add(sorted[n/2]).Div(decimal.NewFromInt(2)), true
}

// modeDate returns the most frequent date, earliest on ties.
func modeDate(dates []time.Time) (time.Time, bool) {
	if len(dates) == 0 {
		return time.Time{}, false
	}
	counts := make(map[time.Time]int, len(dates))
	for _, d := range dates {
		counts[d]++
	}
	var best time.Time
	bestN := 0
	for d, n := range counts {
		if n > bestN || (n == bestN && d.Before(best)) {
			best, bestN = d, n
		}
	}
	return best, true
}

// modeString returns the most frequent value, lexically smallest on ties.
func modeString(values []string) (string, bool) {
	if len(values) == 0 {
		return "", false
	}
	counts := make(map[string]int, len(values))
	for _, v := range values {
		counts[v]++
	}
	best, bestN := "", 0
	for v, n := range counts {
		if n > bestN || (n == bestN && v < best) {
			best, bestN = v, n
		}
	}
	return best, true
}
