package cleaner

import (
	"strconv"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/salespipe/salespipe/internal/config"
)

func TestParseCurrency(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"100", "100"},
		{"₹1,299.00", "1299"},
		{"Rs. 450", "450"},
		{"INR 2,000", "2000"},
		{"$12.50", "12.5"},
		{" € 9 ", "9"},
		{"-15", "-15"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseCurrency(tt.in)
			require.NoError(t, err)
			assertDec(t, tt.want, got)
		})
	}
}

func TestParseCurrency_Invalid(t *testing.T) {
	for _, in := range []string{"", "  ", "abc", "12..5", "₹"} {
		_, err := ParseCurrency(in)
		assert.Error(t, err, in)
	}
}

func TestParsePercent(t *testing.T) {
	for in, want := range map[string]string{"25": "25", "25%": "25", "12.5 %": "12.5", "150": "150"} {
		got, err := ParsePercent(in)
		require.NoError(t, err, in)
		assertDec(t, want, got)
	}
	_, err := ParsePercent("%")
	assert.ErrorIs(t, err, errEmpty)
	_, err = ParsePercent("half")
	assert.Error(t, err)
}

func TestParseUnits(t *testing.T) {
	n, err := ParseUnits("3")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	n, err = ParseUnits("4.0")
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	n, err = ParseUnits("-2")
	require.NoError(t, err)
	assert.Equal(t, -2, n)

	_, err = ParseUnits("2.5")
	assert.Error(t, err)
	_, err = ParseUnits("")
	assert.ErrorIs(t, err, errEmpty)
	_, err = ParseUnits("two")
	assert.Error(t, err)

	for _, in := range []string{"18446744073709551617", "18446744073709551615", "1e19", "-1e19"} {
		_, err = ParseUnits(in)
		assert.ErrorIs(t, err, strconv.ErrRange, in)
	}
}

func TestParseDate_PriorityOrder(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{"2024-03-05", time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)},
		{"2024/03/05", time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)},
		{"05-03-2024", time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)},
		{"03/04/2024", time.Date(2024, 4, 3, 0, 0, 0, 0, time.UTC)},
		{"12/31/2024", time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)},
		{"2024-03-05 17:45:00", time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)},
		{"2024-03-05T23:30:00Z", time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)},
		{"Mar 5, 2024", time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)},
		{"5 Mar 2024", time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDate(tt.in, config.DefaultDateFormats)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseDate_Invalid(t *testing.T) {
	_, err := ParseDate("31/31/2024", config.DefaultDateFormats)
	assert.Error(t, err)
	_, err = ParseDate("", config.DefaultDateFormats)
	assert.ErrorIs(t, err, errEmpty)
}

func TestMedian(t *testing.T) {
	_, ok := Median(nil)
	assert.False(t, ok)

	m, ok := Median([]decimal.Decimal{decimal.NewFromInt(3), decimal.NewFromInt(1), decimal.NewFromInt(2)})
	require.True(t, ok)
	assertDec(t, "2", m)

	m, _ = Median([]decimal.Decimal{decimal.NewFromInt(2), decimal.NewFromInt(1)})
	assertDec(t, "1.5", m)
}

func TestModeDate_EarliestOnTie(t *testing.T) {
	a := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	b := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	got, ok := modeDate([]time.Time{a, b, a, b})
	require.True(t, ok)
	assert.Equal(t, b, got)

	got, _ = modeDate([]time.Time{a, b, a})
	assert.Equal(t, a, got)
}

func TestModeString(t *testing.T) {
	got, ok := modeString([]string{"S", "M", "S", "M", "L"})
	require.True(t, ok)
	assert.Equal(t, "M", got)

	_, ok = modeString(nil)
	assert.False(t, ok)
}
