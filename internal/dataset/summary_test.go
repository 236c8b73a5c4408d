package dataset

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/salespipe/salespipe/internal/model"
)

func TestSummaries_RoundTrip(t *testing.T) {
	rows := []model.Summary{
		{
			Dimension:        "region",
			Key:              "Hyderabad",
			Transactions:     2,
			UnitsSold:        6,
			Revenue:          dec("390"),
			Profit:           dec("-338"),
			AvgProfitMargin:  dec("-0.84736842"),
			AOV:              dec("195"),
			AvgDiscount:      dec("10"),
			LossTransactions: 2,
		},
		{Dimension: "region", Key: "Pune", Transactions: 1, UnitsSold: 1, Revenue: dec("80"), Profit: dec("80"),
			AvgProfitMargin: dec("1"), AOV: dec("80"), AvgDiscount: dec("100")},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteSummaries(&buf, "region", rows))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "region,"+SummaryColumns, lines[0])
	assert.Equal(t, "Hyderabad,2,6,390.00,-338.00,-0.8667,-0.8474,195.00,10.00,2", lines[1])

	got, err := ReadSummaries(&buf)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "region", got[0].Dimension)
	assert.Equal(t, "Hyderabad", got[0].Key)
	assert.Equal(t, 2, got[0].LossTransactions)
	assert.True(t, got[0].Revenue.Equal(dec("390")))
	assert.True(t, got[1].AvgDiscount.Equal(dec("100")))
}

func TestReadSummaries_BadRow(t *testing.T) {
	in := "region," + SummaryColumns + "\nPune,one,1,80,80,1,1,80,100,0\n"
	_, err := ReadSummaries(strings.NewReader(in))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row 2")
	assert.Contains(t, err.Error(), "transactions")
}

func TestReadSummaries_Empty(t *testing.T) {
	got, err := ReadSummaries(strings.NewReader(""))
	require.NoError(t, err)
	assert.Nil(t, got)
}
