package amountwords

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNumberToWords(t *testing.T) {
	tests := []struct {
		n    int64
		want string
	}{
		{0, "Zero"},
		{7, "Seven"},
		{13, "Thirteen"},
		{40, "Forty"},
		{99, "Ninety-Nine"},
		{100, "One Hundred"},
		{105, "One Hundred Five"},
		{4500, "Four Thousand Five Hundred"},
		{6000, "Six Thousand"},
		{13500, "Thirteen Thousand Five Hundred"},
		{1_000_001, "One Million One"},
		{2_345_678, "Two Million Three Hundred Forty-Five Thousand Six Hundred Seventy-Eight"},
		{-4500, "Minus Four Thousand Five Hundred"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, NumberToWords(tt.n), "n=%d", tt.n)
	}
}

func TestNumberToWordsExtremes(t *testing.T) {
	assert.NotPanics(t, func() { NumberToWords(math.MinInt64) })
	assert.NotPanics(t, func() { NumberToWords(math.MaxInt64) })
	assert.Contains(t, NumberToWords(math.MaxInt64), "Trillion")
}

func TestDayOrdinal(t *testing.T) {
	assert.Equal(t, "First", DayOrdinal(1))
	assert.Equal(t, "Twelfth", DayOrdinal(12))
	assert.Equal(t, "Twentieth", DayOrdinal(20))
	assert.Equal(t, "Twenty-First", DayOrdinal(21))
	assert.Equal(t, "Thirtieth", DayOrdinal(30))
	assert.Equal(t, "Thirty-First", DayOrdinal(31))
}

func TestDateToWords(t *testing.T) {
	d := time.Date(2026, time.March, 15, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "Fifteenth of March, Two Thousand Twenty-Six", DateToWords(d))
	assert.Equal(t, "15 March 2026", LongDate(d))
}

func TestISODateToWords(t *testing.T) {
	words, err := ISODateToWords("2026-11-02")
	require.NoError(t, err)
	assert.Equal(t, "Second of November, Two Thousand Twenty-Six", words)

	words, err = ISODateToWords("2027-01-31T18:00:00Z")
	require.NoError(t, err)
	assert.Equal(t, "Thirty-First of January, Two Thousand Twenty-Seven", words)

	_, err = ISODateToWords("next tuesday")
	assert.Error(t, err)
}
