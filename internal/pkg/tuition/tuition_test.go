package tuition

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/admissions/internal/pkg/apperrors"
)

func TestComputeFee(t *testing.T) {
	fee, err := ComputeFee(Bachelor, Technology)
	require.NoError(t, err)
	assert.Equal(t, int64(6000), fee)

	fee, err = ComputeFee(Master, Science)
	require.NoError(t, err)
	assert.Equal(t, int64(7500), fee)
}

func TestComputeFeeMissingCombination(t *testing.T) {
	_, err := ComputeFee(DegreeLevel("DOCTORATE"), Science)
	assert.ErrorIs(t, err, apperrors.ErrConfiguration)
}

func TestValidateFeeTable(t *testing.T) {
	assert.NoError(t, ValidateFeeTable())
}

func TestApplyEarlyPaymentDiscount(t *testing.T) {
	tests := []struct {
		gross int64
		want  int64
	}{
		{6000, 4500},
		{8000, 6000},
		{0, 0},
		{4999, 3749}, // 3749.25
		{4998, 3749}, // 3748.5 rounds away from zero
		{2, 2},       // 1.5
		{-2, -2},     // -1.5
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ApplyEarlyPaymentDiscount(tt.gross), "gross %d", tt.gross)
	}
}

func TestParseDurationYears(t *testing.T) {
	tests := map[string]int{
		"3 years of study":  3,
		"2 years":           2,
		"4 Years":           4,
		"Full-time, 4years": 4,
		"unspecified":       2,
		"":                  2,
		"18 months":         2,
		"12 years":          2,
		"5 years":           2,
	}

	for text, want := range tests {
		assert.Equal(t, want, ParseDurationYears(text), "%q", text)
	}
}

func TestMapFieldFromCatalogTag(t *testing.T) {
	tests := map[string]Field{
		"International Business": Business,
		"Fine Arts":              Arts,
		"Graphic Design":         Arts,
		"Information Technology": Technology,
		"Mechanical Engineering": Technology,
		"Data Science":           Science,
		"Philosophy":             Technology,
		"":                       Technology,
		"BUSINESS ANALYTICS":     Business,
	}

	for tag, want := range tests {
		assert.Equal(t, want, MapFieldFromCatalogTag(tag), "%q", tag)
	}
}

func TestParseDegreeLevel(t *testing.T) {
	level, err := ParseDegreeLevel(" master ")
	require.NoError(t, err)
	assert.Equal(t, Master, level)

	_, err = ParseDegreeLevel("diploma")
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestNewQuote(t *testing.T) {
	q, err := NewQuote("Bachelor", "Software Engineering", "3 years full-time")
	require.NoError(t, err)

	assert.Equal(t, Bachelor, q.DegreeLevel)
	assert.Equal(t, Technology, q.Field)
	assert.Equal(t, int64(6000), q.GrossFee)
	assert.Equal(t, int64(25), q.DiscountPercent)
	assert.Equal(t, int64(1500), q.DiscountAmount)
	assert.Equal(t, int64(4500), q.NetFee)
	assert.Equal(t, 3, q.DurationYears)
	assert.Equal(t, int64(13500), q.ProgrammeTotal)
}
