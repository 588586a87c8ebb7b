// Package tuition computes tuition fees and early-payment discounts.
// All functions are pure; the fee table and discount are fixed constants.
package tuition

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/yigit/admissions/internal/pkg/apperrors"
)

// DegreeLevel affects base tuition
type DegreeLevel string

// Degree levels
const (
	Bachelor DegreeLevel = "BACHELOR"
	Master   DegreeLevel = "MASTER"
)

// Field is the catalog-derived category used for fee lookup
type Field string

// Fields
const (
	Business   Field = "BUSINESS"
	Arts       Field = "ARTS"
	Technology Field = "TECHNOLOGY"
	Science    Field = "SCIENCE"
)

// DegreeLevels and Fields enumerate every key of the fee table.
var (
	DegreeLevels = []DegreeLevel{Bachelor, Master}
	Fields       = []Field{Business, Arts, Technology, Science}
)

// EarlyPaymentDiscountPercent is applied to gross tuition to produce net tuition.
const EarlyPaymentDiscountPercent = 25

// DefaultDurationYears is used when a catalog duration cannot be parsed.
const DefaultDurationYears = 2

type feeKey struct {
	level DegreeLevel
	field Field
}

// feeTable holds the annual gross fee for every (level, field) combination.
var feeTable = map[feeKey]int64{
	{Bachelor, Business}:   5000,
	{Bachelor, Arts}:       4500,
	{Bachelor, Technology}: 6000,
	{Bachelor, Science}:    5500,
	{Master, Business}:     7000,
	{Master, Arts}:         6000,
	{Master, Technology}:   8000,
	{Master, Science}:      7500,
}

// ComputeFee returns the gross fee for a degree level and field.
// A missing combination is a configuration error.
func ComputeFee(level DegreeLevel, field Field) (int64, error) {
	fee, ok := feeTable[feeKey{level, field}]
	if !ok {
		return 0, apperrors.NewConfigurationError("no tuition fee configured for %s/%s", level, field)
	}
	return fee, nil
}

// ValidateFeeTable checks that every combination has a fee. Called once at startup.
func ValidateFeeTable() error {
	for _, level := range DegreeLevels {
		for _, field := range Fields {
			if _, err := ComputeFee(level, field); err != nil {
				return err
			}
		}
	}
	return nil
}

var (
	hundred      = decimal.NewFromInt(100)
	discountRate = decimal.NewFromInt(100 - EarlyPaymentDiscountPercent).Div(hundred)
)

// ApplyEarlyPaymentDiscount returns round(gross × (1 − 25/100)), rounding half away from zero.
func ApplyEarlyPaymentDiscount(grossFee int64) int64 {
	return decimal.NewFromInt(grossFee).Mul(discountRate).Round(0).IntPart()
}

var durationPattern = regexp.MustCompile(`(?i)\b([234])\s*years?\b`)

// ParseDurationYears extracts a whole year count from free-text duration.
// Recognized values are 2, 3 and 4 years; anything else falls back to DefaultDurationYears.
func ParseDurationYears(durationText string) int {
	m := durationPattern.FindStringSubmatch(durationText)
	if m == nil {
		return DefaultDurationYears
	}
	years, err := strconv.Atoi(m[1])
	if err != nil {
		return DefaultDurationYears
	}
	return years
}

// fieldMatchers are checked in order; the first substring hit wins.
var fieldMatchers = []struct {
	substr string
	field  Field
}{
	{"business", Business},
	{"arts", Arts},
	{"design", Arts},
	{"technology", Technology},
	{"engineering", Technology},
	{"science", Science},
}

// MapFieldFromCatalogTag normalizes a free-text catalog tag to a Field.
// Tags matching nothing map to Technology.
func MapFieldFromCatalogTag(tag string) Field {
	lower := strings.ToLower(tag)
	for _, m := range fieldMatchers {
		if strings.Contains(lower, m.substr) {
			return m.field
		}
	}
	return Technology
}

// ParseDegreeLevel parses a catalog degree level such as "Master" or "BACHELOR".
func ParseDegreeLevel(s string) (DegreeLevel, error) {
	level := DegreeLevel(strings.ToUpper(strings.TrimSpace(s)))
	switch level {
	case Bachelor, Master:
		return level, nil
	}
	return "", apperrors.NewValidationError("unknown degree level %q", s)
}

// Quote is the full tuition breakdown for a course
type Quote struct {
	DegreeLevel     DegreeLevel `json:"degreeLevel"`
	Field           Field       `json:"field"`
	GrossFee        int64       `json:"grossFee"`
	DiscountPercent int64       `json:"discountPercent"`
	DiscountAmount  int64       `json:"discountAmount"`
	NetFee          int64       `json:"netFee"`
	DurationYears   int         `json:"durationYears"`
	ProgrammeTotal  int64       `json:"programmeTotal"`
}

// NewQuote computes a Quote from raw catalog values.
func NewQuote(degreeLevel, fieldTag, durationText string) (Quote, error) {
	level, err := ParseDegreeLevel(degreeLevel)
	if err != nil {
		return Quote{}, err
	}
	field := MapFieldFromCatalogTag(fieldTag)

	gross, err := ComputeFee(level, field)
	if err != nil {
		return Quote{}, err
	}
	net := ApplyEarlyPaymentDiscount(gross)
	years := ParseDurationYears(durationText)

	return Quote{
		DegreeLevel:     level,
		Field:           field,
		GrossFee:        gross,
		DiscountPercent: EarlyPaymentDiscountPercent,
		DiscountAmount:  gross - net,
		NetFee:          net,
		DurationYears:   years,
		ProgrammeTotal:  net * int64(years),
	}, nil
}

// String renders the quote for logs and the CLI
func (q Quote) String() string {
	return fmt.Sprintf("%s/%s gross=%d discount=%d%% net=%d years=%d total=%d",
		q.DegreeLevel, q.Field, q.GrossFee, q.DiscountPercent, q.NetFee, q.DurationYears, q.ProgrammeTotal)
}
