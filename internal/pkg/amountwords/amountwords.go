// Package amountwords renders currency amounts and dates in English words
// for legal documents.
package amountwords

import (
	"fmt"
	"strings"
	"time"
)

var (
	ones = []string{
		"Zero", "One", "Two", "Three", "Four", "Five", "Six", "Seven", "Eight", "Nine",
		"Ten", "Eleven", "Twelve", "Thirteen", "Fourteen", "Fifteen", "Sixteen",
		"Seventeen", "Eighteen", "Nineteen",
	}
	tens = []string{
		"", "", "Twenty", "Thirty", "Forty", "Fifty", "Sixty", "Seventy", "Eighty", "Ninety",
	}
	scales = []struct {
		value int64
		name  string
	}{
		{1_000_000_000_000, "Trillion"},
		{1_000_000_000, "Billion"},
		{1_000_000, "Million"},
		{1_000, "Thousand"},
	}
)

// NumberToWords renders n in title-cased English, e.g. 4500 -> "Four Thousand Five Hundred".
func NumberToWords(n int64) string {
	if n == 0 {
		return ones[0]
	}
	if n < 0 {
		// -n overflows for MinInt64; the magnitude is handled as uint64.
		return "Minus " + strings.Join(wordsFor(uint64(-(n+1))+1), " ")
	}
	return strings.Join(wordsFor(uint64(n)), " ")
}

func wordsFor(n uint64) []string {
	var parts []string
	for n >= 1_000_000_000_000_000 {
		// Quadrillions and above are rendered as a count of trillions.
		parts = append(parts, wordsFor(n/1_000_000_000_000)...)
		parts = append(parts, "Trillion")
		n %= 1_000_000_000_000
	}
	for _, scale := range scales {
		if n >= uint64(scale.value) {
			parts = append(parts, belowThousand(n/uint64(scale.value))...)
			parts = append(parts, scale.name)
			n %= uint64(scale.value)
		}
	}
	if n > 0 {
		parts = append(parts, belowThousand(n)...)
	}
	return parts
}

func belowThousand(n uint64) []string {
	var parts []string
	if n >= 100 {
		parts = append(parts, ones[n/100], "Hundred")
		n %= 100
	}
	switch {
	case n == 0:
	case n < 20:
		parts = append(parts, ones[n])
	case n%10 == 0:
		parts = append(parts, tens[n/10])
	default:
		parts = append(parts, tens[n/10]+"-"+ones[n%10])
	}
	return parts
}

var ordinalOnes = map[int]string{
	1: "First", 2: "Second", 3: "Third", 4: "Fourth", 5: "Fifth", 6: "Sixth",
	7: "Seventh", 8: "Eighth", 9: "Ninth", 10: "Tenth", 11: "Eleventh", 12: "Twelfth",
	13: "Thirteenth", 14: "Fourteenth", 15: "Fifteenth", 16: "Sixteenth",
	17: "Seventeenth", 18: "Eighteenth", 19: "Nineteenth", 20: "Twentieth", 30: "Thirtieth",
}

// DayOrdinal renders a day of month (1-31) as an ordinal word, e.g. 21 -> "Twenty-First".
func DayOrdinal(day int) string {
	if w, ok := ordinalOnes[day]; ok {
		return w
	}
	if day > 20 && day < 40 {
		return tens[day/10] + "-" + ordinalOnes[day%10]
	}
	return NumberToWords(int64(day))
}

// DateToWords renders a date in long form, e.g. 2026-03-15 -> "Fifteenth of March, Two Thousand Twenty-Six".
func DateToWords(t time.Time) string {
	return fmt.Sprintf("%s of %s, %s", DayOrdinal(t.Day()), t.Month().String(), NumberToWords(int64(t.Year())))
}

// ISODateToWords parses an ISO date (YYYY-MM-DD or RFC 3339) and renders it with DateToWords.
func ISODateToWords(iso string) (string, error) {
	iso = strings.TrimSpace(iso)
	t, err := time.Parse("2006-01-02", iso)
	if err != nil {
		t, err = time.Parse(time.RFC3339, iso)
		if err != nil {
			return "", fmt.Errorf("invalid ISO date %q: %w", iso, err)
		}
	}
	return DateToWords(t), nil
}

// LongDate renders a date as "15 March 2026", used next to the worded form.
func LongDate(t time.Time) string {
	return t.Format("2 January 2006")
}
