package normalize

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var errEmptyAmount = errors.New("empty amount")

var (
	currencyPattern  = regexp.MustCompile(`(?i)(₹|\$|£|€|\brs\.?|\binr\b|\busd\b|\bgbp\b|\beur\b)`)
	directionPattern = regexp.MustCompile(`(?i)\s*\(?(dr|cr)\.?\)?\s*$`)
)

// ParseAmount parses a monetary cell into a signed decimal.
// Parentheses, a leading or trailing minus and a "Dr" suffix produce a negative
// value; "Cr" forces a positive one. explicit reports whether the text carried
// any of those direction markers.
func ParseAmount(s string) (amount decimal.Decimal, explicit bool, err error) {
	s = strings.TrimSpace(strings.ReplaceAll(s, "\u00a0", " "))
	if s == "" || s == "-" || s == "--" {
		return decimal.Zero, false, errEmptyAmount
	}

	negative := false
	if m := directionPattern.FindStringSubmatch(s); m != nil {
		explicit = true
		negative = strings.EqualFold(m[1], "dr")
		s = strings.TrimSpace(s[:len(s)-len(m[0])])
	}

	s = currencyPattern.ReplaceAllString(s, "")
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		explicit, negative = true, true
		s = strings.TrimSpace(s[1 : len(s)-1])
		s = strings.TrimSpace(currencyPattern.ReplaceAllString(s, ""))
	}
	switch {
	case strings.HasPrefix(s, "-"):
		explicit, negative = true, true
		s = s[1:]
	case strings.HasSuffix(s, "-"):
		explicit, negative = true, true
		s = s[:len(s)-1]
	case strings.HasPrefix(s, "+"):
		explicit = true
		s = s[1:]
	}

	s = normalizeSeparators(strings.ReplaceAll(strings.TrimSpace(s), " ", ""))
	if s == "" {
		return decimal.Zero, false, errEmptyAmount
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("parse amount %q: %w", s, err)
	}
	d = d.Abs()
	if negative {
		d = d.Neg()
	}
	return d, explicit, nil
}

// normalizeSeparators removes thousands separators, accepting both "1,234.56"
// and the continental "1.234,56". A single comma followed by exactly two digits
// is read as a decimal comma.
func normalizeSeparators(s string) string {
	s = strings.ReplaceAll(s, "'", "")
	lastComma := strings.LastIndex(s, ",")
	lastDot := strings.LastIndex(s, ".")

	switch {
	case lastComma >= 0 && lastDot >= 0 && lastComma > lastDot:
		s = strings.ReplaceAll(s, ".", "")
		return strings.Replace(s, ",", ".", 1)
	case lastComma >= 0 && lastDot < 0 && strings.Count(s, ",") == 1 && len(s)-lastComma-1 == 2:
		return strings.Replace(s, ",", ".", 1)
	default:
		return strings.ReplaceAll(s, ",", "")
	}
}
