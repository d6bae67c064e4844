package normalize

import (
	"regexp"
	"strings"
)

var summaryPattern = regexp.MustCompile(`(?i)^\s*(grand\s+|sub\s*-?\s*)?totals?\b` +
	`|\b(opening|closing)\s+bal(ance)?\b` +
	`|\bbal(ance)?\s+(b/?f|c/?f)\b` +
	`|^\s*(b/?f|c/?f)\b` +
	`|\b(brought|carried)\s+(forward|fwd)\b` +
	`|\btotal\s+(dr|cr|debits?|credits?|withdrawals?|deposits?)\b`)

// IsSummaryRow reports whether text is a statement total, an opening or
// closing balance, or a balance carried between pages.
func IsSummaryRow(text string) bool {
	return summaryPattern.MatchString(text)
}

// isHeaderRepeat reports whether a row repeats the header on a later page.
func isHeaderRepeat(record map[Field]string, headers map[Field]string) bool {
	matches := 0
	for field, value := range record {
		if h, ok := headers[field]; ok && h != "" && NormalizeHeader(value) == h {
			matches++
		}
	}
	return matches >= 2
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
