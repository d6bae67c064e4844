package normalize

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// dateLayouts are tried in order. Day-first numeric layouts precede month-first
// ones so that 02/01/2024 reads as 2 January.
var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"2006-1-2",
	"2/1/2006",
	"2-1-2006",
	"2.1.2006",
	"2/1/06",
	"2-1-06",
	"2.1.06",
	"1/2/2006",
	"2 Jan 2006",
	"2 January 2006",
	"2-Jan-2006",
	"2-Jan-06",
	"2/Jan/2006",
	"2 Jan 06",
	"Jan 2, 2006",
	"January 2, 2006",
	"Jan 2 2006",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2/1/2006 15:04:05",
	"2/1/2006 15:04",
	"2-Jan-2006 15:04:05",
}

var serialPattern = regexp.MustCompile(`^\d{5}(\.\d+)?$`)

// excelEpoch is day zero of the Excel 1900 date system, accounting for its phantom 1900-02-29.
var excelEpoch = time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)

// ParseDate parses a statement date cell. Excel serial numbers are accepted
// when they fall between 1954 and 2119.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(strings.Trim(s, `"'`))
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	s = strings.Join(strings.Fields(s), " ")

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return dateOnly(t), nil
		}
	}

	if serialPattern.MatchString(s) {
		if f, err := strconv.ParseFloat(s, 64); err == nil && f >= 20000 && f < 80000 {
			return excelEpoch.AddDate(0, 0, int(f)), nil
		}
	}

	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
