package classification

import (
	"regexp"
	"strings"
	"unicode"
)

// Payment rails embed the counterparty between reference segments, e.g.
// "UPI/P2M/123/Acme Traders/Sale" or "NEFT-N123456-ACME CORP-HDFC".
// Segments containing a digit, and short codes such as CR or P2A, are skipped.
var entityPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bUPI[/-](?:[A-Z]*\d[A-Z0-9]*[/-]|[A-Z]{1,3}[/-])*([^/-]+)`),
	regexp.MustCompile(`(?i)\bNEFT[/-](?:[A-Z]*\d[A-Z0-9]*[/-]|[A-Z]{1,3}[/-])*([^/-]+)`),
	regexp.MustCompile(`(?i)\bIMPS[/-](?:[A-Z]*\d[A-Z0-9]*[/-]|[A-Z]{1,3}[/-])*([^/-]+)`),
	regexp.MustCompile(`(?i)\bRTGS[/-](?:[A-Z]*\d[A-Z0-9]*[/-]|[A-Z]{1,3}[/-])*([^/-]+)`),
}

var leadingCapitalized = regexp.MustCompile(`^([A-Z][A-Za-z&.']*(?:\s+[A-Z][A-Za-z&.']*)*)`)

const fallbackEntityLength = 30

// ExtractEntity pulls the counterparty name out of a transaction description.
// It returns "" when no candidate of at least three characters is found.
func ExtractEntity(description string) string {
	description = strings.TrimSpace(description)

	for _, re := range entityPatterns {
		if m := re.FindStringSubmatch(description); m != nil {
			if c := strings.TrimSpace(m[1]); validEntity(c) {
				return c
			}
		}
	}

	if m := leadingCapitalized.FindString(description); validEntity(m) {
		return strings.TrimSpace(m)
	}

	fallback := description
	if r := []rune(fallback); len(r) > fallbackEntityLength {
		fallback = string(r[:fallbackEntityLength])
	}
	fallback = strings.TrimSpace(fallback)
	if validEntity(fallback) {
		return fallback
	}
	return ""
}

// NormalizeEntity lowercases s and collapses runs of whitespace.
func NormalizeEntity(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

func validEntity(s string) bool {
	if len([]rune(strings.TrimSpace(s))) < 3 {
		return false
	}
	return strings.IndexFunc(s, unicode.IsLetter) >= 0
}
