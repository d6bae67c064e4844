// Package lineparse recovers transactions from free-text statement lines.
package lineparse

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Bhuvaneshwar-bit/Strat-MU-FinAgent-sub001/internal/model"
	"github.com/Bhuvaneshwar-bit/Strat-MU-FinAgent-sub001/internal/normalize"
)

var (
	datePattern = regexp.MustCompile(`(?i)\b(` +
		`\d{4}-\d{2}-\d{2}` +
		`|\d{1,2}[/.-]\d{1,2}[/.-](?:\d{4}|\d{2})` +
		`|\d{1,2}[ -](?:jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*[ -](?:\d{4}|\d{2})` +
		`)\b`)

	amountPattern = regexp.MustCompile(`(?i)(?:^|\s)(` +
		`[-+]?(?:₹|\$|£|€|rs\.?\s?|inr\s)?\(?[-+]?(?:\d{1,3}(?:,\d{2,3})+|\d+)\.\d{2}\)?-?` +
		`(?:\s?(?:dr|cr)\b\.?)?` +
		`)(?:\s|$)`)
)

// Parser extracts transactions from lines that carry both a date and an amount.
type Parser struct {
	// DefaultDebit treats amounts without a sign or Dr/Cr marker as money out.
	DefaultDebit bool
}

// New returns a parser that reads unmarked amounts as debits.
func New() *Parser {
	return &Parser{DefaultDebit: true}
}

// Parse returns the transactions found in lines, in line order.
func (p *Parser) Parse(lines []string) []model.Transaction {
	var txs []model.Transaction
	for _, line := range lines {
		if tx, ok := p.ParseLine(line); ok {
			txs = append(txs, tx)
		}
	}
	return txs
}

// ParseLine extracts one transaction from a single line. When the line holds
// several amounts, the first is the transaction amount and the last the
// running balance.
func (p *Parser) ParseLine(line string) (model.Transaction, bool) {
	line = strings.Join(strings.Fields(line), " ")
	if line == "" || normalize.IsSummaryRow(line) {
		return model.Transaction{}, false
	}

	dateLoc := datePattern.FindStringSubmatchIndex(line)
	if dateLoc == nil {
		return model.Transaction{}, false
	}
	date, err := normalize.ParseDate(line[dateLoc[2]:dateLoc[3]])
	if err != nil {
		return model.Transaction{}, false
	}

	rest := line[:dateLoc[0]] + " " + line[dateLoc[1]:]
	amounts := findAmounts(rest)
	if len(amounts) == 0 {
		return model.Transaction{}, false
	}

	amount, explicit, err := normalize.ParseAmount(amounts[0].text)
	if err != nil || amount.IsZero() {
		return model.Transaction{}, false
	}
	if !explicit && p.DefaultDebit {
		amount = amount.Neg()
	}

	var balance *decimal.Decimal
	if len(amounts) > 1 {
		if b, _, err := normalize.ParseAmount(amounts[len(amounts)-1].text); err == nil {
			balance = &b
		}
	}

	description := rest
	for i := len(amounts) - 1; i >= 0; i-- {
		a := amounts[i]
		description = description[:a.start] + " " + description[a.end:]
	}
	description = strings.Join(strings.Fields(description), " ")
	if description == "" || normalize.IsSummaryRow(description) {
		return model.Transaction{}, false
	}

	tx := model.NewTransaction(date, description, amount)
	tx.Balance = balance
	tx.ID = tx.GenerateHash()
	return tx, tx.Valid()
}

type amountMatch struct {
	text       string
	start, end int
}

func findAmounts(s string) []amountMatch {
	var out []amountMatch
	for offset := 0; offset < len(s); {
		loc := amountPattern.FindStringSubmatchIndex(s[offset:])
		if loc == nil {
			break
		}
		start, end := offset+loc[2], offset+loc[3]
		out = append(out, amountMatch{text: s[start:end], start: start, end: end})
		offset = end
	}
	return out
}
