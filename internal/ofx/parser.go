// Package ofx reads OFX/QFX bank and credit card statements.
package ofx

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/aclindsa/ofxgo"
	"github.com/shopspring/decimal"

	"github.com/Bhuvaneshwar-bit/Strat-MU-FinAgent-sub001/internal/model"
)

var (
	severityRegex = regexp.MustCompile(`(?i)<SEVERITY>(Info|Warn|Error)</SEVERITY>`)
	tagFixRegex   = regexp.MustCompile(`(?m)^(\s*<[A-Z][A-Z0-9._]*[A-Z0-9])$`)
)

// Statement is the content of one OFX file.
type Statement struct {
	ClosingBalance *decimal.Decimal
	Accounts       []string
	Transactions   []model.Transaction
}

// Parser implements OFX/QFX file parsing.
type Parser struct{}

// NewParser creates a new OFX parser.
func NewParser() *Parser {
	return &Parser{}
}

// preprocessOFX fixes common formatting issues in OFX files.
func (p *Parser) preprocessOFX(content string) string {
	content = strings.TrimLeft(content, " \t\r\n\uFEFF")

	// SEVERITY must be upper case
	content = severityRegex.ReplaceAllStringFunc(content, strings.ToUpper)

	// SGML exports sometimes drop the closing bracket of bare opening tags
	content = tagFixRegex.ReplaceAllString(content, "$1>")

	return content
}

// Parse reads an OFX document and returns its transactions in file order.
// Amounts keep the OFX sign convention: negative values are money out.
func (p *Parser) Parse(ctx context.Context, data []byte) (*Statement, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	processed := p.preprocessOFX(string(data))

	resp, err := ofxgo.ParseResponse(bytes.NewReader([]byte(processed)))
	if err != nil {
		return nil, fmt.Errorf("failed to parse OFX file: %w", err)
	}

	stmt := &Statement{}
	var bankStmts, ccStmts int

	for _, msg := range resp.Bank {
		if s, ok := msg.(*ofxgo.StatementResponse); ok {
			bankStmts++
			stmt.Accounts = append(stmt.Accounts, string(s.BankAcctFrom.AcctID))
			stmt.Transactions = append(stmt.Transactions, p.convertList(s.BankTranList)...)
			stmt.ClosingBalance = balance(s.BalAmt)
		}
	}

	for _, msg := range resp.CreditCard {
		if s, ok := msg.(*ofxgo.CCStatementResponse); ok {
			ccStmts++
			stmt.Accounts = append(stmt.Accounts, string(s.CCAcctFrom.AcctID))
			stmt.Transactions = append(stmt.Transactions, p.convertList(s.BankTranList)...)
			stmt.ClosingBalance = balance(s.BalAmt)
		}
	}

	slog.Debug("Parsed OFX file",
		"total_transactions", len(stmt.Transactions),
		"bank_statements", bankStmts,
		"cc_statements", ccStmts)

	return stmt, nil
}

func (p *Parser) convertList(list *ofxgo.TransactionList) []model.Transaction {
	if list == nil {
		return nil
	}
	out := make([]model.Transaction, 0, len(list.Transactions))
	for _, ofxTx := range list.Transactions {
		out = append(out, p.convertTransaction(ofxTx))
	}
	return out
}

// convertTransaction converts an OFX transaction to our model.
func (p *Parser) convertTransaction(ofxTx ofxgo.Transaction) model.Transaction {
	amount, err := decimal.NewFromString(ofxTx.TrnAmt.FloatString(2))
	if err != nil {
		amount = decimal.Zero
	}

	tx := model.NewTransaction(ofxTx.DtPosted.Time, p.describe(ofxTx), amount)
	tx.Reference = string(ofxTx.FiTID)
	if ofxTx.CheckNum != "" {
		tx.Reference = string(ofxTx.CheckNum)
	}
	tx.ID = tx.GenerateHash()

	return tx
}

// describe builds the transaction description from payee, name and memo.
func (p *Parser) describe(tx ofxgo.Transaction) string {
	name := strings.TrimSpace(string(tx.Name))
	if tx.Payee != nil && tx.Payee.Name != "" {
		name = strings.TrimSpace(string(tx.Payee.Name))
	}

	memo := strings.TrimSpace(string(tx.Memo))
	switch {
	case name == "":
		return memo
	case memo != "" && isGenericDescription(name):
		return memo
	case memo != "" && !strings.Contains(strings.ToUpper(name), strings.ToUpper(memo)):
		return name + " " + memo
	}
	return name
}

// isGenericDescription checks if a transaction name is too generic.
func isGenericDescription(name string) bool {
	switch strings.ToUpper(name) {
	case "DEBIT", "CREDIT", "PURCHASE", "PAYMENT", "POS TRANSACTION", "CARD PURCHASE", "TRANSFER":
		return true
	}
	return false
}

func balance(amt ofxgo.Amount) *decimal.Decimal {
	d, err := decimal.NewFromString(amt.FloatString(2))
	if err != nil {
		return nil
	}
	return &d
}

// Rows renders the statement as a table with canonical column names.
func (s *Statement) Rows() [][]string {
	rows := make([][]string, 0, len(s.Transactions)+1)
	rows = append(rows, []string{"date", "description", "amount", "reference"})
	for _, tx := range s.Transactions {
		rows = append(rows, []string{tx.DateString(), tx.Description, tx.Amount.StringFixed(2), tx.Reference})
	}
	return rows
}
