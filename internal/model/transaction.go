package model

import (
	"crypto/sha256"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the canonical output format for transaction dates.
const DateLayout = "2006-01-02"

// TransactionType records the direction of money relative to the account.
type TransactionType string

const (
	// TransactionTypeDebit is money leaving the account.
	TransactionTypeDebit TransactionType = "debit"
	// TransactionTypeCredit is money entering the account.
	TransactionTypeCredit TransactionType = "credit"
)

// Transaction is a single normalized bank statement line.
// Amount is signed: negative values are money out.
type Transaction struct {
	Date        time.Time
	Balance     *decimal.Decimal
	ID          string
	Description string
	Reference   string
	Type        TransactionType
	Amount      decimal.Decimal
}

// NewTransaction builds a transaction with its type derived from the amount sign
// and a stable ID.
func NewTransaction(date time.Time, description string, amount decimal.Decimal) Transaction {
	tx := Transaction{
		Date:        time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC),
		Description: strings.Join(strings.Fields(description), " "),
		Amount:      amount,
	}
	tx.Type = TypeForAmount(amount)
	tx.ID = tx.GenerateHash()
	return tx
}

// TypeForAmount returns debit for negative amounts and credit otherwise.
func TypeForAmount(amount decimal.Decimal) TransactionType {
	if amount.IsNegative() {
		return TransactionTypeDebit
	}
	return TransactionTypeCredit
}

// Valid reports whether the transaction has a date, a description and a non-zero amount.
func (t Transaction) Valid() bool {
	return !t.Date.IsZero() && strings.TrimSpace(t.Description) != "" && !t.Amount.IsZero()
}

// DateString returns the ISO formatted date.
func (t Transaction) DateString() string {
	return t.Date.Format(DateLayout)
}

// AbsAmount returns the unsigned amount.
func (t Transaction) AbsAmount() decimal.Decimal {
	return t.Amount.Abs()
}

// GenerateHash creates a deterministic identifier from the transaction content.
// The running balance, when the statement has one, tells apart identical
// lines posted on the same day.
func (t *Transaction) GenerateHash() string {
	balance := ""
	if t.Balance != nil {
		balance = t.Balance.StringFixed(2)
	}
	data := fmt.Sprintf("%s:%s:%s:%s:%s",
		t.Date.Format(DateLayout),
		t.Amount.StringFixed(2),
		strings.ToLower(t.Description),
		t.Reference,
		balance)
	return shortHash(data)
}

func shortHash(data string) string {
	hash := sha256.Sum256([]byte(data))
	return fmt.Sprintf("%x", hash[:12])
}

// DisambiguateIDs gives repeated IDs within one statement distinct values.
// The first occurrence keeps its ID; the n-th repeat is rehashed with its
// occurrence number, so the same statement always yields the same IDs.
func DisambiguateIDs(txs []Transaction) {
	seen := make(map[string]int, len(txs))
	for i := range txs {
		id := txs[i].ID
		seen[id]++
		if n := seen[id]; n > 1 {
			txs[i].ID = shortHash(fmt.Sprintf("%s#%d", id, n))
		}
	}
}

// RawTransaction is an unnormalized record as returned by an AI extractor.
type RawTransaction struct {
	Date        string `json:"date"`
	Description string `json:"description"`
	Amount      string `json:"amount"`
	Type        string `json:"type,omitempty"`
	Balance     string `json:"balance,omitempty"`
	Reference   string `json:"reference,omitempty"`
}
