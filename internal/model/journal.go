package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// ReviewStatus tracks the human review lifecycle of a journal entry.
type ReviewStatus string

const (
	ReviewPending  ReviewStatus = "pending"
	ReviewApproved ReviewStatus = "approved"
	ReviewRejected ReviewStatus = "rejected"
	ReviewFlagged  ReviewStatus = "flagged"
)

// Valid reports whether the status is known.
func (s ReviewStatus) Valid() bool {
	switch s {
	case ReviewPending, ReviewApproved, ReviewRejected, ReviewFlagged:
		return true
	}
	return false
}

// JournalLine is one side of a double-entry posting.
type JournalLine struct {
	AccountCode string
	AccountName string
	Description string
	Amount      decimal.Decimal
}

// JournalEntry is a double-entry record derived from one categorized transaction.
// After creation only ReviewStatus (and Posted on approval) may change.
type JournalEntry struct {
	Date                time.Time
	CreatedAt           time.Time
	EntryID             string
	Description         string
	Reference           string
	SourceTransactionID string
	ReviewStatus        ReviewStatus
	Debits              []JournalLine
	Credits             []JournalLine
	ReviewReasons       []string
	TotalDebits         decimal.Decimal
	TotalCredits        decimal.Decimal
	IsBalanced          bool
	RequiresReview      bool
	Posted              bool
}

// Imbalance returns the absolute difference between debits and credits.
func (e *JournalEntry) Imbalance() decimal.Decimal {
	return e.TotalDebits.Sub(e.TotalCredits).Abs()
}

// Recompute refreshes totals from the lines and re-evaluates the balance flag.
func (e *JournalEntry) Recompute(tolerance decimal.Decimal) {
	e.TotalDebits = sumLines(e.Debits)
	e.TotalCredits = sumLines(e.Credits)
	e.IsBalanced = e.Imbalance().LessThan(tolerance)
}

func sumLines(lines []JournalLine) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Amount)
	}
	return total
}

// JournalFilter narrows journal entry queries.
type JournalFilter struct {
	Status       ReviewStatus
	Start        time.Time
	End          time.Time
	Limit        int
	ReviewNeeded bool
}
