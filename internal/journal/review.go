package journal

import (
	"fmt"

	"github.com/Bhuvaneshwar-bit/Strat-MU-FinAgent-sub001/internal/common"
	"github.com/Bhuvaneshwar-bit/Strat-MU-FinAgent-sub001/internal/model"
)

// Approve marks an entry approved and posts it. Unbalanced entries cannot be approved.
func Approve(e *model.JournalEntry) error {
	if !e.IsBalanced {
		return fmt.Errorf("cannot approve %s: %w", e.EntryID, common.ErrJournalImbalance)
	}
	e.ReviewStatus = model.ReviewApproved
	e.Posted = true
	return nil
}

// Reject marks an entry rejected and withdraws it from the ledger.
func Reject(e *model.JournalEntry) {
	e.ReviewStatus = model.ReviewRejected
	e.Posted = false
}

// Flag sends an entry back for review with a reason.
func Flag(e *model.JournalEntry, reason string) {
	e.ReviewStatus = model.ReviewFlagged
	e.RequiresReview = true
	e.Posted = false
	if reason != "" {
		e.ReviewReasons = append(e.ReviewReasons, reason)
	}
}

// Transition applies status to e through the matching workflow step.
func Transition(e *model.JournalEntry, status model.ReviewStatus, reason string) error {
	switch status {
	case model.ReviewApproved:
		return Approve(e)
	case model.ReviewRejected:
		Reject(e)
	case model.ReviewFlagged:
		Flag(e, reason)
	case model.ReviewPending:
		e.ReviewStatus = model.ReviewPending
		e.Posted = false
	default:
		return fmt.Errorf("%w: unknown review status %q", common.ErrInvalidConfig, status)
	}
	return nil
}
