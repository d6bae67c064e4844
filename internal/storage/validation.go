package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Bhuvaneshwar-bit/Strat-MU-FinAgent-sub001/internal/common"
	"github.com/Bhuvaneshwar-bit/Strat-MU-FinAgent-sub001/internal/model"
)

// Validation errors.
var (
	ErrNilContext         = errors.New("context cannot be nil")
	ErrEmptyString        = errors.New("string parameter cannot be empty")
	ErrNilParameter       = errors.New("parameter cannot be nil")
	ErrInvalidDateRange   = errors.New("start date must be before end date")
	ErrInvalidRule        = errors.New("invalid category rule")
	ErrInvalidAccount     = errors.New("invalid account")
	ErrInvalidEntry       = errors.New("invalid journal entry")
	ErrInvalidStatus      = errors.New("invalid review status")
	ErrInvalidTransaction = errors.New("invalid transaction")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

func validateRule(rule *model.CategoryRule) error {
	if rule == nil {
		return fmt.Errorf("%w: rule", ErrNilParameter)
	}
	if strings.TrimSpace(rule.UserID) == "" {
		return fmt.Errorf("%w: missing user", ErrInvalidRule)
	}
	if strings.TrimSpace(rule.EntityNameNormalized) == "" {
		return fmt.Errorf("%w: missing entity", ErrInvalidRule)
	}
	if strings.TrimSpace(rule.Category) == "" {
		return fmt.Errorf("%w: missing category", ErrInvalidRule)
	}
	if !rule.Type.Valid() {
		return fmt.Errorf("%w: type %q", ErrInvalidRule, rule.Type)
	}
	return nil
}

func validateAccount(a model.Account) error {
	if strings.TrimSpace(a.Code) == "" || strings.TrimSpace(a.Name) == "" {
		return fmt.Errorf("%w: code and name are required", ErrInvalidAccount)
	}
	for _, t := range model.AccountTypes {
		if a.Type == t {
			return nil
		}
	}
	return fmt.Errorf("%w: type %q", ErrInvalidAccount, a.Type)
}

// validateEntry enforces that an unbalanced entry is never stored as posted.
func validateEntry(e *model.JournalEntry) error {
	if strings.TrimSpace(e.EntryID) == "" {
		return fmt.Errorf("%w: missing entry ID", ErrInvalidEntry)
	}
	if e.Date.IsZero() {
		return fmt.Errorf("%w: %s has no date", ErrInvalidEntry, e.EntryID)
	}
	if !e.ReviewStatus.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, e.ReviewStatus)
	}
	if len(e.Debits) == 0 || len(e.Credits) == 0 {
		return fmt.Errorf("%w: %s needs debit and credit lines", ErrInvalidEntry, e.EntryID)
	}
	if e.Posted && !e.IsBalanced {
		return fmt.Errorf("%w: %s is posted but unbalanced: %w", ErrInvalidEntry, e.EntryID, common.ErrJournalImbalance)
	}
	return nil
}

func validateTransaction(ct *model.CategorizedTransaction) error {
	if ct.Transaction.ID == "" {
		return fmt.Errorf("%w: missing ID", ErrInvalidTransaction)
	}
	if !ct.Transaction.Valid() {
		return fmt.Errorf("%w: %s needs a date, description and non-zero amount", ErrInvalidTransaction, ct.Transaction.ID)
	}
	if !ct.Classification.Type.Valid() || strings.TrimSpace(ct.Classification.Category) == "" {
		return fmt.Errorf("%w: %s is not categorized", ErrInvalidTransaction, ct.Transaction.ID)
	}
	return nil
}
