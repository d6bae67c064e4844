// Package common provides shared utilities and types used across the application.
package common

import (
	"context"
	"errors"
	"fmt"
)

// Document errors.
var (
	ErrPasswordRequired    = errors.New("document is password protected")
	ErrIncorrectPassword   = errors.New("incorrect document password")
	ErrUnsupportedDocument = errors.New("unsupported or unreadable document")
	ErrDocumentTooLarge    = errors.New("document exceeds synchronous analysis size limit")
)

// Pipeline errors.
var (
	// ErrInsufficientExtraction signals an extraction tier produced too little to stop.
	// It never leaves the orchestrator.
	ErrInsufficientExtraction = errors.New("insufficient extraction")
	// ErrCategorizationAmbiguous is logged when categorization falls back to a default.
	ErrCategorizationAmbiguous = errors.New("categorization ambiguous")
	// ErrJournalImbalance marks an entry whose debits and credits disagree.
	ErrJournalImbalance = errors.New("journal entry debits and credits do not balance")
)

// Storage and configuration errors.
var (
	ErrNotFound       = errors.New("not found")
	ErrDuplicateEntry = errors.New("duplicate entry")
	ErrMissingConfig  = errors.New("missing configuration")
	ErrInvalidConfig  = errors.New("invalid configuration")
)

// UserError represents an error that should be shown to the user.
type UserError struct {
	Err         error
	UserMessage string
}

func (e *UserError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.UserMessage, e.Err)
	}
	return e.UserMessage
}

func (e *UserError) Unwrap() error {
	return e.Err
}

// NewUserError creates a new user-friendly error.
func NewUserError(userMessage string, err error) error {
	return &UserError{
		UserMessage: userMessage,
		Err:         err,
	}
}

// Code maps an error to a stable machine-readable code for delivery layers.
func Code(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrPasswordRequired):
		return "PASSWORD_REQUIRED"
	case errors.Is(err, ErrIncorrectPassword):
		return "INCORRECT_PASSWORD"
	case errors.Is(err, ErrUnsupportedDocument):
		return "UNSUPPORTED_DOCUMENT"
	case errors.Is(err, ErrDocumentTooLarge):
		return "DOCUMENT_TOO_LARGE"
	case errors.Is(err, ErrJournalImbalance):
		return "JOURNAL_IMBALANCE"
	case errors.Is(err, ErrNotFound):
		return "NOT_FOUND"
	case errors.Is(err, ErrDuplicateEntry):
		return "DUPLICATE_ENTRY"
	case errors.Is(err, ErrInvalidConfig), errors.Is(err, ErrMissingConfig):
		return "INVALID_CONFIG"
	case errors.Is(err, context.DeadlineExceeded):
		return "TIMEOUT"
	default:
		return "INTERNAL"
	}
}

// IsTerminal reports whether an extraction error must be surfaced to the caller
// rather than treated as an insufficient tier.
func IsTerminal(err error) bool {
	return errors.Is(err, ErrPasswordRequired) ||
		errors.Is(err, ErrIncorrectPassword) ||
		errors.Is(err, ErrUnsupportedDocument) ||
		errors.Is(err, ErrDocumentTooLarge)
}

// IsRetryable determines if an error should trigger a retry.
func IsRetryable(err error) bool {
	if errors.Is(err, ErrRateLimit) ||
		errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var retryableErr *RetryableError
	if errors.As(err, &retryableErr) {
		return retryableErr.Retryable
	}

	return false
}
