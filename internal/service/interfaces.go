// Package service defines the contracts shared between the pipeline stages and their stores.
package service

import (
	"context"
	"time"

	"github.com/Bhuvaneshwar-bit/Strat-MU-FinAgent-sub001/internal/model"
)

// RuleStore persists per-user categorization rules.
type RuleStore interface {
	// GetRules returns a user's rules ordered by creation.
	GetRules(ctx context.Context, userID string) ([]model.CategoryRule, error)
	// UpsertRule creates or replaces the rule keyed by (user, entity).
	UpsertRule(ctx context.Context, rule *model.CategoryRule) error
	// IncrementRuleUsage bumps TimesApplied for the rule keyed by (user, entity).
	IncrementRuleUsage(ctx context.Context, userID, entity string) error
	// DeleteRule removes a rule. Rules are only ever deleted on explicit request.
	DeleteRule(ctx context.Context, userID, entity string) error
}

// ChartStore persists the chart of accounts.
type ChartStore interface {
	GetChart(ctx context.Context) (*model.ChartOfAccounts, error)
	SaveAccounts(ctx context.Context, accounts []model.Account) error
}

// JournalStore persists generated journal entries.
type JournalStore interface {
	SaveJournalEntries(ctx context.Context, entries []model.JournalEntry) error
	GetJournalEntries(ctx context.Context, filter model.JournalFilter) ([]model.JournalEntry, error)
	GetJournalEntry(ctx context.Context, entryID string) (*model.JournalEntry, error)
	UpdateReviewStatus(ctx context.Context, entryID string, status model.ReviewStatus) error
}

// TransactionStore persists processed transactions with their classification.
type TransactionStore interface {
	SaveTransactions(ctx context.Context, userID string, txs []model.CategorizedTransaction) error
	GetTransaction(ctx context.Context, userID, id string) (*model.CategorizedTransaction, error)
	ListTransactions(ctx context.Context, filter model.TransactionFilter) ([]model.CategorizedTransaction, error)
	UpdateClassification(ctx context.Context, userID, id string, cls model.Classification) error
}

// Storage combines every persistence concern backed by one database.
type Storage interface {
	RuleStore
	ChartStore
	JournalStore
	TransactionStore
	Migrate(ctx context.Context) error
	Close() error
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts    int
	InitialDelay   time.Duration
	MaxDelay       time.Duration
	Multiplier     float64
	AttemptTimeout time.Duration
}
