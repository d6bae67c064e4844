// Package engine wires extraction, categorization, reporting and journal
// generation into the operations the CLI exposes.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/Bhuvaneshwar-bit/Strat-MU-FinAgent-sub001/internal/classification"
	"github.com/Bhuvaneshwar-bit/Strat-MU-FinAgent-sub001/internal/common"
	"github.com/Bhuvaneshwar-bit/Strat-MU-FinAgent-sub001/internal/journal"
	"github.com/Bhuvaneshwar-bit/Strat-MU-FinAgent-sub001/internal/model"
	"github.com/Bhuvaneshwar-bit/Strat-MU-FinAgent-sub001/internal/pipeline"
	"github.com/Bhuvaneshwar-bit/Strat-MU-FinAgent-sub001/internal/report"
	"github.com/Bhuvaneshwar-bit/Strat-MU-FinAgent-sub001/internal/service"
)

// Extractor turns a document into canonical transactions.
type Extractor interface {
	Process(ctx context.Context, doc pipeline.Document) (*pipeline.Result, error)
}

// Stores groups the persistence backends. Any of them may be nil, in which
// case the matching state lives only for the duration of a call.
type Stores struct {
	Chart        service.ChartStore
	Journal      service.JournalStore
	Transactions service.TransactionStore
}

// Options configures an Engine.
type Options struct {
	Logger *slog.Logger
	// SeedChart is written to an empty chart store. Nil means the default chart.
	SeedChart *model.ChartOfAccounts
}

// Engine runs the statement pipeline end to end. It holds no per-request
// state and is safe for concurrent use.
type Engine struct {
	// chartMu serializes chart reads and account allocation so concurrent
	// batches never hand the same code to different accounts.
	chartMu sync.Mutex

	extractor   Extractor
	categorizer *classification.Categorizer
	generator   *journal.Generator
	stores      Stores
	seed        *model.ChartOfAccounts
	logger      *slog.Logger
}

// New creates an engine.
func New(extractor Extractor, categorizer *classification.Categorizer, generator *journal.Generator, stores Stores, opts Options) *Engine {
	seed := opts.SeedChart
	if seed == nil {
		seed = journal.DefaultChart()
	}
	return &Engine{
		extractor:   extractor,
		categorizer: categorizer,
		generator:   generator,
		stores:      stores,
		seed:        seed,
		logger:      common.LoggerOrDefault(opts.Logger),
	}
}

// Report is everything produced for one document.
type Report struct {
	Extraction   *pipeline.Result
	Transactions []model.CategorizedTransaction
	Summary      model.PLSummary
	Journal      *journal.Result
	Posted       int
}

// ProcessDocument extracts transactions from doc.
func (e *Engine) ProcessDocument(ctx context.Context, doc pipeline.Document) (*pipeline.Result, error) {
	res, err := e.extractor.Process(ctx, doc)
	if err != nil {
		return nil, err
	}
	e.logger.Info("Extracted transactions",
		"file", doc.Filename,
		"format", res.Format,
		"source", res.Source,
		"transactions", len(res.Transactions),
		"requires_password", res.RequiresPassword)
	return res, nil
}

// CategorizeAndAggregate classifies txs for userID and builds the P&L summary.
func (e *Engine) CategorizeAndAggregate(ctx context.Context, txs []model.Transaction, userID string) ([]model.CategorizedTransaction, model.PLSummary, error) {
	categorized, err := e.categorizer.CategorizeAll(ctx, txs, userID)
	if err != nil {
		return nil, model.PLSummary{}, err
	}
	return categorized, report.Aggregate(categorized), nil
}

// Chart returns the stored chart of accounts, seeding an empty store.
func (e *Engine) Chart(ctx context.Context) (*model.ChartOfAccounts, error) {
	e.chartMu.Lock()
	defer e.chartMu.Unlock()
	return e.chart(ctx)
}

func (e *Engine) chart(ctx context.Context) (*model.ChartOfAccounts, error) {
	if e.stores.Chart == nil {
		return e.seed.Clone(), nil
	}
	chart, err := e.stores.Chart.GetChart(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load chart of accounts: %w", err)
	}
	if len(chart.All()) > 0 {
		return chart, nil
	}
	if err := e.stores.Chart.SaveAccounts(ctx, e.seed.All()); err != nil {
		return nil, fmt.Errorf("failed to seed chart of accounts: %w", err)
	}
	e.logger.Info("Seeded chart of accounts", "accounts", len(e.seed.All()))
	return e.seed.Clone(), nil
}

// BuildJournal generates journal entries for txs and stores any accounts the
// batch had to create. Entries are not persisted; see PostJournal.
func (e *Engine) BuildJournal(ctx context.Context, txs []model.CategorizedTransaction) (*journal.Result, error) {
	e.chartMu.Lock()
	defer e.chartMu.Unlock()

	chart, err := e.chart(ctx)
	if err != nil {
		return nil, err
	}

	res, err := e.generator.Generate(ctx, txs, chart)
	if err != nil {
		return res, err
	}

	if len(res.NewAccounts) > 0 && e.stores.Chart != nil {
		if err := e.stores.Chart.SaveAccounts(ctx, res.NewAccounts); err != nil {
			return res, fmt.Errorf("failed to save new accounts: %w", err)
		}
	}
	for _, entryErr := range res.Errors {
		e.logger.Warn("Transaction skipped in journal",
			"index", entryErr.Index,
			"transaction_id", entryErr.TransactionID,
			"error", entryErr.Err)
	}
	return res, nil
}

// PostJournal persists entries.
func (e *Engine) PostJournal(ctx context.Context, entries []model.JournalEntry) error {
	if e.stores.Journal == nil {
		return fmt.Errorf("%w: journal store", common.ErrMissingConfig)
	}
	if len(entries) == 0 {
		return nil
	}
	return e.stores.Journal.SaveJournalEntries(ctx, entries)
}

// ReviewEntry moves a stored journal entry through the review workflow.
func (e *Engine) ReviewEntry(ctx context.Context, entryID string, status model.ReviewStatus) error {
	if e.stores.Journal == nil {
		return fmt.Errorf("%w: journal store", common.ErrMissingConfig)
	}
	if !status.Valid() {
		return common.NewUserError("review status must be pending, approved, rejected or flagged",
			fmt.Errorf("%w: review status %q", common.ErrInvalidConfig, status))
	}
	return e.stores.Journal.UpdateReviewStatus(ctx, entryID, status)
}

// Recategorize applies a manual category to a stored transaction and, when
// learn is set, remembers the correction as a rule for userID.
func (e *Engine) Recategorize(ctx context.Context, userID, transactionID, category string, learn bool) (*model.CategorizedTransaction, *model.CategoryRule, error) {
	if e.stores.Transactions == nil {
		return nil, nil, fmt.Errorf("%w: transaction store", common.ErrMissingConfig)
	}
	category = strings.TrimSpace(category)
	if category == "" {
		return nil, nil, common.NewUserError("a category name is required",
			fmt.Errorf("%w: empty category", common.ErrInvalidConfig))
	}

	stored, err := e.stores.Transactions.GetTransaction(ctx, userID, transactionID)
	if err != nil {
		return nil, nil, err
	}

	cls := model.Classification{
		Type:     e.sideFor(stored.Transaction, category),
		Category: category,
		Source:   model.SourceManual,
	}
	if err := e.stores.Transactions.UpdateClassification(ctx, userID, transactionID, cls); err != nil {
		return nil, nil, err
	}
	stored.Classification = cls

	if !learn {
		return stored, nil, nil
	}
	rule, err := e.categorizer.LearnRule(ctx, userID, stored.Transaction, cls)
	if err != nil {
		// The manual classification is already saved at this point.
		if errors.Is(err, common.ErrNotFound) {
			e.logger.Warn("No entity found to learn a rule from", "transaction_id", transactionID)
		}
		return stored, nil, err
	}
	e.logger.Info("Learned categorization rule",
		"user", userID,
		"entity", rule.EntityNameNormalized,
		"category", rule.Category)
	return stored, rule, nil
}

// sideFor keeps the P&L side implied by the amount sign unless the category is
// only known on the other side.
func (e *Engine) sideFor(tx model.Transaction, category string) model.CategoryType {
	side := model.CategoryTypeRevenue
	other := model.CategoryTypeExpense
	if tx.Amount.IsNegative() {
		side, other = other, side
	}
	if !containsFold(e.categorizer.Categories(side), category) && containsFold(e.categorizer.Categories(other), category) {
		return other
	}
	return side
}

func containsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}

// ProcessAndPost runs extraction, categorization, aggregation and journal
// generation for one document. Transactions are saved when a store is
// configured; journal entries are saved only when post is set.
func (e *Engine) ProcessAndPost(ctx context.Context, doc pipeline.Document, userID string, post bool) (*Report, error) {
	extraction, err := e.ProcessDocument(ctx, doc)
	if err != nil {
		return nil, err
	}
	rep := &Report{Extraction: extraction}
	if extraction.RequiresPassword || len(extraction.Transactions) == 0 {
		return rep, nil
	}

	rep.Transactions, rep.Summary, err = e.CategorizeAndAggregate(ctx, extraction.Transactions, userID)
	if err != nil {
		return rep, err
	}

	if e.stores.Transactions != nil {
		if err := e.stores.Transactions.SaveTransactions(ctx, userID, rep.Transactions); err != nil {
			return rep, fmt.Errorf("failed to save transactions: %w", err)
		}
	}

	rep.Journal, err = e.BuildJournal(ctx, rep.Transactions)
	if err != nil {
		return rep, err
	}

	if post {
		if err := e.PostJournal(ctx, rep.Journal.Entries); err != nil {
			return rep, err
		}
		rep.Posted = len(rep.Journal.Entries)
	}
	return rep, nil
}
