package journal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Bhuvaneshwar-bit/Strat-MU-FinAgent-sub001/internal/common"
	"github.com/Bhuvaneshwar-bit/Strat-MU-FinAgent-sub001/internal/model"
)

// Options configures a Generator.
type Options struct {
	Logger           *slog.Logger
	ReviewThreshold  decimal.Decimal
	BalanceTolerance decimal.Decimal
}

// EntryError records why one transaction produced no journal entry.
type EntryError struct {
	Err           error
	TransactionID string
	Description   string
	Index         int
}

func (e *EntryError) Error() string {
	return fmt.Sprintf("transaction %d (%s): %v", e.Index, e.Description, e.Err)
}

func (e *EntryError) Unwrap() error {
	return e.Err
}

// Result is the outcome of one generation batch.
type Result struct {
	Chart       *model.ChartOfAccounts
	BatchID     string
	Entries     []model.JournalEntry
	Errors      []EntryError
	NewAccounts []model.Account
}

// Entry construction errors.
var (
	ErrZeroAmount      = errors.New("amount is zero")
	ErrMissingDate     = errors.New("transaction has no date")
	ErrMissingCategory = errors.New("transaction has no category")
)

type lineBuilder func(ct model.CategorizedTransaction, cash, counter model.Account) (debits, credits []model.JournalLine)

// Generator builds journal entries. It holds no per-batch state and is safe
// for concurrent use.
type Generator struct {
	logger     *slog.Logger
	now        func() time.Time
	newBatchID func() string
	build      lineBuilder
	threshold  decimal.Decimal
	tolerance  decimal.Decimal
}

// NewGenerator creates a generator. Zero thresholds fall back to 10,000 for
// review and 0.01 for balance tolerance.
func NewGenerator(opts Options) *Generator {
	if !opts.ReviewThreshold.IsPositive() {
		opts.ReviewThreshold = decimal.NewFromInt(10000)
	}
	if !opts.BalanceTolerance.IsPositive() {
		opts.BalanceTolerance = decimal.NewFromFloat(0.01)
	}
	return &Generator{
		logger:     common.LoggerOrDefault(opts.Logger),
		now:        time.Now,
		newBatchID: func() string { return strings.ToUpper(uuid.NewString()[:8]) },
		build:      doubleEntryLines,
		threshold:  opts.ReviewThreshold,
		tolerance:  opts.BalanceTolerance,
	}
}

// Generate converts txs into journal entries against a copy of chart.
// Accounts missing from the chart are added to the copy, which is returned
// in the result. A failing transaction is recorded in Errors and the batch
// continues.
func (g *Generator) Generate(ctx context.Context, txs []model.CategorizedTransaction, chart *model.ChartOfAccounts) (*Result, error) {
	if chart == nil {
		chart = DefaultChart()
	}

	res := &Result{
		Chart:   chart.Clone(),
		BatchID: g.newBatchID(),
		Entries: make([]model.JournalEntry, 0, len(txs)),
	}

	cash, ok := res.Chart.FindByCode(CashAccountCode)
	if !ok {
		cash = model.Account{Code: CashAccountCode, Name: CashAccountName, Type: model.AccountTypeAsset}
		res.Chart.Add(cash)
		res.NewAccounts = append(res.NewAccounts, cash)
	}

	for i, ct := range txs {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		entry, err := g.entryFor(res, i, ct, cash)
		if err != nil {
			res.Errors = append(res.Errors, EntryError{
				Index:         i,
				TransactionID: ct.Transaction.ID,
				Description:   ct.Transaction.Description,
				Err:           err,
			})
			g.logger.Warn("Skipping transaction in journal batch",
				"index", i,
				"description", ct.Transaction.Description,
				"error", err)
			continue
		}
		res.Entries = append(res.Entries, entry)
	}

	g.logger.Info("Journal batch generated",
		"batch", res.BatchID,
		"entries", len(res.Entries),
		"errors", len(res.Errors),
		"new_accounts", len(res.NewAccounts))
	return res, nil
}

// entryFor builds one entry, converting panics into errors.
func (g *Generator) entryFor(res *Result, index int, ct model.CategorizedTransaction, cash model.Account) (entry model.JournalEntry, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("entry construction panicked: %v", r)
		}
	}()

	tx := ct.Transaction
	switch {
	case tx.Amount.IsZero():
		return entry, ErrZeroAmount
	case tx.Date.IsZero():
		return entry, ErrMissingDate
	case strings.TrimSpace(ct.Classification.Category) == "":
		return entry, ErrMissingCategory
	case !ct.Classification.Type.Valid():
		return entry, fmt.Errorf("unknown category type %q", ct.Classification.Type)
	}

	bucket := model.AccountTypeExpense
	if ct.Classification.Type == model.CategoryTypeRevenue {
		bucket = model.AccountTypeRevenue
	}
	counter, added, err := ensureAccount(res.Chart, bucket, strings.TrimSpace(ct.Classification.Category))
	if err != nil {
		return entry, err
	}
	if added {
		res.NewAccounts = append(res.NewAccounts, counter)
		g.logger.Info("Added account to chart",
			"code", counter.Code,
			"name", counter.Name,
			"type", counter.Type)
	}

	debits, credits := g.build(ct, cash, counter)
	entry = model.JournalEntry{
		EntryID:             fmt.Sprintf("JE-%s-%04d", res.BatchID, index+1),
		Date:                tx.Date,
		Description:         tx.Description,
		Reference:           tx.Reference,
		SourceTransactionID: tx.ID,
		Debits:              debits,
		Credits:             credits,
		ReviewStatus:        model.ReviewApproved,
		CreatedAt:           g.now().UTC(),
	}
	entry.Recompute(g.tolerance)

	if !entry.IsBalanced {
		entry.RequiresReview = true
		entry.ReviewStatus = model.ReviewFlagged
		entry.ReviewReasons = append(entry.ReviewReasons,
			fmt.Sprintf("%v: debits %s, credits %s", common.ErrJournalImbalance, entry.TotalDebits.StringFixed(2), entry.TotalCredits.StringFixed(2)))
	}
	if tx.AbsAmount().GreaterThan(g.threshold) {
		entry.RequiresReview = true
		if entry.ReviewStatus != model.ReviewFlagged {
			entry.ReviewStatus = model.ReviewPending
		}
		entry.ReviewReasons = append(entry.ReviewReasons,
			fmt.Sprintf("amount %s exceeds review threshold %s", tx.AbsAmount().StringFixed(2), g.threshold.StringFixed(2)))
	}
	entry.Posted = entry.IsBalanced && !entry.RequiresReview

	return entry, nil
}

// doubleEntryLines debits cash and credits the revenue account for inflows,
// and debits the expense account and credits cash for outflows.
func doubleEntryLines(ct model.CategorizedTransaction, cash, counter model.Account) (debits, credits []model.JournalLine) {
	amount := ct.Transaction.AbsAmount()
	desc := ct.Transaction.Description

	cashLine := model.JournalLine{AccountCode: cash.Code, AccountName: cash.Name, Amount: amount, Description: desc}
	counterLine := model.JournalLine{AccountCode: counter.Code, AccountName: counter.Name, Amount: amount, Description: desc}

	if ct.Classification.Type == model.CategoryTypeRevenue {
		return []model.JournalLine{cashLine}, []model.JournalLine{counterLine}
	}
	return []model.JournalLine{counterLine}, []model.JournalLine{cashLine}
}
