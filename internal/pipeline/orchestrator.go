// Package pipeline runs the tiered extraction of transactions from a statement document.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Bhuvaneshwar-bit/Strat-MU-FinAgent-sub001/internal/common"
	"github.com/Bhuvaneshwar-bit/Strat-MU-FinAgent-sub001/internal/decrypt"
	"github.com/Bhuvaneshwar-bit/Strat-MU-FinAgent-sub001/internal/extract"
	"github.com/Bhuvaneshwar-bit/Strat-MU-FinAgent-sub001/internal/lineparse"
	"github.com/Bhuvaneshwar-bit/Strat-MU-FinAgent-sub001/internal/llm"
	"github.com/Bhuvaneshwar-bit/Strat-MU-FinAgent-sub001/internal/model"
	"github.com/Bhuvaneshwar-bit/Strat-MU-FinAgent-sub001/internal/normalize"
	"github.com/Bhuvaneshwar-bit/Strat-MU-FinAgent-sub001/internal/service"
)

// Decrypter removes document passwords.
type Decrypter interface {
	Decrypt(ctx context.Context, data []byte, password string) (*decrypt.Result, error)
}

// TextExtractor reads tables and lines from document bytes.
type TextExtractor interface {
	Extract(ctx context.Context, data []byte, format extract.Format, password string) (*extract.Result, error)
}

// Options configures an Orchestrator.
type Options struct {
	Logger           *slog.Logger
	MinTextLines     int
	MaxDocumentBytes int64
	AITimeout        time.Duration
	RetryDelay       time.Duration
}

// Document is one statement to process.
type Document struct {
	Data     []byte
	MIMEType string
	Filename string
	Password string
}

// Attempt records what one tier produced.
type Attempt struct {
	Tier         Tier
	Err          string
	Lines        int
	Tables       int
	Transactions int
	Sufficient   bool
}

// Result is the outcome of processing a document.
type Result struct {
	Source           Tier
	Format           extract.Format
	Diagnostic       string
	Transactions     []model.Transaction
	Attempts         []Attempt
	RequiresPassword bool
	WasEncrypted     bool
}

// Orchestrator drives a document through decryption, extraction and the
// table, text-pattern and AI tiers until one of them is sufficient.
type Orchestrator struct {
	decryptor  Decrypter
	extractor  TextExtractor
	normalizer *normalize.Normalizer
	lines      *lineparse.Parser
	ai         llm.Extractor
	logger     *slog.Logger
	opts       Options
}

// New creates an orchestrator. ai may be nil, which disables the AI tier.
func New(decryptor Decrypter, extractor TextExtractor, normalizer *normalize.Normalizer, lines *lineparse.Parser, ai llm.Extractor, opts Options) *Orchestrator {
	if opts.MinTextLines <= 0 {
		opts.MinTextLines = 50
	}
	if opts.MaxDocumentBytes <= 0 {
		opts.MaxDocumentBytes = 10 * 1024 * 1024
	}
	if opts.AITimeout <= 0 {
		opts.AITimeout = 90 * time.Second
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = time.Second
	}
	if normalizer == nil {
		normalizer = normalize.New(nil)
	}
	if lines == nil {
		lines = lineparse.New()
	}
	return &Orchestrator{
		decryptor:  decryptor,
		extractor:  extractor,
		normalizer: normalizer,
		lines:      lines,
		ai:         ai,
		logger:     common.LoggerOrDefault(opts.Logger),
		opts:       opts,
	}
}

// run carries the state shared between tiers of one Process call.
type run struct {
	doc       Document
	format    extract.Format
	extracted *extract.Result
	best      []model.Transaction
	bestTier  Tier
	attempts  []Attempt
}

// Process extracts transactions from doc.
//
// A protected document without a password returns RequiresPassword with no
// error. Wrong passwords, unreadable documents and oversized documents fail.
// Otherwise the best available output is returned, possibly empty.
func (o *Orchestrator) Process(ctx context.Context, doc Document) (*Result, error) {
	if int64(len(doc.Data)) > o.opts.MaxDocumentBytes {
		return nil, fmt.Errorf("%w: %d bytes exceeds limit of %d", common.ErrDocumentTooLarge, len(doc.Data), o.opts.MaxDocumentBytes)
	}

	format, err := extract.DetectFormat(doc.MIMEType, doc.Filename)
	if err != nil {
		return nil, err
	}

	result := &Result{Format: format, Source: TierNone}
	data := doc.Data
	if format == extract.FormatPDF && o.decryptor != nil {
		dec, err := o.decryptor.Decrypt(ctx, data, doc.Password)
		if errors.Is(err, common.ErrPasswordRequired) {
			return passwordRequired(result), nil
		}
		if err != nil {
			return nil, err
		}
		data = dec.Data
		result.WasEncrypted = dec.WasEncrypted
	}

	extracted, err := o.extractor.Extract(ctx, data, format, doc.Password)
	if errors.Is(err, common.ErrPasswordRequired) {
		return passwordRequired(result), nil
	}
	if err != nil {
		return nil, err
	}

	r := &run{
		doc:       Document{Data: data, MIMEType: format.MIMEType(), Filename: doc.Filename},
		format:    format,
		extracted: extracted,
		bestTier:  TierNone,
	}
	if format == extract.FormatImage && doc.MIMEType != "" {
		r.doc.MIMEType = doc.MIMEType
	}

	for tier := TierTable; tier != TierNone; tier = tier.next() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if o.runTier(ctx, tier, r) {
			break
		}
	}

	model.DisambiguateIDs(r.best)
	result.Transactions = r.best
	result.Source = r.bestTier
	result.Attempts = r.attempts
	if last := len(r.attempts) - 1; last < 0 || !r.attempts[last].Sufficient || r.attempts[last].Tier != r.bestTier {
		result.Diagnostic = bestEffortDiagnostic(r)
		o.logger.Info("Returning best-effort extraction",
			"file", doc.Filename,
			"source", result.Source,
			"transactions", len(result.Transactions))
	}
	return result, nil
}

// runTier executes one tier, keeps its output when it beats the best so far
// and reports whether the tier was sufficient.
func (o *Orchestrator) runTier(ctx context.Context, tier Tier, r *run) bool {
	var (
		txs []model.Transaction
		err error
	)
	stats := Stats{Lines: len(r.extracted.Lines), Tables: r.extracted.TableCount()}

	switch tier {
	case TierTable:
		txs = o.tableTransactions(r.extracted.Tables)
	case TierText:
		txs = o.lines.Parse(r.extracted.LineTexts())
	case TierAI:
		txs, err = o.aiTransactions(ctx, r)
	}
	stats.Transactions = len(txs)

	attempt := Attempt{
		Tier:         tier,
		Lines:        stats.Lines,
		Tables:       stats.Tables,
		Transactions: stats.Transactions,
		Sufficient:   err == nil && Sufficient(tier, stats, o.opts.MinTextLines),
	}
	if err != nil {
		attempt.Err = err.Error()
		o.logger.Warn("Extraction tier failed", "tier", tier, "file", r.doc.Filename, "error", err)
	}
	r.attempts = append(r.attempts, attempt)

	if len(txs) > len(r.best) {
		r.best, r.bestTier = txs, tier
	}

	o.logger.Debug("Extraction tier finished",
		"tier", tier,
		"lines", stats.Lines,
		"tables", stats.Tables,
		"transactions", stats.Transactions,
		"sufficient", attempt.Sufficient)

	return attempt.Sufficient
}

func (o *Orchestrator) tableTransactions(tables []extract.Table) []model.Transaction {
	var txs []model.Transaction
	for _, t := range tables {
		txs = append(txs, o.normalizer.NormalizeTable(t)...)
	}
	return txs
}

var errAIUnavailable = errors.New("AI extraction not configured")

// aiTransactions asks the AI extractor for the document's transactions with a
// bounded timeout and at most one retry.
func (o *Orchestrator) aiTransactions(ctx context.Context, r *run) ([]model.Transaction, error) {
	if o.ai == nil {
		return nil, errAIUnavailable
	}
	if r.format != extract.FormatPDF && r.format != extract.FormatImage {
		return nil, fmt.Errorf("%w: AI extraction does not read %s documents", common.ErrInsufficientExtraction, r.format)
	}

	var raw []model.RawTransaction
	err := common.WithRetry(ctx, func(ctx context.Context) error {
		out, err := o.ai.ExtractTransactions(ctx, r.doc.Data, r.doc.MIMEType)
		if err != nil {
			return err
		}
		raw = out
		return nil
	}, service.RetryOptions{
		MaxAttempts:    2,
		InitialDelay:   o.opts.RetryDelay,
		MaxDelay:       o.opts.RetryDelay,
		AttemptTimeout: o.opts.AITimeout,
	})
	if err != nil {
		return nil, err
	}

	txs := make([]model.Transaction, 0, len(raw))
	for _, rt := range raw {
		if tx, ok := o.normalizer.NormalizeRaw(rt); ok {
			txs = append(txs, tx)
		}
	}
	return txs, nil
}

func passwordRequired(result *Result) *Result {
	result.RequiresPassword = true
	result.WasEncrypted = true
	result.Source = TierNone
	result.Transactions = nil
	return result
}

func bestEffortDiagnostic(r *run) string {
	if n := len(r.attempts); n > 0 && r.attempts[n-1].Sufficient && r.attempts[n-1].Tier != r.bestTier {
		last := r.attempts[n-1]
		return fmt.Sprintf("%s tier found %d transactions; keeping %d from the %s tier",
			last.Tier, last.Transactions, len(r.best), r.bestTier)
	}
	if len(r.best) == 0 {
		return fmt.Sprintf("%v: no transactions found after %d extraction attempts", common.ErrInsufficientExtraction, len(r.attempts))
	}
	return fmt.Sprintf("%v: returning %d transactions from the %s tier", common.ErrInsufficientExtraction, len(r.best), r.bestTier)
}
