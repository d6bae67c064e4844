package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/Bhuvaneshwar-bit/Strat-MU-FinAgent-sub001/internal/classification"
	"github.com/Bhuvaneshwar-bit/Strat-MU-FinAgent-sub001/internal/common"
	"github.com/Bhuvaneshwar-bit/Strat-MU-FinAgent-sub001/internal/config"
	"github.com/Bhuvaneshwar-bit/Strat-MU-FinAgent-sub001/internal/decrypt"
	"github.com/Bhuvaneshwar-bit/Strat-MU-FinAgent-sub001/internal/engine"
	"github.com/Bhuvaneshwar-bit/Strat-MU-FinAgent-sub001/internal/extract"
	"github.com/Bhuvaneshwar-bit/Strat-MU-FinAgent-sub001/internal/journal"
	"github.com/Bhuvaneshwar-bit/Strat-MU-FinAgent-sub001/internal/lineparse"
	"github.com/Bhuvaneshwar-bit/Strat-MU-FinAgent-sub001/internal/llm"
	"github.com/Bhuvaneshwar-bit/Strat-MU-FinAgent-sub001/internal/model"
	"github.com/Bhuvaneshwar-bit/Strat-MU-FinAgent-sub001/internal/mongostore"
	"github.com/Bhuvaneshwar-bit/Strat-MU-FinAgent-sub001/internal/normalize"
	"github.com/Bhuvaneshwar-bit/Strat-MU-FinAgent-sub001/internal/pipeline"
	"github.com/Bhuvaneshwar-bit/Strat-MU-FinAgent-sub001/internal/service"
	"github.com/Bhuvaneshwar-bit/Strat-MU-FinAgent-sub001/internal/source"
	"github.com/Bhuvaneshwar-bit/Strat-MU-FinAgent-sub001/internal/storage"
	"github.com/Bhuvaneshwar-bit/Strat-MU-FinAgent-sub001/internal/textract"
)

const dateLayout = "2006-01-02"

// app holds everything a command needs. Close releases it all.
type app struct {
	cfg     *config.Config
	db      *storage.SQLiteStorage
	rules   service.RuleStore
	engine  *engine.Engine
	loader  *source.Loader
	logger  *slog.Logger
	closers []func() error
}

type appOptions struct {
	// engine builds the extraction and categorization engine.
	engine bool
	// remote creates a Cloud Storage client for gs:// references.
	remote bool
}

func loadConfig() (*config.Config, error) {
	return config.Load(viper.GetViper())
}

func currentUser() string {
	if u := strings.TrimSpace(viper.GetString("user")); u != "" {
		return u
	}
	return "default"
}

// openStorage opens the ledger database and brings its schema up to date.
func openStorage(ctx context.Context, cfg *config.Config) (*storage.SQLiteStorage, error) {
	store, err := storage.NewSQLiteStorage(cfg.Storage.SQLitePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return store, nil
}

// openRuleStore returns the configured rule backend. With the mongo driver the
// rules live in MongoDB while everything else stays in the ledger database.
func openRuleStore(ctx context.Context, cfg *config.Config, db *storage.SQLiteStorage, logger *slog.Logger) (service.RuleStore, func() error, error) {
	if cfg.Storage.Driver != "mongo" {
		return db, nil, nil
	}

	client, err := mongostore.Connect(ctx, cfg.Storage.MongoURI, logger)
	if err != nil {
		return nil, nil, err
	}
	provider := mongostore.NewMongoProvider(client, cfg.Storage.MongoDatabase)
	closer := func() error {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return provider.Disconnect(disconnectCtx)
	}

	rules := mongostore.NewRuleStore(provider)
	if err := rules.EnsureIndexes(ctx); err != nil {
		_ = closer()
		return nil, nil, err
	}
	return rules, closer, nil
}

func newApp(ctx context.Context, opts appOptions) (a *app, err error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	a = &app{cfg: cfg, logger: slog.Default()}
	defer func() {
		if err != nil {
			_ = a.Close()
			a = nil
		}
	}()

	if a.db, err = openStorage(ctx, cfg); err != nil {
		return a, err
	}
	a.closers = append(a.closers, a.db.Close)

	rules, closeRules, err := openRuleStore(ctx, cfg, a.db, a.logger)
	if err != nil {
		return a, err
	}
	a.rules = rules
	if closeRules != nil {
		a.closers = append(a.closers, closeRules)
	}

	if !opts.engine {
		return a, nil
	}

	if a.engine, err = buildEngine(ctx, cfg, a.db, a.rules, a.logger); err != nil {
		return a, err
	}

	var objects source.ObjectOpener
	if opts.remote {
		opener, err := source.NewGCSOpener(ctx, cfg.Paths.GCSCredentialsFile)
		if err != nil {
			return a, err
		}
		a.closers = append(a.closers, opener.Close)
		objects = opener
	}
	a.loader = source.NewLoader(objects, cfg.Extraction.MaxDocumentBytes)

	return a, nil
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

func (a *app) closeLogged() {
	if err := a.Close(); err != nil {
		slog.Error("failed to close resources", "error", err)
	}
}

// buildEngine assembles the extraction pipeline, categorizer and journal
// generator from configuration.
func buildEngine(ctx context.Context, cfg *config.Config, db *storage.SQLiteStorage, rules service.RuleStore, logger *slog.Logger) (*engine.Engine, error) {
	taxonomy := classification.DefaultTaxonomy()
	if cfg.Paths.Taxonomy != "" {
		t, err := classification.LoadTaxonomy(cfg.Paths.Taxonomy)
		if err != nil {
			return nil, err
		}
		taxonomy = t
	}

	synonyms := normalize.DefaultSynonyms()
	if cfg.Paths.Synonyms != "" {
		s, err := normalize.LoadSynonyms(cfg.Paths.Synonyms)
		if err != nil {
			return nil, err
		}
		synonyms = s
	}

	var seed *model.ChartOfAccounts
	if cfg.Paths.Chart != "" {
		c, err := journal.LoadChart(cfg.Paths.Chart)
		if err != nil {
			return nil, err
		}
		seed = c
	}

	var analyzer extract.Analyzer
	if cfg.Textract.Enabled {
		a, err := textract.NewFromRegion(ctx, cfg.Textract.Region, logger)
		if err != nil {
			return nil, err
		}
		analyzer = a
	}

	ai, err := llm.New(ctx, llm.Config{
		Provider:  cfg.LLM.Provider,
		APIKey:    cfg.LLM.APIKey,
		Model:     cfg.LLM.Model,
		Timeout:   cfg.Extraction.AITimeout,
		CacheTTL:  cfg.LLM.CacheTTL,
		RateLimit: cfg.LLM.RateLimit,
	}, logger)
	if err != nil {
		return nil, err
	}

	orchestrator := pipeline.New(
		decrypt.New(nil, logger),
		extract.New(analyzer, extract.Options{
			Logger:          logger,
			AnalysisTimeout: cfg.Extraction.AnalysisTimeout,
		}),
		normalize.New(synonyms),
		lineparse.New(),
		ai,
		pipeline.Options{
			Logger:           logger,
			MinTextLines:     cfg.Extraction.MinTextLines,
			MaxDocumentBytes: cfg.Extraction.MaxDocumentBytes,
			AITimeout:        cfg.Extraction.AITimeout,
		},
	)

	categorizer, err := classification.NewCategorizer(taxonomy, rules, logger)
	if err != nil {
		return nil, err
	}

	generator := journal.NewGenerator(journal.Options{
		Logger:           logger,
		ReviewThreshold:  cfg.Journal.ReviewThreshold,
		BalanceTolerance: cfg.Journal.BalanceTolerance,
	})

	return engine.New(orchestrator, categorizer, generator, engine.Stores{
		Chart:        db,
		Journal:      db,
		Transactions: db,
	}, engine.Options{Logger: logger, SeedChart: seed}), nil
}

// parseDate accepts an empty string as "no bound".
func parseDate(flag, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, common.NewUserError(
			fmt.Sprintf("--%s must be a date like 2024-01-31", flag),
			fmt.Errorf("%w: %s=%q", common.ErrInvalidConfig, flag, value))
	}
	return t, nil
}

func formatFileSize(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(size)/float64(div), "KMGTPE"[exp])
}

func stdinIsTerminal() bool {
	fi, err := os.Stdin.Stat()
	return err == nil && fi.Mode()&os.ModeCharDevice != 0
}
