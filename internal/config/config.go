package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"github.com/Bhuvaneshwar-bit/Strat-MU-FinAgent-sub001/internal/common"
)

// Config holds every tunable used by the pipeline.
type Config struct {
	Storage    StorageConfig
	LLM        LLMConfig
	Textract   TextractConfig
	Extraction ExtractionConfig
	Journal    JournalConfig
	Paths      PathsConfig
}

// ExtractionConfig controls the extraction orchestrator.
type ExtractionConfig struct {
	MinTextLines     int
	MaxDocumentBytes int64
	AnalysisTimeout  time.Duration
	AITimeout        time.Duration
}

// JournalConfig controls journal generation.
type JournalConfig struct {
	ReviewThreshold  decimal.Decimal
	BalanceTolerance decimal.Decimal
}

// StorageConfig selects and configures the persistence backend.
type StorageConfig struct {
	Driver        string
	SQLitePath    string
	MongoURI      string
	MongoDatabase string
}

// LLMConfig configures the AI extraction fallback.
type LLMConfig struct {
	Provider  string
	APIKey    string
	Model     string
	CacheTTL  time.Duration
	RateLimit int
}

// TextractConfig configures the document-analysis service.
type TextractConfig struct {
	Region  string
	Enabled bool
}

// PathsConfig points at optional override files.
type PathsConfig struct {
	Taxonomy           string
	Synonyms           string
	Chart              string
	GCSCredentialsFile string
}

// Default values.
const (
	DefaultMinTextLines     = 50
	DefaultMaxDocumentBytes = 10 * 1024 * 1024
	DefaultAnalysisTimeout  = 30 * time.Second
	DefaultAITimeout        = 90 * time.Second
)

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		Extraction: ExtractionConfig{
			MinTextLines:     DefaultMinTextLines,
			MaxDocumentBytes: DefaultMaxDocumentBytes,
			AnalysisTimeout:  DefaultAnalysisTimeout,
			AITimeout:        DefaultAITimeout,
		},
		Journal: JournalConfig{
			ReviewThreshold:  decimal.NewFromInt(10000),
			BalanceTolerance: decimal.NewFromFloat(0.01),
		},
		Storage: StorageConfig{
			Driver:        "sqlite",
			SQLitePath:    ExpandPath("~/.config/finagent/finagent.db"),
			MongoDatabase: "finagent",
		},
		LLM: LLMConfig{Provider: "none", CacheTTL: time.Hour, RateLimit: 30},
	}
}

// SetDefaults registers defaults on a viper instance so flags and env vars can override them.
func SetDefaults(v *viper.Viper) {
	d := Defaults()
	v.SetDefault("extraction.min_text_lines", d.Extraction.MinTextLines)
	v.SetDefault("extraction.max_document_bytes", d.Extraction.MaxDocumentBytes)
	v.SetDefault("extraction.analysis_timeout", d.Extraction.AnalysisTimeout)
	v.SetDefault("extraction.ai_timeout", d.Extraction.AITimeout)
	v.SetDefault("journal.review_threshold", d.Journal.ReviewThreshold.String())
	v.SetDefault("journal.balance_tolerance", d.Journal.BalanceTolerance.String())
	v.SetDefault("storage.driver", d.Storage.Driver)
	v.SetDefault("storage.sqlite_path", "~/.config/finagent/finagent.db")
	v.SetDefault("storage.mongo_database", d.Storage.MongoDatabase)
	v.SetDefault("llm.provider", d.LLM.Provider)
	v.SetDefault("llm.cache_ttl", d.LLM.CacheTTL)
	v.SetDefault("llm.rate_limit", d.LLM.RateLimit)
	v.SetDefault("textract.enabled", false)
}

// Load reads configuration from viper.
// It follows this precedence:
// 1. Viper configuration (config file, FINAGENT_ env vars, bound flags)
// 2. Provider environment variables (GEMINI_API_KEY, ANTHROPIC_API_KEY, OPENAI_API_KEY, AWS_REGION, GOOGLE_APPLICATION_CREDENTIALS)
// 3. Default values
func Load(v *viper.Viper) (*Config, error) {
	SetDefaults(v)
	cfg := Defaults()

	cfg.Extraction.MinTextLines = v.GetInt("extraction.min_text_lines")
	cfg.Extraction.MaxDocumentBytes = v.GetInt64("extraction.max_document_bytes")
	cfg.Extraction.AnalysisTimeout = v.GetDuration("extraction.analysis_timeout")
	cfg.Extraction.AITimeout = v.GetDuration("extraction.ai_timeout")

	var err error
	if cfg.Journal.ReviewThreshold, err = decimal.NewFromString(v.GetString("journal.review_threshold")); err != nil {
		return nil, fmt.Errorf("%w: journal.review_threshold: %v", common.ErrInvalidConfig, err)
	}
	if cfg.Journal.BalanceTolerance, err = decimal.NewFromString(v.GetString("journal.balance_tolerance")); err != nil {
		return nil, fmt.Errorf("%w: journal.balance_tolerance: %v", common.ErrInvalidConfig, err)
	}

	cfg.Storage.Driver = strings.ToLower(v.GetString("storage.driver"))
	cfg.Storage.SQLitePath = ExpandPath(v.GetString("storage.sqlite_path"))
	cfg.Storage.MongoURI = v.GetString("storage.mongo_uri")
	cfg.Storage.MongoDatabase = v.GetString("storage.mongo_database")

	cfg.LLM.Provider = strings.ToLower(v.GetString("llm.provider"))
	cfg.LLM.APIKey = v.GetString("llm.api_key")
	cfg.LLM.Model = v.GetString("llm.model")
	cfg.LLM.CacheTTL = v.GetDuration("llm.cache_ttl")
	cfg.LLM.RateLimit = v.GetInt("llm.rate_limit")

	cfg.Textract.Enabled = v.GetBool("textract.enabled")
	cfg.Textract.Region = v.GetString("textract.region")

	cfg.Paths.Taxonomy = ExpandPath(v.GetString("taxonomy.path"))
	cfg.Paths.Synonyms = ExpandPath(v.GetString("synonyms.path"))
	cfg.Paths.Chart = ExpandPath(v.GetString("chart.path"))
	cfg.Paths.GCSCredentialsFile = ExpandPath(v.GetString("gcs.credentials_file"))

	if cfg.LLM.APIKey == "" {
		switch cfg.LLM.Provider {
		case "gemini":
			cfg.LLM.APIKey = os.Getenv("GEMINI_API_KEY")
		case "anthropic":
			cfg.LLM.APIKey = os.Getenv("ANTHROPIC_API_KEY")
		case "openai":
			cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
		}
	}
	if cfg.Textract.Region == "" {
		cfg.Textract.Region = os.Getenv("AWS_REGION")
	}
	if cfg.Paths.GCSCredentialsFile == "" {
		cfg.Paths.GCSCredentialsFile = os.Getenv("GOOGLE_APPLICATION_CREDENTIALS")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate rejects configurations the pipeline cannot run with.
func (c *Config) Validate() error {
	switch {
	case c.Extraction.MinTextLines <= 0:
		return fmt.Errorf("%w: extraction.min_text_lines must be positive", common.ErrInvalidConfig)
	case c.Extraction.MaxDocumentBytes <= 0:
		return fmt.Errorf("%w: extraction.max_document_bytes must be positive", common.ErrInvalidConfig)
	case c.Extraction.AnalysisTimeout <= 0 || c.Extraction.AITimeout <= 0:
		return fmt.Errorf("%w: extraction timeouts must be positive", common.ErrInvalidConfig)
	case !c.Journal.ReviewThreshold.IsPositive():
		return fmt.Errorf("%w: journal.review_threshold must be positive", common.ErrInvalidConfig)
	case !c.Journal.BalanceTolerance.IsPositive():
		return fmt.Errorf("%w: journal.balance_tolerance must be positive", common.ErrInvalidConfig)
	}

	switch c.Storage.Driver {
	case "sqlite":
		if c.Storage.SQLitePath == "" {
			return fmt.Errorf("%w: storage.sqlite_path", common.ErrMissingConfig)
		}
	case "mongo":
		if c.Storage.MongoURI == "" {
			return fmt.Errorf("%w: storage.mongo_uri", common.ErrMissingConfig)
		}
	default:
		return fmt.Errorf("%w: unknown storage driver %q", common.ErrInvalidConfig, c.Storage.Driver)
	}

	switch c.LLM.Provider {
	case "none", "":
	case "gemini", "anthropic", "openai":
		if c.LLM.APIKey == "" {
			return fmt.Errorf("%w: llm.api_key for provider %s", common.ErrMissingConfig, c.LLM.Provider)
		}
	default:
		return fmt.Errorf("%w: unknown llm provider %q", common.ErrInvalidConfig, c.LLM.Provider)
	}

	return nil
}
