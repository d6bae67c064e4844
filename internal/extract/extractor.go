package extract

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/Bhuvaneshwar-bit/Strat-MU-FinAgent-sub001/internal/common"
	"github.com/Bhuvaneshwar-bit/Strat-MU-FinAgent-sub001/internal/ofx"
	"github.com/Bhuvaneshwar-bit/Strat-MU-FinAgent-sub001/internal/service"
)

// Options configures an Extractor.
type Options struct {
	Logger          *slog.Logger
	AnalysisTimeout time.Duration
	RetryDelay      time.Duration
	MaxSyncBytes    int64
}

// Extractor dispatches documents to the reader for their format.
type Extractor struct {
	analyzer Analyzer
	ofx      *ofx.Parser
	logger   *slog.Logger
	opts     Options
}

// New creates an extractor. analyzer may be nil, in which case PDFs and images
// are read locally only.
func New(analyzer Analyzer, opts Options) *Extractor {
	if opts.AnalysisTimeout <= 0 {
		opts.AnalysisTimeout = 30 * time.Second
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = 500 * time.Millisecond
	}
	if opts.MaxSyncBytes <= 0 {
		opts.MaxSyncBytes = 10 * 1024 * 1024
	}
	return &Extractor{
		analyzer: analyzer,
		ofx:      ofx.NewParser(),
		logger:   common.LoggerOrDefault(opts.Logger),
		opts:     opts,
	}
}

// Extract reads tables and lines from data. Unreadable input fails with
// common.ErrUnsupportedDocument; a wrong spreadsheet password with common.ErrIncorrectPassword.
func (e *Extractor) Extract(ctx context.Context, data []byte, format Format, password string) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	switch format {
	case FormatCSV:
		return readCSV(data)
	case FormatXLSX:
		return readXLSX(data, password)
	case FormatXLS:
		return readXLS(data)
	case FormatOFX:
		return e.readOFX(ctx, data)
	case FormatText:
		return &Result{Lines: textLines(data)}, nil
	case FormatPDF:
		return e.readPDF(ctx, data)
	case FormatImage:
		return e.readImage(ctx, data)
	default:
		return nil, fmt.Errorf("%w: format %q", common.ErrUnsupportedDocument, format)
	}
}

func (e *Extractor) readOFX(ctx context.Context, data []byte) (*Result, error) {
	stmt, err := e.ofx.Parse(ctx, data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrUnsupportedDocument, err)
	}
	return &Result{Tables: []Table{{Name: "statement", Rows: stmt.Rows()}}}, nil
}

func (e *Extractor) readPDF(ctx context.Context, data []byte) (*Result, error) {
	if e.analyzer != nil {
		res, err := e.analyze(ctx, data, FormatPDF.MIMEType())
		if err == nil {
			if len(res.Lines) > 0 || len(res.Tables) > 0 {
				return res, nil
			}
		} else if errors.Is(err, common.ErrDocumentTooLarge) {
			return nil, err
		} else {
			e.logger.Warn("Document analysis failed, using local text extraction", "error", err)
		}
	}

	lines, err := readPDFLines(data)
	if err != nil {
		return nil, err
	}
	return &Result{Lines: lines}, nil
}

func (e *Extractor) readImage(ctx context.Context, data []byte) (*Result, error) {
	if e.analyzer == nil {
		e.logger.Debug("No document analyzer configured, image text is not read locally")
		return &Result{}, nil
	}
	res, err := e.analyze(ctx, data, http.DetectContentType(data))
	if err != nil {
		if errors.Is(err, common.ErrDocumentTooLarge) {
			return nil, err
		}
		e.logger.Warn("Image analysis failed", "error", err)
		return &Result{}, nil
	}
	return res, nil
}

// analyze calls the analyzer with a bounded timeout and at most one retry.
func (e *Extractor) analyze(ctx context.Context, data []byte, mimeType string) (*Result, error) {
	if int64(len(data)) > e.opts.MaxSyncBytes {
		return nil, fmt.Errorf("%w: %d bytes", common.ErrDocumentTooLarge, len(data))
	}

	var analysis *Analysis
	err := common.WithRetry(ctx, func(ctx context.Context) error {
		a, err := e.analyzer.Analyze(ctx, data, mimeType)
		if err != nil {
			if common.IsTerminal(err) {
				return common.Permanent(err)
			}
			return err
		}
		analysis = a
		return nil
	}, service.RetryOptions{
		MaxAttempts:    2,
		InitialDelay:   e.opts.RetryDelay,
		MaxDelay:       e.opts.RetryDelay,
		AttemptTimeout: e.opts.AnalysisTimeout,
	})
	if err != nil {
		return nil, err
	}

	return &Result{
		Tables:    analysis.Tables,
		Lines:     analysis.Lines,
		KeyValues: analysis.KeyValues,
		Analyzed:  true,
	}, nil
}

// textLines splits raw text into non-blank lines.
func textLines(data []byte) []Line {
	var lines []Line
	scanner := bufio.NewScanner(bytes.NewReader(bytes.TrimPrefix(data, utf8BOM)))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for n := 0; scanner.Scan(); n++ {
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		lines = append(lines, Line{Text: text, Page: 1, Position: float64(n)})
	}
	return lines
}
