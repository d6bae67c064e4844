// Package extract turns document bytes into raw tables and text lines.
package extract

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/Bhuvaneshwar-bit/Strat-MU-FinAgent-sub001/internal/common"
)

// Format is a supported document format.
type Format string

const (
	FormatCSV   Format = "csv"
	FormatXLS   Format = "xls"
	FormatXLSX  Format = "xlsx"
	FormatPDF   Format = "pdf"
	FormatText  Format = "text"
	FormatImage Format = "image"
	FormatOFX   Format = "ofx"
)

var mimeFormats = map[string]Format{
	"text/csv":                 FormatCSV,
	"application/csv":          FormatCSV,
	"application/vnd.ms-excel": FormatXLS,
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet": FormatXLSX,
	"application/pdf":          FormatPDF,
	"text/plain":               FormatText,
	"image/jpeg":               FormatImage,
	"image/png":                FormatImage,
	"application/x-ofx":        FormatOFX,
	"application/vnd.intu.qfx": FormatOFX,
}

var extFormats = map[string]Format{
	".csv":  FormatCSV,
	".xls":  FormatXLS,
	".xlsx": FormatXLSX,
	".pdf":  FormatPDF,
	".txt":  FormatText,
	".jpg":  FormatImage,
	".jpeg": FormatImage,
	".png":  FormatImage,
	".ofx":  FormatOFX,
	".qfx":  FormatOFX,
}

// DetectFormat resolves the document format from its MIME type, falling back to the file extension.
func DetectFormat(mimeType, filename string) (Format, error) {
	mt := strings.ToLower(strings.TrimSpace(mimeType))
	if i := strings.Index(mt, ";"); i >= 0 {
		mt = strings.TrimSpace(mt[:i])
	}
	if f, ok := mimeFormats[mt]; ok {
		return f, nil
	}
	if f, ok := extFormats[strings.ToLower(filepath.Ext(filename))]; ok {
		return f, nil
	}
	return "", fmt.Errorf("%w: mime type %q, file %q", common.ErrUnsupportedDocument, mimeType, filename)
}

// MIMEType returns the canonical MIME type for a format.
func (f Format) MIMEType() string {
	switch f {
	case FormatCSV:
		return "text/csv"
	case FormatXLS:
		return "application/vnd.ms-excel"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatPDF:
		return "application/pdf"
	case FormatImage:
		return "image/png"
	case FormatOFX:
		return "application/x-ofx"
	default:
		return "text/plain"
	}
}

// Line is one visual line of text.
type Line struct {
	Text     string
	Page     int
	Position float64
}

// Table is a grid of cells. The header row, when present, is part of Rows.
type Table struct {
	Name string
	Rows [][]string
	Page int
}

// HasRows reports whether the table has at least one row beyond a header.
func (t Table) HasRows() bool {
	return len(t.Rows) > 1
}

// Result holds everything extracted from one document.
type Result struct {
	KeyValues map[string]string
	Tables    []Table
	Lines     []Line
	Analyzed  bool
}

// LineTexts returns the text of every line.
func (r *Result) LineTexts() []string {
	out := make([]string, 0, len(r.Lines))
	for _, l := range r.Lines {
		out = append(out, l.Text)
	}
	return out
}

// TableCount returns the number of tables that carry data rows.
func (r *Result) TableCount() int {
	n := 0
	for _, t := range r.Tables {
		if t.HasRows() {
			n++
		}
	}
	return n
}

// Analysis is the output of a document-analysis service.
type Analysis struct {
	KeyValues map[string]string
	Lines     []Line
	Tables    []Table
}

// Analyzer is an external document-analysis service returning structured text and tables.
type Analyzer interface {
	Analyze(ctx context.Context, data []byte, mimeType string) (*Analysis, error)
}
