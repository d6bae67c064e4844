package extract

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/Bhuvaneshwar-bit/Strat-MU-FinAgent-sub001/internal/common"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

var csvDelimiters = []rune{',', ';', '\t', '|'}

// readCSV parses delimited text into a single table and keeps the raw lines for pattern fallback.
func readCSV(data []byte) (*Result, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if len(bytes.TrimSpace(data)) == 0 {
		return &Result{}, nil
	}

	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = sniffDelimiter(data)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.TrimLeadingSpace = true

	var rows [][]string
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: csv: %v", common.ErrUnsupportedDocument, err)
		}
		if blankRow(record) {
			continue
		}
		rows = append(rows, trimCells(record))
	}

	return &Result{
		Tables: []Table{{Name: "csv", Rows: rows, Page: 1}},
		Lines:  textLines(data),
	}, nil
}

// sniffDelimiter picks the candidate that appears most consistently in the first lines.
func sniffDelimiter(data []byte) rune {
	sample := string(data[:min(len(data), 4096)])
	lines := strings.Split(sample, "\n")
	if len(lines) > 10 {
		lines = lines[:10]
	}

	best, bestScore := ',', 0
	for _, d := range csvDelimiters {
		score := 0
		for _, line := range lines {
			score += strings.Count(line, string(d))
		}
		if score > bestScore {
			best, bestScore = d, score
		}
	}
	return best
}

func blankRow(record []string) bool {
	for _, c := range record {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func trimCells(record []string) []string {
	out := make([]string, len(record))
	for i, c := range record {
		out[i] = strings.TrimSpace(strings.ReplaceAll(c, "\u00a0", " "))
	}
	return out
}
