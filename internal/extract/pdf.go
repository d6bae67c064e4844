package extract

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/dslipak/pdf"

	"github.com/Bhuvaneshwar-bit/Strat-MU-FinAgent-sub001/internal/common"
)

// readPDFLines reconstructs visual lines from the glyphs of each page's content stream.
func readPDFLines(data []byte) (lines []Line, err error) {
	defer func() {
		if r := recover(); r != nil {
			lines, err = nil, fmt.Errorf("%w: pdf content: %v", common.ErrUnsupportedDocument, r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: pdf: %v", common.ErrUnsupportedDocument, err)
	}

	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		lines = append(lines, pageLines(page.Content().Text, i)...)
	}

	return lines, nil
}

// pageLines groups glyphs sharing a baseline, orders them left to right and
// inserts a space wherever the gap to the previous glyph is wider than half its width.
func pageLines(glyphs []pdf.Text, page int) []Line {
	var lines []Line
	for _, row := range baselineRows(glyphs) {
		if text := joinGlyphs(row); text != "" {
			lines = append(lines, Line{Text: text, Page: page, Position: row[0].Y})
		}
	}
	return lines
}

// baselineRows buckets glyphs top to bottom. A glyph joins the current row
// while it lies within the tolerance of the row's first glyph; each row is
// then ordered by X.
func baselineRows(glyphs []pdf.Text) [][]pdf.Text {
	if len(glyphs) == 0 {
		return nil
	}

	sorted := append([]pdf.Text(nil), glyphs...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Y > sorted[j].Y })

	var rows [][]pdf.Text
	var row []pdf.Text
	for _, g := range sorted {
		if len(row) > 0 && row[0].Y-g.Y > baselineTolerance(row[0]) {
			rows = append(rows, row)
			row = nil
		}
		row = append(row, g)
	}
	rows = append(rows, row)

	for _, r := range rows {
		sort.SliceStable(r, func(i, j int) bool { return r[i].X < r[j].X })
	}
	return rows
}

func baselineTolerance(t pdf.Text) float64 {
	if t.FontSize > 0 {
		return t.FontSize * 0.4
	}
	return 2
}

func joinGlyphs(row []pdf.Text) string {
	var b strings.Builder
	for i, g := range row {
		if i > 0 {
			prev := row[i-1]
			gap := g.X - (prev.X + prev.W)
			width := prev.W
			if width <= 0 {
				width = prev.FontSize * 0.5
			}
			if gap > width*0.5 {
				b.WriteByte(' ')
			}
		}
		b.WriteString(g.S)
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
