// Package textract adapts AWS Textract document analysis to the extract.Analyzer interface.
package textract

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	awstextract "github.com/aws/aws-sdk-go-v2/service/textract"
	"github.com/aws/aws-sdk-go-v2/service/textract/types"

	"github.com/Bhuvaneshwar-bit/Strat-MU-FinAgent-sub001/internal/common"
	"github.com/Bhuvaneshwar-bit/Strat-MU-FinAgent-sub001/internal/extract"
)

// Client is the subset of the Textract API used here.
type Client interface {
	AnalyzeDocument(ctx context.Context, params *awstextract.AnalyzeDocumentInput, optFns ...func(*awstextract.Options)) (*awstextract.AnalyzeDocumentOutput, error)
}

// Analyzer runs synchronous table and form analysis.
type Analyzer struct {
	client Client
	logger *slog.Logger
}

// NewAnalyzer wraps an existing client.
func NewAnalyzer(client Client, logger *slog.Logger) *Analyzer {
	return &Analyzer{client: client, logger: common.LoggerOrDefault(logger)}
}

// NewFromRegion loads the default AWS credential chain for region and builds an analyzer.
func NewFromRegion(ctx context.Context, region string, logger *slog.Logger) (*Analyzer, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}
	return NewAnalyzer(awstextract.NewFromConfig(cfg), logger), nil
}

// Analyze sends the document bytes to Textract and converts the returned blocks.
func (a *Analyzer) Analyze(ctx context.Context, data []byte, mimeType string) (*extract.Analysis, error) {
	out, err := a.client.AnalyzeDocument(ctx, &awstextract.AnalyzeDocumentInput{
		Document:     &types.Document{Bytes: data},
		FeatureTypes: []types.FeatureType{types.FeatureTypeTables, types.FeatureTypeForms},
	})
	if err != nil {
		return nil, classifyError(err)
	}

	analysis := convertBlocks(out.Blocks)
	a.logger.Debug("Textract analysis complete",
		"mime_type", mimeType,
		"blocks", len(out.Blocks),
		"lines", len(analysis.Lines),
		"tables", len(analysis.Tables))
	return analysis, nil
}

func classifyError(err error) error {
	var (
		tooLarge    *types.DocumentTooLargeException
		unsupported *types.UnsupportedDocumentException
		bad         *types.BadDocumentException
		throttled   *types.ThrottlingException
		throughput  *types.ProvisionedThroughputExceededException
	)
	switch {
	case errors.As(err, &tooLarge):
		return fmt.Errorf("%w: %v", common.ErrDocumentTooLarge, err)
	case errors.As(err, &unsupported), errors.As(err, &bad):
		return fmt.Errorf("%w: %v", common.ErrUnsupportedDocument, err)
	case errors.As(err, &throttled), errors.As(err, &throughput):
		return fmt.Errorf("%w: %v", common.ErrRateLimit, err)
	default:
		return fmt.Errorf("textract analyze: %w", err)
	}
}

func convertBlocks(blocks []types.Block) *extract.Analysis {
	byID := make(map[string]types.Block, len(blocks))
	for _, b := range blocks {
		if b.Id != nil {
			byID[*b.Id] = b
		}
	}

	analysis := &extract.Analysis{KeyValues: map[string]string{}}
	for _, b := range blocks {
		switch b.BlockType {
		case types.BlockTypeLine:
			text := strings.TrimSpace(aws.ToString(b.Text))
			if text == "" {
				continue
			}
			analysis.Lines = append(analysis.Lines, extract.Line{
				Text:     text,
				Page:     int(aws.ToInt32(b.Page)),
				Position: top(b),
			})
		case types.BlockTypeTable:
			if t, ok := buildTable(b, byID); ok {
				t.Name = fmt.Sprintf("table-%d", len(analysis.Tables)+1)
				analysis.Tables = append(analysis.Tables, t)
			}
		case types.BlockTypeKeyValueSet:
			if !isKey(b) {
				continue
			}
			key := strings.TrimSuffix(childText(b, byID), ":")
			if key == "" {
				continue
			}
			analysis.KeyValues[strings.TrimSpace(key)] = valueText(b, byID)
		}
	}

	sort.SliceStable(analysis.Lines, func(i, j int) bool {
		if analysis.Lines[i].Page != analysis.Lines[j].Page {
			return analysis.Lines[i].Page < analysis.Lines[j].Page
		}
		return analysis.Lines[i].Position < analysis.Lines[j].Position
	})
	return analysis
}

func buildTable(table types.Block, byID map[string]types.Block) (extract.Table, bool) {
	type cell struct {
		row, col int
		text     string
	}
	var cells []cell
	rows, cols := 0, 0
	for _, id := range relatedIDs(table, types.RelationshipTypeChild) {
		c, ok := byID[id]
		if !ok || c.BlockType != types.BlockTypeCell {
			continue
		}
		r, k := int(aws.ToInt32(c.RowIndex)), int(aws.ToInt32(c.ColumnIndex))
		if r <= 0 || k <= 0 {
			continue
		}
		cells = append(cells, cell{row: r, col: k, text: childText(c, byID)})
		rows, cols = max(rows, r), max(cols, k)
	}
	if rows == 0 {
		return extract.Table{}, false
	}

	grid := make([][]string, rows)
	for i := range grid {
		grid[i] = make([]string, cols)
	}
	for _, c := range cells {
		grid[c.row-1][c.col-1] = c.text
	}
	return extract.Table{Rows: grid, Page: int(aws.ToInt32(table.Page))}, true
}

func isKey(b types.Block) bool {
	for _, e := range b.EntityTypes {
		if e == types.EntityTypeKey {
			return true
		}
	}
	return false
}

func valueText(key types.Block, byID map[string]types.Block) string {
	var parts []string
	for _, id := range relatedIDs(key, types.RelationshipTypeValue) {
		if v, ok := byID[id]; ok {
			if t := childText(v, byID); t != "" {
				parts = append(parts, t)
			}
		}
	}
	return strings.Join(parts, " ")
}

// childText joins the WORD children of a block.
func childText(b types.Block, byID map[string]types.Block) string {
	var words []string
	for _, id := range relatedIDs(b, types.RelationshipTypeChild) {
		w, ok := byID[id]
		if !ok || w.BlockType != types.BlockTypeWord {
			continue
		}
		if t := strings.TrimSpace(aws.ToString(w.Text)); t != "" {
			words = append(words, t)
		}
	}
	return strings.Join(words, " ")
}

func relatedIDs(b types.Block, rel types.RelationshipType) []string {
	var ids []string
	for _, r := range b.Relationships {
		if r.Type == rel {
			ids = append(ids, r.Ids...)
		}
	}
	return ids
}

func top(b types.Block) float64 {
	if b.Geometry == nil || b.Geometry.BoundingBox == nil {
		return 0
	}
	return float64(b.Geometry.BoundingBox.Top)
}
