package textract

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	awstextract "github.com/aws/aws-sdk-go-v2/service/textract"
	"github.com/aws/aws-sdk-go-v2/service/textract/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Bhuvaneshwar-bit/Strat-MU-FinAgent-sub001/internal/common"
)

type fakeClient struct {
	out   *awstextract.AnalyzeDocumentOutput
	err   error
	input *awstextract.AnalyzeDocumentInput
}

func (f *fakeClient) AnalyzeDocument(_ context.Context, in *awstextract.AnalyzeDocumentInput, _ ...func(*awstextract.Options)) (*awstextract.AnalyzeDocumentOutput, error) {
	f.input = in
	return f.out, f.err
}

func word(id, text string) types.Block {
	return types.Block{Id: aws.String(id), BlockType: types.BlockTypeWord, Text: aws.String(text)}
}

func children(ids ...string) []types.Relationship {
	return []types.Relationship{{Type: types.RelationshipTypeChild, Ids: ids}}
}

func cell(id string, row, col int32, wordIDs ...string) types.Block {
	return types.Block{
		Id:            aws.String(id),
		BlockType:     types.BlockTypeCell,
		RowIndex:      aws.Int32(row),
		ColumnIndex:   aws.Int32(col),
		Relationships: children(wordIDs...),
	}
}

func line(text string, page int32, top float32) types.Block {
	return types.Block{
		BlockType: types.BlockTypeLine,
		Text:      aws.String(text),
		Page:      aws.Int32(page),
		Geometry:  &types.Geometry{BoundingBox: &types.BoundingBox{Top: top}},
	}
}

func statementBlocks() []types.Block {
	return []types.Block{
		line("02/01/2024 Office Rent -1200", 1, 0.5),
		line("Account Statement", 1, 0.1),
		{
			Id:            aws.String("t1"),
			BlockType:     types.BlockTypeTable,
			Page:          aws.Int32(1),
			Relationships: children("c11", "c12", "c21", "c22"),
		},
		cell("c11", 1, 1, "w1"),
		cell("c12", 1, 2, "w2"),
		cell("c21", 2, 1, "w3"),
		cell("c22", 2, 2, "w4", "w5"),
		word("w1", "Date"),
		word("w2", "Narration"),
		word("w3", "02/01/2024"),
		word("w4", "Office"),
		word("w5", "Rent"),
		{
			Id:            aws.String("k1"),
			BlockType:     types.BlockTypeKeyValueSet,
			EntityTypes:   []types.EntityType{types.EntityTypeKey},
			Relationships: append(children("w6", "w7"), types.Relationship{Type: types.RelationshipTypeValue, Ids: []string{"v1"}}),
		},
		{
			Id:            aws.String("v1"),
			BlockType:     types.BlockTypeKeyValueSet,
			EntityTypes:   []types.EntityType{types.EntityTypeValue},
			Relationships: children("w8"),
		},
		word("w6", "Account"),
		word("w7", "No:"),
		word("w8", "12345678"),
	}
}

func TestAnalyze(t *testing.T) {
	client := &fakeClient{out: &awstextract.AnalyzeDocumentOutput{Blocks: statementBlocks()}}
	a := NewAnalyzer(client, nil)

	got, err := a.Analyze(context.Background(), []byte("%PDF"), "application/pdf")
	require.NoError(t, err)

	assert.Equal(t, []byte("%PDF"), client.input.Document.Bytes)
	assert.ElementsMatch(t, []types.FeatureType{types.FeatureTypeTables, types.FeatureTypeForms}, client.input.FeatureTypes)

	require.Len(t, got.Lines, 2)
	assert.Equal(t, "Account Statement", got.Lines[0].Text)
	assert.Equal(t, 1, got.Lines[0].Page)

	require.Len(t, got.Tables, 1)
	assert.Equal(t, [][]string{{"Date", "Narration"}, {"02/01/2024", "Office Rent"}}, got.Tables[0].Rows)
	assert.Equal(t, "table-1", got.Tables[0].Name)

	assert.Equal(t, map[string]string{"Account No": "12345678"}, got.KeyValues)
}

func TestAnalyze_Errors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{name: "too large", err: &types.DocumentTooLargeException{Message: aws.String("big")}, want: common.ErrDocumentTooLarge},
		{name: "unsupported", err: &types.UnsupportedDocumentException{Message: aws.String("no")}, want: common.ErrUnsupportedDocument},
		{name: "bad document", err: &types.BadDocumentException{Message: aws.String("bad")}, want: common.ErrUnsupportedDocument},
		{name: "throttled", err: &types.ThrottlingException{Message: aws.String("slow")}, want: common.ErrRateLimit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := NewAnalyzer(&fakeClient{err: tt.err}, nil)
			_, err := a.Analyze(context.Background(), nil, "application/pdf")
			assert.ErrorIs(t, err, tt.want)
		})
	}

	t.Run("other errors are wrapped", func(t *testing.T) {
		boom := errors.New("network down")
		_, err := NewAnalyzer(&fakeClient{err: boom}, nil).Analyze(context.Background(), nil, "image/png")
		assert.ErrorIs(t, err, boom)
	})
}

func TestBuildTable_SkipsTablesWithoutCells(t *testing.T) {
	_, ok := buildTable(types.Block{BlockType: types.BlockTypeTable}, nil)
	assert.False(t, ok)
}
