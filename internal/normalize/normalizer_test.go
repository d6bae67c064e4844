package normalize

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Bhuvaneshwar-bit/Strat-MU-FinAgent-sub001/internal/extract"
	"github.com/Bhuvaneshwar-bit/Strat-MU-FinAgent-sub001/internal/model"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in       string
		want     string
		explicit bool
		wantErr  bool
	}{
		{in: "5000", want: "5000"},
		{in: "-1200", want: "-1200", explicit: true},
		{in: "1,200.50", want: "1200.5"},
		{in: "1,00,000.00", want: "100000"},
		{in: "₹ 2,500.00", want: "2500"},
		{in: "Rs. 750", want: "750"},
		{in: "INR 99.99", want: "99.99"},
		{in: "$12.30", want: "12.3"},
		{in: "£1,000", want: "1000"},
		{in: "(450.00)", want: "-450", explicit: true},
		{in: "450.00-", want: "-450", explicit: true},
		{in: "1,200.00 Dr", want: "-1200", explicit: true},
		{in: "1,200.00Cr", want: "1200", explicit: true},
		{in: "300.00 (Dr)", want: "-300", explicit: true},
		{in: "1.234,56", want: "1234.56"},
		{in: "100,00", want: "100"},
		{in: "+15", want: "15", explicit: true},
		{in: "", wantErr: true},
		{in: "-", wantErr: true},
		{in: "abc", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, explicit, err := ParseAmount(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, decimal.RequireFromString(tt.want).Equal(got), "got %s", got)
			assert.Equal(t, tt.explicit, explicit)
		})
	}
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Time
		wantErr bool
	}{
		{in: "2024-01-01", want: date(2024, 1, 1)},
		{in: "02/01/2024", want: date(2024, 1, 2)},
		{in: "2/1/2024", want: date(2024, 1, 2)},
		{in: "15-03-2024", want: date(2024, 3, 15)},
		{in: "15.03.2024", want: date(2024, 3, 15)},
		{in: "15/03/24", want: date(2024, 3, 15)},
		{in: "12/25/2024", want: date(2024, 12, 25)},
		{in: "05 Feb 2024", want: date(2024, 2, 5)},
		{in: "05-FEB-2024", want: date(2024, 2, 5)},
		{in: "05-Feb-24", want: date(2024, 2, 5)},
		{in: "Feb 5, 2024", want: date(2024, 2, 5)},
		{in: "2024/02/05", want: date(2024, 2, 5)},
		{in: "2024-02-05T10:30:00Z", want: date(2024, 2, 5)},
		{in: "45292", want: date(2024, 1, 1)},
		{in: "5000", wantErr: true},
		{in: "", wantErr: true},
		{in: "Opening Balance", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDate(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIsSummaryRow(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{"Total Dr/Cr", true},
		{"TOTAL", true},
		{"Grand Total", true},
		{"Opening Balance", true},
		{"Closing Bal", true},
		{"Balance B/F", true},
		{"Balance c/f", true},
		{"B/F", true},
		{"Brought Forward", true},
		{"Carried Fwd", true},
		{"Total Withdrawals", true},
		{"UPI/P2M/123/Acme Traders/Sale", false},
		{"Office Rent", false},
		{"Balance transfer to savings", false},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, IsSummaryRow(tt.text))
		})
	}
}

func TestNormalizeTable_SignedAmountColumn(t *testing.T) {
	n := New(nil)
	table := extract.Table{Rows: [][]string{
		{"date", "description", "amount"},
		{"2024-01-01", "UPI/P2M/123/Acme Traders/Sale", "5000"},
		{"2024-01-02", "Office Rent", "-1200"},
	}}

	txs := n.NormalizeTable(table)
	require.Len(t, txs, 2)

	assert.Equal(t, "2024-01-01", txs[0].DateString())
	assert.Equal(t, "UPI/P2M/123/Acme Traders/Sale", txs[0].Description)
	assert.True(t, decimal.NewFromInt(5000).Equal(txs[0].Amount))
	assert.Equal(t, model.TransactionTypeCredit, txs[0].Type)

	assert.True(t, decimal.NewFromInt(-1200).Equal(txs[1].Amount))
	assert.Equal(t, model.TransactionTypeDebit, txs[1].Type)
	assert.NotEqual(t, txs[0].ID, txs[1].ID)
}

func TestNormalizeTable_DebitCreditColumnsWithPreamble(t *testing.T) {
	n := New(nil)
	table := extract.Table{Rows: [][]string{
		{"HDFC BANK LTD", "", "", "", "", ""},
		{"Statement of account", "", "", "", "", ""},
		{"Date", "Narration", "Chq./Ref.No.", "Withdrawal Amt.", "Deposit Amt.", "Closing Balance"},
		{"01/04/24", "Opening Balance", "", "", "", "10,000.00"},
		{"02/04/24", "NEFT-ACME CORP-SALARY", "N123", "", "50,000.00", "60,000.00"},
		{"03/04/24", "POS AMAZON", "", "1,499.00", "", "58,501.00"},
		{"Date", "Narration", "Chq./Ref.No.", "Withdrawal Amt.", "Deposit Amt.", "Closing Balance"},
		{"", "Total Dr/Cr", "", "1,499.00", "50,000.00", ""},
	}}

	txs := n.NormalizeTable(table)
	require.Len(t, txs, 2)

	assert.Equal(t, date(2024, 4, 2), txs[0].Date)
	assert.True(t, decimal.NewFromInt(50000).Equal(txs[0].Amount))
	assert.Equal(t, "N123", txs[0].Reference)
	require.NotNil(t, txs[0].Balance)
	assert.True(t, decimal.NewFromInt(60000).Equal(*txs[0].Balance))

	assert.True(t, decimal.NewFromInt(-1499).Equal(txs[1].Amount))
	assert.Equal(t, model.TransactionTypeDebit, txs[1].Type)
}

func TestNormalizeTable_TypeColumn(t *testing.T) {
	n := New(nil)
	txs := n.NormalizeTable(extract.Table{Rows: [][]string{
		{"Value Date", "Particulars", "Amount", "Dr/Cr"},
		{"05-Feb-2024", "Electricity Bill", "2,300.00", "DR"},
		{"06-Feb-2024", "Customer payment", "8,000.00", "CR"},
	}})

	require.Len(t, txs, 2)
	assert.True(t, decimal.NewFromInt(-2300).Equal(txs[0].Amount))
	assert.True(t, decimal.NewFromInt(8000).Equal(txs[1].Amount))
}

func TestNormalizeTable_SummaryRowsFiltered(t *testing.T) {
	n := New(nil)
	txs := n.NormalizeTable(extract.Table{Rows: [][]string{
		{"date", "description", "amount"},
		{"2024-01-01", "UPI/P2M/123/Acme Traders/Sale", "5000"},
		{"2024-01-31", "Total Dr/Cr", "3800"},
		{"2024-01-31", "Closing Balance", "3800"},
	}})

	require.Len(t, txs, 1)
	assert.Equal(t, "UPI/P2M/123/Acme Traders/Sale", txs[0].Description)
}

func TestNormalizeTable_NoHeader(t *testing.T) {
	n := New(nil)
	assert.Empty(t, n.NormalizeTable(extract.Table{Rows: [][]string{
		{"foo", "bar"},
		{"1", "2"},
	}}))
	assert.False(t, n.HasHeader(extract.Table{}))
}

func TestNormalize_Row(t *testing.T) {
	n := New(nil)

	tx, ok := n.Normalize(map[string]string{
		"Txn Date":    "02/01/2024",
		"Description": "Office Rent",
		"Debit":       "1,200.00",
		"Credit":      "",
		"Unrelated":   "x",
	})
	require.True(t, ok)
	assert.Equal(t, date(2024, 1, 2), tx.Date)
	assert.True(t, decimal.NewFromInt(-1200).Equal(tx.Amount))

	_, ok = n.Normalize(map[string]string{"Date": "2024-01-01", "Description": "Nothing", "Amount": "0"})
	assert.False(t, ok)

	_, ok = n.Normalize(map[string]string{"Date": "not a date", "Description": "Rent", "Amount": "10"})
	assert.False(t, ok)
}

func TestNormalizeRaw(t *testing.T) {
	n := New(nil)
	tx, ok := n.NormalizeRaw(model.RawTransaction{
		Date:        "15/03/2024",
		Description: "  AWS   invoice ",
		Amount:      "1,250.75",
		Type:        "debit",
		Reference:   "INV-9",
	})
	require.True(t, ok)
	assert.Equal(t, "AWS invoice", tx.Description)
	assert.True(t, decimal.RequireFromString("-1250.75").Equal(tx.Amount))
	assert.Equal(t, "INV-9", tx.Reference)
}

func TestNormalize_Deterministic(t *testing.T) {
	n := New(nil)
	table := extract.Table{Rows: [][]string{
		{"date", "description", "amount"},
		{"2024-01-01", "Sale", "5000"},
		{"2024-01-02", "Rent", "-1200"},
	}}
	assert.Equal(t, n.NormalizeTable(table), n.NormalizeTable(table))
}

func TestLoadSynonyms(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "synonyms.yaml")
	require.NoError(t, os.WriteFile(path, []byte("date:\n  - buchungstag\ndescription:\n  - verwendungszweck\namount:\n  - betrag\n"), 0o600))

	syn, err := LoadSynonyms(path)
	require.NoError(t, err)

	n := New(syn)
	txs := n.NormalizeTable(extract.Table{Rows: [][]string{
		{"Buchungstag", "Verwendungszweck", "Betrag"},
		{"01.02.2024", "Miete", "-900,00"},
	}})
	require.Len(t, txs, 1)
	assert.True(t, decimal.NewFromInt(-900).Equal(txs[0].Amount))

	_, err = LoadSynonyms(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("colour:\n  - x\n"), 0o600))
	_, err = LoadSynonyms(bad)
	assert.Error(t, err)

	def, err := LoadSynonyms("")
	require.NoError(t, err)
	assert.Equal(t, DefaultSynonyms(), def)
}
