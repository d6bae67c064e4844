package lineparse

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLine(t *testing.T) {
	tests := []struct {
		name        string
		line        string
		wantOK      bool
		wantDate    time.Time
		wantDesc    string
		wantAmount  string
		wantBalance string
	}{
		{
			name:       "debit suffix",
			line:       "02/01/2024 Office Rent 1,200.00 Dr",
			wantOK:     true,
			wantDate:   time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
			wantDesc:   "Office Rent",
			wantAmount: "-1200",
		},
		{
			name:        "credit suffix with running balance",
			line:        "01/01/2024 UPI/P2M/123/Acme Traders/Sale 5,000.00 Cr 15,000.00",
			wantOK:      true,
			wantDate:    time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			wantDesc:    "UPI/P2M/123/Acme Traders/Sale",
			wantAmount:  "5000",
			wantBalance: "15000",
		},
		{
			name:       "iso date and leading minus",
			line:       "2024-03-15 AWS subscription -99.99",
			wantOK:     true,
			wantDate:   time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
			wantDesc:   "AWS subscription",
			wantAmount: "-99.99",
		},
		{
			name:       "month name date unsigned defaults to debit",
			line:       "05 Feb 2024   Swiggy order   450.00",
			wantOK:     true,
			wantDate:   time.Date(2024, 2, 5, 0, 0, 0, 0, time.UTC),
			wantDesc:   "Swiggy order",
			wantAmount: "-450",
		},
		{
			name:       "amount without thousands separator",
			line:       "10-04-2024 Client payment 50000.00 Cr",
			wantOK:     true,
			wantDate:   time.Date(2024, 4, 10, 0, 0, 0, 0, time.UTC),
			wantDesc:   "Client payment",
			wantAmount: "50000",
		},
		{name: "no amount", line: "02/01/2024 Office Rent", wantOK: false},
		{name: "no date", line: "Office Rent 1,200.00 Dr", wantOK: false},
		{name: "integer is not an amount", line: "02/01/2024 Invoice 1200", wantOK: false},
		{name: "summary row", line: "31/01/2024 Total Dr/Cr 1,200.00 5,000.00", wantOK: false},
		{name: "opening balance", line: "01/01/2024 Opening Balance 10,000.00", wantOK: false},
		{name: "blank", line: "   ", wantOK: false},
	}

	p := New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx, ok := p.ParseLine(tt.line)
			require.Equal(t, tt.wantOK, ok)
			if !ok {
				return
			}
			assert.Equal(t, tt.wantDate, tx.Date)
			assert.Equal(t, tt.wantDesc, tx.Description)
			assert.True(t, decimal.RequireFromString(tt.wantAmount).Equal(tx.Amount), "amount %s", tx.Amount)
			if tt.wantBalance == "" {
				assert.Nil(t, tx.Balance)
			} else {
				require.NotNil(t, tx.Balance)
				assert.True(t, decimal.RequireFromString(tt.wantBalance).Equal(*tx.Balance))
			}
		})
	}
}

func TestParse_KeepsLineOrder(t *testing.T) {
	lines := []string{
		"Account Statement for January",
		"02/01/2024 Office Rent 1,200.00 Dr",
		"Page 1 of 2",
		"01/01/2024 Customer receipt 5,000.00 Cr",
	}

	txs := New().Parse(lines)
	require.Len(t, txs, 2)
	assert.Equal(t, "Office Rent", txs[0].Description)
	assert.Equal(t, "Customer receipt", txs[1].Description)
	assert.Equal(t, txs, New().Parse(lines))
}

func TestParse_DefaultCredit(t *testing.T) {
	p := &Parser{DefaultDebit: false}
	tx, ok := p.ParseLine("02/01/2024 Refund 100.00")
	require.True(t, ok)
	assert.True(t, decimal.NewFromInt(100).Equal(tx.Amount))
}
