package ofx

import (
	"context"
	"testing"

	"github.com/aclindsa/ofxgo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Sample OFX data for testing.
const sampleBankOFX = `OFXHEADER:100
DATA:OFXSGML
VERSION:102
SECURITY:NONE
ENCODING:USASCII
CHARSET:1252
COMPRESSION:NONE
OLDFILEUID:NONE
NEWFILEUID:NONE

<OFX>
<SIGNONMSGSRSV1>
<SONRS>
<STATUS>
<CODE>0
<SEVERITY>INFO
</STATUS>
<DTSERVER>20240315120000[0:GMT]
<LANGUAGE>ENG
</SONRS>
</SIGNONMSGSRSV1>
<BANKMSGSRSV1>
<STMTTRNRS>
<TRNUID>1
<STATUS>
<CODE>0
<SEVERITY>INFO
</STATUS>
<STMTRS>
<CURDEF>USD
<BANKACCTFROM>
<BANKID>123456789
<ACCTID>1234567890
<ACCTTYPE>CHECKING
</BANKACCTFROM>
<BANKTRANLIST>
<DTSTART>20240101120000[0:GMT]
<DTEND>20240131120000[0:GMT]
<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>20240115120000[0:GMT]
<TRNAMT>-25.50
<FITID>2024011501
<NAME>STARBUCKS STORE #1234
</STMTTRN>
<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>20240120120000[0:GMT]
<TRNAMT>-125.00
<FITID>2024012001
<NAME>Whole Foods Market
</STMTTRN>
<STMTTRN>
<TRNTYPE>CHECK
<DTPOSTED>20240125120000[0:GMT]
<TRNAMT>-500.00
<FITID>2024012501
<CHECKNUM>1234
<NAME>CHECK #1234
</STMTTRN>
</BANKTRANLIST>
<LEDGERBAL>
<BALAMT>1000.00
<DTASOF>20240131120000[0:GMT]
</LEDGERBAL>
</STMTRS>
</STMTTRNRS>
</BANKMSGSRSV1>
</OFX>`

const sampleCreditCardOFX = `OFXHEADER:100
DATA:OFXSGML
VERSION:102
SECURITY:NONE
ENCODING:USASCII
CHARSET:1252
COMPRESSION:NONE
OLDFILEUID:NONE
NEWFILEUID:NONE

<OFX>
<SIGNONMSGSRSV1>
<SONRS>
<STATUS>
<CODE>0
<SEVERITY>INFO
</STATUS>
<DTSERVER>20240315120000[0:GMT]
<LANGUAGE>ENG
</SONRS>
</SIGNONMSGSRSV1>
<CREDITCARDMSGSRSV1>
<CCSTMTTRNRS>
<TRNUID>1
<STATUS>
<CODE>0
<SEVERITY>INFO
</STATUS>
<CCSTMTRS>
<CURDEF>USD
<CCACCTFROM>
<ACCTID>4111111111111111
</CCACCTFROM>
<BANKTRANLIST>
<DTSTART>20240101120000[0:GMT]
<DTEND>20240131120000[0:GMT]
<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>20240110120000[0:GMT]
<TRNAMT>-45.99
<FITID>CC2024011001
<NAME>AMAZON.COM*RT4Y7HG2
</STMTTRN>
<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>20240115120000[0:GMT]
<TRNAMT>-15.00
<FITID>CC2024011501
<NAME>NETFLIX.COM
</STMTTRN>
</BANKTRANLIST>
<LEDGERBAL>
<BALAMT>-500.00
<DTASOF>20240131120000[0:GMT]
</LEDGERBAL>
</CCSTMTRS>
</CCSTMTTRNRS>
</CREDITCARDMSGSRSV1>
</OFX>`

func TestParse(t *testing.T) {
	tests := []struct {
		name        string
		content     string
		wantAmounts []string
		wantRefs    []string
		wantBalance string
		wantCount   int
		wantErr     bool
	}{
		{
			name:        "bank statement",
			content:     sampleBankOFX,
			wantCount:   3,
			wantAmounts: []string{"-25.5", "-125", "-500"},
			wantRefs:    []string{"2024011501", "2024012001", "1234"},
			wantBalance: "1000",
		},
		{
			name:        "credit card statement",
			content:     sampleCreditCardOFX,
			wantCount:   2,
			wantAmounts: []string{"-45.99", "-15"},
			wantRefs:    []string{"CC2024011001", "CC2024011501"},
			wantBalance: "-500",
		},
		{
			name:    "invalid content",
			content: "this is not ofx",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stmt, err := NewParser().Parse(context.Background(), []byte(tt.content))
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Len(t, stmt.Transactions, tt.wantCount)

			for i, tx := range stmt.Transactions {
				assert.True(t, tx.Amount.Equal(decimal.RequireFromString(tt.wantAmounts[i])), "amount %d: %s", i, tx.Amount)
				assert.Equal(t, tt.wantRefs[i], tx.Reference)
				assert.True(t, tx.Valid())
				assert.NotEmpty(t, tx.ID)
			}
			require.NotNil(t, stmt.ClosingBalance)
			assert.True(t, stmt.ClosingBalance.Equal(decimal.RequireFromString(tt.wantBalance)))
		})
	}
}

func TestParse_TransactionFields(t *testing.T) {
	stmt, err := NewParser().Parse(context.Background(), []byte(sampleBankOFX))
	require.NoError(t, err)

	first := stmt.Transactions[0]
	assert.Equal(t, "2024-01-15", first.DateString())
	assert.Equal(t, "STARBUCKS STORE #1234", first.Description)
	assert.Equal(t, "debit", string(first.Type))
	assert.Equal(t, []string{"1234567890"}, stmt.Accounts)
}

func TestParse_Deterministic(t *testing.T) {
	p := NewParser()
	a, err := p.Parse(context.Background(), []byte(sampleBankOFX))
	require.NoError(t, err)
	b, err := p.Parse(context.Background(), []byte(sampleBankOFX))
	require.NoError(t, err)

	assert.Equal(t, a.Transactions, b.Transactions)
}

func TestPreprocessOFX(t *testing.T) {
	p := NewParser()

	got := p.preprocessOFX("\n\n  <SEVERITY>Info</SEVERITY>\n<CODE\n")
	assert.Equal(t, "<SEVERITY>INFO</SEVERITY>\n<CODE>\n", got)
}

func TestParse_ByteOrderMark(t *testing.T) {
	p := NewParser()
	assert.Equal(t, "OFXHEADER:100", p.preprocessOFX("\uFEFFOFXHEADER:100"))

	stmt, err := p.Parse(context.Background(), []byte("\uFEFF"+sampleBankOFX))
	require.NoError(t, err)
	assert.Len(t, stmt.Transactions, 3)
}

func TestDescribe(t *testing.T) {
	tests := []struct {
		name string
		tx   ofxgo.Transaction
		want string
	}{
		{name: "name only", tx: ofxgo.Transaction{Name: "Office Rent"}, want: "Office Rent"},
		{name: "generic name uses memo", tx: ofxgo.Transaction{Name: "DEBIT", Memo: "Acme Traders"}, want: "Acme Traders"},
		{name: "memo appended", tx: ofxgo.Transaction{Name: "NEFT", Memo: "INV 42"}, want: "NEFT INV 42"},
		{name: "payee preferred", tx: ofxgo.Transaction{Name: "POS 1234", Payee: &ofxgo.Payee{Name: "Cafe Coffee Day"}}, want: "Cafe Coffee Day"},
		{name: "memo only", tx: ofxgo.Transaction{Memo: "Interest credit"}, want: "Interest credit"},
	}

	p := NewParser()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, p.describe(tt.tx))
		})
	}
}

func TestStatementRows(t *testing.T) {
	stmt, err := NewParser().Parse(context.Background(), []byte(sampleBankOFX))
	require.NoError(t, err)

	rows := stmt.Rows()
	require.Len(t, rows, 4)
	assert.Equal(t, []string{"date", "description", "amount", "reference"}, rows[0])
	assert.Equal(t, []string{"2024-01-15", "STARBUCKS STORE #1234", "-25.50", "2024011501"}, rows[1])
}
