// Package normalize maps heterogeneous bank statement columns onto canonical transactions.
package normalize

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Bhuvaneshwar-bit/Strat-MU-FinAgent-sub001/internal/config"
)

// Field is a canonical transaction attribute.
type Field string

const (
	FieldDate        Field = "date"
	FieldDescription Field = "description"
	FieldDebit       Field = "debit"
	FieldCredit      Field = "credit"
	FieldAmount      Field = "amount"
	FieldType        Field = "type"
	FieldBalance     Field = "balance"
	FieldReference   Field = "reference"
)

// Fields lists the canonical fields in lookup order.
var Fields = []Field{
	FieldDate, FieldDescription, FieldDebit, FieldCredit,
	FieldAmount, FieldType, FieldBalance, FieldReference,
}

// Synonyms maps each canonical field to the header spellings that denote it.
type Synonyms map[Field][]string

// DefaultSynonyms covers the headers used by common Indian, UK and US bank exports.
func DefaultSynonyms() Synonyms {
	return Synonyms{
		FieldDate: {
			"date", "txn date", "transaction date", "tran date", "trans date",
			"value date", "posted date", "posting date", "booking date",
			"value dt", "txn dt", "date posted",
		},
		FieldDescription: {
			"description", "particulars", "narration", "details", "transaction details",
			"transaction description", "remarks", "memo", "payee", "name",
			"transaction remarks", "description/narration",
		},
		FieldDebit: {
			"debit", "debit amount", "debits", "withdrawal", "withdrawals",
			"withdrawal amt", "withdrawal amount", "paid out", "money out", "dr",
			"dr amount", "debit amt", "outflow",
		},
		FieldCredit: {
			"credit", "credit amount", "credits", "deposit", "deposits",
			"deposit amt", "deposit amount", "paid in", "money in", "cr",
			"cr amount", "credit amt", "inflow",
		},
		FieldAmount: {
			"amount", "transaction amount", "txn amount", "amt", "value",
			"amount (inr)", "amount (usd)", "amount (gbp)",
		},
		FieldType: {
			"type", "dr/cr", "cr/dr", "debit/credit", "transaction type", "txn type",
			"dr / cr",
		},
		FieldBalance: {
			"balance", "closing balance", "running balance", "available balance",
			"balance amt", "balance amount",
		},
		FieldReference: {
			"reference", "ref", "ref no", "reference no", "reference number",
			"chq./ref.no", "chq/ref no", "cheque no", "check number", "utr",
			"transaction id", "chq no",
		},
	}
}

// LoadSynonyms reads a YAML synonym file and merges it into the defaults.
// Extra spellings are appended; unknown fields are rejected.
func LoadSynonyms(path string) (Synonyms, error) {
	syn := DefaultSynonyms()
	if path == "" {
		return syn, nil
	}

	data, err := os.ReadFile(config.ExpandPath(path))
	if err != nil {
		return nil, fmt.Errorf("read synonyms: %w", err)
	}

	var extra map[Field][]string
	if err := yaml.Unmarshal(data, &extra); err != nil {
		return nil, fmt.Errorf("parse synonyms %s: %w", path, err)
	}

	for field, names := range extra {
		if _, ok := syn[field]; !ok {
			return nil, fmt.Errorf("synonyms %s: unknown field %q", path, field)
		}
		syn[field] = append(syn[field], names...)
	}
	return syn, nil
}

// index builds a lookup from normalized header to field. The first field
// claiming a spelling keeps it.
func (s Synonyms) index() map[string]Field {
	idx := make(map[string]Field)
	for _, field := range Fields {
		for _, name := range s[field] {
			key := NormalizeHeader(name)
			if _, taken := idx[key]; !taken && key != "" {
				idx[key] = field
			}
		}
	}
	return idx
}

// NormalizeHeader lowercases, trims, collapses whitespace and strips trailing punctuation.
func NormalizeHeader(h string) string {
	h = strings.ToLower(strings.Join(strings.Fields(h), " "))
	return strings.TrimRight(h, ".:;,*")
}
