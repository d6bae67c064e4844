package normalize

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Bhuvaneshwar-bit/Strat-MU-FinAgent-sub001/internal/extract"
	"github.com/Bhuvaneshwar-bit/Strat-MU-FinAgent-sub001/internal/model"
)

// headerScanRows bounds how far into a table the header row is searched for.
const headerScanRows = 30

// minHeaderFields is the number of distinct canonical fields a header row must map.
const minHeaderFields = 2

// Normalizer converts rows keyed by arbitrary column names into transactions.
type Normalizer struct {
	index map[string]Field
}

// New builds a normalizer from a synonym table.
func New(syn Synonyms) *Normalizer {
	if syn == nil {
		syn = DefaultSynonyms()
	}
	return &Normalizer{index: syn.index()}
}

// FieldFor returns the canonical field a header names.
func (n *Normalizer) FieldFor(header string) (Field, bool) {
	f, ok := n.index[NormalizeHeader(header)]
	return f, ok
}

// Normalize converts one row keyed by column header. The boolean is false for
// rows that are not valid transactions: summaries, unparseable dates, zero amounts.
func (n *Normalizer) Normalize(row map[string]string) (model.Transaction, bool) {
	headers := make([]string, 0, len(row))
	for h := range row {
		headers = append(headers, h)
	}
	sort.Strings(headers)

	record := make(map[Field]string, len(row))
	for _, header := range headers {
		value := row[header]
		field, ok := n.FieldFor(header)
		if !ok {
			continue
		}
		if existing, taken := record[field]; taken && !isBlank(existing) {
			continue
		}
		record[field] = value
	}
	return convert(record)
}

// NormalizeRaw converts a record returned by an AI extractor.
func (n *Normalizer) NormalizeRaw(raw model.RawTransaction) (model.Transaction, bool) {
	return convert(map[Field]string{
		FieldDate:        raw.Date,
		FieldDescription: raw.Description,
		FieldAmount:      raw.Amount,
		FieldType:        raw.Type,
		FieldBalance:     raw.Balance,
		FieldReference:   raw.Reference,
	})
}

// NormalizeTable locates the header row and converts every data row below it.
// Tables without a recognizable header yield nothing.
func (n *Normalizer) NormalizeTable(t extract.Table) []model.Transaction {
	headerIdx, columns := n.findHeader(t.Rows)
	if headerIdx < 0 {
		return nil
	}

	headers := make(map[Field]string, len(columns))
	for col, field := range columns {
		headers[field] = NormalizeHeader(t.Rows[headerIdx][col])
	}

	var txs []model.Transaction
	for _, row := range t.Rows[headerIdx+1:] {
		record := make(map[Field]string, len(columns))
		for col, field := range columns {
			if col < len(row) {
				record[field] = row[col]
			}
		}
		if isHeaderRepeat(record, headers) {
			continue
		}
		if tx, ok := convert(record); ok {
			txs = append(txs, tx)
		}
	}
	return txs
}

// HasHeader reports whether the table carries a recognizable header row.
func (n *Normalizer) HasHeader(t extract.Table) bool {
	idx, _ := n.findHeader(t.Rows)
	return idx >= 0
}

// findHeader returns the index of the first row mapping at least two canonical
// fields, one of which is the date, with the column-to-field assignment.
func (n *Normalizer) findHeader(rows [][]string) (int, map[int]Field) {
	for i := 0; i < len(rows) && i < headerScanRows; i++ {
		columns := make(map[int]Field)
		seen := make(map[Field]bool)
		for col, cell := range rows[i] {
			field, ok := n.FieldFor(cell)
			if !ok || seen[field] {
				continue
			}
			seen[field] = true
			columns[col] = field
		}
		if len(seen) >= minHeaderFields && seen[FieldDate] && hasMoneyField(seen) {
			return i, columns
		}
	}
	return -1, nil
}

func hasMoneyField(seen map[Field]bool) bool {
	return seen[FieldAmount] || seen[FieldDebit] || seen[FieldCredit]
}

func convert(record map[Field]string) (model.Transaction, bool) {
	description := strings.TrimSpace(record[FieldDescription])
	if IsSummaryRow(description) || IsSummaryRow(record[FieldDate]) {
		return model.Transaction{}, false
	}

	date, err := ParseDate(record[FieldDate])
	if err != nil {
		return model.Transaction{}, false
	}

	amount, ok := resolveAmount(record)
	if !ok || amount.IsZero() {
		return model.Transaction{}, false
	}

	if description == "" {
		description = strings.TrimSpace(record[FieldReference])
	}

	tx := model.NewTransaction(date, description, amount)
	tx.Reference = strings.TrimSpace(record[FieldReference])
	if b, _, err := ParseAmount(record[FieldBalance]); err == nil {
		tx.Balance = &b
	}
	tx.ID = tx.GenerateHash()
	return tx, tx.Valid()
}

// resolveAmount derives the signed amount from debit/credit columns or from a
// single amount column, using the type column when the amount carries no sign.
func resolveAmount(record map[Field]string) (decimal.Decimal, bool) {
	debitText, hasDebit := record[FieldDebit]
	creditText, hasCredit := record[FieldCredit]
	if (hasDebit && !isBlank(debitText)) || (hasCredit && !isBlank(creditText)) {
		amount := decimal.Zero
		parsed := false
		if d, _, err := ParseAmount(debitText); err == nil {
			amount = amount.Sub(d.Abs())
			parsed = true
		}
		if c, _, err := ParseAmount(creditText); err == nil {
			amount = amount.Add(c.Abs())
			parsed = true
		}
		if parsed && !amount.IsZero() {
			return amount, true
		}
	}

	amount, explicit, err := ParseAmount(record[FieldAmount])
	if err != nil {
		return decimal.Zero, false
	}
	if !explicit {
		switch typeDirection(record[FieldType]) {
		case model.TransactionTypeDebit:
			amount = amount.Abs().Neg()
		case model.TransactionTypeCredit:
			amount = amount.Abs()
		}
	}
	return amount, true
}

func typeDirection(s string) model.TransactionType {
	switch strings.ToLower(strings.TrimRight(strings.TrimSpace(s), ".")) {
	case "dr", "d", "debit", "withdrawal", "withdraw", "wd", "out", "payment", "purchase":
		return model.TransactionTypeDebit
	case "cr", "c", "credit", "deposit", "in", "receipt", "refund":
		return model.TransactionTypeCredit
	default:
		return ""
	}
}
