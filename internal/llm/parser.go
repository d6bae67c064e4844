package llm

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Bhuvaneshwar-bit/Strat-MU-FinAgent-sub001/internal/model"
)

// extractionPrompt instructs every provider to answer with a bare JSON array.
const extractionPrompt = "You are a bank statement parser.\n\n" +
	"Task:\n" +
	"- Extract ALL transactions from the attached bank statement.\n" +
	"- Ignore opening balances, closing balances, totals and page headers.\n" +
	"- Output a JSON array of objects.\n\n" +
	"Each object must have these fields:\n" +
	"- \"date\": string, ISO format \"YYYY-MM-DD\"\n" +
	"- \"description\": string, the narration exactly as printed\n" +
	"- \"amount\": number, positive for money IN and negative for money OUT\n" +
	"- \"type\": \"credit\" or \"debit\"\n" +
	"- \"balance\": number or null, the running balance after the transaction\n" +
	"- \"reference\": string or null, cheque or reference number\n\n" +
	"If the statement has separate withdrawal and deposit columns, convert them to a single signed amount.\n" +
	"Return ONLY valid raw JSON. Do NOT use Markdown code fences.\n" +
	"Output must begin with \"[\" and end with \"]\".\n"

// cleanModelJSON strips Markdown fences and surrounding prose from a model reply.
func cleanModelJSON(raw string) string {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "```") {
		idx := strings.Index(s, "\n")
		if idx == -1 {
			return strings.Trim(s, "`")
		}
		s = strings.TrimSpace(s[idx+1:])
	}
	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = strings.TrimSpace(s[:idx])
	}

	if start := strings.Index(s, "["); start != -1 {
		if end := strings.LastIndex(s, "]"); end > start {
			s = s[start : end+1]
		}
	}
	return strings.TrimSpace(s)
}

// looseString accepts JSON strings, numbers and null.
type looseString string

func (l *looseString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*l = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*l = looseString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*l = looseString(n.String())
	return nil
}

type rawRecord struct {
	Date        looseString `json:"date"`
	Description looseString `json:"description"`
	Amount      looseString `json:"amount"`
	Type        looseString `json:"type"`
	Balance     looseString `json:"balance"`
	Reference   looseString `json:"reference"`
}

// parseTransactions decodes a model reply. A wrapper object with a
// "transactions" array is accepted as well as a bare array.
func parseTransactions(reply string) ([]model.RawTransaction, error) {
	clean := cleanModelJSON(reply)
	if clean == "" {
		return nil, fmt.Errorf("empty model reply")
	}

	var records []rawRecord
	if err := json.Unmarshal([]byte(clean), &records); err != nil {
		var wrapped struct {
			Transactions []rawRecord `json:"transactions"`
		}
		if werr := json.Unmarshal([]byte(strings.TrimSpace(reply)), &wrapped); werr != nil || wrapped.Transactions == nil {
			return nil, fmt.Errorf("failed to parse JSON response: %w", err)
		}
		records = wrapped.Transactions
	}

	out := make([]model.RawTransaction, 0, len(records))
	for _, r := range records {
		out = append(out, model.RawTransaction{
			Date:        strings.TrimSpace(string(r.Date)),
			Description: strings.TrimSpace(string(r.Description)),
			Amount:      strings.TrimSpace(string(r.Amount)),
			Type:        strings.TrimSpace(string(r.Type)),
			Balance:     strings.TrimSpace(string(r.Balance)),
			Reference:   strings.TrimSpace(string(r.Reference)),
		})
	}
	return out, nil
}
