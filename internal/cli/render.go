package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/shopspring/decimal"

	"github.com/Bhuvaneshwar-bit/Strat-MU-FinAgent-sub001/internal/model"
	"github.com/Bhuvaneshwar-bit/Strat-MU-FinAgent-sub001/internal/pipeline"
)

const dateLayout = "2006-01-02"

// FormatMoney renders an amount with two decimals.
func FormatMoney(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// table wraps a tabwriter and remembers the first write error.
type table struct {
	w   *tabwriter.Writer
	err error
}

func newTable(w io.Writer) *table {
	return &table{w: tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)}
}

func (t *table) header(cols ...string) {
	styled := make([]string, len(cols))
	rules := make([]string, len(cols))
	for i, c := range cols {
		styled[i] = HeaderStyle.Render(c)
		rules[i] = strings.Repeat("─", max(len(c), 4))
	}
	t.row(styled...)
	t.row(rules...)
}

func (t *table) row(cols ...string) {
	if t.err != nil {
		return
	}
	_, t.err = fmt.Fprintln(t.w, strings.Join(cols, "\t"))
}

func (t *table) flush() error {
	if t.err != nil {
		return fmt.Errorf("failed to write table: %w", t.err)
	}
	if err := t.w.Flush(); err != nil {
		return fmt.Errorf("failed to flush table writer: %w", err)
	}
	return nil
}

// RenderExtraction prints how a document was extracted, one line per tier tried.
func RenderExtraction(w io.Writer, filename string, res *pipeline.Result) error {
	if _, err := fmt.Fprintln(w, FormatTitle(filename)); err != nil {
		return err
	}
	t := newTable(w)
	t.header("Tier", "Lines", "Tables", "Transactions", "Result")
	for _, a := range res.Attempts {
		outcome := SuccessStyle.Render("sufficient")
		switch {
		case a.Err != "":
			outcome = ErrorStyle.Render(a.Err)
		case !a.Sufficient:
			outcome = WarningStyle.Render("insufficient")
		}
		t.row(string(a.Tier),
			fmt.Sprintf("%d", a.Lines),
			fmt.Sprintf("%d", a.Tables),
			fmt.Sprintf("%d", a.Transactions),
			outcome)
	}
	if err := t.flush(); err != nil {
		return err
	}
	if res.Diagnostic != "" {
		_, err := fmt.Fprintln(w, SubtleStyle.Render(res.Diagnostic))
		return err
	}
	return nil
}

// RenderTransactions prints categorized transactions.
func RenderTransactions(w io.Writer, txs []model.CategorizedTransaction) error {
	if len(txs) == 0 {
		_, err := fmt.Fprintln(w, InfoStyle.Render("No transactions found."))
		return err
	}
	t := newTable(w)
	t.header("ID", "Date", "Description", "Amount", "Category", "Source")
	for _, ct := range txs {
		amount := FormatMoney(ct.Transaction.Amount)
		if ct.Transaction.Amount.IsNegative() {
			amount = ErrorStyle.Render(amount)
		}
		t.row(ct.Transaction.ID,
			ct.Transaction.DateString(),
			truncate(ct.Transaction.Description, 40),
			amount,
			ct.Classification.Category,
			string(ct.Classification.Source))
	}
	return t.flush()
}

// RenderSummary prints a profit and loss statement.
func RenderSummary(w io.Writer, s model.PLSummary) error {
	var b strings.Builder
	if !s.PeriodStart.IsZero() {
		fmt.Fprintf(&b, "%s to %s, %d transactions\n\n",
			s.PeriodStart.Format(dateLayout), s.PeriodEnd.Format(dateLayout), s.TransactionCount)
	}

	section := func(title string, totals []model.CategoryTotal, total decimal.Decimal) {
		b.WriteString(BoldStyle.Render(title) + "\n")
		t := newTable(&b)
		for _, ct := range totals {
			t.row("  "+ct.Category, FormatMoney(ct.Amount), ct.Percentage.StringFixed(1)+"%", fmt.Sprintf("(%d)", ct.Count))
		}
		t.row("  "+BoldStyle.Render("Total"), BoldStyle.Render(FormatMoney(total)))
		_ = t.flush()
		b.WriteString("\n")
	}
	section("Revenue", s.Revenue, s.TotalRevenue)
	section("Expenses", s.Expenses, s.TotalExpenses)

	net := FormatMoney(s.NetIncome)
	if s.NetIncome.IsNegative() {
		net = ErrorStyle.Render(net)
	} else {
		net = SuccessStyle.Render(net)
	}
	fmt.Fprintf(&b, "%s %s   %s %s%%",
		BoldStyle.Render("Net income:"), net,
		BoldStyle.Render("Margin:"), s.NetProfitMargin.StringFixed(1))

	_, err := fmt.Fprintln(w, RenderBox(ChartIcon+" Profit & Loss", b.String()))
	return err
}

// RenderJournal prints journal entries with their lines.
func RenderJournal(w io.Writer, entries []model.JournalEntry) error {
	if len(entries) == 0 {
		_, err := fmt.Fprintln(w, InfoStyle.Render("No journal entries found."))
		return err
	}
	t := newTable(w)
	t.header("Entry", "Date", "Account", "Debit", "Credit", "Status")
	for _, e := range entries {
		status := string(e.ReviewStatus)
		switch {
		case e.Posted:
			status = SuccessStyle.Render(status + " (posted)")
		case e.RequiresReview:
			status = WarningStyle.Render(status + " (review)")
		}
		t.row(e.EntryID, e.Date.Format(dateLayout), BoldStyle.Render(truncate(e.Description, 40)), "", "", status)
		for _, l := range e.Debits {
			t.row("", "", "  "+l.AccountCode+" "+l.AccountName, FormatMoney(l.Amount), "", "")
		}
		for _, l := range e.Credits {
			t.row("", "", "    "+l.AccountCode+" "+l.AccountName, "", FormatMoney(l.Amount), "")
		}
		for _, r := range e.ReviewReasons {
			t.row("", "", SubtleStyle.Render("  ! "+r), "", "", "")
		}
	}
	return t.flush()
}

// RenderRules prints a user's categorization rules.
func RenderRules(w io.Writer, rules []model.CategoryRule) error {
	if len(rules) == 0 {
		_, err := fmt.Fprintln(w, InfoStyle.Render("No rules found. Use 'finagent recategorize --learn' or 'finagent rules add' to create one."))
		return err
	}
	t := newTable(w)
	t.header("Entity", "Category", "Type", "Applied", "Updated")
	for _, r := range rules {
		t.row(r.EntityNameNormalized, r.Category, string(r.Type),
			fmt.Sprintf("%d", r.TimesApplied), r.UpdatedAt.Format(dateLayout))
	}
	return t.flush()
}

// RenderAccounts prints the chart of accounts.
func RenderAccounts(w io.Writer, accounts []model.Account) error {
	if len(accounts) == 0 {
		_, err := fmt.Fprintln(w, InfoStyle.Render("No accounts found."))
		return err
	}
	t := newTable(w)
	t.header("Code", "Name", "Type")
	for _, a := range accounts {
		t.row(a.Code, a.Name, string(a.Type))
	}
	return t.flush()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
