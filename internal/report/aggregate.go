// Package report builds profit and loss summaries from categorized transactions.
package report

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Bhuvaneshwar-bit/Strat-MU-FinAgent-sub001/internal/model"
)

var hundred = decimal.NewFromInt(100)

type group struct {
	amount decimal.Decimal
	count  int
}

// Aggregate groups txs by category on each side of the P&L, sums absolute
// amounts and derives totals, net income, percentages and the net margin.
// Rounding to two places happens only on the returned values.
func Aggregate(txs []model.CategorizedTransaction) model.PLSummary {
	revenue := make(map[string]*group)
	expense := make(map[string]*group)
	totalRevenue, totalExpenses := decimal.Zero, decimal.Zero

	var start, end time.Time
	for _, ct := range txs {
		amount := ct.Transaction.Amount.Abs()

		groups := expense
		if ct.Classification.Type == model.CategoryTypeRevenue {
			groups = revenue
			totalRevenue = totalRevenue.Add(amount)
		} else {
			totalExpenses = totalExpenses.Add(amount)
		}

		g, ok := groups[ct.Classification.Category]
		if !ok {
			g = &group{}
			groups[ct.Classification.Category] = g
		}
		g.amount = g.amount.Add(amount)
		g.count++

		if d := ct.Transaction.Date; !d.IsZero() {
			if start.IsZero() || d.Before(start) {
				start = d
			}
			if d.After(end) {
				end = d
			}
		}
	}

	netIncome := totalRevenue.Sub(totalExpenses)
	margin := decimal.Zero
	if !totalRevenue.IsZero() {
		margin = netIncome.Div(totalRevenue).Mul(hundred)
	}

	return model.PLSummary{
		PeriodStart:      start,
		PeriodEnd:        end,
		Revenue:          categoryTotals(revenue, totalRevenue),
		Expenses:         categoryTotals(expense, totalExpenses),
		TotalRevenue:     totalRevenue.Round(2),
		TotalExpenses:    totalExpenses.Round(2),
		NetIncome:        netIncome.Round(2),
		NetProfitMargin:  margin.Round(2),
		TransactionCount: len(txs),
	}
}

// categoryTotals flattens groups sorted by amount descending, then name.
func categoryTotals(groups map[string]*group, total decimal.Decimal) []model.CategoryTotal {
	out := make([]model.CategoryTotal, 0, len(groups))
	for name, g := range groups {
		pct := decimal.Zero
		if !total.IsZero() {
			pct = g.amount.Div(total).Mul(hundred)
		}
		out = append(out, model.CategoryTotal{
			Category:   name,
			Amount:     g.amount,
			Percentage: pct.Round(2),
			Count:      g.count,
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if c := out[i].Amount.Cmp(out[j].Amount); c != 0 {
			return c > 0
		}
		return out[i].Category < out[j].Category
	})

	for i := range out {
		out[i].Amount = out[i].Amount.Round(2)
	}
	return out
}
