package report

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Bhuvaneshwar-bit/Strat-MU-FinAgent-sub001/internal/model"
)

func categorized(day int, description, amount string, side model.CategoryType, category string) model.CategorizedTransaction {
	return model.CategorizedTransaction{
		Transaction: model.NewTransaction(
			time.Date(2024, 1, day, 0, 0, 0, 0, time.UTC),
			description,
			decimal.RequireFromString(amount),
		),
		Classification: model.Classification{Type: side, Category: category, Source: model.SourcePattern},
	}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestAggregate_Scenario(t *testing.T) {
	summary := Aggregate([]model.CategorizedTransaction{
		categorized(1, "UPI/P2M/123/Acme Traders/Sale", "5000", model.CategoryTypeRevenue, "Sales Revenue"),
		categorized(2, "Office Rent", "-1200", model.CategoryTypeExpense, "Rent & Lease"),
	})

	assert.True(t, dec("5000").Equal(summary.TotalRevenue))
	assert.True(t, dec("1200").Equal(summary.TotalExpenses))
	assert.True(t, dec("3800").Equal(summary.NetIncome))
	assert.True(t, dec("76").Equal(summary.NetProfitMargin))
	assert.Equal(t, 2, summary.TransactionCount)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), summary.PeriodStart)
	assert.Equal(t, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), summary.PeriodEnd)

	require.Len(t, summary.Revenue, 1)
	assert.Equal(t, "Sales Revenue", summary.Revenue[0].Category)
	assert.True(t, dec("100").Equal(summary.Revenue[0].Percentage))
	require.Len(t, summary.Expenses, 1)
	assert.Equal(t, "Rent & Lease", summary.Expenses[0].Category)
}

func TestAggregate_SortingAndPercentages(t *testing.T) {
	summary := Aggregate([]model.CategorizedTransaction{
		categorized(3, "AWS", "-100", model.CategoryTypeExpense, "Software & Subscriptions"),
		categorized(4, "Rent", "-300", model.CategoryTypeExpense, "Rent & Lease"),
		categorized(5, "Stationery", "-100", model.CategoryTypeExpense, "Office Supplies"),
		categorized(6, "Adobe", "-0.005", model.CategoryTypeExpense, "Software & Subscriptions"),
	})

	require.Len(t, summary.Expenses, 3)
	names := []string{summary.Expenses[0].Category, summary.Expenses[1].Category, summary.Expenses[2].Category}
	assert.Equal(t, []string{"Rent & Lease", "Software & Subscriptions", "Office Supplies"}, names)
	assert.Equal(t, 2, summary.Expenses[1].Count)

	assert.True(t, dec("60").Equal(summary.Expenses[0].Percentage), summary.Expenses[0].Percentage.String())
	assert.True(t, dec("500.01").Equal(summary.TotalExpenses), summary.TotalExpenses.String())
	assert.True(t, summary.TotalRevenue.IsZero())
	assert.True(t, summary.NetProfitMargin.IsZero())
	assert.Empty(t, summary.Revenue)
}

func TestAggregate_TiesSortByName(t *testing.T) {
	summary := Aggregate([]model.CategorizedTransaction{
		categorized(1, "b", "10", model.CategoryTypeRevenue, "Zeta"),
		categorized(1, "a", "10", model.CategoryTypeRevenue, "Alpha"),
	})
	require.Len(t, summary.Revenue, 2)
	assert.Equal(t, "Alpha", summary.Revenue[0].Category)
	assert.True(t, dec("50").Equal(summary.Revenue[0].Percentage))
}

func TestAggregate_Empty(t *testing.T) {
	summary := Aggregate(nil)
	assert.True(t, summary.NetIncome.IsZero())
	assert.True(t, summary.NetProfitMargin.IsZero())
	assert.Zero(t, summary.TransactionCount)
	assert.True(t, summary.PeriodStart.IsZero())
}

func TestAggregate_TotalsMatchBreakdown(t *testing.T) {
	txs := []model.CategorizedTransaction{
		categorized(1, "a", "1000.333", model.CategoryTypeRevenue, "Sales Revenue"),
		categorized(2, "b", "2000.333", model.CategoryTypeRevenue, "Consulting Income"),
		categorized(3, "c", "-333.333", model.CategoryTypeExpense, "Utilities"),
		categorized(4, "d", "-666.666", model.CategoryTypeExpense, "Rent & Lease"),
	}
	summary := Aggregate(txs)

	sumRevenue := decimal.Zero
	for _, c := range summary.Revenue {
		sumRevenue = sumRevenue.Add(c.Amount)
	}
	sumExpenses := decimal.Zero
	for _, c := range summary.Expenses {
		sumExpenses = sumExpenses.Add(c.Amount)
	}

	tolerance := dec("0.01")
	assert.True(t, sumRevenue.Sub(summary.TotalRevenue).Abs().LessThanOrEqual(tolerance))
	assert.True(t, sumExpenses.Sub(summary.TotalExpenses).Abs().LessThanOrEqual(tolerance))
	assert.True(t, summary.TotalRevenue.Sub(summary.TotalExpenses).Sub(summary.NetIncome).Abs().LessThanOrEqual(tolerance))
}
