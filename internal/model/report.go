package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// CategoryTotal is one line of a P&L breakdown.
type CategoryTotal struct {
	Category   string
	Amount     decimal.Decimal
	Percentage decimal.Decimal
	Count      int
}

// PLSummary is a profit and loss statement over a set of categorized transactions.
type PLSummary struct {
	PeriodStart      time.Time
	PeriodEnd        time.Time
	Revenue          []CategoryTotal
	Expenses         []CategoryTotal
	TotalRevenue     decimal.Decimal
	TotalExpenses    decimal.Decimal
	NetIncome        decimal.Decimal
	NetProfitMargin  decimal.Decimal
	TransactionCount int
}
