// Package journal turns categorized transactions into double-entry journal
// entries against a chart of accounts.
package journal

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/Bhuvaneshwar-bit/Strat-MU-FinAgent-sub001/internal/common"
	"github.com/Bhuvaneshwar-bit/Strat-MU-FinAgent-sub001/internal/config"
	"github.com/Bhuvaneshwar-bit/Strat-MU-FinAgent-sub001/internal/model"
)

// CashAccountCode is the operating account every entry posts against.
const CashAccountCode = "1000"

// CashAccountName names the operating account.
const CashAccountName = "Cash/Operating Account"

const accountCodeStep = 10

type codeRange struct{ base, limit int }

// bucketRange holds the numeric code range of each account type; limit is exclusive.
var bucketRange = map[model.AccountType]codeRange{
	model.AccountTypeAsset:     {1000, 2000},
	model.AccountTypeLiability: {2000, 3000},
	model.AccountTypeEquity:    {3000, 4000},
	model.AccountTypeRevenue:   {4000, 5000},
	model.AccountTypeExpense:   {5000, 10000},
}

// DefaultChart returns the built-in chart of accounts.
func DefaultChart() *model.ChartOfAccounts {
	return model.NewChartOfAccounts([]model.Account{
		{Code: CashAccountCode, Name: CashAccountName, Type: model.AccountTypeAsset},
		{Code: "1100", Name: "Accounts Receivable", Type: model.AccountTypeAsset},
		{Code: "1500", Name: "Equipment", Type: model.AccountTypeAsset},
		{Code: "2000", Name: "Accounts Payable", Type: model.AccountTypeLiability},
		{Code: "2100", Name: "Taxes Payable", Type: model.AccountTypeLiability},
		{Code: "2200", Name: "Loans Payable", Type: model.AccountTypeLiability},
		{Code: "3000", Name: "Owner's Equity", Type: model.AccountTypeEquity},
		{Code: "3100", Name: "Retained Earnings", Type: model.AccountTypeEquity},
		{Code: "4000", Name: "Sales Revenue", Type: model.AccountTypeRevenue},
		{Code: "4100", Name: "Consulting Income", Type: model.AccountTypeRevenue},
		{Code: "4200", Name: "Interest Income", Type: model.AccountTypeRevenue},
		{Code: "4300", Name: "Investment Income", Type: model.AccountTypeRevenue},
		{Code: "4400", Name: "Rental Income", Type: model.AccountTypeRevenue},
		{Code: "4500", Name: "Refunds & Reversals", Type: model.AccountTypeRevenue},
		{Code: "4900", Name: model.DefaultRevenueCategory, Type: model.AccountTypeRevenue},
		{Code: "5000", Name: "Salaries & Wages", Type: model.AccountTypeExpense},
		{Code: "5100", Name: "Rent & Lease", Type: model.AccountTypeExpense},
		{Code: "5200", Name: "Utilities", Type: model.AccountTypeExpense},
		{Code: "5300", Name: "Software & Subscriptions", Type: model.AccountTypeExpense},
		{Code: "5400", Name: "Office Supplies", Type: model.AccountTypeExpense},
		{Code: "5500", Name: "Travel & Transport", Type: model.AccountTypeExpense},
		{Code: "5600", Name: "Meals & Entertainment", Type: model.AccountTypeExpense},
		{Code: "5700", Name: "Marketing & Advertising", Type: model.AccountTypeExpense},
		{Code: "5800", Name: "Professional Fees", Type: model.AccountTypeExpense},
		{Code: "5900", Name: "Bank Charges", Type: model.AccountTypeExpense},
		{Code: "6000", Name: "Taxes", Type: model.AccountTypeExpense},
		{Code: "6100", Name: "Insurance", Type: model.AccountTypeExpense},
		{Code: "6200", Name: "Loan Repayment", Type: model.AccountTypeExpense},
		{Code: "6300", Name: "Inventory & Purchases", Type: model.AccountTypeExpense},
		{Code: "6500", Name: model.DefaultExpenseCategory, Type: model.AccountTypeExpense},
	})
}

type chartFile struct {
	Accounts []model.Account `yaml:"accounts"`
}

// LoadChart reads a chart from YAML. An empty path returns the default chart.
func LoadChart(path string) (*model.ChartOfAccounts, error) {
	if path == "" {
		return DefaultChart(), nil
	}

	data, err := os.ReadFile(config.ExpandPath(path))
	if err != nil {
		return nil, fmt.Errorf("failed to read chart of accounts: %w", err)
	}

	var f chartFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse chart of accounts %s: %w", path, err)
	}

	seen := make(map[string]bool, len(f.Accounts))
	for _, a := range f.Accounts {
		if _, ok := bucketRange[a.Type]; !ok {
			return nil, fmt.Errorf("%w: account %s has unknown type %q", common.ErrInvalidConfig, a.Code, a.Type)
		}
		if a.Code == "" || a.Name == "" {
			return nil, fmt.Errorf("%w: accounts need a code and a name", common.ErrInvalidConfig)
		}
		if seen[a.Code] {
			return nil, fmt.Errorf("%w: duplicate account code %s", common.ErrInvalidConfig, a.Code)
		}
		seen[a.Code] = true
	}
	return model.NewChartOfAccounts(f.Accounts), nil
}

// nextCode returns a free code in the range of bucket t. It prefers the
// highest code in the bucket plus ten and falls back to the lowest free code.
// Codes taken by any account type count as used.
func nextCode(chart *model.ChartOfAccounts, t model.AccountType) (string, error) {
	r, ok := bucketRange[t]
	if !ok {
		return "", fmt.Errorf("%w: account type %q", common.ErrInvalidConfig, t)
	}

	used := make(map[string]bool)
	for _, a := range chart.All() {
		used[a.Code] = true
	}

	start := r.base
	for _, a := range chart.Accounts[t] {
		if n, err := strconv.Atoi(a.Code); err == nil && n >= r.base && n < r.limit && n+accountCodeStep > start {
			start = n + accountCodeStep
		}
	}
	for n := start; n < r.limit; n += accountCodeStep {
		if code := strconv.Itoa(n); !used[code] {
			return code, nil
		}
	}
	for n := r.base; n < r.limit; n++ {
		if code := strconv.Itoa(n); !used[code] {
			return code, nil
		}
	}
	return "", fmt.Errorf("%w: no free %s account codes between %d and %d", common.ErrInvalidConfig, t, r.base, r.limit-1)
}

// ensureAccount finds the account for name in bucket t, adding it to chart
// when missing. The second result reports whether an account was added.
func ensureAccount(chart *model.ChartOfAccounts, t model.AccountType, name string) (model.Account, bool, error) {
	if a, ok := chart.FindByName(t, name); ok {
		return a, false, nil
	}
	code, err := nextCode(chart, t)
	if err != nil {
		return model.Account{}, false, err
	}
	a := model.Account{Code: code, Name: name, Type: t}
	chart.Add(a)
	return a, true, nil
}
