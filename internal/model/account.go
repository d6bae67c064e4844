package model

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// AccountType is a chart of accounts bucket.
type AccountType string

const (
	AccountTypeAsset     AccountType = "asset"
	AccountTypeLiability AccountType = "liability"
	AccountTypeEquity    AccountType = "equity"
	AccountTypeRevenue   AccountType = "revenue"
	AccountTypeExpense   AccountType = "expense"
)

// AccountTypes lists the buckets in ledger order.
var AccountTypes = []AccountType{
	AccountTypeAsset,
	AccountTypeLiability,
	AccountTypeEquity,
	AccountTypeRevenue,
	AccountTypeExpense,
}

// Valid reports whether t is one of AccountTypes.
func (t AccountType) Valid() bool {
	for _, known := range AccountTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Account is a single ledger account.
type Account struct {
	Code    string          `yaml:"code"`
	Name    string          `yaml:"name"`
	Type    AccountType     `yaml:"type"`
	Balance decimal.Decimal `yaml:"-"`
}

// ChartOfAccounts holds accounts grouped by bucket.
type ChartOfAccounts struct {
	Accounts map[AccountType][]Account
}

// NewChartOfAccounts builds a chart from a flat account list.
func NewChartOfAccounts(accounts []Account) *ChartOfAccounts {
	c := &ChartOfAccounts{Accounts: make(map[AccountType][]Account, len(AccountTypes))}
	for _, a := range accounts {
		c.Accounts[a.Type] = append(c.Accounts[a.Type], a)
	}
	return c
}

// Clone returns a deep copy of the chart.
func (c *ChartOfAccounts) Clone() *ChartOfAccounts {
	out := &ChartOfAccounts{Accounts: make(map[AccountType][]Account, len(c.Accounts))}
	for t, accounts := range c.Accounts {
		out.Accounts[t] = append([]Account(nil), accounts...)
	}
	return out
}

// FindByName looks an account up by name within a bucket, ignoring case.
func (c *ChartOfAccounts) FindByName(t AccountType, name string) (Account, bool) {
	want := strings.ToLower(strings.TrimSpace(name))
	for _, a := range c.Accounts[t] {
		if strings.ToLower(a.Name) == want {
			return a, true
		}
	}
	return Account{}, false
}

// FindByCode looks an account up by code across all buckets.
func (c *ChartOfAccounts) FindByCode(code string) (Account, bool) {
	for _, t := range AccountTypes {
		for _, a := range c.Accounts[t] {
			if a.Code == code {
				return a, true
			}
		}
	}
	return Account{}, false
}

// Add appends an account to its bucket.
func (c *ChartOfAccounts) Add(a Account) {
	if c.Accounts == nil {
		c.Accounts = make(map[AccountType][]Account)
	}
	c.Accounts[a.Type] = append(c.Accounts[a.Type], a)
}

// All returns every account ordered by bucket then code.
func (c *ChartOfAccounts) All() []Account {
	var out []Account
	for _, t := range AccountTypes {
		accounts := append([]Account(nil), c.Accounts[t]...)
		sort.Slice(accounts, func(i, j int) bool { return accounts[i].Code < accounts[j].Code })
		out = append(out, accounts...)
	}
	return out
}
