package model

import (
	"strings"
	"time"
)

// CategoryType is the P&L side a category belongs to.
type CategoryType string

const (
	// CategoryTypeRevenue marks income categories.
	CategoryTypeRevenue CategoryType = "revenue"
	// CategoryTypeExpense marks spending categories.
	CategoryTypeExpense CategoryType = "expense"
)

// Valid reports whether the category type is known.
func (c CategoryType) Valid() bool {
	return c == CategoryTypeRevenue || c == CategoryTypeExpense
}

// ParseCategoryType parses a category type case-insensitively.
func ParseCategoryType(s string) (CategoryType, bool) {
	ct := CategoryType(strings.ToLower(strings.TrimSpace(s)))
	return ct, ct.Valid()
}

// Default category names used when no rule or pattern matches.
const (
	DefaultRevenueCategory = "Other Income"
	DefaultExpenseCategory = "General Expenses"
)

// CategoryPattern is one entry of the static categorization table.
// Patterns are regular expressions matched case-insensitively against the description.
type CategoryPattern struct {
	Category string       `yaml:"category"`
	Type     CategoryType `yaml:"type"`
	Patterns []string     `yaml:"patterns"`
}

// CategoryRule is a per-user override learned from a manual re-categorization.
type CategoryRule struct {
	CreatedAt            time.Time
	UpdatedAt            time.Time
	UserID               string
	EntityNameNormalized string
	Category             string
	Type                 CategoryType
	ID                   int64
	TimesApplied         int
}
