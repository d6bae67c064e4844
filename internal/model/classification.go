package model

import "time"

// ClassificationSource records which stage produced a classification.
type ClassificationSource string

const (
	// SourceRule means a user rule matched.
	SourceRule ClassificationSource = "rule"
	// SourcePattern means a static category pattern matched.
	SourcePattern ClassificationSource = "pattern"
	// SourceDefault means nothing matched and the side default was used.
	SourceDefault ClassificationSource = "default"
	// SourceManual means the user set the category directly.
	SourceManual ClassificationSource = "manual"
)

// Classification assigns a transaction to a P&L category.
type Classification struct {
	Type     CategoryType
	Category string
	Source   ClassificationSource
}

// CategorizedTransaction pairs a transaction with its classification.
type CategorizedTransaction struct {
	Transaction    Transaction
	Classification Classification
}

// TransactionFilter narrows stored transaction queries.
type TransactionFilter struct {
	Start    time.Time
	End      time.Time
	UserID   string
	Category string
	Limit    int
}
