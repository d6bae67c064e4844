package classification

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Bhuvaneshwar-bit/Strat-MU-FinAgent-sub001/internal/common"
	"github.com/Bhuvaneshwar-bit/Strat-MU-FinAgent-sub001/internal/model"
	"github.com/Bhuvaneshwar-bit/Strat-MU-FinAgent-sub001/internal/service"
)

// Categorizer classifies transactions. User rules are consulted first, then
// the pattern taxonomy, then the side default.
type Categorizer struct {
	rules    service.RuleStore
	detector *PatternDetector
	logger   *slog.Logger
	now      func() time.Time
}

// NewCategorizer builds a categorizer over taxonomy. rules may be nil, which
// disables per-user rules.
func NewCategorizer(taxonomy Taxonomy, rules service.RuleStore, logger *slog.Logger) (*Categorizer, error) {
	detector, err := NewPatternDetector(taxonomy)
	if err != nil {
		return nil, err
	}
	return &Categorizer{
		rules:    rules,
		detector: detector,
		logger:   common.LoggerOrDefault(logger),
		now:      time.Now,
	}, nil
}

// Categorize classifies a single transaction for userID.
// It never fails because of the rule store; store errors degrade to patterns.
func (c *Categorizer) Categorize(ctx context.Context, tx model.Transaction, userID string) (model.Classification, error) {
	if err := ctx.Err(); err != nil {
		return model.Classification{}, err
	}
	rules := c.loadRules(ctx, userID)
	return c.classify(ctx, tx, userID, rules), nil
}

// CategorizeAll classifies txs in order, loading the user's rules once.
func (c *Categorizer) CategorizeAll(ctx context.Context, txs []model.Transaction, userID string) ([]model.CategorizedTransaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rules := c.loadRules(ctx, userID)

	out := make([]model.CategorizedTransaction, 0, len(txs))
	for _, tx := range txs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out = append(out, model.CategorizedTransaction{
			Transaction:    tx,
			Classification: c.classify(ctx, tx, userID, rules),
		})
	}
	return out, nil
}

func (c *Categorizer) loadRules(ctx context.Context, userID string) []model.CategoryRule {
	if userID == "" || c.rules == nil {
		return nil
	}
	rules, err := c.rules.GetRules(ctx, userID)
	if err != nil {
		c.logger.Warn("Failed to load category rules, using patterns only",
			"user", userID,
			"error", err)
		return nil
	}
	return rules
}

func (c *Categorizer) classify(ctx context.Context, tx model.Transaction, userID string, rules []model.CategoryRule) model.Classification {
	description := NormalizeEntity(tx.Description)

	if rule, ok := matchRule(rules, description); ok {
		if err := c.rules.IncrementRuleUsage(ctx, userID, rule.EntityNameNormalized); err != nil {
			c.logger.Warn("Failed to record rule usage",
				"user", userID,
				"entity", rule.EntityNameNormalized,
				"error", err)
		}
		return model.Classification{Type: rule.Type, Category: rule.Category, Source: model.SourceRule}
	}

	side := sideFor(tx)
	if category, ok := c.detector.Match(side, tx.Description); ok {
		return model.Classification{Type: side, Category: category, Source: model.SourcePattern}
	}

	c.logger.Debug("No category matched, using default",
		"description", tx.Description,
		"reason", common.ErrCategorizationAmbiguous)
	return model.Classification{Type: side, Category: defaultCategory(side), Source: model.SourceDefault}
}

// matchRule returns the first rule whose entity occurs in description.
func matchRule(rules []model.CategoryRule, description string) (model.CategoryRule, bool) {
	for _, r := range rules {
		if r.EntityNameNormalized != "" && strings.Contains(description, r.EntityNameNormalized) {
			return r, true
		}
	}
	return model.CategoryRule{}, false
}

func sideFor(tx model.Transaction) model.CategoryType {
	if tx.Amount.IsPositive() {
		return model.CategoryTypeRevenue
	}
	return model.CategoryTypeExpense
}

func defaultCategory(side model.CategoryType) string {
	if side == model.CategoryTypeRevenue {
		return model.DefaultRevenueCategory
	}
	return model.DefaultExpenseCategory
}

// LearnRule records a manual re-categorization as a rule for the transaction's
// counterparty. Later transactions naming the same entity follow the rule.
func (c *Categorizer) LearnRule(ctx context.Context, userID string, tx model.Transaction, cls model.Classification) (*model.CategoryRule, error) {
	if c.rules == nil {
		return nil, fmt.Errorf("%w: no rule store configured", common.ErrMissingConfig)
	}
	if userID == "" {
		return nil, common.NewUserError("a user is required to learn a rule", common.ErrInvalidConfig)
	}
	if !cls.Type.Valid() || strings.TrimSpace(cls.Category) == "" {
		return nil, fmt.Errorf("%w: classification needs a type and category", common.ErrInvalidConfig)
	}

	entity := NormalizeEntity(ExtractEntity(tx.Description))
	if entity == "" {
		return nil, common.NewUserError(fmt.Sprintf("no counterparty found in %q", tx.Description), common.ErrNotFound)
	}

	now := c.now()
	rule := &model.CategoryRule{
		UserID:               userID,
		EntityNameNormalized: entity,
		Category:             strings.TrimSpace(cls.Category),
		Type:                 cls.Type,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	if err := c.rules.UpsertRule(ctx, rule); err != nil {
		return nil, fmt.Errorf("failed to save rule for %q: %w", entity, err)
	}

	c.logger.Info("Learned category rule",
		"user", userID,
		"entity", entity,
		"category", rule.Category)
	return rule, nil
}

// Categories lists the taxonomy's categories on one side.
func (c *Categorizer) Categories(side model.CategoryType) []string {
	return c.detector.Categories(side)
}
