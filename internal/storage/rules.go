package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/Bhuvaneshwar-bit/Strat-MU-FinAgent-sub001/internal/model"
)

// GetRules returns a user's category rules in creation order.
func (s *SQLiteStorage) GetRules(ctx context.Context, userID string) ([]model.CategoryRule, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, entity_name_normalized, category, type, times_applied, created_at, updated_at
		FROM category_rules
		WHERE user_id = ?
		ORDER BY created_at, id
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query rules: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var rules []model.CategoryRule
	for rows.Next() {
		var r model.CategoryRule
		if err := rows.Scan(&r.ID, &r.UserID, &r.EntityNameNormalized, &r.Category, &r.Type,
			&r.TimesApplied, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan rule: %w", err)
		}
		rules = append(rules, r)
	}
	return rules, rows.Err()
}

// UpsertRule creates the rule for (user, entity) or replaces its category.
// Usage counts and creation time survive a replacement.
func (s *SQLiteStorage) UpsertRule(ctx context.Context, rule *model.CategoryRule) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateRule(rule); err != nil {
		return err
	}

	now := time.Now().UTC()
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO category_rules (user_id, entity_name_normalized, category, type, times_applied, created_at, updated_at)
		VALUES (?, ?, ?, ?, 0, ?, ?)
		ON CONFLICT(user_id, entity_name_normalized) DO UPDATE SET
			category = excluded.category,
			type = excluded.type,
			updated_at = excluded.updated_at
		RETURNING id, times_applied, created_at, updated_at
	`, rule.UserID, rule.EntityNameNormalized, rule.Category, rule.Type, now, now).
		Scan(&rule.ID, &rule.TimesApplied, &rule.CreatedAt, &rule.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert rule %q: %w", rule.EntityNameNormalized, err)
	}
	return nil
}

// IncrementRuleUsage records one more application of a rule.
func (s *SQLiteStorage) IncrementRuleUsage(ctx context.Context, userID, entity string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(userID, "userID"); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE category_rules
		SET times_applied = times_applied + 1, updated_at = ?
		WHERE user_id = ? AND entity_name_normalized = ?
	`, time.Now().UTC(), userID, entity)
	if err != nil {
		return fmt.Errorf("failed to increment rule usage: %w", err)
	}
	return requireRow(result, "rule", entity)
}

// DeleteRule removes the rule for (user, entity).
func (s *SQLiteStorage) DeleteRule(ctx context.Context, userID, entity string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(userID, "userID"); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx,
		"DELETE FROM category_rules WHERE user_id = ? AND entity_name_normalized = ?", userID, entity)
	if err != nil {
		return fmt.Errorf("failed to delete rule: %w", err)
	}
	return requireRow(result, "rule", entity)
}

type rowsAffecter interface {
	RowsAffected() (int64, error)
}

func requireRow(result rowsAffecter, what, key string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return notFound(what, key)
	}
	return nil
}
