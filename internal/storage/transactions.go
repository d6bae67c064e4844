package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Bhuvaneshwar-bit/Strat-MU-FinAgent-sub001/internal/model"
)

// SaveTransactions stores categorized transactions for a user. Re-saving a
// transaction with the same ID refreshes its classification.
func (s *SQLiteStorage) SaveTransactions(ctx context.Context, userID string, txs []model.CategorizedTransaction) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	for i := range txs {
		if err := validateTransaction(&txs[i]); err != nil {
			return err
		}
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO transactions (
				user_id, id, date, description, amount, type, balance, reference,
				category, category_type, classification_source
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(user_id, id) DO UPDATE SET
				category = excluded.category,
				category_type = excluded.category_type,
				classification_source = excluded.classification_source,
				updated_at = CURRENT_TIMESTAMP
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare statement: %w", err)
		}
		defer func() { _ = stmt.Close() }()

		for _, ct := range txs {
			t := ct.Transaction
			var balance decimal.NullDecimal
			if t.Balance != nil {
				balance = decimal.NewNullDecimal(*t.Balance)
			}
			if _, err := stmt.ExecContext(ctx,
				userID, t.ID, t.Date, t.Description, t.Amount.String(), t.Type, balance, t.Reference,
				ct.Classification.Category, ct.Classification.Type, ct.Classification.Source,
			); err != nil {
				return fmt.Errorf("failed to insert transaction %s: %w", t.ID, err)
			}
		}
		return nil
	})
}

const transactionColumns = `id, date, description, amount, type, balance, reference,
	category, category_type, classification_source`

func scanTransaction(row rowScanner) (model.CategorizedTransaction, error) {
	var (
		ct        model.CategorizedTransaction
		balance   decimal.NullDecimal
		reference sql.NullString
	)
	t := &ct.Transaction
	if err := row.Scan(&t.ID, &t.Date, &t.Description, &t.Amount, &t.Type, &balance, &reference,
		&ct.Classification.Category, &ct.Classification.Type, &ct.Classification.Source); err != nil {
		return ct, err
	}
	t.Date = t.Date.UTC()
	if balance.Valid {
		b := balance.Decimal
		t.Balance = &b
	}
	t.Reference = reference.String
	return ct, nil
}

// GetTransaction returns one stored transaction.
func (s *SQLiteStorage) GetTransaction(ctx context.Context, userID, id string) (*model.CategorizedTransaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	ct, err := scanTransaction(s.db.QueryRowContext(ctx,
		"SELECT "+transactionColumns+" FROM transactions WHERE user_id = ? AND id = ?", userID, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("transaction", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction %s: %w", id, err)
	}
	return &ct, nil
}

// ListTransactions returns a user's transactions ordered by date.
func (s *SQLiteStorage) ListTransactions(ctx context.Context, filter model.TransactionFilter) ([]model.CategorizedTransaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if !filter.Start.IsZero() && !filter.End.IsZero() && filter.End.Before(filter.Start) {
		return nil, ErrInvalidDateRange
	}

	where := []string{"user_id = ?"}
	args := []any{filter.UserID}
	if !filter.Start.IsZero() {
		where = append(where, "date >= ?")
		args = append(args, filter.Start)
	}
	if !filter.End.IsZero() {
		where = append(where, "date <= ?")
		args = append(args, filter.End)
	}
	if filter.Category != "" {
		where = append(where, "category = ? COLLATE NOCASE")
		args = append(args, filter.Category)
	}

	query := "SELECT " + transactionColumns + " FROM transactions WHERE " +
		strings.Join(where, " AND ") + " ORDER BY date, id"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []model.CategorizedTransaction
	for rows.Next() {
		ct, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		out = append(out, ct)
	}
	return out, rows.Err()
}

// UpdateClassification replaces the stored classification of one transaction.
func (s *SQLiteStorage) UpdateClassification(ctx context.Context, userID, id string, cls model.Classification) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}
	if !cls.Type.Valid() || strings.TrimSpace(cls.Category) == "" {
		return fmt.Errorf("%w: classification for %s", ErrInvalidTransaction, id)
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE transactions
		SET category = ?, category_type = ?, classification_source = ?, updated_at = ?
		WHERE user_id = ? AND id = ?
	`, cls.Category, cls.Type, cls.Source, time.Now().UTC(), userID, id)
	if err != nil {
		return fmt.Errorf("failed to update classification: %w", err)
	}
	return requireRow(result, "transaction", id)
}
