package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/Bhuvaneshwar-bit/Strat-MU-FinAgent-sub001/internal/common"
	"github.com/Bhuvaneshwar-bit/Strat-MU-FinAgent-sub001/internal/model"
)

// GetChart loads every stored account. An empty database yields an empty chart.
func (s *SQLiteStorage) GetChart(ctx context.Context) (*model.ChartOfAccounts, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, "SELECT code, name, type, balance FROM accounts ORDER BY code")
	if err != nil {
		return nil, fmt.Errorf("failed to query accounts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var accounts []model.Account
	for rows.Next() {
		var a model.Account
		if err := rows.Scan(&a.Code, &a.Name, &a.Type, &a.Balance); err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating accounts: %w", err)
	}
	return model.NewChartOfAccounts(accounts), nil
}

// SaveAccounts inserts accounts that are not stored yet. An account whose
// code is already stored with the same name and type is left untouched; a
// code stored under a different name or type fails the whole batch.
func (s *SQLiteStorage) SaveAccounts(ctx context.Context, accounts []model.Account) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	for _, a := range accounts {
		if err := validateAccount(a); err != nil {
			return err
		}
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		for _, a := range accounts {
			res, err := tx.ExecContext(ctx, `
				INSERT INTO accounts (code, name, type, balance) VALUES (?, ?, ?, ?)
				ON CONFLICT(code) DO NOTHING
			`, a.Code, a.Name, a.Type, a.Balance.String())
			if err != nil {
				if isUniqueViolation(err) {
					return fmt.Errorf("account %s %q conflicts with an existing %s account name: %w",
						a.Code, a.Name, a.Type, ErrInvalidAccount)
				}
				return fmt.Errorf("failed to save account %s: %w", a.Code, err)
			}

			inserted, err := res.RowsAffected()
			if err != nil {
				return fmt.Errorf("failed to check account %s: %w", a.Code, err)
			}
			if inserted > 0 {
				continue
			}

			var name string
			var typ model.AccountType
			if err := tx.QueryRowContext(ctx, "SELECT name, type FROM accounts WHERE code = ?", a.Code).Scan(&name, &typ); err != nil {
				return fmt.Errorf("failed to load account %s: %w", a.Code, err)
			}
			if typ != a.Type || !strings.EqualFold(name, a.Name) {
				return fmt.Errorf("account code %s is already %q (%s), cannot store %q (%s): %w",
					a.Code, name, typ, a.Name, a.Type, common.ErrDuplicateEntry)
			}
		}
		return nil
	})
}
