package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Bhuvaneshwar-bit/Strat-MU-FinAgent-sub001/internal/common"
	"github.com/Bhuvaneshwar-bit/Strat-MU-FinAgent-sub001/internal/model"
)

const (
	sideDebit  = "debit"
	sideCredit = "credit"
)

// SaveJournalEntries stores a batch of entries atomically. A repeated entry ID
// fails the whole batch with common.ErrDuplicateEntry.
func (s *SQLiteStorage) SaveJournalEntries(ctx context.Context, entries []model.JournalEntry) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	for i := range entries {
		if err := validateEntry(&entries[i]); err != nil {
			return err
		}
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		for i := range entries {
			if err := s.insertEntry(ctx, tx, &entries[i]); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *SQLiteStorage) insertEntry(ctx context.Context, q queryable, e *model.JournalEntry) error {
	reasons, err := json.Marshal(e.ReviewReasons)
	if err != nil {
		return fmt.Errorf("failed to encode review reasons: %w", err)
	}
	createdAt := e.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err = q.ExecContext(ctx, `
		INSERT INTO journal_entries (
			entry_id, date, description, reference, source_transaction_id,
			total_debits, total_credits, is_balanced, requires_review,
			review_reasons, review_status, posted, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, e.EntryID, e.Date, e.Description, e.Reference, e.SourceTransactionID,
		e.TotalDebits.String(), e.TotalCredits.String(), e.IsBalanced, e.RequiresReview,
		string(reasons), e.ReviewStatus, e.Posted, createdAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("journal entry %s: %w", e.EntryID, common.ErrDuplicateEntry)
		}
		return fmt.Errorf("failed to insert journal entry %s: %w", e.EntryID, err)
	}

	insertLines := func(side string, lines []model.JournalLine) error {
		for pos, l := range lines {
			if _, err := q.ExecContext(ctx, `
				INSERT INTO journal_lines (entry_id, side, position, account_code, account_name, amount, description)
				VALUES (?, ?, ?, ?, ?, ?, ?)
			`, e.EntryID, side, pos, l.AccountCode, l.AccountName, l.Amount.String(), l.Description); err != nil {
				return fmt.Errorf("failed to insert %s line for %s: %w", side, e.EntryID, err)
			}
		}
		return nil
	}
	if err := insertLines(sideDebit, e.Debits); err != nil {
		return err
	}
	return insertLines(sideCredit, e.Credits)
}

const entryColumns = `entry_id, date, description, reference, source_transaction_id,
	total_debits, total_credits, is_balanced, requires_review,
	review_reasons, review_status, posted, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (model.JournalEntry, error) {
	var (
		e         model.JournalEntry
		reference sql.NullString
		sourceID  sql.NullString
		reasons   sql.NullString
	)
	if err := row.Scan(&e.EntryID, &e.Date, &e.Description, &reference, &sourceID,
		&e.TotalDebits, &e.TotalCredits, &e.IsBalanced, &e.RequiresReview,
		&reasons, &e.ReviewStatus, &e.Posted, &e.CreatedAt); err != nil {
		return e, err
	}
	e.Reference = reference.String
	e.SourceTransactionID = sourceID.String
	if reasons.Valid && reasons.String != "" && reasons.String != "null" {
		if err := json.Unmarshal([]byte(reasons.String), &e.ReviewReasons); err != nil {
			return e, fmt.Errorf("failed to decode review reasons for %s: %w", e.EntryID, err)
		}
	}
	return e, nil
}

func (s *SQLiteStorage) loadLines(ctx context.Context, q queryable, e *model.JournalEntry) error {
	rows, err := q.QueryContext(ctx, `
		SELECT side, account_code, account_name, amount, description
		FROM journal_lines
		WHERE entry_id = ?
		ORDER BY side DESC, position
	`, e.EntryID)
	if err != nil {
		return fmt.Errorf("failed to query lines for %s: %w", e.EntryID, err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var (
			side string
			desc sql.NullString
			line model.JournalLine
		)
		if err := rows.Scan(&side, &line.AccountCode, &line.AccountName, &line.Amount, &desc); err != nil {
			return fmt.Errorf("failed to scan line for %s: %w", e.EntryID, err)
		}
		line.Description = desc.String
		if side == sideDebit {
			e.Debits = append(e.Debits, line)
		} else {
			e.Credits = append(e.Credits, line)
		}
	}
	return rows.Err()
}

// GetJournalEntries returns entries matching filter ordered by date and entry ID.
func (s *SQLiteStorage) GetJournalEntries(ctx context.Context, filter model.JournalFilter) ([]model.JournalEntry, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if !filter.Start.IsZero() && !filter.End.IsZero() && filter.End.Before(filter.Start) {
		return nil, ErrInvalidDateRange
	}

	var (
		where []string
		args  []any
	)
	if filter.Status != "" {
		if !filter.Status.Valid() {
			return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, filter.Status)
		}
		where = append(where, "review_status = ?")
		args = append(args, filter.Status)
	}
	if filter.ReviewNeeded {
		where = append(where, "requires_review = 1 AND review_status IN ('pending', 'flagged')")
	}
	if !filter.Start.IsZero() {
		where = append(where, "date >= ?")
		args = append(args, filter.Start)
	}
	if !filter.End.IsZero() {
		where = append(where, "date <= ?")
		args = append(args, filter.End)
	}

	query := "SELECT " + entryColumns + " FROM journal_entries"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY date, entry_id"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query journal entries: %w", err)
	}

	var entries []model.JournalEntry
	for rows.Next() {
		e, scanErr := scanEntry(rows)
		if scanErr != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("failed to scan journal entry: %w", scanErr)
		}
		entries = append(entries, e)
	}
	iterErr := rows.Err()
	_ = rows.Close()
	if iterErr != nil {
		return nil, fmt.Errorf("error iterating journal entries: %w", iterErr)
	}

	// Lines are loaded after the entry cursor closes; the pool holds one connection.
	for i := range entries {
		if err := s.loadLines(ctx, s.db, &entries[i]); err != nil {
			return nil, err
		}
	}
	return entries, nil
}

// GetJournalEntry returns a single entry with its lines.
func (s *SQLiteStorage) GetJournalEntry(ctx context.Context, entryID string) (*model.JournalEntry, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(entryID, "entryID"); err != nil {
		return nil, err
	}
	return s.getEntry(ctx, s.db, entryID)
}

func (s *SQLiteStorage) getEntry(ctx context.Context, q queryable, entryID string) (*model.JournalEntry, error) {
	e, err := scanEntry(q.QueryRowContext(ctx,
		"SELECT "+entryColumns+" FROM journal_entries WHERE entry_id = ?", entryID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("journal entry", entryID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get journal entry %s: %w", entryID, err)
	}
	if err := s.loadLines(ctx, q, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

// UpdateReviewStatus moves an entry through the review workflow. Approval posts
// the entry and is refused for unbalanced entries; any other status unposts it.
func (s *SQLiteStorage) UpdateReviewStatus(ctx context.Context, entryID string, status model.ReviewStatus) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(entryID, "entryID"); err != nil {
		return err
	}
	if !status.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		var isBalanced, requiresReview bool
		err := tx.QueryRowContext(ctx,
			"SELECT is_balanced, requires_review FROM journal_entries WHERE entry_id = ?", entryID).
			Scan(&isBalanced, &requiresReview)
		if errors.Is(err, sql.ErrNoRows) {
			return notFound("journal entry", entryID)
		}
		if err != nil {
			return fmt.Errorf("failed to load journal entry %s: %w", entryID, err)
		}

		posted := false
		switch status {
		case model.ReviewApproved:
			if !isBalanced {
				return fmt.Errorf("cannot approve %s: %w", entryID, common.ErrJournalImbalance)
			}
			posted = true
		case model.ReviewFlagged:
			requiresReview = true
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE journal_entries SET review_status = ?, posted = ?, requires_review = ?
			WHERE entry_id = ?
		`, status, posted, requiresReview, entryID)
		if err != nil {
			return fmt.Errorf("failed to update review status for %s: %w", entryID, err)
		}
		return nil
	})
}

// PostedTotals sums debits and credits across posted entries.
func (s *SQLiteStorage) PostedTotals(ctx context.Context) (debits, credits decimal.Decimal, err error) {
	if err := validateContext(ctx); err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	rows, err := s.db.QueryContext(ctx, "SELECT total_debits, total_credits FROM journal_entries WHERE posted = 1")
	if err != nil {
		return decimal.Zero, decimal.Zero, fmt.Errorf("failed to query posted totals: %w", err)
	}
	defer func() { _ = rows.Close() }()

	debits, credits = decimal.Zero, decimal.Zero
	for rows.Next() {
		var d, c decimal.Decimal
		if err := rows.Scan(&d, &c); err != nil {
			return decimal.Zero, decimal.Zero, fmt.Errorf("failed to scan totals: %w", err)
		}
		debits = debits.Add(d)
		credits = credits.Add(c)
	}
	return debits, credits, rows.Err()
}
