package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"expensetracker/internal/core"
)

const expenseColumns = `id, account_id, amount, date, category, created_at`

// CreateExpense stores a new expense owned by accountID. The foreign key
// rejects unknown accounts.
func (r *SQLiteRepository) CreateExpense(ctx context.Context, accountID int64, e core.NewExpense) (core.Expense, error) {
	expense := core.Expense{
		AccountID: accountID,
		Amount:    e.Amount,
		Date:      e.Date,
		Category:  e.Category,
	}
	var createdAt sqliteTime
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO expenses (account_id, amount, date, category) VALUES (?, ?, ?, ?) RETURNING id, created_at`,
		accountID, core.FormatAmount(e.Amount), e.Date.String(), e.Category,
	).Scan(&expense.ID, &createdAt)
	if err != nil {
		return core.Expense{}, fmt.Errorf("create expense: %w", err)
	}
	expense.CreatedAt = createdAt.Time
	return expense, nil
}

// ListExpensesByAccount returns every expense of accountID in insertion order.
func (r *SQLiteRepository) ListExpensesByAccount(ctx context.Context, accountID int64) ([]core.Expense, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+expenseColumns+` FROM expenses WHERE account_id = ? ORDER BY id`, accountID)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	expenses := []core.Expense{}
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("list expenses: %w", err)
		}
		expenses = append(expenses, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	return expenses, nil
}

// GetExpense retrieves a single expense by ID
func (r *SQLiteRepository) GetExpense(ctx context.Context, id int64) (core.Expense, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+expenseColumns+` FROM expenses WHERE id = ?`, id)
	e, err := scanExpense(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Expense{}, core.ErrExpenseNotFound
	}
	if err != nil {
		return core.Expense{}, fmt.Errorf("get expense by id: %w", err)
	}
	return e, nil
}

// GetPendingSyncExpenses returns up to limit expenses not yet exported,
// oldest first, with previously failed rows after fresh ones.
func (r *SQLiteRepository) GetPendingSyncExpenses(ctx context.Context, limit int) ([]core.Expense, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+expenseColumns+` FROM expenses WHERE synced_at IS NULL ORDER BY sync_error, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("get pending sync expenses: %w", err)
	}
	defer rows.Close()

	var expenses []core.Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("get pending sync expenses: %w", err)
		}
		expenses = append(expenses, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("get pending sync expenses: %w", err)
	}
	return expenses, nil
}

// MarkSynced marks an expense as successfully synced
func (r *SQLiteRepository) MarkSynced(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE expenses SET synced_at = ?, sync_error = 0 WHERE id = ?`, formatTimestamp(time.Now()), id); err != nil {
		return fmt.Errorf("mark expense synced: %w", err)
	}
	return nil
}

// MarkSyncError marks an expense as having sync errors
func (r *SQLiteRepository) MarkSyncError(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE expenses SET sync_error = 1 WHERE id = ?`, id); err != nil {
		return fmt.Errorf("mark expense sync error: %w", err)
	}
	return nil
}

// SyncStatus reports when an expense was exported and whether the last
// attempt failed.
func (r *SQLiteRepository) SyncStatus(ctx context.Context, id int64) (syncedAt time.Time, failed bool, err error) {
	var synced sqliteTime
	err = r.db.QueryRowContext(ctx, `SELECT synced_at, sync_error FROM expenses WHERE id = ?`, id).Scan(&synced, &failed)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, false, core.ErrExpenseNotFound
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("get sync status: %w", err)
	}
	return synced.Time, failed, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanExpense(row rowScanner) (core.Expense, error) {
	var (
		e         core.Expense
		amount    string
		date      string
		createdAt sqliteTime
	)
	if err := row.Scan(&e.ID, &e.AccountID, &amount, &date, &e.Category, &createdAt); err != nil {
		return core.Expense{}, err
	}
	parsedAmount, err := core.ParseAmount(amount)
	if err != nil {
		return core.Expense{}, fmt.Errorf("expense %d: stored amount %q: %v", e.ID, amount, err)
	}
	parsedDate, err := core.ParseDate(date)
	if err != nil {
		return core.Expense{}, fmt.Errorf("expense %d: stored date %q: %v", e.ID, date, err)
	}
	e.Amount = parsedAmount
	e.Date = parsedDate
	e.CreatedAt = createdAt.Time
	return e, nil
}
