package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"expensetracker/internal/core"
)

// CreateAccount inserts a new account in a single statement. The UNIQUE
// constraint on email is the only duplicate check.
func (r *SQLiteRepository) CreateAccount(ctx context.Context, email, username, passwordHash string) (core.Account, error) {
	var (
		account   = core.Account{Email: email, Username: username, PasswordHash: passwordHash}
		createdAt sqliteTime
	)
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO accounts (email, username, password_hash) VALUES (?, ?, ?) RETURNING id, created_at`,
		email, username, passwordHash,
	).Scan(&account.ID, &createdAt)
	if err != nil {
		if isUniqueViolation(err) {
			return core.Account{}, fmt.Errorf("create account: %w", core.ErrAccountExists)
		}
		return core.Account{}, fmt.Errorf("create account: %w", err)
	}
	account.CreatedAt = createdAt.Time
	return account, nil
}

// GetAccountByEmail looks up an account by email, case-insensitively.
func (r *SQLiteRepository) GetAccountByEmail(ctx context.Context, email string) (core.Account, error) {
	return r.getAccount(ctx, `SELECT id, email, username, password_hash, created_at FROM accounts WHERE email = ?`, email)
}

func (r *SQLiteRepository) GetAccountByID(ctx context.Context, id int64) (core.Account, error) {
	return r.getAccount(ctx, `SELECT id, email, username, password_hash, created_at FROM accounts WHERE id = ?`, id)
}

func (r *SQLiteRepository) getAccount(ctx context.Context, query string, arg any) (core.Account, error) {
	var (
		account   core.Account
		createdAt sqliteTime
	)
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&account.ID, &account.Email, &account.Username, &account.PasswordHash, &createdAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Account{}, core.ErrAccountNotFound
	}
	if err != nil {
		return core.Account{}, fmt.Errorf("get account: %w", err)
	}
	account.CreatedAt = createdAt.Time
	return account, nil
}
