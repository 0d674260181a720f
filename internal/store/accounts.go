package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/stashbot/stash/internal/model"
)

// CreateAccount creates a new API operator account.
func CreateAccount(ctx context.Context, db *sql.DB, username, passwordHash, role string) (*model.Account, error) {
	result, err := db.ExecContext(ctx,
		`INSERT INTO accounts (username, password_hash, role) VALUES (?, ?, ?)`,
		username, passwordHash, role,
	)
	if err != nil {
		return nil, fmt.Errorf("creating account: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting account id: %w", err)
	}

	return GetAccount(ctx, db, id)
}

// GetAccount returns an account by ID.
func GetAccount(ctx context.Context, db *sql.DB, id int64) (*model.Account, error) {
	a := &model.Account{}
	err := db.QueryRowContext(ctx,
		`SELECT id, username, password_hash, role, created_at, deleted_at
		 FROM accounts WHERE id = ?`, id,
	).Scan(&a.ID, &a.Username, &a.PasswordHash, &a.Role, &a.CreatedAt, &a.DeletedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting account: %w", err)
	}
	return a, nil
}

// GetAccountByUsername returns an account by username (including
// soft-deleted, for auth checks).
func GetAccountByUsername(ctx context.Context, db *sql.DB, username string) (*model.Account, error) {
	a := &model.Account{}
	err := db.QueryRowContext(ctx,
		`SELECT id, username, password_hash, role, created_at, deleted_at
		 FROM accounts WHERE username = ?
		 ORDER BY deleted_at IS NOT NULL, id DESC LIMIT 1`, username,
	).Scan(&a.ID, &a.Username, &a.PasswordHash, &a.Role, &a.CreatedAt, &a.DeletedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting account by username: %w", err)
	}
	return a, nil
}

// ListAccounts returns all non-deleted accounts.
func ListAccounts(ctx context.Context, db *sql.DB) ([]model.Account, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, username, password_hash, role, created_at, deleted_at
		 FROM accounts WHERE deleted_at IS NULL ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing accounts: %w", err)
	}
	defer rows.Close()

	var accounts []model.Account
	for rows.Next() {
		var a model.Account
		if err := rows.Scan(&a.ID, &a.Username, &a.PasswordHash, &a.Role, &a.CreatedAt, &a.DeletedAt); err != nil {
			return nil, fmt.Errorf("scanning account: %w", err)
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

// UpdateAccountRole updates an account's role.
func UpdateAccountRole(ctx context.Context, db *sql.DB, id int64, role string) error {
	_, err := db.ExecContext(ctx,
		`UPDATE accounts SET role = ? WHERE id = ? AND deleted_at IS NULL`,
		role, id,
	)
	if err != nil {
		return fmt.Errorf("updating account: %w", err)
	}
	return nil
}

// UpdateAccountPassword updates an account's password hash.
func UpdateAccountPassword(ctx context.Context, db *sql.DB, id int64, passwordHash string) error {
	_, err := db.ExecContext(ctx,
		`UPDATE accounts SET password_hash = ? WHERE id = ? AND deleted_at IS NULL`,
		passwordHash, id,
	)
	if err != nil {
		return fmt.Errorf("updating account password: %w", err)
	}
	return nil
}

// DeleteAccount soft-deletes an account.
func DeleteAccount(ctx context.Context, db *sql.DB, id int64) error {
	_, err := db.ExecContext(ctx,
		`UPDATE accounts SET deleted_at = CURRENT_TIMESTAMP WHERE id = ? AND deleted_at IS NULL`,
		id,
	)
	if err != nil {
		return fmt.Errorf("deleting account: %w", err)
	}
	return nil
}
