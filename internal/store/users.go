package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/stashbot/stash/internal/model"
)

// EnsureUser creates a user row on first contact, funding the wallet and
// bank capacity with the configured starting values. Returns the user and
// whether it was just created.
func EnsureUser(ctx context.Context, db *sql.DB, id int64, username string, startWallet, startBankCap int64) (*model.User, bool, error) {
	result, err := db.ExecContext(ctx,
		`INSERT OR IGNORE INTO users (id, username, wallet, bank_cap) VALUES (?, ?, ?, ?)`,
		id, username, startWallet, startBankCap,
	)
	if err != nil {
		return nil, false, fmt.Errorf("ensuring user: %w", err)
	}

	created := false
	if n, err := result.RowsAffected(); err == nil && n > 0 {
		created = true
	}

	if !created && username != "" {
		// Keep the cached platform username fresh.
		_, err = db.ExecContext(ctx,
			`UPDATE users SET username = ? WHERE id = ? AND username <> ?`,
			username, id, username,
		)
		if err != nil {
			return nil, false, fmt.Errorf("updating username: %w", err)
		}
	}

	user, err := GetUser(ctx, db, id)
	if err != nil {
		return nil, false, err
	}
	return user, created, nil
}

// GetUser returns a user by platform ID.
func GetUser(ctx context.Context, db *sql.DB, id int64) (*model.User, error) {
	u := &model.User{}
	err := db.QueryRowContext(ctx,
		`SELECT id, username, wallet, bank, bank_cap, level, exp, created_at
		 FROM users WHERE id = ?`, id,
	).Scan(&u.ID, &u.Username, &u.Wallet, &u.Bank, &u.BankCap, &u.Level, &u.Exp, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting user: %w", err)
	}
	return u, nil
}

// UserExists reports whether a user row exists for the platform ID.
func UserExists(ctx context.Context, db *sql.DB, id int64) (bool, error) {
	var one int
	err := db.QueryRowContext(ctx,
		`SELECT 1 FROM users WHERE id = ?`, id,
	).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking user: %w", err)
	}
	return true, nil
}

// ListUsers returns all users ordered by ID.
func ListUsers(ctx context.Context, db *sql.DB) ([]model.User, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, username, wallet, bank, bank_cap, level, exp, created_at
		 FROM users ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.Username, &u.Wallet, &u.Bank, &u.BankCap, &u.Level, &u.Exp, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}
