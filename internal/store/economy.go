package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/stashbot/stash/internal/model"
)

// Economy business-rule failures. These are distinct user-facing conditions,
// not infrastructure errors.
var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrInsufficientSpace = errors.New("insufficient bank space")
	ErrSamePayer         = errors.New("cannot pay yourself")
	ErrUnknownUser       = errors.New("unknown user")
)

// Deposit moves amount cents from a user's wallet into their bank, bounded
// by wallet funds and remaining bank capacity. Runs as one transaction and
// records a ledger row.
func Deposit(ctx context.Context, db *sql.DB, userID, amount int64) (*model.User, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("amount must be positive")
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var wallet, bank, bankCap int64
	err = tx.QueryRowContext(ctx,
		`SELECT wallet, bank, bank_cap FROM users WHERE id = ?`, userID,
	).Scan(&wallet, &bank, &bankCap)
	if err == sql.ErrNoRows {
		return nil, ErrUnknownUser
	}
	if err != nil {
		return nil, fmt.Errorf("reading balance: %w", err)
	}

	if amount > wallet {
		return nil, ErrInsufficientFunds
	}
	if amount > bankCap-bank {
		return nil, ErrInsufficientSpace
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE users SET wallet = wallet - ?, bank = bank + ? WHERE id = ?`,
		amount, amount, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("depositing: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO payments (kind, from_user_id, to_user_id, amount) VALUES (?, ?, ?, ?)`,
		model.PaymentDeposit, userID, userID, amount,
	)
	if err != nil {
		return nil, fmt.Errorf("recording deposit: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing deposit: %w", err)
	}

	return GetUser(ctx, db, userID)
}

// Withdraw moves amount cents from a user's bank back into their wallet.
func Withdraw(ctx context.Context, db *sql.DB, userID, amount int64) (*model.User, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("amount must be positive")
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var bank int64
	err = tx.QueryRowContext(ctx,
		`SELECT bank FROM users WHERE id = ?`, userID,
	).Scan(&bank)
	if err == sql.ErrNoRows {
		return nil, ErrUnknownUser
	}
	if err != nil {
		return nil, fmt.Errorf("reading balance: %w", err)
	}

	if amount > bank {
		return nil, ErrInsufficientFunds
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE users SET wallet = wallet + ?, bank = bank - ? WHERE id = ?`,
		amount, amount, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("withdrawing: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO payments (kind, from_user_id, to_user_id, amount) VALUES (?, ?, ?, ?)`,
		model.PaymentWithdraw, userID, userID, amount,
	)
	if err != nil {
		return nil, fmt.Errorf("recording withdrawal: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing withdrawal: %w", err)
	}

	return GetUser(ctx, db, userID)
}

// Pay transfers amount cents between two users' wallets in one transaction
// and records a ledger row.
func Pay(ctx context.Context, db *sql.DB, fromUserID, toUserID, amount int64) error {
	if fromUserID == toUserID {
		return ErrSamePayer
	}
	if amount <= 0 {
		return fmt.Errorf("amount must be positive")
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var wallet int64
	err = tx.QueryRowContext(ctx,
		`SELECT wallet FROM users WHERE id = ?`, fromUserID,
	).Scan(&wallet)
	if err == sql.ErrNoRows {
		return ErrUnknownUser
	}
	if err != nil {
		return fmt.Errorf("reading payer balance: %w", err)
	}

	if amount > wallet {
		return ErrInsufficientFunds
	}

	result, err := tx.ExecContext(ctx,
		`UPDATE users SET wallet = wallet + ? WHERE id = ?`, amount, toUserID,
	)
	if err != nil {
		return fmt.Errorf("crediting recipient: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return ErrUnknownUser
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE users SET wallet = wallet - ? WHERE id = ?`, amount, fromUserID,
	)
	if err != nil {
		return fmt.Errorf("debiting payer: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO payments (kind, from_user_id, to_user_id, amount) VALUES (?, ?, ?, ?)`,
		model.PaymentPay, fromUserID, toUserID, amount,
	)
	if err != nil {
		return fmt.Errorf("recording payment: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing payment: %w", err)
	}
	return nil
}

// ListPayments returns ledger rows, newest first, optionally filtered to
// rows touching one user.
func ListPayments(ctx context.Context, db *sql.DB, userID int64) ([]model.Payment, error) {
	query := `SELECT id, kind, from_user_id, to_user_id, amount, created_at FROM payments`
	var args []any

	if userID > 0 {
		query += ` WHERE from_user_id = ? OR to_user_id = ?`
		args = append(args, userID, userID)
	}

	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing payments: %w", err)
	}
	defer rows.Close()

	var payments []model.Payment
	for rows.Next() {
		var p model.Payment
		if err := rows.Scan(&p.ID, &p.Kind, &p.FromUserID, &p.ToUserID, &p.Amount, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning payment: %w", err)
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}
