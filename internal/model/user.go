package model

import "time"

// User represents a chat-platform user and their economy state. The ID is
// the platform's own user identifier, supplied by the gateway, never
// generated here. Currency fields are integer cents.
type User struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username,omitempty"`
	Wallet    int64     `json:"wallet"`
	Bank      int64     `json:"bank"`
	BankCap   int64     `json:"bank_cap"`
	Level     int       `json:"level"`
	Exp       int64     `json:"exp"`
	CreatedAt time.Time `json:"created_at"`
}

// Payment is one row of the economy ledger.
type Payment struct {
	ID         int64     `json:"id"`
	Kind       string    `json:"kind"`
	FromUserID *int64    `json:"from_user_id,omitempty"`
	ToUserID   *int64    `json:"to_user_id,omitempty"`
	Amount     int64     `json:"amount"`
	CreatedAt  time.Time `json:"created_at"`
}

// Payment kinds.
const (
	PaymentDeposit  = "deposit"
	PaymentWithdraw = "withdraw"
	PaymentPay      = "pay"
)
