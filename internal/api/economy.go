package api

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/stashbot/stash/internal/config"
	"github.com/stashbot/stash/internal/model"
	"github.com/stashbot/stash/internal/store"
)

// EconomyHandler handles wallet and bank operations on behalf of users.
type EconomyHandler struct {
	DB  *sql.DB
	Cfg config.Config
}

type amountRequest struct {
	Amount string `json:"amount"`
}

type payRequest struct {
	Amount   string `json:"amount"`
	ToUserID int64  `json:"to_user_id"`
}

// economyError maps the store's sentinel errors to API responses.
func economyError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrInsufficientFunds):
		jsonError(w, http.StatusUnprocessableEntity, "insufficient funds")
	case errors.Is(err, store.ErrInsufficientSpace):
		jsonError(w, http.StatusUnprocessableEntity, "not enough space in the bank")
	case errors.Is(err, store.ErrSamePayer):
		jsonError(w, http.StatusBadRequest, "cannot pay yourself")
	case errors.Is(err, store.ErrUnknownUser):
		jsonError(w, http.StatusNotFound, "user not found")
	default:
		jsonError(w, http.StatusInternalServerError, "internal error")
	}
}

// balancePayload renders a user's post-operation balances.
func (h *EconomyHandler) balancePayload(user *model.User) map[string]any {
	sym := h.Cfg.CurrencySymbol
	return map[string]any{
		"wallet":         user.Wallet,
		"bank":           user.Bank,
		"wallet_display": formatCents(sym, user.Wallet),
		"bank_display":   formatCents(sym, user.Bank),
	}
}

// Deposit handles POST /api/users/{id}/economy/deposit. The amount string
// is relative to the wallet, bounded by remaining bank space.
func (h *EconomyHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	id, ok := userID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	var req amountRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := store.GetUser(r.Context(), h.DB, id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if user == nil {
		jsonError(w, http.StatusNotFound, "user not found")
		return
	}

	// "all" deposits whatever fits in the bank, never more than the
	// wallet holds.
	available := min(user.Wallet, user.BankCap-user.Bank)
	amount, err := parseAmount(req.Amount, available)
	if errors.Is(err, errNothingAvailable) {
		// Tell the user which limit they hit: empty wallet or full bank.
		if user.Wallet <= 0 {
			economyError(w, store.ErrInsufficientFunds)
		} else {
			economyError(w, store.ErrInsufficientSpace)
		}
		return
	}
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid amount")
		return
	}

	user, err = store.Deposit(r.Context(), h.DB, id, amount)
	if err != nil {
		economyError(w, err)
		return
	}

	slog.Info("deposit", "user", id, "amount", amount)
	jsonResponse(w, http.StatusOK, h.balancePayload(user))
}

// Withdraw handles POST /api/users/{id}/economy/withdraw.
func (h *EconomyHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	id, ok := userID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	var req amountRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := store.GetUser(r.Context(), h.DB, id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if user == nil {
		jsonError(w, http.StatusNotFound, "user not found")
		return
	}

	amount, err := parseAmount(req.Amount, user.Bank)
	if errors.Is(err, errNothingAvailable) {
		economyError(w, store.ErrInsufficientFunds)
		return
	}
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid amount")
		return
	}

	user, err = store.Withdraw(r.Context(), h.DB, id, amount)
	if err != nil {
		economyError(w, err)
		return
	}

	slog.Info("withdraw", "user", id, "amount", amount)
	jsonResponse(w, http.StatusOK, h.balancePayload(user))
}

// Pay handles POST /api/users/{id}/economy/pay: wallet-to-wallet transfer
// to another user.
func (h *EconomyHandler) Pay(w http.ResponseWriter, r *http.Request) {
	id, ok := userID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	var req payRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ToUserID <= 0 {
		jsonError(w, http.StatusBadRequest, "to_user_id required")
		return
	}

	user, err := store.GetUser(r.Context(), h.DB, id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if user == nil {
		jsonError(w, http.StatusNotFound, "user not found")
		return
	}

	amount, err := parseAmount(req.Amount, user.Wallet)
	if errors.Is(err, errNothingAvailable) {
		economyError(w, store.ErrInsufficientFunds)
		return
	}
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid amount")
		return
	}

	if err := store.Pay(r.Context(), h.DB, id, req.ToUserID, amount); err != nil {
		economyError(w, err)
		return
	}

	slog.Info("payment", "from", id, "to", req.ToUserID, "amount", amount)

	user, err = store.GetUser(r.Context(), h.DB, id)
	if err != nil || user == nil {
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}
	jsonResponse(w, http.StatusOK, h.balancePayload(user))
}

// Payments handles GET /api/payments?user_id=. The ledger is newest first.
func (h *EconomyHandler) Payments(w http.ResponseWriter, r *http.Request) {
	v := r.URL.Query().Get("user_id")
	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil || id <= 0 {
		jsonError(w, http.StatusBadRequest, "invalid user_id")
		return
	}

	payments, err := store.ListPayments(r.Context(), h.DB, id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to list payments")
		return
	}
	if payments == nil {
		payments = []model.Payment{}
	}
	jsonResponse(w, http.StatusOK, payments)
}
