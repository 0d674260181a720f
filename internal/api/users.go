package api

import (
	"database/sql"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/stashbot/stash/internal/config"
	"github.com/stashbot/stash/internal/model"
	"github.com/stashbot/stash/internal/store"
)

// UsersHandler handles platform-user registration and profile endpoints.
type UsersHandler struct {
	DB  *sql.DB
	Cfg config.Config
}

type ensureUserRequest struct {
	Username string `json:"username"`
}

// userID parses the {id} path value, a platform user snowflake.
func userID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	return id, err == nil && id > 0
}

// Ensure handles PUT /api/users/{id}. The gateway calls this on a user's
// first interaction; existing users just get their username refreshed.
func (h *UsersHandler) Ensure(w http.ResponseWriter, r *http.Request) {
	id, ok := userID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	var req ensureUserRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, created, err := store.EnsureUser(r.Context(), h.DB, id, req.Username,
		h.Cfg.NewUserWallet, h.Cfg.NewUserBankCap)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to register user")
		return
	}

	status := http.StatusOK
	if created {
		slog.Info("user registered", "user", id, "username", req.Username)
		status = http.StatusCreated
	}
	jsonResponse(w, status, user)
}

// Get handles GET /api/users/{id}.
func (h *UsersHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := userID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	user, err := store.GetUser(r.Context(), h.DB, id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get user")
		return
	}
	if user == nil {
		jsonError(w, http.StatusNotFound, "user not found")
		return
	}
	jsonResponse(w, http.StatusOK, user)
}

// Balance handles GET /api/users/{id}/balance. The display strings are
// ready for a chat embed.
func (h *UsersHandler) Balance(w http.ResponseWriter, r *http.Request) {
	id, ok := userID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	user, err := store.GetUser(r.Context(), h.DB, id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get user")
		return
	}
	if user == nil {
		jsonError(w, http.StatusNotFound, "user not found")
		return
	}

	sym := h.Cfg.CurrencySymbol
	jsonResponse(w, http.StatusOK, map[string]any{
		"wallet":           user.Wallet,
		"bank":             user.Bank,
		"bank_cap":         user.BankCap,
		"wallet_display":   formatCents(sym, user.Wallet),
		"bank_display":     formatCents(sym, user.Bank),
		"bank_cap_display": formatCents(sym, user.BankCap),
	})
}

// Profile handles GET /api/users/{id}/profile: economy state plus item
// counts, everything a profile embed needs in one call.
func (h *UsersHandler) Profile(w http.ResponseWriter, r *http.Request) {
	id, ok := userID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	user, err := store.GetUser(r.Context(), h.DB, id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get user")
		return
	}
	if user == nil {
		jsonError(w, http.StatusNotFound, "user not found")
		return
	}

	holdings, err := store.ListHoldingRows(r.Context(), h.DB, id, "")
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to list holdings")
		return
	}
	instances, err := store.ListInstances(r.Context(), h.DB, id, "")
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to list instances")
		return
	}

	items := len(instances)
	for _, row := range holdings {
		items += row.Quantity
	}

	sym := h.Cfg.CurrencySymbol
	jsonResponse(w, http.StatusOK, map[string]any{
		"user":           user,
		"net_worth":      user.Wallet + user.Bank,
		"worth_display":  formatCents(sym, user.Wallet+user.Bank),
		"item_count":     items,
		"unique_items":   len(instances),
		"fungible_items": items - len(instances),
	})
}

// List handles GET /api/users.
func (h *UsersHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := store.ListUsers(r.Context(), h.DB)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to list users")
		return
	}
	if users == nil {
		users = []model.User{}
	}
	jsonResponse(w, http.StatusOK, users)
}
