package api

import (
	"database/sql"
	"net/http"

	"github.com/stashbot/stash/internal/config"
	"github.com/stashbot/stash/internal/inventory"
	"github.com/stashbot/stash/internal/model"
	"github.com/stashbot/stash/internal/selection"
)

// NewRouter creates the API router with all endpoints registered. The
// caller owns the session manager so it can sweep it in the background.
func NewRouter(db *sql.DB, cfg config.Config, jwtSecret string, sessions *selection.Manager) http.Handler {
	mux := http.NewServeMux()

	inv := inventory.New(db)

	authHandler := &AuthHandler{DB: db, JWTSecret: jwtSecret}
	accountsHandler := &AccountsHandler{DB: db}
	usersHandler := &UsersHandler{DB: db, Cfg: cfg}
	economyHandler := &EconomyHandler{DB: db, Cfg: cfg}
	itemsHandler := &ItemsHandler{DB: db, Inventory: inv}
	inventoryHandler := &InventoryHandler{DB: db, Cfg: cfg, Inventory: inv, Sessions: sessions}
	sessionsHandler := &SessionsHandler{Sessions: sessions}
	instancesHandler := &InstancesHandler{DB: db, Inventory: inv}

	authMW := AuthMiddleware(jwtSecret, db)
	requireAdmin := RequireRole(model.RoleAdmin)
	requireGateway := RequireRole(model.RoleGateway)

	// Public: login.
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)

	// Authenticated routes.
	mux.Handle("PUT /api/auth/password", authMW(http.HandlerFunc(authHandler.ChangePassword)))
	mux.Handle("POST /api/auth/logout", authMW(http.HandlerFunc(authHandler.Logout)))

	// Operator accounts (admin only).
	mux.Handle("GET /api/accounts", authMW(requireAdmin(http.HandlerFunc(accountsHandler.List))))
	mux.Handle("POST /api/accounts", authMW(requireAdmin(http.HandlerFunc(accountsHandler.Create))))
	mux.Handle("GET /api/accounts/{id}", authMW(requireAdmin(http.HandlerFunc(accountsHandler.Get))))
	mux.Handle("PUT /api/accounts/{id}", authMW(requireAdmin(http.HandlerFunc(accountsHandler.Update))))
	mux.Handle("PUT /api/accounts/{id}/password", authMW(requireAdmin(http.HandlerFunc(accountsHandler.ResetPassword))))
	mux.Handle("DELETE /api/accounts/{id}", authMW(requireAdmin(http.HandlerFunc(accountsHandler.Delete))))

	// Platform users: read (all roles), write (gateway+).
	mux.Handle("GET /api/users", authMW(http.HandlerFunc(usersHandler.List)))
	mux.Handle("PUT /api/users/{id}", authMW(requireGateway(http.HandlerFunc(usersHandler.Ensure))))
	mux.Handle("GET /api/users/{id}", authMW(http.HandlerFunc(usersHandler.Get)))
	mux.Handle("GET /api/users/{id}/balance", authMW(http.HandlerFunc(usersHandler.Balance)))
	mux.Handle("GET /api/users/{id}/profile", authMW(http.HandlerFunc(usersHandler.Profile)))

	// Economy (gateway+).
	mux.Handle("POST /api/users/{id}/economy/deposit", authMW(requireGateway(http.HandlerFunc(economyHandler.Deposit))))
	mux.Handle("POST /api/users/{id}/economy/withdraw", authMW(requireGateway(http.HandlerFunc(economyHandler.Withdraw))))
	mux.Handle("POST /api/users/{id}/economy/pay", authMW(requireGateway(http.HandlerFunc(economyHandler.Pay))))
	mux.Handle("GET /api/payments", authMW(http.HandlerFunc(economyHandler.Payments)))

	// Item catalog: read (all roles), write (admin).
	mux.Handle("GET /api/item-types", authMW(http.HandlerFunc(itemsHandler.ListTypes)))
	mux.Handle("POST /api/item-types", authMW(requireAdmin(http.HandlerFunc(itemsHandler.CreateType))))
	mux.Handle("GET /api/item-types/{id}", authMW(http.HandlerFunc(itemsHandler.GetType)))
	mux.Handle("GET /api/items", authMW(http.HandlerFunc(itemsHandler.List)))
	mux.Handle("POST /api/items", authMW(requireAdmin(http.HandlerFunc(itemsHandler.Create))))
	mux.Handle("GET /api/items/{id}", authMW(http.HandlerFunc(itemsHandler.Get)))
	mux.Handle("GET /api/items/{id}/properties", authMW(http.HandlerFunc(itemsHandler.Properties)))
	mux.Handle("PUT /api/items/{id}", authMW(requireAdmin(http.HandlerFunc(itemsHandler.Update))))
	mux.Handle("DELETE /api/items/{id}", authMW(requireAdmin(http.HandlerFunc(itemsHandler.Delete))))
	mux.Handle("PUT /api/items/{id}/icon", authMW(requireAdmin(http.HandlerFunc(itemsHandler.UploadIcon))))
	mux.Handle("GET /api/items/{id}/icon", authMW(http.HandlerFunc(itemsHandler.GetIcon)))

	// Holdings: read (all roles), write (gateway+).
	mux.Handle("POST /api/users/{id}/items", authMW(requireGateway(http.HandlerFunc(inventoryHandler.Grant))))
	mux.Handle("DELETE /api/users/{id}/items", authMW(requireGateway(http.HandlerFunc(inventoryHandler.Remove))))
	mux.Handle("GET /api/users/{id}/inventory", authMW(http.HandlerFunc(inventoryHandler.List)))
	mux.Handle("GET /api/users/{id}/items/{itemID}/quantity", authMW(http.HandlerFunc(inventoryHandler.Quantity)))
	mux.Handle("POST /api/users/{id}/move", authMW(requireGateway(http.HandlerFunc(inventoryHandler.Move))))

	// Selection sessions (gateway+ for input).
	mux.Handle("GET /api/sessions/{id}", authMW(http.HandlerFunc(sessionsHandler.Get)))
	mux.Handle("POST /api/sessions/{id}/input", authMW(requireGateway(http.HandlerFunc(sessionsHandler.Input))))

	// Unique-item instances.
	mux.Handle("GET /api/instances/{id}", authMW(http.HandlerFunc(instancesHandler.Get)))
	mux.Handle("PUT /api/instances/{id}", authMW(requireGateway(http.HandlerFunc(instancesHandler.Update))))

	return mux
}
