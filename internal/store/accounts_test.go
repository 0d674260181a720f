package store

import (
	"context"
	"testing"

	"github.com/stashbot/stash/internal/db"
	"github.com/stashbot/stash/internal/model"
)

func TestAccountLifecycle(t *testing.T) {
	ctx := context.Background()
	database := db.NewTestDB(t)

	account, err := CreateAccount(ctx, database, "gateway", "hash", model.RoleGateway)
	if err != nil {
		t.Fatalf("CreateAccount() error = %v", err)
	}
	if account.Role != model.RoleGateway {
		t.Errorf("role = %q, want gateway", account.Role)
	}

	byName, err := GetAccountByUsername(ctx, database, "gateway")
	if err != nil {
		t.Fatalf("GetAccountByUsername() error = %v", err)
	}
	if byName == nil || byName.ID != account.ID {
		t.Errorf("GetAccountByUsername() = %+v", byName)
	}

	if err := UpdateAccountRole(ctx, database, account.ID, model.RoleReadonly); err != nil {
		t.Fatalf("UpdateAccountRole() error = %v", err)
	}
	got, _ := GetAccount(ctx, database, account.ID)
	if got.Role != model.RoleReadonly {
		t.Errorf("role after update = %q, want readonly", got.Role)
	}

	if err := DeleteAccount(ctx, database, account.ID); err != nil {
		t.Fatalf("DeleteAccount() error = %v", err)
	}

	// Soft delete: listed accounts exclude it, lookups still find it so
	// login can reject it explicitly.
	accounts, err := ListAccounts(ctx, database)
	if err != nil {
		t.Fatalf("ListAccounts() error = %v", err)
	}
	if len(accounts) != 0 {
		t.Errorf("ListAccounts() = %d accounts, want 0", len(accounts))
	}

	byName, _ = GetAccountByUsername(ctx, database, "gateway")
	if byName == nil || byName.DeletedAt == nil {
		t.Errorf("deleted account lookup = %+v, want row with DeletedAt", byName)
	}

	// The username frees up for reuse.
	if _, err := CreateAccount(ctx, database, "gateway", "hash2", model.RoleGateway); err != nil {
		t.Errorf("CreateAccount(reused username) error = %v", err)
	}
}

func TestRoleAtLeast(t *testing.T) {
	if !model.RoleAtLeast(model.RoleAdmin, model.RoleGateway) {
		t.Error("admin should satisfy gateway")
	}
	if model.RoleAtLeast(model.RoleReadonly, model.RoleGateway) {
		t.Error("readonly should not satisfy gateway")
	}
	if model.RoleAtLeast("bogus", model.RoleReadonly) {
		t.Error("unknown role should satisfy nothing")
	}
}
