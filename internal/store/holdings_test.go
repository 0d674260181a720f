package store

import (
	"context"
	"database/sql"
	"slices"
	"testing"

	"github.com/stashbot/stash/internal/db"
	"github.com/stashbot/stash/internal/model"
)

const testUserID = int64(42)

// setupHoldings creates a catalog with one fungible item (Coin) and one
// unique item (Shield) and returns their IDs.
func setupHoldings(t *testing.T) (context.Context, *sql.DB, int64, int64) {
	t.Helper()

	ctx := context.Background()
	database := db.NewTestDB(t)

	if _, _, err := EnsureUser(ctx, database, testUserID, "tester", 0, 0); err != nil {
		t.Fatalf("registering tester: %v", err)
	}

	coin, err := CreateItem(ctx, database, 0, "Coin", "Coins", false, nil)
	if err != nil {
		t.Fatalf("creating coin: %v", err)
	}
	shield, err := CreateItem(ctx, database, 0, "Shield", "Shields", true, nil)
	if err != nil {
		t.Fatalf("creating shield: %v", err)
	}
	return ctx, database, coin.ID, shield.ID
}

func mustQuantity(t *testing.T, ctx context.Context, database *sql.DB, itemID int64, loc model.Location) int {
	t.Helper()
	qty, err := HoldingQuantity(ctx, database, testUserID, itemID, loc)
	if err != nil {
		t.Fatalf("HoldingQuantity() error = %v", err)
	}
	return qty
}

func TestAddFungibleAccumulates(t *testing.T) {
	ctx, database, coin, _ := setupHoldings(t)

	if _, err := AddFungible(ctx, database, testUserID, coin, 3, model.LocationHome); err != nil {
		t.Fatalf("AddFungible() error = %v", err)
	}
	if _, err := AddFungible(ctx, database, testUserID, coin, 2, model.LocationHome); err != nil {
		t.Fatalf("AddFungible() error = %v", err)
	}
	if _, err := AddFungible(ctx, database, testUserID, coin, 4, model.LocationBag); err != nil {
		t.Fatalf("AddFungible() error = %v", err)
	}

	if got := mustQuantity(t, ctx, database, coin, model.LocationHome); got != 5 {
		t.Errorf("home quantity = %d, want 5", got)
	}
	if got := mustQuantity(t, ctx, database, coin, model.LocationBag); got != 4 {
		t.Errorf("bag quantity = %d, want 4", got)
	}
	if got := mustQuantity(t, ctx, database, coin, ""); got != 9 {
		t.Errorf("total quantity = %d, want 9", got)
	}
}

func TestAddFungibleClampsToOne(t *testing.T) {
	ctx, database, coin, _ := setupHoldings(t)

	// Zero and negative amounts grant a single unit.
	for _, amount := range []int{0, -7} {
		granted, err := AddFungible(ctx, database, testUserID, coin, amount, model.LocationHome)
		if err != nil {
			t.Fatalf("AddFungible(%d) error = %v", amount, err)
		}
		if granted != 1 {
			t.Errorf("AddFungible(%d) granted = %d, want 1", amount, granted)
		}
	}

	if got := mustQuantity(t, ctx, database, coin, model.LocationHome); got != 2 {
		t.Errorf("quantity = %d, want 2", got)
	}
}

func TestAddFungibleIgnoresUnknownAndUniqueItems(t *testing.T) {
	ctx, database, _, shield := setupHoldings(t)

	granted, err := AddFungible(ctx, database, testUserID, 9999, 1, model.LocationHome)
	if err != nil {
		t.Fatalf("AddFungible(unknown) error = %v", err)
	}
	if granted != 0 {
		t.Errorf("AddFungible(unknown) granted = %d, want 0", granted)
	}
	granted, err = AddFungible(ctx, database, testUserID, shield, 1, model.LocationHome)
	if err != nil {
		t.Fatalf("AddFungible(unique) error = %v", err)
	}
	if granted != 0 {
		t.Errorf("AddFungible(unique) granted = %d, want 0", granted)
	}

	var count int
	if err := database.QueryRow(`SELECT COUNT(*) FROM holdings`).Scan(&count); err != nil {
		t.Fatalf("counting holdings: %v", err)
	}
	if count != 0 {
		t.Errorf("holding rows = %d, want 0", count)
	}
}

func TestRemoveFungible(t *testing.T) {
	ctx, database, coin, _ := setupHoldings(t)

	if _, err := AddFungible(ctx, database, testUserID, coin, 5, model.LocationHome); err != nil {
		t.Fatalf("AddFungible() error = %v", err)
	}

	// More than held: refused, nothing changes.
	ok, err := RemoveFungible(ctx, database, testUserID, coin, 6, model.LocationHome)
	if err != nil {
		t.Fatalf("RemoveFungible() error = %v", err)
	}
	if ok {
		t.Error("RemoveFungible() removed more than held")
	}
	if got := mustQuantity(t, ctx, database, coin, model.LocationHome); got != 5 {
		t.Errorf("quantity = %d, want 5", got)
	}

	ok, err = RemoveFungible(ctx, database, testUserID, coin, 3, model.LocationHome)
	if err != nil {
		t.Fatalf("RemoveFungible() error = %v", err)
	}
	if !ok {
		t.Error("RemoveFungible() = false, want true")
	}
	if got := mustQuantity(t, ctx, database, coin, model.LocationHome); got != 2 {
		t.Errorf("quantity = %d, want 2", got)
	}

	// Removing the rest deletes the row entirely.
	if ok, _ = RemoveFungible(ctx, database, testUserID, coin, 2, model.LocationHome); !ok {
		t.Error("RemoveFungible() = false, want true")
	}
	exists, err := HoldingExists(ctx, database, testUserID, coin, model.LocationHome)
	if err != nil {
		t.Fatalf("HoldingExists() error = %v", err)
	}
	if exists {
		t.Error("holding row survived removal to zero")
	}
}

func TestRemoveFungibleFromAbsentHolding(t *testing.T) {
	ctx, database, coin, shield := setupHoldings(t)

	ok, err := RemoveFungible(ctx, database, testUserID, coin, 1, model.LocationBag)
	if err != nil {
		t.Fatalf("RemoveFungible() error = %v", err)
	}
	if ok {
		t.Error("RemoveFungible() = true for absent holding")
	}

	ok, err = RemoveFungible(ctx, database, testUserID, shield, 1, model.LocationHome)
	if err != nil {
		t.Fatalf("RemoveFungible() error = %v", err)
	}
	if ok {
		t.Error("RemoveFungible() = true for unique item")
	}
}

func TestSetFungibleQuantity(t *testing.T) {
	ctx, database, coin, _ := setupHoldings(t)

	if err := SetFungibleQuantity(ctx, database, testUserID, coin, 7, model.LocationBag); err != nil {
		t.Fatalf("SetFungibleQuantity() error = %v", err)
	}
	if got := mustQuantity(t, ctx, database, coin, model.LocationBag); got != 7 {
		t.Errorf("quantity = %d, want 7", got)
	}

	if err := SetFungibleQuantity(ctx, database, testUserID, coin, 2, model.LocationBag); err != nil {
		t.Fatalf("SetFungibleQuantity() error = %v", err)
	}
	if got := mustQuantity(t, ctx, database, coin, model.LocationBag); got != 2 {
		t.Errorf("quantity = %d, want 2", got)
	}

	// Below one deletes the row.
	if err := SetFungibleQuantity(ctx, database, testUserID, coin, 0, model.LocationBag); err != nil {
		t.Fatalf("SetFungibleQuantity() error = %v", err)
	}
	exists, err := HoldingExists(ctx, database, testUserID, coin, model.LocationBag)
	if err != nil {
		t.Fatalf("HoldingExists() error = %v", err)
	}
	if exists {
		t.Error("holding row survived being set to zero")
	}
}

func TestFungibleMoveByTwoSets(t *testing.T) {
	ctx, database, coin, _ := setupHoldings(t)

	// Bring 3 of 5 home-coins into the bag, leaving 2 at home.
	if _, err := AddFungible(ctx, database, testUserID, coin, 5, model.LocationHome); err != nil {
		t.Fatalf("AddFungible() error = %v", err)
	}
	if err := SetFungibleQuantity(ctx, database, testUserID, coin, 2, model.LocationHome); err != nil {
		t.Fatalf("SetFungibleQuantity(home) error = %v", err)
	}
	if err := SetFungibleQuantity(ctx, database, testUserID, coin, 3, model.LocationBag); err != nil {
		t.Fatalf("SetFungibleQuantity(bag) error = %v", err)
	}

	if got := mustQuantity(t, ctx, database, coin, model.LocationHome); got != 2 {
		t.Errorf("home quantity = %d, want 2", got)
	}
	if got := mustQuantity(t, ctx, database, coin, model.LocationBag); got != 3 {
		t.Errorf("bag quantity = %d, want 3", got)
	}
	if got := mustQuantity(t, ctx, database, coin, ""); got != 5 {
		t.Errorf("total quantity = %d, want 5", got)
	}
}

func TestAddUniqueInstances(t *testing.T) {
	ctx, database, _, shield := setupHoldings(t)

	ids, err := AddUniqueInstances(ctx, database, testUserID, shield, model.LocationHome, 3, 10)
	if err != nil {
		t.Fatalf("AddUniqueInstances() error = %v", err)
	}
	if len(ids) != 3 {
		t.Fatalf("created %d instances, want 3", len(ids))
	}

	// Each instance has its own identity.
	seen := map[string]bool{}
	for _, id := range ids {
		if seen[id] {
			t.Errorf("duplicate instance id %s", id)
		}
		seen[id] = true
	}

	if got := mustQuantity(t, ctx, database, shield, model.LocationHome); got != 3 {
		t.Errorf("quantity = %d, want 3", got)
	}

	listed, err := ListInstanceIDs(ctx, database, testUserID, shield, "")
	if err != nil {
		t.Fatalf("ListInstanceIDs() error = %v", err)
	}
	if !slices.Equal(listed, ids) {
		t.Errorf("ListInstanceIDs() = %v, want creation order %v", listed, ids)
	}
}

func TestAddUniqueInstancesTruncatesAtCap(t *testing.T) {
	ctx, database, _, shield := setupHoldings(t)

	if _, err := AddUniqueInstances(ctx, database, testUserID, shield, model.LocationHome, 8, 10); err != nil {
		t.Fatalf("AddUniqueInstances() error = %v", err)
	}

	// Only 2 of the requested 5 fit under the cap.
	ids, err := AddUniqueInstances(ctx, database, testUserID, shield, model.LocationHome, 5, 10)
	if err != nil {
		t.Fatalf("AddUniqueInstances() error = %v", err)
	}
	if len(ids) != 2 {
		t.Errorf("created %d instances, want 2", len(ids))
	}

	// At the cap nothing is created.
	ids, err = AddUniqueInstances(ctx, database, testUserID, shield, model.LocationHome, 1, 10)
	if err != nil {
		t.Fatalf("AddUniqueInstances() error = %v", err)
	}
	if len(ids) != 0 {
		t.Errorf("created %d instances at cap, want 0", len(ids))
	}
}

func TestAddUniqueInstancesIgnoresFungibleItems(t *testing.T) {
	ctx, database, coin, _ := setupHoldings(t)

	ids, err := AddUniqueInstances(ctx, database, testUserID, coin, model.LocationHome, 1, 10)
	if err != nil {
		t.Fatalf("AddUniqueInstances() error = %v", err)
	}
	if ids != nil {
		t.Errorf("AddUniqueInstances(fungible) = %v, want nil", ids)
	}
}

func TestRelocateAndRemoveUniqueInstance(t *testing.T) {
	ctx, database, _, shield := setupHoldings(t)

	ids, err := AddUniqueInstances(ctx, database, testUserID, shield, model.LocationHome, 2, 10)
	if err != nil {
		t.Fatalf("AddUniqueInstances() error = %v", err)
	}

	if err := RelocateUniqueInstance(ctx, database, ids[0], model.LocationBag); err != nil {
		t.Fatalf("RelocateUniqueInstance() error = %v", err)
	}

	inst, err := GetInstance(ctx, database, ids[0])
	if err != nil {
		t.Fatalf("GetInstance() error = %v", err)
	}
	if inst.Location != model.LocationBag {
		t.Errorf("location = %q, want bag", inst.Location)
	}
	if got := mustQuantity(t, ctx, database, shield, model.LocationHome); got != 1 {
		t.Errorf("home quantity = %d, want 1", got)
	}

	if err := RemoveUniqueInstance(ctx, database, ids[1]); err != nil {
		t.Fatalf("RemoveUniqueInstance() error = %v", err)
	}
	gone, err := GetInstance(ctx, database, ids[1])
	if err != nil {
		t.Fatalf("GetInstance() error = %v", err)
	}
	if gone != nil {
		t.Error("instance still present after removal")
	}

	// Unknown instance: quiet no-op.
	if err := RemoveUniqueInstance(ctx, database, "no-such-id"); err != nil {
		t.Errorf("RemoveUniqueInstance(unknown) error = %v", err)
	}
}

func TestInstanceNameAndProperties(t *testing.T) {
	ctx, database, _, shield := setupHoldings(t)

	ids, err := AddUniqueInstances(ctx, database, testUserID, shield, model.LocationHome, 1, 10)
	if err != nil {
		t.Fatalf("AddUniqueInstances() error = %v", err)
	}

	if err := SetInstanceName(ctx, database, ids[0], "Oathkeeper"); err != nil {
		t.Fatalf("SetInstanceName() error = %v", err)
	}
	if err := SetInstanceProperties(ctx, database, ids[0], map[string]any{"durability": float64(7)}); err != nil {
		t.Fatalf("SetInstanceProperties() error = %v", err)
	}

	inst, err := GetInstance(ctx, database, ids[0])
	if err != nil {
		t.Fatalf("GetInstance() error = %v", err)
	}
	if inst.Name != "Oathkeeper" {
		t.Errorf("name = %q, want Oathkeeper", inst.Name)
	}
	if inst.Properties["durability"] != float64(7) {
		t.Errorf("durability = %v, want 7", inst.Properties["durability"])
	}

	// Clearing the name reverts to the default display path.
	if err := SetInstanceName(ctx, database, ids[0], ""); err != nil {
		t.Fatalf("SetInstanceName() error = %v", err)
	}
	inst, _ = GetInstance(ctx, database, ids[0])
	if inst.Name != "" {
		t.Errorf("name = %q, want empty", inst.Name)
	}
}

func TestListInstanceIDsFiltersByLocation(t *testing.T) {
	ctx, database, _, shield := setupHoldings(t)

	ids, err := AddUniqueInstances(ctx, database, testUserID, shield, model.LocationHome, 3, 10)
	if err != nil {
		t.Fatalf("AddUniqueInstances() error = %v", err)
	}
	if err := RelocateUniqueInstance(ctx, database, ids[1], model.LocationBag); err != nil {
		t.Fatalf("RelocateUniqueInstance() error = %v", err)
	}

	home, err := ListInstanceIDs(ctx, database, testUserID, shield, model.LocationHome)
	if err != nil {
		t.Fatalf("ListInstanceIDs() error = %v", err)
	}
	if want := []string{ids[0], ids[2]}; !slices.Equal(home, want) {
		t.Errorf("home instances = %v, want %v", home, want)
	}

	bag, err := ListInstanceIDs(ctx, database, testUserID, shield, model.LocationBag)
	if err != nil {
		t.Fatalf("ListInstanceIDs() error = %v", err)
	}
	if want := []string{ids[1]}; !slices.Equal(bag, want) {
		t.Errorf("bag instances = %v, want %v", bag, want)
	}
}
