package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/stashbot/stash/internal/model"
)

// The user item store. Fungible items live in holdings rows (one per
// user/item/location, quantity > 0); unique items live in instances rows
// (one per physical unit). "Not found" and "wrong item kind" conditions are
// no-ops or zero results, never errors; only infrastructure failures
// propagate.

// HoldingExists reports whether a fungible holding row exists.
func HoldingExists(ctx context.Context, db *sql.DB, userID, itemID int64, loc model.Location) (bool, error) {
	var one int
	err := db.QueryRowContext(ctx,
		`SELECT 1 FROM holdings WHERE user_id = ? AND item_id = ? AND location = ?`,
		userID, itemID, loc,
	).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking holding: %w", err)
	}
	return true, nil
}

// HoldingQuantity returns how many units of an item a user has. For
// fungible items this is the stored quantity at loc, or the sum over both
// locations when loc is empty. For unique items it is the number of
// instance rows. Absent records count as zero.
func HoldingQuantity(ctx context.Context, db *sql.DB, userID, itemID int64, loc model.Location) (int, error) {
	unique, err := ItemIsUnique(ctx, db, itemID)
	if err != nil {
		return 0, err
	}

	var query string
	args := []any{userID, itemID}
	if unique {
		query = `SELECT COUNT(*) FROM instances WHERE user_id = ? AND item_id = ?`
	} else {
		query = `SELECT COALESCE(SUM(quantity), 0) FROM holdings WHERE user_id = ? AND item_id = ?`
	}
	if loc != "" {
		query += ` AND location = ?`
		args = append(args, loc)
	}

	var quantity int
	if err := db.QueryRowContext(ctx, query, args...).Scan(&quantity); err != nil {
		return 0, fmt.Errorf("counting holding: %w", err)
	}
	return quantity, nil
}

// AddFungible grants amount units of a fungible item at a location,
// creating or incrementing the holding row. The amount is clamped to a
// minimum of 1. Returns the number of units granted: 0 for unknown,
// deleted, or unique items, which mutate nothing.
func AddFungible(ctx context.Context, db *sql.DB, userID, itemID int64, amount int, loc model.Location) (int, error) {
	if amount < 1 {
		amount = 1
	}

	item, err := GetItem(ctx, db, itemID)
	if err != nil {
		return 0, err
	}
	if item == nil || item.DeletedAt != nil || item.Unique {
		return 0, nil
	}

	_, err = db.ExecContext(ctx,
		`INSERT INTO holdings (user_id, item_id, location, quantity) VALUES (?, ?, ?, ?)
		 ON CONFLICT (user_id, item_id, location) DO UPDATE SET quantity = quantity + ?`,
		userID, itemID, loc, amount, amount,
	)
	if err != nil {
		return 0, fmt.Errorf("adding fungible holding: %w", err)
	}
	return amount, nil
}

// RemoveFungible takes amount units of a fungible item from a location.
// The amount is clamped to a minimum of 1. Returns false without mutating
// when the item is unique, the holding is absent, or it holds fewer units
// than requested. The row is deleted when the quantity reaches zero.
func RemoveFungible(ctx context.Context, db *sql.DB, userID, itemID int64, amount int, loc model.Location) (bool, error) {
	if amount < 1 {
		amount = 1
	}

	unique, err := ItemIsUnique(ctx, db, itemID)
	if err != nil {
		return false, err
	}
	if unique {
		return false, nil
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var current int
	err = tx.QueryRowContext(ctx,
		`SELECT quantity FROM holdings WHERE user_id = ? AND item_id = ? AND location = ?`,
		userID, itemID, loc,
	).Scan(&current)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("reading holding: %w", err)
	}

	if amount > current {
		return false, nil
	}

	if amount == current {
		_, err = tx.ExecContext(ctx,
			`DELETE FROM holdings WHERE user_id = ? AND item_id = ? AND location = ?`,
			userID, itemID, loc,
		)
	} else {
		_, err = tx.ExecContext(ctx,
			`UPDATE holdings SET quantity = quantity - ? WHERE user_id = ? AND item_id = ? AND location = ?`,
			amount, userID, itemID, loc,
		)
	}
	if err != nil {
		return false, fmt.Errorf("removing fungible holding: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("committing removal: %w", err)
	}
	return true, nil
}

// SetFungibleQuantity sets a holding to an absolute quantity. Amounts below
// 1 delete the row. Unique items are a no-op. This is a single-row write;
// a HOME/BAG move issues two of these with no cross-record transaction, so
// callers re-check the total afterwards (see inventory.Service.MoveCheck).
func SetFungibleQuantity(ctx context.Context, db *sql.DB, userID, itemID int64, amount int, loc model.Location) error {
	unique, err := ItemIsUnique(ctx, db, itemID)
	if err != nil {
		return err
	}
	if unique {
		return nil
	}

	if amount < 1 {
		_, err = db.ExecContext(ctx,
			`DELETE FROM holdings WHERE user_id = ? AND item_id = ? AND location = ?`,
			userID, itemID, loc,
		)
		if err != nil {
			return fmt.Errorf("clearing holding: %w", err)
		}
		return nil
	}

	_, err = db.ExecContext(ctx,
		`INSERT INTO holdings (user_id, item_id, location, quantity) VALUES (?, ?, ?, ?)
		 ON CONFLICT (user_id, item_id, location) DO UPDATE SET quantity = ?`,
		userID, itemID, loc, amount, amount,
	)
	if err != nil {
		return fmt.Errorf("setting holding quantity: %w", err)
	}
	return nil
}

// AddUniqueInstances creates count fresh instances of a unique item, each
// with its own uuid identity, all at the same location. The count is
// truncated so the user's instance total for the item never exceeds
// maxPerItem; at or above the cap nothing is created. Returns the new
// instance IDs in creation order.
func AddUniqueInstances(ctx context.Context, db *sql.DB, userID, itemID int64, loc model.Location, count, maxPerItem int) ([]string, error) {
	if count < 1 {
		count = 1
	}

	unique, err := ItemIsUnique(ctx, db, itemID)
	if err != nil {
		return nil, err
	}
	if !unique {
		return nil, nil
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var existing int
	err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM instances WHERE user_id = ? AND item_id = ?`,
		userID, itemID,
	).Scan(&existing)
	if err != nil {
		return nil, fmt.Errorf("counting instances: %w", err)
	}

	headroom := maxPerItem - existing
	if headroom <= 0 {
		return nil, nil
	}
	if count > headroom {
		count = headroom
	}

	ids := make([]string, 0, count)
	for range count {
		id := uuid.NewString()
		_, err = tx.ExecContext(ctx,
			`INSERT INTO instances (id, user_id, item_id, location) VALUES (?, ?, ?, ?)`,
			id, userID, itemID, loc,
		)
		if err != nil {
			return nil, fmt.Errorf("creating instance: %w", err)
		}
		ids = append(ids, id)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing instances: %w", err)
	}
	return ids, nil
}

// GetInstance returns one unique-item instance by its own identity.
func GetInstance(ctx context.Context, db *sql.DB, instanceID string) (*model.Instance, error) {
	inst := &model.Instance{}
	var name, props sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT id, user_id, item_id, location, name, properties, created_at
		 FROM instances WHERE id = ?`, instanceID,
	).Scan(&inst.ID, &inst.UserID, &inst.ItemID, &inst.Location, &name, &props, &inst.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting instance: %w", err)
	}
	inst.Name = name.String
	if inst.Properties, err = decodeProperties(props); err != nil {
		return nil, err
	}
	return inst, nil
}

// RemoveUniqueInstance deletes exactly one instance row. A missing instance
// or one whose item is not unique is a no-op.
func RemoveUniqueInstance(ctx context.Context, db *sql.DB, instanceID string) error {
	ok, err := instanceItemIsUnique(ctx, db, instanceID)
	if err != nil || !ok {
		return err
	}

	_, err = db.ExecContext(ctx, `DELETE FROM instances WHERE id = ?`, instanceID)
	if err != nil {
		return fmt.Errorf("removing instance: %w", err)
	}
	return nil
}

// RelocateUniqueInstance updates one instance's location. A missing
// instance or one whose item is not unique is a no-op.
func RelocateUniqueInstance(ctx context.Context, db *sql.DB, instanceID string, loc model.Location) error {
	ok, err := instanceItemIsUnique(ctx, db, instanceID)
	if err != nil || !ok {
		return err
	}

	_, err = db.ExecContext(ctx,
		`UPDATE instances SET location = ? WHERE id = ?`, loc, instanceID,
	)
	if err != nil {
		return fmt.Errorf("relocating instance: %w", err)
	}
	return nil
}

// SetInstanceName sets or clears an instance's custom display name.
func SetInstanceName(ctx context.Context, db *sql.DB, instanceID, name string) error {
	var value sql.NullString
	if name != "" {
		value = sql.NullString{String: name, Valid: true}
	}
	_, err := db.ExecContext(ctx,
		`UPDATE instances SET name = ? WHERE id = ?`, value, instanceID,
	)
	if err != nil {
		return fmt.Errorf("naming instance: %w", err)
	}
	return nil
}

// SetInstanceProperties replaces an instance's property overrides.
func SetInstanceProperties(ctx context.Context, db *sql.DB, instanceID string, properties map[string]any) error {
	props, err := encodeProperties(properties)
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx,
		`UPDATE instances SET properties = ? WHERE id = ?`, props, instanceID,
	)
	if err != nil {
		return fmt.Errorf("setting instance properties: %w", err)
	}
	return nil
}

// ListInstanceIDs returns a user's instance identities for one item, in
// insertion order, optionally filtered by location.
func ListInstanceIDs(ctx context.Context, db *sql.DB, userID, itemID int64, loc model.Location) ([]string, error) {
	query := `SELECT id FROM instances WHERE user_id = ? AND item_id = ?`
	args := []any{userID, itemID}
	if loc != "" {
		query += ` AND location = ?`
		args = append(args, loc)
	}
	query += ` ORDER BY rowid`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing instance ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning instance id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ListHoldingRows returns a user's fungible holding rows, optionally
// filtered by location.
func ListHoldingRows(ctx context.Context, db *sql.DB, userID int64, loc model.Location) ([]model.Holding, error) {
	query := `SELECT user_id, item_id, location, quantity FROM holdings WHERE user_id = ?`
	args := []any{userID}
	if loc != "" {
		query += ` AND location = ?`
		args = append(args, loc)
	}
	query += ` ORDER BY rowid`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing holdings: %w", err)
	}
	defer rows.Close()

	var holdings []model.Holding
	for rows.Next() {
		var h model.Holding
		if err := rows.Scan(&h.UserID, &h.ItemID, &h.Location, &h.Quantity); err != nil {
			return nil, fmt.Errorf("scanning holding: %w", err)
		}
		holdings = append(holdings, h)
	}
	return holdings, rows.Err()
}

// ListInstances returns a user's instance rows, optionally filtered by
// location, in insertion order.
func ListInstances(ctx context.Context, db *sql.DB, userID int64, loc model.Location) ([]model.Instance, error) {
	query := `SELECT id, user_id, item_id, location, name, properties, created_at
	          FROM instances WHERE user_id = ?`
	args := []any{userID}
	if loc != "" {
		query += ` AND location = ?`
		args = append(args, loc)
	}
	query += ` ORDER BY rowid`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing instances: %w", err)
	}
	defer rows.Close()

	var instances []model.Instance
	for rows.Next() {
		var inst model.Instance
		var name, props sql.NullString
		if err := rows.Scan(&inst.ID, &inst.UserID, &inst.ItemID, &inst.Location, &name, &props, &inst.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning instance: %w", err)
		}
		inst.Name = name.String
		if inst.Properties, err = decodeProperties(props); err != nil {
			return nil, err
		}
		instances = append(instances, inst)
	}
	return instances, rows.Err()
}

// instanceItemIsUnique reports whether an instance exists and references a
// unique catalog item. Instances of non-unique items should not exist, and
// stale rows are never mutated through the unique-item paths.
func instanceItemIsUnique(ctx context.Context, db *sql.DB, instanceID string) (bool, error) {
	var unique bool
	err := db.QueryRowContext(ctx,
		`SELECT i.is_unique FROM instances inst JOIN items i ON i.id = inst.item_id
		 WHERE inst.id = ?`, instanceID,
	).Scan(&unique)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking instance item: %w", err)
	}
	return unique, nil
}
