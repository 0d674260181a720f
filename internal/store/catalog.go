package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/stashbot/stash/internal/model"
)

// encodeProperties serializes a property mapping for a TEXT column. Empty
// mappings are stored as NULL.
func encodeProperties(m map[string]any) (sql.NullString, error) {
	if len(m) == 0 {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(m)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("encoding properties: %w", err)
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

// decodeProperties parses a property column. NULL decodes to nil.
func decodeProperties(raw sql.NullString) (map[string]any, error) {
	if !raw.Valid || raw.String == "" {
		return nil, nil
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(raw.String), &m); err != nil {
		return nil, fmt.Errorf("decoding properties: %w", err)
	}
	return m, nil
}

// CreateItemType creates a new item type with an optional property template.
func CreateItemType(ctx context.Context, db *sql.DB, name string, properties map[string]any) (*model.ItemType, error) {
	props, err := encodeProperties(properties)
	if err != nil {
		return nil, err
	}

	result, err := db.ExecContext(ctx,
		`INSERT INTO item_types (name, properties) VALUES (?, ?)`,
		name, props,
	)
	if err != nil {
		return nil, fmt.Errorf("creating item type: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting item type id: %w", err)
	}

	return GetItemType(ctx, db, id)
}

// GetItemType returns an item type by ID.
func GetItemType(ctx context.Context, db *sql.DB, id int64) (*model.ItemType, error) {
	it := &model.ItemType{}
	var props sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT id, name, properties, created_at FROM item_types WHERE id = ?`, id,
	).Scan(&it.ID, &it.Name, &props, &it.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting item type: %w", err)
	}
	if it.Properties, err = decodeProperties(props); err != nil {
		return nil, err
	}
	return it, nil
}

// ListItemTypes returns all item types.
func ListItemTypes(ctx context.Context, db *sql.DB) ([]model.ItemType, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, name, properties, created_at FROM item_types ORDER BY name`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing item types: %w", err)
	}
	defer rows.Close()

	var types []model.ItemType
	for rows.Next() {
		var it model.ItemType
		var props sql.NullString
		if err := rows.Scan(&it.ID, &it.Name, &props, &it.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning item type: %w", err)
		}
		if it.Properties, err = decodeProperties(props); err != nil {
			return nil, err
		}
		types = append(types, it)
	}
	return types, rows.Err()
}

// CreateItem creates a new catalog item.
func CreateItem(ctx context.Context, db *sql.DB, itemTypeID int64, singular, plural string, unique bool, properties map[string]any) (*model.Item, error) {
	props, err := encodeProperties(properties)
	if err != nil {
		return nil, err
	}

	// Zero means no template.
	var typeID sql.NullInt64
	if itemTypeID > 0 {
		typeID = sql.NullInt64{Int64: itemTypeID, Valid: true}
	}

	result, err := db.ExecContext(ctx,
		`INSERT INTO items (item_type_id, singular, plural, is_unique, properties)
		 VALUES (?, ?, ?, ?, ?)`,
		typeID, singular, plural, unique, props,
	)
	if err != nil {
		return nil, fmt.Errorf("creating item: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting item id: %w", err)
	}

	return GetItem(ctx, db, id)
}

// GetItem returns a catalog item by ID.
func GetItem(ctx context.Context, db *sql.DB, id int64) (*model.Item, error) {
	item := &model.Item{}
	var typeID sql.NullInt64
	var props, iconMime sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT id, item_type_id, singular, plural, is_unique, properties, icon_mime,
		        created_at, updated_at, deleted_at
		 FROM items WHERE id = ?`, id,
	).Scan(&item.ID, &typeID, &item.Singular, &item.Plural, &item.Unique,
		&props, &iconMime, &item.CreatedAt, &item.UpdatedAt, &item.DeletedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting item: %w", err)
	}
	item.ItemTypeID = typeID.Int64
	if item.Properties, err = decodeProperties(props); err != nil {
		return nil, err
	}
	item.IconMime = iconMime.String
	return item, nil
}

// ItemIsUnique reports whether a catalog item is individually tracked.
// Unknown items report false.
func ItemIsUnique(ctx context.Context, db *sql.DB, id int64) (bool, error) {
	var unique bool
	err := db.QueryRowContext(ctx,
		`SELECT is_unique FROM items WHERE id = ? AND deleted_at IS NULL`, id,
	).Scan(&unique)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking item uniqueness: %w", err)
	}
	return unique, nil
}

// ListItems returns all non-deleted catalog items.
func ListItems(ctx context.Context, db *sql.DB) ([]model.Item, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, item_type_id, singular, plural, is_unique, properties, icon_mime,
		        created_at, updated_at, deleted_at
		 FROM items WHERE deleted_at IS NULL ORDER BY singular`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}
	defer rows.Close()

	var items []model.Item
	for rows.Next() {
		var item model.Item
		var typeID sql.NullInt64
		var props, iconMime sql.NullString
		if err := rows.Scan(&item.ID, &typeID, &item.Singular, &item.Plural, &item.Unique,
			&props, &iconMime, &item.CreatedAt, &item.UpdatedAt, &item.DeletedAt); err != nil {
			return nil, fmt.Errorf("scanning item: %w", err)
		}
		item.ItemTypeID = typeID.Int64
		if item.Properties, err = decodeProperties(props); err != nil {
			return nil, err
		}
		item.IconMime = iconMime.String
		items = append(items, item)
	}
	return items, rows.Err()
}

// UpdateItem updates a catalog item's names and property overrides.
func UpdateItem(ctx context.Context, db *sql.DB, id int64, singular, plural string, properties map[string]any) error {
	props, err := encodeProperties(properties)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx,
		`UPDATE items SET singular = ?, plural = ?, properties = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND deleted_at IS NULL`,
		singular, plural, props, id,
	)
	if err != nil {
		return fmt.Errorf("updating item: %w", err)
	}
	return nil
}

// DeleteItem soft-deletes a catalog item.
func DeleteItem(ctx context.Context, db *sql.DB, id int64) error {
	_, err := db.ExecContext(ctx,
		`UPDATE items SET deleted_at = CURRENT_TIMESTAMP WHERE id = ? AND deleted_at IS NULL`,
		id,
	)
	if err != nil {
		return fmt.Errorf("deleting item: %w", err)
	}
	return nil
}

// SetItemIcon sets a catalog item's icon data.
func SetItemIcon(ctx context.Context, db *sql.DB, id int64, icon []byte, mime string) error {
	_, err := db.ExecContext(ctx,
		`UPDATE items SET icon = ?, icon_mime = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND deleted_at IS NULL`,
		icon, mime, id,
	)
	if err != nil {
		return fmt.Errorf("setting item icon: %w", err)
	}
	return nil
}

// GetItemIcon returns a catalog item's icon data and MIME type.
func GetItemIcon(ctx context.Context, db *sql.DB, id int64) ([]byte, string, error) {
	var icon []byte
	var mime sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT icon, icon_mime FROM items WHERE id = ?`, id,
	).Scan(&icon, &mime)
	if err == sql.ErrNoRows {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("getting item icon: %w", err)
	}
	return icon, mime.String, nil
}
