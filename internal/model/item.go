package model

import "time"

// ItemType is a catalog template shared by related items. Properties is an
// arbitrary nested mapping; leaf records conventionally have the shape
// {"name": ..., "value": ...}.
type ItemType struct {
	ID         int64          `json:"id"`
	Name       string         `json:"name"`
	Properties map[string]any `json:"properties,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}

// Item is a catalog entry. Unique items are tracked as individual instances;
// non-unique ("fungible") items are tracked by quantity. Properties override
// and extend the item type's template.
type Item struct {
	ID         int64          `json:"id"`
	ItemTypeID int64          `json:"item_type_id"`
	Singular   string         `json:"singular"`
	Plural     string         `json:"plural"`
	Unique     bool           `json:"unique"`
	Properties map[string]any `json:"properties,omitempty"`
	IconMime   string         `json:"icon_mime,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  *time.Time     `json:"deleted_at,omitempty"`
}

// Name returns the grammatically correct catalog name for an amount.
func (i *Item) Name(amount int) string {
	if amount == 1 {
		return i.Singular
	}
	return i.Plural
}
