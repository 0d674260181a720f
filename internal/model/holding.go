package model

import "time"

// Location is where a holding lives: at home (at rest) or in the carried bag.
type Location string

const (
	LocationHome Location = "home"
	LocationBag  Location = "bag"
)

// Valid reports whether l is one of the two known locations.
func (l Location) Valid() bool {
	return l == LocationHome || l == LocationBag
}

// Holding is a fungible stack: the quantity of one item a user keeps at one
// location. Rows with quantity zero are deleted rather than stored.
type Holding struct {
	UserID   int64    `json:"user_id"`
	ItemID   int64    `json:"item_id"`
	Location Location `json:"location"`
	Quantity int      `json:"quantity"`
}

// Instance is one physical unit of a unique item. It has its own identity,
// may carry a custom name and per-instance property overrides.
type Instance struct {
	ID         string         `json:"id"`
	UserID     int64          `json:"user_id"`
	ItemID     int64          `json:"item_id"`
	Location   Location       `json:"location"`
	Name       string         `json:"name,omitempty"`
	Properties map[string]any `json:"properties,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}

// HoldingView is a caller-facing inventory entry. InstanceID is empty for
// fungible stacks; Quantity is always 1 for unique instances.
type HoldingView struct {
	ItemID     int64    `json:"item_id"`
	InstanceID string   `json:"instance_id,omitempty"`
	Location   Location `json:"location"`
	Quantity   int      `json:"quantity"`
	Name       string   `json:"name"`
}
