// Package inventory is the read side of the item store: totals, display
// names, resolved properties and holdings listings. It never mutates
// storage.
package inventory

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/stashbot/stash/internal/model"
	"github.com/stashbot/stash/internal/props"
	"github.com/stashbot/stash/internal/store"
)

// Service answers inventory queries. Construct it once and pass it to
// whatever needs it.
type Service struct {
	DB *sql.DB
}

// New returns a query service over the given database.
func New(db *sql.DB) *Service {
	return &Service{DB: db}
}

// TotalQuantity returns how many units of an item a user owns across both
// locations: the summed quantity for fungible items, the instance count for
// unique items.
func (s *Service) TotalQuantity(ctx context.Context, userID, itemID int64) (int, error) {
	return store.HoldingQuantity(ctx, s.DB, userID, itemID, "")
}

// ItemDisplayName returns the catalog name for an amount of an item:
// singular for exactly one, plural otherwise. Unknown items resolve to "".
func (s *Service) ItemDisplayName(ctx context.Context, itemID int64, amount int) (string, error) {
	item, err := store.GetItem(ctx, s.DB, itemID)
	if err != nil {
		return "", err
	}
	if item == nil {
		return "", nil
	}
	return item.Name(amount), nil
}

// InstanceDisplayName returns a unique instance's custom name, falling back
// to "<singular> (<instance id>)". Unknown instances resolve to "".
func (s *Service) InstanceDisplayName(ctx context.Context, instanceID string) (string, error) {
	inst, err := store.GetInstance(ctx, s.DB, instanceID)
	if err != nil {
		return "", err
	}
	if inst == nil {
		return "", nil
	}
	if inst.Name != "" {
		return inst.Name, nil
	}

	item, err := store.GetItem(ctx, s.DB, inst.ItemID)
	if err != nil {
		return "", err
	}
	if item == nil {
		return inst.ID, nil
	}
	return fmt.Sprintf("%s (%s)", item.Singular, inst.ID), nil
}

// ResolvedItemProperties merges an item type's template with the item's own
// overrides. Unknown items resolve to nil.
func (s *Service) ResolvedItemProperties(ctx context.Context, itemID int64) (map[string]any, error) {
	item, err := store.GetItem(ctx, s.DB, itemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, nil
	}

	itemType, err := store.GetItemType(ctx, s.DB, item.ItemTypeID)
	if err != nil {
		return nil, err
	}

	var template map[string]any
	if itemType != nil {
		template = itemType.Properties
	}

	if len(template) == 0 {
		return props.Clone(item.Properties), nil
	}
	if len(item.Properties) == 0 {
		return props.Clone(template), nil
	}
	return props.Merge(template, item.Properties), nil
}

// ResolvedInstanceProperties layers an instance's own overrides on top of
// its item's resolved properties. Unknown instances resolve to nil.
func (s *Service) ResolvedInstanceProperties(ctx context.Context, instanceID string) (map[string]any, error) {
	inst, err := store.GetInstance(ctx, s.DB, instanceID)
	if err != nil {
		return nil, err
	}
	if inst == nil {
		return nil, nil
	}

	itemProps, err := s.ResolvedItemProperties(ctx, inst.ItemID)
	if err != nil {
		return nil, err
	}

	if len(itemProps) == 0 {
		return props.Clone(inst.Properties), nil
	}
	if len(inst.Properties) == 0 {
		return itemProps, nil
	}
	return props.Merge(itemProps, inst.Properties), nil
}

// ListHoldings returns a user's inventory as display-ready descriptors,
// optionally filtered by location. Fungible stacks carry their quantity;
// unique instances appear individually with quantity 1. Empty stacks are
// suppressed.
func (s *Service) ListHoldings(ctx context.Context, userID int64, loc model.Location) ([]model.HoldingView, error) {
	holdings, err := store.ListHoldingRows(ctx, s.DB, userID, loc)
	if err != nil {
		return nil, err
	}

	var views []model.HoldingView
	for _, h := range holdings {
		if h.Quantity <= 0 {
			continue
		}
		name, err := s.ItemDisplayName(ctx, h.ItemID, h.Quantity)
		if err != nil {
			return nil, err
		}
		views = append(views, model.HoldingView{
			ItemID:   h.ItemID,
			Location: h.Location,
			Quantity: h.Quantity,
			Name:     name,
		})
	}

	instances, err := store.ListInstances(ctx, s.DB, userID, loc)
	if err != nil {
		return nil, err
	}
	for _, inst := range instances {
		name, err := s.InstanceDisplayName(ctx, inst.ID)
		if err != nil {
			return nil, err
		}
		views = append(views, model.HoldingView{
			ItemID:     inst.ItemID,
			InstanceID: inst.ID,
			Location:   inst.Location,
			Quantity:   1,
			Name:       name,
		})
	}

	return views, nil
}

// MoveCheck verifies that a two-step fungible move left the user's total
// for the item intact. The two location writes are independent single-row
// updates with no shared transaction, so a failure between them shows up
// here as a total drift. Callers log the drift; nothing is auto-healed.
func (s *Service) MoveCheck(ctx context.Context, userID, itemID int64, wantTotal int) (int, bool, error) {
	total, err := s.TotalQuantity(ctx, userID, itemID)
	if err != nil {
		return 0, false, err
	}
	return total, total == wantTotal, nil
}
