package api

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/stashbot/stash/internal/config"
	"github.com/stashbot/stash/internal/inventory"
	"github.com/stashbot/stash/internal/model"
	"github.com/stashbot/stash/internal/selection"
	"github.com/stashbot/stash/internal/store"
)

// InventoryHandler handles per-user item holdings: grants, removals,
// listings, and moves between home and bag.
type InventoryHandler struct {
	DB        *sql.DB
	Cfg       config.Config
	Inventory *inventory.Service
	Sessions  *selection.Manager
}

type grantRequest struct {
	ItemID   int64  `json:"item_id"`
	Amount   int    `json:"amount"`
	Location string `json:"location"`
}

type removeRequest struct {
	ItemID   int64  `json:"item_id"`
	Amount   int    `json:"amount"`
	Location string `json:"location"`
}

type moveRequest struct {
	ItemID     int64  `json:"item_id"`
	Amount     string `json:"amount"`
	ToLocation string `json:"to_location"`
}

// parseCount turns an item-count string into a count: "all" or a positive
// integer, bounded below by 1.
func parseCount(s string, available int) (int, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "all" {
		return available, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, errBadAmount
	}
	if n < 1 {
		n = 1
	}
	return n, nil
}

func parseLocation(s string) (model.Location, bool) {
	loc := model.Location(strings.ToLower(strings.TrimSpace(s)))
	return loc, loc.Valid()
}

// Grant handles POST /api/users/{id}/items. Unique items become fresh
// instances, capped per item; fungible items bump the quantity row.
func (h *InventoryHandler) Grant(w http.ResponseWriter, r *http.Request) {
	id, ok := userID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	var req grantRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	loc, ok := parseLocation(req.Location)
	if !ok {
		jsonError(w, http.StatusBadRequest, "location must be home or bag")
		return
	}

	unique, err := store.ItemIsUnique(r.Context(), h.DB, req.ItemID)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}

	if unique {
		ids, err := store.AddUniqueInstances(r.Context(), h.DB, id, req.ItemID,
			loc, req.Amount, h.Cfg.MaxUniqueItems)
		if err != nil {
			jsonError(w, http.StatusInternalServerError, "failed to grant items")
			return
		}
		if ids == nil {
			ids = []string{}
		}
		slog.Info("granted unique items", "user", id, "item", req.ItemID, "count", len(ids))
		jsonResponse(w, http.StatusOK, map[string]any{
			"granted":      len(ids),
			"instance_ids": ids,
		})
		return
	}

	granted, err := store.AddFungible(r.Context(), h.DB, id, req.ItemID, req.Amount, loc)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to grant items")
		return
	}
	slog.Info("granted items", "user", id, "item", req.ItemID, "count", granted)
	jsonResponse(w, http.StatusOK, map[string]any{"granted": granted})
}

// Remove handles DELETE /api/users/{id}/items. Removing more than the
// user holds, or from an unknown item, quietly removes nothing.
func (h *InventoryHandler) Remove(w http.ResponseWriter, r *http.Request) {
	id, ok := userID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	var req removeRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	loc, ok := parseLocation(req.Location)
	if !ok {
		jsonError(w, http.StatusBadRequest, "location must be home or bag")
		return
	}

	removed, err := store.RemoveFungible(r.Context(), h.DB, id, req.ItemID, req.Amount, loc)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to remove items")
		return
	}
	jsonResponse(w, http.StatusOK, map[string]any{"removed": removed})
}

// List handles GET /api/users/{id}/inventory?location=.
func (h *InventoryHandler) List(w http.ResponseWriter, r *http.Request) {
	id, ok := userID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	var loc model.Location
	if v := r.URL.Query().Get("location"); v != "" {
		parsed, ok := parseLocation(v)
		if !ok {
			jsonError(w, http.StatusBadRequest, "location must be home or bag")
			return
		}
		loc = parsed
	}

	views, err := h.Inventory.ListHoldings(r.Context(), id, loc)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to list inventory")
		return
	}
	if views == nil {
		views = []model.HoldingView{}
	}
	jsonResponse(w, http.StatusOK, views)
}

// Quantity handles GET /api/users/{id}/items/{itemID}/quantity?location=.
func (h *InventoryHandler) Quantity(w http.ResponseWriter, r *http.Request) {
	id, ok := userID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid user id")
		return
	}
	item, err := strconv.ParseInt(r.PathValue("itemID"), 10, 64)
	if err != nil || item <= 0 {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	var loc model.Location
	if v := r.URL.Query().Get("location"); v != "" {
		parsed, ok := parseLocation(v)
		if !ok {
			jsonError(w, http.StatusBadRequest, "location must be home or bag")
			return
		}
		loc = parsed
	}

	qty, err := store.HoldingQuantity(r.Context(), h.DB, id, item, loc)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get quantity")
		return
	}
	jsonResponse(w, http.StatusOK, map[string]any{"quantity": qty})
}

// Move handles POST /api/users/{id}/move. Fungible items move by
// quantity; unique items either move wholesale ("all") or start an
// interactive selection session the gateway drives with button input.
func (h *InventoryHandler) Move(w http.ResponseWriter, r *http.Request) {
	id, ok := userID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	var req moveRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	to, ok := parseLocation(req.ToLocation)
	if !ok {
		jsonError(w, http.StatusBadRequest, "to_location must be home or bag")
		return
	}
	from := model.LocationHome
	if to == model.LocationHome {
		from = model.LocationBag
	}

	unique, err := store.ItemIsUnique(r.Context(), h.DB, req.ItemID)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}

	if unique {
		h.moveUnique(w, r, id, req, from, to)
		return
	}
	h.moveFungible(w, r, id, req, from, to)
}

// moveFungible shifts quantity between the two location rows. The two
// writes are independent statements, so a crash between them can lose
// items; the post-move total check surfaces that in the logs rather than
// papering over it.
func (h *InventoryHandler) moveFungible(w http.ResponseWriter, r *http.Request, id int64, req moveRequest, from, to model.Location) {
	ctx := r.Context()

	fromQty, err := store.HoldingQuantity(ctx, h.DB, id, req.ItemID, from)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}
	toQty, err := store.HoldingQuantity(ctx, h.DB, id, req.ItemID, to)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}

	count, err := parseCount(req.Amount, fromQty)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid amount")
		return
	}
	count = min(count, fromQty)
	if count == 0 {
		jsonResponse(w, http.StatusOK, map[string]any{"moved": 0})
		return
	}

	total := fromQty + toQty
	if err := store.SetFungibleQuantity(ctx, h.DB, id, req.ItemID, fromQty-count, from); err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to move items")
		return
	}
	if err := store.SetFungibleQuantity(ctx, h.DB, id, req.ItemID, toQty+count, to); err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to move items")
		return
	}

	if got, okTotal, err := h.Inventory.MoveCheck(ctx, id, req.ItemID, total); err == nil && !okTotal {
		slog.Warn("item total changed during move",
			"user", id, "item", req.ItemID, "want", total, "got", got)
	}

	jsonResponse(w, http.StatusOK, map[string]any{"moved": count})
}

// moveUnique relocates instances. "all" moves every instance at the
// source location immediately; anything else opens a selection session so
// the user can pick instances one by one.
func (h *InventoryHandler) moveUnique(w http.ResponseWriter, r *http.Request, id int64, req moveRequest, from, to model.Location) {
	ctx := r.Context()

	candidates, err := store.ListInstanceIDs(ctx, h.DB, id, req.ItemID, from)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}

	if strings.EqualFold(strings.TrimSpace(req.Amount), "all") {
		for _, instanceID := range candidates {
			if err := store.RelocateUniqueInstance(ctx, h.DB, instanceID, to); err != nil {
				jsonError(w, http.StatusInternalServerError, "failed to move items")
				return
			}
		}
		jsonResponse(w, http.StatusOK, map[string]any{"moved": len(candidates)})
		return
	}

	timeout := time.Duration(h.Cfg.SelectionTimeoutSeconds) * time.Second
	session, err := selection.New(id, candidates, h.Cfg.MaxUniqueItems, timeout,
		func(ctx context.Context, selected []string) error {
			for _, instanceID := range selected {
				if err := store.RelocateUniqueInstance(ctx, h.DB, instanceID, to); err != nil {
					return err
				}
			}
			return nil
		})
	switch {
	case errors.Is(err, selection.ErrNoCandidates):
		jsonResponse(w, http.StatusOK, map[string]any{"moved": 0})
		return
	case errors.Is(err, selection.ErrTooManyCandidates):
		slog.Error("instance count exceeds the configured cap",
			"user", id, "item", req.ItemID, "count", len(candidates))
		jsonError(w, http.StatusConflict, "too many instances to select from")
		return
	case err != nil:
		jsonError(w, http.StatusInternalServerError, "failed to start selection")
		return
	}

	h.Sessions.Add(session)
	jsonResponse(w, http.StatusCreated, session.Snapshot())
}
