package api

import (
	"database/sql"
	"net/http"

	"github.com/stashbot/stash/internal/inventory"
	"github.com/stashbot/stash/internal/store"
)

// InstancesHandler handles individual unique-item instances.
type InstancesHandler struct {
	DB        *sql.DB
	Inventory *inventory.Service
}

type updateInstanceRequest struct {
	Name       *string        `json:"name"`
	Properties map[string]any `json:"properties"`
}

// Get handles GET /api/instances/{id}: the stored record plus the display
// name and fully resolved properties.
func (h *InstancesHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	instance, err := store.GetInstance(r.Context(), h.DB, id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get instance")
		return
	}
	if instance == nil {
		jsonError(w, http.StatusNotFound, "instance not found")
		return
	}

	name, err := h.Inventory.InstanceDisplayName(r.Context(), id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to resolve display name")
		return
	}
	props, err := h.Inventory.ResolvedInstanceProperties(r.Context(), id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to resolve properties")
		return
	}
	if props == nil {
		props = map[string]any{}
	}

	jsonResponse(w, http.StatusOK, map[string]any{
		"instance":     instance,
		"display_name": name,
		"properties":   props,
	})
}

// Update handles PUT /api/instances/{id}: renames an instance or replaces
// its property overrides.
func (h *InstancesHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	instance, err := store.GetInstance(r.Context(), h.DB, id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if instance == nil {
		jsonError(w, http.StatusNotFound, "instance not found")
		return
	}

	var req updateInstanceRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Name != nil {
		if err := store.SetInstanceName(r.Context(), h.DB, id, *req.Name); err != nil {
			jsonError(w, http.StatusInternalServerError, "failed to rename instance")
			return
		}
	}
	if req.Properties != nil {
		if err := store.SetInstanceProperties(r.Context(), h.DB, id, req.Properties); err != nil {
			jsonError(w, http.StatusInternalServerError, "failed to update properties")
			return
		}
	}

	instance, _ = store.GetInstance(r.Context(), h.DB, id)
	jsonResponse(w, http.StatusOK, instance)
}
