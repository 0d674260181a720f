package api

import (
	"database/sql"
	"net/http"
	"strconv"

	"github.com/stashbot/stash/internal/imaging"
	"github.com/stashbot/stash/internal/inventory"
	"github.com/stashbot/stash/internal/model"
	"github.com/stashbot/stash/internal/store"
)

// ItemsHandler handles the item catalog: templates, items, and icons.
type ItemsHandler struct {
	DB        *sql.DB
	Inventory *inventory.Service
}

type createItemTypeRequest struct {
	Name       string         `json:"name"`
	Properties map[string]any `json:"properties"`
}

type createItemRequest struct {
	ItemTypeID int64          `json:"item_type_id"`
	Singular   string         `json:"singular"`
	Plural     string         `json:"plural"`
	Unique     bool           `json:"unique"`
	Properties map[string]any `json:"properties"`
}

type updateItemRequest struct {
	Singular   string         `json:"singular"`
	Plural     string         `json:"plural"`
	Properties map[string]any `json:"properties"`
}

func itemID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	return id, err == nil && id > 0
}

// ListTypes handles GET /api/item-types.
func (h *ItemsHandler) ListTypes(w http.ResponseWriter, r *http.Request) {
	types, err := store.ListItemTypes(r.Context(), h.DB)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to list item types")
		return
	}
	if types == nil {
		types = []model.ItemType{}
	}
	jsonResponse(w, http.StatusOK, types)
}

// CreateType handles POST /api/item-types.
func (h *ItemsHandler) CreateType(w http.ResponseWriter, r *http.Request) {
	var req createItemTypeRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		jsonError(w, http.StatusBadRequest, "name required")
		return
	}

	itemType, err := store.CreateItemType(r.Context(), h.DB, req.Name, req.Properties)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to create item type")
		return
	}
	jsonResponse(w, http.StatusCreated, itemType)
}

// GetType handles GET /api/item-types/{id}.
func (h *ItemsHandler) GetType(w http.ResponseWriter, r *http.Request) {
	id, ok := itemID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid item type id")
		return
	}

	itemType, err := store.GetItemType(r.Context(), h.DB, id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get item type")
		return
	}
	if itemType == nil {
		jsonError(w, http.StatusNotFound, "item type not found")
		return
	}
	jsonResponse(w, http.StatusOK, itemType)
}

// List handles GET /api/items.
func (h *ItemsHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := store.ListItems(r.Context(), h.DB)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to list items")
		return
	}
	if items == nil {
		items = []model.Item{}
	}
	jsonResponse(w, http.StatusOK, items)
}

// Create handles POST /api/items.
func (h *ItemsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createItemRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Singular == "" {
		jsonError(w, http.StatusBadRequest, "singular name required")
		return
	}
	if req.Plural == "" {
		req.Plural = req.Singular + "s"
	}

	if req.ItemTypeID > 0 {
		itemType, err := store.GetItemType(r.Context(), h.DB, req.ItemTypeID)
		if err != nil {
			jsonError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if itemType == nil {
			jsonError(w, http.StatusBadRequest, "unknown item type")
			return
		}
	}

	item, err := store.CreateItem(r.Context(), h.DB, req.ItemTypeID,
		req.Singular, req.Plural, req.Unique, req.Properties)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to create item")
		return
	}
	jsonResponse(w, http.StatusCreated, item)
}

// Get handles GET /api/items/{id}.
func (h *ItemsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := itemID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	item, err := store.GetItem(r.Context(), h.DB, id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get item")
		return
	}
	if item == nil || item.DeletedAt != nil {
		jsonError(w, http.StatusNotFound, "item not found")
		return
	}
	jsonResponse(w, http.StatusOK, item)
}

// Properties handles GET /api/items/{id}/properties: the item's template
// and own properties merged.
func (h *ItemsHandler) Properties(w http.ResponseWriter, r *http.Request) {
	id, ok := itemID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	item, err := store.GetItem(r.Context(), h.DB, id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if item == nil {
		jsonError(w, http.StatusNotFound, "item not found")
		return
	}

	props, err := h.Inventory.ResolvedItemProperties(r.Context(), id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to resolve properties")
		return
	}
	if props == nil {
		props = map[string]any{}
	}
	jsonResponse(w, http.StatusOK, props)
}

// Update handles PUT /api/items/{id}.
func (h *ItemsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := itemID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	var req updateItemRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Singular == "" || req.Plural == "" {
		jsonError(w, http.StatusBadRequest, "singular and plural names required")
		return
	}

	if err := store.UpdateItem(r.Context(), h.DB, id, req.Singular, req.Plural, req.Properties); err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to update item")
		return
	}

	item, _ := store.GetItem(r.Context(), h.DB, id)
	jsonResponse(w, http.StatusOK, item)
}

// Delete handles DELETE /api/items/{id}. Existing holdings keep their
// rows; the item just disappears from the catalog.
func (h *ItemsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := itemID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	if err := store.DeleteItem(r.Context(), h.DB, id); err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to delete item")
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{"message": "item deleted"})
}

// UploadIcon handles PUT /api/items/{id}/icon.
func (h *ItemsHandler) UploadIcon(w http.ResponseWriter, r *http.Request) {
	id, ok := itemID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	item, err := store.GetItem(r.Context(), h.DB, id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if item == nil {
		jsonError(w, http.StatusNotFound, "item not found")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, imaging.MaxUploadBytes)
	if err := r.ParseMultipartForm(imaging.MaxUploadBytes); err != nil {
		jsonError(w, http.StatusBadRequest, "file too large or invalid multipart form")
		return
	}

	file, _, err := r.FormFile("icon")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "icon file required")
		return
	}
	defer file.Close()

	icon, err := imaging.ProcessIcon(file)
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := store.SetItemIcon(r.Context(), h.DB, id, icon.Data, icon.MIME); err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to save icon")
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{"message": "icon uploaded"})
}

// GetIcon handles GET /api/items/{id}/icon.
func (h *ItemsHandler) GetIcon(w http.ResponseWriter, r *http.Request) {
	id, ok := itemID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	data, mime, err := store.GetItemIcon(r.Context(), h.DB, id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get icon")
		return
	}
	if data == nil {
		jsonError(w, http.StatusNotFound, "no icon")
		return
	}

	w.Header().Set("Content-Type", mime)
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.Write(data)
}
