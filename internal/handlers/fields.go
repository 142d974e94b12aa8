package handlers

import (
	"net/http"
	"strings"

	"certstudio/internal/cache"
	"certstudio/internal/store"
)

// Fields serves the placeholder field catalog. Reads go through the
// Valkey cache; admin writes invalidate it.
type Fields struct {
	fieldStore *store.FieldStore
	fieldCache *cache.FieldCache
}

// NewFields creates a new Fields handler group.
func NewFields(fieldStore *store.FieldStore, fieldCache *cache.FieldCache) *Fields {
	return &Fields{fieldStore: fieldStore, fieldCache: fieldCache}
}

// List returns the catalog grouped by category, sorted alphabetically.
func (h *Fields) List(w http.ResponseWriter, r *http.Request) {
	if h.fieldCache != nil {
		if groups, ok := h.fieldCache.Get(r.Context()); ok {
			respond(w, http.StatusOK, groups)
			return
		}
	}

	groups, err := h.fieldStore.ListGrouped()
	if err != nil {
		serverError(w, "field catalog load failed", err)
		return
	}
	if h.fieldCache != nil {
		h.fieldCache.Set(r.Context(), groups)
	}
	respond(w, http.StatusOK, groups)
}

type createFieldRequest struct {
	FieldPath   string `json:"field_path"`
	DisplayName string `json:"display_name"`
	Category    string `json:"category"`
}

// Create adds a catalog entry. Admin only (enforced by the router).
func (h *Fields) Create(w http.ResponseWriter, r *http.Request) {
	var req createFieldRequest
	if err := decode(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.FieldPath = strings.TrimSpace(req.FieldPath)
	req.DisplayName = strings.TrimSpace(req.DisplayName)
	req.Category = strings.TrimSpace(req.Category)
	if req.FieldPath == "" || req.DisplayName == "" || req.Category == "" {
		respondError(w, http.StatusBadRequest, "field_path, display_name, and category are required")
		return
	}

	field, err := h.fieldStore.Create(req.FieldPath, req.DisplayName, req.Category)
	if err != nil {
		respondError(w, http.StatusConflict, "field path already exists")
		return
	}
	if h.fieldCache != nil {
		h.fieldCache.Invalidate(r.Context())
	}
	respond(w, http.StatusCreated, field)
}

// Delete removes a catalog entry. Admin only (enforced by the router).
func (h *Fields) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid field id")
		return
	}
	if err := h.fieldStore.Delete(id); err != nil {
		serverError(w, "field delete failed", err)
		return
	}
	if h.fieldCache != nil {
		h.fieldCache.Invalidate(r.Context())
	}
	respond(w, http.StatusOK, nil)
}
