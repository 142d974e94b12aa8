package handlers

import (
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"

	"certstudio/internal/design"
	"certstudio/internal/middleware"
	"certstudio/internal/models"
	"certstudio/internal/store"
)

const (
	maxTemplateNameLen = 200
	maxDescriptionLen  = 1_000
)

// Templates groups template CRUD and the design edit operations. Design
// edits load the stored document, apply the operation through the
// document model, and persist the result in one round trip; the editor's
// debounced autosave batches bursts client-side before they reach here.
type Templates struct {
	templateStore *store.TemplateStore
}

// NewTemplates creates a new Templates handler group.
func NewTemplates(templateStore *store.TemplateStore) *Templates {
	return &Templates{templateStore: templateStore}
}

// validateTemplateMeta checks name/description inputs and returns the
// first error found.
func validateTemplateMeta(name, description string) string {
	if strings.TrimSpace(name) == "" {
		return "template name is required"
	}
	if utf8.RuneCountInString(name) > maxTemplateNameLen {
		return "template name is too long (max 200 characters)"
	}
	if utf8.RuneCountInString(description) > maxDescriptionLen {
		return "description is too long (max 1,000 characters)"
	}
	return ""
}

// loadOwned fetches a template and checks the session user owns it.
// Writes the error response and returns nil when access fails.
func (h *Templates) loadOwned(w http.ResponseWriter, r *http.Request) *models.Template {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid template id")
		return nil
	}
	tmpl, err := h.templateStore.FindByID(id)
	if err != nil {
		serverError(w, "template lookup failed", err)
		return nil
	}
	if tmpl == nil {
		respondError(w, http.StatusNotFound, "template not found")
		return nil
	}
	sess := middleware.SessionFromCtx(r.Context())
	if tmpl.UserID != sess.UserID {
		respondError(w, http.StatusForbidden, "not your template")
		return nil
	}
	return tmpl
}

type createTemplateRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Create makes a new template with an empty default design.
func (h *Templates) Create(w http.ResponseWriter, r *http.Request) {
	var req createTemplateRequest
	if err := decode(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if msg := validateTemplateMeta(req.Name, req.Description); msg != "" {
		respondError(w, http.StatusBadRequest, msg)
		return
	}

	sess := middleware.SessionFromCtx(r.Context())
	tmpl, err := h.templateStore.Create(sess.UserID, strings.TrimSpace(req.Name), req.Description, models.DesignData{})
	if err != nil {
		serverError(w, "template create failed", err)
		return
	}
	respond(w, http.StatusCreated, tmpl)
}

// List returns the user's templates.
func (h *Templates) List(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())
	templates, err := h.templateStore.ListByUser(sess.UserID)
	if err != nil {
		serverError(w, "template list failed", err)
		return
	}
	respond(w, http.StatusOK, templates)
}

// ListPublic returns templates shared by other users.
func (h *Templates) ListPublic(w http.ResponseWriter, r *http.Request) {
	templates, err := h.templateStore.ListPublic()
	if err != nil {
		serverError(w, "public template list failed", err)
		return
	}
	respond(w, http.StatusOK, templates)
}

// Get returns one template with its full design document.
func (h *Templates) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid template id")
		return
	}
	tmpl, err := h.templateStore.FindByID(id)
	if err != nil {
		serverError(w, "template lookup failed", err)
		return
	}
	if tmpl == nil {
		respondError(w, http.StatusNotFound, "template not found")
		return
	}
	// Owners and public templates only.
	sess := middleware.SessionFromCtx(r.Context())
	if tmpl.UserID != sess.UserID && !tmpl.IsPublic {
		respondError(w, http.StatusForbidden, "not your template")
		return
	}
	respond(w, http.StatusOK, tmpl)
}

type updateTemplateRequest struct {
	Name        *string            `json:"name"`
	Description *string            `json:"description"`
	IsPublic    *bool              `json:"is_public"`
	Design      *models.DesignData `json:"design_data"`
}

// Update is the autosave endpoint: it persists whatever subset of the
// template the editor sends. Timestamps are server-owned; the stored row
// comes back so the client can adopt it.
func (h *Templates) Update(w http.ResponseWriter, r *http.Request) {
	tmpl := h.loadOwned(w, r)
	if tmpl == nil {
		return
	}

	var req updateTemplateRequest
	if err := decode(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Name != nil {
		tmpl.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		tmpl.Description = *req.Description
	}
	if req.IsPublic != nil {
		tmpl.IsPublic = *req.IsPublic
	}
	if req.Design != nil {
		tmpl.Design = design.Migrate(*req.Design)
	}
	if msg := validateTemplateMeta(tmpl.Name, tmpl.Description); msg != "" {
		respondError(w, http.StatusBadRequest, msg)
		return
	}

	updated, err := h.templateStore.Update(tmpl)
	if err != nil {
		serverError(w, "template update failed", err)
		return
	}
	respond(w, http.StatusOK, updated)
}

type duplicateRequest struct {
	Name string `json:"name"`
}

// Duplicate copies a template (own or public) into the user's library.
func (h *Templates) Duplicate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid template id")
		return
	}
	var req duplicateRequest
	if err := decode(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	sess := middleware.SessionFromCtx(r.Context())
	dup, err := h.templateStore.Duplicate(id, sess.UserID, strings.TrimSpace(req.Name))
	if err != nil {
		respondError(w, http.StatusNotFound, "template not found or not accessible")
		return
	}
	respond(w, http.StatusCreated, dup)
}

// Delete removes a template.
func (h *Templates) Delete(w http.ResponseWriter, r *http.Request) {
	tmpl := h.loadOwned(w, r)
	if tmpl == nil {
		return
	}
	if err := h.templateStore.Delete(tmpl.ID); err != nil {
		serverError(w, "template delete failed", err)
		return
	}
	respond(w, http.StatusOK, nil)
}

// --- design operations ---

type addElementRequest struct {
	Type     models.ElementType `json:"type"`
	Viewport *design.Viewport   `json:"viewport"`
}

// AddElement appends a new element with type defaults and returns it.
func (h *Templates) AddElement(w http.ResponseWriter, r *http.Request) {
	tmpl := h.loadOwned(w, r)
	if tmpl == nil {
		return
	}
	var req addElementRequest
	if err := decode(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !models.ValidElementType(req.Type) {
		respondError(w, http.StatusBadRequest, "unknown element type")
		return
	}

	doc := design.New(tmpl.Design)
	vp := design.DefaultViewport
	if req.Viewport != nil {
		vp = *req.Viewport
	}
	el := doc.AddElement(req.Type, vp)

	tmpl.Design = doc.Data()
	if _, err := h.templateStore.Update(tmpl); err != nil {
		serverError(w, "design save failed", err)
		return
	}
	respond(w, http.StatusCreated, el)
}

type patchElementRequest struct {
	Content  *string           `json:"content"`
	Position *models.Position  `json:"position"`
	Style    map[string]string `json:"style"`
}

// PatchElement merges partial changes into one element. Patching an
// element that no longer exists is a no-op, not an error: deletes and
// late drag updates race in the editor and the delete wins.
func (h *Templates) PatchElement(w http.ResponseWriter, r *http.Request) {
	tmpl := h.loadOwned(w, r)
	if tmpl == nil {
		return
	}
	var req patchElementRequest
	if err := decode(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	elementID := chi.URLParam(r, "elementID")
	doc := design.New(tmpl.Design)
	found := doc.UpdateElement(elementID, design.ElementPatch{
		Content:  req.Content,
		Position: req.Position,
		Style:    req.Style,
	})
	if !found {
		respond(w, http.StatusOK, nil)
		return
	}

	tmpl.Design = doc.Data()
	if _, err := h.templateStore.Update(tmpl); err != nil {
		serverError(w, "design save failed", err)
		return
	}
	el, _ := doc.FindElement(elementID)
	respond(w, http.StatusOK, el)
}

// DeleteElement removes an element, preserving the order of the rest.
func (h *Templates) DeleteElement(w http.ResponseWriter, r *http.Request) {
	tmpl := h.loadOwned(w, r)
	if tmpl == nil {
		return
	}

	doc := design.New(tmpl.Design)
	doc.DeleteElement(chi.URLParam(r, "elementID"))

	tmpl.Design = doc.Data()
	if _, err := h.templateStore.Update(tmpl); err != nil {
		serverError(w, "design save failed", err)
		return
	}
	respond(w, http.StatusOK, nil)
}

// UpdateProperties replaces the page properties wholesale.
func (h *Templates) UpdateProperties(w http.ResponseWriter, r *http.Request) {
	tmpl := h.loadOwned(w, r)
	if tmpl == nil {
		return
	}
	var props models.Properties
	if err := decode(w, r, &props); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	doc := design.New(tmpl.Design)
	doc.UpdateProperties(props)

	tmpl.Design = doc.Data()
	updated, err := h.templateStore.Update(tmpl)
	if err != nil {
		serverError(w, "design save failed", err)
		return
	}
	respond(w, http.StatusOK, updated.Design.Properties)
}

// ToggleOrientation flips portrait/landscape, swapping page dimensions.
func (h *Templates) ToggleOrientation(w http.ResponseWriter, r *http.Request) {
	tmpl := h.loadOwned(w, r)
	if tmpl == nil {
		return
	}

	doc := design.New(tmpl.Design)
	doc.ToggleOrientation()

	tmpl.Design = doc.Data()
	updated, err := h.templateStore.Update(tmpl)
	if err != nil {
		serverError(w, "design save failed", err)
		return
	}
	respond(w, http.StatusOK, updated.Design.Properties)
}
