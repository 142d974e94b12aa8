package handlers

import (
	"net/http"

	"certstudio/internal/middleware"
	"certstudio/internal/models"
	"certstudio/internal/store"
)

// Admin serves the user administration and stats endpoints. The router
// gates the whole group behind RequireAdmin; role changes additionally
// require super_admin.
type Admin struct {
	userStore     *store.UserStore
	templateStore *store.TemplateStore
	certStore     *store.CertificateStore
	genStore      *store.GenerationStore
}

// NewAdmin creates a new Admin handler group.
func NewAdmin(
	userStore *store.UserStore,
	templateStore *store.TemplateStore,
	certStore *store.CertificateStore,
	genStore *store.GenerationStore,
) *Admin {
	return &Admin{
		userStore:     userStore,
		templateStore: templateStore,
		certStore:     certStore,
		genStore:      genStore,
	}
}

// ListUsers returns all accounts.
func (h *Admin) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.userStore.List()
	if err != nil {
		serverError(w, "user list failed", err)
		return
	}
	respond(w, http.StatusOK, users)
}

type updateRoleRequest struct {
	Role models.Role `json:"role"`
}

// UpdateRole changes an account's role. Super admin only (enforced by
// the router); admins cannot change their own role.
func (h *Admin) UpdateRole(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid user id")
		return
	}
	var req updateRoleRequest
	if err := decode(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !models.ValidRole(req.Role) {
		respondError(w, http.StatusBadRequest, "unknown role")
		return
	}

	sess := middleware.SessionFromCtx(r.Context())
	if sess.UserID == id {
		respondError(w, http.StatusBadRequest, "cannot change your own role")
		return
	}

	if err := h.userStore.UpdateRole(id, req.Role); err != nil {
		serverError(w, "role update failed", err)
		return
	}
	respond(w, http.StatusOK, nil)
}

type updateUserStatusRequest struct {
	Status models.UserStatus `json:"status"`
}

// UpdateStatus suspends or reactivates an account.
func (h *Admin) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid user id")
		return
	}
	var req updateUserStatusRequest
	if err := decode(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !models.ValidUserStatus(req.Status) {
		respondError(w, http.StatusBadRequest, "unknown status")
		return
	}

	sess := middleware.SessionFromCtx(r.Context())
	if sess.UserID == id {
		respondError(w, http.StatusBadRequest, "cannot change your own status")
		return
	}

	if err := h.userStore.UpdateStatus(id, req.Status); err != nil {
		serverError(w, "status update failed", err)
		return
	}
	respond(w, http.StatusOK, nil)
}

// ResetTOTP clears an account's 2FA enrollment so the user can re-enroll
// after losing their authenticator.
func (h *Admin) ResetTOTP(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid user id")
		return
	}
	if err := h.userStore.ResetTOTP(id); err != nil {
		serverError(w, "totp reset failed", err)
		return
	}
	respond(w, http.StatusOK, nil)
}

type statsResponse struct {
	Users        int `json:"users"`
	Templates    int `json:"templates"`
	Certificates int `json:"certificates"`
	Generations  int `json:"generations"`
}

// Stats returns aggregate counts for the admin dashboard.
func (h *Admin) Stats(w http.ResponseWriter, r *http.Request) {
	var (
		stats statsResponse
		err   error
	)
	if stats.Users, err = h.userStore.Count(); err != nil {
		serverError(w, "stats failed", err)
		return
	}
	if stats.Templates, err = h.templateStore.Count(); err != nil {
		serverError(w, "stats failed", err)
		return
	}
	if stats.Certificates, err = h.certStore.Count(); err != nil {
		serverError(w, "stats failed", err)
		return
	}
	if stats.Generations, err = h.genStore.Count(); err != nil {
		serverError(w, "stats failed", err)
		return
	}
	respond(w, http.StatusOK, stats)
}
