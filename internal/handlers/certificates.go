package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"certstudio/internal/middleware"
	"certstudio/internal/models"
	"certstudio/internal/store"
)

// Certificates manages issued certificate records.
type Certificates struct {
	certStore     *store.CertificateStore
	templateStore *store.TemplateStore
}

// NewCertificates creates a new Certificates handler group.
func NewCertificates(certStore *store.CertificateStore, templateStore *store.TemplateStore) *Certificates {
	return &Certificates{certStore: certStore, templateStore: templateStore}
}

type createCertificateRequest struct {
	TemplateID    string     `json:"template_id"`
	Title         string     `json:"title"`
	RecipientName string     `json:"recipient_name"`
	IssueDate     *time.Time `json:"issue_date"`
}

// Create records a certificate against one of the user's templates.
func (h *Certificates) Create(w http.ResponseWriter, r *http.Request) {
	var req createCertificateRequest
	if err := decode(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.Title = strings.TrimSpace(req.Title)
	req.RecipientName = strings.TrimSpace(req.RecipientName)
	if req.Title == "" || req.RecipientName == "" {
		respondError(w, http.StatusBadRequest, "title and recipient_name are required")
		return
	}

	templateID, err := uuid.Parse(req.TemplateID)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid template_id")
		return
	}
	tmpl, err := h.templateStore.FindByID(templateID)
	if err != nil {
		serverError(w, "template lookup failed", err)
		return
	}
	sess := middleware.SessionFromCtx(r.Context())
	if tmpl == nil || (tmpl.UserID != sess.UserID && !tmpl.IsPublic) {
		respondError(w, http.StatusNotFound, "template not found")
		return
	}

	var issueDate time.Time
	if req.IssueDate != nil {
		issueDate = *req.IssueDate
	}
	cert, err := h.certStore.Create(sess.UserID, templateID, req.Title, req.RecipientName, issueDate, models.CertificateDraft)
	if err != nil {
		serverError(w, "certificate create failed", err)
		return
	}
	respond(w, http.StatusCreated, cert)
}

// List returns the user's certificates, newest first.
func (h *Certificates) List(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())
	certs, err := h.certStore.ListByUser(sess.UserID)
	if err != nil {
		serverError(w, "certificate list failed", err)
		return
	}
	respond(w, http.StatusOK, certs)
}

// Get returns one certificate.
func (h *Certificates) Get(w http.ResponseWriter, r *http.Request) {
	cert := h.loadOwned(w, r)
	if cert == nil {
		return
	}
	respond(w, http.StatusOK, cert)
}

type updateStatusRequest struct {
	Status models.CertificateStatus `json:"status"`
}

// UpdateStatus moves a certificate through its lifecycle (draft,
// generated, sent, revoked).
func (h *Certificates) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	cert := h.loadOwned(w, r)
	if cert == nil {
		return
	}
	var req updateStatusRequest
	if err := decode(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !models.ValidCertificateStatus(req.Status) {
		respondError(w, http.StatusBadRequest, "unknown status")
		return
	}
	if err := h.certStore.UpdateStatus(cert.ID, req.Status); err != nil {
		serverError(w, "certificate status update failed", err)
		return
	}
	cert.Status = req.Status
	respond(w, http.StatusOK, cert)
}

// Delete removes a certificate record.
func (h *Certificates) Delete(w http.ResponseWriter, r *http.Request) {
	cert := h.loadOwned(w, r)
	if cert == nil {
		return
	}
	if err := h.certStore.Delete(cert.ID); err != nil {
		serverError(w, "certificate delete failed", err)
		return
	}
	respond(w, http.StatusOK, nil)
}

func (h *Certificates) loadOwned(w http.ResponseWriter, r *http.Request) *models.Certificate {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid certificate id")
		return nil
	}
	cert, err := h.certStore.FindByID(id)
	if err != nil {
		serverError(w, "certificate lookup failed", err)
		return nil
	}
	if cert == nil {
		respondError(w, http.StatusNotFound, "certificate not found")
		return nil
	}
	sess := middleware.SessionFromCtx(r.Context())
	if cert.UserID != sess.UserID {
		respondError(w, http.StatusForbidden, "not your certificate")
		return nil
	}
	return cert
}
