package handlers

import (
	"encoding/base64"
	"net/http"
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/pquerna/otp/totp"
	qrcode "github.com/skip2/go-qrcode"

	"certstudio/internal/middleware"
	"certstudio/internal/models"
	"certstudio/internal/session"
	"certstudio/internal/store"
)

const (
	minPasswordLen    = 8
	maxDisplayNameLen = 100
)

// Auth groups all authentication-related HTTP handlers.
type Auth struct {
	sessions  *session.Store
	userStore *store.UserStore
}

// NewAuth creates a new Auth handler group.
func NewAuth(sessions *session.Store, userStore *store.UserStore) *Auth {
	return &Auth{sessions: sessions, userStore: userStore}
}

type registerRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
}

// Register creates a new account with the default user role.
func (a *Auth) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decode(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if _, err := mail.ParseAddress(req.Email); err != nil {
		respondError(w, http.StatusBadRequest, "invalid email address")
		return
	}
	if utf8.RuneCountInString(req.Password) < minPasswordLen {
		respondError(w, http.StatusBadRequest, "password must be at least 8 characters")
		return
	}
	if utf8.RuneCountInString(req.DisplayName) > maxDisplayNameLen {
		respondError(w, http.StatusBadRequest, "display name is too long")
		return
	}

	existing, err := a.userStore.FindByEmail(req.Email)
	if err != nil {
		serverError(w, "register lookup failed", err)
		return
	}
	if existing != nil {
		respondError(w, http.StatusConflict, "an account with this email already exists")
		return
	}

	user, err := a.userStore.Create(req.Email, req.Password, req.DisplayName, models.RoleUser)
	if err != nil {
		serverError(w, "register create failed", err)
		return
	}

	respond(w, http.StatusCreated, user)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	User      *models.User `json:"user"`
	Needs2FA  bool         `json:"needs_2fa"`
	SetupDone bool         `json:"totp_enrolled"`
}

// Login validates credentials and opens a session. TwoFADone starts as
// false when the account has 2FA enabled; the client must follow up with
// a TOTP verification before protected routes open up.
func (a *Auth) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decode(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := a.userStore.FindByEmail(strings.TrimSpace(strings.ToLower(req.Email)))
	if err != nil {
		serverError(w, "login lookup failed", err)
		return
	}
	if user == nil || !a.userStore.CheckPassword(user, req.Password) {
		respondError(w, http.StatusUnauthorized, "invalid email or password")
		return
	}
	if user.Status != models.UserActive {
		respondError(w, http.StatusForbidden, "account is not active")
		return
	}

	// Accounts without 2FA enrollment complete login in one step.
	_, err = a.sessions.Create(r.Context(), w, &session.Data{
		UserID:      user.ID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
		Role:        user.Role,
		TwoFADone:   !user.TOTPEnabled,
	})
	if err != nil {
		serverError(w, "session create failed", err)
		return
	}

	respond(w, http.StatusOK, loginResponse{
		User:      user,
		Needs2FA:  user.TOTPEnabled,
		SetupDone: user.TOTPEnabled,
	})
}

// Logout destroys the session.
func (a *Auth) Logout(w http.ResponseWriter, r *http.Request) {
	a.sessions.Destroy(r.Context(), w, r)
	respond(w, http.StatusOK, nil)
}

// Me returns the authenticated user.
func (a *Auth) Me(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())
	user, err := a.userStore.FindByID(sess.UserID)
	if err != nil {
		serverError(w, "me lookup failed", err)
		return
	}
	if user == nil {
		respondError(w, http.StatusUnauthorized, "account no longer exists")
		return
	}
	respond(w, http.StatusOK, user)
}

type profileRequest struct {
	DisplayName string `json:"display_name"`
}

// UpdateProfile changes the authenticated user's display name and keeps
// the session copy in sync.
func (a *Auth) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())

	var req profileRequest
	if err := decode(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.DisplayName = strings.TrimSpace(req.DisplayName)
	if req.DisplayName == "" {
		respondError(w, http.StatusBadRequest, "display name is required")
		return
	}
	if utf8.RuneCountInString(req.DisplayName) > maxDisplayNameLen {
		respondError(w, http.StatusBadRequest, "display name is too long")
		return
	}

	user, err := a.userStore.UpdateDisplayName(sess.UserID, req.DisplayName)
	if err != nil {
		serverError(w, "profile update failed", err)
		return
	}
	if user == nil {
		respondError(w, http.StatusUnauthorized, "account no longer exists")
		return
	}

	sess.DisplayName = user.DisplayName
	if err := a.sessions.Update(r.Context(), r, sess); err != nil {
		serverError(w, "session update failed", err)
		return
	}

	respond(w, http.StatusOK, user)
}

type twoFASetupResponse struct {
	Secret string `json:"secret"`
	QRCode string `json:"qr_code"` // base64-encoded PNG
}

// TwoFASetup generates a TOTP secret for the authenticated user and
// returns it with a QR code for authenticator apps.
func (a *Auth) TwoFASetup(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      "CertStudio",
		AccountName: sess.Email,
	})
	if err != nil {
		serverError(w, "totp generate failed", err)
		return
	}

	if err := a.userStore.SetTOTPSecret(sess.UserID, key.Secret()); err != nil {
		serverError(w, "save totp secret failed", err)
		return
	}

	qrPNG, err := qrcode.Encode(key.URL(), qrcode.Medium, 256)
	if err != nil {
		serverError(w, "qr code generation failed", err)
		return
	}

	respond(w, http.StatusOK, twoFASetupResponse{
		Secret: key.Secret(),
		QRCode: base64.StdEncoding.EncodeToString(qrPNG),
	})
}

type twoFAVerifyRequest struct {
	Code string `json:"code"`
}

// TwoFAVerify validates the TOTP code and completes authentication.
// On first-time setup it also flips totp_enabled.
func (a *Auth) TwoFAVerify(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())

	var req twoFAVerifyRequest
	if err := decode(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := a.userStore.FindByID(sess.UserID)
	if err != nil || user == nil {
		serverError(w, "user lookup for 2fa failed", err)
		return
	}
	if user.TOTPSecret == nil {
		respondError(w, http.StatusBadRequest, "2FA setup has not been started")
		return
	}

	if !totp.Validate(req.Code, *user.TOTPSecret) {
		respondError(w, http.StatusUnauthorized, "invalid code")
		return
	}

	// If this is the first-time setup, enable TOTP in the database.
	if !user.TOTPEnabled {
		if err := a.userStore.EnableTOTP(user.ID); err != nil {
			serverError(w, "enable totp failed", err)
			return
		}
	}

	sess.TwoFADone = true
	if err := a.sessions.Update(r.Context(), r, sess); err != nil {
		serverError(w, "session update failed", err)
		return
	}

	respond(w, http.StatusOK, nil)
}
