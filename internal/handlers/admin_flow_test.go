// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"certstudio/internal/models"
)

func TestAdminUserManagement(t *testing.T) {
	env := newTestEnv(t)
	super := env.testUser(t, models.RoleSuperAdmin)
	target := env.testUser(t, models.RoleUser)
	sess := sessionFor(super)

	t.Run("list includes the target", func(t *testing.T) {
		rr := httptest.NewRecorder()
		env.Admin.ListUsers(rr, jsonRequest(http.MethodGet, "/api/admin/users", nil, sess))
		if rr.Code != http.StatusOK {
			t.Fatalf("list: got %d", rr.Code)
		}
		var users []models.User
		decodeEnvelope(t, rr, &users)
		found := false
		for _, u := range users {
			if u.ID == target.ID {
				found = true
			}
			if u.PasswordHash != "" {
				t.Error("password hash must never be serialized")
			}
		}
		if !found {
			t.Error("target user missing from list")
		}
	})

	t.Run("role change promotes the target", func(t *testing.T) {
		rr := httptest.NewRecorder()
		req := withChiURLParam(jsonRequest(http.MethodPut, "/api/admin/users/x/role", map[string]string{
			"role": "admin",
		}, sess), "id", target.ID.String())
		env.Admin.UpdateRole(rr, req)
		if rr.Code != http.StatusOK {
			t.Fatalf("role update: got %d (%s)", rr.Code, rr.Body.String())
		}

		stored, _ := env.UserStore.FindByID(target.ID)
		if stored.Role != models.RoleAdmin {
			t.Errorf("role: got %q, want admin", stored.Role)
		}
	})

	t.Run("self role change is rejected", func(t *testing.T) {
		rr := httptest.NewRecorder()
		req := withChiURLParam(jsonRequest(http.MethodPut, "/api/admin/users/x/role", map[string]string{
			"role": "user",
		}, sess), "id", super.ID.String())
		env.Admin.UpdateRole(rr, req)
		if rr.Code != http.StatusBadRequest {
			t.Errorf("self role change: got %d, want 400", rr.Code)
		}
	})

	t.Run("unknown role is rejected", func(t *testing.T) {
		rr := httptest.NewRecorder()
		req := withChiURLParam(jsonRequest(http.MethodPut, "/api/admin/users/x/role", map[string]string{
			"role": "emperor",
		}, sess), "id", target.ID.String())
		env.Admin.UpdateRole(rr, req)
		if rr.Code != http.StatusBadRequest {
			t.Errorf("unknown role: got %d, want 400", rr.Code)
		}
	})

	t.Run("status change suspends the target", func(t *testing.T) {
		rr := httptest.NewRecorder()
		req := withChiURLParam(jsonRequest(http.MethodPut, "/api/admin/users/x/status", map[string]string{
			"status": "suspended",
		}, sess), "id", target.ID.String())
		env.Admin.UpdateStatus(rr, req)
		if rr.Code != http.StatusOK {
			t.Fatalf("status update: got %d (%s)", rr.Code, rr.Body.String())
		}

		stored, _ := env.UserStore.FindByID(target.ID)
		if stored.Status != models.UserSuspended {
			t.Errorf("status: got %q, want suspended", stored.Status)
		}
	})

	t.Run("reset clears 2fa enrollment", func(t *testing.T) {
		if err := env.UserStore.SetTOTPSecret(target.ID, "JBSWY3DPEHPK3PXP"); err != nil {
			t.Fatalf("set totp secret: %v", err)
		}
		if err := env.UserStore.EnableTOTP(target.ID); err != nil {
			t.Fatalf("enable totp: %v", err)
		}

		rr := httptest.NewRecorder()
		req := withChiURLParam(jsonRequest(http.MethodPost, "/api/admin/users/x/reset-2fa", nil, sess), "id", target.ID.String())
		env.Admin.ResetTOTP(rr, req)
		if rr.Code != http.StatusOK {
			t.Fatalf("reset 2fa: got %d", rr.Code)
		}

		stored, _ := env.UserStore.FindByID(target.ID)
		if stored.TOTPEnabled || stored.TOTPSecret != nil {
			t.Errorf("2fa not cleared: enabled=%v secret=%v", stored.TOTPEnabled, stored.TOTPSecret)
		}
	})

	t.Run("stats counts are non-negative and include the users", func(t *testing.T) {
		rr := httptest.NewRecorder()
		env.Admin.Stats(rr, jsonRequest(http.MethodGet, "/api/admin/stats", nil, sess))
		if rr.Code != http.StatusOK {
			t.Fatalf("stats: got %d", rr.Code)
		}
		var stats struct {
			Users        int `json:"users"`
			Templates    int `json:"templates"`
			Certificates int `json:"certificates"`
			Generations  int `json:"generations"`
		}
		decodeEnvelope(t, rr, &stats)
		if stats.Users < 2 {
			t.Errorf("user count: got %d, want at least 2", stats.Users)
		}
		if stats.Templates < 0 || stats.Certificates < 0 || stats.Generations < 0 {
			t.Errorf("negative counts: %+v", stats)
		}
	})
}
