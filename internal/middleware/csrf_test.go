// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

// issueToken runs one GET through the middleware and returns the cookie
// it sets.
func issueToken(t *testing.T, handler http.Handler) *http.Cookie {
	t.Helper()
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/templates", nil))
	for _, c := range rr.Result().Cookies() {
		if c.Name == CSRFCookieName {
			return c
		}
	}
	t.Fatal("middleware did not issue a token cookie")
	return nil
}

func TestCSRFIssuesTokenCookie(t *testing.T) {
	handler := CSRF(okHandler())
	cookie := issueToken(t, handler)

	if cookie.Value == "" {
		t.Error("token must not be empty")
	}
	if cookie.HttpOnly {
		t.Error("cookie must be readable by the editor")
	}
	if cookie.SameSite != http.SameSiteStrictMode {
		t.Errorf("SameSite: got %v", cookie.SameSite)
	}

	// A request that already carries the cookie keeps its token.
	req := httptest.NewRequest(http.MethodGet, "/api/fields", nil)
	req.AddCookie(cookie)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	for _, c := range rr.Result().Cookies() {
		if c.Name == CSRFCookieName {
			t.Error("existing token must not be reissued")
		}
	}
}

func TestCSRFSafeMethodsSkipValidation(t *testing.T) {
	handler := CSRF(okHandler())
	for _, method := range []string{http.MethodGet, http.MethodHead, http.MethodOptions} {
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, httptest.NewRequest(method, "/api/certificates", nil))
		if rr.Code != http.StatusOK {
			t.Errorf("%s: got %d, want 200", method, rr.Code)
		}
	}
}

func TestCSRFMutationsNeedMatchingToken(t *testing.T) {
	handler := CSRF(okHandler())
	cookie := issueToken(t, handler)

	newReq := func(method string) *http.Request {
		req := httptest.NewRequest(method, "/api/templates/abc", nil)
		req.AddCookie(cookie)
		return req
	}

	for _, method := range []string{http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete} {
		t.Run(method+" without token", func(t *testing.T) {
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, newReq(method))
			if rr.Code != http.StatusForbidden {
				t.Errorf("got %d, want 403", rr.Code)
			}
		})
	}

	t.Run("header token accepted", func(t *testing.T) {
		req := newReq(http.MethodPut)
		req.Header.Set(CSRFHeaderName, cookie.Value)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		if rr.Code != http.StatusOK {
			t.Errorf("got %d, want 200", rr.Code)
		}
	})

	t.Run("form field token accepted", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/datasets?"+CSRFFormField+"="+cookie.Value, nil)
		req.AddCookie(cookie)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		if rr.Code != http.StatusOK {
			t.Errorf("got %d, want 200", rr.Code)
		}
	})

	t.Run("wrong token rejected", func(t *testing.T) {
		req := newReq(http.MethodDelete)
		req.Header.Set(CSRFHeaderName, "deadbeef")
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		if rr.Code != http.StatusForbidden {
			t.Errorf("got %d, want 403", rr.Code)
		}
	})
}
