package middleware

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"net/http"
)

const (
	// CSRFCookieName holds the double-submit token. Not HttpOnly: the
	// editor reads it and echoes it back in CSRFHeaderName.
	CSRFCookieName = "cs_csrf"

	// CSRFHeaderName carries the token on JSON requests.
	CSRFHeaderName = "X-CSRF-Token"

	// CSRFFormField carries the token on multipart uploads, where setting
	// a header is inconvenient for plain form posts.
	CSRFFormField = "csrf_token"
)

var safeMethods = map[string]bool{
	http.MethodGet:     true,
	http.MethodHead:    true,
	http.MethodOptions: true,
}

// CSRF implements double-submit cookie protection: a random token lives
// in a JS-readable cookie, and every mutating request must repeat it in
// the X-CSRF-Token header or the csrf_token form field.
func CSRF(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := GetCSRFToken(r)
		if token == "" {
			fresh, err := newCSRFToken()
			if err != nil {
				jsonError(w, http.StatusInternalServerError, "internal server error")
				return
			}
			token = fresh
			http.SetCookie(w, &http.Cookie{
				Name:     CSRFCookieName,
				Value:    token,
				Path:     "/",
				HttpOnly: false,
				SameSite: http.SameSiteStrictMode,
			})
		}

		if safeMethods[r.Method] {
			next.ServeHTTP(w, r)
			return
		}

		echoed := r.Header.Get(CSRFHeaderName)
		if echoed == "" {
			echoed = r.FormValue(CSRFFormField)
		}
		if subtle.ConstantTimeCompare([]byte(token), []byte(echoed)) != 1 {
			jsonError(w, http.StatusForbidden, "CSRF token mismatch")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// GetCSRFToken returns the token from the request cookie, or "".
func GetCSRFToken(r *http.Request) string {
	c, err := r.Cookie(CSRFCookieName)
	if err != nil {
		return ""
	}
	return c.Value
}

func newCSRFToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
