package csrf

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"log/slog"
	"net/http"
)

// The dashboard client reads CookieName from its jar and echoes it in HeaderName.
const (
	CookieName = "csrf_token"
	HeaderName = "X-CSRF-Token"
	tokenLen   = 32
)

func generateToken() (string, error) {
	b := make([]byte, tokenLen)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// Protect implements the double-submit cookie pattern.
// Safe methods get a csrf_token cookie if they lack one; state-changing
// methods (POST, PUT, PATCH, DELETE) must echo it in X-CSRF-Token.
func Protect(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			if _, err := r.Cookie(CookieName); err != nil {
				token, err := generateToken()
				if err != nil {
					http.Error(w, "Internal error", http.StatusInternalServerError)
					return
				}
				http.SetCookie(w, &http.Cookie{
					Name:     CookieName,
					Value:    token,
					Path:     "/",
					HttpOnly: false,
					SameSite: http.SameSiteStrictMode,
				})
			}
			next.ServeHTTP(w, r)
			return
		}

		cookie, err := r.Cookie(CookieName)
		if err != nil || cookie.Value == "" {
			slog.Warn("csrf: missing token", "method", r.Method, "path", r.URL.Path)
			http.Error(w, "Forbidden: missing CSRF token", http.StatusForbidden)
			return
		}
		header := r.Header.Get(HeaderName)
		if header == "" || subtle.ConstantTimeCompare([]byte(header), []byte(cookie.Value)) != 1 {
			slog.Warn("csrf: token mismatch", "method", r.Method, "path", r.URL.Path)
			http.Error(w, "Forbidden: invalid CSRF token", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}
