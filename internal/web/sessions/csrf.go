package sessions

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"net/http"
)

const (
	csrfCookie = "csrf_token"
	// CSRFField is the form field every POST must echo the token in
	CSRFField = "csrf_token"
)

type csrfKey struct{}

// CSRFToken returns the token forms rendered for this request must carry
func CSRFToken(ctx context.Context) string {
	token, _ := ctx.Value(csrfKey{}).(string)
	return token
}

// CSRF rejects state-changing requests whose form token does not match the
// browser's csrf cookie, and issues the cookie on first visit.
func (reg *Registry) CSRF(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var token string
		if c, err := r.Cookie(csrfCookie); err == nil {
			token = c.Value
		}

		if !safeMethod(r.Method) && !validCSRFToken(token, r.PostFormValue(CSRFField)) {
			reg.logger.Warn("rejected request with invalid CSRF token",
				"method", r.Method,
				"path", r.URL.Path,
				"ip", r.RemoteAddr,
			)
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}

		if token == "" {
			var err error
			token, err = generateCSRFToken()
			if err != nil {
				reg.logger.Error("failed to generate CSRF token", "error", err)
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				return
			}
			http.SetCookie(w, &http.Cookie{
				Name:     csrfCookie,
				Value:    token,
				Path:     "/",
				HttpOnly: true,
				Secure:   reg.secure,
				SameSite: http.SameSiteStrictMode,
			})
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), csrfKey{}, token)))
	})
}

func safeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	return false
}

func generateCSRFToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func validCSRFToken(cookie, submitted string) bool {
	if cookie == "" || submitted == "" {
		return false
	}
	return hmac.Equal([]byte(cookie), []byte(submitted))
}
