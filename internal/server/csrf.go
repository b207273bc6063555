package server

import (
	"context"
	"crypto/subtle"
	"net/http"

	"github.com/google/uuid"

	"taskflow/internal/page"
)

// CSRF cookie and header names.
const (
	CSRFCookie = "csrftoken"
	CSRFHeader = "X-CSRFToken"
)

type tokenKey struct{}

// csrfProtect gives every client a token cookie and rejects unsafe requests
// that do not echo it in the header or the form.
func csrfProtect(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := ""
		if c, err := r.Cookie(CSRFCookie); err == nil && c.Value != "" {
			token = c.Value
		} else {
			token = uuid.NewString()
			http.SetCookie(w, &http.Cookie{
				Name:     CSRFCookie,
				Value:    token,
				Path:     "/",
				SameSite: http.SameSiteLaxMode,
			})
		}

		switch r.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
		default:
			sent := r.Header.Get(CSRFHeader)
			if sent == "" {
				sent = r.PostFormValue(page.TokenField)
			}
			if sent == "" || subtle.ConstantTimeCompare([]byte(sent), []byte(token)) != 1 {
				http.Error(w, "CSRF verification failed", http.StatusForbidden)
				return
			}
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), tokenKey{}, token)))
	})
}

func csrfToken(r *http.Request) string {
	t, _ := r.Context().Value(tokenKey{}).(string)
	return t
}
