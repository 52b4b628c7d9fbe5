package middleware

import (
	"encoding/json"
	"net/http"
)

// Session reports whether the household admin is logged in.
type Session interface {
	IsAuthenticated() bool
}

// RequireAdmin rejects requests with 401 unless the admin session is open.
func RequireAdmin(session Session) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !session.IsAuthenticated() {
				writeError(w, http.StatusUnauthorized, "admin login required")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
