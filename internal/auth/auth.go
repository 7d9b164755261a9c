// internal/auth/auth.go
package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
)

type contextKey string

const operatorKey contextKey = "operator_email"

// Authenticator gates the admin API: a bearer token must resolve to an
// email on the operator allow-list. DevBypass is only honored outside
// production (enforced at config load).
type Authenticator struct {
	Tokens      map[string]string // bearer token -> operator email
	AdminEmails []string
	DevBypass   bool
}

func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if a.DevBypass {
			next.ServeHTTP(w, r.WithContext(WithOperator(r.Context(), "dev@localhost")))
			return
		}

		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			deny(w, http.StatusUnauthorized, "missing bearer token")
			return
		}

		email, ok := a.Tokens[token]
		if !ok {
			deny(w, http.StatusUnauthorized, "invalid token")
			return
		}
		if !a.isAdmin(email) {
			deny(w, http.StatusForbidden, "operator not allowed")
			return
		}

		next.ServeHTTP(w, r.WithContext(WithOperator(r.Context(), email)))
	})
}

func (a *Authenticator) isAdmin(email string) bool {
	email = strings.ToLower(email)
	for _, allowed := range a.AdminEmails {
		if allowed == email {
			return true
		}
	}
	return false
}

func WithOperator(ctx context.Context, email string) context.Context {
	return context.WithValue(ctx, operatorKey, email)
}

// Operator returns the authenticated operator email, if any.
func Operator(ctx context.Context) string {
	email, _ := ctx.Value(operatorKey).(string)
	return email
}

func deny(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]interface{}{"ok": false, "error": msg})
}
