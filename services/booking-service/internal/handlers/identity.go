package handlers

import (
	"net/http"
	"strings"

	"github.com/md-rashed-zaman/chairbook/libs/auth"
	"github.com/md-rashed-zaman/chairbook/libs/httpx"
)

const (
	userIDHeader   = "X-User-Id"
	userRoleHeader = "X-User-Role"
)

// Identity resolves the caller of each request. With a secret it trusts only
// HS256 bearer tokens; without one it trusts the headers set by the gateway.
// Requests without credentials pass through anonymously.
func Identity(secret string) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if secret != "" {
				token, ok := auth.BearerToken(r.Header.Get("Authorization"))
				if !ok {
					next.ServeHTTP(w, r)
					return
				}
				claims, err := auth.ParseAndVerifyHS256(token, secret)
				if err != nil {
					http.Error(w, "invalid token", http.StatusUnauthorized)
					return
				}
				role := claims.Role
				if role == "" {
					role = auth.RoleCustomer
				}
				next.ServeHTTP(w, httpx.SetCaller(r, httpx.Caller{ID: claims.Sub, Role: role}))
				return
			}

			id := strings.TrimSpace(r.Header.Get(userIDHeader))
			if id == "" {
				next.ServeHTTP(w, r)
				return
			}
			role := strings.ToLower(strings.TrimSpace(r.Header.Get(userRoleHeader)))
			if role != auth.RoleProvider {
				role = auth.RoleCustomer
			}
			next.ServeHTTP(w, httpx.SetCaller(r, httpx.Caller{ID: id, Role: role}))
		})
	}
}

func requireCaller(w http.ResponseWriter, r *http.Request) (httpx.Caller, bool) {
	c, ok := httpx.CallerFromContext(r.Context())
	if !ok {
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return httpx.Caller{}, false
	}
	return c, true
}
