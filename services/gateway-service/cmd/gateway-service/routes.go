package main

import (
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"

	"github.com/md-rashed-zaman/chairbook/libs/auth"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	userIDHeader   = "X-User-Id"
	userRoleHeader = "X-User-Role"
)

func registerRoutes(mux *http.ServeMux, booking http.Handler, jwtSecret string) {
	mux.Handle("/api/v1/public/slots", anonymous(booking))
	mux.Handle("/api/v1/public/services", anonymous(booking))
	mux.Handle("/api/v1/public/book", requireAuth(booking, jwtSecret))
	mux.Handle("/api/v1/providers/", requireAuth(booking, jwtSecret))
	mux.Handle("/api/v1/appointments/complete", requireAuth(requireRole(booking, auth.RoleProvider), jwtSecret))
	registerProxy(mux, "/api/v1/appointments", requireAuth(booking, jwtSecret))
}

func newProxy(target *url.URL) *httputil.ReverseProxy {
	proxy := httputil.NewSingleHostReverseProxy(target)
	proxy.Transport = otelhttp.NewTransport(http.DefaultTransport)
	return proxy
}

func parseUpstream(raw string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, err
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("upstream url %q needs scheme and host", raw)
	}
	return u, nil
}

func registerProxy(mux *http.ServeMux, prefix string, handler http.Handler) {
	mux.Handle(prefix, handler)
	mux.Handle(prefix+"/", handler)
}

// anonymous drops identity headers so a client cannot impersonate another user upstream.
func anonymous(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.Header.Del(userIDHeader)
		r.Header.Del(userRoleHeader)
		r.Header.Del("Authorization")
		next.ServeHTTP(w, r)
	})
}

func requireAuth(next http.Handler, jwtSecret string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := auth.BearerToken(r.Header.Get("Authorization"))
		if !ok {
			http.Error(w, "missing or invalid Authorization header", http.StatusUnauthorized)
			return
		}
		claims, err := auth.ParseAndVerifyHS256(token, jwtSecret)
		if err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}
		role := claims.Role
		if role != auth.RoleProvider {
			role = auth.RoleCustomer
		}

		r.Header.Del("Authorization")
		r.Header.Set(userIDHeader, claims.Sub)
		r.Header.Set(userRoleHeader, role)
		next.ServeHTTP(w, r)
	})
}

func requireRole(next http.Handler, roles ...string) http.Handler {
	allowed := map[string]struct{}{}
	for _, r := range roles {
		allowed[r] = struct{}{}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := allowed[r.Header.Get(userRoleHeader)]; !ok {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}
