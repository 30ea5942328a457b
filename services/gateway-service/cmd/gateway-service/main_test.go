package main

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/md-rashed-zaman/chairbook/libs/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

type seen struct {
	path string
	user string
	role string
	auth string
}

func newGateway(t *testing.T) (http.Handler, *seen) {
	t.Helper()
	got := &seen{}
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got.path = r.URL.Path
		got.user = r.Header.Get(userIDHeader)
		got.role = r.Header.Get(userRoleHeader)
		got.auth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(upstream.Close)

	target, err := parseUpstream(upstream.URL)
	require.NoError(t, err)
	mux := http.NewServeMux()
	registerRoutes(mux, newProxy(target), testSecret)
	return mux, got
}

func token(t *testing.T, sub, role string) string {
	t.Helper()
	tok, err := auth.SignHS256(auth.Claims{
		Sub:  sub,
		Role: role,
		Iat:  time.Now().Unix(),
		Exp:  time.Now().Add(time.Hour).Unix(),
	}, testSecret)
	require.NoError(t, err)
	return tok
}

func do(h http.Handler, method, path, bearer string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rw := httptest.NewRecorder()
	h.ServeHTTP(rw, req)
	return rw
}

func TestSlotsAreAnonymous(t *testing.T) {
	h, got := newGateway(t)

	rw := do(h, http.MethodGet, "/api/v1/public/slots?provider_id=barber-1&date=2025-03-11", "", map[string]string{userIDHeader: "someone-else"})
	assert.Equal(t, http.StatusOK, rw.Code)
	assert.Equal(t, "/api/v1/public/slots", got.path)
	assert.Empty(t, got.user)
}

func TestServiceListIsAnonymous(t *testing.T) {
	h, got := newGateway(t)

	rw := do(h, http.MethodGet, "/api/v1/public/services?provider_id=barber-1", "", map[string]string{userRoleHeader: "provider"})
	assert.Equal(t, http.StatusOK, rw.Code)
	assert.Equal(t, "/api/v1/public/services", got.path)
	assert.Empty(t, got.user)
	assert.Empty(t, got.role)
}

func TestCatalogEditsRequireToken(t *testing.T) {
	h, _ := newGateway(t)

	rw := do(h, http.MethodPost, "/api/v1/providers/services", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rw.Code)
}

func TestBookRequiresToken(t *testing.T) {
	h, got := newGateway(t)

	rw := do(h, http.MethodPost, "/api/v1/public/book", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rw.Code)

	rw = do(h, http.MethodPost, "/api/v1/public/book", "badtoken", nil)
	assert.Equal(t, http.StatusUnauthorized, rw.Code)
	assert.Empty(t, got.path)

	rw = do(h, http.MethodPost, "/api/v1/public/book", token(t, "cust-1", ""), map[string]string{userIDHeader: "spoofed"})
	assert.Equal(t, http.StatusOK, rw.Code)
	assert.Equal(t, "cust-1", got.user)
	assert.Equal(t, auth.RoleCustomer, got.role)
	assert.Empty(t, got.auth)
}

func TestCompleteIsProviderOnly(t *testing.T) {
	h, got := newGateway(t)

	rw := do(h, http.MethodPost, "/api/v1/appointments/complete", token(t, "cust-1", auth.RoleCustomer), nil)
	assert.Equal(t, http.StatusForbidden, rw.Code)

	rw = do(h, http.MethodPost, "/api/v1/appointments/complete", token(t, "barber-1", auth.RoleProvider), nil)
	assert.Equal(t, http.StatusOK, rw.Code)
	assert.Equal(t, "barber-1", got.user)
	assert.Equal(t, auth.RoleProvider, got.role)
}

func TestAppointmentsAndScheduleForwardIdentity(t *testing.T) {
	h, got := newGateway(t)

	rw := do(h, http.MethodGet, "/api/v1/appointments?customer_id=cust-1", token(t, "cust-1", auth.RoleCustomer), nil)
	assert.Equal(t, http.StatusOK, rw.Code)
	assert.Equal(t, "/api/v1/appointments", got.path)

	rw = do(h, http.MethodPut, "/api/v1/providers/schedule", token(t, "barber-1", auth.RoleProvider), nil)
	assert.Equal(t, http.StatusOK, rw.Code)
	assert.Equal(t, "/api/v1/providers/schedule", got.path)
	assert.Equal(t, auth.RoleProvider, got.role)
}

func TestParseUpstream(t *testing.T) {
	_, err := parseUpstream("booking-service:8083")
	assert.Error(t, err)

	u, err := parseUpstream(" http://booking-service:8083 ")
	require.NoError(t, err)
	assert.Equal(t, "booking-service:8083", u.Host)
}
