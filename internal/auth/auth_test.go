package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ignite/customer-console/internal/config"
	"github.com/ignite/customer-console/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type customers map[string]*domain.Customer

func (c customers) CustomerByUID(_ context.Context, uid string) (*domain.Customer, error) {
	if uid == "broken" {
		return nil, errors.New("db down")
	}
	cu, ok := c[uid]
	if !ok {
		return nil, ErrUnknownCustomer
	}
	return cu, nil
}

var testCustomers = customers{
	"main":     {ID: 1, UID: "main", Status: domain.CustomerActive},
	"sub":      {ID: 2, UID: "sub", ParentID: 1, Status: domain.CustomerActive},
	"inactive": {ID: 3, UID: "inactive", Status: domain.CustomerInactive},
}

func newManager(dev bool) *Manager {
	return NewManager(config.AuthConfig{JWTSecret: "s3cret", Issuer: "console", TokenTTLHours: 1, DevCustomerUID: "main"}, dev, testCustomers)
}

func serve(t *testing.T, m *Manager, mw func(http.Handler) http.Handler, token string) (*httptest.ResponseRecorder, *Identity) {
	t.Helper()
	var seen *Identity
	var h http.Handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = FromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})
	if mw != nil {
		h = mw(h)
	}
	req := httptest.NewRequest(http.MethodGet, "/api/customer/dashboard", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	m.RequireAuth(h).ServeHTTP(rec, req)
	return rec, seen
}

func TestRequireAuth_ValidToken(t *testing.T) {
	m := newManager(false)
	tok, err := m.Issue("main", nil)
	require.NoError(t, err)

	rec, id := serve(t, m, nil, tok)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	require.NotNil(t, id)
	assert.Equal(t, int64(1), id.CustomerID)
	assert.False(t, id.SubAccount())
}

func TestRequireAuth_SubAccountActsOnParent(t *testing.T) {
	m := newManager(false)
	tok, err := m.Issue("sub", []domain.Permission{domain.PermLists})
	require.NoError(t, err)

	_, id := serve(t, m, nil, tok)
	require.NotNil(t, id)
	assert.Equal(t, int64(1), id.CustomerID)
	assert.Equal(t, int64(2), id.UserID)
	assert.True(t, id.Can(domain.PermLists))
	assert.False(t, id.Can(domain.PermServers))
}

func TestRequireAuth_Rejects(t *testing.T) {
	m := newManager(false)
	expired := newManager(false)
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	old, err := expired.Issue("main", nil)
	require.NoError(t, err)
	other := NewManager(config.AuthConfig{JWTSecret: "other", Issuer: "console", TokenTTLHours: 1}, false, testCustomers)
	forged, err := other.Issue("main", nil)
	require.NoError(t, err)
	inactive, err := m.Issue("inactive", nil)
	require.NoError(t, err)
	unknown, err := m.Issue("ghost", nil)
	require.NoError(t, err)

	for name, tok := range map[string]string{
		"missing": "", "garbage": "abc", "expired": old, "forged": forged, "inactive": inactive, "unknown": unknown,
	} {
		t.Run(name, func(t *testing.T) {
			rec, id := serve(t, m, nil, tok)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Nil(t, id)
		})
	}
}

func TestRequireAuth_LookupFailureIs500(t *testing.T) {
	m := newManager(false)
	tok, err := m.Issue("broken", nil)
	require.NoError(t, err)

	rec, _ := serve(t, m, nil, tok)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestRequireAuth_DevModeFallback(t *testing.T) {
	rec, id := serve(t, newManager(true), nil, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	require.NotNil(t, id)
	assert.Equal(t, "main", id.CustomerUID)
}

func TestRequirePermission(t *testing.T) {
	m := newManager(false)
	gate := RequirePermission(domain.PermServers)

	sub, err := m.Issue("sub", []domain.Permission{domain.PermLists})
	require.NoError(t, err)
	rec, _ := serve(t, m, gate, sub)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	mainTok, err := m.Issue("main", nil)
	require.NoError(t, err)
	rec, _ = serve(t, m, gate, mainTok)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}
