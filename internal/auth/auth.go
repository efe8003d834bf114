// Package auth authenticates console requests with signed customer tokens
// and enforces sub-account permissions.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/ignite/customer-console/internal/config"
	"github.com/ignite/customer-console/internal/domain"
	"github.com/ignite/customer-console/internal/pkg/httputil"
	"github.com/ignite/customer-console/internal/pkg/logger"
)

// ErrInvalidToken is returned for tokens that fail verification.
var ErrInvalidToken = errors.New("invalid token")

// ErrUnknownCustomer is returned by Customers when the uid does not exist.
var ErrUnknownCustomer = errors.New("unknown customer")

// Claims are the custom token claims. Subject is the customer uid.
type Claims struct {
	jwt.RegisteredClaims
	Permissions []domain.Permission `json:"permissions,omitempty"`
}

// Identity is the authenticated customer of a request. CustomerID is the
// account whose records are served: the parent for sub-accounts.
type Identity struct {
	CustomerID  int64
	CustomerUID string
	UserID      int64
	ParentID    int64
	Permissions []domain.Permission
}

// SubAccount reports whether the identity acts on a parent's records.
func (i *Identity) SubAccount() bool { return i.ParentID != 0 }

// Can reports whether the identity holds p. Main accounts hold everything.
func (i *Identity) Can(p domain.Permission) bool {
	return !i.SubAccount() || slices.Contains(i.Permissions, p)
}

// Customers resolves token subjects.
type Customers interface {
	CustomerByUID(ctx context.Context, uid string) (*domain.Customer, error)
}

// Manager issues and verifies customer tokens.
type Manager struct {
	cfg       config.AuthConfig
	devMode   bool
	customers Customers
	now       func() time.Time
}

// NewManager creates a token manager. In dev mode requests without a token
// act as cfg.DevCustomerUID.
func NewManager(cfg config.AuthConfig, devMode bool, customers Customers) *Manager {
	return &Manager{cfg: cfg, devMode: devMode, customers: customers, now: time.Now}
}

// Issue signs a token for the customer uid.
func (m *Manager) Issue(customerUID string, perms []domain.Permission) (string, error) {
	now := m.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   customerUID,
			Issuer:    m.cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.cfg.TokenTTL())),
		},
		Permissions: perms,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(m.cfg.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Parse verifies a token and returns its claims.
func (m *Manager) Parse(tokenStr string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(m.now),
	}
	if m.cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(m.cfg.Issuer))
	}
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(*jwt.Token) (any, error) {
		return []byte(m.cfg.JWTSecret), nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// identify resolves the request identity, or returns nil.
func (m *Manager) identify(r *http.Request) (*Identity, error) {
	var (
		uid   string
		perms []domain.Permission
	)
	if tok := bearer(r); tok != "" {
		claims, err := m.Parse(tok)
		if err != nil {
			return nil, err
		}
		uid, perms = claims.Subject, claims.Permissions
	} else if m.devMode && m.cfg.DevCustomerUID != "" {
		uid = m.cfg.DevCustomerUID
	} else {
		return nil, ErrInvalidToken
	}

	c, err := m.customers.CustomerByUID(r.Context(), uid)
	if err != nil {
		return nil, err
	}
	if c.Status != domain.CustomerActive {
		return nil, ErrInvalidToken
	}
	id := &Identity{
		CustomerID:  c.ID,
		CustomerUID: c.UID,
		UserID:      c.ID,
		ParentID:    c.ParentID,
		Permissions: perms,
	}
	if c.ParentID != 0 {
		id.CustomerID = c.ParentID
	}
	return id, nil
}

func bearer(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

// RequireAuth rejects requests without a valid customer identity.
func (m *Manager) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := m.identify(r)
		if err != nil {
			if !errors.Is(err, ErrInvalidToken) && !errors.Is(err, ErrUnknownCustomer) {
				logger.Error("customer lookup failed", "path", r.URL.Path, "error", err)
				httputil.Error(w, http.StatusInternalServerError, "An internal error occurred")
				return
			}
			httputil.Error(w, http.StatusUnauthorized, "Authentication required")
			return
		}
		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
	})
}

// RequirePermission rejects sub-accounts lacking p.
func RequirePermission(p domain.Permission) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := FromContext(r.Context())
			if id == nil {
				httputil.Error(w, http.StatusUnauthorized, "Authentication required")
				return
			}
			if !id.Can(p) {
				httputil.Forbidden(w, "You do not have the permission to access this resource!")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

type ctxKey struct{}

// WithIdentity stores id in ctx.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// FromContext returns the identity stored by RequireAuth, or nil.
func FromContext(ctx context.Context) *Identity {
	id, _ := ctx.Value(ctxKey{}).(*Identity)
	return id
}
