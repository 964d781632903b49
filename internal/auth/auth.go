// Package auth resolves the caller's identity and city from a JWT bearer
// token. Token issuance belongs to the auth service; this package only
// validates and exposes the claims the engine needs.
package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sahayata/resource-engine/internal/model"
)

// CityUnset is the sentinel an unprovisioned admin account carries. It is
// treated the same as a missing city: every mutating call fails closed.
const CityUnset = "unset"

// Roles recognised by the engine.
const (
	RoleAdmin   = "admin"
	RoleCitizen = "citizen"
)

// Identity is the authenticated caller, resolved once per request and passed
// explicitly to every service call.
type Identity struct {
	UserID  string
	Name    string
	Role    string
	City    string
	Contact string
}

// IsAdmin reports whether the caller holds the admin role.
func (id Identity) IsAdmin() bool {
	return id.Role == RoleAdmin
}

// HasCity reports whether the caller is provisioned with a usable city.
func (id Identity) HasCity() bool {
	return id.City != "" && id.City != CityUnset
}

type contextKey struct{}

// FromContext returns the identity stored by Middleware.
func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(contextKey{}).(Identity)
	return id, ok
}

// WithIdentity returns a context carrying the given identity. Used by tests
// and by Middleware.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// Secret returns the HMAC signing secret from the environment.
func Secret() string {
	return os.Getenv("JWT_SECRET")
}

// Middleware validates the Authorization bearer token and stores the
// resolved Identity in the request context. Requests without a valid token
// are rejected with 401.
func Middleware(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				unauthorized(w, "authorization header required")
				return
			}
			parts := strings.Split(header, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				unauthorized(w, "authorization header must be in format 'Bearer <token>'")
				return
			}
			if secret == "" {
				writeJSONError(w, http.StatusInternalServerError, "server not configured: JWT secret missing")
				return
			}

			token, err := jwt.Parse(parts[1], func(t *jwt.Token) (interface{}, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, jwt.ErrSignatureInvalid
				}
				return []byte(secret), nil
			})
			if err != nil || !token.Valid {
				unauthorized(w, "the provided token is invalid or expired")
				return
			}

			claims, ok := token.Claims.(jwt.MapClaims)
			if !ok {
				unauthorized(w, "the provided token is invalid or expired")
				return
			}

			id := Identity{
				UserID:  claimString(claims, "user_id"),
				Name:    claimString(claims, "name"),
				Role:    claimString(claims, "role"),
				City:    claimString(claims, "city"),
				Contact: claimString(claims, "contact"),
			}
			if id.UserID == "" {
				unauthorized(w, "the provided token carries no user identity")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

// RequireAdmin gates admin-only routes. A missing or "unset" city means the
// admin account is not provisioned for any city and every call fails closed.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := FromContext(r.Context())
		if !ok {
			unauthorized(w, "authentication required")
			return
		}
		if !id.IsAdmin() {
			writeJSONError(w, http.StatusForbidden, "admin access required")
			return
		}
		if !id.HasCity() {
			writeJSONError(w, http.StatusForbidden, "admin account has no city assigned")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// NewToken signs a token for the given identity. Used by tests and local
// tooling; real tokens come from the auth service.
func NewToken(secret string, id Identity, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"user_id": id.UserID,
		"name":    id.Name,
		"role":    id.Role,
		"city":    id.City,
		"contact": id.Contact,
		"exp":     time.Now().Add(ttl).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func claimString(claims jwt.MapClaims, key string) string {
	v, _ := claims[key].(string)
	return v
}

func unauthorized(w http.ResponseWriter, msg string) {
	writeJSONError(w, http.StatusUnauthorized, msg)
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(model.ErrorResponse{Error: msg})
}
