// Package middleware provides HTTP middleware for request identity.
package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ContextKey is the type for context keys in this package.
type ContextKey string

// UserIDKey is the context key for the authenticated user ID.
const UserIDKey ContextKey = "user_id"

// ErrUnauthenticated is returned when a token is missing or fails verification.
var ErrUnauthenticated = errors.New("authentication required")

// Every endpoint family reads identity from the "sub" claim only.
type userClaims struct {
	jwt.RegisteredClaims
}

// Authenticator verifies HS256 bearer tokens and extracts the user ID.
type Authenticator struct {
	secret []byte
	now    func() time.Time
}

// NewAuthenticator builds an Authenticator for the given signing secret.
func NewAuthenticator(secret string) *Authenticator {
	return &Authenticator{secret: []byte(secret), now: time.Now}
}

// UserFromContext retrieves the user ID from the request context.
// Returns empty string if not set.
func UserFromContext(ctx context.Context) string {
	if v := ctx.Value(UserIDKey); v != nil {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

// WithUser returns a copy of ctx carrying userID.
func WithUser(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, UserIDKey, userID)
}

// Verify parses a raw token and returns its subject.
func (a *Authenticator) Verify(token string) (string, error) {
	token = strings.TrimSpace(token)
	if token == "" || len(a.secret) == 0 {
		return "", ErrUnauthenticated
	}

	var claims userClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		return a.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil {
		return "", ErrUnauthenticated
	}

	subject := strings.TrimSpace(claims.Subject)
	if subject == "" {
		return "", ErrUnauthenticated
	}
	return subject, nil
}

// RequireUser is middleware that ensures a verified bearer token is present.
// If no valid identity is found, it returns 401 Unauthorized.
func (a *Authenticator) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, err := a.Verify(bearerToken(r))
		if err != nil {
			writeUnauthorized(w)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), userID)))
	})
}

// OptionalUser attaches the user ID when a valid token is present but lets
// anonymous requests through.
func (a *Authenticator) OptionalUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if userID, err := a.Verify(bearerToken(r)); err == nil {
			ctx = WithUser(ctx, userID)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// IssueToken signs a token for userID. Used by seeding tools and tests.
func (a *Authenticator) IssueToken(userID string, ttl time.Duration) (string, error) {
	now := a.now()
	claims := userClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if !strings.HasPrefix(auth, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
}

func writeUnauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": "Authentication required"})
}
