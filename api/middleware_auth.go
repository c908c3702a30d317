package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/linesmerrill/city-reporter-api/config"
)

// ErrAdminMismatch is returned when a token was issued to a different admin
// than the one named in the request
var ErrAdminMismatch = errors.New("token does not belong to this admin")

// AdminAuth checks admin bearer tokens. With an empty secret every request
// passes unchecked.
type AdminAuth struct {
	secret []byte
}

// NewAdminAuth builds the check for HS256 tokens signed with secret
func NewAdminAuth(secret string) AdminAuth {
	return AdminAuth{secret: []byte(secret)}
}

// Enabled reports whether tokens are required
func (a AdminAuth) Enabled() bool {
	return len(a.secret) > 0
}

// Middleware requires a valid token and stores its subject on the request
func (a AdminAuth) Middleware(next http.Handler) http.Handler {
	if !a.Enabled() {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(raw) == "" {
			config.ErrorKindStatus("authorization header required", "unauthorized", http.StatusUnauthorized, w, nil)
			return
		}

		sub, err := a.Subject(strings.TrimSpace(raw))
		if err != nil {
			zap.S().Warnw("rejected admin token", "path", r.URL.Path, "error", err)
			config.ErrorKindStatus("invalid or expired token", "unauthorized", http.StatusUnauthorized, w, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(withAdminSubject(r.Context(), sub)))
	})
}

// Subject verifies a token and returns the admin id it was issued to
func (a AdminAuth) Subject(token string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return "", err
	}
	if claims.Subject == "" {
		return "", errors.New("token has no subject")
	}
	return claims.Subject, nil
}

// CheckAdmin fails when the request was authenticated as someone other than
// adminID. Requests that passed through a disabled AdminAuth carry no subject
// and are allowed.
func CheckAdmin(r *http.Request, adminID string) error {
	sub, ok := AdminSubject(r.Context())
	if !ok {
		return nil
	}
	if sub != strings.TrimSpace(adminID) {
		return ErrAdminMismatch
	}
	return nil
}

// MintAdminToken issues an HS256 token for adminID that expires after ttl
func MintAdminToken(secret, adminID string, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", errors.New("secret is required")
	}
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   adminID,
		Issuer:    "city-reporter-api",
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}
