// Package auth verifies Supabase access tokens and exposes the caller identity.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
)

// ErrUnauthorized is returned for any token that must not be trusted.
var ErrUnauthorized = errors.New("unauthorized")

// JWTVerifier validates a bearer token and returns its claims.
type JWTVerifier interface {
	VerifyToken(tokenString string) (*SupabaseClaims, error)
	Close() error
}

// SupabaseJWTVerifier implements JWTVerifier using JWKS from Supabase.
type SupabaseJWTVerifier struct {
	keyFunc jwt.Keyfunc
	logger  *slog.Logger
}

// NewJWTVerifier creates a verifier that fetches public keys from jwksURL.
// keyfunc caches the set and refreshes it based on HTTP cache headers.
func NewJWTVerifier(ctx context.Context, jwksURL string, logger *slog.Logger) (*SupabaseJWTVerifier, error) {
	if jwksURL == "" {
		return nil, errors.New("JWKS URL cannot be empty")
	}
	jwks, err := keyfunc.NewDefaultCtx(ctx, []string{jwksURL})
	if err != nil {
		return nil, fmt.Errorf("failed to create JWKS client: %w", err)
	}
	v := newVerifier(jwks.Keyfunc, logger)
	v.logger.Info("JWT verifier initialized", "jwks_url", jwksURL)
	return v, nil
}

func newVerifier(kf jwt.Keyfunc, logger *slog.Logger) *SupabaseJWTVerifier {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &SupabaseJWTVerifier{keyFunc: kf, logger: logger}
}

// VerifyToken validates signature, expiry, algorithm, subject and role.
func (v *SupabaseJWTVerifier) VerifyToken(tokenString string) (*SupabaseClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &SupabaseClaims{}, v.keyFunc)
	if err != nil {
		v.logger.Debug("token parse failed", "error", err.Error())
		return nil, ErrUnauthorized
	}
	if !token.Valid {
		return nil, ErrUnauthorized
	}

	// Only asymmetric algorithms; an HMAC token must never pass against a public key.
	switch token.Method.Alg() {
	case "RS256", "ES256":
	default:
		v.logger.Warn("token uses unexpected algorithm", "algorithm", token.Method.Alg())
		return nil, ErrUnauthorized
	}

	claims, ok := token.Claims.(*SupabaseClaims)
	if !ok {
		return nil, ErrUnauthorized
	}
	if claims.Subject == "" {
		v.logger.Debug("token missing subject claim")
		return nil, ErrUnauthorized
	}
	if claims.Role != "authenticated" {
		v.logger.Debug("token has invalid role", "role", claims.Role, "user_id", claims.Subject)
		return nil, ErrUnauthorized
	}
	return claims, nil
}

// Close is a no-op; keyfunc v3 manages its own refresh goroutine via the
// context passed to NewJWTVerifier.
func (v *SupabaseJWTVerifier) Close() error {
	v.logger.Info("JWT verifier closed")
	return nil
}
