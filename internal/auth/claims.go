package auth

import (
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"doccatalog/internal/model"
)

// SupabaseClaims represents the JWT claims structure from Supabase Auth.
// See: https://supabase.com/docs/guides/auth/jwts
type SupabaseClaims struct {
	jwt.RegisteredClaims
	Email        string         `json:"email"`
	Phone        string         `json:"phone"`
	AppMetadata  map[string]any `json:"app_metadata"`
	UserMetadata map[string]any `json:"user_metadata"`
	Role         string         `json:"role"` // "authenticated" or "anon"
	SessionID    string         `json:"session_id"`
	IsAnonymous  bool           `json:"is_anonymous"`
}

// Identity returns the caller identity carried by the claims.
func (c *SupabaseClaims) Identity() Identity {
	id := Identity{UserID: c.Subject, Email: c.Email}
	if name, ok := c.UserMetadata["display_name"].(string); ok {
		id.Name = name
	}
	return id
}

// Identity is the authenticated caller. UserID also keys the caller's catalog.
type Identity struct {
	UserID string
	Email  string
	Name   string
}

// DisplayName prefers the profile name, then the local part of the email.
func (i Identity) DisplayName() string {
	if name := strings.TrimSpace(i.Name); name != "" {
		return name
	}
	if local, _, _ := strings.Cut(i.Email, "@"); local != "" {
		return local
	}
	return "User"
}

// Profile is the public view of the identity.
func (i Identity) Profile() model.Profile {
	return model.Profile{
		UserID:      i.UserID,
		Email:       i.Email,
		DisplayName: i.DisplayName(),
	}
}
