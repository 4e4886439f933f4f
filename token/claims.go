package token

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/samber/lo"
	"github.com/upb/endpoint-authz/models"
)

// Claims represents the custom claims in the JWT token
type Claims struct {
	jwt.RegisteredClaims
	Email string   `json:"email,omitempty"`
	Roles []string `json:"roles,omitempty"`
}

// Session converts validated claims into the request session.
// Unknown role names are dropped.
func (c *Claims) Session() models.Session {
	roles := lo.FilterMap(c.Roles, func(r string, _ int) (models.UserRole, bool) {
		return models.UserRole(r), models.IsValidRole(r)
	})
	return models.Authenticated(c.Subject, c.Email, roles...)
}

// ValidateCustomClaims checks claims that the jwt parser does not
func ValidateCustomClaims(c *Claims) error {
	if c.Subject == "" {
		return ErrMissingSubject
	}
	if c.ExpiresAt == nil {
		return ErrMissingExpiry
	}
	return nil
}
