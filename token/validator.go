package token

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/upb/endpoint-authz/models"
)

var (
	// ErrInvalidToken is returned when the token is invalid
	ErrInvalidToken = errors.New("invalid token")

	// ErrTokenExpired is returned when the token has expired
	ErrTokenExpired = errors.New("token expired")

	// ErrInvalidIssuer is returned when the token issuer is invalid
	ErrInvalidIssuer = errors.New("invalid issuer")

	// ErrInvalidAudience is returned when the token audience is invalid
	ErrInvalidAudience = errors.New("invalid audience")

	// ErrMissingSubject is returned when the token has no sub claim
	ErrMissingSubject = errors.New("missing subject")

	// ErrMissingExpiry is returned when the token has no exp claim
	ErrMissingExpiry = errors.New("missing expiry")
)

// Config holds the shared HMAC settings
type Config struct {
	Secret   []byte
	Issuer   string
	Audience string
	TTL      time.Duration
}

// Validator verifies HS256 tokens
type Validator struct {
	cfg    Config
	parser *jwt.Parser
}

// NewValidator creates a new Validator
func NewValidator(cfg Config) *Validator {
	return &Validator{
		cfg: cfg,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithLeeway(5*time.Second),
		),
	}
}

// ValidateToken parses the token and returns its claims
func (v *Validator) ValidateToken(_ context.Context, tokenString string) (*Claims, error) {
	claims := &Claims{}
	tok, err := v.parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return v.cfg.Secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !tok.Valid {
		return nil, ErrInvalidToken
	}

	if v.cfg.Issuer != "" && claims.Issuer != v.cfg.Issuer {
		return nil, fmt.Errorf("%w: expected %s, got %s", ErrInvalidIssuer, v.cfg.Issuer, claims.Issuer)
	}
	if v.cfg.Audience != "" && !containsAudience(claims.Audience, v.cfg.Audience) {
		return nil, ErrInvalidAudience
	}
	if err := ValidateCustomClaims(claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return claims, nil
}

// ValidateSession validates the token and returns the session it carries
func (v *Validator) ValidateSession(ctx context.Context, tokenString string) (models.Session, error) {
	claims, err := v.ValidateToken(ctx, tokenString)
	if err != nil {
		return models.Anonymous(), err
	}
	return claims.Session(), nil
}

func containsAudience(audiences jwt.ClaimStrings, want string) bool {
	for _, aud := range audiences {
		if aud == want {
			return true
		}
	}
	return false
}

// Issuer signs tokens for development and tests
type Issuer struct {
	cfg Config
	now func() time.Time
}

// NewIssuer creates a new Issuer
func NewIssuer(cfg Config) *Issuer {
	return &Issuer{cfg: cfg, now: time.Now}
}

// Issue returns a signed token for the subject and its expiry
func (i *Issuer) Issue(subject, email string, roles ...models.UserRole) (string, time.Time, error) {
	if subject == "" {
		return "", time.Time{}, ErrMissingSubject
	}
	now := i.now()
	expires := now.Add(i.cfg.TTL)

	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   subject,
			Issuer:    i.cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
		Email: email,
	}
	if i.cfg.Audience != "" {
		claims.Audience = jwt.ClaimStrings{i.cfg.Audience}
	}
	for _, r := range roles {
		claims.Roles = append(claims.Roles, string(r))
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.cfg.Secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, expires, nil
}
