package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/upb/endpoint-authz/authz"
	"github.com/upb/endpoint-authz/models"
	"github.com/upb/endpoint-authz/services"
	"go.uber.org/zap"
)

// TokenValidator defines the interface for turning a bearer token into a session
type TokenValidator interface {
	ValidateSession(ctx context.Context, token string) (models.Session, error)
}

// authTokenCookieName is the cookie name for JWT tokens (Authorization header takes precedence)
const authTokenCookieName = "auth_token"

// SessionExtractor builds the per-request session
type SessionExtractor struct {
	validator TokenValidator
	logger    *zap.Logger
}

// NewSessionExtractor creates a new SessionExtractor
func NewSessionExtractor(validator TokenValidator, logger *zap.Logger) *SessionExtractor {
	return &SessionExtractor{
		validator: validator,
		logger:    logger,
	}
}

// Extract returns the anonymous session when no token is presented and
// ErrInvalidToken when one is presented but does not validate.
func (e *SessionExtractor) Extract(r *http.Request) (models.Session, error) {
	ctx := r.Context()
	requestID := GetRequestIDFromContext(ctx)

	token, present := extractToken(r)
	if !present {
		return models.Anonymous(), nil
	}
	if token == "" {
		e.logger.Warn("malformed authorization header",
			zap.String("request_id", requestID))
		return models.Anonymous(), services.ErrInvalidToken
	}

	session, err := e.validator.ValidateSession(ctx, token)
	if err != nil {
		e.logger.Warn("token validation failed",
			zap.String("request_id", requestID),
			zap.Error(err))
		return models.Anonymous(), services.ErrInvalidToken
	}

	e.logger.Debug("session extracted",
		zap.String("request_id", requestID),
		zap.String("principal", session.Principal()))
	return session, nil
}

// Extractor returns Extract as an authz extractor
func (e *SessionExtractor) Extractor() authz.Extractor[models.Session] {
	return e.Extract
}

// extractToken reads the Authorization header ("Bearer TOKEN") or the auth_token cookie.
// present is true when the caller attempted to authenticate at all.
func extractToken(r *http.Request) (token string, present bool) {
	if header := r.Header.Get("Authorization"); header != "" {
		return extractBearerToken(header), true
	}
	if cookie, err := r.Cookie(authTokenCookieName); err == nil && cookie.Value != "" {
		return cookie.Value, true
	}
	return "", false
}

func extractBearerToken(header string) string {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
