package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/upb/endpoint-authz/middleware"
	"github.com/upb/endpoint-authz/models"
	"github.com/upb/endpoint-authz/utils"
	"go.uber.org/zap"
)

// TokenIssuer mints bearer tokens
type TokenIssuer interface {
	Issue(subject, email string, roles ...models.UserRole) (string, time.Time, error)
}

// TokenAuditor records issued tokens
type TokenAuditor interface {
	LogTokenIssued(ctx context.Context, subject string, roles []models.UserRole) error
}

// TokenRequest is the body of POST /auth/token
type TokenRequest struct {
	Subject string   `json:"subject" validate:"required,max=128"`
	Email   string   `json:"email" validate:"omitempty,email"`
	Roles   []string `json:"roles" validate:"omitempty,dive,oneof=admin member viewer"`
}

// TokenResponse carries a freshly issued token
type TokenResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// TokenHandler issues development tokens. It is never mounted in production.
type TokenHandler struct {
	issuer  TokenIssuer
	auditor TokenAuditor
	logger  *zap.Logger
}

// NewTokenHandler creates a new TokenHandler. auditor may be nil.
func NewTokenHandler(issuer TokenIssuer, auditor TokenAuditor, logger *zap.Logger) *TokenHandler {
	return &TokenHandler{
		issuer:  issuer,
		auditor: auditor,
		logger:  logger,
	}
}

// HandleIssue handles POST /auth/token
func (h *TokenHandler) HandleIssue(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestIDFromContext(ctx)

	var req TokenRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}

	roles := make([]models.UserRole, 0, len(req.Roles))
	for _, role := range req.Roles {
		roles = append(roles, models.UserRole(role))
	}

	signed, expiresAt, err := h.issuer.Issue(req.Subject, req.Email, roles...)
	if err != nil {
		h.logger.Error("failed to issue token",
			zap.String("request_id", requestID),
			zap.Error(err))
		_ = utils.WriteInternalServerError(w, "Failed to issue token")
		return
	}

	if h.auditor != nil {
		if err := h.auditor.LogTokenIssued(ctx, req.Subject, roles); err != nil {
			h.logger.Warn("failed to audit token issuance",
				zap.String("request_id", requestID),
				zap.Error(err))
		}
	}

	h.logger.Info("token issued",
		zap.String("request_id", requestID),
		zap.String("subject", req.Subject),
		zap.Strings("roles", req.Roles))

	_ = utils.WriteCreated(w, TokenResponse{
		AccessToken: signed,
		TokenType:   "Bearer",
		ExpiresAt:   expiresAt,
	})
}
