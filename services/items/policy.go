package items

import (
	"context"
	"errors"

	"github.com/samber/lo"
	"github.com/upb/endpoint-authz/authz"
	"github.com/upb/endpoint-authz/models"
	"github.com/upb/endpoint-authz/repositories"
	"github.com/upb/endpoint-authz/services"
	"go.uber.org/zap"
)

// Policy holds the per-operation access rules of the items service
type Policy struct {
	repo   repositories.ItemRepository
	logger *zap.Logger
}

// NewPolicy creates a new Policy
func NewPolicy(repo repositories.ItemRepository, logger *zap.Logger) *Policy {
	return &Policy{
		repo:   repo,
		logger: logger,
	}
}

// Handlers returns the registrations for every operation with its own rule.
// CreateItem has none and goes through Default.
func (p *Policy) Handlers() []authz.Registration[models.Session] {
	return []authz.Registration[models.Session]{
		authz.For[models.Session](GetItems).Transform(hideOwners),
		authz.For[models.Session](GetItem).Transform(hideOwner),
		authz.For[models.Session](DeleteItem).AuthorizeWithInput(p.authorizeDelete),
	}
}

// Default allows read-only operations to everyone and the rest to authenticated callers
func (p *Policy) Default(_ context.Context, info authz.EndpointInfo, session models.Session) (authz.UncheckedResult, error) {
	if isReadOnly(info) {
		return authz.AllowUnchecked(), nil
	}
	if session.IsAnonymous() {
		return authz.ForbidUnchecked(services.ErrUnauthorized), nil
	}
	return authz.AllowUnchecked(), nil
}

// authorizeDelete lets owners and admins delete an item
func (p *Policy) authorizeDelete(ctx context.Context, in DeleteItemInput, session models.Session) (authz.AuthResult[*services.DomainError], error) {
	if session.IsAnonymous() {
		return authz.Forbid(services.ErrUnauthorized), nil
	}
	if session.IsAdmin() {
		return authz.Allow[*services.DomainError](), nil
	}

	item, err := p.repo.GetByID(ctx, in.ID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return authz.AuthResult[*services.DomainError]{}, services.ErrItemNotFound.WithDetail("id", in.ID)
		}
		return authz.AuthResult[*services.DomainError]{}, services.WrapInternal("failed to look up item owner", err)
	}

	if !item.OwnedBy(session.UserID) {
		p.logger.Warn("delete denied",
			zap.Int64("item_id", in.ID),
			zap.String("principal", session.Principal()))
		return authz.Forbid(services.ErrUnauthorized), nil
	}
	return authz.Allow[*services.DomainError](), nil
}

func isReadOnly(info authz.EndpointInfo) bool {
	v, _ := info.Hint(HintReadOnly)
	readonly, _ := v.(bool)
	return readonly
}

func hideOwners(_ context.Context, session models.Session, out []models.Item) ([]models.Item, error) {
	if !session.IsAnonymous() {
		return out, nil
	}
	return lo.Map(out, func(item models.Item, _ int) models.Item {
		return item.WithoutOwner()
	}), nil
}

func hideOwner(_ context.Context, session models.Session, out models.Item) (models.Item, error) {
	if !session.IsAnonymous() {
		return out, nil
	}
	return out.WithoutOwner(), nil
}
