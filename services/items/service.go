package items

import (
	"context"
	"errors"
	"strings"

	"github.com/upb/endpoint-authz/authz"
	"github.com/upb/endpoint-authz/models"
	"github.com/upb/endpoint-authz/repositories"
	"github.com/upb/endpoint-authz/services"
	"github.com/upb/endpoint-authz/utils"
	"go.uber.org/zap"
)

// ListItemsInput pages through items
type ListItemsInput struct {
	Limit  int `json:"limit" validate:"gte=0,lte=100"`
	Offset int `json:"offset" validate:"gte=0"`
}

// GetItemInput selects one item
type GetItemInput struct {
	ID int64 `json:"id" validate:"gt=0"`
}

// CreateItemInput describes a new item. The owner comes from the session.
type CreateItemInput struct {
	Title string `json:"title" validate:"required,max=200"`
}

// DeleteItemInput selects the item to delete
type DeleteItemInput struct {
	ID int64 `json:"id" validate:"gt=0"`
}

// DeletedItem reports a completed deletion
type DeletedItem struct {
	ID int64 `json:"id"`
}

// Service is the items API. Every method fails with a *services.DomainError.
type Service interface {
	GetItems(ctx context.Context, in ListItemsInput) ([]models.Item, error)
	GetItem(ctx context.Context, in GetItemInput) (models.Item, error)
	CreateItem(ctx context.Context, in CreateItemInput) (models.Item, error)
	DeleteItem(ctx context.Context, in DeleteItemInput) (DeletedItem, error)
}

// ItemService implements Service on an ItemRepository
type ItemService struct {
	repo    repositories.ItemRepository
	session authz.ContextGetter[models.Session]
	logger  *zap.Logger
}

// NewService returns a constructor suitable for authz.OfConstructor.
// The service reads the caller's session through the getter it receives.
func NewService(repo repositories.ItemRepository, logger *zap.Logger) func(authz.ContextGetter[models.Session]) Service {
	return func(session authz.ContextGetter[models.Session]) Service {
		return &ItemService{
			repo:    repo,
			session: session,
			logger:  logger,
		}
	}
}

// GetItems lists items
func (s *ItemService) GetItems(ctx context.Context, in ListItemsInput) ([]models.Item, error) {
	if err := validate(in); err != nil {
		return nil, err
	}

	items, err := s.repo.List(ctx, in.Limit, in.Offset)
	if err != nil {
		return nil, services.WrapInternal("failed to list items", err)
	}

	out := make([]models.Item, 0, len(items))
	for _, item := range items {
		out = append(out, *item)
	}
	return out, nil
}

// GetItem returns one item
func (s *ItemService) GetItem(ctx context.Context, in GetItemInput) (models.Item, error) {
	if err := validate(in); err != nil {
		return models.Item{}, err
	}

	item, err := s.repo.GetByID(ctx, in.ID)
	if err != nil {
		return models.Item{}, mapRepoError(err, in.ID)
	}
	return *item, nil
}

// CreateItem stores a new item owned by the caller
func (s *ItemService) CreateItem(ctx context.Context, in CreateItemInput) (models.Item, error) {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return models.Item{}, services.ErrEmptyTitle
	}
	if err := validate(in); err != nil {
		return models.Item{}, err
	}

	session := s.session(ctx)
	item := models.NewItem(in.Title, session.UserID)
	if err := s.repo.Create(ctx, item); err != nil {
		return models.Item{}, services.WrapInternal("failed to create item", err)
	}

	s.logger.Debug("item created",
		zap.Int64("item_id", item.ID),
		zap.String("owner", session.Principal()))
	return *item, nil
}

// DeleteItem removes an item
func (s *ItemService) DeleteItem(ctx context.Context, in DeleteItemInput) (DeletedItem, error) {
	if err := validate(in); err != nil {
		return DeletedItem{}, err
	}

	if err := s.repo.Delete(ctx, in.ID); err != nil {
		return DeletedItem{}, mapRepoError(err, in.ID)
	}

	s.logger.Info("item deleted",
		zap.Int64("item_id", in.ID),
		zap.String("principal", s.session(ctx).Principal()))
	return DeletedItem{ID: in.ID}, nil
}

func validate(in interface{}) error {
	if err := utils.ValidateStruct(in); err != nil {
		var verr *utils.ValidationError
		if errors.As(err, &verr) {
			return services.ErrInvalidInput.WithDetail("fields", verr.Fields)
		}
		return services.NewDomainError(services.ErrorTypeValidation, "invalid input", err)
	}
	return nil
}

func mapRepoError(err error, id int64) error {
	if errors.Is(err, repositories.ErrNotFound) {
		return services.ErrItemNotFound.WithDetail("id", id)
	}
	return services.WrapInternal("item store failure", err)
}
