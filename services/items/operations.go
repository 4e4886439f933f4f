package items

import (
	"context"

	"github.com/upb/endpoint-authz/authz"
	"github.com/upb/endpoint-authz/models"
	"github.com/upb/endpoint-authz/services"
)

// ServiceID names the items service in operation ids
const ServiceID = "items"

// HintReadOnly marks operations that never change state
const HintReadOnly = "readonly"

var (
	GetItems   = authz.NewOperation[ListItemsInput, []models.Item, *services.DomainError](ServiceID, "GetItems", authz.Hints{HintReadOnly: true})
	GetItem    = authz.NewOperation[GetItemInput, models.Item, *services.DomainError](ServiceID, "GetItem", authz.Hints{HintReadOnly: true})
	CreateItem = authz.NewOperation[CreateItemInput, models.Item, *services.DomainError](ServiceID, "CreateItem", nil)
	DeleteItem = authz.NewOperation[DeleteItemInput, DeletedItem, *services.DomainError](ServiceID, "DeleteItem", nil)
)

// Descriptor is the operation catalog of the items service
var Descriptor = authz.ServiceDescriptor[Service]{
	ID: ServiceID,
	Operations: []authz.EndpointInfo{
		GetItems.Info(),
		GetItem.Info(),
		CreateItem.Info(),
		DeleteItem.Info(),
	},
	Wrap: wrap,
}

// dispatched routes each method through its intercepted endpoint
type dispatched struct {
	getItems   authz.Endpoint[ListItemsInput, []models.Item]
	getItem    authz.Endpoint[GetItemInput, models.Item]
	createItem authz.Endpoint[CreateItemInput, models.Item]
	deleteItem authz.Endpoint[DeleteItemInput, DeletedItem]
}

func wrap(impl Service, ic authz.Interceptor) Service {
	return &dispatched{
		getItems:   authz.Intercept(ic, GetItems, impl.GetItems),
		getItem:    authz.Intercept(ic, GetItem, impl.GetItem),
		createItem: authz.Intercept(ic, CreateItem, impl.CreateItem),
		deleteItem: authz.Intercept(ic, DeleteItem, impl.DeleteItem),
	}
}

func (d *dispatched) GetItems(ctx context.Context, in ListItemsInput) ([]models.Item, error) {
	return d.getItems(ctx, in)
}

func (d *dispatched) GetItem(ctx context.Context, in GetItemInput) (models.Item, error) {
	return d.getItem(ctx, in)
}

func (d *dispatched) CreateItem(ctx context.Context, in CreateItemInput) (models.Item, error) {
	return d.createItem(ctx, in)
}

func (d *dispatched) DeleteItem(ctx context.Context, in DeleteItemInput) (DeletedItem, error) {
	return d.deleteItem(ctx, in)
}
