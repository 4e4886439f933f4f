package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/upb/endpoint-authz/middleware"
	"github.com/upb/endpoint-authz/services/items"
	"github.com/upb/endpoint-authz/utils"
	"go.uber.org/zap"
)

// ItemHandler is the JSON transport of the items service.
// It only ever sees the dispatched service, never the raw implementation.
type ItemHandler struct {
	service items.Service
	logger  *zap.Logger
}

// NewItemHandler creates a new ItemHandler
func NewItemHandler(service items.Service, logger *zap.Logger) *ItemHandler {
	return &ItemHandler{
		service: service,
		logger:  logger,
	}
}

// ItemTransport returns the transport factory passed to the authz builder
func ItemTransport(logger *zap.Logger) func(items.Service) http.Handler {
	return func(service items.Service) http.Handler {
		return NewItemHandler(service, logger).Routes()
	}
}

// Routes mounts the item endpoints relative to the router's mount point
func (h *ItemHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.HandleList)
	r.Post("/", h.HandleCreate)
	r.Get("/{id}", h.HandleGet)
	r.Delete("/{id}", h.HandleDelete)
	return r
}

// HandleList handles GET /items
func (h *ItemHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := utils.ParsePagination(r.URL.Query())
	if err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}

	list, err := h.service.GetItems(r.Context(), items.ListItemsInput{Limit: limit, Offset: offset})
	if err != nil {
		h.fail(w, r, "list items failed", err)
		return
	}

	_ = utils.WriteOK(w, list)
}

// HandleGet handles GET /items/{id}
func (h *ItemHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := utils.ParseID(chi.URLParam(r, "id"), "id")
	if err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}

	item, err := h.service.GetItem(r.Context(), items.GetItemInput{ID: id})
	if err != nil {
		h.fail(w, r, "get item failed", err)
		return
	}

	_ = utils.WriteOK(w, item)
}

// HandleCreate handles POST /items
func (h *ItemHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var in items.CreateItemInput
	if err := utils.DecodeJSON(r, &in); err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}

	item, err := h.service.CreateItem(r.Context(), in)
	if err != nil {
		h.fail(w, r, "create item failed", err)
		return
	}

	_ = utils.WriteCreated(w, item)
}

// HandleDelete handles DELETE /items/{id}
func (h *ItemHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := utils.ParseID(chi.URLParam(r, "id"), "id")
	if err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}

	deleted, err := h.service.DeleteItem(r.Context(), items.DeleteItemInput{ID: id})
	if err != nil {
		h.fail(w, r, "delete item failed", err)
		return
	}

	_ = utils.WriteOK(w, deleted)
}

func (h *ItemHandler) fail(w http.ResponseWriter, r *http.Request, msg string, err error) {
	h.logger.Debug(msg,
		zap.String("request_id", middleware.GetRequestIDFromContext(r.Context())),
		zap.Error(err))
	HandleServiceError(w, err, h.logger)
}
