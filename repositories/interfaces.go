package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/upb/endpoint-authz/models"
)

// ErrNotFound is returned when a record does not exist
var ErrNotFound = errors.New("record not found")

// ItemRepository handles item data operations
type ItemRepository interface {
	// List returns items ordered by id, at most limit when limit > 0
	List(ctx context.Context, limit, offset int) ([]*models.Item, error)

	// GetByID returns ErrNotFound when the item does not exist
	GetByID(ctx context.Context, id int64) (*models.Item, error)

	// Create assigns the item its id
	Create(ctx context.Context, item *models.Item) error

	// Delete returns ErrNotFound when the item does not exist
	Delete(ctx context.Context, id int64) error
}

// AuditRepository handles audit log data operations
type AuditRepository interface {
	// Insert inserts a new audit log entry
	Insert(ctx context.Context, log *models.AuditLog) error

	// GetByID retrieves an audit log by ID
	GetByID(ctx context.Context, id uuid.UUID) (*models.AuditLog, error)

	// ListByOperation returns the newest entries for an operation id
	ListByOperation(ctx context.Context, operation string, limit, offset int) ([]*models.AuditLog, error)

	// ListByPrincipal returns the newest entries recorded for a principal
	ListByPrincipal(ctx context.Context, principal string, limit, offset int) ([]*models.AuditLog, error)
}

// Repositories aggregates all repository interfaces
type Repositories struct {
	Items     ItemRepository
	AuditLogs AuditRepository
}
