package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/upb/endpoint-authz/models"
	"github.com/upb/endpoint-authz/repositories"
)

// AuditRepository keeps audit logs in insertion order
type AuditRepository struct {
	mu   sync.RWMutex
	logs []*models.AuditLog
}

// NewAuditRepository creates an empty audit store
func NewAuditRepository() *AuditRepository {
	return &AuditRepository{}
}

// Insert appends an entry
func (r *AuditRepository) Insert(_ context.Context, log *models.AuditLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cp := *log
	r.logs = append(r.logs, &cp)
	return nil
}

// GetByID retrieves an audit log by ID
func (r *AuditRepository) GetByID(_ context.Context, id uuid.UUID) (*models.AuditLog, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	log, ok := lo.Find(r.logs, func(l *models.AuditLog) bool { return l.ID == id })
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := *log
	return &cp, nil
}

// ListByOperation returns newest entries first
func (r *AuditRepository) ListByOperation(_ context.Context, operation string, limit, offset int) ([]*models.AuditLog, error) {
	return r.newest(func(l *models.AuditLog) bool { return l.Operation == operation }, limit, offset), nil
}

// ListByPrincipal returns newest entries first
func (r *AuditRepository) ListByPrincipal(_ context.Context, principal string, limit, offset int) ([]*models.AuditLog, error) {
	return r.newest(func(l *models.AuditLog) bool { return l.Principal == principal }, limit, offset), nil
}

// All returns every entry in insertion order
func (r *AuditRepository) All() []*models.AuditLog {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.logs)
}

func (r *AuditRepository) newest(match func(*models.AuditLog) bool, limit, offset int) []*models.AuditLog {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := lo.Filter(r.logs, func(l *models.AuditLog, _ int) bool { return match(l) })
	slices.Reverse(matched)
	return page(matched, limit, offset)
}
