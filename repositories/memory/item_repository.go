package memory

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"github.com/samber/lo"
	"github.com/upb/endpoint-authz/models"
	"github.com/upb/endpoint-authz/repositories"
)

// ItemRepository is a thread-safe in-memory ItemRepository
type ItemRepository struct {
	mu     sync.RWMutex
	items  map[int64]*models.Item
	nextID int64
}

// NewItemRepository creates an empty item store
func NewItemRepository() *ItemRepository {
	return &ItemRepository{
		items:  make(map[int64]*models.Item),
		nextID: 1,
	}
}

// List returns copies ordered by id
func (r *ItemRepository) List(_ context.Context, limit, offset int) ([]*models.Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	items := lo.Values(r.items)
	slices.SortFunc(items, func(a, b *models.Item) int { return cmp.Compare(a.ID, b.ID) })
	return lo.Map(page(items, limit, offset), func(item *models.Item, _ int) *models.Item {
		return cloneItem(item)
	}), nil
}

// GetByID returns a copy of the item
func (r *ItemRepository) GetByID(_ context.Context, id int64) (*models.Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.items[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return cloneItem(item), nil
}

// Create stores a copy and sets item.ID
func (r *ItemRepository) Create(_ context.Context, item *models.Item) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if item.ID == 0 {
		item.ID = r.nextID
	}
	if item.ID >= r.nextID {
		r.nextID = item.ID + 1
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now()
	}
	r.items[item.ID] = cloneItem(item)
	return nil
}

// Delete removes the item
func (r *ItemRepository) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(r.items, id)
	return nil
}

// Len returns the number of stored items
func (r *ItemRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items)
}

func cloneItem(item *models.Item) *models.Item {
	cp := *item
	if item.Owner != nil {
		owner := *item.Owner
		cp.Owner = &owner
	}
	return &cp
}

func page[T any](all []T, limit, offset int) []T {
	if offset >= len(all) {
		return nil
	}
	all = all[max(offset, 0):]
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	return all
}
