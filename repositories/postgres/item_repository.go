package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/upb/endpoint-authz/models"
	"github.com/upb/endpoint-authz/repositories"
	"go.uber.org/zap"
)

// ItemRepository implements repositories.ItemRepository
type ItemRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewItemRepository creates a new item repository
func NewItemRepository(db *DB, logger *zap.Logger) *ItemRepository {
	return &ItemRepository{
		db:     db,
		logger: logger,
	}
}

// List returns items ordered by id
func (r *ItemRepository) List(ctx context.Context, limit, offset int) ([]*models.Item, error) {
	query := `SELECT id, title, owner_id, created_at FROM items ORDER BY id`
	args := []interface{}{}
	switch {
	case limit > 0:
		query += ` LIMIT $1 OFFSET $2`
		args = append(args, limit, offset)
	case offset > 0:
		query += ` OFFSET $1`
		args = append(args, offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	defer rows.Close()

	items := make([]*models.Item, 0)
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate items: %w", err)
	}
	return items, nil
}

// GetByID retrieves an item by ID
func (r *ItemRepository) GetByID(ctx context.Context, id int64) (*models.Item, error) {
	query := `SELECT id, title, owner_id, created_at FROM items WHERE id = $1`

	item, err := scanItem(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repositories.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return item, nil
}

// Create inserts the item and sets its generated id
func (r *ItemRepository) Create(ctx context.Context, item *models.Item) error {
	query := `INSERT INTO items (title, owner_id, created_at) VALUES ($1, $2, $3) RETURNING id`

	if err := r.db.QueryRowContext(ctx, query, item.Title, item.Owner, item.CreatedAt).Scan(&item.ID); err != nil {
		return fmt.Errorf("failed to create item: %w", err)
	}

	r.logger.Debug("item created", zap.Int64("id", item.ID))
	return nil
}

// Delete removes an item
func (r *ItemRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM items WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete item: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return repositories.ErrNotFound
	}

	r.logger.Debug("item deleted", zap.Int64("id", id))
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanItem(row rowScanner) (*models.Item, error) {
	item := &models.Item{}
	var owner sql.NullString
	if err := row.Scan(&item.ID, &item.Title, &owner, &item.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan item: %w", err)
	}
	if owner.Valid {
		item.Owner = &owner.String
	}
	return item, nil
}
