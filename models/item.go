package models

import "time"

// Item is the resource served by the items service
type Item struct {
	ID        int64     `json:"id" db:"id"`
	Title     string    `json:"title" db:"title"`
	Owner     *string   `json:"owner" db:"owner_id"` // null when hidden from the caller
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// TableName returns the table name for the Item model
func (Item) TableName() string {
	return "items"
}

// NewItem creates an item owned by ownerID. An empty owner leaves it unowned.
func NewItem(title, ownerID string) *Item {
	item := &Item{
		Title:     title,
		CreatedAt: time.Now(),
	}
	if ownerID != "" {
		item.Owner = &ownerID
	}
	return item
}

// OwnedBy returns true if userID owns the item
func (i *Item) OwnedBy(userID string) bool {
	return i.Owner != nil && userID != "" && *i.Owner == userID
}

// WithoutOwner returns a copy with the owner removed
func (i Item) WithoutOwner() Item {
	i.Owner = nil
	return i
}
