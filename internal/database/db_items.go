// Package database provides the item store backends for go-portfolio
package database

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/go-while/go-portfolio/internal/config"
	"github.com/go-while/go-portfolio/internal/models"
)

// ErrItemNotFound is returned by GetItem for an unknown id.
var ErrItemNotFound = errors.New("item not found")

// ItemStore holds the ordered item collection and its id counter.
//
// Ids are assigned from a counter starting at 1 and are never reused,
// even after the item holding them was deleted. Every method is safe
// for concurrent use.
type ItemStore interface {
	// ListItems returns all items in insertion order. Never nil.
	ListItems(ctx context.Context) ([]*models.Item, error)

	// CreateItem assigns the next id and appends the item.
	CreateItem(ctx context.Context, title, description string) (*models.Item, error)

	// GetItem returns the item with id or ErrItemNotFound.
	GetItem(ctx context.Context, id int64) (*models.Item, error)

	// DeleteItem removes the item with id. Deleting an unknown id succeeds.
	DeleteItem(ctx context.Context, id int64) error

	// DeleteItemReport is DeleteItem that also reports whether an item was removed.
	DeleteItemReport(ctx context.Context, id int64) (bool, error)

	// CountItems returns the number of stored items.
	CountItems(ctx context.Context) (int, error)

	Close() error
}

// OpenItemStore returns the backend named by cfg.Backend.
func OpenItemStore(cfg config.StoreConfig) (ItemStore, error) {
	switch cfg.Backend {
	case config.StoreBackendMemory, "":
		log.Printf("[STORE]: Using in-memory item store")
		return NewMemoryItemStore(), nil
	case config.StoreBackendSQLiteMemory:
		store, err := NewSQLiteItemStore()
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite item store: %w", err)
		}
		log.Printf("[STORE]: Using in-memory sqlite item store")
		return store, nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}
