package database

import (
	"context"
	"sync"

	"github.com/go-while/go-portfolio/internal/models"
)

// MemoryItemStore keeps items in a slice guarded by one mutex.
type MemoryItemStore struct {
	mux    sync.Mutex
	items  []*models.Item
	nextID int64
}

func NewMemoryItemStore() *MemoryItemStore {
	return &MemoryItemStore{
		items:  []*models.Item{},
		nextID: 1,
	}
}

func (s *MemoryItemStore) ListItems(ctx context.Context) ([]*models.Item, error) {
	s.mux.Lock()
	defer s.mux.Unlock()
	out := make([]*models.Item, 0, len(s.items))
	for _, item := range s.items {
		cp := *item
		out = append(out, &cp)
	}
	return out, nil
}

func (s *MemoryItemStore) CreateItem(ctx context.Context, title, description string) (*models.Item, error) {
	s.mux.Lock()
	defer s.mux.Unlock()
	item := &models.Item{
		ID:          s.nextID,
		Title:       title,
		Description: description,
	}
	s.nextID++
	s.items = append(s.items, item)
	cp := *item
	return &cp, nil
}

// GetItem scans linearly, the collection is expected to stay small.
func (s *MemoryItemStore) GetItem(ctx context.Context, id int64) (*models.Item, error) {
	s.mux.Lock()
	defer s.mux.Unlock()
	for _, item := range s.items {
		if item.ID == id {
			cp := *item
			return &cp, nil
		}
	}
	return nil, ErrItemNotFound
}

func (s *MemoryItemStore) DeleteItem(ctx context.Context, id int64) error {
	_, err := s.DeleteItemReport(ctx, id)
	return err
}

func (s *MemoryItemStore) DeleteItemReport(ctx context.Context, id int64) (bool, error) {
	s.mux.Lock()
	defer s.mux.Unlock()
	kept := s.items[:0]
	removed := false
	for _, item := range s.items {
		if item.ID == id {
			removed = true
			continue
		}
		kept = append(kept, item)
	}
	// drop references held by the tail of the old backing array
	for i := len(kept); i < len(s.items); i++ {
		s.items[i] = nil
	}
	s.items = kept
	return removed, nil
}

func (s *MemoryItemStore) CountItems(ctx context.Context) (int, error) {
	s.mux.Lock()
	defer s.mux.Unlock()
	return len(s.items), nil
}

func (s *MemoryItemStore) Close() error {
	return nil
}
