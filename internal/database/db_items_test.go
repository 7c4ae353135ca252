package database

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/go-while/go-portfolio/internal/config"
)

// forEachBackend runs fn against a fresh store of every backend
func forEachBackend(t *testing.T, fn func(t *testing.T, store ItemStore)) {
	t.Helper()
	backends := []string{config.StoreBackendMemory, config.StoreBackendSQLiteMemory}
	for _, backend := range backends {
		t.Run(backend, func(t *testing.T) {
			store, err := OpenItemStore(config.StoreConfig{Backend: backend})
			if err != nil {
				t.Fatalf("OpenItemStore(%s): %v", backend, err)
			}
			t.Cleanup(func() { store.Close() })
			fn(t, store)
		})
	}
}

func mustCreate(t *testing.T, store ItemStore, title, description string) int64 {
	t.Helper()
	item, err := store.CreateItem(context.Background(), title, description)
	if err != nil {
		t.Fatalf("CreateItem(%q): %v", title, err)
	}
	return item.ID
}

func titles(t *testing.T, store ItemStore) []string {
	t.Helper()
	items, err := store.ListItems(context.Background())
	if err != nil {
		t.Fatalf("ListItems: %v", err)
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, item.Title)
	}
	return out
}

func TestEmptyStore(t *testing.T) {
	forEachBackend(t, func(t *testing.T, store ItemStore) {
		items, err := store.ListItems(context.Background())
		if err != nil {
			t.Fatal(err)
		}
		if items == nil || len(items) != 0 {
			t.Fatalf("ListItems on empty store = %#v, want empty non-nil slice", items)
		}
		if _, err := store.GetItem(context.Background(), 1); !errors.Is(err, ErrItemNotFound) {
			t.Fatalf("GetItem(1) error = %v, want ErrItemNotFound", err)
		}
	})
}

func TestCreateAssignsIncreasingIDs(t *testing.T) {
	forEachBackend(t, func(t *testing.T, store ItemStore) {
		ctx := context.Background()
		item, err := store.CreateItem(ctx, "T1", "D1")
		if err != nil {
			t.Fatal(err)
		}
		if item.ID != 1 || item.Title != "T1" || item.Description != "D1" {
			t.Fatalf("first item = %+v, want {1 T1 D1}", item)
		}

		last := item.ID
		// interleave deletes of the newest id; ids must never be reused
		for i := 0; i < 10; i++ {
			id := mustCreate(t, store, fmt.Sprintf("item-%d", i), "")
			if id <= last {
				t.Fatalf("id %d not greater than previous %d", id, last)
			}
			if i%2 == 0 {
				if err := store.DeleteItem(ctx, id); err != nil {
					t.Fatal(err)
				}
			}
			last = id
		}
	})
}

func TestListPreservesInsertionOrder(t *testing.T) {
	forEachBackend(t, func(t *testing.T, store ItemStore) {
		ctx := context.Background()
		a := mustCreate(t, store, "A", "")
		x := mustCreate(t, store, "X", "")
		b := mustCreate(t, store, "B", "")
		if err := store.DeleteItem(ctx, x); err != nil {
			t.Fatal(err)
		}
		c := mustCreate(t, store, "C", "")
		if err := store.DeleteItem(ctx, 999); err != nil {
			t.Fatal(err)
		}

		got := titles(t, store)
		want := []string{"A", "B", "C"}
		if fmt.Sprint(got) != fmt.Sprint(want) {
			t.Fatalf("ListItems titles = %v, want %v", got, want)
		}
		if !(a < b && b < c) {
			t.Fatalf("ids not increasing: %d %d %d", a, b, c)
		}
	})
}

func TestDeleteIsIdempotent(t *testing.T) {
	forEachBackend(t, func(t *testing.T, store ItemStore) {
		ctx := context.Background()
		id := mustCreate(t, store, "keep", "me")

		removed, err := store.DeleteItemReport(ctx, id+100)
		if err != nil {
			t.Fatalf("DeleteItemReport on unknown id: %v", err)
		}
		if removed {
			t.Fatal("DeleteItemReport reported a removal for an unknown id")
		}
		if n, _ := store.CountItems(ctx); n != 1 {
			t.Fatalf("CountItems = %d after deleting unknown id, want 1", n)
		}

		removed, err = store.DeleteItemReport(ctx, id)
		if err != nil || !removed {
			t.Fatalf("DeleteItemReport(%d) = %t, %v; want true, nil", id, removed, err)
		}
		if err := store.DeleteItem(ctx, id); err != nil {
			t.Fatalf("second DeleteItem(%d): %v", id, err)
		}
		if _, err := store.GetItem(ctx, id); !errors.Is(err, ErrItemNotFound) {
			t.Fatalf("GetItem after delete error = %v, want ErrItemNotFound", err)
		}
	})
}

func TestReturnedItemsAreCopies(t *testing.T) {
	forEachBackend(t, func(t *testing.T, store ItemStore) {
		ctx := context.Background()
		item, err := store.CreateItem(ctx, "original", "")
		if err != nil {
			t.Fatal(err)
		}
		item.Title = "mutated"
		got, err := store.GetItem(ctx, item.ID)
		if err != nil {
			t.Fatal(err)
		}
		if got.Title != "original" {
			t.Fatalf("stored title = %q, want %q", got.Title, "original")
		}
	})
}

func TestConcurrentCreates(t *testing.T) {
	forEachBackend(t, func(t *testing.T, store ItemStore) {
		const workers, perWorker = 8, 25
		ids := make(chan int64, workers*perWorker)
		var wg sync.WaitGroup
		for w := 0; w < workers; w++ {
			wg.Add(1)
			go func(w int) {
				defer wg.Done()
				for i := 0; i < perWorker; i++ {
					item, err := store.CreateItem(context.Background(), fmt.Sprintf("%d-%d", w, i), "")
					if err != nil {
						t.Errorf("CreateItem: %v", err)
						return
					}
					ids <- item.ID
				}
			}(w)
		}
		wg.Wait()
		close(ids)

		seen := make(map[int64]bool)
		for id := range ids {
			if seen[id] {
				t.Fatalf("duplicate id %d", id)
			}
			seen[id] = true
		}
		if len(seen) != workers*perWorker {
			t.Fatalf("got %d ids, want %d", len(seen), workers*perWorker)
		}
		n, err := store.CountItems(context.Background())
		if err != nil {
			t.Fatal(err)
		}
		if n != workers*perWorker {
			t.Fatalf("CountItems = %d, want %d", n, workers*perWorker)
		}

		// list order must follow id order
		items, err := store.ListItems(context.Background())
		if err != nil {
			t.Fatal(err)
		}
		for i := 1; i < len(items); i++ {
			if items[i-1].ID >= items[i].ID {
				t.Fatalf("list out of order at %d: %d >= %d", i, items[i-1].ID, items[i].ID)
			}
		}
	})
}

func TestOpenItemStoreUnknownBackend(t *testing.T) {
	if _, err := OpenItemStore(config.StoreConfig{Backend: "postgres"}); err == nil {
		t.Fatal("expected an error for an unknown backend")
	}
}

func TestSQLiteStoresAreIsolated(t *testing.T) {
	a, err := NewSQLiteItemStore()
	if err != nil {
		t.Fatal(err)
	}
	defer a.Close()
	b, err := NewSQLiteItemStore()
	if err != nil {
		t.Fatal(err)
	}
	defer b.Close()

	mustCreate(t, a, "only in a", "")
	if n, _ := b.CountItems(context.Background()); n != 0 {
		t.Fatalf("second store sees %d items, want 0", n)
	}
}
