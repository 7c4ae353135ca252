package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	_ "github.com/mattn/go-sqlite3"

	"github.com/go-while/go-portfolio/internal/models"
)

// SQLiteItemStore keeps items in a private in-memory SQLite database.
// Nothing is written to disk; the data is gone when the store is closed.
type SQLiteItemStore struct {
	mux sync.Mutex
	db  *sql.DB
}

const query_items_initSchema = `
CREATE TABLE IF NOT EXISTS items (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	title TEXT NOT NULL,
	description TEXT NOT NULL
);
`

const (
	query_items_insert = `INSERT INTO items (title, description) VALUES (?, ?)`
	query_items_list   = `SELECT id, title, description FROM items ORDER BY id ASC`
	query_items_get    = `SELECT id, title, description FROM items WHERE id = ?`
	query_items_delete = `DELETE FROM items WHERE id = ?`
	query_items_count  = `SELECT COUNT(*) FROM items`
)

// NewSQLiteItemStore opens a fresh in-memory database.
func NewSQLiteItemStore() (*SQLiteItemStore, error) {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to open items database: %w", err)
	}
	// every new connection to :memory: gets its own empty database
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	if _, err := retryableExec(context.Background(), db, query_items_initSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return &SQLiteItemStore{db: db}, nil
}

func (s *SQLiteItemStore) ListItems(ctx context.Context) ([]*models.Item, error) {
	s.mux.Lock()
	defer s.mux.Unlock()

	rows, err := retryableQuery(ctx, s.db, query_items_list)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	defer rows.Close()

	items := []*models.Item{}
	for rows.Next() {
		item := &models.Item{}
		if err := rows.Scan(&item.ID, &item.Title, &item.Description); err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (s *SQLiteItemStore) CreateItem(ctx context.Context, title, description string) (*models.Item, error) {
	s.mux.Lock()
	defer s.mux.Unlock()

	res, err := retryableExec(ctx, s.db, query_items_insert, title, description)
	if err != nil {
		return nil, fmt.Errorf("failed to insert item: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read item id: %w", err)
	}
	return &models.Item{ID: id, Title: title, Description: description}, nil
}

func (s *SQLiteItemStore) GetItem(ctx context.Context, id int64) (*models.Item, error) {
	s.mux.Lock()
	defer s.mux.Unlock()

	item := &models.Item{}
	err := retryableQueryRowScan(ctx, s.db, query_items_get, []any{id}, &item.ID, &item.Title, &item.Description)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrItemNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get item %d: %w", id, err)
	}
	return item, nil
}

func (s *SQLiteItemStore) DeleteItem(ctx context.Context, id int64) error {
	_, err := s.DeleteItemReport(ctx, id)
	return err
}

func (s *SQLiteItemStore) DeleteItemReport(ctx context.Context, id int64) (bool, error) {
	s.mux.Lock()
	defer s.mux.Unlock()

	res, err := retryableExec(ctx, s.db, query_items_delete, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete item %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n > 0, nil
}

func (s *SQLiteItemStore) CountItems(ctx context.Context) (int, error) {
	s.mux.Lock()
	defer s.mux.Unlock()

	var n int
	if err := retryableQueryRowScan(ctx, s.db, query_items_count, nil, &n); err != nil {
		return 0, fmt.Errorf("failed to count items: %w", err)
	}
	return n, nil
}

func (s *SQLiteItemStore) Close() error {
	return s.db.Close()
}
