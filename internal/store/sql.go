package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// SQLBackend keeps collections as rows of the documents table created by
// the migrate package.
type SQLBackend struct {
	DB *sql.DB
}

func NewSQLBackend(db *sql.DB) *SQLBackend {
	return &SQLBackend{DB: db}
}

func (b *SQLBackend) Collection(name string) Store {
	return &SQLStore{db: b.DB, collection: name}
}

// SQLStore is one collection inside the documents table.
type SQLStore struct {
	db         *sql.DB
	collection string
}

func (s *SQLStore) Read(ctx context.Context) (Document, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, body FROM documents WHERE collection=?`, s.collection)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.collection, err)
	}
	defer rows.Close()
	doc := Document{}
	for rows.Next() {
		var key, body string
		if err := rows.Scan(&key, &body); err != nil {
			return nil, fmt.Errorf("scan %s: %w", s.collection, err)
		}
		doc[key] = json.RawMessage(body)
	}
	return doc, rows.Err()
}

// Write replaces the collection's rows in a single transaction.
func (s *SQLStore) Write(ctx context.Context, doc Document) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM documents WHERE collection=?`, s.collection); err != nil {
		return fmt.Errorf("clear %s: %w", s.collection, err)
	}
	for key, body := range doc {
		if _, err := tx.ExecContext(ctx, `INSERT INTO documents(collection,key,body) VALUES (?,?,?)`, s.collection, key, string(body)); err != nil {
			return fmt.Errorf("insert %s/%s: %w", s.collection, key, err)
		}
	}
	now := time.Now().UTC().Format(time.RFC3339)
	if _, err := tx.ExecContext(ctx, `INSERT INTO collections(name,written_at) VALUES (?,?)
ON CONFLICT(name) DO UPDATE SET written_at=excluded.written_at`, s.collection, now); err != nil {
		return fmt.Errorf("mark %s: %w", s.collection, err)
	}
	return tx.Commit()
}

func (s *SQLStore) Exists(ctx context.Context) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM collections WHERE name=?`, s.collection).Scan(&n)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
