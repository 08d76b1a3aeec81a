package blobstore

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS blobs (
    bucket TEXT NOT NULL,
    key    TEXT NOT NULL,
    data   BLOB NOT NULL,
    PRIMARY KEY (bucket, key)
);
`

// SQLite is a Backend persisting blobs in a single SQLite database,
// one row per blob keyed by (bucket, key).
type SQLite struct {
	// DB is the database handle for executing queries.
	DB *sql.DB
}

// OpenSQLite opens (creating if needed) the blob database at path and
// ensures the schema exists.
func OpenSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &SQLite{DB: db}, nil
}

// NewSQLite wraps an existing database handle. The caller is
// responsible for the schema; used by tests with a mock connection.
func NewSQLite(db *sql.DB) *SQLite {
	return &SQLite{DB: db}
}

// Put inserts or replaces the blob stored under (bucket, key).
func (s *SQLite) Put(ctx context.Context, bucket, key string, blob []byte) error {
	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO blobs (bucket, key, data) VALUES (?, ?, ?)
		ON CONFLICT (bucket, key) DO UPDATE SET data = excluded.data
	`, bucket, key, blob)
	if err != nil {
		return fmt.Errorf("put %s/%s: %w", bucket, key, err)
	}
	return nil
}

// Get returns the blob stored under (bucket, key), or ErrNotFound.
func (s *SQLite) Get(ctx context.Context, bucket, key string) ([]byte, error) {
	var blob []byte
	err := s.DB.QueryRowContext(ctx, `
		SELECT data FROM blobs WHERE bucket = ? AND key = ?
	`, bucket, key).Scan(&blob)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %s/%s: %w", bucket, key, err)
	}
	return blob, nil
}

// Delete removes (bucket, key). Deleting an absent key is not an error.
func (s *SQLite) Delete(ctx context.Context, bucket, key string) error {
	_, err := s.DB.ExecContext(ctx, `
		DELETE FROM blobs WHERE bucket = ? AND key = ?
	`, bucket, key)
	if err != nil {
		return fmt.Errorf("delete %s/%s: %w", bucket, key, err)
	}
	return nil
}

// Exists reports whether (bucket, key) holds a blob.
func (s *SQLite) Exists(ctx context.Context, bucket, key string) (bool, error) {
	var exists bool
	err := s.DB.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM blobs WHERE bucket = ? AND key = ?)
	`, bucket, key).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("exists %s/%s: %w", bucket, key, err)
	}
	return exists, nil
}

// List returns every key in the bucket mapped to its blob size.
func (s *SQLite) List(ctx context.Context, bucket string) (map[string]int64, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT key, LENGTH(data) FROM blobs WHERE bucket = ?
	`, bucket)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", bucket, err)
	}
	defer rows.Close()

	sizes := make(map[string]int64)
	for rows.Next() {
		var key string
		var size int64
		if err := rows.Scan(&key, &size); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		sizes[key] = size
	}
	return sizes, rows.Err()
}

// Close closes the underlying database.
func (s *SQLite) Close() error {
	return s.DB.Close()
}
