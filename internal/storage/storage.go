// Package storage provides the local key/value store backing the staging
// engine.
//
// The store is an embedded SQLite database (ncruces/go-sqlite3) under the
// project's .ofd directory. It holds exactly two kinds of data: the
// serialized change-set record under one well-known key, and one byte blob
// per staged image keyed by the image's storage key. WAL mode keeps
// concurrent readers (status, serve) from blocking writers.
package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

// ChangeSetKey is the well-known blob key holding the serialized change
// set.
const ChangeSetKey = "changeset"

// DB wraps the embedded SQLite connection used as a key/value store.
type DB struct {
	conn *sql.DB
	path string
}

// Open creates or opens the staging database at the specified path.
//
// The database is opened in embedded mode with WAL for concurrent reads.
// The caller MUST call Close() when done to ensure proper cleanup.
func Open(path string) (*DB, error) {
	// Ensure parent directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}

	connStr := fmt.Sprintf("file:%s", path)
	conn, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db := &DB{conn: conn, path: path}

	// Enable WAL mode for concurrent reads
	if _, err := db.conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	// Set busy timeout to 5 seconds
	if _, err := db.conn.Exec("PRAGMA busy_timeout=5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	if err := db.initSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}

// initSchema creates the blob tables if they don't exist. Idempotent.
func (db *DB) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS blobs (
		key TEXT PRIMARY KEY,
		value BLOB NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS images (
		storage_key TEXT PRIMARY KEY,
		data BLOB NOT NULL,
		stored_at TEXT NOT NULL
	);
	`
	if _, err := db.conn.Exec(schema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}
	return nil
}

// Close closes the database connection after checkpointing the WAL.
func (db *DB) Close() error {
	if db.conn == nil {
		return nil
	}

	if _, err := db.conn.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to checkpoint WAL: %v\n", err)
	}

	if err := db.conn.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	db.conn = nil
	return nil
}

// Path returns the database file path.
func (db *DB) Path() string { return db.path }

// PutBlob stores a value under key, replacing any previous value. Storage
// failures (including capacity) propagate to the caller.
func (db *DB) PutBlob(key string, value []byte) error {
	query := `
	INSERT INTO blobs (key, value, updated_at) VALUES (?, ?, ?)
	ON CONFLICT(key) DO UPDATE SET
		value = excluded.value,
		updated_at = excluded.updated_at
	`
	if _, err := db.conn.Exec(query, key, value, time.Now().Format(time.RFC3339)); err != nil {
		return fmt.Errorf("failed to store blob %s: %w", key, err)
	}
	return nil
}

// GetBlob returns the value stored under key, or false if absent.
func (db *DB) GetBlob(key string) ([]byte, bool, error) {
	var value []byte
	err := db.conn.QueryRow(`SELECT value FROM blobs WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read blob %s: %w", key, err)
	}
	return value, true, nil
}

// DeleteBlob removes the value under key. Idempotent.
func (db *DB) DeleteBlob(key string) error {
	if _, err := db.conn.Exec(`DELETE FROM blobs WHERE key = ?`, key); err != nil {
		return fmt.Errorf("failed to delete blob %s: %w", key, err)
	}
	return nil
}

// PutImage stores image bytes under a storage key. Image bytes are the one
// payload with a real capacity ceiling, so callers must surface errors from
// here to whoever triggered the store.
func (db *DB) PutImage(storageKey string, data []byte) error {
	query := `
	INSERT INTO images (storage_key, data, stored_at) VALUES (?, ?, ?)
	ON CONFLICT(storage_key) DO UPDATE SET
		data = excluded.data,
		stored_at = excluded.stored_at
	`
	if _, err := db.conn.Exec(query, storageKey, data, time.Now().Format(time.RFC3339)); err != nil {
		return fmt.Errorf("failed to store image %s: %w", storageKey, err)
	}
	return nil
}

// GetImage returns the bytes stored under a storage key, or false if
// absent.
func (db *DB) GetImage(storageKey string) ([]byte, bool, error) {
	var data []byte
	err := db.conn.QueryRow(`SELECT data FROM images WHERE storage_key = ?`, storageKey).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read image %s: %w", storageKey, err)
	}
	return data, true, nil
}

// DeleteImage removes the bytes under a storage key. Idempotent.
func (db *DB) DeleteImage(storageKey string) error {
	if _, err := db.conn.Exec(`DELETE FROM images WHERE storage_key = ?`, storageKey); err != nil {
		return fmt.Errorf("failed to delete image %s: %w", storageKey, err)
	}
	return nil
}

// ImageKeys lists every stored image storage key.
func (db *DB) ImageKeys() ([]string, error) {
	rows, err := db.conn.Query(`SELECT storage_key FROM images ORDER BY storage_key`)
	if err != nil {
		return nil, fmt.Errorf("failed to list images: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("failed to scan image key: %w", err)
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}
