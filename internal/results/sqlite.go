package results

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

// SQLiteStore implements Store with a single SQLite database. Bundles
// are stored as JSON payloads keyed by the canonical run key, which
// keeps the load/save contract identical to the FileStore while fitting
// many runs into one file.
type SQLiteStore struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteStore opens (or creates) the database at
// <root>/results/snncompare.db.
func NewSQLiteStore(root string) (*SQLiteStore, error) {
	resultsDir := filepath.Join(root, DefaultResultsDir)
	if err := os.MkdirAll(resultsDir, 0755); err != nil {
		return nil, fmt.Errorf("create results directory: %w", err)
	}

	dbPath := filepath.Join(resultsDir, "snncompare.db")
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// SQLite works best with a single writer.
	db.SetMaxOpenConns(1)

	const schema = `
CREATE TABLE IF NOT EXISTS bundles (
	key        TEXT PRIMARY KEY,
	payload    TEXT NOT NULL,
	updated_at TEXT NOT NULL
);`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return &SQLiteStore{db: db, dbPath: dbPath}, nil
}

// Load reads the bundle for key, or ErrNotFound.
func (s *SQLiteStore) Load(key string) (*ResultBundle, error) {
	var payload string
	err := s.db.QueryRow(`SELECT payload FROM bundles WHERE key = ?`, key).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query bundle %s: %w", key, err)
	}
	var bundle ResultBundle
	if err := json.Unmarshal([]byte(payload), &bundle); err != nil {
		return nil, fmt.Errorf("parse bundle %s: %w", key, err)
	}
	return &bundle, nil
}

// Save upserts the bundle for key.
func (s *SQLiteStore) Save(key string, bundle *ResultBundle) error {
	payload, err := json.Marshal(bundle)
	if err != nil {
		return fmt.Errorf("serialize bundle %s: %w", key, err)
	}
	_, err = s.db.Exec(`
INSERT INTO bundles (key, payload, updated_at) VALUES (?, ?, ?)
ON CONFLICT(key) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`,
		key, string(payload), time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("save bundle %s: %w", key, err)
	}
	return nil
}

// Keys lists the keys of all stored bundles.
func (s *SQLiteStore) Keys() ([]string, error) {
	rows, err := s.db.Query(`SELECT key FROM bundles ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("list bundles: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("scan bundle key: %w", err)
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
