package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"sync"

	_ "modernc.org/sqlite" // Pure Go SQLite driver - no CGO required
)

// SQLiteFactory keeps all named stores in one SQLite database, one row per
// record, keyed by (store, key).
type SQLiteFactory struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteFactory opens (or creates) the database at dbPath.
func NewSQLiteFactory(dbPath string) (*SQLiteFactory, error) {
	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000", dbPath)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite: %w", err)
	}

	// SQLite connection pool settings
	db.SetMaxOpenConns(1) // SQLite only supports 1 writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	query := `
	CREATE TABLE IF NOT EXISTS state_records (
		store TEXT NOT NULL,
		key TEXT NOT NULL,
		value TEXT NOT NULL,
		PRIMARY KEY (store, key)
	);`
	if _, err := db.Exec(query); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create state table: %w", err)
	}

	log.Printf("[SQLiteFactory] Initialized with database: %s", dbPath)
	return &SQLiteFactory{db: db}, nil
}

// Open returns a store view over the named record set.
func (f *SQLiteFactory) Open(name string) (Store, error) {
	return &sqliteStore{factory: f, name: name}, nil
}

// Close closes the shared database connection.
func (f *SQLiteFactory) Close() error {
	return f.db.Close()
}

type sqliteStore struct {
	factory *SQLiteFactory
	name    string
}

// Load reads every record for this store. Rows that fail to parse as JSON
// are skipped with a warning rather than failing the load.
func (s *sqliteStore) Load(ctx context.Context) (map[string]json.RawMessage, error) {
	f := s.factory
	f.mu.Lock()
	defer f.mu.Unlock()

	rows, err := f.db.QueryContext(ctx,
		`SELECT key, value FROM state_records WHERE store = ?`, s.name)
	if err != nil {
		log.Printf("[SQLiteStore] Load failed for %s, starting empty: %v", s.name, err)
		return map[string]json.RawMessage{}, nil
	}
	defer rows.Close()

	records := map[string]json.RawMessage{}
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("failed to scan state record: %w", err)
		}
		if !json.Valid([]byte(value)) {
			log.Printf("[SQLiteStore] Skipping corrupt record %s/%s", s.name, key)
			continue
		}
		records[key] = json.RawMessage(value)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read state records: %w", err)
	}
	return records, nil
}

// Save replaces all records for this store in one transaction.
func (s *sqliteStore) Save(ctx context.Context, records map[string]json.RawMessage) error {
	f := s.factory
	f.mu.Lock()
	defer f.mu.Unlock()

	tx, err := f.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM state_records WHERE store = ?`, s.name); err != nil {
		return fmt.Errorf("failed to clear store %s: %w", s.name, err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO state_records (store, key, value) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for key, value := range records {
		if _, err := stmt.ExecContext(ctx, s.name, key, string(value)); err != nil {
			return fmt.Errorf("failed to save record %s/%s: %w", s.name, key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Close is a no-op; the factory owns the connection.
func (s *sqliteStore) Close() error { return nil }

// Ensure implementations satisfy the interfaces
var (
	_ Store   = (*sqliteStore)(nil)
	_ Factory = (*SQLiteFactory)(nil)
)
