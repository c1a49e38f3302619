package hashstore

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // SQLite driver

	"ragsync/internal/changedetect"
)

// SQLite stores records in the hash_records table of a SQLite database.
type SQLite struct {
	db   *sql.DB
	path string
}

var _ changedetect.Store = (*SQLite)(nil)

// OpenSQLite opens or creates the database at path.
func OpenSQLite(path string) (*SQLite, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS hash_records (
			document_id TEXT PRIMARY KEY,
			hash TEXT NOT NULL,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating hash_records table: %w", err)
	}
	return &SQLite{db: db, path: path}, nil
}

// Close closes the database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *SQLite) Path() string { return s.path }

// Load returns every stored record.
func (s *SQLite) Load(ctx context.Context) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT document_id, hash FROM hash_records")
	if err != nil {
		return nil, fmt.Errorf("querying hash records: %w", err)
	}
	defer rows.Close()

	records := map[string]string{}
	for rows.Next() {
		var id, hash string
		if err := rows.Scan(&id, &hash); err != nil {
			return nil, fmt.Errorf("scanning hash record: %w", err)
		}
		records[id] = hash
	}
	return records, rows.Err()
}

// Save replaces all stored records in a single transaction.
func (s *SQLite) Save(ctx context.Context, records map[string]string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if _, err := tx.ExecContext(ctx, "DELETE FROM hash_records"); err != nil {
		return fmt.Errorf("clearing hash records: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, "INSERT INTO hash_records (document_id, hash) VALUES (?, ?)")
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for id, hash := range records {
		if _, err := stmt.ExecContext(ctx, id, hash); err != nil {
			return fmt.Errorf("inserting hash record %s: %w", id, err)
		}
	}
	return tx.Commit()
}
