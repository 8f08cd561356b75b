package state

import (
	"database/sql"
	"embed"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// SQLiteStore keeps the sync state in a local SQLite database. Save
// replaces the stored records in a single transaction, preserving the
// wholesale semantics of FileStore.
type SQLiteStore struct {
	db *sql.DB
}

var _ Store = (*SQLiteStore)(nil)

func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open state database: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteStore{db: db}, nil
}

// runMigrations applies all pending migrations to the state database
func runMigrations(db *sql.DB) error {
	driver, err := sqlite.WithInstance(db, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("failed to create sqlite driver: %w", err)
	}

	source, err := iofs.New(migrationFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to create iofs source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	err = m.Up()
	if err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// Load reads all tracked item records and the last sync timestamp
func (s *SQLiteStore) Load() (*SyncState, error) {
	loaded := NewSyncState()

	rows, err := s.db.Query("SELECT identity, last_fingerprint, tracker_id FROM tracked_items")
	if err != nil {
		return nil, fmt.Errorf("failed to load tracked items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var record TrackedItemRecord
		if err := rows.Scan(&record.Identity, &record.LastFingerprint, &record.TrackerID); err != nil {
			return nil, fmt.Errorf("failed to scan tracked item row: %w", err)
		}
		loaded.Records[record.Identity] = record
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tracked item rows: %w", err)
	}

	var lastSync sql.NullString
	err = s.db.QueryRow("SELECT value FROM sync_meta WHERE key = 'last_sync'").Scan(&lastSync)
	if err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("failed to load last sync time: %w", err)
	}

	if lastSync.Valid {
		if t, err := time.Parse(time.RFC3339, lastSync.String); err == nil {
			loaded.LastSyncAt = &t
		}
	}

	return loaded, nil
}

// Save replaces the stored state wholesale in a single transaction
func (s *SQLiteStore) Save(state *SyncState) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM tracked_items"); err != nil {
		return fmt.Errorf("failed to clear tracked items: %w", err)
	}

	for _, record := range state.Records {
		_, err := tx.Exec(`
			INSERT INTO tracked_items (identity, last_fingerprint, tracker_id)
			VALUES (?, ?, ?)
		`, record.Identity, record.LastFingerprint, record.TrackerID)
		if err != nil {
			return fmt.Errorf("failed to store tracked item: %w", err)
		}
	}

	if state.LastSyncAt != nil {
		_, err := tx.Exec(`
			INSERT INTO sync_meta (key, value) VALUES ('last_sync', ?)
			ON CONFLICT (key) DO UPDATE SET value = excluded.value
		`, state.LastSyncAt.UTC().Format(time.RFC3339))
		if err != nil {
			return fmt.Errorf("failed to store last sync time: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit state: %w", err)
	}

	return nil
}

// Close releases the underlying database handle
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
