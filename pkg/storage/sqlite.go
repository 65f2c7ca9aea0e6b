package storage

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

// SQLiteStore implements Store using SQLite for persistence. It is the
// store of record for a browser profile: enablement survives restarts and
// extension storage behaves like chrome.storage.local.
//
// SQLiteStore uses a write-ahead log (WAL) and a single-writer connection
// pool, which is what SQLite supports anyway.
type SQLiteStore struct {
	db     *sql.DB
	dbPath string

	mu        sync.RWMutex
	closeOnce sync.Once

	// prepared statements
	getEnabledStmt  *sql.Stmt
	setEnabledStmt  *sql.Stmt
	delStateStmt    *sql.Stmt
	getValueStmt    *sql.Stmt
	setValueStmt    *sql.Stmt
	delValueStmt    *sql.Stmt
	clearValuesStmt *sql.Stmt
}

// SQLiteStoreConfig configures the SQLite store.
type SQLiteStoreConfig struct {
	// DBPath is the path to the SQLite database file.
	DBPath string

	// BusyTimeout is how long to wait for locks before failing.
	// Default: 5 seconds.
	BusyTimeout time.Duration
}

// NewSQLiteStore opens (or creates) the browser store at dbPath with
// default settings.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	return NewSQLiteStoreWithConfig(SQLiteStoreConfig{DBPath: dbPath})
}

// NewSQLiteStoreWithConfig opens the browser store with custom configuration.
func NewSQLiteStoreWithConfig(cfg SQLiteStoreConfig) (*SQLiteStore, error) {
	if cfg.DBPath == "" {
		return nil, fmt.Errorf("db path cannot be empty")
	}
	if cfg.BusyTimeout == 0 {
		cfg.BusyTimeout = 5 * time.Second
	}

	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=%d&_synchronous=NORMAL",
		cfg.DBPath, int(cfg.BusyTimeout.Milliseconds()))

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	store := &SQLiteStore{
		db:     db,
		dbPath: cfg.DBPath,
	}

	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	if err := store.prepareStatements(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to prepare statements: %w", err)
	}

	return store, nil
}

// initSchema creates the database schema if it doesn't exist.
func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS extension_state (
		id TEXT PRIMARY KEY NOT NULL,
		enabled INTEGER NOT NULL DEFAULT 1
	);

	CREATE TABLE IF NOT EXISTS extension_storage (
		ext_id TEXT NOT NULL,
		key TEXT NOT NULL,
		value TEXT NOT NULL DEFAULT '',
		PRIMARY KEY (ext_id, key)
	);

	CREATE INDEX IF NOT EXISTS idx_extension_storage_ext ON extension_storage(ext_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

// prepareStatements prepares SQL statements for reuse.
func (s *SQLiteStore) prepareStatements() error {
	var err error

	s.getEnabledStmt, err = s.db.Prepare(`
		SELECT enabled FROM extension_state WHERE id = ?
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare enabled lookup: %w", err)
	}

	s.setEnabledStmt, err = s.db.Prepare(`
		INSERT INTO extension_state (id, enabled) VALUES (?, ?)
		ON CONFLICT (id) DO UPDATE SET enabled = excluded.enabled
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare enabled upsert: %w", err)
	}

	s.delStateStmt, err = s.db.Prepare(`
		DELETE FROM extension_state WHERE id = ?
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare state delete: %w", err)
	}

	s.getValueStmt, err = s.db.Prepare(`
		SELECT value FROM extension_storage WHERE ext_id = ? AND key = ?
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare value lookup: %w", err)
	}

	s.setValueStmt, err = s.db.Prepare(`
		INSERT INTO extension_storage (ext_id, key, value) VALUES (?, ?, ?)
		ON CONFLICT (ext_id, key) DO UPDATE SET value = excluded.value
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare value upsert: %w", err)
	}

	s.delValueStmt, err = s.db.Prepare(`
		DELETE FROM extension_storage WHERE ext_id = ? AND key = ?
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare value delete: %w", err)
	}

	s.clearValuesStmt, err = s.db.Prepare(`
		DELETE FROM extension_storage WHERE ext_id = ?
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare storage clear: %w", err)
	}

	return nil
}

// IsExtensionEnabled returns the persisted enabled flag.
// Extensions without a persisted row are enabled.
func (s *SQLiteStore) IsExtensionEnabled(ctx context.Context, id string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var enabled int64
	err := s.getEnabledStmt.QueryRowContext(ctx, id).Scan(&enabled)
	if err == sql.ErrNoRows {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to query enabled flag: %w", err)
	}
	return enabled != 0, nil
}

// SetExtensionEnabled persists the enabled flag.
func (s *SQLiteStore) SetExtensionEnabled(ctx context.Context, id string, enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	val := int64(0)
	if enabled {
		val = 1
	}
	if _, err := s.setEnabledStmt.ExecContext(ctx, id, val); err != nil {
		return fmt.Errorf("failed to persist enabled flag: %w", err)
	}
	return nil
}

// RemoveExtensionData deletes the enabled flag and all stored key/value
// pairs for the extension.
func (s *SQLiteStore) RemoveExtensionData(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.delStateStmt.ExecContext(ctx, id); err != nil {
		return fmt.Errorf("failed to delete extension state: %w", err)
	}
	if _, err := s.clearValuesStmt.ExecContext(ctx, id); err != nil {
		return fmt.Errorf("failed to delete extension storage: %w", err)
	}
	return nil
}

// StorageGet returns the stored values for the requested keys.
func (s *SQLiteStore) StorageGet(ctx context.Context, id string, keys []string) (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[string]string, len(keys))
	for _, key := range keys {
		var value string
		err := s.getValueStmt.QueryRowContext(ctx, id, key).Scan(&value)
		if err == sql.ErrNoRows {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to query storage key %q: %w", key, err)
		}
		result[key] = value
	}
	return result, nil
}

// StorageSet stores one key/value pair.
func (s *SQLiteStore) StorageSet(ctx context.Context, id, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.setValueStmt.ExecContext(ctx, id, key, value); err != nil {
		return fmt.Errorf("failed to store key %q: %w", key, err)
	}
	return nil
}

// StorageRemove deletes the given keys.
func (s *SQLiteStore) StorageRemove(ctx context.Context, id string, keys []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, key := range keys {
		if _, err := s.delValueStmt.ExecContext(ctx, id, key); err != nil {
			return fmt.Errorf("failed to remove key %q: %w", key, err)
		}
	}
	return nil
}

// StorageClear deletes every key in the extension's area.
func (s *SQLiteStore) StorageClear(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.clearValuesStmt.ExecContext(ctx, id); err != nil {
		return fmt.Errorf("failed to clear storage: %w", err)
	}
	return nil
}

// Close releases the database connection.
func (s *SQLiteStore) Close() error {
	var err error
	s.closeOnce.Do(func() {
		err = s.db.Close()
	})
	return err
}
