// package repositories provides the local record storage and the stores built on it.
package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/raff/internal/shared"
	json "github.com/goccy/go-json"
)

var (
	_ Storage = (*SQLiteStorage)(nil)
	_ Storage = (*MemoryStorage)(nil)
)

// Storage is a string key/value record store, the on-disk stand-in for browser local storage.
type Storage interface {
	// GetItem returns the stored value and whether the key exists.
	GetItem(key string) (string, bool, error)
	SetItem(key, value string) error
	RemoveItem(key string) error
	Clear() error
}

// SQLiteStorage implements [Storage] over the records table.
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage creates a new SQLiteStorage with the given database connection.
// Migrations must already have run.
func NewSQLiteStorage(db *sql.DB) *SQLiteStorage {
	return &SQLiteStorage{db: db}
}

func (s *SQLiteStorage) GetItem(key string) (string, bool, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM records WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("%w: failed to read %s: %v", shared.ErrStorageUnavailable, key, err)
	}
	return value, true, nil
}

func (s *SQLiteStorage) SetItem(key, value string) error {
	query := `
		INSERT INTO records (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`
	if _, err := s.db.Exec(query, key, value, time.Now().UTC()); err != nil {
		return fmt.Errorf("%w: failed to write %s: %v", shared.ErrStorageUnavailable, key, err)
	}
	return nil
}

func (s *SQLiteStorage) RemoveItem(key string) error {
	if _, err := s.db.Exec("DELETE FROM records WHERE key = ?", key); err != nil {
		return fmt.Errorf("%w: failed to remove %s: %v", shared.ErrStorageUnavailable, key, err)
	}
	return nil
}

func (s *SQLiteStorage) Clear() error {
	if _, err := s.db.Exec("DELETE FROM records"); err != nil {
		return fmt.Errorf("%w: failed to clear records: %v", shared.ErrStorageUnavailable, err)
	}
	return nil
}

// MemoryStorage is a process-local [Storage], used when the database cannot be opened.
type MemoryStorage struct {
	mu    sync.RWMutex
	items map[string]string
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{items: make(map[string]string)}
}

func (m *MemoryStorage) GetItem(key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.items[key]
	return v, ok, nil
}

func (m *MemoryStorage) SetItem(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[key] = value
	return nil
}

func (m *MemoryStorage) RemoveItem(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, key)
	return nil
}

func (m *MemoryStorage) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = make(map[string]string)
	return nil
}

// loadJSON decodes the record at key into target.
//
// Missing records, read errors and malformed values all report false; the
// latter two are logged so callers can fall back to an empty state.
func loadJSON(storage Storage, logger *log.Logger, key string, target any) bool {
	raw, ok, err := storage.GetItem(key)
	if err != nil {
		logger.Error("failed to read record", "key", key, "error", err)
		return false
	}
	if !ok || raw == "" {
		return false
	}
	if err := json.Unmarshal([]byte(raw), target); err != nil {
		logger.Error("failed to decode record", "key", key, "error", err)
		return false
	}
	return true
}

// saveJSON encodes v and writes it at key. Failures are logged, not returned.
func saveJSON(storage Storage, logger *log.Logger, key string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		logger.Error("failed to encode record", "key", key, "error", err)
		return
	}
	if err := storage.SetItem(key, string(data)); err != nil {
		logger.Error("failed to write record", "key", key, "error", err)
	}
}

func defaultLogger(l *log.Logger) *log.Logger {
	if l == nil {
		return shared.NewLogger(nil)
	}
	return l
}
