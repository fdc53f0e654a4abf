package repositories

import (
	"database/sql"
	"errors"
	"io"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/raff/internal/shared"
)

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	// each pooled connection would otherwise get its own empty :memory: database
	shared.ConfigureDatabase(db, 1, 1)

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() { db.Close() })
	return db
}

func quietLogger() *log.Logger {
	return shared.NewLogger(io.Discard)
}

func TestStorage(t *testing.T) {
	backends := map[string]func(t *testing.T) Storage{
		"SQLiteStorage": func(t *testing.T) Storage { return NewSQLiteStorage(setupTestDB(t)) },
		"MemoryStorage": func(t *testing.T) Storage { return NewMemoryStorage() },
	}

	for name, newStorage := range backends {
		t.Run(name, func(t *testing.T) {
			t.Run("missing key", func(t *testing.T) {
				s := newStorage(t)
				v, ok, err := s.GetItem("nope")
				if err != nil || ok || v != "" {
					t.Errorf("expected missing key, got %q %v %v", v, ok, err)
				}
			})

			t.Run("set, overwrite and remove", func(t *testing.T) {
				s := newStorage(t)
				if err := s.SetItem("theme", "dark"); err != nil {
					t.Fatalf("failed to set item: %v", err)
				}
				if err := s.SetItem("theme", "light"); err != nil {
					t.Fatalf("failed to overwrite item: %v", err)
				}
				v, ok, err := s.GetItem("theme")
				if err != nil || !ok || v != "light" {
					t.Errorf("expected light, got %q %v %v", v, ok, err)
				}

				if err := s.RemoveItem("theme"); err != nil {
					t.Fatalf("failed to remove item: %v", err)
				}
				if _, ok, _ := s.GetItem("theme"); ok {
					t.Error("expected item to be removed")
				}
			})

			t.Run("clear", func(t *testing.T) {
				s := newStorage(t)
				s.SetItem("a", "1")
				s.SetItem("b", "2")
				if err := s.Clear(); err != nil {
					t.Fatalf("failed to clear: %v", err)
				}
				if _, ok, _ := s.GetItem("a"); ok {
					t.Error("expected records to be cleared")
				}
			})
		})
	}

	t.Run("SQLiteStorage without schema", func(t *testing.T) {
		db, err := shared.NewDatabase(":memory:")
		if err != nil {
			t.Fatalf("failed to create database: %v", err)
		}
		defer db.Close()

		s := NewSQLiteStorage(db)
		if _, _, err := s.GetItem("x"); !errors.Is(err, shared.ErrStorageUnavailable) {
			t.Errorf("expected ErrStorageUnavailable, got %v", err)
		}
		if err := s.SetItem("x", "y"); !errors.Is(err, shared.ErrStorageUnavailable) {
			t.Errorf("expected ErrStorageUnavailable, got %v", err)
		}
	})
}
