package store

import (
	"os"
	"path/filepath"
	"testing"
)

// newTestStore creates a new Store backed by a database in a temp directory.
func newTestStore(t *testing.T) *Store {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := New(dbPath)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() {
		s.Close()
	})

	return s
}

func TestNewStore_CreatesDatabase(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	// Verify the database file doesn't exist yet
	if _, err := os.Stat(dbPath); !os.IsNotExist(err) {
		t.Fatal("database file should not exist before creating store")
	}

	s, err := New(dbPath)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Fatal("database file should exist after creating store")
	}
	if s.Path() != dbPath {
		t.Errorf("Path() = %q, want %q", s.Path(), dbPath)
	}
}

func TestNewStore_RunsMigrations(t *testing.T) {
	s := newTestStore(t)

	tables := []string{"bindings", "settings"}
	for _, table := range tables {
		var name string
		err := s.DB().QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?",
			table,
		).Scan(&name)
		if err != nil {
			t.Errorf("table %q should exist after migrations: %v", table, err)
		}
	}
}

func TestNewStore_ReopenKeepsData(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	s, err := New(dbPath)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	if _, err := s.Bindings().SeedDefaults(); err != nil {
		t.Fatalf("SeedDefaults() error = %v", err)
	}
	s.Close()

	// Migrations are idempotent and bindings survive a restart.
	s, err = New(dbPath)
	if err != nil {
		t.Fatalf("failed to reopen store: %v", err)
	}
	defer s.Close()

	list, err := s.Bindings().List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(list) != 4 {
		t.Errorf("expected 4 bindings after reopen, got %d", len(list))
	}
}

func TestStore_Close(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	s, err := New(dbPath)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

	// Close should not return an error
	if err := s.Close(); err != nil {
		t.Errorf("close should not return error: %v", err)
	}

	// After closing, DB operations should fail
	_, err = s.DB().Exec("SELECT 1")
	if err == nil {
		t.Error("DB operations should fail after close")
	}
}

func TestSettingsRepository(t *testing.T) {
	s := newTestStore(t)
	repo := s.Settings()

	if _, err := repo.Get(SettingEnabled); err != ErrNotFound {
		t.Errorf("Get() on missing key error = %v, want ErrNotFound", err)
	}
	if !repo.GetBool(SettingEnabled, true) {
		t.Error("GetBool() on missing key should return the default")
	}

	if err := repo.SetBool(SettingEnabled, false); err != nil {
		t.Fatalf("SetBool() error = %v", err)
	}
	if repo.GetBool(SettingEnabled, true) {
		t.Error("GetBool() = true, want false after SetBool(false)")
	}

	// Set overwrites.
	if err := repo.Set(SettingEnabled, "true"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if v, _ := repo.Get(SettingEnabled); v != "true" {
		t.Errorf("Get() = %q, want true", v)
	}

	if err := repo.Set(SettingEnabled, "maybe"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if !repo.GetBool(SettingEnabled, true) {
		t.Error("GetBool() on malformed value should return the default")
	}
}
