package database

import (
	"path/filepath"
	"testing"
)

func TestNewDBRunsMigrations(t *testing.T) {
	db, err := NewDB(Config{DatabasePath: filepath.Join(t.TempDir(), "nested", "optix.db")})
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	for _, table := range []string{"accounts", "profiles", "account_identities"} {
		var name string
		err := db.Conn().QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		if err != nil {
			t.Fatalf("expected table %s to exist: %v", table, err)
		}
	}
}

func TestNewDBIsReentrant(t *testing.T) {
	path := filepath.Join(t.TempDir(), "optix.db")

	first, err := NewDB(Config{DatabasePath: path})
	if err != nil {
		t.Fatalf("first open: %v", err)
	}
	first.Close()

	second, err := NewDB(Config{DatabasePath: path})
	if err != nil {
		t.Fatalf("second open: %v", err)
	}
	second.Close()
}
