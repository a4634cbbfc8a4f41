// Package test opens migrated stores for package tests.
package test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/hrygo/orbita/internal/profile"
	"github.com/hrygo/orbita/store"
	"github.com/hrygo/orbita/store/db"
)

// NewTestingStore returns a migrated store. It uses a SQLite file in a
// temp dir, or PostgreSQL when DRIVER=postgres and POSTGRES_TEST_DSN are set.
func NewTestingStore(ctx context.Context, t *testing.T) *store.Store {
	t.Helper()

	prof := getTestingProfile(t)
	driver, err := db.NewDBDriver(prof)
	if err != nil {
		t.Fatalf("failed to create db driver: %v", err)
	}

	s := store.New(driver, prof)
	if err := s.Migrate(ctx); err != nil {
		t.Fatalf("failed to migrate db: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func getTestingProfile(t *testing.T) *profile.Profile {
	t.Helper()

	dir := t.TempDir()
	prof := &profile.Profile{Mode: "dev", Data: dir, Driver: "sqlite", DSN: filepath.Join(dir, "orbita_test.db")}

	if os.Getenv("DRIVER") == "postgres" {
		dsn := os.Getenv("POSTGRES_TEST_DSN")
		if dsn == "" {
			t.Skip("POSTGRES_TEST_DSN not set")
		}
		prof.Driver = "postgres"
		prof.DSN = dsn
	}
	return prof
}
