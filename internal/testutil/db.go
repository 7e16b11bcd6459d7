package testutil

import (
	"context"
	"database/sql"
	"os"
	"testing"

	"github.com/vcrag/copilot/internal/config"
	"github.com/vcrag/copilot/internal/db"
)

// OpenTestDB connects to the postgres named by TEST_PG_DSN and applies the
// migrations. The test is skipped when the variable is unset.
func OpenTestDB(t *testing.T) *sql.DB {
	t.Helper()
	dsn := os.Getenv("TEST_PG_DSN")
	if dsn == "" {
		t.Skip("TEST_PG_DSN not set, skipping postgres test")
	}
	ctx := context.Background()
	conn, err := db.Open(ctx, config.DatabaseConfig{DSN: dsn})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.ApplyMigrations(ctx, conn); err != nil {
		_ = conn.Close()
		t.Fatalf("migrations: %v", err)
	}
	t.Cleanup(func() {
		_ = conn.Close()
	})
	return conn
}
