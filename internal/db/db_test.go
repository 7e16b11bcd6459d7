package db

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vcrag/copilot/internal/config"
)

func TestSplitStatements(t *testing.T) {
	got := splitStatements("CREATE TABLE a (id TEXT);\n\n  ;CREATE INDEX b ON a (id)\n")
	require.Equal(t, []string{"CREATE TABLE a (id TEXT)", "CREATE INDEX b ON a (id)"}, got)
}

func TestEmbeddedMigrationsPresent(t *testing.T) {
	content, err := migrationsFS.ReadFile("migrations/001_init.sql")
	require.NoError(t, err)
	stmts := splitStatements(string(content))
	require.NotEmpty(t, stmts)
	require.Contains(t, stmts[0], "CREATE EXTENSION")
}

func TestApplyMigrations(t *testing.T) {
	dsn := os.Getenv("TEST_PG_DSN")
	if dsn == "" {
		t.Skip("TEST_PG_DSN not set")
	}
	ctx := context.Background()
	conn, err := Open(ctx, config.DatabaseConfig{DSN: dsn})
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, ApplyMigrations(ctx, conn))
	require.NoError(t, ApplyMigrations(ctx, conn))
}
