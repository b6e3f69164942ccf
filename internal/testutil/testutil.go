package testutil

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/modules/vault"
	"github.com/testcontainers/testcontainers-go/wait"

	"competency-assessment/internal/database"
	"competency-assessment/migrations"
)

// Postgres is a migrated throwaway database
type Postgres struct {
	Container *postgres.PostgresContainer
	DB        *sql.DB
	ConnStr   string
}

// Vault is a dev-mode Vault server
type Vault struct {
	Container  *vault.VaultContainer
	VaultAddr  string
	VaultToken string
}

// SetupPostgres starts PostgreSQL, applies the embedded migrations and registers cleanup
func SetupPostgres(t *testing.T) *Postgres {
	t.Helper()
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:18",
		postgres.WithDatabase("competency_test"),
		postgres.WithUsername("competency_test"),
		postgres.WithPassword("competency_test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		t.Fatalf("Failed to start PostgreSQL container: %v", err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Errorf("Failed to terminate PostgreSQL container: %v", err)
		}
	})

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("Failed to get connection string: %v", err)
	}

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		t.Fatalf("Failed to connect to database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := db.PingContext(ctx); err != nil {
		t.Fatalf("Failed to ping database: %v", err)
	}

	if err := database.NewMigrationExecutor(db).Run(ctx, migrations.Files); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	return &Postgres{Container: container, DB: db, ConnStr: connStr}
}

// SetupVault starts Vault in dev mode and registers cleanup
func SetupVault(t *testing.T) *Vault {
	t.Helper()
	ctx := context.Background()

	container, err := vault.Run(ctx,
		"hashicorp/vault:1.15",
		vault.WithToken("test-token"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("Vault server started!").
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		t.Fatalf("Failed to start Vault container: %v", err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Errorf("Failed to terminate Vault container: %v", err)
		}
	})

	addr, err := container.HttpHostAddress(ctx)
	if err != nil {
		t.Fatalf("Failed to get Vault address: %v", err)
	}

	return &Vault{
		Container:  container,
		VaultAddr:  fmt.Sprintf("http://%s", addr),
		VaultToken: "test-token",
	}
}
