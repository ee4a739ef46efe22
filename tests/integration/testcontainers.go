// Package integration runs the ledger end to end against a real PostgreSQL
// instance. These tests require Docker and are skipped in -short mode.
package integration

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	soroban "github.com/tropicaldog17/soroban"
	"github.com/tropicaldog17/soroban/internal/config"
	"github.com/tropicaldog17/soroban/migrations"
)

// setupLedger starts a PostgreSQL container, migrates the schema to head and
// opens a ledger over it. Everything is torn down through t.Cleanup.
func setupLedger(t *testing.T) *soroban.Ledger {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container-backed test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 180*time.Second)
	defer cancel()

	container, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("ledger_test"),
		postgres.WithUsername("ledger_user"),
		postgres.WithPassword("ledger_password"),
		testcontainers.WithWaitStrategy(
			wait.ForListeningPort("5432/tcp").WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("failed to start PostgreSQL container: %v", err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("failed to get container host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("failed to get container port: %v", err)
	}

	databaseURL := fmt.Sprintf("postgresql://ledger_user:ledger_password@%s:%s/ledger_test?sslmode=disable",
		host, port.Port())

	runner, err := migrations.NewRunner(databaseURL, nil)
	if err != nil {
		t.Fatalf("failed to open migration engine: %v", err)
	}
	if err := runner.UpgradeToHead(ctx); err != nil {
		runner.Close()
		t.Fatalf("failed to migrate schema: %v", err)
	}
	if err := runner.Close(); err != nil {
		t.Fatalf("failed to close migration engine: %v", err)
	}

	settings := config.Defaults()
	settings.DatabaseURL = databaseURL

	ledger, err := soroban.Open(settings, nil, nil)
	if err != nil {
		t.Fatalf("failed to open ledger: %v", err)
	}
	t.Cleanup(func() { ledger.Close() })
	return ledger
}
