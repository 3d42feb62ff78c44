package testhelpers

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver for database/sql (migrations)
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"

	"github.com/datahub-inc/datahub-engine/pkg/database"
	"github.com/datahub-inc/datahub-engine/pkg/models"
)

// PostgresTestImage is the PostgreSQL image used for integration tests.
const PostgresTestImage = "postgres:16-alpine"

// TestDB holds a shared test database container and a pool connected to the
// control database, with control-plane migrations applied.
type TestDB struct {
	Container testcontainers.Container
	Control   *database.DB
	Host      string
	Port      string
}

var (
	sharedTestDB     *TestDB
	sharedTestDBOnce sync.Once
	sharedTestDBErr  error
)

// GetTestDB returns a shared PostgreSQL container for integration tests.
// The container is created once and reused across all tests in the run.
func GetTestDB(t *testing.T) *TestDB {
	t.Helper()

	if testing.Short() {
		t.Skip("Skipping integration test in short mode (requires Docker)")
	}

	sharedTestDBOnce.Do(func() {
		sharedTestDB, sharedTestDBErr = setupTestDB()
	})

	if sharedTestDBErr != nil {
		t.Fatalf("Failed to setup test database: %v", sharedTestDBErr)
	}

	return sharedTestDB
}

// ConnStrFor returns a connection string for the named database inside the
// test container.
func (d *TestDB) ConnStrFor(dbName string) string {
	return fmt.Sprintf("postgres://datahub:test_password@%s:%s/%s?sslmode=disable",
		d.Host, d.Port, dbName)
}

func setupTestDB() (*TestDB, error) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        PostgresTestImage,
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_DB":       "datahub_control",
			"POSTGRES_USER":     "datahub",
			"POSTGRES_PASSWORD": "test_password",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start test container: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get container host: %w", err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		return nil, fmt.Errorf("failed to get container port: %w", err)
	}

	db := &TestDB{Container: container, Host: host, Port: port.Port()}

	if err := migrateDatabase(db.ConnStrFor("datahub_control"), MigrationsDir("control")); err != nil {
		return nil, err
	}

	control, err := database.NewConnection(ctx, &database.PoolConfig{
		URL:            db.ConnStrFor("datahub_control"),
		MaxConnections: 5,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to control database: %w", err)
	}
	db.Control = control
	return db, nil
}

var (
	sharedPartition     *database.Partition
	sharedPartitionOnce sync.Once
	sharedPartitionErr  error
)

// GetPartition returns a shared migrated tenant partition for integration
// tests, bound to a throwaway tenant record.
func GetPartition(t *testing.T) *database.Partition {
	t.Helper()

	testDB := GetTestDB(t)

	sharedPartitionOnce.Do(func() {
		sharedPartition, sharedPartitionErr = setupPartition(testDB)
	})

	if sharedPartitionErr != nil {
		t.Fatalf("Failed to setup test partition: %v", sharedPartitionErr)
	}

	return sharedPartition
}

func setupPartition(testDB *TestDB) (*database.Partition, error) {
	ctx := context.Background()

	if _, err := testDB.Control.Exec(ctx, "CREATE DATABASE tenant_testwerk"); err != nil {
		return nil, fmt.Errorf("failed to create partition database: %w", err)
	}

	connStr := testDB.ConnStrFor("tenant_testwerk")
	if err := migrateDatabase(connStr, MigrationsDir("tenant")); err != nil {
		return nil, err
	}

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to partition: %w", err)
	}

	return &database.Partition{
		Name: "tenant_testwerk",
		Tenant: &models.Tenant{
			ID:              1,
			TenantID:        "testwerk",
			TenantName:      "testwerk",
			Domain:          "testwerk.example.com",
			DefaultLanguage: "de",
			Timezone:        "Europe/Berlin",
			IsActive:        true,
		},
		Pool: pool,
	}, nil
}

func migrateDatabase(connStr, migrationsDir string) error {
	sqlDB, err := sql.Open("pgx", connStr)
	if err != nil {
		return fmt.Errorf("failed to open sql connection: %w", err)
	}
	defer sqlDB.Close()

	if err := database.RunMigrations(sqlDB, migrationsDir, zap.NewNop()); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// MigrationsDir resolves the named migrations directory relative to the
// repository root, so integration tests work from any package directory.
func MigrationsDir(name string) string {
	_, file, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(file), "..", "..", "migrations", name)
}
