package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// TestDB is a migrated postgres running in a container for the lifetime of a test
type TestDB struct {
	DB *sql.DB
}

// migrationsDir walks up from the working directory to the module root
func migrationsDir() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return filepath.Join(dir, "db", "migrations"), nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.New("go.mod not found above the working directory")
		}
		dir = parent
	}
}

// NewTestDB starts postgres, applies db/migrations and terminates everything on test cleanup.
// Skipped with -short.
func NewTestDB(t *testing.T) *TestDB {
	t.Helper()
	if testing.Short() {
		t.Skip("postgres integration test skipped in short mode")
	}
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "coordinator",
				"POSTGRES_PASSWORD": "coordinator",
				"POSTGRES_DB":       "uploads",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("could not start postgres container: %v", err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("failed to terminate postgres container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("postgres host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("postgres port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://coordinator:coordinator@%s:%s/uploads?sslmode=disable", host, port.Port())

	dir, err := migrationsDir()
	if err != nil {
		t.Fatalf("locate migrations: %v", err)
	}
	source := (&url.URL{Scheme: "file", Path: filepath.ToSlash(dir)}).String()

	m, err := migrate.New(source, dsn)
	if err != nil {
		t.Fatalf("init migrations from %s: %v", source, err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		t.Fatalf("apply migrations: %v", err)
	}
	if srcErr, dbErr := m.Close(); srcErr != nil || dbErr != nil {
		t.Logf("close migrate: source=%v db=%v", srcErr, dbErr)
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		t.Fatalf("open postgres: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return &TestDB{DB: db}
}

// Reset empties the session table between subtests
func (d *TestDB) Reset(t *testing.T) {
	t.Helper()
	if _, err := d.DB.Exec(`TRUNCATE TABLE upload_session`); err != nil {
		t.Fatalf("truncate upload_session: %v", err)
	}
}
