// Package integration runs the billing stack against real PostgreSQL and
// Redis containers. Every test is skipped with -short.
package integration

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/freelance/backend/internal/infrastructure/migration"
	"github.com/freelance/backend/internal/infrastructure/persistence/models"
	"github.com/freelance/backend/migrations"
	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	// One postgres container per package run; tests isolate by user id
	sharedPostgres    testcontainers.Container
	sharedPostgresDSN string
	sharedPostgresMu  sync.Mutex
)

// TerminateShared stops the shared postgres container
func TerminateShared() {
	sharedPostgresMu.Lock()
	defer sharedPostgresMu.Unlock()
	if sharedPostgres != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		_ = sharedPostgres.Terminate(ctx)
		sharedPostgres = nil
	}
}

// TestDB is a migrated database connection
type TestDB struct {
	DB  *gorm.DB
	DSN string
	t   *testing.T
}

func skipShort(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("integration test skipped with -short")
	}
}

// NewTestDB connects to the shared container, starting and migrating it on
// first use.
func NewTestDB(t *testing.T) *TestDB {
	t.Helper()
	skipShort(t)

	sharedPostgresMu.Lock()
	defer sharedPostgresMu.Unlock()

	ctx := context.Background()
	if sharedPostgres == nil {
		container, err := tcpostgres.Run(ctx,
			"postgres:16-alpine",
			tcpostgres.WithDatabase("freelance_test"),
			tcpostgres.WithUsername("postgres"),
			tcpostgres.WithPassword("postgres"),
			testcontainers.WithWaitStrategy(
				wait.ForLog("database system is ready to accept connections").
					WithOccurrence(2).
					WithStartupTimeout(60*time.Second)),
		)
		require.NoError(t, err, "Failed to start PostgreSQL container")

		dsn, err := container.ConnectionString(ctx, "sslmode=disable")
		require.NoError(t, err, "Failed to get connection string")

		runMigrations(t, dsn)
		sharedPostgres = container
		sharedPostgresDSN = dsn
	}

	db := connect(t, sharedPostgresDSN)
	return &TestDB{DB: db, DSN: sharedPostgresDSN, t: t}
}

// runMigrations applies the embedded migrations over a throwaway connection
func runMigrations(t *testing.T, dsn string) {
	t.Helper()
	conn, err := sql.Open("postgres", dsn)
	require.NoError(t, err)
	m, err := migration.New(conn, migration.Source{FS: migrations.FS}, nil)
	require.NoError(t, err, "Failed to create migrator")
	defer func() { _ = m.Close() }()
	require.NoError(t, m.Up(), "Failed to run migrations")
}

func connect(t *testing.T, dsn string) *gorm.DB {
	t.Helper()
	gormConfig := &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
		TranslateError:         true,
	}
	if os.Getenv("TEST_DB_DEBUG") != "" {
		gormConfig.Logger = logger.Default.LogMode(logger.Info)
	}

	db, err := gorm.Open(gormpostgres.Open(dsn), gormConfig)
	require.NoError(t, err, "Failed to connect to database")

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetMaxIdleConns(5)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

// Owner is a seeded user with one client
type Owner struct {
	UserID   uuid.UUID
	ClientID uuid.UUID
}

// SeedOwner inserts a fresh user and client
func (tdb *TestDB) SeedOwner() Owner {
	tdb.t.Helper()
	o := Owner{UserID: uuid.New(), ClientID: uuid.New()}
	now := time.Now().UTC()
	company := "Client " + o.ClientID.String()[:8]
	require.NoError(tdb.t, tdb.DB.Create(&models.UserModel{
		ID: o.UserID, Email: fmt.Sprintf("%s@example.com", o.UserID), FirstName: "Test", LastName: "Owner",
		CreatedAt: now, UpdatedAt: now,
	}).Error)
	require.NoError(tdb.t, tdb.DB.Create(&models.ClientModel{
		ID: o.ClientID, UserID: o.UserID, CompanyName: &company, ContactName: "Contact",
		CreatedAt: now, UpdatedAt: now,
	}).Error)
	return o
}

// NewRedis starts a redis container and returns a client on it
func NewRedis(t *testing.T) *redis.Client {
	t.Helper()
	skipShort(t)

	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err, "Failed to start Redis container")
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("Warning: Failed to terminate redis container: %v", err)
		}
	})

	endpoint, err := container.Endpoint(ctx, "")
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: endpoint})
	t.Cleanup(func() { _ = client.Close() })
	require.NoError(t, client.Ping(ctx).Err())
	return client
}
