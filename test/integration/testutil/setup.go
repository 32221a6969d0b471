//go:build integration

package testutil

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rentlover/platform/internal/app"
	"github.com/rentlover/platform/internal/auth"
	"github.com/rentlover/platform/internal/catalog"
	"github.com/rentlover/platform/internal/directory"
	"github.com/rentlover/platform/internal/domain"
	"github.com/rentlover/platform/internal/infra"
	"github.com/rentlover/platform/internal/projection"
	"github.com/rentlover/platform/internal/repository"
)

const (
	TestJWTSecret         = "integration-test-secret-at-least-32-chars"
	TestMidtransServerKey = "SB-Mid-server-integration"
	TestDBHost            = "localhost"
	TestDBPort            = 5435
	TestDBUser            = "rentlover"
	TestDBPass            = "rentlover"
	TestDBName            = "rentlover_test"
)

// TestEnv holds all resources for an integration test.
type TestEnv struct {
	Server    *httptest.Server
	Pool      *pgxpool.Pool
	JWTMgr    *auth.JWTManager
	Directory *directory.Directory
	Hub       *infra.WSHub
	Notifier  *RecordingNotifier
	t         *testing.T
}

// RecordingNotifier captures approval notices instead of sending them.
type RecordingNotifier struct {
	mu      sync.Mutex
	notices []domain.ApprovalNotice
	Err     error
}

func (n *RecordingNotifier) NotifyApproval(_ context.Context, notice domain.ApprovalNotice) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notices = append(n.notices, notice)
	return n.Err
}

// Notices returns a copy of everything sent so far.
func (n *RecordingNotifier) Notices() []domain.ApprovalNotice {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]domain.ApprovalNotice(nil), n.notices...)
}

var (
	sharedPool *pgxpool.Pool
	poolOnce   sync.Once
	poolErr    error
)

func testDSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		TestDBUser, TestDBPass, TestDBHost, TestDBPort, TestDBName)
}

func bootstrapDSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		TestDBUser, TestDBPass, TestDBHost, TestDBPort, "rentlover")
}

func ensureTestDB() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	bPool, err := pgxpool.New(ctx, bootstrapDSN())
	if err != nil {
		return fmt.Errorf("connect bootstrap db: %w", err)
	}
	defer bPool.Close()

	var exists bool
	err = bPool.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM pg_database WHERE datname = $1)", TestDBName).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check db exists: %w", err)
	}

	if !exists {
		if _, err = bPool.Exec(ctx, fmt.Sprintf("CREATE DATABASE %s", TestDBName)); err != nil {
			return fmt.Errorf("create test db: %w", err)
		}
	}
	return nil
}

func runMigrations() error {
	m, err := infra.NewMigrator(testDSN(), filepath.Join(findProjectRoot(), "db", "migrations"))
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate up: %w", err)
	}
	return nil
}

func findProjectRoot() string {
	dir, _ := os.Getwd()
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "."
		}
		dir = parent
	}
}

func getSharedPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	poolOnce.Do(func() {
		if err := ensureTestDB(); err != nil {
			poolErr = err
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		poolCfg, err := pgxpool.ParseConfig(testDSN())
		if err != nil {
			poolErr = fmt.Errorf("parse pool config: %w", err)
			return
		}
		poolCfg.MaxConns = 10
		poolCfg.MinConns = 1

		sharedPool, err = pgxpool.NewWithConfig(ctx, poolCfg)
		if err != nil {
			poolErr = fmt.Errorf("create pool: %w", err)
			return
		}

		if err := runMigrations(); err != nil {
			poolErr = fmt.Errorf("run migrations: %w", err)
			sharedPool.Close()
			sharedPool = nil
			return
		}
	})

	if poolErr != nil {
		t.Fatalf("failed to initialize test pool: %v", poolErr)
	}
	return sharedPool
}

// NewTestEnv creates a test environment with an httptest.Server backed by the real router and test DB.
func NewTestEnv(t *testing.T) *TestEnv {
	t.Helper()

	pool := getSharedPool(t)

	jwtMgr := auth.NewJWTManager(TestJWTSecret, 24*time.Hour, 8*time.Hour)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if os.Getenv("TEST_VERBOSE") != "" {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}

	source := repository.NewPgIdentityStore(pool, repository.NewPgAccountRepository(),
		repository.NewPgProfileRepository(), repository.NewOutboxRepository())
	dir := directory.New(source, projection.NewInMemoryStore(), time.Minute, logger)
	hub := infra.NewWSHub(logger, nil)
	notifier := &RecordingNotifier{}

	router := app.NewRouter(app.RouterDeps{
		Pool:              pool,
		JWTMgr:            jwtMgr,
		Logger:            logger,
		Catalog:           catalog.Default(),
		Directory:         dir,
		Hub:               hub,
		Notifier:          notifier,
		MidtransServerKey: TestMidtransServerKey,
		CORSOrigins:       "*",
	})

	server := httptest.NewServer(router)

	env := &TestEnv{
		Server:    server,
		Pool:      pool,
		JWTMgr:    jwtMgr,
		Directory: dir,
		Hub:       hub,
		Notifier:  notifier,
		t:         t,
	}

	t.Cleanup(func() {
		server.Close()
		hub.Shutdown(context.Background())
		env.CleanAll()
	})

	// Clean before test to ensure isolation
	env.CleanAll()
	return env
}
