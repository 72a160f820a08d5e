// Package steps provides step definitions for BDD integration tests.
package steps

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"time"

	"github.com/cucumber/godog"
	"github.com/gin-gonic/gin"

	"github.com/expense-ledger/backend/config"
	"github.com/expense-ledger/backend/internal/infra/dependency"
	"github.com/expense-ledger/backend/internal/integration/persistence"
	"github.com/expense-ledger/backend/internal/integration/persistence/model"
	"github.com/expense-ledger/backend/test/integration/mock"
)

// TestContext holds the test state for each scenario.
type TestContext struct {
	// HTTP
	server       *httptest.Server
	response     *http.Response
	responseBody []byte

	// Request building
	requestHeaders map[string]string

	// Values captured from earlier responses
	lastExpenseID string
	sessionID     string

	// Application
	db         *mock.Db
	injector   *dependency.Injector
	stopLedger context.CancelFunc
	ledgerDone chan struct{}

	cfg *config.Config
}

// contextKey is used to store TestContext in context.Context.
type contextKey struct{}

// GetTestContext retrieves the TestContext from context.
func GetTestContext(ctx context.Context) *TestContext {
	if tc, ok := ctx.Value(contextKey{}).(*TestContext); ok {
		return tc
	}
	return nil
}

// SetTestContext stores the TestContext in context.
func SetTestContext(ctx context.Context, tc *TestContext) context.Context {
	return context.WithValue(ctx, contextKey{}, tc)
}

// InitializeTestSuite sets up resources before any scenarios run.
func InitializeTestSuite(ctx *godog.TestSuiteContext) {
	ctx.BeforeSuite(func() {
		gin.SetMode(gin.TestMode)
		// Disables the bulk rate limiter.
		_ = os.Setenv("ENV", "test")
	})
}

// testConfig polls rarely so that only explicit refreshes push snapshots and
// every scenario controls when the ledger catches up.
func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Environment:    "test",
			AllowedOrigins: []string{"*"},
		},
		Database: config.DatabaseConfig{Driver: "sqlite"},
		Ledger: config.LedgerConfig{
			PollInterval:         time.Hour,
			WritebackConcurrency: 2,
			WritebackTimeout:     5 * time.Second,
			BulkConcurrency:      4,
			PaginationMode:       "client",
			PageSize:             2,
			SessionTTL:           time.Minute,
			BulkRateLimit:        100,
			BulkRateWindow:       time.Minute,
		},
	}
}

func openLedgerStore() *mock.Db {
	return mock.NewDb("expense_ledger", map[string]any{
		"expenses":            &model.ExpenseModel{},
		"bookings":            &model.BookingModel{},
		"expense_corrections": &model.ExpenseCorrectionModel{},
	}, persistence.Migrate)
}

// InitializeScenario registers all step definitions.
func InitializeScenario(ctx *godog.ScenarioContext) {
	ctx.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		tc := &TestContext{
			requestHeaders: make(map[string]string),
			cfg:            testConfig(),
			db:             openLedgerStore(),
		}
		if err := tc.db.ClearDB(); err != nil {
			return ctx, fmt.Errorf("failed to clear database: %w", err)
		}

		redisClient := mock.NewRedis()
		if err := mock.ClearRedis(redisClient); err != nil {
			return ctx, fmt.Errorf("failed to clear redis: %w", err)
		}

		tc.injector = dependency.NewInjector(tc.cfg, tc.db.DbConn, redisClient, func() bool {
			return tc.db.DbConn != nil
		})
		tc.server = httptest.NewServer(tc.injector.Router.Setup(tc.cfg.Server.Environment))

		return SetTestContext(ctx, tc), nil
	})

	ctx.After(func(ctx context.Context, sc *godog.Scenario, err error) (context.Context, error) {
		tc := GetTestContext(ctx)
		if tc == nil {
			return ctx, nil
		}
		tc.shutdownLedger()
		if tc.server != nil {
			tc.server.Close()
		}
		return ctx, nil
	})

	registerAPISteps(ctx)
	registerResponseSteps(ctx)
	registerLedgerSteps(ctx)
}

// shutdownLedger stops the reconciler and lets queued write-backs finish so
// they cannot leak into the next scenario's store.
func (tc *TestContext) shutdownLedger() {
	if tc.stopLedger != nil {
		tc.stopLedger()
		<-tc.ledgerDone
		tc.stopLedger = nil
	}
	if tc.injector == nil {
		return
	}
	deadline := time.Now().Add(5 * time.Second)
	for tc.injector.Reconciler.Status().PendingWritebacks > 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
}
