// Package dependency provides dependency injection for the application.
package dependency

import (
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/expense-ledger/backend/config"
	"github.com/expense-ledger/backend/internal/application/adapter"
	"github.com/expense-ledger/backend/internal/application/usecase/expense"
	"github.com/expense-ledger/backend/internal/application/usecase/ledgerstatus"
	"github.com/expense-ledger/backend/internal/application/usecase/reconciler"
	"github.com/expense-ledger/backend/internal/domain/valueobject"
	"github.com/expense-ledger/backend/internal/infra/server/router"
	"github.com/expense-ledger/backend/internal/integration/cache"
	"github.com/expense-ledger/backend/internal/integration/entrypoint/controller"
	"github.com/expense-ledger/backend/internal/integration/entrypoint/middleware"
	"github.com/expense-ledger/backend/internal/integration/events/kafka"
	"github.com/expense-ledger/backend/internal/integration/persistence"
	"github.com/expense-ledger/backend/internal/integration/snapshot"
)

// Injector holds all application dependencies.
type Injector struct {
	Config     *config.Config
	DB         *gorm.DB
	Redis      *redis.Client
	Router     *router.Router
	Reconciler *reconciler.Reconciler
	Source     *snapshot.Poller
	Events     kafka.PublisherCloser
	// RateCounter is set when bulk requests are counted in process and
	// needs periodic cleanup.
	RateCounter *middleware.MemoryCounter
}

// NewInjector creates a new dependency injector with all dependencies wired.
// redisClient may be nil; the view cache is then disabled and pagination
// sessions are kept in memory.
func NewInjector(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, dbHealthChecker func() bool) *Injector {
	// Create repositories
	expenseRepo := persistence.NewExpenseRepository(db)
	bookingRepo := persistence.NewBookingRepository(db)

	// Create adapters
	events := kafka.New(cfg.Kafka.Brokers, cfg.Kafka.Topic)

	var sessions adapter.PagerSessionStore
	var rateCounter middleware.Counter
	var memoryCounter *middleware.MemoryCounter
	reconcilerOpts := []reconciler.Option{reconciler.WithEventPublisher(events)}
	if redisClient != nil {
		sessions = cache.NewPagerSessionStore(redisClient, cfg.Ledger.SessionTTL)
		rateCounter = middleware.NewRedisCounter(redisClient)
		reconcilerOpts = append(reconcilerOpts, reconciler.WithViewCache(cache.NewViewCache(redisClient)))
	} else {
		sessions = cache.NewMemorySessionStore(cfg.Ledger.SessionTTL)
		memoryCounter = middleware.NewMemoryCounter()
		rateCounter = memoryCounter
	}

	// Create the reconciliation engine
	writeback := reconciler.NewWritebackDispatcher(expenseRepo, reconciler.WritebackConfig{
		Concurrency: cfg.Ledger.WritebackConcurrency,
		Timeout:     cfg.Ledger.WritebackTimeout,
	})
	source := snapshot.NewPoller(expenseRepo, snapshot.PollerConfig{
		PollInterval: cfg.Ledger.PollInterval,
		RetryPending: writeback.RetryPending,
	})
	engine := reconciler.NewReconciler(writeback, reconcilerOpts...)

	// Create expense use cases
	listExpensesUseCase := expense.NewListExpensesUseCase(engine, bookingRepo, expenseRepo, sessions, expense.ListExpensesConfig{
		Mode:     valueobject.PaginationMode(cfg.Ledger.PaginationMode),
		PageSize: cfg.Ledger.PageSize,
	})
	getStatsUseCase := expense.NewGetStatsUseCase(engine)
	exportExpensesUseCase := expense.NewExportExpensesUseCase(engine, bookingRepo)
	createExpenseUseCase := expense.NewCreateExpenseUseCase(expenseRepo, source)
	updatePaymentStatusUseCase := expense.NewUpdatePaymentStatusUseCase(expenseRepo, source)

	coordinator := expense.NewBulkMutationCoordinator(expenseRepo, cfg.Ledger.BulkConcurrency)
	bulkUpdateStatusUseCase := expense.NewBulkUpdateStatusUseCase(coordinator, source, events)
	bulkDeleteExpensesUseCase := expense.NewBulkDeleteExpensesUseCase(coordinator, source, events)

	// Create ledger status use cases
	getStatusUseCase := ledgerstatus.NewGetStatusUseCase(engine)
	refreshUseCase := ledgerstatus.NewRefreshUseCase(source)

	// Create controllers
	healthController := controller.NewHealthController(dbHealthChecker, engine.IsDegraded)

	expenseController := controller.NewExpenseController(
		listExpensesUseCase,
		getStatsUseCase,
		exportExpensesUseCase,
		createExpenseUseCase,
		updatePaymentStatusUseCase,
		bulkUpdateStatusUseCase,
		bulkDeleteExpensesUseCase,
	)

	ledgerController := controller.NewLedgerController(
		getStatusUseCase,
		refreshUseCase,
	)

	// Create middleware
	bulkRateLimiter := middleware.NewRateLimiterWithConfig(
		rateCounter,
		"bulk",
		cfg.Ledger.BulkRateLimit,
		cfg.Ledger.BulkRateWindow,
	)

	// Create router
	r := router.NewRouter(healthController, expenseController, ledgerController, bulkRateLimiter, cfg.Server.AllowedOrigins)

	return &Injector{
		Config:      cfg,
		DB:          db,
		Redis:       redisClient,
		Router:      r,
		Reconciler:  engine,
		Source:      source,
		Events:      events,
		RateCounter: memoryCounter,
	}
}
