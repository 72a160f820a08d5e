// Package router sets up the HTTP routing for the application.
package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/expense-ledger/backend/internal/integration/entrypoint/controller"
	"github.com/expense-ledger/backend/internal/integration/entrypoint/middleware"
)

// Router holds the Gin engine and controller dependencies.
type Router struct {
	engine            *gin.Engine
	healthController  *controller.HealthController
	expenseController *controller.ExpenseController
	ledgerController  *controller.LedgerController
	bulkRateLimiter   *middleware.RateLimiter
	allowedOrigins    []string
}

// NewRouter creates a new router instance with all dependencies.
// expenseController and ledgerController may be nil when the backing store
// is unavailable; only the health route is served then.
func NewRouter(
	healthController *controller.HealthController,
	expenseController *controller.ExpenseController,
	ledgerController *controller.LedgerController,
	bulkRateLimiter *middleware.RateLimiter,
	allowedOrigins []string,
) *Router {
	return &Router{
		healthController:  healthController,
		expenseController: expenseController,
		ledgerController:  ledgerController,
		bulkRateLimiter:   bulkRateLimiter,
		allowedOrigins:    allowedOrigins,
	}
}

// Setup configures the Gin engine with all routes and middleware.
func (r *Router) Setup(environment string) *gin.Engine {
	if environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else if environment == "test" {
		gin.SetMode(gin.TestMode)
	}

	r.engine = gin.Default()
	r.engine.Use(cors.New(corsConfig(r.allowedOrigins)))

	r.setupHealthRoutes()
	r.setupAPIRoutes()

	return r.engine
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders: []string{"Content-Length", "Content-Disposition"},
		MaxAge:        12 * time.Hour,
	}
	for _, origin := range origins {
		if origin == "*" {
			cfg.AllowAllOrigins = true
			return cfg
		}
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	cfg.AllowCredentials = true
	return cfg
}

func (r *Router) setupHealthRoutes() {
	r.engine.GET("/health", r.healthController.Check)
}

func (r *Router) setupAPIRoutes() {
	v1 := r.engine.Group("/api/v1")
	{
		if r.expenseController != nil {
			expenses := v1.Group("/expenses")
			{
				expenses.GET("", r.expenseController.List)
				expenses.POST("", r.expenseController.Create)
				expenses.GET("/stats", r.expenseController.Stats)
				expenses.GET("/export", r.expenseController.Export)
				expenses.PATCH("/:id/payment-status", r.expenseController.UpdatePaymentStatus)

				bulk := expenses.Group("/bulk")
				if r.bulkRateLimiter != nil {
					bulk.Use(r.bulkRateLimiter.Middleware())
				}
				{
					bulk.POST("/status", r.expenseController.BulkUpdateStatus)
					bulk.POST("/delete", r.expenseController.BulkDelete)
				}
			}
		}

		if r.ledgerController != nil {
			ledger := v1.Group("/ledger")
			{
				ledger.GET("/status", r.ledgerController.Status)
				ledger.POST("/refresh", r.ledgerController.Refresh)
			}
		}
	}
}
