package controller

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// HealthController handles health check endpoints.
type HealthController struct {
	dbHealthChecker func() bool
	degraded        func() bool
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status       string `json:"status"`
	Database     string `json:"database"`
	Subscription string `json:"subscription"`
	Timestamp    string `json:"timestamp"`
}

// NewHealthController creates a new health controller instance.
// degraded reports whether the ledger is serving without a live subscription.
func NewHealthController(dbHealthChecker func() bool, degraded func() bool) *HealthController {
	return &HealthController{
		dbHealthChecker: dbHealthChecker,
		degraded:        degraded,
	}
}

// Check handles GET /health requests.
// The endpoint always answers 200 while the process is up; a lost database or
// subscription is reported as "degraded" in the body.
func (h *HealthController) Check(c *gin.Context) {
	status := "ok"

	dbStatus := "disconnected"
	if h.dbHealthChecker != nil && h.dbHealthChecker() {
		dbStatus = "connected"
	} else {
		status = "degraded"
	}

	subscription := "live"
	if h.degraded != nil && h.degraded() {
		subscription = "unavailable"
		status = "degraded"
	}

	c.JSON(http.StatusOK, HealthResponse{
		Status:       status,
		Database:     dbStatus,
		Subscription: subscription,
		Timestamp:    time.Now().UTC().Format(time.RFC3339),
	})
}
