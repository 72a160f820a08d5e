package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/expense-ledger/backend/internal/application/usecase/ledgerstatus"
	"github.com/expense-ledger/backend/internal/integration/entrypoint/dto"
)

// LedgerController handles reconciler status endpoints.
type LedgerController struct {
	statusUseCase  *ledgerstatus.GetStatusUseCase
	refreshUseCase *ledgerstatus.RefreshUseCase
}

// NewLedgerController creates a new ledger controller instance.
func NewLedgerController(
	statusUseCase *ledgerstatus.GetStatusUseCase,
	refreshUseCase *ledgerstatus.RefreshUseCase,
) *LedgerController {
	return &LedgerController{
		statusUseCase:  statusUseCase,
		refreshUseCase: refreshUseCase,
	}
}

// Status handles GET /ledger/status requests.
func (c *LedgerController) Status(ctx *gin.Context) {
	output := c.statusUseCase.Execute(ctx.Request.Context())
	ctx.JSON(http.StatusOK, dto.ToLedgerStatusResponse(output))
}

// Refresh handles POST /ledger/refresh requests. The refreshed view is
// published asynchronously, so the response is 202.
func (c *LedgerController) Refresh(ctx *gin.Context) {
	c.refreshUseCase.Execute(ctx.Request.Context())
	ctx.Status(http.StatusAccepted)
}
