// Package controller implements HTTP handlers for the API endpoints.
package controller

import (
	"encoding/csv"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/expense-ledger/backend/internal/application/usecase/expense"
	"github.com/expense-ledger/backend/internal/domain/entity"
	domainerror "github.com/expense-ledger/backend/internal/domain/error"
	"github.com/expense-ledger/backend/internal/domain/valueobject"
	"github.com/expense-ledger/backend/internal/integration/entrypoint/dto"
)

// sessionHeader carries the pagination session when it is not in the query.
const sessionHeader = "X-Ledger-Session"

// ExpenseController handles expense endpoints.
type ExpenseController struct {
	listUseCase         *expense.ListExpensesUseCase
	statsUseCase        *expense.GetStatsUseCase
	exportUseCase       *expense.ExportExpensesUseCase
	createUseCase       *expense.CreateExpenseUseCase
	updateStatusUseCase *expense.UpdatePaymentStatusUseCase
	bulkStatusUseCase   *expense.BulkUpdateStatusUseCase
	bulkDeleteUseCase   *expense.BulkDeleteExpensesUseCase
}

// NewExpenseController creates a new expense controller instance.
func NewExpenseController(
	listUseCase *expense.ListExpensesUseCase,
	statsUseCase *expense.GetStatsUseCase,
	exportUseCase *expense.ExportExpensesUseCase,
	createUseCase *expense.CreateExpenseUseCase,
	updateStatusUseCase *expense.UpdatePaymentStatusUseCase,
	bulkStatusUseCase *expense.BulkUpdateStatusUseCase,
	bulkDeleteUseCase *expense.BulkDeleteExpensesUseCase,
) *ExpenseController {
	return &ExpenseController{
		listUseCase:         listUseCase,
		statsUseCase:        statsUseCase,
		exportUseCase:       exportUseCase,
		createUseCase:       createUseCase,
		updateStatusUseCase: updateStatusUseCase,
		bulkStatusUseCase:   bulkStatusUseCase,
		bulkDeleteUseCase:   bulkDeleteUseCase,
	}
}

// List handles GET /expenses requests.
func (c *ExpenseController) List(ctx *gin.Context) {
	selector, spec, ok := c.bindFilter(ctx)
	if !ok {
		return
	}

	sessionID := ctx.Query("session_id")
	if sessionID == "" {
		sessionID = ctx.GetHeader(sessionHeader)
	}

	input := expense.ListExpensesInput{
		SessionID: sessionID,
		Mode:      valueobject.PaginationMode(ctx.Query("mode")),
		Selector:  selector,
		Filter:    spec,
	}
	if pageStr := ctx.Query("page"); pageStr != "" {
		page, err := strconv.Atoi(pageStr)
		if err != nil {
			ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{
				Error: "page must be a number",
				Code:  string(domainerror.ErrCodeInvalidPage),
			})
			return
		}
		input.Page = page
	}

	output, err := c.listUseCase.Execute(ctx.Request.Context(), input)
	if err != nil {
		handleError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.ToExpenseListResponse(output))
}

// Stats handles GET /expenses/stats requests.
func (c *ExpenseController) Stats(ctx *gin.Context) {
	output, err := c.statsUseCase.Execute(ctx.Request.Context())
	if err != nil {
		handleError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.ToStatsResponse(output))
}

// Export handles GET /expenses/export requests. format=csv streams a CSV
// attachment; anything else returns JSON.
func (c *ExpenseController) Export(ctx *gin.Context) {
	selector, spec, ok := c.bindFilter(ctx)
	if !ok {
		return
	}

	output, err := c.exportUseCase.Execute(ctx.Request.Context(), expense.ExportExpensesInput{
		Selector: selector,
		Filter:   spec,
	})
	if err != nil {
		handleError(ctx, err)
		return
	}

	rows := make([]dto.ExportRowResponse, len(output.Rows))
	for i, row := range output.Rows {
		rows[i] = dto.ToExportRowResponse(row)
	}

	if ctx.Query("format") != "csv" {
		ctx.JSON(http.StatusOK, dto.ExportResponse{Rows: rows, ViewSequence: output.ViewSequence})
		return
	}

	ctx.Header("Content-Type", "text/csv; charset=utf-8")
	ctx.Header("Content-Disposition", `attachment; filename="expenses-`+time.Now().UTC().Format("20060102")+`.csv"`)
	ctx.Status(http.StatusOK)

	w := csv.NewWriter(ctx.Writer)
	_ = w.Write(dto.ExportColumns)
	for _, row := range rows {
		_ = w.Write(row.Record())
	}
	w.Flush()
}

// Create handles POST /expenses requests.
func (c *ExpenseController) Create(ctx *gin.Context) {
	var req dto.CreateExpenseRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error: "Invalid request body: " + err.Error(),
			Code:  string(domainerror.ErrCodeMissingFields),
		})
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error: "Invalid amount",
			Code:  string(domainerror.ErrCodeMissingFields),
		})
		return
	}

	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error: "Invalid date format. Use YYYY-MM-DD",
			Code:  string(domainerror.ErrCodeInvalidDate),
		})
		return
	}

	output, err := c.createUseCase.Execute(ctx.Request.Context(), expense.CreateExpenseInput{
		Category:      req.Category,
		Amount:        amount,
		Date:          date,
		PaymentStatus: req.PaymentStatus,
		ParentID:      req.ParentID,
		BookingID:     req.BookingID,
		DocumentRef:   req.DocumentRef,
		Description:   req.Description,
		CategoryLabel: req.CategoryLabel,
	})
	if err != nil {
		handleError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, dto.ToExpenseResponse(&output.Expense))
}

// UpdatePaymentStatus handles PATCH /expenses/:id/payment-status requests.
func (c *ExpenseController) UpdatePaymentStatus(ctx *gin.Context) {
	var req dto.UpdatePaymentStatusRequest
	if ctx.Request.ContentLength != 0 {
		if err := ctx.ShouldBindJSON(&req); err != nil {
			ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{
				Error: "Invalid request body: " + err.Error(),
				Code:  string(domainerror.ErrCodeInvalidPaymentStatus),
			})
			return
		}
	}

	input := expense.UpdatePaymentStatusInput{ExpenseID: ctx.Param("id")}
	if req.Status != nil {
		status := entity.PaymentStatus(*req.Status)
		input.Status = &status
	}

	output, err := c.updateStatusUseCase.Execute(ctx.Request.Context(), input)
	if err != nil {
		handleError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.PaymentStatusResponse{
		ID:       output.ExpenseID,
		Previous: string(output.Previous),
		Status:   string(output.Status),
	})
}

// BulkUpdateStatus handles POST /expenses/bulk/status requests.
func (c *ExpenseController) BulkUpdateStatus(ctx *gin.Context) {
	var req dto.BulkStatusRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error: "Invalid request body: " + err.Error(),
			Code:  string(domainerror.ErrCodeEmptyExpenseIDs),
		})
		return
	}

	output, err := c.bulkStatusUseCase.Execute(ctx.Request.Context(), expense.BulkUpdateStatusInput{
		ExpenseIDs: req.IDs,
		Status:     entity.PaymentStatus(req.Status),
	})
	if err != nil {
		handleError(ctx, err)
		return
	}

	ctx.JSON(bulkStatusCode(output), dto.ToBulkMutationResponse(output))
}

// BulkDelete handles POST /expenses/bulk/delete requests.
func (c *ExpenseController) BulkDelete(ctx *gin.Context) {
	var req dto.BulkDeleteRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error: "Invalid request body: " + err.Error(),
			Code:  string(domainerror.ErrCodeEmptyExpenseIDs),
		})
		return
	}

	output, err := c.bulkDeleteUseCase.Execute(ctx.Request.Context(), expense.BulkDeleteExpensesInput{
		ExpenseIDs: req.IDs,
	})
	if err != nil {
		handleError(ctx, err)
		return
	}

	ctx.JSON(bulkStatusCode(output), dto.ToBulkMutationResponse(output))
}

// bindFilter parses the selector and filter, writing a 400 on failure.
func (c *ExpenseController) bindFilter(ctx *gin.Context) (valueobject.CategorySelector, valueobject.FilterSpec, bool) {
	selector, err := parseSelector(ctx)
	if err == nil {
		var spec valueobject.FilterSpec
		if spec, err = parseFilterSpec(ctx); err == nil {
			return selector, spec, true
		}
	}
	ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{
		Error: err.Error(),
		Code:  string(domainerror.ErrCodeInvalidFilter),
	})
	return "", valueobject.FilterSpec{}, false
}

// bulkStatusCode is 200 when every ID succeeded and 207 when some failed.
func bulkStatusCode(output *expense.BulkMutationOutput) int {
	if len(output.Failed) > 0 {
		return http.StatusMultiStatus
	}
	return http.StatusOK
}
