package controller

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/expense-ledger/backend/internal/domain/entity"
	"github.com/expense-ledger/backend/internal/domain/valueobject"
)

// parseSelector reads the category tab. Unknown values are rejected.
func parseSelector(ctx *gin.Context) (valueobject.CategorySelector, error) {
	raw := strings.ToLower(strings.TrimSpace(ctx.Query("category")))
	if raw == "" {
		return valueobject.CategorySelectorAll, nil
	}
	selector := valueobject.CategorySelector(raw)
	if _, ok := selector.Category(); !ok && selector != valueobject.CategorySelectorAll {
		return "", fmt.Errorf("unknown category %q", raw)
	}
	return selector, nil
}

// parseFilterSpec reads filter and sort query parameters.
func parseFilterSpec(ctx *gin.Context) (valueobject.FilterSpec, error) {
	spec := valueobject.DefaultFilterSpec()
	spec.Query = strings.TrimSpace(ctx.Query("q"))

	var err error
	if spec.DateFrom, err = queryDate(ctx, "date_from"); err != nil {
		return spec, err
	}
	if spec.DateTo, err = queryDate(ctx, "date_to"); err != nil {
		return spec, err
	}
	if spec.MinAmount, err = queryDecimal(ctx, "min_amount"); err != nil {
		return spec, err
	}
	if spec.MaxAmount, err = queryDecimal(ctx, "max_amount"); err != nil {
		return spec, err
	}
	if spec.HasDocument, err = queryBool(ctx, "has_document"); err != nil {
		return spec, err
	}
	if spec.HasBooking, err = queryBool(ctx, "has_booking"); err != nil {
		return spec, err
	}

	if s := ctx.Query("payment_status"); s != "" {
		status := entity.PaymentStatus(strings.ToLower(s))
		if !status.IsValid() {
			return spec, fmt.Errorf("unknown payment status %q", s)
		}
		spec.PaymentStatus = &status
	}

	if labels := ctx.Query("labels"); labels != "" {
		for _, label := range strings.Split(labels, ",") {
			if label = strings.TrimSpace(label); label != "" {
				spec.CategoryLabels = append(spec.CategoryLabels, label)
			}
		}
	}

	if s := ctx.Query("sort"); s != "" {
		key := valueobject.SortKey(s)
		switch key {
		case valueobject.SortByDate, valueobject.SortByAmount, valueobject.SortByLabel:
			spec.SortKey = key
		default:
			return spec, fmt.Errorf("unknown sort key %q", s)
		}
	}
	if s := ctx.Query("dir"); s != "" {
		dir := valueobject.SortDirection(s)
		if dir != valueobject.SortAsc && dir != valueobject.SortDesc {
			return spec, fmt.Errorf("unknown sort direction %q", s)
		}
		spec.SortDirection = dir
	}

	return spec, nil
}

func queryDate(ctx *gin.Context, name string) (*time.Time, error) {
	s := ctx.Query(name)
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, fmt.Errorf("%s must be YYYY-MM-DD", name)
	}
	return &t, nil
}

func queryDecimal(ctx *gin.Context, name string) (*decimal.Decimal, error) {
	s := ctx.Query(name)
	if s == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, fmt.Errorf("%s must be a number", name)
	}
	return &d, nil
}

func queryBool(ctx *gin.Context, name string) (*bool, error) {
	s := ctx.Query(name)
	if s == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return nil, fmt.Errorf("%s must be true or false", name)
	}
	return &b, nil
}
