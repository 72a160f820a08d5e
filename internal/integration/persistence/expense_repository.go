// Package persistence implements repository interfaces for database operations.
package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/expense-ledger/backend/internal/application/adapter"
	"github.com/expense-ledger/backend/internal/domain/entity"
	domainerror "github.com/expense-ledger/backend/internal/domain/error"
	"github.com/expense-ledger/backend/internal/domain/valueobject"
	"github.com/expense-ledger/backend/internal/integration/persistence/model"
)

// "timestamp" is a keyword in Postgres and is always quoted.
const (
	orderNewestFirst = `"timestamp" DESC, id DESC`
	topLevel         = "(parent_id IS NULL OR parent_id = '')"
	// rootsOnly also admits orphans: rows whose parent is missing or is
	// itself a sub-entry are listed as roots, exactly as the linker does.
	rootsOnly = "(" + topLevel + " OR parent_id NOT IN " +
		"(SELECT p.id FROM expenses p WHERE p.parent_id IS NULL OR p.parent_id = ''))"
	hasBooking = "(booking_id IS NOT NULL AND booking_id <> '')"
	// familyBooking holds when the row or, for a top-level row, one of its
	// sub-entries carries a booking; the whole family is then client.
	familyBooking = "(" + hasBooking + " OR (" + topLevel + " AND EXISTS " +
		"(SELECT 1 FROM expenses c WHERE c.parent_id = expenses.id AND c.booking_id IS NOT NULL AND c.booking_id <> '')))"
	normalizedType = "LOWER(TRIM(type))"
)

// expenseRepository implements the adapter.ExpenseRepository interface.
type expenseRepository struct {
	db  *gorm.DB
	now func() time.Time
}

// NewExpenseRepository creates a new expense repository instance.
func NewExpenseRepository(db *gorm.DB) adapter.ExpenseRepository {
	return &expenseRepository{
		db:  db,
		now: time.Now,
	}
}

// FindAll retrieves every expense, newest first.
func (r *expenseRepository) FindAll(ctx context.Context) ([]entity.RawExpense, error) {
	var models []model.ExpenseModel
	result := r.db.WithContext(ctx).Order(orderNewestFirst).Find(&models)
	if result.Error != nil {
		return nil, result.Error
	}
	return toRaw(models), nil
}

// FindByID retrieves an expense by its ID.
func (r *expenseRepository) FindByID(ctx context.Context, id string) (*entity.RawExpense, error) {
	var m model.ExpenseModel
	result := r.db.WithContext(ctx).Where("id = ?", id).First(&m)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, domainerror.ErrExpenseNotFound
		}
		return nil, result.Error
	}
	raw := m.ToRaw()
	return &raw, nil
}

// FindChildren retrieves the sub-entries of parentID.
func (r *expenseRepository) FindChildren(ctx context.Context, parentID string) ([]entity.RawExpense, error) {
	var models []model.ExpenseModel
	result := r.db.WithContext(ctx).
		Where("parent_id = ?", parentID).
		Order(orderNewestFirst).
		Find(&models)
	if result.Error != nil {
		return nil, result.Error
	}
	return toRaw(models), nil
}

// Create inserts a new expense.
func (r *expenseRepository) Create(ctx context.Context, expense *entity.Expense) error {
	m := model.ExpenseFromEntity(expense)
	m.UpdatedAt = r.now().UTC()
	return r.db.WithContext(ctx).Create(m).Error
}

// UpdatePaymentStatus sets the payment status of one expense.
func (r *expenseRepository) UpdatePaymentStatus(ctx context.Context, id string, status entity.PaymentStatus) error {
	result := r.db.WithContext(ctx).
		Model(&model.ExpenseModel{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"payment_status": string(status),
			"updated_at":     r.now().UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerror.ErrExpenseNotFound
	}
	return nil
}

// Delete removes one expense.
func (r *expenseRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.ExpenseModel{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerror.ErrExpenseNotFound
	}
	return nil
}

// ClearParent detaches a sub-entry from its parent.
func (r *expenseRepository) ClearParent(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Model(&model.ExpenseModel{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"parent_id":  nil,
			"updated_at": r.now().UTC(),
		}).Error
}

// Ping verifies the database is reachable.
func (r *expenseRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// ApplyCorrection writes a corrected category and records it in the audit
// trail. A row already holding the target category is left untouched.
func (r *expenseRepository) ApplyCorrection(ctx context.Context, correction valueobject.Correction) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var m model.ExpenseModel
		if err := tx.Where("id = ?", correction.ExpenseID).First(&m).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domainerror.ErrExpenseNotFound
			}
			return err
		}
		if m.Type != nil && *m.Type == string(correction.To) {
			return nil
		}

		now := r.now().UTC()
		if err := tx.Model(&model.ExpenseModel{}).
			Where("id = ?", correction.ExpenseID).
			Updates(map[string]interface{}{
				"type":       string(correction.To),
				"updated_at": now,
			}).Error; err != nil {
			return fmt.Errorf("failed to update category: %w", err)
		}

		if err := tx.Create(model.ExpenseCorrectionFromValue(correction, now)).Error; err != nil {
			return fmt.Errorf("failed to record correction: %w", err)
		}
		return nil
	})
}

// FetchRootPage returns up to query.Limit roots strictly after query.After,
// newest first. Orphans count as roots. The category predicate mirrors
// reconciliation: a booking anywhere in the family means client and anything
// unrecognised counts as company.
func (r *expenseRepository) FetchRootPage(ctx context.Context, query valueobject.PageQuery) ([]entity.RawExpense, error) {
	q := r.db.WithContext(ctx).Model(&model.ExpenseModel{}).Where(rootsOnly)

	if query.Category != nil {
		switch *query.Category {
		case entity.ExpenseCategoryClient:
			q = q.Where("("+familyBooking+" OR "+normalizedType+" = ?)", string(entity.ExpenseCategoryClient))
		case entity.ExpenseCategoryInvoice:
			q = q.Where("NOT "+familyBooking).
				Where(normalizedType+" = ?", string(entity.ExpenseCategoryInvoice))
		default:
			q = q.Where("NOT "+familyBooking).
				Where("(type IS NULL OR "+normalizedType+" NOT IN ?)", otherCategories(entity.ExpenseCategoryCompany))
		}
	}

	if query.After != nil {
		q = q.Where(`("timestamp" < ? OR ("timestamp" = ? AND id < ?))`,
			query.After.CreatedAt, query.After.CreatedAt, query.After.ID)
	}

	if query.Limit > 0 {
		q = q.Limit(query.Limit)
	}

	var models []model.ExpenseModel
	if err := q.Order(orderNewestFirst).Find(&models).Error; err != nil {
		return nil, err
	}
	return toRaw(models), nil
}

// FetchChildren returns the sub-entries of every parent in parentIDs.
func (r *expenseRepository) FetchChildren(ctx context.Context, parentIDs []string) ([]entity.RawExpense, error) {
	if len(parentIDs) == 0 {
		return nil, nil
	}
	var models []model.ExpenseModel
	result := r.db.WithContext(ctx).
		Where("parent_id IN ?", parentIDs).
		Order(orderNewestFirst).
		Find(&models)
	if result.Error != nil {
		return nil, result.Error
	}
	return toRaw(models), nil
}

// otherCategories lists every canonical category except c.
func otherCategories(c entity.ExpenseCategory) []string {
	var out []string
	for _, other := range entity.ExpenseCategories {
		if other != c {
			out = append(out, strings.ToLower(string(other)))
		}
	}
	return out
}

func toRaw(models []model.ExpenseModel) []entity.RawExpense {
	raws := make([]entity.RawExpense, len(models))
	for i := range models {
		raws[i] = models[i].ToRaw()
	}
	return raws
}
