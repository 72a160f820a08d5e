package persistence

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/expense-ledger/backend/internal/integration/persistence/model"
)

// sqliteCorrectionsDDL replaces the Postgres text[] column, which SQLite has
// no type for; pq.StringArray round-trips through its text form.
const sqliteCorrectionsDDL = `CREATE TABLE IF NOT EXISTS expense_corrections (
	id TEXT PRIMARY KEY,
	expense_id TEXT NOT NULL,
	from_type TEXT,
	to_type TEXT NOT NULL,
	reasons TEXT,
	applied_at DATETIME NOT NULL
)`

// Migrate creates or updates the ledger tables.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&model.ExpenseModel{}, &model.BookingModel{}); err != nil {
		return fmt.Errorf("failed to migrate ledger tables: %w", err)
	}

	if db.Dialector.Name() == "sqlite" {
		if err := db.Exec(sqliteCorrectionsDDL).Error; err != nil {
			return fmt.Errorf("failed to create corrections table: %w", err)
		}
		return nil
	}

	if err := db.AutoMigrate(&model.ExpenseCorrectionModel{}); err != nil {
		return fmt.Errorf("failed to migrate corrections table: %w", err)
	}
	return nil
}
