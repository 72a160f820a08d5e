package steps

import (
	"context"
	"fmt"
	"time"

	"github.com/cucumber/godog"
	"github.com/shopspring/decimal"

	"github.com/expense-ledger/backend/internal/integration/persistence/model"
	"github.com/expense-ledger/backend/test/integration/mock"
)

const reconcileTimeout = 5 * time.Second

// seedBase is the creation time of the first seeded row; later rows are one
// minute newer each so that list order follows table order reversed.
var seedBase = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

// registerLedgerSteps registers store seeding and reconciliation steps.
func registerLedgerSteps(ctx *godog.ScenarioContext) {
	ctx.Step(`^the following expenses exist:$`, theFollowingExpensesExist)
	ctx.Step(`^the following bookings exist:$`, theFollowingBookingsExist)
	ctx.Step(`^the ledger is running$`, theLedgerIsRunning)
	ctx.Step(`^the ledger has been reconciled$`, theLedgerHasBeenReconciled)
	ctx.Step(`^the category corrections have been written back$`, theCategoryCorrectionsHaveBeenWrittenBack)
	ctx.Step(`^the pagination sessions have expired$`, thePaginationSessionsHaveExpired)
	ctx.Step(`^the db should contain (\d+) objects in the "([^"]*)" table$`, theDbShouldContainObjectsInTheTable)
	ctx.Step(`^the stored expense "([^"]*)" should have "([^"]*)" set to "([^"]*)"$`, theStoredExpenseShouldHave)
}

// theFollowingExpensesExist inserts rows verbatim. Recognised columns are
// id, type, amount, date, payment_status, parent_id, booking_id, document,
// description and label; empty cells are stored as NULL where the column
// allows it.
func theFollowingExpensesExist(ctx context.Context, table *godog.Table) error {
	tc := GetTestContext(ctx)
	if tc == nil {
		return fmt.Errorf("test context not found")
	}

	rows, err := tableRows(table)
	if err != nil {
		return err
	}

	for i, row := range rows {
		amount, err := decimal.NewFromString(row["amount"])
		if err != nil {
			return fmt.Errorf("row %d: invalid amount %q", i+1, row["amount"])
		}
		date := seedBase
		if row["date"] != "" {
			if date, err = time.Parse("2006-01-02", row["date"]); err != nil {
				return fmt.Errorf("row %d: invalid date %q", i+1, row["date"])
			}
		}
		status := row["payment_status"]
		if status == "" {
			status = "pending"
		}

		m := model.ExpenseModel{
			ID:            row["id"],
			Type:          nullable(row["type"]),
			Amount:        amount,
			Date:          date,
			Timestamp:     seedBase.Add(time.Duration(i) * time.Minute),
			PaymentStatus: status,
			ParentID:      nullable(row["parent_id"]),
			BookingID:     nullable(row["booking_id"]),
			ImageURL:      nullable(row["document"]),
			Description:   row["description"],
			CategoryLabel: row["label"],
			UpdatedAt:     seedBase,
		}
		if err := tc.db.DbConn.Create(&m).Error; err != nil {
			return fmt.Errorf("failed to seed expense %s: %w", m.ID, err)
		}
	}
	return nil
}

func theFollowingBookingsExist(ctx context.Context, table *godog.Table) error {
	tc := GetTestContext(ctx)
	if tc == nil {
		return fmt.Errorf("test context not found")
	}

	rows, err := tableRows(table)
	if err != nil {
		return err
	}
	for _, row := range rows {
		m := model.BookingModel{
			ID:         row["id"],
			Reference:  row["reference"],
			ClientName: row["client_name"],
			Title:      row["title"],
		}
		if err := tc.db.DbConn.Create(&m).Error; err != nil {
			return fmt.Errorf("failed to seed booking %s: %w", m.ID, err)
		}
	}
	return nil
}

// theLedgerIsRunning starts the reconciler against the snapshot poller.
func theLedgerIsRunning(ctx context.Context) error {
	tc := GetTestContext(ctx)
	if tc == nil {
		return fmt.Errorf("test context not found")
	}
	if tc.stopLedger != nil {
		return nil
	}

	runCtx, cancel := context.WithCancel(context.Background())
	tc.stopLedger = cancel
	tc.ledgerDone = make(chan struct{})

	go func() {
		defer close(tc.ledgerDone)
		_ = tc.injector.Reconciler.Run(runCtx, tc.injector.Source)
	}()
	return nil
}

// theLedgerHasBeenReconciled forces a snapshot and waits for a view built
// from a read that happened after this step started.
func theLedgerHasBeenReconciled(ctx context.Context) error {
	tc := GetTestContext(ctx)
	if tc == nil {
		return fmt.Errorf("test context not found")
	}
	if tc.stopLedger == nil {
		return fmt.Errorf("the ledger is not running")
	}

	received := tc.injector.Reconciler.Status().ReceivedSequence
	tc.injector.Source.Refresh()

	deadline := time.Now().Add(reconcileTimeout)
	for time.Now().Before(deadline) {
		status := tc.injector.Reconciler.Status()
		if status.PublishedSequence > received && !status.FromCache {
			return nil
		}
		time.Sleep(10 * time.Millisecond)
	}
	return fmt.Errorf("no ledger view published within %s", reconcileTimeout)
}

func theCategoryCorrectionsHaveBeenWrittenBack(ctx context.Context) error {
	tc := GetTestContext(ctx)
	if tc == nil {
		return fmt.Errorf("test context not found")
	}

	deadline := time.Now().Add(reconcileTimeout)
	for time.Now().Before(deadline) {
		if tc.injector.Reconciler.Status().PendingWritebacks == 0 {
			return nil
		}
		time.Sleep(10 * time.Millisecond)
	}
	return fmt.Errorf("write-backs still pending after %s", reconcileTimeout)
}

func thePaginationSessionsHaveExpired(ctx context.Context) error {
	tc := GetTestContext(ctx)
	if tc == nil {
		return fmt.Errorf("test context not found")
	}
	mock.RedisServer().FastForward(tc.cfg.Ledger.SessionTTL + time.Second)
	return nil
}

func theDbShouldContainObjectsInTheTable(ctx context.Context, quantity int, table string) error {
	tc := GetTestContext(ctx)
	if tc == nil {
		return fmt.Errorf("test context not found")
	}
	if _, ok := tc.db.GetModel(table); !ok {
		return fmt.Errorf("table '%s' not found in models", table)
	}

	var count int64
	if err := tc.db.DbConn.Table(table).Count(&count).Error; err != nil {
		return err
	}
	if int(count) != quantity {
		return fmt.Errorf("expected %d objects in '%s', got %d", quantity, table, count)
	}
	return nil
}

func theStoredExpenseShouldHave(ctx context.Context, id, column, expected string) error {
	tc := GetTestContext(ctx)
	if tc == nil {
		return fmt.Errorf("test context not found")
	}

	var value *string
	err := tc.db.DbConn.Table("expenses").Select(column).Where("id = ?", id).Row().Scan(&value)
	if err != nil {
		return fmt.Errorf("failed to read %s of expense %s: %w", column, id, err)
	}

	actual := "<null>"
	if value != nil {
		actual = *value
	}
	if actual != expected {
		return fmt.Errorf("expense %s: %s expected '%s', got '%s'", id, column, expected, actual)
	}
	return nil
}

// tableRows maps every data row of a table to its header cells.
func tableRows(table *godog.Table) ([]map[string]string, error) {
	if len(table.Rows) < 1 {
		return nil, fmt.Errorf("table has no header row")
	}

	header := table.Rows[0].Cells
	rows := make([]map[string]string, 0, len(table.Rows)-1)
	for _, r := range table.Rows[1:] {
		row := make(map[string]string, len(header))
		for i, cell := range r.Cells {
			row[header[i].Value] = cell.Value
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
