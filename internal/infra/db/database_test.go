package db

import (
	"path/filepath"
	"testing"

	"github.com/expense-ledger/backend/config"
)

func TestNewConnection_SQLite(t *testing.T) {
	cfg := &config.DatabaseConfig{
		Driver: "sqlite",
		URL:    filepath.Join(t.TempDir(), "ledger.db"),
	}

	database, err := NewConnection(cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer database.Close()

	if !database.HealthCheck() {
		t.Error("expected healthy connection")
	}
	for _, table := range []string{"expenses", "bookings", "expense_corrections"} {
		if !database.DB().Migrator().HasTable(table) {
			t.Errorf("expected table %s to be migrated", table)
		}
	}
}

func TestNewConnection_UnknownDriver(t *testing.T) {
	_, err := NewConnection(&config.DatabaseConfig{Driver: "oracle"})
	if err == nil {
		t.Fatal("expected error for unknown driver")
	}
}
