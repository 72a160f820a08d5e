// Command ledgerctl runs one-shot ledger operations against the backing store.
package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/expense-ledger/backend/config"
	"github.com/expense-ledger/backend/internal/infra/db"
)

func main() {
	_ = godotenv.Load()

	if err := rootCmd(config.Load()).Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd(cfg *config.Config) *cobra.Command {
	root := &cobra.Command{
		Use:          "ledgerctl",
		Short:        "Reconcile, summarise and export the expense ledger",
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&cfg.Database.Driver, "driver", cfg.Database.Driver, "database driver (postgres or sqlite)")
	root.PersistentFlags().StringVar(&cfg.Database.URL, "db", cfg.Database.URL, "database URL or sqlite file path")

	open := func() (*db.Database, error) {
		return db.NewConnection(&cfg.Database)
	}

	root.AddCommand(reconcileCmd(cfg, open))
	root.AddCommand(statsCmd(open))
	root.AddCommand(exportCmd(open))
	return root
}
