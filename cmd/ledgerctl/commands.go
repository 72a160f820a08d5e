package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/expense-ledger/backend/config"
	"github.com/expense-ledger/backend/internal/application/usecase/reconciler"
	"github.com/expense-ledger/backend/internal/domain/entity"
	"github.com/expense-ledger/backend/internal/domain/ledger"
	"github.com/expense-ledger/backend/internal/domain/valueobject"
	"github.com/expense-ledger/backend/internal/infra/db"
	"github.com/expense-ledger/backend/internal/integration/entrypoint/dto"
	"github.com/expense-ledger/backend/internal/integration/persistence"
)

type opener func() (*db.Database, error)

func reconcileCmd(cfg *config.Config, open opener) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Run one reconciliation pass and write corrections back",
		RunE: func(cmd *cobra.Command, args []string) error {
			database, err := open()
			if err != nil {
				return err
			}
			defer database.Close()

			ctx := cmd.Context()
			repo := persistence.NewExpenseRepository(database.DB())
			rows, err := repo.FindAll(ctx)
			if err != nil {
				return fmt.Errorf("load expenses: %w", err)
			}

			result := ledger.Reconcile(rows)
			out := cmd.OutOrStdout()
			writeCorrections(out, result.Corrections)
			fmt.Fprintf(out, "roots: %d, expenses: %d, defaulted: %d, orphans: %d, duplicates: %d\n",
				len(result.Roots), len(rows), result.Defaulted, result.Orphans, result.Duplicates)

			if dryRun || len(result.Corrections) == 0 {
				return nil
			}

			writeback := reconciler.NewWritebackDispatcher(repo, reconciler.WritebackConfig{
				Concurrency: cfg.Ledger.WritebackConcurrency,
				Timeout:     cfg.Ledger.WritebackTimeout,
			})
			writeback.Dispatch(result.Corrections)
			writeback.Wait()

			fmt.Fprintf(out, "corrections applied: %d, failed: %d\n", writeback.Applied(), writeback.Failed())
			if writeback.Failed() > 0 {
				return fmt.Errorf("%d corrections could not be written", writeback.Failed())
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "report corrections without writing them")
	return cmd
}

func statsCmd(open opener) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print root counts and totals per category",
		RunE: func(cmd *cobra.Command, args []string) error {
			roots, err := loadRoots(cmd.Context(), open)
			if err != nil {
				return err
			}
			writeStats(cmd.OutOrStdout(), ledger.Aggregate(roots))
			return nil
		},
	}
}

func exportCmd(open opener) *cobra.Command {
	var (
		category string
		query    string
		status   string
		format   string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the reconciled ledger, roots followed by their sub-entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			selector := valueobject.CategorySelector(strings.ToLower(category))
			if _, ok := selector.Category(); !ok && selector != valueobject.CategorySelectorAll {
				return fmt.Errorf("unknown category %q", category)
			}

			spec := valueobject.DefaultFilterSpec()
			spec.Query = query
			if status != "" {
				s := entity.PaymentStatus(status)
				if !s.IsValid() {
					return fmt.Errorf("unknown payment status %q", status)
				}
				spec.PaymentStatus = &s
			}

			database, err := open()
			if err != nil {
				return err
			}
			defer database.Close()

			ctx := cmd.Context()
			rows, err := persistence.NewExpenseRepository(database.DB()).FindAll(ctx)
			if err != nil {
				return fmt.Errorf("load expenses: %w", err)
			}
			roots := ledger.Reconcile(rows).Roots

			var bookings map[string]entity.Booking
			if spec.Query != "" {
				bookings, err = persistence.NewBookingRepository(database.DB()).FindByIDs(ctx, bookingIDs(roots))
				if err != nil {
					return fmt.Errorf("load bookings: %w", err)
				}
			}

			exported := ledger.ExportRows(ledger.ApplyFilter(roots, selector, spec, bookings))
			switch format {
			case "csv":
				return writeCSV(cmd.OutOrStdout(), exported)
			case "table":
				writeTable(cmd.OutOrStdout(), exported)
				return nil
			default:
				return fmt.Errorf("unknown format %q", format)
			}
		},
	}

	cmd.Flags().StringVar(&category, "category", "all", "category tab: all, company, client or invoice")
	cmd.Flags().StringVarP(&query, "query", "q", "", "free-text search")
	cmd.Flags().StringVar(&status, "status", "", "payment status: pending or paid")
	cmd.Flags().StringVar(&format, "format", "table", "output format: table or csv")
	return cmd
}

func loadRoots(ctx context.Context, open opener) ([]*entity.LedgerEntry, error) {
	database, err := open()
	if err != nil {
		return nil, err
	}
	defer database.Close()

	rows, err := persistence.NewExpenseRepository(database.DB()).FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load expenses: %w", err)
	}
	return ledger.Reconcile(rows).Roots, nil
}

func bookingIDs(roots []*entity.LedgerEntry) []string {
	var ids []string
	for _, root := range roots {
		if root.HasBooking() {
			ids = append(ids, *root.BookingID)
		}
		for _, child := range root.Children {
			if child.HasBooking() {
				ids = append(ids, *child.BookingID)
			}
		}
	}
	return ids
}

func writeCorrections(w io.Writer, corrections []valueobject.Correction) {
	if len(corrections) == 0 {
		fmt.Fprintln(w, "no corrections")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "EXPENSE\tFROM\tTO\tREASONS")
	for _, c := range corrections {
		reasons := make([]string, len(c.Reasons))
		for i, r := range c.Reasons {
			reasons[i] = string(r)
		}
		from := c.From
		if from == "" {
			from = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", c.ExpenseID, from, c.To, strings.Join(reasons, ","))
	}
	tw.Flush()
}

func writeStats(w io.Writer, stats valueobject.LedgerStats) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "BUCKET\tCOUNT\tAMOUNT\t")
	buckets := []valueobject.StatsBucket{valueobject.StatsBucketTotal}
	for _, c := range entity.ExpenseCategories {
		buckets = append(buckets, valueobject.StatsBucket(c))
	}
	for _, b := range buckets {
		s := stats[b]
		fmt.Fprintf(tw, "%s\t%d\t%s\t\n", b, s.Count, s.Amount.StringFixed(2))
	}
	tw.Flush()
}

func writeTable(w io.Writer, rows []ledger.ExportRow) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDATE\tCATEGORY\tSTATUS\tAMOUNT\tTOTAL\tDESCRIPTION")
	for _, r := range rows {
		id := r.ID
		if r.IsSubEntry {
			id = "  └ " + id
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			id, r.Date.Format("2006-01-02"), r.Category, r.PaymentStatus,
			r.Amount.StringFixed(2), r.TotalAmount.StringFixed(2), r.Description)
	}
	tw.Flush()
}

func writeCSV(w io.Writer, rows []ledger.ExportRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(dto.ExportColumns); err != nil {
		return err
	}
	for _, r := range rows {
		if err := cw.Write(dto.ToExportRowResponse(r).Record()); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
