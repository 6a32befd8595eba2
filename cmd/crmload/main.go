// Command crmload runs the spreadsheet load pipeline from the terminal,
// against the same database the server uses. It exists for scheduled
// refreshes and for re-running an export bundle without the web UI.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/nuralia/clinic-crm/internal/config"
	"github.com/nuralia/clinic-crm/internal/ingest"
	"github.com/nuralia/clinic-crm/internal/logging"
	"github.com/nuralia/clinic-crm/internal/store"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "crmload",
		Short: "Clinic CRM spreadsheet loader",
		Long: `crmload ingests the clinic's spreadsheet exports and performs a
full refresh of the CRM database. Configuration comes from the same
environment variables the server reads (DATABASE_URL and friends).`,
		SilenceUsage: true,
	}
	root.AddCommand(newRunCmd())
	return root
}

type runFlags struct {
	customers string
	visits    string
	sales     string
	payments  string
	items     string
	services  string

	logOut     string
	batchSize  int
	batchDelay time.Duration
	quiet      bool
}

func newRunCmd() *cobra.Command {
	var flags runFlags

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a full-refresh load from spreadsheet files",
		Example: `  crmload run --customers Customer_Info.xlsx --sales Sales_Detail.xlsx
  crmload run --customers customers.csv --log-out run.log`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLoad(cmd.Context(), flags)
		},
	}

	cmd.Flags().StringVar(&flags.customers, "customers", "", "customer info spreadsheet")
	cmd.Flags().StringVar(&flags.visits, "visits", "", "visit frequency spreadsheet")
	cmd.Flags().StringVar(&flags.sales, "sales", "", "sales detail spreadsheet")
	cmd.Flags().StringVar(&flags.payments, "payments", "", "payment spreadsheet")
	cmd.Flags().StringVar(&flags.items, "items", "", "item sales spreadsheet")
	cmd.Flags().StringVar(&flags.services, "services", "", "service sales spreadsheet")
	cmd.Flags().StringVar(&flags.logOut, "log-out", "", "write the run log to this file")
	cmd.Flags().IntVar(&flags.batchSize, "batch-size", 0, "rows per insert batch (0 = config default)")
	cmd.Flags().DurationVar(&flags.batchDelay, "batch-delay", -1, "pause between batches (-1 = config default)")
	cmd.Flags().BoolVarP(&flags.quiet, "quiet", "q", false, "suppress progress output")

	return cmd
}

func runLoad(ctx context.Context, flags runFlags) error {
	if err := godotenv.Overload(); err == nil {
		slog.Info("loaded .env file")
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	inputs, closeAll, err := openInputs(flags)
	if err != nil {
		return err
	}
	defer closeAll()
	if len(inputs) == 0 {
		return fmt.Errorf("no input files: pass at least one of --customers, --visits, --sales, --payments, --items, --services")
	}

	pool, err := pgxpool.New(ctx, cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer pool.Close()
	if err := pool.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}

	opts := ingest.Options{
		BatchSize:  cfg.Pipeline.BatchSize,
		BatchDelay: cfg.Pipeline.BatchDelay,
		PageSize:   cfg.Pipeline.PageSize,
	}
	if flags.batchSize > 0 {
		opts.BatchSize = flags.batchSize
	}
	if flags.batchDelay >= 0 {
		opts.BatchDelay = flags.batchDelay
	}
	if !flags.quiet {
		opts.Progress = printProgress
	}

	processor := ingest.NewProcessor(store.NewClient(pool), opts)

	runCtx, cancel := context.WithTimeout(ctx, cfg.Pipeline.Timeout)
	defer cancel()

	result, runErr := processor.Run(runCtx, inputs)

	if flags.logOut != "" {
		if err := os.WriteFile(flags.logOut, []byte(processor.Log().Export()), 0o644); err != nil {
			slog.Error("failed to write run log", "path", flags.logOut, "error", err)
		}
	}

	if runErr != nil {
		return fmt.Errorf("load failed: %w", runErr)
	}

	fmt.Println(result.Message)
	for _, key := range []string{"customersInserted", "visitFrequenciesInserted", "transactionsInserted",
		"paymentsInserted", "itemsInserted", "serviceSalesInserted"} {
		fmt.Printf("  %-28s %d\n", key, result.Stats[key])
	}
	if len(result.Errors) > 0 {
		fmt.Printf("  %d warning(s); see the run log for detail\n", len(result.Errors))
	}
	return nil
}

// openInputs opens every provided file path and pairs it with its source
// kind. The returned func closes all opened files.
func openInputs(flags runFlags) ([]ingest.Input, func(), error) {
	paths := []struct {
		kind ingest.FileKind
		path string
	}{
		{ingest.FileCustomers, flags.customers},
		{ingest.FileVisitFrequency, flags.visits},
		{ingest.FileSalesDetail, flags.sales},
		{ingest.FilePayments, flags.payments},
		{ingest.FileItemSales, flags.items},
		{ingest.FileServiceSales, flags.services},
	}

	var inputs []ingest.Input
	var files []*os.File
	closeAll := func() {
		for _, f := range files {
			f.Close()
		}
	}

	for _, p := range paths {
		if p.path == "" {
			continue
		}
		f, err := os.Open(p.path)
		if err != nil {
			closeAll()
			return nil, func() {}, err
		}
		files = append(files, f)
		inputs = append(inputs, ingest.Input{Kind: p.kind, Name: f.Name(), Reader: f})
	}
	return inputs, closeAll, nil
}

func printProgress(p ingest.Progress) {
	if p.Message != "" {
		fmt.Fprintf(os.Stderr, "  [%3d%%] %s: %s\n", p.Percentage, p.Step, p.Message)
		return
	}
	fmt.Fprintf(os.Stderr, "  [%3d%%] %s\n", p.Percentage, p.Step)
}
