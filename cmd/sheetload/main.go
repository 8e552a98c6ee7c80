package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/yurifrl/sheetload/pkg/config"
	"github.com/yurifrl/sheetload/pkg/csv"
	"github.com/yurifrl/sheetload/pkg/importer"
	"github.com/yurifrl/sheetload/pkg/models"
)

var (
	cliFilters filters
	cfgFile    string
)

// reportedError marks an error whose diagnostic was already printed.
type reportedError struct {
	err error
}

func (e reportedError) Error() string { return e.err.Error() }
func (e reportedError) Unwrap() error { return e.err }

func report(err error) error {
	if err == nil {
		return nil
	}
	fmt.Println(importer.Diagnostic(err))
	return reportedError{err: err}
}

func newLogger(cfg *config.Config) *log.Logger {
	level := log.InfoLevel
	if cfg.Debug {
		level = log.DebugLevel
	}
	return log.NewWithOptions(os.Stderr, log.Options{
		ReportCaller:    cfg.Debug,
		ReportTimestamp: true,
		Prefix:          "sheetload",
		Level:           level,
	})
}

var rootCmd = &cobra.Command{
	Use:   "sheetload",
	Short: "Append new spreadsheet rows to the consumption table",
	Long: `sheetload reads a spreadsheet (.xlsx, .xls or .csv), maps its date, description
and volume columns onto the consumption table, and appends only the rows newer
than the latest event_date already stored.

Exit Codes:
  0  - Success
  1  - Unexpected error (bad data, write failure)
  2  - Source file not found
  3  - Database connection failed
  4  - Invalid configuration`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return cmd.Help()
	},
}

var importCmd = &cobra.Command{
	Use:   "import [flags] [source_file]",
	Short: "Append the new rows of a spreadsheet to the database",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Build(cfgFile, cmd.Flags())
		if err != nil {
			return report(err)
		}
		logger := newLogger(cfg)

		path, password, err := newPrompter().inputs(args, cfg.Store)
		if err != nil {
			return report(err)
		}

		_, err = importer.New(cfg, logger).Run(cmd.Context(), path, password)
		return report(err)
	},
}

var planCmd = &cobra.Command{
	Use:   "plan [flags] [source_file]",
	Short: "Preview which rows an import would append (dry-run)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Build(cfgFile, cmd.Flags())
		if err != nil {
			return report(err)
		}
		logger := newLogger(cfg)

		filter, err := cliFilters.toFilterFunc()
		if err != nil {
			return report(err)
		}

		path, password, err := newPrompter().inputs(args, cfg.Store)
		if err != nil {
			return report(err)
		}

		asCSV, _ := cmd.Flags().GetBool("csv")
		imp := importer.New(cfg, logger)
		if asCSV {
			// Keep stdout clean for the CSV itself.
			imp.WithOutput(os.Stderr)
		}
		res, err := imp.Plan(cmd.Context(), path, password)
		if err != nil {
			return report(err)
		}

		if asCSV {
			fmt.Print(string(csv.Create(res.Report.RecordsToAppend(), filter)))
			return nil
		}

		importer.PrintPlan(os.Stdout, filterReport(res.Report, filter))
		return nil
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Build(cfgFile, cmd.Flags())
		if err != nil {
			return report(err)
		}
		out, err := cfg.YAML()
		if err != nil {
			return report(err)
		}
		fmt.Print(string(out))
		return nil
	},
}

// filterReport narrows the preview to the records accepted by filter.
func filterReport(r *importer.Report, filter csv.FilterFunc[*models.Record]) *importer.Report {
	records := make([]*models.Record, 0, len(r.Items))
	for _, e := range r.Items {
		if filter(e.Record) {
			records = append(records, e.Record)
		}
	}
	return importer.BuildReport(records, r.Cutoff)
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "Config file (default is ./sheetload.yaml)")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")

	// Store overrides (global)
	rootCmd.PersistentFlags().String("driver", "", "Database driver: mysql, postgres or sqlite")
	rootCmd.PersistentFlags().String("host", "", "Database host")
	rootCmd.PersistentFlags().Int("port", 0, "Database port (default depends on driver)")
	rootCmd.PersistentFlags().String("database", "", "Database name (file path for sqlite)")
	rootCmd.PersistentFlags().String("user", "", "Database user")
	rootCmd.PersistentFlags().String("password", "", "Database password (prompted when empty)")
	rootCmd.PersistentFlags().String("table", "", "Target table")
	rootCmd.PersistentFlags().String("missing-table", "", "What to do when the table is missing: fail or create")
	rootCmd.PersistentFlags().Int("batch-size", 0, "Rows per INSERT statement")

	// Preview filters
	planCmd.Flags().StringVar(&cliFilters.startDate, "start", "", "Only show rows on or after this date (YYYY-MM-DD)")
	planCmd.Flags().StringVar(&cliFilters.endDate, "end", "", "Only show rows on or before this date (YYYY-MM-DD)")
	planCmd.Flags().StringVar(&cliFilters.description, "description", "", "Filter by description (case insensitive)")
	planCmd.Flags().Bool("csv", false, "Print the rows to append as CSV")

	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(planCmd)
	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(configCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		var reported reportedError
		if !errors.As(err, &reported) {
			fmt.Println(err)
		}
		os.Exit(importer.ExitCode(err))
	}
}
