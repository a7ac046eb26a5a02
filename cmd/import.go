package main

import (
	"fmt"
	"os"

	"github.com/okian/pulse/internal/adapters/source"
	"github.com/okian/pulse/pkg/logger"
	"github.com/spf13/cobra"
)

var importTable string

var importCmd = &cobra.Command{
	Use:   "import-csv [file]",
	Short: "Replace the feedback table with the contents of a CSV file",
	Long: `Drops the configured table, recreates it with one TEXT column per CSV
header and inserts every row. Empty cells become NULL. Files that are not
valid UTF-8 are decoded as Windows-1252.

Example:
  pulse import-csv reports.csv
  pulse import-csv --table sentiment_reports_q3 reports.csv`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	importCmd.Flags().StringVar(&importTable, "table", "", "Target table (default: source_table)")
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	defer syncLogger(ctx)
	log := logger.Get().Named("import")

	if cfg.SourceDriver == source.DriverCSV {
		return fmt.Errorf("import-csv needs a database driver, source_driver is %q", cfg.SourceDriver)
	}
	table := importTable
	if table == "" {
		table = cfg.SourceTable
	}

	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	db, err := source.OpenDB(ctx, cfg.SourceConfig(), source.WithLogger(log))
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	defer func() { _ = sqlDB.Close() }()

	n, err := source.NewImporter(db, source.WithLogger(log)).Import(ctx, table, f)
	if err != nil {
		return err
	}
	log.Info(ctx, "import finished", logger.String("file", args[0]), logger.String("table", table), logger.Int("rows", n))
	cmd.Printf("Imported %d rows into %s\n", n, table)
	return nil
}
