// Command importer bulk-loads the SAEPE spreadsheets into the database.
// Each run replaces the previous import: existing rows are deleted, then every valid
// spreadsheet row is inserted. Rows that fail are reported and skipped.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	_ "modernc.org/sqlite"

	"saepe/internal/adapters/spreadsheet"
	"saepe/internal/adapters/storage"
	indicatorStore "saepe/internal/adapters/storage/indicator"
	techvisitStore "saepe/internal/adapters/storage/techvisit"
	"saepe/internal/application/orchestrators"
	"saepe/internal/config"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var dbPath string
	root := &cobra.Command{
		Use:          "importer",
		Short:        "Import SAEPE spreadsheets",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := config.LoadDotEnv(".env"); err != nil {
				return err
			}
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			slog.SetDefault(config.NewLogger(cfg, os.Stderr))
			if dbPath == "" {
				dbPath = cfg.DBPath
			}
			return nil
		},
	}
	root.PersistentFlags().StringVar(&dbPath, "db", "", "SQLite database path (default $SAEPE_DB_PATH)")

	root.AddCommand(
		importCommand("indicators", "Replace the school indicators with a spreadsheet", &dbPath, importIndicators),
		importCommand("visits", "Replace the imported technical visits with a spreadsheet", &dbPath, importTechnicalVisits),
	)
	return root
}

type importFunc func(ctx context.Context, db storage.SQLDB, sheet orchestrators.ImportSheet) (orchestrators.ImportResult, error)

func importCommand(use, short string, dbPath *string, run importFunc) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sheet, err := spreadsheet.Open(file)
			if err != nil {
				return err
			}
			db, err := openDB(*dbPath)
			if err != nil {
				return err
			}
			defer db.Close()

			result, err := run(cmd.Context(), db, sheet)
			if err != nil {
				return err
			}
			printSummary(cmd.OutOrStdout(), file, result)
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "Path to the .xlsx or .csv file")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func openDB(path string) (*sql.DB, error) {
	dsn := path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := storage.MigrateDB(db, path); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	return db, nil
}

func importIndicators(ctx context.Context, db storage.SQLDB, sheet orchestrators.ImportSheet) (orchestrators.ImportResult, error) {
	return orchestrators.ExecuteImportIndicators(ctx, sheet, orchestrators.ImportIndicatorsDeps{
		IndicatorStore: indicatorStore.NewSQLiteStore(db),
		GenerateID:     uuid.NewString,
	})
}

func importTechnicalVisits(ctx context.Context, db storage.SQLDB, sheet orchestrators.ImportSheet) (orchestrators.ImportResult, error) {
	return orchestrators.ExecuteImportTechnicalVisits(ctx, sheet, orchestrators.ImportTechnicalVisitsDeps{
		VisitStore: techvisitStore.NewSQLiteStore(db),
		GenerateID: uuid.NewString,
		Now:        time.Now,
	})
}

// printSummary writes the counts, then one table line per skipped row.
func printSummary(w io.Writer, file string, result orchestrators.ImportResult) {
	fmt.Fprintf(w, "%s: %d row(s) read, %d imported, %d skipped\n", file, result.Total, result.Imported, result.Failed())
	if len(result.Errors) == 0 {
		return
	}
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Linha", "Escola", "Erro"})
	table.SetAutoWrapText(false)
	for _, e := range result.Errors {
		table.Append([]string{strconv.Itoa(e.Row), e.School, e.Message})
	}
	table.Render()
}
