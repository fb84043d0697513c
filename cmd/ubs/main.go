// Command ubs (utility bill scraper) parses downloaded utility statements
// into a per-supplier consumption/cost history and exports it.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/ryanfobel/utility-bill-scraper/internal/common"
	"github.com/ryanfobel/utility-bill-scraper/internal/export"
	"github.com/ryanfobel/utility-bill-scraper/internal/extract"
	"github.com/ryanfobel/utility-bill-scraper/internal/history"
	"github.com/ryanfobel/utility-bill-scraper/internal/ingest"
	"github.com/ryanfobel/utility-bill-scraper/internal/pipeline"
)

var (
	flagEnv      string
	flagConfig   string
	flagDataPath string
	flagUtility  string
)

var rootCmd = &cobra.Command{
	Use:   "ubs",
	Short: "Parse utility bill statements into a consumption history",
	Long: `ubs parses PDF utility statements (gas, water, electricity) into a
date-indexed history table per supplier, and exports it as CSV or XLSX.

Statement PDFs are expected under <data-path>/<utility-name>/statements.`,
	SilenceUsage: true,
}

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	rootCmd.PersistentFlags().StringVarP(&flagEnv, "env", "e", "", "path to .env file")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "path to a YAML config file")
	rootCmd.PersistentFlags().StringVar(&flagDataPath, "data-path", "", "folder containing the history file")
	rootCmd.PersistentFlags().StringVar(&flagUtility, "utility-name", "", "name of the utility")

	rootCmd.AddCommand(newExtractCmd(logger))
	rootCmd.AddCommand(newExportCmd(logger))
	rootCmd.AddCommand(newHistoryCmd(logger))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig merges the config file, .env file, environment and flags.
func loadConfig() (common.Config, error) {
	cfg, err := common.Load(flagConfig, flagEnv)
	if err != nil {
		return cfg, err
	}
	if flagDataPath != "" {
		cfg.DataPath = flagDataPath
	}
	if flagUtility != "" {
		cfg.Utility = flagUtility
	}
	if cfg.Utility == "" {
		return cfg, fmt.Errorf("%w: no utility-name set", common.ErrInvalidInput)
	}
	return cfg, nil
}

// openStore returns the configured history store and a close func.
func openStore(cfg common.Config) (history.Store, func(), error) {
	switch cfg.History.Format {
	case "sqlite":
		s, err := history.NewSQLiteStore(cfg.DataPath)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { s.Close() }, nil
	default:
		return history.NewCSVStore(cfg.DataPath), func() {}, nil
	}
}

func newExtractCmd(logger *slog.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "extract",
		Short: "Parse statement PDFs under the data path into the history",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			store, closeStore, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer closeStore()

			files, err := ingest.ListStatements(cfg.DataPath, cfg.Utility)
			if err != nil {
				return err
			}
			if len(files) == 0 {
				logger.Info("no statements found",
					"dir", filepath.Join(cfg.DataPath, cfg.Utility, "statements"))
				return nil
			}

			conv := pipeline.NewConverter(cfg.Convert.Command,
				time.Duration(cfg.Convert.Timeout)*time.Second, nil)
			proc := pipeline.NewProcessor(logger, conv, extract.DefaultRegistry(),
				store, cfg.History.SaveStatements)

			_, res, err := proc.ProcessBatch(cmd.Context(), cfg.Utility, files)
			if err != nil {
				return err
			}
			fmt.Printf("Parsed %d statements (%d new, %d cached, %d failed, %d unrecognized)\n",
				res.Scanned, res.Appended, res.Cached, res.Failed, res.Unrecognized)
			return nil
		},
	}
}

func newExportCmd(logger *slog.Logger) *cobra.Command {
	var output string
	var withCarbon bool

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the history as CSV or XLSX",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if output == "" {
				output = os.Getenv("OUTPUT")
			}
			if output == "" {
				return fmt.Errorf("%w: no output path set", common.ErrInvalidInput)
			}
			store, closeStore, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer closeStore()

			table, err := store.Load(cmd.Context(), cfg.Utility)
			if err != nil {
				return err
			}

			svc := export.NewService(logger)
			svc.IncludeCarbon = withCarbon

			switch strings.ToLower(filepath.Ext(output)) {
			case ".csv":
				f, err := os.Create(output)
				if err != nil {
					return err
				}
				defer f.Close()
				return svc.WriteCSV(table, f)
			case ".xlsx":
				raw, err := svc.ExportXLSX(table)
				if err != nil {
					return err
				}
				return os.WriteFile(output, raw, 0o644)
			default:
				return fmt.Errorf("%w: unsupported export extension %q", common.ErrInvalidInput, filepath.Ext(output))
			}
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "export file path (.csv or .xlsx)")
	cmd.Flags().BoolVar(&withCarbon, "carbon", false, "include a derived kgCO2 column")
	return cmd
}

func newHistoryCmd(_ *slog.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "Print the cached history table",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			store, closeStore, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer closeStore()

			table, err := store.Load(cmd.Context(), cfg.Utility)
			if err != nil {
				return err
			}
			printTable(os.Stdout, table)
			return nil
		},
	}
}

func printTable(w io.Writer, t *history.Table) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(t.Columns, "\t"))
	for _, row := range t.Rows {
		rec := make([]string, len(t.Columns))
		rec[0] = row.Date
		for i, col := range t.Columns[1:] {
			if v, ok := row.Values[col]; ok {
				rec[i+1] = fmt.Sprintf("%.2f", v)
			}
		}
		fmt.Fprintln(tw, strings.Join(rec, "\t"))
	}
	tw.Flush()
}
