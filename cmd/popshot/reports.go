package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/popshot/internal/platform/tui"
	"github.com/vovakirdan/popshot/internal/report"
	"github.com/vovakirdan/popshot/internal/storage"
)

var (
	flagReportsFile   string
	flagReportsFormat string
)

var reportsCmd = &cobra.Command{
	Use:   "reports [batch-id]",
	Short: "Browse a batch report",
	Long: `Opens the interactive report browser on a stored batch.

Without an id the latest batch is shown. An id prefix is enough when it
is unambiguous. --file browses a JSON or YAML report written by
'popshot batch' instead of the database. --format prints the report
instead of opening the browser.

Controls:
  Up/Down      - Select persona
  Tab/Shift+Tab - Switch level
  Enter        - Toggle persona details
  ?            - More keys
  Q/Esc        - Quit

Examples:
  popshot reports
  popshot reports 3f2a9c1e
  popshot reports --file reports/nightly.json
  popshot reports --format text`,
	Args: cobra.MaximumNArgs(1),
	RunE: runReports,
}

func init() {
	reportsCmd.Flags().StringVar(&flagReportsFile, "file", "", "Read the report from a JSON or YAML file")
	reportsCmd.Flags().StringVarP(&flagReportsFormat, "format", "f", "", "Print in this format instead of browsing: json, yaml, table, text")
}

func runReports(cmd *cobra.Command, args []string) error {
	b, err := loadReport(args)
	if err != nil {
		return err
	}

	if flagReportsFormat != "" {
		format, err := report.ParseFormat(flagReportsFormat)
		if err != nil {
			return err
		}
		if b == nil {
			return fmt.Errorf("no batches recorded yet")
		}
		return report.Write(cmd.OutOrStdout(), b, format)
	}

	return tui.RunBrowser(b)
}

// loadReport reads the selected batch. A nil batch means the database is
// empty.
func loadReport(args []string) (*report.Batch, error) {
	if flagReportsFile != "" {
		if len(args) > 0 {
			return nil, fmt.Errorf("give either a batch id or --file, not both")
		}
		return report.ReadFile(flagReportsFile)
	}

	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	store, err := storage.Open(cfg.Batch.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open results database: %w", err)
	}
	defer store.Close()

	if len(args) == 1 {
		return store.Batch(args[0])
	}
	return store.LatestBatch()
}
