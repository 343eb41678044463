package main

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/popshot/internal/report"
	"github.com/vovakirdan/popshot/internal/storage"
)

var (
	flagHistoryLimit   int
	flagHistoryLevel   string
	flagHistoryPersona string
	flagHistoryDelete  string
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show stored batch results",
	Long: `Lists the most recent batches stored in the results database.

With --level and --persona, shows how one pair was classified across
batches instead, newest first.

Examples:
  popshot history
  popshot history --limit 20
  popshot history --level meadow --persona casual
  popshot history --delete 3f2a9c1e`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().IntVar(&flagHistoryLimit, "limit", 10, "Number of entries to show")
	historyCmd.Flags().StringVar(&flagHistoryLevel, "level", "", "Level id for pair history")
	historyCmd.Flags().StringVar(&flagHistoryPersona, "persona", "", "Persona id for pair history")
	historyCmd.Flags().StringVar(&flagHistoryDelete, "delete", "", "Delete the batch with this id prefix")
}

func runHistory(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// Open results storage
	store, err := storage.Open(cfg.Batch.DBPath)
	if err != nil {
		return fmt.Errorf("open results database: %w", err)
	}
	defer store.Close()

	switch {
	case flagHistoryDelete != "":
		b, err := store.Batch(flagHistoryDelete)
		if err != nil {
			return err
		}
		if err := store.DeleteBatch(b.ID); err != nil {
			return err
		}
		fmt.Printf("Deleted batch %s.\n", b.ShortID())
		return nil

	case flagHistoryLevel != "" || flagHistoryPersona != "":
		if flagHistoryLevel == "" || flagHistoryPersona == "" {
			return fmt.Errorf("pair history needs both --level and --persona")
		}
		return printPairHistory(store, flagHistoryLevel, flagHistoryPersona)
	}

	batches, err := store.RecentBatches(flagHistoryLimit)
	if err != nil {
		return fmt.Errorf("retrieve batches: %w", err)
	}

	fmt.Println("Batch history")
	fmt.Println()
	if len(batches) == 0 {
		fmt.Println("No batches recorded yet.")
		fmt.Println()
		fmt.Println("Run 'popshot batch' to analyze your levels.")
		return nil
	}

	fmt.Printf("  %-8s  %-14s  %8s  %6s  %8s  %s\n", "ID", "Started", "Sessions", "Failed", "Critical", "Levels")
	fmt.Printf("  %-8s  %-14s  %8s  %6s  %8s  %s\n", "--", "-------", "--------", "------", "--------", "------")
	for _, b := range batches {
		fmt.Printf("  %-8s  %-14s  %8s  %6s  %8d  %s\n",
			report.ShortID(b.ID),
			humanize.Time(b.StartedAt),
			humanize.Comma(int64(b.Sessions)),
			humanize.Comma(int64(b.Failed)),
			b.CriticalLevels,
			strings.Join(b.Levels, ","),
		)
	}
	fmt.Println()
	fmt.Println("Run 'popshot reports <id>' to browse a batch.")
	return nil
}

func printPairHistory(store *storage.Store, levelID, personaID string) error {
	records, err := store.PairHistory(levelID, personaID, flagHistoryLimit)
	if err != nil {
		return fmt.Errorf("retrieve pair history: %w", err)
	}

	fmt.Printf("History - %s / %s\n", levelID, personaID)
	fmt.Println()
	if len(records) == 0 {
		fmt.Println("No results recorded for this pair.")
		return nil
	}

	fmt.Printf("  %-8s  %-14s  %-12s  %6s  %6s  %5s  %6s\n", "Batch", "When", "Verdict", "Compl.", "Health", "Runs", "Conf.")
	fmt.Printf("  %-8s  %-14s  %-12s  %6s  %6s  %5s  %6s\n", "-----", "----", "-------", "------", "------", "----", "-----")
	for _, r := range records {
		fmt.Printf("  %-8s  %-14s  %-12s  %6s  %6.2f  %5d  %6.2f\n",
			report.ShortID(r.BatchID),
			humanize.Time(r.CreatedAt),
			r.Classification,
			report.Percent(r.CompletionRate),
			r.Health,
			r.Runs,
			r.Confidence,
		)
	}
	return nil
}
