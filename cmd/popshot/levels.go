package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/popshot/internal/level"
)

var flagLevelsValidate bool

var levelsCmd = &cobra.Command{
	Use:   "levels",
	Short: "List the indexed levels",
	Long: `Shows the levels listed in the levels directory index, in play order.

With --validate every level is loaded, and load errors and soft warnings
(target count mismatches, excessive enemy counts, high fail rates, long
estimated durations) are printed. The command exits non-zero when any
level fails to load.`,
	Args: cobra.NoArgs,
	RunE: runLevels,
}

func init() {
	levelsCmd.Flags().BoolVar(&flagLevelsValidate, "validate", false, "Load every level and report errors and warnings")
}

func runLevels(_ *cobra.Command, _ []string) error {
	logger, err := newLogger()
	if err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	cache, err := openLevels(cfg, logger)
	if err != nil {
		return err
	}

	ids := cache.List()
	if len(ids) == 0 {
		fmt.Println("No levels indexed.")
		return nil
	}

	// Calculate column widths
	maxIDLen := 2 // "ID" header
	for _, id := range ids {
		if len(id) > maxIDLen {
			maxIDLen = len(id)
		}
	}

	fmt.Printf("Levels in %s:\n\n", cfg.Batch.LevelsDir)
	fmt.Printf("  %-*s  %-8s  %5s  %7s  %6s  %s\n", maxIDLen, "ID", "Tier", "Waves", "Targets", "Est.", "Name")
	fmt.Printf("  %-*s  %-8s  %5s  %7s  %6s  %s\n", maxIDLen, "--", "----", "-----", "-------", "----", "----")

	failed := 0
	for _, id := range ids {
		l, err := cache.Get(id)
		if err != nil {
			failed++
			fmt.Printf("  %-*s  %s\n", maxIDLen, id, "load failed")
			if flagLevelsValidate {
				printLoadError(err)
			}
			continue
		}
		fmt.Printf("  %-*s  %-8s  %5d  %7d  %5.0fs  %s\n",
			maxIDLen, id, l.Difficulty, len(l.Waves), l.WaveTotal(), l.EstimatedDuration(), l.Name)
		if flagLevelsValidate {
			for _, w := range cache.Warnings(id) {
				fmt.Printf("      warning %s\n", w)
			}
		}
	}

	fmt.Println()
	if failed > 0 {
		if !flagLevelsValidate {
			fmt.Println("Run 'popshot levels --validate' for details.")
		}
		return fmt.Errorf("%d of %d levels failed to load", failed, len(ids))
	}
	if flagLevelsValidate {
		fmt.Printf("All %d levels are valid.\n", len(ids))
	}
	return nil
}

// printLoadError prints validation failures one per line.
func printLoadError(err error) {
	var verrs level.ValidationErrors
	if errors.As(err, &verrs) {
		for _, e := range verrs {
			fmt.Printf("      error %s\n", e)
		}
		return
	}
	fmt.Printf("      error %v\n", err)
}
