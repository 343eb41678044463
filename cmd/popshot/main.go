// popshot is the headless simulation and balance-testing harness of the
// popshot arcade game.
//
// Usage:
//
//	popshot simulate <level>    - Run one session and print its metrics
//	popshot batch               - Run a balance batch and write a report
//	popshot levels              - List (and validate) indexed levels
//	popshot personas            - List personas and policy presets
//	popshot schema              - Print the level document JSON schema
//	popshot history             - Show stored batches
//	popshot reports [id]        - Browse a batch report in the terminal
//	popshot serve               - Serve the report browser over SSH
//
// Global flags:
//
//	--config <path>      - Harness config YAML
//	--levels-dir <dir>   - Levels directory (default from config: levels)
//	--db <path>          - Results database (default: ~/.popshot/results.db)
//	--log-level <level>  - debug, info, warn or error
//	--seed <value>       - Base RNG seed (0 = random based on time)
package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/popshot/internal/ai"
	"github.com/vovakirdan/popshot/internal/config"
	"github.com/vovakirdan/popshot/internal/level"
)

var (
	// Global flags
	flagConfig    string
	flagLevelsDir string
	flagDBPath    string
	flagLogLevel  string
	flagSeed      int64
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "popshot",
	Short: "popshot - headless simulation and balance testing",
	Long: `popshot runs the arcade game's physics, waves and scoring without a
display, drives them with AI personas and classifies whether each level
is healthy, too easy, too hard, needs review or broken.

Available commands:
  simulate  - Run one session and print its metrics
  batch     - Run many sessions per level and persona, write a report
  levels    - List the indexed levels
  personas  - List personas and policy presets
  schema    - Print the level document JSON schema
  history   - Show stored batch results
  reports   - Browse a batch report
  serve     - Serve the report browser over SSH

Examples:
  popshot simulate tutorial-1 --persona casual --seed 7
  popshot batch --levels tutorial-1,meadow --runs 50 --format table
  popshot reports
  popshot serve --ssh :2222`,
	SilenceUsage: true,
}

func init() {
	// Global persistent flags
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to harness config YAML")
	rootCmd.PersistentFlags().StringVar(&flagLevelsDir, "levels-dir", "", "Levels directory (default from config)")
	rootCmd.PersistentFlags().StringVar(&flagDBPath, "db", "", "Path to results database (default from config)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().Int64Var(&flagSeed, "seed", 0, "Base RNG seed (0 = random based on time)")

	// Add subcommands
	rootCmd.AddCommand(simulateCmd)
	rootCmd.AddCommand(batchCmd)
	rootCmd.AddCommand(levelsCmd)
	rootCmd.AddCommand(personasCmd)
	rootCmd.AddCommand(schemaCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(reportsCmd)
	rootCmd.AddCommand(serveCmd)
}

// newLogger builds the process logger from --log-level.
func newLogger() (*log.Logger, error) {
	lvl, err := log.ParseLevel(flagLogLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid --log-level %q: %w", flagLogLevel, err)
	}
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.Kitchen,
		Prefix:          "popshot",
	})
	logger.SetLevel(lvl)
	return logger, nil
}

// loadConfig loads the harness config and applies global flag overrides.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return config.Config{}, err
	}
	if flagLevelsDir != "" {
		cfg.Batch.LevelsDir = flagLevelsDir
	}
	if flagDBPath != "" {
		cfg.Batch.DBPath = flagDBPath
	}
	return cfg, nil
}

// openLevels opens the configured levels directory.
func openLevels(cfg config.Config, logger *log.Logger) (*level.Cache, error) {
	cache, err := level.NewCache(cfg.Batch.LevelsDir, logger)
	if err != nil {
		return nil, fmt.Errorf("open levels %s: %w", cfg.Batch.LevelsDir, err)
	}
	return cache, nil
}

// baseSeed returns --seed, or a time-based seed when it is zero.
func baseSeed() int64 {
	if flagSeed != 0 {
		return flagSeed
	}
	return time.Now().UnixNano()
}

// selectPersonas resolves a comma separated persona selection against the
// config. An empty selection means every configured persona.
func selectPersonas(cfg config.Config, selection string) ([]ai.Persona, error) {
	ids := splitList(selection)
	if len(ids) == 0 {
		if len(cfg.Personas) == 0 {
			return nil, fmt.Errorf("no personas configured")
		}
		return cfg.Personas, nil
	}
	personas := make([]ai.Persona, 0, len(ids))
	for _, id := range ids {
		p, ok := cfg.Persona(id)
		if !ok {
			return nil, fmt.Errorf("unknown persona %q (run 'popshot personas' to list them)", id)
		}
		personas = append(personas, p)
	}
	return personas, nil
}

// splitList splits a comma separated flag value, dropping blanks.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
