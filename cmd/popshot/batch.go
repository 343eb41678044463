package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vovakirdan/popshot/internal/ai"
	"github.com/vovakirdan/popshot/internal/balance"
	"github.com/vovakirdan/popshot/internal/platform/tui"
	"github.com/vovakirdan/popshot/internal/registry"
	"github.com/vovakirdan/popshot/internal/report"
	"github.com/vovakirdan/popshot/internal/storage"
)

var (
	flagBatchLevels   string
	flagBatchPersonas string
	flagBatchRuns     int
	flagBatchParallel int
	flagBatchTimeout  time.Duration
	flagBatchFormat   string
	flagBatchOut      string
	flagBatchNoSave   bool
	flagBatchQuiet    bool
	flagBatchStrict   bool
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Run a balance batch",
	Long: `Run many independent sessions for every selected (level, persona) pair,
classify each pair and write one report.

Each pair is classified as healthy, too_easy, too_hard, needs_review or
broken. Every persona row discloses its sample size, failed runs and
confidence. Results are stored in the results database unless --no-save
is given.

A missing level index, an unknown level or persona, a timeout or Ctrl+C
abort the batch with a non-zero exit and no report.

Formats:
  json   - Structured document
  yaml   - Structured document
  table  - One table row per level and persona
  text   - Human-readable report

Examples:
  popshot batch
  popshot batch --levels tutorial-1,meadow --personas casual,aggressive --runs 50
  popshot batch --format json --out reports/nightly.json --parallel 8
  popshot batch --timeout 10m --strict`,
	Args: cobra.NoArgs,
	RunE: runBatch,
}

func init() {
	batchCmd.Flags().StringVarP(&flagBatchLevels, "levels", "l", "", "Comma separated level ids (default: all indexed levels)")
	batchCmd.Flags().StringVarP(&flagBatchPersonas, "personas", "p", "", "Comma separated persona ids (default: all personas)")
	batchCmd.Flags().IntVarP(&flagBatchRuns, "runs", "n", 0, "Sessions per level and persona (default from config)")
	batchCmd.Flags().IntVar(&flagBatchParallel, "parallel", 0, "Concurrent sessions (default from config)")
	batchCmd.Flags().DurationVar(&flagBatchTimeout, "timeout", 0, "Whole-batch timeout, 0 = none (default from config)")
	batchCmd.Flags().StringVarP(&flagBatchFormat, "format", "f", "", "Report format: json, yaml, table, text (default from config)")
	batchCmd.Flags().StringVarP(&flagBatchOut, "out", "o", "", "Report file (default: stdout)")
	batchCmd.Flags().BoolVar(&flagBatchNoSave, "no-save", false, "Do not store the batch in the results database")
	batchCmd.Flags().BoolVarP(&flagBatchQuiet, "quiet", "q", false, "Disable the progress view")
	batchCmd.Flags().BoolVar(&flagBatchStrict, "strict", false, "Exit non-zero when any level is critical")
}

func runBatch(cmd *cobra.Command, _ []string) error {
	logger, err := newLogger()
	if err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// CLI flags override config values
	flags := cmd.Flags()
	if flags.Changed("runs") {
		cfg.Batch.Runs = flagBatchRuns
	}
	if flags.Changed("parallel") {
		cfg.Batch.Parallelism = flagBatchParallel
	}
	if flags.Changed("timeout") {
		cfg.Batch.Timeout = flagBatchTimeout
	}
	if flags.Changed("format") {
		cfg.Batch.Format = flagBatchFormat
	}
	if flags.Changed("out") {
		cfg.Batch.Output = flagBatchOut
	}
	if cfg.Batch.Runs < 1 {
		return fmt.Errorf("runs must be at least 1, got %d", cfg.Batch.Runs)
	}

	format, err := report.ParseFormat(cfg.Batch.Format)
	if err != nil {
		return err
	}

	cache, err := openLevels(cfg, logger)
	if err != nil {
		return err
	}
	levelIDs := splitList(flagBatchLevels)
	if len(levelIDs) == 0 {
		levelIDs = cache.List()
	}
	if len(levelIDs) == 0 {
		return fmt.Errorf("no levels indexed in %s", cfg.Batch.LevelsDir)
	}
	personas, err := selectPersonas(cfg, flagBatchPersonas)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if cfg.Batch.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Batch.Timeout)
		defer cancel()
	}

	seed := baseSeed()
	settings := report.Settings{
		Levels:      levelIDs,
		Personas:    personaIDs(personas),
		Runs:        cfg.Batch.Runs,
		Parallelism: cfg.Batch.Parallelism,
		Timeout:     cfg.Batch.Timeout,
		MaxWallTime: cfg.Session.MaxWallTime,
		Seed:        seed,
	}
	batch := report.NewBatch(settings, time.Now())
	total := len(levelIDs) * len(personas) * cfg.Batch.Runs

	logger.Info("starting batch",
		"batch", batch.ShortID(),
		"levels", len(levelIDs),
		"personas", len(personas),
		"runs", cfg.Batch.Runs,
		"sessions", total,
		"seed", seed,
	)

	interactive := !flagBatchQuiet && term.IsTerminal(int(os.Stderr.Fd()))
	analyzerLogger := logger
	if interactive {
		// Keep log lines from tearing the progress view.
		analyzerLogger = log.NewWithOptions(os.Stderr, log.Options{Level: log.ErrorLevel, Prefix: "popshot"})
	}
	analyzer := balance.New(cache, registry.NewWithPresets(), cfg, analyzerLogger)
	analyzer.Seed = seed

	run := func(ctx context.Context, onProgress func(balance.Progress)) ([]balance.LevelOverview, error) {
		analyzer.OnProgress = onProgress
		return analyzer.Analyze(ctx, levelIDs, personas, cfg.Batch.Runs)
	}

	var levels []balance.LevelOverview
	if interactive {
		levels, err = tui.RunProgress(ctx, os.Stderr, total, run)
	} else {
		levels, err = run(ctx, progressLogger(logger, total))
	}
	if err != nil {
		return fmt.Errorf("batch %s: %w", batch.ShortID(), err)
	}
	batch.Finish(levels, time.Now())

	if cfg.Batch.Output == "" {
		if err := report.Write(cmd.OutOrStdout(), batch, format); err != nil {
			return err
		}
	} else {
		if err := report.WriteFile(cfg.Batch.Output, batch, format); err != nil {
			return err
		}
		logger.Info("report written", "path", cfg.Batch.Output, "format", format)
	}

	if !flagBatchNoSave {
		if err := saveBatch(cfg.Batch.DBPath, batch); err != nil {
			logger.Warn("could not store batch", "db", cfg.Batch.DBPath, "error", err)
		} else {
			logger.Debug("batch stored", "db", cfg.Batch.DBPath, "batch", batch.ShortID())
		}
	}

	totals := batch.Totals()
	logger.Info("batch finished",
		"batch", batch.ShortID(),
		"sessions", totals.Sessions,
		"failed", totals.Failed,
		"critical", totals.CriticalLevels,
		"took", batch.Duration().Round(time.Millisecond),
	)

	if flagBatchStrict && totals.CriticalLevels > 0 {
		return fmt.Errorf("%d critical level(s)", totals.CriticalLevels)
	}
	return nil
}

// progressLogger logs batch progress in ten percent steps.
func progressLogger(logger *log.Logger, total int) func(balance.Progress) {
	step := total / 10
	if step < 1 {
		step = 1
	}
	return func(p balance.Progress) {
		if !p.Result.Success {
			logger.Warn("session failed", "level", p.LevelID, "persona", p.PersonaID, "error", p.Result.Error)
		}
		if p.Done%step == 0 || p.Done == p.Total {
			logger.Info("progress", "done", p.Done, "total", p.Total)
		}
	}
}

func saveBatch(dbPath string, b *report.Batch) error {
	store, err := storage.Open(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()
	return store.SaveBatch(b)
}

func personaIDs(personas []ai.Persona) []string {
	ids := make([]string, len(personas))
	for i, p := range personas {
		ids[i] = p.ID
	}
	return ids
}
