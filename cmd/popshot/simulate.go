package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/vovakirdan/popshot/internal/events"
	"github.com/vovakirdan/popshot/internal/registry"
	"github.com/vovakirdan/popshot/internal/sim"
)

var (
	flagSimPersona string
	flagSimFormat  string
	flagSimEvents  bool
)

var simulateCmd = &cobra.Command{
	Use:   "simulate <level>",
	Short: "Run one session and print its result",
	Long: `Run a single simulation session of a level with one persona and print
the result: success flag, final state and the full metrics schema.

A level that fails to load still prints a result, with success=false and
zeroed metrics. The command exits non-zero in that case.

Examples:
  popshot simulate tutorial-1
  popshot simulate meadow --persona chaotic --seed 42
  popshot simulate meadow --format json --events --log-level debug`,
	Args: cobra.ExactArgs(1),
	RunE: runSimulate,
}

func init() {
	simulateCmd.Flags().StringVarP(&flagSimPersona, "persona", "p", "", "Persona id (default: first configured persona)")
	simulateCmd.Flags().StringVarP(&flagSimFormat, "format", "f", "yaml", "Output format: yaml or json")
	simulateCmd.Flags().BoolVar(&flagSimEvents, "events", false, "Log every analytics event at debug level")
}

func runSimulate(cmd *cobra.Command, args []string) error {
	levelID := args[0]

	logger, err := newLogger()
	if err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if flagSimFormat != "yaml" && flagSimFormat != "json" {
		return fmt.Errorf("unknown format %q (use yaml or json)", flagSimFormat)
	}

	personas, err := selectPersonas(cfg, flagSimPersona)
	if err != nil {
		return err
	}
	persona := personas[0]

	cache, err := openLevels(cfg, logger)
	if err != nil {
		return err
	}

	seed := baseSeed()
	policy, err := registry.NewWithPresets().ForPersona(persona, seed)
	if err != nil {
		return err
	}

	opts := sim.OptionsFromConfig(cfg, policy, seed)
	opts.PersonaID = persona.ID
	opts.Logger = logger
	opts.Outbox = events.NewOutbox()
	if flagSimEvents {
		opts.Bus = events.NewBus(logger)
		opts.Bus.Subscribe(func(e events.Event) {
			logger.Debug("event", "kind", e.Kind(), "t", fmt.Sprintf("%.3f", e.At()))
		})
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	logger.Info("simulating", "level", levelID, "persona", persona.ID, "seed", seed)
	res := sim.RunLevel(ctx, cache, levelID, opts)
	for _, w := range cache.Warnings(levelID) {
		logger.Warn("level warning", "level", levelID, "warning", w.String())
	}
	for _, n := range opts.Outbox.Drain() {
		if f, ok := n.(events.SessionFinished); ok {
			logger.Info("session finished", "session", f.SessionID, "outcome", f.Outcome, "reason", f.Reason, "score", f.Score, "wall", f.Duration)
		}
	}

	out := cmd.OutOrStdout()
	if flagSimFormat == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		err = enc.Encode(res)
	} else {
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		err = enc.Encode(res)
		if err == nil {
			err = enc.Close()
		}
	}
	if err != nil {
		return fmt.Errorf("write result: %w", err)
	}

	if !res.Success {
		return fmt.Errorf("session failed: %s", res.Error)
	}
	return nil
}
