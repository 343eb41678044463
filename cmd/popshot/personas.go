package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/popshot/internal/ai"
	"github.com/vovakirdan/popshot/internal/registry"
)

var personasCmd = &cobra.Command{
	Use:   "personas",
	Short: "List personas and policy presets",
	Long: `Shows the configured personas with the target ranges a healthy level
should produce for them, followed by the registered policy presets.`,
	Args: cobra.NoArgs,
	RunE: runPersonas,
}

func runPersonas(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	reg := registry.NewWithPresets()

	if len(cfg.Personas) == 0 {
		fmt.Println("No personas configured.")
	} else {
		fmt.Println("Personas:")
		fmt.Println()
		for _, p := range cfg.Personas {
			preset := string(p.Preset)
			if !reg.Exists(p.Preset) {
				preset += " (unknown preset)"
			}
			fmt.Printf("  %s - %s [%s]\n", p.ID, p.Name, preset)
			if p.Description != "" {
				fmt.Printf("    %s\n", p.Description)
			}
			t := p.Targets
			fmt.Printf("    completion %s  attempts %s  duration %s\n",
				formatRange(t.CompletionRate, "%.2f"), formatRange(t.Attempts, "%.2f"), formatRange(t.SessionDuration, "%.0fs"))
			fmt.Printf("    satisfaction %s  cognitive load %s  flow %s\n",
				formatRange(t.Satisfaction, "%.2f"), formatRange(t.CognitiveLoad, "%.2f"), formatRange(t.FlowState, "%.2f"))
			fmt.Println()
		}
	}

	fmt.Println("Policy presets:")
	fmt.Println()
	for _, info := range reg.List() {
		fmt.Printf("  %-11s %s\n", info.Key, info.Description)
	}
	return nil
}

func formatRange(r ai.Range, verb string) string {
	return fmt.Sprintf(verb+"-"+verb, r.Min, r.Max)
}
