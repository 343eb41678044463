package config

import (
	_ "embed"
	"time"

	"github.com/vovakirdan/popshot/internal/ai"
)

//go:embed defaults/popshot.yaml
var defaultYAML []byte

// DefaultConfig returns the hard-coded default configuration. The embedded
// defaults/popshot.yaml mirrors these values.
func DefaultConfig() Config {
	return Config{
		World: WorldConfig{
			Width:    400,
			Height:   700,
			TickRate: 60,
		},
		Physics: PhysicsConfig{
			Gravity:            420,
			AirResistance:      0.999,
			WallRestitution:    0.9,
			CeilingRestitution: 0.75,
			FloorRestitution:   0.97,
			ProjectileSpeed:    900,
			ProjectileWidth:    6,
			ProjectileHeight:   18,
			PlayerSpeed:        320,
			PlayerWidth:        44,
			PlayerHeight:       30,
			FireCooldown:       0.2,
			CleanupMargin:      200,
			MaxProjectiles:     8,
		},
		Session: SessionConfig{
			DecisionInterval:    0.1,
			MaxWallTime:         2 * time.Minute,
			MaxSimTime:          600,
			StepDelay:           0,
			MaxRuntimeErrors:    25,
			PerformanceInterval: 1.0,
			ThreatRadius:        110,
			Lives:               3,
			InvulnerableTime:    1.0,
		},
		Batch: BatchConfig{
			Runs:                20,
			Parallelism:         4,
			Timeout:             0,
			Format:              "text",
			Output:              "",
			DBPath:              "~/.popshot/results.db",
			LevelsDir:           "levels",
			ReferenceSampleSize: 30,
		},
		Personas: DefaultPersonas(),
	}
}

// DefaultPersonas returns the five built-in simulated player archetypes.
func DefaultPersonas() []ai.Persona {
	return []ai.Persona{
		{
			ID:            "casual",
			Name:          "Casual Player",
			Description:   "Plays cautiously with slow reactions",
			Preset:        ai.PresetDefensive,
			ReactionScale: 1.6,
			Targets: ai.TargetRanges{
				CompletionRate:  ai.Range{Min: 0.5, Max: 0.8},
				Attempts:        ai.Range{Min: 1.25, Max: 2.0},
				SessionDuration: ai.Range{Min: 30, Max: 150},
				Satisfaction:    ai.Range{Min: 0.5, Max: 1.0},
				CognitiveLoad:   ai.Range{Min: 0.2, Max: 0.6},
				FlowState:       ai.Range{Min: 0.4, Max: 1.0},
			},
		},
		{
			ID:          "aggressive",
			Name:        "Aggressive Player",
			Description: "Fires constantly and chases the nearest target",
			Preset:      ai.PresetAggressive,
			Targets: ai.TargetRanges{
				CompletionRate:  ai.Range{Min: 0.7, Max: 0.95},
				Attempts:        ai.Range{Min: 1.05, Max: 1.45},
				SessionDuration: ai.Range{Min: 20, Max: 120},
				Satisfaction:    ai.Range{Min: 0.55, Max: 1.0},
				CognitiveLoad:   ai.Range{Min: 0.3, Max: 0.8},
				FlowState:       ai.Range{Min: 0.5, Max: 1.0},
			},
		},
		{
			ID:          "defensive",
			Name:        "Defensive Player",
			Description: "Evades threats first and shoots when safe",
			Preset:      ai.PresetDefensive,
			Targets: ai.TargetRanges{
				CompletionRate:  ai.Range{Min: 0.6, Max: 0.8},
				Attempts:        ai.Range{Min: 1.25, Max: 1.7},
				SessionDuration: ai.Range{Min: 25, Max: 150},
				Satisfaction:    ai.Range{Min: 0.5, Max: 1.0},
				CognitiveLoad:   ai.Range{Min: 0.2, Max: 0.7},
				FlowState:       ai.Range{Min: 0.4, Max: 1.0},
			},
		},
		{
			ID:          "stationary",
			Name:        "Stationary Player",
			Description: "Barely moves and shoots whatever passes overhead",
			Preset:      ai.PresetStationary,
			Targets: ai.TargetRanges{
				CompletionRate:  ai.Range{Min: 0.2, Max: 0.6},
				Attempts:        ai.Range{Min: 1.6, Max: 5.0},
				SessionDuration: ai.Range{Min: 20, Max: 180},
				Satisfaction:    ai.Range{Min: 0.3, Max: 0.9},
				CognitiveLoad:   ai.Range{Min: 0.1, Max: 0.6},
				FlowState:       ai.Range{Min: 0.3, Max: 1.0},
			},
		},
		{
			ID:          "chaotic",
			Name:        "Chaotic Player",
			Description: "Sound decisions with frequent random deviations",
			Preset:      ai.PresetChaotic,
			Targets: ai.TargetRanges{
				CompletionRate:  ai.Range{Min: 0.3, Max: 0.7},
				Attempts:        ai.Range{Min: 1.4, Max: 3.4},
				SessionDuration: ai.Range{Min: 20, Max: 180},
				Satisfaction:    ai.Range{Min: 0.3, Max: 0.9},
				CognitiveLoad:   ai.Range{Min: 0.3, Max: 0.9},
				FlowState:       ai.Range{Min: 0.2, Max: 0.9},
			},
		},
	}
}

// DefaultYAML returns the embedded default configuration document.
func DefaultYAML() []byte {
	return defaultYAML
}
