// Package config provides YAML-based configuration loading for the simulation
// harness and the difficulty-tier balance presets levels inherit from.
package config

import (
	"time"

	"github.com/vovakirdan/popshot/internal/ai"
	"github.com/vovakirdan/popshot/internal/core"
)

// Config contains all harness configuration.
type Config struct {
	World    WorldConfig   `yaml:"world"`
	Physics  PhysicsConfig `yaml:"physics"`
	Session  SessionConfig `yaml:"session"`
	Batch    BatchConfig   `yaml:"batch"`
	Personas []ai.Persona  `yaml:"personas"`
}

// WorldConfig defines the simulated play field.
type WorldConfig struct {
	Width    float64 `yaml:"width"`
	Height   float64 `yaml:"height"`
	TickRate int     `yaml:"tick_rate"`
}

// Core converts to the core world description with the given seed.
func (w WorldConfig) Core(seed int64) core.WorldConfig {
	return core.WorldConfig{
		Width:    w.Width,
		Height:   w.Height,
		TickRate: w.TickRate,
		Seed:     seed,
	}
}

// PhysicsConfig defines base physics constants. Level balance multipliers
// scale these per level.
type PhysicsConfig struct {
	Gravity            float64 `yaml:"gravity"`             // World units per second squared
	AirResistance      float64 `yaml:"air_resistance"`      // Per-tick velocity factor, < 1
	WallRestitution    float64 `yaml:"wall_restitution"`    // Energy kept on side walls
	CeilingRestitution float64 `yaml:"ceiling_restitution"` // Energy kept on the ceiling
	FloorRestitution   float64 `yaml:"floor_restitution"`   // Energy kept on the floor (highest)
	ProjectileSpeed    float64 `yaml:"projectile_speed"`    // World units per second, upward
	ProjectileWidth    float64 `yaml:"projectile_width"`
	ProjectileHeight   float64 `yaml:"projectile_height"`
	PlayerSpeed        float64 `yaml:"player_speed"` // World units per second
	PlayerWidth        float64 `yaml:"player_width"`
	PlayerHeight       float64 `yaml:"player_height"`
	FireCooldown       float64 `yaml:"fire_cooldown"`  // Seconds between shots
	CleanupMargin      float64 `yaml:"cleanup_margin"` // Distance outside bounds before a target is discarded
	MaxProjectiles     int     `yaml:"max_projectiles"`
}

// SessionConfig defines orchestrator cadence and safety limits.
type SessionConfig struct {
	DecisionInterval    float64       `yaml:"decision_interval"`    // Seconds of sim time between AI decisions
	MaxWallTime         time.Duration `yaml:"max_wall_time"`        // Hard wall-clock cap per session
	MaxSimTime          float64       `yaml:"max_sim_time"`         // Simulated seconds before a session is cut off, 0 = none
	StepDelay           time.Duration `yaml:"step_delay"`           // Artificial per-iteration delay
	MaxRuntimeErrors    int           `yaml:"max_runtime_errors"`   // Recovered iteration errors tolerated
	PerformanceInterval float64       `yaml:"performance_interval"` // Seconds of sim time between performance samples
	ThreatRadius        float64       `yaml:"threat_radius"`        // Distance from the shooter that marks a threat
	Lives               int           `yaml:"lives"`
	InvulnerableTime    float64       `yaml:"invulnerable_time"` // Seconds of immunity after losing a life
}

// BatchConfig defines defaults for batch balance runs.
type BatchConfig struct {
	Runs                int           `yaml:"runs"`
	Parallelism         int           `yaml:"parallelism"`
	Timeout             time.Duration `yaml:"timeout"` // Whole-batch timeout, 0 = none
	Format              string        `yaml:"format"`  // json, yaml, table or text
	Output              string        `yaml:"output"`
	DBPath              string        `yaml:"db_path"`
	LevelsDir           string        `yaml:"levels_dir"`
	ReferenceSampleSize int           `yaml:"reference_sample_size"` // Successful runs needed for full confidence
}

// Persona returns the configured persona with the given ID.
func (c Config) Persona(id string) (ai.Persona, bool) {
	for _, p := range c.Personas {
		if p.ID == id {
			return p, true
		}
	}
	return ai.Persona{}, false
}
