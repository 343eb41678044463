package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Load loads the harness configuration.
// Search order: customPath -> ~/.popshot/config.yaml -> ./configs/popshot.yaml -> embedded default
func Load(customPath string) (Config, error) {
	// Try custom path first
	if customPath != "" {
		data, err := os.ReadFile(customPath)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config %s: %w", customPath, err)
		}
		cfg, err := Parse(data)
		if err != nil {
			return Config{}, fmt.Errorf("failed to parse config %s: %w", customPath, err)
		}
		return cfg, nil
	}

	// Try user config directory
	if userCfgPath := userConfigPath("config.yaml"); userCfgPath != "" {
		if data, err := os.ReadFile(userCfgPath); err == nil {
			if cfg, err := Parse(data); err == nil {
				return cfg, nil
			}
		}
	}

	// Try local configs directory
	if data, err := os.ReadFile("configs/popshot.yaml"); err == nil {
		if cfg, err := Parse(data); err == nil {
			return cfg, nil
		}
	}

	// Use embedded default YAML
	cfg, err := Parse(defaultYAML)
	if err != nil {
		return DefaultConfig(), nil // Fallback to hardcoded if embed fails
	}
	return cfg, nil
}

// Parse decodes a YAML document over the defaults, so omitted keys keep
// their default values.
func Parse(data []byte) (Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks values the simulation cannot run without.
func (c Config) Validate() error {
	if c.World.Width <= 0 || c.World.Height <= 0 {
		return fmt.Errorf("world size must be positive, got %vx%v", c.World.Width, c.World.Height)
	}
	if c.World.TickRate <= 0 {
		return fmt.Errorf("tick_rate must be positive, got %d", c.World.TickRate)
	}
	if c.Physics.AirResistance <= 0 || c.Physics.AirResistance > 1 {
		return fmt.Errorf("air_resistance must be in (0, 1], got %v", c.Physics.AirResistance)
	}
	for name, v := range map[string]float64{
		"wall_restitution":    c.Physics.WallRestitution,
		"ceiling_restitution": c.Physics.CeilingRestitution,
		"floor_restitution":   c.Physics.FloorRestitution,
	} {
		if v < 0 || v > 1 {
			return fmt.Errorf("%s must be in [0, 1], got %v", name, v)
		}
	}
	if c.Session.DecisionInterval <= 0 {
		return fmt.Errorf("decision_interval must be positive, got %v", c.Session.DecisionInterval)
	}
	if c.Session.MaxSimTime < 0 {
		return fmt.Errorf("max_sim_time cannot be negative, got %v", c.Session.MaxSimTime)
	}
	if c.Session.MaxWallTime <= 0 {
		return fmt.Errorf("max_wall_time must be positive, got %v", c.Session.MaxWallTime)
	}
	seen := make(map[string]bool, len(c.Personas))
	for _, p := range c.Personas {
		if p.ID == "" {
			return fmt.Errorf("persona without id")
		}
		if seen[p.ID] {
			return fmt.Errorf("duplicate persona %q", p.ID)
		}
		seen[p.ID] = true
	}
	return nil
}

// userConfigPath returns the path to user config file, or empty if home is unavailable.
func userConfigPath(filename string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".popshot", filename)
}
