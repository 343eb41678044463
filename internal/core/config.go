package core

import "time"

// WorldConfig describes the simulated play field and its fixed timestep.
// Sessions use it to size bounds and to derive dt.
type WorldConfig struct {
	Width    float64 // Play field width in world units
	Height   float64 // Play field height in world units
	TickRate int     // Physics ticks per simulated second (default 60)
	Seed     int64   // RNG seed for deterministic simulation
}

// DefaultWorldConfig returns a WorldConfig with sensible defaults.
// The field is portrait, matching the phone layout the game targets.
func DefaultWorldConfig() WorldConfig {
	return WorldConfig{
		Width:    400,
		Height:   700,
		TickRate: 60,
		Seed:     0, // 0 means derive from the current time in the caller
	}
}

// Dt returns the fixed timestep in seconds.
func (c WorldConfig) Dt() float64 {
	if c.TickRate <= 0 {
		return 1.0 / 60.0
	}
	return 1.0 / float64(c.TickRate)
}

// TickDuration returns the fixed timestep as a time.Duration.
func (c WorldConfig) TickDuration() time.Duration {
	return time.Duration(c.Dt() * float64(time.Second))
}
