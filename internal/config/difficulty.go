package config

import (
	"fmt"
	"strings"
)

// DifficultyTier is the designer-assigned difficulty class of a level.
type DifficultyTier int

const (
	TierTutorial DifficultyTier = iota + 1
	TierEasy
	TierNormal
	TierHard
	TierExpert
)

// String returns the tier name used in level documents.
func (t DifficultyTier) String() string {
	switch t {
	case TierTutorial:
		return "tutorial"
	case TierEasy:
		return "easy"
	case TierNormal:
		return "normal"
	case TierHard:
		return "hard"
	case TierExpert:
		return "expert"
	default:
		return fmt.Sprintf("tier(%d)", int(t))
	}
}

// Valid reports whether t is one of the known tiers.
func (t DifficultyTier) Valid() bool {
	return t >= TierTutorial && t <= TierExpert
}

// ParseDifficultyTier accepts a tier name or its number.
func ParseDifficultyTier(s string) (DifficultyTier, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "tutorial", "1":
		return TierTutorial, nil
	case "easy", "2":
		return TierEasy, nil
	case "normal", "3":
		return TierNormal, nil
	case "hard", "4":
		return TierHard, nil
	case "expert", "5":
		return TierExpert, nil
	}
	return 0, fmt.Errorf("unknown difficulty tier %q", s)
}

// LevelBalance holds the per-level multipliers applied to base physics and
// spawning. A zero field means "inherit from the difficulty tier".
type LevelBalance struct {
	EnemySpeed      float64 `json:"enemySpeed,omitempty" yaml:"enemySpeed,omitempty"`
	SpawnRate       float64 `json:"spawnRate,omitempty" yaml:"spawnRate,omitempty"`
	EnemySize       float64 `json:"enemySize,omitempty" yaml:"enemySize,omitempty"`
	Gravity         float64 `json:"gravity,omitempty" yaml:"gravity,omitempty"`
	BounceEnergy    float64 `json:"bounceEnergy,omitempty" yaml:"bounceEnergy,omitempty"`
	PlayerSpeed     float64 `json:"playerSpeed,omitempty" yaml:"playerSpeed,omitempty"`
	ProjectileSpeed float64 `json:"projectileSpeed,omitempty" yaml:"projectileSpeed,omitempty"`
}

// BalanceForTier returns the default multipliers for a difficulty tier.
// Unknown tiers get the normal preset.
func BalanceForTier(t DifficultyTier) LevelBalance {
	switch t {
	case TierTutorial:
		return LevelBalance{EnemySpeed: 0.7, SpawnRate: 0.7, EnemySize: 1.2, Gravity: 0.8, BounceEnergy: 0.95, PlayerSpeed: 1.2, ProjectileSpeed: 1.2}
	case TierEasy:
		return LevelBalance{EnemySpeed: 0.85, SpawnRate: 0.85, EnemySize: 1.1, Gravity: 0.9, BounceEnergy: 0.97, PlayerSpeed: 1.1, ProjectileSpeed: 1.1}
	case TierHard:
		return LevelBalance{EnemySpeed: 1.15, SpawnRate: 1.2, EnemySize: 0.95, Gravity: 1.1, BounceEnergy: 1.0, PlayerSpeed: 1.0, ProjectileSpeed: 0.95}
	case TierExpert:
		return LevelBalance{EnemySpeed: 1.3, SpawnRate: 1.4, EnemySize: 0.9, Gravity: 1.2, BounceEnergy: 1.0, PlayerSpeed: 0.95, ProjectileSpeed: 0.9}
	default:
		return LevelBalance{EnemySpeed: 1, SpawnRate: 1, EnemySize: 1, Gravity: 1, BounceEnergy: 1, PlayerSpeed: 1, ProjectileSpeed: 1}
	}
}

// WithDefaults fills zero multipliers from the tier preset.
func (b LevelBalance) WithDefaults(t DifficultyTier) LevelBalance {
	d := BalanceForTier(t)
	if b.EnemySpeed <= 0 {
		b.EnemySpeed = d.EnemySpeed
	}
	if b.SpawnRate <= 0 {
		b.SpawnRate = d.SpawnRate
	}
	if b.EnemySize <= 0 {
		b.EnemySize = d.EnemySize
	}
	if b.Gravity <= 0 {
		b.Gravity = d.Gravity
	}
	if b.BounceEnergy <= 0 {
		b.BounceEnergy = d.BounceEnergy
	}
	if b.PlayerSpeed <= 0 {
		b.PlayerSpeed = d.PlayerSpeed
	}
	if b.ProjectileSpeed <= 0 {
		b.ProjectileSpeed = d.ProjectileSpeed
	}
	// Bounces must never add energy.
	b.BounceEnergy = clampF(b.BounceEnergy, 0, 1)
	return b
}

// clampF restricts a float64 to [min, max].
func clampF(val, min, max float64) float64 {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}
