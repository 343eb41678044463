package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestEmbeddedDefaultsMatchHardcoded(t *testing.T) {
	cfg, err := Parse(DefaultYAML())
	if err != nil {
		t.Fatalf("Parse(embedded) failed: %v", err)
	}
	def := DefaultConfig()

	if cfg.World != def.World {
		t.Errorf("World differs: embedded=%+v hardcoded=%+v", cfg.World, def.World)
	}
	if cfg.Physics != def.Physics {
		t.Errorf("Physics differs: embedded=%+v hardcoded=%+v", cfg.Physics, def.Physics)
	}
	if cfg.Session != def.Session {
		t.Errorf("Session differs: embedded=%+v hardcoded=%+v", cfg.Session, def.Session)
	}
	if cfg.Batch != def.Batch {
		t.Errorf("Batch differs: embedded=%+v hardcoded=%+v", cfg.Batch, def.Batch)
	}
	if len(cfg.Personas) != len(def.Personas) {
		t.Fatalf("Expected %d personas, got %d", len(def.Personas), len(cfg.Personas))
	}
	for i := range def.Personas {
		if cfg.Personas[i] != def.Personas[i] {
			t.Errorf("Persona %d differs: embedded=%+v hardcoded=%+v", i, cfg.Personas[i], def.Personas[i])
		}
	}
}

func TestLoadCustomPathOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.yaml")
	doc := []byte("session:\n  max_wall_time: 30s\nbatch:\n  runs: 7\n")
	if err := os.WriteFile(path, doc, 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.Session.MaxWallTime != 30*time.Second {
		t.Errorf("Expected max_wall_time 30s, got %v", cfg.Session.MaxWallTime)
	}
	if cfg.Batch.Runs != 7 {
		t.Errorf("Expected runs 7, got %d", cfg.Batch.Runs)
	}
	// Untouched keys keep defaults
	if cfg.World.TickRate != 60 {
		t.Errorf("Expected default tick rate 60, got %d", cfg.World.TickRate)
	}
	if len(cfg.Personas) != 5 {
		t.Errorf("Expected 5 default personas, got %d", len(cfg.Personas))
	}
}

func TestLoadMissingCustomPath(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Expected error for missing custom config")
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := map[string]string{
		"restitution above one": "physics:\n  floor_restitution: 1.5\n",
		"zero tick rate":        "world:\n  tick_rate: 0\n",
		"duplicate persona":     "personas:\n  - id: a\n  - id: a\n",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := Parse([]byte(doc)); err == nil {
				t.Errorf("Expected validation error for %s", name)
			}
		})
	}
}

func TestBalanceForTier(t *testing.T) {
	normal := BalanceForTier(TierNormal)
	if normal.EnemySpeed != 1 || normal.SpawnRate != 1 {
		t.Errorf("Normal tier should be neutral, got %+v", normal)
	}
	if BalanceForTier(TierExpert).EnemySpeed <= BalanceForTier(TierEasy).EnemySpeed {
		t.Error("Expert enemies should be faster than easy enemies")
	}

	b := LevelBalance{EnemySpeed: 2, BounceEnergy: 3}.WithDefaults(TierEasy)
	if b.EnemySpeed != 2 {
		t.Errorf("Explicit multiplier should be kept, got %v", b.EnemySpeed)
	}
	if b.SpawnRate != BalanceForTier(TierEasy).SpawnRate {
		t.Errorf("Missing multiplier should come from tier, got %v", b.SpawnRate)
	}
	if b.BounceEnergy != 1 {
		t.Errorf("Bounce energy must be clamped to 1, got %v", b.BounceEnergy)
	}
}

func TestParseDifficultyTier(t *testing.T) {
	tier, err := ParseDifficultyTier("Hard")
	if err != nil || tier != TierHard {
		t.Errorf("Expected TierHard, got %v (%v)", tier, err)
	}
	if _, err := ParseDifficultyTier("nightmare"); err == nil {
		t.Error("Expected error for unknown tier")
	}
	if TierExpert.String() != "expert" {
		t.Errorf("Unexpected tier name %q", TierExpert.String())
	}
}
