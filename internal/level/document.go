package level

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/vovakirdan/popshot/internal/config"
	"gopkg.in/yaml.v3"
)

// Document is the on-disk form of a level, shared by the JSON and YAML
// formats.
type Document struct {
	ID                string                     `json:"id" yaml:"id" jsonschema:"title=Level id,minLength=1,required"`
	Name              string                     `json:"name" yaml:"name" jsonschema:"minLength=1,required"`
	Version           string                     `json:"version" yaml:"version" jsonschema:"minLength=1,required"`
	Description       string                     `json:"description,omitempty" yaml:"description,omitempty"`
	Difficulty        string                     `json:"difficulty" yaml:"difficulty" jsonschema:"enum=tutorial,enum=easy,enum=normal,enum=hard,enum=expert,required"`
	Objectives        []ObjectiveDocument        `json:"objectives" yaml:"objectives" jsonschema:"minItems=1,required"`
	FailureConditions []FailureConditionDocument `json:"failureConditions,omitempty" yaml:"failureConditions,omitempty"`
	TotalTargets      int                        `json:"totalTargets,omitempty" yaml:"totalTargets,omitempty" jsonschema:"description=Declared total; must equal the sum of wave counts"`
	Waves             []WaveDocument             `json:"waves" yaml:"waves" jsonschema:"minItems=1,required"`
	Balance           config.LevelBalance        `json:"balance,omitempty" yaml:"balance,omitempty"`
	Environment       EnvironmentDocument        `json:"environment,omitempty" yaml:"environment,omitempty"`
}

// ObjectiveDocument is the on-disk form of an Objective.
type ObjectiveDocument struct {
	Type     string  `json:"type" yaml:"type" jsonschema:"enum=eliminate_all,enum=reach_score,enum=accuracy,enum=survive,required"`
	Target   float64 `json:"target,omitempty" yaml:"target,omitempty"`
	Optional bool    `json:"optional,omitempty" yaml:"optional,omitempty"`
}

// FailureConditionDocument is the on-disk form of a FailureCondition.
type FailureConditionDocument struct {
	Type      string  `json:"type" yaml:"type" jsonschema:"enum=timeLimit,enum=targetFailRate,enum=livesLost,required"`
	Threshold float64 `json:"threshold" yaml:"threshold" jsonschema:"required"`
}

// WaveDocument is the on-disk form of an EnemyWave.
type WaveDocument struct {
	ID         string          `json:"id" yaml:"id" jsonschema:"required"`
	StartTime  float64         `json:"startTime" yaml:"startTime" jsonschema:"minimum=0"`
	Duration   float64         `json:"duration" yaml:"duration" jsonschema:"required"`
	Pattern    string          `json:"pattern,omitempty" yaml:"pattern,omitempty" jsonschema:"enum=random,enum=sequential,enum=center_out,enum=corners,enum=left,enum=center,enum=right,enum=high_left,enum=high_right"`
	SpeedBonus float64         `json:"speedBonus,omitempty" yaml:"speedBonus,omitempty"`
	Enemies    []SpawnDocument `json:"enemies" yaml:"enemies" jsonschema:"minItems=1,required"`
}

// SpawnDocument is the on-disk form of an EnemySpawnDefinition.
type SpawnDocument struct {
	Type          string        `json:"type,omitempty" yaml:"type,omitempty"`
	Tier          int           `json:"tier" yaml:"tier" jsonschema:"minimum=1,maximum=3,required"`
	Count         int           `json:"count" yaml:"count" jsonschema:"minimum=1,required"`
	SpawnInterval float64       `json:"spawnInterval" yaml:"spawnInterval" jsonschema:"required"`
	Movement      string        `json:"movement,omitempty" yaml:"movement,omitempty" jsonschema:"enum=standard,enum=fast,enum=floaty,enum=heavy"`
	Split         SplitDocument `json:"split,omitempty" yaml:"split,omitempty"`
}

// SplitDocument is the on-disk form of a SplitBehavior.
type SplitDocument struct {
	Enabled       bool    `json:"enabled,omitempty" yaml:"enabled,omitempty"`
	Count         int     `json:"count,omitempty" yaml:"count,omitempty"`
	SizeReduction float64 `json:"sizeReduction,omitempty" yaml:"sizeReduction,omitempty"`
	SpeedBonus    float64 `json:"speedBonus,omitempty" yaml:"speedBonus,omitempty"`
}

// EnvironmentDocument is the on-disk form of an Environment.
type EnvironmentDocument struct {
	WallBounce    float64 `json:"wallBounce,omitempty" yaml:"wallBounce,omitempty" jsonschema:"minimum=0,maximum=1"`
	CeilingBounce float64 `json:"ceilingBounce,omitempty" yaml:"ceilingBounce,omitempty" jsonschema:"minimum=0,maximum=1"`
	FloorBounce   float64 `json:"floorBounce,omitempty" yaml:"floorBounce,omitempty" jsonschema:"minimum=0,maximum=1"`
	AirResistance float64 `json:"airResistance,omitempty" yaml:"airResistance,omitempty" jsonschema:"minimum=0,maximum=1"`
}

// Default split values applied when a document enables splitting without
// specifying them.
const (
	DefaultSplitCount         = 2
	DefaultSplitSizeReduction = 0.7
	DefaultSplitSpeedBonus    = 1.15
)

// FormatExtensions returns supported file extensions.
func FormatExtensions() []string {
	return []string{".json", ".yaml", ".yml"}
}

// Parse decodes a level document, routing by file extension, applies tier
// defaults and validates it. Warnings are returned alongside a valid level.
func Parse(data []byte, ext string) (*Level, []Warning, error) {
	var doc Document
	switch strings.ToLower(ext) {
	case ".json":
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&doc); err != nil {
			return nil, nil, fmt.Errorf("level: json decode: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, nil, fmt.Errorf("level: yaml unmarshal: %w", err)
		}
	default:
		return nil, nil, fmt.Errorf("level: unsupported extension: %q", ext)
	}

	l, err := doc.ToLevel()
	if err != nil {
		return nil, nil, err
	}
	warnings, err := Validate(l)
	if err != nil {
		return nil, warnings, err
	}
	return l, warnings, nil
}

// ToLevel converts the document into a Level, filling defaults. The result
// is not validated.
func (d Document) ToLevel() (*Level, error) {
	l := &Level{
		ID:           strings.TrimSpace(d.ID),
		Name:         strings.TrimSpace(d.Name),
		Version:      strings.TrimSpace(d.Version),
		Description:  d.Description,
		TotalTargets: d.TotalTargets,
		Environment: Environment{
			WallBounce:    d.Environment.WallBounce,
			CeilingBounce: d.Environment.CeilingBounce,
			FloorBounce:   d.Environment.FloorBounce,
			AirResistance: d.Environment.AirResistance,
		},
	}

	if d.Difficulty != "" {
		tier, err := config.ParseDifficultyTier(d.Difficulty)
		if err != nil {
			return nil, ValidationError{Code: "INVALID_DIFFICULTY", Message: err.Error()}
		}
		l.Difficulty = tier
	}
	l.Balance = d.Balance.WithDefaults(l.Difficulty)

	for _, o := range d.Objectives {
		l.Objectives = append(l.Objectives, Objective{
			Type:     ObjectiveType(o.Type),
			Target:   o.Target,
			Optional: o.Optional,
		})
	}
	for _, f := range d.FailureConditions {
		l.FailureConditions = append(l.FailureConditions, FailureCondition{
			Type:      FailureType(f.Type),
			Threshold: f.Threshold,
		})
	}
	for _, w := range d.Waves {
		wave := EnemyWave{
			ID:         w.ID,
			StartTime:  w.StartTime,
			Duration:   w.Duration,
			Pattern:    Pattern(w.Pattern),
			SpeedBonus: w.SpeedBonus,
		}
		if wave.Pattern == "" {
			wave.Pattern = PatternRandom
		}
		for _, e := range w.Enemies {
			spawn := EnemySpawnDefinition{
				TargetType:    e.Type,
				Tier:          e.Tier,
				Count:         e.Count,
				SpawnInterval: e.SpawnInterval,
				Movement:      Movement(e.Movement),
				Split: SplitBehavior{
					Enabled:       e.Split.Enabled,
					Count:         e.Split.Count,
					SizeReduction: e.Split.SizeReduction,
					SpeedBonus:    e.Split.SpeedBonus,
				},
			}
			if spawn.TargetType == "" {
				spawn.TargetType = "bubble"
			}
			if spawn.Movement == "" {
				spawn.Movement = MovementStandard
			}
			if spawn.Split.Enabled {
				if spawn.Split.Count == 0 {
					spawn.Split.Count = DefaultSplitCount
				}
				if spawn.Split.SizeReduction == 0 {
					spawn.Split.SizeReduction = DefaultSplitSizeReduction
				}
				if spawn.Split.SpeedBonus == 0 {
					spawn.Split.SpeedBonus = DefaultSplitSpeedBonus
				}
			}
			wave.Spawns = append(wave.Spawns, spawn)
		}
		l.Waves = append(l.Waves, wave)
	}

	if l.TotalTargets == 0 {
		l.TotalTargets = l.WaveTotal()
	}
	return l, nil
}
