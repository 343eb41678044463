// Package level loads, validates and caches level documents. A loaded Level
// is immutable: sessions share one instance read-only.
package level

import "github.com/vovakirdan/popshot/internal/config"

// ObjectiveType names what a level asks the player to do.
type ObjectiveType string

const (
	ObjectiveEliminateAll ObjectiveType = "eliminate_all"
	ObjectiveReachScore   ObjectiveType = "reach_score"
	ObjectiveAccuracy     ObjectiveType = "accuracy"
	ObjectiveSurvive      ObjectiveType = "survive"
)

// Valid reports whether t is a known objective type.
func (t ObjectiveType) Valid() bool {
	switch t {
	case ObjectiveEliminateAll, ObjectiveReachScore, ObjectiveAccuracy, ObjectiveSurvive:
		return true
	}
	return false
}

// Objective is one goal of a level. Target is the score, the accuracy
// percentage or the seconds to survive, depending on Type.
type Objective struct {
	Type     ObjectiveType
	Target   float64
	Optional bool
}

// FailureType names a condition that ends a session as failed.
type FailureType string

const (
	FailureTimeLimit      FailureType = "timeLimit"      // Seconds of play
	FailureTargetFailRate FailureType = "targetFailRate" // Missed shots
	FailureLivesLost      FailureType = "livesLost"      // Lives lost
)

// Valid reports whether t is a known failure type.
func (t FailureType) Valid() bool {
	switch t {
	case FailureTimeLimit, FailureTargetFailRate, FailureLivesLost:
		return true
	}
	return false
}

// FailureCondition ends a session once its counter reaches Threshold.
type FailureCondition struct {
	Type      FailureType
	Threshold float64
}

// Pattern is a horizontal spawn-position strategy.
type Pattern string

const (
	PatternRandom     Pattern = "random"
	PatternSequential Pattern = "sequential"
	PatternCenterOut  Pattern = "center_out"
	PatternCorners    Pattern = "corners"

	// Legacy fixed-point patterns.
	PatternLeft      Pattern = "left"
	PatternCenter    Pattern = "center"
	PatternRight     Pattern = "right"
	PatternHighLeft  Pattern = "high_left"
	PatternHighRight Pattern = "high_right"
)

// Patterns lists every supported pattern.
func Patterns() []Pattern {
	return []Pattern{
		PatternRandom, PatternSequential, PatternCenterOut, PatternCorners,
		PatternLeft, PatternCenter, PatternRight, PatternHighLeft, PatternHighRight,
	}
}

// Valid reports whether p is a known pattern.
func (p Pattern) Valid() bool {
	for _, v := range Patterns() {
		if p == v {
			return true
		}
	}
	return false
}

// Movement modifies how a spawned target moves.
type Movement string

const (
	MovementStandard Movement = "standard"
	MovementFast     Movement = "fast"
	MovementFloaty   Movement = "floaty"
	MovementHeavy    Movement = "heavy"
)

// Modifier returns the speed multiplier and gravity scale of a movement
// type. Unknown or empty movement is standard.
func (m Movement) Modifier() (speed, gravity float64) {
	switch m {
	case MovementFast:
		return 1.35, 1
	case MovementFloaty:
		return 0.8, 0.55
	case MovementHeavy:
		return 0.9, 1.4
	default:
		return 1, 1
	}
}

// Valid reports whether m is a known movement type.
func (m Movement) Valid() bool {
	switch m {
	case "", MovementStandard, MovementFast, MovementFloaty, MovementHeavy:
		return true
	}
	return false
}

// SplitBehavior describes the children a destroyed target spawns. Tier-1
// targets never split regardless of this value.
type SplitBehavior struct {
	Enabled       bool
	Count         int
	SizeReduction float64 // Child size = parent size * SizeReduction
	SpeedBonus    float64 // Child speed multiplier
}

// EnemySpawnDefinition spawns Count targets, one every SpawnInterval
// seconds, with its own cadence counter.
type EnemySpawnDefinition struct {
	TargetType    string
	Tier          int
	Count         int
	SpawnInterval float64
	Movement      Movement
	Split         SplitBehavior
}

// EnemyWave is a timed group of spawn definitions active during
// [StartTime, StartTime+Duration].
type EnemyWave struct {
	ID         string
	StartTime  float64
	Duration   float64
	Pattern    Pattern
	SpeedBonus float64 // Added to the speed multiplier of every target
	Spawns     []EnemySpawnDefinition
}

// EndTime returns when the wave deactivates.
func (w EnemyWave) EndTime() float64 {
	return w.StartTime + w.Duration
}

// Count returns the number of targets the wave spawns.
func (w EnemyWave) Count() int {
	n := 0
	for _, s := range w.Spawns {
		n += s.Count
	}
	return n
}

// Environment overrides the physics defaults for one level. Zero fields
// inherit the application configuration.
type Environment struct {
	WallBounce    float64
	CeilingBounce float64
	FloorBounce   float64
	AirResistance float64
}

// Level is a loaded, validated level.
type Level struct {
	ID                string
	Name              string
	Version           string
	Description       string
	Difficulty        config.DifficultyTier
	Objectives        []Objective
	FailureConditions []FailureCondition
	Waves             []EnemyWave
	TotalTargets      int
	Balance           config.LevelBalance
	Environment       Environment
	FilePath          string
}

// WaveTotal returns the sum of per-wave target counts.
func (l *Level) WaveTotal() int {
	n := 0
	for _, w := range l.Waves {
		n += w.Count()
	}
	return n
}

// LastWaveEnd returns the end time of the latest wave.
func (l *Level) LastWaveEnd() float64 {
	end := 0.0
	for _, w := range l.Waves {
		if e := w.EndTime(); e > end {
			end = e
		}
	}
	return end
}

// Failure returns the threshold of the first failure condition of type t.
func (l *Level) Failure(t FailureType) (float64, bool) {
	for _, f := range l.FailureConditions {
		if f.Type == t {
			return f.Threshold, true
		}
	}
	return 0, false
}

// EstimatedDuration returns the expected length of a session in seconds:
// the time limit when one is set, else the end of the last wave.
func (l *Level) EstimatedDuration() float64 {
	if limit, ok := l.Failure(FailureTimeLimit); ok && limit > 0 {
		return limit
	}
	return l.LastWaveEnd()
}

// RequiredObjectives returns the objectives that gate completion.
func (l *Level) RequiredObjectives() []Objective {
	out := make([]Objective, 0, len(l.Objectives))
	for _, o := range l.Objectives {
		if !o.Optional {
			out = append(out, o)
		}
	}
	return out
}
