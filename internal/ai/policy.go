// Package ai implements the pluggable decision policies that drive a
// simulation session, the persona presets that parameterize them and the
// retrospective decision-quality labels used by the metrics.
package ai

import "github.com/vovakirdan/popshot/internal/core"

// PresetKey names a decision-policy preset.
type PresetKey string

const (
	PresetAggressive PresetKey = "aggressive"
	PresetDefensive  PresetKey = "defensive"
	PresetStationary PresetKey = "stationary"
	PresetChaotic    PresetKey = "chaotic"
	PresetIdle       PresetKey = "idle"
)

// Selection is how a policy picks the target it works on.
type Selection int

const (
	SelectNearest Selection = iota // Smallest horizontal distance
	SelectLowest                   // Closest to the floor
	SelectLargest                  // Highest tier first
)

// Params biases a heuristic policy.
type Params struct {
	FireProximity   float64   // Max horizontal offset from the lead point to fire
	ThreatThreshold float64   // Horizontal distance that triggers evasion
	DangerZone      float64   // Fraction of field height below which targets can be threats
	Responsiveness  float64   // Probability a decision acts at all
	Noise           float64   // Probability of replacing a decision with a random one
	ReactionDelay   float64   // Seconds before a new focus is acted on
	Selection       Selection // Focus selection strategy
	MoveRange       float64   // Max distance from the start position, 0 = unlimited
}

// PresetParams returns the parameters of a preset. Unknown keys get the
// defensive parameters.
func PresetParams(key PresetKey) Params {
	switch key {
	case PresetAggressive:
		return Params{FireProximity: 18, ThreatThreshold: 40, DangerZone: 0.75, Responsiveness: 0.95, ReactionDelay: 0.18, Selection: SelectNearest}
	case PresetStationary:
		return Params{FireProximity: 26, ThreatThreshold: 30, DangerZone: 0.85, Responsiveness: 0.7, ReactionDelay: 0.35, Selection: SelectNearest, MoveRange: 40}
	case PresetChaotic:
		return Params{FireProximity: 20, ThreatThreshold: 60, DangerZone: 0.65, Responsiveness: 0.8, Noise: 0.3, ReactionDelay: 0.25, Selection: SelectNearest}
	case PresetIdle:
		return Params{}
	default:
		return Params{FireProximity: 12, ThreatThreshold: 90, DangerZone: 0.55, Responsiveness: 0.85, ReactionDelay: 0.28, Selection: SelectLowest}
	}
}

// Decision is what a policy returns for one snapshot.
type Decision struct {
	Action core.Action
	// FocusID is the target the decision works on, 0 if none.
	FocusID int
	// ReactionTime is set on the first acting decision after the focus
	// changed: seconds between noticing the focus and acting on it. Zero
	// means the decision carries no reaction sample.
	ReactionTime float64
	// Evasive marks movement chosen to avoid a threat.
	Evasive bool
}

// Policy maps a world snapshot to a decision. Implementations may keep
// per-session state and are not safe for concurrent use; each session owns
// its own instance.
type Policy interface {
	Decide(s WorldState) Decision
}

// IdlePolicy never acts.
type IdlePolicy struct{}

// Decide always returns idle.
func (IdlePolicy) Decide(WorldState) Decision {
	return Decision{Action: core.Idle()}
}
