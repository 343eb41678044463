package ai

import "math"

// Range is an inclusive [Min, Max] band a persona expects a metric to fall in.
type Range struct {
	Min float64 `yaml:"min" json:"min"`
	Max float64 `yaml:"max" json:"max"`
}

// Contains reports whether v is inside the band.
func (r Range) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

// Distance returns how far v lies outside the band, relative to the band
// width. Zero means inside.
func (r Range) Distance(v float64) float64 {
	width := r.Max - r.Min
	if width <= 0 {
		width = math.Max(math.Abs(r.Max), 1)
	}
	switch {
	case v < r.Min:
		return (r.Min - v) / width
	case v > r.Max:
		return (v - r.Max) / width
	default:
		return 0
	}
}

// TargetRanges are the metric bands a persona considers a well-balanced level.
type TargetRanges struct {
	CompletionRate  Range `yaml:"completion_rate" json:"completionRate"`
	Attempts        Range `yaml:"attempts" json:"attempts"`
	SessionDuration Range `yaml:"session_duration" json:"sessionDuration"` // Seconds
	Satisfaction    Range `yaml:"satisfaction" json:"satisfaction"`
	CognitiveLoad   Range `yaml:"cognitive_load" json:"cognitiveLoad"`
	FlowState       Range `yaml:"flow_state" json:"flowState"`
}

// Persona is a simulated player archetype: a policy preset plus the metric
// ranges it should observe on a healthy level. Personas are immutable once
// loaded.
type Persona struct {
	ID            string       `yaml:"id" json:"id"`
	Name          string       `yaml:"name" json:"name"`
	Description   string       `yaml:"description,omitempty" json:"description,omitempty"`
	Preset        PresetKey    `yaml:"preset" json:"preset"`
	ReactionScale float64      `yaml:"reaction_scale,omitempty" json:"reactionScale,omitempty"` // Multiplies the preset reaction delay, 0 = 1
	Targets       TargetRanges `yaml:"targets" json:"targets"`
}

// Params returns the preset parameters adjusted for this persona.
func (p Persona) Params() Params {
	params := PresetParams(p.Preset)
	if p.ReactionScale > 0 {
		params.ReactionDelay *= p.ReactionScale
	}
	return params
}
