// Package events defines the closed set of analytics events a simulation
// session emits, plus the log, subscriber bus and outbound queue that carry
// them.
package events

import (
	"github.com/vovakirdan/popshot/internal/ai"
	"github.com/vovakirdan/popshot/internal/core"
)

// Kind is the wire name of an event variant.
type Kind string

const (
	KindShot           Kind = "shot"
	KindHit            Kind = "hit"
	KindMiss           Kind = "miss"
	KindElimination    Kind = "elimination"
	KindThreatDetected Kind = "threat_detected"
	KindDodge          Kind = "dodge"
	KindDecision       Kind = "decision"
	KindPerformance    Kind = "performance"
	KindWaveStarted    Kind = "wave_started"
	KindWaveEnded      Kind = "wave_ended"
	KindLifeLost       Kind = "life_lost"
)

// Event is one analytics event. The set of implementations is closed: only
// types in this package satisfy it, so consumers can switch exhaustively.
type Event interface {
	Kind() Kind
	// At returns the simulated time in seconds since level start.
	At() float64
	analyticsEvent()
}

// Shot is emitted when a projectile is fired.
type Shot struct {
	Time         float64
	ProjectileID int
	X            float64
}

func (Shot) Kind() Kind      { return KindShot }
func (e Shot) At() float64   { return e.Time }
func (Shot) analyticsEvent() {}

// Hit is emitted when a projectile strikes a target.
type Hit struct {
	Time         float64
	ProjectileID int
	TargetID     int
	Tier         int
	Points       int
	Pos          core.Vec2
}

func (Hit) Kind() Kind      { return KindHit }
func (e Hit) At() float64   { return e.Time }
func (Hit) analyticsEvent() {}

// Miss is emitted when a projectile leaves the top boundary without a hit.
type Miss struct {
	Time         float64
	ProjectileID int
	X            float64
}

func (Miss) Kind() Kind      { return KindMiss }
func (e Miss) At() float64   { return e.Time }
func (Miss) analyticsEvent() {}

// Elimination is emitted when a target is destroyed. Split is true when the
// target broke into Children smaller targets instead of disappearing.
type Elimination struct {
	Time     float64
	TargetID int
	Tier     int
	Split    bool
	Children int
}

func (Elimination) Kind() Kind      { return KindElimination }
func (e Elimination) At() float64   { return e.Time }
func (Elimination) analyticsEvent() {}

// ThreatDetected is emitted when a target first enters the threat radius
// around the shooter.
type ThreatDetected struct {
	Time     float64
	TargetID int
	Distance float64
}

func (ThreatDetected) Kind() Kind      { return KindThreatDetected }
func (e ThreatDetected) At() float64   { return e.Time }
func (ThreatDetected) analyticsEvent() {}

// Dodge closes a threat: Success is false when the threat touched the shooter.
type Dodge struct {
	Time     float64
	TargetID int
	Success  bool
	Duration float64 // Seconds the threat was active
}

func (Dodge) Kind() Kind      { return KindDodge }
func (e Dodge) At() float64   { return e.Time }
func (Dodge) analyticsEvent() {}

// Decision records one AI policy decision and its retrospective label.
type Decision struct {
	Time         float64
	Action       core.Action
	FocusID      int
	ReactionTime float64 // Zero when the decision carries no reaction sample
	Evasive      bool
	Quality      ai.Quality
	Targets      int // Live targets when the decision was made
	Threats      int // Active threats when the decision was made
}

func (Decision) Kind() Kind      { return KindDecision }
func (e Decision) At() float64   { return e.Time }
func (Decision) analyticsEvent() {}

// Performance samples loop cost and entity load.
type Performance struct {
	Time        float64
	FrameMillis float64 // Wall-clock cost of the sampled iteration
	Targets     int
	Projectiles int
	Threats     int
}

func (Performance) Kind() Kind      { return KindPerformance }
func (e Performance) At() float64   { return e.Time }
func (Performance) analyticsEvent() {}

// WaveStarted is emitted once when a wave activates.
type WaveStarted struct {
	Time   float64
	WaveID string
}

func (WaveStarted) Kind() Kind      { return KindWaveStarted }
func (e WaveStarted) At() float64   { return e.Time }
func (WaveStarted) analyticsEvent() {}

// WaveEnded is emitted once when a wave deactivates.
type WaveEnded struct {
	Time    float64
	WaveID  string
	Spawned int
}

func (WaveEnded) Kind() Kind      { return KindWaveEnded }
func (e WaveEnded) At() float64   { return e.Time }
func (WaveEnded) analyticsEvent() {}

// LifeLost is emitted when a target touches the shooter.
type LifeLost struct {
	Time      float64
	TargetID  int
	LivesLeft int
}

func (LifeLost) Kind() Kind      { return KindLifeLost }
func (e LifeLost) At() float64   { return e.Time }
func (LifeLost) analyticsEvent() {}

// Sink receives events as they are emitted.
type Sink interface {
	Emit(e Event)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(e Event)

// Emit calls f(e).
func (f SinkFunc) Emit(e Event) { f(e) }

// Discard is a Sink that drops every event.
var Discard Sink = SinkFunc(func(Event) {})
