// Package trace holds the record a simulation session hands to the metrics
// aggregator: the per-iteration history, the analytics events and the final
// state.
package trace

import (
	"time"

	"github.com/vovakirdan/popshot/internal/core"
	"github.com/vovakirdan/popshot/internal/events"
)

// Outcome is the state of a session's lifecycle.
type Outcome string

const (
	OutcomeRunning   Outcome = "running"
	OutcomeCompleted Outcome = "completed"
	OutcomeFailed    Outcome = "failed"
	OutcomeTimedOut  Outcome = "timed_out"
)

// Terminal reports whether o ends a session.
func (o Outcome) Terminal() bool {
	return o != OutcomeRunning && o != ""
}

// Reason explains a terminal outcome.
type Reason string

const (
	ReasonNone            Reason = ""
	ReasonCleared         Reason = "cleared"
	ReasonTimeLimit       Reason = "time_limit"
	ReasonTargetFailRate  Reason = "target_fail_rate"
	ReasonLivesLost       Reason = "lives_lost"
	ReasonObjectivesUnmet Reason = "objectives_unmet"
	ReasonRuntimeErrors   Reason = "runtime_errors"
	ReasonWallClock       Reason = "wall_clock"
	ReasonSimTime         Reason = "sim_time"
	ReasonCancelled       Reason = "cancelled"
)

// Snapshot is the compact world state stored with every history record.
type Snapshot struct {
	PlayerX     float64
	Score       int
	Lives       int
	Targets     int
	Projectiles int
	Threats     int
}

// HistoryRecord is one loop iteration: the state after the step, the action
// executed (idle when no decision was due) and the simulated time.
type HistoryRecord struct {
	Tick    int
	Time    float64
	State   Snapshot
	Action  core.Action
	Decided bool // A policy decision was made this iteration
}

// FinalState summarizes a session at its terminal state.
type FinalState struct {
	Outcome          Outcome
	Reason           Reason
	LevelCompleted   bool
	Score            int
	Lives            int
	InitialLives     int
	Eliminated       int
	Spawned          int
	TotalTargets     int
	TargetsRemaining int
	Ticks            int
	SimTime          float64       // Seconds of simulated play
	WallTime         time.Duration // Real time the loop ran
	RuntimeErrors    int
	WavesEnded       bool
	ObjectivesMet    bool
}

// LivesLost returns how many lives the session lost.
func (f FinalState) LivesLost() int {
	if f.InitialLives <= f.Lives {
		return 0
	}
	return f.InitialLives - f.Lives
}

// Trace is the full record of one session.
type Trace struct {
	SessionID string
	LevelID   string
	PersonaID string
	History   []HistoryRecord
	Events    []events.Event
	Final     FinalState
}
