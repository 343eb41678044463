package sim

import (
	"context"
	"time"

	"github.com/vovakirdan/popshot/internal/events"
	"github.com/vovakirdan/popshot/internal/level"
	"github.com/vovakirdan/popshot/internal/metrics"
	"github.com/vovakirdan/popshot/internal/trace"
)

// Result is the outcome of one session. When Success is false the metrics
// are the zero schema and Error says why.
type Result struct {
	SessionID  string            `json:"sessionId" yaml:"sessionId"`
	LevelID    string            `json:"levelId" yaml:"levelId"`
	PersonaID  string            `json:"personaId,omitempty" yaml:"personaId,omitempty"`
	Success    bool              `json:"success" yaml:"success"`
	Metrics    metrics.AIMetrics `json:"metrics" yaml:"metrics"`
	FinalState trace.FinalState  `json:"finalState" yaml:"finalState"`
	Duration   time.Duration     `json:"duration" yaml:"duration"`
	Error      string            `json:"error,omitempty" yaml:"error,omitempty"`
}

// ErrorResult builds a failed result with zeroed metrics.
func ErrorResult(levelID, personaID string, err error) Result {
	return Result{
		LevelID:   levelID,
		PersonaID: personaID,
		Success:   false,
		Metrics:   metrics.AIMetrics{},
		Error:     err.Error(),
	}
}

// FinalState summarizes the session as it stands.
func (s *Session) FinalState() trace.FinalState {
	w := s.world
	return trace.FinalState{
		Outcome:          s.outcome,
		Reason:           s.reason,
		LevelCompleted:   s.outcome == trace.OutcomeCompleted,
		Score:            w.Score,
		Lives:            s.lives,
		InitialLives:     s.opts.Session.Lives,
		Eliminated:       w.Eliminated,
		Spawned:          w.Spawned,
		TotalTargets:     s.level.TotalTargets,
		TargetsRemaining: len(w.Targets),
		Ticks:            s.tick,
		SimTime:          s.elapsed,
		WallTime:         s.wall,
		RuntimeErrors:    s.runtimeErrors,
		WavesEnded:       s.sched.AllWavesEnded(),
		ObjectivesMet:    s.objectivesMet,
	}
}

// Trace returns the full record of the session.
func (s *Session) Trace() trace.Trace {
	return trace.Trace{
		SessionID: s.id,
		LevelID:   s.level.ID,
		PersonaID: s.opts.PersonaID,
		History:   s.history,
		Events:    s.log.Events(),
		Final:     s.FinalState(),
	}
}

func (s *Session) result() Result {
	final := s.FinalState()
	s.notify(final)

	res := Result{
		SessionID:  s.id,
		LevelID:    s.level.ID,
		PersonaID:  s.opts.PersonaID,
		FinalState: final,
		Duration:   s.wall,
	}
	switch {
	case s.reason == trace.ReasonCancelled, s.reason == trace.ReasonRuntimeErrors:
		res.Success = false
		if s.lastErr != nil {
			res.Error = s.lastErr.Error()
		} else {
			res.Error = string(s.reason)
		}
	default:
		res.Success = true
		res.Metrics = metrics.Aggregate(s.Trace())
	}
	return res
}

// notify queues the terminal notification once the session has ended.
func (s *Session) notify(final trace.FinalState) {
	if s.opts.Outbox == nil {
		return
	}
	s.opts.Outbox.Push(events.SessionFinished{
		SessionID:      s.id,
		LevelID:        s.level.ID,
		PersonaID:      s.opts.PersonaID,
		Outcome:        string(final.Outcome),
		Reason:         string(final.Reason),
		LevelCompleted: final.LevelCompleted,
		Score:          final.Score,
		Duration:       s.wall,
		SimTime:        final.SimTime,
	})
}

// RunLevel loads id from cache and runs one session. Load and
// configuration failures produce an error result instead of an error.
func RunLevel(ctx context.Context, cache *level.Cache, id string, opts Options) Result {
	lvl, err := cache.Get(id)
	if err != nil {
		return ErrorResult(id, opts.PersonaID, err)
	}
	s, err := New(lvl, opts)
	if err != nil {
		return ErrorResult(id, opts.PersonaID, err)
	}
	return s.Run(ctx)
}
