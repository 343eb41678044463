package sim

import (
	"context"
	"fmt"
	"time"

	"github.com/vovakirdan/popshot/internal/ai"
	"github.com/vovakirdan/popshot/internal/core"
	"github.com/vovakirdan/popshot/internal/events"
	"github.com/vovakirdan/popshot/internal/level"
	"github.com/vovakirdan/popshot/internal/metrics"
	"github.com/vovakirdan/popshot/internal/trace"
)

// Run drives the session to a terminal state and returns its result.
// Cancelling ctx abandons the session; its partial data is reported as an
// error result.
func (s *Session) Run(ctx context.Context) Result {
	s.begin()
	for !s.outcome.Terminal() {
		if err := ctx.Err(); err != nil {
			s.finish(trace.OutcomeTimedOut, trace.ReasonCancelled)
			s.lastErr = err
			break
		}

		t0 := s.clock.Now()
		err := s.Step()
		s.lastFrame = float64(s.clock.Now().Sub(t0)) / float64(time.Millisecond)
		if err != nil {
			s.runtimeErrors++
			s.lastErr = err
			s.logger.Warn("session iteration failed", "tick", s.tick, "errors", s.runtimeErrors, "error", err)
			if s.runtimeErrors > s.opts.Session.MaxRuntimeErrors {
				s.finish(trace.OutcomeFailed, trace.ReasonRuntimeErrors)
				break
			}
			if s.wallExceeded() {
				s.finish(trace.OutcomeTimedOut, trace.ReasonWallClock)
				break
			}
		}

		if d := s.opts.Session.StepDelay; d > 0 && !s.outcome.Terminal() {
			if !sleep(ctx, d) {
				continue
			}
		}
	}
	s.wall = s.clock.Now().Sub(s.start)
	return s.result()
}

// Step runs one loop iteration. A panic inside the iteration is recovered
// and returned as an error; the session stays usable.
func (s *Session) Step() (err error) {
	s.begin()
	if s.outcome.Terminal() {
		return nil
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("sim: tick %d: %v", s.tick, r)
		}
	}()
	s.iterate()
	return nil
}

func (s *Session) begin() {
	if s.start.IsZero() {
		s.start = s.clock.Now()
		s.nextPerf = s.opts.Session.PerformanceInterval
	}
}

// iterate advances physics, spawns, threats, the cadence-gated decision,
// then evaluates termination and records history.
func (s *Session) iterate() {
	s.tick++
	s.elapsed = float64(s.tick) * s.dt

	s.world.Step(s.dt, s.elapsed, s.sink)
	s.schedule()
	s.trackContacts()
	s.trackThreats()

	action, decided := core.Idle(), false
	if s.elapsed+1e-9 >= s.nextDecision {
		action = s.decide()
		decided = true
		s.nextDecision += s.opts.Session.DecisionInterval
	}

	s.samplePerformance()
	s.evaluate()
	s.record(action, decided)
}

func (s *Session) schedule() {
	out := s.sched.Update(s.elapsed, s.dt)
	for _, id := range out.Started {
		s.sink.Emit(events.WaveStarted{Time: s.elapsed, WaveID: id})
	}
	for _, sp := range out.Spawns {
		s.world.SpawnTarget(sp)
	}
	for _, e := range out.Ended {
		s.sink.Emit(events.WaveEnded{Time: s.elapsed, WaveID: e.WaveID, Spawned: e.Spawned})
	}
}

// trackContacts costs a life for a target touching the shooter outside the
// invulnerability window.
func (s *Session) trackContacts() {
	for _, t := range s.world.Contacts() {
		for i := range s.threats {
			if s.threats[i].targetID == t.ID {
				s.threats[i].hit = true
			}
		}
		if s.elapsed < s.invulnUntil {
			continue
		}
		if s.lives > 0 {
			s.lives--
		}
		s.livesLost++
		s.invulnUntil = s.elapsed + s.opts.Session.InvulnerableTime
		s.sink.Emit(events.LifeLost{Time: s.elapsed, TargetID: t.ID, LivesLeft: s.lives})
	}
}

// trackThreats opens a threat when a target enters the threat radius and
// closes it with a dodge event when the target leaves or is destroyed.
func (s *Session) trackThreats() {
	radius := s.opts.Session.ThreatRadius
	player := s.world.Player.Pos
	inside := make(map[int]float64, len(s.world.Targets))
	for _, t := range s.world.Targets {
		d := t.Pos.Sub(player).Len()
		if d <= radius+t.Size/2 {
			inside[t.ID] = d
		}
	}

	kept := s.threats[:0]
	for _, th := range s.threats {
		if _, ok := inside[th.targetID]; ok {
			kept = append(kept, th)
			continue
		}
		s.sink.Emit(events.Dodge{
			Time:     s.elapsed,
			TargetID: th.targetID,
			Success:  !th.hit,
			Duration: s.elapsed - th.since,
		})
	}
	s.threats = kept

	for _, t := range s.world.Targets {
		d, ok := inside[t.ID]
		if !ok || s.tracking(t.ID) {
			continue
		}
		s.threats = append(s.threats, threat{targetID: t.ID, since: s.elapsed})
		s.sink.Emit(events.ThreatDetected{Time: s.elapsed, TargetID: t.ID, Distance: d})
	}
}

func (s *Session) tracking(id int) bool {
	for _, th := range s.threats {
		if th.targetID == id {
			return true
		}
	}
	return false
}

// decide asks the policy for an action, labels it and executes it.
func (s *Session) decide() core.Action {
	snap := s.Snapshot()
	d := s.opts.Policy.Decide(snap)
	q := s.assess.Assess(snap, d)
	s.sink.Emit(events.Decision{
		Time:         s.elapsed,
		Action:       d.Action,
		FocusID:      d.FocusID,
		ReactionTime: d.ReactionTime,
		Evasive:      d.Evasive,
		Quality:      q,
		Targets:      len(snap.Targets),
		Threats:      len(s.threats),
	})

	switch d.Action.Kind {
	case core.ActionFire:
		s.world.FireProjectile(s.elapsed, s.sink)
	case core.ActionMove:
		s.world.MovePlayerTo(d.Action.X)
	}
	return d.Action
}

// Snapshot returns the policy's view of the current world.
func (s *Session) Snapshot() ai.WorldState {
	w := s.world
	views := make([]ai.TargetView, len(w.Targets))
	for i, t := range w.Targets {
		views[i] = ai.TargetView{ID: t.ID, Pos: t.Pos, Vel: t.Vel, Size: t.Size, Tier: t.Tier}
	}
	return ai.WorldState{
		Time:            s.elapsed,
		Width:           w.Params.Width,
		Height:          w.Params.Height,
		Player:          w.Player.Pos,
		PlayerWidth:     w.Player.W,
		PlayerSpeed:     w.Player.Speed,
		ProjectileSpeed: w.Params.ProjectileSpeed,
		CanFire:         w.CanFire(),
		Projectiles:     len(w.Projectiles),
		Score:           w.Score,
		Lives:           s.lives,
		Targets:         views,
	}
}

func (s *Session) samplePerformance() {
	interval := s.opts.Session.PerformanceInterval
	if interval <= 0 || s.elapsed+1e-9 < s.nextPerf {
		return
	}
	s.nextPerf += interval
	s.sink.Emit(events.Performance{
		Time:        s.elapsed,
		FrameMillis: s.lastFrame,
		Targets:     len(s.world.Targets),
		Projectiles: len(s.world.Projectiles),
		Threats:     len(s.threats),
	})
}

// evaluate applies the termination rules in order: the safety caps, the
// level's failure conditions, then completion.
func (s *Session) evaluate() {
	if s.wallExceeded() {
		s.finish(trace.OutcomeTimedOut, trace.ReasonWallClock)
		return
	}
	if limit := s.opts.Session.MaxSimTime; limit > 0 && s.elapsed >= limit {
		s.finish(trace.OutcomeTimedOut, trace.ReasonSimTime)
		return
	}

	for _, f := range s.level.FailureConditions {
		switch f.Type {
		case level.FailureTimeLimit:
			if s.elapsed >= f.Threshold {
				s.finish(trace.OutcomeFailed, trace.ReasonTimeLimit)
				return
			}
		case level.FailureTargetFailRate:
			if float64(s.world.Misses) >= f.Threshold {
				s.finish(trace.OutcomeFailed, trace.ReasonTargetFailRate)
				return
			}
		case level.FailureLivesLost:
			if float64(s.livesLost) >= f.Threshold {
				s.finish(trace.OutcomeFailed, trace.ReasonLivesLost)
				return
			}
		}
	}

	if len(s.world.Targets) == 0 && s.sched.AllWavesEnded() {
		s.objectivesMet = s.objectivesSatisfied()
		if s.objectivesMet {
			s.finish(trace.OutcomeCompleted, trace.ReasonCleared)
		} else {
			s.finish(trace.OutcomeFailed, trace.ReasonObjectivesUnmet)
		}
	}
}

func (s *Session) objectivesSatisfied() bool {
	for _, o := range s.level.RequiredObjectives() {
		if !s.objectiveMet(o) {
			return false
		}
	}
	return true
}

func (s *Session) objectiveMet(o level.Objective) bool {
	w := s.world
	switch o.Type {
	case level.ObjectiveEliminateAll:
		return w.Escaped == 0
	case level.ObjectiveReachScore:
		return float64(w.Score) >= o.Target
	case level.ObjectiveAccuracy:
		return metrics.Accuracy(w.Hits, w.Shots) >= o.Target
	case level.ObjectiveSurvive:
		return s.elapsed >= o.Target
	}
	return false
}

func (s *Session) wallExceeded() bool {
	limit := s.opts.Session.MaxWallTime
	return limit > 0 && s.clock.Now().Sub(s.start) > limit
}

func (s *Session) finish(o trace.Outcome, r trace.Reason) {
	if s.outcome.Terminal() {
		return
	}
	s.outcome = o
	s.reason = r
	s.logger.Debug("session finished", "outcome", o, "reason", r, "tick", s.tick, "score", s.world.Score)
}

func (s *Session) record(action core.Action, decided bool) {
	s.history = append(s.history, trace.HistoryRecord{
		Tick: s.tick,
		Time: s.elapsed,
		State: trace.Snapshot{
			PlayerX:     s.world.Player.Pos.X,
			Score:       s.world.Score,
			Lives:       s.lives,
			Targets:     len(s.world.Targets),
			Projectiles: len(s.world.Projectiles),
			Threats:     len(s.threats),
		},
		Action:  action,
		Decided: decided,
	})
}

// sleep waits d or until ctx is done. It reports whether the full delay
// elapsed.
func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
