package sim

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/vovakirdan/popshot/internal/ai"
	"github.com/vovakirdan/popshot/internal/config"
	"github.com/vovakirdan/popshot/internal/core"
	"github.com/vovakirdan/popshot/internal/events"
	"github.com/vovakirdan/popshot/internal/level"
	"github.com/vovakirdan/popshot/internal/metrics"
	"github.com/vovakirdan/popshot/internal/physics"
	"github.com/vovakirdan/popshot/internal/trace"
)

type fireAlways struct{}

func (fireAlways) Decide(ai.WorldState) ai.Decision {
	return ai.Decision{Action: core.Fire()}
}

type panicPolicy struct{}

func (panicPolicy) Decide(ai.WorldState) ai.Decision {
	panic("policy exploded")
}

func testOptions(p ai.Policy) Options {
	o := DefaultOptions(p, 7)
	o.Clock = NewStepClock(time.Unix(0, 0), time.Microsecond)
	o.Session.MaxSimTime = 120
	return o
}

func testLevel(waves ...level.EnemyWave) *level.Level {
	l := &level.Level{
		ID:         "test",
		Name:       "Test",
		Version:    "1",
		Difficulty: config.TierNormal,
		Objectives: []level.Objective{{Type: level.ObjectiveEliminateAll}},
		Waves:      waves,
	}
	l.Balance = l.Balance.WithDefaults(l.Difficulty)
	l.TotalTargets = l.WaveTotal()
	return l
}

func spawns(tier, count int, interval float64) []level.EnemySpawnDefinition {
	return []level.EnemySpawnDefinition{{TargetType: "bubble", Tier: tier, Count: count, SpawnInterval: interval}}
}

func TestIdlePolicyTimesOutAtWallClockCapWithoutSimTimeCap(t *testing.T) {
	lvl := testLevel(level.EnemyWave{ID: "w1", Duration: 30, Pattern: level.PatternCenter, Spawns: spawns(2, 3, 1)})
	opts := testOptions(ai.IdlePolicy{})
	opts.Clock = NewStepClock(time.Unix(0, 0), 10*time.Millisecond)
	opts.Session.MaxWallTime = time.Second
	// Zero disables the sim-time cap, leaving only the wall-clock backstop.
	opts.Session.MaxSimTime = 0

	s, err := New(lvl, opts)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	res := s.Run(context.Background())

	if !res.Success {
		t.Fatalf("Expected success, got error %q", res.Error)
	}
	if res.FinalState.Outcome != trace.OutcomeTimedOut || res.FinalState.Reason != trace.ReasonWallClock {
		t.Errorf("Expected wall-clock timeout, got %s/%s", res.FinalState.Outcome, res.FinalState.Reason)
	}
	if res.Metrics.LevelCompleted {
		t.Error("Expected levelCompleted=false")
	}
	if res.Metrics.Shots != 0 {
		t.Errorf("Expected no shots from idle policy, got %d", res.Metrics.Shots)
	}
}

func TestFailsOnFifthMiss(t *testing.T) {
	lvl := testLevel(level.EnemyWave{ID: "late", Duration: 60, Spawns: spawns(1, 1, 50)})
	lvl.FailureConditions = []level.FailureCondition{{Type: level.FailureTargetFailRate, Threshold: 5}}

	s, err := New(lvl, testOptions(fireAlways{}))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	res := s.Run(context.Background())

	if res.FinalState.Outcome != trace.OutcomeFailed || res.FinalState.Reason != trace.ReasonTargetFailRate {
		t.Fatalf("Expected target fail rate failure, got %s/%s", res.FinalState.Outcome, res.FinalState.Reason)
	}
	if res.Metrics.Misses != 5 {
		t.Errorf("Expected exactly 5 misses, got %d", res.Metrics.Misses)
	}
	last := s.Events().Events()
	var lastMiss float64
	for _, e := range last {
		if m, ok := e.(events.Miss); ok {
			lastMiss = m.Time
		}
	}
	if s.Elapsed() != lastMiss {
		t.Errorf("Expected session to end on the tick of the 5th miss (%.4f), ended at %.4f", lastMiss, s.Elapsed())
	}
	if !res.Success {
		t.Error("Expected a failed level to still be a successful run")
	}
}

func TestCompletesWhenWavesEndAndFieldIsClear(t *testing.T) {
	lvl := testLevel(level.EnemyWave{ID: "empty", Duration: 0.5, Spawns: spawns(1, 1, 10)})

	s, err := New(lvl, testOptions(ai.IdlePolicy{}))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	res := s.Run(context.Background())

	if res.FinalState.Outcome != trace.OutcomeCompleted || !res.Metrics.LevelCompleted {
		t.Fatalf("Expected completion, got %s/%s", res.FinalState.Outcome, res.FinalState.Reason)
	}
	if res.FinalState.SimTime <= 0.5 {
		t.Errorf("Expected completion only after the wave ended, got %.3f", res.FinalState.SimTime)
	}
	if !res.FinalState.ObjectivesMet || !res.FinalState.WavesEnded {
		t.Errorf("Expected objectives met and waves ended, got %+v", res.FinalState)
	}
}

func TestUnmetObjectiveFails(t *testing.T) {
	lvl := testLevel(level.EnemyWave{ID: "empty", Duration: 0.5, Spawns: spawns(1, 1, 10)})
	lvl.Objectives = append(lvl.Objectives,
		level.Objective{Type: level.ObjectiveReachScore, Target: 100},
		level.Objective{Type: level.ObjectiveSurvive, Target: 999, Optional: true},
	)

	s, _ := New(lvl, testOptions(ai.IdlePolicy{}))
	res := s.Run(context.Background())

	if res.FinalState.Outcome != trace.OutcomeFailed || res.FinalState.Reason != trace.ReasonObjectivesUnmet {
		t.Errorf("Expected objectives_unmet failure, got %s/%s", res.FinalState.Outcome, res.FinalState.Reason)
	}
}

func TestTimeLimitFails(t *testing.T) {
	lvl := testLevel(level.EnemyWave{ID: "w1", Duration: 60, Spawns: spawns(3, 2, 1)})
	lvl.FailureConditions = []level.FailureCondition{{Type: level.FailureTimeLimit, Threshold: 2}}

	s, _ := New(lvl, testOptions(ai.IdlePolicy{}))
	res := s.Run(context.Background())

	if res.FinalState.Reason != trace.ReasonTimeLimit {
		t.Fatalf("Expected time limit failure, got %s", res.FinalState.Reason)
	}
	if s.Elapsed() < 2 || s.Elapsed() > 2+2*s.dt {
		t.Errorf("Expected end at 2s, got %.4f", s.Elapsed())
	}
}

func TestSimTimeCap(t *testing.T) {
	lvl := testLevel(level.EnemyWave{ID: "w1", Duration: 60, Spawns: spawns(3, 1, 1)})
	opts := testOptions(ai.IdlePolicy{})
	opts.Session.MaxSimTime = 3

	s, _ := New(lvl, opts)
	res := s.Run(context.Background())
	if res.FinalState.Outcome != trace.OutcomeTimedOut || res.FinalState.Reason != trace.ReasonSimTime {
		t.Errorf("Expected sim-time timeout, got %s/%s", res.FinalState.Outcome, res.FinalState.Reason)
	}
	if !res.Success || res.Metrics.LevelCompleted {
		t.Errorf("Expected success without completion, got %+v", res)
	}
}

func TestRuntimeErrorsFailSession(t *testing.T) {
	lvl := testLevel(level.EnemyWave{ID: "w1", Duration: 60, Spawns: spawns(1, 1, 1)})
	opts := testOptions(panicPolicy{})
	opts.Session.MaxRuntimeErrors = 3

	s, _ := New(lvl, opts)
	res := s.Run(context.Background())

	if res.Success {
		t.Fatal("Expected success=false")
	}
	if res.FinalState.Outcome != trace.OutcomeFailed || res.FinalState.Reason != trace.ReasonRuntimeErrors {
		t.Errorf("Expected runtime error failure, got %s/%s", res.FinalState.Outcome, res.FinalState.Reason)
	}
	if res.FinalState.RuntimeErrors != 4 {
		t.Errorf("Expected 4 recovered errors, got %d", res.FinalState.RuntimeErrors)
	}
	if res.Error == "" {
		t.Error("Expected error message")
	}
	if !reflect.DeepEqual(res.Metrics, ErrorResult("", "", errors.New("x")).Metrics) {
		t.Errorf("Expected zeroed metrics, got %+v", res.Metrics)
	}
}

func TestCancelledRunIsErrorResult(t *testing.T) {
	lvl := testLevel(level.EnemyWave{ID: "w1", Duration: 60, Spawns: spawns(1, 1, 1)})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s, _ := New(lvl, testOptions(ai.IdlePolicy{}))
	res := s.Run(ctx)
	if res.Success || res.FinalState.Reason != trace.ReasonCancelled {
		t.Errorf("Expected cancelled error result, got %+v", res.FinalState)
	}
}

func TestDeterministicRuns(t *testing.T) {
	lvl := testLevel(
		level.EnemyWave{ID: "w1", Duration: 10, Pattern: level.PatternRandom, Spawns: spawns(2, 4, 1.5)},
		level.EnemyWave{ID: "w2", StartTime: 5, Duration: 10, Pattern: level.PatternCorners, Spawns: spawns(1, 4, 1)},
	)
	run := func() Result {
		opts := testOptions(ai.NewHeuristic(ai.PresetParams(ai.PresetChaotic), 11))
		opts.Session.MaxSimTime = 40
		s, err := New(lvl, opts)
		if err != nil {
			t.Fatalf("New failed: %v", err)
		}
		return s.Run(context.Background())
	}

	a, b := run(), run()
	if !reflect.DeepEqual(a.Metrics, b.Metrics) {
		t.Errorf("Expected identical metrics for the same seed:\n%+v\n%+v", a.Metrics, b.Metrics)
	}
	if !reflect.DeepEqual(a.FinalState, b.FinalState) {
		t.Errorf("Expected identical final state:\n%+v\n%+v", a.FinalState, b.FinalState)
	}
}

func TestHistoryAndTraceRoundTrip(t *testing.T) {
	lvl := testLevel(level.EnemyWave{ID: "w1", Duration: 5, Spawns: spawns(1, 3, 1)})
	opts := testOptions(ai.NewHeuristic(ai.PresetParams(ai.PresetAggressive), 3))
	opts.Session.MaxSimTime = 20

	s, _ := New(lvl, opts)
	res := s.Run(context.Background())

	if len(s.History()) != s.Tick() {
		t.Errorf("Expected one history record per tick, got %d records for %d ticks", len(s.History()), s.Tick())
	}
	decided := 0
	for _, h := range s.History() {
		if h.Decided {
			decided++
		}
	}
	if decided != res.Metrics.Decisions.Total {
		t.Errorf("Expected %d decided records, got %d", res.Metrics.Decisions.Total, decided)
	}
	if s.Events().Count(events.KindWaveStarted) != 1 || s.Events().Count(events.KindWaveEnded) != 1 {
		t.Errorf("Expected wave edges once each")
	}

	if !reflect.DeepEqual(res.Metrics, metrics.Aggregate(s.Trace())) {
		t.Error("Expected re-aggregating the trace to reproduce the metrics")
	}
}

func TestTierInvariantDuringPlay(t *testing.T) {
	lvl := testLevel(level.EnemyWave{ID: "w1", Duration: 8, Pattern: level.PatternCenterOut, Spawns: []level.EnemySpawnDefinition{{
		TargetType: "bubble", Tier: 3, Count: 3, SpawnInterval: 1,
		Split: level.SplitBehavior{Enabled: true, Count: 2, SizeReduction: 0.7, SpeedBonus: 1.1},
	}}})
	s, _ := New(lvl, testOptions(ai.NewHeuristic(ai.PresetParams(ai.PresetAggressive), 5)))

	for i := 0; i < 60*30 && !s.Outcome().Terminal(); i++ {
		if err := s.Step(); err != nil {
			t.Fatalf("Step failed: %v", err)
		}
		for _, tg := range s.World().Targets {
			if !physics.ValidTier(tg.Tier) {
				t.Fatalf("tick %d: target %d has tier %d", s.Tick(), tg.ID, tg.Tier)
			}
		}
	}
	for _, e := range s.Events().Events() {
		if el, ok := e.(events.Elimination); ok && el.Tier == 1 && el.Split {
			t.Fatalf("Tier 1 target split: %+v", el)
		}
	}
}

func TestContactCostsOneLifePerWindow(t *testing.T) {
	lvl := testLevel(level.EnemyWave{ID: "w1", Duration: 60, Spawns: spawns(1, 1, 50)})
	s, _ := New(lvl, testOptions(ai.IdlePolicy{}))
	w := s.World()
	tg := w.SpawnTarget(physics.Spawn{X: w.Player.Pos.X, Y: w.Player.Pos.Y, Tier: 3})
	tg.Vel = core.Vec2{}
	tg.GravityScale = 0.0001

	for i := 0; i < 10; i++ {
		s.Step()
	}
	if got := s.Events().Count(events.KindLifeLost); got != 1 {
		t.Errorf("Expected 1 life lost inside the invulnerability window, got %d", got)
	}
	if got := s.Snapshot().Lives; got != 2 {
		t.Errorf("Expected 2 lives left, got %d", got)
	}
	if s.Events().Count(events.KindThreatDetected) != 1 {
		t.Errorf("Expected the touching target to be tracked as a threat")
	}

	id := tg.ID
	w.RemoveTarget(id)
	s.Step()
	var dodge events.Dodge
	for _, e := range s.Events().Events() {
		if d, ok := e.(events.Dodge); ok {
			dodge = d
		}
	}
	if dodge.TargetID != id || dodge.Success {
		t.Errorf("Expected a failed dodge for the colliding target, got %+v", dodge)
	}
}

func TestLivesLostFailure(t *testing.T) {
	lvl := testLevel(level.EnemyWave{ID: "w1", Duration: 60, Spawns: spawns(1, 1, 50)})
	lvl.FailureConditions = []level.FailureCondition{{Type: level.FailureLivesLost, Threshold: 1}}
	s, _ := New(lvl, testOptions(ai.IdlePolicy{}))
	w := s.World()
	tg := w.SpawnTarget(physics.Spawn{X: w.Player.Pos.X, Y: w.Player.Pos.Y, Tier: 3})
	tg.Vel = core.Vec2{}

	s.Step()
	if s.Outcome() != trace.OutcomeFailed || s.Reason() != trace.ReasonLivesLost {
		t.Errorf("Expected lives lost failure, got %s/%s", s.Outcome(), s.Reason())
	}
}

func TestBusAndOutbox(t *testing.T) {
	lvl := testLevel(level.EnemyWave{ID: "empty", Duration: 0.5, Spawns: spawns(1, 1, 10)})
	opts := testOptions(ai.IdlePolicy{})
	opts.Bus = events.NewBus(nil)
	opts.Outbox = events.NewOutbox()
	opts.PersonaID = "casual"
	seen := 0
	opts.Bus.Subscribe(func(events.Event) { panic("subscriber down") })
	opts.Bus.Subscribe(func(events.Event) { seen++ })

	s, _ := New(lvl, opts)
	if opts.Outbox.Len() != 0 {
		t.Fatal("Expected empty outbox before the run")
	}
	res := s.Run(context.Background())

	if res.FinalState.Outcome != trace.OutcomeCompleted {
		t.Fatalf("Expected completion despite a failing subscriber, got %s", res.FinalState.Outcome)
	}
	if seen != s.Events().Len() {
		t.Errorf("Expected subscriber to see all %d events, saw %d", s.Events().Len(), seen)
	}
	out := opts.Outbox.Drain()
	if len(out) != 1 {
		t.Fatalf("Expected 1 notification, got %d", len(out))
	}
	fin, ok := out[0].(events.SessionFinished)
	if !ok || fin.SessionID != s.ID() || fin.PersonaID != "casual" || !fin.LevelCompleted {
		t.Errorf("Unexpected notification %+v", out[0])
	}
}

func TestNewRejectsBadConfig(t *testing.T) {
	lvl := testLevel(level.EnemyWave{ID: "w1", Duration: 1, Spawns: spawns(1, 1, 1)})
	if _, err := New(nil, testOptions(ai.IdlePolicy{})); err == nil {
		t.Error("Expected error for nil level")
	}
	if _, err := New(lvl, testOptions(nil)); err == nil {
		t.Error("Expected error for nil policy")
	}
	opts := testOptions(ai.IdlePolicy{})
	opts.World.Width = 0
	if _, err := New(lvl, opts); err == nil {
		t.Error("Expected error for zero width")
	}
}

func TestRunLevelReportsLoadFailure(t *testing.T) {
	idx := &level.Index{Levels: []level.IndexEntry{{ID: "ghost", File: "ghost.json"}}, Dir: t.TempDir()}
	cache := level.NewCacheFromIndex(idx, nil)

	res := RunLevel(context.Background(), cache, "ghost", testOptions(ai.IdlePolicy{}))
	if res.Success || res.Error == "" {
		t.Errorf("Expected error result, got %+v", res)
	}
	if res.Metrics.Shots != 0 || res.Metrics.Accuracy != 0 {
		t.Errorf("Expected zeroed metrics, got %+v", res.Metrics)
	}

	cache.Put(testLevel(level.EnemyWave{ID: "empty", Duration: 0.5, Spawns: spawns(1, 1, 10)}))
	res = RunLevel(context.Background(), cache, "test", testOptions(ai.IdlePolicy{}))
	if !res.Success {
		t.Errorf("Expected success for cached level, got %q", res.Error)
	}
}
