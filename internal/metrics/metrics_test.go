package metrics

import (
	"math"
	"reflect"
	"testing"

	"github.com/vovakirdan/popshot/internal/ai"
	"github.com/vovakirdan/popshot/internal/core"
	"github.com/vovakirdan/popshot/internal/events"
	"github.com/vovakirdan/popshot/internal/trace"
)

func sampleTrace() trace.Trace {
	return trace.Trace{
		LevelID: "basic",
		History: []trace.HistoryRecord{
			{Tick: 1, State: trace.Snapshot{Targets: 1}},
			{Tick: 2, State: trace.Snapshot{Targets: 3, Threats: 2}},
			{Tick: 3, State: trace.Snapshot{Targets: 2, Threats: 1}},
		},
		Events: []events.Event{
			events.WaveStarted{Time: 0, WaveID: "w1"},
			events.Decision{Time: 0.1, Action: core.Fire(), Quality: ai.QualityOptimal, ReactionTime: 0.2},
			events.Shot{Time: 0.1, ProjectileID: 1},
			events.Hit{Time: 0.3, ProjectileID: 1, TargetID: 1, Tier: 2, Points: 20},
			events.Elimination{Time: 0.3, TargetID: 1, Tier: 2, Split: true, Children: 2},
			events.Decision{Time: 0.2, Action: core.MoveTo(10), Quality: ai.QualityGood, ReactionTime: 0.4},
			events.Decision{Time: 0.3, Action: core.Idle(), Quality: ai.QualityPoor},
			events.Shot{Time: 0.4, ProjectileID: 2},
			events.Miss{Time: 1.0, ProjectileID: 2},
			events.ThreatDetected{Time: 1.1, TargetID: 2},
			events.Dodge{Time: 1.5, TargetID: 2, Success: true},
			events.ThreatDetected{Time: 1.6, TargetID: 3},
			events.LifeLost{Time: 1.7, TargetID: 3, LivesLeft: 2},
			events.Dodge{Time: 1.9, TargetID: 3, Success: false},
			events.Dodge{Time: 2.0, TargetID: 9, Success: true},
			events.Performance{Time: 1, FrameMillis: 2},
			events.Performance{Time: 2, FrameMillis: 4},
			events.Shot{Time: 2.1, ProjectileID: 3},
			events.Hit{Time: 2.2, ProjectileID: 3, TargetID: 4, Tier: 1, Points: 30},
			events.Elimination{Time: 2.2, TargetID: 4, Tier: 1},
		},
		Final: trace.FinalState{
			Outcome:        trace.OutcomeCompleted,
			LevelCompleted: true,
			Score:          50,
			Lives:          2,
			InitialLives:   3,
			SimTime:        2.5,
		},
	}
}

func TestAggregateCounts(t *testing.T) {
	m := Aggregate(sampleTrace())

	if m.Shots != 3 || m.Hits != 2 || m.Misses != 1 {
		t.Errorf("Expected 3/2/1 shots/hits/misses, got %d/%d/%d", m.Shots, m.Hits, m.Misses)
	}
	if math.Abs(m.Accuracy-200.0/3) > 1e-9 {
		t.Errorf("Expected accuracy 66.67, got %v", m.Accuracy)
	}
	if m.Eliminated != 1 || m.Splits != 1 {
		t.Errorf("Expected 1 elimination and 1 split, got %d/%d", m.Eliminated, m.Splits)
	}
	if m.LivesLost != 1 {
		t.Errorf("Expected 1 life lost, got %d", m.LivesLost)
	}
	if m.Duration != 2.5 || !m.LevelCompleted || m.Score != 50 {
		t.Errorf("Expected final state copied, got %+v", m)
	}
}

func TestThreatPairing(t *testing.T) {
	m := Aggregate(sampleTrace())
	th := m.Threats
	if th.Detected != 2 || th.Dodged != 1 || th.Collisions != 1 {
		t.Errorf("Expected 2 detected, 1 dodged, 1 collision, got %+v", th)
	}
	if th.DodgeRate != 0.5 {
		t.Errorf("Expected dodge rate 0.5, got %v", th.DodgeRate)
	}
}

func TestDecisionAndReactionStats(t *testing.T) {
	m := Aggregate(sampleTrace())
	d := m.Decisions
	if d.Total != 3 || d.Optimal != 1 || d.Good != 1 || d.Poor != 1 {
		t.Errorf("Expected one decision of each quality, got %+v", d)
	}
	if d.Fire != 1 || d.Move != 1 || d.Idle != 1 {
		t.Errorf("Expected one decision of each action, got %+v", d)
	}
	r := m.ReactionTime
	if r.Samples != 2 || math.Abs(r.Mean-0.3) > 1e-9 || r.Min != 0.2 || r.Max != 0.4 {
		t.Errorf("Unexpected reaction stats %+v", r)
	}
	if math.Abs(r.StdDev-0.1) > 1e-9 {
		t.Errorf("Expected stddev 0.1, got %v", r.StdDev)
	}
}

func TestFrameStats(t *testing.T) {
	f := Aggregate(sampleTrace()).Frames
	if f.Samples != 2 || f.MeanFrameMs != 3 || f.MaxFrameMs != 4 {
		t.Errorf("Unexpected frame stats %+v", f)
	}
	if f.PeakTargets != 3 || f.PeakThreats != 2 || f.MeanTargets != 2 {
		t.Errorf("Unexpected load stats %+v", f)
	}
}

func TestBalanceInRange(t *testing.T) {
	b := Aggregate(sampleTrace()).Balance
	for name, v := range map[string]float64{
		"nearLoss":      b.NearLoss,
		"dominantWin":   b.DominantWin,
		"cognitiveLoad": b.CognitiveLoad,
		"flowState":     b.FlowState,
		"satisfaction":  b.Satisfaction,
		"engagement":    b.Engagement,
		"frustration":   b.Frustration,
	} {
		if v < 0 || v > 1 {
			t.Errorf("%s = %v outside [0, 1]", name, v)
		}
	}
	if b.DominantWin != 0 {
		t.Errorf("Expected no dominant win after losing a life")
	}
	if math.Abs(b.Engagement-2.0/3) > 1e-9 {
		t.Errorf("Expected engagement 2/3, got %v", b.Engagement)
	}
}

func TestAggregateIsDeterministic(t *testing.T) {
	tr := sampleTrace()
	a := Aggregate(tr)
	b := Aggregate(tr)
	if !reflect.DeepEqual(a, b) {
		t.Errorf("Expected identical metrics, got %+v and %+v", a, b)
	}
}

func TestAccuracyBounds(t *testing.T) {
	cases := []struct {
		hits, shots int
		want        float64
	}{
		{0, 0, 0},
		{3, 0, 100},
		{1, 4, 25},
		{5, 5, 100},
	}
	for _, c := range cases {
		if got := Accuracy(c.hits, c.shots); got != c.want {
			t.Errorf("Accuracy(%d, %d): expected %v, got %v", c.hits, c.shots, c.want, got)
		}
	}
}

func TestEmptyTrace(t *testing.T) {
	m := Aggregate(trace.Trace{})
	if m.Accuracy != 0 || m.ReactionTime.Samples != 0 || m.Balance.FlowState != 0 {
		t.Errorf("Expected zero metrics, got %+v", m)
	}
}

func TestSummarize(t *testing.T) {
	a := AIMetrics{Score: 10, Accuracy: 50, Duration: 20, ReactionTime: ReactionStats{Samples: 1, Mean: 0.4}, Balance: BalanceMetrics{Satisfaction: 0.6}}
	b := AIMetrics{Score: 30, Accuracy: 70, Duration: 40, Balance: BalanceMetrics{Satisfaction: 0.8}}
	s := Summarize([]AIMetrics{a, b})
	if s.Runs != 2 || s.AvgScore != 20 || s.AvgAccuracy != 60 || s.AvgDuration != 30 {
		t.Errorf("Unexpected summary %+v", s)
	}
	if s.AvgReactionTime != 0.4 {
		t.Errorf("Expected reaction time averaged over sampled runs, got %v", s.AvgReactionTime)
	}
	if math.Abs(s.Balance.Satisfaction-0.7) > 1e-9 {
		t.Errorf("Expected satisfaction 0.7, got %v", s.Balance.Satisfaction)
	}
	if got := Summarize(nil); got.Runs != 0 || got.AvgScore != 0 {
		t.Errorf("Expected empty summary, got %+v", got)
	}
}
