package ai

import (
	"testing"

	"github.com/vovakirdan/popshot/internal/core"
)

func baseState(t float64, targets ...TargetView) WorldState {
	return WorldState{
		Time:            t,
		Width:           400,
		Height:          700,
		Player:          core.V(200, 660),
		PlayerWidth:     44,
		PlayerSpeed:     320,
		ProjectileSpeed: 900,
		CanFire:         true,
		Lives:           3,
		Targets:         targets,
	}
}

func steadyParams(key PresetKey) Params {
	p := PresetParams(key)
	p.Responsiveness = 1
	p.Noise = 0
	return p
}

func TestRangeContainsAndDistance(t *testing.T) {
	r := Range{Min: 0.6, Max: 0.8}
	if !r.Contains(0.6) || !r.Contains(0.8) || r.Contains(0.9) {
		t.Error("Contains should be inclusive on both ends")
	}
	if d := r.Distance(0.7); d != 0 {
		t.Errorf("Expected zero distance inside band, got %v", d)
	}
	if d := r.Distance(1.0); d < 0.99 || d > 1.01 {
		t.Errorf("Expected distance ~1.0, got %v", d)
	}
}

func TestPersonaParamsScalesReaction(t *testing.T) {
	p := Persona{ID: "casual", Preset: PresetDefensive, ReactionScale: 2}
	base := PresetParams(PresetDefensive)
	if got := p.Params().ReactionDelay; got != base.ReactionDelay*2 {
		t.Errorf("Expected reaction %v, got %v", base.ReactionDelay*2, got)
	}
	p.ReactionScale = 0
	if got := p.Params().ReactionDelay; got != base.ReactionDelay {
		t.Errorf("Zero scale should keep preset reaction, got %v", got)
	}
}

func TestIdlePolicyNeverActs(t *testing.T) {
	var p IdlePolicy
	d := p.Decide(baseState(1, TargetView{ID: 1, Pos: core.V(200, 100), Size: 30, Tier: 1}))
	if d.Action.Kind != core.ActionIdle {
		t.Errorf("Expected idle, got %v", d.Action)
	}
}

func TestHeuristicWaitsForReactionThenFires(t *testing.T) {
	params := steadyParams(PresetAggressive)
	p := NewHeuristic(params, 1)
	target := TargetView{ID: 7, Pos: core.V(200, 200), Size: 30, Tier: 1}

	d := p.Decide(baseState(0, target))
	if d.Action.Kind != core.ActionIdle {
		t.Fatalf("Expected idle before reaction delay, got %v", d.Action)
	}

	d = p.Decide(baseState(params.ReactionDelay+0.05, target))
	if d.Action.Kind != core.ActionFire {
		t.Fatalf("Expected fire once aligned and ready, got %v", d.Action)
	}
	if d.FocusID != 7 {
		t.Errorf("Expected focus 7, got %d", d.FocusID)
	}
	if d.ReactionTime < params.ReactionDelay {
		t.Errorf("Reaction time %v shorter than delay %v", d.ReactionTime, params.ReactionDelay)
	}

	d = p.Decide(baseState(params.ReactionDelay+0.15, target))
	if d.ReactionTime != 0 {
		t.Errorf("Only the first action on a focus carries a reaction sample, got %v", d.ReactionTime)
	}
}

func TestHeuristicMovesTowardLeadPoint(t *testing.T) {
	params := steadyParams(PresetAggressive)
	p := NewHeuristic(params, 1)
	target := TargetView{ID: 3, Pos: core.V(80, 300), Vel: core.V(0, 0), Size: 30, Tier: 2}

	p.Decide(baseState(0, target))
	d := p.Decide(baseState(1, target))
	if d.Action.Kind != core.ActionMove {
		t.Fatalf("Expected move, got %v", d.Action)
	}
	if d.Action.X != 80 {
		t.Errorf("Expected move to 80, got %v", d.Action.X)
	}
}

func TestHeuristicEvadesThreat(t *testing.T) {
	params := steadyParams(PresetDefensive)
	p := NewHeuristic(params, 1)
	threat := TargetView{ID: 9, Pos: core.V(210, 600), Vel: core.V(0, 50), Size: 40, Tier: 3}

	p.Decide(baseState(0, threat))
	d := p.Decide(baseState(1, threat))
	if d.Action.Kind != core.ActionMove || !d.Evasive {
		t.Fatalf("Expected evasive move, got %+v", d)
	}
	if d.Action.X >= 200 {
		t.Errorf("Expected to move away from threat on the right, got x=%v", d.Action.X)
	}
}

func TestStationaryRespectsMoveRange(t *testing.T) {
	params := steadyParams(PresetStationary)
	p := NewHeuristic(params, 1)
	target := TargetView{ID: 1, Pos: core.V(30, 200), Size: 30, Tier: 1}

	p.Decide(baseState(0, target))
	d := p.Decide(baseState(1, target))
	if d.Action.Kind != core.ActionMove {
		t.Fatalf("Expected move, got %v", d.Action)
	}
	if d.Action.X < 200-params.MoveRange {
		t.Errorf("Stationary policy moved to %v, beyond range %v", d.Action.X, params.MoveRange)
	}
}

func TestHeuristicDeterminism(t *testing.T) {
	run := func() []core.Action {
		p := NewHeuristic(PresetParams(PresetChaotic), 42)
		var out []core.Action
		for i := 0; i < 50; i++ {
			tv := TargetView{ID: 1 + i%3, Pos: core.V(float64(40+i*7%300), 150), Size: 30, Tier: 1}
			out = append(out, p.Decide(baseState(float64(i)*0.1, tv)).Action)
		}
		return out
	}
	a, b := run(), run()
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("Determinism failed at decision %d: %v vs %v", i, a[i], b[i])
		}
	}
}

func TestHeuristicNoiseChangesDecisions(t *testing.T) {
	run := func(noise float64) []core.Action {
		params := PresetParams(PresetChaotic)
		params.Responsiveness = 1
		params.Noise = noise
		p := NewHeuristic(params, 42)
		target := TargetView{ID: 1, Pos: core.V(80, 300), Size: 30, Tier: 1}
		var out []core.Action
		for i := 0; i < 20; i++ {
			out = append(out, p.Decide(baseState(float64(i)*0.1, target)).Action)
		}
		return out
	}

	clean, noisy := run(0), run(1)
	if last := clean[len(clean)-1]; last != core.MoveTo(80) {
		t.Fatalf("Expected noise-free policy to move to 80, got %v", last)
	}
	differs := 0
	for i := range clean {
		if clean[i] != noisy[i] {
			differs++
		}
	}
	if differs == 0 {
		t.Error("Expected noise to change at least one decision")
	}
}

func TestAssessLabels(t *testing.T) {
	a := DefaultAssessment()
	target := TargetView{ID: 1, Pos: core.V(205, 200), Size: 30, Tier: 1}

	if q := a.Assess(baseState(1, target), Decision{Action: core.Fire()}); q != QualityOptimal {
		t.Errorf("Aligned fire should be optimal, got %s", q)
	}
	far := TargetView{ID: 2, Pos: core.V(350, 200), Size: 30, Tier: 1}
	if q := a.Assess(baseState(1, far), Decision{Action: core.Fire()}); q != QualityPoor {
		t.Errorf("Fire far from any target should be poor, got %s", q)
	}
	if q := a.Assess(baseState(1, far), Decision{Action: core.MoveTo(340)}); q != QualityOptimal {
		t.Errorf("Move onto the lead point should be optimal, got %s", q)
	}
	if q := a.Assess(baseState(1), Decision{Action: core.Idle()}); q != QualityOptimal {
		t.Errorf("Idle with nothing on screen should be optimal, got %s", q)
	}

	threat := TargetView{ID: 3, Pos: core.V(210, 620), Size: 40, Tier: 3}
	if q := a.Assess(baseState(1, threat), Decision{Action: core.Idle()}); q != QualityPoor {
		t.Errorf("Idle under threat should be poor, got %s", q)
	}
	if q := a.Assess(baseState(1, threat), Decision{Action: core.MoveTo(80)}); q != QualityOptimal {
		t.Errorf("Moving away from a threat should be optimal, got %s", q)
	}

	slow := Decision{Action: core.Fire(), ReactionTime: 2}
	if q := a.Assess(baseState(1, target), slow); q != QualityGood {
		t.Errorf("Excessive reaction should downgrade optimal to good, got %s", q)
	}
}
