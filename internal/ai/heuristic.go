package ai

import (
	"math/rand"

	"github.com/vovakirdan/popshot/internal/core"
)

// HeuristicPolicy is the parameterized rule-based player behind every preset
// except idle.
type HeuristicPolicy struct {
	params Params
	rng    *rand.Rand

	home       float64 // Start x, anchor for MoveRange
	homeSet    bool
	focusID    int
	focusSince float64
	reacted    bool
}

// NewHeuristic creates a policy with its own RNG stream.
func NewHeuristic(params Params, seed int64) *HeuristicPolicy {
	return &HeuristicPolicy{
		params: params,
		rng:    rand.New(rand.NewSource(seed)),
	}
}

// Params returns the parameters the policy runs with.
func (p *HeuristicPolicy) Params() Params {
	return p.params
}

// Decide implements Policy.
func (p *HeuristicPolicy) Decide(s WorldState) Decision {
	if !p.homeSet {
		p.home, p.homeSet = s.Player.X, true
	}
	if len(s.Targets) == 0 {
		p.setFocus(0, s.Time)
		return Decision{Action: core.Idle()}
	}

	// Hesitation: the roll happens every decision so RNG consumption does not
	// depend on the outcome.
	act := p.rng.Float64() < p.params.Responsiveness
	noise := p.rng.Float64() < p.params.Noise

	d := p.decide(s)
	if !act {
		return Decision{Action: core.Idle(), FocusID: d.FocusID}
	}
	if noise {
		d = p.randomize(s, d)
	}
	if d.FocusID != 0 && d.Action.Kind != core.ActionIdle && !p.reacted {
		d.ReactionTime = s.Time - p.focusSince
		if d.ReactionTime <= 0 {
			d.ReactionTime = p.params.ReactionDelay
		}
		p.reacted = true
	}
	return d
}

func (p *HeuristicPolicy) decide(s WorldState) Decision {
	if threat, ok := s.NearestThreat(p.params.ThreatThreshold, p.params.DangerZone); ok {
		p.setFocus(threat.ID, s.Time)
		if !p.ready(s.Time) {
			return Decision{Action: core.Idle(), FocusID: threat.ID}
		}
		return Decision{Action: core.MoveTo(p.evade(s, threat)), FocusID: threat.ID, Evasive: true}
	}

	focus, ok := p.selectFocus(s)
	if !ok {
		p.setFocus(0, s.Time)
		return Decision{Action: core.Idle()}
	}
	p.setFocus(focus.ID, s.Time)
	if !p.ready(s.Time) {
		return Decision{Action: core.Idle(), FocusID: focus.ID}
	}

	lead := s.LeadX(focus)
	if abs(lead-s.Player.X) <= p.params.FireProximity {
		if s.CanFire {
			return Decision{Action: core.Fire(), FocusID: focus.ID}
		}
		return Decision{Action: core.Idle(), FocusID: focus.ID}
	}
	return Decision{Action: core.MoveTo(p.limit(s, lead)), FocusID: focus.ID}
}

// selectFocus picks the target to work on among those above the shooter.
// Ties break on the lower id so decisions stay deterministic.
func (p *HeuristicPolicy) selectFocus(s WorldState) (TargetView, bool) {
	candidates := s.Above()
	if len(candidates) == 0 {
		return TargetView{}, false
	}
	best := candidates[0]
	for _, t := range candidates[1:] {
		if p.better(s, t, best) {
			best = t
		}
	}
	return best, true
}

func (p *HeuristicPolicy) better(s WorldState, a, b TargetView) bool {
	da, db := abs(a.Pos.X-s.Player.X), abs(b.Pos.X-s.Player.X)
	switch p.params.Selection {
	case SelectLowest:
		if a.Pos.Y != b.Pos.Y {
			return a.Pos.Y > b.Pos.Y
		}
	case SelectLargest:
		if a.Tier != b.Tier {
			return a.Tier > b.Tier
		}
	}
	if da != db {
		return da < db
	}
	return a.ID < b.ID
}

// evade moves away from the threat, toward the side with more room when the
// near wall blocks.
func (p *HeuristicPolicy) evade(s WorldState, threat TargetView) float64 {
	step := p.params.ThreatThreshold + threat.Size + s.PlayerWidth/2
	dir := 1.0
	if threat.Pos.X > s.Player.X {
		dir = -1
	}
	dest := s.Player.X + dir*step
	margin := s.PlayerWidth / 2
	if dest < margin || dest > s.Width-margin {
		dest = s.Player.X - dir*step
	}
	return p.limit(s, dest)
}

func (p *HeuristicPolicy) limit(s WorldState, x float64) float64 {
	margin := s.PlayerWidth / 2
	if p.params.MoveRange > 0 {
		x = core.ClampF(x, p.home-p.params.MoveRange, p.home+p.params.MoveRange)
	}
	return core.ClampF(x, margin, s.Width-margin)
}

// randomize replaces a decision with a plausible random one.
func (p *HeuristicPolicy) randomize(s WorldState, d Decision) Decision {
	switch p.rng.Intn(3) {
	case 0:
		if s.CanFire {
			d.Action = core.Fire()
		}
	case 1:
		jitter := (p.rng.Float64()*2 - 1) * 80
		d.Action = core.MoveTo(p.limit(s, s.Player.X+jitter))
		d.Evasive = false
	default:
		d.Action = core.Idle()
	}
	return d
}

func (p *HeuristicPolicy) setFocus(id int, now float64) {
	if id == p.focusID {
		return
	}
	p.focusID = id
	p.focusSince = now
	p.reacted = false
}

func (p *HeuristicPolicy) ready(now float64) bool {
	return now-p.focusSince >= p.params.ReactionDelay
}
