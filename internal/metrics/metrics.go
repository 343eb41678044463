// Package metrics turns a session trace into the fixed AIMetrics schema.
// Aggregation is pure: the same trace always yields the same metrics.
package metrics

import (
	"math"

	"github.com/vovakirdan/popshot/internal/ai"
	"github.com/vovakirdan/popshot/internal/core"
	"github.com/vovakirdan/popshot/internal/events"
	"github.com/vovakirdan/popshot/internal/trace"
)

// ReactionStats summarizes decision reaction times in seconds.
type ReactionStats struct {
	Samples int     `json:"samples" yaml:"samples"`
	Mean    float64 `json:"mean" yaml:"mean"`
	Min     float64 `json:"min" yaml:"min"`
	Max     float64 `json:"max" yaml:"max"`
	StdDev  float64 `json:"stdDev" yaml:"stdDev"`
}

// ThreatStats pairs threat detections with their dodge outcomes.
type ThreatStats struct {
	Detected   int     `json:"detected" yaml:"detected"`
	Dodged     int     `json:"dodged" yaml:"dodged"`
	Collisions int     `json:"collisions" yaml:"collisions"`
	DodgeRate  float64 `json:"dodgeRate" yaml:"dodgeRate"`
}

// DecisionStats tallies decisions by quality and by action.
type DecisionStats struct {
	Total       int     `json:"total" yaml:"total"`
	Optimal     int     `json:"optimal" yaml:"optimal"`
	Good        int     `json:"good" yaml:"good"`
	Poor        int     `json:"poor" yaml:"poor"`
	Fire        int     `json:"fire" yaml:"fire"`
	Move        int     `json:"move" yaml:"move"`
	Idle        int     `json:"idle" yaml:"idle"`
	OptimalRate float64 `json:"optimalRate" yaml:"optimalRate"`
}

// FrameStats summarizes loop cost and entity load.
type FrameStats struct {
	Samples     int     `json:"samples" yaml:"samples"`
	MeanFrameMs float64 `json:"meanFrameMs" yaml:"meanFrameMs"`
	MaxFrameMs  float64 `json:"maxFrameMs" yaml:"maxFrameMs"`
	PeakTargets int     `json:"peakTargets" yaml:"peakTargets"`
	MeanTargets float64 `json:"meanTargets" yaml:"meanTargets"`
	PeakThreats int     `json:"peakThreats" yaml:"peakThreats"`
}

// BalanceMetrics are the secondary engagement heuristics. Every field is in
// [0, 1]; NearLoss and DominantWin are 0 or 1 per session and become rates
// when averaged.
type BalanceMetrics struct {
	NearLoss      float64 `json:"nearLoss" yaml:"nearLoss"`
	DominantWin   float64 `json:"dominantWin" yaml:"dominantWin"`
	CognitiveLoad float64 `json:"cognitiveLoad" yaml:"cognitiveLoad"`
	FlowState     float64 `json:"flowState" yaml:"flowState"`
	Satisfaction  float64 `json:"satisfaction" yaml:"satisfaction"`
	Engagement    float64 `json:"engagement" yaml:"engagement"`
	Frustration   float64 `json:"frustration" yaml:"frustration"`
}

// AIMetrics is the per-session metrics schema.
type AIMetrics struct {
	Duration       float64        `json:"duration" yaml:"duration"` // Simulated seconds
	Outcome        trace.Outcome  `json:"outcome" yaml:"outcome"`
	Reason         trace.Reason   `json:"reason,omitempty" yaml:"reason,omitempty"`
	LevelCompleted bool           `json:"levelCompleted" yaml:"levelCompleted"`
	Score          int            `json:"score" yaml:"score"`
	Shots          int            `json:"shots" yaml:"shots"`
	Hits           int            `json:"hits" yaml:"hits"`
	Misses         int            `json:"misses" yaml:"misses"`
	Accuracy       float64        `json:"accuracy" yaml:"accuracy"` // Percent
	Eliminated     int            `json:"eliminated" yaml:"eliminated"`
	Splits         int            `json:"splits" yaml:"splits"`
	LivesLost      int            `json:"livesLost" yaml:"livesLost"`
	ReactionTime   ReactionStats  `json:"reactionTime" yaml:"reactionTime"`
	Threats        ThreatStats    `json:"threats" yaml:"threats"`
	Decisions      DecisionStats  `json:"decisions" yaml:"decisions"`
	Frames         FrameStats     `json:"frames" yaml:"frames"`
	Balance        BalanceMetrics `json:"balance" yaml:"balance"`
}

// Heuristic scales.
const (
	threatSaturation = 5.0  // Simultaneous threats at full cognitive load
	targetSaturation = 15.0 // Simultaneous targets at full cognitive load
	dominantAccuracy = 60.0 // Percent
)

// Accuracy returns hits as a percentage of shots, in [0, 100].
func Accuracy(hits, shots int) float64 {
	if shots < 1 {
		shots = 1
	}
	return core.ClampF(float64(hits)/float64(shots)*100, 0, 100)
}

// Aggregate computes the metrics of one session.
func Aggregate(tr trace.Trace) AIMetrics {
	m := AIMetrics{
		Duration:       tr.Final.SimTime,
		Outcome:        tr.Final.Outcome,
		Reason:         tr.Final.Reason,
		LevelCompleted: tr.Final.LevelCompleted,
		Score:          tr.Final.Score,
	}

	var reactions []float64
	var frameSum float64
	open := make(map[int]bool)

	for _, e := range tr.Events {
		switch ev := e.(type) {
		case events.Shot:
			m.Shots++
		case events.Hit:
			m.Hits++
		case events.Miss:
			m.Misses++
		case events.Elimination:
			if ev.Split {
				m.Splits++
			} else {
				m.Eliminated++
			}
		case events.ThreatDetected:
			m.Threats.Detected++
			open[ev.TargetID] = true
		case events.Dodge:
			if !open[ev.TargetID] {
				continue
			}
			delete(open, ev.TargetID)
			if ev.Success {
				m.Threats.Dodged++
			} else {
				m.Threats.Collisions++
			}
		case events.Decision:
			countDecision(&m.Decisions, ev)
			if ev.ReactionTime > 0 {
				reactions = append(reactions, ev.ReactionTime)
			}
		case events.Performance:
			m.Frames.Samples++
			frameSum += ev.FrameMillis
			if ev.FrameMillis > m.Frames.MaxFrameMs {
				m.Frames.MaxFrameMs = ev.FrameMillis
			}
		case events.LifeLost:
			m.LivesLost++
		case events.WaveStarted, events.WaveEnded:
		}
	}

	m.Accuracy = Accuracy(m.Hits, m.Shots)
	m.ReactionTime = reactionStats(reactions)
	if resolved := m.Threats.Dodged + m.Threats.Collisions; resolved > 0 {
		m.Threats.DodgeRate = float64(m.Threats.Dodged) / float64(resolved)
	}
	if m.Decisions.Total > 0 {
		m.Decisions.OptimalRate = float64(m.Decisions.Optimal) / float64(m.Decisions.Total)
	}
	if m.Frames.Samples > 0 {
		m.Frames.MeanFrameMs = frameSum / float64(m.Frames.Samples)
	}

	var targetSum int
	for _, h := range tr.History {
		targetSum += h.State.Targets
		if h.State.Targets > m.Frames.PeakTargets {
			m.Frames.PeakTargets = h.State.Targets
		}
		if h.State.Threats > m.Frames.PeakThreats {
			m.Frames.PeakThreats = h.State.Threats
		}
	}
	if len(tr.History) > 0 {
		m.Frames.MeanTargets = float64(targetSum) / float64(len(tr.History))
	}

	m.Balance = balance(m, tr.Final)
	return m
}

func countDecision(d *DecisionStats, ev events.Decision) {
	d.Total++
	switch ev.Quality {
	case ai.QualityOptimal:
		d.Optimal++
	case ai.QualityGood:
		d.Good++
	default:
		d.Poor++
	}
	switch ev.Action.Kind {
	case core.ActionFire:
		d.Fire++
	case core.ActionMove:
		d.Move++
	default:
		d.Idle++
	}
}

func reactionStats(xs []float64) ReactionStats {
	if len(xs) == 0 {
		return ReactionStats{}
	}
	r := ReactionStats{Samples: len(xs), Min: xs[0], Max: xs[0]}
	var sum float64
	for _, x := range xs {
		sum += x
		r.Min = math.Min(r.Min, x)
		r.Max = math.Max(r.Max, x)
	}
	r.Mean = sum / float64(len(xs))
	var sq float64
	for _, x := range xs {
		sq += (x - r.Mean) * (x - r.Mean)
	}
	r.StdDev = math.Sqrt(sq / float64(len(xs)))
	return r
}

// balance derives the engagement heuristics.
func balance(m AIMetrics, final trace.FinalState) BalanceMetrics {
	var b BalanceMetrics

	livesFrac := 0.0
	if final.InitialLives > 0 {
		livesFrac = clamp01(float64(m.LivesLost) / float64(final.InitialLives))
	}
	missRate := float64(m.Misses) / math.Max(1, float64(m.Shots))
	poorRate := 0.0
	if m.Decisions.Total > 0 {
		poorRate = float64(m.Decisions.Poor) / float64(m.Decisions.Total)
	}

	if m.LevelCompleted {
		if final.Lives <= 1 && final.InitialLives > 1 {
			b.NearLoss = 1
		}
		if m.LivesLost == 0 && m.Accuracy >= dominantAccuracy {
			b.DominantWin = 1
		}
	}

	b.CognitiveLoad = clamp01(0.6*math.Min(1, float64(m.Frames.PeakThreats)/threatSaturation) +
		0.4*math.Min(1, float64(m.Frames.PeakTargets)/targetSaturation))

	switch r := m.ReactionTime; {
	case r.Samples == 0:
		b.FlowState = 0
	case r.Samples == 1 || r.Mean == 0:
		b.FlowState = 0.5
	default:
		b.FlowState = clamp01(1 - r.StdDev/r.Mean)
	}

	if m.Decisions.Total > 0 {
		b.Engagement = float64(m.Decisions.Fire+m.Decisions.Move) / float64(m.Decisions.Total)
	}

	b.Frustration = clamp01(0.5*missRate + 0.3*livesFrac + 0.2*poorRate)

	completion := 0.15
	if m.LevelCompleted {
		completion = 0.5
	}
	b.Satisfaction = clamp01(completion + 0.3*m.Accuracy/100 + 0.2*(1-livesFrac))
	return b
}

func clamp01(v float64) float64 {
	return core.ClampF(v, 0, 1)
}
