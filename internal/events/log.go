package events

import "github.com/vovakirdan/popshot/internal/core"

// Log is the append-only analytics log of one session. It is owned by a
// single session and not safe for concurrent use.
type Log struct {
	events []Event
	counts map[Kind]int
}

// NewLog creates an empty log.
func NewLog() *Log {
	return &Log{counts: make(map[Kind]int)}
}

// Emit appends e to the log.
func (l *Log) Emit(e Event) {
	l.events = append(l.events, e)
	l.counts[e.Kind()]++
}

// Events returns the recorded events in emission order. The slice must not
// be modified.
func (l *Log) Events() []Event {
	return l.events
}

// Len returns the number of recorded events.
func (l *Log) Len() int {
	return len(l.events)
}

// Count returns how many events of kind k were recorded.
func (l *Log) Count(k Kind) int {
	return l.counts[k]
}

// Payload flattens an event into the timestamp plus key/value map shape
// external analytics consumers expect.
func Payload(e Event) map[string]any {
	m := map[string]any{
		"type":      string(e.Kind()),
		"timestamp": e.At(),
	}
	switch ev := e.(type) {
	case Shot:
		m["projectileId"] = ev.ProjectileID
		m["x"] = ev.X
	case Hit:
		m["projectileId"] = ev.ProjectileID
		m["targetId"] = ev.TargetID
		m["tier"] = ev.Tier
		m["points"] = ev.Points
		m["position"] = vec(ev.Pos)
	case Miss:
		m["projectileId"] = ev.ProjectileID
		m["x"] = ev.X
	case Elimination:
		m["targetId"] = ev.TargetID
		m["tier"] = ev.Tier
		m["split"] = ev.Split
		m["children"] = ev.Children
	case ThreatDetected:
		m["targetId"] = ev.TargetID
		m["distance"] = ev.Distance
	case Dodge:
		m["targetId"] = ev.TargetID
		m["success"] = ev.Success
		m["duration"] = ev.Duration
	case Decision:
		m["action"] = ev.Action.Kind.String()
		if ev.Action.Kind == core.ActionMove {
			m["x"] = ev.Action.X
		}
		m["focusId"] = ev.FocusID
		m["reactionTime"] = ev.ReactionTime
		m["evasive"] = ev.Evasive
		m["quality"] = string(ev.Quality)
		m["targets"] = ev.Targets
		m["threats"] = ev.Threats
	case Performance:
		m["frameMs"] = ev.FrameMillis
		m["targets"] = ev.Targets
		m["projectiles"] = ev.Projectiles
		m["threats"] = ev.Threats
	case WaveStarted:
		m["waveId"] = ev.WaveID
	case WaveEnded:
		m["waveId"] = ev.WaveID
		m["spawned"] = ev.Spawned
	case LifeLost:
		m["targetId"] = ev.TargetID
		m["livesLeft"] = ev.LivesLeft
	}
	return m
}

func vec(v core.Vec2) map[string]float64 {
	return map[string]float64{"x": v.X, "y": v.Y}
}
