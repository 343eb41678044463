package core

import "fmt"

// ActionKind is the discrete choice an AI policy makes each decision.
type ActionKind int

const (
	ActionIdle ActionKind = iota // Do nothing this decision
	ActionMove                   // Move the shooter toward Action.X
	ActionFire                   // Fire one projectile straight up
)

// String returns a human-readable name for the action kind.
func (k ActionKind) String() string {
	switch k {
	case ActionIdle:
		return "idle"
	case ActionMove:
		return "move"
	case ActionFire:
		return "fire"
	default:
		return "unknown"
	}
}

// Action is a policy decision: move(x), fire or idle.
type Action struct {
	Kind ActionKind
	X    float64 // Destination x for ActionMove, ignored otherwise
}

// Idle returns the idle action.
func Idle() Action {
	return Action{Kind: ActionIdle}
}

// Fire returns the fire action.
func Fire() Action {
	return Action{Kind: ActionFire}
}

// MoveTo returns a move action toward x.
func MoveTo(x float64) Action {
	return Action{Kind: ActionMove, X: x}
}

// String formats the action for logs and history dumps.
func (a Action) String() string {
	if a.Kind == ActionMove {
		return fmt.Sprintf("move(%.1f)", a.X)
	}
	return a.Kind.String()
}
