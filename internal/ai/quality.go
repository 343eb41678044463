package ai

import "github.com/vovakirdan/popshot/internal/core"

// Quality is the retrospective label attached to a decision. It feeds
// metrics only and never changes control flow.
type Quality string

const (
	QualityOptimal Quality = "optimal"
	QualityGood    Quality = "good"
	QualityPoor    Quality = "poor"
)

// Assessment holds the fixed thresholds used to label decisions. They are
// independent of the persona so labels are comparable across personas.
type Assessment struct {
	FireProximity     float64 // A shot within this offset of a target is on target
	ThreatThreshold   float64
	DangerZone        float64
	ExcessiveReaction float64 // Seconds; slower reactions are downgraded
}

// DefaultAssessment returns the standard labeling thresholds.
func DefaultAssessment() Assessment {
	return Assessment{
		FireProximity:     16,
		ThreatThreshold:   60,
		DangerZone:        0.65,
		ExcessiveReaction: 1.0,
	}
}

// Assess labels a decision against the snapshot it was made on.
func (a Assessment) Assess(s WorldState, d Decision) Quality {
	q := a.base(s, d)
	if d.ReactionTime > a.ExcessiveReaction {
		q = downgrade(q)
	}
	return q
}

func (a Assessment) base(s WorldState, d Decision) Quality {
	threat, threatened := s.NearestThreat(a.ThreatThreshold, a.DangerZone)

	switch d.Action.Kind {
	case core.ActionFire:
		off, ok := nearestOffset(s)
		switch {
		case !ok:
			return QualityPoor
		case off <= a.FireProximity:
			return QualityOptimal
		case off <= 2*a.FireProximity:
			return QualityGood
		default:
			return QualityPoor
		}

	case core.ActionMove:
		if threatened {
			before := abs(threat.Pos.X - s.Player.X)
			after := abs(threat.Pos.X - d.Action.X)
			if after > before {
				return QualityOptimal
			}
			return QualityPoor
		}
		off, ok := nearestOffset(s)
		if !ok {
			return QualityPoor
		}
		after, _ := nearestOffsetFrom(s, d.Action.X)
		switch {
		case after <= a.FireProximity:
			return QualityOptimal
		case after < off:
			return QualityGood
		default:
			return QualityPoor
		}

	default:
		if threatened {
			return QualityPoor
		}
		if len(s.Targets) == 0 {
			return QualityOptimal
		}
		return QualityGood
	}
}

func nearestOffset(s WorldState) (float64, bool) {
	return nearestOffsetFrom(s, s.Player.X)
}

// nearestOffsetFrom returns the smallest horizontal distance from x to the
// lead point of any target above the shooter.
func nearestOffsetFrom(s WorldState, x float64) (float64, bool) {
	best, found := 0.0, false
	for _, t := range s.Above() {
		d := abs(s.LeadX(t) - x)
		if !found || d < best {
			best, found = d, true
		}
	}
	return best, found
}

func downgrade(q Quality) Quality {
	switch q {
	case QualityOptimal:
		return QualityGood
	default:
		return QualityPoor
	}
}
