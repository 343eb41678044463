package ai

import "github.com/vovakirdan/popshot/internal/core"

// TargetView is the read-only view of a live target handed to a policy.
type TargetView struct {
	ID   int
	Pos  core.Vec2 // Center
	Vel  core.Vec2
	Size float64
	Tier int
}

// WorldState is the snapshot a policy decides on. It is a copy; policies
// cannot mutate the session through it.
type WorldState struct {
	Time            float64 // Simulated seconds since level start
	Width, Height   float64
	Player          core.Vec2 // Shooter center
	PlayerWidth     float64
	PlayerSpeed     float64
	ProjectileSpeed float64
	CanFire         bool
	Projectiles     int
	Score           int
	Lives           int
	Targets         []TargetView
}

// Above returns targets whose center is above the shooter.
func (s WorldState) Above() []TargetView {
	out := make([]TargetView, 0, len(s.Targets))
	for _, t := range s.Targets {
		if t.Pos.Y < s.Player.Y {
			out = append(out, t)
		}
	}
	return out
}

// LeadX predicts where a target will be horizontally when a projectile fired
// now reaches its height.
func (s WorldState) LeadX(t TargetView) float64 {
	if s.ProjectileSpeed <= 0 {
		return t.Pos.X
	}
	flight := (s.Player.Y - t.Pos.Y) / s.ProjectileSpeed
	if flight < 0 {
		flight = 0
	}
	x := t.Pos.X + t.Vel.X*flight
	return core.ClampF(x, t.Size/2, s.Width-t.Size/2)
}

// NearestThreat returns the closest target inside the danger zone within the
// given horizontal threshold of the shooter.
func (s WorldState) NearestThreat(threshold, dangerZone float64) (TargetView, bool) {
	var best TargetView
	bestDist := -1.0
	line := s.Height * dangerZone
	for _, t := range s.Targets {
		if t.Pos.Y+t.Size/2 < line {
			continue
		}
		dx := abs(t.Pos.X - s.Player.X)
		if dx > threshold+t.Size/2+s.PlayerWidth/2 {
			continue
		}
		d := t.Pos.Sub(s.Player).Len()
		if bestDist < 0 || d < bestDist || (d == bestDist && t.ID < best.ID) {
			best, bestDist = t, d
		}
	}
	return best, bestDist >= 0
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
