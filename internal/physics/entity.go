package physics

import (
	"github.com/vovakirdan/popshot/internal/core"
	"github.com/vovakirdan/popshot/internal/level"
)

// Target is a bouncing target. Pos is the center; the hitbox is a square of
// side Size.
type Target struct {
	ID           int
	Type         string
	Tier         int
	Pos          core.Vec2
	Vel          core.Vec2
	Size         float64
	GravityScale float64
	SpeedScale   float64
	Split        level.SplitBehavior

	pooled bool
}

// Rect returns the target's hitbox.
func (t *Target) Rect() core.Rect {
	return core.RectAround(t.Pos, t.Size, t.Size)
}

func (t *Target) reset() {
	*t = Target{pooled: t.pooled}
}

// Projectile travels straight up from the shooter.
type Projectile struct {
	ID   int
	Pos  core.Vec2 // Center
	Vel  core.Vec2
	W, H float64

	pooled bool
}

// Rect returns the projectile's hitbox.
func (p *Projectile) Rect() core.Rect {
	return core.RectAround(p.Pos, p.W, p.H)
}

func (p *Projectile) reset() {
	*p = Projectile{pooled: p.pooled}
}

// Player is the shooter. It moves horizontally along the floor toward
// TargetX at a bounded speed.
type Player struct {
	Pos      core.Vec2 // Center
	W, H     float64
	Speed    float64
	TargetX  float64
	Cooldown float64 // Seconds until the next shot is allowed
}

// Rect returns the player's hitbox.
func (p *Player) Rect() core.Rect {
	return core.RectAround(p.Pos, p.W, p.H)
}

// Spawn describes a target to create.
type Spawn struct {
	X, Y         float64
	Tier         int
	Type         string
	Direction    float64 // -1 left, +1 right
	SizeScale    float64
	SpeedScale   float64
	GravityScale float64
	Split        level.SplitBehavior
}
