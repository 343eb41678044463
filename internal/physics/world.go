// Package physics advances targets, projectiles and the shooter with a
// fixed timestep, resolves boundary bounces and projectile hits, and splits
// destroyed targets.
package physics

import (
	"math"

	"github.com/vovakirdan/popshot/internal/core"
	"github.com/vovakirdan/popshot/internal/events"
)

// Params are the resolved physics constants of one session.
type Params struct {
	Width, Height      float64
	Gravity            float64 // Downward acceleration, units/s^2
	AirResistance      float64 // Per-tick velocity factor, <= 1
	WallRestitution    float64
	CeilingRestitution float64
	FloorRestitution   float64
	CleanupMargin      float64

	ProjectileSpeed  float64
	ProjectileWidth  float64
	ProjectileHeight float64
	MaxProjectiles   int
	FireCooldown     float64

	PlayerSpeed  float64
	PlayerWidth  float64
	PlayerHeight float64
}

// HitPair is one resolved projectile/target collision.
type HitPair struct {
	ProjectileID int
	TargetID     int
}

// StepResult summarizes what happened during one Step.
type StepResult struct {
	Hits       []HitPair
	Misses     int
	Eliminated int
	Splits     int
	Escaped    int // Targets removed by the safety cleanup
	Points     int
}

// World owns every entity of one session.
type World struct {
	Params      Params
	Player      Player
	Targets     []*Target
	Projectiles []*Projectile

	Score      int
	Shots      int
	Hits       int
	Misses     int
	Eliminated int
	Spawned    int
	Escaped    int

	pool           *Pool
	nextTarget     int
	nextProjectile int
}

// NewWorld creates a world with the shooter centered on the floor.
func NewWorld(p Params) *World {
	w := &World{
		Params:         p,
		pool:           NewPool(),
		nextTarget:     1,
		nextProjectile: 1,
	}
	w.Player = Player{
		Pos:     core.V(p.Width/2, p.Height-p.PlayerHeight/2),
		W:       p.PlayerWidth,
		H:       p.PlayerHeight,
		Speed:   p.PlayerSpeed,
		TargetX: p.Width / 2,
	}
	return w
}

// Pool returns the session's entity pool.
func (w *World) Pool() *Pool {
	return w.pool
}

// SpawnTarget creates a live target. The returned pointer is pooled and
// must not be used once the target is destroyed.
func (w *World) SpawnTarget(s Spawn) *Target {
	tier := clampTier(s.Tier)
	sizeScale := orOne(s.SizeScale)
	speedScale := orOne(s.SpeedScale)
	dir := 1.0
	if s.Direction < 0 {
		dir = -1
	}

	t := w.pool.AcquireTarget()
	t.ID = w.nextTarget
	t.Type = s.Type
	t.Tier = tier
	t.Size = TierSize(tier) * sizeScale
	t.Pos = core.V(core.ClampF(s.X, t.Size/2, w.Params.Width-t.Size/2), s.Y)
	t.Vel = core.V(dir*TierSpeed(tier)*speedScale, 0)
	t.GravityScale = orOne(s.GravityScale)
	t.SpeedScale = speedScale
	t.Split = s.Split
	w.nextTarget++
	w.Spawned++
	w.Targets = append(w.Targets, t)
	return t
}

// CanFire reports whether a shot is allowed now.
func (w *World) CanFire() bool {
	return w.Player.Cooldown <= 0 && len(w.Projectiles) < w.Params.MaxProjectiles
}

// FireProjectile launches a projectile from the top of the shooter. It
// returns false while on cooldown or at the projectile limit.
func (w *World) FireProjectile(now float64, sink events.Sink) (int, bool) {
	if !w.CanFire() {
		return 0, false
	}
	pr := w.pool.AcquireProjectile()
	pr.ID = w.nextProjectile
	pr.W = w.Params.ProjectileWidth
	pr.H = w.Params.ProjectileHeight
	pr.Pos = core.V(w.Player.Pos.X, w.Player.Pos.Y-w.Player.H/2-pr.H/2)
	pr.Vel = core.V(0, -w.Params.ProjectileSpeed)
	w.nextProjectile++
	w.Projectiles = append(w.Projectiles, pr)
	w.Player.Cooldown = w.Params.FireCooldown
	w.Shots++
	sink.Emit(events.Shot{Time: now, ProjectileID: pr.ID, X: pr.Pos.X})
	return pr.ID, true
}

// MovePlayerTo sets where the shooter walks to.
func (w *World) MovePlayerTo(x float64) {
	half := w.Player.W / 2
	w.Player.TargetX = core.ClampF(x, half, w.Params.Width-half)
}

// Contacts returns live targets touching the shooter, in list order.
func (w *World) Contacts() []*Target {
	pr := w.Player.Rect()
	var out []*Target
	for _, t := range w.Targets {
		if t.Rect().Intersects(pr) {
			out = append(out, t)
		}
	}
	return out
}

// RemoveTarget destroys a target without scoring it.
func (w *World) RemoveTarget(id int) bool {
	for i, t := range w.Targets {
		if t.ID == id {
			w.Targets = append(w.Targets[:i], w.Targets[i+1:]...)
			w.pool.ReleaseTarget(t)
			return true
		}
	}
	return false
}

// Step advances the world by dt seconds. now is the simulated time after
// the step and stamps emitted events.
func (w *World) Step(dt, now float64, sink events.Sink) StepResult {
	var res StepResult

	w.stepPlayer(dt)
	for _, t := range w.Targets {
		w.integrate(t, dt)
		w.bounce(t)
	}
	w.stepProjectiles(dt, now, sink, &res)
	pairs := w.collide()
	w.resolve(pairs, now, sink, &res)
	w.cleanup(&res)

	res.Hits = pairs
	return res
}

func (w *World) stepPlayer(dt float64) {
	p := &w.Player
	if p.Cooldown > 0 {
		p.Cooldown -= dt
		if p.Cooldown < 0 {
			p.Cooldown = 0
		}
	}
	dx := p.TargetX - p.Pos.X
	maxStep := p.Speed * dt
	if math.Abs(dx) <= maxStep {
		p.Pos.X = p.TargetX
	} else if dx > 0 {
		p.Pos.X += maxStep
	} else {
		p.Pos.X -= maxStep
	}
}

// integrate applies semi-implicit Euler: velocity first, then position.
func (w *World) integrate(t *Target, dt float64) {
	t.Vel.Y += w.Params.Gravity * t.GravityScale * dt
	t.Vel = t.Vel.Scale(w.Params.AirResistance)
	t.Pos = t.Pos.Add(t.Vel.Scale(dt))
}

// bounce reflects a target off the walls, ceiling and floor. Each
// coefficient is at most 1, so a bounce never adds energy.
func (w *World) bounce(t *Target) {
	half := t.Size / 2
	p := w.Params

	// Left wall
	if t.Pos.X-half < 0 {
		t.Pos.X = half
		if t.Vel.X < 0 {
			t.Vel.X = -t.Vel.X * p.WallRestitution
		}
	}

	// Right wall
	if t.Pos.X+half > p.Width {
		t.Pos.X = p.Width - half
		if t.Vel.X > 0 {
			t.Vel.X = -t.Vel.X * p.WallRestitution
		}
	}

	// Ceiling; targets entering from above keep falling in
	if t.Pos.Y-half < 0 && t.Vel.Y < 0 {
		t.Pos.Y = half
		t.Vel.Y = -t.Vel.Y * p.CeilingRestitution
	}

	// Floor
	if t.Pos.Y+half > p.Height {
		t.Pos.Y = p.Height - half
		if t.Vel.Y > 0 {
			t.Vel.Y = -t.Vel.Y * p.FloorRestitution
		}
	}
}

// stepProjectiles moves projectiles and expires those past the top edge.
func (w *World) stepProjectiles(dt, now float64, sink events.Sink, res *StepResult) {
	live := w.Projectiles[:0]
	for _, pr := range w.Projectiles {
		pr.Pos = pr.Pos.Add(pr.Vel.Scale(dt))
		if pr.Pos.Y+pr.H/2 < 0 {
			w.Misses++
			res.Misses++
			sink.Emit(events.Miss{Time: now, ProjectileID: pr.ID, X: pr.Pos.X})
			w.pool.ReleaseProjectile(pr)
			continue
		}
		live = append(live, pr)
	}
	clearTail(w.Projectiles, len(live))
	w.Projectiles = live
}

// collide pairs projectiles with targets. Projectiles are scanned in order
// and each takes the first unclaimed target it overlaps, so every
// projectile and every target appears in at most one pair.
func (w *World) collide() []HitPair {
	var pairs []HitPair
	claimed := make(map[int]bool)
	for _, pr := range w.Projectiles {
		r := pr.Rect()
		for _, t := range w.Targets {
			if claimed[t.ID] {
				continue
			}
			if r.Intersects(t.Rect()) {
				claimed[t.ID] = true
				pairs = append(pairs, HitPair{ProjectileID: pr.ID, TargetID: t.ID})
				break
			}
		}
	}
	return pairs
}

func (w *World) resolve(pairs []HitPair, now float64, sink events.Sink, res *StepResult) {
	if len(pairs) == 0 {
		return
	}
	hitProjectile := make(map[int]bool, len(pairs))
	hitTarget := make(map[int]bool, len(pairs))
	for _, hp := range pairs {
		hitProjectile[hp.ProjectileID] = true
		hitTarget[hp.TargetID] = true
	}

	projectiles := w.Projectiles[:0]
	for _, pr := range w.Projectiles {
		if hitProjectile[pr.ID] {
			w.pool.ReleaseProjectile(pr)
			continue
		}
		projectiles = append(projectiles, pr)
	}
	clearTail(w.Projectiles, len(projectiles))
	w.Projectiles = projectiles

	byID := make(map[int]*Target, len(pairs))
	targets := make([]*Target, 0, len(w.Targets))
	for _, t := range w.Targets {
		if hitTarget[t.ID] {
			byID[t.ID] = t
			continue
		}
		targets = append(targets, t)
	}
	w.Targets = targets

	for _, hp := range pairs {
		t := byID[hp.TargetID]
		points := TierPoints(t.Tier)
		w.Score += points
		w.Hits++
		res.Points += points
		sink.Emit(events.Hit{
			Time:         now,
			ProjectileID: hp.ProjectileID,
			TargetID:     t.ID,
			Tier:         t.Tier,
			Points:       points,
			Pos:          t.Pos,
		})

		children := 0
		if t.Tier > MinTier && t.Split.Enabled && t.Split.Count > 0 {
			children = w.split(t)
			res.Splits++
		} else {
			w.Eliminated++
			res.Eliminated++
		}
		sink.Emit(events.Elimination{
			Time:     now,
			TargetID: t.ID,
			Tier:     t.Tier,
			Split:    children > 0,
			Children: children,
		})
		w.pool.ReleaseTarget(t)
	}
}

// split spawns the children of a destroyed parent at even angular
// intervals around its last position.
func (w *World) split(parent *Target) int {
	n := parent.Split.Count
	size := parent.Size * parent.Split.SizeReduction
	bonus := orOne(parent.Split.SpeedBonus)
	tier := parent.Tier - 1
	speed := TierSpeed(tier) * parent.SpeedScale * bonus
	offset := size / 2

	for i := 0; i < n; i++ {
		angle := 2 * math.Pi * float64(i) / float64(n)
		dir := core.V(math.Cos(angle), math.Sin(angle))

		c := w.pool.AcquireTarget()
		c.ID = w.nextTarget
		c.Type = parent.Type
		c.Tier = tier
		c.Size = size
		c.Pos = parent.Pos.Add(dir.Scale(offset))
		c.Pos.X = core.ClampF(c.Pos.X, size/2, w.Params.Width-size/2)
		c.Pos.Y = math.Min(c.Pos.Y, w.Params.Height-size/2)
		c.Vel = dir.Scale(speed)
		c.GravityScale = parent.GravityScale
		c.SpeedScale = parent.SpeedScale * bonus
		c.Split = parent.Split
		w.nextTarget++
		w.Targets = append(w.Targets, c)
	}
	return n
}

// cleanup removes targets that left the field far beyond its bounds or
// whose state is no longer finite.
func (w *World) cleanup(res *StepResult) {
	m := w.Params.CleanupMargin
	live := w.Targets[:0]
	for _, t := range w.Targets {
		out := t.Pos.X < -m || t.Pos.X > w.Params.Width+m || t.Pos.Y < -m || t.Pos.Y > w.Params.Height+m
		if out || !finite(t.Pos) || !finite(t.Vel) {
			w.Escaped++
			res.Escaped++
			w.pool.ReleaseTarget(t)
			continue
		}
		live = append(live, t)
	}
	clearTail(w.Targets, len(live))
	w.Targets = live
}

// clearTail nils the slots past n so released objects are not retained by
// the backing array.
func clearTail[T any](s []*T, n int) {
	for i := n; i < len(s); i++ {
		s[i] = nil
	}
}

func finite(v core.Vec2) bool {
	return !math.IsNaN(v.X) && !math.IsNaN(v.Y) && !math.IsInf(v.X, 0) && !math.IsInf(v.Y, 0)
}

func orOne(v float64) float64 {
	if v <= 0 {
		return 1
	}
	return v
}
