package physics

// Pool recycles targets and projectiles within one session. Objects are
// fully reset on release and only handed out again after that.
type Pool struct {
	targets     []*Target
	projectiles []*Projectile

	allocated int
	reused    int
}

// NewPool creates an empty pool.
func NewPool() *Pool {
	return &Pool{}
}

// AcquireTarget returns a zeroed target.
func (p *Pool) AcquireTarget() *Target {
	if n := len(p.targets); n > 0 {
		t := p.targets[n-1]
		p.targets = p.targets[:n-1]
		t.pooled = false
		p.reused++
		return t
	}
	p.allocated++
	return &Target{}
}

// ReleaseTarget resets t and returns it to the pool. The caller must have
// removed t from every live list. Releasing twice panics.
func (p *Pool) ReleaseTarget(t *Target) {
	if t.pooled {
		panic("physics: target released twice")
	}
	t.reset()
	t.pooled = true
	p.targets = append(p.targets, t)
}

// AcquireProjectile returns a zeroed projectile.
func (p *Pool) AcquireProjectile() *Projectile {
	if n := len(p.projectiles); n > 0 {
		pr := p.projectiles[n-1]
		p.projectiles = p.projectiles[:n-1]
		pr.pooled = false
		p.reused++
		return pr
	}
	p.allocated++
	return &Projectile{}
}

// ReleaseProjectile resets pr and returns it to the pool. Releasing twice
// panics.
func (p *Pool) ReleaseProjectile(pr *Projectile) {
	if pr.pooled {
		panic("physics: projectile released twice")
	}
	pr.reset()
	pr.pooled = true
	p.projectiles = append(p.projectiles, pr)
}

// Stats returns how many objects were freshly allocated and how many
// acquisitions were served from the free lists.
func (p *Pool) Stats() (allocated, reused int) {
	return p.allocated, p.reused
}

// Free returns the number of idle targets and projectiles.
func (p *Pool) Free() (targets, projectiles int) {
	return len(p.targets), len(p.projectiles)
}
