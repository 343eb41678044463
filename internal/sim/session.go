// Package sim runs one simulation session: it ties physics, wave scheduling
// and an AI policy into a fixed-timestep loop, applies termination rules
// and hands the recorded trace to the metrics aggregator.
package sim

import (
	"errors"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/vovakirdan/popshot/internal/ai"
	"github.com/vovakirdan/popshot/internal/config"
	"github.com/vovakirdan/popshot/internal/core"
	"github.com/vovakirdan/popshot/internal/events"
	"github.com/vovakirdan/popshot/internal/level"
	"github.com/vovakirdan/popshot/internal/physics"
	"github.com/vovakirdan/popshot/internal/trace"
	"github.com/vovakirdan/popshot/internal/wave"
)

// Options configures a session.
type Options struct {
	World      core.WorldConfig
	Physics    config.PhysicsConfig
	Session    config.SessionConfig
	Policy     ai.Policy
	Assessment ai.Assessment // Zero value uses ai.DefaultAssessment
	Clock      Clock         // Nil uses SystemClock
	Logger     *log.Logger   // Nil discards
	Bus        *events.Bus   // Optional live subscribers
	Outbox     *events.Outbox
	SessionID  string // Empty generates a UUID
	PersonaID  string
}

// DefaultOptions returns options built from the default configuration.
func DefaultOptions(policy ai.Policy, seed int64) Options {
	cfg := config.DefaultConfig()
	return OptionsFromConfig(cfg, policy, seed)
}

// OptionsFromConfig builds options from the application configuration.
func OptionsFromConfig(cfg config.Config, policy ai.Policy, seed int64) Options {
	return Options{
		World:   cfg.World.Core(seed),
		Physics: cfg.Physics,
		Session: cfg.Session,
		Policy:  policy,
	}
}

type threat struct {
	targetID int
	since    float64
	hit      bool
}

// Session owns the mutable state of one run. It is single-threaded.
type Session struct {
	id     string
	level  *level.Level
	opts   Options
	clock  Clock
	logger *log.Logger
	assess ai.Assessment

	world *physics.World
	sched *wave.Scheduler
	log   *events.Log
	sink  events.Sink

	dt           float64
	tick         int
	elapsed      float64
	lives        int
	livesLost    int
	invulnUntil  float64
	nextDecision float64
	nextPerf     float64
	threats      []threat
	lastFrame    float64 // Milliseconds

	history       []trace.HistoryRecord
	outcome       trace.Outcome
	reason        trace.Reason
	runtimeErrors int
	objectivesMet bool
	lastErr       error

	start time.Time
	wall  time.Duration
}

// New creates a session for lvl. It fails on configuration errors.
func New(lvl *level.Level, opts Options) (*Session, error) {
	if lvl == nil {
		return nil, errors.New("sim: nil level")
	}
	if opts.Policy == nil {
		return nil, errors.New("sim: nil policy")
	}
	if opts.World.Width <= 0 || opts.World.Height <= 0 {
		return nil, fmt.Errorf("sim: invalid world size %vx%v", opts.World.Width, opts.World.Height)
	}
	if opts.Session.DecisionInterval <= 0 {
		return nil, fmt.Errorf("sim: decision interval must be positive, got %v", opts.Session.DecisionInterval)
	}
	if len(lvl.Waves) == 0 {
		return nil, fmt.Errorf("sim: level %s has no waves", lvl.ID)
	}

	if opts.Clock == nil {
		opts.Clock = SystemClock{}
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	if opts.Assessment == (ai.Assessment{}) {
		opts.Assessment = ai.DefaultAssessment()
	}
	if opts.SessionID == "" {
		opts.SessionID = uuid.NewString()
	}

	s := &Session{
		id:      opts.SessionID,
		level:   lvl,
		opts:    opts,
		clock:   opts.Clock,
		logger:  opts.Logger.With("session", shortID(opts.SessionID), "level", lvl.ID),
		assess:  opts.Assessment,
		world:   physics.NewWorld(resolveParams(lvl, opts)),
		sched:   wave.NewScheduler(lvl, opts.World.Width, opts.World.Height, opts.World.Seed),
		log:     events.NewLog(),
		dt:      opts.World.Dt(),
		lives:   opts.Session.Lives,
		outcome: trace.OutcomeRunning,
	}
	if s.lives <= 0 {
		s.lives = 1
	}
	s.sink = s.log
	if opts.Bus != nil {
		s.sink = events.Tee(s.log, opts.Bus)
	}
	return s, nil
}

// resolveParams combines the base physics with the level's environment
// overrides and balance multipliers.
func resolveParams(lvl *level.Level, opts Options) physics.Params {
	b := lvl.Balance.WithDefaults(lvl.Difficulty)
	ph := opts.Physics
	env := lvl.Environment

	restitution := func(override, base float64) float64 {
		v := base
		if override > 0 {
			v = override
		}
		return core.ClampF(v*b.BounceEnergy, 0, 1)
	}
	air := ph.AirResistance
	if env.AirResistance > 0 {
		air = env.AirResistance
	}
	maxProjectiles := ph.MaxProjectiles
	if maxProjectiles <= 0 {
		maxProjectiles = math.MaxInt32
	}

	return physics.Params{
		Width:              opts.World.Width,
		Height:             opts.World.Height,
		Gravity:            ph.Gravity * b.Gravity,
		AirResistance:      core.ClampF(air, 0, 1),
		WallRestitution:    restitution(env.WallBounce, ph.WallRestitution),
		CeilingRestitution: restitution(env.CeilingBounce, ph.CeilingRestitution),
		FloorRestitution:   restitution(env.FloorBounce, ph.FloorRestitution),
		CleanupMargin:      ph.CleanupMargin,
		ProjectileSpeed:    ph.ProjectileSpeed * b.ProjectileSpeed,
		ProjectileWidth:    ph.ProjectileWidth,
		ProjectileHeight:   ph.ProjectileHeight,
		MaxProjectiles:     maxProjectiles,
		FireCooldown:       ph.FireCooldown,
		PlayerSpeed:        ph.PlayerSpeed * b.PlayerSpeed,
		PlayerWidth:        ph.PlayerWidth,
		PlayerHeight:       ph.PlayerHeight,
	}
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// Outcome returns the current lifecycle state.
func (s *Session) Outcome() trace.Outcome { return s.outcome }

// Reason returns why the session ended.
func (s *Session) Reason() trace.Reason { return s.reason }

// Elapsed returns simulated seconds since level start.
func (s *Session) Elapsed() float64 { return s.elapsed }

// Tick returns the number of completed iterations.
func (s *Session) Tick() int { return s.tick }

// World exposes the physics world for inspection.
func (s *Session) World() *physics.World { return s.world }

// Events returns the analytics log.
func (s *Session) Events() *events.Log { return s.log }

// History returns the recorded iterations.
func (s *Session) History() []trace.HistoryRecord { return s.history }

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
