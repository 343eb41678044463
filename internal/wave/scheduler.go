// Package wave activates the timed waves of a level and emits target spawns
// according to each spawn definition's own cadence.
package wave

import (
	"math/rand"

	"github.com/vovakirdan/popshot/internal/config"
	"github.com/vovakirdan/popshot/internal/level"
	"github.com/vovakirdan/popshot/internal/physics"
)

// defState tracks one spawn definition independently of its siblings.
type defState struct {
	sinceLast float64
	spawned   int
}

type waveState struct {
	wave    level.EnemyWave
	defs    []defState
	started bool
	ended   bool
	active  bool
	emitted int // Spawns emitted by this wave, used by positional patterns
}

// Ended reports one wave deactivation.
type Ended struct {
	WaveID  string
	Spawned int
}

// Output is what one Update produced. Started and Ended are edge-triggered:
// every wave appears in each at most once over a session.
type Output struct {
	Spawns  []physics.Spawn
	Started []string
	Ended   []Ended
}

// Scheduler drives the waves of one level. It is owned by a single session.
type Scheduler struct {
	waves   []*waveState
	balance config.LevelBalance
	width   float64
	height  float64
	rng     *rand.Rand
	spawned int
}

// NewScheduler creates a scheduler for lvl on a field of the given size.
func NewScheduler(lvl *level.Level, width, height float64, seed int64) *Scheduler {
	s := &Scheduler{
		balance: lvl.Balance.WithDefaults(lvl.Difficulty),
		width:   width,
		height:  height,
		rng:     rand.New(rand.NewSource(seed)),
	}
	for _, w := range lvl.Waves {
		s.waves = append(s.waves, &waveState{
			wave: w,
			defs: make([]defState, len(w.Spawns)),
		})
	}
	return s
}

// Update advances scheduling to elapsed seconds since level start. dt is
// the time since the previous Update.
func (s *Scheduler) Update(elapsed, dt float64) Output {
	var out Output
	for _, ws := range s.waves {
		w := ws.wave
		inWindow := elapsed >= w.StartTime && elapsed <= w.EndTime()

		// Activation; counters start on the next tick
		if !ws.started && inWindow {
			ws.started = true
			ws.active = true
			out.Started = append(out.Started, w.ID)
			continue
		}

		// Deactivation, including windows skipped entirely
		if !ws.ended && elapsed > w.EndTime() {
			if !ws.started {
				ws.started = true
				out.Started = append(out.Started, w.ID)
			}
			ws.active = false
			ws.ended = true
			out.Ended = append(out.Ended, Ended{WaveID: w.ID, Spawned: ws.emitted})
			continue
		}

		if !ws.active {
			continue
		}
		for i := range ws.defs {
			def := w.Spawns[i]
			st := &ws.defs[i]
			if st.spawned >= def.Count {
				continue
			}
			st.sinceLast += dt
			if st.sinceLast >= s.interval(def) {
				out.Spawns = append(out.Spawns, s.spawn(ws, def))
				st.spawned++
				st.sinceLast = 0
			}
		}
	}
	return out
}

// AllWavesEnded reports whether every wave has deactivated.
func (s *Scheduler) AllWavesEnded() bool {
	for _, ws := range s.waves {
		if !ws.ended {
			return false
		}
	}
	return true
}

// Spawned returns the number of spawns emitted so far.
func (s *Scheduler) Spawned() int {
	return s.spawned
}

// Pending returns spawns still owed by waves that have not ended.
func (s *Scheduler) Pending() int {
	n := 0
	for _, ws := range s.waves {
		if ws.ended {
			continue
		}
		for i, def := range ws.wave.Spawns {
			n += def.Count - ws.defs[i].spawned
		}
	}
	return n
}

// ActiveWaves returns the ids of currently active waves.
func (s *Scheduler) ActiveWaves() []string {
	var ids []string
	for _, ws := range s.waves {
		if ws.active {
			ids = append(ids, ws.wave.ID)
		}
	}
	return ids
}

// interval is the effective cadence of a definition under the level's
// spawn-rate multiplier.
func (s *Scheduler) interval(def level.EnemySpawnDefinition) float64 {
	rate := s.balance.SpawnRate
	if rate <= 0 {
		rate = 1
	}
	return def.SpawnInterval / rate
}

func (s *Scheduler) spawn(ws *waveState, def level.EnemySpawnDefinition) physics.Spawn {
	speed, gravity := def.Movement.Modifier()
	size := physics.TierSize(def.Tier) * s.balance.EnemySize
	x, y, dir := s.position(ws.wave.Pattern, ws.emitted, size)
	ws.emitted++
	s.spawned++
	return physics.Spawn{
		X:            x,
		Y:            y,
		Tier:         def.Tier,
		Type:         def.TargetType,
		Direction:    dir,
		SizeScale:    s.balance.EnemySize,
		SpeedScale:   s.balance.EnemySpeed * speed * (1 + ws.wave.SpeedBonus),
		GravityScale: gravity,
		Split:        def.Split,
	}
}
