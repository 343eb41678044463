package wave

import (
	"math"
	"reflect"
	"testing"

	"github.com/vovakirdan/popshot/internal/config"
	"github.com/vovakirdan/popshot/internal/level"
	"github.com/vovakirdan/popshot/internal/physics"
)

const dt = 1.0 / 60.0

func oneWave(pattern level.Pattern, spawns ...level.EnemySpawnDefinition) *level.Level {
	return &level.Level{
		ID:         "test",
		Difficulty: config.TierNormal,
		Waves: []level.EnemyWave{
			{ID: "w1", StartTime: 0, Duration: 10, Pattern: pattern, Spawns: spawns},
		},
	}
}

// run drives s at 60 Hz up to seconds and records when each spawn happened.
func run(s *Scheduler, seconds float64) (times []float64, started, ended int) {
	for i := 0; float64(i)*dt <= seconds; i++ {
		elapsed := float64(i) * dt
		out := s.Update(elapsed, dt)
		for range out.Spawns {
			times = append(times, elapsed)
		}
		started += len(out.Started)
		ended += len(out.Ended)
	}
	return times, started, ended
}

func TestThreeSpawnsOneSecondApart(t *testing.T) {
	lvl := oneWave(level.PatternRandom, level.EnemySpawnDefinition{Tier: 1, Count: 3, SpawnInterval: 1})
	s := NewScheduler(lvl, 400, 700, 1)

	times, started, ended := run(s, 12)

	if len(times) != 3 {
		t.Fatalf("Expected exactly 3 spawns, got %d", len(times))
	}
	for i, at := range times {
		if at < float64(i+1)-1e-9 {
			t.Errorf("spawn %d: expected at >= %ds, got %.4f", i, i+1, at)
		}
		if at > float64(i+1)+0.1 {
			t.Errorf("spawn %d: expected close to %ds, got %.4f", i, i+1, at)
		}
	}
	if started != 1 || ended != 1 {
		t.Errorf("Expected one activation and one deactivation, got %d/%d", started, ended)
	}
	if !s.AllWavesEnded() {
		t.Error("Expected all waves ended")
	}
	if s.Spawned() != 3 || s.Pending() != 0 {
		t.Errorf("Expected 3 spawned and 0 pending, got %d/%d", s.Spawned(), s.Pending())
	}
}

func TestSiblingDefinitionsHaveOwnCounters(t *testing.T) {
	lvl := oneWave(level.PatternRandom,
		level.EnemySpawnDefinition{Tier: 1, Count: 3, SpawnInterval: 1},
		level.EnemySpawnDefinition{Tier: 3, Count: 2, SpawnInterval: 2.5},
	)
	s := NewScheduler(lvl, 400, 700, 1)

	var tier3 []float64
	for i := 0; float64(i)*dt <= 12; i++ {
		elapsed := float64(i) * dt
		for _, sp := range s.Update(elapsed, dt).Spawns {
			if sp.Tier == 3 {
				tier3 = append(tier3, elapsed)
			}
		}
	}
	if len(tier3) != 2 {
		t.Fatalf("Expected 2 tier-3 spawns, got %d", len(tier3))
	}
	if tier3[0] < 2.5-1e-9 || tier3[0] > 2.6 {
		t.Errorf("Expected first tier-3 spawn near 2.5s, got %.4f", tier3[0])
	}
	if tier3[1] < 5.0-1e-9 || tier3[1] > 5.1 {
		t.Errorf("Expected second tier-3 spawn near 5s, got %.4f", tier3[1])
	}
}

func TestWaveWindowEndsSpawning(t *testing.T) {
	lvl := &level.Level{
		Difficulty: config.TierNormal,
		Waves: []level.EnemyWave{
			{ID: "short", StartTime: 1, Duration: 2.5, Spawns: []level.EnemySpawnDefinition{{Tier: 1, Count: 10, SpawnInterval: 1}}},
		},
	}
	s := NewScheduler(lvl, 400, 700, 1)
	times, _, ended := run(s, 6)
	if len(times) != 2 {
		t.Errorf("Expected 2 spawns inside the window, got %d", len(times))
	}
	if ended != 1 {
		t.Errorf("Expected wave to end once, got %d", ended)
	}
	if s.Pending() != 0 {
		t.Errorf("Expected ended wave to owe nothing, got %d", s.Pending())
	}
}

func TestSpawnRateShortensInterval(t *testing.T) {
	lvl := oneWave(level.PatternRandom, level.EnemySpawnDefinition{Tier: 1, Count: 4, SpawnInterval: 2})
	lvl.Balance = config.LevelBalance{SpawnRate: 2}
	s := NewScheduler(lvl, 400, 700, 1)
	times, _, _ := run(s, 12)
	if len(times) != 4 {
		t.Fatalf("Expected 4 spawns, got %d", len(times))
	}
	if times[0] > 1.1 {
		t.Errorf("Expected first spawn near 1s at double rate, got %.4f", times[0])
	}
}

func TestSkippedWindowIsEdgeTriggered(t *testing.T) {
	lvl := oneWave(level.PatternRandom, level.EnemySpawnDefinition{Tier: 1, Count: 1, SpawnInterval: 1})
	s := NewScheduler(lvl, 400, 700, 1)

	out := s.Update(20, 20)
	if len(out.Started) != 1 || len(out.Ended) != 1 {
		t.Fatalf("Expected start and end reported, got %+v", out)
	}
	out = s.Update(21, 1)
	if len(out.Started) != 0 || len(out.Ended) != 0 {
		t.Errorf("Expected no repeated edges, got %+v", out)
	}
}

func TestAllWavesEndedWaitsForLastWave(t *testing.T) {
	lvl := &level.Level{
		Difficulty: config.TierNormal,
		Waves: []level.EnemyWave{
			{ID: "a", StartTime: 0, Duration: 2, Spawns: []level.EnemySpawnDefinition{{Tier: 1, Count: 1, SpawnInterval: 1}}},
			{ID: "b", StartTime: 5, Duration: 2, Spawns: []level.EnemySpawnDefinition{{Tier: 1, Count: 1, SpawnInterval: 1}}},
		},
	}
	s := NewScheduler(lvl, 400, 700, 1)
	run(s, 4)
	if s.AllWavesEnded() {
		t.Error("Expected wave b still pending")
	}
	if got := s.Pending(); got != 1 {
		t.Errorf("Expected 1 pending spawn, got %d", got)
	}
	s.Update(7.5, 3.5)
	if !s.AllWavesEnded() {
		t.Error("Expected all waves ended")
	}
}

func TestLegacyPatternPositions(t *testing.T) {
	s := NewScheduler(oneWave(level.PatternLeft), 400, 700, 1)
	size := physics.TierSize(2)

	x, y, dir := s.position(level.PatternLeft, 0, size)
	if want := size/2 + 0.2*(400-size); math.Abs(x-want) > 1e-9 {
		t.Errorf("Expected left x %v, got %v", want, x)
	}
	if y != -size/2 || dir != 1 {
		t.Errorf("Expected y above top moving right, got y=%v dir=%v", y, dir)
	}

	_, y, dir = s.position(level.PatternHighRight, 0, size)
	if math.Abs(y-105) > 1e-9 || dir != -1 {
		t.Errorf("Expected high right at 15%% height moving left, got y=%v dir=%v", y, dir)
	}
}

func TestPatternsStayInBounds(t *testing.T) {
	s := NewScheduler(oneWave(level.PatternRandom), 400, 700, 3)
	size := physics.TierSize(3)
	for _, p := range level.Patterns() {
		for n := 0; n < 20; n++ {
			x, _, dir := s.position(p, n, size)
			if x < size/2-1e-9 || x > 400-size/2+1e-9 {
				t.Errorf("%s #%d: x=%v outside bounds", p, n, x)
			}
			if dir != 1 && dir != -1 {
				t.Errorf("%s #%d: invalid direction %v", p, n, dir)
			}
		}
	}
}

func TestCornersAlternate(t *testing.T) {
	s := NewScheduler(oneWave(level.PatternCorners), 400, 700, 1)
	x0, _, _ := s.position(level.PatternCorners, 0, 24)
	x1, _, _ := s.position(level.PatternCorners, 1, 24)
	if x0 > 100 || x1 < 300 {
		t.Errorf("Expected left then right corner, got %v, %v", x0, x1)
	}
}

func TestDeterministic(t *testing.T) {
	lvl := oneWave(level.PatternRandom, level.EnemySpawnDefinition{Tier: 2, Count: 5, SpawnInterval: 0.5, Movement: level.MovementFast})
	collect := func() []physics.Spawn {
		s := NewScheduler(lvl, 400, 700, 42)
		var all []physics.Spawn
		for i := 0; i < 600; i++ {
			all = append(all, s.Update(float64(i)*dt, dt).Spawns...)
		}
		return all
	}
	a, b := collect(), collect()
	if !reflect.DeepEqual(a, b) {
		t.Error("Expected identical spawns for the same seed")
	}
	if len(a) != 5 {
		t.Fatalf("Expected 5 spawns, got %d", len(a))
	}
	if a[0].SpeedScale != 1.35 {
		t.Errorf("Expected fast movement speed scale 1.35, got %v", a[0].SpeedScale)
	}
}
