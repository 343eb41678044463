package wave

import "github.com/vovakirdan/popshot/internal/level"

// Legacy fixed positions as fractions of the field.
var legacy = map[level.Pattern]struct{ x, y float64 }{
	level.PatternLeft:      {0.2, -1},
	level.PatternCenter:    {0.5, -1},
	level.PatternRight:     {0.8, -1},
	level.PatternHighLeft:  {0.25, 0.15},
	level.PatternHighRight: {0.75, 0.15},
}

const (
	sequentialSlots = 5
	centerOutStep   = 0.12
	jitter          = 0.05
)

// position returns the spawn center and initial horizontal direction for
// the n-th spawn of a wave. y = -1 in the legacy table means just above the
// top edge.
func (s *Scheduler) position(p level.Pattern, n int, size float64) (x, y, dir float64) {
	var frac float64
	y = -size / 2

	switch p {
	case level.PatternSequential:
		frac = (float64(n%sequentialSlots)+0.5)/sequentialSlots + s.jitter()
	case level.PatternCenterOut:
		k := (n + 1) / 2
		sign := 1.0
		if n%2 == 0 {
			sign = -1
		}
		frac = 0.5 + sign*float64(k)*centerOutStep + s.jitter()
	case level.PatternCorners:
		frac = 0.1
		if n%2 == 1 {
			frac = 0.9
		}
		frac += s.jitter()
	default:
		if pos, ok := legacy[p]; ok {
			frac = pos.x
			if pos.y >= 0 {
				y = pos.y * s.height
			}
		} else {
			frac = s.rng.Float64()
		}
	}

	half := size / 2
	x = half + clamp01(frac)*(s.width-size)
	if x < half {
		x = half
	}

	switch {
	case frac < 0.45:
		dir = 1
	case frac > 0.55:
		dir = -1
	default:
		dir = 1
		if s.rng.Intn(2) == 0 {
			dir = -1
		}
	}
	return x, y, dir
}

func (s *Scheduler) jitter() float64 {
	return (s.rng.Float64()*2 - 1) * jitter
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
