package level

import (
	"fmt"
	"strings"
)

// Soft-warning limits.
const (
	MaxRecommendedTargets  = 150
	MaxRecommendedFailRate = 50
	MaxRecommendedDuration = 300.0
)

// ValidationError contains details about a validation failure.
type ValidationError struct {
	Code    string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// ValidationErrors collects every failure found in one document.
type ValidationErrors []ValidationError

func (es ValidationErrors) Error() string {
	parts := make([]string, len(es))
	for i, e := range es {
		parts[i] = e.Error()
	}
	return strings.Join(parts, "; ")
}

// Warning is a soft issue that does not prevent loading.
type Warning struct {
	Code    string
	Message string
}

func (w Warning) String() string {
	return fmt.Sprintf("[%s] %s", w.Code, w.Message)
}

// Validate checks l. It returns ValidationErrors when the level cannot be
// simulated, and warnings for suspicious but loadable content.
func Validate(l *Level) ([]Warning, error) {
	var errs ValidationErrors
	add := func(code, format string, args ...any) {
		errs = append(errs, ValidationError{Code: code, Message: fmt.Sprintf(format, args...)})
	}

	if l.ID == "" {
		add("MISSING_ID", "level id is required")
	}
	if l.Name == "" {
		add("MISSING_NAME", "level name is required")
	}
	if l.Version == "" {
		add("MISSING_VERSION", "level version is required")
	}
	if !l.Difficulty.Valid() {
		add("MISSING_DIFFICULTY", "difficulty tier is required")
	}
	if len(l.Objectives) == 0 {
		add("NO_OBJECTIVES", "at least one objective is required")
	}
	for i, o := range l.Objectives {
		if !o.Type.Valid() {
			add("INVALID_OBJECTIVE", "objective %d: unknown type %q", i, o.Type)
		}
		if o.Target < 0 {
			add("INVALID_OBJECTIVE", "objective %d: target cannot be negative", i)
		}
	}
	for i, f := range l.FailureConditions {
		if !f.Type.Valid() {
			add("INVALID_FAILURE", "failure condition %d: unknown type %q", i, f.Type)
		}
		if f.Threshold <= 0 {
			add("INVALID_FAILURE", "failure condition %d: threshold must be positive, got %g", i, f.Threshold)
		}
	}
	if len(l.Waves) == 0 {
		add("NO_WAVES", "at least one wave is required")
	}
	seen := make(map[string]bool)
	for i, w := range l.Waves {
		if w.ID == "" {
			add("INVALID_WAVE", "wave %d: id is required", i)
		} else if seen[w.ID] {
			add("INVALID_WAVE", "wave %d: duplicate id %q", i, w.ID)
		}
		seen[w.ID] = true
		if w.StartTime < 0 {
			add("INVALID_WAVE", "wave %s: startTime cannot be negative", w.ID)
		}
		if w.Duration <= 0 {
			add("INVALID_WAVE", "wave %s: duration must be positive, got %g", w.ID, w.Duration)
		}
		if !w.Pattern.Valid() {
			add("INVALID_PATTERN", "wave %s: unknown pattern %q", w.ID, w.Pattern)
		}
		if len(w.Spawns) == 0 {
			add("INVALID_WAVE", "wave %s: at least one enemy spawn is required", w.ID)
		}
		for j, s := range w.Spawns {
			if s.Tier < 1 || s.Tier > 3 {
				add("INVALID_TIER", "wave %s, enemy %d: tier must be between 1 and 3, got %d", w.ID, j, s.Tier)
			}
			if s.Count <= 0 {
				add("INVALID_COUNT", "wave %s, enemy %d: count must be at least 1, got %d", w.ID, j, s.Count)
			}
			if s.SpawnInterval <= 0 {
				add("INVALID_INTERVAL", "wave %s, enemy %d: spawnInterval must be positive, got %g", w.ID, j, s.SpawnInterval)
			}
			if !s.Movement.Valid() {
				add("INVALID_MOVEMENT", "wave %s, enemy %d: unknown movement %q", w.ID, j, s.Movement)
			}
			if s.Split.Enabled {
				if s.Split.Count < 1 {
					add("INVALID_SPLIT", "wave %s, enemy %d: split count must be at least 1", w.ID, j)
				}
				if s.Split.SizeReduction <= 0 || s.Split.SizeReduction > 1 {
					add("INVALID_SPLIT", "wave %s, enemy %d: sizeReduction must be in (0, 1], got %g", w.ID, j, s.Split.SizeReduction)
				}
			}
		}
	}
	env := l.Environment
	for _, f := range []struct {
		name string
		v    float64
	}{
		{"wallBounce", env.WallBounce},
		{"ceilingBounce", env.CeilingBounce},
		{"floorBounce", env.FloorBounce},
		{"airResistance", env.AirResistance},
	} {
		if f.v < 0 || f.v > 1 {
			add("INVALID_ENVIRONMENT", "%s must be in [0, 1], got %g", f.name, f.v)
		}
	}

	var warnings []Warning
	warn := func(code, format string, args ...any) {
		warnings = append(warnings, Warning{Code: code, Message: fmt.Sprintf(format, args...)})
	}
	total := l.WaveTotal()
	if l.TotalTargets != total {
		warn("TOTAL_MISMATCH", "totalTargets is %d but waves spawn %d", l.TotalTargets, total)
	}
	if total > MaxRecommendedTargets {
		warn("EXCESSIVE_TARGETS", "waves spawn %d targets, more than %d", total, MaxRecommendedTargets)
	}
	if v, ok := l.Failure(FailureTargetFailRate); ok && v > MaxRecommendedFailRate {
		warn("HIGH_FAIL_RATE", "targetFailRate threshold %g is above %d", v, MaxRecommendedFailRate)
	}
	if d := l.EstimatedDuration(); d > MaxRecommendedDuration {
		warn("LONG_DURATION", "estimated duration %.0fs exceeds %.0fs", d, MaxRecommendedDuration)
	}

	if len(errs) > 0 {
		return warnings, errs
	}
	return warnings, nil
}
