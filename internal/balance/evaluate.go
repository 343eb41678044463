package balance

import (
	"fmt"
	"math"

	"github.com/vovakirdan/popshot/internal/ai"
	"github.com/vovakirdan/popshot/internal/metrics"
	"github.com/vovakirdan/popshot/internal/sim"
)

// HealthyThreshold is the minimum health for a healthy verdict.
const HealthyThreshold = 0.7

// maxErrors bounds the distinct error messages kept per report.
const maxErrors = 5

// band is one persona target range checked against an observed value.
type band struct {
	name  string
	rng   ai.Range
	value float64
	unit  string
	miss  bool   // Forced miss regardless of value
	high  string // Recommendation when above the range
	low   string // Recommendation when below the range
}

// Recommendation texts. Identical wording lets the level overview count
// endorsements across personas.
const (
	RecHarder       = "Raise target speed or spawn density"
	RecEasier       = "Lower target count or lengthen spawn intervals"
	RecShorter      = "Shorten waves or reduce total targets"
	RecLonger       = "Add waves or extend wave duration"
	RecLessLoad     = "Stagger spawns to reduce simultaneous threats"
	RecMoreLoad     = "Overlap waves to raise pressure"
	RecSmootherFlow = "Smooth difficulty spikes between waves"
	RecMoreReward   = "Improve reward pacing with more points per target"
	RecInvestigate  = "Investigate failed runs before tuning"
	RecMoreSamples  = "Run more sessions before acting on this verdict"
)

// Evaluate aggregates the results of one pair and classifies it against
// the persona's target ranges. referenceSamples is the number of successful
// runs at which confidence reaches 1.
func Evaluate(levelID string, p ai.Persona, results []sim.Result, referenceSamples int) PersonaReport {
	r := PersonaReport{
		LevelID:     levelID,
		PersonaID:   p.ID,
		PersonaName: p.Name,
		Runs:        len(results),
	}

	ok := make([]metrics.AIMetrics, 0, len(results))
	seen := make(map[string]bool)
	for _, res := range results {
		if !res.Success {
			r.FailedRuns++
			if res.Error != "" && !seen[res.Error] && len(r.Errors) < maxErrors {
				seen[res.Error] = true
				r.Errors = append(r.Errors, res.Error)
			}
			continue
		}
		ok = append(ok, res.Metrics)
		if res.Metrics.LevelCompleted {
			r.Completions++
		}
	}
	r.SuccessfulRuns = len(ok)

	if r.SuccessfulRuns == 0 {
		r.Classification = Broken
		r.Issues = []string{ErrNoSuccessfulRuns.Error()}
		r.Recommendations = []string{RecInvestigate}
		return r
	}

	r.Summary = metrics.Summarize(ok)
	rate := float64(r.Completions) / float64(r.SuccessfulRuns)
	r.Observed = Observed{
		CompletionRate:  rate,
		Attempts:        attempts(rate),
		SessionDuration: r.Summary.AvgDuration,
		Satisfaction:    r.Summary.Balance.Satisfaction,
		CognitiveLoad:   r.Summary.Balance.CognitiveLoad,
		FlowState:       r.Summary.Balance.FlowState,
	}
	r.Confidence = confidence(r.SuccessfulRuns, referenceSamples)

	bands := bandsFor(p.Targets, r.Observed)
	r.Health = health(bands)
	r.Issues, r.Recommendations = diagnose(bands)
	r.Classification = classify(p.Targets, r)

	if r.Classification == Broken {
		r.Recommendations = appendUnique(r.Recommendations, RecInvestigate)
	}
	if r.Confidence < 0.5 {
		r.Recommendations = appendUnique(r.Recommendations, RecMoreSamples)
	}
	return r
}

// attempts approximates the average number of tries to clear a level as
// the inverse of the completion rate.
func attempts(rate float64) float64 {
	if rate <= 0 {
		return 0
	}
	return 1 / rate
}

func confidence(samples, reference int) float64 {
	if samples <= 0 {
		return 0
	}
	if reference <= 0 {
		return 1
	}
	return math.Min(1, float64(samples)/float64(reference))
}

func bandsFor(t ai.TargetRanges, o Observed) []band {
	return []band{
		{name: "completion rate", rng: t.CompletionRate, value: o.CompletionRate, unit: "%", high: RecHarder, low: RecEasier},
		{name: "attempts", rng: t.Attempts, value: o.Attempts, miss: o.CompletionRate == 0, low: RecHarder, high: RecEasier},
		{name: "session duration", rng: t.SessionDuration, value: o.SessionDuration, unit: "s", high: RecShorter, low: RecLonger},
		{name: "satisfaction", rng: t.Satisfaction, value: o.Satisfaction, low: RecMoreReward},
		{name: "cognitive load", rng: t.CognitiveLoad, value: o.CognitiveLoad, high: RecLessLoad, low: RecMoreLoad},
		{name: "flow state", rng: t.FlowState, value: o.FlowState, low: RecSmootherFlow},
	}
}

func (b band) missed() bool {
	return b.miss || !b.rng.Contains(b.value)
}

func (b band) distance() float64 {
	if b.miss {
		return 1
	}
	return math.Min(1, b.rng.Distance(b.value))
}

// health starts at 1 and loses up to 1/k for each of the k bands missed:
// half for missing it at all, half scaled by how far off it is.
func health(bands []band) float64 {
	if len(bands) == 0 {
		return 0
	}
	k := float64(len(bands))
	h := 1.0
	for _, b := range bands {
		if b.missed() {
			h -= (0.5 + 0.5*b.distance()) / k
		}
	}
	return math.Max(0, math.Min(1, h))
}

func diagnose(bands []band) (issues, recs []string) {
	for _, b := range bands {
		if !b.missed() {
			continue
		}
		if b.miss {
			issues = append(issues, fmt.Sprintf("%s undefined: no run completed", b.name))
			recs = appendUnique(recs, RecEasier)
			continue
		}
		dir, rec := "below", b.low
		if b.value > b.rng.Max {
			dir, rec = "above", b.high
		}
		issues = append(issues, fmt.Sprintf("%s %s %s target %s", b.name, formatValue(b.value, b.unit), dir, formatRange(b.rng, b.unit)))
		if rec != "" {
			recs = appendUnique(recs, rec)
		}
	}
	return issues, recs
}

// classify applies the verdict rules in precedence order.
func classify(t ai.TargetRanges, r PersonaReport) Classification {
	rate := r.Observed.CompletionRate
	switch {
	case r.SuccessfulRuns == 0, r.FailedRuns*2 > r.Runs:
		return Broken
	case rate == 0 && t.CompletionRate.Min >= 0.5:
		return Broken
	case rate > t.CompletionRate.Max && r.Observed.Attempts < t.Attempts.Min:
		return TooEasy
	case rate < t.CompletionRate.Min && (rate == 0 || r.Observed.Attempts > t.Attempts.Max):
		return TooHard
	case t.CompletionRate.Contains(rate) && r.Health >= HealthyThreshold:
		return Healthy
	default:
		return NeedsReview
	}
}

func formatValue(v float64, unit string) string {
	switch unit {
	case "%":
		return fmt.Sprintf("%.0f%%", v*100)
	case "s":
		return fmt.Sprintf("%.1fs", v)
	default:
		return fmt.Sprintf("%.2f", v)
	}
}

func formatRange(r ai.Range, unit string) string {
	return formatValue(r.Min, unit) + "-" + formatValue(r.Max, unit)
}

func appendUnique(list []string, s string) []string {
	for _, v := range list {
		if v == s {
			return list
		}
	}
	return append(list, s)
}
