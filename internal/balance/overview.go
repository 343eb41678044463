package balance

import (
	"fmt"
	"sort"
)

// Overview thresholds.
const (
	criticalSkewed  = 3 // too_hard plus too_easy personas that make a level critical
	minEndorsements = 2 // personas that must share a recommendation to surface it
)

// Overview combines the persona reports of one level. Health is the mean
// persona health.
func Overview(levelID, levelName string, reports []PersonaReport) LevelOverview {
	o := LevelOverview{
		LevelID:   levelID,
		LevelName: levelName,
		Counts:    make(map[Classification]int, len(Classifications())),
		Personas:  reports,
	}
	for _, c := range Classifications() {
		o.Counts[c] = 0
	}
	if len(reports) == 0 {
		return o
	}

	var sum float64
	endorsed := make(map[string]int)
	var order []string
	for _, r := range reports {
		sum += r.Health
		o.Counts[r.Classification]++
		for _, rec := range r.Recommendations {
			if endorsed[rec] == 0 {
				order = append(order, rec)
			}
			endorsed[rec]++
		}
	}
	o.Health = sum / float64(len(reports))

	if n := o.Counts[Broken]; n > 0 {
		o.CriticalIssues = append(o.CriticalIssues, fmt.Sprintf("%d persona(s) classify the level as broken", n))
	}
	if n := o.Counts[TooHard] + o.Counts[TooEasy]; n >= criticalSkewed {
		o.CriticalIssues = append(o.CriticalIssues,
			fmt.Sprintf("%d persona(s) find the level too hard or too easy", n))
	}
	o.Critical = len(o.CriticalIssues) > 0

	for _, rec := range order {
		if endorsed[rec] >= minEndorsements {
			o.Recommendations = append(o.Recommendations, rec)
		}
	}
	sort.SliceStable(o.Recommendations, func(i, j int) bool {
		return endorsed[o.Recommendations[i]] > endorsed[o.Recommendations[j]]
	})
	return o
}
