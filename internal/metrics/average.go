package metrics

// AverageBalance returns the field-wise mean of the balance metrics of ms.
func AverageBalance(ms []AIMetrics) BalanceMetrics {
	var b BalanceMetrics
	if len(ms) == 0 {
		return b
	}
	for _, m := range ms {
		b.NearLoss += m.Balance.NearLoss
		b.DominantWin += m.Balance.DominantWin
		b.CognitiveLoad += m.Balance.CognitiveLoad
		b.FlowState += m.Balance.FlowState
		b.Satisfaction += m.Balance.Satisfaction
		b.Engagement += m.Balance.Engagement
		b.Frustration += m.Balance.Frustration
	}
	n := float64(len(ms))
	b.NearLoss /= n
	b.DominantWin /= n
	b.CognitiveLoad /= n
	b.FlowState /= n
	b.Satisfaction /= n
	b.Engagement /= n
	b.Frustration /= n
	return b
}

// Summary holds the means of the per-session scalars the analyzer compares
// against persona ranges.
type Summary struct {
	Runs            int            `json:"runs" yaml:"runs"`
	AvgScore        float64        `json:"avgScore" yaml:"avgScore"`
	AvgAccuracy     float64        `json:"avgAccuracy" yaml:"avgAccuracy"`
	AvgDuration     float64        `json:"avgDuration" yaml:"avgDuration"`
	AvgReactionTime float64        `json:"avgReactionTime" yaml:"avgReactionTime"`
	AvgDodgeRate    float64        `json:"avgDodgeRate" yaml:"avgDodgeRate"`
	Balance         BalanceMetrics `json:"balance" yaml:"balance"`
}

// Summarize averages ms. Reaction time averages only sessions that
// produced reaction samples.
func Summarize(ms []AIMetrics) Summary {
	s := Summary{Runs: len(ms)}
	if len(ms) == 0 {
		return s
	}
	var reactionRuns int
	for _, m := range ms {
		s.AvgScore += float64(m.Score)
		s.AvgAccuracy += m.Accuracy
		s.AvgDuration += m.Duration
		s.AvgDodgeRate += m.Threats.DodgeRate
		if m.ReactionTime.Samples > 0 {
			s.AvgReactionTime += m.ReactionTime.Mean
			reactionRuns++
		}
	}
	n := float64(len(ms))
	s.AvgScore /= n
	s.AvgAccuracy /= n
	s.AvgDuration /= n
	s.AvgDodgeRate /= n
	if reactionRuns > 0 {
		s.AvgReactionTime /= float64(reactionRuns)
	}
	s.Balance = AverageBalance(ms)
	return s
}
