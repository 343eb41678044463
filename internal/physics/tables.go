package physics

// Per-tier lookup tables, indexed by size tier. Index 0 is unused. They are
// read-only and shared by every session.
var (
	tierSize   = [...]float64{0, 24, 38, 56}
	tierSpeed  = [...]float64{0, 150, 120, 95}
	tierPoints = [...]int{0, 30, 20, 10}
)

// MinTier and MaxTier bound target size tiers.
const (
	MinTier = 1
	MaxTier = 3
)

// ValidTier reports whether tier is in [MinTier, MaxTier].
func ValidTier(tier int) bool {
	return tier >= MinTier && tier <= MaxTier
}

// TierSize returns the base diameter of a tier.
func TierSize(tier int) float64 {
	return tierSize[clampTier(tier)]
}

// TierSpeed returns the base horizontal speed of a tier.
func TierSpeed(tier int) float64 {
	return tierSpeed[clampTier(tier)]
}

// TierPoints returns the score for hitting a target of a tier. Smaller
// targets are worth more.
func TierPoints(tier int) int {
	return tierPoints[clampTier(tier)]
}

func clampTier(tier int) int {
	if tier < MinTier {
		return MinTier
	}
	if tier > MaxTier {
		return MaxTier
	}
	return tier
}
