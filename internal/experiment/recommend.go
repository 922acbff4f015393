package experiment

// DefaultAlpha is the significance level used when none is configured.
const DefaultAlpha = 0.05

// Recommendation is the rollout advice derived from a comparison.
type Recommendation struct {
	Ship    bool
	Message string
}

// Recommend advises shipping B only when the difference is significant at
// alpha and B converts better than A. A NaN p-value never ships.
func Recommend(res ComparisonResult, alpha float64) Recommendation {
	if !(alpha > 0 && alpha < 1) {
		alpha = DefaultAlpha
	}
	if res.PValue < alpha && res.MeanB > res.MeanA {
		return Recommendation{
			Ship:    true,
			Message: "Variant B performs significantly better. Recommend rolling out variant B to all users.",
		}
	}
	return Recommendation{
		Message: "No statistically significant improvement detected. Recommend continuing the experiment or testing new variants.",
	}
}
