package experiment

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// ConfidenceZ is the normal quantile used for the 95% interval of the
// difference. It stays a z multiplier even though the p-value comes from
// Student's t with Welch degrees of freedom.
const ConfidenceZ = 1.96

// Evaluate compares arm B against arm A. It never fails: empty or tiny arms
// produce NaN in the fields that would need a division by zero.
func Evaluate(obs []Observation) ComparisonResult {
	ratesA, ratesB := partition(obs)
	a := Summarize(ArmA, ratesA)
	b := Summarize(ArmB, ratesB)

	res := ComparisonResult{
		A:                     a,
		B:                     b,
		MeanA:                 a.Mean,
		MeanB:                 b.Mean,
		AbsoluteDifference:    b.Mean - a.Mean,
		RelativeUpliftPercent: math.NaN(),
	}
	if a.Mean != 0 {
		res.RelativeUpliftPercent = res.AbsoluteDifference / a.Mean * 100
	}
	res.TestStatistic, res.DegreesOfFreedom, res.PValue = welch(a, b)

	res.StdError = math.NaN()
	if a.Count > 0 && b.Count > 0 {
		res.StdError = math.Sqrt(a.Variance/float64(a.Count) + b.Variance/float64(b.Count))
	}
	res.CILow = res.AbsoluteDifference - ConfidenceZ*res.StdError
	res.CIHigh = res.AbsoluteDifference + ConfidenceZ*res.StdError
	return res
}

// Summarize computes count, mean and sample variance of values. NaN values
// are ignored. Values are summed in sorted order so the result does not
// depend on row order.
func Summarize(arm Arm, values []float64) ArmSummary {
	clean := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			clean = append(clean, v)
		}
	}
	sort.Float64s(clean)

	s := ArmSummary{Arm: arm, Count: len(clean)}
	switch {
	case s.Count == 0:
	case s.Count == 1:
		s.Mean = clean[0]
	default:
		s.Mean, s.Variance = stat.MeanVariance(clean, nil)
	}
	return s
}

// partition splits the non-missing rates by arm.
func partition(obs []Observation) (a, b []float64) {
	for _, o := range obs {
		if math.IsNaN(o.Rate) {
			continue
		}
		switch o.Arm {
		case ArmA:
			a = append(a, o.Rate)
		case ArmB:
			b = append(b, o.Rate)
		}
	}
	return a, b
}

// welch runs Welch's unequal-variance t-test of b against a and returns the
// statistic, the Welch-Satterthwaite degrees of freedom and the two-sided
// p-value.
func welch(a, b ArmSummary) (t, df, p float64) {
	nan := math.NaN()
	if a.Count < 2 || b.Count < 2 {
		return nan, nan, nan
	}
	va := a.Variance / float64(a.Count)
	vb := b.Variance / float64(b.Count)

	t = (b.Mean - a.Mean) / math.Sqrt(va+vb)
	df = (va + vb) * (va + vb) / (va*va/float64(a.Count-1) + vb*vb/float64(b.Count-1))
	if math.IsNaN(df) {
		// both variances are zero
		df = 1
	}

	switch {
	case math.IsNaN(t):
		p = nan
	case math.IsInf(t, 0):
		p = 0
	default:
		dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
		p = 2 * dist.CDF(-math.Abs(t))
	}
	return t, df, p
}
