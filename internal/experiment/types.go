// Package experiment evaluates two-arm (A/B) conversion experiments.
package experiment

// Arm identifies one of the two groups of an experiment.
type Arm string

const (
	// ArmA is the control group.
	ArmA Arm = "A"
	// ArmB is the treatment group.
	ArmB Arm = "B"
)

// Valid reports whether a is one of the two known arms.
func (a Arm) Valid() bool { return a == ArmA || a == ArmB }

// Observation is one exposed unit of the experiment.
type Observation struct {
	Arm Arm
	// Rate is the outcome (conversion rate); NaN marks a missing value.
	Rate float64
	// Auxiliary counts, only meaningful when the Has* flag is set.
	Purchases    int64
	Reach        int64
	HasPurchases bool
	HasReach     bool
}

// ArmSummary holds the descriptive statistics of one arm.
type ArmSummary struct {
	Arm   Arm
	Count int
	Mean  float64
	// Variance is the sample variance (n-1 denominator); 0 when Count < 2.
	Variance float64
}

// ComparisonResult is the outcome of comparing arm B against arm A.
type ComparisonResult struct {
	A, B ArmSummary

	MeanA float64
	MeanB float64
	// AbsoluteDifference is MeanB - MeanA.
	AbsoluteDifference float64
	// RelativeUpliftPercent is NaN when MeanA is 0.
	RelativeUpliftPercent float64

	// Welch's t-test of B against A.
	TestStatistic    float64
	DegreesOfFreedom float64
	PValue           float64

	// StdError is sqrt(varA/nA + varB/nB); NaN when either arm is empty.
	StdError float64
	CILow    float64
	CIHigh   float64
}

// VariantAggregate is the per-arm rollup of the raw observations.
type VariantAggregate struct {
	Arm          Arm
	Rows         int
	MeanRate     float64
	SumPurchases int64
	SumReach     int64
}
