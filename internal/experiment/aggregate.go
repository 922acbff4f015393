package experiment

import "math"

// Aggregate rolls observations up per arm: row count, mean rate and the sums
// of the auxiliary counts. Rows with a missing rate still contribute their
// counts but are excluded from Rows and MeanRate. Arms without any
// observation are omitted; the result is ordered A then B.
func Aggregate(obs []Observation) []VariantAggregate {
	type acc struct {
		seen      bool
		rates     []float64
		purchases int64
		reach     int64
	}
	accs := map[Arm]*acc{ArmA: {}, ArmB: {}}
	for _, o := range obs {
		if !o.Arm.Valid() {
			continue
		}
		ac := accs[o.Arm]
		ac.seen = true
		if !math.IsNaN(o.Rate) {
			ac.rates = append(ac.rates, o.Rate)
		}
		if o.HasPurchases {
			ac.purchases += o.Purchases
		}
		if o.HasReach {
			ac.reach += o.Reach
		}
	}

	out := make([]VariantAggregate, 0, 2)
	for _, arm := range []Arm{ArmA, ArmB} {
		ac := accs[arm]
		if !ac.seen {
			continue
		}
		s := Summarize(arm, ac.rates)
		out = append(out, VariantAggregate{
			Arm:          arm,
			Rows:         s.Count,
			MeanRate:     s.Mean,
			SumPurchases: ac.purchases,
			SumReach:     ac.reach,
		})
	}
	return out
}
