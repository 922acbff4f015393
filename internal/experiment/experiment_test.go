package experiment

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregate(t *testing.T) {
	obs := []Observation{
		{Arm: ArmA, Rate: 0.1, Purchases: 3, Reach: 30, HasPurchases: true, HasReach: true},
		{Arm: ArmA, Rate: 0.3, Purchases: 9, Reach: 30, HasPurchases: true, HasReach: true},
		{Arm: ArmA, Rate: math.NaN(), Purchases: 1, HasPurchases: true},
		{Arm: ArmB, Rate: 0.2},
	}
	got := Aggregate(obs)
	require.Len(t, got, 2)

	assert.Equal(t, ArmA, got[0].Arm)
	assert.Equal(t, 2, got[0].Rows)
	assert.InDelta(t, 0.2, got[0].MeanRate, 1e-12)
	assert.Equal(t, int64(13), got[0].SumPurchases)
	assert.Equal(t, int64(60), got[0].SumReach)

	assert.Equal(t, ArmB, got[1].Arm)
	assert.Equal(t, 1, got[1].Rows)
	assert.Equal(t, int64(0), got[1].SumPurchases)
}

func TestAggregate_OmitsEmptyArms(t *testing.T) {
	got := Aggregate([]Observation{{Arm: ArmB, Rate: 0.5}})
	require.Len(t, got, 1)
	assert.Equal(t, ArmB, got[0].Arm)
	assert.Empty(t, Aggregate(nil))
}

func TestAggregate_IgnoresUnknownArms(t *testing.T) {
	assert.True(t, ArmA.Valid())
	assert.False(t, Arm("C").Valid())
	got := Aggregate([]Observation{{Arm: "C", Rate: 0.9}, {Arm: ArmA, Rate: 0.1}})
	require.Len(t, got, 1)
	assert.Equal(t, ArmA, got[0].Arm)
	assert.Equal(t, 1, got[0].Rows)
}

func TestRecommend(t *testing.T) {
	tests := []struct {
		name string
		res  ComparisonResult
		ship bool
	}{
		{name: "significant improvement", res: ComparisonResult{MeanA: 0.1, MeanB: 0.2, PValue: 0.01}, ship: true},
		{name: "significant regression", res: ComparisonResult{MeanA: 0.2, MeanB: 0.1, PValue: 0.01}},
		{name: "not significant", res: ComparisonResult{MeanA: 0.1, MeanB: 0.2, PValue: 0.2}},
		{name: "undefined p-value", res: ComparisonResult{MeanA: 0.1, MeanB: 0.2, PValue: math.NaN()}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := Recommend(tt.res, 0.05)
			assert.Equal(t, tt.ship, rec.Ship)
			assert.NotEmpty(t, rec.Message)
		})
	}
}

func TestRecommend_InvalidAlphaFallsBack(t *testing.T) {
	res := ComparisonResult{MeanA: 0.1, MeanB: 0.2, PValue: 0.04}
	assert.True(t, Recommend(res, 0).Ship)
	assert.False(t, Recommend(res, 0.01).Ship)
}

func TestSimulate_Validation(t *testing.T) {
	tests := []struct {
		name  string
		p     SimulationParams
		field string
	}{
		{name: "too few users", p: SimulationParams{Users: 10, BaseRate: 0.1}, field: "users"},
		{name: "base rate too high", p: SimulationParams{Users: 1000, BaseRate: 0.9}, field: "base_rate"},
		{name: "negative uplift", p: SimulationParams{Users: 1000, BaseRate: 0.1, Uplift: -0.1}, field: "uplift"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Simulate(tt.p)
			var pe *ParamError
			require.True(t, errors.As(err, &pe))
			assert.Equal(t, tt.field, pe.Field)
		})
	}
}

func TestSimulate_Reproducible(t *testing.T) {
	p := DefaultSimulationParams()
	p.Seed = 99
	first, err := Simulate(p)
	require.NoError(t, err)
	second, err := Simulate(p)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	assert.Equal(t, p.Users, first.Result.A.Count)
	assert.Equal(t, p.Users, first.Result.B.Count)
	assert.InDelta(t, 0.10, first.Result.MeanA, 0.03)
	assert.InDelta(t, 0.15, first.Result.MeanB, 0.03)
}

func TestSimulate_DetectsLargeUplift(t *testing.T) {
	res, err := Simulate(SimulationParams{Users: 20000, BaseRate: 0.1, Uplift: 0.1, Seed: 1})
	require.NoError(t, err)
	assert.Less(t, res.Result.PValue, 0.05)
	assert.True(t, Recommend(res.Result, DefaultAlpha).Ship)
}
