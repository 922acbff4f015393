package experiment

import (
	"fmt"
	"time"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

// Simulator bounds.
const (
	MinSimUsers    = 500
	MaxSimUsers    = 20000
	MinSimBaseRate = 0.01
	MaxSimBaseRate = 0.5
	MinSimUplift   = 0.0
	MaxSimUplift   = 0.3
)

// SimulationParams describes a synthetic experiment.
type SimulationParams struct {
	// Users per arm.
	Users    int
	BaseRate float64
	// Uplift is added to BaseRate for arm B (absolute, not relative).
	Uplift float64
	// Seed makes runs reproducible; 0 seeds from the clock.
	Seed uint64
}

// DefaultSimulationParams mirrors the dashboard's initial slider positions.
func DefaultSimulationParams() SimulationParams {
	return SimulationParams{Users: 5000, BaseRate: 0.1, Uplift: 0.05}
}

// SimulationResult pairs the parameters with the evaluation of the draws.
type SimulationResult struct {
	Params SimulationParams
	Result ComparisonResult
}

// ParamError reports a simulator parameter outside its allowed range.
type ParamError struct {
	Field    string
	Value    float64
	Min, Max float64
}

func (e *ParamError) Error() string {
	return fmt.Sprintf("invalid %s %g: must be within [%g, %g]", e.Field, e.Value, e.Min, e.Max)
}

// Validate checks the parameters against the simulator bounds.
func (p SimulationParams) Validate() error {
	if p.Users < MinSimUsers || p.Users > MaxSimUsers {
		return &ParamError{Field: "users", Value: float64(p.Users), Min: MinSimUsers, Max: MaxSimUsers}
	}
	if !(p.BaseRate >= MinSimBaseRate && p.BaseRate <= MaxSimBaseRate) {
		return &ParamError{Field: "base_rate", Value: p.BaseRate, Min: MinSimBaseRate, Max: MaxSimBaseRate}
	}
	if !(p.Uplift >= MinSimUplift && p.Uplift <= MaxSimUplift) {
		return &ParamError{Field: "uplift", Value: p.Uplift, Min: MinSimUplift, Max: MaxSimUplift}
	}
	return nil
}

// Simulate draws Bernoulli conversions for both arms and evaluates them the
// same way as recorded data.
func Simulate(p SimulationParams) (SimulationResult, error) {
	if err := p.Validate(); err != nil {
		return SimulationResult{}, err
	}
	seed := p.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	src := rand.NewSource(seed)
	arms := []struct {
		arm  Arm
		dist distuv.Bernoulli
	}{
		{ArmA, distuv.Bernoulli{P: p.BaseRate, Src: src}},
		{ArmB, distuv.Bernoulli{P: p.BaseRate + p.Uplift, Src: src}},
	}

	obs := make([]Observation, 0, 2*p.Users)
	for _, a := range arms {
		for i := 0; i < p.Users; i++ {
			x := a.dist.Rand()
			obs = append(obs, Observation{
				Arm:          a.arm,
				Rate:         x,
				Purchases:    int64(x),
				Reach:        1,
				HasPurchases: true,
				HasReach:     true,
			})
		}
	}
	return SimulationResult{Params: p, Result: Evaluate(obs)}, nil
}
