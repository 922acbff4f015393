package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/abeval-cli/internal/experiment"
	"github.com/KaramelBytes/abeval-cli/internal/report"
	"github.com/KaramelBytes/abeval-cli/internal/utils"
)

var (
	simUsers    int
	simBaseRate float64
	simUplift   float64
	simSeed     uint64
	simJSON     bool
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Simulate an A/B test with synthetic Bernoulli conversions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := requireConfig()
		if err != nil {
			return err
		}
		sim, err := experiment.Simulate(experiment.SimulationParams{
			Users:    simUsers,
			BaseRate: simBaseRate,
			Uplift:   simUplift,
			Seed:     simSeed,
		})
		if err != nil {
			return err
		}
		res := sim.Result
		rec := experiment.Recommend(res, c.Alpha)
		out := cmd.OutOrStdout()
		if simJSON {
			b, err := utils.PrettyJSON(statsOutput{Source: "simulation", Summary: report.FromResult(res), Ship: rec.Ship, Recommendation: rec.Message})
			if err != nil {
				return err
			}
			fmt.Fprintln(out, string(b))
			return nil
		}
		fmt.Fprintf(out, "Users per group: %d, baseline: %.2f, uplift: %.2f\n", sim.Params.Users, sim.Params.BaseRate, sim.Params.Uplift)
		fmt.Fprintf(out, "Simulated A: %.4f\n", res.MeanA)
		fmt.Fprintf(out, "Simulated B: %.4f\n", res.MeanB)
		fmt.Fprintf(out, "Lift: %.2f%%\n", res.RelativeUpliftPercent)
		fmt.Fprintf(out, "p-value: %.4f\n", res.PValue)
		fmt.Fprintln(out, report.Verdict(rec))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(simulateCmd)
	def := experiment.DefaultSimulationParams()
	simulateCmd.Flags().IntVar(&simUsers, "users", def.Users, fmt.Sprintf("users per group (%d-%d)", experiment.MinSimUsers, experiment.MaxSimUsers))
	simulateCmd.Flags().Float64Var(&simBaseRate, "base-rate", def.BaseRate, fmt.Sprintf("baseline conversion rate for A (%g-%g)", experiment.MinSimBaseRate, experiment.MaxSimBaseRate))
	simulateCmd.Flags().Float64Var(&simUplift, "uplift", def.Uplift, fmt.Sprintf("absolute uplift for B (%g-%g)", experiment.MinSimUplift, experiment.MaxSimUplift))
	simulateCmd.Flags().Uint64Var(&simSeed, "seed", 0, "random seed (0 = time based)")
	simulateCmd.Flags().BoolVar(&simJSON, "json", false, "print the result as JSON")
}
