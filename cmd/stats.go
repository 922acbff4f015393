package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	cfgpkg "github.com/KaramelBytes/abeval-cli/internal/config"
	"github.com/KaramelBytes/abeval-cli/internal/dataset"
	"github.com/KaramelBytes/abeval-cli/internal/experiment"
	"github.com/KaramelBytes/abeval-cli/internal/logging"
	"github.com/KaramelBytes/abeval-cli/internal/report"
	"github.com/KaramelBytes/abeval-cli/internal/utils"
	"github.com/KaramelBytes/abeval-cli/internal/ux"
)

var (
	statsResultsDir string
	statsJSON       bool
)

type statsOutput struct {
	Source         string         `json:"source"`
	Summary        report.Summary `json:"summary"`
	Ship           bool           `json:"ship"`
	Recommendation string         `json:"recommendation"`
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Run Welch's t-test and write the summary metrics table",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, ds, err := loadInput(cmd)
		if err != nil {
			return err
		}
		if statsResultsDir != "" {
			c.ResultsDir = statsResultsDir
		}
		_, err = runStats(cmd, c, ds, statsJSON)
		return err
	},
}

// runStats evaluates ds, prints the report and saves summary_metrics.csv.
func runStats(cmd *cobra.Command, c *cfgpkg.Global, ds *dataset.Dataset, asJSON bool) (report.Summary, error) {
	res := experiment.Evaluate(ds.Observations)
	rec := experiment.Recommend(res, c.Alpha)
	sum := report.FromResult(res)
	logging.GetLogger(cmd.Context()).Debug("evaluated",
		zap.Int("nA", res.A.Count),
		zap.Int("nB", res.B.Count),
		zap.Float64("t", res.TestStatistic),
		zap.Float64("df", res.DegreesOfFreedom),
		zap.Float64("p", res.PValue))

	out := cmd.OutOrStdout()
	if asJSON {
		b, err := utils.PrettyJSON(statsOutput{Source: ds.Name, Summary: sum, Ship: rec.Ship, Recommendation: rec.Message})
		if err != nil {
			return sum, err
		}
		fmt.Fprintln(out, string(b))
	} else {
		fmt.Fprint(out, report.Text(res, experiment.Aggregate(ds.Observations)))
		fmt.Fprintln(out)
		fmt.Fprintln(out, report.Verdict(rec))
	}

	path := filepath.Join(c.ResultsDir, report.SummaryFileName)
	if err := report.SaveCSV(path, sum); err != nil {
		return sum, fmt.Errorf("save summary: %w", err)
	}
	// Keep stdout parseable in JSON mode.
	status := out
	if asJSON {
		status = cmd.ErrOrStderr()
	}
	ux.Successf(status, "Saved summary to %s", path)
	return sum, nil
}

func init() {
	rootCmd.AddCommand(statsCmd)
	addInputFlags(statsCmd)
	statsCmd.Flags().StringVar(&statsResultsDir, "results-dir", "", "directory for summary_metrics.csv (overrides config)")
	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "print the summary as JSON instead of the text report")
}
