package cmd

import (
	"path/filepath"

	"github.com/spf13/cobra"

	cfgpkg "github.com/KaramelBytes/abeval-cli/internal/config"
	"github.com/KaramelBytes/abeval-cli/internal/chart"
	"github.com/KaramelBytes/abeval-cli/internal/dataset"
	"github.com/KaramelBytes/abeval-cli/internal/experiment"
	"github.com/KaramelBytes/abeval-cli/internal/ux"
)

var (
	plotOut string
	plotDPI int
)

var plotCmd = &cobra.Command{
	Use:   "plot",
	Short: "Render the conversion rate comparison chart",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, ds, err := loadInput(cmd)
		if err != nil {
			return err
		}
		if plotDPI > 0 {
			c.ChartDPI = plotDPI
		}
		path := c.ChartPath()
		if plotOut != "" {
			path = plotOut
		}
		return runPlot(cmd, c, ds, path)
	},
}

// runPlot writes the bar chart of per-arm means with 95% CI error bars.
func runPlot(cmd *cobra.Command, c *cfgpkg.Global, ds *dataset.Dataset, path string) error {
	res := experiment.Evaluate(ds.Observations)
	if err := chart.SavePNG(path, []experiment.ArmSummary{res.A, res.B}, c.ChartOptions()); err != nil {
		return err
	}
	ux.Successf(cmd.OutOrStdout(), "Saved plot to %s", filepath.Clean(path))
	return nil
}

func init() {
	rootCmd.AddCommand(plotCmd)
	addInputFlags(plotCmd)
	plotCmd.Flags().StringVarP(&plotOut, "out", "o", "", "output PNG path (default <plots_dir>/conversion_comparison.png)")
	plotCmd.Flags().IntVar(&plotDPI, "dpi", 0, "chart resolution (overrides config)")
}
