package cmd

import (
	"github.com/spf13/cobra"
)

var pipelineCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the whole pipeline: stats, SQLite export and chart",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, ds, err := loadInput(cmd)
		if err != nil {
			return err
		}
		sum, err := runStats(cmd, c, ds, false)
		if err != nil {
			return err
		}
		if err := runExport(cmd, c, ds, &sum); err != nil {
			return err
		}
		return runPlot(cmd, c, ds, c.ChartPath())
	},
}

func init() {
	rootCmd.AddCommand(pipelineCmd)
	addInputFlags(pipelineCmd)
}
