package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	cfgpkg "github.com/KaramelBytes/abeval-cli/internal/config"
	"github.com/KaramelBytes/abeval-cli/internal/dataset"
	"github.com/KaramelBytes/abeval-cli/internal/experiment"
	"github.com/KaramelBytes/abeval-cli/internal/logging"
	"github.com/KaramelBytes/abeval-cli/internal/report"
	"github.com/KaramelBytes/abeval-cli/internal/store"
	"github.com/KaramelBytes/abeval-cli/internal/ux"
)

var (
	expDBPath      string
	expTable       string
	expWithSummary bool
)

var exportCmd = &cobra.Command{
	Use:     "export-sqlite",
	Aliases: []string{"export"},
	Short:   "Write the processed table into a SQLite database",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, ds, err := loadInput(cmd)
		if err != nil {
			return err
		}
		if expDBPath != "" {
			c.DatabasePath = expDBPath
		}
		if expTable != "" {
			c.TableName = expTable
		}
		var sum *report.Summary
		if expWithSummary {
			s := report.FromResult(experiment.Evaluate(ds.Observations))
			sum = &s
		}
		return runExport(cmd, c, ds, sum)
	},
}

// runExport replaces the configured table with ds and, when sum is non-nil,
// appends it to summary_metrics.
func runExport(cmd *cobra.Command, c *cfgpkg.Global, ds *dataset.Dataset, sum *report.Summary) error {
	ctx := cmd.Context()
	db, err := store.Open(ctx, c.DatabasePath)
	if err != nil {
		return err
	}
	defer db.Close()

	n, err := db.ReplaceTable(ctx, c.TableName, ds)
	if err != nil {
		return err
	}
	ux.Successf(cmd.OutOrStdout(), "Saved %d rows to %s (table: %s)", n, db.Path(), c.TableName)

	if sum != nil {
		runID, err := db.SaveSummary(ctx, *sum, ds.Name)
		if err != nil {
			return fmt.Errorf("save summary: %w", err)
		}
		logging.GetLogger(ctx).Debug("stored summary", zap.String("run_id", runID))
		ux.Successf(cmd.OutOrStdout(), "Stored summary metrics (run %s)", runID)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(exportCmd)
	addInputFlags(exportCmd)
	exportCmd.Flags().StringVar(&expDBPath, "db", "", "SQLite database path (overrides config)")
	exportCmd.Flags().StringVar(&expTable, "table", "", "table name for the processed rows (overrides config)")
	exportCmd.Flags().BoolVar(&expWithSummary, "with-summary", false, "also append the summary metrics to the summary_metrics table")
}
