package cmd

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap/zapcore"

	cfgpkg "github.com/KaramelBytes/abeval-cli/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or set abeval configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if cfg == nil {
			fmt.Fprintln(out, "No config loaded")
			return nil
		}
		fmt.Fprintf(out, "data_path: %s\n", cfg.DataPath)
		fmt.Fprintf(out, "results_dir: %s\n", cfg.ResultsDir)
		fmt.Fprintf(out, "plots_dir: %s\n", cfg.PlotsDir)
		fmt.Fprintf(out, "database_path: %s\n", cfg.DatabasePath)
		fmt.Fprintf(out, "table_name: %s\n", cfg.TableName)
		fmt.Fprintf(out, "variant_column: %s\n", cfg.VariantColumn)
		fmt.Fprintf(out, "rate_column: %s\n", cfg.RateColumn)
		fmt.Fprintf(out, "purchase_column: %s\n", cfg.PurchaseColumn)
		fmt.Fprintf(out, "reach_column: %s\n", cfg.ReachColumn)
		fmt.Fprintf(out, "control_label: %s\n", cfg.ControlLabel)
		fmt.Fprintf(out, "treatment_label: %s\n", cfg.TreatmentLabel)
		fmt.Fprintf(out, "alpha: %.3f\n", cfg.Alpha)
		fmt.Fprintf(out, "chart_dpi: %d\n", cfg.ChartDPI)
		fmt.Fprintf(out, "dashboard_addr: %s\n", cfg.DashboardAddr)
		fmt.Fprintf(out, "dashboard_sim_rate: %.2f\n", cfg.DashboardSimRate)
		if len(cfg.DashboardAllowedOrigins) > 0 {
			fmt.Fprintf(out, "dashboard_allowed_origins: %s\n", strings.Join(cfg.DashboardAllowedOrigins, ","))
		}
		fmt.Fprintf(out, "log_level: %s\n", cfg.LogLevel)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value and save to disk",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, val := args[0], args[1]
		c, err := requireConfig()
		if err != nil {
			return err
		}
		switch key {
		case "data_path":
			c.DataPath = val
		case "results_dir":
			// A plots dir derived from the old results dir follows it.
			if c.PlotsDir == filepath.Join(c.ResultsDir, "plots") {
				c.PlotsDir = filepath.Join(val, "plots")
			}
			c.ResultsDir = val
		case "plots_dir":
			c.PlotsDir = val
		case "database_path":
			c.DatabasePath = val
		case "table_name":
			c.TableName = val
		case "variant_column":
			c.VariantColumn = val
		case "rate_column":
			c.RateColumn = val
		case "purchase_column":
			c.PurchaseColumn = val
		case "reach_column":
			c.ReachColumn = val
		case "control_label":
			c.ControlLabel = val
		case "treatment_label":
			c.TreatmentLabel = val
		case "alpha":
			f, err := strconv.ParseFloat(val, 64)
			if err != nil || !(f > 0 && f < 1) {
				return fmt.Errorf("invalid alpha: %s (must be within (0, 1))", val)
			}
			c.Alpha = f
		case "chart_dpi":
			i, err := strconv.Atoi(val)
			if err != nil || i <= 0 {
				return fmt.Errorf("invalid int for chart_dpi: %v", val)
			}
			c.ChartDPI = i
		case "dashboard_addr":
			c.DashboardAddr = val
		case "dashboard_sim_rate":
			f, err := strconv.ParseFloat(val, 64)
			if err != nil {
				return fmt.Errorf("invalid float for dashboard_sim_rate: %v", val)
			}
			c.DashboardSimRate = f
		case "dashboard_allowed_origins":
			c.DashboardAllowedOrigins = nil
			for _, o := range strings.Split(val, ",") {
				if o = strings.TrimSpace(o); o != "" {
					c.DashboardAllowedOrigins = append(c.DashboardAllowedOrigins, o)
				}
			}
		case "log_level":
			if _, err := zapcore.ParseLevel(val); err != nil {
				return fmt.Errorf("invalid log_level: %s (use debug, info, warn or error)", val)
			}
			c.LogLevel = strings.ToLower(val)
		default:
			return fmt.Errorf("unknown key: %s", key)
		}
		if err := cfgpkg.Save(c, cfgFile); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Saved config")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}
