package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/KaramelBytes/abeval-cli/internal/chart"
	"github.com/KaramelBytes/abeval-cli/internal/dataset"
)

// Global configuration structure.
type Global struct {
	// Input table and output locations
	DataPath     string `mapstructure:"data_path" yaml:"data_path"`
	ResultsDir   string `mapstructure:"results_dir" yaml:"results_dir"`
	PlotsDir     string `mapstructure:"plots_dir" yaml:"plots_dir"`
	DatabasePath string `mapstructure:"database_path" yaml:"database_path"`
	TableName    string `mapstructure:"table_name" yaml:"table_name"`

	// Column layout
	VariantColumn  string `mapstructure:"variant_column" yaml:"variant_column"`
	RateColumn     string `mapstructure:"rate_column" yaml:"rate_column"`
	PurchaseColumn string `mapstructure:"purchase_column" yaml:"purchase_column"`
	ReachColumn    string `mapstructure:"reach_column" yaml:"reach_column"`
	ControlLabel   string `mapstructure:"control_label" yaml:"control_label"`
	TreatmentLabel string `mapstructure:"treatment_label" yaml:"treatment_label"`

	Alpha    float64 `mapstructure:"alpha" yaml:"alpha"`
	ChartDPI int     `mapstructure:"chart_dpi" yaml:"chart_dpi"`

	DashboardAddr string `mapstructure:"dashboard_addr" yaml:"dashboard_addr"`
	// Simulator requests per second allowed by the dashboard; <= 0 disables the limit.
	DashboardSimRate float64 `mapstructure:"dashboard_sim_rate" yaml:"dashboard_sim_rate"`
	// Origins allowed to call the dashboard API cross-origin; empty disables CORS.
	DashboardAllowedOrigins []string `mapstructure:"dashboard_allowed_origins" yaml:"dashboard_allowed_origins,omitempty"`
	LogLevel      string `mapstructure:"log_level" yaml:"log_level"`
}

// DatasetOptions maps the column layout onto loader options.
func (c *Global) DatasetOptions() dataset.Options {
	opt := dataset.DefaultOptions()
	if c.VariantColumn != "" {
		opt.VariantColumn = c.VariantColumn
	}
	if c.RateColumn != "" {
		opt.RateColumn = c.RateColumn
	}
	if c.PurchaseColumn != "" {
		opt.PurchaseColumn = c.PurchaseColumn
	}
	if c.ReachColumn != "" {
		opt.ReachColumn = c.ReachColumn
	}
	if c.ControlLabel != "" {
		opt.ControlLabel = c.ControlLabel
	}
	if c.TreatmentLabel != "" {
		opt.TreatmentLabel = c.TreatmentLabel
	}
	return opt
}

// ChartOptions returns chart options at the configured DPI.
func (c *Global) ChartOptions() chart.Options {
	opt := chart.DefaultOptions()
	if c.ChartDPI > 0 {
		opt.DPI = c.ChartDPI
	}
	return opt
}

// ChartPath is where the comparison chart is written.
func (c *Global) ChartPath() string {
	return filepath.Join(c.PlotsDir, chart.FileName)
}

// configDir returns ~/.abeval.
func configDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".abeval"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.abeval/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	var path string
	if cfgFile != "" {
		path = cfgFile
	} else {
		dir, err := configDir()
		if err != nil {
			return err
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir config dir: %w", err)
		}
		path = filepath.Join(dir, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: env > config file > defaults; command flags are applied by the caller.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("ABEVAL")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("data_path", filepath.Join("data", "processed", "ab_cleaned.csv"))
	v.SetDefault("results_dir", "results")
	v.SetDefault("plots_dir", "")
	v.SetDefault("database_path", filepath.Join("database", "ab_test.db"))
	v.SetDefault("table_name", "marketing_ab")
	v.SetDefault("variant_column", "variant")
	v.SetDefault("rate_column", "conversion_rate")
	v.SetDefault("purchase_column", "purchase")
	v.SetDefault("reach_column", "reach")
	v.SetDefault("control_label", "A")
	v.SetDefault("treatment_label", "B")
	v.SetDefault("alpha", 0.05)
	v.SetDefault("chart_dpi", 200)
	v.SetDefault("dashboard_addr", "127.0.0.1:8501")
	v.SetDefault("dashboard_sim_rate", 5.0)
	v.SetDefault("dashboard_allowed_origins", []string{})
	v.SetDefault("log_level", "warn")

	// Config file
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		dir, err := configDir()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	// optional read
	_ = v.ReadInConfig()

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if c.PlotsDir == "" {
		c.PlotsDir = filepath.Join(c.ResultsDir, "plots")
	}
	if c.Alpha <= 0 || c.Alpha >= 1 {
		return nil, fmt.Errorf("invalid alpha %v: must be within (0, 1)", c.Alpha)
	}
	return &c, nil
}
