package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("data", "processed", "ab_cleaned.csv"), c.DataPath)
	assert.Equal(t, filepath.Join("results", "plots"), c.PlotsDir)
	assert.Equal(t, "marketing_ab", c.TableName)
	assert.Equal(t, 0.05, c.Alpha)
	assert.Equal(t, 200, c.ChartDPI)
	assert.Equal(t, 5.0, c.DashboardSimRate)
	assert.Empty(t, c.DashboardAllowedOrigins)
	assert.Equal(t, filepath.Join("results", "plots", "conversion_comparison.png"), c.ChartPath())
}

func TestLoad_FileAndEnv(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	p := filepath.Join(t.TempDir(), "cfg.yaml")
	require.NoError(t, os.WriteFile(p, []byte("results_dir: out\nalpha: 0.01\ncontrol_label: control\ndashboard_allowed_origins:\n  - http://localhost:3000\n"), 0o644))
	t.Setenv("ABEVAL_TABLE_NAME", "experiments")

	c, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, "out", c.ResultsDir)
	assert.Equal(t, filepath.Join("out", "plots"), c.PlotsDir)
	assert.Equal(t, 0.01, c.Alpha)
	assert.Equal(t, "experiments", c.TableName)
	assert.Equal(t, "control", c.DatasetOptions().ControlLabel)
	assert.Equal(t, "B", c.DatasetOptions().TreatmentLabel)
	assert.Equal(t, []string{"http://localhost:3000"}, c.DashboardAllowedOrigins)
}

func TestLoad_InvalidAlpha(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("ABEVAL_ALPHA", "1.5")
	_, err := Load("")
	require.Error(t, err)
}

func TestSaveRoundTrip(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	p := filepath.Join(t.TempDir(), "saved.yaml")
	c, err := Load("")
	require.NoError(t, err)
	c.DataPath = "custom.csv"
	c.ChartDPI = 96
	require.NoError(t, Save(c, p))

	got, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, "custom.csv", got.DataPath)
	assert.Equal(t, 96, got.ChartDPI)
	assert.Equal(t, 96, got.ChartOptions().DPI)
}
