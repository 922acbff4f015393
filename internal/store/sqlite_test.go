package store

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/abeval-cli/internal/dataset"
	"github.com/KaramelBytes/abeval-cli/internal/experiment"
	"github.com/KaramelBytes/abeval-cli/internal/report"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(context.Background(), filepath.Join(t.TempDir(), "database", "ab_test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func testDataset(t *testing.T) *dataset.Dataset {
	t.Helper()
	in := "user_id,variant,conversion_rate,purchase,note\n" +
		"1,A,0.10,3,first\n" +
		"2,B,0.15,,second\n" +
		"3,A,0.12,4,\n"
	ds, err := dataset.Read(strings.NewReader(in), ',', dataset.DefaultOptions())
	require.NoError(t, err)
	return ds
}

func TestOpenCreatesParentDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "ab.db")
	db, err := Open(context.Background(), path)
	require.NoError(t, err)
	defer db.Close()
	assert.Equal(t, path, db.Path())
	assert.FileExists(t, path)
}

func TestReplaceTable(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	ds := testDataset(t)

	n, err := db.ReplaceTable(ctx, DefaultTable, ds)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	// replacing again must not duplicate rows
	_, err = db.ReplaceTable(ctx, DefaultTable, ds)
	require.NoError(t, err)
	count, err := db.CountRows(ctx, DefaultTable)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	var (
		userID   int64
		variant  string
		rate     float64
		purchase *int64
	)
	err = db.QueryRowContext(ctx, `SELECT user_id, variant, conversion_rate, purchase FROM marketing_ab WHERE user_id = 2`).
		Scan(&userID, &variant, &rate, &purchase)
	require.NoError(t, err)
	assert.Equal(t, "B", variant)
	assert.Equal(t, 0.15, rate)
	assert.Nil(t, purchase)

	var avg float64
	require.NoError(t, db.QueryRowContext(ctx, `SELECT AVG(conversion_rate) FROM marketing_ab WHERE variant = 'A'`).Scan(&avg))
	assert.InDelta(t, 0.11, avg, 1e-12)
}

func TestReplaceTable_InvalidName(t *testing.T) {
	db := openTestDB(t)
	_, err := db.ReplaceTable(context.Background(), "ab; DROP TABLE x", testDataset(t))
	require.Error(t, err)
	_, err = db.ReplaceTable(context.Background(), "summary_metrics", testDataset(t))
	require.Error(t, err)
}

func TestSummaryRoundTrip(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	_, _, err := db.LatestSummary(ctx)
	assert.True(t, errors.Is(err, ErrNoSummary))

	first := report.FromResult(experiment.Evaluate(nil))
	_, err = db.SaveSummary(ctx, first, "empty.csv")
	require.NoError(t, err)

	obs := []experiment.Observation{
		{Arm: experiment.ArmA, Rate: 0.10}, {Arm: experiment.ArmA, Rate: 0.12},
		{Arm: experiment.ArmB, Rate: 0.15}, {Arm: experiment.ArmB, Rate: 0.16},
	}
	second := report.FromResult(experiment.Evaluate(obs))
	id, err := db.SaveSummary(ctx, second, "ab_cleaned.csv")
	require.NoError(t, err)

	got, gotID, err := db.LatestSummary(ctx)
	require.NoError(t, err)
	assert.Equal(t, id, gotID)
	assert.Equal(t, second, got)
}

func TestSummaryRoundTrip_NaN(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	s := report.FromResult(experiment.Evaluate(nil))
	require.True(t, math.IsNaN(s.CILow))
	_, err := db.SaveSummary(ctx, s, "")
	require.NoError(t, err)

	got, _, err := db.LatestSummary(ctx)
	require.NoError(t, err)
	assert.True(t, s.Equal(got))
	assert.True(t, math.IsNaN(got.PValue))
	assert.Equal(t, 0.0, got.MeanA)
}

func TestInferColumnTypes(t *testing.T) {
	header := []string{"i", "r", "t", "empty"}
	rows := [][]string{{"1", "0.5", "x", ""}, {"2", "3", "4", ""}}
	assert.Equal(t, []string{"INTEGER", "REAL", "TEXT", "TEXT"}, inferColumnTypes(header, rows))
}
