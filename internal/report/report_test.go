package report

import (
	"bytes"
	"encoding/json"
	"math"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/abeval-cli/internal/experiment"
)

func sampleResult() experiment.ComparisonResult {
	var obs []experiment.Observation
	for _, v := range []float64{0.10, 0.12, 0.11, 0.09} {
		obs = append(obs, experiment.Observation{Arm: experiment.ArmA, Rate: v, Purchases: 2, HasPurchases: true})
	}
	for _, v := range []float64{0.15, 0.16, 0.14, 0.17} {
		obs = append(obs, experiment.Observation{Arm: experiment.ArmB, Rate: v, Reach: 10, HasReach: true})
	}
	return experiment.Evaluate(obs)
}

func TestCSVRoundTrip(t *testing.T) {
	s := FromResult(sampleResult())

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, s))
	assert.True(t, strings.HasPrefix(buf.String(), strings.Join(Columns, ",")+"\n"))

	got, err := ReadCSV(&buf)
	require.NoError(t, err)
	assert.Equal(t, s, got)
}

func TestCSVRoundTrip_NaNAndInf(t *testing.T) {
	s := Summary{
		RowsA:        0,
		RowsB:        3,
		MeanB:        0.2,
		AbsDiff:      0.2,
		RelUpliftPct: math.NaN(),
		TStatistic:   math.Inf(1),
		PValue:       math.NaN(),
		CILow:        math.NaN(),
		CIHigh:       math.NaN(),
	}
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, s))
	assert.Contains(t, buf.String(), "NaN")

	got, err := ReadCSV(&buf)
	require.NoError(t, err)
	assert.True(t, s.Equal(got))
	assert.True(t, math.IsNaN(got.RelUpliftPct))
	assert.True(t, math.IsNaN(got.CILow))
	assert.True(t, math.IsInf(got.TStatistic, 1))
	assert.Equal(t, 0.0, got.MeanA)
}

func TestReadCSV_EmptyCellsAreNaN(t *testing.T) {
	in := strings.Join(Columns, ",") + "\n" + "0,4,0.0,0.155,0.155,,,,,\n"
	got, err := ReadCSV(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, 4, got.RowsB)
	assert.True(t, math.IsNaN(got.RelUpliftPct))
	assert.True(t, math.IsNaN(got.CIHigh))
}

func TestReadCSV_MissingColumn(t *testing.T) {
	_, err := ReadCSV(strings.NewReader("variant_A_rows,variant_B_rows\n1,2\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mean_conv_A")
}

func TestSaveAndLoadCSV(t *testing.T) {
	p := filepath.Join(t.TempDir(), "results", SummaryFileName)
	s := FromResult(sampleResult())
	require.NoError(t, SaveCSV(p, s))

	got, err := LoadCSV(p)
	require.NoError(t, err)
	assert.True(t, s.Equal(got))
}

func TestJSONRoundTrip(t *testing.T) {
	s := FromResult(experiment.Evaluate(nil))
	b, err := json.Marshal(s)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"ci_low":null`)
	assert.Contains(t, string(b), `"mean_conv_A":0`)

	var got Summary
	require.NoError(t, json.Unmarshal(b, &got))
	assert.True(t, s.Equal(got))
}

func TestJSONRoundTripInfinities(t *testing.T) {
	// Zero variance in both arms with different means gives t = +Inf.
	var obs []experiment.Observation
	for _, v := range []float64{0.5, 0.5} {
		obs = append(obs, experiment.Observation{Arm: experiment.ArmA, Rate: v})
	}
	for _, v := range []float64{0.75, 0.75} {
		obs = append(obs, experiment.Observation{Arm: experiment.ArmB, Rate: v})
	}
	s := FromResult(experiment.Evaluate(obs))
	require.True(t, math.IsInf(s.TStatistic, 1))
	s.CILow = math.Inf(-1)
	s.RelUpliftPct = math.NaN()

	b, err := json.Marshal(s)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"t_statistic":"+Inf"`)
	assert.Contains(t, string(b), `"ci_low":"-Inf"`)
	assert.Contains(t, string(b), `"rel_uplift_pct":null`)

	var got Summary
	require.NoError(t, json.Unmarshal(b, &got))
	assert.True(t, math.IsInf(got.TStatistic, 1))
	assert.True(t, math.IsInf(got.CILow, -1))
	assert.True(t, math.IsNaN(got.RelUpliftPct))
	assert.True(t, s.Equal(got))
}

func TestJSONMissingFieldReadsNaN(t *testing.T) {
	var got Summary
	require.NoError(t, json.Unmarshal([]byte(`{"variant_A_rows":3,"mean_conv_A":0.25}`), &got))
	assert.Equal(t, 3, got.RowsA)
	assert.Equal(t, 0.25, got.MeanA)
	assert.True(t, math.IsNaN(got.PValue))

	assert.Error(t, json.Unmarshal([]byte(`{"p_value":"often"}`), &got))
}

func TestEqual(t *testing.T) {
	a := Summary{PValue: math.NaN(), MeanA: 1}
	b := Summary{PValue: math.NaN(), MeanA: 1}
	assert.True(t, a.Equal(b))
	b.MeanA = 2
	assert.False(t, a.Equal(b))
}

func TestText(t *testing.T) {
	res := sampleResult()
	out := Text(res, experiment.Aggregate(nil))
	assert.Contains(t, out, "nA = 4, nB = 4")
	assert.Contains(t, out, "meanA = 0.105000, meanB = 0.155000")
	assert.Contains(t, out, "Relative uplift (B vs A) = 47.62%")
	assert.Contains(t, out, "95% CI for (B - A)")
	assert.Contains(t, out, "Welch t-test: t = ")
}

func TestAggregateTable(t *testing.T) {
	var obs []experiment.Observation
	obs = append(obs,
		experiment.Observation{Arm: experiment.ArmA, Rate: 0.1, Purchases: 3, HasPurchases: true, Reach: 30, HasReach: true},
		experiment.Observation{Arm: experiment.ArmB, Rate: 0.2, Purchases: 5, HasPurchases: true, Reach: 25, HasReach: true},
	)
	out := AggregateTable(experiment.Aggregate(obs))
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "mean_conv_rate")
	assert.Equal(t, []string{"A", "1", "0.100000", "3", "30"}, strings.Fields(lines[1]))
}
