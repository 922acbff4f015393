// Package report turns a comparison into the flat summary record and renders
// it for files and terminals.
package report

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/KaramelBytes/abeval-cli/internal/experiment"
)

// Columns is the fixed field order of the summary record.
var Columns = []string{
	"variant_A_rows",
	"variant_B_rows",
	"mean_conv_A",
	"mean_conv_B",
	"abs_diff_B_minus_A",
	"rel_uplift_pct",
	"t_statistic",
	"p_value",
	"ci_low",
	"ci_high",
}

// Summary is the single-row output record. Undefined values are NaN.
type Summary struct {
	RowsA        int
	RowsB        int
	MeanA        float64
	MeanB        float64
	AbsDiff      float64
	RelUpliftPct float64
	TStatistic   float64
	PValue       float64
	CILow        float64
	CIHigh       float64
}

// FromResult flattens a comparison into a Summary.
func FromResult(res experiment.ComparisonResult) Summary {
	return Summary{
		RowsA:        res.A.Count,
		RowsB:        res.B.Count,
		MeanA:        res.MeanA,
		MeanB:        res.MeanB,
		AbsDiff:      res.AbsoluteDifference,
		RelUpliftPct: res.RelativeUpliftPercent,
		TStatistic:   res.TestStatistic,
		PValue:       res.PValue,
		CILow:        res.CILow,
		CIHigh:       res.CIHigh,
	}
}

// floats returns pointers to the float fields in Columns order (after the two row counts).
func (s *Summary) floats() []*float64 {
	return []*float64{&s.MeanA, &s.MeanB, &s.AbsDiff, &s.RelUpliftPct, &s.TStatistic, &s.PValue, &s.CILow, &s.CIHigh}
}

// Equal reports whether two summaries hold the same values, treating NaN as
// equal to NaN.
func (s Summary) Equal(o Summary) bool {
	if s.RowsA != o.RowsA || s.RowsB != o.RowsB {
		return false
	}
	a, b := s.floats(), o.floats()
	for i := range a {
		x, y := *a[i], *b[i]
		if math.IsNaN(x) && math.IsNaN(y) {
			continue
		}
		if x != y {
			return false
		}
	}
	return true
}

// jsonFloat encodes NaN as null and the infinities as "+Inf" and "-Inf",
// none of which JSON numbers can represent.
type jsonFloat float64

func (f jsonFloat) MarshalJSON() ([]byte, error) {
	v := float64(f)
	switch {
	case math.IsNaN(v):
		return []byte("null"), nil
	case math.IsInf(v, 1):
		return []byte(`"+Inf"`), nil
	case math.IsInf(v, -1):
		return []byte(`"-Inf"`), nil
	}
	return json.Marshal(v)
}

func (f *jsonFloat) UnmarshalJSON(b []byte) error {
	switch string(b) {
	case "null":
		*f = jsonFloat(math.NaN())
		return nil
	case `"+Inf"`, `"Inf"`:
		*f = jsonFloat(math.Inf(1))
		return nil
	case `"-Inf"`:
		*f = jsonFloat(math.Inf(-1))
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return fmt.Errorf("summary value %s: %w", b, err)
	}
	*f = jsonFloat(v)
	return nil
}

type jsonSummary struct {
	RowsA        int       `json:"variant_A_rows"`
	RowsB        int       `json:"variant_B_rows"`
	MeanA        jsonFloat `json:"mean_conv_A"`
	MeanB        jsonFloat `json:"mean_conv_B"`
	AbsDiff      jsonFloat `json:"abs_diff_B_minus_A"`
	RelUpliftPct jsonFloat `json:"rel_uplift_pct"`
	TStatistic   jsonFloat `json:"t_statistic"`
	PValue       jsonFloat `json:"p_value"`
	CILow        jsonFloat `json:"ci_low"`
	CIHigh       jsonFloat `json:"ci_high"`
}

func (js *jsonSummary) floats() []*jsonFloat {
	return []*jsonFloat{&js.MeanA, &js.MeanB, &js.AbsDiff, &js.RelUpliftPct, &js.TStatistic, &js.PValue, &js.CILow, &js.CIHigh}
}

// MarshalJSON writes NaN as null and the infinities as "+Inf"/"-Inf".
func (s Summary) MarshalJSON() ([]byte, error) {
	js := jsonSummary{RowsA: s.RowsA, RowsB: s.RowsB}
	dst := js.floats()
	for i, p := range s.floats() {
		*dst[i] = jsonFloat(*p)
	}
	return json.Marshal(js)
}

// UnmarshalJSON reads null and absent values back as NaN.
func (s *Summary) UnmarshalJSON(b []byte) error {
	var js jsonSummary
	for _, p := range js.floats() {
		*p = jsonFloat(math.NaN())
	}
	if err := json.Unmarshal(b, &js); err != nil {
		return err
	}
	s.RowsA, s.RowsB = js.RowsA, js.RowsB
	src := js.floats()
	for i, p := range s.floats() {
		*p = float64(*src[i])
	}
	return nil
}
