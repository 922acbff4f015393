// Package dataset loads the processed experiment table into observations.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/KaramelBytes/abeval-cli/internal/experiment"
)

// Options controls how the table is read and mapped onto observations.
type Options struct {
	// Delimiter for CSV. If 0, chosen from the file extension.
	Delimiter rune
	// Numeric parsing locale. If DecimalSeparator is 0, auto-detect per value.
	DecimalSeparator   rune
	ThousandsSeparator rune
	// MaxRows limits rows read; 0 means unlimited.
	MaxRows int

	VariantColumn  string
	RateColumn     string
	PurchaseColumn string
	ReachColumn    string

	ControlLabel   string
	TreatmentLabel string
}

// DefaultOptions returns the column layout of the prepared marketing table.
func DefaultOptions() Options {
	return Options{
		VariantColumn:  "variant",
		RateColumn:     "conversion_rate",
		PurchaseColumn: "purchase",
		ReachColumn:    "reach",
		ControlLabel:   string(experiment.ArmA),
		TreatmentLabel: string(experiment.ArmB),
	}
}

// Dataset is the loaded table: raw rows for export and previews, plus the
// observations derived from them.
type Dataset struct {
	Name         string
	Header       []string
	Rows         [][]string
	Observations []experiment.Observation
	// Skipped counts rows whose variant is neither the control nor the treatment label.
	Skipped  int
	Warnings []string
}

// Load reads the table at path. A missing file yields *MissingInputError and
// a header without the variant or rate column yields *MissingColumnError.
func Load(path string, opt Options) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &MissingInputError{Path: path}
		}
		return nil, fmt.Errorf("open table: %w", err)
	}
	defer f.Close()

	delim := opt.Delimiter
	if delim == 0 {
		delim = sniffDelimiter(path)
	}
	ds, err := Read(f, delim, opt)
	if err != nil {
		return nil, err
	}
	ds.Name = filepath.Base(path)
	return ds, nil
}

// Read parses a delimited table from r.
func Read(r io.Reader, delim rune, opt Options) (*Dataset, error) {
	def := DefaultOptions()
	if opt.VariantColumn == "" {
		opt.VariantColumn = def.VariantColumn
	}
	if opt.RateColumn == "" {
		opt.RateColumn = def.RateColumn
	}
	if opt.ControlLabel == "" {
		opt.ControlLabel = def.ControlLabel
	}
	if opt.TreatmentLabel == "" {
		opt.TreatmentLabel = def.TreatmentLabel
	}

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	if delim != 0 {
		cr.Comma = delim
	}

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmptyTable
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(header[i], "\ufeff"))
	}

	variantIdx := columnIndex(header, opt.VariantColumn)
	if variantIdx < 0 {
		return nil, &MissingColumnError{Column: opt.VariantColumn, Header: header}
	}
	rateIdx := columnIndex(header, opt.RateColumn)
	if rateIdx < 0 {
		return nil, &MissingColumnError{Column: opt.RateColumn, Header: header}
	}
	purchaseIdx := columnIndex(header, opt.PurchaseColumn)
	if purchaseIdx < 0 {
		purchaseIdx = suffixIndex(header, "purchase")
	}
	reachIdx := columnIndex(header, opt.ReachColumn)

	ds := &Dataset{Header: header}
	maxRows := opt.MaxRows
	if maxRows <= 0 {
		maxRows = math.MaxInt
	}
	badRates := 0
	for {
		rec, err := cr.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("read row %d: %w", len(ds.Rows)+1, err)
		}
		if len(ds.Rows) >= maxRows {
			ds.Warnings = append(ds.Warnings, fmt.Sprintf("stopped after %d rows due to MaxRows", maxRows))
			break
		}
		if len(rec) < len(header) {
			tmp := make([]string, len(header))
			copy(tmp, rec)
			rec = tmp
		}
		ds.Rows = append(ds.Rows, rec)

		arm, ok := matchArm(rec[variantIdx], opt)
		if !ok {
			ds.Skipped++
			continue
		}
		o := experiment.Observation{Arm: arm, Rate: math.NaN()}
		if raw := strings.TrimSpace(rec[rateIdx]); raw != "" {
			if x, ok := parseNumeric(raw, opt); ok {
				if strings.Contains(raw, "%") {
					x /= 100
				}
				o.Rate = x
			} else {
				badRates++
			}
		}
		if purchaseIdx >= 0 {
			o.Purchases, o.HasPurchases = parseCount(rec[purchaseIdx], opt)
		}
		if reachIdx >= 0 {
			o.Reach, o.HasReach = parseCount(rec[reachIdx], opt)
		}
		ds.Observations = append(ds.Observations, o)
	}
	if badRates > 0 {
		ds.Warnings = append(ds.Warnings, fmt.Sprintf("%d %s values could not be parsed and were treated as missing", badRates, header[rateIdx]))
	}
	if ds.Skipped > 0 {
		ds.Warnings = append(ds.Warnings, fmt.Sprintf("%d rows skipped: %s is neither %q nor %q", ds.Skipped, header[variantIdx], opt.ControlLabel, opt.TreatmentLabel))
	}
	return ds, nil
}

func matchArm(v string, opt Options) (experiment.Arm, bool) {
	v = strings.TrimSpace(v)
	switch {
	case strings.EqualFold(v, opt.ControlLabel):
		return experiment.ArmA, true
	case strings.EqualFold(v, opt.TreatmentLabel):
		return experiment.ArmB, true
	}
	return "", false
}

func parseCount(v string, opt Options) (int64, bool) {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0, false
	}
	x, ok := parseNumeric(v, opt)
	if !ok || math.IsNaN(x) || math.IsInf(x, 0) {
		return 0, false
	}
	return int64(math.Round(x)), true
}

func columnIndex(header []string, name string) int {
	name = strings.TrimSpace(name)
	if name == "" {
		return -1
	}
	for i, h := range header {
		if strings.EqualFold(h, name) {
			return i
		}
	}
	return -1
}

func suffixIndex(header []string, suffix string) int {
	for i, h := range header {
		if strings.HasSuffix(strings.ToLower(h), suffix) {
			return i
		}
	}
	return -1
}
