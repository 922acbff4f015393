package report

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/KaramelBytes/abeval-cli/internal/utils"
)

// SummaryFileName is the file the summary record is saved under.
const SummaryFileName = "summary_metrics.csv"

// Values returns the record fields as text in Columns order. Floats use the
// shortest representation that parses back to the same bits; NaN is "NaN".
func (s Summary) Values() []string {
	out := []string{strconv.Itoa(s.RowsA), strconv.Itoa(s.RowsB)}
	for _, p := range s.floats() {
		out = append(out, strconv.FormatFloat(*p, 'g', -1, 64))
	}
	return out
}

// WriteCSV writes a header line and the single summary row.
func WriteCSV(w io.Writer, s Summary) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if err := cw.Write(s.Values()); err != nil {
		return fmt.Errorf("write row: %w", err)
	}
	cw.Flush()
	return cw.Error()
}

// ReadCSV reads a summary written by WriteCSV. Empty cells and any NaN
// spelling read back as NaN. Columns may appear in any order; extra columns
// are ignored.
func ReadCSV(r io.Reader) (Summary, error) {
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return Summary{}, errors.New("summary is empty")
		}
		return Summary{}, fmt.Errorf("read header: %w", err)
	}
	row, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return Summary{}, errors.New("summary has no data row")
		}
		return Summary{}, fmt.Errorf("read row: %w", err)
	}
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.TrimSpace(h)] = i
	}
	cell := func(name string) (string, error) {
		i, ok := idx[name]
		if !ok || i >= len(row) {
			return "", fmt.Errorf("summary column %q missing", name)
		}
		return strings.TrimSpace(row[i]), nil
	}

	var s Summary
	for i, dst := range []*int{&s.RowsA, &s.RowsB} {
		v, err := cell(Columns[i])
		if err != nil {
			return Summary{}, err
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return Summary{}, fmt.Errorf("parse %s: %w", Columns[i], err)
		}
		*dst = n
	}
	for i, dst := range s.floats() {
		name := Columns[i+2]
		v, err := cell(name)
		if err != nil {
			return Summary{}, err
		}
		if v == "" {
			*dst = math.NaN()
			continue
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return Summary{}, fmt.Errorf("parse %s: %w", name, err)
		}
		*dst = f
	}
	return s, nil
}

// SaveCSV atomically writes the summary to path.
func SaveCSV(path string, s Summary) error {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, s); err != nil {
		return err
	}
	return utils.SafeWriteFile(path, buf.Bytes())
}

// LoadCSV reads a summary file from path.
func LoadCSV(path string) (Summary, error) {
	f, err := os.Open(path)
	if err != nil {
		return Summary{}, fmt.Errorf("open summary: %w", err)
	}
	defer f.Close()
	return ReadCSV(f)
}
