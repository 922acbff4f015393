// Package chart renders the per-arm conversion comparison.
package chart

import (
	"bytes"
	"errors"
	"fmt"
	"image/color"
	"io"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/text"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/KaramelBytes/abeval-cli/internal/experiment"
	"github.com/KaramelBytes/abeval-cli/internal/utils"
)

// FileName is the default output name under the plots directory.
const FileName = "conversion_comparison.png"

// ErrNoData is returned when no arm has observations.
var ErrNoData = errors.New("no observations to plot")

var barColor = color.RGBA{R: 0x1f, G: 0x77, B: 0xb4, A: 0xff}

// Options controls the rendered image.
type Options struct {
	Title  string
	Width  vg.Length
	Height vg.Length
	DPI    int
}

// DefaultOptions returns a 6x5 inch image at 200 DPI.
func DefaultOptions() Options {
	return Options{
		Title:  "A/B Test: Conversion Rate by Variant (with 95% CI)",
		Width:  6 * vg.Inch,
		Height: 5 * vg.Inch,
		DPI:    200,
	}
}

// ErrorMargins returns the 95% half-width 1.96*sqrt(var/n) per arm; arms
// with fewer than two observations get 0.
func ErrorMargins(arms []experiment.ArmSummary) []float64 {
	out := make([]float64, len(arms))
	for i, a := range arms {
		if a.Count < 2 {
			continue
		}
		m := experiment.ConfidenceZ * math.Sqrt(a.Variance/float64(a.Count))
		if !math.IsNaN(m) && !math.IsInf(m, 0) {
			out[i] = m
		}
	}
	return out
}

// meanErrors feeds the error bars: one point per bar at x = index.
type meanErrors struct {
	means, errs []float64
}

func (m meanErrors) Len() int                        { return len(m.means) }
func (m meanErrors) XY(i int) (float64, float64)     { return float64(i), m.means[i] }
func (m meanErrors) YError(i int) (float64, float64) { return m.errs[i], m.errs[i] }

// New builds the bar chart of arm means with 95% error bars. Arms without
// observations are left out.
func New(arms []experiment.ArmSummary, opt Options) (*plot.Plot, error) {
	var kept []experiment.ArmSummary
	for _, a := range arms {
		if a.Count > 0 {
			kept = append(kept, a)
		}
	}
	if len(kept) == 0 {
		return nil, ErrNoData
	}

	names := make([]string, len(kept))
	means := make(plotter.Values, len(kept))
	maxMean := 0.0
	for i, a := range kept {
		names[i] = string(a.Arm)
		means[i] = a.Mean
		maxMean = math.Max(maxMean, a.Mean)
	}
	errs := ErrorMargins(kept)
	maxErr := 0.0
	for _, e := range errs {
		maxErr = math.Max(maxErr, e)
	}

	p := plot.New()
	p.Title.Text = opt.Title
	p.X.Label.Text = "Variant"
	p.Y.Label.Text = "Conversion rate"

	bars, err := plotter.NewBarChart(means, vg.Points(40))
	if err != nil {
		return nil, fmt.Errorf("bar chart: %w", err)
	}
	bars.Color = barColor
	bars.LineStyle.Width = 0

	yerr, err := plotter.NewYErrorBars(meanErrors{means: means, errs: errs})
	if err != nil {
		return nil, fmt.Errorf("error bars: %w", err)
	}
	yerr.CapWidth = vg.Points(16)

	lift := maxErr * 0.1
	if maxErr == 0 {
		lift = 0.001
	}
	xys := make(plotter.XYs, len(kept))
	labels := make([]string, len(kept))
	for i, m := range means {
		xys[i] = plotter.XY{X: float64(i), Y: m + lift}
		labels[i] = fmt.Sprintf("%.4f", m)
	}
	lbl, err := plotter.NewLabels(plotter.XYLabels{XYs: xys, Labels: labels})
	if err != nil {
		return nil, fmt.Errorf("labels: %w", err)
	}
	for i := range lbl.TextStyle {
		lbl.TextStyle[i].XAlign = text.XCenter
	}

	p.Add(bars, yerr, lbl)
	p.NominalX(names...)
	// Add widens the axes to the data; the y range is fixed afterwards
	p.Y.Min = 0
	p.Y.Max = 0.1
	if maxMean > 0 {
		p.Y.Max = maxMean * 1.6
	}
	return p, nil
}

// WritePNG renders the chart as PNG to w.
func WritePNG(w io.Writer, arms []experiment.ArmSummary, opt Options) error {
	def := DefaultOptions()
	if opt.Width <= 0 || opt.Height <= 0 {
		opt.Width, opt.Height = def.Width, def.Height
	}
	if opt.DPI <= 0 {
		opt.DPI = def.DPI
	}
	if opt.Title == "" {
		opt.Title = def.Title
	}
	p, err := New(arms, opt)
	if err != nil {
		return err
	}
	c := vgimg.NewWith(vgimg.UseWH(opt.Width, opt.Height), vgimg.UseDPI(opt.DPI))
	p.Draw(draw.New(c))
	if _, err := (vgimg.PngCanvas{Canvas: c}).WriteTo(w); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}

// SavePNG renders the chart and writes it atomically to path.
func SavePNG(path string, arms []experiment.ArmSummary, opt Options) error {
	var buf bytes.Buffer
	if err := WritePNG(&buf, arms, opt); err != nil {
		return err
	}
	return utils.SafeWriteFile(path, buf.Bytes())
}
