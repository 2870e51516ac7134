// Package visualization renders experiment results for people: terminal
// charts, PNG charts, ranking tables and a small local HTTP dashboard.
package visualization

import (
	"errors"
	"fmt"

	"github.com/guptarohit/asciigraph"
	"github.com/nvandessel/tanklab/internal/models"
)

// ErrNoSamples is returned when a result has nothing to draw.
var ErrNoSamples = errors.New("result has no samples")

// ChartOptions sizes the terminal chart. Zero values use 80x12.
type ChartOptions struct {
	Width  int
	Height int
	Color  bool
}

// TerminalChart plots the ideal and plant levels of r as an ASCII line chart.
// Ideal is drawn first, plant second.
func TerminalChart(r *models.SimulationResult, opts ChartOptions) (string, error) {
	if r == nil || r.Samples() == 0 {
		return "", ErrNoSamples
	}
	if opts.Width <= 0 {
		opts.Width = 80
	}
	if opts.Height <= 0 {
		opts.Height = 12
	}

	caption := fmt.Sprintf("tank level (m) over %ds: ideal vs plant, MAE %.4f, peak %.3f",
		r.TotalDurationSeconds, r.MeanAbsoluteError, r.PeakLevel)

	graphOpts := []asciigraph.Option{
		asciigraph.Height(opts.Height),
		asciigraph.Width(opts.Width),
		asciigraph.Caption(caption),
	}
	if opts.Color {
		graphOpts = append(graphOpts, asciigraph.SeriesColors(asciigraph.Blue, asciigraph.Red))
	}

	return asciigraph.PlotMany([][]float64{r.IdealLevel, r.PlantLevel}, graphOpts...), nil
}

// ErrorChart plots the tracking error plant - ideal over time.
func ErrorChart(r *models.SimulationResult, opts ChartOptions) (string, error) {
	if r == nil || r.Samples() == 0 {
		return "", ErrNoSamples
	}
	if opts.Width <= 0 {
		opts.Width = 80
	}
	if opts.Height <= 0 {
		opts.Height = 8
	}

	errs := make([]float64, r.Samples())
	for i := range errs {
		errs[i] = r.PlantLevel[i] - r.IdealLevel[i]
	}

	return asciigraph.Plot(errs,
		asciigraph.Height(opts.Height),
		asciigraph.Width(opts.Width),
		asciigraph.Caption(fmt.Sprintf("tracking error (m), IAE %.4f, ISAE %.4f", r.IAE, r.ISAE)),
	), nil
}
