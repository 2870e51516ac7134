package visualization

import (
	"fmt"
	"image/color"
	"io"

	"github.com/nvandessel/tanklab/internal/models"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

// PNGOptions sizes the PNG chart. Zero values use 8x5 inches at 96 DPI.
type PNGOptions struct {
	WidthIn  float64
	HeightIn float64
	DPI      int
	Title    string
}

var (
	idealColor = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	plantColor = color.RGBA{R: 214, G: 39, B: 40, A: 255}
)

// WritePNG draws the ideal and plant levels of r and writes the image to w.
func WritePNG(w io.Writer, r *models.SimulationResult, opts PNGOptions) error {
	if r == nil || r.Samples() == 0 {
		return ErrNoSamples
	}
	if opts.WidthIn <= 0 {
		opts.WidthIn = 8
	}
	if opts.HeightIn <= 0 {
		opts.HeightIn = 5
	}
	if opts.DPI <= 0 {
		opts.DPI = 96
	}
	if opts.Title == "" {
		opts.Title = "Tank level: ideal vs plant"
	}

	p := plot.New()
	p.Title.Text = opts.Title
	p.X.Label.Text = "time (s)"
	p.Y.Label.Text = "level (m)"
	p.Add(plotter.NewGrid())

	ideal, err := newSeries(r.Time, r.IdealLevel, idealColor, nil)
	if err != nil {
		return fmt.Errorf("ideal series: %w", err)
	}
	plant, err := newSeries(r.Time, r.PlantLevel, plantColor, []vg.Length{vg.Points(4), vg.Points(2)})
	if err != nil {
		return fmt.Errorf("plant series: %w", err)
	}
	p.Add(ideal, plant)
	p.Legend.Add("ideal", ideal)
	p.Legend.Add("plant", plant)
	p.Legend.Top = false

	c := vgimg.NewWith(
		vgimg.UseWH(vg.Length(opts.WidthIn)*vg.Inch, vg.Length(opts.HeightIn)*vg.Inch),
		vgimg.UseDPI(opts.DPI),
	)
	p.Draw(draw.New(c))

	if _, err := (vgimg.PngCanvas{Canvas: c}).WriteTo(w); err != nil {
		return fmt.Errorf("cannot write png: %w", err)
	}
	return nil
}

func newSeries(xs, ys []float64, c color.Color, dashes []vg.Length) (*plotter.Line, error) {
	pts := make(plotter.XYs, len(xs))
	for i := range xs {
		pts[i].X = xs[i]
		pts[i].Y = ys[i]
	}
	line, err := plotter.NewLine(pts)
	if err != nil {
		return nil, err
	}
	line.LineStyle.Width = vg.Points(2)
	line.LineStyle.Color = c
	line.LineStyle.Dashes = dashes
	return line, nil
}
