// Package charts renders demand series and percent shares as PNG images.
package charts

import (
	"bytes"
	"errors"
	"fmt"
	"image/color"
	"math"

	"github.com/vinodismyname/gasdash/internal/demand"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

const (
	width  = 12 * vg.Inch
	height = 6 * vg.Inch
)

// ErrNoData is returned when there is nothing to draw.
var ErrNoData = errors.New("charts: nothing to plot")

// Unselected is the bar color for entities that are not highlighted.
var Unselected color.Color = color.Black

// Palette returns the i-th series color. Lines and their highlighted bars
// share the same index.
func Palette(i int) color.Color { return plotutil.Color(i) }

// Highlights assigns palette colors to names in selection order.
func Highlights(names []string) map[string]color.Color {
	out := make(map[string]color.Color, len(names))
	for i, n := range names {
		out[n] = Palette(i)
	}
	return out
}

// Line draws one line per series against a monthly time axis. Missing
// months are skipped.
func Line(title, ylabel string, series []demand.Series) ([]byte, error) {
	p := plot.New()
	p.Title.Text = title
	p.Title.TextStyle.Font.Size = vg.Points(16)
	p.Y.Label.Text = ylabel
	p.X.Tick.Marker = plot.TimeTicks{Format: "2006-01"}
	p.Legend.Top = true
	p.Add(plotter.NewGrid())

	drawn := 0
	for i, s := range series {
		pts := make(plotter.XYs, 0, len(s.Values))
		for j, v := range s.Values {
			if j >= len(s.Dates) || math.IsNaN(v) {
				continue
			}
			pts = append(pts, plotter.XY{X: float64(s.Dates[j].Unix()), Y: v})
		}
		if len(pts) == 0 {
			continue
		}
		l, err := plotter.NewLine(pts)
		if err != nil {
			return nil, fmt.Errorf("charts: line %q: %w", s.Name, err)
		}
		l.Color = Palette(i)
		l.Width = vg.Points(2)
		p.Add(l)
		p.Legend.Add(s.Name, l)
		drawn++
	}
	if drawn == 0 {
		return nil, ErrNoData
	}
	return encode(p)
}

// Bars draws one bar per entry in entry order. Entries present in
// highlight take its color; the rest are drawn in Unselected.
func Bars(title, ylabel string, entries []demand.Percentual, highlight map[string]color.Color) ([]byte, error) {
	if len(entries) == 0 {
		return nil, ErrNoData
	}
	p := plot.New()
	p.Title.Text = title
	p.Title.TextStyle.Font.Size = vg.Points(16)
	p.Y.Label.Text = ylabel
	p.Y.Min = 0

	labels := make([]string, len(entries))
	for i, e := range entries {
		labels[i] = e.Name
		b, err := plotter.NewBarChart(plotter.Values{e.Share}, vg.Points(12))
		if err != nil {
			return nil, fmt.Errorf("charts: bar %q: %w", e.Name, err)
		}
		b.XMin = float64(i)
		b.LineStyle.Width = vg.Length(0)
		b.Color = Unselected
		if c, ok := highlight[e.Name]; ok {
			b.Color = c
		}
		p.Add(b)
	}

	p.NominalX(labels...)
	p.X.Tick.Label.Rotation = math.Pi / 3
	p.X.Tick.Label.YAlign = draw.YTop
	p.X.Tick.Label.XAlign = draw.XRight
	return encode(p)
}

func encode(p *plot.Plot) ([]byte, error) {
	wt, err := p.WriterTo(width, height, "png")
	if err != nil {
		return nil, fmt.Errorf("charts: %w", err)
	}
	var buf bytes.Buffer
	if _, err := wt.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("charts: encode png: %w", err)
	}
	return buf.Bytes(), nil
}
