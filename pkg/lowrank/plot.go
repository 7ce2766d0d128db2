package lowrank

import (
	"errors"
	"fmt"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// logFloor replaces exact zeros on log-scale plots, which cannot show
// them.
const logFloor = 1e-16

// PlotOptions control the rendered error curve.
type PlotOptions struct {
	Title    string
	LogScale bool
}

// RenderPlot writes the error curve to path; the extension picks the
// image format (.png, .svg, .pdf).
func RenderPlot(points []ErrorPoint, path string, opts PlotOptions) error {
	if len(points) == 0 {
		return errors.New("lowrank: no points to plot")
	}

	p := plot.New()
	p.Title.Text = opts.Title
	if p.Title.Text == "" {
		p.Title.Text = "Reconstruction error by rank"
	}
	p.X.Label.Text = "rank k"
	p.Y.Label.Text = "Frobenius error"

	xys := make(plotter.XYs, len(points))
	for i, pt := range points {
		xys[i].X = float64(pt.K)
		y := pt.AbsError
		if opts.LogScale && y < logFloor {
			y = logFloor
		}
		xys[i].Y = y
	}

	line, scatter, err := plotter.NewLinePoints(xys)
	if err != nil {
		return fmt.Errorf("lowrank: building plot: %w", err)
	}
	p.Add(line, scatter)

	if opts.LogScale {
		p.Y.Scale = plot.LogScale{}
		p.Y.Tick.Marker = plot.LogTicks{Prec: -1}
	}

	if err := p.Save(6*vg.Inch, 4*vg.Inch, path); err != nil {
		return fmt.Errorf("lowrank: saving plot: %w", err)
	}
	return nil
}
