// Package plot draws optimizer score histories with gonum/plot.
package plot

import (
	"errors"
	"fmt"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// ErrEmptyHistory is returned when there is nothing to draw.
var ErrEmptyHistory = errors.New("plot: empty history")

// WriteHistory draws the best score per round as a line and saves it to
// path. The image format follows the extension (png, svg, pdf, ...).
func WriteHistory(path, title string, history []float64) error {
	if len(history) == 0 {
		return ErrEmptyHistory
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Round"
	p.Y.Label.Text = "Best score"

	pts := make(plotter.XYs, len(history))
	for i, score := range history {
		pts[i].X = float64(i + 1)
		pts[i].Y = score
	}

	line, err := plotter.NewLine(pts)
	if err != nil {
		return fmt.Errorf("history line: %w", err)
	}
	p.Add(line, plotter.NewGrid())
	p.Legend.Add("best", line)
	p.Legend.Top = true

	if err := p.Save(6*vg.Inch, 4*vg.Inch, path); err != nil {
		return fmt.Errorf("save plot %s: %w", path, err)
	}
	return nil
}
