package stats

import (
	"fmt"
	"image/color"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"tspga/internal/model"
	"tspga/internal/world"
)

var (
	bestColor = color.RGBA{R: 200, G: 30, B: 30, A: 255}
	meanColor = color.RGBA{R: 30, G: 90, B: 200, A: 255}
)

// WriteConvergencePlot draws best and mean tour length per generation. The
// image format follows the extension of path.
func WriteConvergencePlot(path, title string, diagnostics []model.GenerationDiagnostics) error {
	if len(diagnostics) == 0 {
		return fmt.Errorf("no generation diagnostics to plot")
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Generation"
	p.Y.Label.Text = "Tour length"

	bestPts := make(plotter.XYs, len(diagnostics))
	meanPts := make(plotter.XYs, len(diagnostics))
	for i, d := range diagnostics {
		bestPts[i].X = float64(d.Generation)
		bestPts[i].Y = d.BestLength
		meanPts[i].X = float64(d.Generation)
		meanPts[i].Y = d.MeanLength
	}

	bestLine, err := plotter.NewLine(bestPts)
	if err != nil {
		return err
	}
	bestLine.LineStyle.Color = bestColor
	meanLine, err := plotter.NewLine(meanPts)
	if err != nil {
		return err
	}
	meanLine.LineStyle.Color = meanColor
	meanLine.LineStyle.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}

	p.Add(plotter.NewGrid(), bestLine, meanLine)
	p.Legend.Add("best", bestLine)
	p.Legend.Add("mean", meanLine)
	p.Legend.Top = true

	return p.Save(6*vg.Inch, 4*vg.Inch, path)
}

// tourPlotMargin pads the city bound on every side, as a fraction of its
// larger extent.
const tourPlotMargin = 0.05

// WriteTourPlot draws the cities of w and the closed tour through them.
func WriteTourPlot(path, title string, w *world.World, tour []int) error {
	if w == nil || w.Len() == 0 {
		return fmt.Errorf("no cities to plot")
	}
	points := w.Points()
	if len(tour) != len(points) {
		return fmt.Errorf("tour visits %d cities, world has %d", len(tour), len(points))
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "x"
	p.Y.Label.Text = "y"

	bound := w.Bound()
	pad := math.Max(bound.Right()-bound.Left(), bound.Top()-bound.Bottom()) * tourPlotMargin
	if pad == 0 {
		pad = 1
	}
	p.X.Min, p.X.Max = bound.Left()-pad, bound.Right()+pad
	p.Y.Min, p.Y.Max = bound.Bottom()-pad, bound.Top()+pad

	cities := make(plotter.XYs, len(points))
	for i, pt := range points {
		cities[i].X = pt.X()
		cities[i].Y = pt.Y()
	}
	route := make(plotter.XYs, len(tour)+1)
	for i, city := range tour {
		if city < 0 || city >= len(points) {
			return fmt.Errorf("tour city %d out of range", city)
		}
		route[i].X = points[city].X()
		route[i].Y = points[city].Y()
	}
	route[len(tour)] = route[0]

	line, err := plotter.NewLine(route)
	if err != nil {
		return err
	}
	line.LineStyle.Color = meanColor
	scatter, err := plotter.NewScatter(cities)
	if err != nil {
		return err
	}
	scatter.GlyphStyle.Shape = draw.CircleGlyph{}
	scatter.GlyphStyle.Color = bestColor
	scatter.GlyphStyle.Radius = vg.Points(2.5)

	p.Add(line, scatter)
	return p.Save(6*vg.Inch, 6*vg.Inch, path)
}
