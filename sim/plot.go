package sim

import (
	"fmt"
	"image/color"

	"github.com/milosgajdos/go-navfusion/matrix"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// NewTrackPlot creates new plot of the horizontal track from the three data sources:
// truth:   true positions
// measure: GPS positions
// filter:  filter positions
// Each row of the data is a single east, north position in meters.
// It returns error if the plot fails to be created. This can be due to either of the following conditions:
// * either of the supplied data matrices is nil
// * either of the supplied data matrices does not have at least 2 columns
// * gonum plot fails to be created
func NewTrackPlot(truth, measure, filter *matrix.Matrix) (*plot.Plot, error) {
	if truth == nil || measure == nil || filter == nil {
		return nil, fmt.Errorf("invalid data supplied")
	}

	_, ctr := truth.Dims()
	_, cms := measure.Dims()
	_, cfl := filter.Dims()

	if ctr < 2 || cms < 2 || cfl < 2 {
		return nil, fmt.Errorf("invalid data dimensions")
	}

	p := plot.New()

	p.Title.Text = "Track"
	p.X.Label.Text = "East [m]"
	p.Y.Label.Text = "North [m]"

	legend := plot.NewLegend()
	legend.Top = true
	p.Legend = legend

	// Make a line plotter for true track
	truthLine, err := plotter.NewLine(makePoints(truth))
	if err != nil {
		return nil, err
	}
	truthLine.LineStyle.Color = color.RGBA{R: 255, B: 128, A: 255}
	truthLine.LineStyle.Width = vg.Points(1)

	p.Add(truthLine)
	p.Legend.Add("truth", truthLine)

	// Make a scatter plotter for GPS fixes
	measScatter, err := plotter.NewScatter(makePoints(measure))
	if err != nil {
		return nil, err
	}
	measScatter.GlyphStyle.Color = color.RGBA{G: 255, A: 128}
	measScatter.Shape = draw.PyramidGlyph{}
	measScatter.GlyphStyle.Radius = vg.Points(3)

	p.Add(measScatter)
	p.Legend.Add("gps", measScatter)

	// Make a line plotter for filter data
	filterLine, err := plotter.NewLine(makePoints(filter))
	if err != nil {
		return nil, fmt.Errorf("failed to create line: %w", err)
	}
	filterLine.LineStyle.Color = color.RGBA{R: 169, G: 169, B: 169, A: 255}
	filterLine.LineStyle.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}

	p.Add(filterLine)
	p.Legend.Add("filtered", filterLine)

	return p, nil
}

// NewAxisPlot creates new plot of a single axis position over time.
// Each row of truth and filter is a single time, position pair.
func NewAxisPlot(axis string, truth, filter *matrix.Matrix) (*plot.Plot, error) {
	if truth == nil || filter == nil {
		return nil, fmt.Errorf("invalid data supplied")
	}

	if _, c := truth.Dims(); c < 2 {
		return nil, fmt.Errorf("invalid data dimensions")
	}
	if _, c := filter.Dims(); c < 2 {
		return nil, fmt.Errorf("invalid data dimensions")
	}

	p := plot.New()

	p.Title.Text = fmt.Sprintf("%s position", axis)
	p.X.Label.Text = "Time [s]"
	p.Y.Label.Text = "Position [m]"

	legend := plot.NewLegend()
	legend.Top = true
	p.Legend = legend

	truthLine, err := plotter.NewLine(makePoints(truth))
	if err != nil {
		return nil, err
	}
	truthLine.LineStyle.Color = color.RGBA{R: 255, B: 128, A: 255}

	filterLine, err := plotter.NewLine(makePoints(filter))
	if err != nil {
		return nil, err
	}
	filterLine.LineStyle.Color = color.RGBA{R: 169, G: 169, B: 169, A: 255}
	filterLine.LineStyle.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}

	p.Add(truthLine, filterLine)
	p.Legend.Add("truth", truthLine)
	p.Legend.Add("filtered", filterLine)

	return p, nil
}

func makePoints(m *matrix.Matrix) plotter.XYs {
	r, _ := m.Dims()
	pts := make(plotter.XYs, r)
	for i := 0; i < r; i++ {
		pts[i].X = m.At(i, 0)
		pts[i].Y = m.At(i, 1)
	}

	return pts
}
