package render

import (
	"fmt"
	"image/color"
	"io"

	"golang.org/x/image/colornames"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/verte-zerg/adccmp/internal/generator"
	"github.com/verte-zerg/adccmp/internal/stats"
)

var snapshotColors = []color.Color{colornames.Steelblue, colornames.Darkorange}

// Snapshot writes a static SVG of the same overlay the HTML chart shows.
func Snapshot(w io.Writer, rep stats.Report) error {
	if err := validate(rep); err != nil {
		return &Error{Signal: rep.Name, Err: err}
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s (%s)", rep.Name, generator.Describe(rep.Reference.Params))
	p.X.Label.Text = "Time (ms)"
	p.Y.Label.Text = "Voltage (mV)"
	p.BackgroundColor = colornames.White
	p.Legend.Top = true
	p.Add(plotter.NewGrid())

	ref, err := plotter.NewLine(xys(rep.ReferenceTimesMs, rep.Reference.V))
	if err != nil {
		return &Error{Signal: rep.Name, Err: err}
	}
	ref.Color = colornames.Gray
	ref.Width = vg.Points(1)
	ref.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}
	p.Add(ref)
	p.Legend.Add("Reference", ref)

	for i, u := range rep.Units {
		line, err := plotter.NewLine(xys(u.TimesMs, u.SeriesV))
		if err != nil {
			return &Error{Signal: rep.Name, Err: err}
		}
		line.Color = snapshotColors[i%len(snapshotColors)]
		line.Width = vg.Points(0.75)
		p.Add(line)
		p.Legend.Add(u.Unit.Model, line)
	}

	wt, err := p.WriterTo(12*vg.Inch, 5*vg.Inch, "svg")
	if err != nil {
		return &Error{Signal: rep.Name, Err: err}
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	return nil
}

func xys(timesMs, volts []float64) plotter.XYs {
	pts := make(plotter.XYs, len(volts))
	for i := range pts {
		pts[i].X = timesMs[i]
		pts[i].Y = volts[i] * 1e3
	}
	return pts
}
