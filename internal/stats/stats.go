package stats

import (
	"fmt"
	"io"
	"math"
	"strings"

	"gonum.org/v1/gonum/floats"

	"github.com/verte-zerg/adccmp/internal/generator"
	"github.com/verte-zerg/adccmp/internal/metrics"
)

const sparkChars = " .:-=+*#%@"

// Row is one line of the metrics table.
type Row struct {
	Label  string
	Values []string
}

// MetricsHeaders are the column titles of the metrics table.
func MetricsHeaders(rep Report) []string {
	headers := []string{"Metric", "Reference"}
	for _, u := range rep.Units {
		headers = append(headers, u.Unit.Model)
	}
	return headers
}

// MetricsRows lays out the figures shared by the terminal and HTML tables.
// Voltages are in millivolts.
func MetricsRows(rep Report) []Row {
	mv := func(v float64) string { return fmt.Sprintf("%.3f", v*1e3) }
	amps := func(v float64) string { return fmt.Sprintf("%.3f", v) }

	vrms := Row{Label: "Vrms (mV)", Values: []string{mv(rep.Reference.Params.VrmsV)}}
	vpeak := Row{Label: "Vpeak (mV)", Values: []string{mv(rep.ReferenceSummary.Peak)}}
	vpp := Row{Label: "Vpp (mV)", Values: []string{mv(rep.ReferenceSummary.Vpp)}}
	current := Row{Label: fmt.Sprintf("Current (A, %g A CT)", rep.IPrimary), Values: []string{amps(rep.ReferenceCurrent)}}
	dc := Row{Label: "DC (mV)", Values: []string{"-"}}
	samples := Row{Label: "Samples", Values: []string{fmt.Sprintf("%d", len(rep.Reference.V))}}
	skipped := Row{Label: "Skipped rows", Values: []string{"-"}}
	crest := Row{Label: "Crest factor", Values: []string{crestValue(rep.Reference.V)}}
	temp := Row{Label: "Temperature (C)", Values: []string{"-"}}
	hasTemp := false

	for _, u := range rep.Units {
		vrms.Values = append(vrms.Values, mv(u.Summary.RMS))
		vpeak.Values = append(vpeak.Values, mv(u.Summary.Peak))
		vpp.Values = append(vpp.Values, mv(u.Summary.Vpp))
		current.Values = append(current.Values, amps(u.CurrentA))
		dc.Values = append(dc.Values, mv(u.DCV))
		crest.Values = append(crest.Values, crestValue(u.SeriesV))
		samples.Values = append(samples.Values, fmt.Sprintf("%d", len(u.SeriesV)))
		skipped.Values = append(skipped.Values, fmt.Sprintf("%d", len(u.Log.Skipped)))
		if u.TemperatureC != nil {
			hasTemp = true
			temp.Values = append(temp.Values, fmt.Sprintf("%.2f", *u.TemperatureC))
		} else {
			temp.Values = append(temp.Values, "-")
		}
	}
	rows := []Row{vrms, vpeak, vpp, current, dc, crest}
	if hasTemp {
		rows = append(rows, temp)
	}
	return append(rows, samples, skipped)
}

func crestValue(v []float64) string {
	crest, err := metrics.CrestFactor(v)
	if err != nil {
		return "-"
	}
	return fmt.Sprintf("%.3f", crest)
}

// Sparkline renders a single-line ASCII sparkline for the values.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	minVal, maxVal := floats.Min(values), floats.Max(values)
	if math.Abs(maxVal-minVal) < 1e-12 {
		return strings.Repeat(string(sparkChars[len(sparkChars)/2]), len(values))
	}
	var b strings.Builder
	for _, v := range values {
		pos := (v - minVal) / (maxVal - minVal)
		idx := int(math.Round(pos * float64(len(sparkChars)-1)))
		if idx < 0 {
			idx = 0
		}
		if idx >= len(sparkChars) {
			idx = len(sparkChars) - 1
		}
		b.WriteByte(sparkChars[idx])
	}
	return b.String()
}

// SparklineWidth condenses values to width columns before drawing them.
func SparklineWidth(values []float64, width int) string {
	return Sparkline(condense(values, width))
}

// RenderSummary prints the metrics table of a report.
func RenderSummary(w io.Writer, rep Report) error {
	if _, err := fmt.Fprintf(w, "%s\n", rep.Name); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Reference: %s\n", generator.Describe(rep.Reference.Params)); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Window: %.3f .. %.3f ms\n", float64(rep.WindowStartUs)/1000, float64(rep.WindowEndUs)/1000); err != nil {
		return err
	}

	rows := MetricsRows(rep)
	tableRows := make([][]string, 0, len(rows))
	for _, r := range rows {
		tableRows = append(tableRows, append([]string{r.Label}, r.Values...))
	}
	tb := table{headers: MetricsHeaders(rep), rows: tableRows, rightFrom: 1}
	for _, line := range tb.lines() {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	for _, u := range rep.Units {
		for _, skip := range u.Log.Skipped {
			if _, err := fmt.Fprintf(w, "%s skipped %v\n", u.Unit.Model, &skip); err != nil {
				return err
			}
		}
	}
	if _, err := fmt.Fprintln(w, ""); err != nil {
		return err
	}
	return nil
}

// RenderWaveforms plots the reference and both measured series in mV
// against time in ms.
func RenderWaveforms(w io.Writer, rep Report, totalWidth, height int, useColor bool) error {
	series := []Series{{Name: "Reference", X: rep.ReferenceTimesMs, Y: scale(rep.Reference.V, 1e3)}}
	for _, u := range rep.Units {
		series = append(series, Series{Name: u.Unit.Model, X: u.TimesMs, Y: scale(u.SeriesV, 1e3)})
	}
	p := Plot{Title: fmt.Sprintf("%s (mV vs ms)", rep.Name), Height: height, Color: useColor}
	if totalWidth > 0 {
		p.Width = PlotWidthFor(totalWidth)
	}
	return p.Render(w, series...)
}

func scale(values []float64, factor float64) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = v * factor
	}
	return out
}
