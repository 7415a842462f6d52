// Package render turns comparison reports into chart files.
package render

import (
	"bytes"
	"errors"
	"fmt"
	"hash/fnv"
	"html/template"
	"io"
	"math"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/verte-zerg/adccmp/internal/generator"
	"github.com/verte-zerg/adccmp/internal/stats"
)

// ErrRender matches every *Error.
var ErrRender = errors.New("render failed")

// Error reports a chart that could not be produced for a signal.
type Error struct {
	Signal string
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("render %s: %v", e.Signal, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrRender) hold for any *Error.
func (e *Error) Is(target error) bool {
	return target == ErrRender
}

type seriesStyle struct {
	color string
	width float32
	dash  string
}

var (
	referenceStyle = seriesStyle{color: "#808080", width: 1.5, dash: "dashed"}
	unitStyles     = []seriesStyle{
		{color: "#1f77b4", width: 1, dash: "solid"},
		{color: "#ff7f0e", width: 1, dash: "solid"},
	}
)

var tableTemplate = template.Must(template.New("metrics").Parse(`
<div class="metrics" style="max-width:760px;margin:20px auto;font-family:sans-serif;">
  <h3 style="text-align:center;">Metrics ({{.Reference}}, CT primary {{printf "%g" .IPrimary}} A)</h3>
  <table style="width:100%;border-collapse:collapse;text-align:center;">
    <thead>
      <tr style="background:#f0f0f0;">{{range .Headers}}
        <th style="padding:8px;border:1px solid #ccc;">{{.}}</th>{{end}}
      </tr>
    </thead>
    <tbody>{{range .Rows}}
      <tr>
        <td style="padding:8px;border:1px solid #ccc;font-weight:bold;">{{.Label}}</td>{{range .Values}}
        <td style="padding:8px;border:1px solid #ccc;">{{.}}</td>{{end}}
      </tr>{{end}}
    </tbody>
  </table>
</div>
`))

type tableData struct {
	Reference string
	IPrimary  float64
	Headers   []string
	Rows      []stats.Row
}

// HTML writes one self-contained page: the reference waveform and both
// measured series in mV against ms, followed by the metrics table.
func HTML(w io.Writer, rep stats.Report) error {
	if err := validate(rep); err != nil {
		return &Error{Signal: rep.Name, Err: err}
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: "ADC comparison: " + rep.Name,
			Width:     "1200px",
			Height:    "600px",
			ChartID:   chartID(rep.Name),
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    "ADC comparison: " + rep.Name,
			Subtitle: "Reference: " + generator.Describe(rep.Reference.Params),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Top: "bottom"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Time (ms)", Type: "value"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Voltage (mV)", Type: "value"}),
		charts.WithDataZoomOpts(
			opts.DataZoom{Type: "inside"},
			opts.DataZoom{Type: "slider"},
		),
	)

	addSeries(line, "Reference", rep.ReferenceTimesMs, rep.Reference.V, referenceStyle)
	for i, u := range rep.Units {
		addSeries(line, u.Unit.Model, u.TimesMs, u.SeriesV, unitStyles[i%len(unitStyles)])
	}

	var chart bytes.Buffer
	if err := line.Render(&chart); err != nil {
		return &Error{Signal: rep.Name, Err: err}
	}

	var table bytes.Buffer
	if err := tableTemplate.Execute(&table, tableData{
		Reference: generator.Describe(rep.Reference.Params),
		IPrimary:  rep.IPrimary,
		Headers:   stats.MetricsHeaders(rep),
		Rows:      stats.MetricsRows(rep),
	}); err != nil {
		return &Error{Signal: rep.Name, Err: err}
	}

	page := chart.Bytes()
	if idx := bytes.LastIndex(page, []byte("</body>")); idx >= 0 {
		page = append(page[:idx:idx], append(table.Bytes(), page[idx:]...)...)
	} else {
		page = append(page, table.Bytes()...)
	}
	if _, err := w.Write(page); err != nil {
		return fmt.Errorf("failed to write html: %w", err)
	}
	return nil
}

func addSeries(line *charts.Line, name string, timesMs, volts []float64, style seriesStyle) {
	data := make([]opts.LineData, len(volts))
	for i := range volts {
		data[i] = opts.LineData{Value: []interface{}{timesMs[i], volts[i] * 1e3}}
	}
	line.AddSeries(name, data,
		charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)}),
		charts.WithLineStyleOpts(opts.LineStyle{Color: style.color, Width: style.width, Type: style.dash}),
	)
}

// chartID keeps re-renders of the same signal byte-identical.
func chartID(name string) string {
	h := fnv.New32a()
	_, _ = h.Write([]byte(name))
	return fmt.Sprintf("adccmp_%08x", h.Sum32())
}

func validate(rep stats.Report) error {
	if len(rep.ReferenceTimesMs) != len(rep.Reference.V) {
		return fmt.Errorf("reference has %d times for %d values", len(rep.ReferenceTimesMs), len(rep.Reference.V))
	}
	if err := finite("Reference time", rep.ReferenceTimesMs); err != nil {
		return err
	}
	if err := finite("Reference", rep.Reference.V); err != nil {
		return err
	}
	for _, u := range rep.Units {
		if len(u.TimesMs) != len(u.SeriesV) {
			return fmt.Errorf("%s has %d times for %d values", u.Unit.Model, len(u.TimesMs), len(u.SeriesV))
		}
		if len(u.SeriesV) == 0 {
			return fmt.Errorf("%s series is empty", u.Unit.Model)
		}
		if err := finite(u.Unit.Model+" time", u.TimesMs); err != nil {
			return err
		}
		if err := finite(u.Unit.Model, u.SeriesV); err != nil {
			return err
		}
		if err := finite(u.Unit.Model+" metrics", []float64{u.Summary.RMS, u.Summary.Peak, u.Summary.Vpp, u.CurrentA}); err != nil {
			return err
		}
	}
	return nil
}

func finite(name string, values []float64) error {
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%s value %d is %v", name, i, v)
		}
	}
	return nil
}
