// Package stats builds comparison reports and renders them as text.
package stats

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/verte-zerg/adccmp/internal/generator"
	"github.com/verte-zerg/adccmp/internal/logfile"
	"github.com/verte-zerg/adccmp/internal/metrics"
	"github.com/verte-zerg/adccmp/internal/model"
)

var (
	// ErrLogNotFound reports that one of the two logs of a signal is missing.
	ErrLogNotFound = errors.New("log not found")
	// ErrNoOverlap reports two logs whose time ranges do not intersect.
	ErrNoOverlap = errors.New("logs do not overlap in time")
)

const fallbackDurationS = 1.0

// UnitReport holds one converter's samples and figures.
type UnitReport struct {
	Unit model.ADCUnit
	Log  *model.SignalLog
	// TimesMs and SeriesV are the plotted series; SeriesV has DC removed
	// when the config asks for it.
	TimesMs []float64
	SeriesV []float64
	Summary model.Summary
	DCV     float64
	// CurrentA is the CT primary current implied by Summary.RMS.
	CurrentA float64
	// TemperatureC is set when a thermocouple sensitivity is configured.
	TemperatureC *float64
	// Trimmed counts samples dropped by alignment.
	Trimmed int
}

// Report is everything needed to render one signal comparison.
type Report struct {
	Name      string
	Reference generator.Waveform
	// ReferenceTimesMs is Reference.T shifted onto the logs' time axis.
	ReferenceTimesMs []float64
	ReferenceSummary model.Summary
	ReferenceCurrent float64
	Units            []UnitReport
	IPrimary         float64
	WindowStartUs    int64
	WindowEndUs      int64
}

// Unit returns the report of the named converter model.
func (r Report) Unit(modelName string) (UnitReport, bool) {
	for _, u := range r.Units {
		if u.Unit.Model == modelName {
			return u, true
		}
	}
	return UnitReport{}, false
}

// BuildReport loads both logs of a signal, aligns them and computes every
// figure the renderers need.
func BuildReport(name string, cfg model.RenderConfig) (Report, error) {
	logger := logrus.WithField("tag", "Report").WithField("signal", name)

	if err := logfile.CheckName(name); err != nil {
		return Report{}, err
	}
	paths := make([]string, len(model.Units))
	for i, unit := range model.Units {
		path, err := logfile.FindLog(cfg.LogsDir, name, unit)
		if err != nil {
			if errors.Is(err, logfile.ErrNotFound) {
				return Report{}, fmt.Errorf("%w: %s log for %s (%s)", ErrLogNotFound, unit.Model, name, logfile.PairPath(cfg.LogsDir, name, unit))
			}
			return Report{}, err
		}
		paths[i] = path
	}

	logs := make([]*model.SignalLog, len(model.Units))
	for i := range model.Units {
		log, err := logfile.Load(paths[i], cfg.Reader)
		if err != nil {
			if errors.Is(err, logfile.ErrNotFound) {
				return Report{}, fmt.Errorf("%w: %v", ErrLogNotFound, err)
			}
			return Report{}, err
		}
		logs[i] = log
	}

	start, end, trimmed, err := align(logs, cfg.Align)
	if err != nil {
		return Report{}, fmt.Errorf("%s: %w", name, err)
	}
	for i, n := range trimmed {
		if n > 0 {
			logger.Debugf("trimmed %d %s samples outside the shared window", n, logs[i].Unit.Model)
		}
	}

	params, err := referenceParams(name, cfg)
	if err != nil {
		return Report{}, err
	}
	duration := float64(end-start) / 1e6
	if duration <= 0 {
		duration = fallbackDurationS
	}
	ref, err := generator.New(cfg.ReferencePoints).Generate(params, duration)
	if err != nil {
		return Report{}, fmt.Errorf("reference for %s: %w", name, err)
	}

	opts := metrics.SummaryOptions{RemoveDC: cfg.RemoveDC, PeakPercentile: cfg.PeakPercentile}
	refSummary, err := metrics.Summarize(ref.V, opts)
	if err != nil {
		return Report{}, fmt.Errorf("reference for %s: %w", name, err)
	}
	refTimes := make([]float64, len(ref.T))
	for i, t := range ref.T {
		refTimes[i] = float64(start)/1000 + t*1000
	}

	rep := Report{
		Name:             name,
		Reference:        ref,
		ReferenceTimesMs: refTimes,
		ReferenceSummary: refSummary,
		ReferenceCurrent: metrics.CurrentFromVrms(params.VrmsV, cfg.IPrimary, cfg.CTFullScaleV),
		IPrimary:         cfg.IPrimary,
		WindowStartUs:    start,
		WindowEndUs:      end,
	}
	for i, log := range logs {
		unitRep, err := buildUnit(log, cfg, opts)
		if err != nil {
			return Report{}, fmt.Errorf("%s %s: %w", name, log.Unit.Model, err)
		}
		unitRep.Trimmed = trimmed[i]
		rep.Units = append(rep.Units, unitRep)
	}
	return rep, nil
}

func buildUnit(log *model.SignalLog, cfg model.RenderConfig, opts metrics.SummaryOptions) (UnitReport, error) {
	volts := log.Voltages()
	summary, err := metrics.Summarize(volts, opts)
	if err != nil {
		return UnitReport{}, err
	}
	dc, err := metrics.Mean(volts)
	if err != nil {
		return UnitReport{}, err
	}
	series := volts
	if cfg.RemoveDC {
		if series, err = metrics.RemoveDC(volts); err != nil {
			return UnitReport{}, err
		}
	}
	out := UnitReport{
		Unit:     log.Unit,
		Log:      log,
		TimesMs:  log.TimesMs(),
		SeriesV:  series,
		Summary:  summary,
		DCV:      dc,
		CurrentA: metrics.CurrentFromVrms(summary.RMS, cfg.IPrimary, cfg.CTFullScaleV),
	}
	if tc := cfg.Thermocouple; tc.Sensitivity != 0 {
		temp, err := metrics.ThermocoupleVoltageToTemperature(dc, tc.Sensitivity, tc.Offset)
		if err != nil {
			return UnitReport{}, err
		}
		out.TemperatureC = &temp
	}
	return out, nil
}

func referenceParams(name string, cfg model.RenderConfig) (model.ReferenceParams, error) {
	if cfg.Reference != nil {
		if err := generator.Validate(*cfg.Reference); err != nil {
			return model.ReferenceParams{}, err
		}
		return *cfg.Reference, nil
	}
	return generator.ParseName(name)
}

// align trims logs in place to the policy's window and returns it together
// with the number of samples dropped per log. AlignNone keeps every sample
// and reports the union of both spans.
func align(logs []*model.SignalLog, policy string) (int64, int64, []int, error) {
	switch policy {
	case "", model.AlignOverlap, model.AlignNone:
	default:
		return 0, 0, nil, fmt.Errorf("unknown alignment policy %q", policy)
	}

	trimmed := make([]int, len(logs))
	var start, end int64
	for i, log := range logs {
		first, last, ok := log.Span()
		if !ok {
			return 0, 0, nil, fmt.Errorf("%s: %w", log.Path, logfile.ErrNoSamples)
		}
		switch {
		case i == 0:
			start, end = first, last
		case policy == model.AlignNone:
			start, end = min(start, first), max(end, last)
		default:
			start, end = max(start, first), min(end, last)
		}
	}
	if policy == model.AlignNone {
		return start, end, trimmed, nil
	}
	if end < start {
		return 0, 0, nil, ErrNoOverlap
	}

	for i, log := range logs {
		kept := make([]model.Sample, 0, len(log.Samples))
		for _, s := range log.Samples {
			if s.TimestampUs >= start && s.TimestampUs <= end {
				kept = append(kept, s)
			}
		}
		if len(kept) == 0 {
			return 0, 0, nil, ErrNoOverlap
		}
		trimmed[i] = len(log.Samples) - len(kept)
		log.Samples = kept
	}
	return start, end, trimmed, nil
}
