package stats

import (
	"bytes"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/verte-zerg/adccmp/internal/config"
	"github.com/verte-zerg/adccmp/internal/generator"
	"github.com/verte-zerg/adccmp/internal/logfile"
	"github.com/verte-zerg/adccmp/internal/logfile/logfiletest"
	"github.com/verte-zerg/adccmp/internal/model"
)

const signal = "sine_60hz_33.85mVrms"

func testConfig(dir string) model.RenderConfig {
	cfg := config.Defaults()
	cfg.LogsDir = dir
	cfg.OutDir = dir
	cfg.ReferencePoints = 1000
	cfg.PeakPercentile = 0
	return cfg
}

func TestBuildReport(t *testing.T) {
	dir := t.TempDir()
	logfiletest.WritePair(t, dir, signal, logfiletest.DefaultSine)

	report, err := BuildReport(signal, testConfig(dir))
	if err != nil {
		t.Fatalf("build report: %v", err)
	}
	if len(report.Units) != 2 {
		t.Fatalf("expected 2 units, got %d", len(report.Units))
	}
	if report.Reference.Params.Type != generator.TypeSine {
		t.Fatalf("unexpected reference: %+v", report.Reference.Params)
	}
	if len(report.ReferenceTimesMs) != 1000 {
		t.Fatalf("expected 1000 reference points, got %d", len(report.ReferenceTimesMs))
	}
	for _, u := range report.Units {
		if math.Abs(u.Summary.RMS-0.03385) > 1e-3 {
			t.Fatalf("%s rms %.6f far from nominal", u.Unit.Model, u.Summary.RMS)
		}
		if math.Abs(u.DCV-1.65) > 2e-3 {
			t.Fatalf("%s dc %.6f far from bias", u.Unit.Model, u.DCV)
		}
		want := u.Summary.RMS * 100 / 0.333
		if math.Abs(u.CurrentA-want) > 1e-9 {
			t.Fatalf("%s current %.6f, want %.6f", u.Unit.Model, u.CurrentA, want)
		}
		if u.TemperatureC != nil {
			t.Fatalf("temperature must be unset without a sensitivity")
		}
	}
	fast, ok := report.Unit("ADS1015")
	// The ADS1115 log ends a few ms earlier, so the overlap drops the
	// ADS1015 tail.
	if !ok || len(fast.SeriesV)+fast.Trimmed != 330 || fast.Trimmed == 0 {
		t.Fatalf("expected 330 ADS1015 samples with a trimmed tail, got %d kept %d trimmed", len(fast.SeriesV), fast.Trimmed)
	}
	slow, ok := report.Unit("ADS1115")
	if !ok || len(slow.SeriesV) != 86 || slow.Trimmed != 0 {
		t.Fatalf("expected 86 untrimmed ADS1115 samples, got %d", len(slow.SeriesV))
	}
	if math.Abs(report.ReferenceCurrent-0.03385*100/0.333) > 1e-9 {
		t.Fatalf("unexpected reference current %.6f", report.ReferenceCurrent)
	}
}

func TestBuildReportMissingLog(t *testing.T) {
	dir := t.TempDir()
	logfiletest.WriteLog(t, dir, signal, model.ADS1015, logfiletest.DefaultSine)

	_, err := BuildReport(signal, testConfig(dir))
	if !errors.Is(err, ErrLogNotFound) {
		t.Fatalf("expected ErrLogNotFound, got %v", err)
	}
	if !strings.Contains(err.Error(), "ADS1115") {
		t.Fatalf("error should name the missing unit: %v", err)
	}
}

func TestBuildReportUppercaseSuffix(t *testing.T) {
	dir := t.TempDir()
	logfiletest.WritePair(t, dir, signal, logfiletest.DefaultSine)
	for _, unit := range model.Units {
		from := logfile.PairPath(dir, signal, unit)
		to := filepath.Join(dir, signal+strings.ToUpper(strings.TrimSuffix(unit.Suffix, ".log"))+".log")
		if err := os.Rename(from, to); err != nil {
			t.Fatalf("rename: %v", err)
		}
	}

	report, err := BuildReport(signal, testConfig(dir))
	if err != nil {
		t.Fatalf("build report: %v", err)
	}
	if len(report.Units) != 2 {
		t.Fatalf("expected 2 units, got %d", len(report.Units))
	}
	if !strings.HasSuffix(report.Units[0].Log.Path, "_ADS1015.log") {
		t.Fatalf("expected the uppercase file to be loaded, got %s", report.Units[0].Log.Path)
	}
}

func TestBuildReportRejectsPathNames(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"../" + signal, "sub/" + signal, `sub\` + signal, "..", ""} {
		if _, err := BuildReport(name, testConfig(dir)); !errors.Is(err, logfile.ErrBadName) {
			t.Fatalf("%q: expected ErrBadName, got %v", name, err)
		}
	}
}

func TestBuildReportAlignment(t *testing.T) {
	dir := t.TempDir()
	logfiletest.WriteLog(t, dir, signal, model.ADS1015, logfiletest.DefaultSine)
	late := logfiletest.DefaultSine
	late.StartUs = 50000
	logfiletest.WriteLog(t, dir, signal, model.ADS1115, late)

	report, err := BuildReport(signal, testConfig(dir))
	if err != nil {
		t.Fatalf("build report: %v", err)
	}
	if report.WindowStartUs != 50000 {
		t.Fatalf("expected window to start at 50000 us, got %d", report.WindowStartUs)
	}
	fast, _ := report.Unit("ADS1015")
	if fast.Trimmed == 0 {
		t.Fatalf("expected ADS1015 samples before the window to be trimmed")
	}
	if fast.Log.Samples[0].TimestampUs < 50000 {
		t.Fatalf("sample before window survived: %d", fast.Log.Samples[0].TimestampUs)
	}
	if report.ReferenceTimesMs[0] != 50 {
		t.Fatalf("reference should start at the window, got %v ms", report.ReferenceTimesMs[0])
	}

	cfg := testConfig(dir)
	cfg.Align = model.AlignNone
	whole, err := BuildReport(signal, cfg)
	if err != nil {
		t.Fatalf("build report: %v", err)
	}
	fast, _ = whole.Unit("ADS1015")
	if fast.Trimmed != 0 || len(fast.SeriesV) != 330 {
		t.Fatalf("expected untouched ADS1015 log, trimmed=%d len=%d", fast.Trimmed, len(fast.SeriesV))
	}
	if whole.WindowStartUs != 0 {
		t.Fatalf("expected union window from 0, got %d", whole.WindowStartUs)
	}
}

func TestBuildReportNoOverlap(t *testing.T) {
	dir := t.TempDir()
	logfiletest.WriteLog(t, dir, signal, model.ADS1015, logfiletest.DefaultSine)
	later := logfiletest.DefaultSine
	later.StartUs = 5_000_000
	logfiletest.WriteLog(t, dir, signal, model.ADS1115, later)

	if _, err := BuildReport(signal, testConfig(dir)); !errors.Is(err, ErrNoOverlap) {
		t.Fatalf("expected ErrNoOverlap, got %v", err)
	}

	cfg := testConfig(dir)
	cfg.Align = "stretch"
	if _, err := BuildReport(signal, cfg); err == nil {
		t.Fatalf("expected unknown alignment policy to fail")
	}
}

func TestBuildReportReferenceOverride(t *testing.T) {
	dir := t.TempDir()
	logfiletest.WritePair(t, dir, "capture_01", logfiletest.DefaultSine)

	if _, err := BuildReport("capture_01", testConfig(dir)); !errors.Is(err, generator.ErrUnrecognizedName) {
		t.Fatalf("expected ErrUnrecognizedName, got %v", err)
	}

	cfg := testConfig(dir)
	cfg.Reference = &model.ReferenceParams{Type: generator.TypeSine, FreqHz: 60, VrmsV: 0.03385}
	report, err := BuildReport("capture_01", cfg)
	if err != nil {
		t.Fatalf("build report: %v", err)
	}
	if report.Reference.Params.FreqHz != 60 {
		t.Fatalf("override not applied: %+v", report.Reference.Params)
	}
}

func TestBuildReportThermocouple(t *testing.T) {
	dir := t.TempDir()
	logfiletest.WritePair(t, dir, signal, logfiletest.DefaultSine)
	cfg := testConfig(dir)
	cfg.Thermocouple = model.ThermocoupleConfig{Sensitivity: 0.041}

	report, err := BuildReport(signal, cfg)
	if err != nil {
		t.Fatalf("build report: %v", err)
	}
	for _, u := range report.Units {
		if u.TemperatureC == nil {
			t.Fatalf("%s: expected a temperature", u.Unit.Model)
		}
		if want := u.DCV / 0.041; math.Abs(*u.TemperatureC-want) > 1e-9 {
			t.Fatalf("%s: temperature %.4f, want %.4f", u.Unit.Model, *u.TemperatureC, want)
		}
	}

	var buf bytes.Buffer
	if err := RenderSummary(&buf, report); err != nil {
		t.Fatalf("render summary: %v", err)
	}
	if !strings.Contains(buf.String(), "Temperature (C)") {
		t.Fatalf("expected temperature row:\n%s", buf.String())
	}
}

func TestMetricsRowsCrestFactor(t *testing.T) {
	dir := t.TempDir()
	logfiletest.WritePair(t, dir, signal, logfiletest.DefaultSine)
	report, err := BuildReport(signal, testConfig(dir))
	if err != nil {
		t.Fatalf("build report: %v", err)
	}

	var crest *Row
	rows := MetricsRows(report)
	for i := range rows {
		if rows[i].Label == "Crest factor" {
			crest = &rows[i]
		}
	}
	if crest == nil {
		t.Fatalf("expected a crest factor row")
	}
	if len(crest.Values) != 3 {
		t.Fatalf("expected reference plus two units, got %v", crest.Values)
	}
	for _, v := range crest.Values {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			t.Fatalf("crest factor %q: %v", v, err)
		}
		if math.Abs(f-math.Sqrt2) > 0.1 {
			t.Fatalf("expected a sine crest factor near %.3f, got %.3f", math.Sqrt2, f)
		}
	}
}

func TestRenderSummaryAndWaveforms(t *testing.T) {
	dir := t.TempDir()
	logfiletest.WritePair(t, dir, signal, logfiletest.DefaultSine)
	report, err := BuildReport(signal, testConfig(dir))
	if err != nil {
		t.Fatalf("build report: %v", err)
	}

	var buf bytes.Buffer
	if err := RenderSummary(&buf, report); err != nil {
		t.Fatalf("render summary: %v", err)
	}
	out := buf.String()
	for _, want := range []string{signal, "sine 60 Hz 33.850 mVrms", "Vrms (mV)", "Vpeak (mV)", "Vpp (mV)", "ADS1015", "ADS1115", "33.850"} {
		if !strings.Contains(out, want) {
			t.Fatalf("summary missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Temperature") {
		t.Fatalf("temperature row must be omitted without a sensitivity")
	}

	buf.Reset()
	if err := RenderWaveforms(&buf, report, 80, 8, false); err != nil {
		t.Fatalf("render waveforms: %v", err)
	}
	if !strings.Contains(buf.String(), "Legend:") || !strings.Contains(buf.String(), "Reference") {
		t.Fatalf("unexpected waveform output:\n%s", buf.String())
	}
}

func TestSparklineWidth(t *testing.T) {
	values := make([]float64, 200)
	for i := range values {
		values[i] = math.Sin(float64(i) / 10)
	}
	if got := SparklineWidth(values, 20); len(got) != 20 {
		t.Fatalf("expected 20 columns, got %d", len(got))
	}
	if got := Sparkline([]float64{2, 2, 2}); got != "+++" {
		t.Fatalf("flat series should render mid level, got %q", got)
	}
}
