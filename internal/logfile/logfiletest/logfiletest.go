// Package logfiletest writes synthetic acquisition logs for tests.
package logfiletest

import (
	"math"
	"os"
	"testing"

	"github.com/verte-zerg/adccmp/internal/logfile"
	"github.com/verte-zerg/adccmp/internal/model"
)

// Sine describes a synthetic acquisition: a DC-biased sine sampled at the
// unit's nominal rate and quantized to its LSB.
type Sine struct {
	FreqHz    float64
	VrmsV     float64
	DCV       float64
	DurationS float64
	// StartUs offsets every timestamp.
	StartUs int64
}

// DefaultSine is a 60 Hz, 33.85 mVrms tone on a 1.65 V bias lasting 100 ms.
var DefaultSine = Sine{FreqHz: 60, VrmsV: 0.03385, DCV: 1.65, DurationS: 0.1}

// Samples synthesizes the rows the given unit would log for s.
func Samples(unit model.ADCUnit, s Sine) []model.Sample {
	n := int(math.Round(s.DurationS * unit.SampleRateSPS))
	lsb := unit.LSB()
	amp := s.VrmsV * math.Sqrt2
	out := make([]model.Sample, n)
	for i := range out {
		t := float64(i) / unit.SampleRateSPS
		v := s.DCV + amp*math.Sin(2*math.Pi*s.FreqHz*t)
		raw := int(math.Round(v / lsb))
		out[i] = model.Sample{
			Index:       i,
			TimestampUs: s.StartUs + int64(math.Round(t*1e6)),
			Raw:         raw,
			VoltageV:    float64(raw) * lsb,
		}
	}
	return out
}

// WriteLog writes one unit's log for name into dir and returns its path.
func WriteLog(t testing.TB, dir, name string, unit model.ADCUnit, s Sine) string {
	t.Helper()
	path := logfile.PairPath(dir, name, unit)
	file, err := os.Create(path)
	if err != nil {
		t.Fatalf("create log: %v", err)
	}
	defer file.Close()
	if err := logfile.Write(file, Samples(unit, s)); err != nil {
		t.Fatalf("write log: %v", err)
	}
	return path
}

// WritePair writes both units' logs for name.
func WritePair(t testing.TB, dir, name string, s Sine) {
	t.Helper()
	for _, unit := range model.Units {
		WriteLog(t, dir, name, unit, s)
	}
}
