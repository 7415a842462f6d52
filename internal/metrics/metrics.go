// Package metrics computes signal-quality figures over voltage series.
package metrics

import (
	"errors"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/verte-zerg/adccmp/internal/model"
)

var (
	// ErrEmptySeries reports a metric requested over zero samples.
	ErrEmptySeries = errors.New("empty series")
	// ErrInvalidSensitivity reports a zero or non-finite sensor sensitivity.
	ErrInvalidSensitivity = errors.New("sensitivity must be finite and non-zero")
)

// DefaultCTFullScaleV is the secondary voltage of a 0.333 V current transformer
// at rated primary current.
const DefaultCTFullScaleV = 0.333

// RMS returns the root-mean-square of samples.
func RMS(samples []float64) (float64, error) {
	if len(samples) == 0 {
		return 0, ErrEmptySeries
	}
	return math.Sqrt(floats.Dot(samples, samples) / float64(len(samples))), nil
}

// Peak returns the largest absolute sample.
func Peak(samples []float64) (float64, error) {
	if len(samples) == 0 {
		return 0, ErrEmptySeries
	}
	return math.Max(math.Abs(floats.Max(samples)), math.Abs(floats.Min(samples))), nil
}

// Vpp returns max minus min.
func Vpp(samples []float64) (float64, error) {
	if len(samples) == 0 {
		return 0, ErrEmptySeries
	}
	return floats.Max(samples) - floats.Min(samples), nil
}

// Mean returns the DC component of samples.
func Mean(samples []float64) (float64, error) {
	if len(samples) == 0 {
		return 0, ErrEmptySeries
	}
	return stat.Mean(samples, nil), nil
}

// RemoveDC returns a copy of samples with the mean subtracted.
func RemoveDC(samples []float64) ([]float64, error) {
	mean, err := Mean(samples)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(samples))
	copy(out, samples)
	floats.AddConst(-mean, out)
	return out, nil
}

// CrestFactor returns peak / RMS, or 0 for an all-zero series.
func CrestFactor(samples []float64) (float64, error) {
	rms, err := RMS(samples)
	if err != nil {
		return 0, err
	}
	if rms == 0 {
		return 0, nil
	}
	peak, err := Peak(samples)
	if err != nil {
		return 0, err
	}
	return peak / rms, nil
}

// PercentilePeak returns the p-th percentile of |x|, discarding spurious
// spikes above it. p outside (0, 100) returns the exact peak.
func PercentilePeak(samples []float64, p float64) (float64, error) {
	if len(samples) == 0 {
		return 0, ErrEmptySeries
	}
	if p <= 0 || p >= 100 {
		return Peak(samples)
	}
	abs := make([]float64, len(samples))
	for i, v := range samples {
		abs[i] = math.Abs(v)
	}
	sort.Float64s(abs)
	return percentile(abs, p), nil
}

// PercentileVpp returns the span between the p-th and (100-p)-th
// percentiles. p outside (50, 100) returns the exact peak-to-peak value.
func PercentileVpp(samples []float64, p float64) (float64, error) {
	if len(samples) == 0 {
		return 0, ErrEmptySeries
	}
	if p <= 50 || p >= 100 {
		return Vpp(samples)
	}
	sorted := make([]float64, len(samples))
	copy(sorted, samples)
	sort.Float64s(sorted)
	return percentile(sorted, p) - percentile(sorted, 100-p), nil
}

// percentile interpolates linearly between the closest ranks of an
// ascending slice at h = (n-1)*p/100, numpy's default convention.
func percentile(sorted []float64, p float64) float64 {
	last := len(sorted) - 1
	h := float64(last) * p / 100
	lo := math.Floor(h)
	i := int(lo)
	if i >= last {
		return sorted[last]
	}
	if i < 0 {
		return sorted[0]
	}
	return sorted[i] + (h-lo)*(sorted[i+1]-sorted[i])
}

// ThermocoupleVoltageToTemperature maps a thermocouple voltage linearly:
// temperature = voltage / sensitivity + offset.
func ThermocoupleVoltageToTemperature(voltage, sensitivity, offset float64) (float64, error) {
	if sensitivity == 0 || math.IsNaN(sensitivity) || math.IsInf(sensitivity, 0) {
		return 0, ErrInvalidSensitivity
	}
	return voltage/sensitivity + offset, nil
}

// CurrentFromVrms converts a CT secondary RMS voltage into primary current.
// iPrimary is the rated primary current producing fullScaleV on the secondary.
func CurrentFromVrms(vrms, iPrimary, fullScaleV float64) float64 {
	if fullScaleV <= 0 {
		fullScaleV = DefaultCTFullScaleV
	}
	return vrms * iPrimary / fullScaleV
}

// SummaryOptions selects how Summarize treats the series.
type SummaryOptions struct {
	RemoveDC bool
	// PeakPercentile applies to Peak and Vpp. 0 or 100 means exact extremes.
	PeakPercentile float64
}

// Summarize computes RMS, peak and peak-to-peak in one call.
func Summarize(samples []float64, opts SummaryOptions) (model.Summary, error) {
	if len(samples) == 0 {
		return model.Summary{}, ErrEmptySeries
	}
	series := samples
	if opts.RemoveDC {
		ac, err := RemoveDC(samples)
		if err != nil {
			return model.Summary{}, err
		}
		series = ac
	}
	rms, err := RMS(series)
	if err != nil {
		return model.Summary{}, err
	}
	peak, err := PercentilePeak(series, opts.PeakPercentile)
	if err != nil {
		return model.Summary{}, err
	}
	vpp, err := PercentileVpp(series, opts.PeakPercentile)
	if err != nil {
		return model.Summary{}, err
	}
	return model.Summary{RMS: rms, Peak: peak, Vpp: vpp}, nil
}
