// Package model defines shared data structures.
package model

import "fmt"

// Sample is one acquisition row of a log file.
type Sample struct {
	Index       int
	TimestampUs int64
	Raw         int
	VoltageV    float64
}

// ADCUnit describes one of the compared converters.
type ADCUnit struct {
	Model         string
	Bits          int
	SampleRateSPS float64
	PGARangeV     float64
	SingleEnded   bool
	// Suffix is appended to the signal name to form the log file name.
	Suffix string
}

// ADS1015 is the 12-bit unit.
var ADS1015 = ADCUnit{
	Model:         "ADS1015",
	Bits:          12,
	SampleRateSPS: 3300,
	PGARangeV:     4.096,
	SingleEnded:   true,
	Suffix:        "_ads1015.log",
}

// ADS1115 is the 16-bit unit.
var ADS1115 = ADCUnit{
	Model:         "ADS1115",
	Bits:          16,
	SampleRateSPS: 860,
	PGARangeV:     4.096,
	SingleEnded:   true,
	Suffix:        "_ads1115.log",
}

// Units lists the compared converters in display order.
var Units = []ADCUnit{ADS1015, ADS1115}

// LSB returns the voltage of one converter code in single-ended mode.
func (u ADCUnit) LSB() float64 {
	if u.Bits <= 1 {
		return 0
	}
	return u.PGARangeV / float64(int(1)<<(u.Bits-1))
}

// RowError records a log row that could not be parsed.
type RowError struct {
	Line int
	Err  error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *RowError) Unwrap() error {
	return e.Err
}

// SignalLog is a parsed acquisition log plus the unit that produced it.
type SignalLog struct {
	Name    string
	Unit    ADCUnit
	Path    string
	Samples []Sample
	Skipped []RowError
}

// Voltages returns the voltage column in acquisition order.
func (l *SignalLog) Voltages() []float64 {
	out := make([]float64, len(l.Samples))
	for i, s := range l.Samples {
		out[i] = s.VoltageV
	}
	return out
}

// TimesMs returns the timestamp column converted to milliseconds.
func (l *SignalLog) TimesMs() []float64 {
	out := make([]float64, len(l.Samples))
	for i, s := range l.Samples {
		out[i] = float64(s.TimestampUs) / 1000.0
	}
	return out
}

// NonMonotonic counts timestamp steps that do not strictly increase.
func (l *SignalLog) NonMonotonic() int {
	count := 0
	for i := 1; i < len(l.Samples); i++ {
		if l.Samples[i].TimestampUs <= l.Samples[i-1].TimestampUs {
			count++
		}
	}
	return count
}

// Span returns the first and last timestamps. ok is false for an empty log.
func (l *SignalLog) Span() (first, last int64, ok bool) {
	if len(l.Samples) == 0 {
		return 0, 0, false
	}
	return l.Samples[0].TimestampUs, l.Samples[len(l.Samples)-1].TimestampUs, true
}

// Summary holds the signal-quality metrics of one series.
type Summary struct {
	RMS  float64 `yaml:"rms"`
	Peak float64 `yaml:"peak"`
	Vpp  float64 `yaml:"vpp"`
}

// ReaderOptions controls log parsing.
type ReaderOptions struct {
	// Strict fails on the first malformed row instead of skipping it.
	Strict bool
}

// Alignment policies for two logs covering different time ranges.
const (
	AlignOverlap = "overlap"
	AlignNone    = "none"
)

// ReferenceParams describes an ideal reference waveform.
type ReferenceParams struct {
	Type      string
	FreqHz    float64
	VrmsV     float64
	DutyPct   float64
	ModFreqHz float64
}

// ThermocoupleConfig holds the linear thermocouple conversion constants.
type ThermocoupleConfig struct {
	// Sensitivity in volts per degree. Zero disables the conversion.
	Sensitivity float64
	Offset      float64
}

// RenderConfig defines everything needed to build and render one comparison.
type RenderConfig struct {
	LogsDir         string
	OutDir          string
	IPrimary        float64
	CTFullScaleV    float64
	PeakPercentile  float64
	RemoveDC        bool
	Align           string
	ReferencePoints int
	Snapshot        bool
	Reader          ReaderOptions
	Thermocouple    ThermocoupleConfig
	// Reference overrides the waveform parsed from the signal name.
	Reference *ReferenceParams
}
