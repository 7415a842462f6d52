// Package generator builds ideal reference waveforms.
package generator

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/verte-zerg/adccmp/internal/model"
)

// Waveform types understood by the generator.
const (
	TypeSine     = "sine"
	TypeSquare   = "square"
	TypeTriangle = "triangle"
	TypeDimmer   = "dimmer"
	TypeSineMod  = "sine_mod"
)

// DefaultPoints is the reference resolution used when none is configured.
const DefaultPoints = 10000

var (
	// ErrUnrecognizedName reports a signal name that encodes no known waveform.
	ErrUnrecognizedName = errors.New("unrecognized signal name")
	// ErrUnknownType reports an unsupported waveform type.
	ErrUnknownType = errors.New("unknown waveform type")
)

var (
	dimmerName  = regexp.MustCompile(`(?i)^dimmer_(\d+)pct_(\d+)hz_([\d.]+)mVrms`)
	sineModName = regexp.MustCompile(`(?i)^sine_(\d+)hz_mod_(\d+)hz_([\d.]+)mVrms`)
	basicName   = regexp.MustCompile(`(?i)^(sine|square|triangle)_(\d+)hz_([\d.]+)mVrms`)
)

// ParseName extracts the reference waveform encoded in a signal name, e.g.
// sine_60hz_33.85mVrms, dimmer_50pct_60hz_118mVrms or
// sine_60hz_mod_400hz_10.18mVrms.
func ParseName(name string) (model.ReferenceParams, error) {
	if m := dimmerName.FindStringSubmatch(name); m != nil {
		return model.ReferenceParams{
			Type:    TypeDimmer,
			DutyPct: atof(m[1]),
			FreqHz:  atof(m[2]),
			VrmsV:   atof(m[3]) * 1e-3,
		}, nil
	}
	if m := sineModName.FindStringSubmatch(name); m != nil {
		return model.ReferenceParams{
			Type:      TypeSineMod,
			FreqHz:    atof(m[1]),
			ModFreqHz: atof(m[2]),
			VrmsV:     atof(m[3]) * 1e-3,
		}, nil
	}
	if m := basicName.FindStringSubmatch(name); m != nil {
		return model.ReferenceParams{
			Type:   strings.ToLower(m[1]),
			FreqHz: atof(m[2]),
			VrmsV:  atof(m[3]) * 1e-3,
		}, nil
	}
	return model.ReferenceParams{}, fmt.Errorf("%w: %s", ErrUnrecognizedName, name)
}

func atof(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

// Waveform is a sampled reference signal. T is in seconds, V in volts.
type Waveform struct {
	Params model.ReferenceParams
	T      []float64
	V      []float64
}

// Generator produces reference waveforms at a fixed resolution.
type Generator struct {
	points int
}

// New returns a Generator producing points samples per waveform.
func New(points int) *Generator {
	if points <= 0 {
		points = DefaultPoints
	}
	return &Generator{points: points}
}

// Generate samples the waveform over [0, duration) seconds and scales it so
// its RMS equals the nominal Vrms.
func (g *Generator) Generate(p model.ReferenceParams, duration float64) (Waveform, error) {
	if err := Validate(p); err != nil {
		return Waveform{}, err
	}
	if !(duration > 0) || math.IsInf(duration, 0) {
		return Waveform{}, fmt.Errorf("reference duration must be > 0: %v", duration)
	}
	shape := shapeFor(p)

	t := make([]float64, g.points)
	v := make([]float64, g.points)
	var sumSq float64
	for i := range t {
		t[i] = duration * float64(i) / float64(g.points)
		v[i] = shape(t[i])
		sumSq += v[i] * v[i]
	}
	if rms := math.Sqrt(sumSq / float64(g.points)); rms > 0 {
		scale := p.VrmsV / rms
		for i := range v {
			v[i] *= scale
		}
	}
	return Waveform{Params: p, T: t, V: v}, nil
}

// Validate checks that p describes a waveform the generator can produce.
func Validate(p model.ReferenceParams) error {
	switch p.Type {
	case TypeSine, TypeSquare, TypeTriangle:
	case TypeDimmer:
		if p.DutyPct < 0 || p.DutyPct > 100 {
			return fmt.Errorf("dimmer duty must be within 0-100%%: %v", p.DutyPct)
		}
	case TypeSineMod:
		if !(p.ModFreqHz > 0) {
			return fmt.Errorf("modulation frequency must be > 0: %v", p.ModFreqHz)
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownType, p.Type)
	}
	if !(p.FreqHz > 0) || math.IsInf(p.FreqHz, 0) {
		return fmt.Errorf("reference frequency must be > 0: %v", p.FreqHz)
	}
	if !(p.VrmsV >= 0) || math.IsInf(p.VrmsV, 0) {
		return fmt.Errorf("reference Vrms must be >= 0: %v", p.VrmsV)
	}
	return nil
}

// Describe renders p as a short human-readable label.
func Describe(p model.ReferenceParams) string {
	switch p.Type {
	case TypeDimmer:
		return fmt.Sprintf("dimmer %.0f%% %.0f Hz %.3f mVrms", p.DutyPct, p.FreqHz, p.VrmsV*1e3)
	case TypeSineMod:
		return fmt.Sprintf("sine %.0f Hz AM %.0f Hz %.3f mVrms", p.FreqHz, p.ModFreqHz, p.VrmsV*1e3)
	default:
		return fmt.Sprintf("%s %.0f Hz %.3f mVrms", p.Type, p.FreqHz, p.VrmsV*1e3)
	}
}

func shapeFor(p model.ReferenceParams) func(t float64) float64 {
	w := 2 * math.Pi * p.FreqHz
	switch p.Type {
	case TypeSquare:
		return func(t float64) float64 {
			return sign(math.Sin(w * t))
		}
	case TypeTriangle:
		return func(t float64) float64 {
			phase := math.Mod(p.FreqHz*t, 1)
			return 4*math.Abs(phase-0.5) - 1
		}
	case TypeDimmer:
		// Leading-edge TRIAC: each half cycle conducts after the firing angle.
		firing := math.Pi * (1 - p.DutyPct/100)
		return func(t float64) float64 {
			if math.Mod(w*t, math.Pi) >= firing {
				return math.Sin(w * t)
			}
			return 0
		}
	case TypeSineMod:
		wm := 2 * math.Pi * p.ModFreqHz
		return func(t float64) float64 {
			return math.Sin(w*t) * (1 + math.Cos(wm*t))
		}
	default:
		return func(t float64) float64 {
			return math.Sin(w * t)
		}
	}
}

func sign(v float64) float64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}
