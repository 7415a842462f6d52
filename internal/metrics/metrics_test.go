package metrics

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tolerance = 1e-9

func generateSine(amplitude, freq, sampleRate float64, numCycles int) []float64 {
	n := int(sampleRate/freq) * numCycles
	out := make([]float64, n)
	for i := range out {
		out[i] = amplitude * math.Sin(2*math.Pi*freq*float64(i)/sampleRate)
	}
	return out
}

func TestScenarioRows(t *testing.T) {
	voltages := []float64{0.050, 1.024, -0.050}

	rms, err := RMS(voltages)
	require.NoError(t, err)
	want := math.Sqrt((0.050*0.050 + 1.024*1.024 + 0.050*0.050) / 3)
	assert.InDelta(t, want, rms, tolerance)
	assert.InDelta(t, 0.5926, rms, 1e-4)

	peak, err := Peak(voltages)
	require.NoError(t, err)
	assert.Equal(t, 1.024, peak)

	vpp, err := Vpp(voltages)
	require.NoError(t, err)
	assert.InDelta(t, 1.074, vpp, tolerance)
}

func TestEmptySeries(t *testing.T) {
	_, err := RMS(nil)
	assert.ErrorIs(t, err, ErrEmptySeries)
	_, err = Peak([]float64{})
	assert.ErrorIs(t, err, ErrEmptySeries)
	_, err = Vpp(nil)
	assert.ErrorIs(t, err, ErrEmptySeries)
	_, err = Mean(nil)
	assert.ErrorIs(t, err, ErrEmptySeries)
	_, err = RemoveDC(nil)
	assert.ErrorIs(t, err, ErrEmptySeries)
	_, err = CrestFactor(nil)
	assert.ErrorIs(t, err, ErrEmptySeries)
	_, err = PercentilePeak(nil, 99.5)
	assert.ErrorIs(t, err, ErrEmptySeries)
	_, err = PercentileVpp(nil, 99.5)
	assert.ErrorIs(t, err, ErrEmptySeries)
	_, err = Summarize(nil, SummaryOptions{})
	assert.ErrorIs(t, err, ErrEmptySeries)
}

func TestRMSBoundedByPeak(t *testing.T) {
	rnd := rand.New(rand.NewSource(7))
	for trial := 0; trial < 200; trial++ {
		n := 1 + rnd.Intn(500)
		s := make([]float64, n)
		for i := range s {
			s[i] = (rnd.Float64()*2 - 1) * math.Pow(10, float64(rnd.Intn(6)-3))
		}
		rms, err := RMS(s)
		require.NoError(t, err)
		peak, err := Peak(s)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, rms, 0.0)
		assert.LessOrEqual(t, rms, peak*(1+1e-12))
	}
}

func TestVppIsMaxMinusMin(t *testing.T) {
	rnd := rand.New(rand.NewSource(11))
	for trial := 0; trial < 100; trial++ {
		n := 1 + rnd.Intn(300)
		s := make([]float64, n)
		maxVal, minVal := math.Inf(-1), math.Inf(1)
		for i := range s {
			s[i] = rnd.NormFloat64()
			maxVal = math.Max(maxVal, s[i])
			minVal = math.Min(minVal, s[i])
		}
		vpp, err := Vpp(s)
		require.NoError(t, err)
		assert.Equal(t, maxVal-minVal, vpp)
	}
}

func TestSineFigures(t *testing.T) {
	s := generateSine(2, 50, 10000, 4)

	rms, err := RMS(s)
	require.NoError(t, err)
	assert.InDelta(t, 2/math.Sqrt2, rms, 1e-6)

	crest, err := CrestFactor(s)
	require.NoError(t, err)
	assert.InDelta(t, math.Sqrt2, crest, 1e-3)

	crest, err = CrestFactor([]float64{0, 0})
	require.NoError(t, err)
	assert.Zero(t, crest)
}

func TestRemoveDC(t *testing.T) {
	in := []float64{1, 2, 3}
	ac, err := RemoveDC(in)
	require.NoError(t, err)
	assert.Equal(t, []float64{-1, 0, 1}, ac)
	assert.Equal(t, []float64{1, 2, 3}, in, "input must not be modified")
}

func TestPercentiles(t *testing.T) {
	s := make([]float64, 1000)
	for i := range s {
		s[i] = math.Sin(float64(i) * 0.01)
	}
	s[500] = 40 // glitch

	exact, err := Peak(s)
	require.NoError(t, err)
	assert.Equal(t, 40.0, exact)

	robust, err := PercentilePeak(s, 99.5)
	require.NoError(t, err)
	assert.Less(t, robust, 1.0)

	same, err := PercentilePeak(s, 100)
	require.NoError(t, err)
	assert.Equal(t, exact, same)

	vpp, err := PercentileVpp(s, 99.5)
	require.NoError(t, err)
	assert.Less(t, vpp, 2.0)

	exactVpp, err := PercentileVpp(s, 0)
	require.NoError(t, err)
	want, err := Vpp(s)
	require.NoError(t, err)
	assert.Equal(t, want, exactVpp)
	assert.Greater(t, exactVpp, 40.0)
}

func TestThermocoupleVoltageToTemperature(t *testing.T) {
	temp, err := ThermocoupleVoltageToTemperature(0.205, 0.041, 0)
	require.NoError(t, err)
	assert.InDelta(t, 5.0, temp, tolerance)

	temp, err = ThermocoupleVoltageToTemperature(0.001, 41e-6, 25)
	require.NoError(t, err)
	assert.InDelta(t, 25+0.001/41e-6, temp, tolerance)

	for _, bad := range []float64{0, math.NaN(), math.Inf(1)} {
		_, err = ThermocoupleVoltageToTemperature(1, bad, 0)
		assert.ErrorIs(t, err, ErrInvalidSensitivity)
	}
}

func TestCurrentFromVrms(t *testing.T) {
	assert.InDelta(t, 100.0, CurrentFromVrms(0.333, 100, 0.333), tolerance)
	assert.InDelta(t, 50.0, CurrentFromVrms(0.1665, 100, 0), tolerance)
}

func TestSummarize(t *testing.T) {
	s := generateSine(0.01, 60, 3300*10, 10)
	for i := range s {
		s[i] += 1.5
	}

	raw, err := Summarize(s, SummaryOptions{})
	require.NoError(t, err)
	assert.Greater(t, raw.RMS, 1.4)

	ac, err := Summarize(s, SummaryOptions{RemoveDC: true})
	require.NoError(t, err)
	assert.InDelta(t, 0.01/math.Sqrt2, ac.RMS, 1e-5)
	assert.InDelta(t, 0.01, ac.Peak, 1e-5)
	assert.InDelta(t, 0.02, ac.Vpp, 1e-5)

	robust, err := Summarize(s, SummaryOptions{RemoveDC: true, PeakPercentile: 99.5})
	require.NoError(t, err)
	assert.LessOrEqual(t, robust.Peak, ac.Peak)
	assert.LessOrEqual(t, robust.Vpp, ac.Vpp)
}

func TestPercentilesMatchClosestRanks(t *testing.T) {
	peak, err := PercentilePeak([]float64{1, -2, 3, 4}, 50)
	require.NoError(t, err)
	assert.InDelta(t, 2.5, peak, tolerance)

	ramp := make([]float64, 100)
	for i := range ramp {
		ramp[i] = float64(i)
	}
	peak, err = PercentilePeak(ramp, 99.5)
	require.NoError(t, err)
	assert.InDelta(t, 98.505, peak, tolerance)

	// Both tails are trimmed even when p is below one sample's share.
	vpp, err := PercentileVpp(ramp, 99.5)
	require.NoError(t, err)
	assert.InDelta(t, 98.01, vpp, tolerance)

	single, err := PercentileVpp([]float64{7}, 99.5)
	require.NoError(t, err)
	assert.Zero(t, single)
}
