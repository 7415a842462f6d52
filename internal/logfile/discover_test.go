package logfile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/adccmp/internal/model"
)

func touch(t *testing.T, dir, name string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(scenarioLog), 0o644))
}

func TestDiscover(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "sine_60hz_33.85mVrms_ads1015.log")
	touch(t, dir, "sine_60hz_33.85mVrms_ads1115.log")
	touch(t, dir, "square_60hz_10mVrms_ads1015.log")
	touch(t, dir, "triangle_50hz_5mVrms_ads1115.log")
	touch(t, dir, "notes.txt")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "old_ads1015.log"), 0o755))

	catalog, err := Discover(dir)
	require.NoError(t, err)
	assert.Equal(t, dir, catalog.Dir)
	assert.Equal(t, []string{
		"sine_60hz_33.85mVrms",
		"square_60hz_10mVrms",
		"triangle_50hz_5mVrms",
	}, catalog.Names())

	complete := catalog.Complete()
	require.Len(t, complete, 1)
	assert.Equal(t, "sine_60hz_33.85mVrms", complete[0].Name)

	incomplete := catalog.Incomplete()
	require.Len(t, incomplete, 2)
	assert.Equal(t, []model.ADCUnit{model.ADS1115}, incomplete[0].Missing)
	assert.Equal(t, []model.ADCUnit{model.ADS1015}, incomplete[1].Missing)
}

func TestDiscover_MissingDir(t *testing.T) {
	_, err := Discover(filepath.Join(t.TempDir(), "nope"))
	require.ErrorIs(t, err, ErrNotFound)
}

func TestSplitName(t *testing.T) {
	name, unit := SplitName("dimmer_50pct_60hz_118mVrms_ads1015.log")
	assert.Equal(t, "dimmer_50pct_60hz_118mVrms", name)
	assert.Equal(t, model.ADS1015, unit)

	name, unit = SplitName("capture.csv")
	assert.Equal(t, "capture", name)
	assert.Empty(t, unit.Model)
}

func TestPairPath(t *testing.T) {
	assert.Equal(t, filepath.Join("logs", "x_ads1115.log"), PairPath("logs", "x", model.ADS1115))
}

func TestDiscover_UppercaseSuffix(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "sine_60hz_10mVrms_ADS1015.log")
	touch(t, dir, "sine_60hz_10mVrms_ads1115.log")

	catalog, err := Discover(dir)
	require.NoError(t, err)
	require.Len(t, catalog.Entries, 1)
	assert.True(t, catalog.Entries[0].Complete())

	path, err := FindLog(dir, "sine_60hz_10mVrms", model.ADS1015)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "sine_60hz_10mVrms_ADS1015.log"), path)

	_, err = FindLog(dir, "sine_50hz_10mVrms", model.ADS1015)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestCheckName(t *testing.T) {
	require.NoError(t, CheckName("sine_60hz_33.85mVrms"))
	for _, bad := range []string{"", ".", "..", "../x", "a/b", `a\b`, "x..y"} {
		assert.ErrorIs(t, CheckName(bad), ErrBadName, bad)
	}
}
