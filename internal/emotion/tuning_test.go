package emotion

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultTuningIsComplete(t *testing.T) {
	tn := DefaultTuning()
	require.NoError(t, tn.Validate())

	for _, d := range Dimensions() {
		p, ok := tn.Decay[d.String()]
		require.True(t, ok, "missing decay profile for %s", d)
		assert.Greater(t, p.BaseRatePerHour, 0.0, d.String())
		assert.Greater(t, p.ExtremeInertiaFactor, 0.0, d.String())
		assert.LessOrEqual(t, p.ExtremeInertiaFactor, 1.0, d.String())
	}
	for k := EventKind(0); k < eventKindCount; k++ {
		deltas, ok := tn.EventDeltas[k.String()]
		require.True(t, ok, "missing deltas for %s", k)
		assert.NotEmpty(t, deltas, k.String())
	}
}

func TestLoadTuningEmptyPathReturnsDefaults(t *testing.T) {
	tn, err := LoadTuning("")
	require.NoError(t, err)
	assert.Equal(t, DefaultTuning(), tn)
}

func TestLoadTuningMissingFileReturnsDefaults(t *testing.T) {
	tn, err := LoadTuning(filepath.Join(t.TempDir(), "nope.json"))
	require.NoError(t, err)
	assert.Equal(t, DefaultTuning(), tn)
}

func TestLoadTuningMergesOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tuning.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"refusal_threshold": 0.5,
		"refusal_slope": 2,
		"vulnerable_exposure_boost": 0.1,
		"dampening_window_sec": 120,
		"decay": {
			"jealousy": {"base_rate_per_hour": 0.5, "extreme_inertia_factor": 0.9}
		}
	}`), 0644))

	tn, err := LoadTuning(path)
	require.NoError(t, err)

	assert.Equal(t, 0.5, tn.RefusalThreshold)
	assert.Equal(t, 2.0, tn.RefusalSlope)
	assert.Equal(t, 0.1, tn.VulnerableExposureBoost)
	assert.Equal(t, 2*time.Minute, tn.DampeningWindow)
	assert.Equal(t, 0.5, tn.Decay["jealousy"].BaseRatePerHour)

	// Everything not named in the file keeps its default.
	assert.Equal(t, 0.03, tn.Decay["loneliness"].BaseRatePerHour)
	assert.Equal(t, 1.2, tn.MomentumAmplify)
	assert.Equal(t, DefaultTuning().EventDeltas, tn.EventDeltas)
}

func TestLoadTuningBrokenJSONFallsBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tuning.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	tn, err := LoadTuning(path)
	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, DefaultTuning(), tn, "caller still gets a usable tuning")
}

func TestLoadTuningRejectsUnknownNames(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tuning.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"decay": {"spite": {"base_rate_per_hour": 0.1}}
	}`), 0644))

	tn, err := LoadTuning(path)
	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Contains(t, cfgErr.Error(), "spite")
	assert.Equal(t, DefaultTuning(), tn)
}

func TestValidateCatchesUnknownEventKind(t *testing.T) {
	tn := DefaultTuning()
	tn.EventDeltas["cosmic_ray"] = map[string]float64{"jealousy": 0.1}

	var cfgErr *ConfigError
	require.ErrorAs(t, tn.Validate(), &cfgErr)
}
