package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsFile(t *testing.T) {
	cfg := MustLoadDefaultConfig()
	require.NotNil(t, cfg.Actuation)
	require.NotNil(t, cfg.RadarFusion)
	require.NoError(t, cfg.Validate())

	require.NotNil(t, cfg.Actuation.GasLookup)
	require.Equal(t, len(cfg.Actuation.GasLookup.BP), len(cfg.Actuation.GasLookup.V))
	require.Len(t, cfg.Actuation.OnePedalModeDecel, 3)
}

func TestEmptyTuningConfig(t *testing.T) {
	cfg := EmptyTuningConfig()
	require.Nil(t, cfg.Actuation)
	require.Nil(t, cfg.RadarFusion)
	require.NoError(t, cfg.Validate())
}

func TestLoadTuningConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "test_config.json")

	testJSON := `{
  "actuation": {
    "steer_max": 1800,
    "gas_lookup": {"bp": [0, 1.5, 3.0], "v": [0, 768, 1024]}
  }
}`
	require.NoError(t, os.WriteFile(configPath, []byte(testJSON), 0644))

	cfg, err := LoadTuningConfig(configPath)
	require.NoError(t, err)
	require.NotNil(t, cfg.Actuation.SteerMax)
	require.Equal(t, 1800.0, *cfg.Actuation.SteerMax)
	require.Nil(t, cfg.RadarFusion)
}

func TestLoadTuningConfigMissing(t *testing.T) {
	_, err := LoadTuningConfig("/nonexistent/path/to/config.json")
	require.Error(t, err)
}

func TestLoadTuningConfigInvalid(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid_config.json")

	invalidJSON := `{
  "actuation": { "steer_max": "not-a-number"
`
	require.NoError(t, os.WriteFile(configPath, []byte(invalidJSON), 0644))

	_, err := LoadTuningConfig(configPath)
	require.Error(t, err)
}

func TestLoadTuningConfigRejectsNonJSON(t *testing.T) {
	_, err := LoadTuningConfig("/some/path/config.yaml")
	require.Error(t, err)
}

func TestLoadTuningConfigRejectsLargeFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "large.json")

	largeData := make([]byte, 2*1024*1024)
	require.NoError(t, os.WriteFile(configPath, largeData, 0644))

	_, err := LoadTuningConfig(configPath)
	require.Error(t, err)
}

func TestValidateRejectsBadGasLookup(t *testing.T) {
	cfg := &TuningConfig{
		Actuation: &ActuationTuning{
			GasLookup: &LookupTable{BP: []float64{0, 3, 1.5}, V: []float64{0, 1024, 768}},
		},
	}
	require.Error(t, cfg.Validate())
}

func TestValidateRejectsBadBrakeLookup(t *testing.T) {
	cfg := &TuningConfig{
		Actuation: &ActuationTuning{
			BrakeLookup: &LookupTable{BP: []float64{-3.5, -1.0, 0}, V: []float64{0, 200, 1024}},
		},
	}
	require.Error(t, cfg.Validate())
}

func TestValidateRejectsMismatchedOnePedalTable(t *testing.T) {
	cfg := &TuningConfig{
		Actuation: &ActuationTuning{
			OnePedalModeDecel: []LookupTable{
				{BP: []float64{0, 10}, V: []float64{-0.4}},
			},
		},
	}
	require.Error(t, cfg.Validate())
}
