// Package config loads the tuning parameters shared by the actuation and
// radarfusion packages from a single JSON document. The schema mirrors the
// structs those packages compute from it. The loaded document is also
// served read-only by internal/debugui.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// DefaultConfigPath is the canonical tuning defaults file, searched for
// relative to the working directory and a few parent levels up so tests
// running from a package directory still find it.
const DefaultConfigPath = "config/tuning.defaults.json"

// LookupTable is an immutable breakpoint/value pair used throughout the
// actuation and radarfusion packages for piecewise-linear interpolation.
type LookupTable struct {
	BP []float64 `json:"bp"`
	V  []float64 `json:"v"`
}

// TuningConfig is the root configuration document. Every field is optional;
// omitted fields keep the hardcoded defaults that actuation.NewParams and
// radarfusion.NewTuning fill in.
type TuningConfig struct {
	Actuation   *ActuationTuning   `json:"actuation,omitempty"`
	RadarFusion *RadarFusionTuning `json:"radar_fusion,omitempty"`
}

// ActuationTuning holds the Actuator Controller's vehicle-specific constants
// (spec §3 CarControllerParams) plus the one-pedal and PID tables.
type ActuationTuning struct {
	SteerStep           *int     `json:"steer_step,omitempty"`
	SteerMax            *float64 `json:"steer_max,omitempty"`
	MinSteerSpeed       *float64 `json:"min_steer_speed,omitempty"`
	MaxAccRegen         *float64 `json:"max_acc_regen,omitempty"`
	ZeroGas             *float64 `json:"zero_gas,omitempty"`
	NearStopBrakePhase  *float64 `json:"near_stop_brake_phase,omitempty"`
	AdasKeepaliveStep   *int     `json:"adas_keepalive_step,omitempty"`
	CameraKeepaliveStep *int     `json:"camera_keepalive_step,omitempty"`

	GasLookup   *LookupTable `json:"gas_lookup,omitempty"`
	BrakeLookup *LookupTable `json:"brake_lookup,omitempty"`

	// ThresholdAccel{EngineOn,EngineOff} feed update_gas_brake_threshold.
	ThresholdAccelEngineOn  *LookupTable `json:"threshold_accel_engine_on,omitempty"`
	ThresholdAccelEngineOff *LookupTable `json:"threshold_accel_engine_off,omitempty"`

	// OnePedalModeDecel holds one table per brake mode, indexed
	// 0=light, 1=medium, 2=hard.
	OnePedalModeDecel []LookupTable `json:"one_pedal_mode_decel,omitempty"`
	AngleCutoffBP     []float64     `json:"angle_cutoff_bp,omitempty"`

	PitchFactorDescent *LookupTable `json:"pitch_factor_descent,omitempty"`
	PitchFactorIncline *LookupTable `json:"pitch_factor_incline,omitempty"`

	// PID gain schedules, each interpolated on ego speed.
	PIDKp *LookupTable `json:"pid_kp,omitempty"`
	PIDKi *LookupTable `json:"pid_ki,omitempty"`
	PIDKd *LookupTable `json:"pid_kd,omitempty"`

	LeadAccelLockoutSeconds *float64 `json:"lead_accel_lockout_seconds,omitempty"`
}

// RadarFusionTuning holds the Radar Fusion tracker/clustering/association
// constants (spec §4.4-4.6).
type RadarFusionTuning struct {
	ClusterDistanceThreshold *float64 `json:"cluster_distance_threshold,omitempty"`
	EgoVelocityDelaySamples  *int     `json:"ego_velocity_delay_samples,omitempty"`

	// Kalman gain tables, interpolated on dt in [0.01, 0.10].
	KalmanGainPos *LookupTable `json:"kalman_gain_pos,omitempty"`
	KalmanGainVel *LookupTable `json:"kalman_gain_vel,omitempty"`

	RadarToCamera *float64 `json:"radar_to_camera,omitempty"`

	LaplaceBDistance *float64 `json:"laplace_b_distance,omitempty"`
	LaplaceBLateral  *float64 `json:"laplace_b_lateral,omitempty"`
	LaplaceBVelocity *float64 `json:"laplace_b_velocity,omitempty"`

	SanityDistFrac *float64 `json:"sanity_dist_frac,omitempty"`
	SanityDistMin  *float64 `json:"sanity_dist_min,omitempty"`
	SanityVelAbs   *float64 `json:"sanity_vel_abs,omitempty"`
	SanityVelClose *float64 `json:"sanity_vel_close,omitempty"`

	ModelPathDRelMin      *float64     `json:"model_path_drel_min,omitempty"`
	ModelPathDRelMax      *float64     `json:"model_path_drel_max,omitempty"`
	ModelPathYRelMax      *float64     `json:"model_path_yrel_max,omitempty"`
	ModelPathDevTolerance *LookupTable `json:"model_path_dev_tolerance,omitempty"`
	StickyMiddleDelta     *float64     `json:"sticky_middle_delta,omitempty"`
	ModelPathMinClosing   *float64     `json:"model_path_min_closing,omitempty"`
	LanelineMinClosing    *float64     `json:"laneline_min_closing,omitempty"`
	LanelineMinWidth      *float64     `json:"laneline_min_width,omitempty"`
	LanelineMinProb       *float64     `json:"laneline_min_prob,omitempty"`

	LowSpeedMaxVEgo *float64 `json:"low_speed_max_vego,omitempty"`

	LeadPlusOneMaxSteerAngle *float64     `json:"lead_plus_one_max_steer_angle,omitempty"`
	LeadPlusOneMinModelProb  *float64     `json:"lead_plus_one_min_model_prob,omitempty"`
	LeadPlusOneMinRelDist    *LookupTable `json:"lead_plus_one_min_rel_dist,omitempty"`

	LongRangeSmoothBP      []float64    `json:"long_range_smooth_bp,omitempty"`
	LongRangeResetDRelBP   *LookupTable `json:"long_range_reset_drel_bp,omitempty"`
	LongRangeResetYRelDelta *float64    `json:"long_range_reset_yrel_delta,omitempty"`
	LongRangeCloseDRel     *float64     `json:"long_range_close_drel,omitempty"`
}

// EmptyTuningConfig returns a TuningConfig with all fields nil;
// actuation.NewParams and radarfusion.NewTuning supply defaults for
// anything not explicitly set.
func EmptyTuningConfig() *TuningConfig { return &TuningConfig{} }

// LoadTuningConfig loads and validates a TuningConfig from a JSON file.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}
	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}
	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg := EmptyTuningConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// MustLoadDefaultConfig loads the canonical tuning defaults, searching the
// working directory and a few parent levels. Panics if not found; intended
// for use at process startup and in test setup.
func MustLoadDefaultConfig() *TuningConfig {
	candidates := []string{
		DefaultConfigPath,
		"../" + DefaultConfigPath,
		"../../" + DefaultConfigPath,
		"../../../" + DefaultConfigPath,
		"../../../../" + DefaultConfigPath,
	}
	for _, path := range candidates {
		if cfg, err := LoadTuningConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run from repository root")
}

// Validate checks structural invariants that must hold regardless of which
// fields were overridden: lookup tables carry equal-length BP/V arrays, and
// the GAS/BRAKE tables keep the monotonicity spec §3 requires.
func (c *TuningConfig) Validate() error {
	if c.Actuation != nil {
		a := c.Actuation
		if a.GasLookup != nil {
			if err := validateTable(a.GasLookup, false); err != nil {
				return fmt.Errorf("gas_lookup: %w", err)
			}
		}
		if a.BrakeLookup != nil {
			if err := validateTable(a.BrakeLookup, true); err != nil {
				return fmt.Errorf("brake_lookup: %w", err)
			}
		}
		for i, t := range a.OnePedalModeDecel {
			if len(t.BP) != len(t.V) {
				return fmt.Errorf("one_pedal_mode_decel[%d]: bp/v length mismatch", i)
			}
		}
	}
	return nil
}

func validateTable(t *LookupTable, descending bool) error {
	if len(t.BP) != len(t.V) {
		return fmt.Errorf("bp/v length mismatch")
	}
	for i := 1; i < len(t.BP); i++ {
		if t.BP[i] < t.BP[i-1] {
			return fmt.Errorf("bp not monotone at index %d", i)
		}
	}
	for i := 1; i < len(t.V); i++ {
		if descending && t.V[i] > t.V[i-1] {
			return fmt.Errorf("v not monotone non-increasing at index %d", i)
		}
		if !descending && t.V[i] < t.V[i-1] {
			return fmt.Errorf("v not monotone non-decreasing at index %d", i)
		}
	}
	return nil
}
