package actuation

import (
	"fmt"

	"github.com/adascore/controller/internal/config"
)

// DTCtrl is the control-loop period: 100 Hz.
const DTCtrl = 0.01

// BrakeMode selects which of the three one-pedal deceleration tables is
// active: light, medium or hard braking feel.
type BrakeMode int

const (
	BrakeModeLight BrakeMode = iota
	BrakeModeMedium
	BrakeModeHard
	numBrakeModes
)

// Params is the vehicle-immutable CarControllerParams: lookup tables and
// scalar constants that do not change tick to tick. Built once from a
// config.ActuationTuning via NewParams and reused for the process lifetime.
type Params struct {
	SteerStep           int
	SteerMax            float64
	MinSteerSpeed       float64
	MaxAccRegen         float64
	ZeroGas             float64
	NearStopBrakePhase  float64
	AdasKeepaliveStep   int
	CameraKeepaliveStep int

	GasLookupBP, GasLookupV     []float64
	BrakeLookupBP, BrakeLookupV []float64

	ThresholdAccelEngineOnBP, ThresholdAccelEngineOnV   []float64
	ThresholdAccelEngineOffBP, ThresholdAccelEngineOffV []float64

	// OnePedalModeDecel[mode] is the (BP, V) table for that brake mode.
	OnePedalModeDecelBP [numBrakeModes][]float64
	OnePedalModeDecelV  [numBrakeModes][]float64
	AngleCutoffBP       []float64

	PitchFactorDescentBP, PitchFactorDescentV []float64
	PitchFactorInclineBP, PitchFactorInclineV []float64

	PIDKpBP, PIDKpV []float64
	PIDKiBP, PIDKiV []float64
	PIDKdBP, PIDKdV []float64

	LeadAccelLockoutSeconds float64
}

// NewParams builds Params from an optional tuning override, filling any
// unset field with the hardcoded default.
func NewParams(t *config.ActuationTuning) Params {
	if t == nil {
		t = &config.ActuationTuning{}
	}
	p := Params{
		SteerStep:           intOr(t.SteerStep, 2),
		SteerMax:            floatOr(t.SteerMax, 1500),
		MinSteerSpeed:       floatOr(t.MinSteerSpeed, 2.0),
		MaxAccRegen:         floatOr(t.MaxAccRegen, -96),
		ZeroGas:             floatOr(t.ZeroGas, 0),
		NearStopBrakePhase:  floatOr(t.NearStopBrakePhase, 0.3),
		AdasKeepaliveStep:   intOr(t.AdasKeepaliveStep, 100),
		CameraKeepaliveStep: intOr(t.CameraKeepaliveStep, 50),

		AngleCutoffBP: sliceOr(t.AngleCutoffBP, []float64{15, 45}),

		LeadAccelLockoutSeconds: floatOr(t.LeadAccelLockoutSeconds, 0.6),
	}

	gas := tableOr(t.GasLookup, []float64{0, 1.5, 3.0}, []float64{0, 768, 1024})
	p.GasLookupBP, p.GasLookupV = gas.BP, gas.V

	brake := tableOr(t.BrakeLookup, []float64{-3.5, -1.0, 0}, []float64{1024, 200, 0})
	p.BrakeLookupBP, p.BrakeLookupV = brake.BP, brake.V

	thOn := tableOr(t.ThresholdAccelEngineOn, []float64{0, 5, 20}, []float64{-0.3, -0.2, -0.1})
	p.ThresholdAccelEngineOnBP, p.ThresholdAccelEngineOnV = thOn.BP, thOn.V

	thOff := tableOr(t.ThresholdAccelEngineOff, []float64{0, 5, 20}, []float64{-0.5, -0.3, -0.15})
	p.ThresholdAccelEngineOffBP, p.ThresholdAccelEngineOffV = thOff.BP, thOff.V

	modeDefaults := [numBrakeModes]config.LookupTable{
		{BP: []float64{0, 2.68, 10, 20}, V: []float64{-0.4, -1.1, -1.4, -1.6}},
		{BP: []float64{0, 2.68, 10, 20}, V: []float64{-0.8, -1.8, -2.3, -2.6}},
		{BP: []float64{0, 2.68, 10, 20}, V: []float64{-1.2, -2.5, -3.0, -3.3}},
	}
	for i := range p.OnePedalModeDecelBP {
		var src config.LookupTable
		if i < len(t.OnePedalModeDecel) {
			src = t.OnePedalModeDecel[i]
		}
		table := tableOr(&src, modeDefaults[i].BP, modeDefaults[i].V)
		p.OnePedalModeDecelBP[i], p.OnePedalModeDecelV[i] = table.BP, table.V
	}

	pd := tableOr(t.PitchFactorDescent, []float64{4, 8}, []float64{0.4, 1})
	p.PitchFactorDescentBP, p.PitchFactorDescentV = pd.BP, pd.V
	pi := tableOr(t.PitchFactorIncline, []float64{4, 8}, []float64{0.2, 1})
	p.PitchFactorInclineBP, p.PitchFactorInclineV = pi.BP, pi.V

	kp := tableOr(t.PIDKp, []float64{0, 5, 20}, []float64{0.35, 0.28, 0.20})
	p.PIDKpBP, p.PIDKpV = kp.BP, kp.V
	ki := tableOr(t.PIDKi, []float64{0, 5, 20}, []float64{0.10, 0.08, 0.05})
	p.PIDKiBP, p.PIDKiV = ki.BP, ki.V
	kd := tableOr(t.PIDKd, []float64{0, 5, 20}, []float64{0.01, 0.01, 0.01})
	p.PIDKdBP, p.PIDKdV = kd.BP, kd.V

	return p
}

// Validate enforces the spec §3 monotonicity invariants: lookup breakpoints
// ascend, GAS_LOOKUP_V is non-decreasing, BRAKE_LOOKUP_V is non-increasing
// (larger brake number = more brake).
func (p Params) Validate() error {
	if err := checkMonotone(p.GasLookupBP, true); err != nil {
		return fmt.Errorf("gas lookup bp: %w", err)
	}
	if err := checkMonotone(p.GasLookupV, true); err != nil {
		return fmt.Errorf("gas lookup v: %w", err)
	}
	if err := checkMonotone(p.BrakeLookupBP, true); err != nil {
		return fmt.Errorf("brake lookup bp: %w", err)
	}
	if err := checkMonotone(p.BrakeLookupV, false); err != nil {
		return fmt.Errorf("brake lookup v: %w", err)
	}
	return nil
}

func checkMonotone(v []float64, nonDecreasing bool) error {
	for i := 1; i < len(v); i++ {
		if nonDecreasing && v[i] < v[i-1] {
			return fmt.Errorf("not monotone non-decreasing at index %d", i)
		}
		if !nonDecreasing && v[i] > v[i-1] {
			return fmt.Errorf("not monotone non-increasing at index %d", i)
		}
	}
	return nil
}

// UpdateGasBrakeThreshold returns the coast-neutral acceleration threshold
// for the given speed, selecting the engine-on/off table per spec §4.1.
func (p Params) UpdateGasBrakeThreshold(speed float64, engineRunning bool) float64 {
	bp, v := p.ThresholdAccelEngineOffBP, p.ThresholdAccelEngineOffV
	if engineRunning {
		bp, v = p.ThresholdAccelEngineOnBP, p.ThresholdAccelEngineOnV
	}
	return interp(speed, bp, v)
}

func intOr(p *int, def int) int {
	if p == nil {
		return def
	}
	return *p
}

func floatOr(p *float64, def float64) float64 {
	if p == nil {
		return def
	}
	return *p
}

func sliceOr(s []float64, def []float64) []float64 {
	if s == nil {
		return def
	}
	return s
}

func tableOr(t *config.LookupTable, bp, v []float64) config.LookupTable {
	if t == nil || t.BP == nil {
		return config.LookupTable{BP: bp, V: v}
	}
	return *t
}
