package actuation

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func baseCarState() CarState {
	return CarState{
		VEgo:        10,
		AEgo:        0,
		EngineRPM:   800,
		Gear:        GearDrive,
		NowSeconds:  1000,
		LeadAccelEventSeconds: -1,
		OnePedal: OnePedalState{
			Mode:           OnePedalOff,
			BrakingAllowed: true,
		},
	}
}

func TestDisabledBranchSnapsToCurrentDecel(t *testing.T) {
	p := NewParams(nil)
	state := NewControllerState()
	cs := baseCarState()
	cs.AEgo = -0.7

	out, _ := Longitudinal(p, cs, Actuators{}, HUD{}, &state, false)

	require.Equal(t, roundI(p.MaxAccRegen), out.ApplyGas)
	require.Equal(t, 0, out.ApplyBrake)
	require.Equal(t, -0.7, state.OnePedalDecel)
	require.Equal(t, -0.7, state.OnePedalDecelIn)
}

func TestApplyBrakeApplyGasStayInRange(t *testing.T) {
	p := NewParams(nil)
	state := NewControllerState()
	cs := baseCarState()

	for _, accel := range []float64{-5, -3.5, -1, 0, 1, 3, 5} {
		act := Actuators{Accel: accel, AccelPitchCompensated: accel}
		out, _ := Longitudinal(p, cs, act, HUD{}, &state, true)
		require.GreaterOrEqual(t, out.ApplyBrake, 0)
		require.LessOrEqual(t, out.ApplyBrake, int(p.BrakeLookupV[0]))
		require.GreaterOrEqual(t, out.ApplyGas, int(p.MaxAccRegen))
		require.LessOrEqual(t, out.ApplyGas, int(p.GasLookupV[len(p.GasLookupV)-1]))
	}
}

func TestOnePedalRateLimitBound(t *testing.T) {
	p := NewParams(nil)
	state := NewControllerState()
	cs := baseCarState()
	cs.OnePedal.Mode = OnePedalActive
	cs.OnePedal.BrakeMode = BrakeModeHard

	_, _ = Longitudinal(p, cs, Actuators{}, HUD{}, &state, true)
	first := state.OnePedalDecel

	_, _ = Longitudinal(p, cs, Actuators{}, HUD{}, &state, true)
	second := state.OnePedalDecel

	up := 0.8 * DTCtrl * 4 * maxF(1, 0.5-second*0.5)
	down := 0.8 * DTCtrl * 4
	delta := second - first
	require.LessOrEqual(t, delta, up+1e-9)
	require.GreaterOrEqual(t, delta, -down-1e-9)
	require.GreaterOrEqual(t, second, -3.5-1e-9)
}

func TestOnePedalDecelNeverBelowFloor(t *testing.T) {
	p := NewParams(nil)
	state := NewControllerState()
	cs := baseCarState()
	cs.OnePedal.Mode = OnePedalActive
	cs.OnePedal.BrakeMode = BrakeModeHard
	cs.VEgo = 25

	for i := 0; i < 200; i++ {
		_, _ = Longitudinal(p, cs, Actuators{}, HUD{}, &state, true)
		require.GreaterOrEqual(t, state.OnePedalDecel, -3.5-1e-9)
	}
}

func TestDisableReEnableReproducesSteadyState(t *testing.T) {
	p := NewParams(nil)
	state := NewControllerState()
	cs := baseCarState()
	cs.OnePedal.Mode = OnePedalActive

	// Settle into steady state.
	for i := 0; i < 500; i++ {
		_, _ = Longitudinal(p, cs, Actuators{}, HUD{}, &state, true)
	}
	settled := state.OnePedalDecel
	// A vehicle holding that command decelerates at it, so aEgo matches.
	cs.AEgo = settled

	// Disable then immediately re-enable with the same CS.
	_, _ = Longitudinal(p, cs, Actuators{}, HUD{}, &state, false)
	out, _ := Longitudinal(p, cs, Actuators{}, HUD{}, &state, true)

	require.InDelta(t, settled, state.OnePedalDecel, 0.5)
	_ = out
}

func TestCoastOnePedalZeroBrake(t *testing.T) {
	p := NewParams(nil)
	state := NewControllerState()
	cs := baseCarState()
	cs.OnePedal.Mode = OnePedalCoast

	out, _ := Longitudinal(p, cs, Actuators{}, HUD{}, &state, true)
	require.Equal(t, 0, out.ApplyBrake)
	require.False(t, state.OnePedalModeActive)
	require.True(t, state.CoastOnePedalActive)
}

func TestAutoHoldBranchIsExclusiveOfNormalBrakeFrame(t *testing.T) {
	p := NewParams(nil)
	state := NewControllerState()
	cs := baseCarState()
	cs.VEgo = 0.01
	cs.Standstill = true
	cs.CruiseMainOn = true
	cs.AutoHoldEnabled = true
	cs.AutoHoldActive = true

	out, wb := Longitudinal(p, cs, Actuators{}, HUD{}, &state, false)
	require.True(t, out.AutoHoldFrame)
	require.True(t, wb.AutoHoldActivated)
}
