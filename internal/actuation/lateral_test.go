package actuation

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func enabledSteerCarState() CarState {
	return CarState{
		VEgo:                  10,
		LKMode:                true,
		LaneChangeSteerFactor: 1,
	}
}

func TestSteeringCounterAdvancesModFour(t *testing.T) {
	p := NewParams(nil)
	state := NewControllerState()
	cs := enabledSteerCarState()

	var last int
	for i := 0; i < 10; i++ {
		cs.LoopbackCounter = i // advances every call
		out := Lateral(p, cs, Actuators{Steer: 0.1}, &state, true)
		require.False(t, out.Skip)
		require.Equal(t, (last+1)%4, out.Counter)
		last = out.Counter
	}
}

func TestSteeringSkippedWhenLoopbackUnchanged(t *testing.T) {
	p := NewParams(nil)
	state := NewControllerState()
	cs := enabledSteerCarState()
	cs.LoopbackCounter = 5

	first := Lateral(p, cs, Actuators{Steer: 0.2}, &state, true)
	require.False(t, first.Skip)

	second := Lateral(p, cs, Actuators{Steer: 0.9}, &state, true)
	require.True(t, second.Skip)
	require.Equal(t, first.Steer, second.Steer)
	require.Equal(t, first.Counter, second.Counter)
}

func TestSteeringDisabledBelowMinSpeed(t *testing.T) {
	p := NewParams(nil)
	state := NewControllerState()
	cs := enabledSteerCarState()
	cs.VEgo = 0
	cs.LoopbackCounter = 1

	out := Lateral(p, cs, Actuators{Steer: 1}, &state, true)
	require.False(t, out.Skip)
	require.Equal(t, 0, out.Steer)
}

func TestApplyStdSteerTorqueLimitsBoundsDelta(t *testing.T) {
	applied := applyStdSteerTorqueLimits(10000, 0, 0)
	require.LessOrEqual(t, applied, MaxSteerDeltaPerTick)
}
