package radarfusion

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLeadPlusOneSelectsNearestBeyondGap(t *testing.T) {
	tn := NewTuning(nil)
	in := Inputs{
		ExtendedRadar:         true,
		LongRangeLeadsEnabled: true,
		SteeringAngle:         0,
	}
	leadOne := Lead{Status: true, ModelProb: 0.9, DRel: 50}
	center := []Lead{
		{DRel: 52, VLead: 10}, // inside the minimum gap, should be skipped
		{DRel: 60, VLead: 12}, // beyond leadOne.DRel + interp(50,[0,100],[3,6]) = 54.5
	}

	got := leadPlusOne(tn, in, leadOne, center)
	require.True(t, got.Status)
	require.Equal(t, 60.0, got.DRel)
}

func TestLeadPlusOneRequiresExtendedRadar(t *testing.T) {
	tn := NewTuning(nil)
	in := Inputs{ExtendedRadar: false, LongRangeLeadsEnabled: true}
	leadOne := Lead{Status: true, ModelProb: 0.9, DRel: 50}
	got := leadPlusOne(tn, in, leadOne, []Lead{{DRel: 80}})
	require.False(t, got.Status)
}

func TestLeadPlusOneRejectsLargeSteeringAngle(t *testing.T) {
	tn := NewTuning(nil)
	in := Inputs{ExtendedRadar: true, LongRangeLeadsEnabled: true, SteeringAngle: 20}
	leadOne := Lead{Status: true, ModelProb: 0.9, DRel: 50}
	got := leadPlusOne(tn, in, leadOne, []Lead{{DRel: 80}})
	require.False(t, got.Status)
}

func TestLeadPlusOneRequiresLeadOneStatus(t *testing.T) {
	tn := NewTuning(nil)
	in := Inputs{ExtendedRadar: true, LongRangeLeadsEnabled: true}
	leadOne := Lead{Status: false, ModelProb: 0.9, DRel: 50}
	got := leadPlusOne(tn, in, leadOne, []Lead{{DRel: 80}})
	require.False(t, got.Status)
}
