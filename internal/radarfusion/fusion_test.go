package radarfusion

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSteadyCruiseNoLead(t *testing.T) {
	rf := NewRadarFusion(NewTuning(nil))
	state := rf.Update(Inputs{VEgo: 30}, 0.05)
	require.False(t, state.LeadOne.Status)
	require.True(t, state.Valid)
}

func TestVisionLeadWithRadarMatch(t *testing.T) {
	tn := NewTuning(nil)
	rf := NewRadarFusion(tn)

	vEgo := 30.0
	visionDRel := 40.0
	radarDRel := visionDRel - tn.RadarToCamera

	in := Inputs{
		VEgo: vEgo,
		RadarPoints: []RadarPoint{
			{TrackID: 1, DRel: radarDRel, YRel: 0, VRel: -5, Measured: true},
		},
		VisionLeads: []VisionLead{
			{X: visionDRel, Y: 0, V: 25, XStd: 2, YStd: 1, VStd: 1, Prob: 0.9},
		},
	}

	state := rf.Update(in, 0.05)
	require.True(t, state.LeadOne.Status)
	require.Equal(t, CheckSourceModelLead, state.LeadOne.CheckSource)
	require.Equal(t, LeadSourceRadar, state.LeadOne.Source)
}

func TestTrackDisappearsClearsLeadAndResetsLeadPlusOne(t *testing.T) {
	tn := NewTuning(nil)
	rf := NewRadarFusion(tn)

	in := Inputs{
		VEgo: 20,
		RadarPoints: []RadarPoint{
			{TrackID: 7, DRel: 30, YRel: 0, VRel: -1, Measured: true},
		},
		ExtendedRadar:         true,
		LongRangeLeadsEnabled: true,
	}
	_ = rf.Update(in, 0.05)

	state := rf.Update(Inputs{VEgo: 20, ExtendedRadar: true, LongRangeLeadsEnabled: true}, 0.05)
	require.Empty(t, state.LiveTracks)
	require.False(t, state.LeadOne.Status)
	require.False(t, state.LeadOnePlus.Status)
}

func TestCenterPartitionRespectsLaneWidth(t *testing.T) {
	tn := NewTuning(nil)
	rf := NewRadarFusion(tn)

	in := Inputs{
		VEgo:      20,
		LaneWidth: 3.6,
		Path:      &ModelPath{X: []float64{0, 50, 100}, Y: []float64{0, 0, 0}},
		RadarPoints: []RadarPoint{
			{TrackID: 1, DRel: 50, YRel: 0, VRel: 0},  // center
			{TrackID: 2, DRel: 60, YRel: 3, VRel: 0},  // off to one side, not in lane
			{TrackID: 3, DRel: 70, YRel: -3, VRel: 0}, // off to the other side, not in lane
		},
	}
	state := rf.Update(in, 0.05)

	for _, l := range state.LeadsCenter {
		require.Less(t, abs(l.DPath), in.LaneWidth/2)
	}
	require.Len(t, state.LeadsLeft, 1)
	require.Len(t, state.LeadsCenter, 1)
	require.Len(t, state.LeadsRight, 1)
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
