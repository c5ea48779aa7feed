package radarfusion

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSanityGateRejectsDistantMismatch(t *testing.T) {
	tn := NewTuning(nil)
	v := VisionLead{X: 40, Y: 0, V: 20, Prob: 0.9}
	clusters := []*Cluster{
		{DRel: 100, YRel: 0, VLead: 20},
	}
	_, ok := matchVisionToRadar(tn, v, clusters, 25)
	require.False(t, ok)
}

func TestSanityGateAcceptsCloseMatch(t *testing.T) {
	tn := NewTuning(nil)
	v := VisionLead{X: 40, Y: 0, V: 20, Prob: 0.9}
	radarDRel := 40 + tn.RadarToCamera
	clusters := []*Cluster{
		{DRel: radarDRel, YRel: 0, VLead: 20},
	}
	c, ok := matchVisionToRadar(tn, v, clusters, 25)
	require.True(t, ok)
	require.Equal(t, radarDRel, c.DRel)
}

func TestSanityGateRejectsLargeVelocityErrorWhenNotClosing(t *testing.T) {
	tn := NewTuning(nil)
	v := VisionLead{X: 40, Y: 0, V: 20, Prob: 0.9}
	radarDRel := 40 + tn.RadarToCamera
	// Velocity error of 15 exceeds SanityVelAbs (10), and ego isn't closing
	// on the candidate fast enough to excuse it.
	clusters := []*Cluster{
		{DRel: radarDRel, YRel: 0, VLead: 35},
	}
	_, ok := matchVisionToRadar(tn, v, clusters, 25)
	require.False(t, ok)
}
