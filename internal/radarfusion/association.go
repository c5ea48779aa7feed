package radarfusion

import "math"

// laplaceScore scores a cluster against a vision lead hypothesis using the
// product of three Laplace-kernel terms (distance, lateral, absolute
// velocity), as described in spec §4.5 "Vision→radar association".
func laplaceScore(tn Tuning, v VisionLead, c *Cluster) float64 {
	visionDRel := v.X + tn.RadarToCamera
	dDist := math.Abs(visionDRel - c.DRel)
	dLat := math.Abs(v.Y - c.YRel)
	dVel := math.Abs(v.V - c.VLead)

	sDist := math.Exp(-dDist / tn.LaplaceBDistance)
	sLat := math.Exp(-dLat / tn.LaplaceBLateral)
	sVel := math.Exp(-dVel / tn.LaplaceBVelocity)
	return sDist * sLat * sVel
}

// sanityGate returns true if the candidate cluster is a plausible match for
// the vision lead: distance error bounded, and either the velocity error is
// small or the pair is clearly closing.
func sanityGate(tn Tuning, v VisionLead, c *Cluster, vEgo float64) bool {
	visionDRel := v.X + tn.RadarToCamera
	dDist := math.Abs(visionDRel - c.DRel)
	distBound := math.Max(tn.SanityDistFrac*visionDRel, tn.SanityDistMin)
	if dDist >= distBound {
		return false
	}

	dVel := math.Abs(v.V - c.VLead)
	closingSpeed := vEgo - c.VLead // positive when closing
	if dVel < tn.SanityVelAbs || closingSpeed > tn.SanityVelClose {
		return true
	}
	return false
}

// matchVisionToRadar implements spec §4.5's association step: score every
// cluster, take the argmax, and apply the sanity gate. Returns (cluster,
// true) on a sane match.
func matchVisionToRadar(tn Tuning, v VisionLead, clusters []*Cluster, vEgo float64) (*Cluster, bool) {
	var best *Cluster
	bestScore := -1.0
	for _, c := range clusters {
		s := laplaceScore(tn, v, c)
		if s > bestScore {
			bestScore = s
			best = c
		}
	}
	if best == nil {
		return nil, false
	}
	if !sanityGate(tn, v, best, vEgo) {
		return nil, false
	}
	return best, true
}
