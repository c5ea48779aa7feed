package radarfusion

import "gonum.org/v1/gonum/mat"

// Track is the per-radar-id Kalman-filtered state (spec §3 "Track").
// Position/velocity are tracked with a 2-state constant-velocity Kalman
// filter; the gain is interpolated from a precomputed table rather than
// propagating a full covariance matrix each tick, matching the offline
// gain-scheduling approach the spec's GLOSSARY describes.
type Track struct {
	ID int

	DRel, YRel, VRel float64
	VLead            float64

	x *mat.VecDense // [position, velocity] Kalman state, position = dRel

	ALeadK   float64
	ALeadTau float64

	Count    int
	Measured bool
}

func newTrack(id int, dRel, yRel, vRel, vLead float64) *Track {
	return &Track{
		ID:    id,
		DRel:  dRel,
		YRel:  yRel,
		VRel:  vRel,
		VLead: vLead,
		x:     mat.NewVecDense(2, []float64{dRel, vRel}),
		Count: 1,
	}
}

// kalmanGain interpolates the precomputed [posGain, velGain] pair for the
// given tick interval.
func kalmanGain(tn Tuning, dt float64) (kPos, kVel float64) {
	kPos = interp(dt, tn.KalmanGainPosBP, tn.KalmanGainPosV)
	kVel = interp(dt, tn.KalmanGainVelBP, tn.KalmanGainVelV)
	return
}

// update runs one Kalman predict/correct step: A = [[1,dt],[0,1]], C =
// [1,0], measurement z = dRel. yRel and vLead are carried through as
// direct observations (the spec only Kalman-filters the longitudinal
// channel).
func (t *Track) update(tn Tuning, dRel, yRel, vRel, vLead float64, dt float64, measured bool) {
	a := mat.NewDense(2, 2, []float64{1, dt, 0, 1})
	var pred mat.VecDense
	pred.MulVec(a, t.x)

	innovation := dRel - pred.AtVec(0)
	kPos, kVel := kalmanGain(tn, dt)

	newPos := pred.AtVec(0) + kPos*innovation
	newVel := pred.AtVec(1) + kVel*innovation
	t.x = mat.NewVecDense(2, []float64{newPos, newVel})

	t.DRel = dRel
	t.YRel = yRel
	t.VRel = vRel
	t.VLead = vLead
	t.Measured = measured
	t.Count++
}

// VLeadK is the Kalman-filtered absolute lead velocity implied by the
// filtered relative-velocity state plus the track's last-observed vLead
// offset (vLead = vRel + vEgo, so vLeadK tracks the same offset applied to
// the filtered channel).
func (t *Track) VLeadK() float64 {
	return t.x.AtVec(1) + (t.VLead - t.VRel)
}

// DRelFiltered is the Kalman-filtered longitudinal distance.
func (t *Track) DRelFiltered() float64 {
	return t.x.AtVec(0)
}
