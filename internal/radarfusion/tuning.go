package radarfusion

import "github.com/adascore/controller/internal/config"

// Tuning holds every RF constant derived from config.RadarFusionTuning,
// with hardcoded defaults for anything not overridden.
type Tuning struct {
	ClusterDistanceThreshold float64
	EgoVelocityDelaySamples  int

	KalmanGainPosBP, KalmanGainPosV []float64
	KalmanGainVelBP, KalmanGainVelV []float64

	RadarToCamera float64

	LaplaceBDistance, LaplaceBLateral, LaplaceBVelocity float64

	SanityDistFrac, SanityDistMin, SanityVelAbs, SanityVelClose float64

	ModelPathDRelMin, ModelPathDRelMax, ModelPathYRelMax float64
	ModelPathDevToleranceBP, ModelPathDevToleranceV      []float64
	StickyMiddleDelta                                    float64
	ModelPathMinClosing, LanelineMinClosing              float64
	LanelineMinWidth, LanelineMinProb                    float64

	LowSpeedMaxVEgo float64

	LeadPlusOneMaxSteerAngle float64
	LeadPlusOneMinModelProb float64
	LeadPlusOneMinRelDistBP, LeadPlusOneMinRelDistV []float64

	LongRangeSmoothBP                        []float64
	LongRangeResetDRelBP, LongRangeResetDRelV []float64
	LongRangeResetYRelDelta                  float64
	LongRangeCloseDRel                       float64
}

// NewTuning builds Tuning from an optional override, filling unset fields
// with the hardcoded defaults named throughout spec §4.4-4.6.
func NewTuning(t *config.RadarFusionTuning) Tuning {
	if t == nil {
		t = &config.RadarFusionTuning{}
	}
	tn := Tuning{
		ClusterDistanceThreshold: f64Or(t.ClusterDistanceThreshold, 2.5),
		EgoVelocityDelaySamples:  intOr(t.EgoVelocityDelaySamples, 2),

		RadarToCamera: f64Or(t.RadarToCamera, 1.52),

		LaplaceBDistance: f64Or(t.LaplaceBDistance, 2.0),
		LaplaceBLateral:  f64Or(t.LaplaceBLateral, 1.0),
		LaplaceBVelocity: f64Or(t.LaplaceBVelocity, 2.0),

		SanityDistFrac:  f64Or(t.SanityDistFrac, 0.25),
		SanityDistMin:   f64Or(t.SanityDistMin, 5.0),
		SanityVelAbs:    f64Or(t.SanityVelAbs, 10.0),
		SanityVelClose:  f64Or(t.SanityVelClose, 3.0),

		ModelPathDRelMin: f64Or(t.ModelPathDRelMin, 60.0),
		ModelPathDRelMax: f64Or(t.ModelPathDRelMax, 152.0),
		ModelPathYRelMax: f64Or(t.ModelPathYRelMax, 12.0),
		StickyMiddleDelta: f64Or(t.StickyMiddleDelta, 0.5),
		ModelPathMinClosing: f64Or(t.ModelPathMinClosing, 8.0),
		LanelineMinClosing:  f64Or(t.LanelineMinClosing, -0.5),
		LanelineMinWidth:    f64Or(t.LanelineMinWidth, 2.0),
		LanelineMinProb:     f64Or(t.LanelineMinProb, 0.6),

		LowSpeedMaxVEgo: f64Or(t.LowSpeedMaxVEgo, 5.0),

		LeadPlusOneMaxSteerAngle: f64Or(t.LeadPlusOneMaxSteerAngle, 15.0),
		LeadPlusOneMinModelProb:  f64Or(t.LeadPlusOneMinModelProb, 0.5),

		LongRangeResetYRelDelta: f64Or(t.LongRangeResetYRelDelta, 0.8),
		LongRangeCloseDRel:      f64Or(t.LongRangeCloseDRel, 145.0),
	}

	kgPos := tableOr(t.KalmanGainPos, []float64{0.01, 0.10}, []float64{0.6, 0.25})
	tn.KalmanGainPosBP, tn.KalmanGainPosV = kgPos.BP, kgPos.V
	kgVel := tableOr(t.KalmanGainVel, []float64{0.01, 0.10}, []float64{0.3, 0.08})
	tn.KalmanGainVelBP, tn.KalmanGainVelV = kgVel.BP, kgVel.V

	dev := tableOr(t.ModelPathDevTolerance, []float64{0}, []float64{1.2})
	tn.ModelPathDevToleranceBP, tn.ModelPathDevToleranceV = dev.BP, dev.V

	rel := tableOr(t.LeadPlusOneMinRelDist, []float64{0, 100}, []float64{3, 6})
	tn.LeadPlusOneMinRelDistBP, tn.LeadPlusOneMinRelDistV = rel.BP, rel.V

	tn.LongRangeSmoothBP = sliceOr(t.LongRangeSmoothBP, []float64{145, 152})

	resetDRel := tableOr(t.LongRangeResetDRelBP, []float64{145, 152}, []float64{8, 20})
	tn.LongRangeResetDRelBP, tn.LongRangeResetDRelV = resetDRel.BP, resetDRel.V

	return tn
}

func f64Or(p *float64, def float64) float64 {
	if p == nil {
		return def
	}
	return *p
}

func intOr(p *int, def int) int {
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
