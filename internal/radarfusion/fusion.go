package radarfusion

import "github.com/adascore/controller/internal/monitoring"

// RadarFusion is the Radar Fusion entry point (spec §2 RF). It owns the
// track table and the three LongRangeLead smoothing filters, all of which
// persist across ticks.
type RadarFusion struct {
	tuning  Tuning
	tracker *Tracker

	lrLeadOne     LongRangeLead
	lrLeadTwo     LongRangeLead
	lrLeadOnePlus LongRangeLead

	lastTickNanos int64
}

// NewRadarFusion builds a RadarFusion with an empty track table.
func NewRadarFusion(tn Tuning) *RadarFusion {
	return &RadarFusion{tuning: tn, tracker: NewTracker(tn)}
}

// Update runs one RF tick (spec §2 RF.update) and returns the RadarState.
func (rf *RadarFusion) Update(in Inputs, dt float64) RadarState {
	ids, clusters := rf.tracker.Update(in.RadarPoints, in.VEgo, dt)
	_ = ids

	ref, haveRef := buildReference(rf.tuning, in)

	var visionLead0, visionLead1 VisionLead
	haveVision0 := len(in.VisionLeads) > 0
	haveVision1 := len(in.VisionLeads) > 1
	if haveVision0 {
		visionLead0 = in.VisionLeads[0]
	}
	if haveVision1 {
		visionLead1 = in.VisionLeads[1]
	}

	leadOne := computeLead(rf.tuning, visionLead0, haveVision0, clusters, ref, haveRef, in.VEgo)
	leadOne = applyLowSpeedOverride(leadOne, clusters, in.VEgo)

	leadTwo := computeLead(rf.tuning, visionLead1, haveVision1, clusters, ref, haveRef, in.VEgo)

	left, center, right := pathAdjacentLeads(rf.tuning, clusters, ref, haveRef, in.LaneWidth)

	var leadOnePlus Lead
	if in.ExtendedRadar {
		leadOnePlus = leadPlusOne(rf.tuning, in, leadOne, center)
	}

	leadOne = rf.lrLeadOne.Update(rf.tuning, leadOne)
	leadTwo = rf.lrLeadTwo.Update(rf.tuning, leadTwo)
	if in.ExtendedRadar {
		leadOnePlus = rf.lrLeadOnePlus.Update(rf.tuning, leadOnePlus)
	} else {
		rf.lrLeadOnePlus.Reset()
	}

	valid := len(in.RadarErrors) == 0

	if !valid {
		monitoring.Logf("radarfusion: radar errors present this tick: %v", in.RadarErrors)
	}

	return RadarState{
		MdMonoTime:       in.MdMonoTime,
		CarStateMonoTime: in.CarStateMonoTime,
		CanMonoTimes:     in.CanMonoTimes,
		RadarErrors:      in.RadarErrors,

		LeadOne:     leadOne,
		LeadTwo:     leadTwo,
		LeadOnePlus: leadOnePlus,

		LeadsLeft:   left,
		LeadsCenter: center,
		LeadsRight:  right,

		Valid: valid,

		LiveTracks: rf.tracker.LiveTracks(),
	}
}
