package radarfusion

import "math"

// LongRangeLead owns six first-order smoothing filters, one per kinematic
// field (dRel, vRel, vLead, vLeadK, aLeadK, aLeadTau), as described in spec §3
// "LongRangeLead filter" and §4.6. yRel is left unfiltered.
type LongRangeLead struct {
	initialized bool
	dRel, vRel, vLead, vLeadK, aLeadK, aLeadTau float64

	havePrior bool
	prior     Lead
}

// Reset clears the filter; the next Update reseeds every field from the
// incoming lead rather than blending.
func (f *LongRangeLead) Reset() {
	f.initialized = false
}

func stepFilter(state *float64, initialized bool, target, alpha float64) float64 {
	if !initialized {
		*state = target
		return *state
	}
	*state += alpha * (target - *state)
	return *state
}

// Update runs one tick of long-range smoothing on `lead` and returns the
// (possibly filtered) output lead, per spec §4.6.
func (f *LongRangeLead) Update(tn Tuning, lead Lead) Lead {
	if !lead.Status {
		f.Reset()
		f.havePrior = true
		f.prior = lead
		return lead
	}

	resetNow := false
	if lead.CheckSource == CheckSourceModelLead || lead.DRel < tn.LongRangeCloseDRel {
		resetNow = true
	} else if f.havePrior && f.prior.Status {
		dRelTol := interp(lead.DRel, tn.LongRangeResetDRelBP, tn.LongRangeResetDRelV)
		if math.Abs(lead.DRel-f.prior.DRel) > dRelTol || math.Abs(lead.YRel-f.prior.YRel) > tn.LongRangeResetYRelDelta {
			resetNow = true
		}
	}

	if resetNow {
		f.Reset()
	}

	alpha := interp(lead.DRel, tn.LongRangeSmoothBP, []float64{0, 1})

	fDRel := stepFilter(&f.dRel, f.initialized, lead.DRel, alpha)
	fVRel := stepFilter(&f.vRel, f.initialized, lead.VRel, alpha)
	fVLead := stepFilter(&f.vLead, f.initialized, lead.VLead, alpha)
	fVLeadK := stepFilter(&f.vLeadK, f.initialized, lead.VLeadK, alpha)
	fALeadK := stepFilter(&f.aLeadK, f.initialized, lead.ALeadK, alpha)
	fALeadTau := stepFilter(&f.aLeadTau, f.initialized, lead.ALeadTau, alpha)
	f.initialized = true

	out := lead
	if lead.CheckSource != CheckSourceModelLead {
		out.DRel, out.VRel = fDRel, fVRel
		out.VLead, out.VLeadK, out.ALeadK, out.ALeadTau = fVLead, fVLeadK, fALeadK, fALeadTau
	}

	f.havePrior = true
	f.prior = lead
	return out
}
