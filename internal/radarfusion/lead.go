package radarfusion

import (
	"math"
	"sort"
)

// leadFromCluster builds a Lead record from a matched cluster.
func leadFromCluster(c *Cluster, source LeadSource, checkSource CheckSource, modelProb float64) Lead {
	return Lead{
		Status:      true,
		Source:      source,
		CheckSource: checkSource,
		DRel:        c.DRel,
		YRel:        c.YRel,
		VLead:       c.VLead,
		VLeadK:      c.VLead,
		ALeadK:      c.ALeadK,
		ALeadTau:    c.ALeadTau,
		ModelProb:   modelProb,
	}
}

// syntheticVisionLead builds a vision-only lead when no radar fallback
// succeeds (spec §4.5 "get_RadarState_from_vision").
func syntheticVisionLead(tn Tuning, v VisionLead) Lead {
	return Lead{
		Status:      true,
		Source:      LeadSourceVision,
		CheckSource: CheckSourceNone,
		DRel:        v.X + tn.RadarToCamera,
		YRel:        v.Y,
		VRel:        0,
		VLead:       v.V,
		VLeadK:      v.V,
		ModelProb:   v.Prob,
	}
}

// computeLead runs the full vision↔radar association plus fallback chain
// described in spec §4.5 for a single vision lead hypothesis.
func computeLead(tn Tuning, v VisionLead, haveVision bool, clusters []*Cluster, ref reference, haveRef bool, vEgo float64) Lead {
	if haveVision {
		if c, ok := matchVisionToRadar(tn, v, clusters, vEgo); ok {
			return leadFromCluster(c, LeadSourceRadar, CheckSourceModelLead, v.Prob)
		}
		if v.Prob >= 0.5 {
			if haveRef {
				if ref.kind == CheckSourceModelPath {
					if c, ok := matchReferenceToCluster(tn, ref, clusters, vEgo, tn.ModelPathMinClosing); ok {
						return leadFromCluster(c, LeadSourceVision, CheckSourceModelPath, v.Prob)
					}
				} else {
					if c, ok := matchReferenceToCluster(tn, ref, clusters, vEgo, tn.LanelineMinClosing); ok {
						return leadFromCluster(c, LeadSourceVision, CheckSourceModelLaneLines, v.Prob)
					}
				}
			}
			return syntheticVisionLead(tn, v)
		}
	} else if haveRef {
		// No vision hypothesis at all: still attempt the path/laneline
		// fallback directly (spec §8 scenario 4, long-range model-path
		// lead with no vision lead message).
		if ref.kind == CheckSourceModelPath {
			if c, ok := matchReferenceToCluster(tn, ref, clusters, vEgo, tn.ModelPathMinClosing); ok {
				return leadFromCluster(c, LeadSourceVision, CheckSourceModelPath, 1.0)
			}
		} else {
			if c, ok := matchReferenceToCluster(tn, ref, clusters, vEgo, tn.LanelineMinClosing); ok {
				return leadFromCluster(c, LeadSourceVision, CheckSourceModelLaneLines, 1.0)
			}
		}
	}
	return Lead{}
}

// applyLowSpeedOverride replaces current with the nearest low-speed-lead
// cluster if current has no status or is farther away (spec §4.5).
func applyLowSpeedOverride(current Lead, clusters []*Cluster, vEgo float64) Lead {
	var best *Cluster
	for _, c := range clusters {
		if !c.PotentialLowSpeedLead(vEgo) {
			continue
		}
		if best == nil || c.DRel < best.DRel {
			best = c
		}
	}
	if best == nil {
		return current
	}
	if current.Status && current.DRel <= best.DRel {
		return current
	}
	return leadFromCluster(best, LeadSourceRadar, CheckSourceLowSpeedOverride, 0)
}

// leadPlusOne selects the second car ahead: the nearest center-lane lead
// beyond leadOne.DRel plus a minimum separation interpolated on
// leadOne.DRel (spec §4.5).
func leadPlusOne(tn Tuning, in Inputs, leadOne Lead, center []Lead) Lead {
	if !in.ExtendedRadar || !in.LongRangeLeadsEnabled {
		return Lead{}
	}
	if math.Abs(in.SteeringAngle) >= tn.LeadPlusOneMaxSteerAngle {
		return Lead{}
	}
	if !leadOne.Status || leadOne.ModelProb <= tn.LeadPlusOneMinModelProb {
		return Lead{}
	}

	minGap := interp(leadOne.DRel, tn.LeadPlusOneMinRelDistBP, tn.LeadPlusOneMinRelDistV)
	threshold := leadOne.DRel + minGap

	for _, l := range center {
		if l.DRel > threshold {
			l.Status = true
			l.Source = LeadSourceRadar
			if l.DRel > 145 {
				l.Source = LeadSourceVision
			}
			return l
		}
	}
	return Lead{}
}

// pathAdjacentLeads partitions every cluster into left/center/right lists
// using the best available reference, per spec §4.5's final paragraph. When
// no reference resolved this tick, every cluster is omitted from all three
// lists (see DESIGN.md Open Question #3).
func pathAdjacentLeads(tn Tuning, clusters []*Cluster, ref reference, haveRef bool, laneWidth float64) (left, center, right []Lead) {
	if !haveRef {
		return nil, nil, nil
	}
	for _, c := range clusters {
		dPath := -c.YRel - ref.yAt(c.DRel)
		source := LeadSourceRadar
		if c.DRel > 145 {
			source = LeadSourceVision
		}
		l := Lead{
			Status:      true,
			Source:      source,
			CheckSource: ref.kind,
			DRel:        c.DRel,
			YRel:        c.YRel,
			VLead:       c.VLead,
			VLeadK:      c.VLead,
			ALeadK:      c.ALeadK,
			ALeadTau:    c.ALeadTau,
			DPath:       dPath,
		}
		switch {
		case math.Abs(dPath) < laneWidth/2 && c.VLead > -1:
			center = append(center, l)
		case dPath < 0:
			left = append(left, l)
		default:
			right = append(right, l)
		}
	}

	sortByAbsDPath := func(leads []Lead) {
		sort.Slice(leads, func(i, j int) bool { return math.Abs(leads[i].DPath) < math.Abs(leads[j].DPath) })
	}
	sortByAbsDPath(left)
	sortByAbsDPath(right)
	sort.Slice(center, func(i, j int) bool { return center[i].DRel < center[j].DRel })

	return left, center, right
}
