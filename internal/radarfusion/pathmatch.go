package radarfusion

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// reference is the "best available reference" spec §4.5/§4.6 uses both to
// match candidate leads and to partition the full cluster set: the model
// path when present, otherwise a synthesized laneline centerline.
type reference struct {
	kind CheckSource
	yAt  func(dRel float64) float64
}

// buildReference resolves the model-path-or-lanelines reference for this
// tick, per the Open Question decision in DESIGN.md: a laneline reference
// is only returned when synthesis actually succeeds, never a half-built
// one that would force callers to dereference something absent.
func buildReference(tn Tuning, in Inputs) (reference, bool) {
	if in.Path != nil && len(in.Path.X) > 0 && len(in.Path.X) == len(in.Path.Y) {
		path := in.Path
		return reference{
			kind: CheckSourceModelPath,
			yAt:  func(dRel float64) float64 { return interp(dRel, path.X, path.Y) },
		}, true
	}

	if y, ok := synthesizeLaneCenter(tn, in); ok {
		return reference{kind: CheckSourceModelLaneLines, yAt: y}, true
	}

	return reference{}, false
}

// synthesizeLaneCenter builds a center-line y(dRel) function from the four
// laneline polylines, per spec §4.5 "Laneline matching": average lanes 1
// and 2 when both are confident, otherwise offset from whichever single
// lane is confident, otherwise fail.
func synthesizeLaneCenter(tn Tuning, in Inputs) (func(dRel float64) float64, bool) {
	haveLines := true
	for _, l := range in.LaneLines {
		if len(l.X) == 0 || len(l.X) != len(l.Y) {
			haveLines = false
			break
		}
	}
	if !haveLines || in.LaneWidth < tn.LanelineMinWidth {
		return nil, false
	}

	p1, p2 := in.LaneLineProbs[1], in.LaneLineProbs[2]
	if p1 > tn.LanelineMinProb && p2 > tn.LanelineMinProb {
		l1, l2 := in.LaneLines[1], in.LaneLines[2]
		return func(dRel float64) float64 {
			y1 := interp(dRel, l1.X, l1.Y)
			y2 := interp(dRel, l2.X, l2.Y)
			return stat.Mean([]float64{y1, y2}, nil)
		}, true
	}

	type candidate struct {
		idx  int
		line LaneLine
		sign float64
	}
	candidates := []candidate{
		{0, in.LaneLines[0], +1},
		{1, in.LaneLines[1], +1},
		{2, in.LaneLines[2], -1},
		{3, in.LaneLines[3], -1},
	}
	for _, c := range candidates {
		if in.LaneLineProbs[c.idx] > tn.LanelineMinProb {
			line := c.line
			offset := c.sign * in.LaneWidth / 2
			return func(dRel float64) float64 {
				return interp(dRel, line.X, line.Y) + offset
			}, true
		}
	}
	return nil, false
}

// candidateMatch is an intermediate result while scanning clusters for the
// best path/laneline match.
type candidateMatch struct {
	cluster   *Cluster
	deviation float64
}

// matchReferenceToCluster runs the shared "candidate filter + sticky
// middle" selection spec §4.5 describes for both model-path and laneline
// matching, differing only in the closing-speed sanity bound passed as
// minClosing; both use the same ModelPathDevTolerance table.
func matchReferenceToCluster(tn Tuning, ref reference, clusters []*Cluster, vEgo float64, minClosing float64) (*Cluster, bool) {
	var candidates []candidateMatch
	for _, c := range clusters {
		if c.DRel < tn.ModelPathDRelMin || c.DRel > tn.ModelPathDRelMax {
			continue
		}
		if math.Abs(c.YRel) > tn.ModelPathYRelMax {
			continue
		}
		tolerance := interp(c.DRel, tn.ModelPathDevToleranceBP, tn.ModelPathDevToleranceV)
		deviation := math.Abs(-c.YRel - ref.yAt(c.DRel))
		if deviation > tolerance {
			continue
		}
		candidates = append(candidates, candidateMatch{cluster: c, deviation: deviation})
	}
	if len(candidates) == 0 {
		return nil, false
	}

	sort.Slice(candidates, func(i, j int) bool { return candidates[i].deviation < candidates[j].deviation })

	selected := candidates[0]
	for _, cand := range candidates[1:] {
		if cand.deviation <= tn.StickyMiddleDelta && cand.cluster.DRel < selected.cluster.DRel {
			selected = cand
			continue
		}
		break
	}

	// v_ego + vRel reduces to vLead since vRel is defined as vLead - vEgo;
	// the path shortens under braking, so slow/stopped leads are unreliable
	// model-path matches (spec §4.5).
	if selected.cluster.VLead < minClosing {
		return nil, false
	}
	return selected.cluster, true
}
