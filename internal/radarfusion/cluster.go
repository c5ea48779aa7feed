package radarfusion

import "gonum.org/v1/gonum/floats"

// Cluster aggregates Tracks with similar (dRel, vLead) produced by spatial
// clustering each tick (spec §3 "Cluster"). Clusters are ephemeral: rebuilt
// from scratch every tick.
type Cluster struct {
	DRel, YRel, VLead float64
	ALeadK, ALeadTau  float64
	Members           []*Track
}

// PotentialLowSpeedLead classifies whether this cluster is a plausible
// low-speed-override lead: slow-moving and close, conditions under which
// the richer vision/path matching is unreliable.
func (c *Cluster) PotentialLowSpeedLead(vEgo float64) bool {
	return vEgo < 5 && c.DRel > 0 && c.DRel < 15 && c.VLead < 5
}

// clusterKey returns the 4-vector [dRel, yRel, vLead, 1] spec §4.4 step 3
// clusters on; the trailing 1 gives every track equal weight in the
// centroid average regardless of which fields happen to be near zero.
func clusterKey(t *Track) [4]float64 {
	return [4]float64{t.DRelFiltered(), t.YRel, t.VLeadK(), 1}
}

func keyDistance(a, b [4]float64) float64 {
	return floats.Distance(a[:], b[:], 2)
}

// clusterTracks performs centroid clustering with a fixed distance
// threshold. A single track bypasses clustering entirely and is wrapped in
// a one-element cluster directly — a documented workaround preserved from
// the original clustering primitive, which hangs on N=1 input.
func clusterTracks(tracks []*Track, threshold float64) []*Cluster {
	if len(tracks) == 0 {
		return nil
	}
	if len(tracks) == 1 {
		return []*Cluster{clusterFrom(tracks)}
	}

	keys := make([][4]float64, len(tracks))
	for i, t := range tracks {
		keys[i] = clusterKey(t)
	}

	assigned := make([]int, len(tracks))
	for i := range assigned {
		assigned[i] = -1
	}

	var groups [][]int
	for i := range tracks {
		if assigned[i] != -1 {
			continue
		}
		group := []int{i}
		assigned[i] = len(groups)
		centroid := keys[i]
		for j := i + 1; j < len(tracks); j++ {
			if assigned[j] != -1 {
				continue
			}
			if keyDistance(centroid, keys[j]) <= threshold {
				group = append(group, j)
				assigned[j] = len(groups)
				centroid = recentroid(keys, group)
			}
		}
		groups = append(groups, group)
	}

	clusters := make([]*Cluster, 0, len(groups))
	for _, g := range groups {
		members := make([]*Track, len(g))
		for i, idx := range g {
			members[i] = tracks[idx]
		}
		clusters = append(clusters, clusterFrom(members))
	}
	return clusters
}

func recentroid(keys [][4]float64, group []int) [4]float64 {
	var c [4]float64
	for _, idx := range group {
		for d := 0; d < 4; d++ {
			c[d] += keys[idx][d]
		}
	}
	n := float64(len(group))
	for d := 0; d < 4; d++ {
		c[d] /= n
	}
	return c
}

func clusterFrom(members []*Track) *Cluster {
	c := &Cluster{Members: members}
	n := float64(len(members))
	for _, t := range members {
		c.DRel += t.DRelFiltered()
		c.YRel += t.YRel
		c.VLead += t.VLeadK()
		c.ALeadK += t.ALeadK
		c.ALeadTau += t.ALeadTau
	}
	c.DRel /= n
	c.YRel /= n
	c.VLead /= n
	c.ALeadK /= n
	c.ALeadTau /= n
	return c
}
