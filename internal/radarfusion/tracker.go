package radarfusion

import "sort"

// Tracker owns the track table and the ego-velocity delay ring used to
// align ego speed with the radar's measurement latency (spec §4.4).
type Tracker struct {
	tuning Tuning
	tracks map[int]*Track
	delay  []float64 // ring buffer, oldest-first consumption via idx
	idx    int
	filled bool
	lastDt float64
}

// NewTracker builds an empty Tracker.
func NewTracker(tn Tuning) *Tracker {
	size := tn.EgoVelocityDelaySamples + 1
	if size < 1 {
		size = 1
	}
	return &Tracker{
		tuning: tn,
		tracks: make(map[int]*Track),
		delay:  make([]float64, size),
		lastDt: 0.05,
	}
}

// pushEgoVelocity records the current ego speed and returns the delayed
// sample aligned to the radar's latency (the ring's oldest entry).
func (tr *Tracker) pushEgoVelocity(vEgo float64) float64 {
	tr.delay[tr.idx] = vEgo
	tr.idx = (tr.idx + 1) % len(tr.delay)
	if tr.idx == 0 {
		tr.filled = true
	}
	if !tr.filled {
		return vEgo
	}
	return tr.delay[tr.idx]
}

// Update runs one tick of track maintenance (spec §4.4 steps 1-4) and
// returns the sorted live track ids and the clusters derived from them.
func (tr *Tracker) Update(points []RadarPoint, vEgo float64, dt float64) (ids []int, clusters []*Cluster) {
	if dt <= 0 {
		dt = tr.lastDt
	}
	tr.lastDt = dt

	present := make(map[int]bool, len(points))
	for _, p := range points {
		present[p.TrackID] = true
	}
	for id := range tr.tracks {
		if !present[id] {
			delete(tr.tracks, id)
		}
	}

	vEgoDelayed := tr.pushEgoVelocity(vEgo)

	for _, p := range points {
		vLead := p.VRel + vEgoDelayed
		t, ok := tr.tracks[p.TrackID]
		if !ok {
			t = newTrack(p.TrackID, p.DRel, p.YRel, p.VRel, vLead)
			tr.tracks[p.TrackID] = t
		} else {
			t.update(tr.tuning, p.DRel, p.YRel, p.VRel, vLead, dt, p.Measured)
		}
	}

	ids = make([]int, 0, len(tr.tracks))
	for id := range tr.tracks {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	ordered := make([]*Track, len(ids))
	for i, id := range ids {
		ordered[i] = tr.tracks[id]
	}

	clusters = clusterTracks(ordered, tr.tuning.ClusterDistanceThreshold)

	// Newborn tracks (cnt <= 1) inherit their cluster's aggregate accel
	// estimate so they don't inject stale zeros into cluster averages.
	for _, c := range clusters {
		for _, t := range c.Members {
			if t.Count <= 1 {
				t.ALeadK = c.ALeadK
				t.ALeadTau = c.ALeadTau
			}
		}
	}

	return ids, clusters
}

// LiveTracks returns the current surviving tracks in the RadarState
// liveTracks shape.
func (tr *Tracker) LiveTracks() []LiveTrack {
	out := make([]LiveTrack, 0, len(tr.tracks))
	ids := make([]int, 0, len(tr.tracks))
	for id := range tr.tracks {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		t := tr.tracks[id]
		out = append(out, LiveTrack{TrackID: t.ID, DRel: t.DRel, YRel: t.YRel, VRel: t.VRel})
	}
	return out
}
