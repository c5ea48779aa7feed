package radarfusion

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLongRangePassthroughForModelLead(t *testing.T) {
	tn := NewTuning(nil)
	var f LongRangeLead

	lead := Lead{Status: true, CheckSource: CheckSourceModelLead, DRel: 40, YRel: 0.1, VLead: 20}
	out := f.Update(tn, lead)
	require.Equal(t, lead, out)

	out = f.Update(tn, lead)
	require.Equal(t, lead, out)
}

func TestLongRangeResetIdempotent(t *testing.T) {
	tn := NewTuning(nil)
	var f1, f2 LongRangeLead

	lead := Lead{Status: false}
	out1 := f1.Update(tn, lead)
	f2.Update(tn, lead)
	out2 := f2.Update(tn, lead)

	require.Equal(t, out1, out2)
}

func TestLongRangeAlphaZeroAt145(t *testing.T) {
	tn := NewTuning(nil)
	alpha := interp(145, tn.LongRangeSmoothBP, []float64{0, 1})
	require.Equal(t, 0.0, alpha)
}

func TestLongRangeSmoothingEngagesBeyond145(t *testing.T) {
	tn := NewTuning(nil)
	var f LongRangeLead

	lead := Lead{Status: true, CheckSource: CheckSourceModelPath, DRel: 150, YRel: 0, VLead: 10}
	first := f.Update(tn, lead)
	require.Equal(t, lead.DRel, first.DRel) // first sample seeds the filter

	lead2 := Lead{Status: true, CheckSource: CheckSourceModelPath, DRel: 150.5, YRel: 0, VLead: 9}
	second := f.Update(tn, lead2)
	require.NotEqual(t, lead2.VLead, second.VLead)
}
