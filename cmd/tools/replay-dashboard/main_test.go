package main

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/adascore/controller/internal/radarfusion"
	"github.com/adascore/controller/internal/recorder"
)

func openTestRecorder(t *testing.T) *recorder.Recorder {
	t.Helper()
	rec, err := recorder.Open(t.TempDir() + "/capture.db")
	require.NoError(t, err)
	t.Cleanup(func() { rec.Close() })
	return rec
}

func TestHandleLeadOneChartRendersMostRecentRunWhenNoneRequested(t *testing.T) {
	rec := openTestRecorder(t)
	runID, err := rec.StartRun("radarfusion", "", 0)
	require.NoError(t, err)
	require.NoError(t, rec.RecordRadarState(0, 0, radarfusion.RadarState{
		Valid:   true,
		LeadOne: radarfusion.Lead{Status: true, DRel: 35, VRel: -2},
	}))

	handler := handleLeadOneChart(rec)
	req := httptest.NewRequest(http.MethodGet, "/radarfusion/lead-one", nil)
	rr := httptest.NewRecorder()
	handler(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), runID)
	require.Contains(t, rr.Header().Get("Content-Type"), "text/html")
}

func TestHandleLeadOneChartHonorsRunQueryParam(t *testing.T) {
	rec := openTestRecorder(t)
	_, err := rec.StartRun("radarfusion", "first", 0)
	require.NoError(t, err)
	require.NoError(t, rec.RecordRadarState(0, 0, radarfusion.RadarState{Valid: true}))

	secondRunID, err := rec.StartRun("radarfusion", "second", 1)
	require.NoError(t, err)
	require.NoError(t, rec.RecordRadarState(0, 0, radarfusion.RadarState{Valid: true}))

	handler := handleLeadOneChart(rec)
	req := httptest.NewRequest(http.MethodGet, "/radarfusion/lead-one?run="+secondRunID, nil)
	rr := httptest.NewRecorder()
	handler(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), secondRunID)
}

func TestHandleLeadOneChartReturnsNotFoundWithoutAnyRun(t *testing.T) {
	rec := openTestRecorder(t)

	handler := handleLeadOneChart(rec)
	req := httptest.NewRequest(http.MethodGet, "/radarfusion/lead-one", nil)
	rr := httptest.NewRecorder()
	handler(rr, req)

	require.Equal(t, http.StatusNotFound, rr.Code)
}
