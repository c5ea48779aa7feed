package recorder

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/adascore/controller/internal/actuation"
	"github.com/adascore/controller/internal/radarfusion"
)

func openTestRecorder(t *testing.T) *Recorder {
	t.Helper()
	path := filepath.Join(t.TempDir(), "capture.db")
	r, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { r.Close() })
	return r
}

func TestOpenAppliesMigrations(t *testing.T) {
	r := openTestRecorder(t)

	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='capture_run'`).Scan(&count)
	require.NoError(t, err)
	require.Equal(t, 1, count)
}

func TestStartRunAndRecordActuationFrame(t *testing.T) {
	r := openTestRecorder(t)

	runID, err := r.StartRun("actuation", "bench test", 1000)
	require.NoError(t, err)
	require.NotEmpty(t, runID)

	err = r.RecordActuationFrame(0, 1001, actuation.Frame{
		Kind:          actuation.FrameSteeringCommand,
		ArbitrationID: 0x2e4,
		Counter:       1,
		Payload:       map[string]any{"steer": 0.2},
	})
	require.NoError(t, err)

	var count int
	require.NoError(t, r.db.QueryRow(`SELECT COUNT(*) FROM actuation_frame WHERE run_id = ?`, runID).Scan(&count))
	require.Equal(t, 1, count)
}

func TestRecordActuationFrameRequiresActiveRun(t *testing.T) {
	r := openTestRecorder(t)

	err := r.RecordActuationFrame(0, 0, actuation.Frame{})
	require.Error(t, err)
}

func TestRecordAndReplayRadarState(t *testing.T) {
	r := openTestRecorder(t)

	runID, err := r.StartRun("radarfusion", "", 0)
	require.NoError(t, err)

	state := radarfusion.RadarState{
		MdMonoTime: 42,
		Valid:      true,
		LeadOne:    radarfusion.Lead{Status: true, DRel: 40},
	}
	require.NoError(t, r.RecordRadarState(5, 500, state))

	states, err := r.RecentRadarStates(runID, 10)
	require.NoError(t, err)
	require.Len(t, states, 1)
	require.True(t, states[0].Valid)
	require.Equal(t, 40.0, states[0].LeadOne.DRel)
}

func TestLatestRunIDReturnsMostRecentRunForSubsystem(t *testing.T) {
	r := openTestRecorder(t)

	_, err := r.StartRun("actuation", "first", 100)
	require.NoError(t, err)
	secondID, err := r.StartRun("actuation", "second", 200)
	require.NoError(t, err)

	latest, err := r.LatestRunID("actuation")
	require.NoError(t, err)
	require.Equal(t, secondID, latest)
}

func TestRecentActuationFramesReturnsPersistedPayload(t *testing.T) {
	r := openTestRecorder(t)

	runID, err := r.StartRun("actuation", "", 0)
	require.NoError(t, err)
	require.NoError(t, r.RecordActuationFrame(0, 1, actuation.Frame{
		Kind:          actuation.FrameGasBrake,
		ArbitrationID: 0x200,
		Counter:       3,
		Payload:       map[string]any{"gas": 0.5},
	}))

	frames, err := r.RecentActuationFrames(runID, 10)
	require.NoError(t, err)
	require.Len(t, frames, 1)
	require.Equal(t, actuation.FrameGasBrake, frames[0].Kind)
	require.Equal(t, 0.5, frames[0].Payload["gas"])
}
