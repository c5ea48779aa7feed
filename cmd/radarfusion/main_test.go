package main

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/adascore/controller/internal/config"
	"github.com/adascore/controller/internal/radarfusion"
	"github.com/adascore/controller/internal/recorder"
	"github.com/adascore/controller/internal/timeutil"
	"github.com/adascore/controller/internal/transport"
)

func openTestRecorder(t *testing.T) *recorder.Recorder {
	t.Helper()
	rec, err := recorder.Open(t.TempDir() + "/capture.db")
	require.NoError(t, err)
	t.Cleanup(func() { rec.Close() })
	_, err = rec.StartRun("radarfusion", "test", time.Now().UnixNano())
	require.NoError(t, err)
	return rec
}

func TestRunFeedsVisionTicksThroughRadarFusion(t *testing.T) {
	cfg := config.MustLoadDefaultConfig()
	rf := radarfusion.NewRadarFusion(radarfusion.NewTuning(cfg.RadarFusion))
	rec := openTestRecorder(t)
	radar := transport.NewMockRadarPort(nil)
	clock := timeutil.NewMockClock(time.Unix(0, 0))

	input := strings.NewReader(
		`{"vision_leads":[],"v_ego":20}` + "\n" +
			`{"vision_leads":[],"v_ego":21}` + "\n",
	)

	ctx := t.Context()
	go radar.Monitor(ctx)

	err := run(ctx, rf, 0.05, input, radar, rec, nil, clock)
	require.NoError(t, err)
}

func TestRunSkipsMalformedVisionTicks(t *testing.T) {
	cfg := config.MustLoadDefaultConfig()
	rf := radarfusion.NewRadarFusion(radarfusion.NewTuning(cfg.RadarFusion))
	rec := openTestRecorder(t)
	radar := transport.NewMockRadarPort(nil)
	clock := timeutil.NewMockClock(time.Unix(0, 0))

	input := strings.NewReader("not json\n" + `{"vision_leads":[],"v_ego":5}` + "\n")

	ctx := t.Context()
	go radar.Monitor(ctx)

	err := run(ctx, rf, 0.05, input, radar, rec, nil, clock)
	require.NoError(t, err)
}
