package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/adascore/controller/internal/actuation"
	"github.com/adascore/controller/internal/config"
	"github.com/adascore/controller/internal/recorder"
	"github.com/adascore/controller/internal/timeutil"
)

func openTestRecorder(t *testing.T) *recorder.Recorder {
	t.Helper()
	rec, err := recorder.Open(t.TempDir() + "/capture.db")
	require.NoError(t, err)
	t.Cleanup(func() { rec.Close() })
	_, err = rec.StartRun("actuation", "test", time.Now().UnixNano())
	require.NoError(t, err)
	return rec
}

func TestRunFeedsTicksThroughControllerToECU(t *testing.T) {
	cfg := config.MustLoadDefaultConfig()
	ctrl := actuation.NewController(actuation.NewParams(cfg.Actuation))
	rec := openTestRecorder(t)
	ecu := &loggingCapturingECUPort{}
	clock := timeutil.NewMockClock(time.Unix(0, 0))

	input := strings.NewReader(
		`{"frame":0,"enabled":true,"car_state":{},"actuators":{},"hud":{}}` + "\n" +
			`{"frame":1,"enabled":true,"car_state":{},"actuators":{},"hud":{}}` + "\n",
	)

	err := run(t.Context(), ctrl, input, ecu, rec, nil, clock)
	require.NoError(t, err)
	require.NotEmpty(t, ecu.sent)
}

func TestRunSkipsMalformedLinesWithoutFailing(t *testing.T) {
	cfg := config.MustLoadDefaultConfig()
	ctrl := actuation.NewController(actuation.NewParams(cfg.Actuation))
	rec := openTestRecorder(t)
	ecu := &loggingCapturingECUPort{}
	clock := timeutil.NewMockClock(time.Unix(0, 0))

	input := bytes.NewBufferString("not json\n" + `{"frame":0,"enabled":false,"car_state":{},"actuators":{},"hud":{}}` + "\n")

	err := run(t.Context(), ctrl, input, ecu, rec, nil, clock)
	require.NoError(t, err)
}

type loggingCapturingECUPort struct {
	sent []actuation.Frame
}

func (p *loggingCapturingECUPort) Send(f actuation.Frame) error {
	p.sent = append(p.sent, f)
	return nil
}

func (p *loggingCapturingECUPort) Close() error { return nil }
