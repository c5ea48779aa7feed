package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/adascore/controller/internal/actuation"
	"github.com/adascore/controller/internal/radarfusion"
)

type fakePort struct {
	*bytes.Buffer
	closed    bool
	writeErr  error
	writeSize int // if > 0, caps how much of a write is reported as written
}

func (f *fakePort) Write(p []byte) (int, error) {
	if f.writeErr != nil {
		return 0, f.writeErr
	}
	if f.writeSize > 0 && f.writeSize < len(p) {
		f.Buffer.Write(p[:f.writeSize])
		return f.writeSize, nil
	}
	return f.Buffer.Write(p)
}

func (f *fakePort) Close() error {
	f.closed = true
	return nil
}

func TestSerialECUPortSendEncodesFrameAsJSONLine(t *testing.T) {
	port := &fakePort{Buffer: &bytes.Buffer{}}
	ecu := NewSerialECUPort(port)

	err := ecu.Send(actuation.Frame{
		Kind:          actuation.FrameGasBrake,
		ArbitrationID: 0x1fa,
		Counter:       2,
		Payload:       map[string]any{"apply_brake": 128.0},
	})
	require.NoError(t, err)

	lines := bytes.Split(bytes.TrimRight(port.Bytes(), "\n"), []byte("\n"))
	require.Len(t, lines, 1)

	var decoded wireFrame
	require.NoError(t, json.Unmarshal(lines[0], &decoded))
	require.Equal(t, int(actuation.FrameGasBrake), decoded.Kind)
	require.Equal(t, uint32(0x1fa), decoded.ArbitrationID)
	require.Equal(t, 2, decoded.Counter)
}

func TestSerialECUPortSendPropagatesWriteError(t *testing.T) {
	port := &fakePort{Buffer: &bytes.Buffer{}, writeErr: errors.New("port gone")}
	ecu := NewSerialECUPort(port)

	err := ecu.Send(actuation.Frame{Kind: actuation.FrameSteeringCommand})
	require.Error(t, err)
}

func TestSerialECUPortSendDetectsShortWrite(t *testing.T) {
	port := &fakePort{Buffer: &bytes.Buffer{}, writeSize: 3}
	ecu := NewSerialECUPort(port)

	err := ecu.Send(actuation.Frame{Kind: actuation.FrameSteeringCommand})
	require.Error(t, err)
}

func TestMockECUPortRecordsFrames(t *testing.T) {
	mock := &MockECUPort{}

	require.NoError(t, mock.Send(actuation.Frame{Kind: actuation.FrameSteeringCommand}))
	require.NoError(t, mock.Send(actuation.Frame{Kind: actuation.FrameGasBrake}))
	require.NoError(t, mock.Close())

	require.Len(t, mock.Frames, 2)
	require.True(t, mock.Closed)
}

func TestSerialRadarPortDecodesLines(t *testing.T) {
	payload := `{"points":[{"TrackID":1,"DRel":40,"YRel":0,"VRel":-5,"Measured":true}]}` + "\n" +
		`{"points":[{"TrackID":1,"DRel":39.5,"YRel":0,"VRel":-5,"Measured":true}]}` + "\n"
	port := &fakePort{Buffer: bytes.NewBufferString(payload)}
	radar := NewSerialRadarPort(port)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- radar.Monitor(ctx) }()

	var batches [][]radarfusion.RadarPoint
	for i := 0; i < 2; i++ {
		select {
		case b, ok := <-radar.Points():
			require.True(t, ok)
			batches = append(batches, b)
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for radar batch")
		}
	}

	require.Len(t, batches, 2)
	require.Equal(t, 40.0, batches[0][0].DRel)
	require.Equal(t, 39.5, batches[1][0].DRel)

	cancel()
	<-done
}

func TestSerialRadarPortSkipsMalformedLines(t *testing.T) {
	payload := "not json\n" + `{"points":[{"TrackID":2,"DRel":10,"YRel":0,"VRel":0}]}` + "\n"
	port := &fakePort{Buffer: bytes.NewBufferString(payload)}
	radar := NewSerialRadarPort(port)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- radar.Monitor(ctx) }()

	select {
	case b := <-radar.Points():
		require.Len(t, b, 1)
		require.Equal(t, 2, b[0].TrackID)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for radar batch")
	}

	cancel()
	<-done
}

func TestMockRadarPortReplaysBatchesInOrder(t *testing.T) {
	batches := [][]radarfusion.RadarPoint{
		{{TrackID: 1, DRel: 50}},
		{{TrackID: 1, DRel: 49}},
	}
	radar := NewMockRadarPort(batches)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- radar.Monitor(ctx) }()

	got := <-radar.Points()
	require.Equal(t, 50.0, got[0].DRel)
	got = <-radar.Points()
	require.Equal(t, 49.0, got[0].DRel)

	cancel()
	<-done
}
