package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func startTestPublisher(t *testing.T) (*Publisher, string) {
	t.Helper()
	pub := NewPublisher(Config{ListenAddr: "localhost:0"})
	require.NoError(t, pub.Start())
	t.Cleanup(pub.Stop)

	// Start() assigns the listener before returning, so its Addr() is ready.
	return pub, pub.listener.Addr().String()
}

func TestEncodeDecodeFrameRoundTrips(t *testing.T) {
	tick := Tick{Subsystem: "radarfusion", Seq: 7, Payload: []byte(`{"valid":true}`)}
	frame, err := EncodeFrame(tick)
	require.NoError(t, err)

	decoded, err := DecodeFrame(frame)
	require.NoError(t, err)
	if diff := cmp.Diff(tick, decoded); diff != "" {
		t.Errorf("decoded tick mismatch (-want +got):\n%s", diff)
	}
}

func TestPublishSubscribeDeliversFilteredTicks(t *testing.T) {
	pub, addr := startTestPublisher(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	ticks, closeStream, err := Dial(ctx, addr, "radarfusion")
	require.NoError(t, err)
	defer closeStream()

	// Give the server a moment to register the subscriber before publishing.
	require.Eventually(t, func() bool { return pub.clientCount.Load() == 1 }, 2*time.Second, 10*time.Millisecond)

	pub.Publish(Tick{Subsystem: "actuation", Seq: 1, Payload: []byte("ignored")})
	pub.Publish(Tick{Subsystem: "radarfusion", Seq: 2, Payload: []byte(`{"valid":true}`)})

	select {
	case got := <-ticks:
		require.Equal(t, "radarfusion", got.Subsystem)
		require.Equal(t, uint64(2), got.Seq)
	case <-ctx.Done():
		t.Fatal("timed out waiting for tick")
	}
}
