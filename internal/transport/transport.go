// Package transport provides the serial-port I/O adapters that sit outside
// the AC/RF domain layers: ECUPort frames outbound actuator commands to a
// bench ECU emulator, and RadarPort decodes inbound raw radar point lines.
// Neither type holds domain state; they only move bytes.
package transport

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"go.bug.st/serial"

	"github.com/adascore/controller/internal/actuation"
	"github.com/adascore/controller/internal/monitoring"
	"github.com/adascore/controller/internal/radarfusion"
)

// SerialPorter is the minimal interface both the real and mock serial ports
// satisfy.
type SerialPorter interface {
	io.ReadWriter
	io.Closer
}

// OpenSerial opens a real serial port at the given path with the framing
// AC/RF expect: 8N1 at 115200 baud, matching the teacher's radar.RadarPort
// and serialmux.NewRealSerialMux port settings.
func OpenSerial(path string) (serial.Port, error) {
	mode := &serial.Mode{
		BaudRate: 115200,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: 1,
	}
	return serial.Open(path, mode)
}

// ECUPort is AC's outbound frame sink: a bench ECU emulator reachable over a
// serial link, one JSON-encoded frame per line.
type ECUPort interface {
	Send(frame actuation.Frame) error
	Close() error
}

// wireFrame is the on-the-wire encoding of an actuation.Frame: the same
// fields, with Kind widened to a plain int so the decoder on the ECU
// emulator side doesn't need the FrameKind enum.
type wireFrame struct {
	Kind          int            `json:"kind"`
	BusID         int            `json:"bus_id"`
	ArbitrationID uint32         `json:"arbitration_id"`
	Counter       int            `json:"counter"`
	Payload       map[string]any `json:"payload,omitempty"`
}

func toWireFrame(f actuation.Frame) wireFrame {
	return wireFrame{
		Kind:          int(f.Kind),
		BusID:         f.BusID,
		ArbitrationID: f.ArbitrationID,
		Counter:       f.Counter,
		Payload:       f.Payload,
	}
}

// SerialECUPort writes frames to a serial port, one JSON object per line.
// Writes are serialized: the ECU emulator expects strictly ordered frames
// (spec §5 ordering guarantees) and concurrent writers would interleave
// partial lines.
type SerialECUPort struct {
	port SerialPorter
	mu   sync.Mutex
}

// NewSerialECUPort wraps an already-open serial port as an ECUPort.
func NewSerialECUPort(port SerialPorter) *SerialECUPort {
	return &SerialECUPort{port: port}
}

func (p *SerialECUPort) Send(frame actuation.Frame) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	line, err := json.Marshal(toWireFrame(frame))
	if err != nil {
		return fmt.Errorf("transport: encode frame: %w", err)
	}
	line = append(line, '\n')

	n, err := p.port.Write(line)
	if err != nil {
		return fmt.Errorf("transport: write frame: %w", err)
	}
	if n != len(line) {
		return fmt.Errorf("transport: short write (%d of %d bytes)", n, len(line))
	}
	return nil
}

func (p *SerialECUPort) Close() error {
	return p.port.Close()
}

// MockECUPort records every frame sent to it instead of writing to a serial
// port, for use in tests.
type MockECUPort struct {
	mu     sync.Mutex
	Frames []actuation.Frame
	Closed bool
}

func (p *MockECUPort) Send(frame actuation.Frame) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Frames = append(p.Frames, frame)
	return nil
}

func (p *MockECUPort) Close() error {
	p.Closed = true
	return nil
}

// RadarPort is RF's inbound raw-point source: a serial link carrying one
// JSON-encoded radarPointsMessage per line.
type RadarPort interface {
	// Points returns a channel of decoded radar point batches. The channel
	// is closed when Monitor returns.
	Points() <-chan []radarfusion.RadarPoint
	// Monitor reads from the underlying port until ctx is cancelled or the
	// port is closed, decoding and forwarding each line to Points().
	Monitor(ctx context.Context) error
	Close() error
}

type radarPointsMessage struct {
	Points []radarfusion.RadarPoint `json:"points"`
}

// SerialRadarPort decodes newline-delimited JSON radar point batches from a
// serial port, following the teacher's radar.RadarPort read-loop shape
// (context-driven Monitor, buffered scanner, non-blocking fan-out).
type SerialRadarPort struct {
	port   SerialPorter
	points chan []radarfusion.RadarPoint
}

// NewSerialRadarPort wraps an already-open serial port as a RadarPort.
func NewSerialRadarPort(port SerialPorter) *SerialRadarPort {
	return &SerialRadarPort{
		port:   port,
		points: make(chan []radarfusion.RadarPoint),
	}
}

func (p *SerialRadarPort) Points() <-chan []radarfusion.RadarPoint {
	return p.points
}

func (p *SerialRadarPort) Monitor(ctx context.Context) error {
	defer close(p.points)
	scan := bufio.NewScanner(p.port)

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		if !scan.Scan() {
			return scan.Err()
		}
		line := scan.Bytes()
		if len(line) == 0 {
			continue
		}

		var msg radarPointsMessage
		if err := json.Unmarshal(line, &msg); err != nil {
			monitoring.Logf("transport: malformed radar line, dropping: %v", err)
			continue
		}

		select {
		case p.points <- msg.Points:
		case <-ctx.Done():
			return nil
		}
	}
}

func (p *SerialRadarPort) Close() error {
	return p.port.Close()
}

// MockRadarPort replays radar point batches supplied directly by a test
// instead of decoding them from a serial stream.
type MockRadarPort struct {
	Batches [][]radarfusion.RadarPoint
	points  chan []radarfusion.RadarPoint
}

// NewMockRadarPort constructs a MockRadarPort that will replay the given
// batches, one per Monitor iteration, in order.
func NewMockRadarPort(batches [][]radarfusion.RadarPoint) *MockRadarPort {
	return &MockRadarPort{
		Batches: batches,
		points:  make(chan []radarfusion.RadarPoint),
	}
}

func (p *MockRadarPort) Points() <-chan []radarfusion.RadarPoint {
	return p.points
}

func (p *MockRadarPort) Monitor(ctx context.Context) error {
	defer close(p.points)
	for _, batch := range p.Batches {
		select {
		case p.points <- batch:
		case <-ctx.Done():
			return nil
		}
	}
	<-ctx.Done()
	return nil
}

func (p *MockRadarPort) Close() error {
	return nil
}
