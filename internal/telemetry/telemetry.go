// Package telemetry streams recent AC frames and RF RadarState ticks to
// debug/visualiser subscribers over gRPC, grounded on the teacher's
// internal/lidar/visualiser gRPC publisher. No protoc-generated message
// type is available without running the toolchain (see DESIGN.md Open
// Question 4), so ticks are carried as JSON payloads wrapped in the
// well-known wrapperspb.BytesValue message rather than a bespoke
// hand-authored .proto schema.
package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"sync"
	"sync/atomic"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/adascore/controller/internal/monitoring"
)

// serviceName is the gRPC service this package hand-registers. Method names
// below match what a generated `TickStream` service would expose.
const serviceName = "adascore.telemetry.TickStream"

// Tick is one publishable unit: a subsystem tag ("actuation" or
// "radarfusion") and its JSON-encoded snapshot for that step.
type Tick struct {
	Subsystem string
	Seq       uint64
	Payload   []byte // JSON-encoded actuation.Frame slice or radarfusion.RadarState
}

// Config mirrors the teacher's visualiser Config shape: listen address and
// max concurrent subscribers. Publisher does not enforce MaxClients; the
// subsystem filter is chosen by each subscriber.
type Config struct {
	ListenAddr string
	MaxClients int
}

// DefaultConfig returns sane defaults for local debugging.
func DefaultConfig() Config {
	return Config{ListenAddr: "localhost:50061", MaxClients: 5}
}

type clientStream struct {
	id        string
	subsystem string
	ch        chan Tick
}

// Publisher manages the gRPC server and per-tick fan-out to subscribers,
// grounded on visualiser.Publisher's frameChan/clients/broadcastLoop shape.
type Publisher struct {
	cfg      Config
	server   *grpc.Server
	listener net.Listener

	tickChan chan Tick
	clients  map[string]*clientStream
	clientMu sync.RWMutex

	tickCount   atomic.Uint64
	clientCount atomic.Int32

	running atomic.Bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// NewPublisher builds a Publisher with the given configuration.
func NewPublisher(cfg Config) *Publisher {
	return &Publisher{
		cfg:      cfg,
		tickChan: make(chan Tick, 100),
		clients:  make(map[string]*clientStream),
		stopCh:   make(chan struct{}),
	}
}

// Start opens the listener, registers the hand-built service descriptor, and
// begins the broadcast loop.
func (p *Publisher) Start() error {
	if p.running.Load() {
		return fmt.Errorf("telemetry: publisher already running")
	}
	lis, err := net.Listen("tcp", p.cfg.ListenAddr)
	if err != nil {
		return fmt.Errorf("telemetry: listen: %w", err)
	}
	p.listener = lis

	p.server = grpc.NewServer()
	p.server.RegisterService(&serviceDesc, p)
	p.running.Store(true)

	p.wg.Add(1)
	go p.broadcastLoop()

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		log.Printf("[telemetry] gRPC server listening on %s", p.cfg.ListenAddr)
		if err := p.server.Serve(lis); err != nil && p.running.Load() {
			log.Printf("[telemetry] gRPC server error: %v", err)
		}
	}()
	return nil
}

// Stop shuts the server down and waits for the broadcast loop to exit.
func (p *Publisher) Stop() {
	if !p.running.CompareAndSwap(true, false) {
		return
	}
	close(p.stopCh)
	if p.server != nil {
		p.server.GracefulStop()
	}
	p.wg.Wait()
}

// Publish enqueues a tick for broadcast. Non-blocking: a full queue drops
// the tick being published (the newest) and logs; ticks already queued
// are kept.
func (p *Publisher) Publish(t Tick) {
	select {
	case p.tickChan <- t:
	default:
		monitoring.Logf("telemetry: tick queue full, dropping subsystem=%s seq=%d", t.Subsystem, t.Seq)
	}
}

func (p *Publisher) broadcastLoop() {
	defer p.wg.Done()
	for {
		select {
		case <-p.stopCh:
			return
		case t := <-p.tickChan:
			p.tickCount.Add(1)
			p.clientMu.RLock()
			for _, c := range p.clients {
				if c.subsystem != "" && c.subsystem != t.Subsystem {
					continue
				}
				select {
				case c.ch <- t:
				default:
					// client is behind; drop rather than block the whole fan-out
				}
			}
			p.clientMu.RUnlock()
		}
	}
}

func (p *Publisher) addClient(c *clientStream) {
	p.clientMu.Lock()
	p.clients[c.id] = c
	p.clientMu.Unlock()
	p.clientCount.Add(1)
}

func (p *Publisher) removeClient(id string) {
	p.clientMu.Lock()
	if c, ok := p.clients[id]; ok {
		close(c.ch)
		delete(p.clients, id)
	}
	p.clientMu.Unlock()
	p.clientCount.Add(-1)
}

// Subscribe implements the server-streaming handler: the client sends one
// wrapperspb.StringValue naming the subsystem to filter on (empty string
// subscribes to both), and receives a stream of wrapperspb.BytesValue, each
// one a JSON envelope of the Tick (subsystem, seq, payload) that the client
// decodes with DecodeFrame.
func (p *Publisher) subscribe(stream grpc.ServerStream) error {
	var filter wrapperspb.StringValue
	if err := stream.RecvMsg(&filter); err != nil {
		return err
	}

	id := fmt.Sprintf("telemetry-%d", p.tickCount.Load())
	c := &clientStream{id: id, subsystem: filter.GetValue(), ch: make(chan Tick, 16)}
	p.addClient(c)
	defer p.removeClient(id)

	ctx := stream.Context()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case t, ok := <-c.ch:
			if !ok {
				return nil
			}
			frame, err := EncodeFrame(t)
			if err != nil {
				return err
			}
			if err := stream.SendMsg(frame); err != nil {
				return err
			}
		}
	}
}

// wireTick is the envelope carried inside each wrapperspb.BytesValue.
type wireTick struct {
	Subsystem string `json:"subsystem"`
	Seq       uint64 `json:"seq"`
	Payload   []byte `json:"payload"`
}

// EncodeFrame wraps a Tick as a wrapperspb.BytesValue for transmission.
func EncodeFrame(t Tick) (*wrapperspb.BytesValue, error) {
	b, err := json.Marshal(wireTick{Subsystem: t.Subsystem, Seq: t.Seq, Payload: t.Payload})
	if err != nil {
		return nil, fmt.Errorf("telemetry: encode tick: %w", err)
	}
	return wrapperspb.Bytes(b), nil
}

// DecodeFrame unwraps a wrapperspb.BytesValue received from Subscribe back
// into a Tick.
func DecodeFrame(frame *wrapperspb.BytesValue) (Tick, error) {
	var w wireTick
	if err := json.Unmarshal(frame.GetValue(), &w); err != nil {
		return Tick{}, fmt.Errorf("telemetry: decode tick: %w", err)
	}
	return Tick{Subsystem: w.Subsystem, Seq: w.Seq, Payload: w.Payload}, nil
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*any)(nil),
	Methods:     []grpc.MethodDesc{},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "Subscribe",
			Handler:       func(srv interface{}, stream grpc.ServerStream) error { return srv.(*Publisher).subscribe(stream) },
			ServerStreams: true,
			ClientStreams: false,
		},
	},
	Metadata: "adascore/telemetry.proto",
}

// Dial opens a client connection and subscribes to ticks for the given
// subsystem filter ("" for all). The returned function must be called to
// release the stream.
func Dial(ctx context.Context, addr string, subsystem string, opts ...grpc.DialOption) (<-chan Tick, func(), error) {
	if len(opts) == 0 {
		opts = []grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}
	}
	cc, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("telemetry: dial %s: %w", addr, err)
	}

	streamDesc := &grpc.StreamDesc{StreamName: "Subscribe", ServerStreams: true}
	stream, err := cc.NewStream(ctx, streamDesc, "/"+serviceName+"/Subscribe")
	if err != nil {
		cc.Close()
		return nil, nil, fmt.Errorf("telemetry: open stream: %w", err)
	}
	if err := stream.SendMsg(wrapperspb.String(subsystem)); err != nil {
		cc.Close()
		return nil, nil, fmt.Errorf("telemetry: send filter: %w", err)
	}
	if err := stream.CloseSend(); err != nil {
		cc.Close()
		return nil, nil, fmt.Errorf("telemetry: close send: %w", err)
	}

	out := make(chan Tick, 16)
	go func() {
		defer close(out)
		for {
			var frame wrapperspb.BytesValue
			if err := stream.RecvMsg(&frame); err != nil {
				return
			}
			tick, err := DecodeFrame(&frame)
			if err != nil {
				monitoring.Logf("telemetry: dropping malformed tick: %v", err)
				continue
			}
			select {
			case out <- tick:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, func() { cc.Close() }, nil
}
