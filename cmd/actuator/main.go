// Command actuator is the Actuator Controller composition root: it reads a
// stream of newline-delimited JSON ticks (car state + planner actuators +
// HUD request), runs them through actuation.Controller one tick per input
// line, and forwards the resulting frames to an ECU over serial (or, when
// -ecu-port is empty, logs them through monitoring.Logf), following the
// teacher's cmd/radar/radar.go
// flag-driven composition-root style.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "modernc.org/sqlite"

	"github.com/adascore/controller/internal/actuation"
	"github.com/adascore/controller/internal/config"
	"github.com/adascore/controller/internal/debugui"
	"github.com/adascore/controller/internal/monitoring"
	"github.com/adascore/controller/internal/recorder"
	"github.com/adascore/controller/internal/telemetry"
	"github.com/adascore/controller/internal/timeutil"
	"github.com/adascore/controller/internal/transport"
	"github.com/adascore/controller/internal/version"
)

var (
	configFile     = flag.String("config", config.DefaultConfigPath, "Path to JSON tuning configuration file")
	ecuPort        = flag.String("ecu-port", "", "Serial port for the ECU emulator (empty: dry-run, log frames only)")
	inputPath      = flag.String("input", "", "Path to newline-delimited JSON tick file (default: stdin)")
	recorderDBPath = flag.String("recorder-db", "actuator-capture.db", "Path to the capture SQLite database")
	telemetryAddr  = flag.String("telemetry-listen", "", "gRPC listen address for tick telemetry (empty: disabled)")
	adminListen    = flag.String("admin-listen", "", "HTTP listen address for debug/admin routes (empty: disabled)")
	versionFlag    = flag.Bool("version", false, "Print version information and exit")
)

// inputTick is the on-disk/stdin encoding of one actuation.Tick.
type inputTick struct {
	Frame     int64               `json:"frame"`
	Enabled   bool                `json:"enabled"`
	CS        actuation.CarState  `json:"car_state"`
	Actuators actuation.Actuators `json:"actuators"`
	HUD       actuation.HUD       `json:"hud"`
}

func main() {
	flag.Parse()

	if *versionFlag {
		fmt.Printf("actuator %s (%s, built %s)\n", version.Version, version.GitSHA, version.BuildTime)
		return
	}

	tuning, err := config.LoadTuningConfig(*configFile)
	if err != nil {
		log.Fatalf("actuator: load tuning config: %v", err)
	}

	params := actuation.NewParams(tuning.Actuation)
	if err := params.Validate(); err != nil {
		log.Fatalf("actuator: invalid tuning config: %v", err)
	}

	rec, err := recorder.Open(*recorderDBPath)
	if err != nil {
		log.Fatalf("actuator: open recorder: %v", err)
	}
	defer rec.Close()

	runID, err := rec.StartRun("actuation", "cmd/actuator", time.Now().UnixNano())
	if err != nil {
		log.Fatalf("actuator: start capture run: %v", err)
	}
	log.Printf("actuator: capture run %s", runID)

	ecu, err := openECUPort(*ecuPort)
	if err != nil {
		log.Fatalf("actuator: open ECU port: %v", err)
	}
	defer ecu.Close()

	var pub *telemetry.Publisher
	if *telemetryAddr != "" {
		pub = telemetry.NewPublisher(telemetry.Config{ListenAddr: *telemetryAddr})
		if err := pub.Start(); err != nil {
			log.Fatalf("actuator: start telemetry: %v", err)
		}
		defer pub.Stop()
	}

	if *adminListen != "" {
		mux := http.NewServeMux()
		if err := debugui.AttachAdminRoutes(mux, rec.DB(), *recorderDBPath, func() *config.TuningConfig { return tuning }); err != nil {
			log.Fatalf("actuator: attach admin routes: %v", err)
		}
		go func() {
			if err := http.ListenAndServe(*adminListen, mux); err != nil {
				log.Printf("actuator: admin server stopped: %v", err)
			}
		}()
	}

	in := os.Stdin
	if *inputPath != "" {
		f, err := os.Open(*inputPath)
		if err != nil {
			log.Fatalf("actuator: open input: %v", err)
		}
		defer f.Close()
		in = f
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ctrl := actuation.NewController(params)
	if err := run(ctx, ctrl, in, ecu, rec, pub, timeutil.RealClock{}); err != nil && err != io.EOF {
		log.Fatalf("actuator: %v", err)
	}
}

func openECUPort(path string) (ecuCloser, error) {
	if path == "" {
		return &loggingECUPort{}, nil
	}
	port, err := transport.OpenSerial(path)
	if err != nil {
		return nil, err
	}
	return transport.NewSerialECUPort(port), nil
}

// ecuCloser is the minimal surface main needs from an ECUPort; satisfied by
// both transport.SerialECUPort and the dry-run logger below.
type ecuCloser interface {
	Send(actuation.Frame) error
	Close() error
}

// loggingECUPort stands in for a bench ECU emulator when -ecu-port is
// unset: it just logs each frame, so the binary is runnable without
// hardware attached.
type loggingECUPort struct{}

func (l *loggingECUPort) Send(f actuation.Frame) error {
	monitoring.Logf("actuator: dry-run frame kind=%d arb=0x%x counter=%d", f.Kind, f.ArbitrationID, f.Counter)
	return nil
}

func (l *loggingECUPort) Close() error { return nil }

func run(ctx context.Context, ctrl *actuation.Controller, in io.Reader, ecu ecuCloser, rec *recorder.Recorder, pub *telemetry.Publisher, clock timeutil.Clock) error {
	scan := bufio.NewScanner(in)
	scan.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scan.Scan() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line := scan.Bytes()
		if len(line) == 0 {
			continue
		}
		var it inputTick
		if err := json.Unmarshal(line, &it); err != nil {
			monitoring.Logf("actuator: skipping malformed tick: %v", err)
			continue
		}

		frames, _ := ctrl.Update(actuation.Tick{
			Frame:     it.Frame,
			Enabled:   it.Enabled,
			CS:        it.CS,
			Actuators: it.Actuators,
			HUD:       it.HUD,
		})

		now := clock.Now().UnixNano()
		for _, f := range frames {
			if err := ecu.Send(f); err != nil {
				return fmt.Errorf("send frame: %w", err)
			}
			if err := rec.RecordActuationFrame(it.Frame, now, f); err != nil {
				monitoring.Logf("actuator: record frame failed: %v", err)
			}
			if pub != nil {
				payload, err := json.Marshal(f)
				if err == nil {
					pub.Publish(telemetry.Tick{Subsystem: "actuation", Seq: uint64(it.Frame), Payload: payload})
				}
			}
		}
	}
	return scan.Err()
}
