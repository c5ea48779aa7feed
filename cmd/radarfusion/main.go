// Command radarfusion is the Radar Fusion composition root: it reads raw
// radar point batches from a serial port (none when -radar-port is empty)
// and JSON vision/planner inputs from stdin or -input, runs one
// radarfusion.RadarFusion update per input line with dt = 1/-tick-hz, and
// logs/publishes
// the resulting RadarState, following the teacher's cmd/radar/radar.go
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

	"github.com/adascore/controller/internal/config"
	"github.com/adascore/controller/internal/debugui"
	"github.com/adascore/controller/internal/monitoring"
	"github.com/adascore/controller/internal/radarfusion"
	"github.com/adascore/controller/internal/recorder"
	"github.com/adascore/controller/internal/telemetry"
	"github.com/adascore/controller/internal/timeutil"
	"github.com/adascore/controller/internal/transport"
	"github.com/adascore/controller/internal/version"
)

var (
	configFile     = flag.String("config", config.DefaultConfigPath, "Path to JSON tuning configuration file")
	radarPort      = flag.String("radar-port", "", "Serial port for raw radar points (empty: no radar, vision-only fallback path)")
	inputPath      = flag.String("input", "", "Path to newline-delimited JSON vision/planner input file (default: stdin)")
	recorderDBPath = flag.String("recorder-db", "radarfusion-capture.db", "Path to the capture SQLite database")
	telemetryAddr  = flag.String("telemetry-listen", "", "gRPC listen address for tick telemetry (empty: disabled)")
	adminListen    = flag.String("admin-listen", "", "HTTP listen address for debug/admin routes (empty: disabled)")
	tickHz         = flag.Float64("tick-hz", 20, "RF update rate in Hz")
	versionFlag    = flag.Bool("version", false, "Print version information and exit")
)

// visionTick is the on-disk/stdin encoding of the non-radar half of
// radarfusion.Inputs: everything the vision model and planner supply.
// RadarPoints is filled from the radar port's latest batch (empty when one
// isn't configured) before the tick is run; RadarErrors and CanMonoTimes
// stay empty.
type visionTick struct {
	VisionLeads           []radarfusion.VisionLead `json:"vision_leads"`
	Path                  *radarfusion.ModelPath   `json:"path"`
	LaneLines             [4]radarfusion.LaneLine  `json:"lane_lines"`
	LaneWidth             float64                  `json:"lane_width"`
	VEgo                  float64                  `json:"v_ego"`
	SteeringAngle         float64                  `json:"steering_angle"`
	ExtendedRadar         bool                     `json:"extended_radar"`
	LongRangeLeadsEnabled bool                     `json:"long_range_leads_enabled"`
	MdMonoTime            int64                    `json:"md_mono_time"`
	CarStateMonoTime      int64                    `json:"car_state_mono_time"`
}

func main() {
	flag.Parse()

	if *versionFlag {
		fmt.Printf("radarfusion %s (%s, built %s)\n", version.Version, version.GitSHA, version.BuildTime)
		return
	}

	tuning, err := config.LoadTuningConfig(*configFile)
	if err != nil {
		log.Fatalf("radarfusion: load tuning config: %v", err)
	}

	tn := radarfusion.NewTuning(tuning.RadarFusion)

	rec, err := recorder.Open(*recorderDBPath)
	if err != nil {
		log.Fatalf("radarfusion: open recorder: %v", err)
	}
	defer rec.Close()

	runID, err := rec.StartRun("radarfusion", "cmd/radarfusion", time.Now().UnixNano())
	if err != nil {
		log.Fatalf("radarfusion: start capture run: %v", err)
	}
	log.Printf("radarfusion: capture run %s", runID)

	var pub *telemetry.Publisher
	if *telemetryAddr != "" {
		pub = telemetry.NewPublisher(telemetry.Config{ListenAddr: *telemetryAddr})
		if err := pub.Start(); err != nil {
			log.Fatalf("radarfusion: start telemetry: %v", err)
		}
		defer pub.Stop()
	}

	if *adminListen != "" {
		mux := http.NewServeMux()
		if err := debugui.AttachAdminRoutes(mux, rec.DB(), *recorderDBPath, func() *config.TuningConfig { return tuning }); err != nil {
			log.Fatalf("radarfusion: attach admin routes: %v", err)
		}
		go func() {
			if err := http.ListenAndServe(*adminListen, mux); err != nil {
				log.Printf("radarfusion: admin server stopped: %v", err)
			}
		}()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var radar transport.RadarPort
	if *radarPort != "" {
		port, err := transport.OpenSerial(*radarPort)
		if err != nil {
			log.Fatalf("radarfusion: open radar port: %v", err)
		}
		radar = transport.NewSerialRadarPort(port)
	} else {
		radar = transport.NewMockRadarPort(nil)
	}
	defer radar.Close()

	go func() {
		if err := radar.Monitor(ctx); err != nil && err != context.Canceled {
			log.Printf("radarfusion: radar port monitor stopped: %v", err)
		}
	}()

	in := os.Stdin
	if *inputPath != "" {
		f, err := os.Open(*inputPath)
		if err != nil {
			log.Fatalf("radarfusion: open input: %v", err)
		}
		defer f.Close()
		in = f
	}

	rf := radarfusion.NewRadarFusion(tn)
	dt := 1.0 / *tickHz
	if err := run(ctx, rf, dt, in, radar, rec, pub, timeutil.RealClock{}); err != nil && err != io.EOF {
		log.Fatalf("radarfusion: %v", err)
	}
}

func run(ctx context.Context, rf *radarfusion.RadarFusion, dt float64, in io.Reader, radar transport.RadarPort, rec *recorder.Recorder, pub *telemetry.Publisher, clock timeutil.Clock) error {
	scan := bufio.NewScanner(in)
	scan.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var latestPoints []radarfusion.RadarPoint
	var tick int64

	for scan.Scan() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case batch := <-radar.Points():
			latestPoints = batch
		default:
		}

		line := scan.Bytes()
		if len(line) == 0 {
			continue
		}
		var vt visionTick
		if err := json.Unmarshal(line, &vt); err != nil {
			monitoring.Logf("radarfusion: skipping malformed tick: %v", err)
			continue
		}

		state := rf.Update(radarfusion.Inputs{
			RadarPoints:           latestPoints,
			VisionLeads:           vt.VisionLeads,
			Path:                  vt.Path,
			LaneLines:             vt.LaneLines,
			LaneWidth:             vt.LaneWidth,
			VEgo:                  vt.VEgo,
			SteeringAngle:         vt.SteeringAngle,
			ExtendedRadar:         vt.ExtendedRadar,
			LongRangeLeadsEnabled: vt.LongRangeLeadsEnabled,
			MdMonoTime:            vt.MdMonoTime,
			CarStateMonoTime:      vt.CarStateMonoTime,
		}, dt)

		now := clock.Now().UnixNano()
		if err := rec.RecordRadarState(tick, now, state); err != nil {
			monitoring.Logf("radarfusion: record state failed: %v", err)
		}
		if pub != nil {
			payload, err := json.Marshal(state)
			if err == nil {
				pub.Publish(telemetry.Tick{Subsystem: "radarfusion", Seq: uint64(tick), Payload: payload})
			}
		}
		tick++
	}
	return scan.Err()
}
