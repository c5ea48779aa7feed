// Command tuning-plot renders PNG time-series plots from a capture database
// produced by cmd/actuator or cmd/radarfusion, following the teacher's
// internal/lidar/monitor.GridPlotter gonum/plot usage (per-series XY lines,
// a color per series, saved at a fixed page size).
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	_ "modernc.org/sqlite"

	"github.com/adascore/controller/internal/actuation"
	"github.com/adascore/controller/internal/config"
	"github.com/adascore/controller/internal/radarfusion"
	"github.com/adascore/controller/internal/recorder"
)

var (
	mode       = flag.String("mode", "capture", "What to plot: \"capture\" (recorded run) or \"params\" (tuning lookup curves)")
	configFile = flag.String("config", config.DefaultConfigPath, "Path to JSON tuning configuration file (for -mode=params)")
	dbPath     = flag.String("db", "", "Path to the capture SQLite database (for -mode=capture)")
	subsystem  = flag.String("subsystem", "", "Subsystem to plot: actuation or radarfusion (required)")
	runID      = flag.String("run", "", "Run ID to plot (default: most recent run for the subsystem)")
	outDir     = flag.String("out", "tuning-plots", "Output directory for PNG files")
	limit      = flag.Int("limit", 5000, "Maximum number of samples to plot (for -mode=capture)")
)

func main() {
	flag.Parse()
	if *subsystem == "" {
		log.Fatal("tuning-plot: -subsystem is required")
	}
	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		log.Fatalf("tuning-plot: create output dir: %v", err)
	}

	switch *mode {
	case "params":
		if err := plotParams(*subsystem); err != nil {
			log.Fatalf("tuning-plot: %v", err)
		}
	case "capture":
		if *dbPath == "" {
			log.Fatal("tuning-plot: -db is required for -mode=capture")
		}
		rec, err := recorder.Open(*dbPath)
		if err != nil {
			log.Fatalf("tuning-plot: open capture db: %v", err)
		}
		defer rec.Close()

		run := *runID
		if run == "" {
			run, err = rec.LatestRunID(*subsystem)
			if err != nil {
				log.Fatalf("tuning-plot: find latest run: %v", err)
			}
		}

		switch *subsystem {
		case "actuation":
			err = plotActuation(rec, run)
		case "radarfusion":
			err = plotRadarFusion(rec, run)
		default:
			log.Fatalf("tuning-plot: unknown subsystem %q (want actuation or radarfusion)", *subsystem)
		}
		if err != nil {
			log.Fatalf("tuning-plot: %v", err)
		}
	default:
		log.Fatalf("tuning-plot: unknown -mode %q (want capture or params)", *mode)
	}
}

// plotParams renders the calibration lookup curves baked into a
// TuningConfig: the gas/brake pedal tables and one-pedal decel tables for
// actuation, or the LongRangeLead smoothing-alpha curve for radarfusion.
func plotParams(subsystem string) error {
	cfg, err := config.LoadTuningConfig(*configFile)
	if err != nil {
		return fmt.Errorf("load tuning config: %w", err)
	}

	switch subsystem {
	case "actuation":
		p := actuation.NewParams(cfg.Actuation)
		curves := map[string]plotter.XYs{
			"gas_lookup":   bpCurve(p.GasLookupBP, p.GasLookupV),
			"brake_lookup": bpCurve(p.BrakeLookupBP, p.BrakeLookupV),
		}
		for i := range p.OnePedalModeDecelBP {
			name := fmt.Sprintf("one_pedal_decel_mode_%d", i)
			curves[name] = bpCurve(p.OnePedalModeDecelBP[i], p.OnePedalModeDecelV[i])
		}
		return savePerSeriesPlots(curves, "Actuation calibration curves", "Speed (m/s)", filepath.Join(*outDir, "actuation-params"))
	case "radarfusion":
		tn := radarfusion.NewTuning(cfg.RadarFusion)
		curves := map[string]plotter.XYs{
			"long_range_lead_alpha": bpCurve(tn.LongRangeSmoothBP, []float64{0, 1}),
		}
		return savePerSeriesPlots(curves, "Radar fusion calibration curves", "dRel (m)", filepath.Join(*outDir, "radarfusion-params"))
	default:
		return fmt.Errorf("unknown subsystem %q (want actuation or radarfusion)", subsystem)
	}
}

// bpCurve turns a (breakpoint, value) pair into plottable XY points.
func bpCurve(bp, v []float64) plotter.XYs {
	n := len(bp)
	if len(v) < n {
		n = len(v)
	}
	pts := make(plotter.XYs, n)
	for i := 0; i < n; i++ {
		pts[i] = plotter.XY{X: bp[i], Y: v[i]}
	}
	return pts
}

func plotActuation(rec *recorder.Recorder, run string) error {
	frames, err := rec.RecentActuationFrames(run, *limit)
	if err != nil {
		return fmt.Errorf("load frames: %w", err)
	}

	series := map[string]plotter.XYs{}
	for i := len(frames) - 1; i >= 0; i-- {
		f := frames[i]
		x := float64(len(frames) - 1 - i)
		for key, v := range f.Payload {
			num, ok := v.(float64)
			if !ok {
				continue
			}
			series[key] = append(series[key], plotter.XY{X: x, Y: num})
		}
	}
	return savePerSeriesPlots(series, "Actuator frame payload", "Frame", filepath.Join(*outDir, "actuation"))
}

func plotRadarFusion(rec *recorder.Recorder, run string) error {
	states, err := rec.RecentRadarStates(run, *limit)
	if err != nil {
		return fmt.Errorf("load radar states: %w", err)
	}

	dRel := make(plotter.XYs, 0, len(states))
	vRel := make(plotter.XYs, 0, len(states))
	for i := len(states) - 1; i >= 0; i-- {
		s := states[i]
		if !s.LeadOne.Status {
			continue
		}
		x := float64(len(states) - 1 - i)
		dRel = append(dRel, plotter.XY{X: x, Y: s.LeadOne.DRel})
		vRel = append(vRel, plotter.XY{X: x, Y: s.LeadOne.VRel})
	}
	series := map[string]plotter.XYs{"lead_one_d_rel": dRel, "lead_one_v_rel": vRel}
	return savePerSeriesPlots(series, "Lead-one relative distance/velocity", "Tick", filepath.Join(*outDir, "radarfusion"))
}

func savePerSeriesPlots(series map[string]plotter.XYs, title, xLabel, pathPrefix string) error {
	if err := os.MkdirAll(filepath.Dir(pathPrefix), 0o755); err != nil {
		return err
	}
	for name, pts := range series {
		if len(pts) == 0 {
			continue
		}
		p := plot.New()
		p.Title.Text = fmt.Sprintf("%s: %s", title, name)
		p.X.Label.Text = xLabel
		p.Y.Label.Text = name

		line, err := plotter.NewLine(pts)
		if err != nil {
			return fmt.Errorf("series %q: %w", name, err)
		}
		line.Width = vg.Points(1)
		p.Add(line)

		out := fmt.Sprintf("%s_%s.png", pathPrefix, name)
		if err := p.Save(12*vg.Inch, 5*vg.Inch, out); err != nil {
			return fmt.Errorf("save %q: %w", out, err)
		}
	}
	return nil
}
