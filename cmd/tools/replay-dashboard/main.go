// Command replay-dashboard serves an HTML dashboard rendering RF capture
// data (lead-one distance and relative speed) as go-echarts line charts,
// following the teacher's
// internal/lidar/monitor.WebServer echarts handlers: build a chart, render
// to a buffer, write the buffer as the HTTP response.
package main

import (
	"bytes"
	"flag"
	"fmt"
	"log"
	"net/http"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	_ "modernc.org/sqlite"

	"github.com/adascore/controller/internal/recorder"
)

var (
	dbPath = flag.String("db", "", "Path to the capture SQLite database (required)")
	listen = flag.String("listen", ":8090", "HTTP listen address")
	limit  = flag.Int("limit", 2000, "Maximum number of samples per chart")
)

func main() {
	flag.Parse()
	if *dbPath == "" {
		log.Fatal("replay-dashboard: -db is required")
	}

	rec, err := recorder.Open(*dbPath)
	if err != nil {
		log.Fatalf("replay-dashboard: open capture db: %v", err)
	}
	defer rec.Close()

	mux := http.NewServeMux()
	mux.HandleFunc("/radarfusion/lead-one", handleLeadOneChart(rec))

	log.Printf("replay-dashboard: listening on %s", *listen)
	if err := http.ListenAndServe(*listen, mux); err != nil {
		log.Fatalf("replay-dashboard: %v", err)
	}
}

func handleLeadOneChart(rec *recorder.Recorder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		run := r.URL.Query().Get("run")
		if run == "" {
			var err error
			run, err = rec.LatestRunID("radarfusion")
			if err != nil {
				http.Error(w, fmt.Sprintf("no radarfusion run found: %v", err), http.StatusNotFound)
				return
			}
		}

		states, err := rec.RecentRadarStates(run, *limit)
		if err != nil {
			http.Error(w, fmt.Sprintf("load radar states: %v", err), http.StatusInternalServerError)
			return
		}

		var ticks []string
		var dRel, vRel []opts.LineData
		for i := len(states) - 1; i >= 0; i-- {
			s := states[i]
			ticks = append(ticks, fmt.Sprintf("%d", len(states)-1-i))
			if s.LeadOne.Status {
				dRel = append(dRel, opts.LineData{Value: s.LeadOne.DRel})
				vRel = append(vRel, opts.LineData{Value: s.LeadOne.VRel})
			} else {
				dRel = append(dRel, opts.LineData{Value: nil})
				vRel = append(vRel, opts.LineData{Value: nil})
			}
		}

		line := charts.NewLine()
		line.SetGlobalOptions(
			charts.WithTitleOpts(opts.Title{Title: fmt.Sprintf("Lead-one relative distance/velocity — run %s", run)}),
			charts.WithXAxisOpts(opts.XAxis{Name: "Tick"}),
		)
		line.SetXAxis(ticks).
			AddSeries("d_rel (m)", dRel).
			AddSeries("v_rel (m/s)", vRel)

		var buf bytes.Buffer
		if err := line.Render(&buf); err != nil {
			http.Error(w, fmt.Sprintf("render chart: %v", err), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if _, err := w.Write(buf.Bytes()); err != nil {
			log.Printf("replay-dashboard: write response: %v", err)
		}
	}
}
