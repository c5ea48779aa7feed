// Package debugui mounts admin HTTP routes exposing the recorder's SQLite
// capture log and the live TuningConfig, grounded on the teacher's
// db.AttachAdminRoutes (tailsql + tsweb) pattern.
package debugui

import (
	"compress/gzip"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/tailscale/tailsql/server/tailsql"
	"tailscale.com/tsweb"

	"github.com/adascore/controller/internal/config"
	"github.com/adascore/controller/internal/security"
)

// TuningSource supplies the currently-active TuningConfig for the
// "/debug/tuning" route. Both binaries pass a closure over the config
// loaded at startup; nothing reloads it at runtime.
type TuningSource func() *config.TuningConfig

// AttachAdminRoutes mounts the debug routes on mux: a tailsql SQL console
// over the recorder database, a one-click backup download, and a read-only
// JSON dump of the live tuning configuration.
func AttachAdminRoutes(mux *http.ServeMux, recorderDB *sql.DB, dbLabel string, tuning TuningSource) error {
	debug := tsweb.Debugger(mux)

	tsql, err := tailsql.NewServer(tailsql.Options{RoutePrefix: "/debug/tailsql/"})
	if err != nil {
		return fmt.Errorf("debugui: new tailsql server: %w", err)
	}
	tsql.SetDB("sqlite://"+dbLabel, recorderDB, &tailsql.DBOptions{Label: dbLabel})
	debug.Handle("tailsql/", "SQL live debugging of the capture log", tsql.NewMux())

	debug.Handle("backup", "Create and download a backup of the capture database now", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		backupBackupHandler(w, r, recorderDB)
	}))

	debug.HandleFunc("tuning", "View the live tuning configuration", func(w http.ResponseWriter, r *http.Request) {
		cfg := tuning()
		w.Header().Set("Content-Type", "application/json")
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(cfg); err != nil {
			http.Error(w, fmt.Sprintf("failed to encode tuning config: %v", err), http.StatusInternalServerError)
		}
	})

	return nil
}

func backupBackupHandler(w http.ResponseWriter, r *http.Request, db *sql.DB) {
	unixTime := time.Now().Unix()
	backupPath := fmt.Sprintf("capture-backup-%d.db", unixTime)
	if err := security.ValidateExportPath(backupPath); err != nil {
		http.Error(w, fmt.Sprintf("Refusing backup path: %v", err), http.StatusInternalServerError)
		return
	}
	if _, err := db.Exec("VACUUM INTO ?", backupPath); err != nil {
		http.Error(w, fmt.Sprintf("Failed to create backup: %v", err), http.StatusInternalServerError)
		return
	}
	defer os.Remove(backupPath)

	backupFile, err := os.Open(backupPath)
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to open backup file: %v", err), http.StatusInternalServerError)
		return
	}
	defer backupFile.Close()

	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s.gz", backupPath))
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Encoding", "gzip")

	gzipWriter := gzip.NewWriter(w)
	defer gzipWriter.Close()
	if _, err := io.Copy(gzipWriter, backupFile); err != nil {
		log.Printf("debugui: failed writing backup response: %v", err)
	}
}
