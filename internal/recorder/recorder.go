// Package recorder logs AC frames and RF RadarState snapshots to a SQLite
// database for offline replay and calibration review. It is not part of
// either domain's own state (spec §6 "Persisted state: None") — an
// external ambient collaborator, the same role the teacher's storage/sqlite
// adapter plays outside its L3-L6 domain layers.
package recorder

import (
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/adascore/controller/internal/actuation"
	"github.com/adascore/controller/internal/radarfusion"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Recorder owns a SQLite connection and a current capture run.
type Recorder struct {
	db    *sql.DB
	runID string
}

// Open opens (creating if necessary) a SQLite database at path and applies
// any pending migrations, matching the teacher's NewDB/MigrateUp sequence.
func Open(path string) (*Recorder, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("recorder: open %q: %w", path, err)
	}

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("recorder: %q: %w", pragma, err)
		}
	}

	r := &Recorder{db: db}
	if err := r.migrateUp(); err != nil {
		db.Close()
		return nil, err
	}
	return r, nil
}

func (r *Recorder) migrateUp() error {
	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("recorder: migration source: %w", err)
	}
	driver, err := sqlite.WithInstance(r.db, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("recorder: migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", sourceDriver, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("recorder: new migrator: %w", err)
	}
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("recorder: migrate up: %w", err)
	}
	return nil
}

// MigrationsFS exposes the migrations directory rooted correctly for fs.FS
// consumers outside this package, mirroring the teacher's getMigrationsFS
// helper.
func MigrationsFS() (fs.FS, error) {
	return fs.Sub(migrationsFS, "migrations")
}

// StartRun begins a new capture run for the given subsystem ("actuation" or
// "radarfusion") and returns its run ID, minted the same way the teacher
// mints analysis run IDs (google/uuid).
func (r *Recorder) StartRun(subsystem, note string, startedUnixNanos int64) (string, error) {
	runID := uuid.New().String()
	_, err := r.db.Exec(
		`INSERT INTO capture_run (run_id, started_unix_nanos, subsystem, note) VALUES (?, ?, ?, ?)`,
		runID, startedUnixNanos, subsystem, note,
	)
	if err != nil {
		return "", fmt.Errorf("recorder: start run: %w", err)
	}
	r.runID = runID
	return runID, nil
}

// RecordActuationFrame appends one AC frame to the current run's log.
func (r *Recorder) RecordActuationFrame(tick int64, recordedUnixNanos int64, frame actuation.Frame) error {
	if r.runID == "" {
		return fmt.Errorf("recorder: no active run")
	}
	payload, err := json.Marshal(frame.Payload)
	if err != nil {
		return fmt.Errorf("recorder: encode payload: %w", err)
	}
	_, err = r.db.Exec(
		`INSERT INTO actuation_frame (run_id, tick, recorded_unix_nanos, kind, arbitration_id, counter, payload_json)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.runID, tick, recordedUnixNanos, int(frame.Kind), frame.ArbitrationID, frame.Counter, string(payload),
	)
	if err != nil {
		return fmt.Errorf("recorder: insert frame: %w", err)
	}
	return nil
}

// RecordRadarState appends one RF RadarState snapshot to the current run's
// log.
func (r *Recorder) RecordRadarState(tick int64, recordedUnixNanos int64, state radarfusion.RadarState) error {
	if r.runID == "" {
		return fmt.Errorf("recorder: no active run")
	}
	blob, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("recorder: encode state: %w", err)
	}
	validInt := 0
	if state.Valid {
		validInt = 1
	}
	_, err = r.db.Exec(
		`INSERT INTO radar_state (run_id, tick, recorded_unix_nanos, md_mono_time, valid, state_json)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		r.runID, tick, recordedUnixNanos, state.MdMonoTime, validInt, string(blob),
	)
	if err != nil {
		return fmt.Errorf("recorder: insert radar state: %w", err)
	}
	return nil
}

// RecentRadarStates returns the last limit RadarState snapshots for a run,
// most recent first, for replay tooling.
func (r *Recorder) RecentRadarStates(runID string, limit int) ([]radarfusion.RadarState, error) {
	rows, err := r.db.Query(
		`SELECT state_json FROM radar_state WHERE run_id = ? ORDER BY tick DESC LIMIT ?`,
		runID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("recorder: query radar states: %w", err)
	}
	defer rows.Close()

	var states []radarfusion.RadarState
	for rows.Next() {
		var blob string
		if err := rows.Scan(&blob); err != nil {
			return nil, fmt.Errorf("recorder: scan radar state: %w", err)
		}
		var state radarfusion.RadarState
		if err := json.Unmarshal([]byte(blob), &state); err != nil {
			return nil, fmt.Errorf("recorder: decode radar state: %w", err)
		}
		states = append(states, state)
	}
	return states, rows.Err()
}

// LatestRunID returns the most recently started run ID for subsystem, for
// tools that operate on a capture database after the fact rather than
// holding the Recorder that wrote it.
func (r *Recorder) LatestRunID(subsystem string) (string, error) {
	var runID string
	err := r.db.QueryRow(
		`SELECT run_id FROM capture_run WHERE subsystem = ? ORDER BY started_unix_nanos DESC LIMIT 1`,
		subsystem,
	).Scan(&runID)
	if err != nil {
		return "", fmt.Errorf("recorder: latest run: %w", err)
	}
	return runID, nil
}

// RecentActuationFrames returns the last limit AC frames for a run, most
// recent first, for replay/plotting tooling.
func (r *Recorder) RecentActuationFrames(runID string, limit int) ([]actuation.Frame, error) {
	rows, err := r.db.Query(
		`SELECT kind, arbitration_id, counter, payload_json FROM actuation_frame
		 WHERE run_id = ? ORDER BY tick DESC LIMIT ?`,
		runID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("recorder: query actuation frames: %w", err)
	}
	defer rows.Close()

	var frames []actuation.Frame
	for rows.Next() {
		var kind int
		var arbID uint32
		var counter int
		var payloadJSON string
		if err := rows.Scan(&kind, &arbID, &counter, &payloadJSON); err != nil {
			return nil, fmt.Errorf("recorder: scan actuation frame: %w", err)
		}
		var payload map[string]any
		if err := json.Unmarshal([]byte(payloadJSON), &payload); err != nil {
			return nil, fmt.Errorf("recorder: decode actuation frame payload: %w", err)
		}
		frames = append(frames, actuation.Frame{
			Kind:          actuation.FrameKind(kind),
			ArbitrationID: arbID,
			Counter:       counter,
			Payload:       payload,
		})
	}
	return frames, rows.Err()
}

// DB exposes the underlying connection for debugui's tailsql mount.
func (r *Recorder) DB() *sql.DB { return r.db }

// Close closes the underlying database connection.
func (r *Recorder) Close() error { return r.db.Close() }
