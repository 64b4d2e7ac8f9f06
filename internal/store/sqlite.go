// Package store persists pipeline runs, per-class counts and training points
// in a local SQLite database.
package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/ewkb"
	_ "modernc.org/sqlite"

	"github.com/incora-geo/landcover-cli/internal/classify"
	"github.com/incora-geo/landcover-cli/internal/training"
)

// Run statuses.
const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Run is one recorded pipeline execution.
type Run struct {
	ID        string
	Kind      string // training | change | postproc
	Status    string
	Params    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ClassCount is a per-class pixel count of a run.
type ClassCount struct {
	Class  int
	Name   string
	Pixels int
}

// StoredPoint is a persisted training point.
type StoredPoint struct {
	ID       string
	RunID    string
	ClassInt int
	ClassStr string
	X        float64
	Y        float64
}

// Store is a SQLite-backed run store.
type Store struct {
	db *sql.DB
}

// Open opens (and creates if needed) the database at path and configures
// WAL mode.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, eris.Wrap(err, "store: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, eris.Wrapf(err, "store: exec %s", pragma)
		}
	}
	return &Store{db: db}, nil
}

const migration = `
CREATE TABLE IF NOT EXISTS runs (
	id         TEXT PRIMARY KEY,
	kind       TEXT NOT NULL,
	status     TEXT NOT NULL DEFAULT 'running',
	params     TEXT,
	created_at DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS run_counts (
	run_id TEXT NOT NULL REFERENCES runs(id),
	class  INTEGER NOT NULL,
	name   TEXT NOT NULL,
	pixels INTEGER NOT NULL,
	PRIMARY KEY (run_id, class)
);

CREATE TABLE IF NOT EXISTS training_points (
	id        TEXT PRIMARY KEY,
	run_id    TEXT NOT NULL REFERENCES runs(id),
	class_int INTEGER NOT NULL,
	class_str TEXT NOT NULL,
	x         REAL NOT NULL,
	y         REAL NOT NULL,
	geom      BLOB
);

CREATE INDEX IF NOT EXISTS idx_runs_kind ON runs(kind);
CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
CREATE INDEX IF NOT EXISTS idx_training_points_run_id ON training_points(run_id);
`

// Migrate creates the schema.
func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, migration)
	return eris.Wrap(err, "store: migrate")
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// CreateRun records the start of a pipeline run and returns it.
func (s *Store) CreateRun(ctx context.Context, kind, params string) (*Run, error) {
	id := uuid.New().String()
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, kind, status, params, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		id, kind, StatusRunning, params, now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "store: insert run")
	}
	return &Run{ID: id, Kind: kind, Status: StatusRunning, Params: params, CreatedAt: now, UpdatedAt: now}, nil
}

// FinishRun sets the run's final status.
func (s *Store) FinishRun(ctx context.Context, runID, status string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, updated_at = ? WHERE id = ?`,
		status, time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "store: update run %s", runID)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "store: rows affected")
	}
	if n == 0 {
		return eris.Errorf("store: run %s not found", runID)
	}
	return nil
}

// SaveCounts persists per-class pixel counts for a run.
func (s *Store) SaveCounts(ctx context.Context, runID string, counts map[classify.Class]int) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "store: begin")
	}
	for class, pixels := range counts {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR REPLACE INTO run_counts (run_id, class, name, pixels) VALUES (?, ?, ?, ?)`,
			runID, int(class), class.Name(), pixels,
		); err != nil {
			_ = tx.Rollback()
			return eris.Wrapf(err, "store: insert count class %d", class)
		}
	}
	return eris.Wrap(tx.Commit(), "store: commit counts")
}

// SaveTrainingPoints persists sampled points with an EWKB point geometry.
func (s *Store) SaveTrainingPoints(ctx context.Context, runID string, points []training.Point) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "store: begin")
	}
	for _, p := range points {
		g := geom.NewPointFlat(geom.XY, []float64{p.X, p.Y})
		blob, encErr := ewkb.Marshal(g, ewkb.NDR)
		if encErr != nil {
			_ = tx.Rollback()
			return eris.Wrap(encErr, "store: encode point")
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO training_points (id, run_id, class_int, class_str, x, y, geom) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			uuid.New().String(), runID, int(p.Class), p.Name, p.X, p.Y, blob,
		); err != nil {
			_ = tx.Rollback()
			return eris.Wrap(err, "store: insert training point")
		}
	}
	return eris.Wrap(tx.Commit(), "store: commit points")
}

// GetRun returns one run by id.
func (s *Store) GetRun(ctx context.Context, id string) (*Run, error) {
	var r Run
	err := s.db.QueryRowContext(ctx,
		`SELECT id, kind, status, COALESCE(params, ''), created_at, updated_at FROM runs WHERE id = ?`, id,
	).Scan(&r.ID, &r.Kind, &r.Status, &r.Params, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		if eris.Is(err, sql.ErrNoRows) {
			return nil, eris.Errorf("store: run %s not found", id)
		}
		return nil, eris.Wrapf(err, "store: get run %s", id)
	}
	return &r, nil
}

// ListRuns returns runs newest first, capped at limit.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, kind, status, COALESCE(params, ''), created_at, updated_at FROM runs ORDER BY created_at DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "store: list runs")
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.Kind, &r.Status, &r.Params, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "store: scan run")
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "store: iterate runs")
	}
	return runs, nil
}

// ListCounts returns the per-class counts of a run ordered by class code.
func (s *Store) ListCounts(ctx context.Context, runID string) ([]ClassCount, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT class, name, pixels FROM run_counts WHERE run_id = ? ORDER BY class`, runID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "store: list counts %s", runID)
	}
	defer rows.Close()

	var counts []ClassCount
	for rows.Next() {
		var c ClassCount
		if err := rows.Scan(&c.Class, &c.Name, &c.Pixels); err != nil {
			return nil, eris.Wrap(err, "store: scan count")
		}
		counts = append(counts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "store: iterate counts")
	}
	return counts, nil
}

// ListPoints returns a run's training points ordered by class then id.
func (s *Store) ListPoints(ctx context.Context, runID string) ([]StoredPoint, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, run_id, class_int, class_str, x, y FROM training_points WHERE run_id = ? ORDER BY class_int, id`, runID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "store: list points %s", runID)
	}
	defer rows.Close()

	var points []StoredPoint
	for rows.Next() {
		var p StoredPoint
		if err := rows.Scan(&p.ID, &p.RunID, &p.ClassInt, &p.ClassStr, &p.X, &p.Y); err != nil {
			return nil, eris.Wrap(err, "store: scan point")
		}
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "store: iterate points")
	}
	return points, nil
}
