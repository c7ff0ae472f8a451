package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sardarchitect/anthill/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS scenes (
	id            TEXT PRIMARY KEY,
	name          TEXT NOT NULL,
	format        TEXT NOT NULL,
	element_count INTEGER NOT NULL DEFAULT 0,
	total_carbon  REAL,
	raw_payload   TEXT NOT NULL,
	summary       TEXT NOT NULL,
	created_at    DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS analysis_runs (
	id         TEXT PRIMARY KEY,
	scene_id   TEXT NOT NULL REFERENCES scenes(id),
	kind       TEXT NOT NULL,
	result     TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_scenes_format ON scenes(format);
CREATE INDEX IF NOT EXISTS idx_scenes_created_at ON scenes(created_at);
CREATE INDEX IF NOT EXISTS idx_analysis_runs_scene_id ON analysis_runs(scene_id);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.db.PingContext(ctx), "sqlite: ping")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) SaveScene(ctx context.Context, rec *model.SceneRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	summaryJSON, err := json.Marshal(rec.Summary)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal summary")
	}

	var totalCarbon any
	if rec.TotalCarbon != nil {
		totalCarbon = *rec.TotalCarbon
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO scenes (id, name, format, element_count, total_carbon, raw_payload, summary, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   name = excluded.name, format = excluded.format, element_count = excluded.element_count,
		   total_carbon = excluded.total_carbon, raw_payload = excluded.raw_payload, summary = excluded.summary`,
		rec.ID, rec.Name, string(rec.Format), rec.ElementCount, totalCarbon, string(rec.RawPayload), string(summaryJSON), rec.CreatedAt,
	)
	return eris.Wrapf(err, "sqlite: save scene %s", rec.ID)
}

func (s *SQLiteStore) GetScene(ctx context.Context, id string) (*model.SceneRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, format, element_count, total_carbon, raw_payload, summary, created_at FROM scenes WHERE id = ?`,
		id,
	)

	var rec model.SceneRecord
	var totalCarbon sql.NullFloat64
	var rawPayload, summaryJSON string
	err := row.Scan(&rec.ID, &rec.Name, &rec.Format, &rec.ElementCount, &totalCarbon, &rawPayload, &summaryJSON, &rec.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get scene %s", id)
	}

	if totalCarbon.Valid {
		rec.TotalCarbon = &totalCarbon.Float64
	}
	rec.RawPayload = []byte(rawPayload)
	if err := json.Unmarshal([]byte(summaryJSON), &rec.Summary); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal summary")
	}
	return &rec, nil
}

func (s *SQLiteStore) ListScenes(ctx context.Context, filter SceneFilter) ([]model.SceneRecord, error) {
	query := `SELECT id, name, format, element_count, total_carbon, created_at FROM scenes WHERE 1=1`
	var args []any

	if filter.Format != "" {
		query += ` AND format = ?`
		args = append(args, string(filter.Format))
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list scenes")
	}
	defer rows.Close()

	var recs []model.SceneRecord
	for rows.Next() {
		var rec model.SceneRecord
		var totalCarbon sql.NullFloat64
		if err := rows.Scan(&rec.ID, &rec.Name, &rec.Format, &rec.ElementCount, &totalCarbon, &rec.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan scene")
		}
		if totalCarbon.Valid {
			rec.TotalCarbon = &totalCarbon.Float64
		}
		recs = append(recs, rec)
	}
	return recs, eris.Wrap(rows.Err(), "sqlite: list scenes iterate")
}

func (s *SQLiteStore) DeleteScene(ctx context.Context, id string) error {
	// analysis_runs rows are removed first; foreign keys are not enforced by
	// default so the cleanup is explicit.
	if _, err := s.db.ExecContext(ctx, `DELETE FROM analysis_runs WHERE scene_id = ?`, id); err != nil {
		return eris.Wrapf(err, "sqlite: delete runs for scene %s", id)
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM scenes WHERE id = ?`, id)
	if err != nil {
		return eris.Wrapf(err, "sqlite: delete scene %s", id)
	}
	return checkRowsAffected(res, "scene", id)
}

func (s *SQLiteStore) SaveRun(ctx context.Context, run *model.AnalysisRun) error {
	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO analysis_runs (id, scene_id, kind, result, created_at) VALUES (?, ?, ?, ?, ?)`,
		run.ID, run.SceneID, string(run.Kind), string(run.Result), run.CreatedAt,
	)
	return eris.Wrapf(err, "sqlite: save run for scene %s", run.SceneID)
}

func (s *SQLiteStore) ListRuns(ctx context.Context, sceneID string) ([]model.AnalysisRun, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, scene_id, kind, result, created_at FROM analysis_runs WHERE scene_id = ? ORDER BY created_at DESC`,
		sceneID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close()

	var runs []model.AnalysisRun
	for rows.Next() {
		var run model.AnalysisRun
		var result string
		if err := rows.Scan(&run.ID, &run.SceneID, &run.Kind, &result, &run.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan run")
		}
		run.Result = []byte(result)
		runs = append(runs, run)
	}
	return runs, eris.Wrap(rows.Err(), "sqlite: list runs iterate")
}

// helpers

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Errorf("%s not found: %s", entity, id)
	}
	return nil
}
