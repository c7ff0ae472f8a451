package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sardarchitect/anthill/internal/db"
	"github.com/sardarchitect/anthill/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// preparedStatements lists queries to prepare on each new connection for
// faster execution of the most frequently used store operations.
var preparedStatements = map[string]string{
	"get_scene":      `SELECT id, name, format, element_count, total_carbon, raw_payload, summary, created_at FROM scenes WHERE id = $1`,
	"delete_scene":   `DELETE FROM scenes WHERE id = $1`,
	"insert_run":     `INSERT INTO analysis_runs (id, scene_id, kind, result, created_at) VALUES ($1, $2, $3, $4, $5)`,
	"list_runs":      `SELECT id, scene_id, kind, result, created_at FROM analysis_runs WHERE scene_id = $1 ORDER BY created_at DESC`,
	"clear_elements": `DELETE FROM scene_elements WHERE scene_id = $1`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	// Apply pool sizing from config with sensible defaults.
	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	// Prepare frequently-used statements on each new connection.
	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS scenes (
	id            TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	name          TEXT NOT NULL,
	format        TEXT NOT NULL,
	element_count INTEGER NOT NULL DEFAULT 0,
	total_carbon  DOUBLE PRECISION,
	raw_payload   JSONB NOT NULL,
	summary       JSONB NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS scene_elements (
	scene_id        TEXT NOT NULL REFERENCES scenes(id) ON DELETE CASCADE,
	name            TEXT NOT NULL,
	vertex_count    INTEGER NOT NULL DEFAULT 0,
	face_count      INTEGER NOT NULL DEFAULT 0,
	bbox_volume     DOUBLE PRECISION NOT NULL DEFAULT 0,
	length          DOUBLE PRECISION,
	area            DOUBLE PRECISION,
	min_z           DOUBLE PRECISION NOT NULL DEFAULT 0,
	max_z           DOUBLE PRECISION NOT NULL DEFAULT 0,
	embodied_carbon DOUBLE PRECISION,
	structural_type TEXT
);

CREATE TABLE IF NOT EXISTS analysis_runs (
	id         TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	scene_id   TEXT NOT NULL REFERENCES scenes(id) ON DELETE CASCADE,
	kind       TEXT NOT NULL,
	result     JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_scenes_format ON scenes(format);
CREATE INDEX IF NOT EXISTS idx_scenes_created_at ON scenes(created_at DESC);
CREATE INDEX IF NOT EXISTS idx_scene_elements_scene_id ON scene_elements(scene_id);
CREATE INDEX IF NOT EXISTS idx_analysis_runs_scene_id ON analysis_runs(scene_id);
`

// sceneElementColumns orders the COPY columns for scene_elements, the
// denormalized one-row-per-element table queried by SQL-side analytics.
var sceneElementColumns = []string{
	"scene_id", "name", "vertex_count", "face_count", "bbox_volume",
	"length", "area", "min_z", "max_z", "embodied_carbon", "structural_type",
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) SaveScene(ctx context.Context, rec *model.SceneRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	summaryJSON, err := json.Marshal(rec.Summary)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal summary")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO scenes (id, name, format, element_count, total_carbon, raw_payload, summary, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (id) DO UPDATE SET
		   name = $2, format = $3, element_count = $4, total_carbon = $5, raw_payload = $6, summary = $7`,
		rec.ID, rec.Name, string(rec.Format), rec.ElementCount, rec.TotalCarbon, rec.RawPayload, summaryJSON, rec.CreatedAt,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: save scene %s", rec.ID)
	}

	// Element rows are rebuilt wholesale on every save; names are not unique
	// within a scene, so there is no conflict key to upsert on.
	if _, err := s.pool.Exec(ctx, `DELETE FROM scene_elements WHERE scene_id = $1`, rec.ID); err != nil {
		return eris.Wrapf(err, "postgres: clear elements for scene %s", rec.ID)
	}
	if _, err := db.CopyFrom(ctx, s.pool, "scene_elements", sceneElementColumns, elementRows(rec)); err != nil {
		return eris.Wrapf(err, "postgres: copy elements for scene %s", rec.ID)
	}
	return nil
}

// elementRows flattens a record's summary into COPY rows for scene_elements.
func elementRows(rec *model.SceneRecord) [][]any {
	rows := make([][]any, 0, len(rec.Summary))
	for _, row := range rec.Summary {
		rows = append(rows, []any{
			rec.ID, row.Name, row.Vertices, row.Faces, row.BBoxVolume,
			row.Length, row.Area, row.MinZ, row.MaxZ, row.EmbodiedCarbon, row.StructuralType,
		})
	}
	return rows
}

func (s *PostgresStore) GetScene(ctx context.Context, id string) (*model.SceneRecord, error) {
	var rec model.SceneRecord
	var summaryJSON []byte

	err := s.pool.QueryRow(ctx,
		`SELECT id, name, format, element_count, total_carbon, raw_payload, summary, created_at FROM scenes WHERE id = $1`,
		id,
	).Scan(&rec.ID, &rec.Name, &rec.Format, &rec.ElementCount, &rec.TotalCarbon, &rec.RawPayload, &summaryJSON, &rec.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "postgres: get scene %s", id)
	}

	if err := json.Unmarshal(summaryJSON, &rec.Summary); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal summary")
	}
	return &rec, nil
}

func (s *PostgresStore) ListScenes(ctx context.Context, filter SceneFilter) ([]model.SceneRecord, error) {
	query := `SELECT id, name, format, element_count, total_carbon, created_at FROM scenes WHERE true`
	args := []any{}
	argIdx := 1

	if filter.Format != "" {
		query += fmt.Sprintf(` AND format = $%d`, argIdx)
		args = append(args, string(filter.Format))
		argIdx++
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, limit)
	argIdx++

	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, argIdx)
		args = append(args, filter.Offset)
		argIdx++
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list scenes")
	}
	defer rows.Close()

	var recs []model.SceneRecord
	for rows.Next() {
		var rec model.SceneRecord
		if err := rows.Scan(&rec.ID, &rec.Name, &rec.Format, &rec.ElementCount, &rec.TotalCarbon, &rec.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan scene")
		}
		recs = append(recs, rec)
	}
	return recs, eris.Wrap(rows.Err(), "postgres: list scenes iterate")
}

func (s *PostgresStore) DeleteScene(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM scenes WHERE id = $1`, id)
	if err != nil {
		return eris.Wrapf(err, "postgres: delete scene %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("scene not found: %s", id)
	}
	return nil
}

func (s *PostgresStore) SaveRun(ctx context.Context, run *model.AnalysisRun) error {
	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO analysis_runs (id, scene_id, kind, result, created_at) VALUES ($1, $2, $3, $4, $5)`,
		run.ID, run.SceneID, string(run.Kind), run.Result, run.CreatedAt,
	)
	return eris.Wrapf(err, "postgres: save run for scene %s", run.SceneID)
}

func (s *PostgresStore) ListRuns(ctx context.Context, sceneID string) ([]model.AnalysisRun, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, scene_id, kind, result, created_at FROM analysis_runs WHERE scene_id = $1 ORDER BY created_at DESC`,
		sceneID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list runs")
	}
	defer rows.Close()

	var runs []model.AnalysisRun
	for rows.Next() {
		var run model.AnalysisRun
		if err := rows.Scan(&run.ID, &run.SceneID, &run.Kind, &run.Result, &run.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan run")
		}
		runs = append(runs, run)
	}
	return runs, eris.Wrap(rows.Err(), "postgres: list runs iterate")
}
