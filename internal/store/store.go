// Package store persists parsed scenes and their analysis runs behind a
// driver-agnostic interface with SQLite and Postgres implementations.
package store

import (
	"context"

	"github.com/sardarchitect/anthill/internal/model"
)

// SceneFilter specifies criteria for listing stored scenes.
type SceneFilter struct {
	Format model.SceneFormat `json:"format,omitempty"`
	Limit  int               `json:"limit,omitempty"`
	Offset int               `json:"offset,omitempty"`
}

// Store defines the persistence interface for scenes and analysis runs.
//
// SaveScene assigns ID and CreatedAt when unset and replaces any scene
// already stored under the same ID. GetScene returns (nil, nil) on a miss so
// callers can distinguish absence from driver failure. ListScenes returns
// scene headers only: RawPayload and Summary stay nil and are loaded per
// scene via GetScene.
type Store interface {
	// Scenes
	SaveScene(ctx context.Context, rec *model.SceneRecord) error
	GetScene(ctx context.Context, id string) (*model.SceneRecord, error)
	ListScenes(ctx context.Context, filter SceneFilter) ([]model.SceneRecord, error)
	DeleteScene(ctx context.Context, id string) error

	// Analysis runs
	SaveRun(ctx context.Context, run *model.AnalysisRun) error
	ListRuns(ctx context.Context, sceneID string) ([]model.AnalysisRun, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}
