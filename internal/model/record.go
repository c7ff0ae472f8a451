package model

import "time"

// SceneFormat identifies which payload shape a stored scene was parsed from.
type SceneFormat string

const (
	FormatMesh  SceneFormat = "mesh"
	FormatFrame SceneFormat = "frame"
)

// SceneRecord is the persisted form of a parsed scene: the raw payload for
// re-parsing plus the flattened summary for cheap reads.
type SceneRecord struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Format       SceneFormat  `json:"format"`
	ElementCount int          `json:"element_count"`
	TotalCarbon  *float64     `json:"total_carbon"`
	RawPayload   []byte       `json:"raw_payload,omitempty"`
	Summary      []SummaryRow `json:"summary"`
	CreatedAt    time.Time    `json:"created_at"`
}

// RunKind names an analysis performed over a stored scene.
type RunKind string

const (
	RunKindKPI       RunKind = "kpi"
	RunKindFloors    RunKind = "floors"
	RunKindIntensity RunKind = "intensity"
)

// AnalysisRun records one aggregation pass over a stored scene, with the
// result serialized as JSON.
type AnalysisRun struct {
	ID        string    `json:"id"`
	SceneID   string    `json:"scene_id"`
	Kind      RunKind   `json:"kind"`
	Result    []byte    `json:"result"`
	CreatedAt time.Time `json:"created_at"`
}
