package main

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sardarchitect/anthill/internal/model"
	"github.com/sardarchitect/anthill/internal/sceneio"
	"github.com/sardarchitect/anthill/internal/store"
)

const testMeshPayload = `{
  "geometries": [
    {
      "uuid": "abc-123",
      "data": {
        "vertices": [0,0,0, 6,0,0, 0,4,0, 0,0,3],
        "faces": [0, 0,1,2, 0, 0,2,3],
        "embodiedCarbon": "150",
        "structural_type": "Beam"
      }
    }
  ],
  "object": {
    "children": [
      {"type": "Mesh", "geometry": "abc-123", "name": "girder-a"}
    ]
  }
}`

const testFramePayload = `{
  "StructuralFrame": {
    "BeamSystem": [
      {"PointStart": "{0,0,0}", "PointEnd": "{6,0,0}", "CarbonEmission": 120}
    ],
    "ColumnSystem": [
      {"PointStart": "{0,0,0}", "PointEnd": "{0,0,3}", "CarbonEmission": 45}
    ],
    "SlabSystem": [
      {"Point1": "{0,0,3}", "Point2": "{6,0,3}", "Point3": "{6,4,3}", "Point4": "{0,4,3}", "CarbonEmission": 800}
    ]
  }
}`

func newTestStore(t *testing.T) store.Store {
	t.Helper()

	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "anthill-test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func seedScene(t *testing.T, st store.Store, name, payload string) *model.SceneRecord {
	t.Helper()

	scene, err := sceneio.LoadScene([]byte(payload))
	require.NoError(t, err)

	rec := buildSceneRecord(name, []byte(payload), scene)
	require.NoError(t, st.SaveScene(context.Background(), rec))
	return rec
}
