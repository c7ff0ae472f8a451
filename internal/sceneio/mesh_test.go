package sceneio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const meshPayload = `{
  "geometries": [
    {
      "uuid": "abc-123",
      "data": {
        "vertices": [0,0,0, 1,0,0, 0,1,0, 0,0,2],
        "faces": [0, 0,1,2, 0, 0,2,3],
        "embodiedCarbon": "42.5",
        "structural_type": "Beam"
      }
    },
    {
      "uuid": "def-456",
      "data": {
        "vertices": [0,0,0, 2,0,0, 0,2,0],
        "faces": [0, 0,1,2]
      }
    }
  ],
  "object": {
    "children": [
      {"type": "Mesh", "geometry": "abc-123", "name": "girder-a"},
      {"type": "Group", "geometry": "def-456", "name": "not-a-mesh"}
    ]
  }
}`

func TestParseMesh(t *testing.T) {
	scene, err := LoadScene([]byte(meshPayload))
	require.NoError(t, err)
	require.Len(t, scene.Surfaces, 2)

	first := scene.Surfaces[0]
	assert.Equal(t, "girder-a", first.Name)
	assert.Len(t, first.Vertices, 4)
	assert.Len(t, first.Faces, 2)
	require.NotNil(t, first.EmbodiedCarbon)
	assert.InDelta(t, 42.5, *first.EmbodiedCarbon, 1e-9)
	assert.Equal(t, "Beam", first.StructuralType)
	assert.Equal(t, "abc-123", first.Meta["uuid"])
	assert.Equal(t, 4, first.Meta["vertex_count"])

	// Children that are not Mesh nodes contribute no name; the uuid stands in.
	second := scene.Surfaces[1]
	assert.Equal(t, "def-456", second.Name)
	assert.Nil(t, second.EmbodiedCarbon)
	assert.Empty(t, second.StructuralType)

	assert.Equal(t, 7, scene.TotalVertices())
	assert.Equal(t, 3, scene.TotalFaces())
}

func TestParseMesh_VertexCountMismatch(t *testing.T) {
	payload := `{
	  "geometries": [{"uuid": "u1", "data": {"vertices": [0,0,0,1,1], "faces": []}}],
	  "object": {"children": []}
	}`

	scene, err := LoadScene([]byte(payload))
	assert.Nil(t, scene, "no partial scene on fatal errors")
	require.Error(t, err)
	assert.True(t, IsParseError(err))
	assert.Contains(t, err.Error(), "not divisible by 3")
}

func TestParseMesh_FaceArrayMismatch(t *testing.T) {
	payload := `{
	  "geometries": [{"uuid": "u1", "data": {"vertices": [0,0,0,1,0,0,0,1,0], "faces": [0,0,1]}}],
	  "object": {"children": []}
	}`

	_, err := LoadScene([]byte(payload))
	require.Error(t, err)
	assert.True(t, IsParseError(err))
	assert.Contains(t, err.Error(), "not divisible by 4")
}

func TestParseMesh_UnsupportedFaceFlag(t *testing.T) {
	payload := `{
	  "geometries": [{"uuid": "u1", "data": {"vertices": [0,0,0,1,0,0,0,1,0], "faces": [1, 0,1,2]}}],
	  "object": {"children": []}
	}`

	_, err := LoadScene([]byte(payload))
	require.Error(t, err)
	assert.True(t, IsParseError(err))
	assert.Contains(t, err.Error(), "unsupported face flag 1")
}

func TestParseMesh_FaceIndexOutOfRange(t *testing.T) {
	payload := `{
	  "geometries": [{"uuid": "u1", "data": {"vertices": [0,0,0,1,0,0,0,1,0], "faces": [0, 0,1,3]}}],
	  "object": {"children": []}
	}`

	_, err := LoadScene([]byte(payload))
	require.Error(t, err)
	assert.True(t, IsParseError(err))
	assert.Contains(t, err.Error(), "references vertex 3")
}

func TestParseMesh_NoGeometries(t *testing.T) {
	_, err := LoadScene([]byte(`{"object": {"children": []}}`))
	require.Error(t, err)
	assert.True(t, IsParseError(err))
	assert.Contains(t, err.Error(), "no geometries")
}

func TestParseMesh_EmptyGeometryList(t *testing.T) {
	scene, err := LoadScene([]byte(`{"geometries": [], "object": {"children": []}}`))
	require.NoError(t, err)
	assert.Empty(t, scene.Surfaces)
	assert.Empty(t, scene.Summary())
}

func TestParseMesh_OptionalFieldsDegrade(t *testing.T) {
	payload := `{
	  "geometries": [{
	    "uuid": "u1",
	    "data": {
	      "vertices": [0,0,0,1,0,0,0,1,0],
	      "faces": [0, 0,1,2],
	      "embodiedCarbon": "not-a-number",
	      "structural_type": 99
	    }
	  }],
	  "object": {"children": []}
	}`

	scene, err := LoadScene([]byte(payload))
	require.NoError(t, err, "optional-field coercion failures never abort the load")
	require.Len(t, scene.Surfaces, 1)
	assert.Nil(t, scene.Surfaces[0].EmbodiedCarbon)
	assert.Empty(t, scene.Surfaces[0].StructuralType)
}

func TestParseMesh_NameFallbackToIndex(t *testing.T) {
	payload := `{
	  "geometries": [{"uuid": "", "data": {"vertices": [], "faces": []}}],
	  "object": {"children": []}
	}`

	scene, err := LoadScene([]byte(payload))
	require.NoError(t, err)
	require.Len(t, scene.Surfaces, 1)
	assert.Equal(t, "mesh_0", scene.Surfaces[0].Name)
}
