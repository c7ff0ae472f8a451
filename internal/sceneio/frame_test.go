package sceneio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sardarchitect/anthill/internal/model"
)

func TestParseFrame_Beam(t *testing.T) {
	payload := `{
	  "StructuralFrame": {
	    "BeamSystem": [
	      {"PointStart": "{0, 0, 0}", "PointEnd": "{3, 4, 0}", "CarbonEmission": "10"}
	    ]
	  }
	}`

	scene, err := LoadScene([]byte(payload))
	require.NoError(t, err)
	require.Len(t, scene.Beams, 1)

	beam := scene.Beams[0]
	assert.Equal(t, "Beam_000", beam.Name)
	assert.InDelta(t, 5.0, beam.Length(), 1e-9)
	require.NotNil(t, beam.EmbodiedCarbon)
	assert.InDelta(t, 10, *beam.EmbodiedCarbon, 1e-9)
	assert.Equal(t, model.RoleBeam, beam.Role)
}

func TestParseFrame_CarbonTypoSpelling(t *testing.T) {
	payload := `{
	  "StructuralFrame": {
	    "ColumnSystem": [
	      {"PointStart": "{0, 0, 0}", "PointEnd": "{0, 0, 3}", "CarbonEmmision": 7.25}
	    ]
	  }
	}`

	scene, err := LoadScene([]byte(payload))
	require.NoError(t, err)
	require.Len(t, scene.Columns, 1)
	require.NotNil(t, scene.Columns[0].EmbodiedCarbon)
	assert.InDelta(t, 7.25, *scene.Columns[0].EmbodiedCarbon, 1e-9)
	assert.Equal(t, model.RoleColumn, scene.Columns[0].Role)
}

func TestParseFrame_MissingPointIsFatal(t *testing.T) {
	payload := `{
	  "StructuralFrame": {
	    "BeamSystem": [
	      {"PointStart": "{0, 0, 0}", "PointEnd": "{1, 0, 0}"},
	      {"PointStart": "{0, 0, 0}"}
	    ]
	  }
	}`

	scene, err := LoadScene([]byte(payload))
	assert.Nil(t, scene)
	require.Error(t, err)
	assert.True(t, IsParseError(err))
	assert.Contains(t, err.Error(), "beam 1")
	assert.Contains(t, err.Error(), "PointEnd")
}

func TestParseFrame_BadPointStringIsFatal(t *testing.T) {
	payload := `{
	  "StructuralFrame": {
	    "BeamSystem": [
	      {"PointStart": "{0, 0}", "PointEnd": "{1, 0, 0}"}
	    ]
	  }
	}`

	_, err := LoadScene([]byte(payload))
	require.Error(t, err)
	assert.True(t, IsParseError(err))
	assert.Contains(t, err.Error(), "beam 0")
	assert.Contains(t, err.Error(), "2 components")
}

func TestParseFrame_CarbonDecodeFailureDegrades(t *testing.T) {
	payload := `{
	  "StructuralFrame": {
	    "BeamSystem": [
	      {"PointStart": "{0, 0, 0}", "PointEnd": "{1, 0, 0}", "CarbonEmission": "unknown"}
	    ]
	  }
	}`

	scene, err := LoadScene([]byte(payload))
	require.NoError(t, err)
	require.Len(t, scene.Beams, 1)
	assert.Nil(t, scene.Beams[0].EmbodiedCarbon)
}

func TestParseFrame_GeneratedNamesAreZeroPadded(t *testing.T) {
	payload := `{
	  "StructuralFrame": {
	    "BeamSystem": [
	      {"PointStart": "{0,0,0}", "PointEnd": "{1,0,0}"},
	      {"PointStart": "{0,0,0}", "PointEnd": "{2,0,0}"},
	      {"PointStart": "{0,0,0}", "PointEnd": "{3,0,0}", "Name": "edge-girder"}
	    ]
	  }
	}`

	scene, err := LoadScene([]byte(payload))
	require.NoError(t, err)
	require.Len(t, scene.Beams, 3)
	assert.Equal(t, "Beam_000", scene.Beams[0].Name)
	assert.Equal(t, "Beam_001", scene.Beams[1].Name)
	assert.Equal(t, "edge-girder", scene.Beams[2].Name)
}

func TestParseFrame_Slab(t *testing.T) {
	payload := `{
	  "StructuralFrame": {
	    "SlabSystem": [
	      {"Point1": "{0,0,3}", "Point2": "{4,0,3}", "Point3": "{4,4,3}", "Point4": "{0,4,3}"}
	    ]
	  }
	}`

	scene, err := LoadScene([]byte(payload))
	require.NoError(t, err)
	require.Len(t, scene.Slabs, 1)

	slab := scene.Slabs[0]
	assert.Equal(t, "Floor_000", slab.Name)
	require.Len(t, slab.Corners, 4)
	assert.InDelta(t, 16, slab.Area(), 1e-9)
	assert.Nil(t, slab.EmbodiedCarbon)

	rows := scene.Summary()
	require.Len(t, rows, 1)
	assert.Nil(t, rows[0].EmbodiedCarbon, "absent carbon stays null in the summary row")
}

func TestParseFrame_CornerOrderIsNumeric(t *testing.T) {
	// Keys arrive in arbitrary order and mixed case; Point10 must sort after
	// Point2, not between Point1 and Point2.
	payload := `{
	  "StructuralFrame": {
	    "SlabSystem": [
	      {"point10": "{10,0,0}", "Point1": "{1,0,0}", "POINT2": "{2,0,0}"}
	    ]
	  }
	}`

	scene, err := LoadScene([]byte(payload))
	require.NoError(t, err)
	require.Len(t, scene.Slabs, 1)
	corners := scene.Slabs[0].Corners
	require.Len(t, corners, 3)
	assert.Equal(t, model.Point{X: 1}, corners[0])
	assert.Equal(t, model.Point{X: 2}, corners[1])
	assert.Equal(t, model.Point{X: 10}, corners[2])
}

func TestParseFrame_SlabWithoutCornersIsFatal(t *testing.T) {
	// A "pointless" key still classifies the record as geometry, but no
	// numeric corner keys means the slab has no geometry at all.
	payload := `{
	  "StructuralFrame": {
	    "SlabSystem": [
	      {"PointStart": "{0,0,0}"}
	    ]
	  }
	}`

	_, err := LoadScene([]byte(payload))
	require.Error(t, err)
	assert.True(t, IsParseError(err))
	assert.Contains(t, err.Error(), "no corner point fields")
}

func TestParseFrame_NestedSystemShapes(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{
			"list of lists",
			`{"StructuralFrame": {"BeamSystem": [[
				{"PointStart": "{0,0,0}", "PointEnd": "{1,0,0}"},
				{"PointStart": "{0,0,0}", "PointEnd": "{2,0,0}"}
			]]}}`,
		},
		{
			"flat list",
			`{"StructuralFrame": {"BeamSystem": [
				{"PointStart": "{0,0,0}", "PointEnd": "{1,0,0}"},
				{"PointStart": "{0,0,0}", "PointEnd": "{2,0,0}"}
			]}}`,
		},
		{
			"dict wrapping elements",
			`{"StructuralFrame": {"BeamSystem": {"elements": [
				{"PointStart": "{0,0,0}", "PointEnd": "{1,0,0}"},
				{"PointStart": "{0,0,0}", "PointEnd": "{2,0,0}"}
			]}}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scene, err := LoadScene([]byte(tt.payload))
			require.NoError(t, err)
			assert.Len(t, scene.Beams, 2)
		})
	}
}

func TestParseFrame_MetadataItemsMergeNotRaise(t *testing.T) {
	// Upstream interleaves metrics blocks with geometry records in the same
	// array. Those merge into scene metadata instead of failing the load.
	payload := `{
	  "StructuralFrame": {
	    "BeamSystem": [
	      {"SteelGrade": "S355", "MemberCount": 1},
	      {"PointStart": "{0,0,0}", "PointEnd": "{1,0,0}"}
	    ]
	  }
	}`

	scene, err := LoadScene([]byte(payload))
	require.NoError(t, err)
	require.Len(t, scene.Beams, 1)
	assert.Equal(t, "S355", scene.Meta["SteelGrade"])
	assert.Equal(t, float64(1), scene.Meta["MemberCount"])
}

func TestParseFrame_TotalCO2PassesThrough(t *testing.T) {
	payload := `{
	  "totalCarbonEmission": 321.5,
	  "StructuralFrame": {
	    "TotalCO2": 300.25,
	    "BeamSystem": [
	      {"PointStart": "{0,0,0}", "PointEnd": "{1,0,0}", "CarbonEmission": 5}
	    ]
	  }
	}`

	scene, err := LoadScene([]byte(payload))
	require.NoError(t, err)
	assert.Equal(t, 300.25, scene.Meta["TotalCO2"])
	assert.Equal(t, 321.5, scene.Meta["totalCarbonEmission"])

	// Pass-through, never recomputed from element carbon.
	total, ok := scene.TotalCarbon()
	assert.True(t, ok)
	assert.InDelta(t, 5, total, 1e-9)
}

func TestParseFrame_ListContainer(t *testing.T) {
	// The frame container itself sometimes arrives as a list of fragments;
	// fragments merge with the first occurrence of a key winning.
	payload := `{
	  "StructuralFrame": [
	    {"BeamSystem": [{"PointStart": "{0,0,0}", "PointEnd": "{1,0,0}"}]},
	    {"TotalCO2": 12},
	    {"BeamSystem": [{"PointStart": "{9,9,9}", "PointEnd": "{9,9,10}"}]}
	  ]
	}`

	scene, err := LoadScene([]byte(payload))
	require.NoError(t, err)
	require.Len(t, scene.Beams, 1)
	assert.Equal(t, model.Point{}, scene.Beams[0].Start)
	assert.Equal(t, float64(12), scene.Meta["TotalCO2"])
}

func TestParseFrame_ScalarContainerIsFatal(t *testing.T) {
	_, err := LoadScene([]byte(`{"StructuralFrame": 42}`))
	require.Error(t, err)
	assert.True(t, IsParseError(err))
	assert.Contains(t, err.Error(), "must be an object or a list")
}

func TestParseFrame_ExtraRecordFieldsBecomeElementMeta(t *testing.T) {
	payload := `{
	  "StructuralFrame": {
	    "BeamSystem": [
	      {"PointStart": "{0,0,0}", "PointEnd": "{1,0,0}", "Profile": "IPE300", "CarbonEmission": 4}
	    ]
	  }
	}`

	scene, err := LoadScene([]byte(payload))
	require.NoError(t, err)
	require.Len(t, scene.Beams, 1)
	assert.Equal(t, "IPE300", scene.Beams[0].Meta["Profile"])
	_, hasCarbon := scene.Beams[0].Meta["CarbonEmission"]
	assert.False(t, hasCarbon, "carbon is a field, not metadata")
}
