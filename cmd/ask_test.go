package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sardarchitect/anthill/internal/analysis"
	"github.com/sardarchitect/anthill/pkg/compute"
)

func TestListScenesTool(t *testing.T) {
	st := newTestStore(t)
	seedScene(t, st, "office.json", testFramePayload)
	seedScene(t, st, "tower.json", testMeshPayload)

	tool, handler := listScenesTool(st)
	assert.Equal(t, "list_scenes", tool.Name)

	out, err := handler(context.Background(), json.RawMessage(`{}`))
	require.NoError(t, err)

	var entries []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &entries))
	require.Len(t, entries, 2)

	names := []string{entries[0]["name"].(string), entries[1]["name"].(string)}
	assert.Contains(t, names, "office.json")
	assert.Contains(t, names, "tower.json")
}

func TestSceneKPITool(t *testing.T) {
	st := newTestStore(t)
	rec := seedScene(t, st, "frame.json", testFramePayload)

	tool, handler := sceneKPITool(st, analysis.DefaultClassifier, 3.0)
	assert.Equal(t, "scene_kpi", tool.Name)
	assert.Contains(t, tool.Required, "scene_id")

	out, err := handler(context.Background(), json.RawMessage(`{"scene_id": "`+rec.ID+`"}`))
	require.NoError(t, err)

	var report analysisReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, "frame.json", report.Scene)
	assert.Equal(t, 3, report.Elements)
	assert.InDelta(t, 965.0, report.KPI.TotalCarbon, 1e-9)

	// Beam sits on the ground floor; column and slab land on floor 1.
	require.Len(t, report.Floors, 2)
	assert.Equal(t, 0, report.Floors[0].Floor)
	assert.InDelta(t, 120.0, report.Floors[0].Total, 1e-9)
	assert.Equal(t, 1, report.Floors[1].Floor)
	assert.InDelta(t, 845.0, report.Floors[1].Total, 1e-9)
}

func TestSceneKPITool_UnknownScene(t *testing.T) {
	st := newTestStore(t)

	_, handler := sceneKPITool(st, analysis.DefaultClassifier, 3.0)

	_, err := handler(context.Background(), json.RawMessage(`{"scene_id": "nope"}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"nope"`)
}

func TestRunDefinitionTool(t *testing.T) {
	// Compute server returning the frame scene from one output parameter.
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/grasshopper", r.URL.Path)

		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.NotEmpty(t, req["algo"])

		resp := compute.SolveResponse{
			Values: []compute.DataTree{
				{
					ParamName: "RH_OUT:scene",
					InnerTree: map[string][]compute.TreeItem{
						"{0}": {{Type: "System.String", Data: strconv.Quote(testFramePayload)}},
					},
				},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer ts.Close()

	dir := t.TempDir()
	ghPath := filepath.Join(dir, "tower.gh")
	require.NoError(t, os.WriteFile(ghPath, []byte("definition-bytes"), 0o644))

	client := compute.NewClient(ts.URL, compute.WithRateLimit(100, 10))
	tool, handler := runDefinitionTool(client, analysis.DefaultClassifier, 3.0)
	assert.Equal(t, "run_definition", tool.Name)

	input, _ := json.Marshal(map[string]any{
		"path":   ghPath,
		"params": map[string]any{"floors": 12, "system": "frame"},
	})

	out, err := handler(context.Background(), input)
	require.NoError(t, err)

	var report analysisReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, 3, report.Elements)
	assert.InDelta(t, 965.0, report.KPI.TotalCarbon, 1e-9)
}

func TestRunDefinitionTool_MissingDefinition(t *testing.T) {
	client := compute.NewClient("http://localhost:0")
	_, handler := runDefinitionTool(client, analysis.DefaultClassifier, 3.0)

	input, _ := json.Marshal(map[string]any{
		"path": filepath.Join(t.TempDir(), "absent.gh"),
	})

	_, err := handler(context.Background(), input)
	require.Error(t, err)
}

func TestAskCommand_Flags(t *testing.T) {
	assert.NotNil(t, askCmd.Flags().Lookup("scene"))
}
