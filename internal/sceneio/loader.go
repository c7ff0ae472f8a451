// Package sceneio turns the semi-structured JSON payloads emitted by the
// parametric-design compute service into typed scenes. Two shapes are
// understood: mesh exports (flat vertex/face arrays keyed by geometry uuid)
// and structural frames (beam/column/slab systems with brace-delimited point
// strings). Geometric violations abort the whole load with a ParseError,
// optional metadata degrades silently, and metadata blocks interleaved with
// element records are merged rather than rejected.
package sceneio

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"

	"github.com/sardarchitect/anthill/internal/model"
)

// LoadScene parses raw payload bytes into a scene. Detection is two-way: a
// top-level StructuralFrame key selects the frame parser, everything else
// goes through the mesh parser and fails loudly there if it matches neither
// shape. Fatal failures return a *ParseError and no scene.
func LoadScene(data []byte) (*model.Scene, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return nil, parseWrapf(err, "sceneio: payload is not a JSON object")
	}

	if raw, ok := top["StructuralFrame"]; ok {
		return parseFrame(raw, top)
	}
	return parseMesh(data)
}

// LoadSceneFile reads and parses a scene payload from disk.
func LoadSceneFile(path string) (*model.Scene, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "sceneio: read %s", path)
	}
	scene, err := LoadScene(data)
	if err != nil {
		return nil, err
	}
	if scene.Meta == nil {
		scene.Meta = map[string]any{}
	}
	scene.Meta["source"] = filepath.Base(path)
	return scene, nil
}

// Format reports which payload shape a parsed scene came from, based on the
// provenance the parsers record.
func Format(scene *model.Scene) model.SceneFormat {
	if scene == nil || scene.Meta == nil {
		return model.FormatMesh
	}
	if f, ok := scene.Meta["format"].(string); ok && f == string(model.FormatFrame) {
		return model.FormatFrame
	}
	return model.FormatMesh
}
