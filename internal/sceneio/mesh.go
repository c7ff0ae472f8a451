package sceneio

import (
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/sardarchitect/anthill/internal/model"
)

// meshExport mirrors the mesh payload produced by the design tool's export:
// flat vertex/face arrays per geometry block plus an object tree that maps
// geometry uuids to display names.
type meshExport struct {
	Geometries []meshGeometry `json:"geometries"`
	Object     meshObject     `json:"object"`
}

type meshGeometry struct {
	UUID string       `json:"uuid"`
	Data meshGeomData `json:"data"`
}

type meshGeomData struct {
	Vertices       []float64 `json:"vertices"`
	Faces          []float64 `json:"faces"`
	EmbodiedCarbon any       `json:"embodiedCarbon"`
	StructuralType any       `json:"structural_type"`
}

type meshObject struct {
	Children []meshChild `json:"children"`
}

type meshChild struct {
	Type     string `json:"type"`
	Geometry string `json:"geometry"`
	Name     string `json:"name"`
}

// parseMesh builds a scene from a mesh-export payload. Every geometric
// violation is fatal; only the optional carbon and structural-type fields
// degrade.
func parseMesh(data []byte) (*model.Scene, error) {
	var export meshExport
	if err := json.Unmarshal(data, &export); err != nil {
		return nil, parseWrapf(err, "sceneio: decode mesh export")
	}
	if export.Geometries == nil {
		return nil, parseErrorf("sceneio: mesh export has no geometries")
	}

	names := make(map[string]string, len(export.Object.Children))
	for _, child := range export.Object.Children {
		if child.Type == "Mesh" && child.Geometry != "" {
			names[child.Geometry] = child.Name
		}
	}

	scene := model.NewScene()
	scene.Meta["format"] = string(model.FormatMesh)

	for i, g := range export.Geometries {
		name := names[g.UUID]
		if name == "" {
			name = g.UUID
		}
		if name == "" {
			name = fmt.Sprintf("mesh_%d", i)
		}

		surface, err := buildSurface(name, g)
		if err != nil {
			return nil, err
		}
		scene.Surfaces = append(scene.Surfaces, surface)
	}

	zap.L().Debug("sceneio: mesh export parsed",
		zap.Int("surfaces", len(scene.Surfaces)),
		zap.Int("vertices", scene.TotalVertices()),
	)
	return scene, nil
}

func buildSurface(name string, g meshGeometry) (model.Surface, error) {
	if len(g.Data.Vertices)%3 != 0 {
		return model.Surface{}, parseErrorf(
			"sceneio: mesh %q: vertex array length %d is not divisible by 3", name, len(g.Data.Vertices))
	}
	if len(g.Data.Faces)%4 != 0 {
		return model.Surface{}, parseErrorf(
			"sceneio: mesh %q: face array length %d is not divisible by 4", name, len(g.Data.Faces))
	}

	vertices := make([]model.Point, 0, len(g.Data.Vertices)/3)
	for i := 0; i+2 < len(g.Data.Vertices); i += 3 {
		vertices = append(vertices, model.Point{
			X: g.Data.Vertices[i],
			Y: g.Data.Vertices[i+1],
			Z: g.Data.Vertices[i+2],
		})
	}

	// Faces arrive as quadruples (flag, a, b, c). Only flag 0, plain
	// triangles, is supported; anything else is rejected rather than guessed
	// at.
	faces := make([][3]int, 0, len(g.Data.Faces)/4)
	for i := 0; i+3 < len(g.Data.Faces); i += 4 {
		flag := int(g.Data.Faces[i])
		if flag != 0 {
			return model.Surface{}, parseErrorf(
				"sceneio: mesh %q: unsupported face flag %d at face %d", name, flag, i/4)
		}
		tri := [3]int{int(g.Data.Faces[i+1]), int(g.Data.Faces[i+2]), int(g.Data.Faces[i+3])}
		for _, idx := range tri {
			if idx < 0 || idx >= len(vertices) {
				return model.Surface{}, parseErrorf(
					"sceneio: mesh %q: face %d references vertex %d, have %d vertices",
					name, i/4, idx, len(vertices))
			}
		}
		faces = append(faces, tri)
	}

	surface := model.Surface{
		Name:           name,
		Vertices:       vertices,
		Faces:          faces,
		EmbodiedCarbon: carbonOf(g.Data.EmbodiedCarbon, name),
		Meta: map[string]any{
			"uuid":         g.UUID,
			"vertex_count": len(vertices),
		},
	}
	if st, ok := toString(g.Data.StructuralType); ok {
		surface.StructuralType = st
	} else if g.Data.StructuralType != nil {
		zap.L().Debug("sceneio: structural_type not coercible, dropping",
			zap.String("element", name),
			zap.Any("raw", g.Data.StructuralType),
		)
	}
	return surface, nil
}
