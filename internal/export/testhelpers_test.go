package export

import "github.com/sardarchitect/anthill/internal/model"

func fp(v float64) *float64 { return &v }

// testScene covers every element kind: one mesh surface, one beam, one
// carbon-free column, one slab.
func testScene() *model.Scene {
	return &model.Scene{
		Surfaces: []model.Surface{{
			Name: "mesh_0",
			Vertices: []model.Point{
				{X: 0, Y: 0, Z: 0}, {X: 4, Y: 0, Z: 0},
				{X: 4, Y: 2, Z: 0}, {X: 0, Y: 2, Z: 3},
			},
			Faces:          [][3]int{{0, 1, 2}, {0, 2, 3}},
			EmbodiedCarbon: fp(50),
		}},
		Beams: []model.LineElement{{
			Name:           "Beam_000",
			Start:          model.Point{X: 0, Y: 0, Z: 3},
			End:            model.Point{X: 6, Y: 0, Z: 3},
			Role:           model.RoleBeam,
			EmbodiedCarbon: fp(120),
		}},
		Columns: []model.LineElement{{
			Name:  "Column_000",
			Start: model.Point{X: 0, Y: 0, Z: 0},
			End:   model.Point{X: 0, Y: 0, Z: 3},
			Role:  model.RoleColumn,
		}},
		Slabs: []model.PlanarElement{{
			Name: "Floor_000",
			Corners: []model.Point{
				{X: 0, Y: 0, Z: 3}, {X: 6, Y: 0, Z: 3},
				{X: 6, Y: 4, Z: 3}, {X: 0, Y: 4, Z: 3},
			},
			Role:           model.RoleFloor,
			EmbodiedCarbon: fp(800),
		}},
		Meta: map[string]any{},
	}
}
