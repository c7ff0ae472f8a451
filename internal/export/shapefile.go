package export

import (
	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sardarchitect/anthill/internal/model"
)

// WriteFootprints writes slab footprints to an ESRI polygon shapefile with
// NAME, TYPE, and CARBON attributes. Slabs with fewer than three corners are
// skipped; slabs without a carbon value write 0 to the CARBON column.
func WriteFootprints(path string, scene *model.Scene) error {
	w, err := shp.Create(path, shp.POLYGON)
	if err != nil {
		return eris.Wrapf(err, "export: create shapefile %s", path)
	}
	defer w.Close()

	w.SetFields([]shp.Field{
		shp.StringField("NAME", 64),
		shp.StringField("TYPE", 32),
		shp.FloatField("CARBON", 16, 4),
	})

	var row int
	for _, slab := range scene.Slabs {
		if len(slab.Corners) < 3 {
			zap.L().Debug("export: skipping degenerate slab footprint", zap.String("name", slab.Name))
			continue
		}

		w.Write(footprintShape(slab.Corners))

		role := slab.Role
		if role == "" {
			role = model.RoleFloor
		}
		var carbon float64
		if slab.EmbodiedCarbon != nil {
			carbon = *slab.EmbodiedCarbon
		}

		if err := writeAttribute(w, row, 0, slab.Name); err != nil {
			return err
		}
		if err := writeAttribute(w, row, 1, string(role)); err != nil {
			return err
		}
		if err := writeAttribute(w, row, 2, carbon); err != nil {
			return err
		}
		row++
	}

	return nil
}

func writeAttribute(w *shp.Writer, row, field int, value interface{}) error {
	return eris.Wrapf(w.WriteAttribute(row, field, value), "export: write attribute %d/%d", row, field)
}

// footprintShape projects slab corners to XY and closes the ring.
func footprintShape(corners []model.Point) *shp.Polygon {
	points := make([]shp.Point, 0, len(corners)+1)
	for _, c := range corners {
		points = append(points, shp.Point{X: c.X, Y: c.Y})
	}
	points = append(points, shp.Point{X: corners[0].X, Y: corners[0].Y})

	box := shp.Box{MinX: points[0].X, MinY: points[0].Y, MaxX: points[0].X, MaxY: points[0].Y}
	for _, p := range points[1:] {
		if p.X < box.MinX {
			box.MinX = p.X
		}
		if p.Y < box.MinY {
			box.MinY = p.Y
		}
		if p.X > box.MaxX {
			box.MaxX = p.X
		}
		if p.Y > box.MaxY {
			box.MaxY = p.Y
		}
	}

	return &shp.Polygon{
		Box:       box,
		NumParts:  1,
		NumPoints: int32(len(points)),
		Parts:     []int32{0},
		Points:    points,
	}
}
