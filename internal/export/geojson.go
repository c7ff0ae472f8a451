package export

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
	"go.uber.org/zap"

	"github.com/sardarchitect/anthill/internal/model"
)

// Features converts a scene to a GeoJSON feature collection: beams and
// columns as 3D LineStrings, slabs as Polygons, and mesh surfaces as
// bounding-box footprint Polygons at their base elevation. Elements whose
// geometry cannot form a valid feature are skipped.
func Features(scene *model.Scene) *geojson.FeatureCollection {
	fc := &geojson.FeatureCollection{Features: []*geojson.Feature{}}

	for _, sf := range scene.Surfaces {
		box, ok := sf.Bounds()
		if !ok {
			zap.L().Debug("export: skipping surface without vertices", zap.String("name", sf.Name))
			continue
		}
		geometry := footprintGeometry(box)
		if geometry == nil {
			continue
		}
		props := map[string]interface{}{"name": sf.Name, "kind": "surface"}
		if sf.StructuralType != "" {
			props["structural_type"] = sf.StructuralType
		}
		if sf.EmbodiedCarbon != nil {
			props["embodied_carbon"] = *sf.EmbodiedCarbon
		}
		fc.Features = append(fc.Features, &geojson.Feature{
			ID:         sf.Name,
			Geometry:   geometry,
			Properties: props,
		})
	}

	for _, b := range scene.Beams {
		fc.Features = append(fc.Features, lineFeature(b, "beam"))
	}
	for _, c := range scene.Columns {
		fc.Features = append(fc.Features, lineFeature(c, "column"))
	}

	for _, sl := range scene.Slabs {
		poly := slabPolygon(sl.Corners)
		if poly == nil {
			zap.L().Debug("export: skipping degenerate slab", zap.String("name", sl.Name))
			continue
		}
		props := map[string]interface{}{"name": sl.Name, "kind": "slab", "area": sl.Area()}
		if sl.EmbodiedCarbon != nil {
			props["embodied_carbon"] = *sl.EmbodiedCarbon
		}
		fc.Features = append(fc.Features, &geojson.Feature{
			ID:         sl.Name,
			Geometry:   poly,
			Properties: props,
		})
	}

	return fc
}

// WriteGeoJSON writes the scene's feature collection to path.
func WriteGeoJSON(path string, scene *model.Scene) error {
	data, err := json.Marshal(Features(scene))
	if err != nil {
		return eris.Wrap(err, "export: encode GeoJSON")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return eris.Wrapf(err, "export: write %s", path)
	}
	return nil
}

func lineFeature(l model.LineElement, kind string) *geojson.Feature {
	props := map[string]interface{}{"name": l.Name, "kind": kind, "length": l.Length()}
	if l.EmbodiedCarbon != nil {
		props["embodied_carbon"] = *l.EmbodiedCarbon
	}
	return &geojson.Feature{
		ID: l.Name,
		Geometry: geom.NewLineStringFlat(geom.XYZ, []float64{
			l.Start.X, l.Start.Y, l.Start.Z,
			l.End.X, l.End.Y, l.End.Z,
		}),
		Properties: props,
	}
}

// slabPolygon builds a closed 3D ring from the slab corners. Fewer than 3
// corners cannot form a ring.
func slabPolygon(corners []model.Point) *geom.Polygon {
	if len(corners) < 3 {
		return nil
	}

	flat := make([]float64, 0, (len(corners)+1)*3)
	for _, p := range corners {
		flat = append(flat, p.X, p.Y, p.Z)
	}
	flat = append(flat, corners[0].X, corners[0].Y, corners[0].Z)

	poly := geom.NewPolygon(geom.XYZ)
	if err := poly.Push(geom.NewLinearRingFlat(geom.XYZ, flat)); err != nil {
		zap.L().Debug("export: skipping malformed slab ring", zap.Error(err))
		return nil
	}
	return poly
}

// footprintGeometry projects a bounding box to a closed rectangle at the
// box's base elevation.
func footprintGeometry(box model.Box) *geom.Polygon {
	z := box.Min.Z
	flat := []float64{
		box.Min.X, box.Min.Y, z,
		box.Max.X, box.Min.Y, z,
		box.Max.X, box.Max.Y, z,
		box.Min.X, box.Max.Y, z,
		box.Min.X, box.Min.Y, z,
	}

	poly := geom.NewPolygon(geom.XYZ)
	if err := poly.Push(geom.NewLinearRingFlat(geom.XYZ, flat)); err != nil {
		zap.L().Debug("export: skipping malformed footprint ring", zap.Error(err))
		return nil
	}
	return poly
}
