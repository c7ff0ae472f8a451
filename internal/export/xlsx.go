// Package export writes scene summaries to interchange formats: an XLSX
// element schedule, GeoJSON features, and an ESRI shapefile of slab
// footprints.
package export

import (
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sardarchitect/anthill/internal/analysis"
	"github.com/sardarchitect/anthill/internal/model"
)

// scheduleHeader is the column order of the Elements sheet.
var scheduleHeader = []string{
	"name", "type", "vertices", "faces", "bbox_volume",
	"length", "area", "min_z", "max_z", "embodied_carbon",
}

// WriteSchedule writes an element schedule workbook: a Summary sheet with the
// scene KPIs and per-type carbon totals, and an Elements sheet with one row
// per element in summary order. Optional values render as empty cells.
func WriteSchedule(path string, rows []model.SummaryRow, classify analysis.Classifier) error {
	f := xlsx.NewFile()

	if err := addSummarySheet(f, rows, classify); err != nil {
		return err
	}
	if err := addElementSheet(f, rows); err != nil {
		return err
	}

	return eris.Wrapf(f.Save(path), "export: save workbook %s", path)
}

func addSummarySheet(f *xlsx.File, rows []model.SummaryRow, classify analysis.Classifier) error {
	sheet, err := f.AddSheet("Summary")
	if err != nil {
		return eris.Wrap(err, "export: add summary sheet")
	}

	report := analysis.KPI(rows, classify)

	kv := func(key string, set func(*xlsx.Cell)) {
		row := sheet.AddRow()
		row.AddCell().SetString(key)
		set(row.AddCell())
	}

	kv("total_carbon", func(c *xlsx.Cell) { c.SetFloat(report.TotalCarbon) })
	kv("mean_carbon", func(c *xlsx.Cell) { c.SetFloat(report.MeanCarbon) })
	kv("max_carbon", func(c *xlsx.Cell) { c.SetFloat(report.MaxCarbon) })
	kv("min_carbon", func(c *xlsx.Cell) { c.SetFloat(report.MinCarbon) })
	kv("carbon_elements", func(c *xlsx.Cell) { c.SetInt(report.ElementCount) })
	kv("total_elements", func(c *xlsx.Cell) { c.SetInt(len(rows)) })

	sheet.AddRow()

	header := sheet.AddRow()
	for _, name := range []string{"type", "total", "count", "percent"} {
		header.AddCell().SetString(name)
	}
	for _, g := range report.Groups {
		row := sheet.AddRow()
		row.AddCell().SetString(g.Label)
		row.AddCell().SetFloat(g.Total)
		row.AddCell().SetInt(g.Count)
		row.AddCell().SetFloat(g.Percent)
	}

	return nil
}

func addElementSheet(f *xlsx.File, rows []model.SummaryRow) error {
	sheet, err := f.AddSheet("Elements")
	if err != nil {
		return eris.Wrap(err, "export: add elements sheet")
	}

	header := sheet.AddRow()
	for _, name := range scheduleHeader {
		header.AddCell().SetString(name)
	}

	for _, r := range rows {
		row := sheet.AddRow()
		row.AddCell().SetString(r.Name)
		if r.StructuralType != nil {
			row.AddCell().SetString(*r.StructuralType)
		} else {
			row.AddCell()
		}
		row.AddCell().SetInt(r.Vertices)
		row.AddCell().SetInt(r.Faces)
		row.AddCell().SetFloat(r.BBoxVolume)
		if r.Length != nil {
			row.AddCell().SetFloat(*r.Length)
		} else {
			row.AddCell()
		}
		if r.Area != nil {
			row.AddCell().SetFloat(*r.Area)
		} else {
			row.AddCell()
		}
		row.AddCell().SetFloat(r.MinZ)
		row.AddCell().SetFloat(r.MaxZ)
		if r.EmbodiedCarbon != nil {
			row.AddCell().SetFloat(*r.EmbodiedCarbon)
		} else {
			row.AddCell()
		}
	}

	return nil
}
