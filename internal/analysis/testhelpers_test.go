package analysis

import "github.com/sardarchitect/anthill/internal/model"

func fp(v float64) *float64 { return &v }

func sp(s string) *string { return &s }

func carbonRow(name string, carbon float64) model.SummaryRow {
	return model.SummaryRow{Name: name, EmbodiedCarbon: fp(carbon)}
}

func beamRow(name string, carbon, length float64) model.SummaryRow {
	return model.SummaryRow{
		Name:           name,
		EmbodiedCarbon: fp(carbon),
		Length:         fp(length),
		StructuralType: sp(GroupBeam),
	}
}

func slabRow(name string, carbon, area, maxZ float64) model.SummaryRow {
	return model.SummaryRow{
		Name:           name,
		EmbodiedCarbon: fp(carbon),
		Area:           fp(area),
		MaxZ:           maxZ,
		StructuralType: sp(GroupFloor),
	}
}
