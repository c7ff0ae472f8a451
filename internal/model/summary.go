package model

// SummaryRow is the flattened, read-only projection of one element consumed
// by the analytics and presentation layers. It is the sole contract between
// scene construction and everything downstream: aggregation reads rows and
// never writes back.
//
// EmbodiedCarbon and StructuralType are nullable but always serialized; "no
// carbon data" is a value, not an omitted key. Length appears only for linear
// elements, Area only for planar ones.
type SummaryRow struct {
	Name           string   `json:"name"`
	Vertices       int      `json:"vertices"`
	Faces          int      `json:"faces"`
	BBoxVolume     float64  `json:"bbox_volume"`
	Length         *float64 `json:"length,omitempty"`
	Area           *float64 `json:"area,omitempty"`
	MinZ           float64  `json:"min_z"`
	MaxZ           float64  `json:"max_z"`
	EmbodiedCarbon *float64 `json:"embodied_carbon"`
	StructuralType *string  `json:"structural_type"`
}

// HasCarbon reports whether a carbon value is present. Rows without one are
// excluded from every carbon aggregation.
func (r SummaryRow) HasCarbon() bool {
	return r.EmbodiedCarbon != nil
}

// Divisor returns the geometric quantity carbon intensity is normalized by:
// length for linear elements, area for planar ones when no usable length
// exists. ok is false when neither is usable, in which case the element is
// skipped by intensity analysis.
func (r SummaryRow) Divisor() (v float64, ok bool) {
	if r.Length != nil && *r.Length > 0 {
		return *r.Length, true
	}
	if r.Area != nil && *r.Area > 0 {
		return *r.Area, true
	}
	return 0, false
}
