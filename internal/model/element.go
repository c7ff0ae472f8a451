package model

import "math"

// Role tags an element with its structural function. Line elements share one
// shape and differ only by role; planar elements default to floor.
type Role string

const (
	RoleBeam   Role = "Beam"
	RoleColumn Role = "Column"
	RoleFloor  Role = "Floor"
)

// Element is the capability every scene element kind provides. The
// aggregation side works on summary rows and boxes only, so new kinds plug in
// without type switches at the call sites.
type Element interface {
	ToSummaryRow() SummaryRow
	Bounds() (Box, bool)
}

// Surface is a triangulated mesh element. Every face index is within
// [0, len(Vertices)); the parser enforces this before construction.
type Surface struct {
	Name           string         `json:"name"`
	Vertices       []Point        `json:"vertices"`
	Faces          [][3]int       `json:"faces"`
	EmbodiedCarbon *float64       `json:"embodied_carbon,omitempty"`
	StructuralType string         `json:"structural_type,omitempty"`
	Meta           map[string]any `json:"meta,omitempty"`
}

// Bounds returns the AABB over the surface's vertices. ok is false when the
// surface has no vertices.
func (s Surface) Bounds() (Box, bool) {
	return boundsOf(s.Vertices)
}

// ToSummaryRow flattens the surface for the analytics layer.
func (s Surface) ToSummaryRow() SummaryRow {
	box, ok := s.Bounds()
	row := SummaryRow{
		Name:           s.Name,
		Vertices:       len(s.Vertices),
		Faces:          len(s.Faces),
		EmbodiedCarbon: s.EmbodiedCarbon,
	}
	if ok {
		row.BBoxVolume = box.Volume()
		row.MinZ = box.Min.Z
		row.MaxZ = box.Max.Z
	}
	if s.StructuralType != "" {
		st := s.StructuralType
		row.StructuralType = &st
	}
	return row
}

// LineElement is a linear structural member, a beam or a column.
type LineElement struct {
	Name           string         `json:"name"`
	Start          Point          `json:"start"`
	End            Point          `json:"end"`
	EmbodiedCarbon *float64       `json:"embodied_carbon,omitempty"`
	Role           Role           `json:"role"`
	Meta           map[string]any `json:"meta,omitempty"`
}

// Length returns the Euclidean distance between the endpoints. Zero-length
// members are legal; intensity analysis treats them as degenerate and skips
// them.
func (l LineElement) Length() float64 {
	return l.Start.DistanceTo(l.End)
}

// Bounds returns the AABB spanned by the two endpoints.
func (l LineElement) Bounds() (Box, bool) {
	return boundsOf([]Point{l.Start, l.End})
}

// ToSummaryRow flattens the member. Linear elements are non-volumetric, so
// the box volume is reported as 0 and length carries the geometric measure.
func (l LineElement) ToSummaryRow() SummaryRow {
	box, _ := l.Bounds()
	length := l.Length()
	role := string(l.roleOrDefault())
	return SummaryRow{
		Name:           l.Name,
		Vertices:       2,
		Faces:          0,
		BBoxVolume:     0,
		Length:         &length,
		MinZ:           box.Min.Z,
		MaxZ:           box.Max.Z,
		EmbodiedCarbon: l.EmbodiedCarbon,
		StructuralType: &role,
	}
}

func (l LineElement) roleOrDefault() Role {
	if l.Role == "" {
		return RoleBeam
	}
	return l.Role
}

// PlanarElement is a slab or floor plate described by its corner polygon. The
// polygon is treated as planar even when the corners are not exactly
// coplanar.
type PlanarElement struct {
	Name           string         `json:"name"`
	Corners        []Point        `json:"corners"`
	EmbodiedCarbon *float64       `json:"embodied_carbon,omitempty"`
	Role           Role           `json:"role"`
	Meta           map[string]any `json:"meta,omitempty"`
}

// Area computes the polygon area by fan triangulation from the first corner.
// Fewer than 3 corners yields 0 rather than an error.
func (p PlanarElement) Area() float64 {
	if len(p.Corners) < 3 {
		return 0
	}
	var total float64
	a := p.Corners[0]
	for i := 1; i < len(p.Corners)-1; i++ {
		total += triangleArea(a, p.Corners[i], p.Corners[i+1])
	}
	return total
}

// Centroid returns the arithmetic mean of the corners.
func (p PlanarElement) Centroid() Point {
	if len(p.Corners) == 0 {
		return Point{}
	}
	var c Point
	for _, q := range p.Corners {
		c.X += q.X
		c.Y += q.Y
		c.Z += q.Z
	}
	n := float64(len(p.Corners))
	return Point{X: c.X / n, Y: c.Y / n, Z: c.Z / n}
}

// Bounds returns the AABB over the corners.
func (p PlanarElement) Bounds() (Box, bool) {
	return boundsOf(p.Corners)
}

// ToSummaryRow flattens the slab. Planar elements are non-volumetric, so the
// box volume is 0 and area carries the geometric measure.
func (p PlanarElement) ToSummaryRow() SummaryRow {
	box, ok := p.Bounds()
	area := p.Area()
	role := RoleFloor
	if p.Role != "" {
		role = p.Role
	}
	st := string(role)
	row := SummaryRow{
		Name:           p.Name,
		Vertices:       len(p.Corners),
		Faces:          0,
		BBoxVolume:     0,
		Area:           &area,
		EmbodiedCarbon: p.EmbodiedCarbon,
		StructuralType: &st,
	}
	if ok {
		row.MinZ = box.Min.Z
		row.MaxZ = box.Max.Z
	}
	return row
}

// triangleArea is half the cross-product magnitude of the triangle's edge
// vectors, valid for triangles in any orientation in 3D.
func triangleArea(a, b, c Point) float64 {
	ux, uy, uz := b.X-a.X, b.Y-a.Y, b.Z-a.Z
	vx, vy, vz := c.X-a.X, c.Y-a.Y, c.Z-a.Z
	cx := uy*vz - uz*vy
	cy := uz*vx - ux*vz
	cz := ux*vy - uy*vx
	return 0.5 * math.Sqrt(cx*cx+cy*cy+cz*cz)
}
