package model

import "math"

// Point is an immutable location in 3D space. Equality is by value.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// DistanceTo returns the Euclidean distance to q.
func (p Point) DistanceTo(q Point) float64 {
	dx := p.X - q.X
	dy := p.Y - q.Y
	dz := p.Z - q.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// Box is an axis-aligned bounding box. The zero Box is the degenerate box at
// the origin, which is what an empty scene reports.
type Box struct {
	Min Point `json:"min"`
	Max Point `json:"max"`
}

// Volume returns the enclosed volume. Degenerate boxes report 0.
func (b Box) Volume() float64 {
	dx := b.Max.X - b.Min.X
	dy := b.Max.Y - b.Min.Y
	dz := b.Max.Z - b.Min.Z
	if dx < 0 || dy < 0 || dz < 0 {
		return 0
	}
	return dx * dy * dz
}

// boundsOf computes the AABB of a point set. ok is false for an empty set.
func boundsOf(points []Point) (box Box, ok bool) {
	for i, p := range points {
		if i == 0 {
			box = Box{Min: p, Max: p}
			continue
		}
		box.Min.X = math.Min(box.Min.X, p.X)
		box.Min.Y = math.Min(box.Min.Y, p.Y)
		box.Min.Z = math.Min(box.Min.Z, p.Z)
		box.Max.X = math.Max(box.Max.X, p.X)
		box.Max.Y = math.Max(box.Max.Y, p.Y)
		box.Max.Z = math.Max(box.Max.Z, p.Z)
	}
	return box, len(points) > 0
}

// union merges two AABBs.
func union(a, b Box) Box {
	return Box{
		Min: Point{
			X: math.Min(a.Min.X, b.Min.X),
			Y: math.Min(a.Min.Y, b.Min.Y),
			Z: math.Min(a.Min.Z, b.Min.Z),
		},
		Max: Point{
			X: math.Max(a.Max.X, b.Max.X),
			Y: math.Max(a.Max.Y, b.Max.Y),
			Z: math.Max(a.Max.Z, b.Max.Z),
		},
	}
}
