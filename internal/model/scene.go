package model

// Scene is the aggregate root for one parsed building instance: every element
// collection plus provenance metadata (source totals, payload echo). A Scene
// is built once per load and treated as immutable afterwards, so concurrent
// readers need no locking as long as they do not mutate returned slices.
type Scene struct {
	Surfaces []Surface       `json:"surfaces"`
	Beams    []LineElement   `json:"beams"`
	Columns  []LineElement   `json:"columns"`
	Slabs    []PlanarElement `json:"slabs"`
	Meta     map[string]any  `json:"meta,omitempty"`
}

// NewScene returns an empty scene with initialized metadata.
func NewScene() *Scene {
	return &Scene{Meta: map[string]any{}}
}

// ElementCount returns the number of elements across all collections.
func (s *Scene) ElementCount() int {
	return len(s.Surfaces) + len(s.Beams) + len(s.Columns) + len(s.Slabs)
}

// TotalVertices sums vertex counts over the surface collection.
func (s *Scene) TotalVertices() int {
	var n int
	for _, sf := range s.Surfaces {
		n += len(sf.Vertices)
	}
	return n
}

// TotalFaces sums face counts over the surface collection.
func (s *Scene) TotalFaces() int {
	var n int
	for _, sf := range s.Surfaces {
		n += len(sf.Faces)
	}
	return n
}

// elements returns every element under the shared capability, in summary
// order.
func (s *Scene) elements() []Element {
	out := make([]Element, 0, s.ElementCount())
	for _, sf := range s.Surfaces {
		out = append(out, sf)
	}
	for _, b := range s.Beams {
		out = append(out, b)
	}
	for _, c := range s.Columns {
		out = append(out, c)
	}
	for _, sl := range s.Slabs {
		out = append(out, sl)
	}
	return out
}

// AggregateBounds computes the union AABB over every point in every
// collection. An entirely empty scene returns the degenerate zero box; that
// is defined behavior, not an error.
func (s *Scene) AggregateBounds() Box {
	var agg Box
	var any bool
	for _, el := range s.elements() {
		box, ok := el.Bounds()
		if !ok {
			continue
		}
		if !any {
			agg = box
			any = true
			continue
		}
		agg = union(agg, box)
	}
	return agg
}

// Summary produces one row per element in the fixed order surfaces, beams,
// columns, slabs. The slice is built fresh on every call; no row is omitted
// for missing optional data.
func (s *Scene) Summary() []SummaryRow {
	els := s.elements()
	rows := make([]SummaryRow, 0, len(els))
	for _, el := range els {
		rows = append(rows, el.ToSummaryRow())
	}
	return rows
}

// TotalCarbon sums embodied carbon over elements that carry a value. ok is
// false when no element does.
func (s *Scene) TotalCarbon() (total float64, ok bool) {
	for _, row := range s.Summary() {
		if row.HasCarbon() {
			total += *row.EmbodiedCarbon
			ok = true
		}
	}
	return total, ok
}
