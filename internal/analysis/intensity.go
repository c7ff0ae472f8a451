package analysis

import (
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/sardarchitect/anthill/internal/model"
)

// ElementIntensity is one element's carbon normalized by its geometric
// measure: length for linear elements, area for planar ones.
type ElementIntensity struct {
	Name      string  `json:"name"`
	Label     string  `json:"label"`
	Carbon    float64 `json:"carbon"`
	Divisor   float64 `json:"divisor"`
	Intensity float64 `json:"intensity"`
}

// GroupIntensity describes the intensity distribution within one group.
type GroupIntensity struct {
	Label  string  `json:"label"`
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	StdDev float64 `json:"std_dev"`
}

// Intensities computes per-element carbon intensity. Elements without carbon
// or without a usable divisor are skipped; a division by zero can never
// occur here.
func Intensities(rows []model.SummaryRow, classify Classifier) []ElementIntensity {
	if classify == nil {
		classify = DefaultClassifier
	}

	out := make([]ElementIntensity, 0, len(rows))
	for _, row := range rows {
		if !row.HasCarbon() {
			continue
		}
		divisor, ok := row.Divisor()
		if !ok {
			continue
		}
		out = append(out, ElementIntensity{
			Name:      row.Name,
			Label:     classify(row),
			Carbon:    *row.EmbodiedCarbon,
			Divisor:   divisor,
			Intensity: *row.EmbodiedCarbon / divisor,
		})
	}
	return out
}

// IntensityByGroup summarizes the intensity distribution per group, in the
// order each group was first encountered. Empty input yields an empty slice.
func IntensityByGroup(rows []model.SummaryRow, classify Classifier) []GroupIntensity {
	elements := Intensities(rows, classify)

	byLabel := map[string][]float64{}
	var order []string
	for _, el := range elements {
		if _, ok := byLabel[el.Label]; !ok {
			order = append(order, el.Label)
		}
		byLabel[el.Label] = append(byLabel[el.Label], el.Intensity)
	}

	out := make([]GroupIntensity, 0, len(order))
	for _, label := range order {
		xs := byLabel[label]
		sort.Float64s(xs)
		g := GroupIntensity{
			Label:  label,
			Count:  len(xs),
			Mean:   stat.Mean(xs, nil),
			Median: stat.Quantile(0.5, stat.Empirical, xs, nil),
			Min:    xs[0],
			Max:    xs[len(xs)-1],
		}
		if len(xs) > 1 {
			g.StdDev = stat.StdDev(xs, nil)
		}
		out = append(out, g)
	}
	return out
}
