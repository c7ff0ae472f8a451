package analysis

import (
	"math"
	"sort"

	"github.com/sardarchitect/anthill/internal/model"
)

// FloorTotal is the carbon attributed to one story.
type FloorTotal struct {
	Floor int     `json:"floor"`
	Total float64 `json:"total"`
	Count int     `json:"count"`
}

// FloorTotals bins carbon-bearing rows into integer floor indices by
// dividing each row's max-Z coordinate by the story height and rounding to
// the nearest integer. Floors are reported in ascending order. A non-positive
// story height falls back to the default.
func FloorTotals(rows []model.SummaryRow, storyHeight float64) []FloorTotal {
	if storyHeight <= 0 {
		storyHeight = DefaultStoryHeight
	}

	byFloor := map[int]*FloorTotal{}
	for _, row := range rows {
		if !row.HasCarbon() {
			continue
		}
		floor := int(math.Round(row.MaxZ / storyHeight))
		f, ok := byFloor[floor]
		if !ok {
			f = &FloorTotal{Floor: floor}
			byFloor[floor] = f
		}
		f.Total += *row.EmbodiedCarbon
		f.Count++
	}

	out := make([]FloorTotal, 0, len(byFloor))
	for _, f := range byFloor {
		out = append(out, *f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Floor < out[j].Floor })
	return out
}
