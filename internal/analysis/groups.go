package analysis

import (
	"sort"

	"github.com/sardarchitect/anthill/internal/model"
)

// GroupTotal is one group's share of the scene's embodied carbon.
type GroupTotal struct {
	Label   string  `json:"label"`
	Total   float64 `json:"total"`
	Count   int     `json:"count"`
	Percent float64 `json:"percent"`
}

// GroupTotals sums carbon per group label. Rows without a carbon value are
// excluded, and the percentage base is the filtered set's grand total, not
// the whole scene, so the percentages always sum to 100 when any carbon
// exists. Groups are ordered by descending total; equal totals keep the order
// their label was first encountered in.
func GroupTotals(rows []model.SummaryRow, classify Classifier) []GroupTotal {
	if classify == nil {
		classify = DefaultClassifier
	}

	totals := map[string]*GroupTotal{}
	var order []string
	var grand float64

	for _, row := range rows {
		if !row.HasCarbon() {
			continue
		}
		label := classify(row)
		g, ok := totals[label]
		if !ok {
			g = &GroupTotal{Label: label}
			totals[label] = g
			order = append(order, label)
		}
		g.Total += *row.EmbodiedCarbon
		g.Count++
		grand += *row.EmbodiedCarbon
	}

	out := make([]GroupTotal, 0, len(order))
	for _, label := range order {
		out = append(out, *totals[label])
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Total > out[j].Total })

	if grand > 0 {
		for i := range out {
			out[i].Percent = out[i].Total / grand * 100
		}
	}
	return out
}
