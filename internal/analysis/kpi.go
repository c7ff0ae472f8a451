package analysis

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/sardarchitect/anthill/internal/model"
)

// KPIReport is the headline aggregate handed to dashboards and the CLI
// report: grand total, mean, max, min over the carbon-bearing rows, plus the
// grouped totals.
type KPIReport struct {
	TotalCarbon  float64      `json:"total_carbon"`
	MeanCarbon   float64      `json:"mean_carbon"`
	MaxCarbon    float64      `json:"max_carbon"`
	MinCarbon    float64      `json:"min_carbon"`
	ElementCount int          `json:"element_count"`
	Groups       []GroupTotal `json:"groups"`
}

// KPI assembles the report over the filtered row set. An empty filtered set
// returns a zero-valued report with empty groups, never an error.
func KPI(rows []model.SummaryRow, classify Classifier) KPIReport {
	var xs []float64
	for _, row := range rows {
		if row.HasCarbon() {
			xs = append(xs, *row.EmbodiedCarbon)
		}
	}

	report := KPIReport{Groups: GroupTotals(rows, classify)}
	if len(xs) == 0 {
		return report
	}

	report.ElementCount = len(xs)
	report.TotalCarbon = floats.Sum(xs)
	report.MeanCarbon = stat.Mean(xs, nil)
	report.MaxCarbon = floats.Max(xs)
	report.MinCarbon = floats.Min(xs)
	return report
}
