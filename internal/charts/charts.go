// Package charts renders scene analysis results as self-contained ECharts
// HTML pages.
package charts

import (
	"io"
	"os"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/rotisserie/eris"

	"github.com/sardarchitect/anthill/internal/analysis"
	"github.com/sardarchitect/anthill/internal/model"
)

// Report bundles everything needed to render the analysis page for one scene.
type Report struct {
	Title       string
	Rows        []model.SummaryRow
	Classifier  analysis.Classifier
	StoryHeight float64
}

// RenderReport writes the full analysis page for a scene: carbon pie, floor
// bar, geometry bar, and volume/carbon scatter. An empty summary renders a
// page with empty charts rather than failing.
func RenderReport(w io.Writer, rep Report) error {
	groups := analysis.GroupTotals(rep.Rows, rep.Classifier)
	floors := analysis.FloorTotals(rep.Rows, rep.StoryHeight)

	page := components.NewPage()
	page.PageTitle = rep.Title
	page.AddCharts(
		CarbonPie(groups),
		FloorBar(floors),
		GeometryBar(rep.Rows),
		CarbonScatter(rep.Rows),
	)
	return eris.Wrap(page.Render(w), "charts: render report")
}

// WriteReportFile renders the analysis page to a file at the given path.
func WriteReportFile(path string, rep Report) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "charts: create %s", path)
	}
	defer f.Close()

	return RenderReport(f, rep)
}

// CarbonPie charts grouped embodied carbon as share-of-total slices.
func CarbonPie(groups []analysis.GroupTotal) *charts.Pie {
	data := make([]opts.PieData, 0, len(groups))
	for _, g := range groups {
		data = append(data, opts.PieData{Name: g.Label, Value: g.Total})
	}

	pie := charts.NewPie()
	pie.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Embodied Carbon by Type"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "item"}),
	)
	pie.AddSeries("carbon", data).
		SetSeriesOptions(charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Formatter: "{b}: {d}%"}))
	return pie
}

// FloorBar charts total embodied carbon per floor bin.
func FloorBar(floors []analysis.FloorTotal) *charts.Bar {
	x := make([]string, 0, len(floors))
	y := make([]opts.BarData, 0, len(floors))
	for _, f := range floors {
		x = append(x, strconv.Itoa(f.Floor))
		y = append(y, opts.BarData{Value: f.Total})
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Embodied Carbon by Floor"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	bar.SetXAxis(x).
		AddSeries("carbon", y, charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}))
	return bar
}

// GeometryBar charts vertex and face counts per element.
func GeometryBar(rows []model.SummaryRow) *charts.Bar {
	names := make([]string, 0, len(rows))
	vertices := make([]opts.BarData, 0, len(rows))
	faces := make([]opts.BarData, 0, len(rows))
	for _, row := range rows {
		names = append(names, row.Name)
		vertices = append(vertices, opts.BarData{Value: row.Vertices})
		faces = append(faces, opts.BarData{Value: row.Faces})
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Geometry Size per Element"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
	)
	bar.SetXAxis(names).
		AddSeries("vertices", vertices).
		AddSeries("faces", faces)
	return bar
}

// CarbonScatter plots bounding-box volume against embodied carbon for every
// element that reports one.
func CarbonScatter(rows []model.SummaryRow) *charts.Scatter {
	data := make([]opts.ScatterData, 0, len(rows))
	for _, row := range rows {
		if !row.HasCarbon() {
			continue
		}
		data = append(data, opts.ScatterData{
			Name:  row.Name,
			Value: []interface{}{row.BBoxVolume, *row.EmbodiedCarbon},
		})
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Volume vs Embodied Carbon"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "bbox volume"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "kgCO2e"}),
	)
	scatter.AddSeries("elements", data, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 8}))
	return scatter
}
