package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/sardarchitect/anthill/internal/analysis"
	"github.com/sardarchitect/anthill/internal/model"
)

var (
	analyzeJSON bool
	analyzeSave bool
)

// analysisReport bundles every aggregation for one scene.
type analysisReport struct {
	Scene     string                    `json:"scene"`
	Elements  int                       `json:"elements"`
	KPI       analysis.KPIReport        `json:"kpi"`
	Floors    []analysis.FloorTotal     `json:"floors"`
	Intensity []analysis.GroupIntensity `json:"intensity"`
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze <file|scene-id>",
	Short: "Report carbon KPIs, floor totals, and intensities for a scene",
	Long: `Computes the full aggregation report for a scene: headline carbon KPIs,
totals grouped by element type, per-floor totals, and carbon intensity
statistics per type. The argument is a scene file on disk or the ID of a
stored scene.

Examples:
  anthill analyze office.json
  anthill analyze 4fa31c88 --json
  anthill analyze 4fa31c88 --save`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("analyze"); err != nil {
			return err
		}

		src, err := resolveScene(ctx, args[0])
		if err != nil {
			return err
		}

		classify, err := initClassifier()
		if err != nil {
			return err
		}

		rows := src.Scene.Summary()
		report := analysisReport{
			Scene:     src.Name,
			Elements:  len(rows),
			KPI:       analysis.KPI(rows, classify),
			Floors:    analysis.FloorTotals(rows, cfg.Analysis.StoryHeight),
			Intensity: analysis.IntensityByGroup(rows, classify),
		}

		if analyzeSave {
			if err := saveAnalysisRun(ctx, src.ID, report); err != nil {
				return err
			}
		}

		if analyzeJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(report)
		}

		formatAnalysisReport(os.Stdout, report)
		return nil
	},
}

func init() {
	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false, "print the report as JSON")
	analyzeCmd.Flags().BoolVar(&analyzeSave, "save", false, "persist the report as an analysis run (stored scenes only)")
	rootCmd.AddCommand(analyzeCmd)
}

// saveAnalysisRun persists the report against a stored scene. File-based
// scenes have no ID to attach a run to, so the save is skipped with a
// warning rather than failing the report.
func saveAnalysisRun(ctx context.Context, sceneID string, report analysisReport) error {
	if sceneID == "" {
		zap.L().Warn("analyze: --save ignored, scene was loaded from a file")
		return nil
	}

	payload, err := json.Marshal(report)
	if err != nil {
		return eris.Wrap(err, "analyze: marshal report")
	}

	st, err := initStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close() //nolint:errcheck

	run := &model.AnalysisRun{
		SceneID: sceneID,
		Kind:    model.RunKindKPI,
		Result:  payload,
	}
	if err := st.SaveRun(ctx, run); err != nil {
		return eris.Wrap(err, "analyze: save run")
	}

	zap.L().Info("analyze: run saved",
		zap.String("scene_id", sceneID),
		zap.String("run_id", run.ID),
	)
	return nil
}

// formatAnalysisReport writes the human-readable report to out. Quantities
// are printed with thousands separators.
func formatAnalysisReport(out io.Writer, report analysisReport) {
	p := message.NewPrinter(language.English)

	_, _ = p.Fprintf(out, "Scene: %s (%d elements)\n\n", report.Scene, report.Elements)

	_, _ = p.Fprintf(out, "Carbon KPIs\n")
	_, _ = p.Fprintf(out, "  Total:    %.1f kgCO2e\n", report.KPI.TotalCarbon)
	_, _ = p.Fprintf(out, "  Mean:     %.1f kgCO2e\n", report.KPI.MeanCarbon)
	_, _ = p.Fprintf(out, "  Max:      %.1f kgCO2e\n", report.KPI.MaxCarbon)
	_, _ = p.Fprintf(out, "  Min:      %.1f kgCO2e\n", report.KPI.MinCarbon)
	_, _ = p.Fprintf(out, "  Counted:  %d of %d elements carry carbon data\n\n", report.KPI.ElementCount, report.Elements)

	formatGroupTable(out, p, report.KPI.Groups)
	formatFloorTable(out, p, report.Floors)
	formatIntensityTable(out, p, report.Intensity)
}

// formatGroupTable writes the per-type totals table.
func formatGroupTable(out io.Writer, p *message.Printer, groups []analysis.GroupTotal) {
	if len(groups) == 0 {
		return
	}
	_, _ = fmt.Fprintln(out, "By type")
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "  TYPE\tTOTAL\tCOUNT\tSHARE")
	for _, g := range groups {
		_, _ = p.Fprintf(w, "  %s\t%.1f\t%d\t%.1f%%\n", g.Label, g.Total, g.Count, g.Percent)
	}
	_ = w.Flush()
	_, _ = fmt.Fprintln(out)
}

// formatFloorTable writes the per-floor totals table.
func formatFloorTable(out io.Writer, p *message.Printer, floors []analysis.FloorTotal) {
	if len(floors) == 0 {
		return
	}
	_, _ = fmt.Fprintln(out, "By floor")
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "  FLOOR\tTOTAL\tCOUNT")
	for _, f := range floors {
		_, _ = p.Fprintf(w, "  %d\t%.1f\t%d\n", f.Floor, f.Total, f.Count)
	}
	_ = w.Flush()
	_, _ = fmt.Fprintln(out)
}

// formatIntensityTable writes the per-type intensity statistics table.
func formatIntensityTable(out io.Writer, p *message.Printer, groups []analysis.GroupIntensity) {
	if len(groups) == 0 {
		return
	}
	_, _ = fmt.Fprintln(out, "Carbon intensity (kgCO2e per m or m2)")
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "  TYPE\tCOUNT\tMEAN\tMEDIAN\tMIN\tMAX")
	for _, g := range groups {
		_, _ = p.Fprintf(w, "  %s\t%d\t%.2f\t%.2f\t%.2f\t%.2f\n", g.Label, g.Count, g.Mean, g.Median, g.Min, g.Max)
	}
	_ = w.Flush()
}
