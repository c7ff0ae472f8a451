package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sardarchitect/anthill/internal/charts"
)

var chartsOutput string

var chartsCmd = &cobra.Command{
	Use:   "charts <file|scene-id>",
	Short: "Render an HTML chart report for a scene",
	Long: `Renders a self-contained HTML page with the scene's carbon breakdown
charts: totals by element type, totals by floor, geometry counts, and the
carbon-versus-volume scatter.

Examples:
  anthill charts office.json
  anthill charts 4fa31c88 -o office-report.html`,
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

		rep := charts.Report{
			Title:       src.Name,
			Rows:        src.Scene.Summary(),
			Classifier:  classify,
			StoryHeight: cfg.Analysis.StoryHeight,
		}
		if err := charts.WriteReportFile(chartsOutput, rep); err != nil {
			return err
		}

		zap.L().Info("charts: report written",
			zap.String("scene", src.Name),
			zap.String("path", chartsOutput),
		)
		return nil
	},
}

func init() {
	chartsCmd.Flags().StringVarP(&chartsOutput, "output", "o", "report.html", "output HTML path")
	rootCmd.AddCommand(chartsCmd)
}
