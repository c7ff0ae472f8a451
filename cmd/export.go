package main

import (
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sardarchitect/anthill/internal/export"
)

var (
	exportFormat string
	exportOutput string
)

var exportCmd = &cobra.Command{
	Use:   "export <file|scene-id>",
	Short: "Export a scene as an XLSX schedule, GeoJSON, or shapefile",
	Long: `Exports a scene in one of three formats:
  xlsx     element schedule workbook with a KPI summary sheet
  geojson  feature collection of footprints, axes, and slab outlines
  shp      slab footprint shapefile with NAME, TYPE, and CARBON attributes

Examples:
  anthill export office.json --format xlsx
  anthill export 4fa31c88 --format geojson -o site.geojson
  anthill export office.json --format shp -o footprints.shp`,
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

		out := exportOutput
		if out == "" {
			out = defaultExportPath(src.Name, exportFormat)
		}

		switch exportFormat {
		case "xlsx":
			classify, err := initClassifier()
			if err != nil {
				return err
			}
			err = export.WriteSchedule(out, src.Scene.Summary(), classify)
			if err != nil {
				return err
			}
		case "geojson":
			if err := export.WriteGeoJSON(out, src.Scene); err != nil {
				return err
			}
		case "shp":
			if err := export.WriteFootprints(out, src.Scene); err != nil {
				return err
			}
		default:
			return eris.Errorf("export: unknown format %q (want xlsx, geojson, or shp)", exportFormat)
		}

		zap.L().Info("export: written",
			zap.String("scene", src.Name),
			zap.String("format", exportFormat),
			zap.String("path", out),
		)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportFormat, "format", "xlsx", "output format: xlsx, geojson, or shp")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "output path (default derived from the scene name)")
	rootCmd.AddCommand(exportCmd)
}

// defaultExportPath derives the output path from the scene name and format,
// replacing any source extension.
func defaultExportPath(name, format string) string {
	base := strings.TrimSuffix(name, filepath.Ext(name))
	if base == "" {
		base = "scene"
	}
	return base + "." + format
}
