package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sardarchitect/anthill/internal/model"
	"github.com/sardarchitect/anthill/internal/sceneio"
)

var loadDryRun bool

var loadCmd = &cobra.Command{
	Use:   "load <file...>",
	Short: "Parse scene files and save them to the store",
	Long: `Parses each exported scene file (mesh or structural-frame JSON) and saves
the result to the configured store. Files are parsed concurrently; a file
that fails to parse is reported and skipped without aborting the batch.

Examples:
  # Load one scene
  anthill load office.json

  # Load a directory worth of exports
  anthill load exports/*.json

  # Parse only, print what would be stored
  anthill load office.json --dry-run`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("store"); err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		g, gCtx := errgroup.WithContext(ctx)
		g.SetLimit(cfg.Batch.MaxConcurrentScenes)

		var mu sync.Mutex
		var loaded []model.SceneRecord
		var failed atomic.Int64

		for _, path := range args {
			g.Go(func() error {
				raw, readErr := os.ReadFile(path)
				if readErr != nil {
					failed.Add(1)
					zap.L().Error("load: read file",
						zap.String("file", path),
						zap.Error(readErr),
					)
					return nil // don't abort batch on individual failure
				}

				scene, parseErr := sceneio.LoadScene(raw)
				if parseErr != nil {
					failed.Add(1)
					zap.L().Error("load: parse scene",
						zap.String("file", path),
						zap.Error(parseErr),
					)
					return nil
				}

				rec := buildSceneRecord(filepath.Base(path), raw, scene)

				if !loadDryRun {
					if saveErr := st.SaveScene(gCtx, rec); saveErr != nil {
						failed.Add(1)
						zap.L().Error("load: save scene",
							zap.String("file", path),
							zap.Error(saveErr),
						)
						return nil
					}
				}

				mu.Lock()
				loaded = append(loaded, *rec)
				mu.Unlock()
				return nil
			})
		}

		_ = g.Wait()

		zap.L().Info("load: batch complete",
			zap.Int("files", len(args)),
			zap.Int("loaded", len(loaded)),
			zap.Int64("failed", failed.Load()),
		)

		if len(loaded) == 0 {
			return eris.Errorf("load: no scenes loaded from %d file(s)", len(args))
		}

		formatScenesTable(os.Stdout, loaded)
		return nil
	},
}

func init() {
	loadCmd.Flags().BoolVar(&loadDryRun, "dry-run", false, "parse files and print results, skip the store")
	rootCmd.AddCommand(loadCmd)
}

// formatScenesTable writes a tabular list of scene records to w.
func formatScenesTable(out io.Writer, recs []model.SceneRecord) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tNAME\tFORMAT\tELEMENTS\tCARBON")
	_, _ = fmt.Fprintln(w, "--\t----\t------\t--------\t------")

	for _, r := range recs {
		carbon := "-"
		if r.TotalCarbon != nil {
			carbon = fmt.Sprintf("%.1f", *r.TotalCarbon)
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n",
			truncateID(r.ID),
			r.Name,
			r.Format,
			r.ElementCount,
			carbon,
		)
	}
	_ = w.Flush()
}

// truncateID returns the first 8 characters of a UUID for compact display.
func truncateID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
