package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sardarchitect/anthill/internal/model"
	"github.com/sardarchitect/anthill/internal/store"
)

var scenesCmd = &cobra.Command{
	Use:   "scenes",
	Short: "Inspect stored scenes",
	Long:  "Commands for listing, viewing, and deleting stored scenes and their analysis runs.",
}

// -- scenes list --

var scenesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored scenes",
	RunE: func(cmd *cobra.Command, _ []string) error {
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
			return err
		}

		format, _ := cmd.Flags().GetString("format")
		limit, _ := cmd.Flags().GetInt("limit")

		recs, err := st.ListScenes(ctx, store.SceneFilter{
			Format: model.SceneFormat(format),
			Limit:  limit,
		})
		if err != nil {
			return eris.Wrap(err, "scenes list")
		}

		if len(recs) == 0 {
			fmt.Fprintln(os.Stderr, "No scenes found.")
			return nil
		}

		formatScenesList(os.Stdout, recs)
		return nil
	},
}

// -- scenes show --

var scenesShowCmd = &cobra.Command{
	Use:   "show <scene-id>",
	Short: "Show full details of a stored scene",
	Args:  cobra.ExactArgs(1),
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
			return err
		}

		rec, err := st.GetScene(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "scenes show")
		}
		if rec == nil {
			return eris.Errorf("no stored scene with ID %q", args[0])
		}

		// The raw payload is omitted from display output.
		rec.RawPayload = nil

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(rec)
	},
}

// -- scenes delete --

var scenesDeleteCmd = &cobra.Command{
	Use:   "delete <scene-id>",
	Short: "Delete a stored scene and its analysis runs",
	Args:  cobra.ExactArgs(1),
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
			return err
		}

		if err := st.DeleteScene(ctx, args[0]); err != nil {
			return eris.Wrap(err, "scenes delete")
		}

		zap.L().Info("scene deleted", zap.String("scene_id", args[0]))
		return nil
	},
}

// -- scenes runs --

var scenesRunsCmd = &cobra.Command{
	Use:   "runs <scene-id>",
	Short: "List saved analysis runs for a scene",
	Args:  cobra.ExactArgs(1),
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
			return err
		}

		runs, err := st.ListRuns(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "scenes runs")
		}

		if len(runs) == 0 {
			fmt.Fprintln(os.Stderr, "No runs found.")
			return nil
		}

		formatRunsList(os.Stdout, runs)
		return nil
	},
}

func init() {
	scenesListCmd.Flags().String("format", "", "filter by scene format (mesh, frame)")
	scenesListCmd.Flags().Int("limit", 50, "max number of scenes to display")

	scenesCmd.AddCommand(scenesListCmd)
	scenesCmd.AddCommand(scenesShowCmd)
	scenesCmd.AddCommand(scenesDeleteCmd)
	scenesCmd.AddCommand(scenesRunsCmd)
	rootCmd.AddCommand(scenesCmd)
}

// formatScenesList writes a tabular list of stored scenes to w.
func formatScenesList(out io.Writer, recs []model.SceneRecord) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tNAME\tFORMAT\tELEMENTS\tCARBON\tCREATED")
	_, _ = fmt.Fprintln(w, "--\t----\t------\t--------\t------\t-------")

	for _, r := range recs {
		carbon := "-"
		if r.TotalCarbon != nil {
			carbon = fmt.Sprintf("%.1f", *r.TotalCarbon)
		}

		name := r.Name
		if len(name) > 30 {
			name = name[:27] + "..."
		}

		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\n",
			truncateID(r.ID),
			name,
			r.Format,
			r.ElementCount,
			carbon,
			r.CreatedAt.Format("2006-01-02 15:04"),
		)
	}
	_ = w.Flush()
}

// formatRunsList writes a tabular list of analysis runs to w.
func formatRunsList(out io.Writer, runs []model.AnalysisRun) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tKIND\tCREATED")
	_, _ = fmt.Fprintln(w, "--\t----\t-------")

	for _, r := range runs {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n",
			truncateID(r.ID),
			r.Kind,
			r.CreatedAt.Format("2006-01-02 15:04"),
		)
	}
	_ = w.Flush()
}
