package main

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sardarchitect/anthill/internal/model"
	"github.com/sardarchitect/anthill/internal/sceneio"
	"github.com/sardarchitect/anthill/pkg/compute"
)

var (
	computeParams []string
	computeOutput string
	computeSave   bool
	computeName   string
	computeCheck  bool
)

var computeCmd = &cobra.Command{
	Use:   "compute <definition.gh>",
	Short: "Solve a Grasshopper definition and parse the resulting scene",
	Long: `Sends a Grasshopper definition to the configured compute server, extracts
the scene JSON from the solve response, and reports the parsed result.

The scene output is found by probing the response values for a mesh or
structural-frame payload; --out pins a specific output parameter instead.

Examples:
  anthill compute tower.gh --param floors=12 --param system=frame
  anthill compute tower.gh --out scene --save --name "tower v2"
  anthill compute --check`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("compute"); err != nil {
			return err
		}

		client := compute.NewClient(cfg.Compute.URL,
			compute.WithToken(cfg.Compute.Token),
			compute.WithTimeout(time.Duration(cfg.Compute.TimeoutSecs)*time.Second),
			compute.WithRateLimit(cfg.Compute.RequestsPerSec, cfg.Compute.Burst),
			compute.WithMaxAttempts(cfg.Compute.MaxRetries),
		)

		if computeCheck {
			if err := client.Health(ctx); err != nil {
				return err
			}
			zap.L().Info("compute: server healthy", zap.String("url", cfg.Compute.URL))
			return nil
		}

		if len(args) == 0 {
			return eris.New("compute: definition path required (or --check)")
		}

		values, err := paramValues(computeParams)
		if err != nil {
			return err
		}

		def, err := compute.LoadDefinition(args[0], values...)
		if err != nil {
			return err
		}

		zap.L().Info("compute: solving definition",
			zap.String("definition", args[0]),
			zap.Int("params", len(values)),
		)

		resp, err := client.Solve(ctx, def)
		if err != nil {
			return err
		}
		for _, warning := range resp.Warnings {
			zap.L().Warn("compute: definition warning", zap.String("warning", warning))
		}

		payload, err := findScenePayload(resp, computeOutput)
		if err != nil {
			return err
		}

		scene, err := sceneio.LoadScene([]byte(payload))
		if err != nil {
			return eris.Wrap(err, "compute: parse solved scene")
		}

		name := computeName
		if name == "" {
			name = strings.TrimSuffix(filepath.Base(args[0]), filepath.Ext(args[0]))
		}
		rec := buildSceneRecord(name, []byte(payload), scene)

		if computeSave {
			st, err := initStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close() //nolint:errcheck
			if err := st.Migrate(ctx); err != nil {
				return eris.Wrap(err, "migrate store")
			}
			if err := st.SaveScene(ctx, rec); err != nil {
				return eris.Wrap(err, "compute: save scene")
			}
		}

		zap.L().Info("compute: scene solved",
			zap.String("name", rec.Name),
			zap.String("format", string(rec.Format)),
			zap.Int("elements", rec.ElementCount),
		)

		formatScenesTable(os.Stdout, []model.SceneRecord{*rec})
		return nil
	},
}

func init() {
	computeCmd.Flags().StringArrayVar(&computeParams, "param", nil, "definition input as name=value (repeatable)")
	computeCmd.Flags().StringVar(&computeOutput, "out", "", "output parameter holding the scene (default: probe)")
	computeCmd.Flags().BoolVar(&computeSave, "save", false, "save the parsed scene to the store")
	computeCmd.Flags().StringVar(&computeName, "name", "", "scene name (default: definition file name)")
	computeCmd.Flags().BoolVar(&computeCheck, "check", false, "only check compute server health")
	rootCmd.AddCommand(computeCmd)
}

// paramValues converts name=value flags into definition input trees. Values
// that parse as numbers are sent as doubles, everything else as strings.
func paramValues(params []string) ([]compute.DataTree, error) {
	values := make([]compute.DataTree, 0, len(params))
	for _, p := range params {
		name, value, found := strings.Cut(p, "=")
		if !found || name == "" {
			return nil, eris.Errorf("compute: malformed --param %q (want name=value)", p)
		}
		if n, err := strconv.ParseFloat(value, 64); err == nil {
			values = append(values, compute.NumberValue(name, n))
		} else {
			values = append(values, compute.StringValue(name, value))
		}
	}
	return values, nil
}

// findScenePayload extracts the scene JSON from a solve response. With an
// output name it reads that parameter directly; otherwise it scans every
// leaf for a payload carrying a mesh or structural-frame key.
func findScenePayload(resp *compute.SolveResponse, output string) (string, error) {
	if output != "" {
		payload, ok := resp.Output(output)
		if !ok {
			return "", eris.Errorf("compute: response has no output %q", output)
		}
		return payload, nil
	}

	for _, tree := range resp.Values {
		payload, ok := resp.Output(strings.TrimPrefix(tree.ParamName, "RH_OUT:"))
		if !ok {
			continue
		}
		if strings.Contains(payload, `"geometries"`) || strings.Contains(payload, `"StructuralFrame"`) {
			return payload, nil
		}
	}
	return "", eris.New("compute: no scene payload in response (set --out to pin the output)")
}
