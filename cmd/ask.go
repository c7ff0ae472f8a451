package main

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sardarchitect/anthill/internal/analysis"
	"github.com/sardarchitect/anthill/internal/sceneio"
	"github.com/sardarchitect/anthill/internal/store"
	"github.com/sardarchitect/anthill/pkg/assistant"
	"github.com/sardarchitect/anthill/pkg/compute"
)

var askScene string

const askSystemPrompt = `You are the analysis assistant for a building carbon
database. Scenes are parsed building exports; each element carries geometry
counts and, where the source provided one, an embodied carbon value in kgCO2e.
Carbon aggregations only count elements that carry a value.

Use the tools to look up stored scenes, compute carbon KPIs, and solve
parametric definitions on the compute server. Answer with numbers from tool
results, never from memory, and say so when a scene has no carbon data.`

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask the assistant about stored scenes",
	Long: `Runs an assistant conversation with access to scene tools: it can list
stored scenes, pull carbon KPIs for a scene, and solve a Grasshopper
definition on the compute server. Requires anthropic.key.

Examples:
  anthill ask "which stored scene has the highest embodied carbon?"
  anthill ask "how is carbon split across floors?" --scene 4fa31c88`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("ask"); err != nil {
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

		classify, err := initClassifier()
		if err != nil {
			return err
		}

		computeClient := compute.NewClient(cfg.Compute.URL,
			compute.WithToken(cfg.Compute.Token),
			compute.WithTimeout(time.Duration(cfg.Compute.TimeoutSecs)*time.Second),
			compute.WithRateLimit(cfg.Compute.RequestsPerSec, cfg.Compute.Burst),
			compute.WithMaxAttempts(cfg.Compute.MaxRetries),
		)

		toolbox := assistant.NewToolbox()
		toolbox.Register(listScenesTool(st))
		toolbox.Register(sceneKPITool(st, classify, cfg.Analysis.StoryHeight))
		toolbox.Register(runDefinitionTool(computeClient, classify, cfg.Analysis.StoryHeight))

		a := assistant.New(assistant.NewClient(cfg.Anthropic.Key), toolbox, assistant.Config{
			Model:     cfg.Anthropic.Model,
			MaxTokens: int64(cfg.Anthropic.MaxTokens),
			MaxRounds: cfg.Anthropic.MaxRounds,
		})

		system := assistant.BuildCachedSystemBlocks(askSystemPrompt)
		if askScene != "" {
			system = append(system, assistant.SystemBlock{
				Text: "The user is asking about stored scene " + askScene + ".",
			})
		}

		answer, err := a.Ask(ctx, system, args[0])
		if err != nil {
			return err
		}

		fmt.Println(answer)
		return nil
	},
}

func init() {
	askCmd.Flags().StringVar(&askScene, "scene", "", "stored scene ID to focus the question on")
	rootCmd.AddCommand(askCmd)
}

// listScenesTool exposes the stored scene index to the model.
func listScenesTool(st store.Store) (assistant.Tool, assistant.ToolHandler) {
	tool := assistant.Tool{
		Name:        "list_scenes",
		Description: "List stored scenes with their IDs, names, formats, element counts, and total embodied carbon.",
		Properties:  map[string]assistant.ToolProperty{},
	}

	handler := func(ctx context.Context, input json.RawMessage) (string, error) {
		recs, err := st.ListScenes(ctx, store.SceneFilter{})
		if err != nil {
			return "", eris.Wrap(err, "list scenes")
		}

		type entry struct {
			ID           string   `json:"id"`
			Name         string   `json:"name"`
			Format       string   `json:"format"`
			ElementCount int      `json:"element_count"`
			TotalCarbon  *float64 `json:"total_carbon"`
		}
		entries := make([]entry, 0, len(recs))
		for _, r := range recs {
			entries = append(entries, entry{
				ID:           r.ID,
				Name:         r.Name,
				Format:       string(r.Format),
				ElementCount: r.ElementCount,
				TotalCarbon:  r.TotalCarbon,
			})
		}

		out, err := json.Marshal(entries)
		if err != nil {
			return "", eris.Wrap(err, "marshal scene list")
		}
		return string(out), nil
	}

	return tool, handler
}

// sceneKPITool computes the carbon report for one stored scene.
func sceneKPITool(st store.Store, classify analysis.Classifier, storyHeight float64) (assistant.Tool, assistant.ToolHandler) {
	tool := assistant.Tool{
		Name:        "scene_kpi",
		Description: "Compute carbon KPIs for a stored scene: total, mean, max, min, totals grouped by element type, and totals per floor.",
		Properties: map[string]assistant.ToolProperty{
			"scene_id": {Type: "string", Description: "ID of the stored scene"},
		},
		Required: []string{"scene_id"},
	}

	handler := func(ctx context.Context, input json.RawMessage) (string, error) {
		var req struct {
			SceneID string `json:"scene_id"`
		}
		if err := json.Unmarshal(input, &req); err != nil {
			return "", eris.Wrap(err, "decode scene_kpi input")
		}

		rec, err := st.GetScene(ctx, req.SceneID)
		if err != nil {
			return "", eris.Wrap(err, "load scene")
		}
		if rec == nil {
			return "", eris.Errorf("no stored scene with ID %q", req.SceneID)
		}

		report := analysisReport{
			Scene:     rec.Name,
			Elements:  len(rec.Summary),
			KPI:       analysis.KPI(rec.Summary, classify),
			Floors:    analysis.FloorTotals(rec.Summary, storyHeight),
			Intensity: analysis.IntensityByGroup(rec.Summary, classify),
		}

		out, err := json.Marshal(report)
		if err != nil {
			return "", eris.Wrap(err, "marshal report")
		}
		return string(out), nil
	}

	return tool, handler
}

// runDefinitionTool solves a Grasshopper definition and reports the parsed
// scene's KPIs.
func runDefinitionTool(client compute.Client, classify analysis.Classifier, storyHeight float64) (assistant.Tool, assistant.ToolHandler) {
	tool := assistant.Tool{
		Name:        "run_definition",
		Description: "Solve a Grasshopper definition file on the compute server with the given parameter values and return the carbon KPIs of the resulting scene.",
		Properties: map[string]assistant.ToolProperty{
			"path":   {Type: "string", Description: "path to the .gh definition file"},
			"params": {Type: "object", Description: "input values by parameter name; numbers are sent as doubles, everything else as strings"},
		},
		Required: []string{"path"},
	}

	handler := func(ctx context.Context, input json.RawMessage) (string, error) {
		var req struct {
			Path   string         `json:"path"`
			Params map[string]any `json:"params"`
		}
		if err := json.Unmarshal(input, &req); err != nil {
			return "", eris.Wrap(err, "decode run_definition input")
		}

		names := make([]string, 0, len(req.Params))
		for name := range req.Params {
			names = append(names, name)
		}
		sort.Strings(names)

		var values []compute.DataTree
		for _, name := range names {
			switch val := req.Params[name].(type) {
			case float64:
				values = append(values, compute.NumberValue(name, val))
			case string:
				values = append(values, compute.StringValue(name, val))
			default:
				return "", eris.Errorf("unsupported param type for %q", name)
			}
		}

		def, err := compute.LoadDefinition(req.Path, values...)
		if err != nil {
			return "", err
		}

		resp, err := client.Solve(ctx, def)
		if err != nil {
			return "", err
		}

		payload, err := findScenePayload(resp, "")
		if err != nil {
			return "", err
		}

		scene, err := sceneio.LoadScene([]byte(payload))
		if err != nil {
			return "", eris.Wrap(err, "parse solved scene")
		}

		rows := scene.Summary()
		report := analysisReport{
			Scene:     req.Path,
			Elements:  len(rows),
			KPI:       analysis.KPI(rows, classify),
			Floors:    analysis.FloorTotals(rows, storyHeight),
			Intensity: analysis.IntensityByGroup(rows, classify),
		}

		out, err := json.Marshal(report)
		if err != nil {
			return "", eris.Wrap(err, "marshal report")
		}

		zap.L().Info("ask: definition solved",
			zap.String("definition", req.Path),
			zap.Int("elements", len(rows)),
		)
		return string(out), nil
	}

	return tool, handler
}
