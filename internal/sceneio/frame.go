package sceneio

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/sardarchitect/anthill/internal/model"
)

// Frame payloads name their systems with these keys. Carbon appears under
// both spellings upstream; the typo-tolerant pair is treated as canonical.
const (
	keyBeamSystem   = "BeamSystem"
	keyColumnSystem = "ColumnSystem"
	keySlabSystem   = "SlabSystem"

	keyCarbon     = "CarbonEmission"
	keyCarbonTypo = "CarbonEmmision"
)

// parseFrame builds a scene from a structural-frame payload. raw is the
// StructuralFrame value; top is the whole payload, whose remaining scalar
// keys (totalCarbonEmission and friends) are carried into scene metadata.
func parseFrame(raw json.RawMessage, top map[string]json.RawMessage) (*model.Scene, error) {
	frame, err := decodeFrame(raw)
	if err != nil {
		return nil, err
	}

	scene := model.NewScene()
	scene.Meta["format"] = string(model.FormatFrame)

	for key, rawVal := range top {
		if key == "StructuralFrame" {
			continue
		}
		var v any
		if err := json.Unmarshal(rawVal, &v); err == nil {
			scene.Meta[key] = v
		}
	}

	// Systems are handled in a fixed order so metadata merges do not depend
	// on map iteration.
	if payload, ok := frame[keyBeamSystem]; ok {
		beams, meta, err := parseLineSystem(payload, model.RoleBeam)
		if err != nil {
			return nil, err
		}
		scene.Beams = beams
		mergeMeta(scene.Meta, meta)
	}
	if payload, ok := frame[keyColumnSystem]; ok {
		columns, meta, err := parseLineSystem(payload, model.RoleColumn)
		if err != nil {
			return nil, err
		}
		scene.Columns = columns
		mergeMeta(scene.Meta, meta)
	}
	if payload, ok := frame[keySlabSystem]; ok {
		slabs, meta, err := parseSlabSystem(payload)
		if err != nil {
			return nil, err
		}
		scene.Slabs = slabs
		mergeMeta(scene.Meta, meta)
	}

	// Frame-level scalars such as TotalCO2 pass through as provenance,
	// never recomputed.
	for key, value := range frame {
		switch key {
		case keyBeamSystem, keyColumnSystem, keySlabSystem:
		default:
			scene.Meta[key] = value
		}
	}

	zap.L().Debug("sceneio: structural frame parsed",
		zap.Int("beams", len(scene.Beams)),
		zap.Int("columns", len(scene.Columns)),
		zap.Int("slabs", len(scene.Slabs)),
	)
	return scene, nil
}

// decodeFrame accepts the two frame container shapes: a dict, or a list of
// dicts that is merged shallowly (first occurrence of a key wins).
func decodeFrame(raw json.RawMessage) (map[string]any, error) {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, parseWrapf(err, "sceneio: decode StructuralFrame")
	}

	switch frame := v.(type) {
	case map[string]any:
		return frame, nil
	case []any:
		merged := map[string]any{}
		for _, item := range frame {
			dict, ok := item.(map[string]any)
			if !ok {
				zap.L().Debug("sceneio: skipping non-object frame list item", zap.Any("item", item))
				continue
			}
			for k, val := range dict {
				if _, exists := merged[k]; !exists {
					merged[k] = val
				}
			}
		}
		return merged, nil
	default:
		return nil, parseErrorf("sceneio: StructuralFrame must be an object or a list, got %T", v)
	}
}

// normalizeRecords flattens the inconsistently nested shapes a system arrives
// in (list of lists of records, flat list of records, dict wrapping an
// "elements" list, or a bare record) into one flat record list plus a
// metadata remainder. Items without a recognizable point field are metadata
// blocks interleaved by upstream, not malformed elements.
func normalizeRecords(payload any) (records []map[string]any, meta map[string]any) {
	meta = map[string]any{}

	var walk func(v any)
	walk = func(v any) {
		switch item := v.(type) {
		case []any:
			for _, sub := range item {
				walk(sub)
			}
		case map[string]any:
			if elements, ok := item["elements"].([]any); ok {
				for _, sub := range elements {
					walk(sub)
				}
				for k, val := range item {
					if k != "elements" {
						meta[k] = val
					}
				}
				return
			}
			if hasPointField(item) {
				records = append(records, item)
				return
			}
			for k, val := range item {
				meta[k] = val
			}
		default:
			zap.L().Debug("sceneio: skipping scalar system item", zap.Any("item", item))
		}
	}
	walk(payload)
	return records, meta
}

func hasPointField(rec map[string]any) bool {
	for k := range rec {
		if strings.HasPrefix(strings.ToLower(k), "point") {
			return true
		}
	}
	return false
}

func mergeMeta(dst, src map[string]any) {
	for k, v := range src {
		dst[k] = v
	}
}

// parseLineSystem parses a beam or column system into line elements. Missing
// or un-decodable endpoints are fatal and identify the offending element by
// index; carbon decode failures degrade to absent.
func parseLineSystem(payload any, role model.Role) ([]model.LineElement, map[string]any, error) {
	records, meta := normalizeRecords(payload)
	elements := make([]model.LineElement, 0, len(records))

	for i, rec := range records {
		label := fmt.Sprintf("%s %d", strings.ToLower(string(role)), i)

		start, err := pointField(rec, "PointStart")
		if err != nil {
			return nil, nil, parseWrapf(err, "sceneio: %s", label)
		}
		end, err := pointField(rec, "PointEnd")
		if err != nil {
			return nil, nil, parseWrapf(err, "sceneio: %s", label)
		}

		el := model.LineElement{
			Name:           recordName(rec, string(role), i),
			Start:          start,
			End:            end,
			EmbodiedCarbon: recordCarbon(rec, label),
			Role:           role,
			Meta:           recordMeta(rec),
		}
		elements = append(elements, el)
	}
	return elements, meta, nil
}

// parseSlabSystem parses a slab system into planar elements. Corner keys are
// discovered case-insensitively by their "point" prefix and ordered by the
// numeric suffix, so Point10 sorts after Point2 regardless of input key
// order. A record with no corners at all is fatal; slabs require geometry.
func parseSlabSystem(payload any) ([]model.PlanarElement, map[string]any, error) {
	records, meta := normalizeRecords(payload)
	elements := make([]model.PlanarElement, 0, len(records))

	for i, rec := range records {
		label := fmt.Sprintf("slab %d", i)

		keys := cornerKeys(rec)
		if len(keys) == 0 {
			return nil, nil, parseErrorf("sceneio: %s: no corner point fields", label)
		}

		corners := make([]model.Point, 0, len(keys))
		for _, k := range keys {
			pt, err := pointField(rec, k)
			if err != nil {
				return nil, nil, parseWrapf(err, "sceneio: %s", label)
			}
			corners = append(corners, pt)
		}

		el := model.PlanarElement{
			Name:           recordName(rec, string(model.RoleFloor), i),
			Corners:        corners,
			EmbodiedCarbon: recordCarbon(rec, label),
			Role:           model.RoleFloor,
			Meta:           recordMeta(rec),
		}
		elements = append(elements, el)
	}
	return elements, meta, nil
}

// cornerKeys returns the record's corner field names sorted by their numeric
// suffix.
func cornerKeys(rec map[string]any) []string {
	type corner struct {
		key string
		ord int
	}
	var found []corner
	for k := range rec {
		lower := strings.ToLower(k)
		if !strings.HasPrefix(lower, "point") {
			continue
		}
		suffix := lower[len("point"):]
		ord, err := strconv.Atoi(suffix)
		if err != nil {
			continue
		}
		found = append(found, corner{key: k, ord: ord})
	}
	sort.Slice(found, func(i, j int) bool { return found[i].ord < found[j].ord })

	keys := make([]string, len(found))
	for i, c := range found {
		keys[i] = c.key
	}
	return keys
}

// recordName returns the record's explicit name when present, otherwise the
// stable zero-padded positional name (Beam_000, Column_014, Floor_002).
func recordName(rec map[string]any, role string, idx int) string {
	for _, key := range []string{"Name", "name"} {
		if s, ok := toString(rec[key]); ok {
			return s
		}
	}
	return fmt.Sprintf("%s_%03d", role, idx)
}

// recordCarbon reads the element's carbon under either accepted spelling.
func recordCarbon(rec map[string]any, label string) *float64 {
	if v, ok := rec[keyCarbon]; ok {
		return carbonOf(v, label)
	}
	if v, ok := rec[keyCarbonTypo]; ok {
		return carbonOf(v, label)
	}
	return nil
}

// recordMeta collects the record's non-geometry, non-carbon fields.
func recordMeta(rec map[string]any) map[string]any {
	meta := map[string]any{}
	for k, v := range rec {
		lower := strings.ToLower(k)
		if strings.HasPrefix(lower, "point") || k == keyCarbon || k == keyCarbonTypo ||
			lower == "name" {
			continue
		}
		meta[k] = v
	}
	if len(meta) == 0 {
		return nil
	}
	return meta
}
