package sceneio

import (
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sardarchitect/anthill/internal/model"
)

// ParsePoint decodes a brace-delimited point string such as
// "{-37, -26, 8.666667}" into a Point. The string must carry exactly three
// numeric components.
func ParsePoint(s string) (model.Point, error) {
	trimmed := strings.TrimSpace(s)
	trimmed = strings.TrimPrefix(trimmed, "{")
	trimmed = strings.TrimSuffix(trimmed, "}")

	parts := strings.Split(trimmed, ",")
	if len(parts) != 3 {
		return model.Point{}, eris.Errorf("point %q has %d components, want 3", s, len(parts))
	}

	var coords [3]float64
	for i, part := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return model.Point{}, eris.Wrapf(err, "point %q component %d", s, i+1)
		}
		coords[i] = f
	}
	return model.Point{X: coords[0], Y: coords[1], Z: coords[2]}, nil
}

// pointField reads and decodes a required point-string field from a record.
func pointField(rec map[string]any, key string) (model.Point, error) {
	raw, ok := rec[key]
	if !ok {
		return model.Point{}, eris.Errorf("missing %s", key)
	}
	s, ok := raw.(string)
	if !ok {
		return model.Point{}, eris.Errorf("%s is not a string", key)
	}
	return ParsePoint(s)
}
