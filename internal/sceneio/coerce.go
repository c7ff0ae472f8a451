package sceneio

import (
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// toFloat coerces a JSON-decoded scalar to a float64. Upstream payloads carry
// numbers both as JSON numbers and as strings ("10", " 12.5 ").
func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		cleaned := strings.ReplaceAll(strings.TrimSpace(n), ",", "")
		f, err := strconv.ParseFloat(cleaned, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// toString coerces a JSON-decoded scalar to a non-empty string.
func toString(v any) (string, bool) {
	s, ok := v.(string)
	if !ok {
		return "", false
	}
	s = strings.TrimSpace(s)
	return s, s != ""
}

// carbonOf reads an optional carbon field. Coercion failure degrades to
// absent rather than erroring; that must never escalate.
func carbonOf(v any, element string) *float64 {
	if v == nil {
		return nil
	}
	f, ok := toFloat(v)
	if !ok {
		zap.L().Debug("sceneio: carbon value not coercible, dropping",
			zap.String("element", element),
			zap.Any("raw", v),
		)
		return nil
	}
	return &f
}
