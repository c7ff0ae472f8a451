// Package analysis groups summary rows and derives embodied-carbon
// aggregates: grouped totals, per-unit intensity, floor binning, and the KPI
// report. It consumes summary rows only, never raw elements, and holds no
// state between calls.
package analysis

import (
	"strings"

	"github.com/sardarchitect/anthill/internal/model"
)

// Group labels produced by the built-in keyword fallback.
const (
	GroupFloor  = "Floor"
	GroupBeam   = "Beam"
	GroupColumn = "Column"
	GroupOther  = "Other"
)

// Classifier maps a summary row to a group label. Classifiers must be pure;
// the engine may call one any number of times in any order.
type Classifier func(model.SummaryRow) string

// SubstringRule maps a name fragment to a group label. Rules are evaluated in
// slice order against the lower-cased element name; the first containing
// match wins. A slice (not a map) keeps the evaluation order configurable and
// reproducible.
type SubstringRule struct {
	Match string `yaml:"match"`
	Label string `yaml:"label"`
}

// NewClassifier builds the default classification policy around an optional
// substring table. Priority order, evaluation stops at the first match:
//  1. an explicit, non-empty structural-type tag is used verbatim
//  2. the substring table, in table order
//  3. the built-in keyword fallback
//  4. "Other"
func NewClassifier(rules []SubstringRule) Classifier {
	return func(row model.SummaryRow) string {
		if row.StructuralType != nil && *row.StructuralType != "" {
			return *row.StructuralType
		}
		name := strings.ToLower(row.Name)
		for _, rule := range rules {
			if rule.Match != "" && strings.Contains(name, strings.ToLower(rule.Match)) {
				return rule.Label
			}
		}
		return keywordFallback(name)
	}
}

// DefaultClassifier is the policy with no substring table configured. It
// satisfies Classifier.
func DefaultClassifier(row model.SummaryRow) string {
	return defaultPolicy(row)
}

var defaultPolicy = NewClassifier(nil)

func keywordFallback(name string) string {
	switch {
	case containsAny(name, "slab", "floor", "plate"):
		return GroupFloor
	case containsAny(name, "beam", "girder"):
		return GroupBeam
	case containsAny(name, "column", "pillar", "post"):
		return GroupColumn
	default:
		return GroupOther
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
