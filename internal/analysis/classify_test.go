package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sardarchitect/anthill/internal/model"
)

func TestDefaultClassifier_ExplicitTagWins(t *testing.T) {
	t.Parallel()

	// The explicit tag beats every keyword in the name.
	row := model.SummaryRow{Name: "floor plate west", StructuralType: sp("Beam")}
	assert.Equal(t, "Beam", DefaultClassifier(row))
}

func TestDefaultClassifier_EmptyTagFallsThrough(t *testing.T) {
	t.Parallel()

	row := model.SummaryRow{Name: "floor plate west", StructuralType: sp("")}
	assert.Equal(t, GroupFloor, DefaultClassifier(row))
}

func TestDefaultClassifier_KeywordFallback(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		want string
	}{
		{"ground slab", GroupFloor},
		{"Floor_002", GroupFloor},
		{"base PLATE", GroupFloor},
		{"Beam_000", GroupBeam},
		{"edge girder", GroupBeam},
		{"Column_014", GroupColumn},
		{"stone pillar", GroupColumn},
		{"fence post", GroupColumn},
		{"mystery object", GroupOther},
		{"", GroupOther},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := DefaultClassifier(model.SummaryRow{Name: tt.name})
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewClassifier_SubstringTableOrder(t *testing.T) {
	t.Parallel()

	classify := NewClassifier([]SubstringRule{
		{Match: "truss", Label: "Roof"},
		{Match: "beam", Label: "Frame"},
	})

	// Table beats the keyword fallback.
	assert.Equal(t, "Frame", classify(model.SummaryRow{Name: "main beam"}))
	// First table entry wins even when a later one also matches.
	assert.Equal(t, "Roof", classify(model.SummaryRow{Name: "truss beam 3"}))
	// No table match falls through to the keyword fallback.
	assert.Equal(t, GroupColumn, classify(model.SummaryRow{Name: "corner column"}))
	// Matching is case-insensitive on both sides.
	caps := NewClassifier([]SubstringRule{{Match: "TRUSS", Label: "Roof"}})
	assert.Equal(t, "Roof", caps(model.SummaryRow{Name: "Truss_01"}))
}

func TestNewClassifier_ExplicitTagStillWins(t *testing.T) {
	t.Parallel()

	classify := NewClassifier([]SubstringRule{{Match: "beam", Label: "Frame"}})
	row := model.SummaryRow{Name: "main beam", StructuralType: sp("Shell")}
	assert.Equal(t, "Shell", classify(row))
}
