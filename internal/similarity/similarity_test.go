package similarity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "lowercases",
			input:    "Jane DOE",
			expected: "jane doe",
		},
		{
			name:     "strips punctuation",
			input:    "J. Doe, Jr.",
			expected: "j doe jr",
		},
		{
			name:     "collapses whitespace",
			input:    "  Acme   Pharma  ",
			expected: "acme pharma",
		},
		{
			name:     "empty",
			input:    "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Normalize(tt.input))
		})
	}
}

func TestScore(t *testing.T) {
	tests := []struct {
		name     string
		a        string
		b        string
		expected float64
	}{
		{
			name:     "identical",
			a:        "jane doe",
			b:        "jane doe",
			expected: 1.0,
		},
		{
			name:     "identical after normalization",
			a:        "Jane Doe",
			b:        "jane doe.",
			expected: 1.0,
		},
		{
			name:     "both empty",
			a:        "",
			b:        "",
			expected: 1.0,
		},
		{
			name:     "one empty",
			a:        "jane",
			b:        "",
			expected: 0.0,
		},
		{
			name:     "single substitution",
			a:        "jane",
			b:        "janet",
			expected: 0.8,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, Score(tt.a, tt.b), 1e-9)
		})
	}
}

func TestScoreCommutative(t *testing.T) {
	pairs := [][2]string{
		{"jane doe", "j doe"},
		{"Acme Pharma", "Acme Pharmaceuticals"},
		{"", "something"},
	}

	for _, p := range pairs {
		assert.InDelta(t, Score(p[0], p[1]), Score(p[1], p[0]), 1e-9)
	}
}

func TestScoreIdempotent(t *testing.T) {
	first := Score("Jane Doe", "J. Doe")
	second := Score("Jane Doe", "J. Doe")
	require.Equal(t, first, second)
}

func TestScoreBounded(t *testing.T) {
	pairs := [][2]string{
		{"a", "completely different string"},
		{"acme", "acne"},
		{"x", "y"},
	}

	for _, p := range pairs {
		s := Score(p[0], p[1])
		assert.GreaterOrEqual(t, s, 0.0)
		assert.LessOrEqual(t, s, 1.0)
	}
}
