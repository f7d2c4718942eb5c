// Package similarity computes a bounded string-similarity score used by the
// contact matcher. Scores are in [0,1], deterministic, and commutative.
package similarity

import (
	"regexp"
	"strings"

	"github.com/agnivade/levenshtein"
)

var (
	punctuationRe = regexp.MustCompile(`[^\w\s]`)
	whitespaceRe  = regexp.MustCompile(`\s+`)
)

// Normalize lowercases the input, strips punctuation, and collapses runs of
// whitespace into single spaces.
func Normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = punctuationRe.ReplaceAllString(s, "")
	return whitespaceRe.ReplaceAllString(s, " ")
}

// Score returns the similarity between a and b after normalization.
// Equal normalized strings score 1.0; otherwise the score is
// 1 - editDistance/maxLen. Two empty strings score 1.0 by convention.
func Score(a, b string) float64 {
	na := Normalize(a)
	nb := Normalize(b)

	if na == nb {
		return 1.0
	}

	maxLen := len([]rune(na))
	if l := len([]rune(nb)); l > maxLen {
		maxLen = l
	}
	if maxLen == 0 {
		return 1.0
	}

	distance := levenshtein.ComputeDistance(na, nb)
	return 1.0 - float64(distance)/float64(maxLen)
}
