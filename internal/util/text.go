package util

import (
	"regexp"
	"strings"
)

var reSpaces = regexp.MustCompile(`\s+`)

// NormalizeHeader is the canonical key form for header text: lowercased,
// trimmed, inner whitespace collapsed. Both the learned-mapping store and
// the similarity scorer key off this form.
func NormalizeHeader(input string) string {
	s := strings.ToLower(strings.TrimSpace(input))
	s = strings.ReplaceAll(s, "_", " ")
	s = strings.ReplaceAll(s, "-", " ")
	s = reSpaces.ReplaceAllString(s, " ")
	return s
}

// Levenshtein returns the edit distance between a and b, rune-wise.
func Levenshtein(a, b string) int {
	ra := []rune(a)
	rb := []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min3(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}

// Similarity maps edit distance onto [0,1]:
// (max(len) - levenshtein) / max(len). Symmetric, 1 for equal strings.
func Similarity(a, b string) float64 {
	la := len([]rune(a))
	lb := len([]rune(b))
	longest := la
	if lb > longest {
		longest = lb
	}
	if longest == 0 {
		return 1
	}
	return float64(longest-Levenshtein(a, b)) / float64(longest)
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}

func StringPtr(v string) *string { return &v }

func FloatPtr(v float64) *float64 { return &v }

func BoolPtr(v bool) *bool { return &v }
