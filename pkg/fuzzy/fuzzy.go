// Package fuzzy compares short task titles with typo tolerance.
package fuzzy

import (
	"strings"
	"unicode"
)

// LevenshteinDistance calculates the edit distance between two normalized strings:
// how many single-rune insertions, deletions or substitutions turn one into the other.
func LevenshteinDistance(s1, s2 string) int {
	r1 := []rune(Normalize(s1))
	r2 := []rune(Normalize(s2))
	if len(r1) == 0 {
		return len(r2)
	}
	if len(r2) == 0 {
		return len(r1)
	}

	prev := make([]int, len(r2)+1)
	curr := make([]int, len(r2)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(r1); i++ {
		curr[0] = i
		for j := 1; j <= len(r2); j++ {
			cost := 1
			if r1[i-1] == r2[j-1] {
				cost = 0
			}
			curr[j] = min(
				prev[j]+1,      // deletion
				curr[j-1]+1,    // insertion
				prev[j-1]+cost, // substitution
			)
		}
		prev, curr = curr, prev
	}
	return prev[len(r2)]
}

// Threshold is the edit distance tolerated for a string of the given length.
func Threshold(s string) int {
	n := len([]rune(s))
	switch {
	case n <= 3:
		return 0
	case n <= 8:
		return 1
	case n <= 20:
		return 2
	default:
		return 3 + n/20
	}
}

// SimilarTitles reports whether two titles name the same thing: equal after
// normalization, one containing the other, or within the typo threshold.
func SimilarTitles(a, b string) bool {
	a, b = Normalize(a), Normalize(b)
	if a == "" || b == "" {
		return false
	}
	if a == b {
		return true
	}
	shorter, longer := a, b
	if len([]rune(shorter)) > len([]rune(longer)) {
		shorter, longer = longer, shorter
	}
	if len([]rune(shorter)) > 3 && strings.Contains(longer, shorter) {
		return true
	}
	return LevenshteinDistance(a, b) <= Threshold(longer)
}

// MatchAny reports whether title is similar to any of candidates.
func MatchAny(title string, candidates []string) bool {
	for _, c := range candidates {
		if SimilarTitles(title, c) {
			return true
		}
	}
	return false
}

// Normalize lowercases, drops punctuation and collapses whitespace.
func Normalize(s string) string {
	s = strings.Map(func(r rune) rune {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			return unicode.ToLower(r)
		case unicode.IsSpace(r):
			return ' '
		}
		return -1
	}, s)
	return strings.Join(strings.Fields(s), " ")
}
