package alerr

import "fmt"

// maxSuggestDistance catches single-character typos in ids and names
// without matching unrelated identifiers.
const maxSuggestDistance = 3

// levenshteinDistance computes the edit distance between two strings.
func levenshteinDistance(s1, s2 string) int {
	if s1 == s2 {
		return 0
	}
	if len(s1) == 0 {
		return len(s2)
	}
	if len(s2) == 0 {
		return len(s1)
	}

	// Two rolling rows instead of the full matrix.
	prev := make([]int, len(s2)+1)
	curr := make([]int, len(s2)+1)

	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(s1); i++ {
		curr[0] = i
		for j := 1; j <= len(s2); j++ {
			cost := 1
			if s1[i-1] == s2[j-1] {
				cost = 0
			}
			curr[j] = min(curr[j-1]+1, prev[j]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}

	return prev[len(s2)]
}

// FindClosestMatch returns the option nearest to input by edit distance,
// provided it is within maxSuggestDistance.
func FindClosestMatch(input string, options []string) (string, bool) {
	bestMatch := ""
	bestDist := maxSuggestDistance + 1

	for _, opt := range options {
		if d := levenshteinDistance(input, opt); d < bestDist {
			bestDist = d
			bestMatch = opt
		}
	}

	if bestDist <= maxSuggestDistance {
		return bestMatch, true
	}
	return "", false
}

// SuggestSimilar returns "did you mean 'X'?" for the closest option, or "".
func SuggestSimilar(input string, options []string) string {
	if match, ok := FindClosestMatch(input, options); ok {
		return fmt.Sprintf("did you mean '%s'?", match)
	}
	return ""
}

// NotFound builds an error for an unknown id, attaching a suggestion drawn
// from known when one is close enough.
func NotFound(code Code, kind, id string, known []string) *Error {
	e := Newf(code, "%s not found", kind).With(kind, id)
	if hint := SuggestSimilar(id, known); hint != "" {
		e.WithHelp(hint)
	}
	return e
}
