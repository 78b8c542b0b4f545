package cmd

import (
	"strings"

	"github.com/sahilm/fuzzy"
)

// levenshtein computes the edit distance between a and b.
func levenshtein(a, b string) int {
	if a == "" {
		return len(b)
	}
	if b == "" {
		return len(a)
	}
	row := make([]int, len(b)+1)
	for j := range row {
		row[j] = j
	}
	for i := 1; i <= len(a); i++ {
		prev := i - 1
		row[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			val := min(row[j]+1, row[j-1]+1, prev+cost)
			prev = row[j]
			row[j] = val
		}
	}
	return row[len(b)]
}

// closest picks the candidate nearest to input. A subsequence match
// ("brdcst" for "broadcast") wins; otherwise the smallest edit distance
// within maxDist.
func closest(input string, candidates []string, maxDist int) string {
	input = strings.ToLower(input)
	if input == "" {
		return ""
	}
	lowered := make([]string, len(candidates))
	for i, c := range candidates {
		lowered[i] = strings.ToLower(c)
	}
	if matches := fuzzy.Find(input, lowered); len(matches) > 0 {
		return candidates[matches[0].Index]
	}

	best, bestDist := "", maxDist+1
	for i, c := range lowered {
		if d := levenshtein(input, c); d < bestDist {
			best, bestDist = candidates[i], d
		}
	}
	return best
}

// suggestCommand finds the closest command name, or "".
func suggestCommand(unknown string, commands []string) string {
	return closest(unknown, commands, 3)
}

// suggestFlag finds the closest flag, comparing names without dashes but
// returning the match with its prefix.
func suggestFlag(unknown string, flagNames []string) string {
	stripped := strings.TrimLeft(unknown, "-")
	if stripped == "" {
		return ""
	}
	bare := make([]string, len(flagNames))
	for i, f := range flagNames {
		bare[i] = strings.TrimLeft(f, "-")
	}
	match := closest(stripped, bare, 3)
	if match == "" {
		return ""
	}
	for i, b := range bare {
		if b == match {
			return flagNames[i]
		}
	}
	return ""
}
