// Package fuzzy ranks typo suggestions for unknown commands and flags.
package fuzzy

import (
	"sort"
	"strings"

	"github.com/agext/levenshtein"
)

// Matcher ranks candidates by edit distance.
type Matcher struct {
	maxDistance int
	minLength   int
}

// NewMatcher creates a matcher accepting candidates within maxDistance edits.
func NewMatcher(maxDistance int) *Matcher {
	return &Matcher{
		maxDistance: maxDistance,
		minLength:   2,
	}
}

// Match is a ranked candidate.
type Match struct {
	Value    string
	Distance int
	Score    float64 // 0.0 to 1.0, higher is better
}

// FindBest returns the best candidate, or "" when nothing is close enough.
func (m *Matcher) FindBest(input string, candidates []string) string {
	matches := m.FindMatches(input, candidates)
	if len(matches) == 0 {
		return ""
	}
	return matches[0].Value
}

// FindMatches returns every candidate within range, best first. Exact
// (case-insensitive) matches are not suggestions and are skipped.
func (m *Matcher) FindMatches(input string, candidates []string) []Match {
	if len(input) < m.minLength {
		return nil
	}

	input = strings.ToLower(input)
	var matches []Match
	for _, candidate := range candidates {
		lower := strings.ToLower(candidate)
		if input == lower {
			continue
		}
		distance := levenshtein.Distance(input, lower, nil)
		if distance > m.maxDistance {
			continue
		}
		matches = append(matches, Match{
			Value:    candidate,
			Distance: distance,
			Score:    m.score(input, lower, distance),
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Score == matches[j].Score {
			if matches[i].Distance == matches[j].Distance {
				return matches[i].Value < matches[j].Value
			}
			return matches[i].Distance < matches[j].Distance
		}
		return matches[i].Score > matches[j].Score
	})
	return matches
}

// score blends edit distance with prefix and length similarity.
func (m *Matcher) score(input, candidate string, distance int) float64 {
	maxLen := max(len(input), len(candidate))
	if maxLen == 0 {
		return 1.0
	}

	editScore := 1.0 - float64(distance)/float64(maxLen)

	prefixBonus := 0.0
	if n := commonPrefixLength(input, candidate); n > 0 {
		prefixBonus = float64(n) / float64(min(len(input), len(candidate))) * 0.3
	}

	lengthBonus := (1.0 - float64(abs(len(input)-len(candidate)))/float64(maxLen)) * 0.2

	return min(editScore+prefixBonus+lengthBonus, 1.0)
}

func commonPrefixLength(a, b string) int {
	n := min(len(a), len(b))
	for i := range n {
		if a[i] != b[i] {
			return i
		}
	}
	return n
}

func abs(a int) int {
	if a < 0 {
		return -a
	}
	return a
}

// FindBestFlag matches a flag ignoring leading dashes on both sides, and
// returns the candidate as given.
func FindBestFlag(input string, flags []string, maxDistance int) string {
	bare := make([]string, len(flags))
	index := make(map[string]string, len(flags))
	for i, f := range flags {
		bare[i] = strings.TrimLeft(f, "-")
		index[bare[i]] = f
	}
	best := NewMatcher(maxDistance).FindBest(strings.TrimLeft(input, "-"), bare)
	if best == "" {
		return ""
	}
	return index[best]
}

// FindBestCommand finds the closest command name.
func FindBestCommand(input string, commands []string, maxDistance int) string {
	return NewMatcher(maxDistance).FindBest(input, commands)
}

// FindSuggestions returns up to maxSuggestions candidates, best first.
func FindSuggestions(input string, candidates []string, maxDistance, maxSuggestions int) []string {
	matches := NewMatcher(maxDistance).FindMatches(input, candidates)
	out := make([]string, 0, min(len(matches), maxSuggestions))
	for i, match := range matches {
		if i >= maxSuggestions {
			break
		}
		out = append(out, match.Value)
	}
	return out
}
