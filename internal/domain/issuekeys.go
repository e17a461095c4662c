package domain

import (
	"regexp"
	"sort"
)

var issueKeyPattern = regexp.MustCompile(`\b[A-Z]{2,5}-[0-9]+\b`)

// ExtractIssueKeys returns the issue keys (e.g. ABC-123) mentioned in text in
// order of appearance. Repeated keys are kept.
func ExtractIssueKeys(text string) []string {
	return issueKeyPattern.FindAllString(text, -1)
}

// UniqueIssueKeys drops repeated keys, keeping first occurrences in order.
func UniqueIssueKeys(keys []string) []string {
	seen := make(map[string]struct{}, len(keys))
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}

// SameIssueKeySet reports whether a and b contain the same keys, ignoring
// order and repetitions.
func SameIssueKeySet(a, b []string) bool {
	ua := UniqueIssueKeys(a)
	ub := UniqueIssueKeys(b)
	if len(ua) != len(ub) {
		return false
	}
	sort.Strings(ua)
	sort.Strings(ub)
	for i := range ua {
		if ua[i] != ub[i] {
			return false
		}
	}
	return true
}
