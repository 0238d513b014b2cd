package relevance

import "strings"

// TokenSet is a set of normalized word tokens.
type TokenSet map[string]struct{}

// Tokenize lowercases s and splits it on whitespace runs. Punctuation is
// kept and no stemming is applied, so "memory?" and "memory" differ.
func Tokenize(s string) TokenSet {
	fields := strings.Fields(strings.ToLower(s))
	set := make(TokenSet, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}

// Overlap counts the distinct tokens present in both sets.
func (s TokenSet) Overlap(other TokenSet) int {
	small, large := s, other
	if len(small) > len(large) {
		small, large = large, small
	}
	n := 0
	for t := range small {
		if _, ok := large[t]; ok {
			n++
		}
	}
	return n
}
