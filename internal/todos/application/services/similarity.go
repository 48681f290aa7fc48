// Package services holds the pure domain services of the todos context.
package services

import "strings"

// NormalizeTitle lowercases a title and collapses whitespace so that
// dedup comparisons ignore case and spacing.
func NormalizeTitle(title string) string {
	return strings.ToLower(strings.Join(strings.Fields(title), " "))
}

// TitleTokens splits a normalized title into comparison tokens.
func TitleTokens(normalized string) []string {
	return strings.FieldsFunc(normalized, func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
	})
}

// Similarity scores two normalized titles by unique-token overlap:
// |A ∩ B| / max(|A|, |B|). Returns 0 when either side has no tokens.
func Similarity(a, b string) float64 {
	tokensA := uniqueTokens(TitleTokens(a))
	tokensB := uniqueTokens(TitleTokens(b))
	if len(tokensA) == 0 || len(tokensB) == 0 {
		return 0
	}

	overlap := 0
	for token := range tokensA {
		if _, ok := tokensB[token]; ok {
			overlap++
		}
	}

	max := len(tokensA)
	if len(tokensB) > max {
		max = len(tokensB)
	}
	return float64(overlap) / float64(max)
}

func uniqueTokens(tokens []string) map[string]struct{} {
	set := make(map[string]struct{}, len(tokens))
	for _, token := range tokens {
		set[token] = struct{}{}
	}
	return set
}
