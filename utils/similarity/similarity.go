// Package similarity scores how closely two titles match.
package similarity

import (
	"strings"
	"unicode"

	"github.com/mozillazg/go-unidecode"
)

// minFuzzyRunes is the shortest query that is matched with typo tolerance.
const minFuzzyRunes = 4

// Normalize folds accents and case, turns "&" into "and" and collapses
// punctuation into single spaces.
func Normalize(s string) string {
	s = strings.ReplaceAll(unidecode.Unidecode(s), "&", " and ")

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// Score returns a value between 0 (nothing in common) and 1 (identical after
// normalisation), based on edit distance.
func Score(a, b string) float64 {
	return score(Normalize(a), Normalize(b))
}

func score(a, b string) float64 {
	if a == b {
		return 1
	}
	ra, rb := []rune(a), []rune(b)
	longest := max(len(ra), len(rb))
	if len(ra) == 0 || len(rb) == 0 {
		return 0
	}
	return 1 - float64(distance(ra, rb))/float64(longest)
}

// Matches reports whether query appears in title. Queries of at least four
// characters also match a run of title words scoring threshold or better, so
// "thrnes" still finds "Game of Thrones".
func Matches(title, query string, threshold float64) bool {
	q := Normalize(query)
	if q == "" {
		return true
	}
	t := Normalize(title)
	if strings.Contains(t, q) {
		return true
	}
	if len([]rune(q)) < minFuzzyRunes {
		return false
	}

	words := strings.Fields(t)
	span := len(strings.Fields(q))
	if span > len(words) {
		return score(t, q) >= threshold
	}
	for i := 0; i+span <= len(words); i++ {
		if score(strings.Join(words[i:i+span], " "), q) >= threshold {
			return true
		}
	}
	return false
}

// distance is the Levenshtein distance over runes, kept to two rows.
func distance(a, b []rune) int {
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}
