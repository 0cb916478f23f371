package textindex

import (
	"sort"
	"strings"
	"unicode/utf8"
)

const (
	maxSuggestDistance = 2
	defaultSuggestions = 5
)

// Suggest returns indexed terms within Damerau-Levenshtein distance 2 of
// term, ranked by distance, then document frequency, then alphabetically.
// A term already present in the index needs no correction and yields nil.
func (ix *Index) Suggest(term string, limit int) []string {
	term = strings.ToLower(term)
	if term == "" || len(ix.postings[term]) > 0 {
		return nil
	}
	if limit <= 0 {
		limit = defaultSuggestions
	}

	type candidate struct {
		term     string
		distance int
		df       int
	}

	termLen := utf8.RuneCountInString(term)
	candidates := make([]candidate, 0)
	for indexed, docs := range ix.postings {
		lenDiff := utf8.RuneCountInString(indexed) - termLen
		if lenDiff < 0 {
			lenDiff = -lenDiff
		}
		if lenDiff > maxSuggestDistance {
			continue
		}
		distance := damerauLevenshtein(term, indexed)
		if distance > maxSuggestDistance {
			continue
		}
		candidates = append(candidates, candidate{term: indexed, distance: distance, df: len(docs)})
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].distance != candidates[j].distance {
			return candidates[i].distance < candidates[j].distance
		}
		if candidates[i].df != candidates[j].df {
			return candidates[i].df > candidates[j].df
		}
		return candidates[i].term < candidates[j].term
	})

	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	terms := make([]string, len(candidates))
	for i, c := range candidates {
		terms[i] = c.term
	}
	return terms
}

// damerauLevenshtein calculates the minimum number of single-character
// edits (insertions, deletions, substitutions, or transpositions of two
// adjacent characters) required to change one string into another.
func damerauLevenshtein(a, b string) int {
	if a == b {
		return 0
	}

	runesA := []rune(a)
	runesB := []rune(b)
	lenA := len(runesA)
	lenB := len(runesB)
	if lenA == 0 {
		return lenB
	}
	if lenB == 0 {
		return lenA
	}

	// Transposition checks need the full matrix.
	d := make([][]int, lenA+1)
	for i := range d {
		d[i] = make([]int, lenB+1)
		d[i][0] = i
	}
	for j := 0; j <= lenB; j++ {
		d[0][j] = j
	}

	for i := 1; i <= lenA; i++ {
		for j := 1; j <= lenB; j++ {
			cost := 0
			if runesA[i-1] != runesB[j-1] {
				cost = 1
			}

			d[i][j] = min(
				d[i-1][j]+1,      // deletion
				d[i][j-1]+1,      // insertion
				d[i-1][j-1]+cost, // substitution
			)

			if i > 1 && j > 1 &&
				runesA[i-1] == runesB[j-2] &&
				runesA[i-2] == runesB[j-1] {
				d[i][j] = min(d[i][j], d[i-2][j-2]+cost)
			}
		}
	}

	return d[lenA][lenB]
}
