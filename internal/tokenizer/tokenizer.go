// Package tokenizer normalizes free text into index terms. It lower-cases
// input, treats any run of non-alphanumeric characters as a single
// separator, and removes common English stop words. Tokenize is a pure
// function: the same input always yields the same terms.
package tokenizer

import (
	"strings"
	"unicode"
)

// Span is a term together with the byte offset of the token it came from
// in the original text. Offsets refer to the unmodified input, so callers
// can cut display snippets around a term occurrence.
type Span struct {
	Term  string
	Start int
}

// Spans breaks text into lowercase terms with stop words removed,
// preserving each term's byte offset in the original text. The index of a
// span in the returned slice is the term's token position as stored by
// the search index. Empty or all-separator input yields a nil slice.
func Spans(text string) []Span {
	if text == "" {
		return nil
	}
	var (
		spans []Span
		b     strings.Builder
		start = -1
	)
	flush := func() {
		term := b.String()
		if !IsStopWord(term) {
			spans = append(spans, Span{Term: term, Start: start})
		}
		b.Reset()
		start = -1
	}
	for i, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if start < 0 {
				start = i
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		if start >= 0 {
			flush()
		}
	}
	if start >= 0 {
		flush()
	}
	return spans
}

// Tokenize breaks text into lowercase terms with stop words removed.
// The position of a term in the returned slice is its token position as
// stored by the index. Empty or all-separator input yields a nil slice.
func Tokenize(text string) []string {
	spans := Spans(text)
	if len(spans) == 0 {
		return nil
	}
	terms := make([]string, len(spans))
	for i, s := range spans {
		terms[i] = s.Term
	}
	return terms
}

// IsStopWord reports whether word (already lowercase) is in the embedded
// stop-word set.
func IsStopWord(word string) bool {
	_, ok := stopWords[word]
	return ok
}
