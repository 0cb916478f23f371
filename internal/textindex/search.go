package textindex

import (
	"math"
	"reflect"
	"sort"
	"unicode/utf8"

	"github.com/inkroot/folio/internal/models"
	"github.com/inkroot/folio/internal/tokenizer"
)

// Hit is a single ranked search result.
type Hit struct {
	DocumentID string
	Score      float64
	Title      string
	Snippet    string
}

// Search tokenizes query and ranks every document containing at least one
// query term by summed TF-IDF weight. Each query-term occurrence
// contributes tf*idf, where tf = occurrences(term, doc)/length(doc) and
// idf = ln(docCount/documentFrequency(term)); terms absent from the index
// contribute nothing. A single-document corpus yields idf = ln(1) = 0, a
// valid zero score rather than an error.
//
// Candidates are filtered by exact match on every filter key, restricted
// to allowed when non-nil, sorted by descending score with document ID as
// the tiebreak, and truncated to limit (limit <= 0 means no truncation).
// The second return value is the match count before truncation.
func (ix *Index) Search(query string, limit int, filter map[string]interface{}, allowed map[string]struct{}) ([]Hit, int) {
	terms := tokenizer.Tokenize(query)
	if len(terms) == 0 || ix.docCount == 0 {
		return nil, 0
	}

	scores := make(map[string]float64)
	for _, term := range terms {
		docs := ix.postings[term]
		df := len(docs)
		if df == 0 {
			continue
		}
		idf := math.Log(float64(ix.docCount) / float64(df))
		for docID, positions := range docs {
			tf := float64(len(positions)) / float64(ix.docLengths[docID])
			scores[docID] += tf * idf
		}
	}

	hits := make([]Hit, 0, len(scores))
	for docID, score := range scores {
		if allowed != nil {
			if _, ok := allowed[docID]; !ok {
				continue
			}
		}
		if !matchesMetadata(ix.docMeta[docID], filter) {
			continue
		}
		hits = append(hits, Hit{
			DocumentID: docID,
			Score:      score,
			Title:      models.MetadataString(ix.docMeta[docID], models.MetaTitle),
			Snippet:    ix.snippet(docID, terms),
		})
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].DocumentID < hits[j].DocumentID
	})

	total := len(hits)
	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, total
}

// matchesMetadata reports whether meta satisfies every key in filter.
// Values are compared structurally so list-valued metadata does not panic.
func matchesMetadata(meta, filter map[string]interface{}) bool {
	if len(filter) == 0 {
		return true
	}
	for key, want := range filter {
		got, ok := meta[key]
		if !ok || !reflect.DeepEqual(got, want) {
			return false
		}
	}
	return true
}

// snippet cuts a window of the document's content centered on the
// earliest stored position of any query term, padded to the configured
// character budget with ellipses at truncated boundaries.
func (ix *Index) snippet(docID string, queryTerms []string) string {
	content := ix.docContent[docID]
	if content == "" {
		return ""
	}

	first := -1
	for _, term := range queryTerms {
		positions, ok := ix.postings[term][docID]
		if !ok || len(positions) == 0 {
			continue
		}
		if first < 0 || positions[0] < first {
			first = positions[0]
		}
	}

	matchByte := 0
	if first >= 0 {
		spans := tokenizer.Spans(content)
		if first < len(spans) {
			matchByte = spans[first].Start
		}
	}

	runes := []rune(content)
	if len(runes) <= ix.snippetLen {
		return content
	}

	matchRune := utf8.RuneCountInString(content[:matchByte])
	start := matchRune - ix.snippetLen/2
	if start < 0 {
		start = 0
	}
	end := start + ix.snippetLen
	if end > len(runes) {
		end = len(runes)
		start = end - ix.snippetLen
	}

	out := string(runes[start:end])
	if start > 0 {
		out = "..." + out
	}
	if end < len(runes) {
		out += "..."
	}
	return out
}
