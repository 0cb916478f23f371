// Package textindex provides an in-memory inverted index with positional
// postings, TF-IDF ranked search, cosine document similarity, and
// spelling suggestions over the indexed vocabulary.
//
// The index is not safe for concurrent use; the owning engine serializes
// access behind its own lock.
package textindex

import (
	"errors"
	"sort"

	"github.com/inkroot/folio/internal/models"
	"github.com/inkroot/folio/internal/tokenizer"
)

// ErrDocumentNotFound is returned when an operation names a document the
// index does not hold. It is a recoverable condition for callers.
var ErrDocumentNotFound = errors.New("document not found")

const defaultSnippetLength = 200

// Index owns the inverted index and per-document statistics.
//
// Invariants maintained across every mutation:
//   - postings[term][docID] holds strictly increasing token positions;
//   - docTerms[docID][term] == len(postings[term][docID]);
//   - docLengths[docID] equals the document's token count after
//     stop-word removal;
//   - termCount equals the sum of all posting-list lengths;
//   - docCount equals the number of distinct indexed documents.
type Index struct {
	postings   map[string]map[string][]int
	docTerms   map[string]map[string]int
	docLengths map[string]int
	docMeta    map[string]map[string]interface{}
	docContent map[string]string
	docCount   int
	termCount  int

	snippetLen int
}

// Option configures an Index.
type Option func(*Index)

// WithSnippetLength sets the character budget for result snippets.
func WithSnippetLength(n int) Option {
	return func(ix *Index) {
		if n > 0 {
			ix.snippetLen = n
		}
	}
}

// New returns an empty index.
func New(opts ...Option) *Index {
	ix := &Index{
		postings:   make(map[string]map[string][]int),
		docTerms:   make(map[string]map[string]int),
		docLengths: make(map[string]int),
		docMeta:    make(map[string]map[string]interface{}),
		docContent: make(map[string]string),
		snippetLen: defaultSnippetLength,
	}
	for _, opt := range opts {
		opt(ix)
	}
	return ix
}

// Add tokenizes text and indexes it under docID, storing meta verbatim.
// Re-adding an already-indexed document first evicts every prior posting,
// term count, and length, so no stale position survives an update.
// A document whose text tokenizes to nothing is still indexed (with
// length zero) so metadata and statistics cover it.
func (ix *Index) Add(docID, text string, meta map[string]interface{}) {
	if _, exists := ix.docLengths[docID]; exists {
		ix.evict(docID)
	}
	terms := tokenizer.Tokenize(text)
	counts := make(map[string]int, len(terms))
	for pos, term := range terms {
		docs, ok := ix.postings[term]
		if !ok {
			docs = make(map[string][]int)
			ix.postings[term] = docs
		}
		docs[docID] = append(docs[docID], pos)
		counts[term]++
	}
	ix.docTerms[docID] = counts
	ix.docLengths[docID] = len(terms)
	ix.docMeta[docID] = models.CloneMetadata(meta)
	ix.docContent[docID] = text
	ix.docCount++
	ix.termCount += len(terms)
}

// Remove deletes every trace of docID from the index, pruning terms left
// with no postings. Returns ErrDocumentNotFound if the document was never
// indexed.
func (ix *Index) Remove(docID string) error {
	if _, exists := ix.docLengths[docID]; !exists {
		return ErrDocumentNotFound
	}
	ix.evict(docID)
	return nil
}

// evict removes docID's postings, counts, length, metadata, and content.
// Caller guarantees the document is present.
func (ix *Index) evict(docID string) {
	for term := range ix.docTerms[docID] {
		docs := ix.postings[term]
		delete(docs, docID)
		if len(docs) == 0 {
			delete(ix.postings, term)
		}
	}
	ix.termCount -= ix.docLengths[docID]
	ix.docCount--
	delete(ix.docTerms, docID)
	delete(ix.docLengths, docID)
	delete(ix.docMeta, docID)
	delete(ix.docContent, docID)
}

// MergeMetadata merges meta into the document's stored metadata without
// touching postings. Returns ErrDocumentNotFound for an unknown document.
func (ix *Index) MergeMetadata(docID string, meta map[string]interface{}) error {
	stored, exists := ix.docMeta[docID]
	if !exists {
		if _, known := ix.docLengths[docID]; !known {
			return ErrDocumentNotFound
		}
		stored = make(map[string]interface{}, len(meta))
		ix.docMeta[docID] = stored
	}
	for k, v := range models.CloneMetadata(meta) {
		stored[k] = v
	}
	return nil
}

// Metadata returns a copy of the document's stored metadata.
func (ix *Index) Metadata(docID string) (map[string]interface{}, error) {
	if _, exists := ix.docLengths[docID]; !exists {
		return nil, ErrDocumentNotFound
	}
	meta := models.CloneMetadata(ix.docMeta[docID])
	if meta == nil {
		meta = map[string]interface{}{}
	}
	return meta, nil
}

// Has reports whether docID is indexed.
func (ix *Index) Has(docID string) bool {
	_, exists := ix.docLengths[docID]
	return exists
}

// DocumentCount returns the number of distinct indexed documents.
func (ix *Index) DocumentCount() int { return ix.docCount }

// TermCount returns the sum of all posting-list lengths. It is a
// diagnostic figure, not a scoring input.
func (ix *Index) TermCount() int { return ix.termCount }

// DistinctTerms returns the vocabulary size.
func (ix *Index) DistinctTerms() int { return len(ix.postings) }

// DocumentFrequency returns the number of documents containing term.
func (ix *Index) DocumentFrequency(term string) int {
	return len(ix.postings[term])
}

// Length returns the token count of a document after stop-word removal.
func (ix *Index) Length(docID string) (int, error) {
	n, exists := ix.docLengths[docID]
	if !exists {
		return 0, ErrDocumentNotFound
	}
	return n, nil
}

// AverageDocumentLength returns the mean token count across indexed
// documents, or 0 for an empty index.
func (ix *Index) AverageDocumentLength() float64 {
	if ix.docCount == 0 {
		return 0
	}
	total := 0
	for _, n := range ix.docLengths {
		total += n
	}
	return float64(total) / float64(ix.docCount)
}

// Documents returns all indexed document IDs in sorted order.
func (ix *Index) Documents() []string {
	ids := make([]string, 0, len(ix.docLengths))
	for id := range ix.docLengths {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Terms returns the indexed vocabulary in sorted order.
func (ix *Index) Terms() []string {
	terms := make([]string, 0, len(ix.postings))
	for term := range ix.postings {
		terms = append(terms, term)
	}
	sort.Strings(terms)
	return terms
}
