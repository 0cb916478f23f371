package textindex

import (
	"fmt"

	"github.com/inkroot/folio/internal/models"
)

// Snapshot is the serializable form of the index state.
type Snapshot struct {
	InvertedIndex      map[string]map[string][]int       `json:"inverted_index"`
	DocumentMetadata   map[string]map[string]interface{} `json:"document_metadata"`
	DocumentTermCounts map[string]map[string]int         `json:"document_term_counts"`
	DocumentLengths    map[string]int                    `json:"document_lengths"`
	DocumentContents   map[string]string                 `json:"document_contents"`
	DocumentCount      int                               `json:"document_count"`
	TermCount          int                               `json:"term_count"`
}

// Snapshot returns a deep copy of the index state for serialization.
func (ix *Index) Snapshot() *Snapshot {
	snap := &Snapshot{
		InvertedIndex:      make(map[string]map[string][]int, len(ix.postings)),
		DocumentMetadata:   make(map[string]map[string]interface{}, len(ix.docMeta)),
		DocumentTermCounts: make(map[string]map[string]int, len(ix.docTerms)),
		DocumentLengths:    make(map[string]int, len(ix.docLengths)),
		DocumentContents:   make(map[string]string, len(ix.docContent)),
		DocumentCount:      ix.docCount,
		TermCount:          ix.termCount,
	}
	for term, docs := range ix.postings {
		copied := make(map[string][]int, len(docs))
		for docID, positions := range docs {
			copied[docID] = append([]int(nil), positions...)
		}
		snap.InvertedIndex[term] = copied
	}
	for docID, meta := range ix.docMeta {
		snap.DocumentMetadata[docID] = models.CloneMetadata(meta)
	}
	for docID, counts := range ix.docTerms {
		copied := make(map[string]int, len(counts))
		for term, count := range counts {
			copied[term] = count
		}
		snap.DocumentTermCounts[docID] = copied
	}
	for docID, length := range ix.docLengths {
		snap.DocumentLengths[docID] = length
	}
	for docID, content := range ix.docContent {
		snap.DocumentContents[docID] = content
	}
	return snap
}

// FromSnapshot validates snap and builds a fresh index from it. A snapshot
// that violates any index invariant is rejected whole, so a caller's
// existing index is never left half-replaced.
func FromSnapshot(snap *Snapshot, opts ...Option) (*Index, error) {
	if snap == nil {
		return nil, fmt.Errorf("nil snapshot")
	}
	if err := validateSnapshot(snap); err != nil {
		return nil, err
	}

	ix := New(opts...)
	for term, docs := range snap.InvertedIndex {
		copied := make(map[string][]int, len(docs))
		for docID, positions := range docs {
			copied[docID] = append([]int(nil), positions...)
		}
		ix.postings[term] = copied
	}
	for docID, counts := range snap.DocumentTermCounts {
		copied := make(map[string]int, len(counts))
		for term, count := range counts {
			copied[term] = count
		}
		ix.docTerms[docID] = copied
	}
	for docID, length := range snap.DocumentLengths {
		ix.docLengths[docID] = length
		if _, ok := ix.docTerms[docID]; !ok {
			ix.docTerms[docID] = make(map[string]int)
		}
	}
	for docID, meta := range snap.DocumentMetadata {
		ix.docMeta[docID] = models.CloneMetadata(meta)
	}
	for docID, content := range snap.DocumentContents {
		ix.docContent[docID] = content
	}
	ix.docCount = len(snap.DocumentLengths)
	ix.termCount = snap.TermCount
	return ix, nil
}

// validateSnapshot cross-checks the snapshot's structures against the
// invariants Add and Remove maintain.
func validateSnapshot(snap *Snapshot) error {
	totalPostings := 0
	for term, docs := range snap.InvertedIndex {
		if len(docs) == 0 {
			return fmt.Errorf("term %q has no postings", term)
		}
		for docID, positions := range docs {
			if _, ok := snap.DocumentLengths[docID]; !ok {
				return fmt.Errorf("term %q posted under unknown document %q", term, docID)
			}
			if len(positions) == 0 {
				return fmt.Errorf("term %q has empty posting for document %q", term, docID)
			}
			for i := 1; i < len(positions); i++ {
				if positions[i] <= positions[i-1] {
					return fmt.Errorf("term %q positions not increasing for document %q", term, docID)
				}
			}
			if count := snap.DocumentTermCounts[docID][term]; count != len(positions) {
				return fmt.Errorf("term %q count %d does not match %d positions for document %q",
					term, count, len(positions), docID)
			}
			totalPostings += len(positions)
		}
	}

	for docID, counts := range snap.DocumentTermCounts {
		if _, ok := snap.DocumentLengths[docID]; !ok {
			return fmt.Errorf("term counts for unknown document %q", docID)
		}
		sum := 0
		for term, count := range counts {
			if _, ok := snap.InvertedIndex[term][docID]; !ok {
				return fmt.Errorf("document %q counts term %q with no posting", docID, term)
			}
			sum += count
		}
		if sum != snap.DocumentLengths[docID] {
			return fmt.Errorf("document %q term counts sum to %d, length is %d",
				docID, sum, snap.DocumentLengths[docID])
		}
	}

	if snap.DocumentCount != len(snap.DocumentLengths) {
		return fmt.Errorf("document count %d does not match %d recorded lengths",
			snap.DocumentCount, len(snap.DocumentLengths))
	}
	if snap.TermCount != totalPostings {
		return fmt.Errorf("term count %d does not match %d stored postings",
			snap.TermCount, totalPostings)
	}
	return nil
}
