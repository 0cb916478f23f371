package engine

import (
	"sort"

	"github.com/inkroot/folio/internal/models"
)

const (
	topTagCount  = 10
	topPairCount = 10
)

// Statistics reports aggregate counts plus the most-used tags and the
// closest document pairs.
func (e *Engine) Statistics() *models.Statistics {
	e.mu.RLock()
	defer e.mu.RUnlock()

	stats := &models.Statistics{
		Documents:             e.index.DocumentCount(),
		DistinctTerms:         e.index.DistinctTerms(),
		TermOccurrences:       e.index.TermCount(),
		Nodes:                 e.nodes.Count(),
		Tags:                  e.tags.Count(),
		AverageDocumentLength: e.index.AverageDocumentLength(),
	}
	if n := e.index.DocumentCount(); n > 0 {
		stats.AverageTagsPerDocument = float64(e.tags.MembershipCount()) / float64(n)
	}
	stats.TopTags = e.tags.TopTags(topTagCount)
	stats.SimilarPairs = e.similarPairs(topPairCount)
	return stats
}

// similarPairs walks every document pair once. Quadratic, which is fine
// at the corpus sizes the statistics view serves.
func (e *Engine) similarPairs(n int) []models.SimilarPair {
	var pairs []models.SimilarPair
	for _, docID := range e.index.Documents() {
		results, err := e.index.Similar(docID, 0)
		if err != nil {
			continue
		}
		for _, r := range results {
			// Count each pair once.
			if r.DocumentID <= docID {
				continue
			}
			pairs = append(pairs, models.SimilarPair{
				DocumentA:  docID,
				DocumentB:  r.DocumentID,
				Similarity: r.Similarity,
			})
		}
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].Similarity != pairs[j].Similarity {
			return pairs[i].Similarity > pairs[j].Similarity
		}
		if pairs[i].DocumentA != pairs[j].DocumentA {
			return pairs[i].DocumentA < pairs[j].DocumentA
		}
		return pairs[i].DocumentB < pairs[j].DocumentB
	})
	if n > 0 && len(pairs) > n {
		pairs = pairs[:n]
	}
	return pairs
}
