package textindex

import (
	"math"
	"sort"

	"github.com/inkroot/folio/internal/models"
)

// Similar ranks every other indexed document by cosine similarity between
// term-count vectors and returns the top limit (limit <= 0 means no
// truncation). Documents sharing no terms with the target score 0 and are
// omitted. Returns ErrDocumentNotFound for an unknown document.
func (ix *Index) Similar(docID string, limit int) ([]models.SimilarResult, error) {
	target, exists := ix.docTerms[docID]
	if !exists {
		return nil, ErrDocumentNotFound
	}

	results := make([]models.SimilarResult, 0)
	for other, vector := range ix.docTerms {
		if other == docID {
			continue
		}
		sim := cosine(target, vector)
		if sim <= 0 {
			continue
		}
		results = append(results, models.SimilarResult{
			DocumentID: other,
			Similarity: sim,
			Title:      models.MetadataString(ix.docMeta[other], models.MetaTitle),
		})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Similarity != results[j].Similarity {
			return results[i].Similarity > results[j].Similarity
		}
		return results[i].DocumentID < results[j].DocumentID
	})

	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// cosine computes dot(a,b) / (||a|| * ||b||) over sparse term-count
// vectors, returning 0 when either norm is 0.
func cosine(a, b map[string]int) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	// Iterate the smaller vector for the dot product.
	small, large := a, b
	if len(b) < len(a) {
		small, large = b, a
	}
	dot := 0.0
	for term, count := range small {
		if other, ok := large[term]; ok {
			dot += float64(count) * float64(other)
		}
	}
	if dot == 0 {
		return 0
	}
	return dot / (norm(a) * norm(b))
}

func norm(v map[string]int) float64 {
	sum := 0.0
	for _, count := range v {
		sum += float64(count) * float64(count)
	}
	return math.Sqrt(sum)
}
