package models

// TagCount pairs a tag with the number of documents carrying it.
type TagCount struct {
	TagID     string `json:"tag_id"`
	Name      string `json:"name"`
	Documents int    `json:"documents"`
}

// SimilarPair is a pair of documents with their cosine similarity.
type SimilarPair struct {
	DocumentA  string  `json:"document_a"`
	DocumentB  string  `json:"document_b"`
	Similarity float64 `json:"similarity"`
}

// Statistics aggregates the state of the engine's owned structures.
// TermOccurrences is the sum of all posting-list lengths (a diagnostic,
// not a scoring input); DistinctTerms is the vocabulary size.
type Statistics struct {
	Documents              int           `json:"documents"`
	DistinctTerms          int           `json:"distinct_terms"`
	TermOccurrences        int           `json:"term_occurrences"`
	Nodes                  int           `json:"nodes"`
	Tags                   int           `json:"tags"`
	AverageDocumentLength  float64       `json:"average_document_length"`
	AverageTagsPerDocument float64       `json:"average_tags_per_document"`
	TopTags                []TagCount    `json:"top_tags,omitempty"`
	SimilarPairs           []SimilarPair `json:"similar_pairs,omitempty"`
}
