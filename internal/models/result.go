package models

// SearchResult is a single ranked hit.
type SearchResult struct {
	DocumentID string  `json:"document_id"`
	Score      float64 `json:"score"`
	Title      string  `json:"title,omitempty"`
	Snippet    string  `json:"snippet,omitempty"`
	// Path is the hierarchy location of the document's node, root first,
	// joined with "/". Only set when the request asked for it.
	Path string `json:"path,omitempty"`
	Rank int    `json:"rank"`
}

// SearchResponse is the response for a search request.
type SearchResponse struct {
	Results   []*SearchResult `json:"results"`
	Total     int             `json:"total"`
	QueryTime int64           `json:"query_time_ms"`
	Query     string          `json:"query"`
	// Suggestions holds "did you mean" corrections for query terms that
	// matched no document.
	Suggestions []string `json:"suggestions,omitempty"`
	// Cached indicates the response was served from the query cache.
	Cached bool `json:"cached,omitempty"`
}

// SimilarResult is one entry returned by a similar-documents lookup.
type SimilarResult struct {
	DocumentID string  `json:"document_id"`
	Similarity float64 `json:"similarity"`
	Title      string  `json:"title,omitempty"`
}

// TreeNode is a hierarchy node rendered with its children nested, used
// by API responses and the CLI tree view.
type TreeNode struct {
	ID         string      `json:"id"`
	Name       string      `json:"name"`
	Type       string      `json:"type"`
	DocumentID string      `json:"document_id,omitempty"`
	Children   []*TreeNode `json:"children,omitempty"`
}
