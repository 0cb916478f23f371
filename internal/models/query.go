package models

import "fmt"

// SearchRequest represents a search with optional tag and metadata filters.
type SearchRequest struct {
	Query string `json:"query"`
	Limit int    `json:"limit,omitempty"`
	// MetadataFilter keeps only documents whose stored metadata matches
	// every provided key exactly.
	MetadataFilter map[string]interface{} `json:"metadata_filter,omitempty"`
	// TagIDs narrows results to documents carrying the given tags;
	// MatchAllTags switches between intersection and union semantics.
	TagIDs       []string `json:"tag_ids,omitempty"`
	MatchAllTags bool     `json:"match_all_tags,omitempty"`
	// IncludePath annotates each result with its hierarchy path.
	IncludePath bool `json:"include_path,omitempty"`
}

// Validate checks the request and normalizes the limit.
// Returns an error if the query is empty.
func (r *SearchRequest) Validate() error {
	if r.Query == "" {
		return fmt.Errorf("query cannot be empty")
	}
	if r.Limit <= 0 {
		r.Limit = 10
	}
	if r.Limit > 100 {
		r.Limit = 100
	}
	return nil
}
