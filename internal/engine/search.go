package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/inkroot/folio/internal/models"
	"github.com/inkroot/folio/internal/tokenizer"
)

// Search executes a ranked query with optional tag and metadata
// filters. Responses are memoized until the next mutation; concurrent
// identical queries share one computation. The limit is defaulted and
// capped from the engine's configuration.
func (e *Engine) Search(ctx context.Context, req *models.SearchRequest) (*models.SearchResponse, error) {
	start := time.Now()

	if strings.TrimSpace(req.Query) == "" {
		if e.metrics != nil {
			e.metrics.SearchesTotal.WithLabelValues("error").Inc()
		}
		return nil, fmt.Errorf("query cannot be empty")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if req.Limit <= 0 {
		req.Limit = e.defaultLimit
	}
	if req.Limit > e.maxLimit {
		req.Limit = e.maxLimit
	}

	key := cacheKey(req)
	if resp, ok := e.cache.get(key); ok {
		e.recordSearch(resp, "hit", time.Since(start))
		hit := *resp
		hit.Cached = true
		return &hit, nil
	}

	resp, err := e.cache.do(key, func() (*models.SearchResponse, error) {
		resp := e.search(req)
		e.cache.set(key, resp)
		return resp, nil
	})
	if err != nil {
		return nil, err
	}
	e.recordSearch(resp, "miss", time.Since(start))
	return resp, nil
}

// search runs the query against current state under the read lock.
func (e *Engine) search(req *models.SearchRequest) *models.SearchResponse {
	start := time.Now()

	e.mu.RLock()
	defer e.mu.RUnlock()

	var allowed map[string]struct{}
	if len(req.TagIDs) > 0 {
		allowed = make(map[string]struct{})
		for _, docID := range e.tags.DocumentsWithTags(req.TagIDs, req.MatchAllTags) {
			allowed[docID] = struct{}{}
		}
	}

	hits, total := e.index.Search(req.Query, req.Limit, req.MetadataFilter, allowed)

	results := make([]*models.SearchResult, 0, len(hits))
	for i, hit := range hits {
		result := &models.SearchResult{
			DocumentID: hit.DocumentID,
			Score:      hit.Score,
			Title:      hit.Title,
			Snippet:    hit.Snippet,
			Rank:       i + 1,
		}
		if req.IncludePath {
			result.Path = e.nodePath(hit.DocumentID)
		}
		results = append(results, result)
	}

	return &models.SearchResponse{
		Results:     results,
		Total:       total,
		Query:       req.Query,
		QueryTime:   time.Since(start).Milliseconds(),
		Suggestions: e.suggestions(req.Query),
	}
}

// nodePath renders the document's hierarchy location root-first,
// joined with "/". Unplaced documents yield "".
func (e *Engine) nodePath(docID string) string {
	node, err := e.nodes.NodeByDocument(docID)
	if err != nil {
		return ""
	}
	path, err := e.nodes.Path(node.ID)
	if err != nil {
		return ""
	}
	names := make([]string, len(path))
	for i, n := range path {
		names[i] = n.Name
	}
	return strings.Join(names, "/")
}

// suggestions proposes the closest vocabulary term for each query term
// that matches no document.
func (e *Engine) suggestions(query string) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, term := range tokenizer.Tokenize(query) {
		if e.index.DocumentFrequency(term) > 0 {
			continue
		}
		for _, s := range e.index.Suggest(term, 1) {
			if _, dup := seen[s]; dup {
				continue
			}
			seen[s] = struct{}{}
			out = append(out, s)
		}
	}
	return out
}

func (e *Engine) recordSearch(resp *models.SearchResponse, cache string, elapsed time.Duration) {
	if e.metrics == nil {
		return
	}
	outcome := "ok"
	if resp.Total == 0 {
		outcome = "zero_result"
	}
	e.metrics.SearchesTotal.WithLabelValues(outcome).Inc()
	e.metrics.SearchLatency.WithLabelValues(cache).Observe(elapsed.Seconds())
	if cache == "hit" {
		e.metrics.CacheHitsTotal.Inc()
	} else {
		e.metrics.CacheMissesTotal.Inc()
	}
}
