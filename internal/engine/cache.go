package engine

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	"github.com/inkroot/folio/internal/models"
)

// queryCache memoizes search responses keyed by the normalized request
// until the next mutation. A singleflight group collapses concurrent
// identical queries into one computation. A nil cache disables
// memoization entirely.
type queryCache struct {
	entries *lru.Cache[string, *models.SearchResponse]
	group   singleflight.Group
}

func newQueryCache(size int) *queryCache {
	entries, err := lru.New[string, *models.SearchResponse](size)
	if err != nil {
		return nil
	}
	return &queryCache{entries: entries}
}

// cacheKey hashes the full request. encoding/json writes map keys
// sorted, so the key is stable across filter map iteration order.
func cacheKey(req *models.SearchRequest) string {
	raw, err := json.Marshal(req)
	if err != nil {
		return req.Query
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}

func (c *queryCache) get(key string) (*models.SearchResponse, bool) {
	if c == nil {
		return nil, false
	}
	return c.entries.Get(key)
}

func (c *queryCache) set(key string, resp *models.SearchResponse) {
	if c == nil {
		return
	}
	c.entries.Add(key, resp)
}

func (c *queryCache) purge() {
	if c == nil {
		return
	}
	c.entries.Purge()
}

func (c *queryCache) do(key string, fn func() (*models.SearchResponse, error)) (*models.SearchResponse, error) {
	if c == nil {
		return fn()
	}
	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		return fn()
	})
	if err != nil {
		return nil, err
	}
	return v.(*models.SearchResponse), nil
}
