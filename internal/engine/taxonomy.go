package engine

import (
	"github.com/inkroot/folio/internal/tags"
)

// CreateTag creates a tag in the taxonomy. Names are unique
// case-insensitively; an unknown parent falls back to the root.
func (e *Engine) CreateTag(name, color, parentID string, metadata map[string]interface{}) (*tags.Tag, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.tags.CreateTag(name, color, parentID, metadata)
}

// GetOrCreateTag returns the tag with the given name, creating a root
// tag when none exists. Matching is case-insensitive.
func (e *Engine) GetOrCreateTag(name string) (*tags.Tag, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.tags.GetOrCreateTag(name)
}

// Tag returns the tag with the given ID.
func (e *Engine) Tag(tagID string) (*tags.Tag, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.tags.Tag(tagID)
}

// TagByName returns the tag with the given name, case-insensitively.
func (e *Engine) TagByName(name string) (*tags.Tag, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.tags.TagByName(name)
}

// Tags returns every tag, sorted by name.
func (e *Engine) Tags() []*tags.Tag {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.tags.Tags()
}

// UpdateTag applies update to a tag. A rename is mirrored into the
// stored tags list of every document carrying the tag.
func (e *Engine) UpdateTag(tagID string, update tags.TagUpdate) (*tags.Tag, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	tag, err := e.tags.UpdateTag(tagID, update)
	if err != nil {
		return nil, err
	}
	if update.Name != "" {
		docs, _ := e.tags.DocumentsWithTag(tagID, false)
		for _, docID := range docs {
			e.syncTagMetadata(docID)
		}
	}
	e.cache.purge()
	return tag, nil
}

// DeleteTag deletes a tag, recursively when asked, and clears the
// deleted names from the stored tags lists of affected documents.
func (e *Engine) DeleteTag(tagID string, recursive bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	affected, err := e.tags.DocumentsWithTag(tagID, true)
	if err != nil {
		return err
	}
	if err := e.tags.DeleteTag(tagID, recursive); err != nil {
		return err
	}
	for _, docID := range affected {
		e.syncTagMetadata(docID)
	}
	e.cache.purge()
	return nil
}

// DocumentsWithTag returns the IDs of documents carrying the tag,
// optionally unioned with every descendant tag's documents.
func (e *Engine) DocumentsWithTag(tagID string, includeDescendants bool) ([]string, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.tags.DocumentsWithTag(tagID, includeDescendants)
}

// DocumentsWithTags returns the IDs of documents carrying all (matchAll)
// or any of the given tags.
func (e *Engine) DocumentsWithTags(tagIDs []string, matchAll bool) []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.tags.DocumentsWithTags(tagIDs, matchAll)
}
