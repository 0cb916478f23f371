// Package engine coordinates the search index, the content hierarchy,
// and the tag taxonomy behind a single lock, keeping the three
// structures consistent across document lifecycle operations.
package engine

import (
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/inkroot/folio/internal/config"
	"github.com/inkroot/folio/internal/hierarchy"
	"github.com/inkroot/folio/internal/metrics"
	"github.com/inkroot/folio/internal/models"
	"github.com/inkroot/folio/internal/tags"
	"github.com/inkroot/folio/internal/textindex"
)

// ErrDocumentNotFound is returned for operations on documents the
// engine has never processed.
var ErrDocumentNotFound = textindex.ErrDocumentNotFound

// MetadataExtractor derives metadata from raw document content, for
// example front-matter keys or a leading heading.
type MetadataExtractor interface {
	ExtractMetadata(content string) (map[string]interface{}, error)
}

// Engine organizes documents. Processing a document indexes its
// content, places a node for it in the hierarchy, and reconciles its
// tag memberships; removal undoes all three.
type Engine struct {
	mu    sync.RWMutex
	index *textindex.Index
	nodes *hierarchy.Hierarchy
	tags  *tags.Manager

	extractor MetadataExtractor
	cache     *queryCache
	metrics   *metrics.Metrics
	logger    *zap.Logger

	defaultLimit int
	maxLimit     int
	snippetLen   int
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger used by the engine and its owned
// structures.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithExtractor sets the metadata extractor run on document content.
func WithExtractor(ex MetadataExtractor) Option {
	return func(e *Engine) {
		e.extractor = ex
	}
}

// WithMetrics wires Prometheus metrics into the engine.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// NewEngine creates an empty engine. A nil cfg uses the defaults.
func NewEngine(cfg *config.SearchConfig, opts ...Option) *Engine {
	resolved := config.SearchConfig{}
	if cfg != nil {
		resolved = *cfg
	}
	if resolved.DefaultLimit <= 0 {
		resolved.DefaultLimit = 10
	}
	if resolved.MaxLimit <= 0 {
		resolved.MaxLimit = 100
	}
	if resolved.SnippetLength <= 0 {
		resolved.SnippetLength = 200
	}
	if resolved.CacheSize <= 0 {
		resolved.CacheSize = 256
	}

	e := &Engine{
		logger:       zap.NewNop(),
		defaultLimit: resolved.DefaultLimit,
		maxLimit:     resolved.MaxLimit,
		snippetLen:   resolved.SnippetLength,
	}
	for _, opt := range opts {
		opt(e)
	}

	e.index = textindex.New(textindex.WithSnippetLength(e.snippetLen))
	e.nodes = hierarchy.New(hierarchy.WithLogger(e.logger))
	e.tags = tags.New(tags.WithLogger(e.logger))
	e.cache = newQueryCache(resolved.CacheSize)
	return e
}

// ProcessDocument indexes doc and reconciles its hierarchy node and tag
// memberships. Processing the same ID again replaces the previous
// state. Metadata extracted from the content is merged first, so
// caller-provided keys win on conflict.
func (e *Engine) ProcessDocument(doc *models.Document) error {
	if doc == nil || doc.ID == "" {
		return fmt.Errorf("document id cannot be empty")
	}

	meta := map[string]interface{}{}
	if e.extractor != nil {
		extracted, err := e.extractor.ExtractMetadata(doc.Content)
		if err != nil {
			e.logger.Warn("metadata extraction failed",
				zap.String("document_id", doc.ID),
				zap.Error(err))
		}
		for k, v := range extracted {
			meta[k] = v
		}
	}
	for k, v := range doc.Metadata {
		meta[k] = v
	}

	title := doc.Title
	if title == "" {
		title = models.MetadataString(meta, models.MetaTitle)
	}
	if title == "" {
		title = doc.ID
	}
	meta[models.MetaTitle] = title

	tagNames := models.MetadataTags(meta)
	if tagNames != nil {
		meta[models.MetaTags] = tagNames
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.index.Add(doc.ID, doc.Content, meta)

	if node, err := e.nodes.NodeByDocument(doc.ID); err == nil {
		if _, err := e.nodes.UpdateNode(node.ID, hierarchy.NodeUpdate{Name: title}); err != nil {
			return fmt.Errorf("update node for document %s: %w", doc.ID, err)
		}
	} else if _, err := e.nodes.CreateNode(title, hierarchy.TypeDocument, "", doc.ID, nil); err != nil {
		return fmt.Errorf("create node for document %s: %w", doc.ID, err)
	}

	if err := e.reconcileTags(doc.ID, tagNames); err != nil {
		return err
	}

	e.cache.purge()
	if e.metrics != nil {
		e.metrics.DocumentsIndexedTotal.Inc()
	}
	e.logger.Debug("document processed",
		zap.String("document_id", doc.ID),
		zap.String("title", title),
		zap.Int("tags", len(tagNames)))
	return nil
}

// reconcileTags makes the document's memberships match names exactly,
// creating missing tags on demand. Callers hold the write lock.
func (e *Engine) reconcileTags(docID string, names []string) error {
	desired := make(map[string]struct{}, len(names))
	for _, name := range names {
		desired[strings.ToLower(strings.TrimSpace(name))] = struct{}{}
	}
	for _, tag := range e.tags.TagsForDocument(docID) {
		if _, keep := desired[strings.ToLower(tag.Name)]; keep {
			continue
		}
		if err := e.tags.RemoveDocumentTag(docID, tag.ID); err != nil {
			return fmt.Errorf("untag document %s: %w", docID, err)
		}
	}
	for _, name := range names {
		tag, err := e.tags.GetOrCreateTag(name)
		if err != nil {
			return fmt.Errorf("tag %q: %w", name, err)
		}
		if err := e.tags.AddDocumentTag(docID, tag.ID); err != nil {
			return fmt.Errorf("tag document %s: %w", docID, err)
		}
	}
	return nil
}

// RemoveDocument removes docID from the index, deletes its hierarchy
// node along with any children, and clears its tag memberships.
func (e *Engine) RemoveDocument(docID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.index.Has(docID) {
		e.logger.Warn("remove of unknown document", zap.String("document_id", docID))
		return fmt.Errorf("document %s: %w", docID, ErrDocumentNotFound)
	}
	if node, err := e.nodes.NodeByDocument(docID); err == nil {
		if err := e.nodes.DeleteNode(node.ID, true); err != nil {
			return fmt.Errorf("delete node for document %s: %w", docID, err)
		}
	}
	if err := e.index.Remove(docID); err != nil {
		return err
	}
	e.tags.RemoveDocument(docID)
	e.cache.purge()
	if e.metrics != nil {
		e.metrics.DocumentsRemovedTotal.Inc()
	}
	e.logger.Debug("document removed", zap.String("document_id", docID))
	return nil
}

// HasDocument reports whether docID has been processed.
func (e *Engine) HasDocument(docID string) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.index.Has(docID)
}

// Documents returns all processed document IDs, sorted.
func (e *Engine) Documents() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.index.Documents()
}

// DocumentCount returns the number of processed documents.
func (e *Engine) DocumentCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.index.DocumentCount()
}

// DocumentMetadata returns a copy of the document's stored metadata.
func (e *Engine) DocumentMetadata(docID string) (map[string]interface{}, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.index.Metadata(docID)
}

// UpdateDocumentMetadata merges meta into the document's stored
// metadata without re-indexing content. A tags key in the update
// reconciles memberships to the new list; a title key renames the
// document's node.
func (e *Engine) UpdateDocumentMetadata(docID string, meta map[string]interface{}) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	var tagNames []string
	if _, ok := meta[models.MetaTags]; ok {
		tagNames = models.MetadataTags(meta)
		if tagNames == nil {
			tagNames = []string{}
		}
		meta = models.CloneMetadata(meta)
		meta[models.MetaTags] = tagNames
	}
	if err := e.index.MergeMetadata(docID, meta); err != nil {
		return err
	}
	if tagNames != nil {
		if err := e.reconcileTags(docID, tagNames); err != nil {
			return err
		}
	}
	if title := models.MetadataString(meta, models.MetaTitle); title != "" {
		if node, err := e.nodes.NodeByDocument(docID); err == nil {
			if _, err := e.nodes.UpdateNode(node.ID, hierarchy.NodeUpdate{Name: title}); err != nil {
				return fmt.Errorf("rename node for document %s: %w", docID, err)
			}
		}
	}
	e.cache.purge()
	return nil
}

// DocumentTags returns the tags linked to docID, sorted by name.
func (e *Engine) DocumentTags(docID string) ([]*tags.Tag, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if !e.index.Has(docID) {
		return nil, fmt.Errorf("document %s: %w", docID, ErrDocumentNotFound)
	}
	return e.tags.TagsForDocument(docID), nil
}

// TagDocument links docID to tagID and mirrors the change into the
// document's stored tags list. Linking an already-linked pair is a
// no-op.
func (e *Engine) TagDocument(docID, tagID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.index.Has(docID) {
		return fmt.Errorf("document %s: %w", docID, ErrDocumentNotFound)
	}
	if err := e.tags.AddDocumentTag(docID, tagID); err != nil {
		return err
	}
	e.syncTagMetadata(docID)
	e.cache.purge()
	return nil
}

// UntagDocument unlinks docID from tagID and mirrors the change into
// the document's stored tags list. Unlinking an absent pair is a no-op.
func (e *Engine) UntagDocument(docID, tagID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.index.Has(docID) {
		return fmt.Errorf("document %s: %w", docID, ErrDocumentNotFound)
	}
	if err := e.tags.RemoveDocumentTag(docID, tagID); err != nil {
		return err
	}
	e.syncTagMetadata(docID)
	e.cache.purge()
	return nil
}

// syncTagMetadata rewrites the document's stored tags list from its
// current memberships. Callers hold the write lock.
func (e *Engine) syncTagMetadata(docID string) {
	names := []string{}
	for _, tag := range e.tags.TagsForDocument(docID) {
		names = append(names, tag.Name)
	}
	if err := e.index.MergeMetadata(docID, map[string]interface{}{models.MetaTags: names}); err != nil {
		e.logger.Warn("tag metadata sync failed",
			zap.String("document_id", docID),
			zap.Error(err))
	}
}

// SimilarDocuments returns up to limit documents ranked by cosine
// similarity to docID. Documents sharing no terms are omitted.
func (e *Engine) SimilarDocuments(docID string, limit int) ([]models.SimilarResult, error) {
	if limit <= 0 {
		limit = e.defaultLimit
	}
	if limit > e.maxLimit {
		limit = e.maxLimit
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.index.Similar(docID, limit)
}
