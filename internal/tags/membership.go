package tags

import (
	"sort"

	"github.com/inkroot/folio/internal/models"
)

// Membership mutations always touch docTags and tagDocs together; the
// two maps are exact inverses at every return.

// AddDocumentTag records that the document carries the tag. Adding an
// existing membership is a no-op; an unknown tag is ErrTagNotFound.
func (m *Manager) AddDocumentTag(documentID, tagID string) error {
	if _, ok := m.tags[tagID]; !ok {
		return ErrTagNotFound
	}
	if m.docTags[documentID] == nil {
		m.docTags[documentID] = make(map[string]struct{})
	}
	m.docTags[documentID][tagID] = struct{}{}
	if m.tagDocs[tagID] == nil {
		m.tagDocs[tagID] = make(map[string]struct{})
	}
	m.tagDocs[tagID][documentID] = struct{}{}
	return nil
}

// RemoveDocumentTag drops the membership. Removing one that does not
// exist is a no-op; an unknown tag is ErrTagNotFound.
func (m *Manager) RemoveDocumentTag(documentID, tagID string) error {
	if _, ok := m.tags[tagID]; !ok {
		return ErrTagNotFound
	}
	m.unlink(documentID, tagID)
	return nil
}

// unlink removes one membership pair from both maps, pruning emptied
// sets so absent and empty stay indistinguishable.
func (m *Manager) unlink(documentID, tagID string) {
	if docs := m.tagDocs[tagID]; docs != nil {
		delete(docs, documentID)
		if len(docs) == 0 {
			delete(m.tagDocs, tagID)
		}
	}
	if tagged := m.docTags[documentID]; tagged != nil {
		delete(tagged, tagID)
		if len(tagged) == 0 {
			delete(m.docTags, documentID)
		}
	}
}

// RemoveDocument drops every membership the document holds.
func (m *Manager) RemoveDocument(documentID string) {
	for tagID := range m.docTags[documentID] {
		m.unlink(documentID, tagID)
	}
}

// TagsForDocument returns copies of the document's tags, sorted by name.
// An untagged or unknown document yields an empty slice.
func (m *Manager) TagsForDocument(documentID string) []*Tag {
	tagged := m.docTags[documentID]
	out := make([]*Tag, 0, len(tagged))
	for tagID := range tagged {
		out = append(out, m.tags[tagID].clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// DocumentsWithTag returns the sorted IDs of documents carrying the tag.
// With includeDescendants true, documents tagged with any descendant tag
// are unioned in; tagging with a child never implies the parent unless
// the caller asks for it this way.
func (m *Manager) DocumentsWithTag(tagID string, includeDescendants bool) ([]string, error) {
	if _, ok := m.tags[tagID]; !ok {
		return nil, ErrTagNotFound
	}
	ids := []string{tagID}
	if includeDescendants {
		for i := 0; i < len(ids); i++ {
			ids = append(ids, m.children[ids[i]]...)
		}
	}
	set := make(map[string]struct{})
	for _, id := range ids {
		for docID := range m.tagDocs[id] {
			set[docID] = struct{}{}
		}
	}
	return sortedKeys(set), nil
}

// DocumentsWithTags resolves a tag-ID list to a sorted document-ID set:
// the intersection when matchAll is true, the union otherwise. An empty
// tag list yields an empty set; unknown tag IDs contribute empty sets.
func (m *Manager) DocumentsWithTags(tagIDs []string, matchAll bool) []string {
	if len(tagIDs) == 0 {
		return []string{}
	}
	if !matchAll {
		set := make(map[string]struct{})
		for _, tagID := range tagIDs {
			for docID := range m.tagDocs[tagID] {
				set[docID] = struct{}{}
			}
		}
		return sortedKeys(set)
	}

	set := make(map[string]struct{}, len(m.tagDocs[tagIDs[0]]))
	for docID := range m.tagDocs[tagIDs[0]] {
		set[docID] = struct{}{}
	}
	for _, tagID := range tagIDs[1:] {
		docs := m.tagDocs[tagID]
		for docID := range set {
			if _, ok := docs[docID]; !ok {
				delete(set, docID)
			}
		}
	}
	return sortedKeys(set)
}

// MembershipCount returns the total number of document-tag pairs.
func (m *Manager) MembershipCount() int {
	total := 0
	for _, tagged := range m.docTags {
		total += len(tagged)
	}
	return total
}

// TopTags returns the n most-used tags as (tag, document count) pairs,
// ties broken by name.
func (m *Manager) TopTags(n int) []models.TagCount {
	counts := make([]models.TagCount, 0, len(m.tagDocs))
	for tagID, docs := range m.tagDocs {
		counts = append(counts, models.TagCount{
			TagID:     tagID,
			Name:      m.tags[tagID].Name,
			Documents: len(docs),
		})
	}
	sort.Slice(counts, func(i, j int) bool {
		if counts[i].Documents != counts[j].Documents {
			return counts[i].Documents > counts[j].Documents
		}
		return counts[i].Name < counts[j].Name
	})
	if n > 0 && len(counts) > n {
		counts = counts[:n]
	}
	return counts
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
