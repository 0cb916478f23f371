package tags

import (
	"fmt"
	"sort"
)

// Snapshot is the serializable form of the taxonomy: flat tag records
// carrying their parent IDs, plus the document→tag membership. The
// tag→document direction is rebuilt on restore, never stored twice.
type Snapshot struct {
	Tags         []*Tag              `json:"tags"`
	DocumentTags map[string][]string `json:"document_tags"`
}

// Snapshot returns a deep copy of the taxonomy for serialization. Tags
// are sorted by ID and membership lists alphabetically so the output is
// stable across runs.
func (m *Manager) Snapshot() *Snapshot {
	snap := &Snapshot{
		Tags:         make([]*Tag, 0, len(m.tags)),
		DocumentTags: make(map[string][]string, len(m.docTags)),
	}
	for _, tag := range m.tags {
		snap.Tags = append(snap.Tags, tag.clone())
	}
	sort.Slice(snap.Tags, func(i, j int) bool { return snap.Tags[i].ID < snap.Tags[j].ID })
	for docID, tagged := range m.docTags {
		snap.DocumentTags[docID] = sortedKeys(tagged)
	}
	return snap
}

// FromSnapshot validates snap and builds a fresh taxonomy from it. Any
// inconsistency rejects the snapshot whole: duplicate IDs or names,
// parents that do not exist, cyclic parent chains, or memberships naming
// unknown tags.
func FromSnapshot(snap *Snapshot, opts ...Option) (*Manager, error) {
	if snap == nil {
		return nil, fmt.Errorf("nil snapshot")
	}

	m := New(opts...)
	for _, tag := range snap.Tags {
		if tag == nil || tag.ID == "" {
			return nil, fmt.Errorf("tag record without id")
		}
		if _, dup := m.tags[tag.ID]; dup {
			return nil, fmt.Errorf("duplicate tag id %s", tag.ID)
		}
		key := nameKey(tag.Name)
		if key == "" {
			return nil, fmt.Errorf("tag %s has no name", tag.ID)
		}
		if holder, dup := m.byName[key]; dup {
			return nil, fmt.Errorf("tags %s and %s share the name %q", holder, tag.ID, tag.Name)
		}
		m.tags[tag.ID] = tag.clone()
		m.byName[key] = tag.ID
	}

	for _, tag := range m.tags {
		if tag.ParentID == "" {
			continue
		}
		if _, ok := m.tags[tag.ParentID]; !ok {
			return nil, fmt.Errorf("tag %s has unknown parent %s", tag.ID, tag.ParentID)
		}
		m.children[tag.ParentID] = append(m.children[tag.ParentID], tag.ID)
	}
	for id := range m.tags {
		steps := 0
		for cursor := id; cursor != ""; cursor = m.tags[cursor].ParentID {
			steps++
			if steps > len(m.tags) {
				return nil, fmt.Errorf("cyclic parent chain through tag %s", id)
			}
		}
	}
	for parentID := range m.children {
		sort.Strings(m.children[parentID])
	}

	for docID, tagIDs := range snap.DocumentTags {
		for _, tagID := range tagIDs {
			if _, ok := m.tags[tagID]; !ok {
				return nil, fmt.Errorf("document %s tagged with unknown tag %s", docID, tagID)
			}
			if m.docTags[docID] == nil {
				m.docTags[docID] = make(map[string]struct{}, len(tagIDs))
			}
			m.docTags[docID][tagID] = struct{}{}
			if m.tagDocs[tagID] == nil {
				m.tagDocs[tagID] = make(map[string]struct{})
			}
			m.tagDocs[tagID][docID] = struct{}{}
		}
	}
	return m, nil
}
