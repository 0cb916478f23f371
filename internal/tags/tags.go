// Package tags maintains a forest of named tags and the many-to-many
// membership between documents and tags. Tag names are unique
// case-insensitively; the document→tags and tag→documents maps are kept
// as exact inverses through every mutation.
//
// The manager is not safe for concurrent use; the owning engine
// serializes access behind its own lock.
package tags

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/inkroot/folio/internal/models"
)

var (
	// ErrTagNotFound is returned when an operation names an unknown tag.
	ErrTagNotFound = errors.New("tag not found")
	// ErrDuplicateName is returned when a create or rename collides with
	// an existing tag name, compared case-insensitively.
	ErrDuplicateName = errors.New("tag name already in use")
	// ErrHasChildren is returned by a non-recursive delete of a tag that
	// still has children.
	ErrHasChildren = errors.New("tag has children")
	// ErrCycle is returned when a reparent would make a tag its own
	// ancestor.
	ErrCycle = errors.New("reparent would create a cycle")
)

// Tag is a named label, optionally colored, forming a forest via ParentID.
type Tag struct {
	ID        string                 `json:"id"`
	Name      string                 `json:"name"`
	Color     string                 `json:"color,omitempty"`
	ParentID  string                 `json:"parent_id,omitempty"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
	UpdatedAt time.Time              `json:"updated_at"`
}

func (t *Tag) clone() *Tag {
	c := *t
	c.Metadata = models.CloneMetadata(t.Metadata)
	return &c
}

// TagUpdate carries the mutable tag fields for UpdateTag. Nil pointers
// and empty fields leave the stored value unchanged; an explicit empty
// Color clears it and an explicit empty ParentID moves the tag to the
// root set. Metadata is merged.
type TagUpdate struct {
	Name     string
	Color    *string
	ParentID *string
	Metadata map[string]interface{}
}

// Manager owns the taxonomy and the membership maps.
type Manager struct {
	tags     map[string]*Tag
	byName   map[string]string
	children map[string][]string
	docTags  map[string]map[string]struct{}
	tagDocs  map[string]map[string]struct{}

	logger *zap.Logger // optional; when set, logs structural anomalies
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger attaches a logger for structural warnings.
func WithLogger(logger *zap.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// New returns an empty taxonomy.
func New(opts ...Option) *Manager {
	m := &Manager{
		tags:     make(map[string]*Tag),
		byName:   make(map[string]string),
		children: make(map[string][]string),
		docTags:  make(map[string]map[string]struct{}),
		tagDocs:  make(map[string]map[string]struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func nameKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// CreateTag adds a tag under parentID, or to the root set when parentID
// is empty. An unknown parent is logged and the tag is created as a root,
// mirroring the hierarchy's fallback policy. A name already in use,
// compared case-insensitively, is refused with ErrDuplicateName.
func (m *Manager) CreateTag(name, color, parentID string, metadata map[string]interface{}) (*Tag, error) {
	key := nameKey(name)
	if key == "" {
		return nil, fmt.Errorf("tag name must not be empty")
	}
	if existing, ok := m.byName[key]; ok {
		return nil, fmt.Errorf("tag %s: %w", existing, ErrDuplicateName)
	}
	if parentID != "" {
		if _, ok := m.tags[parentID]; !ok {
			if m.logger != nil {
				m.logger.Warn("parent tag not found, creating as root",
					zap.String("parent_id", parentID),
					zap.String("name", name))
			}
			parentID = ""
		}
	}

	now := time.Now().UTC()
	tag := &Tag{
		ID:        uuid.New().String(),
		Name:      strings.TrimSpace(name),
		Color:     color,
		ParentID:  parentID,
		Metadata:  models.CloneMetadata(metadata),
		CreatedAt: now,
		UpdatedAt: now,
	}
	m.tags[tag.ID] = tag
	m.byName[key] = tag.ID
	if parentID != "" {
		m.children[parentID] = append(m.children[parentID], tag.ID)
	}
	return tag.clone(), nil
}

// GetOrCreateTag returns the tag with the given name, matched
// case-insensitively, creating a root tag when none exists. Calling it
// twice with "Foo" and "foo" yields the same tag.
func (m *Manager) GetOrCreateTag(name string) (*Tag, error) {
	if id, ok := m.byName[nameKey(name)]; ok {
		return m.tags[id].clone(), nil
	}
	return m.CreateTag(name, "", "", nil)
}

// Tag returns a copy of the tag, or ErrTagNotFound.
func (m *Manager) Tag(tagID string) (*Tag, error) {
	tag, ok := m.tags[tagID]
	if !ok {
		return nil, ErrTagNotFound
	}
	return tag.clone(), nil
}

// TagByName resolves a name case-insensitively.
func (m *Manager) TagByName(name string) (*Tag, error) {
	id, ok := m.byName[nameKey(name)]
	if !ok {
		return nil, ErrTagNotFound
	}
	return m.tags[id].clone(), nil
}

// Tags returns copies of every tag, sorted by name.
func (m *Manager) Tags() []*Tag {
	all := make([]*Tag, 0, len(m.tags))
	for _, tag := range m.tags {
		all = append(all, tag.clone())
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Name < all[j].Name })
	return all
}

// Count returns the number of tags.
func (m *Manager) Count() int { return len(m.tags) }

// UpdateTag renames, recolors, reparents, or merges metadata into a tag.
// Renames keep case-insensitive uniqueness; reparenting under the tag
// itself or one of its descendants is refused with ErrCycle.
func (m *Manager) UpdateTag(tagID string, update TagUpdate) (*Tag, error) {
	tag, ok := m.tags[tagID]
	if !ok {
		return nil, ErrTagNotFound
	}

	if update.Name != "" {
		newKey := nameKey(update.Name)
		if newKey == "" {
			return nil, fmt.Errorf("tag name must not be empty")
		}
		if holder, exists := m.byName[newKey]; exists && holder != tagID {
			return nil, fmt.Errorf("tag %s: %w", holder, ErrDuplicateName)
		}
		delete(m.byName, nameKey(tag.Name))
		tag.Name = strings.TrimSpace(update.Name)
		m.byName[newKey] = tagID
	}

	if update.ParentID != nil && *update.ParentID != tag.ParentID {
		newParent := *update.ParentID
		if newParent != "" {
			if _, ok := m.tags[newParent]; !ok {
				return nil, fmt.Errorf("new parent %s: %w", newParent, ErrTagNotFound)
			}
			for cursor := newParent; cursor != ""; cursor = m.tags[cursor].ParentID {
				if cursor == tagID {
					return nil, ErrCycle
				}
			}
		}
		if tag.ParentID != "" {
			m.children[tag.ParentID] = removeID(m.children[tag.ParentID], tagID)
			if len(m.children[tag.ParentID]) == 0 {
				delete(m.children, tag.ParentID)
			}
		}
		tag.ParentID = newParent
		if newParent != "" {
			m.children[newParent] = append(m.children[newParent], tagID)
		}
	}

	if update.Color != nil {
		tag.Color = *update.Color
	}
	if len(update.Metadata) > 0 {
		if tag.Metadata == nil {
			tag.Metadata = make(map[string]interface{}, len(update.Metadata))
		}
		for k, v := range models.CloneMetadata(update.Metadata) {
			tag.Metadata[k] = v
		}
	}
	tag.UpdatedAt = time.Now().UTC()
	return tag.clone(), nil
}

// DeleteTag removes a tag and all its document memberships. With
// recursive false it refuses to delete a tag that has children
// (ErrHasChildren); with recursive true the whole subtree goes.
func (m *Manager) DeleteTag(tagID string, recursive bool) error {
	tag, ok := m.tags[tagID]
	if !ok {
		return ErrTagNotFound
	}
	if len(m.children[tagID]) > 0 && !recursive {
		return ErrHasChildren
	}

	subtree := []string{tagID}
	for i := 0; i < len(subtree); i++ {
		subtree = append(subtree, m.children[subtree[i]]...)
	}
	if tag.ParentID != "" {
		m.children[tag.ParentID] = removeID(m.children[tag.ParentID], tagID)
		if len(m.children[tag.ParentID]) == 0 {
			delete(m.children, tag.ParentID)
		}
	}
	for i := len(subtree) - 1; i >= 0; i-- {
		victim := subtree[i]
		for docID := range m.tagDocs[victim] {
			m.unlink(docID, victim)
		}
		delete(m.tagDocs, victim)
		delete(m.children, victim)
		delete(m.byName, nameKey(m.tags[victim].Name))
		delete(m.tags, victim)
	}
	return nil
}

func removeID(ids []string, id string) []string {
	for i, candidate := range ids {
		if candidate == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}
