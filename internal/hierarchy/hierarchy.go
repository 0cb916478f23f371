// Package hierarchy maintains a forest of folder and document nodes with
// parent/child links, a document-ID reverse index, and on-demand
// traversals. Nodes are addressed by generated IDs; a document maps to at
// most one node.
//
// The forest is not safe for concurrent use; the owning engine serializes
// access behind its own lock.
package hierarchy

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/inkroot/folio/internal/models"
)

// Node types. Type is otherwise opaque to the forest.
const (
	TypeFolder   = "folder"
	TypeDocument = "document"
)

var (
	// ErrNodeNotFound is returned when an operation names an unknown node.
	ErrNodeNotFound = errors.New("node not found")
	// ErrHasChildren is returned by a non-recursive delete of a node that
	// still has children.
	ErrHasChildren = errors.New("node has children")
	// ErrCycle is returned when a move would make a node its own ancestor.
	ErrCycle = errors.New("move would create a cycle")
	// ErrDocumentMapped is returned when a document ID is already bound to
	// another node.
	ErrDocumentMapped = errors.New("document already mapped to a node")
)

// Node is one entry in the forest.
type Node struct {
	ID         string                 `json:"id"`
	Name       string                 `json:"name"`
	Type       string                 `json:"type"`
	ParentID   string                 `json:"parent_id,omitempty"`
	DocumentID string                 `json:"document_id,omitempty"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
	Children   []string               `json:"children,omitempty"`
	CreatedAt  time.Time              `json:"created_at"`
	UpdatedAt  time.Time              `json:"updated_at"`
}

func (n *Node) clone() *Node {
	c := *n
	c.Children = append([]string(nil), n.Children...)
	c.Metadata = models.CloneMetadata(n.Metadata)
	return &c
}

// NodeUpdate carries the mutable node fields for UpdateNode. A nil or
// empty field leaves the stored value unchanged; Metadata is merged.
type NodeUpdate struct {
	Name     string
	Metadata map[string]interface{}
}

// Hierarchy owns the forest.
type Hierarchy struct {
	nodes    map[string]*Node
	roots    []string
	docIndex map[string]string

	logger *zap.Logger // optional; when set, logs structural anomalies
}

// Option configures a Hierarchy.
type Option func(*Hierarchy)

// WithLogger attaches a logger for structural warnings.
func WithLogger(logger *zap.Logger) Option {
	return func(h *Hierarchy) {
		h.logger = logger
	}
}

// New returns an empty forest.
func New(opts ...Option) *Hierarchy {
	h := &Hierarchy{
		nodes:    make(map[string]*Node),
		docIndex: make(map[string]string),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// CreateNode adds a node under parentID, or to the root set when parentID
// is empty. An unknown parent is logged as an anomaly and the node is
// created as a root rather than attached to a wrong parent or dropped;
// this fallback is deliberate policy. A documentID already bound to
// another node is refused with ErrDocumentMapped.
func (h *Hierarchy) CreateNode(name, nodeType, parentID, documentID string, metadata map[string]interface{}) (*Node, error) {
	if documentID != "" {
		if existing, ok := h.docIndex[documentID]; ok {
			return nil, fmt.Errorf("document %s held by node %s: %w", documentID, existing, ErrDocumentMapped)
		}
	}
	if parentID != "" {
		if _, ok := h.nodes[parentID]; !ok {
			if h.logger != nil {
				h.logger.Warn("parent node not found, creating as root",
					zap.String("parent_id", parentID),
					zap.String("name", name))
			}
			parentID = ""
		}
	}

	now := time.Now().UTC()
	node := &Node{
		ID:         uuid.New().String(),
		Name:       name,
		Type:       nodeType,
		ParentID:   parentID,
		DocumentID: documentID,
		Metadata:   models.CloneMetadata(metadata),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	h.nodes[node.ID] = node
	if parentID == "" {
		h.roots = append(h.roots, node.ID)
	} else {
		parent := h.nodes[parentID]
		parent.Children = append(parent.Children, node.ID)
		parent.UpdatedAt = now
	}
	if documentID != "" {
		h.docIndex[documentID] = node.ID
	}
	return node.clone(), nil
}

// UpdateNode renames a node and/or merges metadata into it.
func (h *Hierarchy) UpdateNode(nodeID string, update NodeUpdate) (*Node, error) {
	node, ok := h.nodes[nodeID]
	if !ok {
		return nil, ErrNodeNotFound
	}
	if update.Name != "" {
		node.Name = update.Name
	}
	if len(update.Metadata) > 0 {
		if node.Metadata == nil {
			node.Metadata = make(map[string]interface{}, len(update.Metadata))
		}
		for k, v := range models.CloneMetadata(update.Metadata) {
			node.Metadata[k] = v
		}
	}
	node.UpdatedAt = time.Now().UTC()
	return node.clone(), nil
}

// MoveNode detaches a node from its current parent (or the root set) and
// attaches it under newParentID, or to the root set when newParentID is
// empty. Moving a node under itself or any of its descendants is refused
// with ErrCycle.
func (h *Hierarchy) MoveNode(nodeID, newParentID string) error {
	node, ok := h.nodes[nodeID]
	if !ok {
		return ErrNodeNotFound
	}
	if newParentID == node.ParentID {
		return nil
	}
	if newParentID != "" {
		if _, ok := h.nodes[newParentID]; !ok {
			return fmt.Errorf("new parent %s: %w", newParentID, ErrNodeNotFound)
		}
		// Reject before mutating: the new parent must not sit in the
		// node's own subtree.
		for cursor := newParentID; cursor != ""; cursor = h.nodes[cursor].ParentID {
			if cursor == nodeID {
				return ErrCycle
			}
		}
	}

	h.detach(node)
	now := time.Now().UTC()
	node.ParentID = newParentID
	if newParentID == "" {
		h.roots = append(h.roots, nodeID)
	} else {
		parent := h.nodes[newParentID]
		parent.Children = append(parent.Children, nodeID)
		parent.UpdatedAt = now
	}
	node.UpdatedAt = now
	return nil
}

// DeleteNode removes a node. With recursive false it refuses to delete a
// node that has children (ErrHasChildren); with recursive true the whole
// subtree goes, each node releasing its document reverse-index entry.
func (h *Hierarchy) DeleteNode(nodeID string, recursive bool) error {
	node, ok := h.nodes[nodeID]
	if !ok {
		return ErrNodeNotFound
	}
	if len(node.Children) > 0 && !recursive {
		return ErrHasChildren
	}

	// Collect the subtree, then delete children before parents.
	subtree := []string{nodeID}
	for i := 0; i < len(subtree); i++ {
		subtree = append(subtree, h.nodes[subtree[i]].Children...)
	}
	h.detach(node)
	for i := len(subtree) - 1; i >= 0; i-- {
		victim := h.nodes[subtree[i]]
		if victim.DocumentID != "" {
			delete(h.docIndex, victim.DocumentID)
		}
		delete(h.nodes, subtree[i])
	}
	return nil
}

// detach removes the node from its parent's child list or the root set
// without touching the node itself.
func (h *Hierarchy) detach(node *Node) {
	if node.ParentID == "" {
		h.roots = removeID(h.roots, node.ID)
		return
	}
	if parent, ok := h.nodes[node.ParentID]; ok {
		parent.Children = removeID(parent.Children, node.ID)
	}
}

func removeID(ids []string, id string) []string {
	for i, candidate := range ids {
		if candidate == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}

// Node returns a copy of the node, or ErrNodeNotFound.
func (h *Hierarchy) Node(nodeID string) (*Node, error) {
	node, ok := h.nodes[nodeID]
	if !ok {
		return nil, ErrNodeNotFound
	}
	return node.clone(), nil
}

// NodeByDocument resolves a document ID to its node via the reverse index.
func (h *Hierarchy) NodeByDocument(documentID string) (*Node, error) {
	nodeID, ok := h.docIndex[documentID]
	if !ok {
		return nil, ErrNodeNotFound
	}
	return h.nodes[nodeID].clone(), nil
}

// Roots returns copies of the root nodes in creation order.
func (h *Hierarchy) Roots() []*Node {
	roots := make([]*Node, len(h.roots))
	for i, id := range h.roots {
		roots[i] = h.nodes[id].clone()
	}
	return roots
}

// Count returns the number of nodes in the forest.
func (h *Hierarchy) Count() int { return len(h.nodes) }
