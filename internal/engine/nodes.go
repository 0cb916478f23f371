package engine

import (
	"github.com/inkroot/folio/internal/hierarchy"
	"github.com/inkroot/folio/internal/models"
)

// CreateNode creates a folder or document node. An empty parentID (or
// an unknown one) places the node at the root.
func (e *Engine) CreateNode(name, nodeType, parentID, documentID string, metadata map[string]interface{}) (*hierarchy.Node, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	node, err := e.nodes.CreateNode(name, nodeType, parentID, documentID, metadata)
	if err != nil {
		return nil, err
	}
	e.cache.purge()
	return node, nil
}

// Node returns the node with the given ID.
func (e *Engine) Node(nodeID string) (*hierarchy.Node, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.nodes.Node(nodeID)
}

// NodeByDocument returns the node holding the given document.
func (e *Engine) NodeByDocument(docID string) (*hierarchy.Node, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.nodes.NodeByDocument(docID)
}

// UpdateNode renames a node or merges metadata into it.
func (e *Engine) UpdateNode(nodeID string, update hierarchy.NodeUpdate) (*hierarchy.Node, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	node, err := e.nodes.UpdateNode(nodeID, update)
	if err != nil {
		return nil, err
	}
	e.cache.purge()
	return node, nil
}

// MoveNode reparents a node. Moving under a descendant is rejected.
func (e *Engine) MoveNode(nodeID, newParentID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.nodes.MoveNode(nodeID, newParentID); err != nil {
		return err
	}
	e.cache.purge()
	return nil
}

// DeleteNode deletes a node. Non-recursive deletion of a node with
// children is rejected. Deleting a document node only releases its
// place in the hierarchy; the document itself stays indexed.
func (e *Engine) DeleteNode(nodeID string, recursive bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.nodes.DeleteNode(nodeID, recursive); err != nil {
		return err
	}
	e.cache.purge()
	return nil
}

// NodePath returns the chain from a root to the node, inclusive.
func (e *Engine) NodePath(nodeID string) ([]*hierarchy.Node, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.nodes.Path(nodeID)
}

// NodeAncestors returns the node's ancestors, nearest first.
func (e *Engine) NodeAncestors(nodeID string) ([]*hierarchy.Node, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.nodes.Ancestors(nodeID)
}

// NodeDescendants returns every node below the given one.
func (e *Engine) NodeDescendants(nodeID string) ([]*hierarchy.Node, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.nodes.Descendants(nodeID)
}

// NodeSiblings returns the other children of the node's parent.
func (e *Engine) NodeSiblings(nodeID string) ([]*hierarchy.Node, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.nodes.Siblings(nodeID)
}

// SearchNodes finds nodes by case-insensitive name substring, node
// type, and exact metadata values.
func (e *Engine) SearchNodes(query, typeFilter string, metaFilter map[string]interface{}) []*hierarchy.Node {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.nodes.SearchNodes(query, typeFilter, metaFilter)
}

// Roots returns the root nodes in creation order.
func (e *Engine) Roots() []*hierarchy.Node {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.nodes.Roots()
}

// Tree renders the whole hierarchy with children nested.
func (e *Engine) Tree() []*models.TreeNode {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.nodes.Tree()
}
