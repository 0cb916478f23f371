package hierarchy

import (
	"reflect"
	"strings"

	"github.com/inkroot/folio/internal/models"
)

// Traversals walk parent pointers or child lists iteratively, so depth is
// bounded only by the node count, never by a recursion limit.

// Path returns the chain from the node's root down to the node itself,
// both ends inclusive.
func (h *Hierarchy) Path(nodeID string) ([]*Node, error) {
	if _, ok := h.nodes[nodeID]; !ok {
		return nil, ErrNodeNotFound
	}
	var path []*Node
	for cursor := nodeID; cursor != ""; cursor = h.nodes[cursor].ParentID {
		path = append(path, h.nodes[cursor].clone())
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path, nil
}

// Ancestors returns the node's ancestors nearest-first: parent,
// grandparent, up to the root. A root node has none.
func (h *Hierarchy) Ancestors(nodeID string) ([]*Node, error) {
	node, ok := h.nodes[nodeID]
	if !ok {
		return nil, ErrNodeNotFound
	}
	var ancestors []*Node
	for cursor := node.ParentID; cursor != ""; cursor = h.nodes[cursor].ParentID {
		ancestors = append(ancestors, h.nodes[cursor].clone())
	}
	return ancestors, nil
}

// Descendants returns every node in the subtree below nodeID in
// breadth-first order, excluding the node itself.
func (h *Hierarchy) Descendants(nodeID string) ([]*Node, error) {
	node, ok := h.nodes[nodeID]
	if !ok {
		return nil, ErrNodeNotFound
	}
	var descendants []*Node
	queue := append([]string(nil), node.Children...)
	for i := 0; i < len(queue); i++ {
		child := h.nodes[queue[i]]
		descendants = append(descendants, child.clone())
		queue = append(queue, child.Children...)
	}
	return descendants, nil
}

// Siblings returns the nodes sharing the node's parent, or the other
// roots for a root node, excluding the node itself.
func (h *Hierarchy) Siblings(nodeID string) ([]*Node, error) {
	node, ok := h.nodes[nodeID]
	if !ok {
		return nil, ErrNodeNotFound
	}
	peers := h.roots
	if node.ParentID != "" {
		peers = h.nodes[node.ParentID].Children
	}
	var siblings []*Node
	for _, id := range peers {
		if id == nodeID {
			continue
		}
		siblings = append(siblings, h.nodes[id].clone())
	}
	return siblings, nil
}

// SearchNodes matches nodes by case-insensitive substring over the name
// and over string-valued metadata fields. An empty query matches every
// node, leaving only the filters. typeFilter, when non-empty, requires an
// exact type match; metaFilter requires exact equality on every key.
func (h *Hierarchy) SearchNodes(query, typeFilter string, metaFilter map[string]interface{}) []*Node {
	needle := strings.ToLower(query)
	var matched []*Node
	for _, id := range h.ordered() {
		node := h.nodes[id]
		if typeFilter != "" && node.Type != typeFilter {
			continue
		}
		if !metadataEquals(node.Metadata, metaFilter) {
			continue
		}
		if needle != "" && !nodeContains(node, needle) {
			continue
		}
		matched = append(matched, node.clone())
	}
	return matched
}

func nodeContains(node *Node, needle string) bool {
	if strings.Contains(strings.ToLower(node.Name), needle) {
		return true
	}
	for _, value := range node.Metadata {
		if s, ok := value.(string); ok && strings.Contains(strings.ToLower(s), needle) {
			return true
		}
	}
	return false
}

func metadataEquals(meta, filter map[string]interface{}) bool {
	for key, want := range filter {
		got, ok := meta[key]
		if !ok || !reflect.DeepEqual(got, want) {
			return false
		}
	}
	return true
}

// ordered returns every node ID in a stable order: each root in creation
// order followed by its subtree breadth-first.
func (h *Hierarchy) ordered() []string {
	ids := make([]string, 0, len(h.nodes))
	ids = append(ids, h.roots...)
	for i := 0; i < len(ids); i++ {
		ids = append(ids, h.nodes[ids[i]].Children...)
	}
	return ids
}

// Tree renders the forest as nested display nodes, roots in creation
// order.
func (h *Hierarchy) Tree() []*models.TreeNode {
	built := make(map[string]*models.TreeNode, len(h.nodes))
	order := h.ordered()
	for _, id := range order {
		node := h.nodes[id]
		built[id] = &models.TreeNode{
			ID:         node.ID,
			Name:       node.Name,
			Type:       node.Type,
			DocumentID: node.DocumentID,
		}
	}
	// Parents precede children in the order, so linking is one pass.
	for _, id := range order {
		node := h.nodes[id]
		for _, childID := range node.Children {
			built[id].Children = append(built[id].Children, built[childID])
		}
	}
	tree := make([]*models.TreeNode, len(h.roots))
	for i, id := range h.roots {
		tree[i] = built[id]
	}
	return tree
}
