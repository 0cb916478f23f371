package hierarchy

import (
	"fmt"
	"time"

	"github.com/inkroot/folio/internal/models"
)

// NodeSnapshot is one serialized node with its children nested.
type NodeSnapshot struct {
	ID         string                 `json:"id"`
	Name       string                 `json:"name"`
	Type       string                 `json:"type"`
	DocumentID string                 `json:"document_id,omitempty"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt  time.Time              `json:"created_at"`
	UpdatedAt  time.Time              `json:"updated_at"`
	Children   []*NodeSnapshot        `json:"children,omitempty"`
}

// Snapshot is the serializable form of the forest: each root with its
// subtree nested, plus the document reverse index.
type Snapshot struct {
	RootNodes   []*NodeSnapshot   `json:"root_nodes"`
	DocumentMap map[string]string `json:"document_map"`
}

// Snapshot returns a deep copy of the forest for serialization. Trees are
// assembled iteratively so depth never hits a recursion limit.
func (h *Hierarchy) Snapshot() *Snapshot {
	built := make(map[string]*NodeSnapshot, len(h.nodes))
	order := h.ordered()
	for _, id := range order {
		node := h.nodes[id]
		built[id] = &NodeSnapshot{
			ID:         node.ID,
			Name:       node.Name,
			Type:       node.Type,
			DocumentID: node.DocumentID,
			Metadata:   models.CloneMetadata(node.Metadata),
			CreatedAt:  node.CreatedAt,
			UpdatedAt:  node.UpdatedAt,
		}
	}
	for _, id := range order {
		node := h.nodes[id]
		for _, childID := range node.Children {
			built[id].Children = append(built[id].Children, built[childID])
		}
	}

	snap := &Snapshot{
		RootNodes:   make([]*NodeSnapshot, len(h.roots)),
		DocumentMap: make(map[string]string, len(h.docIndex)),
	}
	for i, id := range h.roots {
		snap.RootNodes[i] = built[id]
	}
	for docID, nodeID := range h.docIndex {
		snap.DocumentMap[docID] = nodeID
	}
	return snap
}

// FromSnapshot validates snap and builds a fresh forest from it. A
// snapshot with duplicate node IDs or a document map that disagrees with
// the nodes' own document references is rejected whole.
func FromSnapshot(snap *Snapshot, opts ...Option) (*Hierarchy, error) {
	if snap == nil {
		return nil, fmt.Errorf("nil snapshot")
	}

	h := New(opts...)
	type frame struct {
		node     *NodeSnapshot
		parentID string
	}
	stack := make([]frame, 0, len(snap.RootNodes))
	for i := len(snap.RootNodes) - 1; i >= 0; i-- {
		stack = append(stack, frame{node: snap.RootNodes[i]})
	}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		ns := f.node
		if ns == nil {
			return nil, fmt.Errorf("nil node under parent %q", f.parentID)
		}
		if ns.ID == "" {
			return nil, fmt.Errorf("node without id under parent %q", f.parentID)
		}
		if _, dup := h.nodes[ns.ID]; dup {
			return nil, fmt.Errorf("duplicate node id %s", ns.ID)
		}

		node := &Node{
			ID:         ns.ID,
			Name:       ns.Name,
			Type:       ns.Type,
			ParentID:   f.parentID,
			DocumentID: ns.DocumentID,
			Metadata:   models.CloneMetadata(ns.Metadata),
			CreatedAt:  ns.CreatedAt,
			UpdatedAt:  ns.UpdatedAt,
			Children:   make([]string, 0, len(ns.Children)),
		}
		h.nodes[ns.ID] = node
		if f.parentID == "" {
			h.roots = append(h.roots, ns.ID)
		} else {
			parent := h.nodes[f.parentID]
			parent.Children = append(parent.Children, ns.ID)
		}
		if ns.DocumentID != "" {
			if mapped, ok := snap.DocumentMap[ns.DocumentID]; !ok || mapped != ns.ID {
				return nil, fmt.Errorf("document map disagrees with node %s for document %s", ns.ID, ns.DocumentID)
			}
			if _, dup := h.docIndex[ns.DocumentID]; dup {
				return nil, fmt.Errorf("document %s mapped by more than one node", ns.DocumentID)
			}
			h.docIndex[ns.DocumentID] = ns.ID
		}

		for i := len(ns.Children) - 1; i >= 0; i-- {
			stack = append(stack, frame{node: ns.Children[i], parentID: ns.ID})
		}
	}

	for docID, nodeID := range snap.DocumentMap {
		node, ok := h.nodes[nodeID]
		if !ok {
			return nil, fmt.Errorf("document map entry %s points at unknown node %s", docID, nodeID)
		}
		if node.DocumentID != docID {
			return nil, fmt.Errorf("document map entry %s points at node %s holding %q", docID, nodeID, node.DocumentID)
		}
	}
	return h, nil
}
