package hierarchy

import (
	"encoding/json"
	"fmt"
	"testing"
)

func TestSnapshotRoundTrip(t *testing.T) {
	h, nodes := buildForest(t)

	data, err := json.Marshal(h.Snapshot())
	if err != nil {
		t.Fatal(err)
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		t.Fatal(err)
	}
	restored, err := FromSnapshot(&snap)
	if err != nil {
		t.Fatal(err)
	}

	if restored.Count() != h.Count() {
		t.Errorf("Count = %d, want %d", restored.Count(), h.Count())
	}
	path, err := restored.Path(nodes["deep"].ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(path) != 3 || path[0].Name != "Guide" || path[2].Name != "Deep" {
		t.Errorf("restored path = %v", nodeNames(path))
	}
	node, err := restored.NodeByDocument("d1")
	if err != nil {
		t.Fatal(err)
	}
	if node.Name != "Intro" {
		t.Errorf("restored document mapping = %s, want Intro", node.Name)
	}
	if node.Metadata["summary"] != "Getting Started" {
		t.Errorf("restored metadata = %v", node.Metadata)
	}

	// Sibling order survives the round trip.
	stored, _ := restored.Node(nodes["guide"].ID)
	if len(stored.Children) != 2 || stored.Children[0] != nodes["intro"].ID {
		t.Errorf("restored child order = %v", stored.Children)
	}
}

func TestSnapshot_deepChainRoundTrip(t *testing.T) {
	h := New()
	parentID := ""
	const depth = 1000
	for i := 0; i < depth; i++ {
		node, err := h.CreateNode(fmt.Sprintf("n%04d", i), TypeFolder, parentID, "", nil)
		if err != nil {
			t.Fatal(err)
		}
		parentID = node.ID
	}

	restored, err := FromSnapshot(h.Snapshot())
	if err != nil {
		t.Fatal(err)
	}
	if restored.Count() != depth {
		t.Errorf("restored count = %d, want %d", restored.Count(), depth)
	}
	path, err := restored.Path(parentID)
	if err != nil {
		t.Fatal(err)
	}
	if len(path) != depth {
		t.Errorf("restored path length = %d, want %d", len(path), depth)
	}
}

func TestSnapshot_isolatedFromLiveForest(t *testing.T) {
	h, nodes := buildForest(t)
	snap := h.Snapshot()

	if err := h.DeleteNode(nodes["guide"].ID, true); err != nil {
		t.Fatal(err)
	}
	if len(snap.RootNodes) != 2 {
		t.Errorf("snapshot roots = %d after live delete, want 2", len(snap.RootNodes))
	}
	if snap.DocumentMap["d1"] == "" {
		t.Error("snapshot lost document mapping after live delete")
	}
}

func TestFromSnapshot_rejectsDuplicateIDs(t *testing.T) {
	snap := &Snapshot{
		RootNodes: []*NodeSnapshot{
			{ID: "n1", Name: "A", Type: TypeFolder},
			{ID: "n1", Name: "B", Type: TypeFolder},
		},
		DocumentMap: map[string]string{},
	}
	if _, err := FromSnapshot(snap); err == nil {
		t.Error("duplicate node IDs accepted")
	}
}

func TestFromSnapshot_rejectsDocumentMapMismatch(t *testing.T) {
	tests := []struct {
		name string
		snap *Snapshot
	}{
		{
			name: "node document missing from map",
			snap: &Snapshot{
				RootNodes:   []*NodeSnapshot{{ID: "n1", Name: "A", Type: TypeDocument, DocumentID: "d1"}},
				DocumentMap: map[string]string{},
			},
		},
		{
			name: "map points at wrong node",
			snap: &Snapshot{
				RootNodes:   []*NodeSnapshot{{ID: "n1", Name: "A", Type: TypeDocument, DocumentID: "d1"}},
				DocumentMap: map[string]string{"d1": "n2"},
			},
		},
		{
			name: "map entry for unknown node",
			snap: &Snapshot{
				RootNodes:   []*NodeSnapshot{{ID: "n1", Name: "A", Type: TypeFolder}},
				DocumentMap: map[string]string{"d9": "missing"},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := FromSnapshot(tt.snap); err == nil {
				t.Error("corrupt snapshot accepted")
			}
		})
	}
}

func TestFromSnapshot_nil(t *testing.T) {
	if _, err := FromSnapshot(nil); err == nil {
		t.Error("FromSnapshot(nil) should fail")
	}
}
