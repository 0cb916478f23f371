package engine

import (
	"testing"

	"github.com/inkroot/folio/internal/models"
)

func TestStatistics(t *testing.T) {
	e := newTestEngine(t)
	docs := []*models.Document{
		{ID: "d1", Content: "go concurrency patterns", Metadata: map[string]interface{}{"tags": []string{"go"}}},
		{ID: "d2", Content: "go concurrency in practice", Metadata: map[string]interface{}{"tags": []string{"go", "web"}}},
		{ID: "d3", Content: "baking sourdough bread", Metadata: map[string]interface{}{"tags": []string{"web"}}},
	}
	for _, doc := range docs {
		if err := e.ProcessDocument(doc); err != nil {
			t.Fatal(err)
		}
	}

	stats := e.Statistics()

	if stats.Documents != 3 {
		t.Errorf("documents = %d, want 3", stats.Documents)
	}
	if stats.Nodes != 3 {
		t.Errorf("nodes = %d, want 3", stats.Nodes)
	}
	if stats.Tags != 2 {
		t.Errorf("tags = %d, want 2", stats.Tags)
	}
	// 4 memberships across 3 documents.
	if got, want := stats.AverageTagsPerDocument, 4.0/3.0; got != want {
		t.Errorf("average tags per document = %v, want %v", got, want)
	}
	if stats.AverageDocumentLength <= 0 {
		t.Errorf("average document length = %v, want positive", stats.AverageDocumentLength)
	}

	if len(stats.TopTags) != 2 {
		t.Fatalf("top tags = %d entries, want 2", len(stats.TopTags))
	}
	for _, tc := range stats.TopTags {
		if tc.Documents != 2 {
			t.Errorf("tag %s documents = %d, want 2", tc.Name, tc.Documents)
		}
	}
	// Equal counts fall back to name order.
	if stats.TopTags[0].Name != "go" || stats.TopTags[1].Name != "web" {
		t.Errorf("top tag order = %s, %s; want go, web",
			stats.TopTags[0].Name, stats.TopTags[1].Name)
	}

	if len(stats.SimilarPairs) != 1 {
		t.Fatalf("similar pairs = %+v, want exactly one", stats.SimilarPairs)
	}
	pair := stats.SimilarPairs[0]
	if pair.DocumentA != "d1" || pair.DocumentB != "d2" {
		t.Errorf("pair = %s/%s, want d1/d2", pair.DocumentA, pair.DocumentB)
	}
	if pair.Similarity <= 0 || pair.Similarity >= 1 {
		t.Errorf("similarity = %v, want in (0, 1)", pair.Similarity)
	}
}

func TestStatistics_empty(t *testing.T) {
	stats := newTestEngine(t).Statistics()
	if stats.Documents != 0 || stats.Nodes != 0 || stats.Tags != 0 {
		t.Errorf("counts = %d/%d/%d, want zeros", stats.Documents, stats.Nodes, stats.Tags)
	}
	if stats.AverageDocumentLength != 0 {
		t.Errorf("average document length = %v, want 0", stats.AverageDocumentLength)
	}
	if stats.AverageTagsPerDocument != 0 {
		t.Errorf("average tags per document = %v, want 0", stats.AverageTagsPerDocument)
	}
	if len(stats.TopTags) != 0 || len(stats.SimilarPairs) != 0 {
		t.Error("empty engine should report no top tags or pairs")
	}
}
