package textindex

import (
	"errors"
	"math"
	"testing"
)

func TestSimilar(t *testing.T) {
	ix := New()
	ix.Add("d1", "the cat sat", map[string]interface{}{"title": "One"})
	ix.Add("d2", "the cat sat on the mat", map[string]interface{}{"title": "Two"})
	ix.Add("d3", "dogs bark loudly", nil)

	results, err := ix.Similar("d1", 10)
	if err != nil {
		t.Fatal(err)
	}
	// d3 shares no terms with d1 and is omitted; d2 shares cat and sat.
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1: %+v", len(results), results)
	}
	if results[0].DocumentID != "d2" || results[0].Title != "Two" {
		t.Errorf("result = %+v, want d2/Two", results[0])
	}
	// v1 = {cat:1, sat:1}, v2 = {cat:1, sat:1, mat:1}:
	// dot = 2, norms = sqrt(2) and sqrt(3).
	want := 2.0 / (math.Sqrt2 * math.Sqrt(3))
	if !approxEqual(results[0].Similarity, want) {
		t.Errorf("similarity = %f, want %f", results[0].Similarity, want)
	}
}

func TestSimilar_identicalContent(t *testing.T) {
	ix := New()
	ix.Add("d1", "alpha beta gamma", nil)
	ix.Add("d2", "alpha beta gamma", nil)

	results, err := ix.Similar("d1", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 || !approxEqual(results[0].Similarity, 1.0) {
		t.Errorf("identical documents should have similarity 1, got %+v", results)
	}
}

func TestSimilar_excludesSelf(t *testing.T) {
	ix := New()
	ix.Add("d1", "alpha beta", nil)
	ix.Add("d2", "alpha beta", nil)

	results, _ := ix.Similar("d1", 10)
	for _, r := range results {
		if r.DocumentID == "d1" {
			t.Error("target document appeared in its own similarity results")
		}
	}
}

func TestSimilar_orderingAndLimit(t *testing.T) {
	ix := New()
	ix.Add("base", "alpha beta gamma", nil)
	ix.Add("full", "alpha beta gamma", nil)
	ix.Add("pair", "alpha beta", nil)
	ix.Add("solo", "alpha", nil)

	results, err := ix.Similar("base", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}
	wantOrder := []string{"full", "pair", "solo"}
	for i, want := range wantOrder {
		if results[i].DocumentID != want {
			t.Errorf("result %d = %s, want %s", i, results[i].DocumentID, want)
		}
	}
	for i := 1; i < len(results); i++ {
		if results[i].Similarity > results[i-1].Similarity {
			t.Error("results not sorted by descending similarity")
		}
	}

	limited, _ := ix.Similar("base", 2)
	if len(limited) != 2 || limited[0].DocumentID != "full" {
		t.Errorf("limited results = %+v, want first 2", limited)
	}
}

func TestSimilar_noSharedTerms(t *testing.T) {
	ix := New()
	ix.Add("d1", "alpha beta", nil)
	ix.Add("d2", "gamma delta", nil)

	results, err := ix.Similar("d1", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 0 {
		t.Errorf("disjoint documents should yield no results, got %+v", results)
	}
}

func TestSimilar_emptyDocumentVector(t *testing.T) {
	ix := New()
	ix.Add("d1", "", nil)
	ix.Add("d2", "alpha beta", nil)

	// d1 has a zero-norm vector; similarity must be 0, never NaN.
	results, err := ix.Similar("d1", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 0 {
		t.Errorf("zero-vector document should match nothing, got %+v", results)
	}
}

func TestSimilar_unknownDocument(t *testing.T) {
	ix := New()
	if _, err := ix.Similar("ghost", 10); !errors.Is(err, ErrDocumentNotFound) {
		t.Errorf("Similar(ghost) = %v, want ErrDocumentNotFound", err)
	}
}
