package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/inkroot/folio/internal/config"
	"github.com/inkroot/folio/internal/engine"
	"github.com/inkroot/folio/internal/extract"
	"github.com/inkroot/folio/internal/models"
	"github.com/inkroot/folio/internal/storage"
)

type mockWatchService struct {
	roots []string
}

func (m *mockWatchService) Roots() []string {
	return append([]string(nil), m.roots...)
}

func (m *mockWatchService) AddRoot(path string, _ bool) error {
	for _, r := range m.roots {
		if r == path {
			return nil
		}
	}
	m.roots = append(m.roots, path)
	return nil
}

func (m *mockWatchService) RemoveRoot(path string) error {
	for i, r := range m.roots {
		if r == path {
			m.roots = append(m.roots[:i], m.roots[i+1:]...)
			return nil
		}
	}
	return nil
}

func newTestServer(t *testing.T, opts ...ServerOption) *Server {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.NewSQLiteStore(filepath.Join(dir, "folio.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	eng := engine.NewEngine(nil, engine.WithExtractor(extract.NewMetadataScanner()))
	cfg := &config.Config{}
	config.ApplyDefaults(cfg)
	cfg.Storage.DatabasePath = filepath.Join(dir, "folio.db")
	cfg.Storage.SnapshotDir = filepath.Join(dir, "snapshots")
	return NewServer(eng, store, nil, cfg, zap.NewNop(), opts...)
}

func doRequest(t *testing.T, h http.Handler, method, target string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		rd = bytes.NewReader(raw)
	}
	r := httptest.NewRequest(method, target, rd)
	if body != nil {
		r.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func addDocument(t *testing.T, h http.Handler, id, title, content string) string {
	t.Helper()
	w := doRequest(t, h, http.MethodPost, "/api/v1/documents", map[string]string{
		"id": id, "title": title, "content": content,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("add document: got %d, body: %s", w.Code, w.Body.String())
	}
	var out struct {
		ID string `json:"id"`
	}
	decodeBody(t, w, &out)
	return out.ID
}

func createTag(t *testing.T, h http.Handler, name, parentID string) string {
	t.Helper()
	w := doRequest(t, h, http.MethodPost, "/api/v1/tags", map[string]string{
		"name": name, "parent_id": parentID,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create tag: got %d, body: %s", w.Code, w.Body.String())
	}
	var out struct {
		ID string `json:"id"`
	}
	decodeBody(t, w, &out)
	return out.ID
}

func createNode(t *testing.T, h http.Handler, name, nodeType, parentID string) string {
	t.Helper()
	body := map[string]string{"name": name, "type": nodeType}
	if parentID != "" {
		body["parent_id"] = parentID
	}
	w := doRequest(t, h, http.MethodPost, "/api/v1/nodes", body)
	if w.Code != http.StatusCreated {
		t.Fatalf("create node: got %d, body: %s", w.Code, w.Body.String())
	}
	var out struct {
		ID string `json:"id"`
	}
	decodeBody(t, w, &out)
	return out.ID
}

func TestHandleHealth(t *testing.T) {
	srv := newTestServer(t)
	w := doRequest(t, srv.Router(), http.MethodGet, "/api/v1/health", nil)
	if w.Code != http.StatusOK {
		t.Errorf("status: got %d", w.Code)
	}
	var out struct {
		Status string `json:"status"`
	}
	decodeBody(t, w, &out)
	if out.Status != "ok" {
		t.Errorf("status field: got %q, want ok", out.Status)
	}
}

func TestHandleAddDocument(t *testing.T) {
	srv := newTestServer(t)
	h := srv.Router()
	id := addDocument(t, h, "d1", "Brewing Guide", "pour over coffee brewing at home")

	if id != "d1" {
		t.Errorf("id: got %q, want d1", id)
	}
	if !srv.engine.HasDocument("d1") {
		t.Error("document not indexed")
	}
	doc, err := srv.store.GetDocument(context.Background(), "d1")
	if err != nil {
		t.Fatalf("GetDocument: %v", err)
	}
	if doc.Title != "Brewing Guide" {
		t.Errorf("stored title: got %q", doc.Title)
	}
}

func TestHandleAddDocument_GeneratesID(t *testing.T) {
	srv := newTestServer(t)
	id := addDocument(t, srv.Router(), "", "Untitled", "some content")
	if id == "" {
		t.Fatal("expected a generated id")
	}
	if !srv.engine.HasDocument(id) {
		t.Errorf("generated document %q not indexed", id)
	}
}

func TestHandleAddDocument_MissingContent(t *testing.T) {
	srv := newTestServer(t)
	w := doRequest(t, srv.Router(), http.MethodPost, "/api/v1/documents", map[string]string{
		"title": "No Body",
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want 400", w.Code)
	}
}

func TestHandleAddDocument_InvalidJSON(t *testing.T) {
	srv := newTestServer(t)
	r := httptest.NewRequest(http.MethodPost, "/api/v1/documents", strings.NewReader("{not json"))
	r.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, r)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want 400", w.Code)
	}
}

func TestHandleSearch(t *testing.T) {
	srv := newTestServer(t)
	h := srv.Router()
	addDocument(t, h, "d1", "Coffee", "pour over coffee brewing methods")
	addDocument(t, h, "d2", "Tea", "steeping green tea leaves")

	w := doRequest(t, h, http.MethodPost, "/api/v1/search", map[string]string{"query": "coffee brewing"})
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, body: %s", w.Code, w.Body.String())
	}
	var out models.SearchResponse
	decodeBody(t, w, &out)
	if out.Total < 1 {
		t.Fatalf("total: got %d, want >= 1", out.Total)
	}
	if out.Results[0].DocumentID != "d1" {
		t.Errorf("top result: got %q, want d1", out.Results[0].DocumentID)
	}
}

func TestHandleSearch_EmptyQuery(t *testing.T) {
	srv := newTestServer(t)
	w := doRequest(t, srv.Router(), http.MethodPost, "/api/v1/search", map[string]string{"query": ""})
	if w.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want 400", w.Code)
	}
}

func TestHandleListDocuments(t *testing.T) {
	srv := newTestServer(t)
	h := srv.Router()
	addDocument(t, h, "d1", "One", "first")
	addDocument(t, h, "d2", "Two", "second")

	w := doRequest(t, h, http.MethodGet, "/api/v1/documents?limit=1", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d", w.Code)
	}
	var out struct {
		Documents []*models.Document `json:"documents"`
		Total     int64              `json:"total"`
		Limit     int                `json:"limit"`
	}
	decodeBody(t, w, &out)
	if out.Total != 2 {
		t.Errorf("total: got %d, want 2", out.Total)
	}
	if len(out.Documents) != 1 {
		t.Errorf("page size: got %d, want 1", len(out.Documents))
	}
	if out.Limit != 1 {
		t.Errorf("limit echoed: got %d", out.Limit)
	}
}

func TestHandleGetDocument(t *testing.T) {
	srv := newTestServer(t)
	h := srv.Router()
	addDocument(t, h, "d1", "Found", "content here")

	w := doRequest(t, h, http.MethodGet, "/api/v1/documents/d1", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d", w.Code)
	}
	var doc models.Document
	decodeBody(t, w, &doc)
	if doc.ID != "d1" || doc.Content != "content here" {
		t.Errorf("document: got %+v", doc)
	}

	w = doRequest(t, h, http.MethodGet, "/api/v1/documents/missing", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("missing document status: got %d, want 404", w.Code)
	}
}

func TestHandleDeleteDocument(t *testing.T) {
	srv := newTestServer(t)
	h := srv.Router()
	addDocument(t, h, "d1", "Doomed", "to be removed")

	w := doRequest(t, h, http.MethodDelete, "/api/v1/documents/d1", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, body: %s", w.Code, w.Body.String())
	}
	if srv.engine.HasDocument("d1") {
		t.Error("document still indexed")
	}
	if _, err := srv.store.GetDocument(context.Background(), "d1"); err == nil {
		t.Error("document still stored")
	}

	w = doRequest(t, h, http.MethodDelete, "/api/v1/documents/d1", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("second delete status: got %d, want 404", w.Code)
	}
}

func TestHandleDocumentMetadata(t *testing.T) {
	srv := newTestServer(t)
	h := srv.Router()
	addDocument(t, h, "d1", "Meta", "body")

	w := doRequest(t, h, http.MethodPatch, "/api/v1/documents/d1/metadata",
		map[string]interface{}{"team": "platform"})
	if w.Code != http.StatusOK {
		t.Fatalf("patch status: got %d, body: %s", w.Code, w.Body.String())
	}

	w = doRequest(t, h, http.MethodGet, "/api/v1/documents/d1/metadata", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get status: got %d", w.Code)
	}
	var out struct {
		Metadata map[string]interface{} `json:"metadata"`
	}
	decodeBody(t, w, &out)
	if out.Metadata["team"] != "platform" {
		t.Errorf("metadata: got %v", out.Metadata)
	}
}

func TestHandleDocumentMetadata_EmptyUpdate(t *testing.T) {
	srv := newTestServer(t)
	h := srv.Router()
	addDocument(t, h, "d1", "Meta", "body")

	w := doRequest(t, h, http.MethodPatch, "/api/v1/documents/d1/metadata", map[string]interface{}{})
	if w.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want 400", w.Code)
	}
}

func TestHandleTagAndUntagDocument(t *testing.T) {
	srv := newTestServer(t)
	h := srv.Router()
	addDocument(t, h, "d1", "Tagged", "body")
	tagID := createTag(t, h, "research", "")

	w := doRequest(t, h, http.MethodPut, "/api/v1/documents/d1/tags/"+tagID, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("tag status: got %d, body: %s", w.Code, w.Body.String())
	}

	w = doRequest(t, h, http.MethodGet, "/api/v1/documents/d1/tags", nil)
	var out struct {
		Tags []struct {
			ID string `json:"id"`
		} `json:"tags"`
	}
	decodeBody(t, w, &out)
	if len(out.Tags) != 1 || out.Tags[0].ID != tagID {
		t.Fatalf("tags: got %+v", out.Tags)
	}

	w = doRequest(t, h, http.MethodDelete, "/api/v1/documents/d1/tags/"+tagID, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("untag status: got %d", w.Code)
	}
	w = doRequest(t, h, http.MethodGet, "/api/v1/documents/d1/tags", nil)
	out.Tags = nil
	decodeBody(t, w, &out)
	if len(out.Tags) != 0 {
		t.Errorf("tags after untag: got %+v", out.Tags)
	}
}

func TestHandleTagDocument_UnknownTag(t *testing.T) {
	srv := newTestServer(t)
	h := srv.Router()
	addDocument(t, h, "d1", "Doc", "body")

	w := doRequest(t, h, http.MethodPut, "/api/v1/documents/d1/tags/nope", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want 404", w.Code)
	}
}

func TestHandleSimilarDocuments(t *testing.T) {
	srv := newTestServer(t)
	h := srv.Router()
	addDocument(t, h, "d1", "A", "rust compiler error messages")
	addDocument(t, h, "d2", "B", "rust compiler optimization passes")
	addDocument(t, h, "d3", "C", "gardening tips for spring tomatoes")

	w := doRequest(t, h, http.MethodGet, "/api/v1/documents/d1/similar?limit=2", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, body: %s", w.Code, w.Body.String())
	}
	var out struct {
		Similar []struct {
			DocumentID string  `json:"document_id"`
			Similarity float64 `json:"similarity"`
		} `json:"similar"`
	}
	decodeBody(t, w, &out)
	if len(out.Similar) == 0 {
		t.Fatal("expected at least one similar document")
	}
	if out.Similar[0].DocumentID != "d2" {
		t.Errorf("most similar: got %q, want d2", out.Similar[0].DocumentID)
	}
}

func TestHandleTagCRUD(t *testing.T) {
	srv := newTestServer(t)
	h := srv.Router()

	tagID := createTag(t, h, "projects", "")
	childID := createTag(t, h, "active", tagID)

	w := doRequest(t, h, http.MethodGet, "/api/v1/tags/"+childID, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get status: got %d", w.Code)
	}
	var tag struct {
		ID       string `json:"id"`
		Name     string `json:"name"`
		ParentID string `json:"parent_id"`
	}
	decodeBody(t, w, &tag)
	if tag.Name != "active" || tag.ParentID != tagID {
		t.Errorf("tag: got %+v", tag)
	}

	w = doRequest(t, h, http.MethodPatch, "/api/v1/tags/"+childID, map[string]string{"name": "archived"})
	if w.Code != http.StatusOK {
		t.Fatalf("patch status: got %d, body: %s", w.Code, w.Body.String())
	}

	w = doRequest(t, h, http.MethodGet, "/api/v1/tags", nil)
	var list struct {
		Count int `json:"count"`
	}
	decodeBody(t, w, &list)
	if list.Count != 2 {
		t.Errorf("tag count: got %d, want 2", list.Count)
	}

	w = doRequest(t, h, http.MethodDelete, "/api/v1/tags/"+tagID+"?recursive=true", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("delete status: got %d, body: %s", w.Code, w.Body.String())
	}
	w = doRequest(t, h, http.MethodGet, "/api/v1/tags/"+childID, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("child after recursive delete: got %d, want 404", w.Code)
	}
}

func TestHandleCreateTag_DuplicateName(t *testing.T) {
	srv := newTestServer(t)
	h := srv.Router()
	createTag(t, h, "inbox", "")

	w := doRequest(t, h, http.MethodPost, "/api/v1/tags", map[string]string{"name": "inbox"})
	if w.Code != http.StatusConflict {
		t.Errorf("status: got %d, want 409", w.Code)
	}
}

func TestHandleDeleteTag_WithChildren(t *testing.T) {
	srv := newTestServer(t)
	h := srv.Router()
	parent := createTag(t, h, "parent", "")
	createTag(t, h, "child", parent)

	w := doRequest(t, h, http.MethodDelete, "/api/v1/tags/"+parent, nil)
	if w.Code != http.StatusConflict {
		t.Errorf("status: got %d, want 409", w.Code)
	}
}

func TestHandleTagDocuments(t *testing.T) {
	srv := newTestServer(t)
	h := srv.Router()
	addDocument(t, h, "d1", "One", "body one")
	addDocument(t, h, "d2", "Two", "body two")
	parent := createTag(t, h, "topic", "")
	child := createTag(t, h, "subtopic", parent)

	doRequest(t, h, http.MethodPut, "/api/v1/documents/d1/tags/"+parent, nil)
	doRequest(t, h, http.MethodPut, "/api/v1/documents/d2/tags/"+child, nil)

	w := doRequest(t, h, http.MethodGet, "/api/v1/tags/"+parent+"/documents", nil)
	var out struct {
		Documents []string `json:"documents"`
	}
	decodeBody(t, w, &out)
	if len(out.Documents) != 1 {
		t.Errorf("direct documents: got %v", out.Documents)
	}

	w = doRequest(t, h, http.MethodGet, "/api/v1/tags/"+parent+"/documents?descendants=true", nil)
	out.Documents = nil
	decodeBody(t, w, &out)
	if len(out.Documents) != 2 {
		t.Errorf("documents with descendants: got %v", out.Documents)
	}
}

func TestHandleNodeCRUD(t *testing.T) {
	srv := newTestServer(t)
	h := srv.Router()

	folderID := createNode(t, h, "Projects", "folder", "")
	subID := createNode(t, h, "2026", "folder", folderID)

	w := doRequest(t, h, http.MethodGet, "/api/v1/nodes/"+subID, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get status: got %d", w.Code)
	}
	var node struct {
		ID       string `json:"id"`
		Name     string `json:"name"`
		ParentID string `json:"parent_id"`
	}
	decodeBody(t, w, &node)
	if node.Name != "2026" || node.ParentID != folderID {
		t.Errorf("node: got %+v", node)
	}

	w = doRequest(t, h, http.MethodPatch, "/api/v1/nodes/"+subID, map[string]string{"name": "Archive"})
	if w.Code != http.StatusOK {
		t.Fatalf("patch status: got %d, body: %s", w.Code, w.Body.String())
	}
	decodeBody(t, w, &node)
	if node.Name != "Archive" {
		t.Errorf("renamed node: got %q", node.Name)
	}

	w = doRequest(t, h, http.MethodDelete, "/api/v1/nodes/"+folderID, nil)
	if w.Code != http.StatusConflict {
		t.Errorf("delete with children: got %d, want 409", w.Code)
	}
	w = doRequest(t, h, http.MethodDelete, "/api/v1/nodes/"+folderID+"?recursive=true", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("recursive delete: got %d", w.Code)
	}
}

func TestHandleCreateNode_InvalidType(t *testing.T) {
	srv := newTestServer(t)
	w := doRequest(t, srv.Router(), http.MethodPost, "/api/v1/nodes", map[string]string{
		"name": "Bad", "type": "bucket",
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want 400", w.Code)
	}
}

func TestHandleMoveNode(t *testing.T) {
	srv := newTestServer(t)
	h := srv.Router()
	a := createNode(t, h, "A", "folder", "")
	b := createNode(t, h, "B", "folder", "")
	child := createNode(t, h, "C", "folder", a)

	w := doRequest(t, h, http.MethodPost, "/api/v1/nodes/"+child+"/move", map[string]string{"parent_id": b})
	if w.Code != http.StatusOK {
		t.Fatalf("move status: got %d, body: %s", w.Code, w.Body.String())
	}
	var node struct {
		ParentID string `json:"parent_id"`
	}
	decodeBody(t, w, &node)
	if node.ParentID != b {
		t.Errorf("parent after move: got %q, want %q", node.ParentID, b)
	}

	// Moving a node under its own descendant must be refused.
	w = doRequest(t, h, http.MethodPost, "/api/v1/nodes/"+b+"/move", map[string]string{"parent_id": child})
	if w.Code != http.StatusConflict {
		t.Errorf("cycle move status: got %d, want 409", w.Code)
	}
}

func TestHandleNodePathAndRelatives(t *testing.T) {
	srv := newTestServer(t)
	h := srv.Router()
	root := createNode(t, h, "Root", "folder", "")
	mid := createNode(t, h, "Mid", "folder", root)
	leaf := createNode(t, h, "Leaf", "folder", mid)
	createNode(t, h, "Sibling", "folder", mid)

	w := doRequest(t, h, http.MethodGet, "/api/v1/nodes/"+leaf+"/path", nil)
	var pathOut struct {
		Path []struct {
			Name string `json:"name"`
		} `json:"path"`
	}
	decodeBody(t, w, &pathOut)
	if len(pathOut.Path) != 3 || pathOut.Path[0].Name != "Root" || pathOut.Path[2].Name != "Leaf" {
		t.Errorf("path: got %+v", pathOut.Path)
	}

	w = doRequest(t, h, http.MethodGet, "/api/v1/nodes/"+root+"/descendants", nil)
	var descOut struct {
		Count int `json:"count"`
	}
	decodeBody(t, w, &descOut)
	if descOut.Count != 3 {
		t.Errorf("descendants: got %d, want 3", descOut.Count)
	}

	w = doRequest(t, h, http.MethodGet, "/api/v1/nodes/"+leaf+"/siblings", nil)
	var sibOut struct {
		Siblings []struct {
			Name string `json:"name"`
		} `json:"siblings"`
	}
	decodeBody(t, w, &sibOut)
	if len(sibOut.Siblings) != 1 || sibOut.Siblings[0].Name != "Sibling" {
		t.Errorf("siblings: got %+v", sibOut.Siblings)
	}
}

func TestHandleSearchNodes(t *testing.T) {
	srv := newTestServer(t)
	h := srv.Router()
	createNode(t, h, "Quarterly Report", "folder", "")
	createNode(t, h, "Quarterly Review", "folder", "")
	createNode(t, h, "Misc", "folder", "")

	w := doRequest(t, h, http.MethodGet, "/api/v1/nodes/search?query=quarterly", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d", w.Code)
	}
	var out struct {
		Count int `json:"count"`
	}
	decodeBody(t, w, &out)
	if out.Count != 2 {
		t.Errorf("count: got %d, want 2", out.Count)
	}
}

func TestHandleTree(t *testing.T) {
	srv := newTestServer(t)
	h := srv.Router()
	root := createNode(t, h, "Top", "folder", "")
	createNode(t, h, "Inner", "folder", root)

	w := doRequest(t, h, http.MethodGet, "/api/v1/tree", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d", w.Code)
	}
	var out struct {
		Tree []*models.TreeNode `json:"tree"`
	}
	decodeBody(t, w, &out)
	if len(out.Tree) != 1 || out.Tree[0].Name != "Top" {
		t.Fatalf("tree roots: got %+v", out.Tree)
	}
	if len(out.Tree[0].Children) != 1 || out.Tree[0].Children[0].Name != "Inner" {
		t.Errorf("tree children: got %+v", out.Tree[0].Children)
	}
}

func TestHandleStatistics(t *testing.T) {
	srv := newTestServer(t)
	h := srv.Router()
	addDocument(t, h, "d1", "One", "alpha beta gamma")
	addDocument(t, h, "d2", "Two", "delta epsilon")

	w := doRequest(t, h, http.MethodGet, "/api/v1/statistics", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, body: %s", w.Code, w.Body.String())
	}
	var out struct {
		Engine struct {
			Documents int `json:"documents"`
		} `json:"engine"`
		StoredDocuments int64 `json:"stored_documents"`
	}
	decodeBody(t, w, &out)
	if out.Engine.Documents != 2 {
		t.Errorf("engine documents: got %d, want 2", out.Engine.Documents)
	}
	if out.StoredDocuments != 2 {
		t.Errorf("stored documents: got %d, want 2", out.StoredDocuments)
	}
}

func TestHandleSnapshotSaveAndLoad(t *testing.T) {
	srv := newTestServer(t)
	h := srv.Router()
	addDocument(t, h, "d1", "Persisted", "survives restarts")

	w := doRequest(t, h, http.MethodPost, "/api/v1/snapshot/save", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("save status: got %d, body: %s", w.Code, w.Body.String())
	}

	// A second server sharing the snapshot dir picks the state up.
	other := newTestServer(t)
	other.cfg.Storage.SnapshotDir = srv.cfg.Storage.SnapshotDir
	w = doRequest(t, other.Router(), http.MethodPost, "/api/v1/snapshot/load", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("load status: got %d, body: %s", w.Code, w.Body.String())
	}
	if !other.engine.HasDocument("d1") {
		t.Error("document missing after snapshot load")
	}
}

func TestHandleSnapshotLoad_MissingDir(t *testing.T) {
	srv := newTestServer(t)
	w := doRequest(t, srv.Router(), http.MethodPost, "/api/v1/snapshot/load", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want 404", w.Code)
	}
}

func TestHandleSnapshotBackup(t *testing.T) {
	srv := newTestServer(t)
	h := srv.Router()
	addDocument(t, h, "d1", "Backed", "up")

	if w := doRequest(t, h, http.MethodPost, "/api/v1/snapshot/save", nil); w.Code != http.StatusOK {
		t.Fatalf("save status: got %d", w.Code)
	}
	w := doRequest(t, h, http.MethodPost, "/api/v1/snapshot/backup", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("backup status: got %d, body: %s", w.Code, w.Body.String())
	}
	var out struct {
		BackupDir string `json:"backup_dir"`
	}
	decodeBody(t, w, &out)
	if out.BackupDir == "" {
		t.Fatal("expected backup_dir in response")
	}
	if _, err := os.Stat(out.BackupDir); err != nil {
		t.Errorf("backup dir missing: %v", err)
	}
}

func TestHandleReindex_NotAvailable(t *testing.T) {
	srv := newTestServer(t)
	w := doRequest(t, srv.Router(), http.MethodPost, "/api/v1/reindex", nil)
	if w.Code != http.StatusNotImplemented {
		t.Errorf("status: got %d, want 501", w.Code)
	}
}

func TestHandleWatchRootsList(t *testing.T) {
	mock := &mockWatchService{roots: []string{"/tmp/docs"}}
	srv := newTestServer(t, WithWatch(mock))

	w := doRequest(t, srv.Router(), http.MethodGet, "/api/v1/watch/directories", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d", w.Code)
	}
	var out struct {
		Directories []string `json:"directories"`
	}
	decodeBody(t, w, &out)
	if len(out.Directories) != 1 || out.Directories[0] != "/tmp/docs" {
		t.Errorf("directories: got %v", out.Directories)
	}
}

func TestHandleWatchRoots_NotEnabled(t *testing.T) {
	srv := newTestServer(t)
	w := doRequest(t, srv.Router(), http.MethodGet, "/api/v1/watch/directories", nil)
	if w.Code != http.StatusNotImplemented {
		t.Errorf("status: got %d, want 501", w.Code)
	}
}

func TestHandleWatchRootsAdd(t *testing.T) {
	mock := &mockWatchService{}
	srv := newTestServer(t, WithWatch(mock))
	dir := t.TempDir()

	w := doRequest(t, srv.Router(), http.MethodPost, "/api/v1/watch/directories",
		map[string]string{"path": dir})
	if w.Code != http.StatusCreated {
		t.Fatalf("status: got %d, body: %s", w.Code, w.Body.String())
	}
	if len(mock.Roots()) != 1 || mock.Roots()[0] != dir {
		t.Errorf("roots: got %v", mock.Roots())
	}
}

func TestHandleWatchRootsAdd_MissingDir(t *testing.T) {
	mock := &mockWatchService{}
	srv := newTestServer(t, WithWatch(mock))

	w := doRequest(t, srv.Router(), http.MethodPost, "/api/v1/watch/directories",
		map[string]string{"path": filepath.Join(t.TempDir(), "nope")})
	if w.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want 404", w.Code)
	}
}

func TestHandleWatchRootsRemove(t *testing.T) {
	dir := t.TempDir()
	mock := &mockWatchService{roots: []string{dir}}
	srv := newTestServer(t, WithWatch(mock))

	w := doRequest(t, srv.Router(), http.MethodDelete, "/api/v1/watch/directories?path="+dir, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, body: %s", w.Code, w.Body.String())
	}
	if len(mock.Roots()) != 0 {
		t.Errorf("roots: got %v", mock.Roots())
	}
}

func TestWatchRootsPersistedToConfig(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(t.TempDir(), "folio.yaml")
	mock := &mockWatchService{}
	srv := newTestServer(t, WithWatch(mock), WithConfigPath(cfgPath))

	w := doRequest(t, srv.Router(), http.MethodPost, "/api/v1/watch/directories",
		map[string]string{"path": dir})
	if w.Code != http.StatusCreated {
		t.Fatalf("status: got %d, body: %s", w.Code, w.Body.String())
	}
	raw, err := os.ReadFile(cfgPath)
	if err != nil {
		t.Fatalf("config not written: %v", err)
	}
	if !strings.Contains(string(raw), dir) {
		t.Errorf("config does not mention %s:\n%s", dir, raw)
	}
}
