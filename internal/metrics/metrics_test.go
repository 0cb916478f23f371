package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestNew_independentInstances(t *testing.T) {
	// Two instances must not collide on registration.
	a := New()
	b := New()
	a.DocumentsIndexedTotal.Inc()
	b.DocumentsIndexedTotal.Add(5)

	if got := scrape(t, a); !strings.Contains(got, "folio_documents_indexed_total 1") {
		t.Errorf("instance a scrape missing its own count:\n%s", got)
	}
	if got := scrape(t, b); !strings.Contains(got, "folio_documents_indexed_total 5") {
		t.Errorf("instance b scrape missing its own count:\n%s", got)
	}
}

func TestHandler_exposesCollectors(t *testing.T) {
	m := New()
	m.SearchesTotal.WithLabelValues("ok").Inc()
	m.CacheMissesTotal.Inc()
	m.SnapshotOpsTotal.WithLabelValues("save", "ok").Inc()

	body := scrape(t, m)
	for _, want := range []string{
		`folio_searches_total{outcome="ok"} 1`,
		"folio_cache_misses_total 1",
		`folio_snapshot_operations_total{operation="save",status="ok"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("scrape missing %q:\n%s", want, body)
		}
	}
}

func TestMiddleware_recordsRequests(t *testing.T) {
	m := New()
	handler := Middleware(m)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/statistics", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusTeapot {
		t.Fatalf("status = %d, want 418", rec.Code)
	}
	body := scrape(t, m)
	if !strings.Contains(body, `folio_http_requests_total{method="GET",path="/api/v1/statistics",status="418"} 1`) {
		t.Errorf("request counter not recorded:\n%s", body)
	}
	if !strings.Contains(body, "folio_http_requests_in_flight 0") {
		t.Errorf("in-flight gauge not settled:\n%s", body)
	}
}

func TestMiddleware_defaultStatusOK(t *testing.T) {
	m := New()
	handler := Middleware(m)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "hello")
	}))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if !strings.Contains(scrape(t, m), `status="200"`) {
		t.Error("implicit 200 not recorded")
	}
}

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, req)
	body, err := io.ReadAll(rec.Result().Body)
	if err != nil {
		t.Fatal(err)
	}
	return string(body)
}
