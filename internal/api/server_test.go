package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/pagsearch/pkg/graphio"
	"github.com/matzehuels/pagsearch/pkg/pag"
	"github.com/matzehuels/pagsearch/pkg/pipeline"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	runner := pipeline.NewRunner(nil, nil, log.New(io.Discard))
	s, err := New(Config{ListenAddr: "127.0.0.1:0"}, runner, log.New(io.Discard))
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	return s
}

func colliderRequest() pipeline.Options {
	truth := pag.New("a", "b", "c")
	truth.AddDirectedEdge("a", "b")
	truth.AddDirectedEdge("c", "b")

	// The skeleton still carries the spurious a-c edge, as an upstream
	// structure search might; thinning removes it before orientation.
	skeleton := pag.New("a", "b", "c")
	skeleton.AddNondirectedEdge("a", "b")
	skeleton.AddNondirectedEdge("b", "c")
	skeleton.AddNondirectedEdge("a", "c")

	return pipeline.Options{
		Skeleton: graphio.FromGraph(skeleton),
		Truth:    graphio.FromGraph(truth),
	}
}

func postSearch(t *testing.T, s *Server, body any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodPost, "/v1/search", bytes.NewReader(data))
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body["status"] != "ok" {
		t.Errorf("status = %q, want ok", body["status"])
	}
}

func TestSearchCollider(t *testing.T) {
	s := newTestServer(t)

	rec := postSearch(t, s, colliderRequest())
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	var resp SearchResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}

	if resp.RunID == "" {
		t.Error("run_id is empty")
	}
	if resp.Stats.Algorithm != pipeline.AlgorithmFci {
		t.Errorf("algorithm = %q, want fci", resp.Stats.Algorithm)
	}
	if len(resp.Trace) == 0 {
		t.Error("trace is empty, want at least the collider rule")
	}

	g, err := graphio.ToGraph(resp.Graph)
	if err != nil {
		t.Fatalf("ToGraph: %v", err)
	}
	if !g.IsDefCollider("a", "b", "c") {
		t.Error("response graph missing collider at b")
	}
}

func TestSearchValidationError(t *testing.T) {
	s := newTestServer(t)

	opts := colliderRequest()
	opts.Algorithm = "pc"

	rec := postSearch(t, s, opts)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400: %s", rec.Code, rec.Body.String())
	}

	var resp ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Code != "INVALID_ALGORITHM" {
		t.Errorf("code = %q, want INVALID_ALGORITHM", resp.Code)
	}
}

func TestSearchMalformedBody(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/search", bytes.NewReader([]byte("{not json")))
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestNewValidation(t *testing.T) {
	runner := pipeline.NewRunner(nil, nil, log.New(io.Discard))

	if _, err := New(Config{}, runner, nil); err == nil {
		t.Error("New() with empty addr succeeded, want error")
	}
	if _, err := New(Config{ListenAddr: ":0"}, nil, nil); err == nil {
		t.Error("New() with nil runner succeeded, want error")
	}
}
