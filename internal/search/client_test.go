package search

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestVectorSearchRequestShape(t *testing.T) {
	var gotPath, gotKey string
	var gotBody searchRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("api-key")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("failed to decode request body: %v", err)
		}
		json.NewEncoder(w).Encode(searchResponse{Value: []Document{
			{Title: "doc", Chunk: "passage"},
		}})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "my-index", "secret-key")
	docs, err := client.VectorSearch(context.Background(), []float32{0.5, 0.5}, 3)
	if err != nil {
		t.Fatalf("VectorSearch() error = %v", err)
	}

	if gotPath != "/indexes/my-index/docs/search" {
		t.Errorf("request path = %q, want /indexes/my-index/docs/search", gotPath)
	}
	if gotKey != "secret-key" {
		t.Errorf("api-key header = %q, want secret-key", gotKey)
	}
	if len(gotBody.VectorQueries) != 1 {
		t.Fatalf("vectorQueries count = %d, want 1", len(gotBody.VectorQueries))
	}
	vq := gotBody.VectorQueries[0]
	if vq.Kind != "vector" || vq.Fields != "text_vector" || vq.K != 3 {
		t.Errorf("vector query = %+v, want kind=vector fields=text_vector k=3", vq)
	}
	if gotBody.Select != "title,chunk" {
		t.Errorf("select = %q, want title,chunk", gotBody.Select)
	}

	if len(docs) != 1 || docs[0].Title != "doc" || docs[0].Chunk != "passage" {
		t.Errorf("docs = %+v, want one {doc, passage}", docs)
	}
}

func TestVectorSearchPreservesOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(searchResponse{Value: []Document{
			{Chunk: "nearest"},
			{Chunk: "second"},
			{Chunk: "third"},
		}})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "idx", "key")
	docs, err := client.VectorSearch(context.Background(), []float32{1}, 3)
	if err != nil {
		t.Fatalf("VectorSearch() error = %v", err)
	}

	want := []string{"nearest", "second", "third"}
	for i, chunk := range want {
		if docs[i].Chunk != chunk {
			t.Errorf("docs[%d].Chunk = %q, want %q", i, docs[i].Chunk, chunk)
		}
	}
}

func TestVectorSearchNon200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"forbidden"}}`, http.StatusForbidden)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "idx", "wrong-key")
	_, err := client.VectorSearch(context.Background(), []float32{1}, 3)
	if err == nil {
		t.Fatal("expected error for non-200 response")
	}
}

func TestVectorSearchTrimsTrailingSlash(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		json.NewEncoder(w).Encode(searchResponse{})
	}))
	defer srv.Close()

	client := NewClient(srv.URL+"/", "idx", "key")
	if _, err := client.VectorSearch(context.Background(), []float32{1}, 1); err != nil {
		t.Fatalf("VectorSearch() error = %v", err)
	}
	if gotPath != "/indexes/idx/docs/search" {
		t.Errorf("request path = %q, want /indexes/idx/docs/search", gotPath)
	}
}
