package core

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/ccnsweden/rag-chatbot/internal/search"
	"github.com/ccnsweden/rag-chatbot/internal/store"
)

// NumRelevantChunks is how many nearest neighbors are pulled into context.
const NumRelevantChunks = 3

// Capability interfaces for the external collaborators, so the services are
// testable without any live backend.
type Embedder interface {
	GetEmbedding(ctx context.Context, text string) ([]float32, error)
}

type Searcher interface {
	VectorSearch(ctx context.Context, vector []float32, k int) ([]search.Document, error)
}

type Completer interface {
	GetChatCompletion(ctx context.Context, conversation store.Conversation) (string, error)
}

// RAGService retrieves reference passages for a query by embedding it and
// running a vector search against the external index.
type RAGService struct {
	embedder Embedder
	searcher Searcher // nil when vector search is not configured
}

func NewRAGService(embedder Embedder, searcher Searcher) *RAGService {
	return &RAGService{
		embedder: embedder,
		searcher: searcher,
	}
}

// Configured reports whether a vector-search backend is available.
func (s *RAGService) Configured() bool {
	return s.searcher != nil
}

// SearchDocuments embeds the query and returns the top-k documents. Unlike
// RetrieveContext, errors propagate so the search endpoint can report them.
func (s *RAGService) SearchDocuments(ctx context.Context, query string) ([]search.Document, error) {
	if s.searcher == nil {
		return nil, fmt.Errorf("vector search is not configured")
	}

	embedding, err := s.embedder.GetEmbedding(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get query embedding: %w", err)
	}

	docs, err := s.searcher.VectorSearch(ctx, embedding, NumRelevantChunks)
	if err != nil {
		return nil, fmt.Errorf("vector search failed: %w", err)
	}
	return docs, nil
}

// RetrieveContext returns the chunk texts of the nearest documents joined
// with blank lines, in backend ranking order. Retrieval is strictly
// best-effort: no backend and every failure map to an empty string so the
// chat flow answers without context instead of failing.
func (s *RAGService) RetrieveContext(ctx context.Context, query string) string {
	if s.searcher == nil {
		return ""
	}

	docs, err := s.SearchDocuments(ctx, query)
	if err != nil {
		log.Printf("RAG retrieval error: %v", err)
		return ""
	}

	chunks := make([]string, 0, len(docs))
	for _, doc := range docs {
		chunks = append(chunks, doc.Chunk)
	}
	return strings.Join(chunks, "\n\n")
}
