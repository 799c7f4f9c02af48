package api

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/ccnsweden/rag-chatbot/internal/auth"
	"github.com/ccnsweden/rag-chatbot/internal/core"
)

// defaultConversationID names the conversation used when the client does not
// supply one.
const defaultConversationID = "default"

type APIHandler struct {
	credential     *auth.Credential
	chatService    *core.ChatService
	ragService     *core.RAGService
	openAIEnabled  bool
	durableEnabled bool
	staticDir      string
}

func NewAPIHandler(credential *auth.Credential, cs *core.ChatService, rag *core.RAGService, openAIEnabled, durableEnabled bool, staticDir string) *APIHandler {
	return &APIHandler{
		credential:     credential,
		chatService:    cs,
		ragService:     rag,
		openAIEnabled:  openAIEnabled,
		durableEnabled: durableEnabled,
		staticDir:      staticDir,
	}
}

func (h *APIHandler) BasicAuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		username, password, ok := r.BasicAuth()
		if !ok || !h.credential.Verify(username, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="Restricted"`)
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (h *APIHandler) IndexHandler(w http.ResponseWriter, r *http.Request) {
	http.ServeFile(w, r, h.staticDir+"/index.html")
}

type ChatRequest struct {
	Message        string `json:"message"`
	ConversationID string `json:"conversation_id"`
}

type ChatResponse struct {
	Response       string `json:"response"`
	ConversationID string `json:"conversation_id"`
	Storage        string `json:"storage"`
}

func (h *APIHandler) ChatHandler(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	message := strings.TrimSpace(req.Message)
	if message == "" {
		writeError(w, http.StatusBadRequest, "Message is required")
		return
	}

	conversationID := req.ConversationID
	if conversationID == "" {
		conversationID = defaultConversationID
	}

	result, err := h.chatService.Chat(r.Context(), conversationID, message)
	if err != nil {
		log.Printf("Error in chat endpoint for conversation %s: %v", conversationID, err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, ChatResponse{
		Response:       result.Response,
		ConversationID: result.ConversationID,
		Storage:        result.Storage,
	})
}

type ResetRequest struct {
	ConversationID string `json:"conversation_id"`
}

type ResetResponse struct {
	Message string `json:"message"`
	Storage string `json:"storage"`
}

// ResetHandler deletes a conversation. Deletion is best-effort, so this
// always returns 200.
func (h *APIHandler) ResetHandler(w http.ResponseWriter, r *http.Request) {
	var req ResetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		log.Printf("Error decoding reset request: %v", err)
	}

	conversationID := req.ConversationID
	if conversationID == "" {
		conversationID = defaultConversationID
	}

	storage := h.chatService.Reset(r.Context(), conversationID)
	writeJSON(w, http.StatusOK, ResetResponse{
		Message: "Conversation reset successfully",
		Storage: storage,
	})
}

type SearchRequest struct {
	Query string `json:"query"`
}

type SearchResultItem struct {
	Title string `json:"title"`
	Chunk string `json:"chunk"`
}

type SearchResponse struct {
	Results []SearchResultItem `json:"results"`
}

func (h *APIHandler) SearchHandler(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	query := strings.TrimSpace(req.Query)
	if query == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}

	if !h.ragService.Configured() {
		writeError(w, http.StatusInternalServerError, "RAG search is not configured")
		return
	}

	docs, err := h.ragService.SearchDocuments(r.Context(), query)
	if err != nil {
		log.Printf("Error in search endpoint: %v", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	results := make([]SearchResultItem, 0, len(docs))
	for _, doc := range docs {
		results = append(results, SearchResultItem{Title: doc.Title, Chunk: doc.Chunk})
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: results})
}

type HealthResponse struct {
	Status      string `json:"status"`
	Redis       string `json:"redis"`
	AzureOpenAI string `json:"azure_openai"`
	AzureSearch string `json:"azure_search"`
}

func (h *APIHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:      "healthy",
		Redis:       "disabled",
		AzureOpenAI: "not configured",
		AzureSearch: "not configured",
	}
	if h.durableEnabled {
		resp.Redis = "connected"
	}
	if h.openAIEnabled {
		resp.AzureOpenAI = "configured"
	}
	if h.ragService.Configured() {
		resp.AzureSearch = "configured"
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
