package core

import (
	"context"
	"fmt"

	"github.com/ccnsweden/rag-chatbot/internal/store"
)

// contextLabel prefixes retrieved passages when they are injected into a
// conversation.
const contextLabel = "Relevant context from documents:"

// ChatService runs the chat and reset flows over the session store, the
// retriever and the completion gateway.
type ChatService struct {
	sessions   *store.SessionStore
	ragService *RAGService
	completer  Completer

	// maxTurns caps stored conversation length; 0 means unbounded, which
	// matches the historical behavior.
	maxTurns int
}

func NewChatService(sessions *store.SessionStore, rag *RAGService, completer Completer, maxTurns int) *ChatService {
	return &ChatService{
		sessions:   sessions,
		ragService: rag,
		completer:  completer,
		maxTurns:   maxTurns,
	}
}

// ChatResult is the outcome of one successful chat exchange.
type ChatResult struct {
	Response       string
	ConversationID string
	Storage        string
}

// Chat loads or lazily creates the conversation, injects retrieved context
// when there is any, appends the user turn, asks the completion gateway for
// a reply, appends it and saves. Retrieval and persistence failures degrade;
// only a completion failure is returned, and in that case nothing is saved.
func (s *ChatService) Chat(ctx context.Context, conversationID, userMessage string) (*ChatResult, error) {
	conversation, ok := s.sessions.Get(ctx, conversationID)
	if !ok {
		conversation = store.NewConversation()
	}

	ragContext := s.ragService.RetrieveContext(ctx, userMessage)
	if ragContext != "" {
		conversation = conversation.Append(store.RoleSystem, fmt.Sprintf("%s\n%s", contextLabel, ragContext))
	}

	conversation = conversation.Append(store.RoleUser, userMessage)
	conversation = s.applyRetention(conversation)

	assistantMessage, err := s.completer.GetChatCompletion(ctx, conversation)
	if err != nil {
		return nil, fmt.Errorf("failed to get completion: %w", err)
	}

	// Trim again after the assistant turn so the stored length also honors
	// the cap, not just the prompt sent to the gateway.
	conversation = conversation.Append(store.RoleAssistant, assistantMessage)
	conversation = s.applyRetention(conversation)
	savedDurably := s.sessions.Save(ctx, conversationID, conversation)

	return &ChatResult{
		Response:       assistantMessage,
		ConversationID: conversationID,
		Storage:        storageLabel(savedDurably, s.sessions),
	}, nil
}

// Reset removes the conversation from both backends. Deleting an unknown
// identifier is a no-op.
func (s *ChatService) Reset(ctx context.Context, conversationID string) string {
	deletedDurably := s.sessions.Delete(ctx, conversationID)
	return storageLabel(deletedDurably, s.sessions)
}

func storageLabel(durable bool, sessions *store.SessionStore) string {
	if durable {
		return sessions.Backend()
	}
	return "memory"
}

// applyRetention trims the oldest turns when the conversation exceeds the
// configured cap. The leading system preamble always survives.
func (s *ChatService) applyRetention(conversation store.Conversation) store.Conversation {
	if s.maxTurns <= 0 || len(conversation) <= s.maxTurns {
		return conversation
	}

	trimmed := store.Conversation{conversation[0]}
	keep := s.maxTurns - 1
	trimmed = append(trimmed, conversation[len(conversation)-keep:]...)
	return trimmed
}
