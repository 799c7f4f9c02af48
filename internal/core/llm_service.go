package core

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/azure"

	"github.com/ccnsweden/rag-chatbot/internal/config"
	"github.com/ccnsweden/rag-chatbot/internal/store"
)

const (
	azureAPIVersion     = "2025-01-01-preview"
	maxCompletionTokens = 16384
)

// LLMService wraps the two Azure OpenAI clients. Chat and embeddings may
// live on different endpoints with different keys, so each gets its own
// client.
type LLMService struct {
	chatClient          *openai.Client
	embeddingClient     *openai.Client
	chatDeployment      string
	embeddingDeployment string
}

func NewLLMService(cfg config.Config) *LLMService {
	chatClient := openai.NewClient(
		azure.WithEndpoint(cfg.ChatEndpoint, azureAPIVersion),
		azure.WithAPIKey(cfg.ChatAPIKey),
	)
	embeddingClient := openai.NewClient(
		azure.WithEndpoint(cfg.EmbeddingEndpoint, azureAPIVersion),
		azure.WithAPIKey(cfg.EmbeddingAPIKey),
	)

	return &LLMService{
		chatClient:          chatClient,
		embeddingClient:     embeddingClient,
		chatDeployment:      cfg.ChatDeployment,
		embeddingDeployment: cfg.EmbeddingDeployment,
	}
}

// GetChatCompletion sends the full conversation to the completion deployment
// and returns the assistant's reply.
func (s *LLMService) GetChatCompletion(ctx context.Context, conversation store.Conversation) (string, error) {
	if len(conversation) == 0 {
		return "", fmt.Errorf("conversation is empty for chat completion")
	}

	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(conversation))
	for _, turn := range conversation {
		text := turn.Text()
		switch turn.Role {
		case store.RoleSystem:
			messages = append(messages, openai.SystemMessage(text))
		case store.RoleAssistant:
			messages = append(messages, openai.AssistantMessage(text))
		default:
			messages = append(messages, openai.UserMessage(text))
		}
	}

	completion, err := s.chatClient.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages:            openai.F(messages),
		Model:               openai.F(s.chatDeployment),
		MaxCompletionTokens: openai.Int(maxCompletionTokens),
	})
	if err != nil {
		return "", fmt.Errorf("chat completion request failed: %w", err)
	}

	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}
	return completion.Choices[0].Message.Content, nil
}

// GetEmbedding returns the embedding vector for a single piece of text.
func (s *LLMService) GetEmbedding(ctx context.Context, text string) ([]float32, error) {
	res, err := s.embeddingClient.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Input: openai.F[openai.EmbeddingNewParamsInputUnion](openai.EmbeddingNewParamsInputArrayOfStrings([]string{text})),
		Model: openai.F(s.embeddingDeployment),
	})
	if err != nil {
		return nil, fmt.Errorf("embedding request failed: %w", err)
	}

	if len(res.Data) == 0 || len(res.Data[0].Embedding) == 0 {
		return nil, fmt.Errorf("no embedding data received")
	}

	embedding := make([]float32, len(res.Data[0].Embedding))
	for i, v := range res.Data[0].Embedding {
		embedding[i] = float32(v)
	}
	return embedding, nil
}
