package ollama

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"memex-be/pkg/llm"

	ollama "github.com/ollama/ollama/api"
)

type OllamaProvider struct {
	client    *ollama.Client
	modelName string
}

// Ensure OllamaProvider implements LLMProvider
var _ llm.LLMProvider = &OllamaProvider{}

func NewOllamaProvider(baseURL, modelName string) (*OllamaProvider, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse ollama url: %w", err)
	}
	return &OllamaProvider{
		client:    ollama.NewClient(u, &http.Client{Timeout: 120 * time.Second}),
		modelName: modelName,
	}, nil
}

func (o *OllamaProvider) Chat(ctx context.Context, history []llm.Message, opts ...llm.Option) (string, error) {
	options := llm.Apply(opts)

	messages := make([]ollama.Message, len(history))
	for i, msg := range history {
		role := msg.Role
		if role == "model" {
			role = llm.RoleAssistant
		}
		messages[i] = ollama.Message{Role: role, Content: msg.Content}
	}

	modelOptions := map[string]any{"temperature": options.Temperature}
	if options.MaxTokens > 0 {
		modelOptions["num_predict"] = options.MaxTokens
	}
	if len(options.Stop) > 0 {
		modelOptions["stop"] = options.Stop
	}

	stream := false
	req := &ollama.ChatRequest{
		Model:    o.modelName,
		Messages: messages,
		Stream:   &stream,
		Options:  modelOptions,
	}

	var reply strings.Builder
	err := o.client.Chat(ctx, req, func(resp ollama.ChatResponse) error {
		reply.WriteString(resp.Message.Content)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("ollama request failed: %w", err)
	}

	content := strings.TrimSpace(reply.String())
	if content == "" {
		return "", llm.ErrEmptyResponse
	}
	return content, nil
}

func (o *OllamaProvider) Generate(ctx context.Context, prompt string, opts ...llm.Option) (string, error) {
	// Reuse Chat for simplicity as most new LLMs are chat-optimized
	return o.Chat(ctx, []llm.Message{{Role: llm.RoleUser, Content: prompt}}, opts...)
}
