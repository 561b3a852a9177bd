package conversation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"memex-be/pkg/llm"
)

var ErrIntentParse = errors.New("conversation: could not parse intent")

// Processor is the language-model side of a conversation.
type Processor interface {
	// Understand classifies an utterance into structured intent metadata.
	Understand(ctx context.Context, text string) (map[string]any, error)
	// Converse continues chatSession with text.
	Converse(ctx context.Context, text, chatSession string) (string, error)
	// Summarize condenses text; userQuery frames "notes" summaries.
	Summarize(ctx context.Context, text string, summaryType SummaryType, userQuery string) (string, error)
}

// LLMProcessor implements Processor on top of any LLMProvider.
type LLMProcessor struct {
	provider llm.LLMProvider
}

var _ Processor = (*LLMProcessor)(nil)

func NewLLMProcessor(provider llm.LLMProvider) *LLMProcessor {
	return &LLMProcessor{provider: provider}
}

func (p *LLMProcessor) Understand(ctx context.Context, text string) (map[string]any, error) {
	reply, err := p.provider.Generate(ctx, buildUnderstandPrompt(text), llm.WithTemperature(0))
	if err != nil {
		return nil, fmt.Errorf("understand: %w", err)
	}
	return ParseIntent(reply)
}

func (p *LLMProcessor) Converse(ctx context.Context, text, chatSession string) (string, error) {
	reply, err := p.provider.Generate(ctx, buildConversePrompt(text, chatSession),
		llm.WithTemperature(0.9),
		llm.WithMaxTokens(400),
		llm.WithStop(strings.TrimPrefix(humanPrefix, "\n")),
	)
	if err != nil {
		return "", fmt.Errorf("converse: %w", err)
	}
	return strings.TrimSpace(reply), nil
}

func (p *LLMProcessor) Summarize(ctx context.Context, text string, summaryType SummaryType, userQuery string) (string, error) {
	prompt, err := buildSummarizePrompt(text, summaryType, userQuery)
	if err != nil {
		return "", err
	}
	reply, err := p.provider.Generate(ctx, prompt, llm.WithTemperature(0.5), llm.WithMaxTokens(300))
	if err != nil {
		return "", fmt.Errorf("summarize %s: %w", summaryType, err)
	}
	return strings.TrimSpace(reply), nil
}

// ParseIntent extracts the first JSON object in reply.
func ParseIntent(reply string) (map[string]any, error) {
	start := strings.Index(reply, "{")
	end := strings.LastIndex(reply, "}")
	if start < 0 || end < start {
		return nil, fmt.Errorf("%w: no JSON object in %q", ErrIntentParse, reply)
	}

	var metadata map[string]any
	if err := json.Unmarshal([]byte(reply[start:end+1]), &metadata); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIntentParse, err)
	}
	return metadata, nil
}

// Lookup walks nested maps along keys and returns the string found there.
func Lookup(metadata map[string]any, keys ...string) string {
	var current any = metadata
	for _, k := range keys {
		m, ok := current.(map[string]any)
		if !ok {
			return ""
		}
		current = m[k]
	}
	s, _ := current.(string)
	return s
}
