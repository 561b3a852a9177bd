package conversation

import (
	"context"
	"errors"
	"strings"
	"testing"

	"memex-be/pkg/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedProvider struct {
	reply   string
	err     error
	prompts []string
	options []*llm.Options
}

func (p *scriptedProvider) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	return p.Generate(ctx, history[len(history)-1].Content, options...)
}

func (p *scriptedProvider) Generate(_ context.Context, prompt string, options ...llm.Option) (string, error) {
	p.prompts = append(p.prompts, prompt)
	p.options = append(p.options, llm.Apply(options))
	return p.reply, p.err
}

func TestParseIntent(t *testing.T) {
	tests := []struct {
		name       string
		reply      string
		wantMemory string
		wantErr    bool
	}{
		{
			name:       "bare json",
			reply:      `{"intent": {"memory-type": "notes", "query": "coffee shops"}}`,
			wantMemory: "notes",
		},
		{
			name:       "json wrapped in prose",
			reply:      "Sure!\n{\"intent\": {\"memory-type\": \"general\"}}\nHope that helps.",
			wantMemory: "general",
		},
		{name: "no json", reply: "I cannot classify that", wantErr: true},
		{name: "broken json", reply: `{"intent": {`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			meta, err := ParseIntent(tt.reply)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrIntentParse)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantMemory, Lookup(meta, "intent", "memory-type"))
		})
	}
}

func TestLookup(t *testing.T) {
	meta := map[string]any{
		"intent": map[string]any{"memory-type": "notes", "depth": 3},
		"flat":   "value",
	}

	assert.Equal(t, "notes", Lookup(meta, "intent", "memory-type"))
	assert.Equal(t, "value", Lookup(meta, "flat"))
	assert.Empty(t, Lookup(meta, "intent", "depth"))
	assert.Empty(t, Lookup(meta, "flat", "deeper"))
	assert.Empty(t, Lookup(nil, "intent"))
}

func TestMessageToPrompt(t *testing.T) {
	assert.Equal(t, "\nHuman: hi\nAI: hello", MessageToPrompt("", "hi", "hello"))
	assert.Equal(t, "prior\nHuman: again\nAI:", MessageToPrompt("prior", "again", ""))
}

func TestLLMProcessor_Understand(t *testing.T) {
	provider := &scriptedProvider{reply: `{"intent": {"memory-type": "notes", "query": "coffee shops"}}`}
	meta, err := NewLLMProcessor(provider).Understand(context.Background(), "Where did I get coffee?")

	require.NoError(t, err)
	assert.Equal(t, "coffee shops", Lookup(meta, "intent", "query"))
	assert.True(t, strings.HasSuffix(strings.TrimSpace(provider.prompts[0]), "Message: Where did I get coffee?"))
	assert.Zero(t, provider.options[0].Temperature)
}

func TestLLMProcessor_ConverseUsesTranscript(t *testing.T) {
	provider := &scriptedProvider{reply: "  Nice to meet you, Ana.  "}
	reply, err := NewLLMProcessor(provider).Converse(context.Background(), "My name is Ana", "\nHuman: hi\nAI: hello")

	require.NoError(t, err)
	assert.Equal(t, "Nice to meet you, Ana.", reply)
	assert.Contains(t, provider.prompts[0], "\nHuman: hi\nAI: hello\nHuman: My name is Ana\nAI:")
	assert.Equal(t, []string{"Human:"}, provider.options[0].Stop)
}

func TestLLMProcessor_Summarize(t *testing.T) {
	provider := &scriptedProvider{reply: "You went to Blue Bottle."}
	processor := NewLLMProcessor(provider)

	summary, err := processor.Summarize(context.Background(), "* Coffee shops\nBlue Bottle", SummaryNotes, "Where did I get coffee?")
	require.NoError(t, err)
	assert.Equal(t, "You went to Blue Bottle.", summary)
	assert.Contains(t, provider.prompts[0], `"Where did I get coffee?"`)
	assert.Contains(t, provider.prompts[0], "Blue Bottle")

	_, err = processor.Summarize(context.Background(), "x", SummaryType("poem"), "")
	assert.Error(t, err)
}

func TestLLMProcessor_ProviderError(t *testing.T) {
	provider := &scriptedProvider{err: errors.New("connection refused")}
	_, err := NewLLMProcessor(provider).Converse(context.Background(), "hi", "")
	assert.ErrorContains(t, err, "converse")
}
