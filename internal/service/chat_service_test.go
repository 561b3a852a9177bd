package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"memex-be/internal/pkg/logger"
	"memex-be/pkg/conversation"
	"memex-be/pkg/events"
	"memex-be/pkg/search"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func notesIntent(query string) map[string]any {
	return map[string]any{"intent": map[string]any{"type": "remember", "memory-type": "notes", "query": query}}
}

func generalIntent() map[string]any {
	return map[string]any{"intent": map[string]any{"type": "answer", "memory-type": "general"}}
}

func newTestChatService(processor *fakeProcessor, searcher *fakeSearchService, state *conversation.State, publisher *recordingPublisher) *chatService {
	cs := NewChatService(processor, searcher, state, publisher, logger.NewNopLogger()).(*chatService)
	cs.now = func() time.Time { return time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC) }
	return cs
}

func TestChat_NotesIntentSummarizesTopNote(t *testing.T) {
	processor := &fakeProcessor{intent: notesIntent("coffee shops"), summary: "You liked Blue Bottle."}
	searcher := &fakeSearchService{results: []search.Result{{Entry: "* Coffee shops\nBlue Bottle on Mint St.", Score: 0.9}}}
	state := conversation.NewState(conversation.MetaLog{})
	publisher := &recordingPublisher{}

	reply, err := newTestChatService(processor, searcher, state, publisher).Chat(context.Background(), "Where did I get good coffee?")

	require.NoError(t, err)
	assert.Equal(t, "You liked Blue Bottle.", reply)
	assert.Equal(t, []searchCall{{query: "coffee shops", count: 1, filter: search.Notes}}, searcher.calls)
	assert.Equal(t, []summarizeCall{{
		text:        "* Coffee shops\nBlue Bottle on Mint St.",
		summaryType: conversation.SummaryNotes,
		userQuery:   "Where did I get good coffee?",
	}}, processor.summarized)
	assert.Empty(t, processor.conversed)

	log := state.MetaLog()
	require.Len(t, log.Chat, 1)
	turn := log.Chat[0]
	assert.NotEmpty(t, turn.ID)
	assert.Equal(t, "Where did I get good coffee?", turn.Query)
	assert.Equal(t, "You liked Blue Bottle.", turn.Response)
	assert.Equal(t, "notes", conversation.Lookup(turn.Intent, "intent", "memory-type"))
	assert.Equal(t, "2024-05-01T09:00:00Z", turn.Created)

	assert.Equal(t, "\nHuman: Where did I get good coffee?\nAI: You liked Blue Bottle.", state.ChatSession())
	assert.Equal(t, []string{events.TypeChatTurnLogged}, publisher.types())
}

func TestChat_NotesIntentWithoutRefinedQueryFallsBackToUserQuery(t *testing.T) {
	processor := &fakeProcessor{intent: notesIntent(""), summary: "Nothing found."}
	searcher := &fakeSearchService{results: []search.Result{}}

	_, err := newTestChatService(processor, searcher, conversation.NewState(conversation.MetaLog{}), &recordingPublisher{}).
		Chat(context.Background(), "what did I plant?")

	require.NoError(t, err)
	require.Len(t, searcher.calls, 1)
	assert.Equal(t, "what did I plant?", searcher.calls[0].query)
	assert.Equal(t, "", processor.summarized[0].text)
}

func TestChat_GeneralIntentContinuesTranscript(t *testing.T) {
	processor := &fakeProcessor{intent: generalIntent(), reply: "Hello Ana."}
	searcher := &fakeSearchService{}
	state := conversation.NewState(conversation.MetaLog{})
	cs := newTestChatService(processor, searcher, state, &recordingPublisher{})

	_, err := cs.Chat(context.Background(), "Hi, I am Ana")
	require.NoError(t, err)
	processor.reply = "Your name is Ana."
	reply, err := cs.Chat(context.Background(), "What is my name?")
	require.NoError(t, err)

	assert.Equal(t, "Your name is Ana.", reply)
	assert.Empty(t, searcher.calls)
	assert.Equal(t, []string{"", "\nHuman: Hi, I am Ana\nAI: Hello Ana."}, processor.conversed)
	assert.Len(t, state.MetaLog().Chat, 2)
	assert.Equal(t,
		"\nHuman: Hi, I am Ana\nAI: Hello Ana.\nHuman: What is my name?\nAI: Your name is Ana.",
		state.ChatSession())
}

func TestChat_FailureLeavesStateUntouched(t *testing.T) {
	tests := []struct {
		name      string
		processor *fakeProcessor
		searcher  *fakeSearchService
	}{
		{
			name:      "classifier fails",
			processor: &fakeProcessor{understandErr: errors.New("timeout")},
			searcher:  &fakeSearchService{},
		},
		{
			name:      "search fails",
			processor: &fakeProcessor{intent: notesIntent("coffee")},
			searcher:  &fakeSearchService{err: errors.New("index corrupt")},
		},
		{
			name:      "summarizer fails",
			processor: &fakeProcessor{intent: notesIntent("coffee"), summarizeErr: errors.New("rate limited")},
			searcher:  &fakeSearchService{results: []search.Result{{Entry: "note"}}},
		},
		{
			name:      "completion fails",
			processor: &fakeProcessor{intent: generalIntent(), converseErr: errors.New("rate limited")},
			searcher:  &fakeSearchService{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := conversation.NewState(conversation.MetaLog{Chat: turns(2)})
			publisher := &recordingPublisher{}

			reply, err := newTestChatService(tt.processor, tt.searcher, state, publisher).Chat(context.Background(), "q")

			require.Error(t, err)
			assert.Empty(t, reply)
			assert.Len(t, state.MetaLog().Chat, 2)
			assert.Empty(t, state.ChatSession())
			assert.Empty(t, publisher.types())
		})
	}
}
