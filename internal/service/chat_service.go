package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"memex-be/internal/pkg/logger"
	"memex-be/pkg/conversation"
	"memex-be/pkg/events"
	"memex-be/pkg/search"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// IChatService answers one chat turn at a time against the process-wide
// conversation.
type IChatService interface {
	Chat(ctx context.Context, query string) (string, error)
}

type chatService struct {
	processor     conversation.Processor
	searchService ISearchService
	state         *conversation.State
	publisher     events.Publisher
	logger        logger.ILogger
	now           func() time.Time
}

func NewChatService(
	processor conversation.Processor,
	searchService ISearchService,
	state *conversation.State,
	publisher events.Publisher,
	logger logger.ILogger,
) IChatService {
	return &chatService{
		processor:     processor,
		searchService: searchService,
		state:         state,
		publisher:     publisher,
		logger:        logger,
		now:           time.Now,
	}
}

// Chat classifies the query, answers it either from a notes summary or by
// continuing the conversation, then logs the turn. Nothing is logged unless
// every step succeeds.
func (cs *chatService) Chat(ctx context.Context, query string) (string, error) {
	ctx, span := tracer.Start(ctx, "chat.turn")
	defer span.End()

	metadata, err := cs.processor.Understand(ctx, query)
	if err != nil {
		return cs.fail(span, "classify intent", err)
	}

	memoryType := conversation.Lookup(metadata, "intent", "memory-type")
	span.SetAttributes(attribute.String("chat.memory_type", memoryType))

	var response string
	if memoryType == string(search.Notes) {
		response, err = cs.answerFromNotes(ctx, query, metadata)
	} else {
		response, err = cs.processor.Converse(ctx, query, cs.state.ChatSession())
	}
	if err != nil {
		return cs.fail(span, "answer", err)
	}

	turn := conversation.TurnRecord{
		ID:       uuid.NewString(),
		Created:  cs.now().UTC().Format(time.RFC3339),
		Query:    query,
		Intent:   metadata,
		Response: response,
	}
	var turns int
	err = cs.state.Update(func(chatSession *string, log *conversation.MetaLog) error {
		*chatSession = conversation.MessageToPrompt(*chatSession, query, response)
		log.Chat = append(log.Chat, turn)
		turns = len(log.Chat)
		return nil
	})
	if err != nil {
		return cs.fail(span, "log turn", err)
	}

	cs.logger.Info("CHAT", "Turn logged", map[string]interface{}{
		"turn_id":     turn.ID,
		"memory_type": memoryType,
		"turns":       turns,
	})

	evt := events.New(events.TypeChatTurnLogged, map[string]interface{}{
		"turn_id":     turn.ID,
		"memory_type": memoryType,
	})
	if err := cs.publisher.Publish(ctx, evt); err != nil {
		cs.logger.Warn("EVENTS", "Failed to publish CHAT_TURN_LOGGED event", map[string]interface{}{"error": err.Error()})
	}

	return response, nil
}

// answerFromNotes looks up the single best note for the refined query and
// summarizes it in light of the user's question.
func (cs *chatService) answerFromNotes(ctx context.Context, query string, metadata map[string]any) (string, error) {
	refined := conversation.Lookup(metadata, "intent", "query")
	if strings.TrimSpace(refined) == "" {
		refined = query
	}

	results, err := cs.searchService.Search(ctx, refined, 1, search.Notes)
	if err != nil {
		return "", err
	}

	entries := make([]string, 0, len(results))
	for _, r := range results {
		entries = append(entries, r.Entry)
	}

	return cs.processor.Summarize(ctx, strings.Join(entries, "\n"), conversation.SummaryNotes, query)
}

func (cs *chatService) fail(span trace.Span, stage string, err error) (string, error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, stage)
	cs.logger.Error("CHAT", "Turn failed", map[string]interface{}{
		"stage": stage,
		"error": err.Error(),
	})
	return "", fmt.Errorf("%s: %w", stage, err)
}
