package service

import (
	"context"
	"errors"
	"fmt"

	"memex-be/internal/pkg/logger"
	"memex-be/pkg/conversation"
	"memex-be/pkg/events"
)

// errNothingToPersist aborts the finalize transaction without touching state.
var errNothingToPersist = errors.New("nothing to persist")

// ISessionService owns the conversation state for the life of the process.
type ISessionService interface {
	State() *conversation.State
	Finalize(ctx context.Context) error
}

type sessionService struct {
	store     conversation.LogStore
	processor conversation.Processor
	state     *conversation.State
	publisher events.Publisher
	logger    logger.ILogger
}

// NewSessionService restores the meta log from store. A log that exists but
// cannot be decoded is returned as an error; a missing one starts empty.
func NewSessionService(
	ctx context.Context,
	store conversation.LogStore,
	processor conversation.Processor,
	publisher events.Publisher,
	logger logger.ILogger,
) (ISessionService, error) {
	metaLog, found, err := store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load conversation log: %w", err)
	}

	if found {
		logger.Info("SESSION", "Conversation log restored", map[string]interface{}{
			"turns":    len(metaLog.Chat),
			"sessions": len(metaLog.Session),
		})
	} else {
		logger.Info("SESSION", "No conversation log found, starting empty", nil)
	}

	return &sessionService{
		store:     store,
		processor: processor,
		state:     conversation.NewState(metaLog),
		publisher: publisher,
		logger:    logger,
	}, nil
}

func (ss *sessionService) State() *conversation.State {
	return ss.state
}

// Finalize summarizes the turns since the last session record, appends a new
// record and writes the whole meta log. It does nothing when the log is empty
// or when no turn was added since the last record.
func (ss *sessionService) Finalize(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "session.finalize")
	defer span.End()

	var record conversation.SessionRecord
	err := ss.state.Update(func(chatSession *string, metaLog *conversation.MetaLog) error {
		if metaLog.IsEmpty() {
			return errNothingToPersist
		}
		start, end := metaLog.LastSessionEnd(), len(metaLog.Chat)
		if end <= start {
			return errNothingToPersist
		}

		summary, err := ss.processor.Summarize(ctx, *chatSession, conversation.SummaryChat, "")
		if err != nil {
			return fmt.Errorf("summarize session: %w", err)
		}

		record = conversation.SessionRecord{Summary: summary, Start: start, End: end}
		metaLog.Session = append(metaLog.Session, record)

		if err := ss.store.Save(ctx, *metaLog); err != nil {
			return fmt.Errorf("save conversation log: %w", err)
		}
		return nil
	})
	if errors.Is(err, errNothingToPersist) {
		ss.logger.Info("SESSION", "No new turns, conversation log left unchanged", nil)
		return nil
	}
	if err != nil {
		span.RecordError(err)
		ss.logger.Error("SESSION", "Failed to persist session", map[string]interface{}{"error": err.Error()})
		return err
	}

	ss.logger.Info("SESSION", "Session persisted", map[string]interface{}{
		"session_start": record.Start,
		"session_end":   record.End,
	})

	evt := events.New(events.TypeSessionPersisted, map[string]interface{}{
		"session_start": record.Start,
		"session_end":   record.End,
	})
	if err := ss.publisher.Publish(ctx, evt); err != nil {
		ss.logger.Warn("EVENTS", "Failed to publish SESSION_PERSISTED event", map[string]interface{}{"error": err.Error()})
	}
	return nil
}
