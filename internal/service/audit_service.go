package service

import (
	"context"
	"encoding/json"

	"memex-be/internal/pkg/logger"
	"memex-be/pkg/events"

	"github.com/ThreeDotsLabs/watermill/message"
)

// IAuditService writes every domain event on the in-process bus to the log.
type IAuditService interface {
	Consume(ctx context.Context) error
}

type auditService struct {
	bus    *events.ChannelBus
	logger logger.ILogger
}

func NewAuditService(bus *events.ChannelBus, logger logger.ILogger) IAuditService {
	return &auditService{bus: bus, logger: logger}
}

func (as *auditService) Consume(ctx context.Context) error {
	messages, err := as.bus.Subscribe(ctx)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			as.processMessage(msg)
		}
	}()

	return nil
}

func (as *auditService) processMessage(msg *message.Message) {
	// Malformed messages are acked so they are not redelivered forever.
	defer msg.Ack()

	var envelope events.Envelope
	if err := json.Unmarshal(msg.Payload, &envelope); err != nil {
		as.logger.Warn("AUDIT", "Failed to unmarshal event", map[string]interface{}{
			"message_id": msg.UUID,
			"error":      err.Error(),
		})
		return
	}

	as.logger.Info("AUDIT", envelope.Type, map[string]interface{}{
		"message_id":  msg.UUID,
		"occurred_at": envelope.OccurredAt,
		"data":        envelope.Data,
	})
}
