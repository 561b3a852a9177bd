package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// Topic is the in-process topic every domain event is published on.
const Topic = "memex.events"

// Envelope is the wire form of an event on the in-process bus.
type Envelope struct {
	Type       string                 `json:"type"`
	Data       map[string]interface{} `json:"data"`
	OccurredAt time.Time              `json:"occurred_at"`
}

// ChannelBus is an in-process event bus backed by a watermill go channel.
type ChannelBus struct {
	pubSub *gochannel.GoChannel
}

var _ Publisher = (*ChannelBus)(nil)

func NewChannelBus(logger watermill.LoggerAdapter) *ChannelBus {
	return &ChannelBus{
		pubSub: gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 64}, logger),
	}
}

func (b *ChannelBus) Publish(_ context.Context, event Event) error {
	payload, err := json.Marshal(Envelope{
		Type:       event.EventType(),
		Data:       event.Payload(),
		OccurredAt: event.Timestamp(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal event payload: %w", err)
	}
	return b.pubSub.Publish(Topic, message.NewMessage(watermill.NewUUID(), payload))
}

func (b *ChannelBus) Subscribe(ctx context.Context) (<-chan *message.Message, error) {
	return b.pubSub.Subscribe(ctx, Topic)
}

func (b *ChannelBus) Close() error {
	return b.pubSub.Close()
}

// Fanout publishes to every publisher and joins their errors.
type Fanout []Publisher

func (f Fanout) Publish(ctx context.Context, event Event) error {
	var errs []error
	for _, p := range f {
		if p == nil {
			continue
		}
		if err := p.Publish(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
