package feed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/goccy/go-json"

	"github.com/filmorate/backend/internal/logging"
	"github.com/filmorate/backend/internal/metrics"
	"github.com/filmorate/backend/internal/models"
)

// Topic carries every committed activity event.
const Topic = "filmorate.feed.events"

// Publisher announces committed events to in-process observers. Publishing is
// best effort: the event is already durable in the store.
type Publisher interface {
	Publish(ctx context.Context, event models.Event)
}

// Handler processes one delivered event.
type Handler func(ctx context.Context, event models.Event) error

// eventMessage is the payload written to the topic.
type eventMessage struct {
	ID        int64  `json:"eventId"`
	UserID    int64  `json:"userId"`
	EntityID  int64  `json:"entityId"`
	Type      string `json:"eventType"`
	Operation string `json:"operation"`
	Timestamp int64  `json:"timestamp"`
}

var errBusClosed = errors.New("event bus closed")

// Bus is an in-process watermill pub/sub for activity events.
type Bus struct {
	pubsub *gochannel.GoChannel
	logger *slog.Logger

	mu     sync.RWMutex
	closed bool
}

// NewBus constructs an in-process bus. Delivery order across events is not
// guaranteed.
func NewBus(logger *slog.Logger) *Bus {
	return newBus(logger, gochannel.Config{OutputChannelBuffer: 256})
}

func newBus(logger *slog.Logger, cfg gochannel.Config) *Bus {
	if logger == nil {
		logger = slog.Default()
	}
	pubsub := gochannel.NewGoChannel(cfg, watermill.NewSlogLogger(logger))
	return &Bus{pubsub: pubsub, logger: logger}
}

// Publish encodes and publishes event. Failures are logged and counted.
func (b *Bus) Publish(ctx context.Context, event models.Event) {
	if err := b.publish(event); err != nil {
		metrics.FeedPublishErrors.Inc()
		logging.FromContext(ctx).Error("publish feed event failed",
			"eventId", event.ID,
			"eventType", event.Type,
			"operation", event.Operation,
			"error", err,
		)
	}
}

func (b *Bus) publish(event models.Event) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return errBusClosed
	}

	payload, err := json.Marshal(eventMessage{
		ID:        event.ID,
		UserID:    event.UserID,
		EntityID:  event.EntityID,
		Type:      string(event.Type),
		Operation: string(event.Operation),
		Timestamp: event.Timestamp.UnixMilli(),
	})
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.Metadata.Set("event_type", string(event.Type))
	msg.Metadata.Set("event_id", strconv.FormatInt(event.ID, 10))
	return b.pubsub.Publish(Topic, msg)
}

// Run delivers events to handle until ctx is cancelled or the bus is closed.
func (b *Bus) Run(ctx context.Context, handle Handler) error {
	messages, err := b.pubsub.Subscribe(ctx, Topic)
	if err != nil {
		return fmt.Errorf("subscribe to %s: %w", Topic, err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			event, err := decode(msg.Payload)
			if err == nil {
				err = handle(msg.Context(), event)
			}
			if err != nil {
				b.logger.Error("feed event handling failed", "messageId", msg.UUID, "error", err)
			}
			// Failed events are dropped, never redelivered.
			msg.Ack()
		}
	}
}

// Close stops the bus and ends every running subscriber.
func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	return b.pubsub.Close()
}

func decode(payload []byte) (models.Event, error) {
	var m eventMessage
	if err := json.Unmarshal(payload, &m); err != nil {
		return models.Event{}, fmt.Errorf("decode event: %w", err)
	}
	return models.Event{
		ID:        m.ID,
		UserID:    m.UserID,
		EntityID:  m.EntityID,
		Type:      models.EventType(m.Type),
		Operation: models.Operation(m.Operation),
		Timestamp: time.UnixMilli(m.Timestamp).UTC(),
	}, nil
}

// CountEvents is a Handler that feeds the activity counters.
func CountEvents(_ context.Context, event models.Event) error {
	metrics.RecordFeedEvent(string(event.Type), string(event.Operation))
	return nil
}
