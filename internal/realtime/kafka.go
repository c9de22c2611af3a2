package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
)

var logger = zerolog.New(os.Stdout).With().Timestamp().Str("component", "realtime").Logger()

type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
}

type Publisher struct {
	writer MessageWriter
}

func NewPublisher(writer MessageWriter) *Publisher {
	return &Publisher{writer: writer}
}

// Publish writes snapshot as JSON to the entity's topic.
func (p *Publisher) Publish(ctx context.Context, entity, event, id string, snapshot interface{}) error {
	topic, err := TopicFor(entity)
	if err != nil {
		return err
	}

	value, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}

	msg := kafka.Message{
		Topic: topic,
		Key:   []byte(Event{Entity: entity, Type: event, ID: id}.Key()),
		Value: value,
	}
	return p.writer.WriteMessages(ctx, msg)
}

// Subscribe reads messages until ctx is cancelled and delivers them as
// events. The returned channel is closed when the reader stops.
func Subscribe(ctx context.Context, reader MessageReader) <-chan Event {
	events := make(chan Event, 16)

	go func() {
		defer close(events)
		for {
			msg, err := reader.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil || errors.Is(err, context.Canceled) {
					return
				}
				logger.Error().Err(err).Msg("Error reading message")
				select {
				case <-ctx.Done():
					return
				case <-time.After(time.Second):
				}
				continue
			}

			entity, event, id, err := ParseKey(string(msg.Key))
			if err != nil {
				logger.Warn().Err(err).Str("topic", msg.Topic).Msg("Skipping message")
				continue
			}

			select {
			case events <- Event{Entity: entity, Type: event, ID: id, Payload: msg.Value}:
			case <-ctx.Done():
				return
			}
		}
	}()

	return events
}
