package events

import (
	"context"
	"errors"
	"fmt"

	"github.com/apache/pulsar-client-go/pulsar"
	"github.com/rs/zerolog"
)

// Handler processes one decoded complaint event.
type Handler func(ctx context.Context, event ComplaintEvent) error

type EventConsumer struct {
	client   pulsar.Client
	consumer pulsar.Consumer
	log      *zerolog.Logger
}

// NewEventConsumer subscribes to the complaint event topic. Messages that fail
// three times are moved to the "<topic>-dlq" topic.
func NewEventConsumer(pulsarURL, topic, subscription string, log *zerolog.Logger) (*EventConsumer, error) {
	client, err := pulsar.NewClient(pulsar.ClientOptions{URL: pulsarURL})
	if err != nil {
		return nil, fmt.Errorf("could not create Pulsar client: %w", err)
	}

	consumer, err := client.Subscribe(pulsar.ConsumerOptions{
		Topic:            topic,
		SubscriptionName: subscription,
		Type:             pulsar.KeyShared,
		DLQ: &pulsar.DLQPolicy{
			MaxDeliveries:   3,
			DeadLetterTopic: topic + "-dlq",
		},
	})
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("could not create Pulsar consumer: %w", err)
	}

	return &EventConsumer{client: client, consumer: consumer, log: log}, nil
}

// Run receives events until ctx is cancelled. Undecodable payloads are acked
// and dropped; handler failures are nacked for redelivery.
func (c *EventConsumer) Run(ctx context.Context, handle Handler) error {
	for {
		msg, err := c.consumer.Receive(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				return nil
			}
			c.log.Error().Err(err).Msg("Error receiving message")
			continue
		}

		event, err := Decode(msg.Payload())
		if err != nil {
			c.log.Warn().Err(err).Str("message_id", msg.ID().String()).Msg("Dropping malformed event")
			c.consumer.Ack(msg)
			continue
		}

		logger := c.log.With().Str("event_type", event.Type).
			Int64("complaint_id", event.ComplaintID).
			Str("correlation_id", event.CorrelationID).Logger()

		if err := handle(ctx, event); err != nil {
			logger.Error().Err(err).Msg("Failed to handle event, requesting redelivery")
			c.consumer.Nack(msg)
			continue
		}

		logger.Debug().Msg("Event handled")
		c.consumer.Ack(msg)
	}
}

// Close cleans up the Pulsar consumer and client.
func (c *EventConsumer) Close() {
	c.consumer.Close()
	c.client.Close()
}
