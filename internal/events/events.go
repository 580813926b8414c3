package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/apache/pulsar-client-go/pulsar"
	"github.com/google/uuid"
)

// Event types published for complaint activity.
const (
	TypeCreated          = "COMPLAINT_CREATED"
	TypeStatusChanged    = "STATUS_CHANGED"
	TypeAssigned         = "ASSIGNED"
	TypeReopened         = "REOPENED"
	TypeFeedback         = "FEEDBACK_RECEIVED"
	TypeSLAWarning       = "SLA_WARNING"
	TypeSLABreached      = "SLA_BREACHED"
	TypeWardChangeDecide = "WARD_CHANGE_DECIDED"
	TypeOTPIssued        = "OTP_ISSUED"
)

// ComplaintEvent is the message exchanged between the API, the SLA monitor
// and the notification consumer.
type ComplaintEvent struct {
	Type              string    `json:"type"`
	CorrelationID     string    `json:"correlationId"`
	ComplaintID       int64     `json:"complaintId,omitempty"`
	Title             string    `json:"title,omitempty"`
	Status            string    `json:"status,omitempty"`
	PreviousStatus    string    `json:"previousStatus,omitempty"`
	ActorID           int64     `json:"actorId,omitempty"`
	CitizenID         int64     `json:"citizenId,omitempty"`
	AssignedOfficerID *int64    `json:"assignedOfficerId,omitempty"`
	WardID            int64     `json:"wardId,omitempty"`
	Remarks           string    `json:"remarks,omitempty"`
	Timestamp         time.Time `json:"timestamp"`
}

// NewComplaintEvent stamps a new event with a correlation id and timestamp.
func NewComplaintEvent(eventType string, complaintID int64) ComplaintEvent {
	return ComplaintEvent{
		Type:          eventType,
		CorrelationID: uuid.NewString(),
		ComplaintID:   complaintID,
		Timestamp:     time.Now().UTC(),
	}
}

// Notifier is implemented by anything that can deliver complaint events.
type Notifier interface {
	Publish(event ComplaintEvent) error
	Close()
}

type EventPublisher struct {
	client   pulsar.Client
	producer pulsar.Producer
}

// NewEventPublisher initializes the Pulsar client and producer.
func NewEventPublisher(pulsarURL, topic string) (*EventPublisher, error) {
	client, err := pulsar.NewClient(pulsar.ClientOptions{
		URL: pulsarURL,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create Pulsar client: %w", err)
	}

	producer, err := client.CreateProducer(pulsar.ProducerOptions{
		Topic: topic,
	})
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("could not create Pulsar producer: %w", err)
	}

	return &EventPublisher{
		client:   client,
		producer: producer,
	}, nil
}

// Publish sends a complaint event to Pulsar, keyed by complaint so events for
// one complaint stay ordered.
func (p *EventPublisher) Publish(event ComplaintEvent) error {
	message, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("could not serialize event payload: %w", err)
	}

	_, err = p.producer.Send(context.Background(), &pulsar.ProducerMessage{
		Payload: message,
		Key:     fmt.Sprintf("complaint-%d", event.ComplaintID),
		Properties: map[string]string{
			"type": event.Type,
		},
	})
	if err != nil {
		return fmt.Errorf("could not send event to Pulsar: %w", err)
	}

	return nil
}

// Close cleans up the Pulsar producer and client.
func (p *EventPublisher) Close() {
	p.producer.Close()
	p.client.Close()
}

// Decode parses a Pulsar payload into a ComplaintEvent.
func Decode(payload []byte) (ComplaintEvent, error) {
	var event ComplaintEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return event, fmt.Errorf("error unmarshaling event: %w", err)
	}
	if event.Type == "" {
		return event, fmt.Errorf("event has no type")
	}
	return event, nil
}
