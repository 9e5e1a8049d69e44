package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	log "github.com/sirupsen/logrus"
)

// MessagePublisher publishes raw messages to a subject. *nats.Conn satisfies it.
type MessagePublisher interface {
	Publish(subject string, data []byte) error
}

// Envelope wraps a domain event on the wire
type Envelope struct {
	EventID   string          `json:"event_id"`
	EventType string          `json:"event_type"`
	Timestamp time.Time       `json:"timestamp"`
	Source    string          `json:"source"`
	Payload   json.RawMessage `json:"payload"`
}

// NATSForwarder republishes committed bus events to NATS subjects
type NATSForwarder struct {
	publisher     MessagePublisher
	subjectPrefix string
	now           func() time.Time
}

// NewNATSForwarder creates a forwarder publishing to <subjectPrefix>.<event_type>
func NewNATSForwarder(publisher MessagePublisher, subjectPrefix string) *NATSForwarder {
	return &NATSForwarder{
		publisher:     publisher,
		subjectPrefix: subjectPrefix,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// SubjectFor maps an event type to its NATS subject
func (f *NATSForwarder) SubjectFor(eventType EventType) string {
	return fmt.Sprintf("%s.%s", f.subjectPrefix, eventType)
}

// Attach subscribes the forwarder to every event type on the bus
func (f *NATSForwarder) Attach(bus *Bus) {
	for _, eventType := range AllEventTypes() {
		bus.Subscribe(eventType, f.handle)
	}
}

func (f *NATSForwarder) handle(ctx context.Context, event Event) {
	if err := f.Forward(event); err != nil {
		log.WithFields(log.Fields{
			"eventType": event.Type(),
			"error":     err,
		}).Error("Failed to forward event to NATS")
	}
}

// Forward serializes an event into an envelope and publishes it
func (f *NATSForwarder) Forward(event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event payload: %w", err)
	}

	envelope := Envelope{
		EventID:   uuid.New().String(),
		EventType: string(event.Type()),
		Timestamp: f.now(),
		Source:    "kickwager",
		Payload:   payload,
	}

	data, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("failed to marshal event envelope: %w", err)
	}

	subject := f.SubjectFor(event.Type())
	if err := f.publisher.Publish(subject, data); err != nil {
		return fmt.Errorf("failed to publish event to %s: %w", subject, err)
	}

	log.WithFields(log.Fields{
		"eventType": event.Type(),
		"eventId":   envelope.EventID,
		"subject":   subject,
	}).Debug("Forwarded event to NATS")
	return nil
}

// ConnectNATS dials the given servers with reconnect handling
func ConnectNATS(servers string) (*nats.Conn, error) {
	opts := []nats.Option{
		nats.Name("kickwager"),
		nats.MaxReconnects(10),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			if err != nil {
				log.WithError(err).Error("NATS disconnected with error")
			} else {
				log.Warn("NATS disconnected")
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info("NATS reconnected")
		}),
	}

	nc, err := nats.Connect(servers, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	log.WithField("servers", servers).Info("Connected to NATS")
	return nc, nil
}
