package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"
)

// Shipping event subjects
const (
	SubjectShipmentCreated = "shipping.shipment_created"
	SubjectLabelCreated    = "shipping.label_created"
	SubjectPickupScheduled = "shipping.pickup_scheduled"
)

const streamName = "SHIPPING_EVENTS"

// Envelope wraps every published payload with routing metadata.
type Envelope struct {
	EventID   string      `json:"eventId"`
	EventType string      `json:"eventType"`
	Source    string      `json:"source"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
}

// Publisher publishes shipping lifecycle events to NATS JetStream.
type Publisher struct {
	conn   *nats.Conn
	js     nats.JetStreamContext
	logger *logrus.Entry
}

// NewPublisher connects to NATS and ensures the shipping stream exists.
func NewPublisher(natsURL string, logger *logrus.Logger) (*Publisher, error) {
	conn, err := nats.Connect(natsURL,
		nats.Name("aoin-shipping-service"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to get JetStream context: %w", err)
	}

	if _, err := js.StreamInfo(streamName); err != nil {
		_, err = js.AddStream(&nats.StreamConfig{
			Name:      streamName,
			Subjects:  []string{"shipping.>"},
			Retention: nats.LimitsPolicy,
			MaxAge:    7 * 24 * time.Hour,
		})
		if err != nil {
			logger.WithError(err).Warnf("Failed to ensure %s stream", streamName)
		}
	}

	return &Publisher{
		conn:   conn,
		js:     js,
		logger: logger.WithField("component", "events.publisher"),
	}, nil
}

// Publish sends one event to the given subject. Failures are returned so the
// caller can decide how loudly to complain; nothing downstream depends on
// delivery.
func (p *Publisher) Publish(ctx context.Context, subject string, payload interface{}) error {
	env := Envelope{
		EventID:   uuid.NewString(),
		EventType: subject,
		Source:    "aoin-shipping-service",
		Timestamp: time.Now().UTC(),
		Data:      payload,
	}
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if _, err := p.js.Publish(subject, data, nats.Context(ctx)); err != nil {
		return fmt.Errorf("failed to publish %s: %w", subject, err)
	}
	p.logger.WithField("subject", subject).Debug("Published event")
	return nil
}

// IsConnected returns true if connected to NATS.
func (p *Publisher) IsConnected() bool {
	return p.conn.IsConnected()
}

// Close drains the NATS connection.
func (p *Publisher) Close() {
	if err := p.conn.Drain(); err != nil {
		p.conn.Close()
	}
}
