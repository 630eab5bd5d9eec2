// Package events publishes order lifecycle events for downstream consumers
// (fulfillment, notifications). Publishing is fire-and-forget: a broker
// outage never fails the originating request.
package events

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const (
	EventOrderCreated       = "OrderCreated"
	EventOrderStatusChanged = "OrderStatusChanged"
	EventOrderCanceled      = "OrderCanceled"
	EventOrderDeleted       = "OrderDeleted"
)

type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	CorrelationID string          `json:"correlation_id,omitempty"` // order id
	Payload       json.RawMessage `json:"payload"`
}

type OrderCreatedPayload struct {
	OrderID string        `json:"order_id"`
	UserID  string        `json:"user_id"`
	Price   string        `json:"price"`
	Lines   []LinePayload `json:"lines"`
}

type LinePayload struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type OrderStatusPayload struct {
	OrderID string `json:"order_id"`
	Status  string `json:"status"`
}

type Publisher interface {
	Publish(eventType, correlationID string, payload any)
}

func NewEnvelope(eventType, producer, correlationID string, payload any) (Envelope, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      producer,
		CorrelationID: correlationID,
		Payload:       raw,
	}, nil
}

// Noop drops every event; used when no broker is configured and in tests.
type Noop struct{}

func (Noop) Publish(string, string, any) {}

var _ Publisher = Noop{}
