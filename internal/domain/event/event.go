// Package event holds the events raised while a new bill is submitted.
package event

import (
	"time"

	"github.com/google/uuid"
)

// Payload keys
const (
	KeyFileURL = "file_url"
	KeyPhase   = "phase"
	KeyError   = "error"
)

// Event represents a domain event
type Event struct {
	ID            string                 `json:"id"`
	Type          Type                   `json:"type"`
	BillID        string                 `json:"bill_id,omitempty"`
	Email         string                 `json:"email,omitempty"`
	Payload       map[string]interface{} `json:"payload"`
	Timestamp     time.Time              `json:"timestamp"`
	CorrelationID string                 `json:"correlation_id"`
}

// NewEvent creates an event starting its own correlation chain
func NewEvent(eventType Type, billID, email string, payload map[string]interface{}) *Event {
	return NewEventWithCorrelation(eventType, billID, email, payload, uuid.NewString())
}

// NewEventWithCorrelation creates an event linked to a correlation chain, e.g. one submission
func NewEventWithCorrelation(eventType Type, billID, email string, payload map[string]interface{}, correlationID string) *Event {
	if payload == nil {
		payload = map[string]interface{}{}
	}
	return &Event{
		ID:            uuid.NewString(),
		Type:          eventType,
		BillID:        billID,
		Email:         email,
		Payload:       payload,
		Timestamp:     time.Now(),
		CorrelationID: correlationID,
	}
}

// WithPayload returns a copy of the event with one more payload entry
func (e *Event) WithPayload(key string, value interface{}) *Event {
	newPayload := make(map[string]interface{}, len(e.Payload)+1)
	for k, v := range e.Payload {
		newPayload[k] = v
	}
	newPayload[key] = value

	copied := *e
	copied.Payload = newPayload
	return &copied
}

// GetPayloadString retrieves a string value from the payload
func (e *Event) GetPayloadString(key string) string {
	if val, ok := e.Payload[key]; ok {
		if str, ok := val.(string); ok {
			return str
		}
	}
	return ""
}
