package events

import (
	"time"

	"github.com/vinotel/cellar-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventCustomerRegistered EventType = "customer_registered"
	EventLoginSucceeded     EventType = "login_succeeded"
	EventTokenRefreshed     EventType = "token_refreshed"
	EventReadingAccepted    EventType = "reading_accepted"
)

// Actor encapsulates actor metadata for an event.
type Actor struct {
	Type      domain.SubjectType `json:"type"`
	SubjectID string             `json:"subject_id,omitempty"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// CustomerRegisteredPayload payload.
type CustomerRegisteredPayload struct {
	CustomerID string `json:"customer_id"`
	Username   string `json:"username"`
}

// LoginSucceededPayload payload. Only the identifier travels with the event;
// credentials never do.
type LoginSucceededPayload struct {
	Identifier string             `json:"identifier"`
	Source     domain.SubjectType `json:"source"`
}

// TokenRefreshedPayload payload.
type TokenRefreshedPayload struct {
	Identifier string             `json:"identifier"`
	Source     domain.SubjectType `json:"source"`
}

// ReadingAcceptedPayload payload.
type ReadingAcceptedPayload struct {
	SensorID    string    `json:"sensor_id"`
	Temperature float64   `json:"temperature"`
	Humidity    float64   `json:"humidity"`
	RecordedAt  time.Time `json:"recorded_at"`
}
