package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// EventType represents the type of countdown event
type EventType string

const (
	EventTypeCountdownInitialized EventType = "CountdownInitialized"
	EventTypeCountdownUpdated     EventType = "CountdownUpdated"
	EventTypeCountdownReset       EventType = "CountdownReset"
	// EventTypeCountdownSync is sent to a single connection when it attaches.
	EventTypeCountdownSync EventType = "CountdownSync"
)

// CountdownEvent is the envelope shared by the websocket gateway and the broker.
type CountdownEvent struct {
	ID        string          `json:"id"`
	Type      EventType       `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// CountdownPayload is the payload carried by every countdown event
type CountdownPayload struct {
	EndTimestamp int64 `json:"endTimestamp"`
}

// NewCountdownEvent builds an event for the given end timestamp.
func NewCountdownEvent(eventType EventType, endTimestamp int64, at time.Time) *CountdownEvent {
	data, _ := json.Marshal(CountdownPayload{EndTimestamp: endTimestamp})
	return &CountdownEvent{
		ID:        uuid.New().String(),
		Type:      eventType,
		Timestamp: at.UTC(),
		Data:      data,
	}
}

// ParsePayload decodes the event data.
func (e *CountdownEvent) ParsePayload() (CountdownPayload, error) {
	var payload CountdownPayload
	if err := json.Unmarshal(e.Data, &payload); err != nil {
		return CountdownPayload{}, err
	}
	return payload, nil
}

// Notifier receives countdown change events. Implementations must not block
// the caller for long; delivery failures are theirs to log.
type Notifier interface {
	Notify(ctx context.Context, event *CountdownEvent)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, event *CountdownEvent)

func (f NotifierFunc) Notify(ctx context.Context, event *CountdownEvent) { f(ctx, event) }

// Fanout delivers each event to every non-nil notifier in order.
type Fanout []Notifier

func (f Fanout) Notify(ctx context.Context, event *CountdownEvent) {
	for _, n := range f {
		if n == nil {
			continue
		}
		n.Notify(ctx, event)
	}
	log.Debug().
		Str("event_id", event.ID).
		Str("event_type", string(event.Type)).
		Int("notifiers", len(f)).
		Msg("countdown event dispatched")
}
