package sse

import (
	"context"
	"encoding/json"

	"github.com/mcoot/roster/internal/model"
)

// Publisher forwards roster change events to the hub, one SSE event per change.
// The SSE event name is the event type; the data is the JSON-encoded event.
type Publisher struct {
	hub *Hub
}

// NewPublisher creates a Publisher for hub
func NewPublisher(hub *Hub) *Publisher {
	return &Publisher{hub: hub}
}

func (p *Publisher) Publish(_ context.Context, event model.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	p.hub.BroadcastEvent(string(event.Type), string(data))
	return nil
}
