package model

import "time"

// EventType identifies the type of event
type EventType string

const (
	// Roster change events
	EventTeamCreated   EventType = "team:created"
	EventTeamUpdated   EventType = "team:updated"
	EventTeamDeleted   EventType = "team:deleted"
	EventPlayerCreated EventType = "player:created"
	EventPlayerUpdated EventType = "player:updated"
	EventPlayerDeleted EventType = "player:deleted"
	EventConfigUpdated EventType = "config:updated"

	// Client cache lifecycle events
	EventCacheLoaded EventType = "cache:loaded"
	EventCacheError  EventType = "cache:error"
)

// Event is the base structure for all events
type Event struct {
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload,omitempty"` // Type-specific data
}

// CacheErrorPayload describes a load that did not fully succeed
type CacheErrorPayload struct {
	Message  string `json:"message"`
	Attempts int    `json:"attempts"`
}

// CacheLoadedPayload summarises a completed load
type CacheLoadedPayload struct {
	Teams   int `json:"teams"`
	Players int `json:"players"`
}
