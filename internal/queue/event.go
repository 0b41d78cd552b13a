// Package queue defines the message payloads exchanged over the broker and
// the publisher/consumer that move them.
package queue

import "errors"

// Durable queue names.  Both sides declare the queue before use, so
// whichever service starts first creates it.
const (
	UserEventsQueue   = "user_events"
	DoorCommandsQueue = "door_commands"
)

// Identity event types published by the auth service.
const (
	EventUserCreated  = "user_created"
	EventUserUpdated  = "user_updated"
	EventUserLoggedIn = "user_logged_in"
)

// ErrMalformedEvent marks a payload that cannot be processed and must be
// acknowledged and discarded rather than retried.
var ErrMalformedEvent = errors.New("malformed event")

// UserEvent is the identity/role change notification consumed by the
// persistence service to keep its read model in sync.  Delivery is
// at-least-once, so consumers must treat it idempotently.
type UserEvent struct {
	EventType string `json:"event_type"`
	UserID    uint64 `json:"user_id"`
	Username  string `json:"username"`
	Role      string `json:"role"`
}

// Validate checks the required fields.  Role is required for the events
// that materialize profiles; a user_logged_in without role is still valid
// (the original login path published it without one).
func (e UserEvent) Validate() error {
	if e.EventType == "" || e.UserID == 0 || e.Username == "" {
		return ErrMalformedEvent
	}
	switch e.EventType {
	case EventUserCreated, EventUserUpdated:
		if e.Role == "" {
			return ErrMalformedEvent
		}
	case EventUserLoggedIn:
		// role optional
	default:
		return ErrMalformedEvent
	}
	return nil
}

// DoorCommand is published by the command service for the device bridge to
// forward to the door controller identified by MAC.
type DoorCommand struct {
	MACAddress string `json:"mac_address"`
	Command    string `json:"command"`
	UserID     uint64 `json:"user_id"`
}
