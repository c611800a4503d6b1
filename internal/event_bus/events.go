package event_bus

import "github.com/google/uuid"

const (
	EventCreatedType      EventType = "event.created"
	EventUpdatedType      EventType = "event.updated"
	EventRemovedType      EventType = "event.removed"
	EventRestoredType     EventType = "event.restored"
	DraftEventChangedType EventType = "event.draft.changed"
)

// EventChanged is published after a calendar event was stored, replaced or
// reinstated. Total is the number of stored events after the change.
type EventChanged struct {
	Id    uuid.UUID
	Kind  string
	Total int
}

type EventRemoved struct {
	Id    uuid.UUID
	Total int
}

// DraftEventChanged is published when the draft slot is set (Present) or cleared.
type DraftEventChanged struct {
	Id      uuid.UUID
	Present bool
}
