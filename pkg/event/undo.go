package event

import (
	"time"
)

// Undo reverses a single removal. It is a plain value so it can be sent to a
// client and handed back later through Store.ApplyUndo.
type Undo struct {
	Event     *Event    `json:"event"`
	RemovedAt time.Time `json:"removedAt"`
}

// Empty reports whether the removal this token came from removed nothing.
func (u Undo) Empty() bool {
	return u.Event == nil
}
