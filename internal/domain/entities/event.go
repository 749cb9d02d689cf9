package entities

import "time"

// LinkEventKind distinguishes link notifications.
type LinkEventKind string

const (
	LinkAdded   LinkEventKind = "added"
	LinkRemoved LinkEventKind = "removed"
)

// LinkEvent reports a relation created or removed between two entities.
type LinkEvent struct {
	Kind LinkEventKind `json:"kind"`
	From EntityRef     `json:"from"`
	To   EntityRef     `json:"to"`
	Type string        `json:"type"`
	At   time.Time     `json:"at"`
}
