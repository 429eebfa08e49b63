package models

// Status is the lifecycle state of a landing page.
type Status string

// Landing page statuses.
const (
	StatusDraft      Status = "draft"
	StatusGenerating Status = "generating"
	StatusPublished  Status = "published"
	StatusArchived   Status = "archived"
)

// Event is a lifecycle transition trigger.
type Event string

// Lifecycle events.
const (
	EventStartGeneration     Event = "start_generation"
	EventGenerationSucceeded Event = "generation_succeeded"
	EventGenerationFailed    Event = "generation_failed"
	EventArchive             Event = "archive"
	EventUnpublish           Event = "unpublish"
)

// transitions is the closed transition table. Any (status, event) pair
// absent from it, including self-loops, is rejected. Archived pages have
// no outgoing transitions; un-archiving is unsupported.
var transitions = map[Status]map[Event]Status{
	StatusDraft: {
		EventStartGeneration: StatusGenerating,
		EventArchive:         StatusArchived,
	},
	StatusGenerating: {
		EventGenerationSucceeded: StatusPublished,
		EventGenerationFailed:    StatusDraft,
		EventArchive:             StatusArchived,
	},
	StatusPublished: {
		EventUnpublish: StatusDraft,
		EventArchive:   StatusArchived,
	},
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusGenerating, StatusPublished, StatusArchived:
		return true
	default:
		return false
	}
}

// Apply returns the status reached by applying event to s.
// It returns ErrInvalidTransition for any pair not in the transition table.
func (s Status) Apply(event Event) (Status, error) {
	next, ok := transitions[s][event]
	if !ok {
		return "", ErrInvalidTransition
	}
	return next, nil
}
