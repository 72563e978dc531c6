package publishers

import (
	"time"

	"github.com/google/uuid"
	"github.com/samvad-hq/zshort-go/pkg/zshort"
)

// Link lifecycle actions carried by events.
const (
	ActionCreated = "created"
	ActionEdited  = "edited"
	ActionDeleted = "deleted"
)

// Event represents a short-link change published downstream.
type Event struct {
	ID         string           `json:"id"`
	Action     string           `json:"action"`
	Host       string           `json:"host"`
	Slug       string           `json:"slug"`
	Short      *zshort.ShortURL `json:"short,omitempty"`
	OccurredAt time.Time        `json:"occurred_at"`
}

// NewEvent constructs an Event for a change to slug on host. short is nil for deletions.
func NewEvent(action, host, slug string, short *zshort.ShortURL) Event {
	return Event{
		ID:         uuid.NewString(),
		Action:     action,
		Host:       host,
		Slug:       slug,
		Short:      short,
		OccurredAt: time.Now().UTC(),
	}
}

// attributes are the routing attributes attached to queue and topic messages.
func (e Event) attributes() map[string]string {
	return map[string]string{
		"action": e.Action,
		"slug":   e.Slug,
	}
}
