// Package webhook notifies external systems, such as a booking frontend,
// that the pricing catalog changed.
package webhook

import (
	"time"

	"github.com/passiotour/tourpricing/internal/audit"
)

// Event types sent to endpoints.
const (
	EventTourCreated   = "tour.created"
	EventTourUpdated   = "tour.updated"
	EventTourDeleted   = "tour.deleted"
	EventSeasonCreated = "season.created"
	EventSeasonUpdated = "season.updated"
	EventSeasonDeleted = "season.deleted"
)

// Event is the JSON body posted to every matching endpoint.
type Event struct {
	ID        string    `json:"id"`
	Type      string    `json:"event"`
	Timestamp time.Time `json:"timestamp"`
	TourID    string    `json:"tour_id"`
	ETag      string    `json:"catalog_etag"`
	Resource  Resource  `json:"resource"`
	Data      EventData `json:"data"`
	Metadata  Metadata  `json:"metadata"`
}

// Resource identifies the changed tour or season.
type Resource struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

// EventData contains the before/after state and changes
type EventData struct {
	Before  map[string]any `json:"before,omitempty"`
	After   map[string]any `json:"after,omitempty"`
	Changes map[string]any `json:"changes,omitempty"`
}

// Metadata contains additional context about the event
type Metadata struct {
	Actor     string `json:"actor,omitempty"`
	IPAddress string `json:"ip_address,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// FromAudit turns a successful catalog mutation into a webhook event.
// It reports false for events that do not change prices, such as API key
// management or failed requests.
func FromAudit(e audit.Event, etag string) (Event, bool) {
	if e.Status != audit.StatusSuccess {
		return Event{}, false
	}
	if e.ResourceType != audit.ResourceTypeTour && e.ResourceType != audit.ResourceTypeSeason {
		return Event{}, false
	}
	switch e.Action {
	case audit.ActionCreated, audit.ActionUpdated, audit.ActionDeleted:
	default:
		return Event{}, false
	}

	tourID := e.TourID
	if tourID == "" && e.ResourceType == audit.ResourceTypeTour {
		tourID = e.ResourceID
	}
	ts := e.OccurredAt
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	return Event{
		Type:      e.ResourceType + "." + e.Action,
		Timestamp: ts,
		TourID:    tourID,
		ETag:      etag,
		Resource:  Resource{Type: e.ResourceType, ID: e.ResourceID},
		Data: EventData{
			Before:  e.BeforeState,
			After:   e.AfterState,
			Changes: e.Changes,
		},
		Metadata: Metadata{
			Actor:     e.Actor.Display,
			IPAddress: e.Source.IPAddress,
			RequestID: e.RequestID,
		},
	}, true
}
