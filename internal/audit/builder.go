package audit

import (
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/passiotour/tourpricing/internal/auth"
)

// EventBuilder provides a fluent API for constructing audit events.
//
//	event := audit.NewEventBuilder(r).
//		ForResource(audit.ResourceTypeSeason, season.ID).
//		WithAction(audit.ActionCreated).
//		WithTour(tourID).
//		WithAfterState(audit.ToMap(season)).
//		Build()
type EventBuilder struct {
	event Event
}

// NewEventBuilder creates a builder carrying the request id, the caller
// and the client address of r.
func NewEventBuilder(r *http.Request) *EventBuilder {
	return &EventBuilder{
		event: Event{
			RequestID: middleware.GetReqID(r.Context()),
			Actor:     actorFromRequest(r),
			Source: Source{
				IPAddress: auth.ClientIP(r),
				UserAgent: r.UserAgent(),
			},
			Status: StatusSuccess,
		},
	}
}

func actorFromRequest(r *http.Request) Actor {
	if id, ok := auth.GetAPIKeyIDFromContext(r.Context()); ok {
		short := id
		if len(short) > 8 {
			short = short[:8]
		}
		return Actor{Kind: ActorKindAPIKey, ID: &id, Display: "api_key:" + short}
	}
	if _, ok := auth.GetRoleFromContext(r.Context()); ok {
		return Actor{Kind: ActorKindAdmin, Display: "admin_key"}
	}
	return Actor{Kind: ActorKindSystem, Display: "system"}
}

// ForResource sets the resource type and ID for the event.
func (b *EventBuilder) ForResource(resourceType, resourceID string) *EventBuilder {
	b.event.ResourceType = resourceType
	b.event.ResourceID = resourceID
	return b
}

// WithAction sets the action for the event.
func (b *EventBuilder) WithAction(action string) *EventBuilder {
	b.event.Action = action
	return b
}

// WithTour records the tour a season belongs to.
func (b *EventBuilder) WithTour(tourID string) *EventBuilder {
	b.event.TourID = tourID
	return b
}

// WithBeforeState sets the before state for the event.
func (b *EventBuilder) WithBeforeState(state map[string]any) *EventBuilder {
	if state != nil {
		b.event.BeforeState = state
	}
	return b
}

// WithAfterState sets the after state for the event.
func (b *EventBuilder) WithAfterState(state map[string]any) *EventBuilder {
	if state != nil {
		b.event.AfterState = state
	}
	return b
}

// Failure marks the event as failed and sets an error message.
func (b *EventBuilder) Failure(errorMsg string) *EventBuilder {
	b.event.Status = StatusFailure
	if errorMsg != "" {
		b.event.ErrorMessage = &errorMsg
	}
	return b
}

// Build returns the constructed Event.
func (b *EventBuilder) Build() Event {
	return b.event
}
