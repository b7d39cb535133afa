package webhook

import (
	"testing"
	"time"

	"github.com/passiotour/tourpricing/internal/audit"
)

func TestFromAudit(t *testing.T) {
	at := time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		event      audit.Event
		wantOK     bool
		wantType   string
		wantTourID string
	}{
		{
			name: "tour created uses resource id as tour",
			event: audit.Event{
				ResourceType: audit.ResourceTypeTour, ResourceID: "douro",
				Action: audit.ActionCreated, Status: audit.StatusSuccess,
			},
			wantOK: true, wantType: EventTourCreated, wantTourID: "douro",
		},
		{
			name: "season updated keeps tour id",
			event: audit.Event{
				ResourceType: audit.ResourceTypeSeason, ResourceID: "s-1", TourID: "douro",
				Action: audit.ActionUpdated, Status: audit.StatusSuccess,
			},
			wantOK: true, wantType: EventSeasonUpdated, wantTourID: "douro",
		},
		{
			name: "season deleted",
			event: audit.Event{
				ResourceType: audit.ResourceTypeSeason, ResourceID: "s-1", TourID: "douro",
				Action: audit.ActionDeleted, Status: audit.StatusSuccess,
			},
			wantOK: true, wantType: EventSeasonDeleted, wantTourID: "douro",
		},
		{
			name: "api key events are skipped",
			event: audit.Event{
				ResourceType: audit.ResourceTypeAPIKey, ResourceID: "k-1",
				Action: audit.ActionCreated, Status: audit.StatusSuccess,
			},
		},
		{
			name: "failures are skipped",
			event: audit.Event{
				ResourceType: audit.ResourceTypeTour, ResourceID: "douro",
				Action: audit.ActionUpdated, Status: audit.StatusFailure,
			},
		},
		{
			name: "auth failures are skipped",
			event: audit.Event{
				ResourceType: audit.ResourceTypeTour, ResourceID: "douro",
				Action: audit.ActionAuthFailed, Status: audit.StatusSuccess,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.event.OccurredAt = at
			tt.event.Actor = audit.Actor{Display: "admin_key"}
			got, ok := FromAudit(tt.event, `"abc"`)
			if ok != tt.wantOK {
				t.Fatalf("Expected ok=%v, got %v", tt.wantOK, ok)
			}
			if !ok {
				return
			}
			if got.Type != tt.wantType {
				t.Errorf("Expected type %q, got %q", tt.wantType, got.Type)
			}
			if got.TourID != tt.wantTourID {
				t.Errorf("Expected tour %q, got %q", tt.wantTourID, got.TourID)
			}
			if got.ETag != `"abc"` {
				t.Errorf("Expected etag to be carried, got %q", got.ETag)
			}
			if !got.Timestamp.Equal(at) {
				t.Errorf("Expected timestamp %v, got %v", at, got.Timestamp)
			}
			if got.Metadata.Actor != "admin_key" {
				t.Errorf("Expected actor admin_key, got %q", got.Metadata.Actor)
			}
		})
	}
}
