package webhook

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func noBackoff(int) time.Duration { return time.Millisecond }

func TestEndpoint_matches(t *testing.T) {
	tests := []struct {
		name   string
		events []string
		event  string
		want   bool
	}{
		{name: "empty list matches everything", event: EventTourDeleted, want: true},
		{name: "listed event", events: []string{EventSeasonCreated, EventSeasonUpdated}, event: EventSeasonUpdated, want: true},
		{name: "unlisted event", events: []string{EventTourCreated}, event: EventTourDeleted, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ep := Endpoint{URL: "http://example.test", Events: tt.events}
			if got := ep.matches(Event{Type: tt.event}); got != tt.want {
				t.Errorf("Expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestDispatcher_DeliversSignedEvent(t *testing.T) {
	const secret = "test-secret-123"

	var (
		mu       sync.Mutex
		received []Event
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Expected Content-Type application/json, got %q", ct)
		}
		if r.Header.Get(HeaderDelivery) == "" {
			t.Errorf("Expected %s header", HeaderDelivery)
		}
		body, _ := io.ReadAll(r.Body)
		if !VerifySignature(body, r.Header.Get(HeaderSignature), secret) {
			t.Error("Expected a valid signature")
		}

		var ev Event
		if err := json.Unmarshal(body, &ev); err != nil {
			t.Errorf("Failed to decode event: %v", err)
		}
		if got := r.Header.Get(HeaderEvent); got != ev.Type {
			t.Errorf("Expected event header %q, got %q", ev.Type, got)
		}
		mu.Lock()
		received = append(received, ev)
		mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	d := NewDispatcher([]Endpoint{{URL: srv.URL, Secret: secret}}, WithBackoff(noBackoff))
	d.Dispatch(Event{Type: EventTourUpdated, TourID: "douro", ETag: `"e1"`})
	d.Dispatch(Event{Type: EventSeasonCreated, TourID: "douro", ETag: `"e2"`})
	if err := d.Close(); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(received) != 2 {
		t.Fatalf("Expected 2 deliveries, got %d", len(received))
	}
	if received[0].Type != EventTourUpdated || received[1].Type != EventSeasonCreated {
		t.Errorf("Expected deliveries in dispatch order, got %s then %s", received[0].Type, received[1].Type)
	}
	if received[0].ID == "" {
		t.Error("Expected a generated delivery id")
	}
	if received[1].ETag != `"e2"` {
		t.Errorf("Expected etag %q, got %q", `"e2"`, received[1].ETag)
	}
}

func TestDispatcher_FiltersByEvent(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	d := NewDispatcher([]Endpoint{{URL: srv.URL, Events: []string{EventTourDeleted}}})
	d.Dispatch(Event{Type: EventTourUpdated})
	d.Dispatch(Event{Type: EventTourDeleted})
	d.Close()

	if got := calls.Load(); got != 1 {
		t.Errorf("Expected 1 delivery, got %d", got)
	}
}

func TestDispatcher_Retry(t *testing.T) {
	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	d := NewDispatcher([]Endpoint{{URL: srv.URL}}, WithMaxRetries(3), WithBackoff(noBackoff))
	ok := d.deliverWithRetry(d.endpoints[0], Event{Type: EventTourCreated})
	d.Close()

	if !ok {
		t.Error("Expected delivery to succeed on the third attempt")
	}
	if got := attempts.Load(); got != 3 {
		t.Errorf("Expected 3 attempts, got %d", got)
	}
}

func TestDispatcher_GivesUp(t *testing.T) {
	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	d := NewDispatcher([]Endpoint{{URL: srv.URL}}, WithMaxRetries(2), WithBackoff(noBackoff))
	ok := d.deliverWithRetry(d.endpoints[0], Event{Type: EventTourCreated})
	d.Close()

	if ok {
		t.Error("Expected delivery to fail")
	}
	if got := attempts.Load(); got != 3 {
		t.Errorf("Expected 3 attempts (1 + 2 retries), got %d", got)
	}
}

func TestDispatcher_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	d := NewDispatcher([]Endpoint{{URL: srv.URL}}, WithMaxRetries(0), WithTimeout(20*time.Millisecond))
	defer d.Close()

	start := time.Now()
	if d.deliverWithRetry(d.endpoints[0], Event{Type: EventTourCreated}) {
		t.Error("Expected timed out delivery to fail")
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("Expected the attempt to be cut short, took %v", elapsed)
	}
}

func TestDispatcher_CloseTwice(t *testing.T) {
	d := NewDispatcher(nil)
	if err := d.Close(); err != nil {
		t.Fatalf("first Close() failed: %v", err)
	}
	if err := d.Close(); err != nil {
		t.Fatalf("second Close() failed: %v", err)
	}
}
