package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/passiotour/tourpricing/internal/telemetry"
)

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	snap := s.catalog.Load()
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == snap.ETag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("ETag", snap.ETag)
	w.Header().Set("Cache-Control", "no-cache")
	writeJSON(w, http.StatusOK, snap)
}

// handleStream sends an "init" event with the current ETag, then an
// "update" event whenever the snapshot changes. Comment pings keep idle
// connections open.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		InternalError(w, r, "Streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	updates, unsub := s.catalog.Subscribe()
	defer unsub()

	telemetry.StreamClients.Inc()
	defer telemetry.StreamClients.Dec()

	writeEvent(w, "init", s.catalog.Load().ETag)
	flusher.Flush()

	ticker := time.NewTicker(s.heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case etag, ok := <-updates:
			if !ok {
				return
			}
			writeEvent(w, "update", etag)
			flusher.Flush()
		case <-ticker.C:
			_, _ = fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		}
	}
}

func writeEvent(w http.ResponseWriter, event, etag string) {
	data, _ := json.Marshal(map[string]string{"etag": etag})
	_, _ = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
}
