package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/passiotour/tourpricing/internal/seasons"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// decodeJSON reads a size-limited JSON body into v and writes the error
// response itself. It reports whether the handler may continue.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any, hint string) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			RequestTooLargeError(w, r, "Request body too large")
			return false
		}
		BadRequestError(w, r, ErrCodeInvalidJSON, "Invalid JSON: "+hint)
		return false
	}
	return true
}

// dateParam parses a YYYY-MM-DD query parameter, falling back to def when
// it is absent.
func dateParam(r *http.Request, name string, def time.Time) (time.Time, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, true
	}
	t, err := seasons.ParseDate(raw)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func optionalTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	formatted := t.UTC().Format(time.RFC3339)
	return &formatted
}
