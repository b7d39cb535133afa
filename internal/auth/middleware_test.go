package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/passiotour/tourpricing/internal/store"
)

type fakeKeyStore struct {
	mu       sync.Mutex
	keys     []store.APIKey
	err      error
	lastUsed chan string
}

func (f *fakeKeyStore) ListAPIKeys(ctx context.Context) ([]store.APIKey, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.keys, f.err
}

func (f *fakeKeyStore) UpdateAPIKeyLastUsed(ctx context.Context, id string) error {
	if f.lastUsed != nil {
		f.lastUsed <- id
	}
	return nil
}

func mustHash(t *testing.T, key string) string {
	t.Helper()
	hash, err := hashWithCost(key, bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	return hash
}

func TestAuthenticate(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	ks := &fakeKeyStore{
		keys: []store.APIKey{
			{ID: "k-admin", KeyHash: mustHash(t, "tpk_admin"), Role: "admin", Enabled: true, ExpiresAt: &future},
			{ID: "k-off", KeyHash: mustHash(t, "tpk_off"), Role: "admin", Enabled: false},
			{ID: "k-old", KeyHash: mustHash(t, "tpk_old"), Role: "readonly", Enabled: true, ExpiresAt: &past},
		},
		lastUsed: make(chan string, 4),
	}
	a := NewAuthenticator(ks, "legacy-secret", WithClock(func() time.Time { return now }))

	tests := []struct {
		name     string
		header   string
		wantAuth bool
		wantRole Role
		wantErr  string
	}{
		{"missing header", "", false, "", "missing bearer token"},
		{"legacy key", "Bearer legacy-secret", true, RoleSuperadmin, ""},
		{"stored key", "Bearer tpk_admin", true, RoleAdmin, ""},
		{"disabled key", "Bearer tpk_off", false, "", "invalid token"},
		{"expired key", "Bearer tpk_old", false, "", "api key expired"},
		{"unknown key", "Bearer nope", false, "", "invalid token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := a.Authenticate(context.Background(), tt.header)
			if res.Authenticated != tt.wantAuth {
				t.Fatalf("Expected authenticated=%v, got %v (%s)", tt.wantAuth, res.Authenticated, res.Error)
			}
			if res.Role != tt.wantRole {
				t.Errorf("Expected role %q, got %q", tt.wantRole, res.Role)
			}
			if res.Error != tt.wantErr {
				t.Errorf("Expected error %q, got %q", tt.wantErr, res.Error)
			}
		})
	}

	select {
	case id := <-ks.lastUsed:
		if id != "k-admin" {
			t.Errorf("Expected last used update for k-admin, got %s", id)
		}
	case <-time.After(time.Second):
		t.Error("Expected last used timestamp to be updated")
	}
}

func TestAuthenticate_StoreFailure(t *testing.T) {
	a := NewAuthenticator(&fakeKeyStore{err: errors.New("db down")}, "")

	res := a.Authenticate(context.Background(), "Bearer anything")
	if res.Authenticated || res.Error != "authentication service unavailable" {
		t.Errorf("Unexpected result %+v", res)
	}
}

func TestRequireAuth(t *testing.T) {
	ks := &fakeKeyStore{keys: []store.APIKey{
		{ID: "k-ro", KeyHash: mustHash(t, "tpk_ro"), Role: "readonly", Enabled: true},
	}}
	a := NewAuthenticator(ks, "legacy-secret")

	var gotRole Role
	var gotKey string
	handler := a.RequireAuth(RoleAdmin)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotRole, _ = GetRoleFromContext(r.Context())
		gotKey, _ = GetAPIKeyIDFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"no token", "", http.StatusUnauthorized},
		{"insufficient role", "Bearer tpk_ro", http.StatusForbidden},
		{"legacy superadmin", "Bearer legacy-secret", http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPut, "/v1/tours/x", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Errorf("Expected status %d, got %d", tt.want, rec.Code)
			}
		})
	}

	if gotRole != RoleSuperadmin {
		t.Errorf("Expected superadmin in context, got %q", gotRole)
	}
	if gotKey != "" {
		t.Errorf("Expected no key id for legacy key, got %q", gotKey)
	}
}

func TestRequireAuth_CustomErrorWriter(t *testing.T) {
	var status int
	a := NewAuthenticator(&fakeKeyStore{}, "", WithErrorWriter(func(w http.ResponseWriter, r *http.Request, s int, msg string) {
		status = s
		w.WriteHeader(s)
	}))

	rec := httptest.NewRecorder()
	a.RequireAuth(RoleReadonly)(http.NotFoundHandler()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if status != http.StatusUnauthorized {
		t.Errorf("Expected custom writer to get 401, got %d", status)
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{"forwarded chain", map[string]string{"X-Forwarded-For": "203.0.113.7, 10.0.0.1"}, "10.0.0.2:1234", "203.0.113.7"},
		{"real ip", map[string]string{"X-Real-IP": "198.51.100.4"}, "10.0.0.2:1234", "198.51.100.4"},
		{"remote addr", nil, "192.0.2.1:5555", "192.0.2.1:5555"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			if got := ClientIP(req); got != tt.want {
				t.Errorf("ClientIP() = %v, want %v", got, tt.want)
			}
		})
	}
}
