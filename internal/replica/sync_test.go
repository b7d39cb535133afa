package replica

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/passiotour/tourpricing/internal/catalog"
)

type fakeCache struct {
	mu       sync.Mutex
	current  *catalog.Snapshot
	next     *catalog.Snapshot
	err      error
	rebuilds int
}

func (f *fakeCache) Load() *catalog.Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.current
}

func (f *fakeCache) Rebuild(ctx context.Context) (*catalog.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rebuilds++
	if f.err != nil {
		return nil, f.err
	}
	f.current = f.next
	return f.next, nil
}

func payload(t *testing.T, m Message) string {
	t.Helper()
	b, err := json.Marshal(m)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return string(b)
}

func newSync(cache Cache) *Sync {
	// no connection is made until a command runs
	return New(redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"}), cache)
}

func TestHandle(t *testing.T) {
	tests := []struct {
		name        string
		message     func(s *Sync) string
		rebuildErr  error
		wantRebuild bool
		wantCalls   int
	}{
		{
			name:        "remote change rebuilds",
			message:     func(s *Sync) string { return payload(t, Message{Instance: "other", ETag: `"new"`}) },
			wantRebuild: true,
			wantCalls:   1,
		},
		{
			name:    "own message is ignored",
			message: func(s *Sync) string { return payload(t, Message{Instance: s.Instance(), ETag: `"new"`}) },
		},
		{
			name:    "known etag is ignored",
			message: func(s *Sync) string { return payload(t, Message{Instance: "other", ETag: `"old"`}) },
		},
		{
			name:    "malformed payload is ignored",
			message: func(s *Sync) string { return "{not json" },
		},
		{
			name:       "rebuild failure is reported",
			message:    func(s *Sync) string { return payload(t, Message{Instance: "other", ETag: `"new"`}) },
			rebuildErr: errors.New("db down"),
			wantCalls:  1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cache := &fakeCache{
				current: &catalog.Snapshot{ETag: `"old"`},
				next:    &catalog.Snapshot{ETag: `"new"`},
				err:     tt.rebuildErr,
			}
			s := newSync(cache)

			if got := s.handle(context.Background(), tt.message(s)); got != tt.wantRebuild {
				t.Errorf("Expected rebuild=%v, got %v", tt.wantRebuild, got)
			}
			if cache.rebuilds != tt.wantCalls {
				t.Errorf("Expected %d rebuild calls, got %d", tt.wantCalls, cache.rebuilds)
			}
		})
	}
}

func TestNew_Options(t *testing.T) {
	s := New(redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"}), &fakeCache{}, WithChannel("prices"))
	if s.channel != "prices" {
		t.Errorf("Expected channel prices, got %s", s.channel)
	}
	other := newSync(&fakeCache{})
	if s.Instance() == "" || s.Instance() == other.Instance() {
		t.Errorf("Expected distinct instance ids, got %q and %q", s.Instance(), other.Instance())
	}
}

// TestSync_TwoInstances needs a Redis server at TEST_REDIS_ADDR.
func TestSync_TwoInstances(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	defer rdb.Close()

	channel := "tourpricing:test:" + time.Now().Format("150405.000000")
	follower := &fakeCache{current: &catalog.Snapshot{ETag: `"old"`}, next: &catalog.Snapshot{ETag: `"new"`}}
	leader := New(rdb, &fakeCache{}, WithChannel(channel))
	s := New(rdb, follower, WithChannel(channel))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	// wait for the subscription before publishing
	deadline := time.Now().Add(2 * time.Second)
	for {
		n, err := rdb.PubSubNumSub(ctx, channel).Result()
		if err == nil && n[channel] > 0 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("Timed out waiting for the subscription")
		}
		time.Sleep(10 * time.Millisecond)
	}

	if err := leader.Announce(ctx, `"new"`); err != nil {
		t.Fatalf("Announce failed: %v", err)
	}

	deadline = time.Now().Add(2 * time.Second)
	for follower.Load().ETag != `"new"` {
		if time.Now().After(deadline) {
			t.Fatal("Expected the follower to rebuild")
		}
		time.Sleep(10 * time.Millisecond)
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("Run returned %v", err)
	}
}
