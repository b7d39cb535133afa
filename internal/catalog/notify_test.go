package catalog

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/passiotour/tourpricing/internal/store"
)

func recv(t *testing.T, ch <-chan string) (string, bool) {
	t.Helper()
	select {
	case etag, ok := <-ch:
		return etag, ok
	case <-time.After(time.Second):
		t.Fatal("Timed out waiting for a notification")
		return "", false
	}
}

func TestSubscribe_RebuildNotifiesEveryListener(t *testing.T) {
	st := store.NewMemoryStore()
	c := New(st, nil)

	listeners := make([]<-chan string, 3)
	for i := range listeners {
		ch, unsub := c.Subscribe()
		defer unsub()
		listeners[i] = ch
	}

	_, _ = st.UpsertTour(context.Background(), store.TourParams{
		ID: "arrabida", Name: "Arrábida", BasePrice: decimal.NewFromInt(60), Currency: "EUR",
	})
	snap, err := c.Rebuild(context.Background())
	if err != nil {
		t.Fatalf("Rebuild failed: %v", err)
	}

	for i, ch := range listeners {
		if etag, _ := recv(t, ch); etag != snap.ETag {
			t.Errorf("Listener %d: expected %s, got %s", i, snap.ETag, etag)
		}
	}
}

func TestSubscribe_UnsubscribeClosesOnce(t *testing.T) {
	c := New(store.NewMemoryStore(), nil)
	ch, unsub := c.Subscribe()

	unsub()
	unsub()

	if _, ok := recv(t, ch); ok {
		t.Error("Expected channel to be closed after unsubscribe")
	}
	c.publish("after-close") // must not send on the closed channel
}

func TestPublish_SkipsSlowListeners(t *testing.T) {
	c := New(store.NewMemoryStore(), nil)
	stalled, unsub := c.Subscribe()
	defer unsub()

	done := make(chan struct{})
	go func() {
		for _, etag := range []string{"a", "b", "c"} {
			c.publish(etag)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a listener that never reads")
	}
	// only the first ETag fits in the buffer
	if etag, _ := recv(t, stalled); etag != "a" {
		t.Errorf("Expected buffered etag a, got %s", etag)
	}
}

func TestSubscribe_ConcurrentWithPublish(t *testing.T) {
	c := New(store.NewMemoryStore(), nil)
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			ch, unsub := c.Subscribe()
			unsub()
			for range ch {
			}
		}()
		go func() {
			defer wg.Done()
			c.publish("etag")
		}()
	}
	wg.Wait()
}
