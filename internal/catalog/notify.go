package catalog

import "sync"

// Subscribe registers a listener for new snapshot ETags. The returned
// function unsubscribes and closes the channel; calling it again is a no-op.
func (c *Cache) Subscribe() (<-chan string, func()) {
	ch := make(chan string, 1)
	c.subsMu.Lock()
	c.subs[ch] = struct{}{}
	c.subsMu.Unlock()

	var once sync.Once
	unsub := func() {
		once.Do(func() {
			c.subsMu.Lock()
			delete(c.subs, ch)
			close(ch)
			c.subsMu.Unlock()
		})
	}
	return ch, unsub
}

// publish notifies all listeners without blocking.
func (c *Cache) publish(etag string) {
	c.subsMu.Lock()
	for ch := range c.subs {
		select {
		case ch <- etag:
		default: // slow client, skip instead of blocking
		}
	}
	c.subsMu.Unlock()
}
