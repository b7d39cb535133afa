// Package replica keeps the catalog snapshots of several server instances
// in step. Each instance announces the ETag of its rebuilt snapshot on a
// Redis pub/sub channel; the others rebuild from the shared store when
// they see an ETag they do not hold.
package replica

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/passiotour/tourpricing/internal/catalog"
)

// DefaultChannel is the pub/sub channel used when none is configured.
const DefaultChannel = "tourpricing:catalog"

const rebuildTimeout = 10 * time.Second

// Message is published after every local catalog rebuild.
type Message struct {
	Instance string    `json:"instance"`
	ETag     string    `json:"etag"`
	At       time.Time `json:"at"`
}

// Cache is the part of *catalog.Cache the sync needs.
type Cache interface {
	Load() *catalog.Snapshot
	Rebuild(ctx context.Context) (*catalog.Snapshot, error)
}

// Option configures a Sync.
type Option func(*Sync)

// WithChannel overrides DefaultChannel.
func WithChannel(channel string) Option {
	return func(s *Sync) { s.channel = channel }
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Sync) { s.logger = logger }
}

// Sync announces local rebuilds and applies remote ones.
type Sync struct {
	rdb      *redis.Client
	cache    Cache
	channel  string
	instance string
	logger   *zap.Logger
}

// New creates a Sync with a random instance id.
func New(rdb *redis.Client, cache Cache, opts ...Option) *Sync {
	s := &Sync{
		rdb:      rdb,
		cache:    cache,
		channel:  DefaultChannel,
		instance: uuid.NewString(),
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Instance returns the id stamped on messages from this process.
func (s *Sync) Instance() string {
	return s.instance
}

// Announce tells the other instances that the catalog now has etag.
func (s *Sync) Announce(ctx context.Context, etag string) error {
	payload, err := json.Marshal(Message{Instance: s.instance, ETag: etag, At: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("marshal catalog message: %w", err)
	}
	if err := s.rdb.Publish(ctx, s.channel, payload).Err(); err != nil {
		return fmt.Errorf("publish catalog message: %w", err)
	}
	return nil
}

// Run subscribes to the channel and rebuilds the local catalog on remote
// changes until ctx is done. It returns an error only when the initial
// subscription fails.
func (s *Sync) Run(ctx context.Context) error {
	pubsub := s.rdb.Subscribe(ctx, s.channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return fmt.Errorf("subscribe to %s: %w", s.channel, err)
	}
	defer pubsub.Close()

	s.logger.Info("catalog sync subscribed",
		zap.String("channel", s.channel),
		zap.String("instance", s.instance))

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			s.handle(ctx, msg.Payload)
		}
	}
}

// handle applies one message and reports whether it caused a rebuild.
func (s *Sync) handle(ctx context.Context, payload string) bool {
	var msg Message
	if err := json.Unmarshal([]byte(payload), &msg); err != nil {
		s.logger.Warn("ignoring malformed catalog message", zap.Error(err))
		return false
	}
	if msg.Instance == s.instance {
		return false
	}
	if cur := s.cache.Load(); cur != nil && cur.ETag == msg.ETag {
		return false
	}

	rctx, cancel := context.WithTimeout(ctx, rebuildTimeout)
	defer cancel()
	snap, err := s.cache.Rebuild(rctx)
	if err != nil {
		s.logger.Error("catalog rebuild after remote change failed",
			zap.String("from", msg.Instance),
			zap.Error(err))
		return false
	}
	s.logger.Info("catalog rebuilt after remote change",
		zap.String("from", msg.Instance),
		zap.String("etag", snap.ETag))
	return true
}
