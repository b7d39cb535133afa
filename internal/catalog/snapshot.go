// Package catalog keeps an immutable, atomically swapped view of every tour
// and its ordered seasons. Readers never touch the store.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/passiotour/tourpricing/internal/seasons"
	"github.com/passiotour/tourpricing/internal/store"
	"github.com/passiotour/tourpricing/internal/telemetry"
)

// TourView is a tour with its seasons in evaluation order.
type TourView struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	BasePrice decimal.Decimal `json:"base_price"`
	Currency  string          `json:"currency"`
	UpdatedAt time.Time       `json:"updated_at"`
	Seasons   []store.Season  `json:"seasons"`
}

// Rules returns the tour's seasons as pricing rules.
func (t TourView) Rules() []seasons.Rule {
	return store.Rules(t.Seasons)
}

// Snapshot is a point-in-time copy of the catalog. Treat it as read-only.
type Snapshot struct {
	ETag      string              `json:"etag"`
	Tours     map[string]TourView `json:"tours"`
	UpdatedAt time.Time           `json:"updated_at"`
}

// Tour looks up a tour by id.
func (s *Snapshot) Tour(id string) (TourView, bool) {
	t, ok := s.Tours[id]
	return t, ok
}

// Build assembles a snapshot and computes its ETag from the JSON encoding
// of the tours. Map keys are encoded sorted, so equal catalogs share an ETag.
func Build(tours []store.Tour, seasonsByTour map[string][]store.Season) *Snapshot {
	views := make(map[string]TourView, len(tours))
	for _, t := range tours {
		list := seasonsByTour[t.ID]
		if list == nil {
			list = []store.Season{}
		}
		views[t.ID] = TourView{
			ID:        t.ID,
			Name:      t.Name,
			BasePrice: t.BasePrice,
			Currency:  t.Currency,
			UpdatedAt: t.UpdatedAt,
			Seasons:   list,
		}
	}
	blob, _ := json.Marshal(views)
	etag := fmt.Sprintf(`W/"%016x"`, xxhash.Sum64(blob))
	return &Snapshot{ETag: etag, Tours: views, UpdatedAt: time.Now().UTC()}
}

// Loader is the part of store.Store needed to build a snapshot.
type Loader interface {
	ListTours(ctx context.Context) ([]store.Tour, error)
	ListSeasons(ctx context.Context, tourID string) ([]store.Season, error)
}

// Cache holds the current snapshot and its subscribers.
type Cache struct {
	loader  Loader
	logger  *zap.Logger
	current atomic.Pointer[Snapshot]

	rebuildMu sync.Mutex

	subsMu sync.Mutex
	subs   map[chan string]struct{}
}

// New creates a cache holding an empty snapshot. Call Rebuild to fill it.
func New(loader Loader, logger *zap.Logger) *Cache {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Cache{
		loader: loader,
		logger: logger,
		subs:   make(map[chan string]struct{}),
	}
	c.current.Store(Build(nil, nil))
	return c
}

// Load returns the current snapshot.
func (c *Cache) Load() *Snapshot {
	return c.current.Load()
}

// Rebuild reloads every tour and its seasons from the store and swaps the
// snapshot in. Concurrent rebuilds run one at a time so the newest data wins.
func (c *Cache) Rebuild(ctx context.Context) (*Snapshot, error) {
	c.rebuildMu.Lock()
	defer c.rebuildMu.Unlock()

	tours, err := c.loader.ListTours(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tours: %w", err)
	}
	bySeason := make(map[string][]store.Season, len(tours))
	for _, t := range tours {
		list, err := c.loader.ListSeasons(ctx, t.ID)
		if err != nil {
			return nil, fmt.Errorf("list seasons of %s: %w", t.ID, err)
		}
		bySeason[t.ID] = list
	}

	snap := Build(tours, bySeason)
	c.Update(snap)
	c.logger.Debug("catalog snapshot rebuilt",
		zap.String("etag", snap.ETag),
		zap.Int("tours", len(snap.Tours)))
	return snap, nil
}

// Update swaps in snap and notifies subscribers when the ETag changed.
func (c *Cache) Update(snap *Snapshot) {
	prev := c.current.Swap(snap)
	telemetry.CatalogTours.Set(float64(len(snap.Tours)))
	if prev != nil && prev.ETag == snap.ETag {
		return
	}
	c.publish(snap.ETag)
}
