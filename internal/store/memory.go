package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is an in-memory implementation of the Store interface.
// It uses maps for storage and RWMutex for thread-safe concurrent access.
// This implementation is suitable for development, testing, or single-instance deployments.
type MemoryStore struct {
	mu       sync.RWMutex
	tours    map[string]Tour   // id -> Tour
	seasons  map[string]Season // id -> Season
	keys     map[string]APIKey // id -> APIKey
	position int               // monotonically increasing season position
	now      func() time.Time
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		tours:   make(map[string]Tour),
		seasons: make(map[string]Season),
		keys:    make(map[string]APIKey),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// ListTours returns every tour ordered by ID.
func (m *MemoryStore) ListTours(ctx context.Context) ([]Tour, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]Tour, 0, len(m.tours))
	for _, tour := range m.tours {
		result = append(result, tour)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// GetTour retrieves a single tour by id.
func (m *MemoryStore) GetTour(ctx context.Context, id string) (*Tour, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	tour, exists := m.tours[id]
	if !exists {
		return nil, ErrNotFound
	}
	return &tour, nil
}

// UpsertTour creates or updates a tour in memory.
func (m *MemoryStore) UpsertTour(ctx context.Context, params TourParams) (*Tour, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	tour := Tour{
		ID:        params.ID,
		Name:      params.Name,
		BasePrice: params.BasePrice,
		Currency:  params.Currency,
		UpdatedAt: m.now(),
	}
	m.tours[params.ID] = tour
	return &tour, nil
}

// DeleteTour removes a tour and its seasons from memory.
func (m *MemoryStore) DeleteTour(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.tours, id)
	for sid, s := range m.seasons {
		if s.TourID == id {
			delete(m.seasons, sid)
		}
	}
	return nil
}

// ListSeasons returns the tour's seasons ordered by position.
func (m *MemoryStore) ListSeasons(ctx context.Context, tourID string) ([]Season, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]Season, 0)
	for _, s := range m.seasons {
		if s.TourID == tourID {
			result = append(result, s)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Position < result[j].Position })
	return result, nil
}

// GetSeason retrieves a single season by id.
func (m *MemoryStore) GetSeason(ctx context.Context, id string) (*Season, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, exists := m.seasons[id]
	if !exists {
		return nil, ErrNotFound
	}
	return &s, nil
}

// CreateSeason appends a new season to the tour.
func (m *MemoryStore) CreateSeason(ctx context.Context, params SeasonParams) (*Season, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.tours[params.TourID]; !exists {
		return nil, ErrNotFound
	}

	m.position++
	now := m.now()
	s := Season{
		ID:            uuid.NewString(),
		TourID:        params.TourID,
		Name:          params.Name,
		StartDate:     params.StartDate,
		EndDate:       params.EndDate,
		PriceModifier: params.PriceModifier,
		IsActive:      params.IsActive,
		Position:      m.position,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	m.seasons[s.ID] = s
	return &s, nil
}

// UpdateSeason replaces the rule fields of an existing season.
func (m *MemoryStore) UpdateSeason(ctx context.Context, id string, params SeasonParams) (*Season, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, exists := m.seasons[id]
	if !exists {
		return nil, ErrNotFound
	}

	s.Name = params.Name
	s.StartDate = params.StartDate
	s.EndDate = params.EndDate
	s.PriceModifier = params.PriceModifier
	s.IsActive = params.IsActive
	s.UpdatedAt = m.now()
	m.seasons[id] = s
	return &s, nil
}

// DeleteSeason removes a season from memory.
func (m *MemoryStore) DeleteSeason(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Idempotent: no error if season doesn't exist
	delete(m.seasons, id)
	return nil
}

// ListAPIKeys returns all keys ordered by creation time.
func (m *MemoryStore) ListAPIKeys(ctx context.Context) ([]APIKey, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]APIKey, 0, len(m.keys))
	for _, k := range m.keys {
		result = append(result, k)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	return result, nil
}

// CreateAPIKey stores a new enabled key.
func (m *MemoryStore) CreateAPIKey(ctx context.Context, params APIKeyParams) (*APIKey, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	k := APIKey{
		ID:        uuid.NewString(),
		Name:      params.Name,
		KeyHash:   params.KeyHash,
		Role:      params.Role,
		Enabled:   true,
		CreatedBy: params.CreatedBy,
		CreatedAt: m.now(),
		ExpiresAt: params.ExpiresAt,
	}
	m.keys[k.ID] = k
	return &k, nil
}

// UpdateAPIKeyLastUsed stamps the key with the current time.
func (m *MemoryStore) UpdateAPIKeyLastUsed(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	k, exists := m.keys[id]
	if !exists {
		return ErrNotFound
	}
	now := m.now()
	k.LastUsedAt = &now
	m.keys[id] = k
	return nil
}

// RevokeAPIKey disables a key.
func (m *MemoryStore) RevokeAPIKey(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	k, exists := m.keys[id]
	if !exists {
		return ErrNotFound
	}
	k.Enabled = false
	m.keys[id] = k
	return nil
}

// Close is a no-op for MemoryStore as there are no resources to release.
func (m *MemoryStore) Close() error {
	return nil
}
