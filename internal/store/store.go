package store

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/passiotour/tourpricing/internal/seasons"
)

// ErrNotFound is returned when a tour, season or API key does not exist.
var ErrNotFound = errors.New("not found")

// Store defines the interface for catalog persistence operations.
// Implementations must be thread-safe and support concurrent access.
type Store interface {
	// ListTours returns every tour ordered by ID.
	ListTours(ctx context.Context) ([]Tour, error)

	// GetTour returns ErrNotFound if the tour does not exist.
	GetTour(ctx context.Context, id string) (*Tour, error)

	// UpsertTour creates or updates a tour. Existing seasons are kept.
	UpsertTour(ctx context.Context, params TourParams) (*Tour, error)

	// DeleteTour removes a tour and all of its seasons.
	// Returns no error if the tour doesn't exist (idempotent).
	DeleteTour(ctx context.Context, id string) error

	// ListSeasons returns the seasons of a tour in evaluation order.
	// Returns an empty slice for unknown tours.
	ListSeasons(ctx context.Context, tourID string) ([]Season, error)

	// GetSeason returns ErrNotFound if the season does not exist.
	GetSeason(ctx context.Context, id string) (*Season, error)

	// CreateSeason appends a season at the end of the tour's evaluation order.
	// Returns ErrNotFound if the tour does not exist.
	CreateSeason(ctx context.Context, params SeasonParams) (*Season, error)

	// UpdateSeason replaces the rule fields of a season, keeping its position.
	UpdateSeason(ctx context.Context, id string, params SeasonParams) (*Season, error)

	// DeleteSeason removes a season. Idempotent.
	DeleteSeason(ctx context.Context, id string) error

	// ListAPIKeys returns every API key including disabled ones.
	ListAPIKeys(ctx context.Context) ([]APIKey, error)

	// CreateAPIKey stores a new key hash.
	CreateAPIKey(ctx context.Context, params APIKeyParams) (*APIKey, error)

	// UpdateAPIKeyLastUsed stamps the key with the current time.
	UpdateAPIKeyLastUsed(ctx context.Context, id string) error

	// RevokeAPIKey disables a key. Returns ErrNotFound for unknown keys.
	RevokeAPIKey(ctx context.Context, id string) error

	// Close releases any resources held by the store.
	// After Close is called, the store should not be used.
	Close() error
}

// Tour is a bookable tour and its base price per person.
type Tour struct {
	ID        string          `json:"id" yaml:"id"`
	Name      string          `json:"name" yaml:"name"`
	BasePrice decimal.Decimal `json:"base_price" yaml:"base_price"`
	Currency  string          `json:"currency" yaml:"currency"`
	UpdatedAt time.Time       `json:"updated_at" yaml:"updated_at"`
}

// TourParams contains the parameters for upserting a tour.
type TourParams struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	BasePrice decimal.Decimal `json:"base_price"`
	Currency  string          `json:"currency"`
}

// Season is a stored seasonal pricing rule attached to a tour.
type Season struct {
	ID            string    `json:"id" yaml:"id"`
	TourID        string    `json:"tour_id" yaml:"tour_id"`
	Name          string    `json:"name" yaml:"name"`
	StartDate     time.Time `json:"start_date" yaml:"start_date"`
	EndDate       time.Time `json:"end_date" yaml:"end_date"`
	PriceModifier float64   `json:"price_modifier" yaml:"price_modifier"`
	IsActive      bool      `json:"is_active" yaml:"is_active"`
	Position      int       `json:"position" yaml:"position"`
	CreatedAt     time.Time `json:"created_at" yaml:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" yaml:"updated_at"`
}

// Rule converts the season into the value evaluated by the pricing code.
func (s Season) Rule() seasons.Rule {
	return seasons.Rule{
		ID:            s.ID,
		Name:          s.Name,
		StartDate:     s.StartDate,
		EndDate:       s.EndDate,
		PriceModifier: s.PriceModifier,
		IsActive:      s.IsActive,
	}
}

// Rules converts seasons into rules, keeping their order.
func Rules(list []Season) []seasons.Rule {
	rules := make([]seasons.Rule, len(list))
	for i, s := range list {
		rules[i] = s.Rule()
	}
	return rules
}

// SeasonParams contains the parameters for creating or updating a season.
// TourID is ignored by UpdateSeason.
type SeasonParams struct {
	TourID        string    `json:"tour_id"`
	Name          string    `json:"name"`
	StartDate     time.Time `json:"start_date"`
	EndDate       time.Time `json:"end_date"`
	PriceModifier float64   `json:"price_modifier"`
	IsActive      bool      `json:"is_active"`
}

// APIKey is a stored, hashed API key.
type APIKey struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	KeyHash    string     `json:"-"`
	Role       string     `json:"role"`
	Enabled    bool       `json:"enabled"`
	CreatedBy  string     `json:"created_by"`
	CreatedAt  time.Time  `json:"created_at"`
	LastUsedAt *time.Time `json:"last_used_at,omitempty"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
}

// APIKeyParams contains the parameters for creating an API key.
type APIKeyParams struct {
	Name      string
	KeyHash   string
	Role      string
	CreatedBy string
	ExpiresAt *time.Time
}
