package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// PostgresStore is a PostgreSQL implementation of the Store interface.
// Prices travel as text so NUMERIC values keep their exact scale.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL-backed store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Pool exposes the underlying pool for components sharing the connection,
// such as the audit sink.
func (p *PostgresStore) Pool() *pgxpool.Pool {
	return p.pool
}

// --- Tours ---

const tourColumns = `id, name, base_price::text, currency, updated_at`

func scanTour(row pgx.Row) (Tour, error) {
	var (
		t     Tour
		price string
	)
	if err := row.Scan(&t.ID, &t.Name, &price, &t.Currency, &t.UpdatedAt); err != nil {
		return Tour{}, err
	}
	d, err := decimal.NewFromString(price)
	if err != nil {
		return Tour{}, fmt.Errorf("tour %s: invalid base price %q: %w", t.ID, price, err)
	}
	t.BasePrice = d
	return t, nil
}

// ListTours retrieves all tours ordered by id.
func (p *PostgresStore) ListTours(ctx context.Context) ([]Tour, error) {
	rows, err := p.pool.Query(ctx, `SELECT `+tourColumns+` FROM tours ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tours := make([]Tour, 0)
	for rows.Next() {
		t, err := scanTour(rows)
		if err != nil {
			return nil, err
		}
		tours = append(tours, t)
	}
	return tours, rows.Err()
}

// GetTour retrieves a single tour by id.
func (p *PostgresStore) GetTour(ctx context.Context, id string) (*Tour, error) {
	t, err := scanTour(p.pool.QueryRow(ctx, `SELECT `+tourColumns+` FROM tours WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

// UpsertTour creates or updates a tour.
func (p *PostgresStore) UpsertTour(ctx context.Context, params TourParams) (*Tour, error) {
	t, err := scanTour(p.pool.QueryRow(ctx, `
		INSERT INTO tours (id, name, base_price, currency, updated_at)
		VALUES ($1, $2, $3::numeric, $4, now())
		ON CONFLICT (id) DO UPDATE
		SET name = EXCLUDED.name,
		    base_price = EXCLUDED.base_price,
		    currency = EXCLUDED.currency,
		    updated_at = now()
		RETURNING `+tourColumns,
		params.ID, params.Name, params.BasePrice.String(), params.Currency))
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// DeleteTour removes a tour; seasons go with it through ON DELETE CASCADE.
func (p *PostgresStore) DeleteTour(ctx context.Context, id string) error {
	_, err := p.pool.Exec(ctx, `DELETE FROM tours WHERE id = $1`, id)
	return err
}

// --- Seasons ---

const seasonColumns = `id::text, tour_id, name, start_date, end_date, price_modifier, is_active, position, created_at, updated_at`

func scanSeason(row pgx.Row) (Season, error) {
	var (
		s        Season
		position int64
	)
	err := row.Scan(&s.ID, &s.TourID, &s.Name, &s.StartDate, &s.EndDate,
		&s.PriceModifier, &s.IsActive, &position, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return Season{}, err
	}
	s.Position = int(position)
	return s, nil
}

// ListSeasons retrieves a tour's seasons in evaluation order.
func (p *PostgresStore) ListSeasons(ctx context.Context, tourID string) ([]Season, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT `+seasonColumns+` FROM seasons WHERE tour_id = $1 ORDER BY position, created_at`, tourID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := make([]Season, 0)
	for rows.Next() {
		s, err := scanSeason(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, s)
	}
	return list, rows.Err()
}

// GetSeason retrieves a single season by id.
func (p *PostgresStore) GetSeason(ctx context.Context, id string) (*Season, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	s, err := scanSeason(p.pool.QueryRow(ctx, `SELECT `+seasonColumns+` FROM seasons WHERE id = $1::uuid`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}

// CreateSeason inserts a season at the end of the tour's order.
func (p *PostgresStore) CreateSeason(ctx context.Context, params SeasonParams) (*Season, error) {
	var exists bool
	if err := p.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM tours WHERE id = $1)`, params.TourID).Scan(&exists); err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrNotFound
	}

	s, err := scanSeason(p.pool.QueryRow(ctx, `
		INSERT INTO seasons (id, tour_id, name, start_date, end_date, price_modifier, is_active)
		VALUES ($1::uuid, $2, $3, $4, $5, $6, $7)
		RETURNING `+seasonColumns,
		uuid.NewString(), params.TourID, params.Name, params.StartDate, params.EndDate,
		params.PriceModifier, params.IsActive))
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// UpdateSeason replaces the rule fields of a season.
func (p *PostgresStore) UpdateSeason(ctx context.Context, id string, params SeasonParams) (*Season, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	s, err := scanSeason(p.pool.QueryRow(ctx, `
		UPDATE seasons
		SET name = $2, start_date = $3, end_date = $4, price_modifier = $5, is_active = $6, updated_at = now()
		WHERE id = $1::uuid
		RETURNING `+seasonColumns,
		id, params.Name, params.StartDate, params.EndDate, params.PriceModifier, params.IsActive))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}

// DeleteSeason removes a season. Unknown or malformed ids are a no-op.
func (p *PostgresStore) DeleteSeason(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return nil
	}
	_, err := p.pool.Exec(ctx, `DELETE FROM seasons WHERE id = $1::uuid`, id)
	return err
}

// --- API Keys ---

const apiKeyColumns = `id::text, name, key_hash, role, enabled, created_by, created_at, last_used_at, expires_at`

func scanAPIKey(row pgx.Row) (APIKey, error) {
	var k APIKey
	err := row.Scan(&k.ID, &k.Name, &k.KeyHash, &k.Role, &k.Enabled, &k.CreatedBy,
		&k.CreatedAt, &k.LastUsedAt, &k.ExpiresAt)
	return k, err
}

// ListAPIKeys retrieves all API keys from the database.
func (p *PostgresStore) ListAPIKeys(ctx context.Context) ([]APIKey, error) {
	rows, err := p.pool.Query(ctx, `SELECT `+apiKeyColumns+` FROM api_keys ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	keys := make([]APIKey, 0)
	for rows.Next() {
		k, err := scanAPIKey(rows)
		if err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// CreateAPIKey creates a new API key in the database.
func (p *PostgresStore) CreateAPIKey(ctx context.Context, params APIKeyParams) (*APIKey, error) {
	k, err := scanAPIKey(p.pool.QueryRow(ctx, `
		INSERT INTO api_keys (id, name, key_hash, role, created_by, expires_at)
		VALUES ($1::uuid, $2, $3, $4, $5, $6)
		RETURNING `+apiKeyColumns,
		uuid.NewString(), params.Name, params.KeyHash, params.Role, params.CreatedBy, params.ExpiresAt))
	if err != nil {
		return nil, err
	}
	return &k, nil
}

// UpdateAPIKeyLastUsed updates the last_used_at timestamp for an API key.
func (p *PostgresStore) UpdateAPIKeyLastUsed(ctx context.Context, id string) error {
	tag, err := p.pool.Exec(ctx, `UPDATE api_keys SET last_used_at = $2 WHERE id = $1::uuid`, id, time.Now().UTC())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// RevokeAPIKey disables an API key.
func (p *PostgresStore) RevokeAPIKey(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrNotFound
	}
	tag, err := p.pool.Exec(ctx, `UPDATE api_keys SET enabled = FALSE WHERE id = $1::uuid`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Close closes the database connection pool.
func (p *PostgresStore) Close() error {
	p.pool.Close()
	return nil
}
