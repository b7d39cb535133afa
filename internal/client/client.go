// Package client is an HTTP client for the pricing API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/passiotour/tourpricing/internal/api"
	"github.com/passiotour/tourpricing/internal/catalog"
	"github.com/passiotour/tourpricing/internal/seasons"
	"github.com/passiotour/tourpricing/internal/store"
)

// Client is an HTTP client for the pricing API
type Client struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
}

// NewClient creates a new API client
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		APIKey:  apiKey,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// APIError is a non-2xx answer from the API.
type APIError struct {
	StatusCode int
	Response   *api.ErrorResponse // nil when the body was not a structured error
	Body       string
}

func (e *APIError) Error() string {
	if e.Response == nil {
		return fmt.Sprintf("API error (status %d): %s", e.StatusCode, e.Body)
	}
	msg := fmt.Sprintf("API error (status %d, %s): %s", e.StatusCode, e.Response.Code, e.Response.Message)
	if len(e.Response.Errors) > 0 {
		msg += ": " + strings.Join(e.Response.Errors, "; ")
	}
	for field, problem := range e.Response.Fields {
		msg += fmt.Sprintf("; %s: %s", field, problem)
	}
	return msg
}

// do sends a request and decodes a JSON answer into out when out is non-nil.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		bodyBytes, _ := io.ReadAll(resp.Body)
		apiErr := &APIError{StatusCode: resp.StatusCode, Body: string(bodyBytes)}
		var errResp api.ErrorResponse
		if json.Unmarshal(bodyBytes, &errResp) == nil && errResp.Code != "" {
			apiErr.Response = &errResp
		}
		return apiErr
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func tourPath(tourID string) string {
	return "/v1/tours/" + url.PathEscape(tourID)
}

// ListTours retrieves every tour
func (c *Client) ListTours(ctx context.Context) ([]store.Tour, error) {
	var result struct {
		Tours []store.Tour `json:"tours"`
	}
	if err := c.do(ctx, http.MethodGet, "/v1/tours", nil, &result); err != nil {
		return nil, err
	}
	return result.Tours, nil
}

// GetTour retrieves a single tour by id
func (c *Client) GetTour(ctx context.Context, tourID string) (*store.Tour, error) {
	var tour store.Tour
	if err := c.do(ctx, http.MethodGet, tourPath(tourID), nil, &tour); err != nil {
		return nil, err
	}
	return &tour, nil
}

// PutTour creates or updates a tour
func (c *Client) PutTour(ctx context.Context, tourID string, req api.TourRequest) (*store.Tour, error) {
	var tour store.Tour
	if err := c.do(ctx, http.MethodPut, tourPath(tourID), req, &tour); err != nil {
		return nil, err
	}
	return &tour, nil
}

// DeleteTour deletes a tour and its seasons
func (c *Client) DeleteTour(ctx context.Context, tourID string) error {
	return c.do(ctx, http.MethodDelete, tourPath(tourID), nil, nil)
}

// ListSeasons retrieves a tour's seasons in evaluation order
func (c *Client) ListSeasons(ctx context.Context, tourID string) ([]api.SeasonResponse, error) {
	var result struct {
		Seasons []api.SeasonResponse `json:"seasons"`
	}
	if err := c.do(ctx, http.MethodGet, tourPath(tourID)+"/seasons", nil, &result); err != nil {
		return nil, err
	}
	return result.Seasons, nil
}

// CreateSeason appends a season to a tour
func (c *Client) CreateSeason(ctx context.Context, tourID string, req api.SeasonRequest) (*api.SeasonResponse, error) {
	var season api.SeasonResponse
	if err := c.do(ctx, http.MethodPost, tourPath(tourID)+"/seasons", req, &season); err != nil {
		return nil, err
	}
	return &season, nil
}

// UpdateSeason replaces a season's rule fields
func (c *Client) UpdateSeason(ctx context.Context, tourID, seasonID string, req api.SeasonRequest) (*api.SeasonResponse, error) {
	var season api.SeasonResponse
	path := tourPath(tourID) + "/seasons/" + url.PathEscape(seasonID)
	if err := c.do(ctx, http.MethodPut, path, req, &season); err != nil {
		return nil, err
	}
	return &season, nil
}

// DeleteSeason deletes a season
func (c *Client) DeleteSeason(ctx context.Context, tourID, seasonID string) error {
	return c.do(ctx, http.MethodDelete, tourPath(tourID)+"/seasons/"+url.PathEscape(seasonID), nil, nil)
}

// Quote prices a tour on date (YYYY-MM-DD). An empty date means today.
func (c *Client) Quote(ctx context.Context, tourID, date string) (*api.QuoteResponse, error) {
	path := tourPath(tourID) + "/quote"
	if date != "" {
		path += "?" + url.Values{"date": {date}}.Encode()
	}
	var quote api.QuoteResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &quote); err != nil {
		return nil, err
	}
	return &quote, nil
}

// Calendar prices a tour for every day from..to. Empty bounds use the
// server defaults.
func (c *Client) Calendar(ctx context.Context, tourID, from, to string) (*api.CalendarResponse, error) {
	q := url.Values{}
	if from != "" {
		q.Set("from", from)
	}
	if to != "" {
		q.Set("to", to)
	}
	path := tourPath(tourID) + "/calendar"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	var cal api.CalendarResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &cal); err != nil {
		return nil, err
	}
	return &cal, nil
}

// ValidateSeason checks a season definition without storing it
func (c *Client) ValidateSeason(ctx context.Context, req api.ValidateSeasonRequest) (*seasons.ValidationResult, error) {
	var result seasons.ValidationResult
	if err := c.do(ctx, http.MethodPost, "/v1/seasons/validate", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Snapshot retrieves the whole catalog with every tour's seasons
func (c *Client) Snapshot(ctx context.Context) (*catalog.Snapshot, error) {
	var snap catalog.Snapshot
	if err := c.do(ctx, http.MethodGet, "/v1/catalog/snapshot", nil, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}
