package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/passiotour/tourpricing/internal/audit"
	"github.com/passiotour/tourpricing/internal/auth"
	"github.com/passiotour/tourpricing/internal/store"
)

// --- API Key Management Endpoints ---

type createKeyRequest struct {
	Name      string  `json:"name"`
	Role      string  `json:"role"`
	ExpiresAt *string `json:"expires_at,omitempty"` // RFC 3339
}

type createKeyResponse struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Key       string  `json:"key"` // only returned here
	Role      string  `json:"role"`
	CreatedAt string  `json:"created_at"`
	ExpiresAt *string `json:"expires_at,omitempty"`
}

type listKeysResponse struct {
	Keys []keyInfo `json:"keys"`
}

type keyInfo struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Role       string  `json:"role"`
	Enabled    bool    `json:"enabled"`
	CreatedBy  string  `json:"created_by"`
	CreatedAt  string  `json:"created_at"`
	LastUsedAt *string `json:"last_used_at,omitempty"`
	ExpiresAt  *string `json:"expires_at,omitempty"`
}

func toKeyInfo(k store.APIKey) keyInfo {
	return keyInfo{
		ID:         k.ID,
		Name:       k.Name,
		Role:       k.Role,
		Enabled:    k.Enabled,
		CreatedBy:  k.CreatedBy,
		CreatedAt:  k.CreatedAt.UTC().Format(time.RFC3339),
		LastUsedAt: optionalTime(k.LastUsedAt),
		ExpiresAt:  optionalTime(k.ExpiresAt),
	}
}

// handleCreateAPIKey creates a new API key (superadmin only)
func (s *Server) handleCreateAPIKey(w http.ResponseWriter, r *http.Request) {
	var req createKeyRequest
	if !decodeJSON(w, r, &req, "expected fields 'name', 'role', and optional 'expires_at'") {
		return
	}

	validationErrors := make(map[string]string)
	if strings.TrimSpace(req.Name) == "" {
		validationErrors["name"] = "Name is required"
	}
	if !auth.ValidateRole(req.Role) {
		validationErrors["role"] = "Role must be readonly, admin, or superadmin"
	}

	var expiresAt *time.Time
	if req.ExpiresAt != nil && *req.ExpiresAt != "" {
		t, err := time.Parse(time.RFC3339, *req.ExpiresAt)
		switch {
		case err != nil:
			validationErrors["expires_at"] = "Invalid format: use RFC 3339 (e.g., 2026-12-31T23:59:59Z)"
		case !t.After(s.clock.Now()):
			validationErrors["expires_at"] = "Expiry must be in the future"
		default:
			expiresAt = &t
		}
	}

	if len(validationErrors) > 0 {
		ValidationError(w, r, "Validation failed for one or more fields", validationErrors)
		return
	}

	key, err := auth.GenerateAPIKey()
	if err != nil {
		InternalError(w, r, "Failed to generate key")
		return
	}
	keyHash, err := auth.HashAPIKey(key)
	if err != nil {
		InternalError(w, r, "Failed to hash key")
		return
	}

	createdBy := "admin_key"
	if id, ok := auth.GetAPIKeyIDFromContext(r.Context()); ok {
		createdBy = "api_key:" + id
	}

	apiKey, err := s.store.CreateAPIKey(r.Context(), store.APIKeyParams{
		Name:      strings.TrimSpace(req.Name),
		KeyHash:   keyHash,
		Role:      req.Role,
		CreatedBy: createdBy,
		ExpiresAt: expiresAt,
	})
	if err != nil {
		InternalError(w, r, "Failed to create key")
		return
	}

	if s.audit != nil {
		s.audit.Log(audit.NewEventBuilder(r).
			ForResource(audit.ResourceTypeAPIKey, apiKey.ID).
			WithAction(audit.ActionCreated).
			WithAfterState(audit.ToMap(toKeyInfo(*apiKey))).
			Build())
	}

	writeJSON(w, http.StatusCreated, createKeyResponse{
		ID:        apiKey.ID,
		Name:      apiKey.Name,
		Key:       key,
		Role:      apiKey.Role,
		CreatedAt: apiKey.CreatedAt.UTC().Format(time.RFC3339),
		ExpiresAt: optionalTime(apiKey.ExpiresAt),
	})
}

// handleListAPIKeys lists all API keys without their secrets
func (s *Server) handleListAPIKeys(w http.ResponseWriter, r *http.Request) {
	keys, err := s.store.ListAPIKeys(r.Context())
	if err != nil {
		InternalError(w, r, "Failed to list keys")
		return
	}

	resp := listKeysResponse{Keys: make([]keyInfo, 0, len(keys))}
	for _, k := range keys {
		resp.Keys = append(resp.Keys, toKeyInfo(k))
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleRevokeAPIKey disables an API key (superadmin only)
func (s *Server) handleRevokeAPIKey(w http.ResponseWriter, r *http.Request) {
	keyID := chi.URLParam(r, "id")

	if err := s.store.RevokeAPIKey(r.Context(), keyID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			NotFoundError(w, r, "API key not found")
			return
		}
		if s.audit != nil {
			s.audit.Log(audit.NewEventBuilder(r).
				ForResource(audit.ResourceTypeAPIKey, keyID).
				WithAction(audit.ActionRevoked).
				Failure("Failed to revoke key").
				Build())
		}
		InternalError(w, r, "Failed to revoke key")
		return
	}

	if s.audit != nil {
		s.audit.Log(audit.NewEventBuilder(r).
			ForResource(audit.ResourceTypeAPIKey, keyID).
			WithAction(audit.ActionRevoked).
			WithAfterState(map[string]any{"enabled": false}).
			Build())
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"ok":      true,
		"message": "API key revoked successfully",
	})
}
