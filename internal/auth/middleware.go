package auth

import (
	"context"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/passiotour/tourpricing/internal/store"
)

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

const (
	// ContextKeyAPIKey is the context key for storing the API key ID
	ContextKeyAPIKey contextKey = "api_key_id"
	// ContextKeyRole is the context key for storing the caller role
	ContextKeyRole contextKey = "role"
)

// KeyStore defines the interface for API key storage operations
type KeyStore interface {
	ListAPIKeys(ctx context.Context) ([]store.APIKey, error)
	UpdateAPIKeyLastUsed(ctx context.Context, id string) error
}

// ErrorWriter renders an authentication failure.
type ErrorWriter func(w http.ResponseWriter, r *http.Request, status int, message string)

func plainError(w http.ResponseWriter, _ *http.Request, status int, message string) {
	http.Error(w, message, status)
}

// Authenticator handles authentication for API requests
type Authenticator struct {
	keyStore       KeyStore
	legacyAdminKey string
	logger         *zap.Logger
	now            func() time.Time
	writeError     ErrorWriter
}

// Option configures an Authenticator.
type Option func(*Authenticator)

// WithLogger sets the logger used for background failures.
func WithLogger(logger *zap.Logger) Option {
	return func(a *Authenticator) { a.logger = logger }
}

// WithErrorWriter replaces the plain-text error responses.
func WithErrorWriter(fn ErrorWriter) Option {
	return func(a *Authenticator) { a.writeError = fn }
}

// WithClock sets the time source used for key expiry.
func WithClock(now func() time.Time) Option {
	return func(a *Authenticator) { a.now = now }
}

// NewAuthenticator creates a new Authenticator. legacyAdminKey, when set,
// authenticates as superadmin.
func NewAuthenticator(keyStore KeyStore, legacyAdminKey string, opts ...Option) *Authenticator {
	a := &Authenticator{
		keyStore:       keyStore,
		legacyAdminKey: legacyAdminKey,
		logger:         zap.NewNop(),
		now:            time.Now,
		writeError:     plainError,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// AuthResult contains the result of an authentication attempt
type AuthResult struct {
	Authenticated bool
	Role          Role
	APIKeyID      string
	Error         string
}

// Authenticate authenticates a request using the Authorization header.
// It supports both the legacy ADMIN_API_KEY and stored API keys.
func (a *Authenticator) Authenticate(ctx context.Context, authHeader string) AuthResult {
	token := ExtractBearerToken(authHeader)
	if token == "" {
		return AuthResult{Error: "missing bearer token"}
	}

	if a.legacyAdminKey != "" && VerifyAPIKeyConstantTime(token, a.legacyAdminKey) {
		return AuthResult{Authenticated: true, Role: RoleSuperadmin}
	}

	// bcrypt hashes are salted, so every enabled key has to be tried
	keys, err := a.keyStore.ListAPIKeys(ctx)
	if err != nil {
		a.logger.Error("list api keys", zap.Error(err))
		return AuthResult{Error: "authentication service unavailable"}
	}

	var apiKey *store.APIKey
	for i := range keys {
		if keys[i].Enabled && VerifyAPIKey(token, keys[i].KeyHash) {
			apiKey = &keys[i]
			break
		}
	}
	if apiKey == nil {
		return AuthResult{Error: "invalid token"}
	}

	if apiKey.ExpiresAt != nil && a.now().After(*apiKey.ExpiresAt) {
		return AuthResult{Error: "api key expired"}
	}

	id := apiKey.ID
	go func() {
		if err := a.keyStore.UpdateAPIKeyLastUsed(context.Background(), id); err != nil {
			a.logger.Warn("update api key last used", zap.String("api_key_id", id), zap.Error(err))
		}
	}()

	return AuthResult{
		Authenticated: true,
		Role:          Role(apiKey.Role),
		APIKeyID:      apiKey.ID,
	}
}

// RequireAuth is a middleware that requires a caller with at least requiredRole.
func (a *Authenticator) RequireAuth(requiredRole Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			result := a.Authenticate(r.Context(), r.Header.Get("Authorization"))
			if !result.Authenticated {
				a.writeError(w, r, http.StatusUnauthorized, result.Error)
				return
			}
			if !HasPermission(result.Role, requiredRole) {
				a.writeError(w, r, http.StatusForbidden, "insufficient permissions")
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeyRole, result.Role)
			if result.APIKeyID != "" {
				ctx = context.WithValue(ctx, ContextKeyAPIKey, result.APIKeyID)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetRoleFromContext extracts the role from the request context
func GetRoleFromContext(ctx context.Context) (Role, bool) {
	role, ok := ctx.Value(ContextKeyRole).(Role)
	return role, ok
}

// GetAPIKeyIDFromContext extracts the API key ID from the request context.
// Requests authenticated with the legacy admin key carry no ID.
func GetAPIKeyIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(ContextKeyAPIKey).(string)
	return id, ok && id != ""
}

// ClientIP returns the first address of X-Forwarded-For, then X-Real-IP,
// then the connection's remote address.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	return r.RemoteAddr
}
