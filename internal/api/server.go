// Package api exposes the pricing service over HTTP.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"go.uber.org/zap"

	"github.com/passiotour/tourpricing/internal/audit"
	"github.com/passiotour/tourpricing/internal/auth"
	"github.com/passiotour/tourpricing/internal/catalog"
	"github.com/passiotour/tourpricing/internal/logging"
	"github.com/passiotour/tourpricing/internal/quote"
	"github.com/passiotour/tourpricing/internal/seasons"
	"github.com/passiotour/tourpricing/internal/store"
	"github.com/passiotour/tourpricing/internal/telemetry"
	"github.com/passiotour/tourpricing/internal/webhook"
)

const (
	requestTimeout    = 5 * time.Second
	heartbeatInterval = 25 * time.Second
)

// Server wires the store, the catalog snapshot and the quote service to HTTP.
type Server struct {
	store     store.Store
	catalog   *catalog.Cache
	quoter    *quote.Quoter
	validator *seasons.Validator
	auth      *auth.Authenticator
	audit     *audit.Service
	webhooks  *webhook.Dispatcher
	announcer Announcer
	logger    *zap.Logger
	clock     seasons.Clock

	rateLimitPerIP    int
	rateLimitPerKey   int
	corsOrigins       []string
	defaultCurrency   string
	heartbeatInterval time.Duration
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request and component logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// WithAudit records catalog mutations on svc.
func WithAudit(svc *audit.Service) Option {
	return func(s *Server) { s.audit = svc }
}

// WithWebhooks notifies d about every catalog change.
func WithWebhooks(d *webhook.Dispatcher) Option {
	return func(s *Server) { s.webhooks = d }
}

// Announcer spreads the ETag of a locally rebuilt catalog to other instances.
type Announcer interface {
	Announce(ctx context.Context, etag string) error
}

// WithAnnouncer publishes every rebuild made after a mutation through a.
func WithAnnouncer(a Announcer) Option {
	return func(s *Server) { s.announcer = a }
}

// WithClock sets the clock used for "today" and season validation.
func WithClock(clock seasons.Clock) Option {
	return func(s *Server) { s.clock = clock }
}

// WithCatalog shares an existing snapshot cache.
func WithCatalog(c *catalog.Cache) Option {
	return func(s *Server) { s.catalog = c }
}

// WithRateLimits sets requests per minute per client IP on public routes and
// per API key on authenticated routes. Zero disables a limit.
func WithRateLimits(perIP, perKey int) Option {
	return func(s *Server) {
		s.rateLimitPerIP = perIP
		s.rateLimitPerKey = perKey
	}
}

// WithCORS allows browser calls from origins.
func WithCORS(origins []string) Option {
	return func(s *Server) { s.corsOrigins = origins }
}

// WithDefaultCurrency sets the currency used when a tour omits one.
func WithDefaultCurrency(code string) Option {
	return func(s *Server) { s.defaultCurrency = code }
}

// NewServer creates a Server backed by st. adminKey is the legacy
// superadmin bearer token.
func NewServer(st store.Store, adminKey string, opts ...Option) *Server {
	s := &Server{
		store:             st,
		logger:            zap.NewNop(),
		clock:             seasons.SystemClock{},
		defaultCurrency:   "USD",
		heartbeatInterval: heartbeatInterval,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.catalog == nil {
		s.catalog = catalog.New(st, s.logger)
	}
	s.quoter = quote.New(s.catalog, s.logger)
	s.validator = seasons.NewValidator(s.clock)
	s.auth = auth.NewAuthenticator(st, adminKey,
		auth.WithLogger(s.logger),
		auth.WithErrorWriter(authError),
		auth.WithClock(s.clock.Now))
	return s
}

// Catalog returns the snapshot cache served by s.
func (s *Server) Catalog() *catalog.Cache {
	return s.catalog
}

// RebuildCatalog reloads the snapshot from the store.
func (s *Server) RebuildCatalog(ctx context.Context) error {
	_, err := s.catalog.Rebuild(ctx)
	return err
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP)
	r.Use(logging.Middleware(s.logger), telemetry.Middleware)
	r.Use(middleware.Recoverer)
	if len(s.corsOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: s.corsOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "If-None-Match"},
			ExposedHeaders: []string{"ETag"},
			MaxAge:         300,
		}))
	}

	// health
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	// public
	r.Group(func(r chi.Router) {
		if s.rateLimitPerIP > 0 {
			r.Use(httprate.Limit(s.rateLimitPerIP, time.Minute,
				httprate.WithKeyFuncs(httprate.KeyByIP),
				httprate.WithLimitHandler(RateLimitedError)))
		}

		// long-lived, so outside the request timeout
		r.Get("/v1/catalog/stream", s.handleStream)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(requestTimeout))
			r.Get("/v1/catalog/snapshot", s.handleSnapshot)
			r.Post("/v1/seasons/validate", s.handleValidateSeason)
			r.Get("/v1/tours/{tourID}/quote", s.handleQuote)
			r.Get("/v1/tours/{tourID}/calendar", s.handleCalendar)
		})
	})

	// authenticated
	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(requestTimeout))
		if s.rateLimitPerKey > 0 {
			r.Use(httprate.Limit(s.rateLimitPerKey, time.Minute,
				httprate.WithKeyFuncs(keyByBearer),
				httprate.WithLimitHandler(RateLimitedError)))
		}

		readonly := s.auth.RequireAuth(auth.RoleReadonly)
		admin := s.auth.RequireAuth(auth.RoleAdmin)

		r.With(readonly).Get("/v1/tours", s.handleListTours)
		r.With(readonly).Get("/v1/tours/{tourID}", s.handleGetTour)
		r.With(admin).Put("/v1/tours/{tourID}", s.handleUpsertTour)
		r.With(admin).Delete("/v1/tours/{tourID}", s.handleDeleteTour)

		r.With(readonly).Get("/v1/tours/{tourID}/seasons", s.handleListSeasons)
		r.With(admin).Post("/v1/tours/{tourID}/seasons", s.handleCreateSeason)
		r.With(admin).Put("/v1/tours/{tourID}/seasons/{seasonID}", s.handleUpdateSeason)
		r.With(admin).Delete("/v1/tours/{tourID}/seasons/{seasonID}", s.handleDeleteSeason)

		r.Route("/v1/admin/keys", func(r chi.Router) {
			r.Use(s.auth.RequireAuth(auth.RoleSuperadmin))
			r.Post("/", s.handleCreateAPIKey)
			r.Get("/", s.handleListAPIKeys)
			r.Delete("/{id}", s.handleRevokeAPIKey)
		})
	})

	return r
}

// keyByBearer limits per API key, falling back to the client IP for
// anonymous calls.
func keyByBearer(r *http.Request) (string, error) {
	if token := auth.ExtractBearerToken(r.Header.Get("Authorization")); token != "" {
		return "key:" + token, nil
	}
	return httprate.KeyByIP(r)
}

// afterMutation logs the audit event, rebuilds the snapshot and tells
// other instances and webhook endpoints about it.
func (s *Server) afterMutation(r *http.Request, event audit.Event) error {
	if s.audit != nil {
		s.audit.Log(event)
	}
	snap, err := s.catalog.Rebuild(r.Context())
	if err != nil {
		s.logger.Error("catalog rebuild failed", zap.Error(err))
		return err
	}
	if s.announcer != nil {
		if err := s.announcer.Announce(r.Context(), snap.ETag); err != nil {
			s.logger.Warn("catalog announce failed", zap.String("etag", snap.ETag), zap.Error(err))
		}
	}
	if s.webhooks != nil {
		if ev, ok := webhook.FromAudit(event, snap.ETag); ok {
			s.webhooks.Dispatch(ev)
		}
	}
	return nil
}
