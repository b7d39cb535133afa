// Package audit records who changed the catalog and how.
package audit

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Action constants for audit logging
const (
	ActionCreated    = "created"
	ActionUpdated    = "updated"
	ActionDeleted    = "deleted"
	ActionRevoked    = "revoked"
	ActionAuthFailed = "auth_failed"
)

// ResourceType constants for audit logging
const (
	ResourceTypeTour   = "tour"
	ResourceTypeSeason = "season"
	ResourceTypeAPIKey = "api_key"
	ResourceTypeSystem = "system"
)

// Status constants for audit logging
const (
	StatusSuccess = "success"
	StatusFailure = "failure"
)

// ActorKind constants for audit logging
const (
	ActorKindAPIKey = "api_key"
	ActorKindAdmin  = "admin_key"
	ActorKindSystem = "system"
)

const writeTimeout = 5 * time.Second

// Clock interface for testable time operations
type Clock interface {
	Now() time.Time
}

// SystemClock implements Clock using time.Now()
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }

// IDGenerator interface for testable ID generation
type IDGenerator interface {
	Generate() string
}

// UUIDGenerator implements IDGenerator using UUID v4
type UUIDGenerator struct{}

func (UUIDGenerator) Generate() string { return uuid.NewString() }

// Redactor interface for removing sensitive data
type Redactor interface {
	Redact(data map[string]any) map[string]any
}

// DefaultRedactor replaces the values of well-known secret keys.
type DefaultRedactor struct {
	sensitiveKeys map[string]struct{}
}

func NewDefaultRedactor() *DefaultRedactor {
	keys := []string{
		"password", "secret", "token", "api_key", "key", "key_hash",
		"authorization", "cookie", "session",
	}
	r := &DefaultRedactor{sensitiveKeys: make(map[string]struct{}, len(keys))}
	for _, k := range keys {
		r.sensitiveKeys[k] = struct{}{}
	}
	return r
}

func (r *DefaultRedactor) Redact(data map[string]any) map[string]any {
	if data == nil {
		return nil
	}

	redacted := make(map[string]any, len(data))
	for k, v := range data {
		if _, sensitive := r.sensitiveKeys[k]; sensitive {
			redacted[k] = "[REDACTED]"
		} else if nested, ok := v.(map[string]any); ok {
			redacted[k] = r.Redact(nested)
		} else {
			redacted[k] = v
		}
	}
	return redacted
}

// Actor represents who performed the action
type Actor struct {
	Kind    string  `json:"kind"`
	ID      *string `json:"id,omitempty"`
	Display string  `json:"display"`
}

// Source represents request metadata
type Source struct {
	IPAddress string `json:"ip_address"`
	UserAgent string `json:"user_agent"`
}

// Event is one audited change.
type Event struct {
	OccurredAt   time.Time      `json:"occurred_at"`
	RequestID    string         `json:"request_id"`
	Actor        Actor          `json:"actor"`
	Source       Source         `json:"source"`
	Action       string         `json:"action"`
	ResourceType string         `json:"resource_type"`
	ResourceID   string         `json:"resource_id"`
	TourID       string         `json:"tour_id,omitempty"`
	BeforeState  map[string]any `json:"before_state,omitempty"`
	AfterState   map[string]any `json:"after_state,omitempty"`
	Changes      map[string]any `json:"changes,omitempty"`
	Status       string         `json:"status"`
	ErrorMessage *string        `json:"error_message,omitempty"`
}

// Sink persists audit events.
type Sink interface {
	Write(ctx context.Context, event Event) error
}

// Service queues events and writes them from a single background worker.
// Events are dropped, not blocked on, when the queue is full.
type Service struct {
	sink     Sink
	clock    Clock
	idgen    IDGenerator
	redactor Redactor
	logger   *zap.Logger

	queue     chan Event
	stopCh    chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// NewService creates a new audit service and starts its worker. Nil
// dependencies get their defaults.
func NewService(sink Sink, clock Clock, idgen IDGenerator, redactor Redactor, logger *zap.Logger, queueSize int) *Service {
	if clock == nil {
		clock = SystemClock{}
	}
	if idgen == nil {
		idgen = UUIDGenerator{}
	}
	if redactor == nil {
		redactor = NewDefaultRedactor()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if queueSize <= 0 {
		queueSize = 1
	}

	s := &Service{
		sink:     sink,
		clock:    clock,
		idgen:    idgen,
		redactor: redactor,
		logger:   logger,
		queue:    make(chan Event, queueSize),
		stopCh:   make(chan struct{}),
		done:     make(chan struct{}),
	}
	go s.worker()
	return s
}

func (s *Service) worker() {
	defer close(s.done)
	for {
		select {
		case event := <-s.queue:
			s.write(event)
		case <-s.stopCh:
			for {
				select {
				case event := <-s.queue:
					s.write(event)
				default:
					return
				}
			}
		}
	}
}

func (s *Service) write(event Event) {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	if err := s.sink.Write(ctx, event); err != nil {
		s.logger.Error("audit: failed to write event",
			zap.String("resource_type", event.ResourceType),
			zap.String("resource_id", event.ResourceID),
			zap.Error(err))
	}
}

// Close stops the worker after the queued events have been written.
// It is safe to call more than once.
func (s *Service) Close() error {
	s.closeOnce.Do(func() { close(s.stopCh) })
	<-s.done
	return nil
}

// Log queues an audit event for asynchronous processing
func (s *Service) Log(event Event) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = s.clock.Now()
	}
	if event.RequestID == "" {
		event.RequestID = s.idgen.Generate()
	}
	event.BeforeState = s.redactor.Redact(event.BeforeState)
	event.AfterState = s.redactor.Redact(event.AfterState)
	if event.Changes == nil {
		event.Changes = ComputeChanges(event.BeforeState, event.AfterState)
	}

	select {
	case <-s.stopCh:
		s.logger.Warn("audit: service closed, dropping event",
			zap.String("resource_type", event.ResourceType),
			zap.String("resource_id", event.ResourceID))
		return
	default:
	}

	select {
	case s.queue <- event:
	default:
		s.logger.Warn("audit: queue full, dropping event",
			zap.String("resource_type", event.ResourceType),
			zap.String("resource_id", event.ResourceID))
	}
}

// ToMap converts v into a JSON-shaped map for before and after states.
func ToMap(v any) map[string]any {
	if v == nil {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil
	}
	return m
}

// ComputeChanges computes the difference between before and after states
func ComputeChanges(before, after map[string]any) map[string]any {
	if before == nil && after == nil {
		return nil
	}
	if before == nil {
		before = make(map[string]any)
	}
	if after == nil {
		after = make(map[string]any)
	}

	changes := make(map[string]any)

	for key, afterVal := range after {
		beforeVal, existedBefore := before[key]

		beforeJSON, _ := json.Marshal(beforeVal)
		afterJSON, _ := json.Marshal(afterVal)

		if !existedBefore || string(beforeJSON) != string(afterJSON) {
			changes[key] = map[string]any{
				"before": beforeVal,
				"after":  afterVal,
			}
		}
	}

	for key, beforeVal := range before {
		if _, existsAfter := after[key]; !existsAfter {
			changes[key] = map[string]any{
				"before": beforeVal,
				"after":  nil,
			}
		}
	}

	if len(changes) == 0 {
		return nil
	}
	return changes
}
