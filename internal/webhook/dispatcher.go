package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/passiotour/tourpricing/internal/telemetry"
)

const (
	// queueSize is the buffer size for the event queue
	queueSize = 1000

	// maxResponseBodySize limits how much of a failed response is logged
	maxResponseBodySize = 1024

	defaultMaxRetries = 3
	defaultTimeout    = 5 * time.Second
)

// Header names set on every delivery.
const (
	HeaderSignature = "X-Tourpricing-Signature"
	HeaderEvent     = "X-Tourpricing-Event"
	HeaderDelivery  = "X-Tourpricing-Delivery"
)

// Endpoint is a receiver of catalog change events. An empty Events list
// subscribes to every event type.
type Endpoint struct {
	URL    string
	Secret string
	Events []string
}

func (e Endpoint) matches(event Event) bool {
	return len(e.Events) == 0 || slices.Contains(e.Events, event.Type)
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLogger sets the logger used for delivery results.
func WithLogger(logger *zap.Logger) Option {
	return func(d *Dispatcher) { d.logger = logger }
}

// WithMaxRetries sets how many times a failed delivery is retried.
func WithMaxRetries(n int) Option {
	return func(d *Dispatcher) { d.maxRetries = n }
}

// WithTimeout bounds each delivery attempt.
func WithTimeout(timeout time.Duration) Option {
	return func(d *Dispatcher) { d.timeout = timeout }
}

// WithBackoff replaces the exponential retry delay.
func WithBackoff(backoff func(attempt int) time.Duration) Option {
	return func(d *Dispatcher) { d.backoff = backoff }
}

// Dispatcher posts events to endpoints from a single background worker.
type Dispatcher struct {
	endpoints  []Endpoint
	client     *http.Client
	logger     *zap.Logger
	maxRetries int
	timeout    time.Duration
	backoff    func(attempt int) time.Duration

	queue     chan Event
	done      chan struct{}
	closeOnce sync.Once
}

// NewDispatcher creates a dispatcher and starts its worker.
func NewDispatcher(endpoints []Endpoint, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		endpoints:  endpoints,
		client:     &http.Client{},
		logger:     zap.NewNop(),
		maxRetries: defaultMaxRetries,
		timeout:    defaultTimeout,
		backoff: func(attempt int) time.Duration {
			return time.Duration(math.Pow(2, float64(attempt))) * time.Second
		},
		queue: make(chan Event, queueSize),
		done:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(d)
	}
	go d.worker()
	return d
}

// Close stops accepting events and waits until queued ones are delivered
// or have failed permanently. Safe to call more than once.
func (d *Dispatcher) Close() error {
	d.closeOnce.Do(func() {
		close(d.queue)
	})
	<-d.done
	return nil
}

// Dispatch queues an event for delivery without blocking the caller.
// Events are dropped when the queue is full.
func (d *Dispatcher) Dispatch(event Event) {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	select {
	case d.queue <- event:
	default:
		telemetry.WebhookDeliveries.WithLabelValues("dropped").Inc()
		d.logger.Error("webhook queue full, dropping event",
			zap.String("event", event.Type),
			zap.String("tour_id", event.TourID),
			zap.Int("queue_size", queueSize))
	}
}

func (d *Dispatcher) worker() {
	defer close(d.done)

	for event := range d.queue {
		for _, ep := range d.endpoints {
			if ep.matches(event) {
				d.deliverWithRetry(ep, event)
			}
		}
	}
}

// deliverWithRetry posts the event until the endpoint answers 2xx or the
// retries are used up. It reports whether delivery succeeded.
func (d *Dispatcher) deliverWithRetry(ep Endpoint, event Event) bool {
	payload, err := json.Marshal(event)
	if err != nil {
		d.logger.Error("webhook payload encoding failed", zap.String("event", event.Type), zap.Error(err))
		telemetry.WebhookDeliveries.WithLabelValues("failed").Inc()
		return false
	}

	log := d.logger.With(
		zap.String("url", ep.URL),
		zap.String("event", event.Type),
		zap.String("delivery_id", event.ID),
	)

	for attempt := 0; attempt <= d.maxRetries; attempt++ {
		start := time.Now()
		status, err := d.post(ep, event, payload)
		if err == nil {
			log.Info("webhook delivered",
				zap.Int("status", status),
				zap.Int("attempt", attempt+1),
				zap.Duration("duration", time.Since(start)))
			telemetry.WebhookDeliveries.WithLabelValues("delivered").Inc()
			return true
		}

		if attempt < d.maxRetries {
			wait := d.backoff(attempt)
			log.Warn("webhook delivery failed, retrying",
				zap.Int("attempt", attempt+1),
				zap.Duration("retry_in", wait),
				zap.Error(err))
			time.Sleep(wait)
			continue
		}
		log.Error("webhook delivery failed permanently", zap.Int("attempts", attempt+1), zap.Error(err))
	}
	telemetry.WebhookDeliveries.WithLabelValues("failed").Inc()
	return false
}

func (d *Dispatcher) post(ep Endpoint, event Event, payload []byte) (int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ep.URL, bytes.NewReader(payload))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(HeaderEvent, event.Type)
	req.Header.Set(HeaderDelivery, event.ID)
	if ep.Secret != "" {
		req.Header.Set(HeaderSignature, ComputeHMAC(payload, ep.Secret))
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodySize))
		return resp.StatusCode, fmt.Errorf("endpoint answered %d: %s", resp.StatusCode, bytes.TrimSpace(body))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode, nil
}
