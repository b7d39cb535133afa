package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

// LogSink writes audit events to a zap logger.
type LogSink struct {
	logger *zap.Logger
}

// NewLogSink creates a sink logging under the "audit" name.
func NewLogSink(logger *zap.Logger) *LogSink {
	return &LogSink{logger: logger.Named("audit")}
}

// Write logs the event at info level.
func (s *LogSink) Write(ctx context.Context, event Event) error {
	fields := []zap.Field{
		zap.Time("occurred_at", event.OccurredAt),
		zap.String("request_id", event.RequestID),
		zap.String("actor", event.Actor.Display),
		zap.String("action", event.Action),
		zap.String("resource_type", event.ResourceType),
		zap.String("resource_id", event.ResourceID),
		zap.String("status", event.Status),
		zap.String("ip_address", event.Source.IPAddress),
	}
	if event.TourID != "" {
		fields = append(fields, zap.String("tour_id", event.TourID))
	}
	if event.Changes != nil {
		fields = append(fields, zap.Any("changes", event.Changes))
	}
	if event.ErrorMessage != nil {
		fields = append(fields, zap.String("error_message", *event.ErrorMessage))
	}
	s.logger.Info("audit event", fields...)
	return nil
}

// Execer is satisfied by *pgxpool.Pool.
type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PostgresSink inserts audit events into the audit_log table.
type PostgresSink struct {
	db Execer
}

// NewPostgresSink creates a new PostgreSQL audit sink
func NewPostgresSink(db Execer) *PostgresSink {
	return &PostgresSink{db: db}
}

const insertAuditLog = `
	INSERT INTO audit_log (occurred_at, request_id, actor, action, resource_type, resource_id, status, ip_address, user_agent, details)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10::jsonb)`

// Write persists an audit event to the database
func (s *PostgresSink) Write(ctx context.Context, event Event) error {
	details := map[string]any{"actor": event.Actor}
	if event.TourID != "" {
		details["tour_id"] = event.TourID
	}
	if event.BeforeState != nil {
		details["before_state"] = event.BeforeState
	}
	if event.AfterState != nil {
		details["after_state"] = event.AfterState
	}
	if event.Changes != nil {
		details["changes"] = event.Changes
	}
	if event.ErrorMessage != nil {
		details["error_message"] = *event.ErrorMessage
	}
	blob, err := json.Marshal(details)
	if err != nil {
		return fmt.Errorf("marshal audit details: %w", err)
	}

	_, err = s.db.Exec(ctx, insertAuditLog,
		event.OccurredAt, event.RequestID, event.Actor.Display, event.Action,
		event.ResourceType, event.ResourceID, event.Status,
		event.Source.IPAddress, event.Source.UserAgent, string(blob))
	if err != nil {
		return fmt.Errorf("insert audit log: %w", err)
	}
	return nil
}

// MultiSink writes each event to every sink and returns the first error.
type MultiSink []Sink

func (m MultiSink) Write(ctx context.Context, event Event) error {
	var first error
	for _, s := range m {
		if err := s.Write(ctx, event); err != nil && first == nil {
			first = err
		}
	}
	return first
}
