// Package inventory implements inventories, their items and the generation
// of custom item ids on top of a store.Store.
package inventory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/alfredjeanlab/invtrack/internal/events"
	"github.com/alfredjeanlab/invtrack/internal/idformat"
	"github.com/alfredjeanlab/invtrack/internal/metrics"
	"github.com/alfredjeanlab/invtrack/internal/model"
	"github.com/alfredjeanlab/invtrack/internal/store"
)

var (
	// ErrIDGenerationFailed is returned when every attempt to persist an item
	// under a freshly generated id collided with another writer.
	ErrIDGenerationFailed = errors.New("custom id generation failed")

	// ErrForbidden is returned when the actor lacks the access level an
	// operation needs.
	ErrForbidden = errors.New("forbidden")
)

// InputError indicates invalid caller input. Front ends map it to a
// validation message rather than a server failure.
type InputError string

func (e InputError) Error() string { return string(e) }

var tracer = otel.Tracer("github.com/alfredjeanlab/invtrack/internal/inventory")

// Service coordinates inventories, items and their custom ids.
type Service struct {
	store     store.Store
	publisher events.Publisher
	metrics   *metrics.Metrics
	logger    *slog.Logger
	generator *idformat.Generator
	validator *idformat.Validator
}

// Option configures a Service.
type Option func(*Service)

// WithPublisher sets the event publisher. The default discards events.
func WithPublisher(p events.Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

// WithMetrics sets the collectors updated by id generation.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithGenerator replaces the id generator, typically to pin its clock or
// random source.
func WithGenerator(g *idformat.Generator) Option {
	return func(s *Service) { s.generator = g }
}

// New returns a Service backed by st.
func New(st store.Store, opts ...Option) *Service {
	s := &Service{
		store:     st,
		publisher: &events.NoopPublisher{},
		logger:    slog.Default(),
		generator: idformat.NewGenerator(),
		validator: idformat.NewValidator(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// recordAndPublish persists an event to the store and publishes it.
// Both operations are best-effort; failures are logged but do not fail the caller.
func (s *Service) recordAndPublish(ctx context.Context, topic, inventoryID, itemID, actor string, event any) {
	payload, err := json.Marshal(event)
	if err != nil {
		s.logger.Warn("failed to marshal event", "topic", topic, "inventory_id", inventoryID, "error", err)
		return
	}
	if err := s.store.RecordEvent(ctx, &model.Event{
		Topic:       topic,
		InventoryID: inventoryID,
		ItemID:      itemID,
		Actor:       actor,
		Payload:     payload,
	}); err != nil {
		s.logger.Warn("failed to record event", "topic", topic, "inventory_id", inventoryID, "error", err)
	}
	err = s.publisher.Publish(ctx, topic, event)
	s.metrics.RecordPublish(topic, err)
	if err != nil {
		s.logger.Warn("failed to publish event", "topic", topic, "inventory_id", inventoryID, "error", err)
	}
}

// startSpan starts a span named op tagged with the inventory id.
func startSpan(ctx context.Context, op, inventoryID string) (context.Context, trace.Span) {
	ctx, span := tracer.Start(ctx, "inventory."+op)
	if inventoryID != "" {
		span.SetAttributes(attrInventoryID.String(inventoryID))
	}
	return ctx, span
}

// endSpan records err on span and ends it.
func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// segmentsOf parses the inventory's stored id format.
func segmentsOf(inv *model.Inventory) ([]idformat.Segment, error) {
	segments, err := idformat.Parse(inv.IDFormat)
	if err != nil {
		return nil, fmt.Errorf("inventory %s: stored id format: %w", inv.ID, err)
	}
	return segments, nil
}

// notFound turns store.ErrNotFound into a message naming the missing entity.
func notFound(err error, kind, id string) error {
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("%s %s: %w", kind, id, err)
	}
	return err
}

// pinVersion returns the version an update is conditioned on: the caller's
// expected version, or the version just read when the caller passed zero.
func pinVersion(current, expected int64) int64 {
	if expected == 0 {
		return current
	}
	return expected
}
