package inventory

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/alfredjeanlab/invtrack/internal/idformat"
	"github.com/alfredjeanlab/invtrack/internal/metrics"
	"github.com/alfredjeanlab/invtrack/internal/model"
	"github.com/alfredjeanlab/invtrack/internal/store"
)

// MaxIDAttempts bounds the transactions spent persisting one generated id.
const MaxIDAttempts = 3

// retryable reports whether a failed attempt may succeed with a fresh id.
func retryable(err error) bool {
	return errors.Is(err, store.ErrDuplicateID) || errors.Is(err, store.ErrSequenceConflict)
}

// generateInTx locks the counter of every sequence segment, renders an id and
// writes the advanced counters back, all within tx. The caller persists the
// item carrying the id in the same transaction.
func (s *Service) generateInTx(ctx context.Context, tx store.Store, inventoryID string, segments []idformat.Segment) (idformat.Result, error) {
	// Lock in segment id order so concurrent writers never wait on each other
	// in opposite orders.
	var ids []string
	for _, seg := range idformat.SequenceSegments(segments) {
		if !slices.Contains(ids, seg.ID) {
			ids = append(ids, seg.ID)
		}
	}
	slices.Sort(ids)

	state := make(idformat.SequenceState, len(ids))
	for _, id := range ids {
		prior, err := tx.LockSequence(ctx, inventoryID, id)
		if err != nil {
			return idformat.Result{}, fmt.Errorf("locking sequence %s: %w", id, err)
		}
		if prior != nil {
			state[id] = *prior
		}
	}

	res, err := s.generator.Generate(state, segments)
	if err != nil {
		return idformat.Result{}, err
	}

	for _, id := range ids {
		if err := tx.SetSequence(ctx, inventoryID, id, res.Sequences[id]); err != nil {
			return idformat.Result{}, fmt.Errorf("advancing sequence %s: %w", id, err)
		}
	}
	return res, nil
}

// withGeneratedID generates an id for the inventory and hands it to persist,
// inside one transaction per attempt. Attempts that fail with a duplicate id
// or a counter conflict are retried with a fresh transaction, up to
// MaxIDAttempts; other errors are returned at once.
func (s *Service) withGeneratedID(ctx context.Context, inventoryID string, segments []idformat.Segment, persist func(tx store.Store, res idformat.Result) error) (idformat.Result, error) {
	ctx, span := startSpan(ctx, "generate_id", inventoryID)
	start := time.Now()

	var lastErr error
	for attempt := 1; attempt <= MaxIDAttempts; attempt++ {
		span.SetAttributes(attrAttempt.Int(attempt))

		var res idformat.Result
		err := s.store.RunInTransaction(ctx, func(tx store.Store) error {
			var err error
			res, err = s.generateInTx(ctx, tx, inventoryID, segments)
			if err != nil {
				return err
			}
			return persist(tx, res)
		})
		if err == nil {
			s.metrics.ObserveIDGeneration(metrics.OutcomeSuccess, attempt, time.Since(start))
			s.metrics.RecordSequenceAdvance(inventoryID, len(res.Sequences))
			endSpan(span, nil)
			return res, nil
		}
		if !retryable(err) {
			s.metrics.ObserveIDGeneration(metrics.OutcomeError, attempt, time.Since(start))
			endSpan(span, err)
			return idformat.Result{}, err
		}

		lastErr = err
		s.logger.Info("custom id attempt failed", "inventory_id", inventoryID, "attempt", attempt, "error", err)
		if attempt < MaxIDAttempts {
			s.metrics.RecordRetry()
		}
		if ctx.Err() != nil {
			break
		}
	}

	s.metrics.ObserveIDGeneration(metrics.OutcomeExhausted, MaxIDAttempts, time.Since(start))
	err := fmt.Errorf("%w for inventory %s after %d attempts: %w", ErrIDGenerationFailed, inventoryID, MaxIDAttempts, lastErr)
	s.logger.Warn("custom id generation exhausted", "inventory_id", inventoryID, "error", lastErr)
	endSpan(span, err)
	return idformat.Result{}, err
}

// ListSequences returns the persisted counters of an inventory, ordered by
// segment id. Readers may list.
func (s *Service) ListSequences(ctx context.Context, actor, inventoryID string) ([]*model.SequenceCounter, error) {
	inv, err := s.store.GetInventory(ctx, inventoryID)
	if err != nil {
		return nil, notFound(err, "inventory", inventoryID)
	}
	if err := authorize(inv, actor, model.AccessRead); err != nil {
		return nil, err
	}
	counters, err := s.store.ListSequences(ctx, inventoryID)
	if err != nil {
		return nil, fmt.Errorf("listing sequences: %w", err)
	}
	return counters, nil
}
