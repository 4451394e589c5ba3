package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/alfredjeanlab/invtrack/internal/events"
	"github.com/alfredjeanlab/invtrack/internal/idformat"
	"github.com/alfredjeanlab/invtrack/internal/model"
)

// SetIDFormat replaces the custom id format of an inventory. The document is
// stored in canonical form together with its hash; items generated under an
// older format become stale. expectedVersion must match the inventory's
// current version; zero skips the check. Only owners may change the format.
func (s *Service) SetIDFormat(ctx context.Context, actor, inventoryID string, doc []byte, expectedVersion int64) (inv *model.Inventory, err error) {
	ctx, span := startSpan(ctx, "set_id_format", inventoryID)
	defer func() { endSpan(span, err) }()

	canon, err := idformat.Canonicalize(doc)
	if err != nil {
		if errors.Is(err, idformat.ErrMalformedFormat) {
			return nil, InputError(err.Error())
		}
		return nil, err
	}

	inv, err = s.store.GetInventory(ctx, inventoryID)
	if err != nil {
		return nil, notFound(err, "inventory", inventoryID)
	}
	if err := authorize(inv, actor, model.AccessOwner); err != nil {
		return nil, err
	}

	inv.IDFormat = canon.Document
	inv.IDFormatHash = canon.Hash
	inv.Version = pinVersion(inv.Version, expectedVersion)
	if err := s.store.UpdateInventory(ctx, inv); err != nil {
		return nil, fmt.Errorf("saving id format: %w", err)
	}

	s.recordAndPublish(ctx, events.TopicFormatUpdated, inv.ID, "", actor, events.FormatUpdated{
		InventoryID: inv.ID,
		Format:      string(canon.Document),
		Hash:        canon.Hash,
		Version:     inv.Version,
	})
	return inv, nil
}

// PreviewID renders the id the next item of an inventory would receive,
// against the current counters. Nothing is persisted and no counter moves;
// the id actually assigned may differ.
func (s *Service) PreviewID(ctx context.Context, actor, inventoryID string) (idformat.Result, error) {
	inv, err := s.store.GetInventory(ctx, inventoryID)
	if err != nil {
		return idformat.Result{}, notFound(err, "inventory", inventoryID)
	}
	if err := authorize(inv, actor, model.AccessRead); err != nil {
		return idformat.Result{}, err
	}
	segments, err := segmentsOf(inv)
	if err != nil {
		return idformat.Result{}, err
	}

	counters, err := s.store.ListSequences(ctx, inventoryID)
	if err != nil {
		return idformat.Result{}, fmt.Errorf("listing sequences: %w", err)
	}
	state := make(idformat.SequenceState, len(counters))
	for _, c := range counters {
		state[c.SegmentID] = c.LastValue
	}
	return s.generator.Generate(state, segments)
}

// ValidateID reports whether candidate matches the inventory's current format.
// The actor needs read access.
func (s *Service) ValidateID(ctx context.Context, actor, inventoryID, candidate string) (bool, error) {
	inv, err := s.store.GetInventory(ctx, inventoryID)
	if err != nil {
		return false, notFound(err, "inventory", inventoryID)
	}
	if err := authorize(inv, actor, model.AccessRead); err != nil {
		return false, err
	}
	segments, err := segmentsOf(inv)
	if err != nil {
		return false, err
	}
	return s.validator.IsValid(candidate, segments), nil
}

// IsStale reports whether the item's custom id was computed under a format
// other than the inventory's current one.
func IsStale(inv *model.Inventory, item *model.Item) bool {
	return item.FormatHash != inv.IDFormatHash
}

// ListStaleItems returns the items of an inventory whose custom id predates
// its current format.
func (s *Service) ListStaleItems(ctx context.Context, actor, inventoryID string, limit, offset int) ([]*model.Item, int, error) {
	inv, err := s.store.GetInventory(ctx, inventoryID)
	if err != nil {
		return nil, 0, notFound(err, "inventory", inventoryID)
	}
	if err := authorize(inv, actor, model.AccessRead); err != nil {
		return nil, 0, err
	}
	return s.store.ListItems(ctx, model.ItemFilter{
		InventoryID: inventoryID,
		StaleHash:   inv.IDFormatHash,
		Limit:       limit,
		Offset:      offset,
	})
}
