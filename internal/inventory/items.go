package inventory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/alfredjeanlab/invtrack/internal/events"
	"github.com/alfredjeanlab/invtrack/internal/idformat"
	"github.com/alfredjeanlab/invtrack/internal/idgen"
	"github.com/alfredjeanlab/invtrack/internal/model"
	"github.com/alfredjeanlab/invtrack/internal/store"
)

// ItemInput carries the caller-supplied parts of an item.
type ItemInput struct {
	// Fields maps slot names to values. On update, nil leaves the stored
	// values untouched; a non-nil object replaces every defined slot.
	Fields json.RawMessage
	// CustomID sets the custom id by hand. It must match the inventory's
	// format. Ignored on create.
	CustomID *string
}

// CreateItem adds an item to an inventory and assigns it a custom id from
// the inventory's format. The counters advance in the same transaction that
// inserts the item, so a failed insert leaves no trace.
func (s *Service) CreateItem(ctx context.Context, actor, inventoryID string, in ItemInput) (item *model.Item, err error) {
	ctx, span := startSpan(ctx, "create_item", inventoryID)
	defer func() { endSpan(span, err) }()

	inv, err := s.store.GetInventory(ctx, inventoryID)
	if err != nil {
		return nil, notFound(err, "inventory", inventoryID)
	}
	if err := authorize(inv, actor, model.AccessWrite); err != nil {
		return nil, err
	}
	segments, err := segmentsOf(inv)
	if err != nil {
		return nil, err
	}

	id, err := idgen.Item()
	if err != nil {
		return nil, fmt.Errorf("failed to generate ID: %w", err)
	}
	now := time.Now().UTC()
	item = &model.Item{ID: id, InventoryID: inventoryID, CreatedBy: actor, CreatedAt: now, UpdatedAt: now}
	if err := model.ApplyFields(item, in.Fields, inv.Fields); err != nil {
		return nil, InputError("invalid fields: " + err.Error())
	}
	span.SetAttributes(attrItemID.String(id))

	var created model.Item
	_, err = s.withGeneratedID(ctx, inventoryID, segments, func(tx store.Store, res idformat.Result) error {
		created = *item
		created.CustomID = res.ID
		created.CustomIDBoundaries = res.Boundaries
		created.FormatHash = inv.IDFormatHash
		if err := tx.CreateItem(ctx, &created); err != nil {
			return fmt.Errorf("failed to create item: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	*item = created

	s.recordAndPublish(ctx, events.TopicItemCreated, inventoryID, item.ID, actor, events.ItemCreated{Item: item})
	return item, nil
}

// UpdateItem edits an item's fields and optionally its custom id.
//
// A manual custom id is accepted only if it matches the inventory's current
// format. Without one, an item whose id was generated under an older format
// receives a fresh id. expectedVersion zero skips the version check.
func (s *Service) UpdateItem(ctx context.Context, actor, itemID string, in ItemInput, expectedVersion int64) (item *model.Item, err error) {
	ctx, span := startSpan(ctx, "update_item", "")
	span.SetAttributes(attrItemID.String(itemID))
	defer func() { endSpan(span, err) }()

	item, inv, err := s.loadItem(ctx, actor, itemID, model.AccessWrite)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attrInventoryID.String(inv.ID))
	segments, err := segmentsOf(inv)
	if err != nil {
		return nil, err
	}

	changes := make(map[string]any)
	if in.Fields != nil {
		if err := model.ApplyFields(item, in.Fields, inv.Fields); err != nil {
			return nil, InputError("invalid fields: " + err.Error())
		}
		changes["fields"] = model.ItemFields(item, inv.Fields)
	}
	item.Version = pinVersion(item.Version, expectedVersion)
	previousID := item.CustomID

	switch {
	case in.CustomID != nil:
		candidate := *in.CustomID
		if !s.validator.IsValid(candidate, segments) {
			return nil, InputError(fmt.Sprintf("custom id %q does not match the inventory's id format", candidate))
		}
		if candidate != item.CustomID {
			item.CustomID = candidate
			item.CustomIDBoundaries = nil
			changes["custom_id"] = candidate
		}
		item.FormatHash = inv.IDFormatHash
		if err := s.store.UpdateItem(ctx, item); err != nil {
			if errors.Is(err, store.ErrDuplicateID) {
				return nil, InputError(fmt.Sprintf("custom id %q is already used in this inventory", candidate))
			}
			return nil, fmt.Errorf("failed to update item: %w", err)
		}

	case IsStale(inv, item):
		if err := s.regenerate(ctx, inv, segments, item); err != nil {
			return nil, err
		}
		changes["custom_id"] = item.CustomID

	default:
		if err := s.store.UpdateItem(ctx, item); err != nil {
			return nil, fmt.Errorf("failed to update item: %w", err)
		}
	}

	s.recordAndPublish(ctx, events.TopicItemUpdated, inv.ID, item.ID, actor, events.ItemUpdated{Item: item, Changes: changes})
	if in.CustomID == nil && item.CustomID != previousID {
		s.recordAndPublish(ctx, events.TopicItemIDRegenerated, inv.ID, item.ID, actor, events.ItemIDRegenerated{Item: item, PreviousID: previousID})
	}
	return item, nil
}

// RegenerateItemID assigns a fresh custom id to an item under the
// inventory's current format, whether or not its id is stale.
func (s *Service) RegenerateItemID(ctx context.Context, actor, itemID string) (item *model.Item, err error) {
	ctx, span := startSpan(ctx, "regenerate_item_id", "")
	span.SetAttributes(attrItemID.String(itemID))
	defer func() { endSpan(span, err) }()

	item, inv, err := s.loadItem(ctx, actor, itemID, model.AccessWrite)
	if err != nil {
		return nil, err
	}
	segments, err := segmentsOf(inv)
	if err != nil {
		return nil, err
	}

	previousID := item.CustomID
	if err := s.regenerate(ctx, inv, segments, item); err != nil {
		return nil, err
	}

	s.recordAndPublish(ctx, events.TopicItemIDRegenerated, inv.ID, item.ID, actor, events.ItemIDRegenerated{Item: item, PreviousID: previousID})
	return item, nil
}

// regenerate persists item under a freshly generated custom id. item is
// updated in place only when the write commits.
func (s *Service) regenerate(ctx context.Context, inv *model.Inventory, segments []idformat.Segment, item *model.Item) error {
	var next model.Item
	_, err := s.withGeneratedID(ctx, inv.ID, segments, func(tx store.Store, res idformat.Result) error {
		next = *item
		next.CustomID = res.ID
		next.CustomIDBoundaries = res.Boundaries
		next.FormatHash = inv.IDFormatHash
		if err := tx.UpdateItem(ctx, &next); err != nil {
			return fmt.Errorf("failed to update item: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	*item = next
	return nil
}

// GetItem returns an item the actor can read.
func (s *Service) GetItem(ctx context.Context, actor, itemID string) (*model.Item, error) {
	item, _, err := s.loadItem(ctx, actor, itemID, model.AccessRead)
	return item, err
}

// DeleteItem removes an item. Its custom id is not reused by the counters.
func (s *Service) DeleteItem(ctx context.Context, actor, itemID string) error {
	item, inv, err := s.loadItem(ctx, actor, itemID, model.AccessWrite)
	if err != nil {
		return err
	}
	if err := s.store.DeleteItem(ctx, itemID); err != nil {
		return notFound(err, "item", itemID)
	}

	s.recordAndPublish(ctx, events.TopicItemDeleted, inv.ID, item.ID, actor, events.ItemDeleted{
		InventoryID: inv.ID,
		ItemID:      item.ID,
	})
	return nil
}

// ListItems returns the items matching filter and the total count. The
// actor must be able to read filter.InventoryID.
func (s *Service) ListItems(ctx context.Context, actor string, filter model.ItemFilter) ([]*model.Item, int, error) {
	if filter.InventoryID == "" {
		return nil, 0, InputError("inventory id is required")
	}
	inv, err := s.store.GetInventory(ctx, filter.InventoryID)
	if err != nil {
		return nil, 0, notFound(err, "inventory", filter.InventoryID)
	}
	if err := authorize(inv, actor, model.AccessRead); err != nil {
		return nil, 0, err
	}
	return s.store.ListItems(ctx, filter)
}

// loadItem fetches an item and its inventory and checks the actor's access.
func (s *Service) loadItem(ctx context.Context, actor, itemID string, need model.AccessLevel) (*model.Item, *model.Inventory, error) {
	item, err := s.store.GetItem(ctx, itemID)
	if err != nil {
		return nil, nil, notFound(err, "item", itemID)
	}
	inv, err := s.store.GetInventory(ctx, item.InventoryID)
	if err != nil {
		return nil, nil, notFound(err, "inventory", item.InventoryID)
	}
	if err := authorize(inv, actor, need); err != nil {
		return nil, nil, err
	}
	return item, inv, nil
}
