package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/alfredjeanlab/invtrack/internal/events"
	"github.com/alfredjeanlab/invtrack/internal/idformat"
	"github.com/alfredjeanlab/invtrack/internal/idgen"
	"github.com/alfredjeanlab/invtrack/internal/model"
	"github.com/alfredjeanlab/invtrack/internal/store"
)

// InventoryInput carries the editable attributes of an inventory.
type InventoryInput struct {
	Title       string
	Description string
	Category    model.Category
	IsPublic    bool
	Fields      []model.FieldDef
	// IDFormat is an optional initial format document.
	IDFormat []byte
}

// CreateInventory creates an inventory owned by actor. The owner holds the
// owner access level from the start.
func (s *Service) CreateInventory(ctx context.Context, actor string, in InventoryInput) (*model.Inventory, error) {
	if actor == "" {
		return nil, InputError("actor is required")
	}
	canon, err := idformat.Canonicalize(in.IDFormat)
	if err != nil {
		return nil, InputError(err.Error())
	}
	id, err := idgen.Inventory()
	if err != nil {
		return nil, fmt.Errorf("failed to generate ID: %w", err)
	}

	now := time.Now().UTC()
	inv := &model.Inventory{
		ID:           id,
		Title:        in.Title,
		Description:  in.Description,
		Category:     in.Category,
		OwnerID:      actor,
		IsPublic:     in.IsPublic,
		Fields:       in.Fields,
		IDFormat:     canon.Document,
		IDFormatHash: canon.Hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if inv.Category == "" {
		inv.Category = model.CategoryOther
	}
	if err := model.ValidateInventory(inv); err != nil {
		return nil, InputError("invalid inventory: " + err.Error())
	}

	err = s.store.RunInTransaction(ctx, func(tx store.Store) error {
		if err := tx.CreateInventory(ctx, inv); err != nil {
			return fmt.Errorf("failed to create inventory: %w", err)
		}
		owner := &model.Access{InventoryID: inv.ID, UserID: actor, Level: model.AccessOwner, GrantedBy: actor}
		if err := tx.SetAccess(ctx, owner); err != nil {
			return fmt.Errorf("failed to grant owner access: %w", err)
		}
		inv.Access = []*model.Access{owner}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.recordAndPublish(ctx, events.TopicInventoryCreated, inv.ID, "", actor, events.InventoryCreated{Inventory: inv})
	return inv, nil
}

// GetInventory returns an inventory the actor can read.
func (s *Service) GetInventory(ctx context.Context, actor, id string) (*model.Inventory, error) {
	inv, err := s.store.GetInventory(ctx, id)
	if err != nil {
		return nil, notFound(err, "inventory", id)
	}
	if err := authorize(inv, actor, model.AccessRead); err != nil {
		return nil, err
	}
	return inv, nil
}

// ListInventories returns inventories matching filter and the total count.
func (s *Service) ListInventories(ctx context.Context, filter model.InventoryFilter) ([]*model.Inventory, int, error) {
	return s.store.ListInventories(ctx, filter)
}

// InventoryUpdate holds the attributes to change; nil fields are left as is.
type InventoryUpdate struct {
	Title       *string
	Description *string
	Category    *model.Category
	IsPublic    *bool
}

// UpdateInventory changes the basic attributes of an inventory. Writers may
// edit; only owners may change visibility. expectedVersion zero skips the
// version check.
func (s *Service) UpdateInventory(ctx context.Context, actor, id string, up InventoryUpdate, expectedVersion int64) (*model.Inventory, error) {
	inv, err := s.store.GetInventory(ctx, id)
	if err != nil {
		return nil, notFound(err, "inventory", id)
	}
	need := model.AccessWrite
	if up.IsPublic != nil {
		need = model.AccessOwner
	}
	if err := authorize(inv, actor, need); err != nil {
		return nil, err
	}

	changes := make(map[string]any)
	if up.Title != nil {
		inv.Title = *up.Title
		changes["title"] = *up.Title
	}
	if up.Description != nil {
		inv.Description = *up.Description
		changes["description"] = *up.Description
	}
	if up.Category != nil {
		inv.Category = *up.Category
		changes["category"] = *up.Category
	}
	if up.IsPublic != nil {
		inv.IsPublic = *up.IsPublic
		changes["is_public"] = *up.IsPublic
	}
	if err := model.ValidateInventory(inv); err != nil {
		return nil, InputError("invalid inventory: " + err.Error())
	}

	inv.Version = pinVersion(inv.Version, expectedVersion)
	if err := s.store.UpdateInventory(ctx, inv); err != nil {
		return nil, fmt.Errorf("failed to update inventory: %w", err)
	}

	s.recordAndPublish(ctx, events.TopicInventoryUpdated, inv.ID, "", actor, events.InventoryUpdated{Inventory: inv, Changes: changes})
	return inv, nil
}

// DeleteInventory removes an inventory with its items, counters and grants.
// Only owners may delete.
func (s *Service) DeleteInventory(ctx context.Context, actor, id string) error {
	inv, err := s.store.GetInventory(ctx, id)
	if err != nil {
		return notFound(err, "inventory", id)
	}
	if err := authorize(inv, actor, model.AccessOwner); err != nil {
		return err
	}
	if err := s.store.DeleteInventory(ctx, id); err != nil {
		return notFound(err, "inventory", id)
	}

	s.recordAndPublish(ctx, events.TopicInventoryDeleted, id, "", actor, events.InventoryDeleted{InventoryID: id})
	return nil
}

// SetFields replaces the custom field definitions of an inventory. Slots no
// longer defined keep their stored values but are no longer exposed. Only
// owners may change fields.
func (s *Service) SetFields(ctx context.Context, actor, id string, defs []model.FieldDef, expectedVersion int64) (*model.Inventory, error) {
	if err := model.ValidateFieldDefs(defs); err != nil {
		return nil, InputError("invalid fields: " + err.Error())
	}
	inv, err := s.store.GetInventory(ctx, id)
	if err != nil {
		return nil, notFound(err, "inventory", id)
	}
	if err := authorize(inv, actor, model.AccessOwner); err != nil {
		return nil, err
	}

	inv.Fields = defs
	inv.Version = pinVersion(inv.Version, expectedVersion)
	if err := s.store.UpdateInventory(ctx, inv); err != nil {
		return nil, fmt.Errorf("failed to save fields: %w", err)
	}

	s.recordAndPublish(ctx, events.TopicFieldsUpdated, inv.ID, "", actor, events.FieldsUpdated{
		InventoryID: inv.ID,
		Fields:      defs,
		Version:     inv.Version,
	})
	return inv, nil
}

// History returns the recorded events of an inventory, oldest first.
func (s *Service) History(ctx context.Context, actor, id string) ([]*model.Event, error) {
	inv, err := s.store.GetInventory(ctx, id)
	if err != nil {
		return nil, notFound(err, "inventory", id)
	}
	if err := authorize(inv, actor, model.AccessRead); err != nil {
		return nil, err
	}
	return s.store.GetEvents(ctx, id)
}
