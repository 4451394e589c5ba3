package store

import (
	"context"
	"errors"

	"github.com/alfredjeanlab/invtrack/internal/model"
)

var (
	// ErrNotFound is returned when the requested row does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateID is returned when an item's custom id collides with
	// another item of the same inventory.
	ErrDuplicateID = errors.New("duplicate custom id")

	// ErrSequenceConflict is returned when a concurrent writer advanced the
	// same sequence counter first and the transaction cannot proceed.
	ErrSequenceConflict = errors.New("sequence conflict")

	// ErrVersionConflict is returned when an update carries a stale version.
	ErrVersionConflict = errors.New("version conflict")
)

// Store defines the persistence interface for inventories and items.
type Store interface {
	// Inventories. UpdateInventory writes only when the stored version equals
	// inv.Version and stores inv.Version+1; it sets inv.Version to the new value.
	CreateInventory(ctx context.Context, inv *model.Inventory) error
	GetInventory(ctx context.Context, id string) (*model.Inventory, error)
	ListInventories(ctx context.Context, filter model.InventoryFilter) ([]*model.Inventory, int, error) // returns inventories, total count, error
	UpdateInventory(ctx context.Context, inv *model.Inventory) error
	DeleteInventory(ctx context.Context, id string) error

	// Items. UpdateItem follows the same version rule as UpdateInventory.
	CreateItem(ctx context.Context, item *model.Item) error
	GetItem(ctx context.Context, id string) (*model.Item, error)
	ListItems(ctx context.Context, filter model.ItemFilter) ([]*model.Item, int, error)
	UpdateItem(ctx context.Context, item *model.Item) error
	DeleteItem(ctx context.Context, id string) error

	// Sequence counters. LockSequence returns the last value of the counter
	// (nil if never used) and holds it for the rest of the transaction.
	LockSequence(ctx context.Context, inventoryID, segmentID string) (*int64, error)
	SetSequence(ctx context.Context, inventoryID, segmentID string, value int64) error
	ListSequences(ctx context.Context, inventoryID string) ([]*model.SequenceCounter, error)

	// Access
	SetAccess(ctx context.Context, access *model.Access) error
	RemoveAccess(ctx context.Context, inventoryID, userID string) error
	GetAccess(ctx context.Context, inventoryID string) ([]*model.Access, error)

	// Events
	RecordEvent(ctx context.Context, event *model.Event) error
	GetEvents(ctx context.Context, inventoryID string) ([]*model.Event, error)

	// Transaction support
	RunInTransaction(ctx context.Context, fn func(tx Store) error) error

	// Lifecycle
	Close() error
}
