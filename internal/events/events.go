package events

import (
	"context"

	"github.com/alfredjeanlab/invtrack/internal/model"
)

// TopicPrefix is shared by every topic; subscribe to TopicPrefix+">" for all.
const TopicPrefix = "inventory."

// Event topic constants
const (
	TopicInventoryCreated = "inventory.inventory.created"
	TopicInventoryUpdated = "inventory.inventory.updated"
	TopicInventoryDeleted = "inventory.inventory.deleted"
	TopicFormatUpdated    = "inventory.format.updated"
	TopicFieldsUpdated    = "inventory.fields.updated"

	TopicItemCreated       = "inventory.item.created"
	TopicItemUpdated       = "inventory.item.updated"
	TopicItemDeleted       = "inventory.item.deleted"
	TopicItemIDRegenerated = "inventory.item.id_regenerated"

	TopicAccessGranted = "inventory.access.granted"
	TopicAccessRevoked = "inventory.access.revoked"
)

// Event types

type InventoryCreated struct {
	Inventory *model.Inventory `json:"inventory"`
}

type InventoryUpdated struct {
	Inventory *model.Inventory `json:"inventory"`
	Changes   map[string]any   `json:"changes"` // field name -> new value
}

type InventoryDeleted struct {
	InventoryID string `json:"inventory_id"`
}

type FormatUpdated struct {
	InventoryID string `json:"inventory_id"`
	Format      string `json:"format"`
	Hash        string `json:"hash"`
	Version     int64  `json:"version"`
}

type FieldsUpdated struct {
	InventoryID string           `json:"inventory_id"`
	Fields      []model.FieldDef `json:"fields"`
	Version     int64            `json:"version"`
}

type ItemCreated struct {
	Item *model.Item `json:"item"`
}

type ItemUpdated struct {
	Item    *model.Item    `json:"item"`
	Changes map[string]any `json:"changes"`
}

type ItemDeleted struct {
	InventoryID string `json:"inventory_id"`
	ItemID      string `json:"item_id"`
}

type ItemIDRegenerated struct {
	Item       *model.Item `json:"item"`
	PreviousID string      `json:"previous_id"`
}

type AccessGranted struct {
	Access *model.Access `json:"access"`
}

type AccessRevoked struct {
	InventoryID string `json:"inventory_id"`
	UserID      string `json:"user_id"`
}

// Publisher is the interface for emitting events.
type Publisher interface {
	Publish(ctx context.Context, topic string, event any) error
	Close() error
}
