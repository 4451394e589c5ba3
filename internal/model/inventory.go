package model

import (
	"encoding/json"
	"time"
)

// Category classifies an inventory.
type Category string

const (
	CategoryEquipment Category = "equipment"
	CategoryFurniture Category = "furniture"
	CategoryBook      Category = "book"
	CategoryDocument  Category = "document"
	CategoryOther     Category = "other"
)

// String returns the string representation of the category.
func (c Category) String() string {
	return string(c)
}

// IsValid checks whether the category is a known value.
func (c Category) IsValid() bool {
	switch c {
	case CategoryEquipment, CategoryFurniture, CategoryBook, CategoryDocument, CategoryOther:
		return true
	}
	return false
}

// Inventory is a user-owned collection of items sharing one set of custom
// field definitions and one custom id format.
type Inventory struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Category    Category   `json:"category"`
	OwnerID     string     `json:"owner_id"`
	IsPublic    bool       `json:"is_public"`
	Fields      []FieldDef `json:"fields,omitempty"`

	// IDFormat is the canonical id format document; IDFormatHash is the
	// content hash of IDFormat at the time it was saved.
	IDFormat     json.RawMessage `json:"id_format,omitempty"`
	IDFormatHash string          `json:"id_format_hash,omitempty"`

	// Version is bumped on every change to the inventory or to its field
	// definitions and format; updates are rejected when it does not match.
	Version   int64     `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relational data -- populated by queries, not stored in the inventories table.
	Access []*Access `json:"access,omitempty"`
}

// Item is a record inside an inventory. Custom field values live in fixed
// typed slots; the inventory's FieldDefs say which slots are in use.
type Item struct {
	ID          string `json:"id"`
	InventoryID string `json:"inventory_id"`

	// CustomID is the id rendered from the inventory's id format, unique
	// within the inventory when non-empty.
	CustomID string `json:"custom_id"`
	// CustomIDBoundaries holds the length of each segment's part of CustomID.
	CustomIDBoundaries []int `json:"custom_id_boundaries,omitempty"`
	// FormatHash is the IDFormatHash in effect when CustomID was last computed.
	FormatHash string `json:"format_hash,omitempty"`

	String1 string `json:"string1,omitempty"`
	String2 string `json:"string2,omitempty"`
	String3 string `json:"string3,omitempty"`
	Text1   string `json:"text1,omitempty"`
	Text2   string `json:"text2,omitempty"`
	Text3   string `json:"text3,omitempty"`
	Link1   string `json:"link1,omitempty"`
	Link2   string `json:"link2,omitempty"`
	Link3   string `json:"link3,omitempty"`

	Number1 *float64 `json:"number1,omitempty"`
	Number2 *float64 `json:"number2,omitempty"`
	Number3 *float64 `json:"number3,omitempty"`

	Bool1 bool `json:"bool1,omitempty"`
	Bool2 bool `json:"bool2,omitempty"`
	Bool3 bool `json:"bool3,omitempty"`

	Version   int64     `json:"version"`
	CreatedBy string    `json:"created_by,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SequenceCounter is the last value handed out by one sequence segment of an
// inventory's id format.
type SequenceCounter struct {
	InventoryID string    `json:"inventory_id"`
	SegmentID   string    `json:"segment_id"`
	LastValue   int64     `json:"last_value"`
	UpdatedAt   time.Time `json:"updated_at"`
}
