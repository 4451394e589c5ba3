// Package idgen generates the internal primary keys of inventories and items.
// These are distinct from the user-configured custom item ids rendered by
// package idformat.
package idgen

import (
	"fmt"

	nanoid "github.com/matoous/go-nanoid/v2"
)

// Entity prefixes.
const (
	InventoryPrefix = "inv-"
	ItemPrefix      = "itm-"
)

// Alphabet is the character set of the random portion of an ID. Lowercase
// only so IDs survive case-folding tools.
const Alphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// Length is the number of random characters generated (excluding the prefix).
const Length = 12

// Inventory returns a new inventory ID.
func Inventory() (string, error) {
	return WithPrefix(InventoryPrefix)
}

// Item returns a new item ID.
func Item() (string, error) {
	return WithPrefix(ItemPrefix)
}

// WithPrefix returns a new unique ID with the given prefix.
func WithPrefix(prefix string) (string, error) {
	id, err := nanoid.Generate(Alphabet, Length)
	if err != nil {
		return "", fmt.Errorf("idgen: %w", err)
	}
	return prefix + id, nil
}
