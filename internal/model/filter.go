package model

// InventoryFilter holds criteria for querying inventories.
type InventoryFilter struct {
	OwnerID  string     `json:"owner_id,omitempty"`
	Category []Category `json:"category,omitempty"`
	Public   *bool      `json:"public,omitempty"`
	Search   string     `json:"search,omitempty"` // substring match on title/description
	Limit    int        `json:"limit,omitempty"`
	Offset   int        `json:"offset,omitempty"`
}

// ItemFilter holds criteria for querying the items of one inventory.
type ItemFilter struct {
	InventoryID string `json:"inventory_id"`
	// StaleHash selects items whose format hash differs from this value.
	StaleHash string `json:"stale_hash,omitempty"`
	Search    string `json:"search,omitempty"` // substring match on custom id
	Sort      string `json:"sort,omitempty"`   // "custom_id", "created_at"; prefix "-" = descending
	Limit     int    `json:"limit,omitempty"`
	Offset    int    `json:"offset,omitempty"`
}
