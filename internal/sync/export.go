package sync

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/alfredjeanlab/invtrack/internal/model"
	"github.com/alfredjeanlab/invtrack/internal/store"
)

// FormatVersion is the version written in the export header.
const FormatVersion = "1"

// header is the first JSONL record written by ExportJSONL.
type header struct {
	Version        string    `json:"version"`
	Type           string    `json:"type"`
	Timestamp      time.Time `json:"timestamp"`
	InventoryCount int       `json:"inventory_count"`
	ItemCount      int       `json:"item_count"`
}

// record wraps a single JSONL line with a type discriminator.
type record struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// inventoryRecord is an inventory with the counters needed to resume id
// generation after an import.
type inventoryRecord struct {
	*model.Inventory
	Sequences []*model.SequenceCounter `json:"sequences"`
}

// ExportJSONL writes every inventory and item in the store as JSONL to w:
// a header, then inventories sorted by id with their access list and
// sequence counters, then items sorted by id.
func ExportJSONL(ctx context.Context, s store.Store, w io.Writer) error {
	invs, _, err := s.ListInventories(ctx, model.InventoryFilter{})
	if err != nil {
		return fmt.Errorf("list inventories: %w", err)
	}
	sort.Slice(invs, func(i, j int) bool { return invs[i].ID < invs[j].ID })

	records := make([]inventoryRecord, 0, len(invs))
	var items []*model.Item
	for _, inv := range invs {
		access, err := s.GetAccess(ctx, inv.ID)
		if err != nil {
			return fmt.Errorf("get access for %s: %w", inv.ID, err)
		}
		inv.Access = access

		seqs, err := s.ListSequences(ctx, inv.ID)
		if err != nil {
			return fmt.Errorf("list sequences for %s: %w", inv.ID, err)
		}
		records = append(records, inventoryRecord{Inventory: inv, Sequences: seqs})

		invItems, _, err := s.ListItems(ctx, model.ItemFilter{InventoryID: inv.ID, Sort: "id"})
		if err != nil {
			return fmt.Errorf("list items for %s: %w", inv.ID, err)
		}
		items = append(items, invItems...)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)

	if err := enc.Encode(header{
		Version:        FormatVersion,
		Type:           "header",
		Timestamp:      time.Now().UTC(),
		InventoryCount: len(records),
		ItemCount:      len(items),
	}); err != nil {
		return fmt.Errorf("encode header: %w", err)
	}

	for _, r := range records {
		if err := enc.Encode(record{Type: "inventory", Data: r}); err != nil {
			return fmt.Errorf("encode inventory %s: %w", r.ID, err)
		}
	}

	for _, it := range items {
		if err := enc.Encode(record{Type: "item", Data: it}); err != nil {
			return fmt.Errorf("encode item %s: %w", it.ID, err)
		}
	}

	return nil
}
