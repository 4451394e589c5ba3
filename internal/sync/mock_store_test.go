package sync

import (
	"context"
	"errors"
	"testing"

	"github.com/alfredjeanlab/invtrack/internal/model"
	"github.com/alfredjeanlab/invtrack/internal/store"
	"github.com/alfredjeanlab/invtrack/internal/store/memory"
)

var errListItems = errors.New("list items failed")

// failingStore wraps the memory store and fails ListItems on demand.
type failingStore struct {
	store.Store
	failItems bool
}

func (f *failingStore) ListItems(ctx context.Context, filter model.ItemFilter) ([]*model.Item, int, error) {
	if f.failItems {
		return nil, 0, errListItems
	}
	return f.Store.ListItems(ctx, filter)
}

// seedStore returns a memory store holding two inventories, created out of
// id order, with items, counters and grants.
func seedStore(t *testing.T) *memory.Store {
	t.Helper()
	ctx := context.Background()
	st := memory.New()

	for _, inv := range []*model.Inventory{
		{ID: "inv-zzz", Title: "Books", Category: model.CategoryBook, OwnerID: "alice", IDFormat: []byte("[]")},
		{ID: "inv-aaa", Title: "Chairs", Category: model.CategoryFurniture, OwnerID: "bob", IDFormat: []byte("[]")},
	} {
		if err := st.CreateInventory(ctx, inv); err != nil {
			t.Fatalf("CreateInventory %s: %v", inv.ID, err)
		}
	}
	if err := st.SetAccess(ctx, &model.Access{InventoryID: "inv-aaa", UserID: "carol", Level: model.AccessWrite}); err != nil {
		t.Fatalf("SetAccess: %v", err)
	}
	if err := st.SetSequence(ctx, "inv-aaa", "seg-1", 7); err != nil {
		t.Fatalf("SetSequence: %v", err)
	}
	for _, it := range []*model.Item{
		{ID: "itm-3", InventoryID: "inv-aaa", CustomID: "CH-007"},
		{ID: "itm-1", InventoryID: "inv-zzz", CustomID: "BK-1"},
		{ID: "itm-2", InventoryID: "inv-aaa", CustomID: "CH-006"},
	} {
		if err := st.CreateItem(ctx, it); err != nil {
			t.Fatalf("CreateItem %s: %v", it.ID, err)
		}
	}
	return st
}
