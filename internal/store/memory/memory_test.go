package memory

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/alfredjeanlab/invtrack/internal/model"
	"github.com/alfredjeanlab/invtrack/internal/store"
)

func newInventory(t *testing.T, s *Store, id string) *model.Inventory {
	t.Helper()
	inv := &model.Inventory{ID: id, Title: "Lab " + id, Category: model.CategoryEquipment, OwnerID: "alice"}
	if err := s.CreateInventory(context.Background(), inv); err != nil {
		t.Fatalf("CreateInventory(%s) error: %v", id, err)
	}
	return inv
}

func TestInventoryCRUD(t *testing.T) {
	ctx := context.Background()
	s := New()
	inv := newInventory(t, s, "inv-1")
	if inv.Version != 1 {
		t.Fatalf("Version = %d, want 1", inv.Version)
	}

	got, err := s.GetInventory(ctx, "inv-1")
	if err != nil {
		t.Fatalf("GetInventory() error: %v", err)
	}
	got.Title = "Renamed"
	if err := s.UpdateInventory(ctx, got); err != nil {
		t.Fatalf("UpdateInventory() error: %v", err)
	}
	if got.Version != 2 {
		t.Fatalf("Version after update = %d, want 2", got.Version)
	}

	// The caller's earlier copy is now stale.
	inv.Title = "Lost update"
	if err := s.UpdateInventory(ctx, inv); !errors.Is(err, store.ErrVersionConflict) {
		t.Fatalf("UpdateInventory(stale) error = %v, want ErrVersionConflict", err)
	}

	if err := s.DeleteInventory(ctx, "inv-1"); err != nil {
		t.Fatalf("DeleteInventory() error: %v", err)
	}
	if _, err := s.GetInventory(ctx, "inv-1"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("GetInventory(deleted) error = %v, want ErrNotFound", err)
	}
}

func TestReturnedValuesAreCopies(t *testing.T) {
	ctx := context.Background()
	s := New()
	newInventory(t, s, "inv-1")
	it := &model.Item{ID: "itm-1", InventoryID: "inv-1", CustomID: "A-1", CustomIDBoundaries: []int{2, 1}}
	if err := s.CreateItem(ctx, it); err != nil {
		t.Fatalf("CreateItem() error: %v", err)
	}
	it.CustomID = "mutated"
	it.CustomIDBoundaries[0] = 99

	got, _ := s.GetItem(ctx, "itm-1")
	if got.CustomID != "A-1" || got.CustomIDBoundaries[0] != 2 {
		t.Fatalf("stored item changed through caller pointer: %+v", got)
	}
}

func TestCustomIDUniqueness(t *testing.T) {
	ctx := context.Background()
	s := New()
	newInventory(t, s, "inv-1")
	newInventory(t, s, "inv-2")

	for _, it := range []*model.Item{
		{ID: "a", InventoryID: "inv-1", CustomID: "X"},
		{ID: "b", InventoryID: "inv-2", CustomID: "X"}, // other inventory
		{ID: "c", InventoryID: "inv-1", CustomID: ""},
		{ID: "d", InventoryID: "inv-1", CustomID: ""}, // empty ids may repeat
	} {
		if err := s.CreateItem(ctx, it); err != nil {
			t.Fatalf("CreateItem(%s) error: %v", it.ID, err)
		}
	}

	err := s.CreateItem(ctx, &model.Item{ID: "e", InventoryID: "inv-1", CustomID: "X"})
	if !errors.Is(err, store.ErrDuplicateID) {
		t.Fatalf("CreateItem(dup) error = %v, want ErrDuplicateID", err)
	}

	c, _ := s.GetItem(ctx, "c")
	c.CustomID = "X"
	if err := s.UpdateItem(ctx, c); !errors.Is(err, store.ErrDuplicateID) {
		t.Fatalf("UpdateItem(dup) error = %v, want ErrDuplicateID", err)
	}
}

func TestRunInTransaction_Rollback(t *testing.T) {
	ctx := context.Background()
	s := New()
	newInventory(t, s, "inv-1")

	boom := errors.New("boom")
	err := s.RunInTransaction(ctx, func(tx store.Store) error {
		if err := tx.SetSequence(ctx, "inv-1", "seg", 5); err != nil {
			return err
		}
		if err := tx.CreateItem(ctx, &model.Item{ID: "itm-1", InventoryID: "inv-1", CustomID: "S5"}); err != nil {
			return err
		}
		// Visible inside the transaction.
		if v, _ := tx.LockSequence(ctx, "inv-1", "seg"); v == nil || *v != 5 {
			t.Errorf("LockSequence() inside tx = %v, want 5", v)
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("RunInTransaction() error = %v, want boom", err)
	}

	if v, _ := s.LockSequence(ctx, "inv-1", "seg"); v != nil {
		t.Fatalf("sequence survived rollback: %d", *v)
	}
	if _, err := s.GetItem(ctx, "itm-1"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("item survived rollback: %v", err)
	}
}

func TestRunInTransaction_Commit(t *testing.T) {
	ctx := context.Background()
	s := New()
	newInventory(t, s, "inv-1")

	err := s.RunInTransaction(ctx, func(tx store.Store) error {
		return tx.SetSequence(ctx, "inv-1", "seg", 7)
	})
	if err != nil {
		t.Fatalf("RunInTransaction() error: %v", err)
	}
	seqs, _ := s.ListSequences(ctx, "inv-1")
	if len(seqs) != 1 || seqs[0].LastValue != 7 {
		t.Fatalf("ListSequences() = %+v", seqs)
	}
}

func TestSequenceIncrementsAreSerialized(t *testing.T) {
	ctx := context.Background()
	s := New()
	newInventory(t, s, "inv-1")

	const workers, perWorker = 8, 50
	var wg sync.WaitGroup
	seen := make(chan int64, workers*perWorker)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				err := s.RunInTransaction(ctx, func(tx store.Store) error {
					prior, err := tx.LockSequence(ctx, "inv-1", "seg")
					if err != nil {
						return err
					}
					next := int64(1)
					if prior != nil {
						next = *prior + 1
					}
					seen <- next
					return tx.SetSequence(ctx, "inv-1", "seg", next)
				})
				if err != nil {
					t.Errorf("RunInTransaction() error: %v", err)
				}
			}
		}()
	}
	wg.Wait()
	close(seen)

	unique := map[int64]bool{}
	for v := range seen {
		if unique[v] {
			t.Fatalf("value %d handed out twice", v)
		}
		unique[v] = true
	}
	if len(unique) != workers*perWorker {
		t.Fatalf("got %d values, want %d", len(unique), workers*perWorker)
	}
}

func TestDeleteInventoryCascades(t *testing.T) {
	ctx := context.Background()
	s := New()
	newInventory(t, s, "inv-1")
	_ = s.CreateItem(ctx, &model.Item{ID: "itm-1", InventoryID: "inv-1"})
	_ = s.SetSequence(ctx, "inv-1", "seg", 3)
	_ = s.SetAccess(ctx, &model.Access{InventoryID: "inv-1", UserID: "bob", Level: model.AccessRead})

	if err := s.DeleteInventory(ctx, "inv-1"); err != nil {
		t.Fatalf("DeleteInventory() error: %v", err)
	}
	if _, err := s.GetItem(ctx, "itm-1"); !errors.Is(err, store.ErrNotFound) {
		t.Error("item not deleted")
	}
	if seqs, _ := s.ListSequences(ctx, "inv-1"); len(seqs) != 0 {
		t.Error("sequences not deleted")
	}
	if acc, _ := s.GetAccess(ctx, "inv-1"); len(acc) != 0 {
		t.Error("access not deleted")
	}
}

func TestListItems(t *testing.T) {
	ctx := context.Background()
	s := New()
	newInventory(t, s, "inv-1")
	for _, it := range []*model.Item{
		{ID: "i1", InventoryID: "inv-1", CustomID: "B-2", FormatHash: "old"},
		{ID: "i2", InventoryID: "inv-1", CustomID: "A-1", FormatHash: "new"},
		{ID: "i3", InventoryID: "inv-1", CustomID: "C-3", FormatHash: "old"},
	} {
		if err := s.CreateItem(ctx, it); err != nil {
			t.Fatalf("CreateItem() error: %v", err)
		}
	}

	stale, total, _ := s.ListItems(ctx, model.ItemFilter{InventoryID: "inv-1", StaleHash: "new"})
	if total != 2 || len(stale) != 2 {
		t.Fatalf("stale items = %d (total %d), want 2", len(stale), total)
	}

	sorted, _, _ := s.ListItems(ctx, model.ItemFilter{InventoryID: "inv-1", Sort: "-custom_id", Limit: 2})
	if len(sorted) != 2 || sorted[0].CustomID != "C-3" || sorted[1].CustomID != "B-2" {
		t.Fatalf("sorted = %v", sorted)
	}

	found, _, _ := s.ListItems(ctx, model.ItemFilter{InventoryID: "inv-1", Search: "a-"})
	if len(found) != 1 || found[0].ID != "i2" {
		t.Fatalf("search = %v", found)
	}

	if none, _, _ := s.ListItems(ctx, model.ItemFilter{InventoryID: "inv-1", Offset: 10}); len(none) != 0 {
		t.Fatalf("offset past end = %v", none)
	}
}

func TestAccessAndEvents(t *testing.T) {
	ctx := context.Background()
	s := New()
	newInventory(t, s, "inv-1")

	if err := s.SetAccess(ctx, &model.Access{InventoryID: "inv-1", UserID: "bob", Level: model.AccessRead}); err != nil {
		t.Fatalf("SetAccess() error: %v", err)
	}
	if err := s.SetAccess(ctx, &model.Access{InventoryID: "inv-1", UserID: "bob", Level: model.AccessWrite}); err != nil {
		t.Fatalf("SetAccess() error: %v", err)
	}
	inv, _ := s.GetInventory(ctx, "inv-1")
	if len(inv.Access) != 1 || inv.Access[0].Level != model.AccessWrite {
		t.Fatalf("Access = %+v", inv.Access)
	}
	if err := s.RemoveAccess(ctx, "inv-1", "carol"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("RemoveAccess(unknown) error = %v", err)
	}

	for _, topic := range []string{"a", "b"} {
		if err := s.RecordEvent(ctx, &model.Event{Topic: topic, InventoryID: "inv-1"}); err != nil {
			t.Fatalf("RecordEvent() error: %v", err)
		}
	}
	evts, _ := s.GetEvents(ctx, "inv-1")
	if len(evts) != 2 || evts[0].ID != 1 || evts[1].ID != 2 {
		t.Fatalf("events = %+v", evts)
	}
}
