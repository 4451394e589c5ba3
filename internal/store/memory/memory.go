// Package memory implements store.Store in process memory. It is intended for
// development and tests; state is lost when the process exits.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/alfredjeanlab/invtrack/internal/model"
	"github.com/alfredjeanlab/invtrack/internal/store"
)

type seqKey struct {
	inventoryID string
	segmentID   string
}

// state is one consistent snapshot of the data. Entries are never mutated
// after insertion; writes replace them, so a shallow copy of the maps is an
// independent snapshot.
type state struct {
	inventories map[string]*model.Inventory
	items       map[string]*model.Item
	sequences   map[seqKey]*model.SequenceCounter
	access      map[string]map[string]*model.Access // inventory -> user -> access
	events      []*model.Event
	nextEventID int64
}

func newState() *state {
	return &state{
		inventories: make(map[string]*model.Inventory),
		items:       make(map[string]*model.Item),
		sequences:   make(map[seqKey]*model.SequenceCounter),
		access:      make(map[string]map[string]*model.Access),
		nextEventID: 1,
	}
}

func (st *state) clone() *state {
	c := &state{
		inventories: make(map[string]*model.Inventory, len(st.inventories)),
		items:       make(map[string]*model.Item, len(st.items)),
		sequences:   make(map[seqKey]*model.SequenceCounter, len(st.sequences)),
		access:      make(map[string]map[string]*model.Access, len(st.access)),
		events:      append([]*model.Event(nil), st.events...),
		nextEventID: st.nextEventID,
	}
	for k, v := range st.inventories {
		c.inventories[k] = v
	}
	for k, v := range st.items {
		c.items[k] = v
	}
	for k, v := range st.sequences {
		c.sequences[k] = v
	}
	for k, users := range st.access {
		m := make(map[string]*model.Access, len(users))
		for u, a := range users {
			m[u] = a
		}
		c.access[k] = m
	}
	return c
}

// Store implements store.Store. Transactions are serialized: each one runs
// against a private snapshot that replaces the shared state on commit.
type Store struct {
	mu   sync.Mutex
	data *state
	now  func() time.Time
}

// Compile-time check that Store implements store.Store.
var _ store.Store = (*Store)(nil)

// New returns an empty in-memory store.
func New() *Store {
	return &Store{
		data: newState(),
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// do runs fn against the shared state under the store lock.
func (s *Store) do(fn func(tx *txStore) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(&txStore{st: s.data, now: s.now})
}

// RunInTransaction runs fn against a snapshot of the store. The snapshot
// becomes the store's state only if fn returns nil.
func (s *Store) RunInTransaction(ctx context.Context, fn func(tx store.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	tx := &txStore{st: s.data.clone(), now: s.now}
	if err := fn(tx); err != nil {
		return err
	}
	s.data = tx.st
	return nil
}

// Close is a no-op.
func (s *Store) Close() error { return nil }

func (s *Store) CreateInventory(ctx context.Context, inv *model.Inventory) error {
	return s.do(func(tx *txStore) error { return tx.CreateInventory(ctx, inv) })
}

func (s *Store) GetInventory(ctx context.Context, id string) (inv *model.Inventory, err error) {
	err = s.do(func(tx *txStore) error {
		inv, err = tx.GetInventory(ctx, id)
		return err
	})
	return inv, err
}

func (s *Store) ListInventories(ctx context.Context, filter model.InventoryFilter) (invs []*model.Inventory, total int, err error) {
	err = s.do(func(tx *txStore) error {
		invs, total, err = tx.ListInventories(ctx, filter)
		return err
	})
	return invs, total, err
}

func (s *Store) UpdateInventory(ctx context.Context, inv *model.Inventory) error {
	return s.do(func(tx *txStore) error { return tx.UpdateInventory(ctx, inv) })
}

func (s *Store) DeleteInventory(ctx context.Context, id string) error {
	return s.do(func(tx *txStore) error { return tx.DeleteInventory(ctx, id) })
}

func (s *Store) CreateItem(ctx context.Context, item *model.Item) error {
	return s.do(func(tx *txStore) error { return tx.CreateItem(ctx, item) })
}

func (s *Store) GetItem(ctx context.Context, id string) (item *model.Item, err error) {
	err = s.do(func(tx *txStore) error {
		item, err = tx.GetItem(ctx, id)
		return err
	})
	return item, err
}

func (s *Store) ListItems(ctx context.Context, filter model.ItemFilter) (items []*model.Item, total int, err error) {
	err = s.do(func(tx *txStore) error {
		items, total, err = tx.ListItems(ctx, filter)
		return err
	})
	return items, total, err
}

func (s *Store) UpdateItem(ctx context.Context, item *model.Item) error {
	return s.do(func(tx *txStore) error { return tx.UpdateItem(ctx, item) })
}

func (s *Store) DeleteItem(ctx context.Context, id string) error {
	return s.do(func(tx *txStore) error { return tx.DeleteItem(ctx, id) })
}

func (s *Store) LockSequence(ctx context.Context, inventoryID, segmentID string) (v *int64, err error) {
	err = s.do(func(tx *txStore) error {
		v, err = tx.LockSequence(ctx, inventoryID, segmentID)
		return err
	})
	return v, err
}

func (s *Store) SetSequence(ctx context.Context, inventoryID, segmentID string, value int64) error {
	return s.do(func(tx *txStore) error { return tx.SetSequence(ctx, inventoryID, segmentID, value) })
}

func (s *Store) ListSequences(ctx context.Context, inventoryID string) (seqs []*model.SequenceCounter, err error) {
	err = s.do(func(tx *txStore) error {
		seqs, err = tx.ListSequences(ctx, inventoryID)
		return err
	})
	return seqs, err
}

func (s *Store) SetAccess(ctx context.Context, access *model.Access) error {
	return s.do(func(tx *txStore) error { return tx.SetAccess(ctx, access) })
}

func (s *Store) RemoveAccess(ctx context.Context, inventoryID, userID string) error {
	return s.do(func(tx *txStore) error { return tx.RemoveAccess(ctx, inventoryID, userID) })
}

func (s *Store) GetAccess(ctx context.Context, inventoryID string) (list []*model.Access, err error) {
	err = s.do(func(tx *txStore) error {
		list, err = tx.GetAccess(ctx, inventoryID)
		return err
	})
	return list, err
}

func (s *Store) RecordEvent(ctx context.Context, event *model.Event) error {
	return s.do(func(tx *txStore) error { return tx.RecordEvent(ctx, event) })
}

func (s *Store) GetEvents(ctx context.Context, inventoryID string) (events []*model.Event, err error) {
	err = s.do(func(tx *txStore) error {
		events, err = tx.GetEvents(ctx, inventoryID)
		return err
	})
	return events, err
}

// txStore operates on one state without locking; the owning Store holds
// the lock for as long as a txStore is in use.
type txStore struct {
	st  *state
	now func() time.Time
}

// Compile-time check that txStore implements store.Store.
var _ store.Store = (*txStore)(nil)

// RunInTransaction on a txStore reuses the existing transaction (no nesting).
func (tx *txStore) RunInTransaction(ctx context.Context, fn func(tx store.Store) error) error {
	return fn(tx)
}

// Close is a no-op for a transaction store.
func (tx *txStore) Close() error { return nil }

func (tx *txStore) CreateInventory(_ context.Context, inv *model.Inventory) error {
	if _, ok := tx.st.inventories[inv.ID]; ok {
		return fmt.Errorf("inventory %q already exists", inv.ID)
	}
	if inv.Version == 0 {
		inv.Version = 1
	}
	now := tx.now()
	if inv.CreatedAt.IsZero() {
		inv.CreatedAt = now
	}
	if inv.UpdatedAt.IsZero() {
		inv.UpdatedAt = now
	}
	tx.st.inventories[inv.ID] = copyInventory(inv)
	return nil
}

func (tx *txStore) GetInventory(ctx context.Context, id string) (*model.Inventory, error) {
	inv, ok := tx.st.inventories[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	out := copyInventory(inv)
	out.Access, _ = tx.GetAccess(ctx, id)
	return out, nil
}

func (tx *txStore) ListInventories(_ context.Context, filter model.InventoryFilter) ([]*model.Inventory, int, error) {
	var matched []*model.Inventory
	for _, inv := range tx.st.inventories {
		if filter.OwnerID != "" && inv.OwnerID != filter.OwnerID {
			continue
		}
		if len(filter.Category) > 0 && !containsCategory(filter.Category, inv.Category) {
			continue
		}
		if filter.Public != nil && inv.IsPublic != *filter.Public {
			continue
		}
		if filter.Search != "" && !containsFold(inv.Title, filter.Search) && !containsFold(inv.Description, filter.Search) {
			continue
		}
		matched = append(matched, copyInventory(inv))
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })
	total := len(matched)
	return page(matched, filter.Limit, filter.Offset), total, nil
}

func (tx *txStore) UpdateInventory(_ context.Context, inv *model.Inventory) error {
	cur, ok := tx.st.inventories[inv.ID]
	if !ok {
		return store.ErrNotFound
	}
	if cur.Version != inv.Version {
		return store.ErrVersionConflict
	}
	next := copyInventory(inv)
	next.OwnerID = cur.OwnerID
	next.CreatedAt = cur.CreatedAt
	next.Version = cur.Version + 1
	next.UpdatedAt = tx.now()
	tx.st.inventories[inv.ID] = next

	inv.Version = next.Version
	inv.UpdatedAt = next.UpdatedAt
	return nil
}

func (tx *txStore) DeleteInventory(_ context.Context, id string) error {
	if _, ok := tx.st.inventories[id]; !ok {
		return store.ErrNotFound
	}
	delete(tx.st.inventories, id)
	delete(tx.st.access, id)
	for k, it := range tx.st.items {
		if it.InventoryID == id {
			delete(tx.st.items, k)
		}
	}
	for k := range tx.st.sequences {
		if k.inventoryID == id {
			delete(tx.st.sequences, k)
		}
	}
	return nil
}

// customIDTaken reports whether another item of the inventory carries the
// given non-empty custom id.
func (tx *txStore) customIDTaken(inventoryID, customID, exceptItemID string) bool {
	if customID == "" {
		return false
	}
	for _, it := range tx.st.items {
		if it.ID != exceptItemID && it.InventoryID == inventoryID && it.CustomID == customID {
			return true
		}
	}
	return false
}

func (tx *txStore) CreateItem(_ context.Context, item *model.Item) error {
	if _, ok := tx.st.inventories[item.InventoryID]; !ok {
		return store.ErrNotFound
	}
	if _, ok := tx.st.items[item.ID]; ok {
		return fmt.Errorf("item %q already exists", item.ID)
	}
	if tx.customIDTaken(item.InventoryID, item.CustomID, item.ID) {
		return store.ErrDuplicateID
	}
	if item.Version == 0 {
		item.Version = 1
	}
	now := tx.now()
	if item.CreatedAt.IsZero() {
		item.CreatedAt = now
	}
	if item.UpdatedAt.IsZero() {
		item.UpdatedAt = now
	}
	tx.st.items[item.ID] = copyItem(item)
	return nil
}

func (tx *txStore) GetItem(_ context.Context, id string) (*model.Item, error) {
	it, ok := tx.st.items[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return copyItem(it), nil
}

func (tx *txStore) ListItems(_ context.Context, filter model.ItemFilter) ([]*model.Item, int, error) {
	var matched []*model.Item
	for _, it := range tx.st.items {
		if it.InventoryID != filter.InventoryID {
			continue
		}
		if filter.StaleHash != "" && it.FormatHash == filter.StaleHash {
			continue
		}
		if filter.Search != "" && !containsFold(it.CustomID, filter.Search) {
			continue
		}
		matched = append(matched, copyItem(it))
	}
	sortItems(matched, filter.Sort)
	total := len(matched)
	return page(matched, filter.Limit, filter.Offset), total, nil
}

func (tx *txStore) UpdateItem(_ context.Context, item *model.Item) error {
	cur, ok := tx.st.items[item.ID]
	if !ok {
		return store.ErrNotFound
	}
	if cur.Version != item.Version {
		return store.ErrVersionConflict
	}
	if tx.customIDTaken(cur.InventoryID, item.CustomID, item.ID) {
		return store.ErrDuplicateID
	}
	next := copyItem(item)
	next.InventoryID = cur.InventoryID
	next.CreatedAt = cur.CreatedAt
	next.CreatedBy = cur.CreatedBy
	next.Version = cur.Version + 1
	next.UpdatedAt = tx.now()
	tx.st.items[item.ID] = next

	item.Version = next.Version
	item.UpdatedAt = next.UpdatedAt
	return nil
}

func (tx *txStore) DeleteItem(_ context.Context, id string) error {
	if _, ok := tx.st.items[id]; !ok {
		return store.ErrNotFound
	}
	delete(tx.st.items, id)
	return nil
}

// LockSequence needs no row lock here: the whole transaction already runs
// under the store lock.
func (tx *txStore) LockSequence(_ context.Context, inventoryID, segmentID string) (*int64, error) {
	c, ok := tx.st.sequences[seqKey{inventoryID, segmentID}]
	if !ok {
		return nil, nil
	}
	v := c.LastValue
	return &v, nil
}

func (tx *txStore) SetSequence(_ context.Context, inventoryID, segmentID string, value int64) error {
	if _, ok := tx.st.inventories[inventoryID]; !ok {
		return store.ErrNotFound
	}
	tx.st.sequences[seqKey{inventoryID, segmentID}] = &model.SequenceCounter{
		InventoryID: inventoryID,
		SegmentID:   segmentID,
		LastValue:   value,
		UpdatedAt:   tx.now(),
	}
	return nil
}

func (tx *txStore) ListSequences(_ context.Context, inventoryID string) ([]*model.SequenceCounter, error) {
	var out []*model.SequenceCounter
	for k, c := range tx.st.sequences {
		if k.inventoryID == inventoryID {
			cp := *c
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SegmentID < out[j].SegmentID })
	return out, nil
}

func (tx *txStore) SetAccess(_ context.Context, a *model.Access) error {
	if _, ok := tx.st.inventories[a.InventoryID]; !ok {
		return store.ErrNotFound
	}
	users := make(map[string]*model.Access, len(tx.st.access[a.InventoryID])+1)
	for u, v := range tx.st.access[a.InventoryID] {
		users[u] = v
	}
	if prev, ok := users[a.UserID]; ok {
		a.CreatedAt = prev.CreatedAt
	} else {
		a.CreatedAt = tx.now()
	}
	cp := *a
	users[a.UserID] = &cp
	tx.st.access[a.InventoryID] = users
	return nil
}

func (tx *txStore) RemoveAccess(_ context.Context, inventoryID, userID string) error {
	users := tx.st.access[inventoryID]
	if _, ok := users[userID]; !ok {
		return store.ErrNotFound
	}
	next := make(map[string]*model.Access, len(users))
	for u, v := range users {
		if u != userID {
			next[u] = v
		}
	}
	tx.st.access[inventoryID] = next
	return nil
}

func (tx *txStore) GetAccess(_ context.Context, inventoryID string) ([]*model.Access, error) {
	var out []*model.Access
	for _, a := range tx.st.access[inventoryID] {
		cp := *a
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

func (tx *txStore) RecordEvent(_ context.Context, e *model.Event) error {
	e.ID = tx.st.nextEventID
	tx.st.nextEventID++
	if e.CreatedAt.IsZero() {
		e.CreatedAt = tx.now()
	}
	cp := *e
	tx.st.events = append(tx.st.events, &cp)
	return nil
}

func (tx *txStore) GetEvents(_ context.Context, inventoryID string) ([]*model.Event, error) {
	var out []*model.Event
	for _, e := range tx.st.events {
		if e.InventoryID == inventoryID {
			cp := *e
			out = append(out, &cp)
		}
	}
	return out, nil
}

func copyInventory(inv *model.Inventory) *model.Inventory {
	cp := *inv
	cp.Fields = append([]model.FieldDef(nil), inv.Fields...)
	cp.IDFormat = append([]byte(nil), inv.IDFormat...)
	cp.Access = nil
	return &cp
}

func copyItem(it *model.Item) *model.Item {
	cp := *it
	cp.CustomIDBoundaries = append([]int(nil), it.CustomIDBoundaries...)
	cp.Number1 = copyFloat(it.Number1)
	cp.Number2 = copyFloat(it.Number2)
	cp.Number3 = copyFloat(it.Number3)
	return &cp
}

func copyFloat(f *float64) *float64 {
	if f == nil {
		return nil
	}
	v := *f
	return &v
}

func sortItems(items []*model.Item, by string) {
	desc := strings.HasPrefix(by, "-")
	var less func(a, b *model.Item) bool
	switch strings.TrimPrefix(by, "-") {
	case "custom_id":
		less = func(a, b *model.Item) bool { return a.CustomID < b.CustomID }
	case "updated_at":
		less = func(a, b *model.Item) bool { return a.UpdatedAt.Before(b.UpdatedAt) }
	case "id":
		less = func(a, b *model.Item) bool { return a.ID < b.ID }
	default:
		desc = false
		less = func(a, b *model.Item) bool {
			if a.CreatedAt.Equal(b.CreatedAt) {
				return a.ID < b.ID
			}
			return a.CreatedAt.Before(b.CreatedAt)
		}
	}
	sort.SliceStable(items, func(i, j int) bool {
		if desc {
			return less(items[j], items[i])
		}
		return less(items[i], items[j])
	})
}

func page[T any](list []T, limit, offset int) []T {
	if offset > 0 {
		if offset >= len(list) {
			return nil
		}
		list = list[offset:]
	}
	if limit > 0 && limit < len(list) {
		list = list[:limit]
	}
	return list
}

func containsCategory(list []model.Category, c model.Category) bool {
	for _, v := range list {
		if v == c {
			return true
		}
	}
	return false
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}
