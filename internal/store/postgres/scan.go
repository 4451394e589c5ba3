package postgres

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/alfredjeanlab/invtrack/internal/idformat"
	"github.com/alfredjeanlab/invtrack/internal/model"
)

// scannable is the interface satisfied by both *sql.Row and *sql.Rows.
type scannable interface {
	Scan(dest ...any) error
}

// inventoryRow holds the raw column values of one inventories row.
type inventoryRow struct {
	inv    model.Inventory
	fields []byte
	format string
}

func (r *inventoryRow) dest() []any {
	return []any{
		&r.inv.ID,
		&r.inv.Title,
		&r.inv.Description,
		&r.inv.Category,
		&r.inv.OwnerID,
		&r.inv.IsPublic,
		&r.fields,
		&r.format,
		&r.inv.IDFormatHash,
		&r.inv.Version,
		&r.inv.CreatedAt,
		&r.inv.UpdatedAt,
	}
}

func (r *inventoryRow) finish() (*model.Inventory, error) {
	if len(r.fields) > 0 {
		if err := json.Unmarshal(r.fields, &r.inv.Fields); err != nil {
			return nil, fmt.Errorf("decode fields of %s: %w", r.inv.ID, err)
		}
	}
	if r.format != "" {
		r.inv.IDFormat = json.RawMessage(r.format)
	}
	inv := r.inv
	return &inv, nil
}

// scanInventory scans a single row into a model.Inventory.
// The row must contain columns in the order defined by inventoryColumns.
func scanInventory(row scannable) (*model.Inventory, error) {
	var r inventoryRow
	if err := row.Scan(r.dest()...); err != nil {
		return nil, err
	}
	return r.finish()
}

// scanInventoryWithTotal scans a row that has a leading total_count column
// followed by the standard inventory columns.
func scanInventoryWithTotal(row scannable) (*model.Inventory, int, error) {
	var total int
	var r inventoryRow
	if err := row.Scan(append([]any{&total}, r.dest()...)...); err != nil {
		return nil, 0, err
	}
	inv, err := r.finish()
	return inv, total, err
}

// itemRow holds the raw column values of one items row.
type itemRow struct {
	it               model.Item
	boundaries       string
	num1, num2, num3 sql.NullFloat64
}

func (r *itemRow) dest() []any {
	return []any{
		&r.it.ID,
		&r.it.InventoryID,
		&r.it.CustomID,
		&r.boundaries,
		&r.it.FormatHash,
		&r.it.String1, &r.it.String2, &r.it.String3,
		&r.it.Text1, &r.it.Text2, &r.it.Text3,
		&r.it.Link1, &r.it.Link2, &r.it.Link3,
		&r.num1, &r.num2, &r.num3,
		&r.it.Bool1, &r.it.Bool2, &r.it.Bool3,
		&r.it.Version,
		&r.it.CreatedBy,
		&r.it.CreatedAt,
		&r.it.UpdatedAt,
	}
}

func (r *itemRow) finish() (*model.Item, error) {
	b, err := idformat.ParseBoundaries(r.boundaries)
	if err != nil {
		return nil, fmt.Errorf("decode boundaries of %s: %w", r.it.ID, err)
	}
	r.it.CustomIDBoundaries = b
	r.it.Number1 = floatPtr(r.num1)
	r.it.Number2 = floatPtr(r.num2)
	r.it.Number3 = floatPtr(r.num3)
	it := r.it
	return &it, nil
}

// scanItem scans a single row into a model.Item.
// The row must contain columns in the order defined by itemColumns.
func scanItem(row scannable) (*model.Item, error) {
	var r itemRow
	if err := row.Scan(r.dest()...); err != nil {
		return nil, err
	}
	return r.finish()
}

// scanItemWithTotal scans a row with a leading total_count column.
func scanItemWithTotal(row scannable) (*model.Item, int, error) {
	var total int
	var r itemRow
	if err := row.Scan(append([]any{&total}, r.dest()...)...); err != nil {
		return nil, 0, err
	}
	it, err := r.finish()
	return it, total, err
}

// scanSequences scans multiple rows into a slice of model.SequenceCounter pointers.
func scanSequences(rows *sql.Rows) ([]*model.SequenceCounter, error) {
	var seqs []*model.SequenceCounter
	for rows.Next() {
		var s model.SequenceCounter
		if err := rows.Scan(&s.InventoryID, &s.SegmentID, &s.LastValue, &s.UpdatedAt); err != nil {
			return nil, err
		}
		seqs = append(seqs, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return seqs, nil
}

// scanAccessList scans multiple rows into a slice of model.Access pointers.
func scanAccessList(rows *sql.Rows) ([]*model.Access, error) {
	var list []*model.Access
	for rows.Next() {
		var a model.Access
		if err := rows.Scan(&a.InventoryID, &a.UserID, &a.Level, &a.GrantedBy, &a.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return list, nil
}

// scanEvent scans a single row into a model.Event.
func scanEvent(row scannable) (*model.Event, error) {
	var e model.Event
	var payload []byte
	err := row.Scan(&e.ID, &e.Topic, &e.InventoryID, &e.ItemID, &e.Actor, &payload, &e.CreatedAt)
	if err != nil {
		return nil, err
	}
	if len(payload) > 0 {
		e.Payload = json.RawMessage(payload)
	}
	return &e, nil
}

// scanEvents scans multiple rows into a slice of model.Event pointers.
func scanEvents(rows *sql.Rows) ([]*model.Event, error) {
	var events []*model.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return events, nil
}

// nullFloatPtr converts a *float64 to a sql.NullFloat64.
func nullFloatPtr(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

func floatPtr(n sql.NullFloat64) *float64 {
	if !n.Valid {
		return nil
	}
	v := n.Float64
	return &v
}

// jsonbBytes converts json.RawMessage to a []byte suitable for JSONB columns.
func jsonbBytes(m json.RawMessage) []byte {
	if len(m) == 0 {
		return nil
	}
	return []byte(m)
}
