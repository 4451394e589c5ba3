package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/alfredjeanlab/invtrack/internal/model"
	"github.com/alfredjeanlab/invtrack/internal/store"
)

// inventoryColumns is the column list used for SELECT statements on the inventories table.
const inventoryColumns = `id, title, description, category, owner_id, is_public,
	fields, id_format, id_format_hash, version, created_at, updated_at`

// executor is the interface satisfied by both *sql.DB and *sql.Tx.
type executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// stampCreated fills unset creation timestamps so rows never carry the zero time.
func stampCreated(created, updated *time.Time) {
	now := time.Now().UTC()
	if created.IsZero() {
		*created = now
	}
	if updated.IsZero() {
		*updated = *created
	}
}

func queryCreateInventory(ctx context.Context, db executor, inv *model.Inventory) error {
	fields, err := fieldsJSON(inv.Fields)
	if err != nil {
		return err
	}
	if inv.Version == 0 {
		inv.Version = 1
	}
	stampCreated(&inv.CreatedAt, &inv.UpdatedAt)
	_, err = db.ExecContext(ctx, `
		INSERT INTO inventories (
			id, title, description, category, owner_id, is_public,
			fields, id_format, id_format_hash, version, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6,
			$7, $8, $9, $10, $11, $12
		)`,
		inv.ID,
		inv.Title,
		inv.Description,
		string(inv.Category),
		inv.OwnerID,
		inv.IsPublic,
		fields,
		string(inv.IDFormat),
		inv.IDFormatHash,
		inv.Version,
		inv.CreatedAt,
		inv.UpdatedAt,
	)
	return err
}

func queryGetInventory(ctx context.Context, db executor, id string) (*model.Inventory, error) {
	row := db.QueryRowContext(ctx, `SELECT `+inventoryColumns+` FROM inventories WHERE id = $1`, id)
	inv, err := scanInventory(row)
	if err != nil {
		return nil, err
	}

	access, err := queryGetAccess(ctx, db, id)
	if err != nil {
		return nil, err
	}
	inv.Access = access

	return inv, nil
}

func queryListInventories(ctx context.Context, db executor, filter model.InventoryFilter) ([]*model.Inventory, int, error) {
	var (
		whereClauses []string
		args         []any
		argIdx       int
	)

	nextArg := func() string {
		argIdx++
		return fmt.Sprintf("$%d", argIdx)
	}

	if filter.OwnerID != "" {
		whereClauses = append(whereClauses, "owner_id = "+nextArg())
		args = append(args, filter.OwnerID)
	}

	if len(filter.Category) > 0 {
		placeholders := make([]string, len(filter.Category))
		for i, c := range filter.Category {
			placeholders[i] = nextArg()
			args = append(args, string(c))
		}
		whereClauses = append(whereClauses, "category IN ("+strings.Join(placeholders, ", ")+")")
	}

	if filter.Public != nil {
		whereClauses = append(whereClauses, "is_public = "+nextArg())
		args = append(args, *filter.Public)
	}

	if filter.Search != "" {
		p := nextArg()
		whereClauses = append(whereClauses,
			fmt.Sprintf("(title ILIKE '%%' || %s || '%%' OR description ILIKE '%%' || %s || '%%')", p, p))
		args = append(args, filter.Search)
	}

	whereSQL := ""
	if len(whereClauses) > 0 {
		whereSQL = " WHERE " + strings.Join(whereClauses, " AND ")
	}

	dataQuery := "SELECT COUNT(*) OVER() AS total_count, " + inventoryColumns + " FROM inventories" + whereSQL + " ORDER BY id ASC"

	if filter.Limit > 0 {
		dataQuery += " LIMIT " + nextArg()
		args = append(args, filter.Limit)
	}
	if filter.Offset > 0 {
		dataQuery += " OFFSET " + nextArg()
		args = append(args, filter.Offset)
	}

	rows, err := db.QueryContext(ctx, dataQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list inventories: %w", err)
	}
	defer rows.Close()

	var invs []*model.Inventory
	var total int
	for rows.Next() {
		inv, t, err := scanInventoryWithTotal(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan inventories: %w", err)
		}
		total = t
		invs = append(invs, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("scan inventories: %w", err)
	}

	return invs, total, nil
}

// queryUpdateInventory writes the inventory if the stored version still
// equals inv.Version, and bumps it.
func queryUpdateInventory(ctx context.Context, db executor, inv *model.Inventory) error {
	fields, err := fieldsJSON(inv.Fields)
	if err != nil {
		return err
	}
	err = db.QueryRowContext(ctx, `
		UPDATE inventories SET
			title = $3,
			description = $4,
			category = $5,
			is_public = $6,
			fields = $7,
			id_format = $8,
			id_format_hash = $9,
			version = version + 1,
			updated_at = NOW()
		WHERE id = $1 AND version = $2
		RETURNING version, updated_at`,
		inv.ID,
		inv.Version,
		inv.Title,
		inv.Description,
		string(inv.Category),
		inv.IsPublic,
		fields,
		string(inv.IDFormat),
		inv.IDFormatHash,
	).Scan(&inv.Version, &inv.UpdatedAt)
	if err == sql.ErrNoRows {
		return versionMiss(ctx, db, "inventories", inv.ID)
	}
	return err
}

// versionMiss tells a missing row apart from a stale version after a
// guarded UPDATE matched nothing.
func versionMiss(ctx context.Context, db executor, table, id string) error {
	var exists bool
	if err := db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM `+table+` WHERE id = $1)`, id,
	).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return sql.ErrNoRows
	}
	return store.ErrVersionConflict
}

func queryDeleteInventory(ctx context.Context, db executor, id string) error {
	return execDelete(ctx, db, `DELETE FROM inventories WHERE id = $1`, id)
}

func execDelete(ctx context.Context, db executor, query string, args ...any) error {
	res, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// queryLockSequence creates the counter row if needed, then reads it with a
// row lock held until the surrounding transaction ends.
func queryLockSequence(ctx context.Context, db executor, inventoryID, segmentID string) (*int64, error) {
	if _, err := db.ExecContext(ctx, `
		INSERT INTO inventory_sequences (inventory_id, segment_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING`,
		inventoryID, segmentID,
	); err != nil {
		return nil, fmt.Errorf("create sequence: %w", err)
	}

	var last sql.NullInt64
	err := db.QueryRowContext(ctx, `
		SELECT last_value FROM inventory_sequences
		WHERE inventory_id = $1 AND segment_id = $2
		FOR UPDATE`,
		inventoryID, segmentID,
	).Scan(&last)
	if err != nil {
		return nil, err
	}
	if !last.Valid {
		return nil, nil
	}
	v := last.Int64
	return &v, nil
}

func querySetSequence(ctx context.Context, db executor, inventoryID, segmentID string, value int64) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO inventory_sequences (inventory_id, segment_id, last_value)
		VALUES ($1, $2, $3)
		ON CONFLICT (inventory_id, segment_id) DO UPDATE SET last_value = $3, updated_at = NOW()`,
		inventoryID, segmentID, value,
	)
	return err
}

func queryListSequences(ctx context.Context, db executor, inventoryID string) ([]*model.SequenceCounter, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT inventory_id, segment_id, last_value, updated_at
		FROM inventory_sequences
		WHERE inventory_id = $1 AND last_value IS NOT NULL
		ORDER BY segment_id`,
		inventoryID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSequences(rows)
}

func querySetAccess(ctx context.Context, db executor, a *model.Access) error {
	return db.QueryRowContext(ctx, `
		INSERT INTO inventory_access (inventory_id, user_id, level, granted_by)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (inventory_id, user_id) DO UPDATE SET level = $3, granted_by = $4
		RETURNING created_at`,
		a.InventoryID, a.UserID, string(a.Level), a.GrantedBy,
	).Scan(&a.CreatedAt)
}

func queryRemoveAccess(ctx context.Context, db executor, inventoryID, userID string) error {
	return execDelete(ctx, db, `
		DELETE FROM inventory_access
		WHERE inventory_id = $1 AND user_id = $2`,
		inventoryID, userID,
	)
}

func queryGetAccess(ctx context.Context, db executor, inventoryID string) ([]*model.Access, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT inventory_id, user_id, level, granted_by, created_at
		FROM inventory_access
		WHERE inventory_id = $1
		ORDER BY user_id`,
		inventoryID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAccessList(rows)
}

func queryRecordEvent(ctx context.Context, db executor, e *model.Event) error {
	return db.QueryRowContext(ctx, `
		INSERT INTO events (topic, inventory_id, item_id, actor, payload)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`,
		e.Topic, e.InventoryID, e.ItemID, e.Actor, jsonbBytes(e.Payload),
	).Scan(&e.ID, &e.CreatedAt)
}

func queryGetEvents(ctx context.Context, db executor, inventoryID string) ([]*model.Event, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, topic, inventory_id, item_id, actor, payload, created_at
		FROM events
		WHERE inventory_id = $1
		ORDER BY id ASC`,
		inventoryID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEvents(rows)
}

// fieldsJSON encodes field definitions for the JSONB column; none is NULL.
func fieldsJSON(defs []model.FieldDef) ([]byte, error) {
	if len(defs) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(defs)
	if err != nil {
		return nil, fmt.Errorf("encode fields: %w", err)
	}
	return b, nil
}
