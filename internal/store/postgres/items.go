package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/alfredjeanlab/invtrack/internal/idformat"
	"github.com/alfredjeanlab/invtrack/internal/model"
)

// itemColumns is the column list used for SELECT statements on the items table.
const itemColumns = `id, inventory_id, custom_id, custom_id_boundaries, format_hash,
	string1, string2, string3, text1, text2, text3, link1, link2, link3,
	number1, number2, number3, bool1, bool2, bool3,
	version, created_by, created_at, updated_at`

func queryCreateItem(ctx context.Context, db executor, it *model.Item) error {
	if it.Version == 0 {
		it.Version = 1
	}
	stampCreated(&it.CreatedAt, &it.UpdatedAt)
	_, err := db.ExecContext(ctx, `
		INSERT INTO items (
			id, inventory_id, custom_id, custom_id_boundaries, format_hash,
			string1, string2, string3, text1, text2, text3, link1, link2, link3,
			number1, number2, number3, bool1, bool2, bool3,
			version, created_by, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5,
			$6, $7, $8, $9, $10, $11, $12, $13, $14,
			$15, $16, $17, $18, $19, $20,
			$21, $22, $23, $24
		)`,
		it.ID,
		it.InventoryID,
		it.CustomID,
		idformat.FormatBoundaries(it.CustomIDBoundaries),
		it.FormatHash,
		it.String1, it.String2, it.String3,
		it.Text1, it.Text2, it.Text3,
		it.Link1, it.Link2, it.Link3,
		nullFloatPtr(it.Number1), nullFloatPtr(it.Number2), nullFloatPtr(it.Number3),
		it.Bool1, it.Bool2, it.Bool3,
		it.Version,
		it.CreatedBy,
		it.CreatedAt,
		it.UpdatedAt,
	)
	return err
}

func queryGetItem(ctx context.Context, db executor, id string) (*model.Item, error) {
	row := db.QueryRowContext(ctx, `SELECT `+itemColumns+` FROM items WHERE id = $1`, id)
	return scanItem(row)
}

func queryListItems(ctx context.Context, db executor, filter model.ItemFilter) ([]*model.Item, int, error) {
	args := []any{filter.InventoryID}
	argIdx := 1
	nextArg := func() string {
		argIdx++
		return fmt.Sprintf("$%d", argIdx)
	}

	whereClauses := []string{"inventory_id = $1"}

	if filter.StaleHash != "" {
		whereClauses = append(whereClauses, "format_hash <> "+nextArg())
		args = append(args, filter.StaleHash)
	}

	if filter.Search != "" {
		whereClauses = append(whereClauses, fmt.Sprintf("custom_id ILIKE '%%' || %s || '%%'", nextArg()))
		args = append(args, filter.Search)
	}

	dataQuery := "SELECT COUNT(*) OVER() AS total_count, " + itemColumns + " FROM items WHERE " +
		strings.Join(whereClauses, " AND ") + " ORDER BY " + parseItemSortClause(filter.Sort)

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
		return nil, 0, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	var items []*model.Item
	var total int
	for rows.Next() {
		it, t, err := scanItemWithTotal(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan items: %w", err)
		}
		total = t
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("scan items: %w", err)
	}

	return items, total, nil
}

func queryUpdateItem(ctx context.Context, db executor, it *model.Item) error {
	err := db.QueryRowContext(ctx, `
		UPDATE items SET
			custom_id = $3,
			custom_id_boundaries = $4,
			format_hash = $5,
			string1 = $6, string2 = $7, string3 = $8,
			text1 = $9, text2 = $10, text3 = $11,
			link1 = $12, link2 = $13, link3 = $14,
			number1 = $15, number2 = $16, number3 = $17,
			bool1 = $18, bool2 = $19, bool3 = $20,
			version = version + 1,
			updated_at = NOW()
		WHERE id = $1 AND version = $2
		RETURNING version, updated_at`,
		it.ID,
		it.Version,
		it.CustomID,
		idformat.FormatBoundaries(it.CustomIDBoundaries),
		it.FormatHash,
		it.String1, it.String2, it.String3,
		it.Text1, it.Text2, it.Text3,
		it.Link1, it.Link2, it.Link3,
		nullFloatPtr(it.Number1), nullFloatPtr(it.Number2), nullFloatPtr(it.Number3),
		it.Bool1, it.Bool2, it.Bool3,
	).Scan(&it.Version, &it.UpdatedAt)
	if err == sql.ErrNoRows {
		return versionMiss(ctx, db, "items", it.ID)
	}
	return err
}

func queryDeleteItem(ctx context.Context, db executor, id string) error {
	return execDelete(ctx, db, `DELETE FROM items WHERE id = $1`, id)
}

func parseItemSortClause(sort string) string {
	if sort == "" {
		return "created_at ASC, id ASC"
	}
	desc := strings.HasPrefix(sort, "-")
	col := strings.TrimPrefix(sort, "-")
	allowed := map[string]bool{
		"custom_id": true, "created_at": true, "updated_at": true, "id": true,
	}
	if !allowed[col] {
		return "created_at ASC, id ASC"
	}
	if desc {
		return col + " DESC"
	}
	return col + " ASC"
}
