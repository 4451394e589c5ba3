package postgres

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/alfredjeanlab/invtrack/internal/store"
)

// customIDIndex is the partial unique index on items (inventory_id, custom_id).
const customIDIndex = "items_inventory_custom_id_key"

// PostgreSQL error codes the store translates.
const (
	codeUniqueViolation      = "23505"
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
)

// mapError translates driver errors into store sentinel errors. The original
// error is kept in the chain.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %w", store.ErrNotFound, err)
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch string(pqErr.Code) {
		case codeUniqueViolation:
			if pqErr.Constraint == customIDIndex {
				return fmt.Errorf("%w: %w", store.ErrDuplicateID, err)
			}
		case codeSerializationFailure, codeDeadlockDetected:
			return fmt.Errorf("%w: %w", store.ErrSequenceConflict, err)
		}
	}
	return err
}
