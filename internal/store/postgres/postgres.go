// Package postgres implements the store.Store interface backed by PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"

	"github.com/alfredjeanlab/invtrack/internal/model"
	"github.com/alfredjeanlab/invtrack/internal/store"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// PostgresStore implements store.Store backed by a PostgreSQL database.
type PostgresStore struct {
	db *sql.DB
}

// Compile-time check that PostgresStore implements store.Store.
var _ store.Store = (*PostgresStore)(nil)

// New opens a connection to the PostgreSQL database at the given URL,
// configures the connection pool, and runs any pending migrations.
func New(databaseURL string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

// NewWithDB wraps an already open database without running migrations.
func NewWithDB(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate applies pending migrations to the database at the given URL and
// returns the resulting schema version.
func Migrate(databaseURL string) (uint, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return 0, fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	m, err := newMigrator(db)
	if err != nil {
		return 0, err
	}
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return 0, fmt.Errorf("apply migrations: %w", err)
	}
	version, _, err := m.Version()
	if err != nil && err != migrate.ErrNilVersion {
		return 0, fmt.Errorf("read migration version: %w", err)
	}
	return version, nil
}

func runMigrations(db *sql.DB) error {
	m, err := newMigrator(db)
	if err != nil {
		return err
	}
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

func newMigrator(db *sql.DB) (*migrate.Migrate, error) {
	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("create migration source: %w", err)
	}

	dbDriver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return nil, fmt.Errorf("create migration db driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, "postgres", dbDriver)
	if err != nil {
		return nil, fmt.Errorf("create migrator: %w", err)
	}
	return m, nil
}

// Close closes the underlying database connection.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func (s *PostgresStore) CreateInventory(ctx context.Context, inv *model.Inventory) error {
	return mapError(queryCreateInventory(ctx, s.db, inv))
}

func (s *PostgresStore) GetInventory(ctx context.Context, id string) (*model.Inventory, error) {
	inv, err := queryGetInventory(ctx, s.db, id)
	return inv, mapError(err)
}

func (s *PostgresStore) ListInventories(ctx context.Context, filter model.InventoryFilter) ([]*model.Inventory, int, error) {
	invs, total, err := queryListInventories(ctx, s.db, filter)
	return invs, total, mapError(err)
}

func (s *PostgresStore) UpdateInventory(ctx context.Context, inv *model.Inventory) error {
	return mapError(queryUpdateInventory(ctx, s.db, inv))
}

func (s *PostgresStore) DeleteInventory(ctx context.Context, id string) error {
	return mapError(queryDeleteInventory(ctx, s.db, id))
}

func (s *PostgresStore) CreateItem(ctx context.Context, item *model.Item) error {
	return mapError(queryCreateItem(ctx, s.db, item))
}

func (s *PostgresStore) GetItem(ctx context.Context, id string) (*model.Item, error) {
	item, err := queryGetItem(ctx, s.db, id)
	return item, mapError(err)
}

func (s *PostgresStore) ListItems(ctx context.Context, filter model.ItemFilter) ([]*model.Item, int, error) {
	items, total, err := queryListItems(ctx, s.db, filter)
	return items, total, mapError(err)
}

func (s *PostgresStore) UpdateItem(ctx context.Context, item *model.Item) error {
	return mapError(queryUpdateItem(ctx, s.db, item))
}

func (s *PostgresStore) DeleteItem(ctx context.Context, id string) error {
	return mapError(queryDeleteItem(ctx, s.db, id))
}

// LockSequence outside a transaction only locks for the duration of the
// statement; callers coordinate through RunInTransaction.
func (s *PostgresStore) LockSequence(ctx context.Context, inventoryID, segmentID string) (*int64, error) {
	v, err := queryLockSequence(ctx, s.db, inventoryID, segmentID)
	return v, mapError(err)
}

func (s *PostgresStore) SetSequence(ctx context.Context, inventoryID, segmentID string, value int64) error {
	return mapError(querySetSequence(ctx, s.db, inventoryID, segmentID, value))
}

func (s *PostgresStore) ListSequences(ctx context.Context, inventoryID string) ([]*model.SequenceCounter, error) {
	seqs, err := queryListSequences(ctx, s.db, inventoryID)
	return seqs, mapError(err)
}

func (s *PostgresStore) SetAccess(ctx context.Context, access *model.Access) error {
	return mapError(querySetAccess(ctx, s.db, access))
}

func (s *PostgresStore) RemoveAccess(ctx context.Context, inventoryID, userID string) error {
	return mapError(queryRemoveAccess(ctx, s.db, inventoryID, userID))
}

func (s *PostgresStore) GetAccess(ctx context.Context, inventoryID string) ([]*model.Access, error) {
	access, err := queryGetAccess(ctx, s.db, inventoryID)
	return access, mapError(err)
}

func (s *PostgresStore) RecordEvent(ctx context.Context, event *model.Event) error {
	return mapError(queryRecordEvent(ctx, s.db, event))
}

func (s *PostgresStore) GetEvents(ctx context.Context, inventoryID string) ([]*model.Event, error) {
	events, err := queryGetEvents(ctx, s.db, inventoryID)
	return events, mapError(err)
}

// RunInTransaction begins a database transaction, creates a txStore that
// delegates to it, calls fn, and commits on success or rolls back on error.
// A serialization failure at commit is reported as store.ErrSequenceConflict.
func (s *PostgresStore) RunInTransaction(ctx context.Context, fn func(tx store.Store) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	txS := &txStore{tx: tx}
	if err := fn(txS); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", mapError(err))
	}
	return nil
}

// txStore implements store.Store using a *sql.Tx.
type txStore struct {
	tx *sql.Tx
}

// Compile-time check that txStore implements store.Store.
var _ store.Store = (*txStore)(nil)

func (s *txStore) CreateInventory(ctx context.Context, inv *model.Inventory) error {
	return mapError(queryCreateInventory(ctx, s.tx, inv))
}

func (s *txStore) GetInventory(ctx context.Context, id string) (*model.Inventory, error) {
	inv, err := queryGetInventory(ctx, s.tx, id)
	return inv, mapError(err)
}

func (s *txStore) ListInventories(ctx context.Context, filter model.InventoryFilter) ([]*model.Inventory, int, error) {
	invs, total, err := queryListInventories(ctx, s.tx, filter)
	return invs, total, mapError(err)
}

func (s *txStore) UpdateInventory(ctx context.Context, inv *model.Inventory) error {
	return mapError(queryUpdateInventory(ctx, s.tx, inv))
}

func (s *txStore) DeleteInventory(ctx context.Context, id string) error {
	return mapError(queryDeleteInventory(ctx, s.tx, id))
}

func (s *txStore) CreateItem(ctx context.Context, item *model.Item) error {
	return mapError(queryCreateItem(ctx, s.tx, item))
}

func (s *txStore) GetItem(ctx context.Context, id string) (*model.Item, error) {
	item, err := queryGetItem(ctx, s.tx, id)
	return item, mapError(err)
}

func (s *txStore) ListItems(ctx context.Context, filter model.ItemFilter) ([]*model.Item, int, error) {
	items, total, err := queryListItems(ctx, s.tx, filter)
	return items, total, mapError(err)
}

func (s *txStore) UpdateItem(ctx context.Context, item *model.Item) error {
	return mapError(queryUpdateItem(ctx, s.tx, item))
}

func (s *txStore) DeleteItem(ctx context.Context, id string) error {
	return mapError(queryDeleteItem(ctx, s.tx, id))
}

func (s *txStore) LockSequence(ctx context.Context, inventoryID, segmentID string) (*int64, error) {
	v, err := queryLockSequence(ctx, s.tx, inventoryID, segmentID)
	return v, mapError(err)
}

func (s *txStore) SetSequence(ctx context.Context, inventoryID, segmentID string, value int64) error {
	return mapError(querySetSequence(ctx, s.tx, inventoryID, segmentID, value))
}

func (s *txStore) ListSequences(ctx context.Context, inventoryID string) ([]*model.SequenceCounter, error) {
	seqs, err := queryListSequences(ctx, s.tx, inventoryID)
	return seqs, mapError(err)
}

func (s *txStore) SetAccess(ctx context.Context, access *model.Access) error {
	return mapError(querySetAccess(ctx, s.tx, access))
}

func (s *txStore) RemoveAccess(ctx context.Context, inventoryID, userID string) error {
	return mapError(queryRemoveAccess(ctx, s.tx, inventoryID, userID))
}

func (s *txStore) GetAccess(ctx context.Context, inventoryID string) ([]*model.Access, error) {
	access, err := queryGetAccess(ctx, s.tx, inventoryID)
	return access, mapError(err)
}

func (s *txStore) RecordEvent(ctx context.Context, event *model.Event) error {
	return mapError(queryRecordEvent(ctx, s.tx, event))
}

func (s *txStore) GetEvents(ctx context.Context, inventoryID string) ([]*model.Event, error) {
	events, err := queryGetEvents(ctx, s.tx, inventoryID)
	return events, mapError(err)
}

// RunInTransaction on a txStore reuses the existing transaction (no nesting).
func (s *txStore) RunInTransaction(ctx context.Context, fn func(tx store.Store) error) error {
	return fn(s)
}

// Close is a no-op for a transaction store; the parent store owns the connection.
func (s *txStore) Close() error {
	return nil
}
