package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"

	json "github.com/goccy/go-json"
	_ "github.com/marcboeker/go-duckdb"
	_ "modernc.org/sqlite"

	"github.com/Project-Sylos/Arbor/internal/types"
)

// ErrNotFound is returned when an item does not exist in a collection
var ErrNotFound = errors.New("item not found")

// maxRowOrder sorts items without a tree_weight after annotated ones
const maxRowOrder = 1<<31 - 1

// DB wraps a DuckDB or SQLite connection holding the items table. Every
// collection shares the table and is told apart by the collection column.
type DB struct {
	conn   *sql.DB
	driver string
	mu     sync.Mutex // Protects all database operations from concurrent access
}

// New opens the configured store and initializes the schema
func New(cfg types.StoreConfig) (*DB, error) {
	driverName, err := sqlDriverName(cfg.Driver)
	if err != nil {
		return nil, err
	}

	dbPath := cfg.DBPath
	if dbPath == ":memory:" && driverName == "duckdb" {
		dbPath = ""
	}

	conn, err := sql.Open(driverName, dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s connection: %w", driverName, err)
	}

	// In-memory databases live and die with their connection.
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)
	conn.SetConnMaxLifetime(0)

	db := &DB{conn: conn, driver: driverName}

	if err := db.InitializeSchema(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return db, nil
}

// InitializeSchema creates the items table if it does not exist yet
func (db *DB) InitializeSchema() error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if db.driver == "sqlite" {
		for _, pragma := range sqlitePragmas {
			if _, err := db.conn.Exec(pragma); err != nil {
				return fmt.Errorf("failed to execute %s: %w", pragma, err)
			}
		}
	}

	if _, err := db.conn.Exec(createItemsTableSQL); err != nil {
		return fmt.Errorf("failed to create items table: %w", err)
	}
	if _, err := db.conn.Exec(createItemsIndexSQL); err != nil {
		return fmt.Errorf("failed to create items index: %w", err)
	}
	return nil
}

// Driver returns the database/sql driver name in use
func (db *DB) Driver() string {
	return db.driver
}

// Ping checks that the store still answers
func (db *DB) Ping(ctx context.Context) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if err := db.conn.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping %s store: %w", db.driver, err)
	}
	return nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

// InsertItems inserts or replaces items of a collection in one transaction
func (db *DB) InsertItems(collection string, items []*types.Item) error {
	if len(items) == 0 {
		return nil
	}
	return db.inTx(func(tx *sql.Tx) error {
		return insertItems(tx, collection, items)
	})
}

// inTx runs fn in a transaction under the connection lock
func (db *DB) inTx(fn func(tx *sql.Tx) error) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func insertItems(tx *sql.Tx, collection string, items []*types.Item) error {
	if len(items) == 0 {
		return nil
	}

	stmt, err := tx.Prepare(`INSERT OR REPLACE INTO items (collection, id, title, fields, level, tree_weight) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert statement: %w", err)
	}
	defer stmt.Close()

	for _, item := range items {
		fieldsJSON, err := json.Marshal(item.Fields)
		if err != nil {
			return fmt.Errorf("failed to marshal fields of item %d: %w", item.ID, err)
		}

		_, err = stmt.Exec(
			collection,
			int64(item.ID),
			nullableTitle(item),
			string(fieldsJSON),
			nullableInt(item.Fields[types.FieldLevel]),
			nullableInt(item.Fields[types.FieldTreeWeight]),
		)
		if err != nil {
			return fmt.Errorf("failed to insert item %d: %w", item.ID, err)
		}
	}
	return nil
}

// GetItems returns every item of a collection, annotated items first in
// tree_weight order, the rest by id
func (db *DB) GetItems(collection string) ([]*types.Item, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	query := fmt.Sprintf(`
SELECT id, fields
FROM items
WHERE collection = ?
ORDER BY COALESCE(tree_weight, %d), id`, maxRowOrder)

	rows, err := db.conn.Query(query, collection)
	if err != nil {
		return nil, fmt.Errorf("failed to query items of %s: %w", collection, err)
	}
	defer rows.Close()

	var items []*types.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating items: %w", err)
	}
	return items, nil
}

// GetItem retrieves one item by id
func (db *DB) GetItem(collection string, id int) (*types.Item, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	row := db.conn.QueryRow(`SELECT id, fields FROM items WHERE collection = ? AND id = ?`, collection, int64(id))
	item, err := scanItem(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s/%d", ErrNotFound, collection, id)
		}
		return nil, err
	}
	return item, nil
}

// DeleteItems removes the given ids from a collection and returns how many
// rows were deleted. Unknown ids are ignored.
func (db *DB) DeleteItems(collection string, ids []int) (int, error) {
	return db.DeleteAndUpdate(collection, ids, nil)
}

// DeleteAndUpdate removes ids and writes updated in the same transaction, so
// children re-pointed at a new parent never outlive a failed delete or the
// other way round. It returns how many rows were deleted.
func (db *DB) DeleteAndUpdate(collection string, ids []int, updated []*types.Item) (int, error) {
	if len(ids) == 0 && len(updated) == 0 {
		return 0, nil
	}

	var deleted int
	err := db.inTx(func(tx *sql.Tx) error {
		n, err := deleteItems(tx, collection, ids)
		if err != nil {
			return err
		}
		deleted = n
		return insertItems(tx, collection, updated)
	})
	if err != nil {
		return 0, err
	}
	return deleted, nil
}

func deleteItems(tx *sql.Tx, collection string, ids []int) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	placeholders := make([]string, len(ids))
	args := make([]any, 0, len(ids)+1)
	args = append(args, collection)
	for i, id := range ids {
		placeholders[i] = "?"
		args = append(args, int64(id))
	}

	query := fmt.Sprintf("DELETE FROM items WHERE collection = ? AND id IN (%s)", strings.Join(placeholders, ", "))
	result, err := tx.Exec(query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to delete items from %s: %w", collection, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return int(rowsAffected), nil
}

// ReplaceCollection drops a collection and writes items in its place
func (db *DB) ReplaceCollection(collection string, items []*types.Item) error {
	return db.inTx(func(tx *sql.Tx) error {
		if _, err := deleteCollection(tx, collection); err != nil {
			return err
		}
		return insertItems(tx, collection, items)
	})
}

// DeleteCollection removes every item of a collection and returns how many
// there were
func (db *DB) DeleteCollection(collection string) (int, error) {
	var deleted int
	err := db.inTx(func(tx *sql.Tx) error {
		n, err := deleteCollection(tx, collection)
		deleted = n
		return err
	})
	if err != nil {
		return 0, err
	}
	return deleted, nil
}

func deleteCollection(tx *sql.Tx, collection string) (int, error) {
	result, err := tx.Exec("DELETE FROM items WHERE collection = ?", collection)
	if err != nil {
		return 0, fmt.Errorf("failed to delete collection %s: %w", collection, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return int(n), nil
}

// DeleteAll removes all items of all collections (for Reset)
func (db *DB) DeleteAll() error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if _, err := db.conn.Exec("DELETE FROM items"); err != nil {
		return fmt.Errorf("failed to delete from items table: %w", err)
	}
	return nil
}

// Count returns the number of items in a collection
func (db *DB) Count(collection string) (int, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	var count int
	err := db.conn.QueryRow("SELECT COUNT(*) FROM items WHERE collection = ?", collection).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count items of %s: %w", collection, err)
	}
	return count, nil
}

// Collections returns every non-empty collection with its item count
func (db *DB) Collections() ([]types.CollectionInfo, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	rows, err := db.conn.Query("SELECT collection, COUNT(*) FROM items GROUP BY collection ORDER BY collection")
	if err != nil {
		return nil, fmt.Errorf("failed to list collections: %w", err)
	}
	defer rows.Close()

	var infos []types.CollectionInfo
	for rows.Next() {
		var info types.CollectionInfo
		if err := rows.Scan(&info.Name, &info.ItemCount); err != nil {
			return nil, fmt.Errorf("failed to scan collection: %w", err)
		}
		infos = append(infos, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating collections: %w", err)
	}
	return infos, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (*types.Item, error) {
	var (
		id         int64
		fieldsJSON string
	)
	if err := row.Scan(&id, &fieldsJSON); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan item: %w", err)
	}

	fields := make(map[string]any)
	if fieldsJSON != "" {
		if err := json.Unmarshal([]byte(fieldsJSON), &fields); err != nil {
			return nil, fmt.Errorf("failed to unmarshal fields of item %d: %w", id, err)
		}
	}
	return types.NewItem(int(id), fields), nil
}

func nullableTitle(item *types.Item) any {
	if v, ok := item.Fields["title"]; ok && v != nil {
		return item.Title()
	}
	return nil
}

func nullableInt(v any) any {
	if n, ok := types.AsInt(v); ok {
		return int64(n)
	}
	return nil
}
