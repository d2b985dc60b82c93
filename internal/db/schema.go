package db

import (
	"fmt"

	"github.com/Project-Sylos/Arbor/internal/types"
)

// Both DuckDB and SQLite accept this DDL unchanged.
const createItemsTableSQL = `
CREATE TABLE IF NOT EXISTS items (
	collection  VARCHAR NOT NULL,
	id          BIGINT  NOT NULL,
	title       VARCHAR,
	fields      VARCHAR NOT NULL,
	level       INTEGER,
	tree_weight INTEGER,
	PRIMARY KEY (collection, id)
)`

const createItemsIndexSQL = `CREATE INDEX IF NOT EXISTS idx_items_order ON items (collection, tree_weight)`

// sqlitePragmas mirror the settings used for single-writer SQLite stores
var sqlitePragmas = []string{
	"PRAGMA busy_timeout = 5000",
	"PRAGMA journal_mode = WAL",
	"PRAGMA synchronous = NORMAL",
	"PRAGMA temp_store = MEMORY",
}

// sqlDriverName maps a configured store driver to its database/sql name
func sqlDriverName(driver string) (string, error) {
	switch driver {
	case "", types.DriverDuckDB:
		return "duckdb", nil
	case types.DriverSQLite:
		return "sqlite", nil
	default:
		return "", fmt.Errorf("unsupported store driver %q", driver)
	}
}
