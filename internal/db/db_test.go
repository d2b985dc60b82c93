package db

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/Project-Sylos/Arbor/internal/types"
)

// newTestDB opens a SQLite store in a temp directory
func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(types.StoreConfig{
		Driver: types.DriverSQLite,
		DBPath: filepath.Join(t.TempDir(), "arbor-test.db"),
	})
	if err != nil {
		t.Fatalf("Failed to create database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func agendaItems() []*types.Item {
	return []*types.Item{
		types.NewItem(1, map[string]any{"title": "Opening", "weight": 1}),
		types.NewItem(2, map[string]any{"title": "Reports", "weight": 2}),
		types.NewItem(3, map[string]any{"title": "Treasurer", "weight": 1, "parent_id": 2}),
	}
}

// TestNewDB tests the New function
func TestNewDB(t *testing.T) {
	tests := []struct {
		name        string
		cfg         func(t *testing.T) types.StoreConfig
		expectError bool
		driver      string
	}{
		{
			name: "sqlite file database",
			cfg: func(t *testing.T) types.StoreConfig {
				return types.StoreConfig{Driver: types.DriverSQLite, DBPath: filepath.Join(t.TempDir(), "a.db")}
			},
			driver: "sqlite",
		},
		{
			name: "sqlite in memory",
			cfg: func(t *testing.T) types.StoreConfig {
				return types.StoreConfig{Driver: types.DriverSQLite, DBPath: ":memory:"}
			},
			driver: "sqlite",
		},
		{
			name: "duckdb in memory",
			cfg: func(t *testing.T) types.StoreConfig {
				return types.StoreConfig{Driver: types.DriverDuckDB, DBPath: ":memory:"}
			},
			driver: "duckdb",
		},
		{
			name: "unknown driver",
			cfg: func(t *testing.T) types.StoreConfig {
				return types.StoreConfig{Driver: "bolt", DBPath: ":memory:"}
			},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, err := New(tt.cfg(t))
			if tt.expectError {
				if err == nil {
					t.Errorf("Expected error but got none")
				}
				if db != nil {
					t.Errorf("Expected nil DB but got %v", db)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			defer db.Close()
			if db.Driver() != tt.driver {
				t.Errorf("Expected driver %s, got %s", tt.driver, db.Driver())
			}
			if err := db.InitializeSchema(); err != nil {
				t.Errorf("Schema initialization should be idempotent: %v", err)
			}
		})
	}
}

// TestDBMethods tests the core database methods
func TestDBMethods(t *testing.T) {
	db := newTestDB(t)

	t.Run("InsertItems", func(t *testing.T) {
		if err := db.InsertItems("agenda", agendaItems()); err != nil {
			t.Fatalf("Unexpected error inserting items: %v", err)
		}
		if err := db.InsertItems("agenda", nil); err != nil {
			t.Errorf("Inserting nothing should succeed: %v", err)
		}
	})

	t.Run("GetItem", func(t *testing.T) {
		item, err := db.GetItem("agenda", 3)
		if err != nil {
			t.Fatalf("Unexpected error getting item: %v", err)
		}
		if item.Title() != "Treasurer" {
			t.Errorf("Expected title 'Treasurer', got '%s'", item.Title())
		}
		parent, ok := types.AsInt(item.Fields["parent_id"])
		if !ok || parent != 2 {
			t.Errorf("Expected parent_id 2, got %v", item.Fields["parent_id"])
		}
	})

	t.Run("GetItemNotFound", func(t *testing.T) {
		_, err := db.GetItem("agenda", 99)
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
		_, err = db.GetItem("minutes", 1)
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("Expected ErrNotFound for other collection, got %v", err)
		}
	})

	t.Run("InsertReplaces", func(t *testing.T) {
		updated := types.NewItem(1, map[string]any{"title": "Call to order", "weight": 1})
		if err := db.InsertItems("agenda", []*types.Item{updated}); err != nil {
			t.Fatalf("Unexpected error replacing item: %v", err)
		}
		item, err := db.GetItem("agenda", 1)
		if err != nil {
			t.Fatalf("Failed to get replaced item: %v", err)
		}
		if item.Title() != "Call to order" {
			t.Errorf("Expected replaced title, got '%s'", item.Title())
		}
		count, err := db.Count("agenda")
		if err != nil {
			t.Fatalf("Failed to count: %v", err)
		}
		if count != 3 {
			t.Errorf("Expected 3 items after replace, got %d", count)
		}
	})

	t.Run("GetItemsOrder", func(t *testing.T) {
		annotated := []*types.Item{
			types.NewItem(2, map[string]any{"title": "Reports", types.FieldLevel: 0, types.FieldTreeWeight: 1}),
			types.NewItem(3, map[string]any{"title": "Treasurer", types.FieldLevel: 1, types.FieldTreeWeight: 2}),
		}
		if err := db.InsertItems("agenda", annotated); err != nil {
			t.Fatalf("Failed to insert annotated items: %v", err)
		}

		items, err := db.GetItems("agenda")
		if err != nil {
			t.Fatalf("Unexpected error listing items: %v", err)
		}
		got := make([]int, len(items))
		for i, item := range items {
			got[i] = item.ID
		}
		want := []int{2, 3, 1}
		if len(got) != len(want) {
			t.Fatalf("Expected %v, got %v", want, got)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("Expected order %v, got %v", want, got)
				break
			}
		}
	})

	t.Run("Collections", func(t *testing.T) {
		if err := db.InsertItems("committees", []*types.Item{types.NewItem(1, nil)}); err != nil {
			t.Fatalf("Failed to insert: %v", err)
		}
		infos, err := db.Collections()
		if err != nil {
			t.Fatalf("Unexpected error listing collections: %v", err)
		}
		if len(infos) != 2 {
			t.Fatalf("Expected 2 collections, got %d", len(infos))
		}
		if infos[0].Name != "agenda" || infos[0].ItemCount != 3 {
			t.Errorf("Unexpected first collection: %+v", infos[0])
		}
		if infos[1].Name != "committees" || infos[1].ItemCount != 1 {
			t.Errorf("Unexpected second collection: %+v", infos[1])
		}
	})

	t.Run("DeleteItems", func(t *testing.T) {
		deleted, err := db.DeleteItems("agenda", []int{3, 42})
		if err != nil {
			t.Fatalf("Unexpected error deleting: %v", err)
		}
		if deleted != 1 {
			t.Errorf("Expected 1 deleted row, got %d", deleted)
		}
		deleted, err = db.DeleteItems("agenda", nil)
		if err != nil || deleted != 0 {
			t.Errorf("Expected no-op delete, got %d, %v", deleted, err)
		}
	})

	t.Run("ReplaceCollection", func(t *testing.T) {
		if err := db.ReplaceCollection("committees", agendaItems()); err != nil {
			t.Fatalf("Unexpected error replacing collection: %v", err)
		}
		count, _ := db.Count("committees")
		if count != 3 {
			t.Errorf("Expected 3 items, got %d", count)
		}
	})

	t.Run("DeleteAll", func(t *testing.T) {
		if err := db.DeleteAll(); err != nil {
			t.Fatalf("Unexpected error resetting: %v", err)
		}
		infos, err := db.Collections()
		if err != nil {
			t.Fatalf("Failed to list collections: %v", err)
		}
		if len(infos) != 0 {
			t.Errorf("Expected no collections after reset, got %d", len(infos))
		}
	})
}

// TestPersistence tests that items survive reopening a file database
func TestPersistence(t *testing.T) {
	cfg := types.StoreConfig{Driver: types.DriverSQLite, DBPath: filepath.Join(t.TempDir(), "persist.db")}

	db, err := New(cfg)
	if err != nil {
		t.Fatalf("Failed to create database: %v", err)
	}
	if err := db.InsertItems("agenda", agendaItems()); err != nil {
		t.Fatalf("Failed to insert: %v", err)
	}
	db.Close()

	reopened, err := New(cfg)
	if err != nil {
		t.Fatalf("Failed to reopen database: %v", err)
	}
	defer reopened.Close()

	count, err := reopened.Count("agenda")
	if err != nil {
		t.Fatalf("Failed to count: %v", err)
	}
	if count != 3 {
		t.Errorf("Expected 3 persisted items, got %d", count)
	}
}

// TestDeleteAndUpdate tests that deletes and reparenting share one transaction
func TestDeleteAndUpdate(t *testing.T) {
	db := newTestDB(t)
	if err := db.InsertItems("agenda", agendaItems()); err != nil {
		t.Fatalf("Failed to insert items: %v", err)
	}

	// An update that cannot be encoded rolls the delete back too
	broken := types.NewItem(3, map[string]any{"title": "Treasurer", "bad": make(chan int)})
	if _, err := db.DeleteAndUpdate("agenda", []int{2}, []*types.Item{broken}); err == nil {
		t.Fatalf("Expected encoding error")
	}
	if _, err := db.GetItem("agenda", 2); err != nil {
		t.Errorf("Expected item 2 to survive the failed transaction, got %v", err)
	}

	promoted := types.NewItem(3, map[string]any{"title": "Treasurer", "weight": 1})
	deleted, err := db.DeleteAndUpdate("agenda", []int{2, 42}, []*types.Item{promoted})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if deleted != 1 {
		t.Errorf("Expected 1 deleted row, got %d", deleted)
	}
	item, err := db.GetItem("agenda", 3)
	if err != nil {
		t.Fatalf("Failed to get promoted item: %v", err)
	}
	if _, ok := item.Fields["parent_id"]; ok {
		t.Errorf("Expected promoted item without parent, got %v", item.Fields["parent_id"])
	}
}

// TestDeleteCollection tests that only the named collection is removed
func TestDeleteCollection(t *testing.T) {
	db := newTestDB(t)
	if err := db.InsertItems("agenda", agendaItems()); err != nil {
		t.Fatalf("Failed to insert items: %v", err)
	}
	if err := db.InsertItems("minutes", agendaItems()[:1]); err != nil {
		t.Fatalf("Failed to insert items: %v", err)
	}

	deleted, err := db.DeleteCollection("agenda")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if deleted != 3 {
		t.Errorf("Expected 3 deleted rows, got %d", deleted)
	}
	if count, _ := db.Count("agenda"); count != 0 {
		t.Errorf("Expected empty collection, got %d", count)
	}
	if count, _ := db.Count("minutes"); count != 1 {
		t.Errorf("Expected other collection untouched, got %d", count)
	}
}
