package types

// Config represents the complete configuration for Arbor
type Config struct {
	Store       StoreConfig         `json:"store" yaml:"store"`
	API         APIConfig           `json:"api" yaml:"api"`
	Tree        TreeKeys            `json:"tree" yaml:"tree"`
	Collections map[string]TreeKeys `json:"collections,omitempty" yaml:"collections,omitempty"`
	Seed        SeedConfig          `json:"seed" yaml:"seed"`
	Log         LogConfig           `json:"log" yaml:"log"`
}

// StoreConfig selects the record store backend
type StoreConfig struct {
	Driver string `json:"driver" yaml:"driver"` // "duckdb" or "sqlite"
	DBPath string `json:"db_path" yaml:"db_path"`
}

// APIConfig represents the HTTP API configuration
type APIConfig struct {
	Host string `json:"host" yaml:"host"`
	Port int    `json:"port" yaml:"port"`
}

// TreeKeys names the record fields that carry the hierarchy.
// WeightKey controls sibling order, ParentKey controls grouping.
type TreeKeys struct {
	WeightKey string `json:"weight_key" yaml:"weight_key"`
	ParentKey string `json:"parent_key" yaml:"parent_key"`
}

// SeedConfig drives the random hierarchy generator
type SeedConfig struct {
	MaxDepth    int   `json:"max_depth" yaml:"max_depth"`
	Roots       int   `json:"roots" yaml:"roots"`
	MinChildren int   `json:"min_children" yaml:"min_children"`
	MaxChildren int   `json:"max_children" yaml:"max_children"`
	Seed        int64 `json:"seed" yaml:"seed"`
}

// LogConfig configures the logrus logger
type LogConfig struct {
	Level  string `json:"level" yaml:"level"`
	Format string `json:"format" yaml:"format"` // "text" or "json"
}

// KeysFor returns the tree keys for a collection, falling back to the
// global defaults for any field the collection does not override.
func (c *Config) KeysFor(collection string) TreeKeys {
	keys := c.Tree
	if override, ok := c.Collections[collection]; ok {
		if override.WeightKey != "" {
			keys.WeightKey = override.WeightKey
		}
		if override.ParentKey != "" {
			keys.ParentKey = override.ParentKey
		}
	}
	return keys
}

// APIResponse represents a generic API response
type APIResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// CollectionInfo represents information about a stored collection
type CollectionInfo struct {
	Name      string `json:"name"`
	ItemCount int    `json:"item_count"`
}

// Store driver constants
const (
	DriverDuckDB = "duckdb"
	DriverSQLite = "sqlite"
)

// Default field names
const (
	DefaultWeightKey = "weight"
	DefaultParentKey = "parent_id"
)

// Field names written by annotation passes
const (
	FieldLevel      = "level"
	FieldTreeWeight = "tree_weight"
)
