package types

import (
	"fmt"
	"math"
	"strconv"

	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// Record is anything the tree engine can arrange: it has a unique numeric id,
// a display title and named fields that can be read and written.
// The engine only touches the fields it is told about (parent, weight) and,
// for the mutating passes, level and tree_weight.
type Record interface {
	GetID() int
	Title() string
	Get(key string) (any, bool)
	Set(key string, value any)
}

// Item is a map-backed Record used for records loaded from files, the store
// and HTTP requests. Every field other than the id lives in Fields.
type Item struct {
	ID     int
	Fields map[string]any
}

// NewItem creates an item with the given id and fields
func NewItem(id int, fields map[string]any) *Item {
	if fields == nil {
		fields = make(map[string]any)
	}
	return &Item{ID: id, Fields: fields}
}

// GetID implements Record
func (i *Item) GetID() int {
	return i.ID
}

// Title implements Record. Items without a title are shown by id.
func (i *Item) Title() string {
	if v, ok := i.Fields["title"]; ok && v != nil {
		if s, ok := v.(string); ok {
			return s
		}
		return fmt.Sprint(v)
	}
	return "#" + strconv.Itoa(i.ID)
}

// Get implements Record
func (i *Item) Get(key string) (any, bool) {
	if key == "id" {
		return i.ID, true
	}
	v, ok := i.Fields[key]
	return v, ok
}

// Set implements Record. Setting "id" only succeeds for integral values.
func (i *Item) Set(key string, value any) {
	if key == "id" {
		if id, ok := AsInt(value); ok {
			i.ID = id
		}
		return
	}
	if i.Fields == nil {
		i.Fields = make(map[string]any)
	}
	i.Fields[key] = value
}

// Clone returns a copy of the item with its own field map
func (i *Item) Clone() *Item {
	fields := make(map[string]any, len(i.Fields))
	for k, v := range i.Fields {
		fields[k] = v
	}
	return &Item{ID: i.ID, Fields: fields}
}

// toMap flattens the item into a single map with the id inlined
func (i *Item) toMap() map[string]any {
	m := make(map[string]any, len(i.Fields)+1)
	for k, v := range i.Fields {
		m[k] = v
	}
	m["id"] = i.ID
	return m
}

// fromMap is the inverse of toMap
func (i *Item) fromMap(m map[string]any) error {
	raw, ok := m["id"]
	if !ok {
		return fmt.Errorf("record is missing required field 'id'")
	}
	id, ok := AsInt(raw)
	if !ok {
		return fmt.Errorf("record id %v is not an integer", raw)
	}
	delete(m, "id")
	i.ID = id
	i.Fields = m
	return nil
}

// MarshalJSON writes the item as a flat object
func (i *Item) MarshalJSON() ([]byte, error) {
	return json.Marshal(i.toMap())
}

// UnmarshalJSON reads a flat object with a numeric "id"
func (i *Item) UnmarshalJSON(data []byte) error {
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	return i.fromMap(m)
}

// MarshalYAML writes the item as a flat mapping
func (i *Item) MarshalYAML() (any, error) {
	return i.toMap(), nil
}

// UnmarshalYAML reads a flat mapping with a numeric "id"
func (i *Item) UnmarshalYAML(value *yaml.Node) error {
	var m map[string]any
	if err := value.Decode(&m); err != nil {
		return err
	}
	return i.fromMap(m)
}

// AsInt converts the numeric kinds produced by JSON, YAML and SQL decoding
// to an int. Non-integral floats and non-numeric values report false.
func AsInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int8:
		return int(n), true
	case int16:
		return int(n), true
	case int32:
		return int(n), true
	case int64:
		if n < math.MinInt || n > math.MaxInt {
			return 0, false
		}
		return int(n), true
	case uint:
		if n > math.MaxInt {
			return 0, false
		}
		return int(n), true
	case uint8:
		return int(n), true
	case uint16:
		return int(n), true
	case uint32:
		return int(n), true
	case uint64:
		if n > math.MaxInt {
			return 0, false
		}
		return int(n), true
	case float32:
		return floatToInt(float64(n))
	case float64:
		return floatToInt(n)
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return int(i), true
		}
	case string:
		if i, err := strconv.Atoi(n); err == nil {
			return i, true
		}
	}
	return 0, false
}

// floatToInt accepts integral floats inside the int range. 2^63 itself is
// representable as a float64 but not as an int64.
func floatToInt(f float64) (int, bool) {
	if math.Trunc(f) != f || f < math.MinInt || f >= -math.MinInt {
		return 0, false
	}
	return int(f), true
}

// Items converts a slice of items to a slice of Records
func Items(items []*Item) []Record {
	out := make([]Record, len(items))
	for i, item := range items {
		out[i] = item
	}
	return out
}
