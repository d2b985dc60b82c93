// Package records reads and writes record files. JSON arrays, JSON lines and
// YAML sequences are supported, picked by file extension.
package records

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/Project-Sylos/Arbor/internal/types"
)

// Format identifies a record file encoding
type Format string

const (
	FormatJSON  Format = "json"
	FormatJSONL Format = "jsonl"
	FormatYAML  Format = "yaml"
)

const lockTimeout = 3 * time.Second

// FormatFor picks the format from the file extension, defaulting to JSON
func FormatFor(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jsonl", ".ndjson":
		return FormatJSONL
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// LoadFile reads all records from path
func LoadFile(path string) ([]*types.Item, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read records file: %w", err)
	}
	items, err := Decode(data, FormatFor(path))
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return items, nil
}

// Decode parses records in the given format. Ids must be unique.
func Decode(data []byte, format Format) ([]*types.Item, error) {
	var items []*types.Item

	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &items); err != nil {
			return nil, err
		}
	case FormatJSONL:
		dec := json.NewDecoder(bytes.NewReader(data))
		for {
			item := &types.Item{}
			if err := dec.Decode(item); err != nil {
				if errors.Is(err, io.EOF) {
					break
				}
				return nil, fmt.Errorf("record %d: %w", len(items)+1, err)
			}
			items = append(items, item)
		}
	default:
		if len(bytes.TrimSpace(data)) == 0 {
			return nil, nil
		}
		if err := json.Unmarshal(data, &items); err != nil {
			return nil, err
		}
	}

	seen := make(map[int]bool, len(items))
	for _, item := range items {
		if item == nil {
			return nil, fmt.Errorf("null record")
		}
		if seen[item.ID] {
			return nil, fmt.Errorf("duplicate record id %d", item.ID)
		}
		seen[item.ID] = true
	}
	return items, nil
}

// Encode writes records in the given format
func Encode(items []*types.Item, format Format) ([]byte, error) {
	switch format {
	case FormatYAML:
		return yaml.Marshal(items)
	case FormatJSONL:
		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		for _, item := range items {
			if err := enc.Encode(item); err != nil {
				return nil, err
			}
		}
		return buf.Bytes(), nil
	default:
		if items == nil {
			items = []*types.Item{}
		}
		return json.MarshalIndent(items, "", "  ")
	}
}

// SaveFile writes records to path while holding path.lock, replacing the
// file atomically through a temp file
func SaveFile(path string, items []*types.Item) error {
	data, err := Encode(items, FormatFor(path))
	if err != nil {
		return fmt.Errorf("failed to encode records: %w", err)
	}

	fileLock := flock.New(path + ".lock")
	ctx, cancel := context.WithTimeout(context.Background(), lockTimeout)
	defer cancel()

	locked, err := fileLock.TryLockContext(ctx, 100*time.Millisecond)
	if err != nil {
		return fmt.Errorf("failed to acquire lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("could not acquire file lock")
	}
	defer func() { _ = fileLock.Unlock() }()

	tmpFile := path + ".tmp"
	if err := os.WriteFile(tmpFile, data, 0644); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := os.Rename(tmpFile, path); err != nil {
		_ = os.Remove(tmpFile)
		return fmt.Errorf("failed to rename file: %w", err)
	}
	return nil
}
