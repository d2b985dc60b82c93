package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Project-Sylos/Arbor/internal/config"
	"github.com/Project-Sylos/Arbor/internal/logging"
	"github.com/Project-Sylos/Arbor/internal/records"
	"github.com/Project-Sylos/Arbor/internal/types"
)

const agenda = `[
	{"id": 1, "title": "Opening", "weight": 1},
	{"id": 2, "title": "Reports", "weight": 2},
	{"id": 3, "title": "Treasurer", "weight": 1, "parent_id": 2},
	{"id": 4, "title": "Secretary", "weight": 2, "parent_id": 2},
	{"id": 5, "title": "Adjourn", "weight": 3}
]`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func flatIDs(t *testing.T, out string) []int {
	t.Helper()
	var nodes []struct {
		ID int `json:"id"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &nodes))
	ids := make([]int, len(nodes))
	for i, n := range nodes {
		ids[i] = n.ID
	}
	return ids
}

func TestFlatten(t *testing.T) {
	path := writeFile(t, "agenda.json", agenda)

	out, err := run(t, "flatten", path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 5)
	assert.True(t, strings.HasPrefix(lines[0], "• Opening"))
	assert.True(t, strings.HasPrefix(lines[1], "▾ Reports"))
	assert.True(t, strings.HasPrefix(lines[2], "  • Treasurer"))
	assert.Contains(t, lines[2], "#3")
	assert.Contains(t, lines[4], "pos=4")

	out, err = run(t, "flatten", "-o", "json", path)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3, 4, 5}, flatIDs(t, out))
}

func TestFlattenCustomKeys(t *testing.T) {
	path := writeFile(t, "motions.yaml", `
- {id: 10, title: Budget, rank: 2}
- {id: 11, title: Parks, rank: 1, group: 10}
- {id: 12, title: Audit, rank: 1}
`)

	out, err := run(t, "flatten", "-o", "json", "--parent-key", "group", "--weight-key", "rank", path)
	require.NoError(t, err)
	assert.Equal(t, []int{12, 10, 11}, flatIDs(t, out))

	t.Setenv("ARBOR_TREE_PARENT_KEY", "group")
	t.Setenv("ARBOR_TREE_WEIGHT_KEY", "rank")
	out, err = run(t, "flatten", "-o", "json", path)
	require.NoError(t, err)
	assert.Equal(t, []int{12, 10, 11}, flatIDs(t, out))
}

func TestCollectionKeysFromConfig(t *testing.T) {
	path := writeFile(t, "motions.jsonl", `{"id": 1, "title": "B", "rank": 2}
{"id": 2, "title": "A", "rank": 1}
{"id": 3, "title": "C", "rank": 1, "group": 1}
`)
	cfgPath := writeFile(t, "arbor.yaml", `
collections:
  motions:
    weight_key: rank
    parent_key: group
log:
  level: error
`)

	out, err := run(t, "flatten", "-o", "json", "--config", cfgPath, "--collection", "motions", path)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 1, 3}, flatIDs(t, out))
}

func TestTree(t *testing.T) {
	path := writeFile(t, "agenda.json", agenda)

	out, err := run(t, "tree", path)
	require.NoError(t, err)
	assert.Contains(t, out, "├─ Opening")
	assert.Contains(t, out, "│  ├─ Treasurer")
	assert.Contains(t, out, "│  └─ Secretary")
	assert.Contains(t, out, "└─ Adjourn")

	out, err = run(t, "tree", "-o", "json", path)
	require.NoError(t, err)
	var nodes []struct {
		ID       int `json:"id"`
		Children []struct {
			ID int `json:"id"`
		} `json:"children"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &nodes))
	require.Len(t, nodes, 3)
	assert.Len(t, nodes[1].Children, 2)
}

func TestAnnotate(t *testing.T) {
	path := writeFile(t, "agenda.json", agenda)

	out, err := run(t, "annotate", "-o", "json", path)
	require.NoError(t, err)
	var annotations []struct {
		RecordID   int `json:"record_id"`
		Level      int `json:"level"`
		TreeWeight int `json:"tree_weight"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &annotations))
	require.Len(t, annotations, 5)
	assert.Equal(t, 3, annotations[2].RecordID)
	assert.Equal(t, 1, annotations[2].Level)
	assert.Equal(t, 3, annotations[2].TreeWeight)

	out, err = run(t, "annotate", path)
	require.NoError(t, err)
	assert.Contains(t, out, "level=1 tree_weight=3")

	// The file is untouched without --write
	items, err := records.LoadFile(path)
	require.NoError(t, err)
	_, ok := items[0].Fields[types.FieldTreeWeight]
	assert.False(t, ok)
}

func TestAnnotateWrite(t *testing.T) {
	path := writeFile(t, "agenda.yaml", `
- {id: 1, title: Opening, weight: 1}
- {id: 2, title: Reports, weight: 2}
- {id: 3, title: Treasurer, weight: 1, parent_id: 2}
`)

	out, err := run(t, "annotate", "--write", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Annotated 3 records")

	items, err := records.LoadFile(path)
	require.NoError(t, err)
	require.Len(t, items, 3)
	byID := make(map[int]*types.Item)
	for _, item := range items {
		byID[item.ID] = item
	}
	level, _ := types.AsInt(byID[3].Fields[types.FieldLevel])
	weight, _ := types.AsInt(byID[3].Fields[types.FieldTreeWeight])
	first, _ := types.AsInt(byID[1].Fields[types.FieldTreeWeight])
	assert.Equal(t, 1, level)
	assert.Equal(t, 3, weight)
	assert.Equal(t, 1, first)
}

func TestCommandErrors(t *testing.T) {
	cyclic := writeFile(t, "cyclic.json", `[{"id": 1, "parent_id": 2}, {"id": 2, "parent_id": 1}]`)
	valid := writeFile(t, "agenda.json", agenda)

	tests := []struct {
		name        string
		args        []string
		errContains string
	}{
		{"cycle", []string{"flatten", cyclic}, "invalid hierarchy"},
		{"missing file", []string{"tree", filepath.Join(t.TempDir(), "nope.json")}, "nope.json"},
		{"bad output", []string{"flatten", "-o", "xml", valid}, "output must be"},
		{"same keys", []string{"flatten", "--weight-key", "x", "--parent-key", "x", valid}, "must differ"},
		{"missing argument", []string{"flatten"}, "accepts 1 arg"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errContains)
		})
	}
}

func TestSeed(t *testing.T) {
	out, err := run(t, "seed", "--seed", "7", "--roots", "2", "--depth", "2")
	require.NoError(t, err)
	first, err := records.Decode([]byte(out), records.FormatJSON)
	require.NoError(t, err)
	require.NotEmpty(t, first)

	again, err := run(t, "seed", "--seed", "7", "--roots", "2", "--depth", "2")
	require.NoError(t, err)
	assert.Equal(t, out, again)

	path := filepath.Join(t.TempDir(), "demo.yaml")
	out, err = run(t, "seed", "--seed", "7", "--roots", "2", "--depth", "2", "--out", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote")

	saved, err := records.LoadFile(path)
	require.NoError(t, err)
	assert.Len(t, saved, len(first))
}

// syncBuffer is a bytes.Buffer safe for the watcher goroutine
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func newTestApp() *app {
	cfg := config.DefaultConfig()
	return &app{
		v:      viper.New(),
		cfg:    &cfg,
		logger: logging.Discard(),
		output: OutputText,
	}
}

func TestWatcherRefreshSkipsUnchanged(t *testing.T) {
	path := writeFile(t, "agenda.json", agenda)
	var out bytes.Buffer
	w := &fileWatcher{app: newTestApp(), path: path, out: &out, log: logging.Component(nil, "watch")}

	changed, err := w.refresh()
	require.NoError(t, err)
	assert.True(t, changed)

	// Same records, different formatting
	require.NoError(t, os.WriteFile(path, []byte(strings.ReplaceAll(agenda, "\t", "    ")), 0o644))
	changed, err = w.refresh()
	require.NoError(t, err)
	assert.False(t, changed)

	require.NoError(t, os.WriteFile(path, []byte(`[{"id": 1, "title": "Roll call"}]`), 0o644))
	changed, err = w.refresh()
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Contains(t, out.String(), "Roll call")
}

func TestWatcherFollowsFile(t *testing.T) {
	path := writeFile(t, "agenda.json", agenda)
	out := &syncBuffer{}
	w := &fileWatcher{
		app:      newTestApp(),
		path:     path,
		out:      out,
		debounce: 20 * time.Millisecond,
		log:      logging.Component(nil, "watch"),
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.run(ctx) }()

	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), "Opening")
	}, 5*time.Second, 10*time.Millisecond)

	// Keep writing until the watcher is registered and picks the change up
	require.Eventually(t, func() bool {
		_ = os.WriteFile(path, []byte(`[{"id": 7, "title": "New business"}]`), 0o644)
		return strings.Contains(out.String(), "New business")
	}, 5*time.Second, 50*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop")
	}
}
