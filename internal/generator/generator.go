package generator

import (
	"fmt"
	"math/rand"

	"github.com/Project-Sylos/Arbor/internal/types"
)

// MaxItems caps a single generated batch
const MaxItems = 100000

// RNG wraps math/rand.Rand for seeded random generation
type RNG struct {
	*rand.Rand
}

// NewRNG creates a new seeded random number generator
func NewRNG(seed int64) *RNG {
	return &RNG{
		Rand: rand.New(rand.NewSource(seed)),
	}
}

var topics = []string{
	"Call to order",
	"Roll call",
	"Approval of minutes",
	"Treasurer's report",
	"Committee reports",
	"Old business",
	"New business",
	"Announcements",
	"Public comment",
	"Budget review",
	"Election of officers",
	"Adjournment",
}

type pending struct {
	id    int
	depth int
}

// Generate builds a random forest of agenda-like items from cfg. Ids are
// sequential from firstID, roots sit at depth 1 and a node only gets
// children while its depth is below MaxDepth. The same seed always yields
// the same items.
func Generate(cfg types.SeedConfig, keys types.TreeKeys, firstID int) ([]*types.Item, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	if firstID < 1 {
		firstID = 1
	}
	if keys.WeightKey == "" {
		keys.WeightKey = types.DefaultWeightKey
	}
	if keys.ParentKey == "" {
		keys.ParentKey = types.DefaultParentKey
	}

	rng := NewRNG(cfg.Seed)
	nextID := firstID
	var items []*types.Item
	var queue []pending

	add := func(parentID, index int) (int, error) {
		if len(items) >= MaxItems {
			return 0, fmt.Errorf("seed settings produce more than %d items", MaxItems)
		}
		id := nextID
		nextID++

		fields := map[string]any{
			"title":        fmt.Sprintf("%s %d", topics[rng.Intn(len(topics))], index),
			keys.WeightKey: rng.Intn(10),
			"duration":     5 * (1 + rng.Intn(6)),
		}
		if parentID != 0 {
			fields[keys.ParentKey] = parentID
		}
		items = append(items, types.NewItem(id, fields))
		return id, nil
	}

	for i := 0; i < cfg.Roots; i++ {
		id, err := add(0, i+1)
		if err != nil {
			return nil, err
		}
		queue = append(queue, pending{id: id, depth: 1})
	}

	for len(queue) > 0 {
		parent := queue[0]
		queue = queue[1:]
		if parent.depth >= cfg.MaxDepth {
			continue
		}

		count := rng.Intn(cfg.MaxChildren-cfg.MinChildren+1) + cfg.MinChildren
		for i := 0; i < count; i++ {
			id, err := add(parent.id, i+1)
			if err != nil {
				return nil, fmt.Errorf("failed to generate child %d of %d: %w", i+1, parent.id, err)
			}
			queue = append(queue, pending{id: id, depth: parent.depth + 1})
		}
	}

	return items, nil
}

// ValidateConfig validates the generator configuration
func ValidateConfig(cfg types.SeedConfig) error {
	if cfg.MaxDepth < 1 {
		return fmt.Errorf("max_depth must be at least 1")
	}
	if cfg.Roots < 0 {
		return fmt.Errorf("roots must be non-negative, got %d", cfg.Roots)
	}
	if cfg.MinChildren < 0 || cfg.MaxChildren < cfg.MinChildren {
		return fmt.Errorf("invalid child count range: min=%d, max=%d", cfg.MinChildren, cfg.MaxChildren)
	}
	return nil
}
