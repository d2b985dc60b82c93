package tree

import (
	"cmp"
	"fmt"
	"math"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/Project-Sylos/Arbor/internal/types"
)

// comparer orders arbitrary field values. Values are ranked by kind first:
// missing, numbers, strings, booleans, times, then anything else. Numbers
// compare numerically across int and float kinds, strings use the collator
// when one is set. A collator is not safe for concurrent use, so each
// sorting call builds its own comparer.
type comparer struct {
	coll *collate.Collator
}

func newComparer() *comparer {
	return &comparer{}
}

func newCollatingComparer() *comparer {
	return &comparer{coll: collate.New(language.Und)}
}

const (
	kindNil = iota
	kindNumber
	kindString
	kindBool
	kindTime
	kindOther
)

func kindOf(v any) int {
	if v == nil {
		return kindNil
	}
	if _, ok := asFloat(v); ok {
		return kindNumber
	}
	switch v.(type) {
	case string:
		return kindString
	case bool:
		return kindBool
	case time.Time:
		return kindTime
	}
	return kindOther
}

func (c *comparer) compare(a, b any) int {
	ka, kb := kindOf(a), kindOf(b)
	if ka != kb {
		return cmp.Compare(ka, kb)
	}

	switch ka {
	case kindNil:
		return 0
	case kindNumber:
		if ia, ok := types.AsInt(a); ok {
			if ib, ok := types.AsInt(b); ok {
				return cmp.Compare(ia, ib)
			}
		}
		fa, _ := asFloat(a)
		fb, _ := asFloat(b)
		return cmp.Compare(fa, fb)
	case kindString:
		va, vb := a.(string), b.(string)
		if c.coll != nil {
			return c.coll.CompareString(va, vb)
		}
		return cmp.Compare(va, vb)
	case kindBool:
		va, vb := a.(bool), b.(bool)
		switch {
		case va == vb:
			return 0
		case !va:
			return -1
		default:
			return 1
		}
	case kindTime:
		return a.(time.Time).Compare(b.(time.Time))
	}
	return cmp.Compare(fmt.Sprint(a), fmt.Sprint(b))
}

// asFloat reports the numeric value of v for the numeric kinds only
func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		if math.IsNaN(n) {
			return 0, false
		}
		return n, true
	case float32:
		if math.IsNaN(float64(n)) {
			return 0, false
		}
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	}
	return 0, false
}

// parentOf returns the parent id named by key, 0 meaning root. Falsy values
// (missing, nil, false, 0, "") are roots.
func parentOf(r Record, key string) int {
	v, ok := r.Get(key)
	if !ok || v == nil {
		return 0
	}
	if id, ok := types.AsInt(v); ok {
		return id
	}
	return 0
}
