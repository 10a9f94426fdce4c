package runtime

import (
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/aretw0/rill/pkg/domain"
)

// evalCondition evaluates an edge predicate against the current state.
// A nil condition is the always-true default. A missing state key
// evaluates as a nil operand, which matches eq/ne like any other value
// and fails ordering comparisons.
func evalCondition(c *domain.Condition, state domain.State) (bool, error) {
	if c == nil {
		return true, nil
	}

	have := state[c.Key]
	want := c.Value

	op := c.Op
	if op == "" {
		op = domain.OpEq
	}

	switch op {
	case domain.OpEq:
		return looseEqual(have, want), nil
	case domain.OpNe:
		return !looseEqual(have, want), nil
	case domain.OpLt, domain.OpGt, domain.OpLte, domain.OpGte:
		cmp, err := compareOrdered(have, want)
		if err != nil {
			return false, fmt.Errorf("condition on %q: %w", c.Key, err)
		}
		switch op {
		case domain.OpLt:
			return cmp < 0, nil
		case domain.OpGt:
			return cmp > 0, nil
		case domain.OpLte:
			return cmp <= 0, nil
		default:
			return cmp >= 0, nil
		}
	default:
		return false, fmt.Errorf("condition on %q: unknown operator %q", c.Key, op)
	}
}

// looseEqual compares two values, normalizing numerics first so that an
// int written by a tool matches a float64 decoded from JSON.
func looseEqual(a, b any) bool {
	fa, aNum := asFloat(a)
	fb, bNum := asFloat(b)
	if aNum && bNum {
		return fa == fb
	}
	return reflect.DeepEqual(a, b)
}

// compareOrdered returns -1, 0 or 1. Both operands must be numbers, or
// both strings; anything else cannot be ordered.
func compareOrdered(a, b any) (int, error) {
	fa, aNum := asFloat(a)
	fb, bNum := asFloat(b)
	if aNum && bNum {
		switch {
		case fa < fb:
			return -1, nil
		case fa > fb:
			return 1, nil
		default:
			return 0, nil
		}
	}

	sa, aStr := a.(string)
	sb, bStr := b.(string)
	if aStr && bStr {
		switch {
		case sa < sb:
			return -1, nil
		case sa > sb:
			return 1, nil
		default:
			return 0, nil
		}
	}

	return 0, fmt.Errorf("cannot order %T against %T", a, b)
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
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
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}
