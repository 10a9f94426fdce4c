package domain

// State is the shared mutable mapping a run's tools read and write.
// It is owned exclusively by the run it belongs to; it is never shared
// across runs. Values are loosely typed scalars and collections, the
// shape JSON decoding produces (string, bool, float64, []any,
// map[string]any).
type State map[string]any

// Clone returns a deep copy of the state. Nested maps and slices are
// copied recursively so that log snapshots cannot be corrupted by later
// tool mutations.
func (s State) Clone() State {
	if s == nil {
		return State{}
	}
	out := make(State, len(s))
	for k, v := range s {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(val))
		for k, inner := range val {
			m[k] = cloneValue(inner)
		}
		return m
	case State:
		return map[string]any(val.Clone())
	case []any:
		l := make([]any, len(val))
		for i, inner := range val {
			l[i] = cloneValue(inner)
		}
		return l
	default:
		// Scalars (and anything else) are copied by value. Pointer-typed
		// tool payloads are the tool author's responsibility.
		return v
	}
}
