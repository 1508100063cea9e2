package engine

import "github.com/mootlab/moot/pkg/domain"

// ApplyConsequences returns an updated copy of the variable snapshot.
// The input map is never mutated (copy-on-write), so a failure partway
// through an operation cannot corrupt persisted session state.
//
// Missing targets of arithmetic operators default to numeric 0. Unknown
// operators are skipped, matching the tolerance of the legacy engine.
func ApplyConsequences(set *domain.ConsequenceSet, vars map[string]any) map[string]any {
	out := make(map[string]any, len(vars)+4)
	for k, v := range vars {
		out[k] = v
	}
	if set.Empty() {
		return out
	}

	for name, m := range set.Assign {
		switch m.Op {
		case domain.MutSet:
			out[name] = m.Value
		case domain.MutAdd:
			out[name] = numberOrZero(out[name]) + numberOrZero(m.Value)
		case domain.MutSubtract:
			out[name] = numberOrZero(out[name]) - numberOrZero(m.Value)
		case domain.MutIncrement:
			// Any supplied value is ignored.
			out[name] = numberOrZero(out[name]) + 1
		case domain.MutDecrement:
			out[name] = numberOrZero(out[name]) - 1
		}
	}

	for _, m := range set.Legacy {
		switch m.Type {
		case domain.LegacySet:
			out[m.Variable] = m.Value
		case domain.LegacyIncrement:
			out[m.Variable] = numberOrZero(out[m.Variable]) + legacyDelta(m.Value)
		case domain.LegacyDecrement:
			out[m.Variable] = numberOrZero(out[m.Variable]) - legacyDelta(m.Value)
		case domain.LegacyAppend:
			out[m.Variable] = appendValue(out[m.Variable], m.Value)
		}
	}

	return out
}

func numberOrZero(v any) float64 {
	n, ok := toNumber(v)
	if !ok {
		return 0
	}
	return n
}

// legacyDelta defaults to 1 when the older generation omitted the value.
func legacyDelta(v any) float64 {
	if v == nil {
		return 1
	}
	return numberOrZero(v)
}

// appendValue pushes onto a list-valued variable, creating the list if
// absent. The existing slice is copied, never extended in place.
func appendValue(existing, v any) []any {
	var list []any
	if prev, ok := existing.([]any); ok {
		list = make([]any, len(prev), len(prev)+1)
		copy(list, prev)
	}
	return append(list, v)
}
