package engine

import (
	"fmt"
	"slices"
	"strconv"

	"github.com/mootlab/moot/pkg/domain"
)

// EvaluateExpression evaluates a declarative condition against a
// variable snapshot. A nil expression or an empty clause list is true.
// Pure: no side effects, safe to call redundantly.
func EvaluateExpression(expr *domain.Expression, vars map[string]any) (bool, error) {
	if expr == nil {
		return true, nil
	}

	switch expr.Kind {
	case "", domain.ExpressionLogical:
		// Fall through to clause evaluation.
	case domain.ExpressionScript:
		// Reserved kind. An empty script is vacuously true; anything
		// else fails loudly rather than silently defaulting.
		if expr.Script == "" {
			return true, nil
		}
		return false, domain.ErrUnsupportedExpression
	default:
		return false, fmt.Errorf("%w: kind %q", domain.ErrUnsupportedExpression, expr.Kind)
	}

	if len(expr.Clauses) == 0 {
		return true, nil
	}

	logic := expr.Logic
	if logic == "" {
		logic = domain.LogicAnd
	}

	for _, clause := range expr.Clauses {
		ok, err := evaluateClause(clause, vars)
		if err != nil {
			return false, err
		}
		if logic == domain.LogicOr && ok {
			return true, nil
		}
		if logic != domain.LogicOr && !ok {
			return false, nil
		}
	}
	return logic != domain.LogicOr, nil
}

// EdgeAvailable is the single availability predicate shared by edge
// listing and decision processing, so that what is offered is exactly
// what will be accepted.
func EdgeAvailable(edge *domain.Edge, vars map[string]any, caller domain.Caller) (bool, error) {
	if !edge.Active {
		return false, nil
	}
	// Default options stay selectable for anonymous participants.
	if edge.RequiresRegistered && !caller.Registered && !edge.DefaultOption {
		return false, nil
	}
	if len(edge.AllowedRoles) > 0 && !slices.Contains(edge.AllowedRoles, caller.RoleID) {
		return false, nil
	}
	return EvaluateExpression(edge.Condition, vars)
}

// NodeReachable reports whether a node may be entered given the variable
// snapshot: the node must be active and its condition must pass. Edges
// gate who may answer; this gates where the dialogue may go.
func NodeReachable(node *domain.Node, vars map[string]any) (bool, error) {
	if !node.Active {
		return false, nil
	}
	return EvaluateExpression(node.Condition, vars)
}

func evaluateClause(clause domain.Clause, vars map[string]any) (bool, error) {
	value, present := vars[clause.Variable]

	switch clause.Operator {
	case domain.OpExists:
		return present, nil
	case domain.OpNotExists:
		return !present, nil
	}

	if !present {
		return false, nil
	}

	switch clause.Operator {
	case domain.OpEqual:
		return looseEqual(value, clause.Value), nil
	case domain.OpNotEqual:
		return !looseEqual(value, clause.Value), nil
	case domain.OpGreater, domain.OpLess, domain.OpGreaterOrEqual, domain.OpLessOrEqual:
		left, lok := toNumber(value)
		right, rok := toNumber(clause.Value)
		if !lok || !rok {
			return false, nil
		}
		switch clause.Operator {
		case domain.OpGreater:
			return left > right, nil
		case domain.OpLess:
			return left < right, nil
		case domain.OpGreaterOrEqual:
			return left >= right, nil
		default:
			return left <= right, nil
		}
	case domain.OpIn:
		return inSet(value, clause.Value), nil
	case domain.OpNotIn:
		return !inSet(value, clause.Value), nil
	default:
		return false, fmt.Errorf("condition on %q: unknown operator %q", clause.Variable, clause.Operator)
	}
}

// looseEqual mirrors the legacy coerced comparison: numeric when both
// sides coerce to numbers, stringly otherwise.
func looseEqual(a, b any) bool {
	if na, aok := toNumber(a); aok {
		if nb, bok := toNumber(b); bok {
			return na == nb
		}
	}
	return fmt.Sprint(a) == fmt.Sprint(b)
}

func inSet(value, set any) bool {
	switch s := set.(type) {
	case []any:
		for _, member := range s {
			if looseEqual(value, member) {
				return true
			}
		}
	case []string:
		for _, member := range s {
			if looseEqual(value, member) {
				return true
			}
		}
	case []float64:
		for _, member := range s {
			if looseEqual(value, member) {
				return true
			}
		}
	}
	return false
}

func toNumber(v any) (float64, bool) {
	switch n := v.(type) {
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
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case bool:
		if n {
			return 1, true
		}
		return 0, true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	default:
		return 0, false
	}
}
