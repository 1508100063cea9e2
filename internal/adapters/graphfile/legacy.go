package graphfile

import (
	"fmt"

	"github.com/mitchellh/mapstructure"

	"github.com/mootlab/moot/pkg/domain"
)

// clauseDoc accepts both generations of the atomic condition shape.
// Legacy documents spell the fields "operador"/"valor".
type clauseDoc struct {
	Variable string `mapstructure:"variable"`
	Operator string `mapstructure:"operator"`
	Operador string `mapstructure:"operador"`
	Value    any    `mapstructure:"value"`
	Valor    any    `mapstructure:"valor"`
}

type conditionDoc struct {
	Kind    string `mapstructure:"kind"`
	Logic   string `mapstructure:"logic"`
	Script  string `mapstructure:"script"`
	Clauses []map[string]any `mapstructure:"clauses"`
	// Legacy clause list field name.
	Condiciones []map[string]any `mapstructure:"condiciones"`
}

// operatorTokens unifies the two generations' operator spellings.
var operatorTokens = map[string]domain.Operator{
	"=":          domain.OpEqual, // legacy
	"==":         domain.OpEqual,
	"eq":         domain.OpEqual,
	"!=":         domain.OpNotEqual,
	"<>":         domain.OpNotEqual, // legacy
	"neq":        domain.OpNotEqual,
	">":          domain.OpGreater,
	"gt":         domain.OpGreater,
	"<":          domain.OpLess,
	"lt":         domain.OpLess,
	">=":         domain.OpGreaterOrEqual,
	"gte":        domain.OpGreaterOrEqual,
	"<=":         domain.OpLessOrEqual,
	"lte":        domain.OpLessOrEqual,
	"in":         domain.OpIn,
	"not_in":     domain.OpNotIn,
	"nin":        domain.OpNotIn,
	"exists":     domain.OpExists,
	"not_exists": domain.OpNotExists,
}

func decodeCondition(raw map[string]any) (*domain.Expression, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	var doc conditionDoc
	if err := mapstructure.Decode(raw, &doc); err != nil {
		return nil, fmt.Errorf("malformed condition: %w", err)
	}

	expr := &domain.Expression{
		Kind:   domain.ExpressionKind(doc.Kind),
		Logic:  domain.Logic(doc.Logic),
		Script: doc.Script,
	}
	if expr.Kind == domain.ExpressionScript {
		return expr, nil
	}

	clauses := doc.Clauses
	if len(clauses) == 0 {
		clauses = doc.Condiciones
	}
	for _, rawClause := range clauses {
		var cd clauseDoc
		if err := mapstructure.Decode(rawClause, &cd); err != nil {
			return nil, fmt.Errorf("malformed condition clause: %w", err)
		}

		token := cd.Operator
		if token == "" {
			token = cd.Operador
		}
		op, ok := operatorTokens[token]
		if !ok {
			return nil, fmt.Errorf("unknown condition operator %q", token)
		}

		value := cd.Value
		if value == nil {
			value = cd.Valor
		}

		expr.Clauses = append(expr.Clauses, domain.Clause{
			Variable: cd.Variable,
			Operator: op,
			Value:    value,
		})
	}

	return expr, nil
}

// legacyMutationDoc is one entry of the older flat consequence list.
type legacyMutationDoc struct {
	Type     string `mapstructure:"type"`
	Tipo     string `mapstructure:"tipo"`
	Variable string `mapstructure:"variable"`
	Value    any    `mapstructure:"value"`
	Valor    any    `mapstructure:"valor"`
}

var legacyTypes = map[string]string{
	"set":       domain.LegacySet,
	"increment": domain.LegacyIncrement,
	"decrement": domain.LegacyDecrement,
	"append":    domain.LegacyAppend,
}

var mutationOps = map[string]domain.MutationOp{
	"=":  domain.MutSet,
	"+=": domain.MutAdd,
	"-=": domain.MutSubtract,
	"++": domain.MutIncrement,
	"--": domain.MutDecrement,
}

// decodeConsequences accepts either generation: the keyed map
// {variable: {op, value}} of the current one, or the flat
// [{type, variable, value}] list of the legacy one.
func decodeConsequences(raw any) (*domain.ConsequenceSet, error) {
	switch v := raw.(type) {
	case nil:
		return nil, nil

	case map[string]any:
		set := &domain.ConsequenceSet{Assign: make(map[string]domain.Mutation, len(v))}
		for name, rawMut := range v {
			mut, ok := rawMut.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("consequence %q: expected {op, value} map, got %T", name, rawMut)
			}
			token, _ := mut["op"].(string)
			op, ok := mutationOps[token]
			if !ok {
				return nil, fmt.Errorf("consequence %q: unknown operator %q", name, token)
			}
			set.Assign[name] = domain.Mutation{Op: op, Value: mut["value"]}
		}
		return set, nil

	case []any:
		set := &domain.ConsequenceSet{}
		for _, rawMut := range v {
			var md legacyMutationDoc
			if err := mapstructure.Decode(rawMut, &md); err != nil {
				return nil, fmt.Errorf("malformed legacy consequence: %w", err)
			}
			token := md.Type
			if token == "" {
				token = md.Tipo
			}
			typ, ok := legacyTypes[token]
			if !ok {
				return nil, fmt.Errorf("legacy consequence on %q: unknown type %q", md.Variable, token)
			}
			value := md.Value
			if value == nil {
				value = md.Valor
			}
			set.Legacy = append(set.Legacy, domain.LegacyMutation{
				Type:     typ,
				Variable: md.Variable,
				Value:    value,
			})
		}
		return set, nil

	default:
		return nil, fmt.Errorf("consequences: unsupported shape %T", raw)
	}
}
