package domain

// ExpressionKind tags the variant of a condition expression.
type ExpressionKind string

const (
	// ExpressionLogical is the declarative AND/OR clause list.
	ExpressionLogical ExpressionKind = "logical"
	// ExpressionScript is a reserved scripted condition. The embedded
	// language was never implemented; a non-empty script fails loudly.
	ExpressionScript ExpressionKind = "script"
)

// Logic combines the clauses of a logical expression.
type Logic string

const (
	LogicAnd Logic = "AND"
	LogicOr  Logic = "OR"
)

// Operator is the comparison applied by a single clause.
type Operator string

const (
	OpEqual          Operator = "eq"
	OpNotEqual       Operator = "neq"
	OpGreater        Operator = "gt"
	OpLess           Operator = "lt"
	OpGreaterOrEqual Operator = "gte"
	OpLessOrEqual    Operator = "lte"
	OpIn             Operator = "in"
	OpNotIn          Operator = "nin"
	OpExists         Operator = "exists"
	OpNotExists      Operator = "not_exists"
)

// Expression is a declarative condition over the session variable map.
// A nil expression, or a logical expression with no clauses, is always
// true (no restriction).
type Expression struct {
	Kind    ExpressionKind `json:"kind,omitempty" yaml:"kind,omitempty"`
	Logic   Logic          `json:"logic,omitempty" yaml:"logic,omitempty"`
	Clauses []Clause       `json:"clauses,omitempty" yaml:"clauses,omitempty"`
	Script  string         `json:"script,omitempty" yaml:"script,omitempty"`
}

// Clause names a variable, an operator and a comparison value.
type Clause struct {
	Variable string   `json:"variable" yaml:"variable"`
	Operator Operator `json:"operator" yaml:"operator"`
	Value    any      `json:"value,omitempty" yaml:"value,omitempty"`
}

// Caller is the identity an edge or node condition is evaluated against.
type Caller struct {
	Registered bool
	RoleID     string
}
