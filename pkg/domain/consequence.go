package domain

// MutationOp is a variable mutation operator of the current schema
// generation. The tokens mirror the authoring syntax.
type MutationOp string

const (
	MutSet       MutationOp = "="
	MutAdd       MutationOp = "+="
	MutSubtract  MutationOp = "-="
	MutIncrement MutationOp = "++"
	MutDecrement MutationOp = "--"
)

// Mutation is one {operator, value} pair of the keyed consequence form.
type Mutation struct {
	Op    MutationOp `json:"op" yaml:"op"`
	Value any        `json:"value,omitempty" yaml:"value,omitempty"`
}

// Legacy mutation types of the older graph generation.
const (
	LegacySet       = "set"
	LegacyIncrement = "increment"
	LegacyDecrement = "decrement"
	LegacyAppend    = "append"
)

// LegacyMutation is one entry of the older flat consequence list.
type LegacyMutation struct {
	Type     string `json:"type" yaml:"type"`
	Variable string `json:"variable" yaml:"variable"`
	Value    any    `json:"value,omitempty" yaml:"value,omitempty"`
}

// ConsequenceSet carries the state mutations attached to a node or edge.
// Exactly one of the two forms is normally populated; when both are, the
// keyed assignments run first, then the legacy list in order.
type ConsequenceSet struct {
	Assign map[string]Mutation `json:"assign,omitempty" yaml:"assign,omitempty"`
	Legacy []LegacyMutation    `json:"legacy,omitempty" yaml:"legacy,omitempty"`
}

// Empty reports whether the set carries no mutations.
func (c *ConsequenceSet) Empty() bool {
	return c == nil || (len(c.Assign) == 0 && len(c.Legacy) == 0)
}
