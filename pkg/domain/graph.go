package domain

// GraphStatus defines the authoring lifecycle of a dialogue graph.
type GraphStatus string

const (
	GraphDraft    GraphStatus = "draft"
	GraphActive   GraphStatus = "active"
	GraphArchived GraphStatus = "archived"
)

// NodeType constants define the control flow behavior of a node.
const (
	// NodeTypeAutomatic tags a beat meant to be advanced by the host
	// (via AdvanceTo) rather than by a participant decision.
	NodeTypeAutomatic = "automatic"
	// NodeTypeDecision halts and waits for a participant to pick a response.
	NodeTypeDecision = "decision"
	// NodeTypeFinal marks a closing beat; entering it finishes the session.
	NodeTypeFinal = "final"
)

// ConfigKeyInitialVariables is the graph config key holding the default
// variable map applied when a session starts.
const ConfigKeyInitialVariables = "initial_variables"

// Graph is a named, versioned dialogue definition: the directed graph of
// nodes and responses one trial traverses. Graphs are immutable per version
// from the engine's point of view; authoring edits happen out of band.
type Graph struct {
	ID      string      `json:"id" yaml:"id"`
	Name    string      `json:"name" yaml:"name"`
	Status  GraphStatus `json:"status" yaml:"status"`
	OwnerID string      `json:"owner_id,omitempty" yaml:"owner_id,omitempty"`
	Public  bool        `json:"public,omitempty" yaml:"public,omitempty"`

	// Config is free-form authoring configuration. The engine reads only
	// ConfigKeyInitialVariables; everything else is passed through.
	Config map[string]any `json:"config,omitempty" yaml:"config,omitempty"`

	// Metadata is opaque to the engine, carried for client consumption.
	Metadata map[string]any `json:"metadata,omitempty" yaml:"metadata,omitempty"`

	Nodes []Node `json:"nodes" yaml:"nodes"`
}

// Position is the 2-D authoring layout of a node. Presentation only.
type Position struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Node is one beat of dialogue, optionally spoken by a bound role.
type Node struct {
	ID       string   `json:"id" yaml:"id"`
	Title    string   `json:"title" yaml:"title"`
	Body     string   `json:"body,omitempty" yaml:"body,omitempty"`
	MenuText string   `json:"menu_text,omitempty" yaml:"menu_text,omitempty"`
	Type     string   `json:"type" yaml:"type"`
	Position Position `json:"position,omitempty" yaml:"position,omitempty"`
	Order    int      `json:"order" yaml:"order"`

	// RoleID is the speaking role; CounterpartRoleID the addressed one.
	RoleID            string `json:"role_id,omitempty" yaml:"role_id,omitempty"`
	CounterpartRoleID string `json:"counterpart_role_id,omitempty" yaml:"counterpart_role_id,omitempty"`

	Initial bool `json:"is_initial,omitempty" yaml:"initial,omitempty"`
	Final   bool `json:"is_final,omitempty" yaml:"final,omitempty"`
	Active  bool `json:"active" yaml:"active"`

	// Condition gates reachability of the node itself.
	Condition *Expression `json:"condition,omitempty" yaml:"condition,omitempty"`

	// Consequences are applied once, on entry into the node.
	Consequences *ConsequenceSet `json:"consequences,omitempty" yaml:"consequences,omitempty"`

	Metadata map[string]any `json:"metadata,omitempty" yaml:"metadata,omitempty"`

	// Edges are the ordered outgoing responses.
	Edges []Edge `json:"edges" yaml:"edges"`
}

// Edge is a directed, conditionally available response leading out of a
// node. An empty TargetID marks a terminal edge: taking it ends the
// dialogue. Edges are immutable once a session has traversed them.
type Edge struct {
	ID       string `json:"id" yaml:"id"`
	SourceID string `json:"source_id" yaml:"source_id,omitempty"`
	TargetID string `json:"target_id,omitempty" yaml:"to,omitempty"`

	Text  string `json:"text" yaml:"text"`
	Order int    `json:"order" yaml:"order"`
	Score int    `json:"score" yaml:"score"`

	Condition    *Expression     `json:"condition,omitempty" yaml:"condition,omitempty"`
	Consequences *ConsequenceSet `json:"consequences,omitempty" yaml:"consequences,omitempty"`

	// RequiresRegistered restricts the edge to registered participants.
	RequiresRegistered bool `json:"requires_registered,omitempty" yaml:"requires_registered,omitempty"`

	// DefaultOption makes the edge selectable by unregistered participants
	// regardless of RequiresRegistered.
	DefaultOption bool `json:"default_option,omitempty" yaml:"default_option,omitempty"`

	// AllowedRoles, when non-empty, restricts selection to these role IDs.
	AllowedRoles []string `json:"allowed_roles,omitempty" yaml:"allowed_roles,omitempty"`

	Active bool `json:"active" yaml:"active"`

	Metadata map[string]any `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// Terminal reports whether taking the edge ends the dialogue.
func (e *Edge) Terminal() bool {
	return e.TargetID == ""
}

// InitialVariables returns the configured variable defaults, or nil.
func (g *Graph) InitialVariables() map[string]any {
	raw, ok := g.Config[ConfigKeyInitialVariables]
	if !ok {
		return nil
	}
	vars, ok := raw.(map[string]any)
	if !ok {
		return nil
	}
	return vars
}

// InitialNode returns the node flagged as the entry point. It returns
// false if no active initial node exists; graphs with more than one are
// caught by the validator, here the first wins.
func (g *Graph) InitialNode() (*Node, bool) {
	for i := range g.Nodes {
		if g.Nodes[i].Initial && g.Nodes[i].Active {
			return &g.Nodes[i], true
		}
	}
	return nil, false
}

// NodeByID looks up a node in the graph.
func (g *Graph) NodeByID(id string) (*Node, bool) {
	for i := range g.Nodes {
		if g.Nodes[i].ID == id {
			return &g.Nodes[i], true
		}
	}
	return nil, false
}

// EdgeByID looks up an edge anywhere in the graph.
func (g *Graph) EdgeByID(id string) (*Edge, bool) {
	for i := range g.Nodes {
		for j := range g.Nodes[i].Edges {
			if g.Nodes[i].Edges[j].ID == id {
				return &g.Nodes[i].Edges[j], true
			}
		}
	}
	return nil, false
}
