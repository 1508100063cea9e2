// Package graphfile loads dialogue graph definitions from YAML files.
//
// Two schema generations exist in the wild. The current one spells
// operators "==", "+=" and fields in English; the legacy one used "="
// and localized field names ("operador", "valor") and a flat
// consequence list. Both decode into the single tagged model in
// pkg/domain; the engine never sees the difference.
package graphfile

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/mootlab/moot/pkg/domain"
)

type document struct {
	Schema int            `yaml:"schema"`
	ID     string         `yaml:"id"`
	Name   string         `yaml:"name"`
	Status string         `yaml:"status"`
	Owner  string         `yaml:"owner"`
	Public bool           `yaml:"public"`
	Config map[string]any `yaml:"config"`
	Meta   map[string]any `yaml:"metadata"`
	Nodes  []nodeDoc      `yaml:"nodes"`
}

type nodeDoc struct {
	ID           string         `yaml:"id"`
	Title        string         `yaml:"title"`
	Body         string         `yaml:"body"`
	MenuText     string         `yaml:"menu_text"`
	Type         string         `yaml:"type"`
	Order        int            `yaml:"order"`
	Role         string         `yaml:"role"`
	Counterpart  string         `yaml:"counterpart"`
	Initial      bool           `yaml:"initial"`
	Final        bool           `yaml:"final"`
	Active       *bool          `yaml:"active"`
	Position     map[string]any `yaml:"position"`
	Condition    map[string]any `yaml:"condition"`
	Consequences any            `yaml:"consequences"`
	Meta         map[string]any `yaml:"metadata"`
	Edges        []edgeDoc      `yaml:"edges"`
}

type edgeDoc struct {
	ID                 string         `yaml:"id"`
	Text               string         `yaml:"text"`
	To                 string         `yaml:"to"`
	Order              int            `yaml:"order"`
	Score              int            `yaml:"score"`
	Condition          map[string]any `yaml:"condition"`
	Consequences       any            `yaml:"consequences"`
	RequiresRegistered bool           `yaml:"requires_registered"`
	Default            bool           `yaml:"default"`
	Roles              []string       `yaml:"roles"`
	Active             *bool          `yaml:"active"`
	Meta               map[string]any `yaml:"metadata"`
}

// Load reads and parses a graph definition file.
func Load(path string) (*domain.Graph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read graph file: %w", err)
	}
	return Parse(data)
}

// Parse decodes a graph definition from YAML, adapting whichever schema
// generation the document declares.
func Parse(data []byte) (*domain.Graph, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse graph yaml: %w", err)
	}
	if doc.ID == "" {
		return nil, fmt.Errorf("graph document missing id")
	}

	status := domain.GraphStatus(doc.Status)
	if status == "" {
		status = domain.GraphDraft
	}

	g := &domain.Graph{
		ID:       doc.ID,
		Name:     doc.Name,
		Status:   status,
		OwnerID:  doc.Owner,
		Public:   doc.Public,
		Config:   doc.Config,
		Metadata: doc.Meta,
	}

	for _, nd := range doc.Nodes {
		node := domain.Node{
			ID:                nd.ID,
			Title:             nd.Title,
			Body:              nd.Body,
			MenuText:          nd.MenuText,
			Type:              nd.Type,
			Order:             nd.Order,
			RoleID:            nd.Role,
			CounterpartRoleID: nd.Counterpart,
			Initial:           nd.Initial,
			Final:             nd.Final,
			Active:            activeDefault(nd.Active),
			Metadata:          nd.Meta,
		}
		if nd.Type == "" {
			node.Type = domain.NodeTypeDecision
		}
		if x, ok := toFloat(nd.Position["x"]); ok {
			node.Position.X = x
		}
		if y, ok := toFloat(nd.Position["y"]); ok {
			node.Position.Y = y
		}

		expr, err := decodeCondition(nd.Condition)
		if err != nil {
			return nil, fmt.Errorf("node %q: %w", nd.ID, err)
		}
		node.Condition = expr

		cons, err := decodeConsequences(nd.Consequences)
		if err != nil {
			return nil, fmt.Errorf("node %q: %w", nd.ID, err)
		}
		node.Consequences = cons

		for _, ed := range nd.Edges {
			edge := domain.Edge{
				ID:                 ed.ID,
				SourceID:           nd.ID,
				TargetID:           ed.To,
				Text:               ed.Text,
				Order:              ed.Order,
				Score:              ed.Score,
				RequiresRegistered: ed.RequiresRegistered,
				DefaultOption:      ed.Default,
				AllowedRoles:       ed.Roles,
				Active:             activeDefault(ed.Active),
				Metadata:           ed.Meta,
			}
			expr, err := decodeCondition(ed.Condition)
			if err != nil {
				return nil, fmt.Errorf("edge %q: %w", ed.ID, err)
			}
			edge.Condition = expr

			cons, err := decodeConsequences(ed.Consequences)
			if err != nil {
				return nil, fmt.Errorf("edge %q: %w", ed.ID, err)
			}
			edge.Consequences = cons

			node.Edges = append(node.Edges, edge)
		}

		g.Nodes = append(g.Nodes, node)
	}

	return g, nil
}

func activeDefault(v *bool) bool {
	return v == nil || *v
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}
