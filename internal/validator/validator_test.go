package validator

import (
	"errors"
	"strings"
	"testing"

	"github.com/mootlab/moot/pkg/domain"
)

func validGraph() *domain.Graph {
	return &domain.Graph{
		ID: "g1",
		Nodes: []domain.Node{
			{
				ID:      "opening",
				Initial: true,
				Active:  true,
				Edges: []domain.Edge{
					{ID: "e1", SourceID: "opening", TargetID: "verdict", Active: true},
				},
			},
			{ID: "verdict", Final: true, Active: true},
		},
	}
}

func TestValidateGraph_Clean(t *testing.T) {
	if err := ValidateGraph(validGraph()); err != nil {
		t.Fatalf("valid graph reported issues: %v", err)
	}
}

func TestValidateGraph_Issues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*domain.Graph)
		reason string
	}{
		{
			name:   "no initial node",
			mutate: func(g *domain.Graph) { g.Nodes[0].Initial = false },
			reason: "no node is flagged initial",
		},
		{
			name:   "two initial nodes",
			mutate: func(g *domain.Graph) { g.Nodes[1].Initial = true },
			reason: "flagged initial",
		},
		{
			name: "no final node",
			mutate: func(g *domain.Graph) {
				g.Nodes[1].Final = false
				// Keep verdict reachable so only the final rule fires.
			},
			reason: "no node is flagged final",
		},
		{
			name: "duplicate node id",
			mutate: func(g *domain.Graph) {
				g.Nodes = append(g.Nodes, domain.Node{ID: "verdict", Final: true})
			},
			reason: "duplicate node id",
		},
		{
			name: "duplicate edge id",
			mutate: func(g *domain.Graph) {
				g.Nodes[0].Edges = append(g.Nodes[0].Edges,
					domain.Edge{ID: "e1", SourceID: "opening", TargetID: "verdict"})
			},
			reason: "duplicate edge id",
		},
		{
			name: "edge source mismatch",
			mutate: func(g *domain.Graph) {
				g.Nodes[0].Edges[0].SourceID = "verdict"
			},
			reason: "does not match owning node",
		},
		{
			name: "dangling target",
			mutate: func(g *domain.Graph) {
				g.Nodes[0].Edges[0].TargetID = "appeal"
			},
			reason: "targets missing node",
		},
		{
			name: "unreachable node",
			mutate: func(g *domain.Graph) {
				g.Nodes = append(g.Nodes, domain.Node{ID: "limbo"})
			},
			reason: "unreachable",
		},
		{
			name: "two default options on one node",
			mutate: func(g *domain.Graph) {
				g.Nodes[0].Edges = append(g.Nodes[0].Edges,
					domain.Edge{ID: "e2", SourceID: "opening", TargetID: "verdict", DefaultOption: true},
					domain.Edge{ID: "e3", SourceID: "opening", TargetID: "verdict", DefaultOption: true},
				)
			},
			reason: "default-option edges",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := validGraph()
			tt.mutate(g)

			err := ValidateGraph(g)
			if err == nil {
				t.Fatal("expected validation issues")
			}
			if !strings.Contains(err.Error(), tt.reason) {
				t.Errorf("report %q does not mention %q", err.Error(), tt.reason)
			}
		})
	}
}

func TestValidateGraph_AggregatesIssues(t *testing.T) {
	g := validGraph()
	g.Nodes[0].Initial = false
	g.Nodes[1].Final = false

	err := ValidateGraph(g)
	var report *Report
	if !errors.As(err, &report) {
		t.Fatalf("expected *Report, got %T", err)
	}
	if len(report.Issues) < 2 {
		t.Errorf("expected both issues in one report, got %d", len(report.Issues))
	}
}
