// Package validator checks dialogue graphs at authoring time. Violations
// are reported, never silently corrected; the engine assumes graphs it
// runs have passed validation but does not depend on it.
package validator

import (
	"fmt"

	"github.com/mootlab/moot/pkg/domain"
)

// Issue is a single authoring rule violation.
type Issue struct {
	NodeID string
	EdgeID string
	Reason string
}

func (i Issue) String() string {
	switch {
	case i.EdgeID != "":
		return fmt.Sprintf("edge %q: %s", i.EdgeID, i.Reason)
	case i.NodeID != "":
		return fmt.Sprintf("node %q: %s", i.NodeID, i.Reason)
	default:
		return i.Reason
	}
}

// Report aggregates every violation found in one pass so authors fix
// them together instead of one per run.
type Report struct {
	GraphID string
	Issues  []Issue
}

func (r *Report) Error() string {
	msg := fmt.Sprintf("graph %q: %d validation issues:\n", r.GraphID, len(r.Issues))
	for n, issue := range r.Issues {
		msg += fmt.Sprintf("  %d. %s\n", n+1, issue)
	}
	return msg
}

// ValidateGraph checks the structural invariants of a dialogue graph:
// exactly one initial node, at least one final node, no orphan
// (non-initial, no incoming edge) nodes, resolvable edge targets, and
// at most one default-option edge per node. Returns nil when clean,
// otherwise a *Report carrying every issue.
func ValidateGraph(g *domain.Graph) error {
	var issues []Issue

	nodeIDs := make(map[string]bool, len(g.Nodes))
	incoming := make(map[string]int, len(g.Nodes))
	initials := 0
	finals := 0

	for i := range g.Nodes {
		node := &g.Nodes[i]
		if nodeIDs[node.ID] {
			issues = append(issues, Issue{NodeID: node.ID, Reason: "duplicate node id"})
		}
		nodeIDs[node.ID] = true
		if node.Initial {
			initials++
		}
		if node.Final || node.Type == domain.NodeTypeFinal {
			finals++
		}
	}

	switch {
	case initials == 0:
		issues = append(issues, Issue{Reason: "no node is flagged initial"})
	case initials > 1:
		issues = append(issues, Issue{Reason: fmt.Sprintf("%d nodes are flagged initial, want exactly 1", initials)})
	}
	if finals == 0 {
		issues = append(issues, Issue{Reason: "no node is flagged final"})
	}

	edgeIDs := make(map[string]bool)
	for i := range g.Nodes {
		node := &g.Nodes[i]
		defaults := 0
		for j := range node.Edges {
			edge := &node.Edges[j]
			if edgeIDs[edge.ID] {
				issues = append(issues, Issue{EdgeID: edge.ID, Reason: "duplicate edge id"})
			}
			edgeIDs[edge.ID] = true

			if edge.SourceID != "" && edge.SourceID != node.ID {
				issues = append(issues, Issue{EdgeID: edge.ID, Reason: fmt.Sprintf("source %q does not match owning node %q", edge.SourceID, node.ID)})
			}
			if edge.DefaultOption {
				defaults++
			}
			if edge.Terminal() {
				continue
			}
			if !nodeIDs[edge.TargetID] {
				issues = append(issues, Issue{EdgeID: edge.ID, Reason: fmt.Sprintf("targets missing node %q", edge.TargetID)})
				continue
			}
			incoming[edge.TargetID]++
		}
		if defaults > 1 {
			issues = append(issues, Issue{NodeID: node.ID, Reason: fmt.Sprintf("%d default-option edges, want at most 1", defaults)})
		}
	}

	for i := range g.Nodes {
		node := &g.Nodes[i]
		if node.Initial {
			continue
		}
		if incoming[node.ID] == 0 {
			issues = append(issues, Issue{NodeID: node.ID, Reason: "unreachable: no incoming edge"})
		}
	}

	if len(issues) == 0 {
		return nil
	}
	return &Report{GraphID: g.ID, Issues: issues}
}
