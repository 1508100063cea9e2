package domain

import "errors"

// Engine error taxonomy. All are returned as-is (possibly wrapped with
// %w) so callers can branch with errors.Is; none are retried internally.
var (
	// ErrGraphMisconfigured is returned when a graph has no resolvable
	// initial node.
	ErrGraphMisconfigured = errors.New("dialogue graph misconfigured")

	// ErrInvalidTransition is returned for an illegal lifecycle change.
	ErrInvalidTransition = errors.New("invalid session transition")

	// ErrEdgeNotFound is returned when an edge ID does not exist in the
	// session's graph.
	ErrEdgeNotFound = errors.New("edge not found")

	// ErrEdgeNotOnCurrentNode is returned when the chosen edge does not
	// leave the session's current node.
	ErrEdgeNotOnCurrentNode = errors.New("edge not on current node")

	// ErrEdgeNotAvailable is returned when condition, role or
	// registration checks reject the chosen edge.
	ErrEdgeNotAvailable = errors.New("edge not available")

	// ErrCrossGraphReference is returned when an advance targets a node
	// outside the session's graph.
	ErrCrossGraphReference = errors.New("node not in session graph")

	// ErrNodeNotReachable is returned when the destination node is
	// inactive or its condition rejects the session variables.
	ErrNodeNotReachable = errors.New("node not reachable")

	// ErrUnsupportedExpression is returned for the reserved scripted
	// condition kind with a non-empty script.
	ErrUnsupportedExpression = errors.New("scripted conditions are not supported")

	// ErrSessionNotFound is returned when a session ID cannot be found.
	ErrSessionNotFound = errors.New("session not found")

	// ErrGraphNotFound is returned when a graph ID cannot be found.
	ErrGraphNotFound = errors.New("graph not found")

	// ErrDecisionNotFound is returned when a decision ID cannot be found.
	ErrDecisionNotFound = errors.New("decision not found")

	// ErrVersionConflict is returned by stores when a save carries a
	// stale session version.
	ErrVersionConflict = errors.New("session version conflict")
)
