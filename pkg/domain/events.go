package domain

import (
	"context"
	"time"
)

// NodeEvent is emitted when a session enters a node.
type NodeEvent struct {
	SessionID string    `json:"session_id"`
	NodeID    string    `json:"node_id"`
	NodeType  string    `json:"node_type"`
	Timestamp time.Time `json:"timestamp"`
}

// DecisionEvent is emitted after a decision has been committed.
type DecisionEvent struct {
	SessionID string    `json:"session_id"`
	Decision  *Decision `json:"decision"`
	Timestamp time.Time `json:"timestamp"`
}

// SessionEvent is emitted on lifecycle changes (started, paused,
// resumed, finished).
type SessionEvent struct {
	SessionID string        `json:"session_id"`
	Status    SessionStatus `json:"status"`
	Timestamp time.Time     `json:"timestamp"`
}

// LifecycleHooks defines callbacks for engine observability. Hooks run
// synchronously after the triggering operation has committed; a nil hook
// is skipped.
type LifecycleHooks struct {
	OnNodeEnter       func(context.Context, *NodeEvent)
	OnDecision        func(context.Context, *DecisionEvent)
	OnSessionChange   func(context.Context, *SessionEvent)
	OnSessionFinished func(context.Context, *SessionEvent)
}
