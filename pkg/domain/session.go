package domain

import "time"

// SessionStatus defines the traversal lifecycle.
// not_started → in_progress ⇄ paused → finished; finished is terminal.
type SessionStatus string

const (
	SessionNotStarted SessionStatus = "not_started"
	SessionInProgress SessionStatus = "in_progress"
	SessionPaused     SessionStatus = "paused"
	SessionFinished   SessionStatus = "finished"
)

// Session is one live traversal of a dialogue graph, bound to a parent
// trial. Its variable map and history are mutated exclusively through the
// engine; stores only persist what the engine hands them.
type Session struct {
	ID      string `json:"id"`
	TrialID string `json:"trial_id,omitempty"`
	GraphID string `json:"graph_id"`

	Status        SessionStatus `json:"status"`
	CurrentNodeID string        `json:"current_node_id,omitempty"`

	Variables map[string]any `json:"variables,omitempty"`

	// InitialVariables override the graph's configured defaults on start.
	InitialVariables map[string]any `json:"initial_variables,omitempty"`

	History []VisitRecord `json:"history,omitempty"`

	// Progress is distinct visited nodes over total nodes, in [0,1].
	Progress float64 `json:"progress"`

	// Version is the optimistic concurrency counter; stores reject a save
	// whose version does not match the persisted record.
	Version int64 `json:"version"`

	StartedAt *time.Time `json:"started_at,omitempty"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`

	AudioURI     string  `json:"audio_uri,omitempty"`
	AudioSeconds float64 `json:"audio_seconds,omitempty"`
}

// VisitRecord is one append-only history entry: a node that was left,
// either by a decision (DecisionID set) or a plain advance.
type VisitRecord struct {
	NodeID         string    `json:"node_id"`
	Timestamp      time.Time `json:"timestamp"`
	ParticipantID  string    `json:"participant_id,omitempty"`
	RoleID         string    `json:"role_id,omitempty"`
	ElapsedSeconds *float64  `json:"elapsed_seconds,omitempty"`
	EdgeID         string    `json:"edge_id,omitempty"`
	DecisionID     string    `json:"decision_id,omitempty"`
}

// Snapshot is the read-only view of a session handed to callers.
type Snapshot struct {
	Status        SessionStatus  `json:"status"`
	CurrentNodeID string         `json:"current_node_id,omitempty"`
	Variables     map[string]any `json:"variables,omitempty"`
	Progress      float64        `json:"progress"`
	Version       int64          `json:"version"`
}

// NewSession creates a not-started session bound to a graph.
func NewSession(id, trialID, graphID string) *Session {
	return &Session{
		ID:      id,
		TrialID: trialID,
		GraphID: graphID,
		Status:  SessionNotStarted,
	}
}

// Snapshot captures the current state for external consumption. The
// variable map is copied so callers cannot reach into the live session.
func (s *Session) Snapshot() *Snapshot {
	vars := make(map[string]any, len(s.Variables))
	for k, v := range s.Variables {
		vars[k] = v
	}
	return &Snapshot{
		Status:        s.Status,
		CurrentNodeID: s.CurrentNodeID,
		Variables:     vars,
		Progress:      s.Progress,
		Version:       s.Version,
	}
}
