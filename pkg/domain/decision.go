package domain

import "time"

// EvaluationStatus tracks instructor review of a decision.
type EvaluationStatus string

const (
	EvaluationPending  EvaluationStatus = "pending"
	EvaluationGraded   EvaluationStatus = "graded"
	EvaluationReviewed EvaluationStatus = "reviewed"
)

// Score modifier types, applied in list order after the elapsed-time
// bonus/penalty. Unknown types are ignored.
const (
	ModifierMultiply = "multiply"
	ModifierAdd      = "add"
	ModifierSubtract = "subtract"
)

// ScoreModifier adjusts a decision's score.
type ScoreModifier struct {
	Type  string  `json:"type" yaml:"type"`
	Value float64 `json:"value" yaml:"value"`
}

// Decision is the immutable audit record of one edge selection. The
// engine creates it and never touches it again; only the evaluation
// fields (override grade, notes, status) may be updated, by an
// instructor through the decision store.
type Decision struct {
	ID        string `json:"id"`
	SessionID string `json:"session_id"`
	NodeID    string `json:"node_id"`
	EdgeID    string `json:"edge_id"`

	// ParticipantID is empty for unregistered participants.
	ParticipantID string `json:"participant_id,omitempty"`
	RoleID        string `json:"role_id,omitempty"`

	// ResponseText snapshots the edge text at decision time.
	ResponseText string `json:"response_text"`
	Score        int    `json:"score"`

	OverrideGrade *int             `json:"override_grade,omitempty"`
	Notes         string           `json:"notes,omitempty"`
	Evaluation    EvaluationStatus `json:"evaluation"`

	ElapsedSeconds *float64 `json:"elapsed_seconds,omitempty"`
	WasDefault     bool     `json:"was_default,omitempty"`
	Registered     bool     `json:"registered"`

	AudioURI     string  `json:"audio_uri,omitempty"`
	AudioSeconds float64 `json:"audio_seconds,omitempty"`

	Metadata map[string]any `json:"metadata,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}
