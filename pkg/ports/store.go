package ports

import (
	"context"

	"github.com/mootlab/moot/pkg/domain"
)

// GraphStore provides read access to dialogue graph definitions. The
// engine never writes graphs; authoring is an external concern.
type GraphStore interface {
	// GetGraph returns the graph, or domain.ErrGraphNotFound.
	GetGraph(ctx context.Context, graphID string) (*domain.Graph, error)
}

// SessionStore persists traversal sessions.
//
// Save is a compare-and-swap: it must reject the write with
// domain.ErrVersionConflict unless session.Version matches the persisted
// record (or the record is new and Version is zero), and bump
// session.Version by one on success. This realizes the serializability
// requirement without a lock manager in the store.
type SessionStore interface {
	Save(ctx context.Context, session *domain.Session) error

	// Load returns the session, or domain.ErrSessionNotFound.
	Load(ctx context.Context, sessionID string) (*domain.Session, error)

	Delete(ctx context.Context, sessionID string) error

	List(ctx context.Context) ([]string, error)
}

// StatsFilter narrows and groups aggregate decision statistics.
type StatsFilter struct {
	// SessionID limits the aggregation to one session when non-empty.
	SessionID string
	// GroupBy is "role" or "participant".
	GroupBy string
}

// StatsRow is one aggregate bucket over decision records.
type StatsRow struct {
	Key               string  `json:"key"`
	Decisions         int     `json:"decisions"`
	AvgScore          float64 `json:"avg_score"`
	AvgElapsedSeconds float64 `json:"avg_elapsed_seconds"`
}

// DecisionStore is the append-only audit log of decisions. Records are
// immutable except for the instructor evaluation fields.
type DecisionStore interface {
	Append(ctx context.Context, decision *domain.Decision) error

	// Get returns the decision, or domain.ErrDecisionNotFound.
	Get(ctx context.Context, decisionID string) (*domain.Decision, error)

	// BySession returns a session's decisions in creation order.
	BySession(ctx context.Context, sessionID string) ([]domain.Decision, error)

	// Evaluate updates the instructor fields of a decision. A nil grade
	// leaves the override untouched.
	Evaluate(ctx context.Context, decisionID string, grade *int, notes string, status domain.EvaluationStatus) (*domain.Decision, error)

	// Stats aggregates decision records per the filter.
	Stats(ctx context.Context, filter StatsFilter) ([]StatsRow, error)
}
