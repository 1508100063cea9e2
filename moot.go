package moot

import (
	"context"

	"github.com/mootlab/moot/internal/engine"
	"github.com/mootlab/moot/internal/validator"
	"github.com/mootlab/moot/pkg/domain"
	"github.com/mootlab/moot/pkg/ports"
	"github.com/mootlab/moot/pkg/session"
)

// Version is the library version, reported by the CLI and servers.
const Version = "0.4.0"

// StatsFilter and StatsRow are re-exported so hosts using only the root
// package can query aggregates without importing pkg/ports.
type (
	StatsFilter = ports.StatsFilter
	StatsRow    = ports.StatsRow
)

// Engine is the high-level entry point. It wraps the internal state
// machine and provides a simplified API for hosts (HTTP, MCP, CLI).
type Engine struct {
	core      *engine.Engine
	sessions  *session.Manager
	decisions ports.DecisionStore
}

// DecisionInput carries one participant decision into ProcessDecision.
type DecisionInput struct {
	ParticipantID string
	RoleID        string
	Registered    bool

	EdgeID       string
	ResponseText string

	ElapsedSeconds *float64

	AudioURI     string
	AudioSeconds float64

	Modifiers []domain.ScoreModifier
	Metadata  map[string]any
}

// New wires an Engine over the three stores.
func New(graphs ports.GraphStore, sessions ports.SessionStore, decisions ports.DecisionStore, opts ...Option) (*Engine, error) {
	cfg := newConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	mgrOpts := []session.Option{session.WithLogger(cfg.logger)}
	if cfg.locker != nil {
		mgrOpts = append(mgrOpts, session.WithLocker(cfg.locker))
	}
	manager := session.NewManager(sessions, mgrOpts...)

	coreOpts := []engine.Option{
		engine.WithLogger(cfg.logger),
		engine.WithLifecycleHooks(cfg.hooks),
		engine.WithRoundingPolicy(cfg.rounding),
	}
	if cfg.clock != nil {
		coreOpts = append(coreOpts, engine.WithClock(cfg.clock))
	}

	return &Engine{
		core:      engine.New(graphs, manager, decisions, coreOpts...),
		sessions:  manager,
		decisions: decisions,
	}, nil
}

// CreateSession registers a not-started session bound to a graph, or
// returns the existing one.
func (e *Engine) CreateSession(ctx context.Context, sessionID, trialID, graphID string) (*domain.Session, error) {
	return e.sessions.LoadOrCreate(ctx, sessionID, trialID, graphID)
}

// StartSession moves a session into in_progress at the graph's initial
// node. Fails with domain.ErrGraphMisconfigured when the graph has no
// resolvable initial node.
func (e *Engine) StartSession(ctx context.Context, sessionID string) (*domain.Session, error) {
	return e.core.Start(ctx, sessionID)
}

// PauseSession suspends an in-progress session.
func (e *Engine) PauseSession(ctx context.Context, sessionID string) (*domain.Session, error) {
	return e.core.Pause(ctx, sessionID)
}

// ResumeSession reactivates a paused session.
func (e *Engine) ResumeSession(ctx context.Context, sessionID string) (*domain.Session, error) {
	return e.core.Resume(ctx, sessionID)
}

// FinalizeSession force-closes a session (instructor override).
func (e *Engine) FinalizeSession(ctx context.Context, sessionID string) (*domain.Session, error) {
	return e.core.Finalize(ctx, sessionID)
}

// AvailableEdges lists the responses currently selectable by a caller.
func (e *Engine) AvailableEdges(ctx context.Context, sessionID string, registered bool, roleID string) ([]domain.Edge, error) {
	return e.core.AvailableEdges(ctx, sessionID, domain.Caller{Registered: registered, RoleID: roleID})
}

// AdvanceTo moves the session to another node without a decision.
func (e *Engine) AdvanceTo(ctx context.Context, sessionID, nodeID, participantID, roleID string, elapsedSeconds *float64) (*domain.Session, error) {
	return e.core.AdvanceTo(ctx, sessionID, nodeID, participantID, roleID, elapsedSeconds)
}

// ProcessDecision validates and commits one participant decision,
// returning the created audit record.
func (e *Engine) ProcessDecision(ctx context.Context, sessionID string, in DecisionInput) (*domain.Decision, error) {
	return e.core.ProcessDecision(ctx, sessionID, engine.DecisionInput{
		ParticipantID:  in.ParticipantID,
		RoleID:         in.RoleID,
		Registered:     in.Registered,
		EdgeID:         in.EdgeID,
		ResponseText:   in.ResponseText,
		ElapsedSeconds: in.ElapsedSeconds,
		AudioURI:       in.AudioURI,
		AudioSeconds:   in.AudioSeconds,
		Modifiers:      in.Modifiers,
		Metadata:       in.Metadata,
	})
}

// SessionSnapshot returns the read-only state view of a session.
func (e *Engine) SessionSnapshot(ctx context.Context, sessionID string) (*domain.Snapshot, error) {
	return e.core.Snapshot(ctx, sessionID)
}

// History returns a session's ordered visit records.
func (e *Engine) History(ctx context.Context, sessionID string) ([]domain.VisitRecord, error) {
	return e.core.History(ctx, sessionID)
}

// Decisions returns a session's audit records in creation order.
func (e *Engine) Decisions(ctx context.Context, sessionID string) ([]domain.Decision, error) {
	return e.decisions.BySession(ctx, sessionID)
}

// EvaluateDecision updates the instructor fields of a decision.
func (e *Engine) EvaluateDecision(ctx context.Context, decisionID string, grade *int, notes string, status domain.EvaluationStatus) (*domain.Decision, error) {
	return e.decisions.Evaluate(ctx, decisionID, grade, notes, status)
}

// Stats aggregates decision records per the filter.
func (e *Engine) Stats(ctx context.Context, filter ports.StatsFilter) ([]ports.StatsRow, error) {
	return e.decisions.Stats(ctx, filter)
}

// ValidateGraph runs the authoring-time structural checks.
func ValidateGraph(g *domain.Graph) error {
	return validator.ValidateGraph(g)
}
