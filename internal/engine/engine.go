package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/mootlab/moot/internal/logging"
	"github.com/mootlab/moot/pkg/domain"
	"github.com/mootlab/moot/pkg/ports"
	"github.com/mootlab/moot/pkg/session"
)

// Clock supplies timestamps; injectable for tests.
type Clock func() time.Time

// Engine is the session state machine. It owns every mutation of a
// session: lifecycle transitions, decision processing and the history
// log. The pure helpers (EvaluateExpression, ApplyConsequences, Score)
// never touch session state; the engine composes them under the
// per-session lock, computes the full next state in memory, and commits
// it in one store save so a failed request leaves nothing behind.
type Engine struct {
	graphs    ports.GraphStore
	sessions  *session.Manager
	decisions ports.DecisionStore

	hooks    domain.LifecycleHooks
	logger   *slog.Logger
	rounding RoundingPolicy
	clock    Clock
}

// Option configures the Engine.
type Option func(*Engine)

// WithLogger sets a structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) { e.hooks = hooks }
}

// WithRoundingPolicy selects the score rounding policy.
func WithRoundingPolicy(policy RoundingPolicy) Option {
	return func(e *Engine) { e.rounding = policy }
}

// WithClock overrides the wall clock.
func WithClock(clock Clock) Option {
	return func(e *Engine) { e.clock = clock }
}

// New creates the engine over its three stores.
func New(graphs ports.GraphStore, sessions *session.Manager, decisions ports.DecisionStore, opts ...Option) *Engine {
	e := &Engine{
		graphs:    graphs,
		sessions:  sessions,
		decisions: decisions,
		logger:    logging.NewNop(),
		rounding:  RoundTruncate,
		clock:     func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
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

	// Modifiers are extra score adjustments, applied after the
	// elapsed-time bonus/penalty and recorded in the decision metadata.
	Modifiers []domain.ScoreModifier

	Metadata map[string]any
}

// Start moves a not-started session into in_progress at the graph's
// initial node, seeding variables from the graph defaults overridden by
// the session-level initial variables, and applying the initial node's
// entry consequences.
func (e *Engine) Start(ctx context.Context, sessionID string) (*domain.Session, error) {
	var out *domain.Session
	err := e.sessions.WithLock(ctx, sessionID, func(ctx context.Context) error {
		s, err := e.sessions.Store().Load(ctx, sessionID)
		if err != nil {
			return err
		}
		if s.Status != domain.SessionNotStarted {
			return fmt.Errorf("start from %s: %w", s.Status, domain.ErrInvalidTransition)
		}

		g, err := e.graphs.GetGraph(ctx, s.GraphID)
		if err != nil {
			return err
		}
		initial, ok := g.InitialNode()
		if !ok {
			return fmt.Errorf("graph %q has no initial node: %w", g.ID, domain.ErrGraphMisconfigured)
		}

		vars := make(map[string]any)
		for k, v := range g.InitialVariables() {
			vars[k] = v
		}
		for k, v := range s.InitialVariables {
			vars[k] = v
		}
		vars = ApplyConsequences(initial.Consequences, vars)

		now := e.clock()
		s.Status = domain.SessionInProgress
		s.CurrentNodeID = initial.ID
		s.Variables = vars
		s.History = nil
		s.Progress = progress(s, g)
		s.StartedAt = &now
		s.EndedAt = nil

		if err := e.sessions.Store().Save(ctx, s); err != nil {
			return err
		}

		e.emitSessionChange(ctx, s, now)
		e.emitNodeEnter(ctx, s.ID, initial, now)
		out = s
		return nil
	})
	return out, err
}

// Pause suspends an in-progress session.
func (e *Engine) Pause(ctx context.Context, sessionID string) (*domain.Session, error) {
	return e.transition(ctx, sessionID, domain.SessionInProgress, domain.SessionPaused)
}

// Resume reactivates a paused session.
func (e *Engine) Resume(ctx context.Context, sessionID string) (*domain.Session, error) {
	return e.transition(ctx, sessionID, domain.SessionPaused, domain.SessionInProgress)
}

// Finalize force-closes a session from in_progress or paused. Used by
// instructors; normal completion happens through terminal decisions.
func (e *Engine) Finalize(ctx context.Context, sessionID string) (*domain.Session, error) {
	var out *domain.Session
	err := e.sessions.WithLock(ctx, sessionID, func(ctx context.Context) error {
		s, err := e.sessions.Store().Load(ctx, sessionID)
		if err != nil {
			return err
		}
		if s.Status != domain.SessionInProgress && s.Status != domain.SessionPaused {
			return fmt.Errorf("finalize from %s: %w", s.Status, domain.ErrInvalidTransition)
		}

		now := e.clock()
		s.Status = domain.SessionFinished
		s.EndedAt = &now

		if err := e.sessions.Store().Save(ctx, s); err != nil {
			return err
		}
		e.emitFinished(ctx, s, now)
		out = s
		return nil
	})
	return out, err
}

func (e *Engine) transition(ctx context.Context, sessionID string, from, to domain.SessionStatus) (*domain.Session, error) {
	var out *domain.Session
	err := e.sessions.WithLock(ctx, sessionID, func(ctx context.Context) error {
		s, err := e.sessions.Store().Load(ctx, sessionID)
		if err != nil {
			return err
		}
		if s.Status != from {
			return fmt.Errorf("%s from %s: %w", to, s.Status, domain.ErrInvalidTransition)
		}
		s.Status = to
		if err := e.sessions.Store().Save(ctx, s); err != nil {
			return err
		}
		e.emitSessionChange(ctx, s, e.clock())
		out = s
		return nil
	})
	return out, err
}

// AvailableEdges returns the ordered responses on the current node that
// pass registration, role and condition checks for the caller and whose
// destination node is reachable. The predicates are EdgeAvailable and
// NodeReachable, the same ones ProcessDecision re-checks, so offered
// options never drift from acceptable ones. A session not in progress
// offers nothing.
func (e *Engine) AvailableEdges(ctx context.Context, sessionID string, caller domain.Caller) ([]domain.Edge, error) {
	var out []domain.Edge
	err := e.sessions.WithLock(ctx, sessionID, func(ctx context.Context) error {
		s, err := e.sessions.Store().Load(ctx, sessionID)
		if err != nil {
			return err
		}
		if s.Status != domain.SessionInProgress {
			out = []domain.Edge{}
			return nil
		}

		g, err := e.graphs.GetGraph(ctx, s.GraphID)
		if err != nil {
			return err
		}
		node, ok := g.NodeByID(s.CurrentNodeID)
		if !ok {
			return fmt.Errorf("current node %q: %w", s.CurrentNodeID, domain.ErrCrossGraphReference)
		}

		edges := make([]domain.Edge, len(node.Edges))
		copy(edges, node.Edges)
		sort.SliceStable(edges, func(i, j int) bool { return edges[i].Order < edges[j].Order })

		out = []domain.Edge{}
		for i := range edges {
			ok, err := EdgeAvailable(&edges[i], s.Variables, caller)
			if err != nil {
				// Unsupported scripted conditions make the edge
				// unavailable when listing; taking it fails loudly.
				e.logger.Debug("edge skipped", "edge_id", edges[i].ID, "err", err)
				continue
			}
			if ok && !edges[i].Terminal() {
				// An edge into an unreachable node is not offered.
				// Reachability is projected past the edge's own
				// consequences, matching the decision path.
				target, found := g.NodeByID(edges[i].TargetID)
				if !found {
					e.logger.Debug("edge skipped", "edge_id", edges[i].ID, "err", domain.ErrCrossGraphReference)
					continue
				}
				ok, err = NodeReachable(target, ApplyConsequences(edges[i].Consequences, s.Variables))
				if err != nil {
					e.logger.Debug("edge skipped", "edge_id", edges[i].ID, "err", err)
					continue
				}
			}
			if ok {
				out = append(out, edges[i])
			}
		}
		return nil
	})
	return out, err
}

// AdvanceTo moves the session to another node of the same graph without
// a decision, appending a history entry for the node being left.
func (e *Engine) AdvanceTo(ctx context.Context, sessionID, nodeID, participantID, roleID string, elapsedSeconds *float64) (*domain.Session, error) {
	var out *domain.Session
	err := e.sessions.WithLock(ctx, sessionID, func(ctx context.Context) error {
		s, err := e.sessions.Store().Load(ctx, sessionID)
		if err != nil {
			return err
		}
		if s.Status != domain.SessionInProgress {
			return fmt.Errorf("advance from %s: %w", s.Status, domain.ErrInvalidTransition)
		}

		g, err := e.graphs.GetGraph(ctx, s.GraphID)
		if err != nil {
			return err
		}
		target, ok := g.NodeByID(nodeID)
		if !ok {
			return fmt.Errorf("advance to %q: %w", nodeID, domain.ErrCrossGraphReference)
		}
		reachable, err := NodeReachable(target, s.Variables)
		if err != nil {
			return err
		}
		if !reachable {
			return fmt.Errorf("advance to %q: %w", target.ID, domain.ErrNodeNotReachable)
		}

		now := e.clock()
		s.History = append(s.History, domain.VisitRecord{
			NodeID:         s.CurrentNodeID,
			Timestamp:      now,
			ParticipantID:  participantID,
			RoleID:         roleID,
			ElapsedSeconds: elapsedSeconds,
		})
		s.CurrentNodeID = target.ID
		s.Variables = ApplyConsequences(target.Consequences, s.Variables)
		s.Progress = progress(s, g)

		if err := e.sessions.Store().Save(ctx, s); err != nil {
			return err
		}
		e.emitNodeEnter(ctx, s.ID, target, now)
		out = s
		return nil
	})
	return out, err
}

// ProcessDecision resolves and validates the chosen edge, creates the
// audit record, applies edge then node-entry consequences, appends
// history and advances (or finishes) the session. The availability
// re-check against live variables is mandatory: options shown earlier
// may have been invalidated by another participant's decision.
func (e *Engine) ProcessDecision(ctx context.Context, sessionID string, in DecisionInput) (*domain.Decision, error) {
	var out *domain.Decision
	err := e.sessions.WithLock(ctx, sessionID, func(ctx context.Context) error {
		s, err := e.sessions.Store().Load(ctx, sessionID)
		if err != nil {
			return err
		}
		if s.Status != domain.SessionInProgress {
			return fmt.Errorf("decision on %s session: %w", s.Status, domain.ErrInvalidTransition)
		}

		g, err := e.graphs.GetGraph(ctx, s.GraphID)
		if err != nil {
			return err
		}

		edge, ok := g.EdgeByID(in.EdgeID)
		if !ok {
			return fmt.Errorf("edge %q: %w", in.EdgeID, domain.ErrEdgeNotFound)
		}
		if edge.SourceID != s.CurrentNodeID {
			return fmt.Errorf("edge %q leaves %q not %q: %w",
				edge.ID, edge.SourceID, s.CurrentNodeID, domain.ErrEdgeNotOnCurrentNode)
		}

		caller := domain.Caller{Registered: in.Registered, RoleID: in.RoleID}
		available, err := EdgeAvailable(edge, s.Variables, caller)
		if err != nil {
			return err
		}
		if !available {
			return fmt.Errorf("edge %q: %w", edge.ID, domain.ErrEdgeNotAvailable)
		}

		now := e.clock()
		text := in.ResponseText
		if text == "" {
			text = edge.Text
		}

		meta := make(map[string]any, len(in.Metadata)+1)
		for k, v := range in.Metadata {
			meta[k] = v
		}
		if len(in.Modifiers) > 0 {
			meta["score_modifiers"] = in.Modifiers
		}
		if len(meta) == 0 {
			meta = nil
		}

		decision := &domain.Decision{
			ID:             uuid.NewString(),
			SessionID:      s.ID,
			NodeID:         s.CurrentNodeID,
			EdgeID:         edge.ID,
			ParticipantID:  in.ParticipantID,
			RoleID:         in.RoleID,
			ResponseText:   text,
			Score:          Score(edge.Score, in.ElapsedSeconds, in.Modifiers, e.rounding),
			Evaluation:     domain.EvaluationPending,
			ElapsedSeconds: in.ElapsedSeconds,
			WasDefault:     edge.DefaultOption,
			Registered:     in.Registered,
			AudioURI:       in.AudioURI,
			AudioSeconds:   in.AudioSeconds,
			Metadata:       meta,
			CreatedAt:      now,
		}

		// Edge consequences first, then entry consequences of the
		// destination node, in that order.
		vars := ApplyConsequences(edge.Consequences, s.Variables)

		var target *domain.Node
		finished := false
		if edge.Terminal() {
			finished = true
		} else {
			target, ok = g.NodeByID(edge.TargetID)
			if !ok {
				return fmt.Errorf("edge %q targets %q: %w", edge.ID, edge.TargetID, domain.ErrCrossGraphReference)
			}
			// Reachability is judged after the edge's own consequences:
			// they are what the entering session carries.
			reachable, err := NodeReachable(target, vars)
			if err != nil {
				return err
			}
			if !reachable {
				return fmt.Errorf("node %q: %w", target.ID, domain.ErrNodeNotReachable)
			}
			vars = ApplyConsequences(target.Consequences, vars)
			finished = target.Final || target.Type == domain.NodeTypeFinal
		}

		left := s.CurrentNodeID
		s.Variables = vars
		s.History = append(s.History, domain.VisitRecord{
			NodeID:         left,
			Timestamp:      now,
			ParticipantID:  in.ParticipantID,
			RoleID:         in.RoleID,
			ElapsedSeconds: in.ElapsedSeconds,
			EdgeID:         edge.ID,
			DecisionID:     decision.ID,
		})
		if target != nil {
			s.CurrentNodeID = target.ID
		}
		s.Progress = progress(s, g)
		if finished {
			s.Status = domain.SessionFinished
			s.EndedAt = &now
		}

		// The decision is appended before the session commit: a failed
		// commit leaves the session untouched and at worst an orphan
		// audit record that nothing references.
		if err := e.decisions.Append(ctx, decision); err != nil {
			return fmt.Errorf("failed to record decision: %w", err)
		}
		if err := e.sessions.Store().Save(ctx, s); err != nil {
			return err
		}

		e.emitDecision(ctx, s.ID, decision, now)
		if target != nil {
			e.emitNodeEnter(ctx, s.ID, target, now)
		}
		if finished {
			e.emitFinished(ctx, s, now)
		}
		out = decision
		return nil
	})
	return out, err
}

// Snapshot returns the read-only state view of a session.
func (e *Engine) Snapshot(ctx context.Context, sessionID string) (*domain.Snapshot, error) {
	var out *domain.Snapshot
	err := e.sessions.WithLock(ctx, sessionID, func(ctx context.Context) error {
		s, err := e.sessions.Store().Load(ctx, sessionID)
		if err != nil {
			return err
		}
		out = s.Snapshot()
		return nil
	})
	return out, err
}

// History returns the ordered visit records of a session.
func (e *Engine) History(ctx context.Context, sessionID string) ([]domain.VisitRecord, error) {
	var out []domain.VisitRecord
	err := e.sessions.WithLock(ctx, sessionID, func(ctx context.Context) error {
		s, err := e.sessions.Store().Load(ctx, sessionID)
		if err != nil {
			return err
		}
		out = make([]domain.VisitRecord, len(s.History))
		copy(out, s.History)
		return nil
	})
	return out, err
}

// progress is distinct visited nodes (history plus current) over total.
func progress(s *domain.Session, g *domain.Graph) float64 {
	if len(g.Nodes) == 0 {
		return 0
	}
	seen := make(map[string]struct{}, len(s.History)+1)
	for _, v := range s.History {
		seen[v.NodeID] = struct{}{}
	}
	if s.CurrentNodeID != "" {
		seen[s.CurrentNodeID] = struct{}{}
	}
	return float64(len(seen)) / float64(len(g.Nodes))
}

func (e *Engine) emitNodeEnter(ctx context.Context, sessionID string, node *domain.Node, ts time.Time) {
	if e.hooks.OnNodeEnter == nil {
		return
	}
	e.hooks.OnNodeEnter(ctx, &domain.NodeEvent{
		SessionID: sessionID,
		NodeID:    node.ID,
		NodeType:  node.Type,
		Timestamp: ts,
	})
}

func (e *Engine) emitDecision(ctx context.Context, sessionID string, d *domain.Decision, ts time.Time) {
	if e.hooks.OnDecision == nil {
		return
	}
	e.hooks.OnDecision(ctx, &domain.DecisionEvent{SessionID: sessionID, Decision: d, Timestamp: ts})
}

func (e *Engine) emitSessionChange(ctx context.Context, s *domain.Session, ts time.Time) {
	if e.hooks.OnSessionChange == nil {
		return
	}
	e.hooks.OnSessionChange(ctx, &domain.SessionEvent{SessionID: s.ID, Status: s.Status, Timestamp: ts})
}

func (e *Engine) emitFinished(ctx context.Context, s *domain.Session, ts time.Time) {
	e.emitSessionChange(ctx, s, ts)
	if e.hooks.OnSessionFinished == nil {
		return
	}
	e.hooks.OnSessionFinished(ctx, &domain.SessionEvent{SessionID: s.ID, Status: s.Status, Timestamp: ts})
}
