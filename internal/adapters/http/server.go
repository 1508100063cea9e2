// Package http exposes the engine's operations as a JSON API over chi.
// The surface mirrors what the administrative layer consumes: session
// lifecycle, edge listing, decision processing, history, evaluation and
// aggregate statistics.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mootlab/moot"
	"github.com/mootlab/moot/pkg/domain"
	"github.com/mootlab/moot/pkg/ports"
)

// Engine defines the surface the HTTP adapter needs from the core.
type Engine interface {
	CreateSession(ctx context.Context, sessionID, trialID, graphID string) (*domain.Session, error)
	StartSession(ctx context.Context, sessionID string) (*domain.Session, error)
	PauseSession(ctx context.Context, sessionID string) (*domain.Session, error)
	ResumeSession(ctx context.Context, sessionID string) (*domain.Session, error)
	FinalizeSession(ctx context.Context, sessionID string) (*domain.Session, error)
	AvailableEdges(ctx context.Context, sessionID string, registered bool, roleID string) ([]domain.Edge, error)
	ProcessDecision(ctx context.Context, sessionID string, in moot.DecisionInput) (*domain.Decision, error)
	SessionSnapshot(ctx context.Context, sessionID string) (*domain.Snapshot, error)
	History(ctx context.Context, sessionID string) ([]domain.VisitRecord, error)
	Decisions(ctx context.Context, sessionID string) ([]domain.Decision, error)
	EvaluateDecision(ctx context.Context, decisionID string, grade *int, notes string, status domain.EvaluationStatus) (*domain.Decision, error)
	Stats(ctx context.Context, filter ports.StatsFilter) ([]ports.StatsRow, error)
}

// Server holds the handler dependencies.
type Server struct {
	engine Engine
	logger *slog.Logger
}

// NewHandler builds the chi router for the engine. When a Prometheus
// registry is supplied, /metrics is mounted on it.
func NewHandler(engine Engine, logger *slog.Logger, reg *prometheus.Registry) http.Handler {
	s := &Server{engine: engine, logger: logger}

	r := chi.NewRouter()
	r.Get("/healthz", s.health)
	r.Get("/info", s.info)
	if reg != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	}

	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", s.createSession)
		r.Route("/{sessionID}", func(r chi.Router) {
			r.Get("/", s.snapshot)
			r.Post("/start", s.lifecycle((Engine).StartSession))
			r.Post("/pause", s.lifecycle((Engine).PauseSession))
			r.Post("/resume", s.lifecycle((Engine).ResumeSession))
			r.Post("/finalize", s.lifecycle((Engine).FinalizeSession))
			r.Get("/edges", s.edges)
			r.Post("/decisions", s.decide)
			r.Get("/decisions", s.decisions)
			r.Get("/history", s.history)
			r.Get("/stats", s.sessionStats)
		})
	})

	r.Post("/decisions/{decisionID}/evaluation", s.evaluate)
	r.Get("/stats", s.stats)

	return r
}

type createSessionRequest struct {
	SessionID string `json:"session_id"`
	TrialID   string `json:"trial_id"`
	GraphID   string `json:"graph_id"`
}

func (s *Server) createSession(w http.ResponseWriter, r *http.Request) {
	var body createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if body.SessionID == "" || body.GraphID == "" {
		http.Error(w, "session_id and graph_id are required", http.StatusBadRequest)
		return
	}

	sess, err := s.engine.CreateSession(r.Context(), body.SessionID, body.TrialID, body.GraphID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, sess)
}

// lifecycle adapts the four identical transition endpoints.
func (s *Server) lifecycle(op func(Engine, context.Context, string) (*domain.Session, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := op(s.engine, r.Context(), chi.URLParam(r, "sessionID"))
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		s.writeJSON(w, http.StatusOK, sess)
	}
}

func (s *Server) snapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := s.engine.SessionSnapshot(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, snap)
}

// edgeSummary is the trimmed view offered to choosers; conditions and
// consequences stay server-side.
type edgeSummary struct {
	ID            string `json:"id"`
	Text          string `json:"text"`
	Order         int    `json:"order"`
	TargetID      string `json:"target_id,omitempty"`
	DefaultOption bool   `json:"default_option,omitempty"`
}

func (s *Server) edges(w http.ResponseWriter, r *http.Request) {
	registered := r.URL.Query().Get("registered") == "true"
	roleID := r.URL.Query().Get("role_id")

	edges, err := s.engine.AvailableEdges(r.Context(), chi.URLParam(r, "sessionID"), registered, roleID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	out := make([]edgeSummary, len(edges))
	for i, e := range edges {
		out[i] = edgeSummary{
			ID:            e.ID,
			Text:          e.Text,
			Order:         e.Order,
			TargetID:      e.TargetID,
			DefaultOption: e.DefaultOption,
		}
	}
	s.writeJSON(w, http.StatusOK, out)
}

type decisionRequest struct {
	ParticipantID  string                 `json:"participant_id"`
	RoleID         string                 `json:"role_id"`
	Registered     bool                   `json:"registered"`
	EdgeID         string                 `json:"edge_id"`
	ResponseText   string                 `json:"response_text"`
	ElapsedSeconds *float64               `json:"elapsed_seconds"`
	AudioURI       string                 `json:"audio_uri"`
	AudioSeconds   float64                `json:"audio_seconds"`
	Modifiers      []domain.ScoreModifier `json:"modifiers"`
	Metadata       map[string]any         `json:"metadata"`
}

func (s *Server) decide(w http.ResponseWriter, r *http.Request) {
	var body decisionRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if body.EdgeID == "" {
		http.Error(w, "edge_id is required", http.StatusBadRequest)
		return
	}

	decision, err := s.engine.ProcessDecision(r.Context(), chi.URLParam(r, "sessionID"), moot.DecisionInput{
		ParticipantID:  body.ParticipantID,
		RoleID:         body.RoleID,
		Registered:     body.Registered,
		EdgeID:         body.EdgeID,
		ResponseText:   body.ResponseText,
		ElapsedSeconds: body.ElapsedSeconds,
		AudioURI:       body.AudioURI,
		AudioSeconds:   body.AudioSeconds,
		Modifiers:      body.Modifiers,
		Metadata:       body.Metadata,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, decision)
}

func (s *Server) decisions(w http.ResponseWriter, r *http.Request) {
	list, err := s.engine.Decisions(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, list)
}

func (s *Server) history(w http.ResponseWriter, r *http.Request) {
	records, err := s.engine.History(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, records)
}

type evaluationRequest struct {
	Grade  *int                    `json:"grade"`
	Notes  string                  `json:"notes"`
	Status domain.EvaluationStatus `json:"status"`
}

func (s *Server) evaluate(w http.ResponseWriter, r *http.Request) {
	var body evaluationRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	decision, err := s.engine.EvaluateDecision(r.Context(), chi.URLParam(r, "decisionID"), body.Grade, body.Notes, body.Status)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, decision)
}

func (s *Server) stats(w http.ResponseWriter, r *http.Request) {
	s.writeStats(w, r, r.URL.Query().Get("session_id"))
}

func (s *Server) sessionStats(w http.ResponseWriter, r *http.Request) {
	s.writeStats(w, r, chi.URLParam(r, "sessionID"))
}

func (s *Server) writeStats(w http.ResponseWriter, r *http.Request, sessionID string) {
	rows, err := s.engine.Stats(r.Context(), ports.StatsFilter{
		SessionID: sessionID,
		GroupBy:   r.URL.Query().Get("group_by"),
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, rows)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) info(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"app":     "moot-http",
		"version": moot.Version,
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("response encode failed", "err", err)
	}
}

// writeError maps the engine's error taxonomy onto HTTP statuses so the
// administrative layer can surface each kind distinctly.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrSessionNotFound),
		errors.Is(err, domain.ErrGraphNotFound),
		errors.Is(err, domain.ErrDecisionNotFound),
		errors.Is(err, domain.ErrEdgeNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidTransition),
		errors.Is(err, domain.ErrEdgeNotOnCurrentNode),
		errors.Is(err, domain.ErrVersionConflict):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrEdgeNotAvailable),
		errors.Is(err, domain.ErrNodeNotReachable),
		errors.Is(err, domain.ErrGraphMisconfigured),
		errors.Is(err, domain.ErrCrossGraphReference),
		errors.Is(err, domain.ErrUnsupportedExpression):
		status = http.StatusUnprocessableEntity
	}

	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "path", r.URL.Path, "err", err)
	} else {
		s.logger.Debug("request rejected", "path", r.URL.Path, "err", err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
