// Package mcp exposes the engine over the Model Context Protocol so AI
// agents can drive and inspect trial sessions as tools.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/mootlab/moot"
	"github.com/mootlab/moot/pkg/domain"
	"github.com/mootlab/moot/pkg/ports"
)

// SnapshotResponse is the structured view returned by state tools.
type SnapshotResponse struct {
	Snapshot *domain.Snapshot `json:"snapshot" jsonschema_description:"Current session state"`
}

// EdgesResponse lists the responses the caller may pick right now.
type EdgesResponse struct {
	Edges []EdgeView `json:"edges" jsonschema_description:"Selectable responses on the current node"`
}

// EdgeView is the trimmed edge form offered to agents.
type EdgeView struct {
	ID       string `json:"id"`
	Text     string `json:"text"`
	Order    int    `json:"order"`
	TargetID string `json:"target_id,omitempty"`
}

// DecisionResponse pairs the created audit record with the resulting state.
type DecisionResponse struct {
	Decision *domain.Decision `json:"decision" jsonschema_description:"The recorded decision with its score"`
	Snapshot *domain.Snapshot `json:"snapshot" jsonschema_description:"Session state after the decision"`
}

// HistoryResponse holds a session's visit trail.
type HistoryResponse struct {
	History []domain.VisitRecord `json:"history" jsonschema_description:"Ordered node visit records"`
}

// Server wraps the engine and exposes it as an MCP server over stdio.
type Server struct {
	engine    *moot.Engine
	mcpServer *server.MCPServer
}

// NewServer creates the MCP server and registers its tools.
func NewServer(engine *moot.Engine) *Server {
	s := &Server{
		engine:    engine,
		mcpServer: server.NewMCPServer("moot-mcp", strings.TrimSpace(moot.Version)),
	}
	s.registerTools()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

func (s *Server) registerTools() {
	snapshotTool := mcp.NewTool("session_snapshot",
		mcp.WithDescription("Get the current state of a trial session."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("The session identifier")),
		mcp.WithOutputSchema[SnapshotResponse](),
	)
	s.mcpServer.AddTool(snapshotTool, mcp.NewStructuredToolHandler(s.handleSnapshot))

	edgesTool := mcp.NewTool("available_edges",
		mcp.WithDescription("List the responses the caller can pick on the session's current node."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("The session identifier")),
		mcp.WithString("role_id", mcp.Description("Role of the caller (optional)")),
		mcp.WithBoolean("registered", mcp.Description("Whether the caller is a registered participant")),
		mcp.WithOutputSchema[EdgesResponse](),
	)
	s.mcpServer.AddTool(edgesTool, mcp.NewStructuredToolHandler(s.handleEdges))

	decideTool := mcp.NewTool("submit_decision",
		mcp.WithDescription("Submit a decision for the session's current node and advance it."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("The session identifier")),
		mcp.WithString("edge_id", mcp.Required(), mcp.Description("The chosen response edge")),
		mcp.WithString("participant_id", mcp.Description("Identifier of the deciding participant")),
		mcp.WithString("role_id", mcp.Description("Role of the deciding participant")),
		mcp.WithBoolean("registered", mcp.Description("Whether the caller is a registered participant")),
		mcp.WithString("response_text", mcp.Description("Free-form answer text (defaults to the edge text)")),
		mcp.WithNumber("elapsed_seconds", mcp.Description("Seconds the participant took to answer")),
		mcp.WithOutputSchema[DecisionResponse](),
	)
	s.mcpServer.AddTool(decideTool, mcp.NewStructuredToolHandler(s.handleDecide))

	historyTool := mcp.NewTool("session_history",
		mcp.WithDescription("Get the ordered visit history of a session."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("The session identifier")),
		mcp.WithOutputSchema[HistoryResponse](),
	)
	s.mcpServer.AddTool(historyTool, mcp.NewStructuredToolHandler(s.handleHistory))

	// TOOL: session_stats
	s.mcpServer.AddTool(mcp.NewTool("session_stats",
		mcp.WithDescription("Aggregate decision statistics, optionally filtered by session and grouped by role or participant."),
		mcp.WithString("session_id", mcp.Description("Restrict to one session (optional)")),
		mcp.WithString("group_by", mcp.Description("Grouping key: 'role' or 'participant'")),
	), s.handleStats)
}

func (s *Server) handleSnapshot(ctx context.Context, request mcp.CallToolRequest, args map[string]any) (SnapshotResponse, error) {
	sessionID, _ := args["session_id"].(string)

	snap, err := s.engine.SessionSnapshot(ctx, sessionID)
	if err != nil {
		return SnapshotResponse{}, fmt.Errorf("snapshot failed: %w", err)
	}
	return SnapshotResponse{Snapshot: snap}, nil
}

func (s *Server) handleEdges(ctx context.Context, request mcp.CallToolRequest, args map[string]any) (EdgesResponse, error) {
	sessionID, _ := args["session_id"].(string)
	roleID, _ := args["role_id"].(string)
	registered, _ := args["registered"].(bool)

	edges, err := s.engine.AvailableEdges(ctx, sessionID, registered, roleID)
	if err != nil {
		return EdgesResponse{}, fmt.Errorf("edge listing failed: %w", err)
	}

	out := EdgesResponse{Edges: make([]EdgeView, len(edges))}
	for i, e := range edges {
		out.Edges[i] = EdgeView{ID: e.ID, Text: e.Text, Order: e.Order, TargetID: e.TargetID}
	}
	return out, nil
}

func (s *Server) handleDecide(ctx context.Context, request mcp.CallToolRequest, args map[string]any) (DecisionResponse, error) {
	sessionID, _ := args["session_id"].(string)

	in := moot.DecisionInput{
		EdgeID: stringArg(args, "edge_id"),
	}
	in.ParticipantID = stringArg(args, "participant_id")
	in.RoleID = stringArg(args, "role_id")
	in.Registered, _ = args["registered"].(bool)
	in.ResponseText = stringArg(args, "response_text")
	if v, ok := args["elapsed_seconds"].(float64); ok {
		in.ElapsedSeconds = &v
	}

	decision, err := s.engine.ProcessDecision(ctx, sessionID, in)
	if err != nil {
		return DecisionResponse{}, fmt.Errorf("decision rejected: %w", err)
	}

	snap, err := s.engine.SessionSnapshot(ctx, sessionID)
	if err != nil {
		return DecisionResponse{}, fmt.Errorf("snapshot after decision failed: %w", err)
	}
	return DecisionResponse{Decision: decision, Snapshot: snap}, nil
}

func (s *Server) handleHistory(ctx context.Context, request mcp.CallToolRequest, args map[string]any) (HistoryResponse, error) {
	sessionID, _ := args["session_id"].(string)

	records, err := s.engine.History(ctx, sessionID)
	if err != nil {
		return HistoryResponse{}, fmt.Errorf("history failed: %w", err)
	}
	return HistoryResponse{History: records}, nil
}

func (s *Server) handleStats(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	rows, err := s.engine.Stats(ctx, statsFilter(args))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("stats failed: %v", err)), nil
	}
	jsonBytes, _ := json.Marshal(rows)
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

func stringArg(args map[string]any, key string) string {
	v, _ := args[key].(string)
	return v
}

func statsFilter(args map[string]any) ports.StatsFilter {
	return ports.StatsFilter{
		SessionID: stringArg(args, "session_id"),
		GroupBy:   stringArg(args, "group_by"),
	}
}
