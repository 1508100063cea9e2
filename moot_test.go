package moot_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mootlab/moot"
	"github.com/mootlab/moot/internal/adapters/memory"
	"github.com/mootlab/moot/pkg/domain"
)

func courtroomGraph() *domain.Graph {
	return &domain.Graph{
		ID:     "g-trial",
		Name:   "People v. Doe",
		Status: domain.GraphActive,
		Config: map[string]any{
			domain.ConfigKeyInitialVariables: map[string]any{"credibility": float64(10)},
		},
		Nodes: []domain.Node{
			{
				ID:      "opening",
				Title:   "Opening statement",
				Type:    domain.NodeTypeDecision,
				Initial: true,
				Active:  true,
				Edges: []domain.Edge{
					{
						ID: "agree", SourceID: "opening", TargetID: "cross", Text: "No objections",
						Order: 1, Score: 10, Active: true,
					},
					{
						ID: "object", SourceID: "opening", TargetID: "cross", Text: "Objection!",
						Order: 2, Score: 20, Active: true,
						Consequences: &domain.ConsequenceSet{Assign: map[string]domain.Mutation{
							"credibility": {Op: domain.MutSubtract, Value: 2},
						}},
					},
				},
			},
			{
				ID:     "cross",
				Title:  "Cross examination",
				Type:   domain.NodeTypeDecision,
				Active: true,
				Edges: []domain.Edge{
					{
						ID: "rest", SourceID: "cross", TargetID: "verdict", Text: "The defense rests",
						Order: 1, Score: 5, Active: true,
					},
				},
			},
			{ID: "verdict", Title: "Verdict", Type: domain.NodeTypeFinal, Final: true, Active: true},
		},
	}
}

func newEngine(t *testing.T, opts ...moot.Option) *moot.Engine {
	t.Helper()
	graphs := memory.NewGraphStore()
	graphs.Put(courtroomGraph())

	engine, err := moot.New(graphs, memory.NewSessionStore(), memory.NewDecisionStore(), opts...)
	require.NoError(t, err)
	return engine
}

func TestEngine_FullTrial(t *testing.T) {
	ctx := context.Background()
	engine := newEngine(t)

	_, err := engine.CreateSession(ctx, "s1", "trial-1", "g-trial")
	require.NoError(t, err)

	s, err := engine.StartSession(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "opening", s.CurrentNodeID)
	assert.Equal(t, float64(10), s.Variables["credibility"])

	edges, err := engine.AvailableEdges(ctx, "s1", true, "defense")
	require.NoError(t, err)
	require.Len(t, edges, 2)

	elapsed := 12.0
	d1, err := engine.ProcessDecision(ctx, "s1", moot.DecisionInput{
		ParticipantID: "p1", RoleID: "defense", Registered: true,
		EdgeID: "object", ElapsedSeconds: &elapsed,
	})
	require.NoError(t, err)
	assert.Equal(t, 24, d1.Score, "20 with fast-answer bonus")

	snap, err := engine.SessionSnapshot(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "cross", snap.CurrentNodeID)
	assert.Equal(t, float64(8), snap.Variables["credibility"])
	assert.Equal(t, domain.SessionInProgress, snap.Status)

	slow := 400.0
	d2, err := engine.ProcessDecision(ctx, "s1", moot.DecisionInput{
		ParticipantID: "p1", RoleID: "defense", Registered: true,
		EdgeID: "rest", ElapsedSeconds: &slow,
	})
	require.NoError(t, err)
	assert.Equal(t, 4, d2.Score, "5 with slow-answer penalty")

	snap, err = engine.SessionSnapshot(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, domain.SessionFinished, snap.Status)

	history, err := engine.History(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "opening", history[0].NodeID)
	assert.Equal(t, "cross", history[1].NodeID)

	decisions, err := engine.Decisions(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, decisions, 2)
	assert.Equal(t, d1.ID, decisions[0].ID)

	grade := 90
	graded, err := engine.EvaluateDecision(ctx, d1.ID, &grade, "well timed", domain.EvaluationGraded)
	require.NoError(t, err)
	assert.Equal(t, 90, *graded.OverrideGrade)

	rows, err := engine.Stats(ctx, moot.StatsFilter{SessionID: "s1", GroupBy: "role"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "defense", rows[0].Key)
	assert.Equal(t, 2, rows[0].Decisions)
	assert.InDelta(t, 14, rows[0].AvgScore, 0.001)
}

func TestEngine_RoundingPolicyOption(t *testing.T) {
	ctx := context.Background()
	engine := newEngine(t, moot.WithRoundingPolicy(moot.RoundNearest))

	_, err := engine.CreateSession(ctx, "s1", "", "g-trial")
	require.NoError(t, err)
	_, err = engine.StartSession(ctx, "s1")
	require.NoError(t, err)

	// A modifier producing a half exposes the policy: 10 * 0.25 = 2.5.
	elapsed := 60.0
	d, err := engine.ProcessDecision(ctx, "s1", moot.DecisionInput{
		Registered: true, EdgeID: "agree", ElapsedSeconds: &elapsed,
		Modifiers: []domain.ScoreModifier{{Type: domain.ModifierMultiply, Value: 0.25}},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, d.Score, "10 * 0.25 = 2.5 rounds to 3 under nearest")
}

func TestEngine_WithClock(t *testing.T) {
	ctx := context.Background()
	fixed := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	engine := newEngine(t, moot.WithClock(func() time.Time { return fixed }))

	_, err := engine.CreateSession(ctx, "s1", "", "g-trial")
	require.NoError(t, err)
	s, err := engine.StartSession(ctx, "s1")
	require.NoError(t, err)
	require.NotNil(t, s.StartedAt)
	assert.True(t, s.StartedAt.Equal(fixed))
}

func TestValidateGraph(t *testing.T) {
	assert.NoError(t, moot.ValidateGraph(courtroomGraph()))

	broken := courtroomGraph()
	broken.Nodes[0].Initial = false
	assert.Error(t, moot.ValidateGraph(broken))
}
