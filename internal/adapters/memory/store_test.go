package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mootlab/moot/pkg/domain"
	"github.com/mootlab/moot/pkg/ports"
)

func TestSessionStore_Contract(t *testing.T) {
	ports.RunSessionStoreContract(t, NewSessionStore())
}

func TestDecisionStore_Contract(t *testing.T) {
	ports.RunDecisionStoreContract(t, NewDecisionStore())
}

func TestSessionStore_Isolation(t *testing.T) {
	ctx := context.Background()
	store := NewSessionStore()

	s := domain.NewSession("s1", "trial-1", "g1")
	s.Variables = map[string]any{"trust": float64(1)}
	require.NoError(t, store.Save(ctx, s))

	// Mutating a loaded copy must not leak into the persisted record.
	loaded, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	loaded.Variables["trust"] = float64(99)

	again, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, float64(1), again.Variables["trust"])
}

func TestGraphStore(t *testing.T) {
	ctx := context.Background()
	store := NewGraphStore()
	store.Put(&domain.Graph{ID: "g1", Name: "Opening arguments"})

	g, err := store.GetGraph(ctx, "g1")
	require.NoError(t, err)
	assert.Equal(t, "Opening arguments", g.Name)

	_, err = store.GetGraph(ctx, "g2")
	assert.ErrorIs(t, err, domain.ErrGraphNotFound)
}

func TestDecisionStore_StatsByParticipant(t *testing.T) {
	ctx := context.Background()
	store := NewDecisionStore()

	mk := func(id, participant string, score int) *domain.Decision {
		return &domain.Decision{
			ID:            id,
			SessionID:     "s1",
			NodeID:        "opening",
			EdgeID:        "agree",
			ParticipantID: participant,
			Score:         score,
			Evaluation:    domain.EvaluationPending,
		}
	}
	require.NoError(t, store.Append(ctx, mk("d1", "p1", 10)))
	require.NoError(t, store.Append(ctx, mk("d2", "p1", 20)))
	require.NoError(t, store.Append(ctx, mk("d3", "p2", 30)))

	rows, err := store.Stats(ctx, ports.StatsFilter{GroupBy: "participant"})
	require.NoError(t, err)
	require.Len(t, rows, 2)

	byKey := map[string]ports.StatsRow{}
	for _, r := range rows {
		byKey[r.Key] = r
	}
	assert.Equal(t, 2, byKey["p1"].Decisions)
	assert.InDelta(t, 15, byKey["p1"].AvgScore, 0.001)
	assert.Equal(t, 1, byKey["p2"].Decisions)
}
